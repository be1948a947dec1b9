package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripSplits = `viewer: alice
currency: USD
splits:
  - id: s1
    debtor: bob
    creditor: alice
    amount: 30
    currency: USD
    payer_name: Bob
  - id: s2
    debtor: carol
    creditor: alice
    amount: 20
    currency: EUR
    payer_name: Carol
`

const tripRates = `base: USD
rates:
  EUR: 0.5
`

// isolate keeps config lookup away from the developer's own files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLoadPlanFile(t *testing.T) {
	dir := isolate(t)

	t.Run("yaml", func(t *testing.T) {
		f, err := loadPlanFile(writeFile(t, dir, "trip.yaml", tripSplits))
		require.NoError(t, err)
		assert.Equal(t, "alice", f.Viewer)
		require.Len(t, f.Splits, 2)

		splits := f.settleSplits()
		assert.Equal(t, "carol", splits[1].DebtorID)
		assert.Equal(t, "EUR", splits[1].Currency)
		assert.Equal(t, "Carol", splits[1].PayerName)
	})

	t.Run("json with generated ids", func(t *testing.T) {
		path := writeFile(t, dir, "trip.json",
			`{"splits": [{"debtor": "bob", "creditor": "alice", "amount": 12.5, "currency": "usd"}]}`)
		f, err := loadPlanFile(path)
		require.NoError(t, err)

		splits := f.settleSplits()
		require.Len(t, splits, 1)
		assert.Equal(t, "split-1", splits[0].ID)
		assert.Equal(t, "USD", splits[0].Currency)
		assert.Equal(t, 12.5, splits[0].Amount)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadPlanFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestPlanCommand(t *testing.T) {
	dir := isolate(t)
	splits := writeFile(t, dir, "trip.yaml", tripSplits)
	rates := writeFile(t, dir, "rates.yaml", tripRates)

	t.Run("converts and lists payments", func(t *testing.T) {
		out, err := execute(t, "plan", "--splits", splits, "--rates", rates, "--show-splits")
		require.NoError(t, err)

		assert.Contains(t, out, "Carol")
		assert.Contains(t, out, "Bob")
		assert.Contains(t, out, "You")
		assert.Contains(t, out, "40.00 USD")
		assert.Contains(t, out, "30.00 USD")
		assert.Contains(t, out, "s2")
		assert.Contains(t, out, "2 payments totalling 70.00 USD")
	})

	t.Run("target currency", func(t *testing.T) {
		out, err := execute(t, "plan", "--splits", splits, "--rates", rates, "--currency", "eur")
		require.NoError(t, err)

		assert.Contains(t, out, "20.00 EUR")
		assert.Contains(t, out, "15.00 EUR")
		assert.Contains(t, out, "totalling 35.00 EUR")
	})

	t.Run("unsupported target", func(t *testing.T) {
		_, err := execute(t, "plan", "--splits", splits, "--rates", rates, "--currency", "JPY")
		assert.Error(t, err)
	})

	t.Run("ids shown for unnamed people", func(t *testing.T) {
		anon := writeFile(t, dir, "anon.yaml", `splits:
  - {id: s1, debtor: bob, creditor: alice, amount: 12}
`)
		out, err := execute(t, "plan", "--splits", anon)
		require.NoError(t, err)
		assert.Contains(t, out, "Unknown (bob)")
		assert.Contains(t, out, "Unknown (alice)")
		assert.Contains(t, out, "12.00 USD")
	})

	t.Run("nothing owed", func(t *testing.T) {
		empty := writeFile(t, dir, "empty.yaml", "splits: []\n")
		out, err := execute(t, "plan", "--splits", empty)
		require.NoError(t, err)
		assert.Contains(t, out, "All settled up")
	})

	t.Run("splits flag is required", func(t *testing.T) {
		_, err := execute(t, "plan")
		assert.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "settleup dev")
}

func TestServeRequiresSecret(t *testing.T) {
	isolate(t)
	t.Setenv("SETTLEUP_AUTH_JWT_SECRET", "")

	_, err := execute(t, "serve")
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Bob", displayName("Bob", "bob"))
	assert.Equal(t, "You", displayName("You", "alice"))
	assert.Equal(t, "Unknown (carol)", displayName("Unknown", "carol"))
}
