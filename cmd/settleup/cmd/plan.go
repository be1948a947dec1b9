package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/settle"
)

// planFile is the offline input for the plan command. JSON is accepted too,
// since it parses as YAML.
//
//	viewer: alice
//	currency: USD
//	splits:
//	  - id: s1
//	    debtor: bob
//	    creditor: alice
//	    amount: 30
//	    currency: EUR
//	    payer_name: Bob
type planFile struct {
	Viewer   string      `yaml:"viewer" json:"viewer"`
	Currency string      `yaml:"currency" json:"currency"`
	Splits   []planSplit `yaml:"splits" json:"splits"`
}

type planSplit struct {
	ID        string  `yaml:"id" json:"id"`
	Debtor    string  `yaml:"debtor" json:"debtor"`
	Creditor  string  `yaml:"creditor" json:"creditor"`
	Amount    float64 `yaml:"amount" json:"amount"`
	Currency  string  `yaml:"currency" json:"currency"`
	PayerName string  `yaml:"payer_name" json:"payer_name"`
}

func loadPlanFile(path string) (*planFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read splits file: %w", err)
	}

	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse splits file %s: %w", path, err)
	}
	return &f, nil
}

func (f *planFile) settleSplits() []settle.Split {
	splits := make([]settle.Split, 0, len(f.Splits))
	for i, s := range f.Splits {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("split-%d", i+1)
		}
		splits = append(splits, settle.Split{
			ID:         id,
			DebtorID:   s.Debtor,
			CreditorID: s.Creditor,
			Amount:     s.Amount,
			Currency:   strings.ToUpper(s.Currency),
			PayerName:  s.PayerName,
		})
	}
	return splits
}

func newPlanCmd(opts *options) *cobra.Command {
	var (
		splitsFile     string
		viewer         string
		target         string
		ratesFile      string
		showProvenance bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a settlement plan from a file of splits",
		Long: `Compute the greedy minimal set of payments that clears the balances in
a YAML or JSON file of unpaid splits, without a server or database.

Amounts in other currencies are converted with the rate table given by
--rates or currency.rates_file. Without one they are summed unconverted.`,
		Example: `  settleup plan --splits trip.yaml
  settleup plan --splits trip.yaml --viewer alice --currency EUR --rates rates.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadPlanFile(splitsFile)
			if err != nil {
				return err
			}

			if viewer == "" {
				viewer = f.Viewer
			}
			if target == "" {
				target = f.Currency
			}
			if target == "" {
				target = opts.cfg.Currency.Default
			}
			target = strings.ToUpper(target)
			if !currency.ValidCode(target) {
				return fmt.Errorf("%w: %q", currency.ErrUnknownCurrency, target)
			}

			if ratesFile == "" {
				ratesFile = opts.cfg.Currency.RatesFile
			}
			convert := settle.Identity
			if ratesFile != "" {
				rates, err := currency.LoadRates(ratesFile)
				if err != nil {
					return err
				}
				if !rates.Supports(target) {
					return fmt.Errorf("%w: no rate for %s in %s", currency.ErrUnknownCurrency, target, ratesFile)
				}
				convert = rates
			}

			payments := settle.ComputeSettlement(f.settleSplits(), viewer, convert, target)
			return renderPlan(cmd.OutOrStdout(), payments, target, showProvenance)
		},
	}

	cmd.Flags().StringVarP(&splitsFile, "splits", "s", "", "YAML or JSON file of unpaid splits (required)")
	cmd.Flags().StringVar(&viewer, "viewer", "", "person shown as \"You\"")
	cmd.Flags().StringVar(&target, "currency", "", "currency of the plan (default from file or config)")
	cmd.Flags().StringVar(&ratesFile, "rates", "", "YAML exchange rate table")
	cmd.Flags().BoolVar(&showProvenance, "show-splits", false, "list the split IDs each payment settles")
	_ = cmd.MarkFlagRequired("splits")

	return cmd
}

func renderPlan(w io.Writer, payments []settle.Payment, code string, showProvenance bool) error {
	if len(payments) == 0 {
		pterm.Success.WithWriter(w).Println("All settled up")
		return nil
	}

	header := []string{"From", "To", "Amount"}
	if showProvenance {
		header = append(header, "Splits")
	}
	data := pterm.TableData{header}
	for _, p := range payments {
		row := []string{displayName(p.FromName, p.From), displayName(p.ToName, p.To), currency.Format(p.Amount, code)}
		if showProvenance {
			row = append(row, strings.Join(p.SplitIDs, ", "))
		}
		data = append(data, row)
	}

	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}

	noun := "payments"
	if len(payments) == 1 {
		noun = "payment"
	}
	pterm.Info.WithWriter(w).Printfln("%d %s totalling %s", len(payments), noun,
		currency.Format(settle.Total(payments), code))
	return nil
}

// displayName shows the person ID beside names that were never observed.
func displayName(name, id string) string {
	if name == settle.UnknownName && id != "" {
		return fmt.Sprintf("%s (%s)", name, id)
	}
	return name
}
