// Package currency converts and formats amounts using a static rate table.
package currency

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidRate     = errors.New("rate must be positive")
)

// zeroDecimal lists currencies displayed without minor units.
var zeroDecimal = map[string]bool{
	"INR": true,
	"JPY": true,
	"KRW": true,
}

// RateTable holds exchange rates quoted against Base: Rates["EUR"] is the
// number of euros one unit of Base buys.
type RateTable struct {
	Base  string             `yaml:"base"`
	Rates map[string]float64 `yaml:"rates"`
}

// NewRateTable creates a table for base with the given quotes.
func NewRateTable(base string, rates map[string]float64) (*RateTable, error) {
	t := &RateTable{Base: strings.ToUpper(base), Rates: make(map[string]float64, len(rates))}
	for code, rate := range rates {
		t.Rates[strings.ToUpper(code)] = rate
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadRates reads a YAML rate table from path.
//
//	base: USD
//	rates:
//	  EUR: 0.92
//	  INR: 83.1
func LoadRates(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}

	var raw RateTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rates file %s: %w", path, err)
	}

	return NewRateTable(raw.Base, raw.Rates)
}

func (t *RateTable) validate() error {
	if !ValidCode(t.Base) {
		return fmt.Errorf("%w: base %q", ErrUnknownCurrency, t.Base)
	}
	for code, rate := range t.Rates {
		if !ValidCode(code) {
			return fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
		}
		if rate <= 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidRate, code, rate)
		}
	}
	return nil
}

// rate returns the quote for code against the base.
func (t *RateTable) rate(code string) (float64, bool) {
	if code == t.Base {
		return 1, true
	}
	r, ok := t.Rates[code]
	return r, ok
}

// Convert converts amount from one currency to another through the base.
// If either side has no quote the amount is returned unchanged.
func (t *RateTable) Convert(amount float64, from, to string) float64 {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == "" || from == to {
		return amount
	}
	if to == "" {
		to = t.Base
	}

	fromRate, ok := t.rate(from)
	if !ok {
		return amount
	}
	toRate, ok := t.rate(to)
	if !ok {
		return amount
	}
	return amount / fromRate * toRate
}

// Supports reports whether code can be converted by this table.
func (t *RateTable) Supports(code string) bool {
	_, ok := t.rate(strings.ToUpper(code))
	return ok
}

// Rebase returns an equivalent table quoted against base.
func (t *RateTable) Rebase(base string) (*RateTable, error) {
	base = strings.ToUpper(base)
	if base == t.Base {
		return t, nil
	}
	pivot, ok := t.rate(base)
	if !ok {
		return nil, fmt.Errorf("%w: no rate for %s", ErrUnknownCurrency, base)
	}

	rates := make(map[string]float64, len(t.Rates))
	rates[t.Base] = 1 / pivot
	for code, r := range t.Rates {
		if code == base {
			continue
		}
		rates[code] = r / pivot
	}
	return &RateTable{Base: base, Rates: rates}, nil
}

// ValidCode reports whether code looks like an ISO 4217 alphabetic code.
func ValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Format renders amount with the number of minor units customary for code.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	places := int32(2)
	if zeroDecimal[code] {
		places = 0
	}
	return decimal.NewFromFloat(amount).StringFixed(places) + " " + code
}
