// Package settle computes the smallest set of payments that clears a group of
// pairwise debts.
//
// The computation runs in two stages. Net folds every pending split into one
// signed balance per person (in a single target currency) while remembering
// which splits link each debtor to each creditor. Ledger.Settle then pairs the
// largest creditor with the largest debtor until nobody is owed more than
// Epsilon.
//
// Nothing here performs I/O or keeps state between calls; currency conversion
// is injected through Converter.
package settle

import (
	"math"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// Epsilon is the absolute tolerance below which a balance counts as settled.
	Epsilon = 0.01

	// ViewerName labels the invoking person in payment display names.
	ViewerName = "You"

	// UnknownName is used when no display name was ever observed for a person.
	UnknownName = "Unknown"
)

// Converter converts a monetary amount between two currency codes.
// Implementations must not block; rates are expected to be resolved up front.
type Converter interface {
	Convert(amount float64, from, to string) float64
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(amount float64, from, to string) float64

// Convert calls f(amount, from, to).
func (f ConverterFunc) Convert(amount float64, from, to string) float64 {
	return f(amount, from, to)
}

// Identity returns amounts unchanged.
var Identity Converter = ConverterFunc(func(amount float64, _, _ string) float64 { return amount })

// Split is one person's unpaid share of a transaction.
type Split struct {
	// ID identifies the share record.
	ID string

	// DebtorID is the person who owes the share.
	DebtorID string

	// CreditorID is the transaction owner who is owed. Splits without one are ignored.
	CreditorID string

	// Amount is the share, denominated in Currency.
	Amount float64

	// Currency of Amount. Empty means the target currency.
	Currency string

	// PayerName is the display name of the counterparty as seen by the viewer:
	// the creditor when the viewer is the debtor, otherwise the debtor.
	PayerName string
}

// Payment is one recommended transfer of a settlement plan.
type Payment struct {
	From     string
	FromName string
	To       string
	ToName   string

	// Amount is rounded to 2 decimal places, in the target currency.
	Amount float64

	// SplitIDs are the splits this payment is understood to settle.
	SplitIDs []string
}

type edge struct {
	debtor   string
	creditor string
}

// Ledger holds the net balances produced by Net. It is scoped to one
// computation and is not safe for concurrent mutation.
type Ledger struct {
	balances map[string]float64
	owes     map[string]float64
	owed     map[string]float64
	people   []string // first-seen order, used to break sort ties
	names    map[string]string

	edges     map[edge][]string
	edgeOrder []edge
}

// ComputeSettlement nets splits into balances in targetCurrency and returns
// the greedy minimal payment plan. A nil convert leaves amounts unchanged.
func ComputeSettlement(splits []Split, viewerID string, convert Converter, targetCurrency string) []Payment {
	return Net(splits, viewerID, convert, targetCurrency).Settle()
}

// Net folds splits into per-person balances in targetCurrency.
//
// Splits with no creditor, no debtor, or where debtor and creditor are the same
// person contribute nothing. An empty DebtorID is never treated as a person of
// its own, so it cannot absorb the creditor's balance. convert is called once
// for every split whose currency differs from targetCurrency; its result is
// trusted as is.
func Net(splits []Split, viewerID string, convert Converter, targetCurrency string) *Ledger {
	if convert == nil {
		convert = Identity
	}

	l := &Ledger{
		balances: make(map[string]float64),
		owes:     make(map[string]float64),
		owed:     make(map[string]float64),
		names:    make(map[string]string),
		edges:    make(map[edge][]string),
	}

	for _, s := range splits {
		if s.CreditorID == "" || s.DebtorID == "" || s.DebtorID == s.CreditorID {
			continue
		}

		amount := s.Amount
		if s.Currency != "" && s.Currency != targetCurrency {
			amount = convert.Convert(s.Amount, s.Currency, targetCurrency)
		}

		l.adjust(s.DebtorID, -amount)
		l.adjust(s.CreditorID, amount)
		l.owes[s.DebtorID] += amount
		l.owed[s.CreditorID] += amount

		if s.DebtorID == viewerID {
			l.names[s.DebtorID] = ViewerName
		}
		if s.CreditorID == viewerID {
			l.names[s.CreditorID] = ViewerName
		}
		if s.PayerName != "" {
			if s.DebtorID == viewerID {
				l.nameOnce(s.CreditorID, s.PayerName)
			} else {
				l.nameOnce(s.DebtorID, s.PayerName)
			}
		}

		e := edge{debtor: s.DebtorID, creditor: s.CreditorID}
		if _, ok := l.edges[e]; !ok {
			l.edgeOrder = append(l.edgeOrder, e)
		}
		l.edges[e] = append(l.edges[e], s.ID)
	}

	return l
}

func (l *Ledger) adjust(id string, delta float64) {
	if _, ok := l.balances[id]; !ok {
		l.people = append(l.people, id)
	}
	l.balances[id] += delta
}

func (l *Ledger) nameOnce(id, name string) {
	if _, ok := l.names[id]; !ok {
		l.names[id] = name
	}
}

// People returns every person with a balance entry, in first-seen order.
func (l *Ledger) People() []string {
	return slices.Clone(l.people)
}

// Balance returns the net balance of id. Positive means id is owed money.
func (l *Ledger) Balance(id string) float64 {
	return l.balances[id]
}

// Exposure returns the gross amounts id owes and is owed before any
// cancellation between people.
func (l *Ledger) Exposure(id string) (owes, owed float64) {
	return l.owes[id], l.owed[id]
}

// Name returns the display name observed for id, or UnknownName.
func (l *Ledger) Name(id string) string {
	if name, ok := l.names[id]; ok && name != "" {
		return name
	}
	return UnknownName
}

// EdgeSplits returns the split IDs through which debtor directly owes creditor.
func (l *Ledger) EdgeSplits(debtor, creditor string) []string {
	return slices.Clone(l.edges[edge{debtor: debtor, creditor: creditor}])
}

// DebtorSplits returns every split ID owed by debtor, across all creditors.
func (l *Ledger) DebtorSplits(debtor string) []string {
	var ids []string
	for _, e := range l.edgeOrder {
		if e.debtor == debtor {
			ids = append(ids, l.edges[e]...)
		}
	}
	return ids
}

// provenance picks the split IDs attached to a debtor→creditor payment.
//
// Without a direct edge every split of the debtor is attached, even those owed
// to other creditors. Consumers marking splits paid from a plan must account
// for that over-attribution.
func (l *Ledger) provenance(debtor, creditor string) []string {
	if direct := l.EdgeSplits(debtor, creditor); len(direct) > 0 {
		return direct
	}
	return l.DebtorSplits(debtor)
}

type party struct {
	id     string
	amount float64
}

// Settle matches creditors with debtors, largest first, and returns the
// payments in the order they were produced. It does not modify the ledger.
func (l *Ledger) Settle() []Payment {
	var creditors, debtors []party
	for _, id := range l.people {
		bal := l.balances[id]
		switch {
		case bal > Epsilon:
			creditors = append(creditors, party{id: id, amount: bal})
		case bal < -Epsilon:
			debtors = append(debtors, party{id: id, amount: -bal})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	payments := make([]Payment, 0, min(len(creditors), len(debtors)))
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		creditor := &creditors[ci]
		debtor := &debtors[di]
		amount := math.Min(creditor.amount, debtor.amount)

		if amount > Epsilon {
			payments = append(payments, Payment{
				From:     debtor.id,
				FromName: l.Name(debtor.id),
				To:       creditor.id,
				ToName:   l.Name(creditor.id),
				Amount:   Round(amount),
				SplitIDs: l.provenance(debtor.id, creditor.id),
			})
		}

		creditor.amount -= amount
		debtor.amount -= amount

		if creditor.amount < Epsilon {
			ci++
		}
		if debtor.amount < Epsilon {
			di++
		}
	}

	return payments
}

// Round rounds amount to 2 decimal places, half away from zero, on the
// shortest decimal form of amount. Half-cent inputs therefore round up:
// Round(1.005) is 1.01, where scaling the float by 100 first would give 1.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Total sums the payment amounts of a plan without accumulating float error.
func Total(payments []Payment) float64 {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(decimal.NewFromFloat(p.Amount))
	}
	return sum.InexactFloat64()
}
