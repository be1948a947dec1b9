// Package calculator divides a shared expense into per-person shares.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

// PersonSplit represents the calculated split for one person
type PersonSplit struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Item represents a single item on the expense
type Item struct {
	Description string
	Amount      float64
	AssignedTo  []string
}

// CalculateSplit computes how much each person owes including proportional tax
// Based on the algorithm: person_total = person_subtotal × (1 + (total_tax / subtotal))
func CalculateSplit(items []Item, total float64, subtotal float64, participants []string) (map[string]*PersonSplit, error) {
	if subtotal == 0 {
		return nil, fmt.Errorf("subtotal cannot be zero")
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}

	tax := total - subtotal
	splits := make(map[string]*PersonSplit)

	for _, p := range participants {
		splits[p] = &PersonSplit{}
	}

	// If no items, split total equally among all participants
	if len(items) == 0 {
		perPersonTotal := total / float64(len(participants))
		perPersonSubtotal := subtotal / float64(len(participants))
		perPersonTax := tax / float64(len(participants))

		for _, split := range splits {
			split.Subtotal = perPersonSubtotal
			split.Tax = perPersonTax
			split.Total = perPersonTotal
		}
		return splits, nil
	}

	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}

		perPersonAmount := item.Amount / float64(len(item.AssignedTo))
		for _, person := range item.AssignedTo {
			if split, exists := splits[person]; exists {
				split.Subtotal += perPersonAmount
			}
		}
	}

	for _, split := range splits {
		split.Tax = split.Subtotal * (tax / subtotal)
		split.Total = split.Subtotal + split.Tax
	}

	return splits, nil
}

// SharesForTransaction turns an expense paid by ownerID into the splits the
// other participants owe. The owner's own share is not recorded. Amounts are
// rounded to cents and returned in participant order.
func SharesForTransaction(ownerID string, items []Item, total, subtotal float64, participants []string) ([]models.Split, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if total < 0 || subtotal < 0 {
		return nil, fmt.Errorf("amounts cannot be negative")
	}

	computed, err := CalculateSplit(items, total, subtotal, participants)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(participants))
	order := make([]string, 0, len(participants))
	for _, p := range participants {
		if seen[p] || p == ownerID {
			continue
		}
		seen[p] = true
		order = append(order, p)
	}

	shares := make([]models.Split, 0, len(order))
	for _, p := range order {
		amount := decimal.NewFromFloat(computed[p].Total).Round(2).InexactFloat64()
		if amount <= 0 {
			continue
		}
		shares = append(shares, models.Split{UserID: p, Amount: amount})
	}
	return shares, nil
}
