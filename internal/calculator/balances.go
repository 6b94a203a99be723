package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the largest absolute net amount still considered settled.
var BalanceEpsilon = decimal.RequireFromString("0.01")

// Share is one user's portion of an expense.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	PayerID   string
	PayerName string
	Splits    []Share
}

// Balance is the net amount between the viewer and one counterparty.
type Balance struct {
	CounterpartyID   string
	CounterpartyName string
	NetAmount        decimal.Decimal // Positive = counterparty owes the viewer, Negative = viewer owes
}

type accumulator struct {
	name   string
	amount decimal.Decimal
}

// ComputeBalances nets every expense the viewer took part in into one
// balance per counterparty.
//
// Algorithm:
// - Viewer paid: every other user's split is owed to the viewer (+share)
// - Someone else paid: the viewer's own split is owed to the payer (-share)
// - Expenses without a viewer split that the viewer did not pay are skipped
// - Balances with |net| <= BalanceEpsilon are dropped
//
// Results keep the order in which counterparties were first seen. Names are
// only known for payers; counterparties that only appear as split holders
// come back with an empty name.
func ComputeBalances(viewerID string, expenses []ExpenseForBalance) []Balance {
	acc := make(map[string]*accumulator)
	var order []string

	entry := func(userID, name string) *accumulator {
		if a, ok := acc[userID]; ok {
			return a
		}
		a := &accumulator{name: name}
		acc[userID] = a
		order = append(order, userID)
		return a
	}

	for _, exp := range expenses {
		if exp.PayerID == viewerID {
			// Duplicate split entries each count; there is no dedup pass.
			for _, split := range exp.Splits {
				if split.UserID == viewerID {
					continue
				}
				a := entry(split.UserID, "")
				a.amount = a.amount.Add(split.Amount)
			}
			continue
		}

		mine, ok := findShare(exp.Splits, viewerID)
		if !ok {
			continue
		}
		a := entry(exp.PayerID, exp.PayerName)
		a.amount = a.amount.Sub(mine.Amount)
	}

	balances := make([]Balance, 0, len(order))
	for _, id := range order {
		a := acc[id]
		if a.amount.Abs().LessThanOrEqual(BalanceEpsilon) {
			continue
		}
		balances = append(balances, Balance{
			CounterpartyID:   id,
			CounterpartyName: a.name,
			NetAmount:        a.amount,
		})
	}
	return balances
}

// findShare returns the first split held by userID.
func findShare(splits []Share, userID string) (Share, bool) {
	for _, s := range splits {
		if s.UserID == userID {
			return s, true
		}
	}
	return Share{}, false
}

// Totals sums what the viewer owes and what is owed to the viewer.
// Both results are non-negative.
func Totals(balances []Balance) (owed, owedToYou decimal.Decimal) {
	for _, b := range balances {
		switch {
		case b.NetAmount.IsNegative():
			owed = owed.Add(b.NetAmount.Abs())
		case b.NetAmount.IsPositive():
			owedToYou = owedToYou.Add(b.NetAmount)
		}
	}
	return owed, owedToYou
}

// DescribeBalance renders the balance from the viewer's side,
// e.g. "owes you $4.50" or "you owe $2.00".
func DescribeBalance(b Balance) string {
	if b.NetAmount.IsPositive() {
		return fmt.Sprintf("owes you $%s", b.NetAmount.StringFixed(2))
	}
	return fmt.Sprintf("you owe $%s", b.NetAmount.Abs().StringFixed(2))
}
