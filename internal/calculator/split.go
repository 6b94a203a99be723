package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

var cent = decimal.New(1, -2)

// SplitEvenly divides amount into per-user shares rounded down to the cent.
// Leftover cents go one each to the first participants, so the shares
// always sum to amount (after rounding amount itself to the cent).
func SplitEvenly(amount decimal.Decimal, userIDs []string) ([]Share, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	total := amount.Round(2)
	n := decimal.NewFromInt(int64(len(userIDs)))
	base := total.Div(n).RoundDown(2)
	remainder := total.Sub(base.Mul(n))
	extra := remainder.Div(cent).IntPart()

	shares := make([]Share, len(userIDs))
	for i, id := range userIDs {
		share := base
		if int64(i) < extra {
			share = share.Add(cent)
		}
		shares[i] = Share{UserID: id, Amount: share}
	}
	return shares, nil
}

// SumShares returns the total of all share amounts.
func SumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
