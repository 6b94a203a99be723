package calculator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityKind distinguishes the two record types shown in the feed.
type ActivityKind string

const (
	ActivityExpense    ActivityKind = "expense"
	ActivitySettlement ActivityKind = "settlement"
)

// ActivityItem is one row of the activity feed.
type ActivityItem struct {
	ID          string
	Kind        ActivityKind
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	PaidByName  string
	GroupName   string
}

// MergeActivity combines expenses and settlements into a single feed,
// newest first. Items with equal dates keep their input order, expenses
// ahead of settlements.
func MergeActivity(expenses, settlements []ActivityItem) []ActivityItem {
	feed := make([]ActivityItem, 0, len(expenses)+len(settlements))
	feed = append(feed, expenses...)
	feed = append(feed, settlements...)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Date.After(feed[j].Date)
	})
	return feed
}
