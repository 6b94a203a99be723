package service

import (
	"context"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/pkg/api"
)

func (env *testEnv) createExpense(t *testing.T, token string, req *api.CreateExpenseRequest) *api.Expense {
	t.Helper()

	resp, err := env.ledger.CreateExpense(context.Background(), authed(req, token))
	if err != nil {
		t.Fatalf("CreateExpense(%s) failed: %v", req.Description, err)
	}
	return resp.Msg.Expense
}

func balancesByUser(balances []api.Balance) map[string]api.Balance {
	m := make(map[string]api.Balance, len(balances))
	for _, b := range balances {
		m[b.UserID] = b
	}
	return m
}

func TestGetHome(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")
	carol := env.signUp(t, "Carol")

	env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
		Description: "Groceries",
		Amount:      dec("30"),
		Date:        day(1),
		SplitAmong:  []string{alice.ID, bob.ID, carol.ID},
	})
	env.createExpense(t, bob.Token, &api.CreateExpenseRequest{
		Description: "Taxi",
		Amount:      dec("12"),
		Date:        day(2),
		Splits:      []api.Split{{UserID: alice.ID, Amount: dec("6")}, {UserID: bob.ID, Amount: dec("6")}},
	})

	t.Run("payer view", func(t *testing.T) {
		resp, err := env.ledger.GetHome(ctx, authed(&emptypb.Empty{}, alice.Token))
		if err != nil {
			t.Fatalf("GetHome failed: %v", err)
		}

		got := balancesByUser(resp.Msg.Balances)
		if len(got) != 2 {
			t.Fatalf("expected 2 balances, got %+v", resp.Msg.Balances)
		}
		if b := got[bob.ID]; !b.Amount.Equal(dec("4")) || b.UserName != "Bob" || b.Summary != "owes you $4.00" {
			t.Errorf("bob balance = %+v", b)
		}
		if b := got[carol.ID]; !b.Amount.Equal(dec("10")) || b.UserName != "Carol" {
			t.Errorf("carol balance = %+v", b)
		}
		if !resp.Msg.TotalOwedToYou.Equal(dec("14")) || !resp.Msg.TotalOwed.IsZero() {
			t.Errorf("totals = owed %s, owed to you %s", resp.Msg.TotalOwed, resp.Msg.TotalOwedToYou)
		}

		recent := resp.Msg.RecentExpenses
		if len(recent) != 2 {
			t.Fatalf("expected 2 recent expenses, got %d", len(recent))
		}
		if recent[0].Description != "Taxi" || recent[0].PaidByName != "Bob" {
			t.Errorf("newest expense = %+v", recent[0])
		}
		if recent[1].Description != "Groceries" || !recent[1].Amount.Equal(dec("30")) {
			t.Errorf("oldest expense = %+v", recent[1])
		}
	})

	t.Run("counterparty views are symmetric", func(t *testing.T) {
		resp, err := env.ledger.GetHome(ctx, authed(&emptypb.Empty{}, bob.Token))
		if err != nil {
			t.Fatalf("GetHome failed: %v", err)
		}
		if len(resp.Msg.Balances) != 1 {
			t.Fatalf("expected 1 balance, got %+v", resp.Msg.Balances)
		}
		b := resp.Msg.Balances[0]
		if b.UserID != alice.ID || !b.Amount.Equal(dec("-4")) || b.UserName != "Alice" || b.Summary != "you owe $4.00" {
			t.Errorf("alice balance = %+v", b)
		}
		if !resp.Msg.TotalOwed.Equal(dec("4")) {
			t.Errorf("total owed = %s, want 4", resp.Msg.TotalOwed)
		}

		resp, err = env.ledger.GetHome(ctx, authed(&emptypb.Empty{}, carol.Token))
		if err != nil {
			t.Fatalf("GetHome failed: %v", err)
		}
		if len(resp.Msg.Balances) != 1 || !resp.Msg.Balances[0].Amount.Equal(dec("-10")) {
			t.Errorf("carol balances = %+v", resp.Msg.Balances)
		}
		// Carol is not part of the taxi ride.
		if len(resp.Msg.RecentExpenses) != 1 {
			t.Errorf("carol sees %d expenses, want 1", len(resp.Msg.RecentExpenses))
		}
	})

	t.Run("settlements do not change balances", func(t *testing.T) {
		_, err := env.ledger.RecordSettlement(ctx, authed(&api.RecordSettlementRequest{
			ToUser: alice.ID,
			Amount: dec("4"),
		}, bob.Token))
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}

		resp, err := env.ledger.GetHome(ctx, authed(&emptypb.Empty{}, alice.Token))
		if err != nil {
			t.Fatalf("GetHome failed: %v", err)
		}
		if b := balancesByUser(resp.Msg.Balances)[bob.ID]; !b.Amount.Equal(dec("4")) {
			t.Errorf("bob balance after settlement = %s, want 4", b.Amount)
		}
	})

	t.Run("requires auth", func(t *testing.T) {
		_, err := env.ledger.GetHome(ctx, connect.NewRequest(&emptypb.Empty{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})
}

func TestGetHome_RecentLimitAndFullBalances(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")

	for i := 1; i <= 12; i++ {
		env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
			Description: fmt.Sprintf("Coffee %d", i),
			Amount:      dec("2"),
			Date:        day(i),
			SplitAmong:  []string{alice.ID, bob.ID},
		})
	}

	resp, err := env.ledger.GetHome(context.Background(), authed(&emptypb.Empty{}, alice.Token))
	if err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}
	if len(resp.Msg.RecentExpenses) != 10 {
		t.Errorf("recent expenses = %d, want 10", len(resp.Msg.RecentExpenses))
	}
	if resp.Msg.RecentExpenses[0].Description != "Coffee 12" {
		t.Errorf("newest = %s, want Coffee 12", resp.Msg.RecentExpenses[0].Description)
	}
	// All twelve expenses count toward the balance, not just the ten shown.
	if len(resp.Msg.Balances) != 1 || !resp.Msg.Balances[0].Amount.Equal(dec("12")) {
		t.Errorf("balances = %+v, want bob owing 12", resp.Msg.Balances)
	}
}

func TestGetHome_DropsSettledBalances(t *testing.T) {
	env := setupTestServer(t)
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")

	env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
		Description: "Lunch", Amount: dec("20"), SplitAmong: []string{alice.ID, bob.ID},
	})
	env.createExpense(t, bob.Token, &api.CreateExpenseRequest{
		Description: "Dinner", Amount: dec("20"), SplitAmong: []string{alice.ID, bob.ID},
	})

	resp, err := env.ledger.GetHome(context.Background(), authed(&emptypb.Empty{}, alice.Token))
	if err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}
	if len(resp.Msg.Balances) != 0 {
		t.Errorf("expected no balances, got %+v", resp.Msg.Balances)
	}
	if len(resp.Msg.RecentExpenses) != 2 {
		t.Errorf("recent expenses = %d, want 2", len(resp.Msg.RecentExpenses))
	}
}

func TestGetActivity(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")

	env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
		Description: "Rent", Amount: dec("1000"), Date: day(1),
		SplitAmong: []string{alice.ID, bob.ID},
	})
	// Alice pays but holds no split: not part of her feed.
	env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
		Description: "Gift for Bob", Amount: dec("25"), Date: day(2),
		Splits: []api.Split{{UserID: bob.ID, Amount: dec("25")}},
	})
	_, err := env.ledger.RecordSettlement(ctx, authed(&api.RecordSettlementRequest{
		ToUser: alice.ID, Amount: dec("500"), Date: day(3), Note: "rent",
	}, bob.Token))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	t.Run("receiver", func(t *testing.T) {
		resp, err := env.ledger.GetActivity(ctx, authed(&emptypb.Empty{}, alice.Token))
		if err != nil {
			t.Fatalf("GetActivity failed: %v", err)
		}
		items := resp.Msg.Items
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %+v", items)
		}
		if items[0].Type != "settlement" || items[0].Description != "Bob paid you" || items[0].PaidByName != "Bob" {
			t.Errorf("first item = %+v", items[0])
		}
		if items[1].Type != "expense" || items[1].Description != "Rent" || items[1].PaidByName != "Alice" {
			t.Errorf("second item = %+v", items[1])
		}
	})

	t.Run("payer", func(t *testing.T) {
		resp, err := env.ledger.GetActivity(ctx, authed(&emptypb.Empty{}, bob.Token))
		if err != nil {
			t.Fatalf("GetActivity failed: %v", err)
		}
		items := resp.Msg.Items
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %+v", items)
		}
		want := []string{"You paid Alice", "Gift for Bob", "Rent"}
		for i, desc := range want {
			if items[i].Description != desc {
				t.Errorf("item %d = %q, want %q", i, items[i].Description, desc)
			}
		}
		if !items[0].Amount.Equal(dec("500")) || items[0].PaidByName != "Alice" {
			t.Errorf("settlement item = %+v", items[0])
		}
	})
}

func TestCreateExpense(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")
	carol := env.signUp(t, "Carol")

	t.Run("split evenly", func(t *testing.T) {
		expense := env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
			Description: "Pizza",
			Amount:      dec("10"),
			SplitAmong:  []string{alice.ID, bob.ID, carol.ID, bob.ID},
		})
		if expense.ID == "" || expense.PaidBy != alice.ID {
			t.Errorf("unexpected expense: %+v", expense)
		}
		want := []string{"3.34", "3.33", "3.33"}
		if len(expense.Splits) != len(want) {
			t.Fatalf("splits = %+v", expense.Splits)
		}
		for i, amt := range want {
			if !expense.Splits[i].Amount.Equal(dec(amt)) {
				t.Errorf("split %d = %s, want %s", i, expense.Splits[i].Amount, amt)
			}
		}
	})

	t.Run("someone else paid", func(t *testing.T) {
		expense := env.createExpense(t, alice.Token, &api.CreateExpenseRequest{
			Description: "Tickets",
			Amount:      dec("40"),
			PaidBy:      bob.ID,
			Splits:      []api.Split{{UserID: alice.ID, Amount: dec("15")}, {UserID: bob.ID, Amount: dec("25")}},
		})
		if expense.PaidBy != bob.ID || expense.Splits[0].UserID != alice.ID {
			t.Errorf("unexpected expense: %+v", expense)
		}
	})

	t.Run("publishes event", func(t *testing.T) {
		before := len(env.events.expenseEvents())
		expense := env.createExpense(t, bob.Token, &api.CreateExpenseRequest{
			Description: "Snacks", Amount: dec("6"), SplitAmong: []string{bob.ID, carol.ID},
		})
		published := env.events.expenseEvents()
		if len(published) != before+1 {
			t.Fatalf("expected one new event, got %d", len(published)-before)
		}
		event := published[len(published)-1]
		if event.ExpenseID != expense.ID || event.PaidBy != bob.ID || len(event.Participants) != 2 {
			t.Errorf("unexpected event: %+v", event)
		}
	})

	tests := []struct {
		name string
		req  *api.CreateExpenseRequest
		code connect.Code
	}{
		{
			name: "missing description",
			req:  &api.CreateExpenseRequest{Amount: dec("5"), SplitAmong: []string{alice.ID}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "zero amount",
			req:  &api.CreateExpenseRequest{Description: "x", Amount: dec("0"), SplitAmong: []string{alice.ID}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "no splits",
			req:  &api.CreateExpenseRequest{Description: "x", Amount: dec("5")},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "splits do not sum",
			req: &api.CreateExpenseRequest{Description: "x", Amount: dec("5"),
				Splits: []api.Split{{UserID: alice.ID, Amount: dec("2")}, {UserID: bob.ID, Amount: dec("2")}}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "duplicate split user",
			req: &api.CreateExpenseRequest{Description: "x", Amount: dec("4"),
				Splits: []api.Split{{UserID: bob.ID, Amount: dec("2")}, {UserID: bob.ID, Amount: dec("2")}}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "negative split",
			req: &api.CreateExpenseRequest{Description: "x", Amount: dec("4"),
				Splits: []api.Split{{UserID: alice.ID, Amount: dec("6")}, {UserID: bob.ID, Amount: dec("-2")}}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "viewer not involved",
			req:  &api.CreateExpenseRequest{Description: "x", Amount: dec("4"), PaidBy: bob.ID, SplitAmong: []string{bob.ID, carol.ID}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown participant",
			req:  &api.CreateExpenseRequest{Description: "x", Amount: dec("4"), SplitAmong: []string{alice.ID, "ghost"}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown group",
			req:  &api.CreateExpenseRequest{Description: "x", Amount: dec("4"), GroupID: "missing", SplitAmong: []string{alice.ID}},
			code: connect.CodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.CreateExpense(ctx, authed(tt.req, alice.Token))
			assertCode(t, err, tt.code)
		})
	}
}

func TestCreateExpense_Group(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")
	carol := env.signUp(t, "Carol")

	group, err := env.groups.CreateGroup(ctx, authed(&api.CreateGroupRequest{
		Name:      "Roommates",
		MemberIDs: []string{bob.ID},
	}, alice.Token))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := group.Msg.Group.ID

	expense := env.createExpense(t, bob.Token, &api.CreateExpenseRequest{
		Description: "Utilities", Amount: dec("80"), GroupID: groupID,
		SplitAmong: []string{alice.ID, bob.ID},
	})
	if expense.GroupID != groupID {
		t.Errorf("group id = %s, want %s", expense.GroupID, groupID)
	}

	_, err = env.ledger.CreateExpense(ctx, authed(&api.CreateExpenseRequest{
		Description: "Intruder", Amount: dec("10"), GroupID: groupID,
		SplitAmong: []string{carol.ID},
	}, carol.Token))
	assertCode(t, err, connect.CodePermissionDenied)

	home, err := env.ledger.GetHome(ctx, authed(&emptypb.Empty{}, alice.Token))
	if err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}
	if len(home.Msg.RecentExpenses) != 1 || home.Msg.RecentExpenses[0].GroupName != "Roommates" {
		t.Errorf("recent expenses = %+v", home.Msg.RecentExpenses)
	}
}

func TestRecordSettlement(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice")
	bob := env.signUp(t, "Bob")

	resp, err := env.ledger.RecordSettlement(ctx, authed(&api.RecordSettlementRequest{
		ToUser: bob.ID,
		Amount: dec("12.50"),
		Note:   " dinner ",
		Date:   day(5),
	}, alice.Token))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	s := resp.Msg.Settlement
	if s.ID == "" || s.FromUser != alice.ID || s.ToUser != bob.ID || s.Note != "dinner" {
		t.Errorf("unexpected settlement: %+v", s)
	}
	if !s.Amount.Equal(dec("12.5")) || !s.Date.Equal(*day(5)) {
		t.Errorf("unexpected settlement: %+v", s)
	}
	if published := env.events.settlementEvents(); len(published) != 1 || published[0].SettlementID != s.ID {
		t.Errorf("events = %+v", published)
	}

	tests := []struct {
		name string
		req  *api.RecordSettlementRequest
		code connect.Code
	}{
		{"zero amount", &api.RecordSettlementRequest{ToUser: bob.ID, Amount: dec("0")}, connect.CodeInvalidArgument},
		{"negative amount", &api.RecordSettlementRequest{ToUser: bob.ID, Amount: dec("-1")}, connect.CodeInvalidArgument},
		{"to self", &api.RecordSettlementRequest{ToUser: alice.ID, Amount: dec("1")}, connect.CodeInvalidArgument},
		{"missing recipient", &api.RecordSettlementRequest{Amount: dec("1")}, connect.CodeInvalidArgument},
		{"unknown recipient", &api.RecordSettlementRequest{ToUser: "ghost", Amount: dec("1")}, connect.CodeInvalidArgument},
		{"unknown group", &api.RecordSettlementRequest{ToUser: bob.ID, Amount: dec("1"), GroupID: "missing"}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.RecordSettlement(ctx, authed(tt.req, alice.Token))
			assertCode(t, err, tt.code)
		})
	}
}
