package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

const (
	recentExpensesLimit = 10
	activityLimit       = 20
)

var (
	errDescriptionRequired = errors.New("description is required")
	errAmountNotPositive   = errors.New("amount must be greater than zero")
	errNoSplits            = errors.New("splits or split_among is required")
	errDuplicateSplit      = errors.New("each user may appear in splits only once")
	errNegativeSplit       = errors.New("split amounts must not be negative")
	errSplitSum            = errors.New("splits must add up to the expense amount")
	errNotParticipant      = errors.New("you must be the payer or share in the expense")
	errUnknownUser         = errors.New("unknown user")
	errNotGroupMember      = errors.New("you are not a member of this group")
	errSelfSettlement      = errors.New("cannot record a settlement with yourself")
)

// LedgerService implements the LedgerService RPC interface: balances,
// the activity feed, and the writes that feed them.
type LedgerService struct {
	store  storage.Store
	events events.Publisher
}

// NewLedgerService creates a new LedgerService backed by store. Domain
// events go to publisher; pass events.Nop{} to disable them.
func NewLedgerService(store storage.Store, publisher events.Publisher) *LedgerService {
	return &LedgerService{store: store, events: publisher}
}

func viewerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	return userID, nil
}

// GetHome returns the viewer's balances, totals and most recent expenses.
func (s *LedgerService) GetHome(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetHomeResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetHome request received", "user_id", userID)

	expenses, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{UserID: userID})
	if err != nil {
		slog.Error("GetHome failed to list expenses", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	balances, err := s.balancesFor(ctx, userID, expenses)
	if err != nil {
		slog.Error("GetHome failed to resolve names", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	owed, owedToYou := calculator.Totals(balances)
	resp := &api.GetHomeResponse{
		Balances:       make([]api.Balance, len(balances)),
		TotalOwed:      owed,
		TotalOwedToYou: owedToYou,
		RecentExpenses: make([]api.RecentExpense, 0, recentExpensesLimit),
	}
	for i, b := range balances {
		resp.Balances[i] = api.Balance{
			UserID:   b.CounterpartyID,
			UserName: b.CounterpartyName,
			Amount:   b.NetAmount,
			Summary:  calculator.DescribeBalance(b),
		}
	}
	for _, e := range expenses {
		if len(resp.RecentExpenses) == recentExpensesLimit {
			break
		}
		resp.RecentExpenses = append(resp.RecentExpenses, api.RecentExpense{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date,
			PaidByName:  displayName(e.PaidByName),
			GroupName:   e.GroupName,
		})
	}

	slog.Info("GetHome successful", "user_id", userID, "balances", len(balances), "expenses", len(expenses))
	return connect.NewResponse(resp), nil
}

// balancesFor aggregates expenses from the viewer's perspective and fills
// in names the aggregation left empty.
func (s *LedgerService) balancesFor(ctx context.Context, userID string, expenses []*models.Expense) ([]calculator.Balance, error) {
	input := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		shares := make([]calculator.Share, len(e.Splits))
		for j, split := range e.Splits {
			shares[j] = calculator.Share{UserID: split.UserID, Amount: split.Amount}
		}
		input[i] = calculator.ExpenseForBalance{
			PayerID:   e.PaidBy,
			PayerName: e.PaidByName,
			Splits:    shares,
		}
	}

	balances := calculator.ComputeBalances(userID, input)

	var missing []string
	for _, b := range balances {
		if b.CounterpartyName == "" {
			missing = append(missing, b.CounterpartyID)
		}
	}
	names, err := resolveNames(ctx, s.store, missing)
	if err != nil {
		return nil, err
	}
	for i := range balances {
		if balances[i].CounterpartyName == "" {
			balances[i].CounterpartyName = names[balances[i].CounterpartyID]
		}
	}
	return balances, nil
}

// GetActivity returns the viewer's recent expenses and settlements as one feed.
func (s *LedgerService) GetActivity(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetActivityResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetActivity request received", "user_id", userID)

	expenses, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{
		UserID:          userID,
		SplitHolderOnly: true,
		Limit:           activityLimit,
	})
	if err != nil {
		slog.Error("GetActivity failed to list expenses", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	settlements, err := s.store.ListSettlementsForUser(ctx, userID, activityLimit)
	if err != nil {
		slog.Error("GetActivity failed to list settlements", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	expenseItems := make([]calculator.ActivityItem, len(expenses))
	for i, e := range expenses {
		expenseItems[i] = calculator.ActivityItem{
			ID:          e.ID,
			Kind:        calculator.ActivityExpense,
			Description: e.Description,
			Amount:      e.Amount,
			Date:        e.Date,
			PaidByName:  displayName(e.PaidByName),
			GroupName:   e.GroupName,
		}
	}

	settlementItems := make([]calculator.ActivityItem, len(settlements))
	for i, st := range settlements {
		item := calculator.ActivityItem{
			ID:        st.ID,
			Kind:      calculator.ActivitySettlement,
			Amount:    st.Amount,
			Date:      st.Date,
			GroupName: st.GroupName,
		}
		if st.FromUserID == userID {
			item.PaidByName = displayName(st.ToName)
			item.Description = "You paid " + item.PaidByName
		} else {
			item.PaidByName = displayName(st.FromName)
			item.Description = item.PaidByName + " paid you"
		}
		settlementItems[i] = item
	}

	feed := calculator.MergeActivity(expenseItems, settlementItems)
	items := make([]api.ActivityItem, len(feed))
	for i, item := range feed {
		items[i] = api.ActivityItem{
			ID:          item.ID,
			Type:        string(item.Kind),
			Description: item.Description,
			Amount:      item.Amount,
			Date:        item.Date,
			PaidByName:  item.PaidByName,
			GroupName:   item.GroupName,
		}
	}

	slog.Info("GetActivity successful", "user_id", userID, "count", len(items))
	return connect.NewResponse(&api.GetActivityResponse{Items: items}), nil
}

// buildSplits returns the expense's splits, dividing evenly when only
// participants are given.
func buildSplits(msg *api.CreateExpenseRequest) ([]models.Split, error) {
	if len(msg.Splits) == 0 {
		if len(msg.SplitAmong) == 0 {
			return nil, errNoSplits
		}
		shares, err := calculator.SplitEvenly(msg.Amount, dedupe(msg.SplitAmong))
		if err != nil {
			return nil, err
		}
		splits := make([]models.Split, len(shares))
		for i, sh := range shares {
			splits[i] = models.Split{UserID: sh.UserID, Amount: sh.Amount}
		}
		return splits, nil
	}

	seen := make(map[string]bool, len(msg.Splits))
	total := decimal.Zero
	splits := make([]models.Split, len(msg.Splits))
	for i, sp := range msg.Splits {
		if sp.UserID == "" {
			return nil, fmt.Errorf("%w: empty user id", errUnknownUser)
		}
		if seen[sp.UserID] {
			return nil, errDuplicateSplit
		}
		seen[sp.UserID] = true
		if sp.Amount.IsNegative() {
			return nil, errNegativeSplit
		}
		total = total.Add(sp.Amount)
		splits[i] = models.Split{UserID: sp.UserID, Amount: sp.Amount}
	}
	if !total.Equal(msg.Amount) {
		return nil, fmt.Errorf("%w: got %s, want %s", errSplitSum, total, msg.Amount)
	}
	return splits, nil
}

// CreateExpense records an expense paid by one user and shared by several.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"user_id", userID,
		"amount", msg.Amount.String(),
		"splits_count", len(msg.Splits),
		"split_among_count", len(msg.SplitAmong),
	)

	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errDescriptionRequired)
	}
	if !msg.Amount.IsPositive() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errAmountNotPositive)
	}

	paidBy := msg.PaidBy
	if paidBy == "" {
		paidBy = userID
	}

	splits, err := buildSplits(msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	participants := make([]string, 0, len(splits)+1)
	participants = append(participants, paidBy)
	viewerInvolved := paidBy == userID
	for _, sp := range splits {
		participants = append(participants, sp.UserID)
		if sp.UserID == userID {
			viewerInvolved = true
		}
	}
	if !viewerInvolved {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNotParticipant)
	}

	participants = dedupe(participants)
	found, err := s.store.GetUsersByIDs(ctx, participants)
	if err != nil {
		slog.Error("CreateExpense failed to look up users", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	for _, id := range participants {
		if _, ok := found[id]; !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %s", errUnknownUser, id))
		}
	}

	if err := s.checkGroupAccess(ctx, msg.GroupID, userID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Description: description,
		Amount:      msg.Amount,
		PaidBy:      paidBy,
		Splits:      splits,
		GroupID:     msg.GroupID,
	}
	if msg.Date != nil {
		expense.Date = msg.Date.UTC().Truncate(time.Second)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "paid_by", paidBy, "group_id", expense.GroupID)

	err = s.events.ExpenseCreated(ctx, events.ExpenseCreated{
		ExpenseID:    expense.ID,
		Description:  expense.Description,
		Amount:       expense.Amount,
		PaidBy:       expense.PaidBy,
		GroupID:      expense.GroupID,
		Participants: participants,
		Date:         expense.Date,
	})
	if err != nil {
		// The expense is already stored; a lost event must not fail the request.
		slog.Warn("Failed to publish expense event", "expense_id", expense.ID, "error", err)
	}

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// RecordSettlement records a direct payment from the viewer to another user.
// Settlements appear in the activity feed and never change balances.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("RecordSettlement request received", "user_id", userID, "to_user", msg.ToUser, "amount", msg.Amount.String())

	if !msg.Amount.IsPositive() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errAmountNotPositive)
	}
	if msg.ToUser == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: to_user is required", errUnknownUser))
	}
	if msg.ToUser == userID {
		return nil, connect.NewError(connect.CodeInvalidArgument, errSelfSettlement)
	}

	if _, err := s.store.GetUserByID(ctx, msg.ToUser); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %s", errUnknownUser, msg.ToUser))
		}
		slog.Error("RecordSettlement failed to look up user", "to_user", msg.ToUser, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if err := s.checkGroupAccess(ctx, msg.GroupID, userID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		FromUserID: userID,
		ToUserID:   msg.ToUser,
		Amount:     msg.Amount,
		Note:       strings.TrimSpace(msg.Note),
		GroupID:    msg.GroupID,
	}
	if msg.Date != nil {
		settlement.Date = msg.Date.UTC().Truncate(time.Second)
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Settlement recorded", "settlement_id", settlement.ID, "from_user", userID, "to_user", msg.ToUser)

	err = s.events.SettlementRecorded(ctx, events.SettlementRecorded{
		SettlementID: settlement.ID,
		FromUserID:   settlement.FromUserID,
		ToUserID:     settlement.ToUserID,
		Amount:       settlement.Amount,
		GroupID:      settlement.GroupID,
		Date:         settlement.Date,
	})
	if err != nil {
		slog.Warn("Failed to publish settlement event", "settlement_id", settlement.ID, "error", err)
	}

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// checkGroupAccess verifies groupID exists and userID belongs to it.
// An empty groupID always passes.
func (s *LedgerService) checkGroupAccess(ctx context.Context, groupID, userID string) error {
	if groupID == "" {
		return nil
	}
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return connect.NewError(connect.CodeNotFound, err)
		}
		slog.Error("Failed to load group", "group_id", groupID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
	member, err := s.store.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		slog.Error("Failed to check group membership", "group_id", groupID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
	if !member {
		return connect.NewError(connect.CodePermissionDenied, errNotGroupMember)
	}
	return nil
}
