package service

import (
	"context"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// unknownName is shown wherever a user's name cannot be resolved.
const unknownName = "Unknown"

func displayName(name string) string {
	if name == "" {
		return unknownName
	}
	return name
}

func toAPIUser(user *models.User) *api.User {
	return &api.User{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: time.Unix(user.CreatedAt, 0).UTC(),
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{UserID: s.UserID, Amount: s.Amount}
	}
	return &api.Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		Date:        e.Date,
		GroupID:     e.GroupID,
		Splits:      splits,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:       s.ID,
		FromUser: s.FromUserID,
		ToUser:   s.ToUserID,
		Amount:   s.Amount,
		Date:     s.Date,
		Note:     s.Note,
		GroupID:  s.GroupID,
	}
}

func toAPIGroup(g *models.GroupSummary) api.Group {
	return api.Group{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		MemberCount:   g.MemberCount,
		TotalExpenses: g.TotalExpenses,
		CreatedAt:     g.CreatedAt,
	}
}

// resolveNames looks up full names for ids. Missing users map to unknownName.
func resolveNames(ctx context.Context, users storage.UserStore, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if u, ok := found[id]; ok {
			names[id] = displayName(u.FullName)
		} else {
			names[id] = unknownName
		}
	}
	return names, nil
}

// dedupe returns ids without repeats, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
