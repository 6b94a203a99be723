package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var errGroupNameRequired = errors.New("group name is required")

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The caller is always added as a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupNameRequired)
	}

	members := dedupe(append([]string{userID}, req.Msg.MemberIDs...))
	found, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		slog.Error("CreateGroup failed to look up members", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	for _, id := range members {
		if _, ok := found[id]; !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %s", errUnknownUser, id))
		}
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Msg.Description),
		CreatedBy:   userID,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group, members); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(members))

	resp := toAPIGroup(&models.GroupSummary{
		Group:         *group,
		MemberCount:   len(members),
		TotalExpenses: decimal.Zero,
	})
	return connect.NewResponse(&api.CreateGroupResponse{Group: &resp}), nil
}

// ListGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	apiGroups := make([]api.Group, len(groups))
	for i, group := range groups {
		apiGroups[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{
		Groups: apiGroups,
	}), nil
}
