package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// AccountService serves the account screen.
type AccountService struct {
	users storage.UserStore
}

func NewAccountService(users storage.UserStore) *AccountService {
	return &AccountService{users: users}
}

// GetProfile returns the caller's name and email from the profile store.
func (s *AccountService) GetProfile(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetProfileResponse], error) {
	userID, err := viewerID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		slog.Error("GetProfile failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetProfileResponse{
		Profile: &api.Profile{FullName: user.FullName, Email: user.Email},
	}), nil
}
