package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errEmailRequired    = errors.New("email is required")
	errFullNameRequired = errors.New("full name is required")
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	tokens        storage.TokenStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. A nil logger uses slog.Default().
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, tokens storage.TokenStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		tokens:        tokens,
		logger:        logger,
	}
}

// SignUp creates a new user account and starts a session.
func (s *AuthService) SignUp(ctx context.Context, req *connect.Request[api.SignUpRequest]) (*connect.Response[api.SignUpResponse], error) {
	s.logger.Info("SignUp request", "email", req.Msg.Email)

	email := strings.TrimSpace(req.Msg.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmailRequired)
	}
	if strings.TrimSpace(req.Msg.FullName) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errFullNameRequired)
	}

	user, err := s.authenticator.Register(ctx, email, req.Msg.FullName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.SignUpResponse{
		User:  toAPIUser(user),
		Token: token,
	}), nil
}

// SignIn authenticates a user and returns a JWT token.
func (s *AuthService) SignIn(ctx context.Context, req *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	s.logger.Info("SignIn request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.SignInResponse{
		User:  toAPIUser(user),
		Token: token,
	}), nil
}

// SignOut revokes the token the request was made with. The token stays
// rejected until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[emptypb.Empty], error) {
	userID := middleware.GetUserID(ctx)
	session, ok := middleware.GetSession(ctx)
	if userID == "" || !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	if session.TokenID != "" {
		if err := s.tokens.RevokeToken(ctx, session.TokenID, session.ExpiresAt); err != nil {
			s.logger.Error("Failed to revoke token", "user_id", userID, "error", err)
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	s.logger.Info("User signed out", "user_id", userID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// GetSession returns the signed-in user's profile.
func (s *AuthService) GetSession(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.GetSessionResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		// Token outlived its account.
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	if err != nil {
		s.logger.Error("GetSession failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetSessionResponse{User: toAPIUser(user)}), nil
}
