package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu          sync.Mutex
	expenses    []events.ExpenseCreated
	settlements []events.SettlementRecorded
}

func (p *recordingPublisher) ExpenseCreated(_ context.Context, e events.ExpenseCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = append(p.expenses, e)
	return nil
}

func (p *recordingPublisher) SettlementRecorded(_ context.Context, e events.SettlementRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settlements = append(p.settlements, e)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) expenseEvents() []events.ExpenseCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ExpenseCreated(nil), p.expenses...)
}

func (p *recordingPublisher) settlementEvents() []events.SettlementRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.SettlementRecorded(nil), p.settlements...)
}

type testEnv struct {
	auth    apiconnect.AuthServiceClient
	ledger  apiconnect.LedgerServiceClient
	groups  apiconnect.GroupServiceClient
	account apiconnect.AccountServiceClient
	events  *recordingPublisher
	store   *sqlite.SQLiteStore
}

// testUser is a signed-up account and its session token.
type testUser struct {
	ID    string
	Name  string
	Token string
}

// setupTestServer wires every service against a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	publisher := &recordingPublisher{}
	logger := slog.Default()

	public := connect.WithInterceptors(middleware.OptionalAuth(jwtManager, store))
	private := connect.WithInterceptors(middleware.RequireAuth(jwtManager, store))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, store, logger), public))
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(store, publisher), private))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store), private))
	mux.Handle(apiconnect.NewAccountServiceHandler(NewAccountService(store), private))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		auth:    apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		ledger:  apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		account: apiconnect.NewAccountServiceClient(http.DefaultClient, server.URL),
		events:  publisher,
		store:   store,
	}
}

func (env *testEnv) signUp(t *testing.T, name string) testUser {
	t.Helper()

	resp, err := env.auth.SignUp(context.Background(), connect.NewRequest(&api.SignUpRequest{
		Email:    name + "@example.com",
		Password: "password123",
		FullName: name,
	}))
	if err != nil {
		t.Fatalf("SignUp(%s) failed: %v", name, err)
	}
	return testUser{ID: resp.Msg.User.ID, Name: name, Token: resp.Msg.Token}
}

// authed wraps msg in a request carrying token as a bearer credential.
func authed[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) *time.Time {
	d := time.Date(2024, 1, n, 12, 0, 0, 0, time.UTC)
	return &d
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Errorf("code = %v, want %v (%v)", connectErr.Code(), want, err)
	}
}
