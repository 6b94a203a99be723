package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

func newTestServer(t *testing.T, rateLimit int) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	handler := NewRouter(Services{
		Auth:    service.NewAuthService(authenticator, jwtManager, store, store, nil),
		Ledger:  service.NewLedgerService(store, events.Nop{}),
		Group:   service.NewGroupService(store),
		Account: service.NewAccountService(store),
	}, Options{
		JWTManager:    jwtManager,
		Revocations:   store,
		Registry:      prometheus.NewRegistry(),
		CORSOrigins:   []string{"https://app.example"},
		AuthRateLimit: rateLimit,
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRouter(t *testing.T) {
	server := newTestServer(t, 0)
	ctx := context.Background()

	authClient := apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL)
	ledgerClient := apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL)

	signUp, err := authClient.SignUp(ctx, connect.NewRequest(&api.SignUpRequest{
		Email: "alice@example.com", Password: "password123", FullName: "Alice",
	}))
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	req := connect.NewRequest(&emptypb.Empty{})
	req.Header().Set("Authorization", "Bearer "+signUp.Msg.Token)
	if _, err := ledgerClient.GetHome(ctx, req); err != nil {
		t.Fatalf("GetHome failed: %v", err)
	}

	_, err = ledgerClient.GetHome(ctx, connect.NewRequest(&emptypb.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", err)
	}

	t.Run("private services mounted", func(t *testing.T) {
		groupClient := apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL)
		accountClient := apiconnect.NewAccountServiceClient(http.DefaultClient, server.URL)

		req := connect.NewRequest(&emptypb.Empty{})
		req.Header().Set("Authorization", "Bearer "+signUp.Msg.Token)
		if _, err := groupClient.ListGroups(ctx, req); err != nil {
			t.Errorf("ListGroups failed: %v", err)
		}

		req = connect.NewRequest(&emptypb.Empty{})
		req.Header().Set("Authorization", "Bearer "+signUp.Msg.Token)
		if _, err := accountClient.GetProfile(ctx, req); err != nil {
			t.Errorf("GetProfile failed: %v", err)
		}

		if _, err := accountClient.GetProfile(ctx, connect.NewRequest(&emptypb.Empty{})); connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("GetProfile without token: expected unauthenticated, got %v", err)
		}
	})

	t.Run("healthz", func(t *testing.T) {
		code, body := get(t, server.URL+"/healthz")
		if code != http.StatusOK || body != "ok" {
			t.Errorf("healthz = %d %q", code, body)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		code, body := get(t, server.URL+"/metrics")
		if code != http.StatusOK {
			t.Fatalf("metrics status = %d", code)
		}
		for _, want := range []string{
			`splitledger_rpc_requests_total{code="ok",procedure="/splitledger.v1.AuthService/SignUp"} 1`,
			`splitledger_rpc_requests_total{code="ok",procedure="/splitledger.v1.LedgerService/GetHome"} 1`,
			`splitledger_rpc_requests_total{code="unauthenticated",procedure="/splitledger.v1.LedgerService/GetHome"} 1`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("metrics output missing %s", want)
			}
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, server.URL+apiconnect.LedgerServiceGetHomeProcedure, nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("preflight failed: %v", err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		code, _ := get(t, server.URL+"/splitledger.v1.NopeService/Nope")
		if code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", code)
		}
	})
}

func TestRouter_AuthRateLimit(t *testing.T) {
	server := newTestServer(t, 2)
	client := apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL)

	var lastErr error
	for i := 0; i < 3; i++ {
		_, lastErr = client.SignIn(context.Background(), connect.NewRequest(&api.SignInRequest{
			Email: "nobody@example.com", Password: "password123",
		}))
	}
	if connect.CodeOf(lastErr) != connect.CodeUnavailable && connect.CodeOf(lastErr) != connect.CodeResourceExhausted {
		t.Errorf("third request: expected rate limit error, got %v", lastErr)
	}
}
