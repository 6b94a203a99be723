// Package server assembles the HTTP handler: Connect services, their
// interceptors, and the operational endpoints.
package server

import (
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitledger/internal/auth"
	rpc "github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Services are the Connect service implementations to mount.
type Services struct {
	Auth    apiconnect.AuthServiceHandler
	Ledger  apiconnect.LedgerServiceHandler
	Group   apiconnect.GroupServiceHandler
	Account apiconnect.AccountServiceHandler
}

// Options configure cross-cutting behavior of the router.
type Options struct {
	JWTManager  *auth.JWTManager
	Revocations rpc.RevocationChecker

	// Registry receives the RPC collectors and backs /metrics.
	Registry *prometheus.Registry

	CORSOrigins []string

	// AuthRateLimit caps auth service requests per IP per minute. Zero disables it.
	AuthRateLimit int
}

// NewRouter returns the root handler. Interceptors run in the order
// metrics, auth, logging so failed authentication is still counted and
// logged lines carry the user id.
func NewRouter(svc Services, opts Options) http.Handler {
	metrics := rpc.NewMetrics(opts.Registry)

	public := connect.WithInterceptors(
		rpc.MetricsInterceptor(metrics),
		rpc.OptionalAuth(opts.JWTManager, opts.Revocations),
		rpc.LoggingInterceptor(),
	)
	private := connect.WithInterceptors(
		rpc.MetricsInterceptor(metrics),
		rpc.RequireAuth(opts.JWTManager, opts.Revocations),
		rpc.LoggingInterceptor(),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:         300,
	}))

	authPath, authHandler := apiconnect.NewAuthServiceHandler(svc.Auth, public)
	if opts.AuthRateLimit > 0 {
		authHandler = httprate.LimitByIP(opts.AuthRateLimit, time.Minute)(authHandler)
	}
	mount(r, authPath, authHandler)

	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(svc.Ledger, private)
	mount(r, ledgerPath, ledgerHandler)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(svc.Group, private)
	mount(r, groupPath, groupHandler)
	accountPath, accountHandler := apiconnect.NewAccountServiceHandler(svc.Account, private)
	mount(r, accountPath, accountHandler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

	return r
}

// mount attaches a Connect service handler under its "/package.Service/" path.
func mount(r chi.Router, path string, h http.Handler) {
	r.Mount(strings.TrimSuffix(path, "/"), h)
}
