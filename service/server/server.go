package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/txwatch/sigview/service/config"
	"github.com/txwatch/sigview/service/db"
	"github.com/txwatch/sigview/service/metrics"
	"github.com/txwatch/sigview/service/nats"
	"github.com/txwatch/sigview/service/solana"
)

// Server is the HTTP front end of the signature resolution service.
type Server struct {
	addr      string
	cfg       *config.Config
	resolver  *resolver
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
	publisher nats.Publisher
}

// New creates the HTTP server with the given dependencies.
// The store is optional - if nil, the Postgres layer is skipped and the
// service runs cache-then-RPC only.
// The publisher is optional - if nil, no fetch events are emitted.
// The metrics is optional - if nil, no metrics endpoint is exposed.
func New(cfg *config.Config, solanaClient *solana.Client, store *db.Store, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	// Assigning a nil *db.Store straight into the interface would make it
	// non-nil, so the nil check happens before conversion.
	var st recordStore
	if store != nil {
		st = store
	}

	res := &resolver{
		cache:        newRecordCache(cfg.ResponseCacheSize, cfg.ResponseCacheTTL),
		store:        st,
		fetcher:      solanaClient,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
		fetchTimeout: cfg.FetchTimeout,
	}

	return &Server{
		addr:      cfg.ServerAddr,
		cfg:       cfg,
		resolver:  res,
		metrics:   m,
		logger:    logger,
		publisher: publisher,
	}
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive the full stack through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	txHandler := handleGetTransaction(s.resolver, s.logger)
	acctHandler := handleGetAccountTransactions(s.resolver, s.cfg.AccountFetchLimitMax, s.logger)

	if s.metrics != nil {
		txHandler = metrics.HTTPMetricsMiddleware(s.metrics, "get_transaction")(txHandler)
		acctHandler = metrics.HTTPMetricsMiddleware(s.metrics, "get_account_transactions")(acctHandler)
	}

	mux.Handle("GET /api/transaction/{signature}", txHandler)
	mux.Handle("GET /api/account/{address}/transactions", acctHandler)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server and closes the event
// publisher.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("failed to close publisher", "error", err)
		}
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS
// preflight requests. The API is read-only, so wide-open CORS is fine.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
