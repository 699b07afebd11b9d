// Package http exposes the dashboard API: anonymous auth, transaction
// logging, profiles, derived metrics, chart data, and the realtime
// websocket endpoint.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"finpulse/internal/auth"
	"finpulse/internal/cache"
	"finpulse/internal/core"
	"finpulse/internal/log"
	"finpulse/internal/services"
	"finpulse/internal/ws"
)

// TransactionAPI is the slice of the transaction service the server needs.
type TransactionAPI interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// ProfileAPI is the slice of the profile service the server needs.
type ProfileAPI interface {
	GetHealthProfile(ctx context.Context, userID string) (core.HealthProfile, error)
	SaveHealthProfile(ctx context.Context, h core.HealthProfile) error
	GetPortfolioProfile(ctx context.Context, userID string) (core.PortfolioProfile, error)
	SavePortfolioProfile(ctx context.Context, p core.PortfolioProfile) error
}

var (
	_ TransactionAPI = (*services.TransactionService)(nil)
	_ ProfileAPI     = (*services.ProfileService)(nil)
)

type Server struct {
	http.Server
	transactions TransactionAPI
	profiles     ProfileAPI
	issuer       *auth.TokenIssuer
	hub          *ws.Hub
	rateLimiter  *rateLimiter
	upgrader     websocket.Upgrader
	logger       *log.Logger

	// Per-user cache of the full transaction history. Every dashboard
	// read derives from this list, so one entry serves all endpoints.
	listCache    *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, transactions TransactionAPI, profiles ProfileAPI, issuer *auth.TokenIssuer, hub *ws.Hub) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: transactions,
		profiles:     profiles,
		issuer:       issuer,
		hub:          hub,
		rateLimiter:  newRateLimiter(60),
		upgrader:     websocket.Upgrader{},
		logger:       log.New(log.Config{Component: log.ComponentHTTP}),
		listCache:    cache.NewLRUCache[[]core.Transaction](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /auth/anonymous", s.withSecurityHeaders(s.handleAnonymousAuth))

	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /transactions", s.withSecurityHeaders(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.withAuth(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /profile/health", s.withSecurityHeaders(s.withAuth(s.handleGetHealthProfile)))
	mux.HandleFunc("PUT /profile/health", s.withSecurityHeaders(s.withAuth(s.handlePutHealthProfile)))
	mux.HandleFunc("GET /profile/portfolio", s.withSecurityHeaders(s.withAuth(s.handleGetPortfolioProfile)))
	mux.HandleFunc("PUT /profile/portfolio", s.withSecurityHeaders(s.withAuth(s.handlePutPortfolioProfile)))

	mux.HandleFunc("GET /metrics", s.withSecurityHeaders(s.withAuth(s.handleMetrics)))
	mux.HandleFunc("GET /charts/categories", s.withSecurityHeaders(s.withAuth(s.handleCategoryChart)))
	mux.HandleFunc("GET /charts/monthly", s.withSecurityHeaders(s.withAuth(s.handleMonthlyChart)))
	mux.HandleFunc("GET /charts/projection", s.withSecurityHeaders(s.withAuth(s.handleProjectionChart)))
	mux.HandleFunc("GET /risk-profiles", s.withSecurityHeaders(s.handleRiskProfiles))

	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.hub != nil {
			s.hub.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		// Generate request ID for tracing
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutating requests only; dashboard reads are cheap.
		if isMutating(r.Method) && !s.rateLimiter.allow(ip) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, ip)
	}
}

// withAuth requires a valid Bearer token and stores the user id in the
// request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.authenticate(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateTransactions(userID string) {
	s.listCache.Delete(userID)
}

// loadTransactions returns the user's history, from cache when possible.
func (s *Server) loadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if txs, found := s.listCache.Get(userID); found {
		slog.DebugContext(ctx, "Transaction list cache hit", "user_id", userID, "count", len(txs))
		result := make([]core.Transaction, len(txs))
		copy(result, txs)
		return result, nil
	}

	txs, err := s.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.listCache.Set(userID, txs)
	return txs, nil
}
