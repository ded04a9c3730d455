package rpc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"sagachat/go-backend/internal/domains/contracts"
	"sagachat/go-backend/internal/metrics"
	"sagachat/go-backend/internal/platform/ratelimiter"
)

const (
	DefaultRPCAddr         = "127.0.0.1:8787"
	defaultShutdownTimeout = 5 * time.Second

	tokenHeader = "X-Saga-RPC-Token"
)

var ErrServiceRequired = errors.New("rpc server requires a daemon service")

type Options struct {
	Addr  string
	Token string
	// RequireToken refuses to start without Token.
	RequireToken    bool
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
	// AllowNullOrigin admits "null" origins (file:// pages) through CORS.
	AllowNullOrigin bool
	Logger          *slog.Logger
	Metrics         *metrics.ServiceMetrics
}

type Server struct {
	httpServer      *http.Server
	service         contracts.DaemonService
	logger          *slog.Logger
	metrics         *metrics.ServiceMetrics
	limiter         *ratelimiter.MapLimiter
	rpcToken        string
	allowNullOrigin bool
	shutdownTimeout time.Duration
	now             func() time.Time
}

func NewServer(opts Options, svc contracts.DaemonService) (*Server, error) {
	if svc == nil {
		return nil, ErrServiceRequired
	}
	opts.Token = strings.TrimSpace(opts.Token)
	if opts.RequireToken && opts.Token == "" {
		return nil, errors.New("rpc token is required; set SAGA_RPC_TOKEN or rpc.token")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultRPCAddr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		service:         svc,
		logger:          logger,
		metrics:         opts.Metrics,
		limiter:         ratelimiter.New(opts.RateLimitRPS, opts.RateLimitBurst, 0),
		rpcToken:        opts.Token,
		allowNullOrigin: opts.AllowNullOrigin,
		shutdownTimeout: opts.ShutdownTimeout,
		now:             time.Now,
	}
	if s.rpcToken == "" {
		logger.Warn("rpc token is not set; RPC auth disabled", "component", "rpc")
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Router builds the route table. Exposed for httptest.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	rpcHandler := s.rateLimitMiddleware("rpc")(s.authMiddleware(http.HandlerFunc(s.handleRPC)))
	r.Handle("/rpc", rpcHandler).Methods(http.MethodPost, http.MethodOptions)

	keys := r.PathPrefix("/v1/keys").Subrouter()
	keys.Use(s.rateLimitMiddleware("keys"))
	keys.HandleFunc("/{wallet}", s.handleGetKey).Methods(http.MethodGet, http.MethodOptions)
	keys.Handle("/{wallet}", s.authMiddleware(http.HandlerFunc(s.handlePutKey))).Methods(http.MethodPut)
	return r
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("rpc server listening", "component", "rpc", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.applyCORS(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin != "" && !s.isAllowedOrigin(origin) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return false
	}
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, "+tokenHeader)
	return true
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || s.authorized(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.rpcToken == "" {
		return true
	}
	token := extractRPCToken(r)
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.rpcToken)) == 1
}

func (s *Server) rateLimitMiddleware(route string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.limiter.Allow(rpcRateLimitKey(r, extractRPCToken(r)), s.now()) {
				s.metrics.RecordRateLimited(route)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractRPCToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(tokenHeader))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

func rpcRateLimitKey(r *http.Request, token string) string {
	if strings.TrimSpace(token) != "" {
		return "token:" + token
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}

func (s *Server) isAllowedOrigin(raw string) bool {
	if raw == "null" {
		return s.allowNullOrigin
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.TrimSpace(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
