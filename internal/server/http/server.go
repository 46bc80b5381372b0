package httpserver

import (
	"context"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/feed"
	"github.com/rzbill/eventfeed/internal/runtime"
	"github.com/rzbill/eventfeed/internal/server/http/controllers"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// Options configures the HTTP gateway.
type Options struct {
	// Hub serves /v1/feed/ws when set.
	Hub *events.Hub
	// CORSOrigins lists allowed origins; empty allows any.
	CORSOrigins []string
	Logger      logpkg.Logger
}

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	logger logpkg.Logger

	mu  sync.Mutex
	lis net.Listener
}

func New(rt *runtime.Runtime, svc *feed.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	logger = logger.WithComponent("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors(opts.CORSOrigins))

	controllers.NewControllerRegistry(rt, svc, opts.Hub, logger).RegisterAllRoutes(r)

	return &Server{
		rt:     rt,
		logger: logger,
		srv:    &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.setListener(l)
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound address, or nil before ListenAndServe binds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

func (s *Server) setListener(l net.Listener) {
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(origins) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger logpkg.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				logpkg.Str("method", r.Method),
				logpkg.Str("path", r.URL.Path),
				logpkg.Int("status", ww.Status()),
				logpkg.Int("bytes", ww.BytesWritten()),
				logpkg.Dur("elapsed", time.Since(start)),
				logpkg.Str("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
