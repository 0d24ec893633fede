package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	blogv1 "github.com/inkstream/inkstream/api/gen/go/blog/v1"
	blogservice "github.com/inkstream/inkstream/internal/blog/api/grpc/blog"
	"github.com/inkstream/inkstream/internal/blog/auth"
	"github.com/inkstream/inkstream/internal/blog/post"
	blogsqlite "github.com/inkstream/inkstream/internal/blog/storage/sqlite"
	"github.com/inkstream/inkstream/internal/blog/transport/httpmux"
	"github.com/inkstream/inkstream/internal/platform/timeouts"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds the process-level settings for the blog server.
type Config struct {
	GRPCPort  int
	HTTPAddr  string
	DBPath    string
	JWTSecret string
}

// Server hosts the blog service.
type Server struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	store        *blogsqlite.Store
	httpListener net.Listener
	httpServer   *http.Server
}

// New creates a configured blog server listening on the provided addresses.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.GRPCPort, err)
	}
	store, err := openBlogStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}

	// One token service and one pair of use-cases feed both transports.
	tokens := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(store, tokens)
	postService := post.NewService(store)

	httpServer := &http.Server{
		Handler:           httpmux.New(authService, postService, tokens),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	apiService := blogservice.NewBlogService(authService, postService, tokens)
	healthServer := health.NewServer()
	blogv1.RegisterBlogServiceServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("blog.v1.BlogService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:     listener,
		grpcServer:   grpcServer,
		health:       healthServer,
		store:        store,
		httpListener: httpListener,
		httpServer:   httpServer,
	}, nil
}

// Addr returns the gRPC listener address for the blog server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the HTTP listener address for the blog server.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves a blog server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts both listeners and blocks until they stop or the context ends.
// It never returns with one listener still accepting: whichever trigger fires
// first, the sibling is shut down and both exits are collected before control
// returns to the caller.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("blog server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	log.Printf("blog HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	handleGRPCErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
	handleHTTPErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}

	shutdownGRPC := func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeouts.Shutdown):
			// In-flight calls exceeded the grace period; drop them.
			s.grpcServer.Stop()
		}
	}
	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		shutdownGRPC()
		shutdownHTTP()
		grpcErr := handleGRPCErr(<-serveErr)
		httpServeErr := handleHTTPErr(<-httpErr)
		if grpcErr != nil {
			return grpcErr
		}
		return httpServeErr
	case err := <-serveErr:
		shutdownHTTP()
		httpServeErr := handleHTTPErr(<-httpErr)
		if handled := handleGRPCErr(err); handled != nil {
			return handled
		}
		return httpServeErr
	case err := <-httpErr:
		shutdownGRPC()
		grpcErr := handleGRPCErr(<-serveErr)
		if handled := handleHTTPErr(err); handled != nil {
			return handled
		}
		return grpcErr
	}
}

func openBlogStore(path string) (*blogsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := blogsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blog sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close blog store: %v", err)
		}
	}
}
