package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/psidex/dossiergraph/internal/config"
	"github.com/psidex/dossiergraph/internal/layout"
	"github.com/psidex/dossiergraph/internal/store"
)

// Server serves the live client, its websocket sessions and the export API over HTTP,
// and reports its health over gRPC.
type Server struct {
	logger *slog.Logger
	cfg    *config.Config
	// source is nil when no store is configured.
	source store.Source
	engine *layout.ForceEngine

	echo   *echo.Echo
	grpc   *grpc.Server
	health *health.Server
}

func NewServer(logger *slog.Logger, cfg *config.Config, source store.Source) *Server {
	s := &Server{
		logger: logger,
		cfg:    cfg,
		source: source,
		engine: layout.NewForceEngine(cfg.Layout),
		echo:   echo.New(),
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
			return nil
		},
	}))
	s.registerRoutes()

	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.echo.GET("/", s.IndexHandler)
	s.echo.GET("/ws", s.Session)

	api := s.echo.Group("/api")
	api.POST("/graph", s.GraphHandler)
	api.POST("/render/:format", s.RenderHandler)
	api.GET("/dossiers/:id/graph", s.StoredGraphHandler)
}

// Handler exposes the HTTP side, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves HTTP and gRPC until ctx is done or either server fails.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Server.GrpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}

	errs := make(chan error, 2)
	go func() {
		if err := s.grpc.Serve(lis); err != nil {
			errs <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		s.logger.Info("Starting server", "address", s.cfg.Server.Address, "grpcAddress", lis.Addr().String())
		if err := s.echo.Start(s.cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
	case err = <-errs:
		s.logger.Error("Server failed", "error", err)
	}

	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if shutdownErr := s.echo.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Error("Failed to shutdown server", "error", shutdownErr)
	}

	// Health watchers hold streams open, GracefulStop would wait on them forever.
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		s.grpc.Stop()
	}

	return err
}
