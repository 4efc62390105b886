package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-mailqueue/app/controller"
	grpcserver "github.com/vibast-solutions/ms-go-mailqueue/app/grpc"
	"github.com/vibast-solutions/ms-go-mailqueue/app/metrics"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC enqueue API",
	Long:  "Start the HTTP (Echo) and gRPC servers that validate email jobs and publish them to the queue.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires dependencies and starts HTTP and gRPC servers.
func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	sink := attachTelemetry(cfg, logger)
	defer closeTelemetry(sink, cfg.TelemetryTimeout)

	rdb, err := newRedisClient(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	producer := queue.NewEmailProducer(rdb, topologyFromConfig(cfg), m.QueueHooks())
	emailController := controller.NewEmailController(producer, logger)
	grpcEmailServer := grpcserver.NewServer(producer, logger)

	e := setupHTTPServer(emailController, logger, reg)
	grpcServer, lis := setupGRPCServer(cfg, logger, func(s *grpc.Server) {
		types.RegisterNotificationsServiceServer(s, grpcEmailServer)
	})

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		logger.Infof("Starting HTTP server on %s", httpAddr)
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logger.Infof("Starting gRPC server on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logger.WithError(err).Fatal("gRPC server error")
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown error")
	}
	grpcServer.GracefulStop()

	logger.Info("Server stopped")
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(emailController *controller.EmailController, logger logrus.FieldLogger, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	email := e.Group("/email")
	email.POST("/send", emailController.Send)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))

	return e
}

// requestLogger writes one logrus entry per HTTP request.
func requestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"component": "http",
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("HTTP request failed")
				return nil
			}
			entry.Debug("HTTP request")
			return nil
		},
	})
}

// setupGRPCServer builds a gRPC server with the standard health service and
// whatever services register adds.
func setupGRPCServer(cfg *config.Config, logger logrus.FieldLogger, register func(*grpc.Server)) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, cfg.GRPCPort)
	return newGRPCServer(grpcAddr, logger, register)
}

func newGRPCServer(addr string, logger logrus.FieldLogger, register func(*grpc.Server)) (*grpc.Server, net.Listener) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.WithError(err).Fatalf("Failed to listen on %s", addr)
	}

	grpcServer := grpc.NewServer()
	register(grpcServer)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return grpcServer, lis
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
