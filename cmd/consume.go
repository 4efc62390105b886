package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
	"github.com/vibast-solutions/ms-go-mailqueue/app/lock"
	"github.com/vibast-solutions/ms-go-mailqueue/app/metrics"
	"github.com/vibast-solutions/ms-go-mailqueue/app/provider"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	"github.com/vibast-solutions/ms-go-mailqueue/app/service"
	"github.com/vibast-solutions/ms-go-mailqueue/app/templates"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume queued messages",
	Long:  "Consume queued messages from Redis streams.",
}

func init() {
	consumeCmd.AddCommand(consumeEmailsCmd)
	rootCmd.AddCommand(consumeCmd)
}

var consumeEmailsCmd = &cobra.Command{
	Use:   "emails [consumer_name]",
	Short: "Start the email queue consumer",
	Long:  "Start a worker that reads email jobs from the Redis stream, renders their templates and sends them.",
	Args:  cobra.ExactArgs(1),
	Run:   runConsumeEmails,
}

// runConsumeEmails starts the email queue consumer worker.
func runConsumeEmails(_ *cobra.Command, args []string) {
	consumerName := args[0]

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)
	sink := attachTelemetry(cfg, logger)

	policy, err := queue.ParsePolicy(cfg.FailurePolicy)
	if err != nil {
		logger.WithError(err).Fatal("Invalid EMAIL_FAILURE_POLICY")
	}

	rdb, err := newRedisClient(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	renderer, err := templates.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load email templates")
	}

	sender, err := buildEmailSender(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build email sender")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	topology := topologyFromConfig(cfg)

	emailService := service.NewEmailService(renderer, sender, cfg.MailRateLimit)
	consumer := queue.NewEmailConsumer(rdb, topology, emailService, queue.ConsumerConfig{
		Name:           consumerName,
		BlockTimeout:   cfg.QueueBlockTimeout,
		ProcessTimeout: cfg.ProcessTimeout,
		Policy:         policy,
		MaxAttempts:    cfg.MaxAttempts,
		Backoff:        cfg.RetryBackoff,
		ClaimMinIdle:   cfg.ClaimMinIdle,
		ClaimInterval:  cfg.ClaimInterval,
		MaxDeliveries:  cfg.MaxDeliveries,
	}, logger, m.QueueHooks())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if policy == queue.PolicyDeadLetter {
		scheduler := queue.NewRetryScheduler(rdb, topology, lock.NewRedisLocker(rdb), cfg.RetryInterval, logger)
		go scheduler.Run(ctx)
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, reg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.WithError(err).Error("Consumer error")
		}
	case <-quit:
		logger.Info("Received shutdown signal, draining consumer...")
		cancel()
		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		select {
		case err := <-done:
			if err != nil {
				logger.WithError(err).Error("Consumer error")
			}
		case <-drainCtx.Done():
			logger.Warn("Drain timeout reached, in-flight message left pending")
		}
		drainCancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Metrics server shutdown error")
	}

	logger.Info("Consumer stopped")
	closeTelemetry(sink, cfg.TelemetryTimeout)
	_ = rdb.Close()
}

// startMetricsServer exposes /metrics and /health for the worker.
func startMetricsServer(addr string, reg *prometheus.Registry, logger logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		logger.Infof("Starting metrics server on %s", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server error")
		}
	}()
	return e
}

func buildEmailSender(cfg *config.Config) (provider.EmailSender, error) {
	from := entity.Recipient{Address: cfg.SenderAddress, DisplayName: cfg.SenderName}

	switch strings.ToLower(cfg.EmailProvider) {
	case "", "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("EMAIL_HOST is required for the smtp provider")
		}
		return provider.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPTimeout, from), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return provider.NewSESSender(awsCfg, from), nil
	case "noop":
		return provider.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.EmailProvider)
	}
}
