package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	"github.com/vibast-solutions/ms-go-mailqueue/app/telemetry"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
)

var rootCmd = &cobra.Command{
	Use:   "mailqueue",
	Short: "Email notification pipeline",
	Long:  "Queue-backed email notifications: enqueue API, email consumer, logging service and operator tools.",
}

// Execute runs the root Cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// attachTelemetry forwards log entries at TELEMETRY_LEVEL and above to the
// logging service. The sink reports its own failures on a separate logger so
// they never loop back into it.
func attachTelemetry(cfg *config.Config, logger *logrus.Logger) telemetry.Sink {
	if cfg.LoggerHost == "" {
		return telemetry.NopSink{}
	}

	level, err := logrus.ParseLevel(cfg.TelemetryLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	sink, err := telemetry.Dial(cfg.LoggerHost, cfg.TelemetryTimeout, cfg.TelemetryBuffer, newLogger(cfg))
	if err != nil {
		logger.WithError(err).Warn("Telemetry disabled")
		return telemetry.NopSink{}
	}

	logger.AddHook(telemetry.NewHook(sink, cfg.AppName, level))
	return sink
}

// closeTelemetry flushes buffered events when the sink supports it.
func closeTelemetry(sink telemetry.Sink, timeout time.Duration) {
	s, ok := sink.(*telemetry.GRPCSink)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = s.Close(ctx)
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

func topologyFromConfig(cfg *config.Config) queue.Topology {
	return queue.NewTopology(cfg.QueueName, cfg.QueueConsumerGroup)
}
