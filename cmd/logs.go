package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	grpcserver "github.com/vibast-solutions/ms-go-mailqueue/app/grpc"
	"github.com/vibast-solutions/ms-go-mailqueue/app/repository"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
	"google.golang.org/grpc"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Centralized logging service",
	Long:  "Run the gRPC logging service that stores telemetry events in MySQL, or inspect stored events.",
}

var logsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the logging gRPC service",
	Run:   runLogsServe,
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent stored events",
	RunE:  runLogsList,
}

var (
	logsSource string
	logsLimit  int
)

func init() {
	logsListCmd.Flags().StringVar(&logsSource, "source", "", "only events from this source")
	logsListCmd.Flags().IntVar(&logsLimit, "limit", 20, "maximum number of events")

	logsCmd.AddCommand(logsServeCmd, logsListCmd)
	rootCmd.AddCommand(logsCmd)
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// runLogsServe migrates the schema and serves LoggingService.
func runLogsServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// The logging service never forwards its own logs to itself.
	logger := newLogger(cfg)

	if err := repository.Migrate(cfg.MySQLDSN); err != nil {
		logger.WithError(err).Fatal("Failed to migrate logs schema")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	loggingServer := grpcserver.NewLoggingServer(repository.NewLogRepository(db), logger)
	grpcServer, lis := newGRPCServer(cfg.LoggerBindAddr, logger, func(s *grpc.Server) {
		types.RegisterLoggingServiceServer(s, loggingServer)
	})

	go func() {
		logger.Infof("Starting logging service on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logger.WithError(err).Fatal("gRPC server error")
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	grpcServer.GracefulStop()
	logger.Info("Logging service stopped")
}

func runLogsList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repository.NewLogRepository(db).ListRecent(cmd.Context(), logsSource, logsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOURCE\tLEVEL\tMESSAGE\tDATA")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Source, r.Type, r.Description, r.Data)
	}
	return w.Flush()
}
