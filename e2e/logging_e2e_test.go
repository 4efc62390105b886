//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultLoggerAddr = "localhost:50051"
	defaultMySQLDSN   = "root:root@tcp(localhost:3306)/logs?parseTime=true"
)

func TestLoggingServiceE2E(t *testing.T) {
	addr := envOr("MAILQUEUE_LOGGER_ADDR", defaultLoggerAddr)
	if err := waitForTCP(addr, 30*time.Second); err != nil {
		t.Fatalf("logging service not ready: %v", err)
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc client failed: %v", err)
	}
	defer conn.Close()

	message := fmt.Sprintf("e2e event %d", time.Now().UnixNano())
	resp, err := types.NewLoggingServiceClient(conn).LogEvent(context.Background(), &types.LogEventRequest{
		Source:    "e2e",
		Level:     "ERROR",
		Message:   message,
		Data:      `{"error":"smtp: connection refused"}`,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	if !resp.GetSuccess() {
		t.Fatalf("expected success")
	}

	db, err := sql.Open("mysql", envOr("MAILQUEUE_MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		t.Fatalf("open db failed: %v", err)
	}
	defer db.Close()

	var level string
	err = db.QueryRow("SELECT type FROM logs WHERE source = ? AND description = ?", "e2e", message).Scan(&level)
	if err != nil {
		t.Fatalf("stored event not found: %v", err)
	}
	if level != "ERROR" {
		t.Fatalf("expected ERROR level, got %s", level)
	}
}
