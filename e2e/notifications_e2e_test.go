//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	types "github.com/vibast-solutions/ms-go-mailqueue/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	defaultHTTPBase  = "http://localhost:8080"
	defaultGRPCAddr  = "localhost:9090"
	defaultRedisAddr = "localhost:6379"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient() *httpClient {
	return &httpClient{
		baseURL: envOr("MAILQUEUE_HTTP_URL", defaultHTTPBase),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) postJSON(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, buf.Bytes()
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForTCP(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("service not ready at %s", addr)
}

// waitForConsumed waits until the newest stream entry has been delivered to
// the consumer group and nothing is left pending.
func waitForConsumed(t *testing.T, rdb *redis.Client, timeout time.Duration) {
	t.Helper()
	ctx := context.Background()
	topology := queue.NewTopology(envOr("QUEUE_NAME", ""), envOr("QUEUE_CONSUMER_GROUP", ""))

	latest, err := rdb.XRevRangeN(ctx, topology.Stream, "+", "-", 1).Result()
	if err != nil || len(latest) == 0 {
		t.Fatalf("no queued entry found: %v", err)
	}
	id := latest[0].ID

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		groups, err := rdb.XInfoGroups(ctx, topology.Stream).Result()
		if err != nil {
			t.Fatalf("xinfo groups failed: %v", err)
		}
		for _, g := range groups {
			if g.Name == topology.Group && !streamIDBefore(g.LastDeliveredID, id) && g.Pending == 0 {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for entry %s to be consumed", id)
}

// streamIDBefore reports whether stream id a sorts before b.
func streamIDBefore(a, b string) bool {
	var aMs, aSeq, bMs, bSeq uint64
	fmt.Sscanf(a, "%d-%d", &aMs, &aSeq)
	fmt.Sscanf(b, "%d-%d", &bMs, &bSeq)
	if aMs != bMs {
		return aMs < bMs
	}
	return aSeq < bSeq
}

func TestMailQueueE2E(t *testing.T) {
	httpBase := envOr("MAILQUEUE_HTTP_URL", defaultHTTPBase)
	grpcAddr := envOr("MAILQUEUE_GRPC_ADDR", defaultGRPCAddr)

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForTCP(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: envOr("MAILQUEUE_REDIS_ADDR", defaultRedisAddr)})
	defer rdb.Close()

	client := newHTTPClient()

	t.Run("HTTPValidation", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/email/send", map[string]any{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing fields, got %d", resp.StatusCode)
		}

		resp, _ = client.postJSON(t, "/email/send", map[string]any{
			"template": "auth/email-verification-request",
			"data":     map[string]any{"to": "invalid"},
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid address, got %d", resp.StatusCode)
		}

		resp, _ = client.postJSON(t, "/email/send", map[string]any{
			"template": "marketing/newsletter",
			"data":     map[string]any{"to": "e2e@example.com"},
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown template, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPDelivery", func(t *testing.T) {
		resp, body := client.postJSON(t, "/email/send", map[string]any{
			"template": "auth/email-verification-request",
			"data": map[string]any{
				"to":      "e2e@example.com",
				"toName":  "E2E",
				"content": map[string]string{"recipientName": "E2E", "hash": "e2e-hash"},
			},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("http send failed: %d body: %s", resp.StatusCode, string(body))
		}
		waitForConsumed(t, rdb, 20*time.Second)
	})

	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc client failed: %v", err)
	}
	defer conn.Close()

	grpcClient := types.NewNotificationsServiceClient(conn)

	t.Run("GRPCValidation", func(t *testing.T) {
		_, err := grpcClient.SendEmail(context.Background(), &types.SendEmailRequest{})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("GRPCDelivery", func(t *testing.T) {
		resp, err := grpcClient.SendEmail(context.Background(), &types.SendEmailRequest{
			Template: "auth/password-reset-complete",
			To:       "e2e@example.com",
			Content:  map[string]string{"recipientName": "E2E"},
		})
		if err != nil {
			t.Fatalf("grpc send failed: %v", err)
		}
		if !resp.GetSuccess() {
			t.Fatalf("expected success")
		}
		waitForConsumed(t, rdb, 20*time.Second)
	})
}
