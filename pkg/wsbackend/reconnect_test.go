package wsbackend

import (
	"context"
	"testing"
	"time"

	"github.com/aminofox/zencall/pkg/config"
	"github.com/aminofox/zencall/pkg/errors"
	"github.com/aminofox/zencall/pkg/logger"
)

func TestConnectorExhaustsAttempts(t *testing.T) {
	cfg := config.DefaultConfig().Backend
	cfg.URL = "ws://127.0.0.1:1/ws"
	cfg.HandshakeTimeout = 100 * time.Millisecond
	cfg.MaxReconnectAttempts = 2
	cfg.ReconnectDelay = 10 * time.Millisecond

	c := NewConnector(cfg, logger.NewNopLogger())

	_, err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("Expected connection failure")
	}
	if errors.GetErrorCode(err) != errors.ErrCodeConnectionFailed {
		t.Errorf("Expected connection-failed code, got %v", errors.GetErrorCode(err))
	}
}

func TestConnectorHonorsContextCancel(t *testing.T) {
	cfg := config.DefaultConfig().Backend
	cfg.URL = "ws://127.0.0.1:1/ws"
	cfg.HandshakeTimeout = 100 * time.Millisecond
	cfg.MaxReconnectAttempts = 10
	cfg.ReconnectDelay = time.Hour

	c := NewConnector(cfg, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Connect(ctx)
	if err == nil {
		t.Fatal("Expected error after cancellation")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Connect did not return promptly after cancellation")
	}
}

func TestConnectorSucceeds(t *testing.T) {
	ts := newTestServer(t)

	cfg := config.DefaultConfig().Backend
	cfg.URL = "ws" + ts.URL[4:]

	c := NewConnector(cfg, logger.NewNopLogger())

	client, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()
}
