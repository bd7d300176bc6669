package wsbackend

import (
	"context"
	"time"

	"github.com/aminofox/zencall/pkg/config"
	"github.com/aminofox/zencall/pkg/errors"
	"github.com/aminofox/zencall/pkg/logger"
)

// Connector dials the call backend with bounded retries and exponential
// backoff
type Connector struct {
	cfg    config.BackendConfig
	logger logger.Logger
}

// NewConnector creates a connector
func NewConnector(cfg config.BackendConfig, log logger.Logger) *Connector {
	return &Connector{cfg: cfg, logger: log}
}

// Connect dials until a connection succeeds or the attempt limit is
// reached. The delay doubles per attempt up to MaxReconnectDelay.
func (r *Connector) Connect(ctx context.Context) (*Client, error) {
	delay := r.cfg.ReconnectDelay
	if delay <= 0 {
		delay = time.Second
	}

	attempts := r.cfg.MaxReconnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := Dial(ctx, r.cfg, r.logger)
		if err == nil {
			return client, nil
		}
		lastErr = err

		r.logger.Warn("Backend connection attempt failed",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", attempts),
			logger.Err(err),
		)

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		delay *= 2
		if r.cfg.MaxReconnectDelay > 0 && delay > r.cfg.MaxReconnectDelay {
			delay = r.cfg.MaxReconnectDelay
		}
	}

	return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "all connection attempts failed", lastErr)
}
