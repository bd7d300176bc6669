// Package zencall wires the in-call session state engine to its backends.
package zencall

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/aminofox/zencall/pkg/call"
	"github.com/aminofox/zencall/pkg/config"
	"github.com/aminofox/zencall/pkg/errors"
	"github.com/aminofox/zencall/pkg/logger"
	"github.com/aminofox/zencall/pkg/profile"
	"github.com/aminofox/zencall/pkg/wsbackend"
)

// Client is the assembled zencall stack: a WebSocket call backend, a
// caching profile directory and the session engine on top
type Client struct {
	cfg      *config.Config
	logger   logger.Logger
	upstream call.RosterBackend

	mu        sync.Mutex
	backend   *wsbackend.Client
	engine    *call.Engine
	redis     *redis.Client
	isRunning bool
}

// New creates a zencall client. The upstream roster backend resolves peer
// profiles; resolutions are cached per config (Redis when configured,
// process memory otherwise).
func New(cfg *config.Config, upstream call.RosterBackend) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if upstream == nil {
		return nil, errors.New(errors.ErrCodeMissingConfig, "roster backend is required")
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	return &Client{
		cfg:      cfg,
		logger:   log,
		upstream: upstream,
	}, nil
}

// Start connects to the call backend and launches the engine
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return errors.New(errors.ErrCodeUnknown, "client is already running")
	}

	backend, err := wsbackend.NewConnector(c.cfg.Backend, c.logger).Connect(ctx)
	if err != nil {
		return err
	}
	c.backend = backend

	var store profile.Store
	if c.cfg.Redis.Addr != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.Addr,
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
		store = profile.NewRedisStore(c.redis, "zencall")
	} else {
		store = profile.NewMemoryStore()
	}

	directory := profile.NewDirectory(c.upstream, store, c.cfg.Redis.ProfileTTL, c.logger)

	c.engine = call.NewEngine(backend, directory, engineOptions(c.cfg), c.logger)
	c.engine.Start()
	c.isRunning = true

	c.logger.Info("zencall client started")

	return nil
}

// Engine returns the session engine; nil before Start
func (c *Client) Engine() *call.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// Close tears everything down: the engine first, so every resolution
// stream is released through the still-open backend connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		return nil
	}
	c.isRunning = false

	var firstErr error
	if err := c.engine.Close(); err != nil {
		firstErr = err
	}
	if err := c.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.logger.Info("zencall client closed")

	return firstErr
}

// engineOptions maps configuration onto engine options
func engineOptions(cfg *config.Config) call.EngineOptions {
	opts := call.DefaultEngineOptions()
	opts.EventBuffer = cfg.Engine.EventBuffer
	opts.CountdownTick = cfg.Engine.CountdownTick
	opts.WaitingThreshold = cfg.Engine.WaitingThreshold
	opts.DefaultLayout = call.LayoutMode(cfg.Engine.DefaultLayout)
	opts.Quality = call.QualityThresholds{
		PacketLossPoor: cfg.Quality.PacketLossPoor,
		RTTPoor:        cfg.Quality.RTTPoor,
		JitterPoor:     cfg.Quality.JitterPoor,
		MinBandwidth:   cfg.Quality.MinBandwidth,
	}
	return opts
}
