// Package wsbackend implements the call backend contract over a WebSocket
// connection speaking JSON envelopes.
package wsbackend

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aminofox/zencall/pkg/call"
	"github.com/aminofox/zencall/pkg/config"
	"github.com/aminofox/zencall/pkg/errors"
	"github.com/aminofox/zencall/pkg/logger"
)

// Envelope message types
const (
	// Server -> client pushes
	MsgCallUpdate       = "call_update"
	MsgSessionUpdate    = "session_update"
	MsgNetworkQuality   = "network_quality"
	MsgRecordingConsent = "recording_consent"
	MsgSessionList      = "session_list"
	MsgError            = "error"

	// Client -> server commands
	MsgGetSessions       = "get_sessions"
	MsgRequestResolution = "request_resolution"
	MsgStopResolution    = "stop_resolution"
	MsgToggleHold        = "toggle_hold"
	MsgHangUp            = "hang_up"
	MsgEndForAll         = "end_for_all"
	MsgAnswer            = "answer"
)

// Envelope is the wire frame every message travels in
type Envelope struct {
	Type      string          `json:"type"`
	CallID    string          `json:"call_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ResolutionData is the payload of resolution commands
type ResolutionData struct {
	ClientID call.ClientID       `json:"client_id"`
	Tier     call.ResolutionTier `json:"tier"`
}

// HoldData is the payload of the toggle-hold command
type HoldData struct {
	On bool `json:"on"`
}

// AnswerData is the payload of the answer command
type AnswerData struct {
	Video bool `json:"video"`
	Audio bool `json:"audio"`
}

// SessionListData is the payload of the session-list response
type SessionListData struct {
	Sessions []call.SessionID `json:"sessions"`
}

// streams holds the per-call subscriber channels
type streams struct {
	calls   []chan call.CallUpdate
	session []chan call.SessionUpdate
	quality []chan call.NetworkSample
	consent []chan call.ConsentUpdate
}

// Client is a call.CallBackend speaking the envelope protocol over a
// WebSocket connection
type Client struct {
	cfg    config.BackendConfig
	logger logger.Logger

	conn *websocket.Conn
	send chan Envelope

	// mu protects subscribers, pending and closed
	mu          sync.Mutex
	subscribers map[string]*streams
	pending     map[string]chan Envelope
	closed      bool

	done chan struct{}
	wg   sync.WaitGroup
}

const subscriberBuffer = 64

// Dial connects to the call backend and starts the read/write pumps
func Dial(ctx context.Context, cfg config.BackendConfig, log logger.Logger) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, errors.NewConnectionFailedError(err)
	}

	c := &Client{
		cfg:         cfg,
		logger:      log,
		conn:        conn,
		send:        make(chan Envelope, 128),
		subscribers: make(map[string]*streams),
		pending:     make(map[string]chan Envelope),
		done:        make(chan struct{}),
	}

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()

	log.Info("Connected to call backend",
		logger.String("url", cfg.URL),
	)

	return c, nil
}

// Close shuts the connection down and closes all subscriber channels
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	err := c.conn.Close()
	c.wg.Wait()

	c.mu.Lock()
	for _, s := range c.subscribers {
		s.closeAll()
	}
	c.subscribers = make(map[string]*streams)
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[string]chan Envelope)
	c.mu.Unlock()

	return err
}

// SubscribeCallUpdates implements call.CallBackend. The subscription is
// dropped when ctx is canceled.
func (c *Client) SubscribeCallUpdates(ctx context.Context, callID string) (<-chan call.CallUpdate, error) {
	ch := make(chan call.CallUpdate, subscriberBuffer)
	c.mu.Lock()
	s := c.streamsFor(callID)
	s.calls = append(s.calls, ch)
	c.mu.Unlock()

	c.unsubscribeOnDone(ctx, callID, func(s *streams) {
		for i, sub := range s.calls {
			if sub == ch {
				s.calls = append(s.calls[:i], s.calls[i+1:]...)
				return
			}
		}
	})

	return ch, nil
}

// SubscribeSessionUpdates implements call.CallBackend
func (c *Client) SubscribeSessionUpdates(ctx context.Context, callID string) (<-chan call.SessionUpdate, error) {
	ch := make(chan call.SessionUpdate, subscriberBuffer)
	c.mu.Lock()
	s := c.streamsFor(callID)
	s.session = append(s.session, ch)
	c.mu.Unlock()

	c.unsubscribeOnDone(ctx, callID, func(s *streams) {
		for i, sub := range s.session {
			if sub == ch {
				s.session = append(s.session[:i], s.session[i+1:]...)
				return
			}
		}
	})

	return ch, nil
}

// SubscribeNetworkQuality implements call.CallBackend
func (c *Client) SubscribeNetworkQuality(ctx context.Context, callID string) (<-chan call.NetworkSample, error) {
	ch := make(chan call.NetworkSample, subscriberBuffer)
	c.mu.Lock()
	s := c.streamsFor(callID)
	s.quality = append(s.quality, ch)
	c.mu.Unlock()

	c.unsubscribeOnDone(ctx, callID, func(s *streams) {
		for i, sub := range s.quality {
			if sub == ch {
				s.quality = append(s.quality[:i], s.quality[i+1:]...)
				return
			}
		}
	})

	return ch, nil
}

// SubscribeRecordingConsent implements call.CallBackend
func (c *Client) SubscribeRecordingConsent(ctx context.Context, callID string) (<-chan call.ConsentUpdate, error) {
	ch := make(chan call.ConsentUpdate, subscriberBuffer)
	c.mu.Lock()
	s := c.streamsFor(callID)
	s.consent = append(s.consent, ch)
	c.mu.Unlock()

	c.unsubscribeOnDone(ctx, callID, func(s *streams) {
		for i, sub := range s.consent {
			if sub == ch {
				s.consent = append(s.consent[:i], s.consent[i+1:]...)
				return
			}
		}
	})

	return ch, nil
}

// unsubscribeOnDone removes a subscriber when its context ends. Close wins
// the race: a closed client has already emptied the subscriber map.
func (c *Client) unsubscribeOnDone(ctx context.Context, callID string, remove func(*streams)) {
	if ctx.Done() == nil {
		return
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if s, ok := c.subscribers[callID]; ok {
			remove(s)
		}
	}()
}

// CurrentSessionIDs implements call.CallBackend with a request/response
// round trip
func (c *Client) CurrentSessionIDs(ctx context.Context, callID string) ([]call.SessionID, error) {
	requestID := uuid.New().String()
	reply := make(chan Envelope, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New(errors.ErrCodeBackendUnavailable, "client is closed")
	}
	c.pending[requestID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	if err := c.enqueue(Envelope{Type: MsgGetSessions, CallID: callID, RequestID: requestID}); err != nil {
		return nil, err
	}

	select {
	case env, ok := <-reply:
		if !ok {
			return nil, errors.New(errors.ErrCodeBackendUnavailable, "connection closed")
		}
		var data SessionListData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBackendUnavailable, "malformed session list", err)
		}
		return data.Sessions, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, errors.New(errors.ErrCodeBackendUnavailable, "client is closed")
	}
}

// RequestResolution implements call.CallBackend
func (c *Client) RequestResolution(ctx context.Context, callID string, clientID call.ClientID, tier call.ResolutionTier) error {
	return c.sendCommand(MsgRequestResolution, callID, ResolutionData{ClientID: clientID, Tier: tier})
}

// StopResolution implements call.CallBackend
func (c *Client) StopResolution(ctx context.Context, callID string, clientID call.ClientID, tier call.ResolutionTier) error {
	return c.sendCommand(MsgStopResolution, callID, ResolutionData{ClientID: clientID, Tier: tier})
}

// ToggleHold implements call.CallBackend
func (c *Client) ToggleHold(ctx context.Context, callID string, on bool) error {
	return c.sendCommand(MsgToggleHold, callID, HoldData{On: on})
}

// HangUp implements call.CallBackend
func (c *Client) HangUp(ctx context.Context, callID string) error {
	return c.sendCommand(MsgHangUp, callID, nil)
}

// EndForAll implements call.CallBackend
func (c *Client) EndForAll(ctx context.Context, callID string) error {
	return c.sendCommand(MsgEndForAll, callID, nil)
}

// Answer implements call.CallBackend
func (c *Client) Answer(ctx context.Context, callID string, video, audio bool) error {
	return c.sendCommand(MsgAnswer, callID, AnswerData{Video: video, Audio: audio})
}

func (c *Client) sendCommand(msgType, callID string, payload interface{}) error {
	env := Envelope{Type: msgType, CallID: callID}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(errors.ErrCodeCommandRejected, "marshal command payload", err)
		}
		env.Data = data
	}

	return c.enqueue(env)
}

func (c *Client) enqueue(env Envelope) error {
	select {
	case c.send <- env:
		return nil
	case <-c.done:
		return errors.New(errors.ErrCodeBackendUnavailable, "client is closed")
	}
}

func (c *Client) streamsFor(callID string) *streams {
	s, ok := c.subscribers[callID]
	if !ok {
		s = &streams{}
		c.subscribers[callID] = s
	}
	return s
}

func (c *Client) readPump() {
	defer c.wg.Done()

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("Backend read failed", logger.Err(err))
			}
			return
		}

		c.dispatch(env)
	}
}

// dispatch routes a received envelope to its subscribers. Full subscriber
// buffers drop the update with a warning; the engine re-derives state from
// later events.
func (c *Client) dispatch(env Envelope) {
	if env.RequestID != "" {
		c.mu.Lock()
		reply, ok := c.pending[env.RequestID]
		c.mu.Unlock()
		if ok {
			reply <- env
		}
		return
	}

	c.mu.Lock()
	s, ok := c.subscribers[env.CallID]
	c.mu.Unlock()
	if !ok {
		return
	}

	switch env.Type {
	case MsgCallUpdate:
		var u call.CallUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			c.logger.Warn("Malformed call update", logger.Err(err))
			return
		}
		for _, ch := range s.calls {
			c.deliverCall(ch, u)
		}

	case MsgSessionUpdate:
		var u call.SessionUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			c.logger.Warn("Malformed session update", logger.Err(err))
			return
		}
		for _, ch := range s.session {
			c.deliverSession(ch, u)
		}

	case MsgNetworkQuality:
		var u call.NetworkSample
		if err := json.Unmarshal(env.Data, &u); err != nil {
			c.logger.Warn("Malformed network sample", logger.Err(err))
			return
		}
		for _, ch := range s.quality {
			c.deliverQuality(ch, u)
		}

	case MsgRecordingConsent:
		var u call.ConsentUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			c.logger.Warn("Malformed consent update", logger.Err(err))
			return
		}
		for _, ch := range s.consent {
			c.deliverConsent(ch, u)
		}

	case MsgError:
		c.logger.Warn("Backend error message",
			logger.String("call_id", env.CallID),
			logger.String("data", string(env.Data)),
		)
	}
}

func (c *Client) deliverCall(ch chan call.CallUpdate, u call.CallUpdate) {
	select {
	case ch <- u:
	default:
		c.logger.Warn("Call update dropped, subscriber buffer full")
	}
}

func (c *Client) deliverSession(ch chan call.SessionUpdate, u call.SessionUpdate) {
	select {
	case ch <- u:
	default:
		c.logger.Warn("Session update dropped, subscriber buffer full")
	}
}

func (c *Client) deliverQuality(ch chan call.NetworkSample, u call.NetworkSample) {
	select {
	case ch <- u:
	default:
		// Quality samples are periodic; losing one is harmless
	}
}

func (c *Client) deliverConsent(ch chan call.ConsentUpdate, u call.ConsentUpdate) {
	select {
	case ch <- u:
	default:
		c.logger.Warn("Consent update dropped, subscriber buffer full")
	}
}

func (c *Client) writePump() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Warn("Backend write failed",
					logger.String("type", env.Type),
					logger.Err(err),
				)
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn("Backend ping failed", logger.Err(err))
			}
		}
	}
}

func (s *streams) closeAll() {
	for _, ch := range s.calls {
		close(ch)
	}
	for _, ch := range s.session {
		close(ch)
	}
	for _, ch := range s.quality {
		close(ch)
	}
	for _, ch := range s.consent {
		close(ch)
	}
}
