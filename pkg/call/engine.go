package call

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aminofox/zencall/pkg/logger"
)

// EngineOptions configures a session engine
type EngineOptions struct {
	// EventBuffer is the size of the engine's event queue
	EventBuffer int

	// CountdownTick is the interval between call-will-end ticks
	CountdownTick time.Duration

	// WaitingThreshold is the countdown value below which waiting-for-others
	// outranks alone-in-call
	WaitingThreshold time.Duration

	// DefaultLayout is the layout mode a freshly bound call starts in
	DefaultLayout LayoutMode

	// Quality defines when a network sample counts as a poor connection
	Quality QualityThresholds

	// WaitingRoomEnabled gates whether non-hosts answer through the
	// waiting room
	WaitingRoomEnabled bool
}

// DefaultEngineOptions returns options with sensible defaults
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		EventBuffer:      256,
		CountdownTick:    time.Minute,
		WaitingThreshold: 2 * time.Minute,
		DefaultLayout:    LayoutGrid,
		Quality:          DefaultQualityThresholds(),
	}
}

type eventKind int

const (
	evCallUpdate eventKind = iota
	evSessionUpdate
	evQuality
	evConsent
	evIntent
	evTick
	evBind
)

type bindRequest struct {
	chatID string
	callID string
	done   chan error
}

// engineEvent is the single multiplexed unit flowing through the engine's
// consumption queue. Stream events carry the call they originated from: a
// pump can have read an event from the previous call's stream before the
// rebind was processed, and such an event must not reach the new call.
type engineEvent struct {
	kind    eventKind
	origin  string
	call    CallUpdate
	session SessionUpdate
	sample  NetworkSample
	consent ConsentUpdate
	intent  Intent
	bind    bindRequest
}

// Engine is the in-call session state engine. It is the sole writer of the
// Call, roster, speaker list and banner state: every producer (backend
// streams, intents, the countdown ticker) is serialized through one
// consumption goroutine, so owned state is mutated without locks.
type Engine struct {
	backend CallBackend
	opts    EngineOptions
	logger  logger.Logger
	events  *EventBus

	reconciler *Reconciler
	deriver    *BannerDeriver

	in chan engineEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once

	// Owned state below. Touched only by the run goroutine.
	call       Call
	layout     LayoutMode
	roster     []*Participant
	speakers   *SpeakerSelector
	resolution *ResolutionManager
	signals    Signals
	banners    BannerState
	meeting    MeetingState

	callCtx    context.Context
	callCancel context.CancelFunc

	countdownCancel context.CancelFunc

	consentHangupDone bool

	// snapMu guards the published snapshot, the only state readable from
	// outside the run goroutine
	snapMu   sync.RWMutex
	snapshot Snapshot
}

// NewEngine creates a session engine over the given backends
func NewEngine(backend CallBackend, roster RosterBackend, opts EngineOptions, log logger.Logger) *Engine {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEngineOptions().EventBuffer
	}
	if opts.CountdownTick <= 0 {
		opts.CountdownTick = time.Minute
	}
	if opts.DefaultLayout == "" {
		opts.DefaultLayout = LayoutGrid
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		backend:    backend,
		opts:       opts,
		logger:     log,
		events:     NewEventBus(),
		reconciler: NewReconciler(roster, log),
		deriver:    NewBannerDeriver(opts.WaitingThreshold),
		in:         make(chan engineEvent, opts.EventBuffer),
		ctx:        ctx,
		cancel:     cancel,
		layout:     opts.DefaultLayout,
		speakers:   NewSpeakerSelector(log),
		signals:    Signals{CountdownRemaining: CountdownDisabled},
		call:       Call{Status: StatusInitial, WillEndIn: CountdownDisabled},
		meeting:    MeetingState{Status: MeetingNotStarted},
	}
	e.snapshot = e.buildSnapshot()

	return e
}

// Start launches the consumption goroutine
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(1)
		go e.run()
	})
}

// Events returns the one-shot event bus
func (e *Engine) Events() *EventBus {
	return e.events
}

// Snapshot returns the latest published state snapshot
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot
}

// SetActiveCall rebinds the engine to a different call. The previous call's
// subscriptions are canceled and the roster is rebuilt from scratch: peer
// and client identifiers are only meaningful within one call, so nothing
// carries over.
func (e *Engine) SetActiveCall(ctx context.Context, chatID, callID string) error {
	req := bindRequest{chatID: chatID, callID: callID, done: make(chan error, 1)}

	select {
	case e.in <- engineEvent{kind: evBind, bind: req}:
	case <-e.ctx.Done():
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-e.ctx.Done():
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch submits an intent to the engine
func (e *Engine) Dispatch(intent Intent) error {
	if e.ctx.Err() != nil {
		return ErrEngineClosed
	}

	select {
	case e.in <- engineEvent{kind: evIntent, intent: intent}:
		return nil
	case <-e.ctx.Done():
		return ErrEngineClosed
	}
}

// Close tears the engine down: all subscriptions are canceled and every
// outstanding resolution stream is released. No remote video subscription
// survives teardown.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		e.wg.Wait()
	})
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			e.teardown()
			return
		case ev := <-e.in:
			e.apply(ev)
		}
	}
}

func (e *Engine) apply(ev engineEvent) {
	switch ev.kind {
	case evCallUpdate, evSessionUpdate, evQuality, evConsent:
		if ev.origin != e.call.ID {
			// In-flight event from a previous binding
			return
		}
	}

	switch ev.kind {
	case evBind:
		ev.bind.done <- e.bind(ev.bind)
	case evCallUpdate:
		e.applyCallUpdate(ev.call)
	case evSessionUpdate:
		e.applySessionUpdate(ev.session)
	case evQuality:
		e.applyQuality(ev.sample)
	case evConsent:
		e.applyConsent(ev.consent)
	case evIntent:
		e.applyIntent(ev.intent)
	case evTick:
		e.applyTick()
	}

	e.publishSnapshot()
}

// bind rebuilds the whole engine state around a new call
func (e *Engine) bind(req bindRequest) error {
	e.unbind()

	e.call = Call{
		ID:        req.callID,
		ChatID:    req.chatID,
		Status:    StatusInitial,
		WillEndIn: CountdownDisabled,
	}
	e.layout = e.opts.DefaultLayout
	e.resolution = NewResolutionManager(e.backend, req.callID, e.logger)
	e.consentHangupDone = false
	e.signals = Signals{CountdownRemaining: CountdownDisabled}
	e.banners = BannerState{}
	e.meeting = DeriveMeetingState(e.call)

	e.callCtx, e.callCancel = context.WithCancel(e.ctx)

	// Full reconciliation against the backend session list. The roster is
	// empty at this point so only the add side applies; removal flows
	// through SessionChangeLeft and the reconnect resync. A failure here
	// leaves the roster empty; subsequent session updates self-heal.
	sessions, err := e.backend.CurrentSessionIDs(e.callCtx, req.callID)
	if err != nil {
		e.logger.Error("Failed to fetch session list",
			logger.String("call_id", req.callID),
			logger.Err(err),
		)
	} else {
		delta := e.reconciler.Reconcile(e.roster, sessions)
		for _, sid := range delta.ToAdd {
			e.addSession(sid)
		}
	}

	if err := e.subscribeStreams(req.callID); err != nil {
		// A partial subscribe must not leave the earlier streams live
		e.callCancel()
		e.callCancel = nil
		return err
	}

	e.logger.Info("Call bound",
		logger.String("call_id", req.callID),
		logger.String("chat_id", req.chatID),
		logger.Int("participants", len(e.roster)),
	)

	return nil
}

// unbind cancels the previous call's producers and releases every resource
// it held
func (e *Engine) unbind() {
	e.stopCountdown()

	if e.callCancel != nil {
		e.callCancel()
		e.callCancel = nil
	}

	if e.resolution != nil {
		e.resolution.ReleaseAll(context.Background(), e.roster)
	}

	e.speakers.Reset()
	e.roster = nil
}

func (e *Engine) subscribeStreams(callID string) error {
	calls, err := e.backend.SubscribeCallUpdates(e.callCtx, callID)
	if err != nil {
		return fmt.Errorf("subscribe call updates: %w", err)
	}

	sessions, err := e.backend.SubscribeSessionUpdates(e.callCtx, callID)
	if err != nil {
		return fmt.Errorf("subscribe session updates: %w", err)
	}

	quality, err := e.backend.SubscribeNetworkQuality(e.callCtx, callID)
	if err != nil {
		return fmt.Errorf("subscribe network quality: %w", err)
	}

	consent, err := e.backend.SubscribeRecordingConsent(e.callCtx, callID)
	if err != nil {
		return fmt.Errorf("subscribe recording consent: %w", err)
	}

	ctx := e.callCtx

	e.wg.Add(4)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case u, ok := <-calls:
				if !ok {
					return
				}
				e.forward(ctx, engineEvent{kind: evCallUpdate, origin: callID, call: u})
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		defer e.wg.Done()
		for {
			select {
			case u, ok := <-sessions:
				if !ok {
					return
				}
				e.forward(ctx, engineEvent{kind: evSessionUpdate, origin: callID, session: u})
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		defer e.wg.Done()
		for {
			select {
			case u, ok := <-quality:
				if !ok {
					return
				}
				e.forward(ctx, engineEvent{kind: evQuality, origin: callID, sample: u})
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		defer e.wg.Done()
		for {
			select {
			case u, ok := <-consent:
				if !ok {
					return
				}
				e.forward(ctx, engineEvent{kind: evConsent, origin: callID, consent: u})
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// forward serializes one stream event into the consumption queue
func (e *Engine) forward(ctx context.Context, ev engineEvent) {
	select {
	case e.in <- ev:
	case <-ctx.Done():
	}
}

func (e *Engine) applyCallUpdate(u CallUpdate) {
	if u.CallID != e.call.ID {
		// Update for a different call delivered on this call's stream
		return
	}

	prev := e.call.Status

	// The call entity is replaced wholesale; only engine-owned local media
	// flags and the countdown value carry over.
	e.call = Call{
		ID:           e.call.ID,
		ChatID:       e.call.ChatID,
		Status:       u.Status,
		OnHold:       u.OnHold,
		LocalAudioOn: e.call.LocalAudioOn,
		LocalVideoOn: e.call.LocalVideoOn,
		Duration:     u.Duration,
		TermCode:     u.TermCode,
		IsModerator:  u.IsModerator,
		OnlyMe:       u.OnlyMe,
		WillEndIn:    e.call.WillEndIn,
	}

	if u.Changes.Has(ChangeStatus) && prev != u.Status {
		if !ValidStatusTransition(prev, u.Status) {
			e.logger.Warn("Unexpected call status transition",
				logger.String("call_id", e.call.ID),
				logger.String("from", string(prev)),
				logger.String("to", string(u.Status)),
			)
		}

		switch u.Status {
		case StatusTerminating:
			e.emitTerminationPrompt(u.TermCode)
		case StatusDestroyed:
			e.handleCallDestroyed()
		}
	}

	if u.Changes.Has(ChangeWillEnd) {
		if u.DurationRemaining == CountdownDisabled {
			e.stopCountdown()
		} else {
			e.startCountdown(u.DurationRemaining)
		}
	}

	e.signals.CallOnHold = u.OnHold
	e.signals.Alone = u.OnlyMe
	e.signals.Waiting = u.WaitingForOthers
	e.signals.ReceivedChange = !u.IsOwnClientCaller

	e.banners = e.deriver.Derive(e.signals)
	e.meeting = DeriveMeetingState(e.call)
}

// emitTerminationPrompt reports a termination reason as a discrete event;
// each reason drives a different user-facing prompt
func (e *Engine) emitTerminationPrompt(code TermCode) {
	switch code {
	case TermProtocolVersionMismatch:
		e.events.Publish(newEvent(EventPromptForceUpdate, e.call.ID, "", code))
	case TermTooManyParticipants:
		e.events.Publish(newEvent(EventPromptParticipantsLimit, e.call.ID, "", code))
	case TermCallDurationLimit, TermUsersCallLimit:
		e.events.Publish(newEvent(EventPromptUpgrade, e.call.ID, "", code))
	default:
		e.events.Publish(newEvent(EventSnackbar, e.call.ID, "Call ended", code))
	}
}

func (e *Engine) handleCallDestroyed() {
	e.stopCountdown()

	if e.callCancel != nil {
		e.callCancel()
		e.callCancel = nil
	}

	e.resolution.ReleaseAll(context.Background(), e.roster)
	e.speakers.Reset()
	e.roster = nil

	e.events.Publish(newEvent(EventCallEnded, e.call.ID, "", e.call.TermCode))

	e.logger.Info("Call destroyed",
		logger.String("call_id", e.call.ID),
		logger.String("term_code", string(e.call.TermCode)),
	)
}

func (e *Engine) applySessionUpdate(u SessionUpdate) {
	if u.Changes.Has(SessionChangeLeft) {
		e.removeSession(u.SessionID())
		e.banners = e.deriver.Derive(e.signals)
		return
	}

	base := e.findBase(u.SessionID())
	if base == nil {
		// Streams race: a property update can arrive before the roster
		// knows the session. Construction is idempotent, so build it now.
		base = e.addSession(u.SessionID())
		if base == nil {
			return
		}
	}

	if u.Changes.Has(SessionChangeAudio) {
		base.AudioOn = u.HasAudio
	}
	if u.Changes.Has(SessionChangeVideo) {
		base.VideoOn = u.HasVideo
		base.CameraOn = u.HasCamera
	}
	if u.Changes.Has(SessionChangeAudioDetected) {
		base.AudioDetected = u.AudioDetected
	}
	// A join carries the full capability snapshot; afterwards only a flagged
	// update may change it, so partial updates cannot revoke tap eligibility.
	if u.Changes.Has(SessionChangeJoined) || u.Changes.Has(SessionChangeCapabilities) {
		base.SupportsScreenShare = u.SupportsScreenShare
	}

	if u.Changes.Has(SessionChangeOnHold) {
		base.OnHold = u.IsOnHold
		if dup := e.findDup(u.SessionID()); dup != nil {
			dup.OnHold = u.IsOnHold
		}
		e.signals.SessionOnHold = e.oneToOneOnHold()
	}

	if u.Changes.Has(SessionChangeRecording) {
		base.IsRecording = u.IsRecording
		if dup := e.findDup(u.SessionID()); dup != nil {
			dup.IsRecording = u.IsRecording
		}
	}

	// Screen-share toggling rides the session stream and affects a second
	// entity: the duplicate is created or destroyed here.
	if u.Changes.Has(SessionChangeScreenShare) {
		if u.HasScreenShare {
			e.startScreenShare(base)
		} else {
			e.stopScreenShare(base)
		}
	}

	e.replanResolutions()
	e.banners = e.deriver.Derive(e.signals)
}

// startScreenShare materializes the screen-share duplicate entity at the
// roster position immediately preceding the original and pins it as
// speaker. Duplicate construction is guarded by identity, so replayed
// updates are no-ops.
func (e *Engine) startScreenShare(base *Participant) {
	base.ScreenShareOn = true

	sid := base.SessionID()
	dup, err := e.reconciler.Construct(e.callCtx, sid, true, e.layout, e.hasIdentity)
	if err != nil {
		if err != ErrDuplicateIdentity {
			e.logger.Error("Screen-share duplicate construction failed",
				logger.String("peer_id", string(sid.PeerID)),
				logger.Err(err),
			)
		}
		return
	}

	i := findParticipant(e.roster, base.Identity())
	e.roster = insertBefore(e.roster, i, dup)
	e.roster = sortPresentersFirst(e.roster)

	e.speakers.PresenterStarted(dup)

	e.logger.Info("Screen share started",
		logger.String("peer_id", string(sid.PeerID)),
		logger.String("client_id", string(sid.ClientID)),
	)
}

// stopScreenShare removes the duplicate entity, releasing its resolution
// stream before the entity is dropped
func (e *Engine) stopScreenShare(base *Participant) {
	base.ScreenShareOn = false

	dup := e.findDup(base.SessionID())
	if dup == nil {
		return
	}

	e.resolution.Release(e.callCtx, dup)
	e.roster, _ = removeParticipant(e.roster, dup.Identity())
	e.speakers.PresenterStopped(dup, e.roster)
	e.speakers.Remove(dup)
	e.roster = sortPresentersFirst(e.roster)

	e.logger.Info("Screen share stopped",
		logger.String("peer_id", string(base.PeerID)),
		logger.String("client_id", string(base.ClientID)),
	)
}

// addSession constructs and inserts the base entity for a session
func (e *Engine) addSession(sid SessionID) *Participant {
	p, err := e.reconciler.Construct(e.callCtx, sid, false, e.layout, e.hasIdentity)
	if err != nil {
		if err != ErrDuplicateIdentity {
			e.logger.Error("Participant construction failed",
				logger.String("peer_id", string(sid.PeerID)),
				logger.Err(err),
			)
		}
		return nil
	}

	e.roster = append(e.roster, p)
	e.resolution.Apply(e.callCtx, p, e.resolution.Plan(p, e.layout))
	e.speakers.PromoteIfFirst(e.roster)

	return p
}

// removeSession drops a session's entities, screen-share duplicate
// included, releasing resolution streams on the way out
func (e *Engine) removeSession(sid SessionID) {
	for _, screenShare := range []bool{true, false} {
		id := Identity{PeerID: sid.PeerID, ClientID: sid.ClientID, ScreenShare: screenShare}
		var p *Participant
		e.roster, p = removeParticipant(e.roster, id)
		if p == nil {
			continue
		}

		e.resolution.Release(e.callCtx, p)
		wasSpeaker := p.IsSpeaker
		e.speakers.Remove(p)
		if wasSpeaker {
			e.speakers.PromoteIfFirst(e.roster)
		}
	}

	e.replanResolutions()
	e.signals.SessionOnHold = e.oneToOneOnHold()
}

func (e *Engine) applyQuality(sample NetworkSample) {
	recovered := e.signals.Reconnecting && !sample.Reconnecting
	e.signals.PoorConnection = e.opts.Quality.IsPoor(sample)
	e.signals.Reconnecting = sample.Reconnecting
	if recovered {
		e.resyncRoster()
	}
	e.banners = e.deriver.Derive(e.signals)
}

// resyncRoster re-reconciles the roster against the backend session list.
// Joins and leaves that happened while the transport was down produced no
// session updates, so a completed reconnect reconciles against the
// populated roster.
func (e *Engine) resyncRoster() {
	sessions, err := e.backend.CurrentSessionIDs(e.callCtx, e.call.ID)
	if err != nil {
		e.logger.Error("Session list fetch after reconnect failed",
			logger.String("call_id", e.call.ID),
			logger.Err(err),
		)
		return
	}

	delta := e.reconciler.Reconcile(e.roster, sessions)
	for _, id := range delta.ToRemove {
		var p *Participant
		e.roster, p = removeParticipant(e.roster, id)
		if p == nil {
			continue
		}
		e.resolution.Release(e.callCtx, p)
		wasSpeaker := p.IsSpeaker
		e.speakers.Remove(p)
		if wasSpeaker {
			e.speakers.PromoteIfFirst(e.roster)
		}
	}
	for _, sid := range delta.ToAdd {
		e.addSession(sid)
	}

	e.signals.SessionOnHold = e.oneToOneOnHold()
	e.replanResolutions()

	e.logger.Info("Roster resynced after reconnect",
		logger.String("call_id", e.call.ID),
		logger.Int("added", len(delta.ToAdd)),
		logger.Int("removed", len(delta.ToRemove)),
	)
}

// applyConsent handles a recording-consent decision. Rejection is fatal to
// local participation: the engine issues a hang-up exactly once.
func (e *Engine) applyConsent(u ConsentUpdate) {
	if u.Accepted || e.consentHangupDone {
		return
	}

	e.consentHangupDone = true
	e.command("hang_up", func(ctx context.Context) error {
		return e.backend.HangUp(ctx, e.call.ID)
	})
	e.events.Publish(newEvent(EventSnackbar, e.call.ID, "Recording consent declined, leaving call", nil))

	e.logger.Info("Recording consent rejected, hanging up",
		logger.String("call_id", e.call.ID),
		logger.String("peer_id", string(u.PeerID)),
	)
}

func (e *Engine) applyIntent(intent Intent) {
	switch intent.Kind {
	case IntentParticipantTapped:
		e.handleParticipantTapped(intent.Target)

	case IntentSetLayout:
		if intent.Layout == e.layout {
			return
		}
		e.layout = intent.Layout
		e.replanResolutions()

	case IntentToggleHold:
		on := intent.HoldOn
		e.command("toggle_hold", func(ctx context.Context) error {
			return e.backend.ToggleHold(ctx, e.call.ID, on)
		})

	case IntentHangUp:
		e.command("hang_up", func(ctx context.Context) error {
			return e.backend.HangUp(ctx, e.call.ID)
		})

	case IntentEndForAll:
		e.command("end_for_all", func(ctx context.Context) error {
			return e.backend.EndForAll(ctx, e.call.ID)
		})

	case IntentAnswer:
		if ResolveAnswerPath(e.call.IsModerator, e.opts.WaitingRoomEnabled) == AnswerWaitingRoom {
			e.events.Publish(newEvent(EventOpenWaitingRoom, e.call.ID, "", nil))
			return
		}
		video, audio := intent.Video, intent.Audio
		e.command("answer", func(ctx context.Context) error {
			return e.backend.Answer(ctx, e.call.ID, video, audio)
		})

	case IntentToggleOptions:
		if i := findParticipant(e.roster, intent.Target); i >= 0 {
			e.roster[i].OptionsVisible = !e.roster[i].OptionsVisible
		}
	}
}

// handleParticipantTapped is the speaker-selection entry point. Ignored
// unless the call is in speaker layout and the tapped entity is a regular
// participant whose session can screen share.
func (e *Engine) handleParticipantTapped(id Identity) {
	if e.layout != LayoutSpeaker || id.ScreenShare {
		return
	}

	i := findParticipant(e.roster, id)
	if i < 0 {
		return
	}

	p := e.roster[i]
	if !p.SupportsScreenShare {
		return
	}

	e.speakers.Select(p)
	e.roster = sortPresentersFirst(e.roster)
	e.replanResolutions()
}

func (e *Engine) applyTick() {
	if e.call.WillEndIn == CountdownDisabled {
		return
	}

	remaining := e.call.WillEndIn - e.opts.CountdownTick
	if remaining < 0 {
		e.stopCountdown()
		e.banners = e.deriver.Derive(e.signals)
		return
	}

	e.call.WillEndIn = remaining
	e.signals.CountdownRemaining = remaining
	e.banners = e.deriver.Derive(e.signals)
}

// startCountdown starts (or restarts) the cooperative end-of-call ticker
func (e *Engine) startCountdown(remaining time.Duration) {
	e.stopCountdown()

	e.call.WillEndIn = remaining
	e.signals.CountdownRemaining = remaining

	ctx, cancel := context.WithCancel(e.callCtx)
	e.countdownCancel = cancel

	tick := e.opts.CountdownTick
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case e.in <- engineEvent{kind: evTick}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	e.logger.Info("Call ending countdown started",
		logger.String("call_id", e.call.ID),
		logger.Duration("remaining", remaining),
	)
}

// stopCountdown cancels the ticker and clears the displayed value
func (e *Engine) stopCountdown() {
	if e.countdownCancel != nil {
		e.countdownCancel()
		e.countdownCancel = nil
	}
	e.call.WillEndIn = CountdownDisabled
	e.signals.CountdownRemaining = CountdownDisabled
}

// command issues a fire-and-forget backend call. Failures are logged and
// surfaced as a one-shot message; local state stays untouched until the
// corresponding backend update arrives.
func (e *Engine) command(name string, fn func(context.Context) error) {
	if e.call.ID == "" || e.callCtx == nil {
		e.logger.Warn("Command dropped, no active call",
			logger.String("command", name),
		)
		return
	}

	ctx := e.callCtx
	callID := e.call.ID

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("Backend command failed",
				logger.String("command", name),
				logger.String("call_id", callID),
				logger.Err(err),
			)
			e.events.Publish(newEvent(EventSnackbar, callID,
				fmt.Sprintf("Could not %s, please try again", name), nil))
		}
	}()
}

// replanResolutions re-evaluates every participant's tier under the current
// layout. Apply is idempotent, so replanning after any event is safe.
func (e *Engine) replanResolutions() {
	if e.resolution == nil {
		return
	}
	for _, p := range e.roster {
		e.resolution.Apply(e.callCtx, p, e.resolution.Plan(p, e.layout))
	}
}

func (e *Engine) hasIdentity(id Identity) bool {
	return findParticipant(e.roster, id) >= 0
}

func (e *Engine) findBase(sid SessionID) *Participant {
	i := findParticipant(e.roster, Identity{PeerID: sid.PeerID, ClientID: sid.ClientID})
	if i < 0 {
		return nil
	}
	return e.roster[i]
}

func (e *Engine) findDup(sid SessionID) *Participant {
	i := findParticipant(e.roster, Identity{PeerID: sid.PeerID, ClientID: sid.ClientID, ScreenShare: true})
	if i < 0 {
		return nil
	}
	return e.roster[i]
}

// oneToOneOnHold reports the session-hold signal: it only raises the
// on-hold banner for a one-to-one call
func (e *Engine) oneToOneOnHold() bool {
	bases := 0
	held := false
	for _, p := range e.roster {
		if p.ScreenShare {
			continue
		}
		bases++
		if p.OnHold {
			held = true
		}
	}
	return bases == 1 && held
}

func (e *Engine) buildSnapshot() Snapshot {
	snap := Snapshot{
		Call:        e.call,
		Layout:      e.layout,
		Banners:     e.banners,
		Meeting:     e.meeting,
		GeneratedAt: time.Now(),
	}

	snap.Participants = make([]Participant, 0, len(e.roster))
	for _, p := range e.roster {
		snap.Participants = append(snap.Participants, p.Clone())
	}

	speakers := e.speakers.List()
	snap.Speakers = make([]Participant, 0, len(speakers))
	for _, p := range speakers {
		snap.Speakers = append(snap.Speakers, p.Clone())
	}

	return snap
}

func (e *Engine) publishSnapshot() {
	snap := e.buildSnapshot()

	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()

	e.events.Publish(newEvent(EventSnapshot, e.call.ID, "", snap))
}

// teardown releases everything on engine shutdown
func (e *Engine) teardown() {
	e.unbind()
	e.logger.Info("Engine closed")
}
