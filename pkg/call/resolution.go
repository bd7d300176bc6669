package call

import (
	"context"

	"github.com/aminofox/zencall/pkg/logger"
)

// ResolutionManager decides which video resolution tier each participant
// should hold and issues the idempotent backend start/stop operations.
// Requests are fire-and-forget: a failure is logged and not retried, the
// next roster or layout event re-evaluates and re-issues naturally.
//
// The manager guarantees at most one outstanding subscription per identity
// triple and symmetric tear-down on every removal path.
type ResolutionManager struct {
	backend CallBackend
	logger  logger.Logger

	callID string

	// active tracks the outstanding subscription tier per identity triple
	active map[Identity]ResolutionTier

	// starts and stops count issued stream operations; the engine invariant
	// is starts == stops after teardown
	starts int
	stops  int
}

// NewResolutionManager creates a resolution manager bound to one call
func NewResolutionManager(backend CallBackend, callID string, log logger.Logger) *ResolutionManager {
	return &ResolutionManager{
		backend: backend,
		logger:  log,
		callID:  callID,
		active:  make(map[Identity]ResolutionTier),
	}
}

// Plan returns the resolution tier a participant should hold under the
// given layout. Screen-share duplicates always get high resolution; in grid
// layout everyone gets high; in speaker layout only the current speaker
// gets high and everyone else is downgraded to low.
func (m *ResolutionManager) Plan(p *Participant, layout LayoutMode) ResolutionTier {
	if p.ScreenShare {
		return TierHigh
	}

	switch layout {
	case LayoutSpeaker:
		if p.IsSpeaker {
			return TierHigh
		}
		return TierLow
	default:
		return TierHigh
	}
}

// Apply brings the participant's subscription to the desired tier. It is a
// no-op when the tier is already held, both by the manager's own tracking
// and by the participant's current tier.
func (m *ResolutionManager) Apply(ctx context.Context, p *Participant, desired ResolutionTier) {
	id := p.Identity()

	if held, ok := m.active[id]; ok && held == desired && p.Resolution == desired {
		return
	}

	if held, ok := m.active[id]; ok && held != desired {
		m.stop(ctx, id, held)
	}

	if desired == TierNone {
		p.Resolution = TierNone
		return
	}

	m.start(ctx, id, desired)
	p.Resolution = desired
}

// Release stops the participant's outstanding subscription, if any. It is
// invoked on every exit path that drops an entity: roster removal,
// screen-share end, speaker demotion, layout switch and engine teardown.
// Releasing an entity with no subscription is a no-op.
func (m *ResolutionManager) Release(ctx context.Context, p *Participant) {
	id := p.Identity()

	held, ok := m.active[id]
	if !ok {
		return
	}

	m.stop(ctx, id, held)
	p.Resolution = TierNone
}

// ReleaseAll stops every outstanding subscription. Used on engine teardown
// and on call rebind.
func (m *ResolutionManager) ReleaseAll(ctx context.Context, roster []*Participant) {
	for _, p := range roster {
		m.Release(ctx, p)
	}

	// Subscriptions whose entity is already gone are stopped too; a dropped
	// entity with a live stream is a leak.
	for id, held := range m.active {
		m.stop(ctx, id, held)
	}
}

// Outstanding returns the tracked subscription tier for an identity
func (m *ResolutionManager) Outstanding(id Identity) (ResolutionTier, bool) {
	tier, ok := m.active[id]
	return tier, ok
}

// OutstandingCount returns the number of tracked subscriptions
func (m *ResolutionManager) OutstandingCount() int {
	return len(m.active)
}

// Counts returns the total start and stop operations issued
func (m *ResolutionManager) Counts() (starts, stops int) {
	return m.starts, m.stops
}

func (m *ResolutionManager) start(ctx context.Context, id Identity, tier ResolutionTier) {
	m.starts++
	m.active[id] = tier

	if err := m.backend.RequestResolution(ctx, m.callID, id.ClientID, tier); err != nil {
		m.logger.Warn("Resolution request failed",
			logger.String("client_id", string(id.ClientID)),
			logger.String("tier", string(tier)),
			logger.Err(err),
		)
	}
}

func (m *ResolutionManager) stop(ctx context.Context, id Identity, tier ResolutionTier) {
	m.stops++
	delete(m.active, id)

	if err := m.backend.StopResolution(ctx, m.callID, id.ClientID, tier); err != nil {
		m.logger.Warn("Resolution stop failed",
			logger.String("client_id", string(id.ClientID)),
			logger.String("tier", string(tier)),
			logger.Err(err),
		)
	}
}
