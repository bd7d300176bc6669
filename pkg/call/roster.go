package call

import (
	"context"
	"time"

	"github.com/aminofox/zencall/pkg/logger"
)

// RosterDelta is the minimal add/remove set produced by reconciliation
type RosterDelta struct {
	// ToAdd lists backend sessions that have no local entity yet,
	// in backend order
	ToAdd []SessionID

	// ToRemove lists local entities whose session disappeared, including
	// screen-share duplicates of removed sessions
	ToRemove []Identity
}

// Reconciler turns backend session lists into roster deltas and constructs
// participant entities. It never mutates the roster itself; the engine
// applies the deltas it returns.
type Reconciler struct {
	resolver RosterBackend
	logger   logger.Logger
}

// NewReconciler creates a roster reconciler
func NewReconciler(resolver RosterBackend, log logger.Logger) *Reconciler {
	return &Reconciler{
		resolver: resolver,
		logger:   log,
	}
}

// Reconcile diffs the current roster against the backend session list.
// Diffing is by identity: attribute changes are handled by per-property
// session updates, not by reconciliation, so transient UI state survives.
func (r *Reconciler) Reconcile(current []*Participant, sessions []SessionID) RosterDelta {
	known := make(map[SessionID]bool, len(sessions))
	for _, id := range sessions {
		known[id] = true
	}

	local := make(map[SessionID]bool, len(current))
	var delta RosterDelta

	for _, p := range current {
		sid := p.SessionID()
		if !p.ScreenShare {
			local[sid] = true
		}
		// A screen-share duplicate goes when its owning session goes.
		if !known[sid] {
			delta.ToRemove = append(delta.ToRemove, p.Identity())
		}
	}

	for _, id := range sessions {
		if !local[id] {
			delta.ToAdd = append(delta.ToAdd, id)
		}
	}

	return delta
}

// Construct materializes a participant entity for a session. The exists
// guard makes construction idempotent: several update streams can race to
// request the same entity, and only the first request wins. Profile
// resolution failure leaves the entity with placeholder identity fields
// rather than dropping it, so participant counts stay consistent.
func (r *Reconciler) Construct(ctx context.Context, id SessionID, screenShare bool, layout LayoutMode, exists func(Identity) bool) (*Participant, error) {
	identity := Identity{PeerID: id.PeerID, ClientID: id.ClientID, ScreenShare: screenShare}
	if exists(identity) {
		return nil, ErrDuplicateIdentity
	}

	p := &Participant{
		PeerID:      id.PeerID,
		ClientID:    id.ClientID,
		ScreenShare: screenShare,
		Resolution:  TierNone,
		JoinedAt:    time.Now(),
	}

	profile, err := r.resolver.ResolveProfile(ctx, id.PeerID)
	if err != nil {
		r.logger.Warn("Profile resolution failed, using placeholder",
			logger.String("peer_id", string(id.PeerID)),
			logger.Err(err),
		)
	} else {
		p.Name = profile.Name
		p.AvatarRef = profile.AvatarRef
		p.IsModerator = profile.IsModerator
		p.IsContact = profile.IsContact
		p.IsGuest = profile.IsGuest
	}

	if screenShare {
		p.ScreenShareOn = true
	}

	r.logger.Debug("Participant constructed",
		logger.String("peer_id", string(id.PeerID)),
		logger.String("client_id", string(id.ClientID)),
		logger.Bool("screen_share", screenShare),
		logger.String("layout", string(layout)),
	)

	return p, nil
}

// findParticipant returns the index of the entity with the given identity,
// or -1
func findParticipant(roster []*Participant, id Identity) int {
	for i, p := range roster {
		if p.Identity() == id {
			return i
		}
	}
	return -1
}

// removeParticipant removes the entity with the given identity, preserving
// order. It returns the removed entity, or nil.
func removeParticipant(roster []*Participant, id Identity) ([]*Participant, *Participant) {
	i := findParticipant(roster, id)
	if i < 0 {
		return roster, nil
	}
	p := roster[i]
	return append(roster[:i], roster[i+1:]...), p
}

// insertBefore inserts p immediately before the entity at index i
func insertBefore(roster []*Participant, i int, p *Participant) []*Participant {
	roster = append(roster, nil)
	copy(roster[i+1:], roster[i:])
	roster[i] = p
	return roster
}

// sortPresentersFirst stably moves currently presenting entities to the
// front of the roster. Presenters outrank the pinned speaker for display
// order only; the IsSpeaker flag is untouched.
func sortPresentersFirst(roster []*Participant) []*Participant {
	sorted := make([]*Participant, 0, len(roster))
	for _, p := range roster {
		if p.IsPresenting() {
			sorted = append(sorted, p)
		}
	}
	for _, p := range roster {
		if !p.IsPresenting() {
			sorted = append(sorted, p)
		}
	}
	return sorted
}
