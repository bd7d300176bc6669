package call

import (
	"github.com/aminofox/zencall/pkg/logger"
)

// SpeakerSelector maintains the pinned/auto speaker sub-list used by the
// carousel layout. The list is ordered independently from the roster and
// holds live resource ownership: removing an entry releases its resolution
// subscription like a roster removal would.
//
// Invariant: at most one entry has IsSpeaker set.
type SpeakerSelector struct {
	logger logger.Logger

	// list is the ordered speaker sub-collection
	list []*Participant
}

// NewSpeakerSelector creates a speaker selector
func NewSpeakerSelector(log logger.Logger) *SpeakerSelector {
	return &SpeakerSelector{logger: log}
}

// Select marks p as the single speaker, clearing any previous one, and
// appends it to the speaker list if not already present.
func (s *SpeakerSelector) Select(p *Participant) {
	for _, entry := range s.list {
		if entry != p {
			entry.IsSpeaker = false
		}
	}

	if !s.contains(p) {
		s.list = append(s.list, p)
	}
	p.IsSpeaker = true

	s.logger.Debug("Speaker selected",
		logger.String("peer_id", string(p.PeerID)),
		logger.String("client_id", string(p.ClientID)),
		logger.Bool("screen_share", p.ScreenShare),
	)
}

// PromoteIfFirst promotes a speaker when none is selected and the roster is
// non-empty. Currently presenting participants win the tie-break; otherwise
// stable insertion order applies.
func (s *SpeakerSelector) PromoteIfFirst(roster []*Participant) {
	if s.Current() != nil || len(roster) == 0 {
		return
	}

	candidate := roster[0]
	for _, p := range roster {
		if p.IsPresenting() {
			candidate = p
			break
		}
	}

	s.Select(candidate)
}

// PresenterStarted pins a participant who began presenting without
// requiring an explicit click.
func (s *SpeakerSelector) PresenterStarted(p *Participant) {
	s.Select(p)
}

// PresenterStopped handles the current speaker ceasing to present: another
// currently presenting participant (if any) is promoted in its place;
// otherwise speaker selection falls back to the promotion rule. A
// non-speaker stopping to present leaves the selection untouched.
func (s *SpeakerSelector) PresenterStopped(p *Participant, roster []*Participant) {
	if s.Current() != p {
		return
	}

	for _, other := range roster {
		if other != p && other.IsPresenting() {
			s.Select(other)
			return
		}
	}

	p.IsSpeaker = false
	s.PromoteIfFirst(roster)
}

// Remove drops p from the speaker list and clears its speaker flag. The
// caller releases the entry's resolution resources; the selector only
// maintains membership and exclusivity.
func (s *SpeakerSelector) Remove(p *Participant) {
	for i, entry := range s.list {
		if entry == p {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	p.IsSpeaker = false
}

// Current returns the entry with the speaker flag, or nil
func (s *SpeakerSelector) Current() *Participant {
	for _, p := range s.list {
		if p.IsSpeaker {
			return p
		}
	}
	return nil
}

// List returns the ordered speaker list
func (s *SpeakerSelector) List() []*Participant {
	return s.list
}

// Reset clears the speaker list without touching resources. Used on call
// rebind after the engine has released everything.
func (s *SpeakerSelector) Reset() {
	for _, p := range s.list {
		p.IsSpeaker = false
	}
	s.list = nil
}

func (s *SpeakerSelector) contains(p *Participant) bool {
	for _, entry := range s.list {
		if entry == p {
			return true
		}
	}
	return false
}
