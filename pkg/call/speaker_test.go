package call

import (
	"testing"

	"github.com/aminofox/zencall/pkg/logger"
)

func TestSpeakerSelectIsExclusive(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	b := &Participant{PeerID: "b", ClientID: "b1"}

	s.Select(a)
	s.Select(b)

	if a.IsSpeaker {
		t.Error("Previous speaker flag should be cleared")
	}
	if !b.IsSpeaker {
		t.Error("New speaker flag should be set")
	}

	count := 0
	for _, p := range s.List() {
		if p.IsSpeaker {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly one speaker, got %d", count)
	}
}

func TestSpeakerSelectAppendsOnce(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	s.Select(a)
	s.Select(a)

	if len(s.List()) != 1 {
		t.Errorf("Expected one list entry, got %d", len(s.List()))
	}
}

func TestPromoteIfFirstPrefersPresenter(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	b := &Participant{PeerID: "b", ClientID: "b1", ScreenShareOn: true}

	s.PromoteIfFirst([]*Participant{a, b})

	if s.Current() != b {
		t.Error("Presenter should win the promotion tie-break")
	}
}

func TestPromoteIfFirstFallsBackToRosterOrder(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	b := &Participant{PeerID: "b", ClientID: "b1"}

	s.PromoteIfFirst([]*Participant{a, b})

	if s.Current() != a {
		t.Error("First roster entry should be promoted")
	}
}

func TestPromoteIfFirstNoOpWhenSpeakerExists(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	b := &Participant{PeerID: "b", ClientID: "b1"}
	s.Select(b)

	s.PromoteIfFirst([]*Participant{a, b})

	if s.Current() != b {
		t.Error("Existing speaker should be kept")
	}
}

func TestPresenterStoppedPromotesOtherPresenter(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1", ScreenShareOn: true}
	b := &Participant{PeerID: "b", ClientID: "b1", ScreenShareOn: true}
	roster := []*Participant{a, b}

	s.PresenterStarted(a)
	a.ScreenShareOn = false
	s.PresenterStopped(a, roster)

	if s.Current() != b {
		t.Error("Remaining presenter should take over the speaker slot")
	}
}

func TestPresenterStoppedFallsBackToPromotion(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1", ScreenShareOn: true}
	b := &Participant{PeerID: "b", ClientID: "b1"}
	roster := []*Participant{b, a}

	s.PresenterStarted(a)
	a.ScreenShareOn = false
	s.PresenterStopped(a, roster)

	if s.Current() != b {
		t.Error("First roster entry should be promoted when no presenter remains")
	}
}

func TestPresenterStoppedIgnoresNonSpeaker(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	b := &Participant{PeerID: "b", ClientID: "b1", ScreenShareOn: true}
	s.Select(a)

	b.ScreenShareOn = false
	s.PresenterStopped(b, []*Participant{a, b})

	if s.Current() != a {
		t.Error("A non-speaker stopping to present must not change the selection")
	}
}

func TestSpeakerRemove(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	s.Select(a)
	s.Remove(a)

	if a.IsSpeaker {
		t.Error("Removed entry should lose its speaker flag")
	}
	if len(s.List()) != 0 {
		t.Errorf("Expected empty speaker list, got %d entries", len(s.List()))
	}
	if s.Current() != nil {
		t.Error("Expected no current speaker after removal")
	}
}

func TestSpeakerReset(t *testing.T) {
	s := NewSpeakerSelector(logger.NewNopLogger())

	a := &Participant{PeerID: "a", ClientID: "a1"}
	s.Select(a)
	s.Reset()

	if a.IsSpeaker {
		t.Error("Reset should clear speaker flags")
	}
	if len(s.List()) != 0 {
		t.Error("Reset should empty the list")
	}
}
