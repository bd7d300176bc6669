package call

import (
	"testing"
)

func TestValidStatusTransition(t *testing.T) {
	valid := []statusTransition{
		{StatusInitial, StatusConnecting},
		{StatusConnecting, StatusInProgress},
		{StatusJoining, StatusInProgress},
		{StatusInProgress, StatusReconnecting},
		{StatusReconnecting, StatusInProgress},
		{StatusInProgress, StatusTerminating},
		{StatusTerminating, StatusDestroyed},
		{StatusInProgress, StatusInProgress},
	}
	for _, tr := range valid {
		if !ValidStatusTransition(tr.From, tr.To) {
			t.Errorf("Expected %s -> %s to be valid", tr.From, tr.To)
		}
	}

	invalid := []statusTransition{
		{StatusInitial, StatusInProgress},
		{StatusDestroyed, StatusInProgress},
		{StatusTerminating, StatusInProgress},
		{StatusInProgress, StatusInitial},
	}
	for _, tr := range invalid {
		if ValidStatusTransition(tr.From, tr.To) {
			t.Errorf("Expected %s -> %s to be invalid", tr.From, tr.To)
		}
	}
}

func TestCallStatusIsActive(t *testing.T) {
	active := []CallStatus{StatusJoining, StatusInProgress, StatusReconnecting}
	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("Expected %s to be active", s)
		}
	}

	inactive := []CallStatus{StatusInitial, StatusConnecting, StatusTerminating, StatusDestroyed}
	for _, s := range inactive {
		if s.IsActive() {
			t.Errorf("Expected %s to be inactive", s)
		}
	}
}

func TestParticipantIdentity(t *testing.T) {
	base := Participant{PeerID: "alice", ClientID: "a1"}
	dup := Participant{PeerID: "alice", ClientID: "a1", ScreenShare: true}

	if base.Identity() == dup.Identity() {
		t.Error("Screen-share duplicate must have a distinct identity")
	}
	if base.SessionID() != dup.SessionID() {
		t.Error("Base and duplicate must share the session identifier")
	}
}

func TestIsPresenting(t *testing.T) {
	if (Participant{}).IsPresenting() {
		t.Error("Plain participant is not presenting")
	}
	if !(Participant{ScreenShare: true}).IsPresenting() {
		t.Error("Screen-share duplicate is always presenting")
	}
	if !(Participant{ScreenShareOn: true}).IsPresenting() {
		t.Error("Sharing base entity is presenting")
	}
}
