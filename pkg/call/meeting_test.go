package call

import (
	"testing"
	"time"
)

func TestDeriveMeetingState(t *testing.T) {
	cases := []struct {
		name string
		call Call
		want MeetingStatus
	}{
		{"no call", Call{}, MeetingNotStarted},
		{"destroyed", Call{ID: "c1", Status: StatusDestroyed}, MeetingNotStarted},
		{"terminating", Call{ID: "c1", Status: StatusTerminating}, MeetingNotStarted},
		{"in progress", Call{ID: "c1", Status: StatusInProgress}, MeetingJoined},
		{"joining", Call{ID: "c1", Status: StatusJoining}, MeetingJoined},
		{"reconnecting", Call{ID: "c1", Status: StatusReconnecting}, MeetingJoined},
		{"initial", Call{ID: "c1", Status: StatusInitial}, MeetingNotJoined},
	}

	for _, tc := range cases {
		if got := DeriveMeetingState(tc.call); got.Status != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got.Status)
		}
	}
}

func TestDeriveMeetingStateCarriesDuration(t *testing.T) {
	c := Call{ID: "c1", Status: StatusInProgress, Duration: 5 * time.Minute}

	state := DeriveMeetingState(c)
	if state.Duration != 5*time.Minute {
		t.Errorf("Expected 5m duration, got %v", state.Duration)
	}

	gone := DeriveMeetingState(Call{ID: "c1", Status: StatusDestroyed, Duration: 5 * time.Minute})
	if gone.Duration != 0 {
		t.Errorf("Not-started meeting should have zero duration, got %v", gone.Duration)
	}
}

func TestResolveAnswerPath(t *testing.T) {
	cases := []struct {
		isHost      bool
		waitingRoom bool
		want        AnswerPath
	}{
		{true, true, AnswerImmediate},
		{true, false, AnswerImmediate},
		{false, false, AnswerImmediate},
		{false, true, AnswerWaitingRoom},
	}

	for _, tc := range cases {
		if got := ResolveAnswerPath(tc.isHost, tc.waitingRoom); got != tc.want {
			t.Errorf("host=%v waitingRoom=%v: expected %s, got %s",
				tc.isHost, tc.waitingRoom, tc.want, got)
		}
	}
}
