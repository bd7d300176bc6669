package call

import (
	"time"
)

// MeetingStatus tracks a scheduled meeting's status, derived purely from
// the latest call snapshot. It has no hidden transitions.
type MeetingStatus string

const (
	// MeetingNotStarted means the scheduled meeting has no running call
	MeetingNotStarted MeetingStatus = "not_started"

	// MeetingNotJoined means a call is running but the local user is not in
	MeetingNotJoined MeetingStatus = "not_joined"

	// MeetingJoined means the local user participates in the running call
	MeetingJoined MeetingStatus = "joined"
)

// MeetingState is the scheduled-meeting view of the call
type MeetingState struct {
	// Status is the derived meeting status
	Status MeetingStatus `json:"status"`

	// Duration is how long the call has been running; zero for NotStarted
	Duration time.Duration `json:"duration"`
}

// DeriveMeetingState recomputes the meeting state from a call snapshot.
// A destroyed or terminating call counts as not started again so the
// "start" affordance comes back.
func DeriveMeetingState(c Call) MeetingState {
	if c.ID == "" || c.Status == StatusDestroyed || c.Status == StatusTerminating {
		return MeetingState{Status: MeetingNotStarted}
	}

	if c.Status.IsActive() {
		return MeetingState{Status: MeetingJoined, Duration: c.Duration}
	}

	// A call exists but the local user has not joined it yet
	return MeetingState{Status: MeetingNotJoined, Duration: c.Duration}
}

// AnswerPath decides how answering an incoming call proceeds
type AnswerPath string

const (
	// AnswerImmediate joins the call directly
	AnswerImmediate AnswerPath = "immediate"

	// AnswerWaitingRoom opens the waiting room instead of joining
	AnswerWaitingRoom AnswerPath = "waiting_room"
)

// ResolveAnswerPath picks the answer path: hosts always join directly,
// non-hosts go through the waiting room when it is enabled.
func ResolveAnswerPath(isHost, waitingRoomEnabled bool) AnswerPath {
	if !isHost && waitingRoomEnabled {
		return AnswerWaitingRoom
	}
	return AnswerImmediate
}
