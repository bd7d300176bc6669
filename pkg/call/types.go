// Package call implements the in-call session state engine: it reconciles
// call status, the participant roster, video resolution tiers, speaker focus
// and status banners from independently arriving backend update streams into
// one consistent snapshot.
package call

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateIdentity is returned when constructing a participant whose
	// identity triple already exists in the roster
	ErrDuplicateIdentity = errors.New("participant with this identity already exists")
	// ErrParticipantNotFound is returned when a participant doesn't exist
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrEngineClosed is returned when operating on a closed engine
	ErrEngineClosed = errors.New("engine is closed")
	// ErrNoActiveCall is returned when no call is bound to the engine
	ErrNoActiveCall = errors.New("no active call bound")
)

// PeerID identifies a remote party across sessions
type PeerID string

// ClientID identifies a single session of a peer; one peer may hold
// several concurrent sessions
type ClientID string

// Identity is the unique key of a participant entity. The screen-share
// duplicate of a participant shares peer and client IDs but is a distinct
// entity with ScreenShare set.
type Identity struct {
	PeerID      PeerID
	ClientID    ClientID
	ScreenShare bool
}

// SessionID identifies a backend session
type SessionID struct {
	PeerID   PeerID
	ClientID ClientID
}

// CallStatus represents the lifecycle state of a call
type CallStatus string

const (
	// StatusInitial is the state before any connection attempt
	StatusInitial CallStatus = "initial"

	// StatusConnecting indicates the call transport is being established
	StatusConnecting CallStatus = "connecting"

	// StatusJoining indicates the local client is joining the call
	StatusJoining CallStatus = "joining"

	// StatusInProgress indicates the call is fully established
	StatusInProgress CallStatus = "in_progress"

	// StatusReconnecting is a side-state re-entrant from InProgress
	StatusReconnecting CallStatus = "reconnecting"

	// StatusTerminating indicates local participation is ending,
	// carrying a termination reason
	StatusTerminating CallStatus = "terminating_user_participation"

	// StatusDestroyed indicates the call is gone
	StatusDestroyed CallStatus = "destroyed"
)

// statusTransition represents a call status transition
type statusTransition struct {
	From CallStatus
	To   CallStatus
}

// validStatusTransitions defines the expected call status transitions.
// The backend is authoritative, so unexpected transitions are logged
// rather than rejected.
var validStatusTransitions = map[statusTransition]bool{
	{StatusInitial, StatusConnecting}: true,

	{StatusConnecting, StatusJoining}:    true,
	{StatusConnecting, StatusInProgress}: true,
	{StatusConnecting, StatusTerminating}: true,

	{StatusJoining, StatusInProgress}:  true,
	{StatusJoining, StatusTerminating}: true,

	{StatusInProgress, StatusReconnecting}: true,
	{StatusInProgress, StatusTerminating}:  true,

	{StatusReconnecting, StatusInProgress}: true,
	{StatusReconnecting, StatusTerminating}: true,

	{StatusTerminating, StatusDestroyed}: true,

	// Idempotent re-delivery of the same status
	{StatusInitial, StatusInitial}:           true,
	{StatusConnecting, StatusConnecting}:     true,
	{StatusJoining, StatusJoining}:           true,
	{StatusInProgress, StatusInProgress}:     true,
	{StatusReconnecting, StatusReconnecting}: true,
	{StatusTerminating, StatusTerminating}:   true,
	{StatusDestroyed, StatusDestroyed}:       true,
}

// ValidStatusTransition reports whether from -> to is an expected transition
func ValidStatusTransition(from, to CallStatus) bool {
	return validStatusTransitions[statusTransition{From: from, To: to}]
}

// IsActive reports whether the status represents ongoing participation
func (s CallStatus) IsActive() bool {
	switch s {
	case StatusJoining, StatusInProgress, StatusReconnecting:
		return true
	default:
		return false
	}
}

// TermCode is a coded explanation for why call participation ended
type TermCode string

const (
	// TermNone means no termination reason has been reported
	TermNone TermCode = ""

	// TermGeneric is an unspecific termination
	TermGeneric TermCode = "generic"

	// TermTooManyParticipants means the call participant limit was hit
	TermTooManyParticipants TermCode = "too_many_participants"

	// TermProtocolVersionMismatch means the client protocol is too old
	TermProtocolVersionMismatch TermCode = "protocol_version_mismatch"

	// TermCallDurationLimit means the free call duration limit was reached
	TermCallDurationLimit TermCode = "call_duration_limit_reached"

	// TermUsersCallLimit means the per-user concurrent call limit was reached
	TermUsersCallLimit TermCode = "users_call_limit_reached"
)

// LayoutMode is the active video layout
type LayoutMode string

const (
	// LayoutGrid shows all participants at equal size
	LayoutGrid LayoutMode = "grid"

	// LayoutSpeaker shows one focused participant plus a carousel strip
	LayoutSpeaker LayoutMode = "speaker"
)

// ResolutionTier is the quality level of a remote video subscription
type ResolutionTier string

const (
	// TierNone means no video subscription is held
	TierNone ResolutionTier = "none"

	// TierLow is the carousel/thumbnail quality
	TierLow ResolutionTier = "low"

	// TierHigh is the focused/grid quality
	TierHigh ResolutionTier = "high"
)

// CountdownDisabled is the sentinel value meaning no end-of-call countdown
// is pending
const CountdownDisabled time.Duration = -1

// Call represents one active group-call session. It is owned exclusively by
// the engine and replaced wholesale on every backend status push.
type Call struct {
	// ID is the call identifier
	ID string `json:"id"`

	// ChatID is the chat/room the call belongs to
	ChatID string `json:"chat_id"`

	// Status is the call lifecycle state
	Status CallStatus `json:"status"`

	// OnHold indicates the whole call is on hold
	OnHold bool `json:"on_hold"`

	// LocalAudioOn indicates the local microphone is enabled
	LocalAudioOn bool `json:"local_audio_on"`

	// LocalVideoOn indicates the local camera is enabled
	LocalVideoOn bool `json:"local_video_on"`

	// Duration is how long the call has been running
	Duration time.Duration `json:"duration"`

	// TermCode is the termination reason, TermNone while the call is alive
	TermCode TermCode `json:"term_code,omitempty"`

	// IsModerator indicates the local user moderates this call
	IsModerator bool `json:"is_moderator"`

	// OnlyMe indicates the local user is the only one in the call
	OnlyMe bool `json:"only_me"`

	// WillEndIn is the remaining time until the call is force-ended,
	// CountdownDisabled when no countdown is pending
	WillEndIn time.Duration `json:"will_end_in"`
}
