package call

import (
	"context"
	"time"
)

// ChangeFlag marks which call attributes a CallUpdate carries
type ChangeFlag uint32

const (
	// ChangeStatus marks a call status change
	ChangeStatus ChangeFlag = 1 << iota

	// ChangeOnHold marks a hold state change
	ChangeOnHold

	// ChangeOnlyMe marks an alone-in-call change
	ChangeOnlyMe

	// ChangeWaitingForOthers marks a waiting-for-others change
	ChangeWaitingForOthers

	// ChangeWillEnd marks a call-will-end countdown change
	ChangeWillEnd

	// ChangeModerator marks a moderator flag change
	ChangeModerator
)

// Has reports whether the flag set contains f
func (c ChangeFlag) Has(f ChangeFlag) bool {
	return c&f != 0
}

// SessionChangeFlag marks which session attributes a SessionUpdate carries
type SessionChangeFlag uint32

const (
	// SessionChangeJoined marks a newly appeared session
	SessionChangeJoined SessionChangeFlag = 1 << iota

	// SessionChangeLeft marks a disappeared session
	SessionChangeLeft

	// SessionChangeAudio marks an audio flag change
	SessionChangeAudio

	// SessionChangeVideo marks a video flag change
	SessionChangeVideo

	// SessionChangeScreenShare marks a screen-share flag change
	SessionChangeScreenShare

	// SessionChangeOnHold marks a hold flag change
	SessionChangeOnHold

	// SessionChangeRecording marks a recording flag change
	SessionChangeRecording

	// SessionChangeAudioDetected marks an audio level detection change
	SessionChangeAudioDetected

	// SessionChangeCapabilities marks a client capability change
	SessionChangeCapabilities
)

// Has reports whether the flag set contains f
func (c SessionChangeFlag) Has(f SessionChangeFlag) bool {
	return c&f != 0
}

// CallUpdate is a call-level change pushed by the backend
type CallUpdate struct {
	// CallID is the call this update belongs to
	CallID string `json:"call_id"`

	// Changes marks which attributes changed
	Changes ChangeFlag `json:"changes"`

	// Status is the new call status
	Status CallStatus `json:"status"`

	// TermCode is the termination reason when Status is terminating
	TermCode TermCode `json:"term_code,omitempty"`

	// IsOwnClientCaller is true when the change was triggered by the local
	// client rather than received as a push notification
	IsOwnClientCaller bool `json:"is_own_client_caller"`

	// OnHold is the call-level hold flag
	OnHold bool `json:"on_hold"`

	// OnlyMe indicates the local user is alone in the call
	OnlyMe bool `json:"only_me"`

	// WaitingForOthers indicates the backend expects more joiners
	WaitingForOthers bool `json:"waiting_for_others"`

	// IsModerator indicates the local user moderates the call
	IsModerator bool `json:"is_moderator"`

	// Duration is the current call duration
	Duration time.Duration `json:"duration"`

	// DurationRemaining is the time until the call is force-ended,
	// CountdownDisabled when no countdown applies
	DurationRemaining time.Duration `json:"duration_remaining"`
}

// SessionUpdate is a per-session change pushed by the backend. A single
// update may affect two participant entities because screen-share toggling
// is carried on the same stream.
type SessionUpdate struct {
	// PeerID identifies the remote party
	PeerID PeerID `json:"peer_id"`

	// ClientID identifies the session
	ClientID ClientID `json:"client_id"`

	// Changes marks which attributes changed
	Changes SessionChangeFlag `json:"changes"`

	// HasAudio indicates the session's audio is on
	HasAudio bool `json:"has_audio"`

	// HasVideo indicates the session's video is on
	HasVideo bool `json:"has_video"`

	// HasCamera indicates the session's video comes from a camera
	HasCamera bool `json:"has_camera"`

	// HasScreenShare indicates the session is sharing its screen
	HasScreenShare bool `json:"has_screen_share"`

	// SupportsScreenShare indicates the session's client can share a screen
	SupportsScreenShare bool `json:"supports_screen_share"`

	// IsOnHold indicates the session put the call on hold
	IsOnHold bool `json:"is_on_hold"`

	// IsRecording indicates the session is recording the call
	IsRecording bool `json:"is_recording"`

	// AudioDetected indicates audio activity was detected
	AudioDetected bool `json:"audio_detected"`
}

// SessionID returns the session identifier of the update
func (u SessionUpdate) SessionID() SessionID {
	return SessionID{PeerID: u.PeerID, ClientID: u.ClientID}
}

// NetworkSample is a raw network-quality measurement
type NetworkSample struct {
	// PacketLoss is the packet loss percentage (0-100)
	PacketLoss float64 `json:"packet_loss"`

	// RTT is the round-trip time
	RTT time.Duration `json:"rtt"`

	// Jitter is the jitter
	Jitter time.Duration `json:"jitter"`

	// Bandwidth is the estimated available bandwidth in bits/sec
	Bandwidth int `json:"bandwidth"`

	// Reconnecting indicates the transport is currently reconnecting
	Reconnecting bool `json:"reconnecting"`
}

// ConsentUpdate is a recording-consent decision by the local user
type ConsentUpdate struct {
	// PeerID is the recording peer the consent applies to
	PeerID PeerID `json:"peer_id"`

	// Accepted is false when the user rejected being recorded; rejection is
	// fatal to local participation
	Accepted bool `json:"accepted"`
}

// CallBackend is the abstract call transport the engine consumes. Commands
// are asynchronous with respect to engine state: their effects become
// visible only through subsequent update events. Implementations must not
// block on stream delivery.
type CallBackend interface {
	// SubscribeCallUpdates returns a stream of call-level updates. The
	// stream is closed when ctx is canceled.
	SubscribeCallUpdates(ctx context.Context, callID string) (<-chan CallUpdate, error)

	// SubscribeSessionUpdates returns a stream of per-session updates
	SubscribeSessionUpdates(ctx context.Context, callID string) (<-chan SessionUpdate, error)

	// SubscribeNetworkQuality returns a stream of network-quality samples
	SubscribeNetworkQuality(ctx context.Context, callID string) (<-chan NetworkSample, error)

	// SubscribeRecordingConsent returns a stream of consent decisions
	SubscribeRecordingConsent(ctx context.Context, callID string) (<-chan ConsentUpdate, error)

	// CurrentSessionIDs returns the ordered session list of the call
	CurrentSessionIDs(ctx context.Context, callID string) ([]SessionID, error)

	// RequestResolution asks the backend to start a video stream at the
	// given tier for a session
	RequestResolution(ctx context.Context, callID string, clientID ClientID, tier ResolutionTier) error

	// StopResolution asks the backend to stop a video stream at the given
	// tier for a session
	StopResolution(ctx context.Context, callID string, clientID ClientID, tier ResolutionTier) error

	// ToggleHold puts the call on or off hold
	ToggleHold(ctx context.Context, callID string, on bool) error

	// HangUp ends local participation in the call
	HangUp(ctx context.Context, callID string) error

	// EndForAll ends the call for every participant
	EndForAll(ctx context.Context, callID string) error

	// Answer accepts an incoming call
	Answer(ctx context.Context, callID string, video, audio bool) error
}

// Profile holds the roster-backend view of a peer
type Profile struct {
	// Name is the display name
	Name string `json:"name"`

	// IsContact indicates the peer is in the local user's contact list
	IsContact bool `json:"is_contact"`

	// IsModerator indicates the peer moderates the room
	IsModerator bool `json:"is_moderator"`

	// IsGuest indicates the peer joined without an account
	IsGuest bool `json:"is_guest"`

	// AvatarRef is an opaque avatar reference
	AvatarRef string `json:"avatar_ref"`
}

// RosterBackend resolves peer profiles for participant construction
type RosterBackend interface {
	// ResolveProfile returns the profile of a peer
	ResolveProfile(ctx context.Context, peerID PeerID) (Profile, error)
}
