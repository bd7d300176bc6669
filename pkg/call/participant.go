package call

import (
	"time"
)

// Participant represents one remote party entity in the call. The engine is
// the sole writer: all mutation happens on the engine's consumption
// goroutine, so the struct carries no lock. Consumers only ever see value
// copies taken by Clone.
type Participant struct {
	// PeerID identifies the remote party
	PeerID PeerID `json:"peer_id"`

	// ClientID identifies the session. A peer may have several concurrent
	// sessions with distinct client IDs.
	ClientID ClientID `json:"client_id"`

	// ScreenShare marks the screen-share duplicate entity of a session
	ScreenShare bool `json:"screen_share"`

	// Name is the display name, empty when profile resolution failed
	Name string `json:"name"`

	// AvatarRef is an opaque avatar reference
	AvatarRef string `json:"avatar_ref,omitempty"`

	// IsModerator indicates the peer moderates the room
	IsModerator bool `json:"is_moderator"`

	// IsContact indicates the peer is a contact of the local user
	IsContact bool `json:"is_contact"`

	// IsGuest indicates the peer joined without an account
	IsGuest bool `json:"is_guest"`

	// AudioOn indicates the session's audio is on
	AudioOn bool `json:"audio_on"`

	// VideoOn indicates the session's video is on
	VideoOn bool `json:"video_on"`

	// CameraOn indicates the session's video comes from a camera
	CameraOn bool `json:"camera_on"`

	// ScreenShareOn indicates the session is sharing its screen
	ScreenShareOn bool `json:"screen_share_on"`

	// SupportsScreenShare indicates the session's client can share a screen
	SupportsScreenShare bool `json:"supports_screen_share"`

	// AudioDetected indicates audio activity was detected
	AudioDetected bool `json:"audio_detected"`

	// OnHold indicates the session put the call on hold
	OnHold bool `json:"on_hold"`

	// IsRecording indicates the session is recording the call
	IsRecording bool `json:"is_recording"`

	// Resolution is the currently held video resolution tier
	Resolution ResolutionTier `json:"resolution"`

	// IsSpeaker marks the focused participant of the speaker layout
	IsSpeaker bool `json:"is_speaker"`

	// OptionsVisible is transient UI state for the participant options menu
	OptionsVisible bool `json:"options_visible"`

	// JoinedAt is when the entity was materialized
	JoinedAt time.Time `json:"joined_at"`
}

// Identity returns the unique key of this entity
func (p Participant) Identity() Identity {
	return Identity{PeerID: p.PeerID, ClientID: p.ClientID, ScreenShare: p.ScreenShare}
}

// SessionID returns the backend session this entity belongs to
func (p Participant) SessionID() SessionID {
	return SessionID{PeerID: p.PeerID, ClientID: p.ClientID}
}

// IsPresenting reports whether the entity represents active screen sharing
func (p Participant) IsPresenting() bool {
	return p.ScreenShare || p.ScreenShareOn
}

// Clone returns a value copy for publication in snapshots
func (p Participant) Clone() Participant {
	return p
}
