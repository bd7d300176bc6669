package call

import (
	"time"
)

// Snapshot is the single immutable view of the engine's state published to
// observers. Participant entries are value copies; mutating a snapshot has
// no effect on engine state.
type Snapshot struct {
	// Call is the current call
	Call Call `json:"call"`

	// Layout is the active layout mode
	Layout LayoutMode `json:"layout"`

	// Participants is the ordered roster
	Participants []Participant `json:"participants"`

	// Speakers is the independently ordered speaker sub-list
	Speakers []Participant `json:"speakers"`

	// Banners is the derived banner state
	Banners BannerState `json:"banners"`

	// Meeting is the scheduled-meeting view of the call
	Meeting MeetingState `json:"meeting"`

	// GeneratedAt is when the snapshot was taken
	GeneratedAt time.Time `json:"generated_at"`
}

// ParticipantByIdentity returns the snapshot entry with the given identity
func (s Snapshot) ParticipantByIdentity(id Identity) (Participant, bool) {
	for _, p := range s.Participants {
		if p.Identity() == id {
			return p, true
		}
	}
	return Participant{}, false
}

// CurrentSpeaker returns the speaker-list entry with the speaker flag
func (s Snapshot) CurrentSpeaker() (Participant, bool) {
	for _, p := range s.Speakers {
		if p.IsSpeaker {
			return p, true
		}
	}
	return Participant{}, false
}
