package call

// IntentKind discriminates the engine's command surface
type IntentKind int

const (
	// IntentParticipantTapped selects a tapped participant as speaker
	IntentParticipantTapped IntentKind = iota

	// IntentSetLayout switches between grid and speaker layout
	IntentSetLayout

	// IntentToggleHold asks the backend to toggle call hold
	IntentToggleHold

	// IntentHangUp asks the backend to end local participation
	IntentHangUp

	// IntentEndForAll asks the backend to end the call for everyone
	IntentEndForAll

	// IntentAnswer answers an incoming call
	IntentAnswer

	// IntentToggleOptions toggles a participant's options menu visibility
	IntentToggleOptions
)

// String returns a short name for logging
func (k IntentKind) String() string {
	switch k {
	case IntentParticipantTapped:
		return "participant_tapped"
	case IntentSetLayout:
		return "set_layout"
	case IntentToggleHold:
		return "toggle_hold"
	case IntentHangUp:
		return "hang_up"
	case IntentEndForAll:
		return "end_for_all"
	case IntentAnswer:
		return "answer"
	case IntentToggleOptions:
		return "toggle_options"
	default:
		return "unknown"
	}
}

// Intent is the tagged-union command consumed by the engine. Only the
// fields relevant to the Kind are read.
type Intent struct {
	// Kind discriminates the intent
	Kind IntentKind

	// Target is the participant for tapped/options intents
	Target Identity

	// Layout is the target layout for IntentSetLayout
	Layout LayoutMode

	// HoldOn is the desired hold state for IntentToggleHold
	HoldOn bool

	// Video and Audio select media for IntentAnswer
	Video bool
	Audio bool
}
