package call

import (
	"time"
)

// BannerState is the set of status banners derived from raw signals. It is
// recomputed wholesale whenever an underlying signal changes, never patched
// incrementally, because signals arrive from independent unordered sources.
type BannerState struct {
	// OnHold is the primary banner for call or session hold; it suppresses
	// every other banner
	OnHold bool `json:"on_hold"`

	// AloneInCall indicates the local user is the only one in the call
	AloneInCall bool `json:"alone_in_call"`

	// WaitingForOthers indicates more joiners are expected while the
	// end-of-call countdown runs low
	WaitingForOthers bool `json:"waiting_for_others"`

	// PoorConnection projects the network-quality signal
	PoorConnection bool `json:"poor_connection"`

	// Reconnecting projects the transport reconnecting signal
	Reconnecting bool `json:"reconnecting"`
}

// Signals are the raw inputs the banner state derives from
type Signals struct {
	// CallOnHold is the call-level hold flag
	CallOnHold bool

	// SessionOnHold is the one-to-one session hold flag
	SessionOnHold bool

	// Alone indicates the local user is the only one in the call
	Alone bool

	// Waiting indicates the backend expects more joiners
	Waiting bool

	// ReceivedChange is true when the alone/waiting change arrived as a
	// push notification rather than being locally initiated
	ReceivedChange bool

	// CountdownRemaining is the pending end-of-call countdown,
	// CountdownDisabled when none
	CountdownRemaining time.Duration

	// PoorConnection indicates degraded network quality
	PoorConnection bool

	// Reconnecting indicates the transport is reconnecting
	Reconnecting bool
}

// BannerDeriver computes banner state from signals. Derivation is a pure
// function so it can be re-run on any interleaving of signal sources.
type BannerDeriver struct {
	// waitingThreshold is the countdown value below which waiting-for-others
	// outranks alone-in-call
	waitingThreshold time.Duration
}

// NewBannerDeriver creates a banner deriver
func NewBannerDeriver(waitingThreshold time.Duration) *BannerDeriver {
	return &BannerDeriver{waitingThreshold: waitingThreshold}
}

// Derive computes the banner state. The primary slot is checked in priority
// order, first match wins:
//
//  1. call-level or session hold: on-hold, alone/waiting suppressed
//  2. alone with the countdown already below the threshold, waiting
//     asserted and the change received as a push: waiting-for-others
//  3. alone otherwise: alone-in-call
//  4. neither: both cleared
//
// Poor-connection and reconnecting are independent projections of their raw
// signals, except they clear whenever on-hold is active.
//
// The exact precedence between rules 2 and 3 mirrors the shipped behavior;
// a locally triggered alone state overriding a pending waiting condition is
// suspected to be a latent product bug and is kept as is pending
// clarification.
func (d *BannerDeriver) Derive(sig Signals) BannerState {
	var state BannerState

	switch {
	case sig.CallOnHold || sig.SessionOnHold:
		state.OnHold = true

	case sig.Alone && sig.Waiting && sig.ReceivedChange &&
		sig.CountdownRemaining != CountdownDisabled &&
		sig.CountdownRemaining <= d.waitingThreshold:
		state.WaitingForOthers = true

	case sig.Alone:
		state.AloneInCall = true
	}

	if !state.OnHold {
		state.PoorConnection = sig.PoorConnection
		state.Reconnecting = sig.Reconnecting
	}

	return state
}
