package call

import (
	"context"
	"errors"
	"sync"
)

// fakeBackend is an in-memory CallBackend used across the package tests. It
// records resolution operations and feeds the engine through plain channels.
type fakeBackend struct {
	mu sync.Mutex

	sessions []SessionID

	callCh    chan CallUpdate
	sessionCh chan SessionUpdate
	qualityCh chan NetworkSample
	consentCh chan ConsentUpdate

	resolutionOps []resolutionOp
	hangUps       int
	endForAlls    int
	holdToggles   []bool
	answers       int

	commandErr error
}

type resolutionOp struct {
	clientID ClientID
	tier     ResolutionTier
	stop     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		callCh:    make(chan CallUpdate, 32),
		sessionCh: make(chan SessionUpdate, 32),
		qualityCh: make(chan NetworkSample, 32),
		consentCh: make(chan ConsentUpdate, 32),
	}
}

func (b *fakeBackend) SubscribeCallUpdates(ctx context.Context, callID string) (<-chan CallUpdate, error) {
	return b.callCh, nil
}

func (b *fakeBackend) SubscribeSessionUpdates(ctx context.Context, callID string) (<-chan SessionUpdate, error) {
	return b.sessionCh, nil
}

func (b *fakeBackend) SubscribeNetworkQuality(ctx context.Context, callID string) (<-chan NetworkSample, error) {
	return b.qualityCh, nil
}

func (b *fakeBackend) SubscribeRecordingConsent(ctx context.Context, callID string) (<-chan ConsentUpdate, error) {
	return b.consentCh, nil
}

func (b *fakeBackend) CurrentSessionIDs(ctx context.Context, callID string) ([]SessionID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]SessionID, len(b.sessions))
	copy(out, b.sessions)
	return out, nil
}

func (b *fakeBackend) RequestResolution(ctx context.Context, callID string, clientID ClientID, tier ResolutionTier) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolutionOps = append(b.resolutionOps, resolutionOp{clientID: clientID, tier: tier})
	return nil
}

func (b *fakeBackend) StopResolution(ctx context.Context, callID string, clientID ClientID, tier ResolutionTier) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolutionOps = append(b.resolutionOps, resolutionOp{clientID: clientID, tier: tier, stop: true})
	return nil
}

func (b *fakeBackend) ToggleHold(ctx context.Context, callID string, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.holdToggles = append(b.holdToggles, on)
	return b.commandErr
}

func (b *fakeBackend) HangUp(ctx context.Context, callID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hangUps++
	return b.commandErr
}

func (b *fakeBackend) EndForAll(ctx context.Context, callID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endForAlls++
	return b.commandErr
}

func (b *fakeBackend) Answer(ctx context.Context, callID string, video, audio bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers++
	return b.commandErr
}

func (b *fakeBackend) setSessions(s []SessionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions = s
}

func (b *fakeBackend) hangUpCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hangUps
}

func (b *fakeBackend) opCounts() (starts, stops int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range b.resolutionOps {
		if op.stop {
			stops++
		} else {
			starts++
		}
	}
	return starts, stops
}

// perCallBackend hands out a distinct session and quality stream per call,
// the way a real transport does across rebinds
type perCallBackend struct {
	*fakeBackend

	streamMu   sync.Mutex
	sessionChs map[string]chan SessionUpdate
	qualityChs map[string]chan NetworkSample
}

func newPerCallBackend() *perCallBackend {
	return &perCallBackend{
		fakeBackend: newFakeBackend(),
		sessionChs:  make(map[string]chan SessionUpdate),
		qualityChs:  make(map[string]chan NetworkSample),
	}
}

func (b *perCallBackend) SubscribeSessionUpdates(ctx context.Context, callID string) (<-chan SessionUpdate, error) {
	return b.sessionStream(callID), nil
}

func (b *perCallBackend) SubscribeNetworkQuality(ctx context.Context, callID string) (<-chan NetworkSample, error) {
	return b.qualityStream(callID), nil
}

func (b *perCallBackend) sessionStream(callID string) chan SessionUpdate {
	b.streamMu.Lock()
	defer b.streamMu.Unlock()
	ch, ok := b.sessionChs[callID]
	if !ok {
		ch = make(chan SessionUpdate, 128)
		b.sessionChs[callID] = ch
	}
	return ch
}

func (b *perCallBackend) qualityStream(callID string) chan NetworkSample {
	b.streamMu.Lock()
	defer b.streamMu.Unlock()
	ch, ok := b.qualityChs[callID]
	if !ok {
		ch = make(chan NetworkSample, 128)
		b.qualityChs[callID] = ch
	}
	return ch
}

// failingSubscribeBackend fails the last stream subscription and records
// the context handed to the first
type failingSubscribeBackend struct {
	*fakeBackend

	ctxMu   sync.Mutex
	callCtx context.Context
}

func (b *failingSubscribeBackend) SubscribeCallUpdates(ctx context.Context, callID string) (<-chan CallUpdate, error) {
	b.ctxMu.Lock()
	b.callCtx = ctx
	b.ctxMu.Unlock()
	return b.fakeBackend.SubscribeCallUpdates(ctx, callID)
}

func (b *failingSubscribeBackend) SubscribeRecordingConsent(ctx context.Context, callID string) (<-chan ConsentUpdate, error) {
	return nil, errors.New("consent stream unavailable")
}

// fakeRoster resolves canned profiles and can be told to fail
type fakeRoster struct {
	mu       sync.Mutex
	profiles map[PeerID]Profile
	err      error
	calls    int
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{profiles: make(map[PeerID]Profile)}
}

func (r *fakeRoster) ResolveProfile(ctx context.Context, peerID PeerID) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return Profile{}, r.err
	}
	if p, ok := r.profiles[peerID]; ok {
		return p, nil
	}
	return Profile{Name: string(peerID)}, nil
}
