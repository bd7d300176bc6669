package call

import (
	"context"
	"testing"

	"github.com/aminofox/zencall/pkg/logger"
)

func newTestResolutionManager(backend *fakeBackend) *ResolutionManager {
	return NewResolutionManager(backend, "call-1", logger.NewNopLogger())
}

func TestResolutionPlan(t *testing.T) {
	m := newTestResolutionManager(newFakeBackend())

	cases := []struct {
		name   string
		p      *Participant
		layout LayoutMode
		want   ResolutionTier
	}{
		{"grid regular", &Participant{}, LayoutGrid, TierHigh},
		{"grid speaker flag irrelevant", &Participant{IsSpeaker: true}, LayoutGrid, TierHigh},
		{"speaker layout non-speaker", &Participant{}, LayoutSpeaker, TierLow},
		{"speaker layout speaker", &Participant{IsSpeaker: true}, LayoutSpeaker, TierHigh},
		{"screen-share duplicate in grid", &Participant{ScreenShare: true}, LayoutGrid, TierHigh},
		{"screen-share duplicate in speaker layout", &Participant{ScreenShare: true}, LayoutSpeaker, TierHigh},
	}

	for _, tc := range cases {
		if got := m.Plan(tc.p, tc.layout); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestResolutionApplyIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)
	ctx := context.Background()

	p := &Participant{PeerID: "alice", ClientID: "a1"}

	m.Apply(ctx, p, TierHigh)
	m.Apply(ctx, p, TierHigh)
	m.Apply(ctx, p, TierHigh)

	starts, stops := m.Counts()
	if starts != 1 || stops != 0 {
		t.Errorf("Expected exactly one start and no stops, got %d/%d", starts, stops)
	}
	if p.Resolution != TierHigh {
		t.Errorf("Expected participant at high tier, got %s", p.Resolution)
	}
}

func TestResolutionTierChangeStopsOldFirst(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)
	ctx := context.Background()

	p := &Participant{PeerID: "alice", ClientID: "a1"}

	m.Apply(ctx, p, TierHigh)
	m.Apply(ctx, p, TierLow)

	ops := backend.resolutionOps
	if len(ops) != 3 {
		t.Fatalf("Expected 3 backend operations, got %d", len(ops))
	}
	if ops[1].stop != true || ops[1].tier != TierHigh {
		t.Errorf("Expected stop of high tier before low start, got %+v", ops[1])
	}
	if ops[2].stop || ops[2].tier != TierLow {
		t.Errorf("Expected low tier start last, got %+v", ops[2])
	}
}

// Switching layouts away and back must converge to the same subscriptions,
// with the transient tier fully released in between.
func TestResolutionLayoutRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)
	ctx := context.Background()

	speaker := &Participant{PeerID: "alice", ClientID: "a1", IsSpeaker: true}
	other := &Participant{PeerID: "bob", ClientID: "b1"}
	roster := []*Participant{speaker, other}

	applyAll := func(layout LayoutMode) {
		for _, p := range roster {
			m.Apply(ctx, p, m.Plan(p, layout))
		}
	}

	applyAll(LayoutGrid)
	before := map[Identity]ResolutionTier{}
	for _, p := range roster {
		tier, ok := m.Outstanding(p.Identity())
		if !ok {
			t.Fatalf("Expected outstanding subscription for %s", p.PeerID)
		}
		before[p.Identity()] = tier
	}

	applyAll(LayoutSpeaker)
	if tier, _ := m.Outstanding(other.Identity()); tier != TierLow {
		t.Errorf("Expected non-speaker downgraded to low, got %s", tier)
	}

	applyAll(LayoutGrid)
	for _, p := range roster {
		tier, ok := m.Outstanding(p.Identity())
		if !ok || tier != before[p.Identity()] {
			t.Errorf("Round trip should restore %s to %s, got %s", p.PeerID, before[p.Identity()], tier)
		}
	}

	if m.OutstandingCount() != 2 {
		t.Errorf("Expected 2 outstanding subscriptions, got %d", m.OutstandingCount())
	}
}

func TestResolutionReleaseIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)
	ctx := context.Background()

	p := &Participant{PeerID: "alice", ClientID: "a1"}
	m.Apply(ctx, p, TierHigh)

	m.Release(ctx, p)
	m.Release(ctx, p)

	starts, stops := m.Counts()
	if starts != stops {
		t.Errorf("Starts and stops must balance, got %d/%d", starts, stops)
	}
	if p.Resolution != TierNone {
		t.Errorf("Expected tier cleared after release, got %s", p.Resolution)
	}
	if m.OutstandingCount() != 0 {
		t.Errorf("Expected no outstanding subscriptions, got %d", m.OutstandingCount())
	}
}

func TestResolutionReleaseAllDrainsOrphans(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)
	ctx := context.Background()

	kept := &Participant{PeerID: "alice", ClientID: "a1"}
	dropped := &Participant{PeerID: "bob", ClientID: "b1"}
	m.Apply(ctx, kept, TierHigh)
	m.Apply(ctx, dropped, TierLow)

	// dropped's entity is gone from the roster but its stream is still live
	m.ReleaseAll(ctx, []*Participant{kept})

	starts, stops := m.Counts()
	if starts != stops {
		t.Errorf("Starts and stops must balance after ReleaseAll, got %d/%d", starts, stops)
	}
	if m.OutstandingCount() != 0 {
		t.Errorf("Expected no outstanding subscriptions, got %d", m.OutstandingCount())
	}
}

func TestResolutionApplyNoneIssuesNoStart(t *testing.T) {
	backend := newFakeBackend()
	m := newTestResolutionManager(backend)

	p := &Participant{PeerID: "alice", ClientID: "a1", Resolution: TierHigh}
	m.Apply(context.Background(), p, TierNone)

	starts, _ := m.Counts()
	if starts != 0 {
		t.Errorf("TierNone must not start a stream, got %d starts", starts)
	}
	if p.Resolution != TierNone {
		t.Errorf("Expected tier cleared, got %s", p.Resolution)
	}
}
