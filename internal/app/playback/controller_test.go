package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/focusbox/internal/app/player"
	"github.com/osa030/focusbox/internal/app/session/clock"
	"github.com/osa030/focusbox/internal/domain/playlist"
)

type fakePlayer struct {
	mu    sync.Mutex
	ready bool
	loads []player.LoadRequest
	stops int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{ready: true}
}

func (p *fakePlayer) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakePlayer) Load(req player.LoadRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads = append(p.loads, req)
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakePlayer) loadedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.loads))
	for _, l := range p.loads {
		ids = append(ids, l.TrackID)
	}
	return ids
}

func (p *fakePlayer) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

type completions struct {
	mu      sync.Mutex
	reasons []CompletionReason
}

func (c *completions) record(r CompletionReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, r)
}

func (c *completions) get() []CompletionReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CompletionReason, len(c.reasons))
	copy(out, c.reasons)
	return out
}

func makeQueue(durations ...int) playlist.Queue {
	segments := make([]playlist.Segment, 0, len(durations))
	for i, d := range durations {
		segments = append(segments, playlist.Segment{
			TrackID:           string(rune('a' + i)),
			PlayDurationSec:   d,
			SourceDurationSec: d,
		})
	}
	return playlist.Queue{ID: "q-1", Segments: segments}
}

func newTestController(t *testing.T, p Player, c clock.Reader) (*Controller, *completions) {
	t.Helper()
	done := &completions{}
	ctrl := NewController(p, c, Config{SupervisionInterval: 10 * time.Millisecond}, done.record)
	t.Cleanup(ctrl.Destroy)
	return ctrl, done
}

func armedClock(seconds int) *clock.Clock {
	c := clock.New()
	c.Arm(seconds)
	return c
}

func TestController_PlaysSegmentsSequentially(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(200, 200, 200)))
	assert.Equal(t, StatePlaying, ctrl.GetState())
	assert.Equal(t, []string{"a"}, p.loadedIDs())

	ctrl.OnPlayerEnded()
	assert.Equal(t, []string{"a", "b"}, p.loadedIDs())

	ctrl.OnPlayerEnded()
	assert.Equal(t, []string{"a", "b", "c"}, p.loadedIDs())
	assert.Empty(t, done.get())

	ctrl.OnPlayerEnded()
	assert.Equal(t, []string{"a", "b", "c"}, p.loadedIDs())
	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
	assert.Equal(t, StateCompleted, ctrl.GetState())

	info := ctrl.GetQueueInfo()
	assert.Equal(t, 3, info.Cursor)
	assert.Equal(t, 3, info.Total)
	assert.Equal(t, 0, info.Remaining)
}

func TestController_EndedAfterCompletionIsNoop(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100)))
	ctrl.OnPlayerEnded()
	ctrl.OnPlayerEnded()
	ctrl.OnPlayerEnded()

	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
	assert.Equal(t, 1, ctrl.GetQueueInfo().Cursor)
}

func TestController_EmptyQueueCompletesImmediately(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(playlist.Queue{ID: "empty"}))

	assert.Empty(t, p.loadedIDs())
	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
	assert.Equal(t, StateCompleted, ctrl.GetState())
	_, ok := ctrl.GetCurrentTrack()
	assert.False(t, ok)
}

func TestController_SessionExpiresMidQueue(t *testing.T) {
	p := newFakePlayer()
	c := armedClock(1500)
	ctrl, done := newTestController(t, p, c)

	require.NoError(t, ctrl.Start(makeQueue(300, 300, 300, 300, 300)))
	ctrl.OnPlayerEnded()
	assert.Equal(t, []string{"a", "b"}, p.loadedIDs())

	c.SetRemaining(0)

	require.Eventually(t, func() bool {
		return len(done.get()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []CompletionReason{ReasonSessionExpired}, done.get())
	assert.Equal(t, StateExpired, ctrl.GetState())
	assert.Equal(t, 1, p.stopCount())

	// Late ended signal never loads segments 3 to 5.
	ctrl.OnPlayerEnded()
	assert.Equal(t, []string{"a", "b"}, p.loadedIDs())
	assert.Len(t, done.get(), 1)
}

func TestController_TrimmedSegmentPassesEndOffset(t *testing.T) {
	p := newFakePlayer()
	ctrl, _ := newTestController(t, p, armedClock(600))

	q := playlist.Queue{ID: "q", Segments: []playlist.Segment{
		{TrackID: "full", PlayDurationSec: 300, SourceDurationSec: 300},
		{TrackID: "cut", StartOffsetSec: 10, PlayDurationSec: 200, SourceDurationSec: 900, Trimmed: true},
	}}
	require.NoError(t, ctrl.Start(q))
	ctrl.OnPlayerEnded()

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.loads, 2)
	assert.Equal(t, player.LoadRequest{TrackID: "full"}, p.loads[0])
	assert.Equal(t, player.LoadRequest{TrackID: "cut", StartSeconds: 10, EndSeconds: 210}, p.loads[1])
}

func TestController_SkipsSegmentsWithoutTrackID(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	q := playlist.Queue{ID: "q", Segments: []playlist.Segment{
		{TrackID: "", PlayDurationSec: 10},
		{TrackID: "x", PlayDurationSec: 10},
		{TrackID: "", PlayDurationSec: 10},
	}}
	require.NoError(t, ctrl.Start(q))
	assert.Equal(t, []string{"x"}, p.loadedIDs())

	cur, ok := ctrl.GetCurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "x", cur.TrackID)

	ctrl.OnPlayerEnded()
	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
}

func TestController_PlayerNotReady(t *testing.T) {
	p := newFakePlayer()
	p.ready = false
	ctrl, done := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100, 100)))
	assert.Empty(t, p.loadedIDs())
	assert.Equal(t, StatePlaying, ctrl.GetState())

	// Nothing in flight, so ended signals do not advance.
	ctrl.OnPlayerEnded()
	assert.Equal(t, 0, ctrl.GetQueueInfo().Cursor)
	assert.Empty(t, done.get())
}

func TestController_OnPlayerError(t *testing.T) {
	p := newFakePlayer()
	ctrl, _ := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100, 100, 100)))

	ctrl.OnPlayerError(player.ErrorHTML5)
	assert.Equal(t, []string{"a"}, p.loadedIDs())

	ctrl.OnPlayerError(player.ErrorNotEmbeddable)
	assert.Equal(t, []string{"a", "b"}, p.loadedIDs())
	assert.Equal(t, 1, ctrl.GetQueueInfo().Cursor)
}

func TestController_Skip(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	assert.ErrorIs(t, ctrl.Skip(), ErrNotPlaying)

	require.NoError(t, ctrl.Start(makeQueue(100, 100)))
	require.NoError(t, ctrl.Skip())
	assert.Equal(t, []string{"a", "b"}, p.loadedIDs())

	require.NoError(t, ctrl.Skip())
	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
	assert.ErrorIs(t, ctrl.Skip(), ErrNotPlaying)
}

func TestController_Events(t *testing.T) {
	p := newFakePlayer()
	ctrl, _ := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100, 100)))
	ctrl.OnPlayerEnded()
	ctrl.OnPlayerEnded()

	var types []EventType
	for len(types) < 5 {
		select {
		case e := <-ctrl.Events():
			types = append(types, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("missing events, saw %v", types)
		}
	}
	assert.Equal(t, []EventType{
		EventSegmentStarted,
		EventSegmentEnded,
		EventSegmentStarted,
		EventSegmentEnded,
		EventQueueCompleted,
	}, types)
}

func TestController_StallsWhenPlayerNotReady(t *testing.T) {
	p := newFakePlayer()
	ctrl, _ := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100, 100)))
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
	ctrl.OnPlayerEnded()

	var got []Event
	for len(got) < 3 {
		select {
		case e := <-ctrl.Events():
			got = append(got, e)
		case <-time.After(time.Second):
			t.Fatalf("missing events, saw %d", len(got))
		}
	}
	stalled := got[2]
	assert.Equal(t, EventSegmentStalled, stalled.Type)
	assert.Equal(t, 1, stalled.Index)
	require.NotNil(t, stalled.Segment)
	assert.Equal(t, "b", stalled.Segment.TrackID)
	assert.Equal(t, []string{"a"}, p.loadedIDs())

	// A later ended signal is ignored; nothing is in flight.
	ctrl.OnPlayerEnded()
	assert.Equal(t, 1, ctrl.GetQueueInfo().Cursor)

	p.mu.Lock()
	p.ready = true
	p.mu.Unlock()
	require.NoError(t, ctrl.Skip())
	assert.Equal(t, 2, ctrl.GetQueueInfo().Cursor)
}

func TestController_QueueInfoIsACopy(t *testing.T) {
	p := newFakePlayer()
	ctrl, _ := newTestController(t, p, armedClock(600))

	q := makeQueue(100, 200)
	require.NoError(t, ctrl.Start(q))
	q.Segments[0].TrackID = "mutated"

	info := ctrl.GetQueueInfo()
	assert.Equal(t, "a", info.Segments[0].TrackID)
	info.Segments[1].TrackID = "mutated"

	cur, ok := ctrl.GetCurrentTrack()
	require.True(t, ok)
	cur.TrackID = "mutated"
	assert.Equal(t, "b", ctrl.GetQueueInfo().Segments[1].TrackID)
	assert.Equal(t, "a", ctrl.GetQueueInfo().Segments[0].TrackID)
}

func TestController_DestroyIsIdempotent(t *testing.T) {
	p := newFakePlayer()
	c := armedClock(600)
	ctrl, done := newTestController(t, p, c)

	require.NoError(t, ctrl.Start(makeQueue(100, 100)))
	ctrl.Destroy()
	ctrl.Destroy()

	assert.Equal(t, StateDestroyed, ctrl.GetState())
	assert.Equal(t, 0, ctrl.GetQueueInfo().Total)

	ctrl.OnPlayerEnded()
	c.SetRemaining(0)
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, done.get())
	assert.Equal(t, []string{"a"}, p.loadedIDs())
	assert.ErrorIs(t, ctrl.Start(makeQueue(100)), ErrDestroyed)
}

func TestController_RestartReplacesQueue(t *testing.T) {
	p := newFakePlayer()
	ctrl, done := newTestController(t, p, armedClock(600))

	require.NoError(t, ctrl.Start(makeQueue(100, 100, 100)))
	ctrl.OnPlayerEnded()

	require.NoError(t, ctrl.Start(makeQueue(50)))
	assert.Equal(t, 0, ctrl.GetQueueInfo().Cursor)
	assert.Equal(t, 1, ctrl.GetQueueInfo().Total)

	ctrl.OnPlayerEnded()
	assert.Equal(t, []CompletionReason{ReasonQueueExhausted}, done.get())
}

func TestController_CompletionCallbackMayCallBack(t *testing.T) {
	p := newFakePlayer()
	var ctrl *Controller
	called := make(chan State, 1)
	ctrl = NewController(p, armedClock(600), Config{}, func(CompletionReason) {
		// Would deadlock if invoked under the controller lock.
		called <- ctrl.GetState()
	})
	defer ctrl.Destroy()

	require.NoError(t, ctrl.Start(makeQueue(10)))
	ctrl.OnPlayerEnded()

	select {
	case s := <-called:
		assert.Equal(t, StateCompleted, s)
	case <-time.After(time.Second):
		t.Fatal("completion not called")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "session_expired", ReasonSessionExpired.String())
	assert.Equal(t, "segment_skipped", EventSegmentSkipped.String())
	assert.Equal(t, "segment_stalled", EventSegmentStalled.String())
}
