package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/player"
	"github.com/osa030/focusbox/internal/app/session/clock"
	"github.com/osa030/focusbox/internal/domain/playlist"
)

// Errors
var (
	ErrDestroyed  = errors.New("playback controller destroyed")
	ErrNotPlaying = errors.New("not playing")
)

// Player is the part of the player adapter the controller drives.
type Player interface {
	IsReady() bool
	Load(req player.LoadRequest)
	Stop()
}

// Config holds controller configuration.
type Config struct {
	SupervisionInterval time.Duration // Session clock check cadence
	EventBuffer         int           // Event channel size
}

// QueueInfo is a read-only view of the queue being driven.
type QueueInfo struct {
	Cursor    int
	Total     int
	Remaining int // Segments not yet finished, including the current one
	Segments  []playlist.Segment
}

// Controller plays a queue one segment at a time and stops it when the
// session clock runs out.
type Controller struct {
	mu sync.Mutex

	player     Player
	clock      clock.Reader
	config     Config
	onComplete func(CompletionReason)

	queueID  string
	segments []playlist.Segment
	cursor   int
	inFlight bool // A segment is loaded and its ended signal is pending
	state    State

	// Each Start gets a generation so stale supervision ticks are ignored.
	generation        uint64
	supervisionCancel func()

	eventCh chan Event
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewController creates a new playback controller.
// onComplete is called once per started queue, never with the controller lock held.
func NewController(p Player, c clock.Reader, config Config, onComplete func(CompletionReason)) *Controller {
	if config.SupervisionInterval <= 0 {
		config.SupervisionInterval = time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 32
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		player:     p,
		clock:      c,
		config:     config,
		onComplete: onComplete,
		state:      StateIdle,
		eventCh:    make(chan Event, config.EventBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Start resets the cursor and plays q from its first segment.
// Starting while another queue plays replaces it without completing it.
func (c *Controller) Start(q playlist.Queue) error {
	c.mu.Lock()

	if c.state == StateDestroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}

	c.stopSupervisionLocked()
	c.generation++
	c.queueID = q.ID
	c.segments = make([]playlist.Segment, len(q.Segments))
	copy(c.segments, q.Segments)
	c.cursor = 0
	c.inFlight = false
	c.state = StatePlaying

	zlog.Info().Msgf("playback: queue started: id=%s segments=%d total_sec=%d",
		q.ID, len(c.segments), q.TotalDuration())

	var done func()
	if c.loadLocked() {
		done = c.finishLocked(ReasonQueueExhausted)
	} else {
		c.startSupervisionLocked()
	}
	c.mu.Unlock()

	if done != nil {
		done()
	}
	return nil
}

// OnPlayerEnded advances past the segment in flight. It is a no-op when no
// segment is in flight, so repeated ended signals advance the cursor once.
func (c *Controller) OnPlayerEnded() {
	c.mu.Lock()
	if c.state != StatePlaying || !c.inFlight {
		c.mu.Unlock()
		zlog.Debug().Msg("playback: ended signal ignored")
		return
	}
	done := c.advanceLocked(EventSegmentEnded)
	c.mu.Unlock()

	if done != nil {
		done()
	}
}

// OnPlayerError handles an SDK error code. Unplayable tracks are skipped;
// other errors leave playback as it is.
func (c *Controller) OnPlayerError(code int) {
	if !player.Unplayable(code) {
		zlog.Warn().Msgf("playback: player error ignored: code=%d", code)
		return
	}

	c.mu.Lock()
	if c.state != StatePlaying || !c.inFlight {
		c.mu.Unlock()
		return
	}
	zlog.Warn().Msgf("playback: unplayable segment skipped: index=%d track=%s code=%d",
		c.cursor, c.segments[c.cursor].TrackID, code)
	done := c.advanceLocked(EventSegmentSkipped)
	c.mu.Unlock()

	if done != nil {
		done()
	}
}

// Skip ends the current segment early and loads the next one.
func (c *Controller) Skip() error {
	c.mu.Lock()
	switch c.state {
	case StateDestroyed:
		c.mu.Unlock()
		return ErrDestroyed
	case StatePlaying:
	default:
		c.mu.Unlock()
		return ErrNotPlaying
	}
	done := c.advanceLocked(EventSegmentSkipped)
	c.mu.Unlock()

	if done != nil {
		done()
	}
	return nil
}

// GetState returns the controller state.
func (c *Controller) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetCurrentTrack returns a copy of the segment at the cursor.
func (c *Controller) GetCurrentTrack() (*playlist.Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying || c.cursor >= len(c.segments) {
		return nil, false
	}
	seg := c.segments[c.cursor]
	return &seg, true
}

// GetQueueInfo returns a snapshot of the queue and cursor.
func (c *Controller) GetQueueInfo() QueueInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	segments := make([]playlist.Segment, len(c.segments))
	copy(segments, c.segments)
	return QueueInfo{
		Cursor:    c.cursor,
		Total:     len(c.segments),
		Remaining: len(c.segments) - c.cursor,
		Segments:  segments,
	}
}

// Destroy stops supervision and drops the queue. The completion callback is
// not called. Safe to call repeatedly.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDestroyed {
		return
	}
	c.stopSupervisionLocked()
	c.generation++
	c.segments = nil
	c.cursor = 0
	c.inFlight = false
	c.state = StateDestroyed

	c.closed = true
	c.cancel()
	close(c.eventCh)
	zlog.Debug().Msgf("playback: destroyed: queue=%s", c.queueID)
}

// advanceLocked moves past the segment at the cursor and loads the next one.
// Returns the completion to run after unlocking, or nil.
// Must be called with lock held.
func (c *Controller) advanceLocked(eventType EventType) func() {
	c.inFlight = false
	if c.cursor < len(c.segments) {
		c.sendSegmentEventLocked(eventType)
		c.cursor++
	}
	if c.loadLocked() {
		return c.finishLocked(ReasonQueueExhausted)
	}
	return nil
}

// loadLocked loads the segment at the cursor, skipping segments without a
// track id. Returns true when the cursor reached the end of the queue.
// Must be called with lock held.
func (c *Controller) loadLocked() bool {
	for c.cursor < len(c.segments) {
		seg := c.segments[c.cursor]
		if seg.TrackID == "" {
			zlog.Warn().Msgf("playback: segment without track id skipped: index=%d", c.cursor)
			c.sendSegmentEventLocked(EventSegmentSkipped)
			c.cursor++
			continue
		}

		if !c.player.IsReady() {
			zlog.Warn().Msgf("playback: player not ready, segment not loaded: index=%d track=%s",
				c.cursor, seg.TrackID)
			c.sendSegmentEventLocked(EventSegmentStalled)
			return false
		}

		req := player.LoadRequest{
			TrackID:      seg.TrackID,
			StartSeconds: float64(seg.StartOffsetSec),
		}
		if seg.Trimmed {
			req.EndSeconds = float64(seg.EndSec())
		}
		c.player.Load(req)
		c.inFlight = true

		zlog.Debug().Msgf("playback: segment loaded: index=%d/%d track=%s start=%d play_sec=%d trimmed=%t",
			c.cursor+1, len(c.segments), seg.TrackID, seg.StartOffsetSec, seg.PlayDurationSec, seg.Trimmed)
		c.sendSegmentEventLocked(EventSegmentStarted)
		return false
	}
	return true
}

// finishLocked ends the current queue with reason and returns the callback
// to run after unlocking.
// Must be called with lock held.
func (c *Controller) finishLocked(reason CompletionReason) func() {
	c.stopSupervisionLocked()
	c.inFlight = false
	if reason == ReasonSessionExpired {
		c.state = StateExpired
	} else {
		c.state = StateCompleted
	}

	zlog.Info().Msgf("playback: queue finished: id=%s reason=%s cursor=%d/%d",
		c.queueID, reason, c.cursor, len(c.segments))
	c.sendEventLocked(Event{Type: EventQueueCompleted, Index: c.cursor, Reason: reason})

	cb := c.onComplete
	return func() {
		if cb != nil {
			cb(reason)
		}
	}
}

func (c *Controller) startSupervisionLocked() {
	gen := c.generation
	ctx, cancel := context.WithCancel(c.ctx)
	c.supervisionCancel = cancel

	go func() {
		ticker := time.NewTicker(c.config.SupervisionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.supervise(gen) {
					return
				}
			}
		}
	}()
}

func (c *Controller) stopSupervisionLocked() {
	if c.supervisionCancel != nil {
		c.supervisionCancel()
		c.supervisionCancel = nil
	}
}

// supervise checks the session clock. Returns false when supervision should stop.
func (c *Controller) supervise(gen uint64) bool {
	c.mu.Lock()
	if gen != c.generation || c.state != StatePlaying {
		c.mu.Unlock()
		return false
	}
	if c.clock.Remaining() > 0 {
		c.mu.Unlock()
		return true
	}

	zlog.Info().Msgf("playback: session expired: index=%d", c.cursor)
	c.player.Stop()
	done := c.finishLocked(ReasonSessionExpired)
	c.mu.Unlock()

	done()
	return false
}

// Must be called with lock held.
func (c *Controller) sendSegmentEventLocked(eventType EventType) {
	seg := c.segments[c.cursor]
	c.sendEventLocked(Event{Type: eventType, Index: c.cursor, Segment: &seg})
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping %s", e.Type)
	}
}
