package timer

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrAlreadyRunning = errors.New("timer already running")
	ErrNotRunning     = errors.New("timer not running")
	ErrNotPaused      = errors.New("timer not paused")
	ErrInvalidLength  = errors.New("timer length must be positive")
)

// ClockWriter is the write side of the session clock.
type ClockWriter interface {
	Arm(seconds int)
	SetRemaining(seconds int)
	Reset()
}

// Config holds timer configuration.
type Config struct {
	Tick           time.Duration          // Countdown step; one second of session time per tick
	Durations      map[Kind]time.Duration // Default length per kind
	LongBreakEvery int                    // Every Nth completed pomodoro is followed by a long break
}

// DefaultConfig returns the classic 25/5/15 pomodoro setup.
func DefaultConfig() Config {
	return Config{
		Tick: time.Second,
		Durations: map[Kind]time.Duration{
			KindPomodoro:   25 * time.Minute,
			KindShortBreak: 5 * time.Minute,
			KindLongBreak:  15 * time.Minute,
		},
		LongBreakEvery: 4,
	}
}

// Timer counts a session down and is the only writer of the session clock.
type Timer struct {
	mu sync.Mutex

	clock  ClockWriter
	config Config

	kind      Kind
	status    Status
	remaining int
	total     int
	completed int // Completed pomodoros

	// Each running countdown gets a generation so stale ticks are ignored.
	generation uint64
	tickCancel func()

	eventCh chan Event
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new timer writing to clock.
func New(clock ClockWriter, config Config) *Timer {
	if config.Tick <= 0 {
		config.Tick = time.Second
	}
	if config.LongBreakEvery <= 0 {
		config.LongBreakEvery = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Timer{
		clock:   clock,
		config:  config,
		kind:    KindPomodoro,
		status:  StatusIdle,
		eventCh: make(chan Event, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Events returns the event channel.
func (t *Timer) Events() <-chan Event {
	return t.eventCh
}

// Start arms the clock with seconds and starts counting down.
// If seconds is 0 the configured length for kind is used.
func (t *Timer) Start(kind Kind, seconds int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusRunning || t.status == StatusPaused {
		return ErrAlreadyRunning
	}

	if seconds == 0 {
		seconds = int(t.config.Durations[kind].Seconds())
	}
	if seconds <= 0 {
		return errors.Wrapf(ErrInvalidLength, "kind=%s seconds=%d", kind, seconds)
	}

	t.kind = kind
	t.total = seconds
	t.remaining = seconds
	t.status = StatusRunning
	t.clock.Arm(seconds)

	zlog.Info().Msgf("timer: started: kind=%s seconds=%d", kind, seconds)
	t.sendEventLocked(EventStart)
	t.startTickerLocked()
	return nil
}

// Pause pauses the countdown. The clock keeps its remaining value.
func (t *Timer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return ErrNotRunning
	}
	t.stopTickerLocked()
	t.status = StatusPaused
	t.sendEventLocked(EventPause)
	return nil
}

// Resume resumes a paused countdown.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPaused {
		return ErrNotPaused
	}
	t.status = StatusRunning
	t.sendEventLocked(EventResume)
	t.startTickerLocked()
	return nil
}

// Stop ends the countdown early and resets the clock.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasActive := t.status == StatusRunning || t.status == StatusPaused
	t.stopTickerLocked()
	t.status = StatusIdle
	t.remaining = 0
	t.clock.Reset()

	if wasActive {
		zlog.Info().Msgf("timer: stopped: kind=%s", t.kind)
		t.sendEventLocked(EventStop)
	}
}

// Status returns the current status.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Kind returns the kind of the current or last interval.
func (t *Timer) Kind() Kind {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kind
}

// Remaining returns the remaining seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// CompletedPomodoros returns how many pomodoros ran to zero.
func (t *Timer) CompletedPomodoros() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// NextKind returns the kind that should follow the last interval:
// after a pomodoro a short break (long break every LongBreakEvery), after a break a pomodoro.
func (t *Timer) NextKind() Kind {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.kind != KindPomodoro {
		return KindPomodoro
	}
	if t.completed > 0 && t.completed%t.config.LongBreakEvery == 0 {
		return KindLongBreak
	}
	return KindShortBreak
}

// Close stops the countdown and closes the event channel.
func (t *Timer) Close() {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.cancel()
	close(t.eventCh)
}

func (t *Timer) startTickerLocked() {
	t.stopTickerLocked()
	t.generation++
	gen := t.generation

	ctx, cancel := context.WithCancel(t.ctx)
	t.tickCancel = cancel

	go func() {
		ticker := time.NewTicker(t.config.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !t.tick(gen) {
					return
				}
			}
		}
	}()
}

func (t *Timer) stopTickerLocked() {
	if t.tickCancel != nil {
		t.tickCancel()
		t.tickCancel = nil
	}
}

// tick decrements the countdown. Returns false when the ticker should exit.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation || t.status != StatusRunning {
		return false
	}

	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.status = StatusDone
		t.stopTickerLocked()
		if t.kind == KindPomodoro {
			t.completed++
		}
		t.clock.Reset()
		zlog.Info().Msgf("timer: ended: kind=%s completed_pomodoros=%d", t.kind, t.completed)
		t.sendEventLocked(EventEnd)
		return false
	}

	t.clock.SetRemaining(t.remaining)
	if t.remaining == t.total/2 {
		t.sendEventLocked(EventMidpoint)
	}
	return true
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (t *Timer) sendEventLocked(eventType EventType) {
	if t.closed {
		return
	}
	e := Event{Type: eventType, Kind: t.kind, Remaining: t.remaining}
	select {
	case t.eventCh <- e:
	case <-t.ctx.Done():
	default:
		zlog.Debug().Msgf("timer: event channel full, dropping %s", eventType)
	}
}
