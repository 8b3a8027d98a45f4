// Package simplayer provides an in-process player runtime that plays tracks
// against the wall clock. It implements the player SDK interfaces so the
// adapter can be driven without an embedded browser player.
package simplayer

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/player"
)

// Config holds simulator configuration.
type Config struct {
	Speed          float64       // Playback speed multiplier
	BootstrapDelay time.Duration // Runtime load time and instance ready delay
	Tick           time.Duration // Playhead resolution
}

// DurationLookup resolves a track id to its duration in seconds.
type DurationLookup func(trackID string) (int, bool)

// Runtime is a simulated player runtime.
type Runtime struct {
	config Config
	lookup DurationLookup

	mu        sync.Mutex
	loads     int
	instances int
}

// NewRuntime creates a simulated runtime resolving tracks through lookup.
func NewRuntime(lookup DurationLookup, config Config) *Runtime {
	if config.Speed <= 0 {
		config.Speed = 1
	}
	if config.Tick <= 0 {
		config.Tick = 50 * time.Millisecond
	}
	return &Runtime{config: config, lookup: lookup}
}

// Load simulates fetching the player library.
func (r *Runtime) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loads++
	r.mu.Unlock()

	timer := time.NewTimer(r.config.BootstrapDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		zlog.Debug().Msgf("simplayer: runtime loaded: delay=%v", r.config.BootstrapDelay)
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "runtime load aborted")
	}
}

// NewInstance creates a simulated player. OnReady fires after the bootstrap delay.
func (r *Runtime) NewInstance(hostID string, opts player.InstanceOptions, events player.Events) (player.Instance, error) {
	if hostID == "" {
		return nil, errors.New("host id is required")
	}

	r.mu.Lock()
	r.instances++
	r.mu.Unlock()

	inst := &Instance{
		config: r.config,
		lookup: r.lookup,
		events: events,
		state:  player.StateUnstarted,
		notify: make(chan func(), 64),
		done:   make(chan struct{}),
	}
	if opts.TrackID != "" {
		if d, ok := r.lookup(opts.TrackID); ok {
			inst.stageLocked(player.LoadRequest{TrackID: opts.TrackID}, d)
			inst.state = player.StateCued
		}
	}
	go inst.run()

	zlog.Debug().Msgf("simplayer: instance created: host=%s track=%q", hostID, opts.TrackID)
	return inst, nil
}

// Stats returns how many times the runtime was loaded and instances were created.
func (r *Runtime) Stats() (loads, instances int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads, r.instances
}

// Instance is a simulated player instance.
type Instance struct {
	config Config
	lookup DurationLookup
	events player.Events

	mu       sync.Mutex
	trackID  string
	duration float64
	start    float64
	end      float64
	position float64
	lastTick time.Time
	state    player.State
	muted    bool

	notify    chan func()
	done      chan struct{}
	destroyed bool
}

func (i *Instance) run() {
	ticker := time.NewTicker(i.config.Tick)
	defer ticker.Stop()
	ready := time.After(i.config.BootstrapDelay)

	for {
		select {
		case <-i.done:
			return
		case <-ready:
			ready = nil
			if i.events.OnReady != nil {
				i.events.OnReady()
			}
		case fn := <-i.notify:
			fn()
		case now := <-ticker.C:
			if i.advance(now) && i.events.OnStateChange != nil {
				i.events.OnStateChange(player.StateEnded)
			}
		}
	}
}

// advance moves the playhead. Returns true when the staged track just ended.
func (i *Instance) advance(now time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != player.StatePlaying {
		return false
	}
	i.position += now.Sub(i.lastTick).Seconds() * i.config.Speed
	i.lastTick = now
	if i.position < i.end {
		return false
	}
	i.position = i.end
	i.state = player.StateEnded
	return true
}

// Must be called with lock held.
func (i *Instance) stageLocked(req player.LoadRequest, durationSec int) {
	i.trackID = req.TrackID
	i.duration = float64(durationSec)
	i.start = min(max(req.StartSeconds, 0), i.duration)
	i.end = i.duration
	if req.EndSeconds > 0 && req.EndSeconds < i.duration {
		i.end = max(req.EndSeconds, i.start)
	}
	i.position = i.start
}

// Must be called with lock held.
func (i *Instance) emitLocked(fn func()) {
	if i.destroyed || fn == nil {
		return
	}
	select {
	case i.notify <- fn:
	default:
		zlog.Warn().Msg("simplayer: callback queue full, dropping")
	}
}

// Must be called with lock held.
func (i *Instance) setStateLocked(s player.State) {
	if i.state == s {
		return
	}
	i.state = s
	if cb := i.events.OnStateChange; cb != nil {
		i.emitLocked(func() { cb(s) })
	}
}

func (i *Instance) stage(req player.LoadRequest, play bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	d, ok := i.lookup(req.TrackID)
	if !ok || d <= 0 {
		zlog.Warn().Msgf("simplayer: unknown track: id=%s", req.TrackID)
		if cb := i.events.OnError; cb != nil {
			i.emitLocked(func() { cb(player.ErrorNotFound) })
		}
		return
	}
	i.stageLocked(req, d)
	if play {
		i.lastTick = time.Now()
		// Force a transition even when replacing a playing track.
		i.state = player.StateBuffering
		i.setStateLocked(player.StatePlaying)
		return
	}
	i.setStateLocked(player.StateCued)
}

func (i *Instance) CueVideoByID(req player.LoadRequest) { i.stage(req, false) }

func (i *Instance) LoadVideoByID(req player.LoadRequest) { i.stage(req, true) }

func (i *Instance) PlayVideo() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.trackID == "" || i.state == player.StatePlaying {
		return
	}
	if i.state == player.StateEnded {
		i.position = i.start
	}
	i.lastTick = time.Now()
	i.setStateLocked(player.StatePlaying)
}

func (i *Instance) PauseVideo() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == player.StatePlaying {
		i.setStateLocked(player.StatePaused)
	}
}

func (i *Instance) StopVideo() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.trackID == "" {
		return
	}
	i.position = i.start
	i.setStateLocked(player.StateUnstarted)
}

func (i *Instance) SeekTo(seconds float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.position = min(max(seconds, 0), i.duration)
}

func (i *Instance) Mute() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.muted = true
}

func (i *Instance) UnMute() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.muted = false
}

// IsMuted reports whether the instance is muted.
func (i *Instance) IsMuted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.muted
}

// TrackID returns the staged track id.
func (i *Instance) TrackID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.trackID
}

func (i *Instance) GetCurrentTime() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.position
}

func (i *Instance) GetDuration() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.duration
}

func (i *Instance) GetPlayerState() player.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.state = player.StateUnstarted
	close(i.done)
}
