package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrDestroyed = errors.New("player adapter destroyed")
)

// MountState represents the adapter lifecycle.
type MountState int

const (
	MountUnmounted MountState = iota // No instance
	MountMounting                    // Runtime loading or instance not yet ready
	MountReady                       // Instance accepts commands
	MountDestroyed                   // Torn down, terminal
)

// String returns the string representation of the mount state.
func (m MountState) String() string {
	switch m {
	case MountUnmounted:
		return "unmounted"
	case MountMounting:
		return "mounting"
	case MountReady:
		return "ready"
	case MountDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Snapshot is a polled view of the player.
type Snapshot struct {
	CurrentTimeSec float64
	DurationSec    float64
	Playing        bool
}

// Config holds adapter configuration.
type Config struct {
	PollInterval     time.Duration // Snapshot polling cadence
	BootstrapTrackID string        // Silent track loaded when Mount gets no initial track
	EventBuffer      int           // SDK callback buffer size
}

const (
	minPollInterval = 250 * time.Millisecond
	maxPollInterval = 500 * time.Millisecond
)

type sdkEventKind int

const (
	sdkReady sdkEventKind = iota
	sdkStateChange
	sdkError
)

type sdkEvent struct {
	kind  sdkEventKind
	state State
	code  int
}

// Adapter wraps a single embedded player instance behind a synchronous command
// surface. Commands issued before the instance is ready are dropped.
//
// SDK callbacks and polling are serialised on one goroutine per mount, so the
// subscriber and the ended/error handlers are never called with the adapter
// lock held.
type Adapter struct {
	mu sync.Mutex

	runtime Runtime
	config  Config

	state    MountState
	instance Instance
	muted    bool

	// In-flight mount shared by concurrent Mount callers.
	mountDone chan struct{}
	mountErr  error

	// In-flight runtime load; the runtime is loaded at most once successfully.
	runtimeLoaded  bool
	runtimeLoading chan struct{}
	runtimeErr     error

	subscriber   func(Snapshot)
	endedHandler func()
	errorHandler func(code int)

	generation uint64
	loopCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an unmounted adapter.
func New(runtime Runtime, config Config) *Adapter {
	switch {
	case config.PollInterval <= 0:
		config.PollInterval = maxPollInterval
	case config.PollInterval < minPollInterval:
		config.PollInterval = minPollInterval
	case config.PollInterval > maxPollInterval:
		config.PollInterval = maxPollInterval
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		runtime: runtime,
		config:  config,
		state:   MountUnmounted,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Mount loads the runtime and constructs the player instance bound to hostID.
// It returns once the instance is ready. Calls made while a mount is in flight
// wait for that mount; calls on a ready adapter return immediately.
//
// ctx only bounds how long the caller waits: the mount itself keeps going
// and a later Mount or IsReady observes its outcome.
func (a *Adapter) Mount(ctx context.Context, hostID, initialTrackID string) error {
	a.mu.Lock()
	switch a.state {
	case MountDestroyed:
		a.mu.Unlock()
		return ErrDestroyed
	case MountReady:
		a.mu.Unlock()
		return nil
	case MountMounting:
		done := a.mountDone
		a.mu.Unlock()
		return a.waitMount(ctx, done)
	}

	a.state = MountMounting
	a.mountErr = nil
	done := make(chan struct{})
	a.mountDone = done
	a.mu.Unlock()

	zlog.Info().Msgf("player: mounting: host=%s initial_track=%q", hostID, initialTrackID)
	go a.mount(hostID, initialTrackID, done)

	return a.waitMount(ctx, done)
}

func (a *Adapter) waitMount(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.mountErr
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for player mount")
	}
}

func (a *Adapter) mount(hostID, initialTrackID string, done chan struct{}) {
	if err := a.ensureRuntime(); err != nil {
		a.failMount(done, errors.Wrap(err, "failed to load player runtime"))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Destroyed while the runtime was loading.
	if a.state != MountMounting || a.mountDone != done {
		return
	}

	a.generation++
	gen := a.generation
	loopCtx, loopCancel := context.WithCancel(a.ctx)
	events := make(chan sdkEvent, a.config.EventBuffer)
	post := func(e sdkEvent) {
		select {
		case events <- e:
		case <-loopCtx.Done():
		}
	}

	trackID := initialTrackID
	if trackID == "" {
		trackID = a.config.BootstrapTrackID
	}

	instance, err := a.runtime.NewInstance(hostID, InstanceOptions{TrackID: trackID}, Events{
		OnReady:       func() { post(sdkEvent{kind: sdkReady}) },
		OnStateChange: func(s State) { post(sdkEvent{kind: sdkStateChange, state: s}) },
		OnError:       func(code int) { post(sdkEvent{kind: sdkError, code: code}) },
	})
	if err != nil {
		loopCancel()
		a.state = MountUnmounted
		a.mountErr = errors.Wrap(err, "failed to create player instance")
		close(done)
		zlog.Error().Msgf("player: %v", a.mountErr)
		return
	}

	a.instance = instance
	a.loopCancel = loopCancel
	go a.run(loopCtx, gen, events, initialTrackID == "")
}

func (a *Adapter) failMount(done chan struct{}, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != MountMounting || a.mountDone != done {
		return
	}
	a.state = MountUnmounted
	a.mountErr = err
	close(done)
	zlog.Error().Msgf("player: %v", err)
}

// ensureRuntime loads the runtime once. Concurrent callers share the in-flight load;
// a failed load is retried by the next caller.
func (a *Adapter) ensureRuntime() error {
	a.mu.Lock()
	if a.runtimeLoaded {
		a.mu.Unlock()
		return nil
	}
	if loading := a.runtimeLoading; loading != nil {
		a.mu.Unlock()
		<-loading
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.runtimeErr
	}
	loading := make(chan struct{})
	a.runtimeLoading = loading
	a.mu.Unlock()

	err := a.runtime.Load(a.ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeLoaded = err == nil
	a.runtimeErr = err
	a.runtimeLoading = nil
	close(loading)
	return err
}

// run serialises SDK callbacks and polling for one mounted instance.
func (a *Adapter) run(ctx context.Context, gen uint64, events <-chan sdkEvent, muteOnReady bool) {
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		zlog.Debug().Msgf("player: event loop exited: generation=%d", gen)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			switch e.kind {
			case sdkReady:
				if ticker != nil {
					continue
				}
				if !a.onReady(gen, muteOnReady) {
					return
				}
				ticker = time.NewTicker(a.config.PollInterval)
				tick = ticker.C
				a.pushState(false)
			case sdkStateChange:
				a.pushState(false)
				if e.state != StateEnded {
					continue
				}
				if fn := a.endedFn(); fn != nil {
					fn()
				}
			case sdkError:
				zlog.Warn().Msgf("player: sdk error: code=%d unplayable=%t", e.code, Unplayable(e.code))
				if fn := a.errorFn(); fn != nil {
					fn(e.code)
				}
			}
		case <-tick:
			a.pushState(true)
		}
	}
}

func (a *Adapter) endedFn() func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.endedHandler
}

func (a *Adapter) errorFn() func(int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errorHandler
}

func (a *Adapter) onReady(gen uint64, mute bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation || a.state != MountMounting {
		return false
	}
	a.state = MountReady
	if mute {
		// The bootstrap track must never be audible.
		safe(a.instance.Mute)
		a.muted = true
	}
	close(a.mountDone)
	zlog.Info().Msgf("player: ready: muted=%t poll_interval=%v", a.muted, a.config.PollInterval)
	return true
}

// pushState sends a snapshot to the subscriber. Polled pushes are skipped
// until the instance knows the track duration.
func (a *Adapter) pushState(polled bool) {
	a.mu.Lock()
	if a.state != MountReady || a.instance == nil {
		a.mu.Unlock()
		return
	}
	snap := a.snapshotLocked()
	sub := a.subscriber
	a.mu.Unlock()

	if sub == nil || (polled && snap.DurationSec <= 0) {
		return
	}
	sub(snap)
}

func (a *Adapter) snapshotLocked() Snapshot {
	var snap Snapshot
	safe(func() { snap.CurrentTimeSec = a.instance.GetCurrentTime() })
	safe(func() { snap.DurationSec = a.instance.GetDuration() })
	safe(func() { snap.Playing = a.instance.GetPlayerState() == StatePlaying })
	return snap
}

// Snapshot returns the current player view, or a zero snapshot when not ready.
func (a *Adapter) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.readyLocked() {
		return Snapshot{}
	}
	return a.snapshotLocked()
}

// Subscribe replaces the snapshot subscriber. Passing nil clears it.
func (a *Adapter) Subscribe(fn func(Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscriber = fn
}

// OnEnded replaces the handler called when the staged track ends. Passing nil clears it.
func (a *Adapter) OnEnded(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.endedHandler = fn
}

// OnError replaces the handler called with SDK error codes. Passing nil clears it.
func (a *Adapter) OnError(fn func(code int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorHandler = fn
}

// IsReady returns true when the instance accepts commands.
func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readyLocked()
}

// State returns the mount state.
func (a *Adapter) State() MountState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) readyLocked() bool {
	return a.state == MountReady && a.instance != nil
}

// Cue stages a track without starting playback.
func (a *Adapter) Cue(req LoadRequest) {
	a.command("cue", func(i Instance) {
		a.unmuteLocked()
		i.CueVideoByID(req)
	})
}

// Load stages a track and starts playback.
func (a *Adapter) Load(req LoadRequest) {
	a.command("load", func(i Instance) {
		a.unmuteLocked()
		i.LoadVideoByID(req)
	})
}

// Play starts or resumes the staged track.
func (a *Adapter) Play() {
	a.command("play", Instance.PlayVideo)
}

// Pause pauses the staged track.
func (a *Adapter) Pause() {
	a.command("pause", Instance.PauseVideo)
}

// Stop stops the staged track.
func (a *Adapter) Stop() {
	a.command("stop", Instance.StopVideo)
}

// Seek moves the playhead. seconds is clamped into [0, duration]; when the
// duration is not known yet only the lower bound applies.
func (a *Adapter) Seek(seconds float64) {
	a.command("seek", func(i Instance) {
		target := max(0, seconds)
		if d := i.GetDuration(); d > 0 {
			target = min(target, d)
		}
		i.SeekTo(target)
	})
}

func (a *Adapter) command(name string, fn func(Instance)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.readyLocked() {
		zlog.Debug().Msgf("player: %s dropped: state=%s", name, a.state)
		return
	}
	fn(a.instance)
}

// unmuteLocked lifts the bootstrap mute before real playback.
// Must be called with lock held.
func (a *Adapter) unmuteLocked() {
	if !a.muted {
		return
	}
	safe(a.instance.UnMute)
	a.muted = false
}

// Destroy stops polling, releases the instance and clears all handlers.
// Waiting Mount callers are released with ErrDestroyed. Safe to call repeatedly.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == MountDestroyed {
		return
	}

	if a.loopCancel != nil {
		a.loopCancel()
		a.loopCancel = nil
	}
	if a.instance != nil {
		safe(a.instance.Destroy)
		a.instance = nil
	}
	if a.state == MountMounting && a.mountDone != nil {
		a.mountErr = ErrDestroyed
		close(a.mountDone)
	}

	a.state = MountDestroyed
	a.muted = false
	a.subscriber = nil
	a.endedHandler = nil
	a.errorHandler = nil
	a.cancel()
	zlog.Info().Msg("player: destroyed")
}

// safe runs an SDK call, absorbing panics from the instance.
func safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Warn().Msgf("player: sdk call panicked: %v", r)
		}
	}()
	fn()
}
