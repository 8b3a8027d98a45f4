// Package session provides the session manager.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/app/filter"
	"github.com/osa030/focusbox/internal/app/notification"
	"github.com/osa030/focusbox/internal/app/playback"
	"github.com/osa030/focusbox/internal/app/session/clock"
	"github.com/osa030/focusbox/internal/app/session/state"
	"github.com/osa030/focusbox/internal/app/session/timer"
	"github.com/osa030/focusbox/internal/app/source"
	"github.com/osa030/focusbox/internal/domain/playlist"
	"github.com/osa030/focusbox/internal/domain/track"
	"github.com/osa030/focusbox/internal/infra/config"
)

// Errors
var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrNoCandidates      = errors.New("no playable candidates")
	ErrPlayerNotReady    = errors.New("player is not ready")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrSessionNotPaused  = errors.New("session is not paused")
)

// ReasonStopped is reported for sessions ended by Stop.
const ReasonStopped = "stopped"

// Player is the player adapter surface the manager drives.
type Player interface {
	playback.Player
	Play()
	Pause()
	OnEnded(fn func())
	OnError(fn func(code int))
	Destroy()
}

// CandidateSource supplies candidate tracks for a query.
type CandidateSource interface {
	GetCandidates(ctx context.Context, query string, count int, excludeIDs map[string]bool) ([]source.CandidateWithSource, error)
}

// Status is a snapshot of the manager.
type Status struct {
	state.Info
	Timer     timer.Status
	TimerKind timer.Kind
	Remaining int // Session seconds left on the clock
	Playback  playback.State
	Current   *playlist.Segment
	Queue     playback.QueueInfo
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimerConfig overrides the countdown configuration derived from config.
func WithTimerConfig(tc timer.Config) Option {
	return func(m *Manager) { m.timerConfig = tc }
}

// WithTimerTick sets how much wall time one countdown second takes.
func WithTimerTick(d time.Duration) Option {
	return func(m *Manager) { m.timerConfig.Tick = d }
}

// run is one begun session.
type run struct {
	id         string
	queue      playlist.Queue
	controller *playback.Controller
	done       chan struct{}
}

// Manager ties candidate sourcing, playlist building and playback together
// for one focus session at a time.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config      *config.Config
	timerConfig timer.Config

	// Components
	sources      CandidateSource
	filterChain  *filter.Chain
	player       Player
	clock        *clock.Clock
	timer        *timer.Timer
	stateMgr     *state.Manager
	notification *notification.Manager

	current *run
	closed  bool
	relayWG sync.WaitGroup
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, sources CandidateSource, p Player, opts ...Option) (*Manager, error) {
	filterChain, err := filter.NewChainFromConfig(filterSettings(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter chain")
	}

	m := &Manager{
		config:       cfg,
		timerConfig:  timerConfig(cfg),
		sources:      sources,
		filterChain:  filterChain,
		player:       p,
		clock:        clock.New(),
		stateMgr:     state.New(),
		notification: notification.NewManager(0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.timer = timer.New(m.clock, m.timerConfig)

	m.relayWG.Add(1)
	go m.relayTimerEvents()

	names := lo.Map(filterChain.Filters(), func(f filter.Filter, _ int) string { return f.Name() })
	zlog.Info().Msgf("session: manager created: filters=%v", names)
	return m, nil
}

func filterSettings(cfg *config.Config) map[string]filter.Settings {
	return lo.MapValues(cfg.Filters, func(fc config.FilterConfig, _ string) filter.Settings {
		return filter.Settings{Enabled: fc.Enabled, Settings: fc.Settings}
	})
}

func timerConfig(cfg *config.Config) timer.Config {
	tc := timer.DefaultConfig()
	if m, ok := cfg.Mood(cfg.Session.DefaultMood); ok && !m.Break {
		tc.Durations[timer.KindPomodoro] = m.Duration()
	}
	tc.Durations[timer.KindShortBreak] = minutes(cfg.Session.Timer.ShortBreakMinutes)
	tc.Durations[timer.KindLongBreak] = minutes(cfg.Session.Timer.LongBreakMinutes)
	tc.LongBreakEvery = cfg.Session.Timer.LongBreakEvery
	return tc
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Begin builds a queue for mood and starts playing it. An empty mood selects
// the configured default. A session already running is stopped first.
func (m *Manager) Begin(ctx context.Context, moodName string) (*playlist.Queue, error) {
	mood, err := m.resolveMood(moodName)
	if err != nil {
		return nil, err
	}
	if !m.player.IsReady() {
		return nil, ErrPlayerNotReady
	}

	m.Stop()

	kind, seconds := m.interval(mood)
	m.stateMgr.Prepare(uuid.New().String(), mood.Name)
	zlog.Info().Msgf("session: preparing: mood=%s kind=%s seconds=%d", mood.Name, kind, seconds)

	q, err := m.prepareQueue(ctx, mood, seconds)
	if err != nil {
		m.stateMgr.Abort()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.stateMgr.Abort()
		return nil, errors.New("session manager closed")
	}

	// A concurrent Begin may have started a session since Stop above.
	if prev := m.current; prev != nil {
		m.teardownLocked(prev)
		close(prev.done)
	}

	m.notification.Broadcast(notification.NewPlaylistReady(q))

	if err := m.timer.Start(kind, seconds); err != nil {
		m.stateMgr.Abort()
		return nil, errors.Wrap(err, "failed to start timer")
	}

	r := &run{id: m.stateMgr.GetSessionID(), queue: q, done: make(chan struct{})}
	r.controller = playback.NewController(m.player, m.clock, playback.Config{
		SupervisionInterval: m.config.SupervisionInterval(),
	}, func(reason playback.CompletionReason) {
		go m.complete(r, reason)
	})
	m.player.OnEnded(r.controller.OnPlayerEnded)
	m.player.OnError(r.controller.OnPlayerError)
	m.current = r
	m.stateMgr.Activate(q.ID)

	go logSegmentEvents(r.id, r.controller.Events())

	if err := r.controller.Start(q); err != nil {
		m.teardownLocked(r)
		m.stateMgr.Finish(state.PhaseStopped, ReasonStopped, 0)
		close(r.done)
		return nil, errors.Wrap(err, "failed to start playback")
	}

	zlog.Info().Msgf("session: started: id=%s mood=%s queue=%s segments=%d achieved_sec=%d",
		r.id, mood.Name, q.ID, q.Len(), q.AchievedSec)
	return &q, nil
}

// Plan builds the queue Begin would play for mood without starting anything.
func (m *Manager) Plan(ctx context.Context, moodName string) (*playlist.Queue, error) {
	mood, err := m.resolveMood(moodName)
	if err != nil {
		return nil, err
	}
	_, seconds := m.interval(mood)
	q, err := m.prepareQueue(ctx, mood, seconds)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (m *Manager) resolveMood(name string) (config.MoodConfig, error) {
	if name == "" {
		name = m.config.Session.DefaultMood
	}
	mood, ok := m.config.Mood(name)
	if !ok {
		return config.MoodConfig{}, errors.Wrapf(ErrUnknownMood, "mood=%q", name)
	}
	return mood, nil
}

// interval picks the countdown kind and length for mood.
func (m *Manager) interval(mood config.MoodConfig) (timer.Kind, int) {
	seconds := int(mood.Duration().Seconds())
	if !mood.Break {
		return timer.KindPomodoro, seconds
	}
	kind := m.timer.NextKind()
	switch kind {
	case timer.KindLongBreak:
		return kind, int(m.timerConfig.Durations[timer.KindLongBreak].Seconds())
	case timer.KindPomodoro:
		kind = timer.KindShortBreak
	}
	return kind, seconds
}

// prepareQueue fetches, filters and arranges candidates to fill seconds.
func (m *Manager) prepareQueue(ctx context.Context, mood config.MoodConfig, seconds int) (playlist.Queue, error) {
	found, err := m.sources.GetCandidates(ctx, mood.SearchQuery(), m.config.Sources.CandidateCount, nil)
	if err != nil {
		return playlist.Queue{}, fmt.Errorf("%w: mood=%s: %w", ErrNoCandidates, mood.Name, err)
	}

	candidates := source.Candidates(found)
	outcome := m.filterChain.Apply(ctx, candidates)
	if len(outcome.Accepted) == 0 && outcome.RejectedCount() > 0 {
		zlog.Warn().Msgf("session: all candidates rejected, retrying with relaxed filters: rejected=%v",
			outcome.Rejected)
		outcome = m.filterChain.Relaxed().Apply(ctx, candidates)
	}
	if err := ctx.Err(); err != nil {
		return playlist.Queue{}, errors.Wrap(err, "preparing queue")
	}
	if len(outcome.Accepted) == 0 {
		return playlist.Queue{}, errors.Wrapf(ErrNoCandidates, "mood=%s rejected=%v", mood.Name, outcome.Rejected)
	}

	builder := playlist.Builder{MaxSegments: m.config.Playback.MaxSegments}
	res := builder.Build(outcome.Accepted, seconds)
	if len(res.Segments) == 0 {
		return playlist.Queue{}, errors.Wrapf(ErrNoCandidates, "mood=%s produced no segments", mood.Name)
	}
	if res.Capped {
		zlog.Warn().Msgf("session: queue capped: segments=%d achieved_sec=%d target_sec=%d",
			len(res.Segments), res.AchievedSec, seconds)
	}

	return playlist.NewQueue(sourceTypeOf(found, outcome.Accepted), mood.Name, res), nil
}

func sourceTypeOf(found []source.CandidateWithSource, accepted []track.Candidate) track.SourceType {
	ids := lo.SliceToMap(accepted, func(c track.Candidate) (string, bool) { return c.ID, true })
	kept := lo.Filter(found, func(c source.CandidateWithSource, _ int) bool { return ids[c.Candidate.ID] })
	return source.PrimarySourceType(kept)
}

// complete ends r after its controller finished on its own.
func (m *Manager) complete(r *run, reason playback.CompletionReason) {
	m.mu.Lock()
	if m.current != r {
		m.mu.Unlock()
		return
	}
	played := r.controller.GetQueueInfo().Cursor
	m.teardownLocked(r)
	m.stateMgr.Finish(state.PhaseCompleted, reason.String(), played)
	m.mu.Unlock()

	zlog.Info().Msgf("session: completed: id=%s queue=%s reason=%s played=%d/%d",
		r.id, r.queue.ID, reason, played, r.queue.Len())
	m.notification.Broadcast(notification.NewSessionCompleted(notification.SessionCompleted{
		QueueID:     r.queue.ID,
		Mood:        r.queue.Mood,
		Reason:      reason.String(),
		PlayedCount: played,
	}))
	close(r.done)
}

// teardownLocked releases the controller and countdown of r.
// Must be called with lock held.
func (m *Manager) teardownLocked(r *run) {
	m.current = nil
	m.player.OnEnded(nil)
	m.player.OnError(nil)
	r.controller.Destroy()
	m.timer.Stop()
}

// Stop ends the running session without a completion notification.
func (m *Manager) Stop() {
	m.mu.Lock()
	r := m.current
	if r == nil {
		m.mu.Unlock()
		return
	}
	played := r.controller.GetQueueInfo().Cursor
	m.teardownLocked(r)
	m.stateMgr.Finish(state.PhaseStopped, ReasonStopped, played)
	m.player.Stop()
	m.mu.Unlock()

	close(r.done)
	zlog.Info().Msgf("session: stopped: id=%s queue=%s played=%d/%d", r.id, r.queue.ID, played, r.queue.Len())
}

// Pause pauses the countdown and playback.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrSessionNotRunning
	}
	if err := m.timer.Pause(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionNotRunning, err)
	}
	m.stateMgr.SetPaused(true)
	m.player.Pause()
	return nil
}

// Resume resumes a paused session.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrSessionNotRunning
	}
	if err := m.timer.Resume(); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionNotPaused, err)
	}
	m.stateMgr.SetPaused(false)
	m.player.Play()
	return nil
}

// Skip abandons the current segment.
func (m *Manager) Skip() error {
	m.mu.Lock()
	r := m.current
	m.mu.Unlock()

	if r == nil {
		return ErrSessionNotRunning
	}
	return r.controller.Skip()
}

// Done returns a channel closed when the current session ends, by completion
// or by Stop. Without a session the channel is already closed.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return m.current.done
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	r := m.current
	m.mu.Unlock()

	s := Status{
		Info:      m.stateMgr.Info(),
		Timer:     m.timer.Status(),
		TimerKind: m.timer.Kind(),
		Remaining: m.clock.Remaining(),
		Playback:  playback.StateIdle,
	}
	if r != nil {
		s.Playback = r.controller.GetState()
		s.Queue = r.controller.GetQueueInfo()
		if seg, ok := r.controller.GetCurrentTrack(); ok {
			s.Current = seg
		}
	}
	return s
}

// Subscribe registers a notification subscriber.
func (m *Manager) Subscribe(buffer int) (string, <-chan notification.Notification) {
	return m.notification.Subscribe(buffer)
}

// Unsubscribe removes a notification subscriber.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
}

// Close stops the session, destroys the player and closes all subscriptions.
func (m *Manager) Close() {
	m.Stop()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.timer.Close()
	m.relayWG.Wait()
	m.player.Destroy()
	m.notification.Close()
	zlog.Info().Msg("session: manager closed")
}

// relayTimerEvents forwards countdown events to subscribers until the timer closes.
func (m *Manager) relayTimerEvents() {
	defer m.relayWG.Done()
	for e := range m.timer.Events() {
		zlog.Debug().Msgf("session: timer event: type=%s kind=%s remaining=%d", e.Type, e.Kind, e.Remaining)
		m.notification.Broadcast(notification.NewTimer(notification.TimerEvent{
			Event:     e.Type.String(),
			Kind:      string(e.Kind),
			Remaining: e.Remaining,
		}))
	}
}

func logSegmentEvents(sessionID string, events <-chan playback.Event) {
	for e := range events {
		if e.Segment == nil {
			continue
		}
		ev := zlog.Info()
		if e.Type == playback.EventSegmentStalled {
			ev = zlog.Warn()
		}
		ev.Msgf("session: %s: id=%s index=%d track=%s title=%q play_sec=%d",
			e.Type, sessionID, e.Index, e.Segment.TrackID, e.Segment.Title, e.Segment.PlayDurationSec)
	}
}
