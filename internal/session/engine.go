// Package session owns the lifecycle of one tracked exercise session and
// routes sensor samples through filtering, smoothing, distance
// accumulation and repetition detection.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"hakbang/internal/activity"
	"hakbang/internal/clock"
	"hakbang/internal/distance"
	"hakbang/internal/filter"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
	"hakbang/internal/smooth"
)

// Config tunes the engine
type Config struct {
	TickInterval time.Duration // 0 disables the background ticker
	GapAfter     time.Duration // silence before a sensor gap is reported
	MaxAccuracy  float64       // meters
	WeightKg     float64       // for calorie estimates
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second,
		GapAfter:     10 * time.Second,
		MaxAccuracy:  activity.MaxAccuracyMeters,
		WeightKg:     70,
	}
}

// Deps are the collaborators the engine talks to
type Deps struct {
	Sources     sensor.Sources
	Permissions sensor.PermissionChecker
	Persister   Persister
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Engine is the session state machine. All mutation happens under mu, so
// each sample is fully applied before the next one is looked at.
type Engine struct {
	mu     sync.Mutex
	deps   Deps
	cfg    Config
	logger *slog.Logger

	state State
	sess  *Session
	goal  *goal.Goal

	filter   *filter.Filter
	smoother *smooth.Location
	acc      *distance.Accumulator
	pace     *smooth.Pace
	strategy reps.Strategy
	repBase  int // reps carried over a calibration reset

	subs      []sensor.Subscription
	tickStop  chan struct{}
	tickGen   int
	startRef  time.Time // start instant, shifted forward by paused time
	pausedAt  time.Time
	lastInput time.Time
	gap       bool
	accepted  int
	rejected  int

	snap atomic.Pointer[Snapshot]
}

// NewEngine creates an idle engine.
func NewEngine(deps Deps, cfg Config) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Permissions == nil {
		deps.Permissions = sensor.AllowAll{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.GapAfter <= 0 {
		cfg.GapAfter = DefaultConfig().GapAfter
	}

	e := &Engine{deps: deps, cfg: cfg, logger: logger}
	e.publish()
	return e
}

// Start creates a session of kind k and subscribes to its sensors. g may be nil.
func (e *Engine) Start(ctx context.Context, k activity.Kind, g *goal.Goal) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Active() {
		return Handle{}, ErrSessionUnresolved
	}
	if !k.Valid() {
		return Handle{}, fmt.Errorf("unknown activity kind %q", k)
	}
	if g != nil {
		if err := g.Validate(); err != nil {
			return Handle{}, fmt.Errorf("binding goal: %w", err)
		}
	}

	for _, f := range families(k) {
		if err := e.deps.Permissions.CheckPermission(ctx, f); err != nil {
			e.logger.Warn("sensor permission denied", "family", f, "error", err)
			return Handle{}, &PermissionError{Family: f, Err: err}
		}
		if e.deps.Sources.Stream(f) == nil {
			return Handle{}, fmt.Errorf("%s: %w", f, ErrNoStream)
		}
	}

	now := e.deps.Clock.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Kind:      k,
		StartedAt: now,
	}
	if g != nil {
		gc := *g
		e.goal = &gc
		sess.GoalID = g.ID
	} else {
		e.goal = nil
	}

	e.sess = sess
	e.filter = filter.New(e.cfg.MaxAccuracy)
	e.smoother = smooth.NewLocation()
	e.acc = distance.NewAccumulator(k)
	e.pace = smooth.NewPace(k)
	e.strategy = nil
	e.repBase = 0
	if k.RepetitionBased() {
		strategy, err := reps.New(k)
		if err != nil {
			e.clear()
			return Handle{}, err
		}
		e.strategy = strategy
	}
	e.startRef = now
	e.lastInput = now
	e.gap = false
	e.accepted, e.rejected = 0, 0

	if err := e.subscribe(); err != nil {
		e.clear()
		return Handle{}, fmt.Errorf("subscribing to sensors: %w", err)
	}

	e.state = StateTracking
	e.startTicker()
	e.publish()

	e.logger.Info("session started", "session", sess.ID, "kind", k.String())
	return Handle{ID: sess.ID, Kind: k, StartedAt: now}, nil
}

// Pause stops sensor delivery and freezes the metrics.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateTracking {
		return invalidTransition("pause", e.state)
	}
	now := e.deps.Clock.Now()
	e.unsubscribe()
	e.stopTicker()
	e.recompute(now)
	e.pausedAt = now
	e.state = StatePaused
	e.publish()

	e.logger.Info("session paused", "session", e.sess.ID, "duration_s", e.sess.Metrics.DurationSeconds)
	return nil
}

// Resume re-subscribes and continues the duration from where it was frozen.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePaused {
		return invalidTransition("resume", e.state)
	}
	if err := e.subscribe(); err != nil {
		return fmt.Errorf("resubscribing to sensors: %w", err)
	}

	now := e.deps.Clock.Now()
	paused := now.Sub(e.pausedAt)
	e.sess.PausedTotal += paused
	e.startRef = e.startRef.Add(paused)
	e.lastInput = now
	e.gap = false
	e.rebase()
	e.state = StateTracking
	e.startTicker()
	e.publish()

	e.logger.Info("session resumed", "session", e.sess.ID, "paused", paused)
	return nil
}

// rebase drops every pre-pause location reference, so ground covered
// while paused is not credited.
func (e *Engine) rebase() {
	if e.filter != nil {
		e.filter.Rebase()
	}
	if e.smoother != nil {
		e.smoother.Reset()
	}
	if e.acc != nil {
		e.acc.Rebase()
	}
}

// Stop ends tracking. The session then waits for Save or Discard.
// Stopping a paused session is allowed and keeps its frozen duration.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.deps.Clock.Now()
	switch e.state {
	case StateTracking:
		e.recompute(now)
	case StatePaused:
		e.sess.PausedTotal += now.Sub(e.pausedAt)
	default:
		return invalidTransition("stop", e.state)
	}
	e.unsubscribe()
	e.stopTicker()
	e.sess.EndedAt = now
	e.state = StateEnded
	e.publish()

	m := e.sess.Metrics
	e.logger.Info("session ended",
		"session", e.sess.ID,
		"distance_m", m.DistanceMeters,
		"duration_s", m.DurationSeconds,
		"reps", m.RepCount,
	)
	return nil
}

// Save validates the ended session and hands it to the persister. On any
// failure the session stays ended so the caller can retry or discard.
func (e *Engine) Save(ctx context.Context) (FinalizedSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEnded {
		return FinalizedSession{}, invalidTransition("save", e.state)
	}
	if err := validateMinimums(e.sess.Kind, e.sess.Metrics); err != nil {
		e.logger.Info("save rejected", "session", e.sess.ID, "reason", err)
		return FinalizedSession{}, err
	}
	if e.deps.Persister == nil {
		return FinalizedSession{}, ErrNoPersister
	}

	fs := e.finalize()
	if err := e.deps.Persister.SaveSession(ctx, fs); err != nil {
		return FinalizedSession{}, fmt.Errorf("persisting session %s: %w", fs.ID, err)
	}

	e.state = StateSaved
	e.unbindSensors()
	e.publish()

	e.logger.Info("session saved", "session", fs.ID)
	return fs, nil
}

// Discard drops the current session and all its data. It applies to
// tracking, paused and ended sessions and is a no-op otherwise.
func (e *Engine) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Active() {
		return
	}
	id := e.sess.ID
	e.unsubscribe()
	e.stopTicker()
	e.clear()
	e.state = StateDiscarded
	e.publish()

	e.logger.Info("session discarded", "session", id)
}

// ResetCalibration restarts the proximity calibration countdown. Reps
// already counted stay on the session.
func (e *Engine) ResetCalibration() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateTracking {
		return invalidTransition("reset calibration", e.state)
	}
	p, ok := e.strategy.(*reps.Proximity)
	if !ok {
		return ErrNotRepetition
	}
	e.repBase = e.sess.Metrics.RepCount
	p.Reset()
	e.publish()

	e.logger.Info("calibration reset", "session", e.sess.ID)
	return nil
}

// Background records that the host app went to the background. Tracking
// continues on a best-effort basis; the state does not change.
func (e *Engine) Background() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		e.logger.Debug("app backgrounded", "session", e.sess.ID, "state", e.state.String())
	}
}

// Foreground re-establishes sensor subscriptions after the app returns to
// the foreground, in case the platform dropped them.
func (e *Engine) Foreground() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateTracking {
		return nil
	}
	e.unsubscribe()
	if err := e.subscribe(); err != nil {
		e.logger.Warn("resubscribe after foreground failed", "session", e.sess.ID, "error", err)
		return fmt.Errorf("resubscribing to sensors: %w", err)
	}
	e.logger.Debug("app foregrounded", "session", e.sess.ID)
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.snap.Load().State
}

// CurrentMetrics returns the latest published snapshot.
func (e *Engine) CurrentMetrics() Snapshot {
	return *e.snap.Load()
}

// CurrentProgress projects the latest metrics onto the bound goal, or 0
// if no goal is bound.
func (e *Engine) CurrentProgress() float64 {
	s := e.snap.Load()
	if s.Goal == nil {
		return 0
	}
	return goal.Progress(s.Metrics, *s.Goal)
}

// families lists the sensor streams a kind needs
func families(k activity.Kind) []sensor.Family {
	if k.DistanceBased() {
		return []sensor.Family{sensor.FamilyLocation}
	}
	if k.Strategy == activity.StrategyProximity {
		return []sensor.Family{sensor.FamilyFace, sensor.FamilyOrientation}
	}
	return []sensor.Family{sensor.FamilyMotion}
}

func (e *Engine) subscribe() error {
	for _, f := range families(e.sess.Kind) {
		sub, err := e.deps.Sources.Stream(f).Subscribe(e.handle)
		if err != nil {
			e.unsubscribe()
			return fmt.Errorf("%s: %w", f, err)
		}
		e.subs = append(e.subs, sub)
	}
	return nil
}

func (e *Engine) unsubscribe() {
	for _, s := range e.subs {
		s.Stop()
	}
	e.subs = nil
}

// finalize copies the session into the value handed to the persister
func (e *Engine) finalize() FinalizedSession {
	trail := make([]sensor.Location, len(e.sess.Trail))
	copy(trail, e.sess.Trail)

	fs := FinalizedSession{
		ID:            e.sess.ID,
		Kind:          e.sess.Kind,
		StartedAt:     e.sess.StartedAt,
		EndedAt:       e.sess.EndedAt,
		PausedTotal:   e.sess.PausedTotal,
		Metrics:       e.sess.Metrics,
		Trail:         trail,
		GoalID:        e.sess.GoalID,
		AcceptedFixes: e.accepted,
		RejectedFixes: e.rejected,
	}
	if e.goal != nil {
		g := *e.goal
		fs.Goal = &g
		fs.GoalProgress = goal.Progress(fs.Metrics, g)
	}
	if p, ok := e.strategy.(*reps.Proximity); ok {
		fs.Calibration = p.Profile()
	}
	return fs
}

// unbindSensors drops the per-session processing state once the session
// is resolved. The session record stays for the last snapshot.
func (e *Engine) unbindSensors() {
	e.filter = nil
	e.smoother = nil
	e.acc = nil
	e.pace = nil
	e.strategy = nil
}

// clear wipes every session field
func (e *Engine) clear() {
	e.sess = nil
	e.goal = nil
	e.unbindSensors()
	e.repBase = 0
	e.gap = false
	e.accepted, e.rejected = 0, 0
	e.startRef, e.pausedAt, e.lastInput = time.Time{}, time.Time{}, time.Time{}
}

// publish builds a fresh snapshot from the current state
func (e *Engine) publish() {
	s := &Snapshot{
		State:     e.state,
		UpdatedAt: e.deps.Clock.Now(),
	}
	if e.sess != nil {
		s.SessionID = e.sess.ID
		s.Kind = e.sess.Kind
		s.Metrics = e.sess.Metrics
		s.TrailLen = len(e.sess.Trail)
		s.SensorGap = e.gap
	}
	if e.goal != nil {
		g := *e.goal
		s.Goal = &g
	}
	if e.filter != nil {
		s.Quality = e.filter.Quality()
	}
	if p, ok := e.strategy.(*reps.Proximity); ok {
		st := p.Calibration()
		s.Calibration = &st
	}
	e.snap.Store(s)
}
