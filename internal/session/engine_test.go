package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakbang/internal/activity"
	"hakbang/internal/clock"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
)

var (
	walk     = activity.Distance(activity.Walk)
	pushups  = activity.Repetition(activity.Pushup, activity.StrategyAccelerometer)
	proxSits = activity.Repetition(activity.Situp, activity.StrategyProximity)
)

type memPersister struct {
	saved []FinalizedSession
	err   error
}

func (p *memPersister) SaveSession(_ context.Context, s FinalizedSession) error {
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, s)
	return nil
}

// denyFamily refuses a single sensor family
type denyFamily sensor.Family

func (d denyFamily) CheckPermission(_ context.Context, f sensor.Family) error {
	if f == sensor.Family(d) {
		return sensor.ErrDenied
	}
	return nil
}

type harness struct {
	engine *Engine
	clock  *clock.Manual
	store  *memPersister

	location    *sensor.Feed
	motion      *sensor.Feed
	face        *sensor.Feed
	orientation *sensor.Feed
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		clock:       clock.NewManual(time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)),
		store:       &memPersister{},
		location:    sensor.NewFeed(),
		motion:      sensor.NewFeed(),
		face:        sensor.NewFeed(),
		orientation: sensor.NewFeed(),
	}
	h.engine = NewEngine(Deps{
		Sources: sensor.Sources{
			Location:    h.location,
			Motion:      h.motion,
			Face:        h.face,
			Orientation: h.orientation,
		},
		Persister: h.store,
		Clock:     h.clock,
	}, cfg)
	return h
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TickInterval = 0
	return cfg
}

// walkTo advances the clock and pushes a fix meters north of the origin
func (h *harness) walkTo(meters float64, after time.Duration) {
	h.clock.Advance(after)
	h.location.Push(sensor.Location{Lat: meters / 111194.93, Accuracy: 5, Time: h.clock.Now()})
}

func (h *harness) rep() {
	h.clock.Advance(500 * time.Millisecond)
	h.motion.Push(sensor.Motion{Z: 1.8, Time: h.clock.Now()})
	h.clock.Advance(500 * time.Millisecond)
	h.motion.Push(sensor.Motion{Z: 0.5, Time: h.clock.Now()})
}

func (h *harness) showFace(side, eyes float64, after time.Duration) {
	h.clock.Advance(after)
	h.face.Push(sensor.Face{
		Box:          sensor.Box{Width: side, Height: side},
		LeftEyeOpen:  eyes,
		RightEyeOpen: eyes,
		Time:         h.clock.Now(),
	})
}

func (h *harness) calibrate() {
	h.orientation.Push(sensor.Orientation{Z: 1, Time: h.clock.Now()})
	for i := 0; i <= 10; i++ {
		eyes := 0.9
		if i == 4 {
			eyes = 0.1
		}
		h.showFace(10, eyes, 300*time.Millisecond)
	}
}

// proximityRep lowers and raises the face, one second per frame
func (h *harness) proximityRep() {
	for i := 0; i < 3; i++ {
		h.showFace(15, 0.9, time.Second)
	}
	for i := 0; i < 3; i++ {
		h.showFace(10, 0.9, time.Second)
	}
}

func (h *harness) tick() {
	h.engine.tick(h.engine.tickGen)
}

func TestStartPublishesTracking(t *testing.T) {
	h := newHarness(t, testConfig())
	assert.Equal(t, StateIdle, h.engine.State())

	handle, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, handle.ID)
	assert.Equal(t, walk, handle.Kind)
	assert.True(t, handle.StartedAt.Equal(h.clock.Now()))

	snap := h.engine.CurrentMetrics()
	assert.Equal(t, StateTracking, snap.State)
	assert.Equal(t, handle.ID, snap.SessionID)
	assert.Equal(t, 1, h.location.Subscribers())
	assert.Zero(t, h.motion.Subscribers())
}

func TestStartSubscribesPerStrategy(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), proxSits, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, h.face.Subscribers())
	assert.Equal(t, 1, h.orientation.Subscribers())
	assert.Zero(t, h.location.Subscribers())
	assert.Zero(t, h.motion.Subscribers())

	snap := h.engine.CurrentMetrics()
	require.NotNil(t, snap.Calibration)
	assert.Equal(t, reps.PhaseCalibrating, snap.Calibration.Phase)
}

func TestStartPermissionDenied(t *testing.T) {
	tests := []struct {
		name   string
		kind   activity.Kind
		checks sensor.PermissionChecker
		family sensor.Family
	}{
		{"location", walk, sensor.DenyAll{}, sensor.FamilyLocation},
		{"motion", pushups, sensor.DenyAll{}, sensor.FamilyMotion},
		{"orientation only", proxSits, denyFamily(sensor.FamilyOrientation), sensor.FamilyOrientation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			h.engine.deps.Permissions = tt.checks

			_, err := h.engine.Start(context.Background(), tt.kind, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPermissionDenied)
			assert.ErrorIs(t, err, sensor.ErrDenied)

			var perr *PermissionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.family, perr.Family)

			assert.Equal(t, StateIdle, h.engine.State())
			assert.Zero(t, h.face.Subscribers()+h.orientation.Subscribers()+h.location.Subscribers()+h.motion.Subscribers())
		})
	}
}

func TestStartRejects(t *testing.T) {
	h := newHarness(t, testConfig())

	_, err := h.engine.Start(context.Background(), activity.Kind{Name: "swim"}, nil)
	assert.Error(t, err)

	_, err = h.engine.Start(context.Background(), walk, &goal.Goal{Unit: goal.UnitDistanceKm})
	assert.Error(t, err)

	h.engine.deps.Sources.Location = nil
	_, err = h.engine.Start(context.Background(), walk, nil)
	assert.ErrorIs(t, err, ErrNoStream)

	assert.Equal(t, StateIdle, h.engine.State())
}

func TestStartWhileUnresolved(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	first, err := h.engine.Start(ctx, walk, nil)
	require.NoError(t, err)

	_, err = h.engine.Start(ctx, pushups, nil)
	assert.ErrorIs(t, err, ErrSessionUnresolved)

	require.NoError(t, h.engine.Pause())
	_, err = h.engine.Start(ctx, pushups, nil)
	assert.ErrorIs(t, err, ErrSessionUnresolved)

	require.NoError(t, h.engine.Stop())
	_, err = h.engine.Start(ctx, pushups, nil)
	assert.ErrorIs(t, err, ErrSessionUnresolved)
	assert.Equal(t, first.ID, h.engine.CurrentMetrics().SessionID)

	h.engine.Discard()
	second, err := h.engine.Start(ctx, pushups, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestInvalidTransitions(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.ErrorIs(t, h.engine.Pause(), ErrInvalidTransition)
	assert.ErrorIs(t, h.engine.Resume(), ErrInvalidTransition)
	assert.ErrorIs(t, h.engine.Stop(), ErrInvalidTransition)
	_, err := h.engine.Save(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, h.engine.Resume(), ErrInvalidTransition)
	_, err = h.engine.Save(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, h.engine.Stop())
	assert.ErrorIs(t, h.engine.Pause(), ErrInvalidTransition)
	assert.ErrorIs(t, h.engine.Stop(), ErrInvalidTransition)
	assert.ErrorIs(t, h.engine.ResetCalibration(), ErrInvalidTransition)
}

func TestWalkSessionEndToEnd(t *testing.T) {
	h := newHarness(t, testConfig())
	g := &goal.Goal{ID: "g-1", Unit: goal.UnitDistanceKm, Target: 0.5}

	handle, err := h.engine.Start(context.Background(), walk, g)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		h.walkTo(float64(i*5), 3*time.Second)
	}

	snap := h.engine.CurrentMetrics()
	assert.Equal(t, 60, snap.TrailLen)
	assert.InDelta(t, 180, snap.Metrics.DurationSeconds, 1e-9)
	assert.Greater(t, snap.Metrics.DistanceMeters, 250.0)
	assert.Less(t, snap.Metrics.DistanceMeters, 295.0)
	assert.Greater(t, snap.Metrics.PaceSecondsPerKm, 0.0)
	assert.InDelta(t, 3.5*70*180.0/3600, snap.Metrics.Calories, 1e-9)

	progress := h.engine.CurrentProgress()
	assert.InDelta(t, snap.Metrics.DistanceKm()/0.5, progress, 1e-9)

	require.NoError(t, h.engine.Stop())
	assert.Zero(t, h.location.Subscribers())

	fs, err := h.engine.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSaved, h.engine.State())

	require.Len(t, h.store.saved, 1)
	saved := h.store.saved[0]
	assert.Equal(t, handle.ID, saved.ID)
	assert.Equal(t, fs.ID, saved.ID)
	assert.Equal(t, "g-1", saved.GoalID)
	require.NotNil(t, saved.Goal)
	assert.InDelta(t, progress, saved.GoalProgress, 1e-9)
	assert.Len(t, saved.Trail, 60)
	assert.Equal(t, 60, saved.AcceptedFixes)
	assert.Zero(t, saved.RejectedFixes)
	assert.Nil(t, saved.Calibration)
	assert.True(t, saved.EndedAt.After(saved.StartedAt))
}

func TestGoalIsCopied(t *testing.T) {
	h := newHarness(t, testConfig())
	g := &goal.Goal{Unit: goal.UnitDistanceKm, Target: 1}

	_, err := h.engine.Start(context.Background(), walk, g)
	require.NoError(t, err)
	g.Target = 1000

	snap := h.engine.CurrentMetrics()
	require.NotNil(t, snap.Goal)
	assert.Equal(t, 1.0, snap.Goal.Target)
}

func TestNoGoalProgressIsZero(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		h.walkTo(float64(i*5), 3*time.Second)
	}
	assert.Zero(t, h.engine.CurrentProgress())
}

func TestRejectedFixesCounted(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	h.walkTo(0, time.Second)
	h.clock.Advance(time.Second)
	h.location.Push(sensor.Location{Lat: 0.0001, Accuracy: 80, Time: h.clock.Now()})
	h.walkTo(3, time.Second)

	snap := h.engine.CurrentMetrics()
	assert.Equal(t, 2, snap.TrailLen)
	assert.Equal(t, 2, h.engine.accepted)
	assert.Equal(t, 1, h.engine.rejected)
}

func TestPauseResumePreservesMetrics(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		h.walkTo(float64(i*5), 3*time.Second)
	}
	require.NoError(t, h.engine.Pause())
	paused := h.engine.CurrentMetrics()
	assert.Equal(t, StatePaused, paused.State)
	assert.InDelta(t, 30, paused.Metrics.DurationSeconds, 1e-9)
	assert.Zero(t, h.location.Subscribers())

	// Nothing moves while paused
	h.clock.Advance(5 * time.Minute)
	h.location.Push(sensor.Location{Lat: 1, Accuracy: 5, Time: h.clock.Now()})
	h.engine.handle(sensor.Location{Lat: 1, Accuracy: 5, Time: h.clock.Now()})
	h.tick()
	assert.Equal(t, paused.Metrics, h.engine.CurrentMetrics().Metrics)
	assert.Equal(t, paused.TrailLen, h.engine.CurrentMetrics().TrailLen)

	require.NoError(t, h.engine.Resume())
	assert.Equal(t, 1, h.location.Subscribers())
	resumed := h.engine.CurrentMetrics()
	assert.Equal(t, paused.Metrics.DistanceMeters, resumed.Metrics.DistanceMeters)

	h.clock.Advance(10 * time.Second)
	h.tick()
	assert.InDelta(t, 40, h.engine.CurrentMetrics().Metrics.DurationSeconds, 1e-9)
	assert.Equal(t, 5*time.Minute, h.engine.sess.PausedTotal)
}

func TestMovementWhilePausedNotCredited(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		h.walkTo(float64(i*5), 3*time.Second)
	}
	require.NoError(t, h.engine.Pause())
	before := h.engine.CurrentMetrics().Metrics.DistanceMeters
	require.Greater(t, before, 0.0)

	h.clock.Advance(10 * time.Minute)
	require.NoError(t, h.engine.Resume())

	// One kilometre away from the last pre-pause fix
	h.walkTo(1045, 3*time.Second)
	assert.Equal(t, before, h.engine.CurrentMetrics().Metrics.DistanceMeters)
	assert.Zero(t, h.engine.rejected)
	assert.Equal(t, 11, h.engine.CurrentMetrics().TrailLen)

	for i := 1; i <= 5; i++ {
		h.walkTo(1045+float64(i*5), 3*time.Second)
	}
	after := h.engine.CurrentMetrics().Metrics.DistanceMeters
	assert.GreaterOrEqual(t, after, before)
	assert.LessOrEqual(t, after, before+30)
}

func TestStateLive(t *testing.T) {
	tests := []struct {
		state  State
		live   bool
		active bool
	}{
		{StateIdle, false, false},
		{StateTracking, true, true},
		{StatePaused, true, true},
		{StateEnded, false, true},
		{StateSaved, false, false},
		{StateDiscarded, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.live, tt.state.Live())
			assert.Equal(t, tt.active, tt.state.Active())
		})
	}
}

func TestStopWhilePaused(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	h.clock.Advance(20 * time.Second)
	require.NoError(t, h.engine.Pause())
	h.clock.Advance(40 * time.Second)
	require.NoError(t, h.engine.Stop())

	snap := h.engine.CurrentMetrics()
	assert.Equal(t, StateEnded, snap.State)
	assert.InDelta(t, 20, snap.Metrics.DurationSeconds, 1e-9)
	assert.Equal(t, 40*time.Second, h.engine.sess.PausedTotal)
}

func TestSaveMinimums(t *testing.T) {
	tests := []struct {
		name    string
		kind    activity.Kind
		metrics activity.Metrics
		wantErr bool
	}{
		{"short distance", walk, activity.Metrics{DistanceMeters: 99, DurationSeconds: 600}, true},
		{"short duration", walk, activity.Metrics{DistanceMeters: 500, DurationSeconds: 59}, true},
		{"enough", walk, activity.Metrics{DistanceMeters: 101, DurationSeconds: 61}, false},
		{"exact minimums", walk, activity.Metrics{DistanceMeters: 100, DurationSeconds: 60}, false},
		{"four reps", pushups, activity.Metrics{RepCount: 4}, true},
		{"five reps", pushups, activity.Metrics{RepCount: 5}, false},
		{"reps ignore distance", proxSits, activity.Metrics{RepCount: 5, DurationSeconds: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMinimums(tt.kind, tt.metrics)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSaveRejectedKeepsSessionEnded(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), pushups, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		h.rep()
	}
	require.NoError(t, h.engine.Stop())

	_, err = h.engine.Save(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StateEnded, h.engine.State())
	assert.Empty(t, h.store.saved)

	h.engine.Discard()
	assert.Equal(t, StateDiscarded, h.engine.State())
}

func TestRepSessionSaves(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), pushups, &goal.Goal{Unit: goal.UnitReps, Target: 10})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		h.rep()
	}
	assert.Equal(t, 5, h.engine.CurrentMetrics().Metrics.RepCount)
	assert.InDelta(t, 0.5, h.engine.CurrentProgress(), 1e-9)

	require.NoError(t, h.engine.Stop())
	fs, err := h.engine.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, fs.Metrics.RepCount)
	assert.Empty(t, fs.Trail)
	assert.InDelta(t, 0.5, fs.GoalProgress, 1e-9)
}

func TestSavePersisterFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.store.err = errors.New("disk full")

	_, err := h.engine.Start(context.Background(), pushups, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		h.rep()
	}
	require.NoError(t, h.engine.Stop())

	_, err = h.engine.Save(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, StateEnded, h.engine.State())

	h.store.err = nil
	_, err = h.engine.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSaved, h.engine.State())
}

func TestSaveWithoutPersister(t *testing.T) {
	h := newHarness(t, testConfig())
	h.engine.deps.Persister = nil

	_, err := h.engine.Start(context.Background(), pushups, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		h.rep()
	}
	require.NoError(t, h.engine.Stop())

	_, err = h.engine.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoPersister)
	assert.Equal(t, StateEnded, h.engine.State())
}

func TestDiscard(t *testing.T) {
	h := newHarness(t, testConfig())

	h.engine.Discard()
	assert.Equal(t, StateIdle, h.engine.State())

	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		h.walkTo(float64(i*10), 3*time.Second)
	}
	h.engine.Discard()

	snap := h.engine.CurrentMetrics()
	assert.Equal(t, StateDiscarded, snap.State)
	assert.Empty(t, snap.SessionID)
	assert.Zero(t, snap.Metrics)
	assert.Zero(t, h.location.Subscribers())
	assert.Nil(t, h.engine.sess)
	assert.Empty(t, h.store.saved)
}

func TestResetCalibrationKeepsReps(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), proxSits, nil)
	require.NoError(t, err)

	h.calibrate()
	snap := h.engine.CurrentMetrics()
	require.NotNil(t, snap.Calibration)
	require.Equal(t, reps.PhaseUp, snap.Calibration.Phase)

	h.proximityRep()
	h.proximityRep()
	require.Equal(t, 2, h.engine.CurrentMetrics().Metrics.RepCount)

	require.NoError(t, h.engine.ResetCalibration())
	snap = h.engine.CurrentMetrics()
	assert.Equal(t, reps.PhaseCalibrating, snap.Calibration.Phase)
	assert.Equal(t, 2, snap.Metrics.RepCount)

	h.calibrate()
	h.proximityRep()
	assert.Equal(t, 3, h.engine.CurrentMetrics().Metrics.RepCount)

	for i := 0; i < 2; i++ {
		h.proximityRep()
	}
	require.NoError(t, h.engine.Stop())
	fs, err := h.engine.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, fs.Metrics.RepCount)
	require.NotNil(t, fs.Calibration)
	assert.InDelta(t, 150, fs.Calibration.DownThreshold, 1e-9)
}

func TestResetCalibrationNeedsProximity(t *testing.T) {
	for _, k := range []activity.Kind{walk, pushups} {
		h := newHarness(t, testConfig())
		_, err := h.engine.Start(context.Background(), k, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, h.engine.ResetCalibration(), ErrNotRepetition, k.String())
	}
}

func TestCalibrationFailureSurfacesInSnapshot(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), proxSits, nil)
	require.NoError(t, err)

	h.orientation.Push(sensor.Orientation{Z: 1, Time: h.clock.Now()})
	for i := 0; i <= 10; i++ {
		h.showFace(10, 0.9, 300*time.Millisecond)
	}

	snap := h.engine.CurrentMetrics()
	require.NotNil(t, snap.Calibration)
	require.NotNil(t, snap.Calibration.LastFailure)
	assert.Equal(t, reps.NoEyesClosed, snap.Calibration.LastFailure.Reason)
	assert.Equal(t, reps.PhaseCalibrating, snap.Calibration.Phase)
	assert.Equal(t, StateTracking, snap.State)
}

func TestTickerLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = time.Hour
	h := newHarness(t, cfg)

	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	assert.True(t, h.engine.ticking())
	gen := h.engine.tickGen

	// Foreground resubscribes without registering a second ticker
	require.NoError(t, h.engine.Foreground())
	assert.Equal(t, gen, h.engine.tickGen)
	assert.Equal(t, 1, h.location.Subscribers())

	h.engine.mu.Lock()
	h.engine.startTicker()
	h.engine.mu.Unlock()
	assert.Equal(t, gen, h.engine.tickGen)

	require.NoError(t, h.engine.Pause())
	assert.False(t, h.engine.ticking())

	// A tick from the cancelled generation is ignored
	h.clock.Advance(time.Minute)
	h.engine.tick(gen)
	assert.Equal(t, StatePaused, h.engine.State())
	assert.InDelta(t, 0, h.engine.CurrentMetrics().Metrics.DurationSeconds, 1e-9)

	require.NoError(t, h.engine.Resume())
	assert.True(t, h.engine.ticking())
	assert.NotEqual(t, gen, h.engine.tickGen)

	require.NoError(t, h.engine.Stop())
	assert.False(t, h.engine.ticking())
}

func TestTickerRefreshesDuration(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = 5 * time.Millisecond
	h := newHarness(t, cfg)

	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	h.clock.Advance(42 * time.Second)

	assert.Eventually(t, func() bool {
		return h.engine.CurrentMetrics().Metrics.DurationSeconds >= 42
	}, time.Second, 5*time.Millisecond)

	h.engine.Discard()
	assert.False(t, h.engine.ticking())
}

func TestSensorGap(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	h.walkTo(0, time.Second)
	h.clock.Advance(9 * time.Second)
	h.tick()
	assert.False(t, h.engine.CurrentMetrics().SensorGap)

	h.clock.Advance(2 * time.Second)
	h.tick()
	assert.True(t, h.engine.CurrentMetrics().SensorGap)
	assert.Equal(t, StateTracking, h.engine.State())

	h.walkTo(5, time.Second)
	assert.False(t, h.engine.CurrentMetrics().SensorGap)
}

func TestBackgroundKeepsTracking(t *testing.T) {
	h := newHarness(t, testConfig())
	h.engine.Background()

	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)
	h.engine.Background()
	assert.Equal(t, StateTracking, h.engine.State())

	h.walkTo(0, time.Second)
	h.walkTo(10, 5*time.Second)
	require.NoError(t, h.engine.Foreground())
	h.walkTo(20, 5*time.Second)
	assert.Equal(t, 3, h.engine.CurrentMetrics().TrailLen)

	require.NoError(t, h.engine.Pause())
	assert.NoError(t, h.engine.Foreground())
	assert.Zero(t, h.location.Subscribers())
}

func TestMetricsNeverDecrease(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	path := []float64{0, 4, 3, 10, 25, 22, 40, 38, 60, 30, 0}
	var prev activity.Metrics
	for _, m := range path {
		h.walkTo(m, 4*time.Second)
		cur := h.engine.CurrentMetrics().Metrics
		assert.GreaterOrEqual(t, cur.DistanceMeters, prev.DistanceMeters)
		assert.GreaterOrEqual(t, cur.DurationSeconds, prev.DurationSeconds)
		assert.GreaterOrEqual(t, cur.Calories, prev.Calories)
		prev = cur
	}
}

func TestWalkScenario150m(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.engine.Start(context.Background(), walk, nil)
	require.NoError(t, err)

	step := 150.0 / 19
	for i := 0; i < 20; i++ {
		h.walkTo(float64(i)*step, 3*time.Second)
	}
	require.NoError(t, h.engine.Stop())

	fs, err := h.engine.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSaved, h.engine.State())
	// The smoothed trail trails the last raw fix by a few meters
	assert.InDelta(t, 150, fs.Metrics.DistanceMeters, 20)
	assert.InDelta(t, 60, fs.Metrics.DurationSeconds, 1e-9)
	assert.Len(t, fs.Trail, 20)
}
