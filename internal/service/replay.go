package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/clock"
	"hakbang/internal/goal"
	"hakbang/internal/sensor"
	"hakbang/internal/session"
)

// ReplayService feeds a recording through an engine as if the sensors
// were live. The engine clock follows the sample timestamps, so
// durations match the recording whatever the replay speed.
type ReplayService struct {
	engine *session.Engine
	clock  *clock.Manual
	feeds  map[sensor.Family]*sensor.Feed
	speed  float64
	logger *slog.Logger
}

// NewReplayService creates an engine bound to in-memory feeds. speed
// scales the gaps between samples; 0 replays as fast as possible.
func NewReplayService(persister session.Persister, cfg session.Config, speed float64, logger *slog.Logger) *ReplayService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	feeds := map[sensor.Family]*sensor.Feed{
		sensor.FamilyLocation:    sensor.NewFeed(),
		sensor.FamilyMotion:      sensor.NewFeed(),
		sensor.FamilyFace:        sensor.NewFeed(),
		sensor.FamilyOrientation: sensor.NewFeed(),
	}
	clk := clock.NewManual(time.Time{})

	engine := session.NewEngine(session.Deps{
		Sources: sensor.Sources{
			Location:    feeds[sensor.FamilyLocation],
			Motion:      feeds[sensor.FamilyMotion],
			Face:        feeds[sensor.FamilyFace],
			Orientation: feeds[sensor.FamilyOrientation],
		},
		Permissions: sensor.AllowAll{},
		Persister:   persister,
		Clock:       clk,
		Logger:      logger,
	}, cfg)

	return &ReplayService{
		engine: engine,
		clock:  clk,
		feeds:  feeds,
		speed:  speed,
		logger: logger,
	}
}

// Engine returns the engine driven by the replay, for Pause/Resume,
// snapshots and the final Save or Discard.
func (r *ReplayService) Engine() *session.Engine {
	return r.engine
}

// ReplayProgress reports progress during a replay
type ReplayProgress struct {
	Total     int
	Completed int
	Snapshot  session.Snapshot
	Error     error
}

// ReplayResult contains the results of a replay
type ReplayResult struct {
	Handle    session.Handle
	Samples   int
	Delivered int // samples some stream was subscribed to
	Final     session.Snapshot
}

// Run starts a session, pushes every sample and stops the session once
// the recording is exhausted. A session already stopped by the caller
// ends the replay early. progress, if not nil, is closed on return.
func (r *ReplayService) Run(ctx context.Context, k activity.Kind, g *goal.Goal, samples []sensor.Sample, progress chan<- ReplayProgress) (*ReplayResult, error) {
	if progress != nil {
		defer close(progress)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("replaying: no samples")
	}

	r.clock.Set(samples[0].Timestamp())
	handle, err := r.engine.Start(ctx, k, g)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	r.logger.Info("replay started", "session", handle.ID, "kind", k.String(), "samples", len(samples), "speed", r.speed)

	result := &ReplayResult{Handle: handle}
	prev := samples[0].Timestamp()

	for i, s := range samples {
		if !r.engine.State().Live() {
			r.logger.Info("session ended during replay", "session", handle.ID, "at_sample", i)
			break
		}

		at := s.Timestamp()
		if err := r.wait(ctx, at.Sub(prev)); err != nil {
			r.stop()
			return result, err
		}
		prev = at

		if at.After(r.clock.Now()) {
			r.clock.Set(at)
		}
		feed := r.feeds[familyOf(s)]
		if feed != nil && feed.Push(s) {
			result.Delivered++
		}
		result.Samples++

		if progress != nil && (result.Samples%ProgressEvery == 0 || i == len(samples)-1) {
			select {
			case progress <- ReplayProgress{Total: len(samples), Completed: result.Samples, Snapshot: r.engine.CurrentMetrics()}:
			case <-ctx.Done():
				r.stop()
				return result, ctx.Err()
			}
		}
	}

	r.stop()
	result.Final = r.engine.CurrentMetrics()
	r.logger.Info("replay finished",
		"session", handle.ID,
		"samples", result.Samples,
		"delivered", result.Delivered,
		"state", result.Final.State.String(),
	)
	return result, nil
}

// wait sleeps for the scaled gap between two samples
func (r *ReplayService) wait(ctx context.Context, gap time.Duration) error {
	if r.speed <= 0 || gap <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	t := time.NewTimer(time.Duration(float64(gap) / r.speed))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// stop ends a session that is still tracking or paused
func (r *ReplayService) stop() {
	if !r.engine.State().Live() {
		return
	}
	if err := r.engine.Stop(); err != nil {
		r.logger.Warn("stopping replayed session", "error", err)
	}
}

func familyOf(s sensor.Sample) sensor.Family {
	switch s.(type) {
	case sensor.Location:
		return sensor.FamilyLocation
	case sensor.Motion:
		return sensor.FamilyMotion
	case sensor.Face:
		return sensor.FamilyFace
	case sensor.Orientation:
		return sensor.FamilyOrientation
	}
	return ""
}
