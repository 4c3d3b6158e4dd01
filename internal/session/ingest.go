package session

import (
	"time"

	"hakbang/internal/analysis"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
)

// handle is the callback registered on every sensor stream. Samples that
// arrive outside Tracking (late callbacks after pause or stop) are dropped.
func (e *Engine) handle(s sensor.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateTracking {
		return
	}
	e.apply(s, e.deps.Clock.Now())
	e.publish()
}

// apply runs one sample through filter → smoother → accumulator/detector
// and updates the metrics.
func (e *Engine) apply(s sensor.Sample, now time.Time) {
	e.lastInput = now
	if e.gap {
		e.gap = false
		e.logger.Info("sensor samples resumed", "session", e.sess.ID)
	}

	_, isFix := s.(sensor.Location)
	if !e.filter.Accept(s, e.sess.Kind) {
		if isFix {
			e.rejected++
		}
		return
	}

	if isFix {
		if !e.sess.Kind.DistanceBased() {
			return
		}
		e.accepted++
		p := e.smoother.Smooth(s.(sensor.Location))
		e.acc.Add(p)
		e.sess.Trail = append(e.sess.Trail, p)
		e.recompute(now)
		return
	}

	if e.strategy == nil {
		return
	}
	var before reps.CalibrationStatus
	prox, calibrated := e.strategy.(*reps.Proximity)
	if calibrated {
		before = prox.Calibration()
	}

	if ev, ok := e.strategy.Process(s); ok {
		e.logger.Debug("repetition", "session", e.sess.ID, "count", e.repBase+ev.Count)
	}
	if calibrated {
		e.logCalibration(before, prox.Calibration())
	}
	e.recompute(now)
}

// logCalibration reports calibration transitions and failures
func (e *Engine) logCalibration(before, after reps.CalibrationStatus) {
	if after.LastFailure != nil && after.Attempts != before.Attempts {
		e.logger.Info("calibration failed, restarting countdown",
			"session", e.sess.ID,
			"reason", string(after.LastFailure.Reason),
			"samples", after.LastFailure.Samples,
		)
	}
	if before.Phase == reps.PhaseCalibrating && after.Phase != reps.PhaseCalibrating && after.Profile != nil {
		e.logger.Info("calibration complete",
			"session", e.sess.ID,
			"baseline", after.Profile.BaselineArea,
			"down", after.Profile.DownThreshold,
			"up", after.Profile.UpThreshold,
		)
	}
	if after.Suspended && !before.Suspended {
		e.logger.Info("detection suspended, device not level", "session", e.sess.ID)
	}
}

// recompute derives duration-based metrics from the current totals. It
// builds a new Metrics value and swaps it in whole.
func (e *Engine) recompute(now time.Time) {
	m := e.sess.Metrics

	elapsed := now.Sub(e.startRef).Seconds()
	if elapsed > m.DurationSeconds {
		m.DurationSeconds = elapsed
	}

	if e.sess.Kind.DistanceBased() {
		m.DistanceMeters = e.acc.Total()
		m.PaceSecondsPerKm = e.pace.Update(m.DistanceMeters, m.DurationSeconds)
		if m.DurationSeconds > 0 {
			m.AvgSpeedKph = m.DistanceKm() / (m.DurationSeconds / 3600)
		}
	} else if e.strategy != nil {
		m.RepCount = e.repBase + e.strategy.Count()
	}
	m.Calories = analysis.Calories(e.sess.Kind, m.DurationSeconds, e.cfg.WeightKg)

	e.sess.Metrics = m
}

// tick is the once-per-interval refresh that keeps duration, pace and
// speed live without new samples, and notices sensor gaps.
func (e *Engine) tick(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateTracking || gen != e.tickGen {
		return
	}
	now := e.deps.Clock.Now()
	e.recompute(now)
	if !e.gap && now.Sub(e.lastInput) >= e.cfg.GapAfter {
		e.gap = true
		e.logger.Warn("no sensor samples", "session", e.sess.ID, "silent_for", now.Sub(e.lastInput))
	}
	e.publish()
}

// startTicker launches the refresh goroutine unless one is already running.
func (e *Engine) startTicker() {
	if e.tickStop != nil || e.cfg.TickInterval <= 0 {
		return
	}
	e.tickGen++
	gen := e.tickGen
	stop := make(chan struct{})
	e.tickStop = stop

	go func() {
		t := time.NewTicker(e.cfg.TickInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.tick(gen)
			}
		}
	}()
}

// stopTicker cancels the refresh goroutine. It does not wait for it: a
// tick already blocked on the mutex sees a stale generation and returns.
func (e *Engine) stopTicker() {
	if e.tickStop == nil {
		return
	}
	close(e.tickStop)
	e.tickStop = nil
	e.tickGen++
}

// ticking reports whether the refresh goroutine is registered.
func (e *Engine) ticking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickStop != nil
}
