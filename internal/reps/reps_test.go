package reps

import (
	"errors"
	"math"
	"testing"
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/sensor"
)

var t0 = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func face(ms int, side, eyes float64) sensor.Face {
	return sensor.Face{
		Box:          sensor.Box{Width: side, Height: side},
		LeftEyeOpen:  eyes,
		RightEyeOpen: eyes,
		Time:         at(ms),
	}
}

func level(ms int) sensor.Orientation {
	return sensor.Orientation{Z: 1, Time: at(ms)}
}

func tilted(ms int) sensor.Orientation {
	return sensor.Orientation{X: 0.7, Z: 0.7, Time: at(ms)}
}

// calibrate feeds 11 frames of a 10x10 face over 3 s with one blink
func calibrate(t *testing.T, p *Proximity) {
	t.Helper()
	p.Process(level(0))
	for i := 0; i <= 10; i++ {
		eyes := 0.95
		if i == 5 {
			eyes = 0.1
		}
		p.Process(face(i*300, 10, eyes))
	}
	if p.Phase() != PhaseUp {
		t.Fatalf("Phase() = %v after calibration, want up (failure %+v)", p.Phase(), p.LastFailure())
	}
}

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name    string
		kind    activity.Kind
		want    string
		wantErr bool
	}{
		{"pushup accelerometer", activity.Repetition(activity.Pushup, activity.StrategyAccelerometer), "*reps.Accelerometer", false},
		{"situp proximity", activity.Repetition(activity.Situp, activity.StrategyProximity), "*reps.Proximity", false},
		{"walk", activity.Distance(activity.Walk), "", true},
		{"unknown strategy", activity.Repetition(activity.Squat, "sonar"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.kind)
			if tt.wantErr {
				if !errors.Is(err, ErrNoStrategy) {
					t.Errorf("New() error = %v, want ErrNoStrategy", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			switch s.(type) {
			case *Accelerometer:
				if tt.want != "*reps.Accelerometer" {
					t.Errorf("got accelerometer, want %s", tt.want)
				}
			case *Proximity:
				if tt.want != "*reps.Proximity" {
					t.Errorf("got proximity, want %s", tt.want)
				}
			}
		})
	}
}

func TestAccelerometerCountsTriggerThenRelease(t *testing.T) {
	a := NewAccelerometer(1.4)
	zs := []float64{1.0, 1.2, 1.6, 1.5, 1.1, 0.7, 1.0, 1.8, 0.9, 0.75, 1.0}
	wantCounts := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2}

	for i, z := range zs {
		ev, ok := a.Process(sensor.Motion{Z: z, Time: at(i * 100)})
		if a.Count() != wantCounts[i] {
			t.Fatalf("sample %d (z=%v): Count() = %d, want %d", i, z, a.Count(), wantCounts[i])
		}
		if ok && (ev.Count != a.Count() || !ev.Time.Equal(at(i*100))) {
			t.Errorf("sample %d: event %+v", i, ev)
		}
	}
}

func TestAccelerometerNeedsTrigger(t *testing.T) {
	a := NewAccelerometer(1.4)
	for i, z := range []float64{1.0, 0.5, 1.3, 0.2, 1.39, 0.1} {
		if _, ok := a.Process(sensor.Motion{Z: z, Time: at(i)}); ok {
			t.Fatalf("rep counted without crossing the trigger at sample %d", i)
		}
	}
	if a.Armed() {
		t.Error("Armed() = true without crossing the trigger")
	}
}

func TestAccelerometerUsesMagnitude(t *testing.T) {
	a := NewAccelerometer(1.4)
	// 1.0² + 1.0² → magnitude ≈ 1.41
	a.Process(sensor.Motion{X: 1, Y: 1, Time: at(0)})
	if !a.Armed() {
		t.Fatal("vector magnitude above trigger did not arm")
	}
	a.Process(sensor.Motion{X: 0.5, Y: 0.5, Time: at(100)})
	if a.Count() != 1 {
		t.Errorf("Count() = %d, want 1", a.Count())
	}
}

func TestAccelerometerIgnoresOtherFamilies(t *testing.T) {
	a := NewAccelerometer(1.4)
	a.Process(sensor.Orientation{Z: 3, Time: at(0)})
	a.Process(face(100, 50, 1))
	if a.Armed() || a.Count() != 0 {
		t.Error("non-motion sample changed the detector")
	}
}

func TestAccelerometerReset(t *testing.T) {
	a := NewAccelerometer(1.4)
	a.Process(sensor.Motion{Z: 2, Time: at(0)})
	a.Process(sensor.Motion{Z: 0.5, Time: at(1)})
	a.Process(sensor.Motion{Z: 2, Time: at(2)})
	a.Reset()
	if a.Count() != 0 || a.Armed() {
		t.Errorf("after Reset Count() = %d Armed() = %v", a.Count(), a.Armed())
	}
}

func TestCalibrationSuccess(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)

	prof := p.Profile()
	if prof == nil {
		t.Fatal("Profile() = nil after calibration")
	}
	if math.Abs(prof.BaselineArea-100) > 1e-9 {
		t.Errorf("BaselineArea = %v, want 100", prof.BaselineArea)
	}
	if math.Abs(prof.DownThreshold-150) > 1e-9 {
		t.Errorf("DownThreshold = %v, want 150", prof.DownThreshold)
	}
	if math.Abs(prof.UpThreshold-120) > 1e-9 {
		t.Errorf("UpThreshold = %v, want 120", prof.UpThreshold)
	}
	if !prof.LivenessOpenSeen || !prof.LivenessClosedSeen {
		t.Errorf("liveness flags = %v/%v, want both set", prof.LivenessOpenSeen, prof.LivenessClosedSeen)
	}
	if p.LastFailure() != nil {
		t.Errorf("LastFailure() = %+v, want nil", p.LastFailure())
	}

	st := p.Calibration()
	if st.Remaining != 0 || st.Suspended {
		t.Errorf("Calibration() = %+v", st)
	}
}

func TestCalibrationProfileIsACopy(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)
	p.Profile().DownThreshold = 1
	if p.Profile().DownThreshold != 150 {
		t.Error("Profile() exposed internal state")
	}
}

func TestCalibrationBaselineTrimsOutliers(t *testing.T) {
	areas := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 5000}
	prof := NewProfile(areas, true, true)
	if prof.BaselineArea != 100 {
		t.Errorf("BaselineArea = %v, want 100", prof.BaselineArea)
	}
}

func TestCalibrationFailures(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		eyes   func(i int) float64
		want   FailureReason
	}{
		{
			name:   "too few samples",
			frames: 10,
			eyes:   func(i int) float64 { return []float64{0.9, 0.1}[i%2] },
			want:   InsufficientSamples,
		},
		{
			name:   "eyes never closed 11 frames",
			frames: 11,
			eyes:   func(int) float64 { return 0.9 },
			want:   NoEyesClosed,
		},
		{
			name:   "eyes never closed 20 frames",
			frames: 20,
			eyes:   func(int) float64 { return 0.9 },
			want:   NoEyesClosed,
		},
		{
			name:   "eyes never closed 60 frames",
			frames: 60,
			eyes:   func(int) float64 { return 0.9 },
			want:   NoEyesClosed,
		},
		{
			name:   "eyes never clearly open",
			frames: 11,
			eyes:   func(int) float64 { return 0.5 },
			want:   NoEyesOpen,
		},
		{
			name:   "eyes always closed",
			frames: 11,
			eyes:   func(int) float64 { return 0.2 },
			want:   NoEyesOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProximity()
			p.Process(level(0))
			// rounded up so the last frame closes the countdown
			step := (3000 + tt.frames - 2) / (tt.frames - 1)
			for i := 0; i < tt.frames; i++ {
				p.Process(face(i*step, 10, tt.eyes(i)))
			}

			if p.Phase() != PhaseCalibrating {
				t.Fatalf("Phase() = %v, want calibrating", p.Phase())
			}
			f := p.LastFailure()
			if f == nil {
				t.Fatal("LastFailure() = nil")
			}
			if f.Reason != tt.want {
				t.Errorf("Reason = %q, want %q", f.Reason, tt.want)
			}
			if f.Samples != tt.frames {
				t.Errorf("Samples = %d, want %d", f.Samples, tt.frames)
			}
			if p.Calibration().Attempts != 1 {
				t.Errorf("Attempts = %d, want 1", p.Calibration().Attempts)
			}
		})
	}
}

func TestCalibrationRestartsAfterFailure(t *testing.T) {
	p := NewProximity()
	p.Process(level(0))
	for i := 0; i <= 10; i++ {
		p.Process(face(i*300, 10, 0.9))
	}
	if p.LastFailure() == nil {
		t.Fatal("first attempt should fail without a blink")
	}

	// A fresh window starting at 4 s succeeds
	for i := 0; i <= 10; i++ {
		eyes := 0.9
		if i == 3 {
			eyes = 0.05
		}
		p.Process(face(4000+i*300, 12, eyes))
	}
	if p.Phase() != PhaseUp {
		t.Fatalf("Phase() = %v after retry, want up", p.Phase())
	}
	if p.LastFailure() != nil {
		t.Error("LastFailure() not cleared by a successful attempt")
	}
	if math.Abs(p.Profile().BaselineArea-144) > 1e-9 {
		t.Errorf("BaselineArea = %v, want 144", p.Profile().BaselineArea)
	}
}

func TestCalibrationRequiresLevel(t *testing.T) {
	p := NewProximity()
	p.Process(face(0, 10, 0.9))
	f := p.LastFailure()
	if f == nil || f.Reason != DeviceNotLevel {
		t.Fatalf("LastFailure() = %+v, want device not level", f)
	}

	// Tilting mid-countdown aborts the attempt
	p = NewProximity()
	p.Process(level(0))
	p.Process(face(0, 10, 0.9))
	p.Process(face(300, 10, 0.1))
	p.Process(tilted(500))
	f = p.LastFailure()
	if f == nil || f.Reason != DeviceNotLevel {
		t.Fatalf("LastFailure() = %+v, want device not level", f)
	}
	if f.Samples != 2 {
		t.Errorf("Samples = %d, want 2", f.Samples)
	}
	if p.Calibration().Samples != 0 {
		t.Errorf("countdown kept %d samples after abort", p.Calibration().Samples)
	}
}

func TestProximityCountsDownThenUp(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)

	// Calibration ended at 3000 ms; frames 1 s apart clear the debounce
	areas := []struct {
		side  float64
		phase Phase
		count int
	}{
		{15, PhaseDown, 0}, // window [225]
		{15, PhaseDown, 0},
		{15, PhaseDown, 0},
		{10, PhaseDown, 0}, // [225 225 100] = 183
		{10, PhaseDown, 0}, // [225 100 100] = 141
		{10, PhaseUp, 1},   // [100 100 100]
		{15, PhaseUp, 1},   // [100 100 225] = 141
		{15, PhaseDown, 1}, // [100 225 225] = 183
		{10, PhaseDown, 1},
		{10, PhaseDown, 1},
		{10, PhaseUp, 2},
	}
	for i, a := range areas {
		p.Process(face(3000+(i+1)*1000, a.side, 0.9))
		if p.Phase() != a.phase || p.Count() != a.count {
			t.Fatalf("frame %d: phase %v count %d, want %v %d", i, p.Phase(), p.Count(), a.phase, a.count)
		}
	}
}

func TestProximityHysteresis(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)

	// 11.5² = 132.25 sits between the thresholds and never toggles
	for i := 1; i <= 10; i++ {
		p.Process(face(3000+i*1000, 11.5, 0.9))
	}
	if p.Phase() != PhaseUp || p.Count() != 0 {
		t.Errorf("phase %v count %d, want up 0", p.Phase(), p.Count())
	}
}

func TestProximityDebounce(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)

	// Within 600 ms of the calibration ending
	p.Process(face(3300, 20, 0.9))
	if p.Phase() != PhaseUp {
		t.Fatal("phase changed inside the debounce interval")
	}

	p.Process(face(4000, 20, 0.9))
	if p.Phase() != PhaseDown {
		t.Fatal("expected down")
	}
	// Debounced frames are dropped, not averaged
	p.Process(face(4100, 5, 0.9))
	p.Process(face(4200, 5, 0.9))
	if p.Phase() != PhaseDown || p.Count() != 0 {
		t.Fatalf("phase %v count %d inside debounce", p.Phase(), p.Count())
	}
	p.Process(face(4700, 5, 0.9)) // [400 25] = 212
	p.Process(face(4800, 5, 0.9)) // [400 25 25] = 150
	p.Process(face(4900, 5, 0.9)) // [25 25 25]
	if p.Count() != 1 {
		t.Errorf("Count() = %d, want 1", p.Count())
	}
}

func TestProximitySuspendsWhenTilted(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)

	p.Process(tilted(3500))
	if !p.Calibration().Suspended {
		t.Fatal("Suspended = false while tilted")
	}
	for i := 1; i <= 5; i++ {
		p.Process(face(3500+i*1000, 20, 0.9))
	}
	if p.Phase() != PhaseUp {
		t.Error("frames processed while tilted")
	}

	p.Process(level(9000))
	if p.Calibration().Suspended {
		t.Fatal("Suspended = true after leveling")
	}
	if p.Profile() == nil {
		t.Fatal("tilting discarded the profile")
	}
	p.Process(face(10000, 20, 0.9))
	if p.Phase() != PhaseDown {
		t.Error("detection did not resume after leveling")
	}
}

func TestProximityIgnoresMissingFaces(t *testing.T) {
	p := NewProximity()
	p.Process(level(0))
	p.Process(sensor.Face{Missing: true, Time: at(0)})
	if p.Calibration().Samples != 0 {
		t.Errorf("missing face counted as calibration sample")
	}
}

func TestProximityReset(t *testing.T) {
	p := NewProximity()
	calibrate(t, p)
	p.Process(face(4000, 20, 0.9))
	p.Process(face(5000, 5, 0.9))
	p.Process(face(6000, 5, 0.9))
	p.Process(face(7000, 5, 0.9))

	p.Reset()
	if p.Phase() != PhaseCalibrating || p.Count() != 0 || p.Profile() != nil {
		t.Errorf("after Reset phase %v count %d profile %v", p.Phase(), p.Count(), p.Profile())
	}
	if p.Calibration().Remaining != CalibrationWindow {
		t.Errorf("Remaining = %v, want %v", p.Calibration().Remaining, CalibrationWindow)
	}
}

func TestCalibrationRemaining(t *testing.T) {
	p := NewProximity()
	p.Process(level(0))
	p.Process(face(0, 10, 0.9))
	p.Process(face(1000, 10, 0.9))
	if got := p.Calibration().Remaining; got != 2*time.Second {
		t.Errorf("Remaining = %v, want 2s", got)
	}
}
