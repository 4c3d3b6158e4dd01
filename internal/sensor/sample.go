package sensor

import (
	"math"
	"time"
)

// Sample is one raw sensor reading. The concrete type tells the family.
type Sample interface {
	Timestamp() time.Time
}

// Location is a single GPS fix
type Location struct {
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Accuracy float64   `json:"accuracy"`        // meters, 0 when unknown
	Speed    float64   `json:"speed,omitempty"` // m/s as reported by the device, 0 when unknown
	Time     time.Time `json:"time"`
}

func (l Location) Timestamp() time.Time { return l.Time }

// Motion is one accelerometer reading in g
type Motion struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Z    float64   `json:"z"`
	Time time.Time `json:"time"`
}

func (m Motion) Timestamp() time.Time { return m.Time }

// Magnitude returns the vector magnitude sqrt(x²+y²+z²).
func (m Motion) Magnitude() float64 {
	return math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
}

// Box is a face bounding box in camera pixels
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width × height.
func (b Box) Area() float64 {
	return b.Width * b.Height
}

// Face is one camera frame from the face detector. Missing is set when
// the detector found no face in the frame.
type Face struct {
	Box          Box       `json:"box"`
	LeftEyeOpen  float64   `json:"left_eye_open"`  // probability 0..1
	RightEyeOpen float64   `json:"right_eye_open"` // probability 0..1
	Missing      bool      `json:"missing,omitempty"`
	Time         time.Time `json:"time"`
}

func (f Face) Timestamp() time.Time { return f.Time }

// Orientation is a gravity vector reading in g, used for the level check
type Orientation struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Z    float64   `json:"z"`
	Time time.Time `json:"time"`
}

func (o Orientation) Timestamp() time.Time { return o.Time }

// IsLevel reports whether the device is lying flat: |z| > 0.9 with
// |x| and |y| both under 0.2.
func (o Orientation) IsLevel() bool {
	return math.Abs(o.Z) > 0.9 && math.Abs(o.X) < 0.2 && math.Abs(o.Y) < 0.2
}
