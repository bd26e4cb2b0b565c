package kinetic

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxCurveTerms is the maximum number of delta terms per channel. It is the
// size of the precomputed factorial table; NewCurve rejects longer slices
// with ErrCurveDegree rather than evaluating past the table.
const MaxCurveTerms = 12

// factorials[k] = k! for every representable term index.
var factorials = [MaxCurveTerms]float64{
	1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800, 39916800,
}

// Curve is an immutable declaration of time-bounded polynomial motion on
// four channels. Term k of a delta sequence is the coefficient of t^k: the
// channel's contribution at elapsed time t is the sum of delta[k]*t^k/k!
// over all terms. A curve is only evaluated inside its window
// [StartTime, StartTime+EffectiveTimeSeconds].
//
// Treat a Curve as read-only after construction; engines share curve
// pointers between instances, deltas, and events.
type Curve struct {
	ID string

	PositionDeltas []Vec3
	RotationDeltas []Vec3
	ScaleDeltas    []float64
	OpacityDeltas  []float64

	// EffectiveTimeSeconds is the curve's lifespan. Zero means
	// fire-and-expire: the curve is discarded on the first tick at or after
	// StartTime without ever being evaluated.
	EffectiveTimeSeconds float64

	// StartTime opens the curve's window; the curve contributes nothing
	// before it.
	StartTime time.Time

	// TriggerEventOnComplete buffers the curve's id for a CurveCompleted
	// event when the window closes.
	TriggerEventOnComplete bool

	// RemoveInstanceOnComplete flags the owning instance for removal when
	// the window closes.
	RemoveInstanceOnComplete bool

	// RestartAfterSeconds is reserved. It travels through the wire format
	// but is not read by the evaluator; no looping semantics are implied.
	RestartAfterSeconds *float64
}

// NewCurve validates c and returns a pointer to a copy. The only invalid
// configuration is a delta sequence longer than MaxCurveTerms.
func NewCurve(c Curve) (*Curve, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Curve) validate() error {
	for _, n := range []int{
		len(c.PositionDeltas), len(c.RotationDeltas),
		len(c.ScaleDeltas), len(c.OpacityDeltas),
	} {
		if n > MaxCurveTerms {
			return fmt.Errorf("kinetic: curve %q has %d delta terms, max %d: %w",
				c.ID, n, MaxCurveTerms, ErrCurveDegree)
		}
	}
	return nil
}

// Transform is one sample of the four animated channels.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    float64
	Opacity  float64
}

// add accumulates o into t componentwise.
func (t *Transform) add(o Transform) {
	t.Position = t.Position.Add(o.Position)
	t.Rotation = t.Rotation.Add(o.Rotation)
	t.Scale += o.Scale
	t.Opacity += o.Opacity
}

// Evaluate returns the curve's total contribution at elapsed seconds t and
// reports whether t has reached the end of the curve's window. Callers feed
// it the clamped value from ElapsedWithin, which pins t to exactly
// EffectiveTimeSeconds on the closing tick.
func (c *Curve) Evaluate(t float64) (Transform, bool) {
	var out Transform
	out.Position = evalVecTerms(c.PositionDeltas, t)
	out.Rotation = evalVecTerms(c.RotationDeltas, t)
	out.Scale = evalScalarTerms(c.ScaleDeltas, t)
	out.Opacity = evalScalarTerms(c.OpacityDeltas, t)
	return out, t >= c.EffectiveTimeSeconds
}

func evalVecTerms(deltas []Vec3, t float64) Vec3 {
	var sum Vec3
	tk := 1.0
	for k, d := range deltas {
		f := factorials[k]
		sum.X += d.X * tk / f
		sum.Y += d.Y * tk / f
		sum.Z += d.Z * tk / f
		tk *= t
	}
	return sum
}

func evalScalarTerms(deltas []float64, t float64) float64 {
	var sum float64
	tk := 1.0
	for k, d := range deltas {
		sum += d * tk / factorials[k]
		tk *= t
	}
	return sum
}

// curveJSON is the wire form of a Curve.
type curveJSON struct {
	CurveUUID                string    `json:"curve_uuid"`
	PositionDeltas           []Vec3    `json:"position_deltas"`
	RotationDeltas           []Vec3    `json:"rotation_deltas"`
	ScaleDeltas              []float64 `json:"scale_deltas"`
	OpacityDeltas            []float64 `json:"opacity_deltas"`
	EffectiveTimeSeconds     float64   `json:"effective_time_seconds"`
	TriggerEventOnComplete   bool      `json:"is_controller_event_triggered_on_completed"`
	StartDatetime            string    `json:"start_datetime"`
	RemoveInstanceOnComplete bool      `json:"is_instance_removed_on_curve_completed"`
	RestartAfterSeconds      *float64  `json:"restart_after_seconds"`
}

// MarshalJSON encodes the curve in its stable wire form. StartTime is
// written as a fixed-precision UTC timestamp string.
func (c *Curve) MarshalJSON() ([]byte, error) {
	return json.Marshal(curveJSON{
		CurveUUID:                c.ID,
		PositionDeltas:           c.PositionDeltas,
		RotationDeltas:           c.RotationDeltas,
		ScaleDeltas:              c.ScaleDeltas,
		OpacityDeltas:            c.OpacityDeltas,
		EffectiveTimeSeconds:     c.EffectiveTimeSeconds,
		TriggerEventOnComplete:   c.TriggerEventOnComplete,
		StartDatetime:            formatTimestamp(c.StartTime),
		RemoveInstanceOnComplete: c.RemoveInstanceOnComplete,
		RestartAfterSeconds:      c.RestartAfterSeconds,
	})
}

// UnmarshalJSON decodes the wire form, applying the same degree bound as
// NewCurve.
func (c *Curve) UnmarshalJSON(data []byte) error {
	var w curveJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("kinetic: parse curve: %w", err)
	}
	start, err := parseTimestamp(w.StartDatetime)
	if err != nil {
		return err
	}
	parsed := Curve{
		ID:                       w.CurveUUID,
		PositionDeltas:           w.PositionDeltas,
		RotationDeltas:           w.RotationDeltas,
		ScaleDeltas:              w.ScaleDeltas,
		OpacityDeltas:            w.OpacityDeltas,
		EffectiveTimeSeconds:     w.EffectiveTimeSeconds,
		StartTime:                start,
		TriggerEventOnComplete:   w.TriggerEventOnComplete,
		RemoveInstanceOnComplete: w.RemoveInstanceOnComplete,
		RestartAfterSeconds:      w.RestartAfterSeconds,
	}
	if err := parsed.validate(); err != nil {
		return err
	}
	*c = parsed
	return nil
}
