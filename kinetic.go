package kinetic

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Failures are wrapped with fmt.Errorf("kinetic: ...: %w")
// so callers can classify them with errors.Is.
var (
	// ErrResourceNotFound reports a model, font, or image id that was never
	// declared to the engine.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInstanceNotFound reports a lookup of an instance id that is not in
	// the registry.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrTypeMismatch reports a delta applied to an instance of the wrong
	// variant (for example SetText on a model instance).
	ErrTypeMismatch = errors.New("instance type mismatch")

	// ErrUnsupportedVariant reports an unknown serialized tag. Parsing never
	// falls back to a default variant.
	ErrUnsupportedVariant = errors.New("unsupported variant")

	// ErrCurveDegree reports a curve channel with more delta terms than the
	// evaluator supports (see MaxCurveTerms).
	ErrCurveDegree = errors.New("curve degree overflow")

	// ErrEngineDisposed reports a call on an engine that has already been
	// disposed.
	ErrEngineDisposed = errors.New("engine disposed")
)

// Vec3 is a 3D vector used for positions and rotations. Rotations are
// heading/pitch/roll in degrees, matching the backend node convention.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the componentwise sum v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v with every component multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// MarshalJSON encodes the vector as a 3-element array, the wire form used by
// curve delta sequences and state snapshots.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a 3-element array.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("kinetic: parse vec3: %w", err)
	}
	v.X, v.Y, v.Z = a[0], a[1], a[2]
	return nil
}

// EventType identifies a kind of domain event.
type EventType string

const (
	EventCollision      EventType = "collision" // declared for subscription sets; never emitted by this core
	EventCurveCompleted EventType = "curve_completed"
	EventKey            EventType = "key" // declared for subscription sets; never emitted by this core
	EventMouseMoved     EventType = "mouse_moved"
)

// EventTypes returns all declared event types. The engine keeps one
// subscription bucket per entry.
func EventTypes() []EventType {
	return []EventType{EventCollision, EventCurveCompleted, EventKey, EventMouseMoved}
}

func (t EventType) valid() bool {
	switch t {
	case EventCollision, EventCurveCompleted, EventKey, EventMouseMoved:
		return true
	}
	return false
}

// InstanceType distinguishes the variant of an Instance.
type InstanceType string

const (
	InstanceModel  InstanceType = "model"
	InstanceText   InstanceType = "text"
	InstanceImage  InstanceType = "image"
	InstanceCamera InstanceType = "camera"
)

// DeltaType identifies the kind of mutation an InstanceDelta carries.
type DeltaType string

const (
	DeltaAppendParallelCurves DeltaType = "append_parallel_curves"
	DeltaSetParallelCurves    DeltaType = "set_parallel_curves"
	DeltaSetText              DeltaType = "set_text"
)

// Role selects which of an instance's two subscription sets the hosting
// engine indexes it under.
type Role uint8

const (
	RoleAuthority Role = iota // authoritative host; uses AuthorityEventTypes
	RoleClient                // client host; uses ClientEventTypes
)

// timestampLayout is the wire format for timestamps: fixed six fractional
// digits, so values round-trip to the microsecond.
const timestampLayout = "2006-01-02 15:04:05.000000"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("kinetic: parse timestamp %q: %w", s, err)
	}
	return t, nil
}
