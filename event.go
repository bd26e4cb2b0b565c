package kinetic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InstanceState is a read-only snapshot of one rendered instance taken at
// event emission time. It is never mutated after construction; the backend
// node's observed transform is copied out, not referenced.
type InstanceState struct {
	Instance *Instance
	Position Vec3
	Rotation Vec3
	Scale    float64
	Opacity  float64
}

// Event is a domain event emitted by an engine. One tag-dispatched struct
// covers all variants: CurveID is meaningful for CurveCompleted events,
// the Mouse* fields for MouseMoved events.
type Event struct {
	ID             string
	Type           EventType
	SourceEngineID string

	// InstanceStates snapshots every instance subscribed to Type at
	// emission time.
	InstanceStates []InstanceState

	TriggeredAt time.Time

	// CurveCompleted variant
	CurveID string

	// MouseMoved variant: pointer delta and the seconds elapsed since the
	// previous poll.
	MouseDX   float64
	MouseDY   float64
	TimeDelta float64
}

// newCurveCompletedEvent builds a CurveCompleted event with a fresh id.
func newCurveCompletedEvent(curveID, sourceEngineID string, states []InstanceState, at time.Time) *Event {
	return &Event{
		ID:             uuid.NewString(),
		Type:           EventCurveCompleted,
		SourceEngineID: sourceEngineID,
		InstanceStates: states,
		TriggeredAt:    at,
		CurveID:        curveID,
	}
}

// newMouseMovedEvent builds a MouseMoved event with a fresh id.
func newMouseMovedEvent(dx, dy, dt float64, sourceEngineID string, states []InstanceState, at time.Time) *Event {
	return &Event{
		ID:             uuid.NewString(),
		Type:           EventMouseMoved,
		SourceEngineID: sourceEngineID,
		InstanceStates: states,
		TriggeredAt:    at,
		MouseDX:        dx,
		MouseDY:        dy,
		TimeDelta:      dt,
	}
}

// stateJSON is the wire form of an InstanceState.
type stateJSON struct {
	Instance *Instance `json:"instance"`
	Position Vec3      `json:"position"`
	Rotation Vec3      `json:"rotation"`
	Scale    float64   `json:"scale"`
	Opacity  float64   `json:"opacity"`
}

// MarshalJSON encodes the snapshot with its full instance payload.
func (s InstanceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Instance: s.Instance,
		Position: s.Position,
		Rotation: s.Rotation,
		Scale:    s.Scale,
		Opacity:  s.Opacity,
	})
}

// UnmarshalJSON decodes the snapshot wire form.
func (s *InstanceState) UnmarshalJSON(data []byte) error {
	var w stateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("kinetic: parse instance state: %w", err)
	}
	s.Instance = w.Instance
	s.Position = w.Position
	s.Rotation = w.Rotation
	s.Scale = w.Scale
	s.Opacity = w.Opacity
	return nil
}

// eventJSON is the wire form of an Event.
type eventJSON struct {
	EventUUID              string          `json:"event_uuid"`
	EventType              EventType       `json:"event_type"`
	SourceRenderEngineUUID string          `json:"source_render_engine_uuid"`
	RenderedInstanceStates []InstanceState `json:"rendered_instance_states"`
	TriggeredDatetime      string          `json:"triggered_datetime"`
	CurveUUID              *string         `json:"curve_uuid,omitempty"`
	MouseXDelta            *float64        `json:"mouse_x_delta,omitempty"`
	MouseYDelta            *float64        `json:"mouse_y_delta,omitempty"`
	TimeDelta              *float64        `json:"time_delta,omitempty"`
}

// MarshalJSON encodes the event tag plus the variant-specific fields.
// Collision and Key events are declared but have no wire form.
func (e *Event) MarshalJSON() ([]byte, error) {
	w := eventJSON{
		EventUUID:              e.ID,
		EventType:              e.Type,
		SourceRenderEngineUUID: e.SourceEngineID,
		RenderedInstanceStates: emptyIfNilStates(e.InstanceStates),
		TriggeredDatetime:      formatTimestamp(e.TriggeredAt),
	}
	switch e.Type {
	case EventCurveCompleted:
		w.CurveUUID = ptr(e.CurveID)
	case EventMouseMoved:
		dx, dy, dt := e.MouseDX, e.MouseDY, e.TimeDelta
		w.MouseXDelta = &dx
		w.MouseYDelta = &dy
		w.TimeDelta = &dt
	default:
		return nil, fmt.Errorf("kinetic: marshal event type %q: %w", e.Type, ErrUnsupportedVariant)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, failing on tags this core cannot
// emit (collision, key) and on unknown tags.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("kinetic: parse event: %w", err)
	}
	triggered, err := parseTimestamp(w.TriggeredDatetime)
	if err != nil {
		return err
	}
	parsed := Event{
		ID:             w.EventUUID,
		Type:           w.EventType,
		SourceEngineID: w.SourceRenderEngineUUID,
		InstanceStates: w.RenderedInstanceStates,
		TriggeredAt:    triggered,
	}
	switch w.EventType {
	case EventCurveCompleted:
		parsed.CurveID = deref(w.CurveUUID)
	case EventMouseMoved:
		parsed.MouseDX = derefFloat(w.MouseXDelta)
		parsed.MouseDY = derefFloat(w.MouseYDelta)
		parsed.TimeDelta = derefFloat(w.TimeDelta)
	default:
		return fmt.Errorf("kinetic: parse event type %q: %w", w.EventType, ErrUnsupportedVariant)
	}
	*e = parsed
	return nil
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func emptyIfNilStates(s []InstanceState) []InstanceState {
	if s == nil {
		return []InstanceState{}
	}
	return s
}
