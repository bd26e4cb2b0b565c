package kinetic

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InstanceDelta is a mutation command targeting one instance by id. Like
// Instance it is a single tag-dispatched struct; only the active variant's
// payload field is meaningful.
//
// Deltas are how remote engines (and local event handlers) mutate instance
// state: they serialize, ship, and apply identically on every engine.
type InstanceDelta struct {
	ID         string
	Type       DeltaType
	InstanceID string

	// Curves is the payload of AppendParallelCurves and SetParallelCurves.
	Curves []*Curve

	// Text is the payload of SetText.
	Text string
}

// NewAppendParallelCurves creates a delta that unions curves into the target
// instance's active set.
func NewAppendParallelCurves(instanceID string, curves []*Curve) *InstanceDelta {
	return &InstanceDelta{
		ID:         uuid.NewString(),
		Type:       DeltaAppendParallelCurves,
		InstanceID: instanceID,
		Curves:     curves,
	}
}

// NewSetParallelCurves creates a delta that replaces the target instance's
// active curve set wholesale. In-flight curves are discarded without firing
// completion events: a hard reset, not a graceful cancel.
func NewSetParallelCurves(instanceID string, curves []*Curve) *InstanceDelta {
	return &InstanceDelta{
		ID:         uuid.NewString(),
		Type:       DeltaSetParallelCurves,
		InstanceID: instanceID,
		Curves:     curves,
	}
}

// NewSetText creates a delta that replaces the text of a text instance.
// Applying it to any other variant fails with ErrTypeMismatch.
func NewSetText(instanceID, text string) *InstanceDelta {
	return &InstanceDelta{
		ID:         uuid.NewString(),
		Type:       DeltaSetText,
		InstanceID: instanceID,
		Text:       text,
	}
}

// Apply mutates the target instance in place. The caller is responsible for
// having looked the instance up by d.InstanceID.
func (d *InstanceDelta) Apply(inst *Instance) error {
	switch d.Type {
	case DeltaAppendParallelCurves:
		inst.ParallelCurves = append(inst.ParallelCurves, d.Curves...)
		return nil
	case DeltaSetParallelCurves:
		inst.ParallelCurves = append([]*Curve(nil), d.Curves...)
		return nil
	case DeltaSetText:
		if inst.Type != InstanceText {
			return fmt.Errorf("kinetic: delta %s: set_text on %q instance %q: %w",
				d.ID, inst.Type, inst.ID, ErrTypeMismatch)
		}
		inst.Text = d.Text
		return nil
	default:
		return fmt.Errorf("kinetic: delta %s: type %q: %w", d.ID, d.Type, ErrUnsupportedVariant)
	}
}

// deltaJSON is the wire form of an InstanceDelta.
type deltaJSON struct {
	InstanceDeltaUUID string    `json:"instance_delta_uuid"`
	InstanceDeltaType DeltaType `json:"instance_delta_type"`
	InstanceUUID      string    `json:"instance_uuid"`
	ParallelCurves    *[]*Curve `json:"parallel_curves,omitempty"`
	Text              *string   `json:"text,omitempty"`
}

// MarshalJSON encodes the delta tag plus the active variant's payload.
func (d *InstanceDelta) MarshalJSON() ([]byte, error) {
	w := deltaJSON{
		InstanceDeltaUUID: d.ID,
		InstanceDeltaType: d.Type,
		InstanceUUID:      d.InstanceID,
	}
	switch d.Type {
	case DeltaAppendParallelCurves, DeltaSetParallelCurves:
		curves := emptyIfNilCurves(d.Curves)
		w.ParallelCurves = &curves
	case DeltaSetText:
		w.Text = ptr(d.Text)
	default:
		return nil, fmt.Errorf("kinetic: marshal delta type %q: %w", d.Type, ErrUnsupportedVariant)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, failing on unknown delta tags.
func (d *InstanceDelta) UnmarshalJSON(data []byte) error {
	var w deltaJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("kinetic: parse delta: %w", err)
	}
	parsed := InstanceDelta{
		ID:         w.InstanceDeltaUUID,
		InstanceID: w.InstanceUUID,
		Type:       w.InstanceDeltaType,
	}
	switch w.InstanceDeltaType {
	case DeltaAppendParallelCurves, DeltaSetParallelCurves:
		parsed.Curves = []*Curve{}
		if w.ParallelCurves != nil {
			parsed.Curves = *w.ParallelCurves
		}
	case DeltaSetText:
		parsed.Text = deref(w.Text)
	default:
		return fmt.Errorf("kinetic: parse delta type %q: %w", w.InstanceDeltaType, ErrUnsupportedVariant)
	}
	*d = parsed
	return nil
}
