package kinetic

import (
	"encoding/json"
	"fmt"
)

// Instance is a scene entity. A single flat struct is used for all variants
// (tagged by Type) instead of an interface hierarchy; only the fields of the
// active variant are meaningful and only they appear in the wire form.
//
// An instance is owned by the engine that registered it; after registration
// mutate it only through InstanceDelta on the simulation goroutine.
type Instance struct {
	// Identity
	ID   string
	Type InstanceType

	// Model variant
	ModelID string

	// Text variant
	FontID string
	Text   string

	// Image variant
	ImageID string

	// Camera variant. A camera binds to the backend camera node only on the
	// client engine whose id matches ClientID.
	ClientID string

	// ParallelCurves is the set of active curves. Order carries no meaning;
	// membership changes through deltas and through curve completion.
	ParallelCurves []*Curve

	// ClientEventTypes and AuthorityEventTypes are independent subscription
	// sets. The hosting engine indexes the instance under one of them
	// depending on its Role, which allows asymmetric client/authority event
	// routing without duplicating instances.
	ClientEventTypes    []EventType
	AuthorityEventTypes []EventType

	// OwnerEngineID identifies the engine that owns this instance.
	OwnerEngineID string

	// ParentInstanceID forms a tree. Empty means root: the backend node is
	// attached to the scene root; otherwise it is attached to the parent's
	// node and the backend composes transforms.
	ParentInstanceID string
}

// NewModelInstance creates a model instance referencing a declared model id.
// Set the remaining fields directly before registering.
func NewModelInstance(id, modelID string) *Instance {
	return &Instance{ID: id, Type: InstanceModel, ModelID: modelID}
}

// NewTextInstance creates a text instance referencing a declared font id.
func NewTextInstance(id, fontID, text string) *Instance {
	return &Instance{ID: id, Type: InstanceText, FontID: fontID, Text: text}
}

// NewImageInstance creates an image instance referencing a declared image id.
func NewImageInstance(id, imageID string) *Instance {
	return &Instance{ID: id, Type: InstanceImage, ImageID: imageID}
}

// NewCameraInstance creates a camera instance bound to the given client
// engine id.
func NewCameraInstance(id, clientID string) *Instance {
	return &Instance{ID: id, Type: InstanceCamera, ClientID: clientID}
}

// VisibleEventTypes returns the subscription set the given role indexes this
// instance under.
func (i *Instance) VisibleEventTypes(role Role) []EventType {
	if role == RoleClient {
		return i.ClientEventTypes
	}
	return i.AuthorityEventTypes
}

// removeParallelCurve removes one curve by identity. Membership order is
// irrelevant, so the last element is swapped into the hole.
func (i *Instance) removeParallelCurve(c *Curve) {
	for k, pc := range i.ParallelCurves {
		if pc == c {
			last := len(i.ParallelCurves) - 1
			i.ParallelCurves[k] = i.ParallelCurves[last]
			i.ParallelCurves[last] = nil
			i.ParallelCurves = i.ParallelCurves[:last]
			return
		}
	}
}

// instanceJSON is the wire form of an Instance. Variant fields are pointers
// so that only the active variant's fields are emitted.
type instanceJSON struct {
	InstanceUUID        string       `json:"instance_uuid"`
	InstanceType        InstanceType `json:"instance_type"`
	ParallelCurves      []*Curve     `json:"parallel_curves"`
	ClientEventTypes    []EventType  `json:"client_event_types"`
	RendererEventTypes  []EventType  `json:"renderer_event_types"`
	OwnerEngineUUID     string       `json:"owner_render_engine_uuid"`
	ParentInstanceUUID  *string      `json:"parent_instance_uuid"`
	ModelUUID           *string      `json:"model_uuid,omitempty"`
	FontUUID            *string      `json:"font_uuid,omitempty"`
	Text                *string      `json:"text,omitempty"`
	ImageUUID           *string      `json:"image_uuid,omitempty"`
	ClientUUID          *string      `json:"client_uuid,omitempty"`
}

// MarshalJSON encodes the instance tag plus the active variant's fields.
func (i *Instance) MarshalJSON() ([]byte, error) {
	w := instanceJSON{
		InstanceUUID:       i.ID,
		InstanceType:       i.Type,
		ParallelCurves:     emptyIfNilCurves(i.ParallelCurves),
		ClientEventTypes:   emptyIfNilEvents(i.ClientEventTypes),
		RendererEventTypes: emptyIfNilEvents(i.AuthorityEventTypes),
		OwnerEngineUUID:    i.OwnerEngineID,
	}
	if i.ParentInstanceID != "" {
		parent := i.ParentInstanceID
		w.ParentInstanceUUID = &parent
	}
	switch i.Type {
	case InstanceModel:
		w.ModelUUID = ptr(i.ModelID)
	case InstanceText:
		w.FontUUID = ptr(i.FontID)
		w.Text = ptr(i.Text)
	case InstanceImage:
		w.ImageUUID = ptr(i.ImageID)
	case InstanceCamera:
		w.ClientUUID = ptr(i.ClientID)
	default:
		return nil, fmt.Errorf("kinetic: marshal instance type %q: %w", i.Type, ErrUnsupportedVariant)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, failing on unknown instance tags.
func (i *Instance) UnmarshalJSON(data []byte) error {
	var w instanceJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("kinetic: parse instance: %w", err)
	}
	parsed := Instance{
		ID:                  w.InstanceUUID,
		Type:                w.InstanceType,
		ParallelCurves:      w.ParallelCurves,
		ClientEventTypes:    w.ClientEventTypes,
		AuthorityEventTypes: w.RendererEventTypes,
		OwnerEngineID:       w.OwnerEngineUUID,
	}
	if w.ParentInstanceUUID != nil {
		parsed.ParentInstanceID = *w.ParentInstanceUUID
	}
	switch w.InstanceType {
	case InstanceModel:
		parsed.ModelID = deref(w.ModelUUID)
	case InstanceText:
		parsed.FontID = deref(w.FontUUID)
		parsed.Text = deref(w.Text)
	case InstanceImage:
		parsed.ImageID = deref(w.ImageUUID)
	case InstanceCamera:
		parsed.ClientID = deref(w.ClientUUID)
	default:
		return fmt.Errorf("kinetic: parse instance type %q: %w", w.InstanceType, ErrUnsupportedVariant)
	}
	*i = parsed
	return nil
}

func ptr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyIfNilCurves(c []*Curve) []*Curve {
	if c == nil {
		return []*Curve{}
	}
	return c
}

func emptyIfNilEvents(e []EventType) []EventType {
	if e == nil {
		return []EventType{}
	}
	return e
}
