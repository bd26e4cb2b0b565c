package kinetic

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestEventJSONRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 23, 18, 45, 12, 654321000, time.UTC)
	inst := NewTextInstance("i", "hud", "hi")
	inst.ClientEventTypes = []EventType{EventCurveCompleted}
	inst.AuthorityEventTypes = []EventType{}
	states := []InstanceState{{
		Instance: inst,
		Position: Vec3{X: 1, Y: 2, Z: 3},
		Rotation: Vec3{Z: 90},
		Scale:    2,
		Opacity:  0.5,
	}}

	tests := []struct {
		name  string
		event *Event
	}{
		{"curve_completed", newCurveCompletedEvent("curve-9", "engine-1", states, at)},
		{"mouse_moved", newMouseMovedEvent(0.25, -0.125, 0.016, "engine-1", states, at)},
		{"mouse_moved no states", newMouseMovedEvent(1, 1, 1, "engine-1", nil, at)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			again, err := json.Marshal(&got)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("wire form not stable:\n first %s\nsecond %s", data, again)
			}
			if got.ID != tt.event.ID || got.Type != tt.event.Type || got.SourceEngineID != tt.event.SourceEngineID {
				t.Errorf("fields did not round-trip: %+v", got)
			}
			if !got.TriggeredAt.Equal(at) {
				t.Errorf("TriggeredAt = %v, want %v (microsecond precision)", got.TriggeredAt, at)
			}
			if got.CurveID != tt.event.CurveID {
				t.Errorf("CurveID = %q, want %q", got.CurveID, tt.event.CurveID)
			}
			if got.MouseDX != tt.event.MouseDX || got.MouseDY != tt.event.MouseDY || got.TimeDelta != tt.event.TimeDelta {
				t.Errorf("mouse fields = (%v, %v, %v)", got.MouseDX, got.MouseDY, got.TimeDelta)
			}
			if len(got.InstanceStates) != len(tt.event.InstanceStates) {
				t.Fatalf("InstanceStates len = %d, want %d", len(got.InstanceStates), len(tt.event.InstanceStates))
			}
			for k, state := range got.InstanceStates {
				want := tt.event.InstanceStates[k]
				if state.Position != want.Position || state.Rotation != want.Rotation ||
					state.Scale != want.Scale || state.Opacity != want.Opacity {
					t.Errorf("state %d = %+v", k, state)
				}
				if state.Instance == nil || state.Instance.ID != want.Instance.ID {
					t.Errorf("state %d instance = %+v", k, state.Instance)
				}
			}
		})
	}
}

func TestEventJSONTimestampMicroseconds(t *testing.T) {
	// One microsecond of difference must survive the round trip.
	a := time.Date(2026, 8, 23, 0, 0, 0, 1000, time.UTC)
	b := time.Date(2026, 8, 23, 0, 0, 0, 2000, time.UTC)
	eventA := newCurveCompletedEvent("c", "e", nil, a)
	eventB := newCurveCompletedEvent("c", "e", nil, b)

	dataA, err := json.Marshal(eventA)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	dataB, err := json.Marshal(eventB)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var gotA, gotB Event
	if err := json.Unmarshal(dataA, &gotA); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal(dataB, &gotB); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !gotA.TriggeredAt.Equal(a) || !gotB.TriggeredAt.Equal(b) {
		t.Errorf("timestamps = %v, %v; want %v, %v", gotA.TriggeredAt, gotB.TriggeredAt, a, b)
	}
	if gotA.TriggeredAt.Equal(gotB.TriggeredAt) {
		t.Error("one-microsecond difference collapsed in the wire form")
	}
}

func TestEventJSONUnemittableTags(t *testing.T) {
	for _, tag := range []string{"collision", "key", "client_disconnect"} {
		data := []byte(`{"event_uuid":"e","event_type":"` + tag + `",` +
			`"source_render_engine_uuid":"s","rendered_instance_states":[],` +
			`"triggered_datetime":"2026-08-23 00:00:00.000000"}`)
		var got Event
		if err := json.Unmarshal(data, &got); !errors.Is(err, ErrUnsupportedVariant) {
			t.Errorf("tag %q: err = %v, want ErrUnsupportedVariant", tag, err)
		}
	}
}

func TestEventMarshalUnemittableType(t *testing.T) {
	event := &Event{ID: "e", Type: EventCollision, TriggeredAt: time.Unix(0, 0)}
	if _, err := json.Marshal(event); !errors.Is(err, ErrUnsupportedVariant) {
		t.Fatalf("err = %v, want ErrUnsupportedVariant", err)
	}
}
