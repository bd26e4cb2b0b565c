package kinetic

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDeltaApplyAppend(t *testing.T) {
	existing := &Curve{ID: "a"}
	inst := NewModelInstance("i", "m")
	inst.ParallelCurves = []*Curve{existing}

	added := &Curve{ID: "b"}
	delta := NewAppendParallelCurves("i", []*Curve{added})
	if err := delta.Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(inst.ParallelCurves) != 2 || inst.ParallelCurves[0] != existing || inst.ParallelCurves[1] != added {
		t.Errorf("ParallelCurves = %v", inst.ParallelCurves)
	}
}

func TestDeltaApplyAppendEmptyIsNoOp(t *testing.T) {
	existing := &Curve{ID: "a"}
	inst := NewModelInstance("i", "m")
	inst.ParallelCurves = []*Curve{existing}

	if err := NewAppendParallelCurves("i", nil).Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(inst.ParallelCurves) != 1 || inst.ParallelCurves[0] != existing {
		t.Errorf("ParallelCurves changed: %v", inst.ParallelCurves)
	}
}

func TestDeltaApplySetReplacesWholesale(t *testing.T) {
	inst := NewModelInstance("i", "m")
	inst.ParallelCurves = []*Curve{{ID: "old1"}, {ID: "old2"}}

	replacement := &Curve{ID: "new"}
	if err := NewSetParallelCurves("i", []*Curve{replacement}).Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(inst.ParallelCurves) != 1 || inst.ParallelCurves[0] != replacement {
		t.Errorf("ParallelCurves = %v", inst.ParallelCurves)
	}
}

func TestDeltaApplySetText(t *testing.T) {
	inst := NewTextInstance("i", "hud", "before")
	if err := NewSetText("i", "after").Apply(inst); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if inst.Text != "after" {
		t.Errorf("Text = %q, want %q", inst.Text, "after")
	}
}

func TestDeltaApplySetTextTypeMismatch(t *testing.T) {
	for _, inst := range []*Instance{
		NewModelInstance("i", "m"),
		NewImageInstance("i", "img"),
		NewCameraInstance("i", "c"),
	} {
		if err := NewSetText("i", "x").Apply(inst); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("%s: err = %v, want ErrTypeMismatch", inst.Type, err)
		}
	}
}

func TestDeltaApplyUnknownType(t *testing.T) {
	delta := &InstanceDelta{ID: "d", Type: "teleport", InstanceID: "i"}
	if err := delta.Apply(NewModelInstance("i", "m")); !errors.Is(err, ErrUnsupportedVariant) {
		t.Fatalf("err = %v, want ErrUnsupportedVariant", err)
	}
}

func TestDeltaJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		delta *InstanceDelta
	}{
		{"append", NewAppendParallelCurves("i1", []*Curve{{ID: "c", EffectiveTimeSeconds: 1}})},
		{"append empty", NewAppendParallelCurves("i1", nil)},
		{"set", NewSetParallelCurves("i2", []*Curve{{ID: "c"}})},
		{"set_text", NewSetText("i3", "hello")},
		{"set_text empty", NewSetText("i3", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.delta)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got InstanceDelta
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
			if got.ID != tt.delta.ID || got.Type != tt.delta.Type || got.InstanceID != tt.delta.InstanceID {
				t.Errorf("fields did not round-trip: %+v", got)
			}
			if got.Text != tt.delta.Text {
				t.Errorf("Text = %q, want %q", got.Text, tt.delta.Text)
			}
			if len(got.Curves) != len(tt.delta.Curves) {
				t.Errorf("Curves len = %d, want %d", len(got.Curves), len(tt.delta.Curves))
			}
		})
	}
}

func TestDeltaJSONUnknownTag(t *testing.T) {
	data := []byte(`{"instance_delta_uuid":"d","instance_delta_type":"teleport","instance_uuid":"i"}`)
	var got InstanceDelta
	if err := json.Unmarshal(data, &got); !errors.Is(err, ErrUnsupportedVariant) {
		t.Fatalf("err = %v, want ErrUnsupportedVariant", err)
	}
}
