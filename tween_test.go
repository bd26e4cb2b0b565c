package kinetic

import (
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

func TestEasedMoveSegmentsSumToTotal(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	total := Vec3{X: 10, Y: -4, Z: 1}
	curves := EasedMove(total, 2, 8, ease.InOutCubic, start)
	if len(curves) != 8 {
		t.Fatalf("len = %d, want 8", len(curves))
	}

	var sum Vec3
	for _, c := range curves {
		if len(c.PositionDeltas) != 2 {
			t.Fatalf("curve %s deltas = %v, want constant-velocity form", c.ID, c.PositionDeltas)
		}
		// The segment's displacement at completion is velocity * window.
		sum = sum.Add(c.PositionDeltas[1].Scale(c.EffectiveTimeSeconds))
	}
	if !floatNear(sum.X, total.X) || !floatNear(sum.Y, total.Y) || !floatNear(sum.Z, total.Z) {
		t.Errorf("chain displacement = %v, want %v", sum, total)
	}
}

func TestEasedMoveWindowsBackToBack(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	curves := EasedMove(Vec3{X: 1}, 2, 8, nil, start)
	for i, c := range curves {
		if c.EffectiveTimeSeconds != 0.25 {
			t.Errorf("curve %d window = %v, want 0.25", i, c.EffectiveTimeSeconds)
		}
		want := start.Add(time.Duration(i) * 250 * time.Millisecond)
		if !c.StartTime.Equal(want) {
			t.Errorf("curve %d StartTime = %v, want %v", i, c.StartTime, want)
		}
	}
}

func TestEasedMoveLinearThroughRenderedInstance(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	inst := NewModelInstance("i", "m")
	inst.ParallelCurves = EasedMove(Vec3{X: 8}, 2, 4, nil, start)
	node := &stubNode{}
	rn := newRenderedInstance(inst, node)

	// A linear chain is uniform motion: halfway through, half the distance.
	rn.update(start.Add(time.Second))
	if !floatNear(node.position.X, 4) {
		t.Errorf("midpoint position = %v, want 4", node.position.X)
	}

	rn.update(start.Add(3 * time.Second))
	if !floatNear(node.position.X, 8) {
		t.Errorf("final position = %v, want 8", node.position.X)
	}
	if len(inst.ParallelCurves) != 0 {
		t.Errorf("%d segments still active after the chain finished", len(inst.ParallelCurves))
	}
}

func TestEasedScale(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	curves := EasedScale(3, 1, 5, ease.OutQuad, start)
	sum := 0.0
	for _, c := range curves {
		if c.PositionDeltas != nil || c.OpacityDeltas != nil {
			t.Fatalf("curve %s touches channels other than scale", c.ID)
		}
		if len(c.ScaleDeltas) != 2 {
			t.Fatalf("curve %s ScaleDeltas = %v", c.ID, c.ScaleDeltas)
		}
		sum += c.ScaleDeltas[1] * c.EffectiveTimeSeconds
	}
	if !floatNear(sum, 3) {
		t.Errorf("chain scale change = %v, want 3", sum)
	}
}

func TestEasedFade(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	curves := EasedFade(-1, 0.5, 5, ease.InSine, start)
	sum := 0.0
	for _, c := range curves {
		if len(c.OpacityDeltas) != 2 {
			t.Fatalf("curve %s OpacityDeltas = %v", c.ID, c.OpacityDeltas)
		}
		sum += c.OpacityDeltas[1] * c.EffectiveTimeSeconds
	}
	if !floatNear(sum, -1) {
		t.Errorf("chain opacity change = %v, want -1", sum)
	}
}

func TestEasedSegmentsClampedToOne(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	curves := EasedMove(Vec3{X: 2}, 4, 0, nil, start)
	if len(curves) != 1 {
		t.Fatalf("len = %d, want 1", len(curves))
	}
	if curves[0].EffectiveTimeSeconds != 4 {
		t.Errorf("window = %v, want the full duration", curves[0].EffectiveTimeSeconds)
	}
	if !floatNear(curves[0].PositionDeltas[1].X, 0.5) {
		t.Errorf("velocity = %v, want 0.5", curves[0].PositionDeltas[1].X)
	}
}

func TestEasedMoveUniqueIDs(t *testing.T) {
	start := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{})
	for _, c := range EasedMove(Vec3{X: 1}, 1, 6, nil, start) {
		if c.ID == "" {
			t.Fatal("segment with empty id")
		}
		if _, dup := seen[c.ID]; dup {
			t.Fatalf("duplicate segment id %s", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
}
