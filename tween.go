package kinetic

import (
	"time"

	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Curve authoring helpers. The evaluator's polynomial terms express
// constant, linear, and higher-order motion directly, but eased motion
// (bounce, elastic, cubic in/out) has no compact polynomial form. These
// helpers sample a gween easing function into a chain of short
// constant-velocity curves with back-to-back windows; each segment folds
// into the instance base on completion, so the chain composes exactly to
// the requested total displacement.
//
// The returned curves carry default flags; set TriggerEventOnComplete or
// RemoveInstanceOnComplete on the last segment before shipping them.

// EasedMove returns curves that move an instance by total over duration
// seconds following the easing function, starting at start. segments
// controls the sampling resolution (minimum 1). A nil fn eases linearly.
func EasedMove(total Vec3, duration float64, segments int, fn ease.TweenFunc, start time.Time) []*Curve {
	points, segDur := easedProgress(duration, &segments, fn)
	curves := make([]*Curve, 0, segments)
	for i := 0; i < segments; i++ {
		velocity := total.Scale((points[i+1] - points[i]) / segDur)
		curves = append(curves, &Curve{
			ID:                   uuid.NewString(),
			PositionDeltas:       []Vec3{{}, velocity},
			EffectiveTimeSeconds: segDur,
			StartTime:            start.Add(time.Duration(float64(i) * segDur * float64(time.Second))),
		})
	}
	return curves
}

// EasedScale is EasedMove for the scale channel: the instance's scale
// changes by total over duration seconds.
func EasedScale(total, duration float64, segments int, fn ease.TweenFunc, start time.Time) []*Curve {
	return easedScalar(total, duration, segments, fn, start, func(c *Curve, v float64) {
		c.ScaleDeltas = []float64{0, v}
	})
}

// EasedFade is EasedMove for the opacity channel: the instance's opacity
// changes by total over duration seconds.
func EasedFade(total, duration float64, segments int, fn ease.TweenFunc, start time.Time) []*Curve {
	return easedScalar(total, duration, segments, fn, start, func(c *Curve, v float64) {
		c.OpacityDeltas = []float64{0, v}
	})
}

func easedScalar(total, duration float64, segments int, fn ease.TweenFunc, start time.Time, assign func(*Curve, float64)) []*Curve {
	points, segDur := easedProgress(duration, &segments, fn)
	curves := make([]*Curve, 0, segments)
	for i := 0; i < segments; i++ {
		c := &Curve{
			ID:                   uuid.NewString(),
			EffectiveTimeSeconds: segDur,
			StartTime:            start.Add(time.Duration(float64(i) * segDur * float64(time.Second))),
		}
		assign(c, total*(points[i+1]-points[i])/segDur)
		curves = append(curves, c)
	}
	return curves
}

// easedProgress samples the easing function at segments+1 evenly spaced
// times and returns the normalized progress points plus the segment
// duration. segments is clamped to at least 1 in place.
func easedProgress(duration float64, segments *int, fn ease.TweenFunc) ([]float64, float64) {
	if *segments < 1 {
		*segments = 1
	}
	if fn == nil {
		fn = ease.Linear
	}
	n := *segments
	tw := gween.New(0, 1, float32(duration), fn)
	points := make([]float64, n+1)
	for i := 1; i < n; i++ {
		value, _ := tw.Set(float32(duration) * float32(i) / float32(n))
		points[i] = float64(value)
	}
	// Pin the endpoints so float error in the easing function cannot make
	// the chain under- or overshoot.
	points[0] = 0
	points[n] = 1
	return points, duration / float64(n)
}
