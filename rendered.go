package kinetic

import "time"

// renderedInstance binds one Instance to one backend node for the
// instance's lifetime. It owns the accumulation state: base is the settled
// transform contributed by every curve that has already completed; scratch
// is recomputed from base plus all still-active curves each tick.
//
// It also owns the per-tick event buffers (completed curve ids, pending
// removal), which the engine drains exactly once per tick.
type renderedInstance struct {
	instance *Instance
	node     NodeHandle

	base    Transform
	scratch Transform

	// staged holds curves marked for removal during iteration; they are
	// committed in a second pass. Mutating ParallelCurves mid-iteration is
	// a correctness bug, not a style choice.
	staged map[*Curve]struct{}

	completedCurveIDs map[string]struct{}
	removeInstance    bool
}

func newRenderedInstance(inst *Instance, node NodeHandle) *renderedInstance {
	return &renderedInstance{
		instance:          inst,
		node:              node,
		staged:            make(map[*Curve]struct{}),
		completedCurveIDs: make(map[string]struct{}),
	}
}

// update advances the instance one tick. Each active curve is in exactly one
// state per frame:
//
//   - not started: now precedes StartTime, skipped entirely
//   - zero duration: staged for removal, never evaluated
//   - active: evaluated into scratch
//   - completed: evaluated, folded into base, staged for removal
//
// The resulting position is written to the backend node once.
func (r *renderedInstance) update(now time.Time) {
	r.scratch = r.base

	for _, curve := range r.instance.ParallelCurves {
		if now.Before(curve.StartTime) {
			continue
		}
		if curve.EffectiveTimeSeconds == 0 {
			r.staged[curve] = struct{}{}
			continue
		}
		elapsed := ElapsedWithin(curve.StartTime, curve.EffectiveTimeSeconds, now)
		if elapsed <= 0 {
			continue
		}
		contribution, completed := curve.Evaluate(elapsed)
		r.scratch.add(contribution)
		if completed {
			// Fold the curve's total displacement into the settled base so
			// that later curves compose on top of it.
			r.base.add(contribution)
			r.staged[curve] = struct{}{}
		}
	}

	r.node.SetPosition(r.scratch.Position)

	if len(r.staged) > 0 {
		for curve := range r.staged {
			r.instance.removeParallelCurve(curve)
			if curve.TriggerEventOnComplete {
				r.completedCurveIDs[curve.ID] = struct{}{}
			}
			if curve.RemoveInstanceOnComplete {
				r.removeInstance = true
			}
		}
		clear(r.staged)
	}
}

// popCompletedCurveIDs drains the completed-curve buffer. Reading clears it,
// so a completion is observable exactly once.
func (r *renderedInstance) popCompletedCurveIDs() []string {
	if len(r.completedCurveIDs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.completedCurveIDs))
	for id := range r.completedCurveIDs {
		ids = append(ids, id)
	}
	clear(r.completedCurveIDs)
	return ids
}

// popRemoveInstance drains the pending-removal flag.
func (r *renderedInstance) popRemoveInstance() bool {
	if !r.removeInstance {
		return false
	}
	r.removeInstance = false
	return true
}

// state snapshots the instance with the transform currently observed on the
// backend node.
func (r *renderedInstance) state() InstanceState {
	return InstanceState{
		Instance: r.instance,
		Position: r.node.Position(),
		Rotation: r.node.Rotation(),
		Scale:    r.node.Scale(),
		Opacity:  r.node.Opacity(),
	}
}
