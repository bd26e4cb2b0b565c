// Package kinetic is a deterministic animation-and-replication core for
// scene entities rendered by a pluggable backend.
//
// Kinetic owns no rendering of its own. It evaluates time-bounded polynomial
// motion curves ([Curve]) attached to scene entities ([Instance]), writes the
// resulting positions to backend nodes once per tick, emits domain events
// (curve completion, pointer motion), and applies id-addressed mutation
// commands ([InstanceDelta]) safely from a single simulation goroutine.
//
// # Quick start
//
//	backend := ebitenbackend.New(ebitenbackend.Config{
//		Title: "demo", Width: 640, Height: 480,
//	})
//	engine, err := kinetic.New(backend, kinetic.Config{
//		Role:   kinetic.RoleClient,
//		Models: []kinetic.Model{{ID: "ship", Path: "assets/ship.png"}},
//		Handlers: map[kinetic.EventType]kinetic.Handler{
//			kinetic.EventCurveCompleted: onCurveCompleted,
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = engine.Start(func(e *kinetic.Engine) error {
//		e.Post(func() {
//			if err := e.RegisterInstances(instances); err != nil {
//				log.Printf("register: %v", err)
//			}
//		})
//		return nil
//	})
//
// Start blocks inside the backend's frame loop. The callback passed to Start
// runs concurrently with the first frames; it must route mutations through
// [Engine.Post] so that the simulation goroutine stays the sole writer of
// engine state. Event handlers are invoked on the simulation goroutine and
// may call [Engine.ApplyInstanceDeltas] directly.
//
// # Curves
//
// A [Curve] describes motion on four channels (position, rotation, scale,
// opacity) as polynomial delta terms: term k contributes delta[k]*t^k/k! at
// elapsed time t within the curve's window. When the window closes the
// curve's final contribution is folded into the instance's base transform
// and the curve is discarded, so later curves compose on top of it.
//
// # Replication
//
// Every wire type ([Curve], [Instance], [InstanceDelta], [Event]) has a
// stable JSON form that round-trips with microsecond timestamp precision,
// so an authority engine can mirror state into client engines by shipping
// instances and deltas.
//
// A reference backend built on [Ebitengine] lives in the ebitenbackend
// subpackage; any renderer that can satisfy [Backend] will do.
//
// [Ebitengine]: https://ebitengine.org
package kinetic
