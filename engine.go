package kinetic

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler consumes an event. Handlers registered in Config are invoked on
// the simulation goroutine, so they may call the engine's mutating methods
// directly.
type Handler func(*Engine, *Event)

// Config configures a new Engine.
type Config struct {
	// ID identifies this engine in emitted events and camera binding. A
	// fresh uuid is generated when empty.
	ID string

	// Role selects which subscription set instances are indexed under.
	Role Role

	// Declared assets instances may reference. See also Manifest.
	Models []Model
	Fonts  []Font
	Images []Image

	// Handlers maps event types to their consumer. Absent types are not
	// emitted at all.
	Handlers map[EventType]Handler

	// Debug enables verbose lifecycle logging.
	Debug bool
}

// commandQueueCap bounds the external mutation queue. Posts beyond the cap
// are dropped with a log line rather than blocking a producer.
const commandQueueCap = 256

// Engine is the simulation core: the registry of instances and their
// rendered bindings, the reverse event-subscription index, the per-tick
// evaluation loop, and the delta application entry point.
//
// All engine state is owned by the simulation goroutine (the backend frame
// loop). External goroutines, including the Start callback, must funnel
// mutations through Post.
type Engine struct {
	id      string
	role    Role
	backend Backend

	handlers map[EventType]Handler
	debug    bool

	models map[string]Model
	fonts  map[string]Font
	images map[string]Image

	// Loaded-asset caches: an asset referenced by several instances is
	// loaded once.
	modelHandles   map[string]ModelHandle
	fontHandles    map[string]FontHandle
	textureHandles map[string]TextureHandle

	instances map[string]*Instance
	rendered  map[string]*renderedInstance

	// byEventType is the reverse subscription index, partitioned by role at
	// registration time via Instance.VisibleEventTypes.
	byEventType map[EventType]map[*renderedInstance]struct{}

	// toRemove stages instances flagged for removal during the tick's
	// iteration; removal commits after the iteration completes.
	toRemove map[*renderedInstance]struct{}

	commands chan func()

	pointerClock frameClock
	pointerX     float64
	pointerY     float64
	pointerSeen  bool

	mu       sync.Mutex
	readyErr error
	disposed bool
	loopDone chan struct{}
}

// New creates an engine bound to a backend. The backend's frame loop is not
// started; call Start. When cfg.Role is RoleClient the cursor is hidden
// immediately, matching a client that drives its camera from pointer motion.
func New(backend Backend, cfg Config) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("kinetic: nil backend")
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	for et := range cfg.Handlers {
		if !et.valid() {
			return nil, fmt.Errorf("kinetic: handler for event type %q: %w", et, ErrUnsupportedVariant)
		}
	}

	e := &Engine{
		id:             id,
		role:           cfg.Role,
		backend:        backend,
		handlers:       cfg.Handlers,
		debug:          cfg.Debug,
		models:         make(map[string]Model, len(cfg.Models)),
		fonts:          make(map[string]Font, len(cfg.Fonts)),
		images:         make(map[string]Image, len(cfg.Images)),
		modelHandles:   make(map[string]ModelHandle),
		fontHandles:    make(map[string]FontHandle),
		textureHandles: make(map[string]TextureHandle),
		instances:      make(map[string]*Instance),
		rendered:       make(map[string]*renderedInstance),
		byEventType:    make(map[EventType]map[*renderedInstance]struct{}),
		toRemove:       make(map[*renderedInstance]struct{}),
		commands:       make(chan func(), commandQueueCap),
	}
	for _, m := range cfg.Models {
		e.models[m.ID] = m
	}
	for _, f := range cfg.Fonts {
		e.fonts[f.ID] = f
	}
	for _, img := range cfg.Images {
		e.images[img.ID] = img
	}
	for _, et := range EventTypes() {
		e.byEventType[et] = make(map[*renderedInstance]struct{})
	}
	if e.role == RoleClient {
		backend.HideCursor()
	}
	return e, nil
}

// ID returns the engine's identity, used as source_render_engine_uuid in
// emitted events.
func (e *Engine) ID() string { return e.id }

// Post schedules fn on the simulation goroutine. Queued functions run at
// the head of the next tick, before curve evaluation. This is the only safe
// mutation path from the Start callback or any other external goroutine;
// handlers invoked by the engine already run on the simulation goroutine
// and call the mutating methods directly.
//
// Post reports whether fn was accepted. When the queue is full the command
// is dropped and Post returns false; the caller decides whether to retry.
func (e *Engine) Post(fn func()) bool {
	select {
	case e.commands <- fn:
		return true
	default:
		log.Printf("kinetic: command queue full, dropping posted command")
		return false
	}
}

// drainCommands runs every queued external command.
func (e *Engine) drainCommands() {
	for {
		select {
		case fn := <-e.commands:
			fn()
		default:
			return
		}
	}
}

// RegisterInstances binds instances to backend nodes and indexes their
// event subscriptions. Parentless instances attach to the scene root;
// children attach to their parent's node, so parents must be registered
// first (in the same batch or earlier).
//
// A reference to an undeclared model/font/image id fails with
// ErrResourceNotFound. The failure is immediate: instances processed
// earlier in the batch stay registered.
//
// Must be called on the simulation goroutine (directly from a handler, or
// via Post).
func (e *Engine) RegisterInstances(instances []*Instance) error {
	for _, inst := range instances {
		if err := e.registerInstance(inst); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) registerInstance(inst *Instance) error {
	e.instances[inst.ID] = inst

	parent := e.backend.Root()
	if inst.ParentInstanceID != "" {
		parentRendered, ok := e.rendered[inst.ParentInstanceID]
		if !ok {
			return fmt.Errorf("kinetic: register %q: parent %q: %w",
				inst.ID, inst.ParentInstanceID, ErrInstanceNotFound)
		}
		parent = parentRendered.node
	}

	var node NodeHandle
	switch inst.Type {
	case InstanceModel:
		model, ok := e.models[inst.ModelID]
		if !ok {
			return fmt.Errorf("kinetic: register %q: model %q: %w", inst.ID, inst.ModelID, ErrResourceNotFound)
		}
		handle, ok := e.modelHandles[model.ID]
		if !ok {
			loaded, err := e.backend.LoadModel(model.Path)
			if err != nil {
				return fmt.Errorf("kinetic: register %q: load model %q: %w", inst.ID, model.ID, err)
			}
			e.modelHandles[model.ID] = loaded
			handle = loaded
		}
		node = e.backend.AttachNode(parent)
		if err := e.backend.Instantiate(handle, node); err != nil {
			return fmt.Errorf("kinetic: register %q: instantiate model %q: %w", inst.ID, model.ID, err)
		}

	case InstanceText:
		font, ok := e.fonts[inst.FontID]
		if !ok {
			return fmt.Errorf("kinetic: register %q: font %q: %w", inst.ID, inst.FontID, ErrResourceNotFound)
		}
		handle, ok := e.fontHandles[font.ID]
		if !ok {
			loaded, err := e.backend.LoadFont(font.Path)
			if err != nil {
				return fmt.Errorf("kinetic: register %q: load font %q: %w", inst.ID, font.ID, err)
			}
			e.fontHandles[font.ID] = loaded
			handle = loaded
		}
		created, err := e.backend.CreateTextNode(parent, handle, inst.Text)
		if err != nil {
			return fmt.Errorf("kinetic: register %q: create text node: %w", inst.ID, err)
		}
		node = created

	case InstanceImage:
		image, ok := e.images[inst.ImageID]
		if !ok {
			return fmt.Errorf("kinetic: register %q: image %q: %w", inst.ID, inst.ImageID, ErrResourceNotFound)
		}
		handle, ok := e.textureHandles[image.ID]
		if !ok {
			loaded, err := e.backend.LoadTexture(image.Path)
			if err != nil {
				return fmt.Errorf("kinetic: register %q: load texture %q: %w", inst.ID, image.ID, err)
			}
			e.textureHandles[image.ID] = loaded
			handle = loaded
		}
		created, err := e.backend.CreateImageNode(parent, image.Width, image.Height, handle)
		if err != nil {
			return fmt.Errorf("kinetic: register %q: create image node: %w", inst.ID, err)
		}
		node = created

	case InstanceCamera:
		// A camera binds only on the client engine it belongs to. Other
		// hosts keep the instance data but render nothing for it.
		if e.role == RoleClient && inst.ClientID == e.id {
			node = e.backend.Camera()
		}

	default:
		return fmt.Errorf("kinetic: register %q: instance type %q: %w", inst.ID, inst.Type, ErrUnsupportedVariant)
	}

	if node == nil {
		return nil
	}
	rn := newRenderedInstance(inst, node)
	e.rendered[inst.ID] = rn
	for _, et := range inst.VisibleEventTypes(e.role) {
		if bucket, ok := e.byEventType[et]; ok {
			bucket[rn] = struct{}{}
		}
	}
	if e.debug {
		log.Printf("kinetic: registered instance %s (%s)", inst.ID, inst.Type)
	}
	return nil
}

// ApplyInstanceDeltas applies each delta to its target instance. A delta
// addressing an unknown instance id fails with ErrInstanceNotFound and
// stops the batch; earlier deltas stay applied.
//
// Must be called on the simulation goroutine (directly from a handler, or
// via Post).
func (e *Engine) ApplyInstanceDeltas(deltas []*InstanceDelta) error {
	for _, delta := range deltas {
		inst, ok := e.instances[delta.InstanceID]
		if !ok {
			return fmt.Errorf("kinetic: delta %s: instance %q: %w",
				delta.ID, delta.InstanceID, ErrInstanceNotFound)
		}
		if err := delta.Apply(inst); err != nil {
			return err
		}
		if delta.Type == DeltaSetText {
			if rn, ok := e.rendered[inst.ID]; ok {
				if tn, ok := rn.node.(TextNodeHandle); ok {
					tn.SetText(inst.Text)
				}
			}
		}
	}
	return nil
}

// InstanceStatesByEventType snapshots every rendered instance currently
// subscribed to the given event type under the engine's role.
func (e *Engine) InstanceStatesByEventType(et EventType) []InstanceState {
	bucket := e.byEventType[et]
	states := make([]InstanceState, 0, len(bucket))
	for rn := range bucket {
		states = append(states, rn.state())
	}
	return states
}

// update is the per-frame simulation task.
func (e *Engine) update() {
	e.drainCommands()
	e.Step(time.Now().UTC())
}

// Step advances the simulation one tick at the given time: evaluate every
// rendered instance, commit staged removals, then emit one CurveCompleted
// event per curve id completed this tick. Exposed for headless operation
// and deterministic tests; the frame task calls it with wall-clock time.
func (e *Engine) Step(now time.Time) {
	completed := make(map[string]struct{})

	for _, rn := range e.rendered {
		rn.update(now)
		for _, id := range rn.popCompletedCurveIDs() {
			completed[id] = struct{}{}
		}
		if rn.popRemoveInstance() {
			e.toRemove[rn] = struct{}{}
			if e.debug {
				log.Printf("kinetic: removing instance %s", rn.instance.ID)
			}
		}
	}

	if len(e.toRemove) > 0 {
		for rn := range e.toRemove {
			inst := rn.instance
			delete(e.rendered, inst.ID)
			delete(e.instances, inst.ID)
			for _, et := range inst.VisibleEventTypes(e.role) {
				if bucket, ok := e.byEventType[et]; ok {
					delete(bucket, rn)
				}
			}
			rn.node.Release()
		}
		clear(e.toRemove)
	}

	if len(completed) == 0 {
		return
	}
	handler, ok := e.handlers[EventCurveCompleted]
	if !ok {
		return
	}
	// One event per completed curve id, all sharing this tick's snapshot of
	// the CurveCompleted subscribers.
	states := e.InstanceStatesByEventType(EventCurveCompleted)
	for id := range completed {
		handler(e, newCurveCompletedEvent(id, e.id, states, now))
	}
}

// pollPointer is the input-poll frame task, scheduled independently of the
// simulation task. It emits one MouseMoved event per frame in which the
// pointer moved.
func (e *Engine) pollPointer() {
	now := time.Now().UTC()
	dt := e.pointerClock.tick(now)

	x, y, ok := e.backend.PollPointer()
	if !ok {
		return
	}
	if e.pointerSeen && x == e.pointerX && y == e.pointerY {
		return
	}
	dx := x - e.pointerX
	dy := y - e.pointerY
	first := !e.pointerSeen
	e.pointerX, e.pointerY = x, y
	e.pointerSeen = true
	if first {
		// Establish the reference position; a delta from the origin would
		// be a spurious jump.
		return
	}

	handler, ok := e.handlers[EventMouseMoved]
	if !ok {
		return
	}
	states := e.InstanceStatesByEventType(EventMouseMoved)
	handler(e, newMouseMovedEvent(dx, dy, dt, e.id, states, now))
}

// Start registers the engine's frame tasks, launches onReady on its own
// goroutine, and enters the backend frame loop. It blocks until Stop is
// requested through Dispose (or the backend loop ends on its own).
//
// onReady runs concurrently with the first frames so setup work cannot
// stall them; an error it returns is captured and surfaced by Dispose.
func (e *Engine) Start(onReady func(*Engine) error) error {
	e.backend.AddFrameTask(e.update)
	e.backend.AddFrameTask(e.pollPointer)

	done := make(chan struct{})
	e.mu.Lock()
	e.loopDone = done
	e.mu.Unlock()
	defer close(done)

	if onReady != nil {
		go func() {
			if err := onReady(e); err != nil {
				e.mu.Lock()
				if e.readyErr == nil {
					e.readyErr = err
				}
				e.mu.Unlock()
			}
		}()
	}

	if e.debug {
		log.Printf("kinetic: engine %s entering frame loop", e.id)
	}
	return e.backend.Run()
}

// Dispose stops the frame loop, waits for it to exit, releases every loaded
// backend asset, and returns the error captured from the Start callback, if
// any. The asset maps belong to the simulation goroutine, so the release
// pass must not begin until the loop is gone.
//
// Call Dispose from outside the frame loop (the Start callback's goroutine,
// or after Start returns); calling it from a handler would wait on the very
// loop the handler is running in. Calling it a second time returns
// ErrEngineDisposed without touching the backend again.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrEngineDisposed
	}
	e.disposed = true
	done := e.loopDone
	e.mu.Unlock()

	e.backend.Stop()
	if done != nil {
		<-done
	}

	for _, handle := range e.modelHandles {
		handle.Release()
	}
	for _, handle := range e.fontHandles {
		handle.Release()
	}
	for _, handle := range e.textureHandles {
		handle.Release()
	}

	e.mu.Lock()
	readyErr := e.readyErr
	e.mu.Unlock()

	if e.debug {
		log.Printf("kinetic: engine %s disposed", e.id)
	}
	return readyErr
}
