package kinetic

// NodeHandle is a live scene node owned by the backend. The engine writes
// an instance's evaluated position to its node once per tick; rotation,
// scale, and opacity are computed by the core but applying them is the
// backend's responsibility.
type NodeHandle interface {
	SetPosition(Vec3)
	Position() Vec3
	Rotation() Vec3
	Scale() float64
	Opacity() float64
	Release()
}

// TextNodeHandle is optionally implemented by text nodes. When a SetText
// delta lands on a rendered text instance whose node implements it, the
// engine pushes the new content through.
type TextNodeHandle interface {
	NodeHandle
	SetText(string)
}

// ModelHandle is an opaque loaded model asset.
type ModelHandle interface{ Release() }

// FontHandle is an opaque loaded font asset.
type FontHandle interface{ Release() }

// TextureHandle is an opaque loaded texture asset.
type TextureHandle interface{ Release() }

// Backend is the rendering collaborator the engine drives. Implementations
// own the node graph, asset loading, pointer device, window, and the frame
// loop; the engine owns all simulation state.
//
// All methods are invoked from the goroutine that runs the frame loop,
// except AddFrameTask and Run/Stop which bracket it.
type Backend interface {
	// Root returns the scene root node that parentless instances attach to.
	Root() NodeHandle

	// Camera returns the backend camera node.
	Camera() NodeHandle

	// AttachNode creates a new empty node under parent.
	AttachNode(parent NodeHandle) NodeHandle

	// LoadModel loads a model asset from path.
	LoadModel(path string) (ModelHandle, error)

	// Instantiate makes node render the given model.
	Instantiate(model ModelHandle, node NodeHandle) error

	// LoadFont loads a font asset from path.
	LoadFont(path string) (FontHandle, error)

	// CreateTextNode creates a node under parent that renders text with the
	// given font.
	CreateTextNode(parent NodeHandle, font FontHandle, text string) (NodeHandle, error)

	// LoadTexture loads a texture asset from path.
	LoadTexture(path string) (TextureHandle, error)

	// CreateImageNode creates a node under parent that renders the texture
	// on a width x height card.
	CreateImageNode(parent NodeHandle, width, height float64, texture TextureHandle) (NodeHandle, error)

	// PollPointer reports the pointer location, or ok=false when the
	// pointer is unavailable this frame.
	PollPointer() (x, y float64, ok bool)

	// HideCursor hides and captures the pointer; ShowCursor restores it.
	HideCursor()
	ShowCursor()

	// AddFrameTask registers a task invoked once per frame, in registration
	// order, for the lifetime of the loop. Must be called before Run.
	AddFrameTask(task func())

	// Run enters the frame loop and blocks until Stop is called.
	Run() error

	// Stop makes Run return. Safe to call from any goroutine.
	Stop()
}
