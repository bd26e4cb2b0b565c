// Package ebitenbackend is a reference kinetic.Backend built on
// [Ebitengine]. It renders the engine's scene as a flat 2D projection:
// model and image instances draw as sprites, text instances draw with TTF
// fonts, and the camera node's X/Y offsets the view. It exists so the
// simulation core can be run, demoed, and eyeballed without a full 3D
// renderer; any engine that satisfies kinetic.Backend can replace it.
//
// [Ebitengine]: https://ebitengine.org
package ebitenbackend

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/kinetic"
)

// defaultFontSize is the face size text nodes render at; the node's scale
// multiplies on top.
const defaultFontSize = 16

// Config configures the window and frame loop.
type Config struct {
	Title  string
	Width  int
	Height int
}

// Backend implements kinetic.Backend on ebiten.
type Backend struct {
	cfg    Config
	root   *node
	camera *node
	tasks  []func()

	stopped atomic.Bool
}

// New creates a backend. The window is not opened until Run.
func New(cfg Config) *Backend {
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	return &Backend{
		cfg:    cfg,
		root:   newNode(kindContainer),
		camera: newNode(kindContainer),
	}
}

// Root returns the scene root node.
func (b *Backend) Root() kinetic.NodeHandle { return b.root }

// Camera returns the camera node. Its X/Y position offsets the view.
func (b *Backend) Camera() kinetic.NodeHandle { return b.camera }

// AttachNode creates an empty container node under parent.
func (b *Backend) AttachNode(parent kinetic.NodeHandle) kinetic.NodeHandle {
	n := newNode(kindContainer)
	parent.(*node).addChild(n)
	return n
}

// modelAsset is a loaded model: in this backend, a single image.
type modelAsset struct {
	image *ebiten.Image
}

// Release deallocates the image's GPU memory.
func (m *modelAsset) Release() { m.image.Deallocate() }

// fontAsset wraps a parsed TTF source.
type fontAsset struct {
	source *text.GoTextFaceSource
}

// Release is a no-op; font sources hold no GPU resources.
func (f *fontAsset) Release() {}

// textureAsset is a loaded texture image.
type textureAsset struct {
	image *ebiten.Image
}

// Release deallocates the image's GPU memory.
func (t *textureAsset) Release() { t.image.Deallocate() }

// LoadModel loads an image file as this backend's stand-in for a model.
func (b *Backend) LoadModel(path string) (kinetic.ModelHandle, error) {
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebitenbackend: load model %s: %w", path, err)
	}
	return &modelAsset{image: img}, nil
}

// Instantiate makes node draw the model's image.
func (b *Backend) Instantiate(model kinetic.ModelHandle, handle kinetic.NodeHandle) error {
	asset, ok := model.(*modelAsset)
	if !ok {
		return fmt.Errorf("ebitenbackend: instantiate: foreign model handle %T", model)
	}
	n := handle.(*node)
	n.kind = kindSprite
	n.image = asset.image
	return nil
}

// LoadFont parses a TTF/OTF file.
func (b *Backend) LoadFont(path string) (kinetic.FontHandle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebitenbackend: load font %s: %w", path, err)
	}
	source, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ebitenbackend: parse font %s: %w", path, err)
	}
	return &fontAsset{source: source}, nil
}

// CreateTextNode creates a text node under parent.
func (b *Backend) CreateTextNode(parent kinetic.NodeHandle, font kinetic.FontHandle, content string) (kinetic.NodeHandle, error) {
	asset, ok := font.(*fontAsset)
	if !ok {
		return nil, fmt.Errorf("ebitenbackend: create text node: foreign font handle %T", font)
	}
	n := newNode(kindText)
	n.text = content
	n.face = &text.GoTextFace{Source: asset.source, Size: defaultFontSize}
	parent.(*node).addChild(n)
	return n, nil
}

// LoadTexture loads an image file.
func (b *Backend) LoadTexture(path string) (kinetic.TextureHandle, error) {
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebitenbackend: load texture %s: %w", path, err)
	}
	return &textureAsset{image: img}, nil
}

// CreateImageNode creates a node under parent that draws the texture
// stretched to a width x height card.
func (b *Backend) CreateImageNode(parent kinetic.NodeHandle, width, height float64, texture kinetic.TextureHandle) (kinetic.NodeHandle, error) {
	asset, ok := texture.(*textureAsset)
	if !ok {
		return nil, fmt.Errorf("ebitenbackend: create image node: foreign texture handle %T", texture)
	}
	n := newNode(kindImage)
	n.image = asset.image
	n.width = width
	n.height = height
	parent.(*node).addChild(n)
	return n, nil
}

// PollPointer reports the cursor position in screen coordinates.
func (b *Backend) PollPointer() (x, y float64, ok bool) {
	cx, cy := ebiten.CursorPosition()
	return float64(cx), float64(cy), true
}

// HideCursor hides and captures the cursor.
func (b *Backend) HideCursor() {
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)
}

// ShowCursor restores the cursor.
func (b *Backend) ShowCursor() {
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
}

// AddFrameTask registers a per-frame task. Must be called before Run.
func (b *Backend) AddFrameTask(task func()) {
	b.tasks = append(b.tasks, task)
}

// Run opens the window and enters the ebiten game loop, invoking the
// registered frame tasks once per update in registration order. It blocks
// until Stop is called or the window closes.
func (b *Backend) Run() error {
	ebiten.SetWindowTitle(b.cfg.Title)
	ebiten.SetWindowSize(b.cfg.Width, b.cfg.Height)
	err := ebiten.RunGame(&game{backend: b})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Stop makes Run return at the next frame boundary. Safe from any goroutine.
func (b *Backend) Stop() {
	b.stopped.Store(true)
}

// game adapts Backend to ebiten.Game.
type game struct {
	backend *Backend
}

func (g *game) Update() error {
	if g.backend.stopped.Load() {
		return ebiten.Termination
	}
	for _, task := range g.backend.tasks {
		task()
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	cam := g.backend.camera.position
	g.backend.drawNode(screen, g.backend.root, -cam.X, -cam.Y)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.backend.cfg.Width, g.backend.cfg.Height
}

// drawNode draws n and then its children, composing positions down the
// tree. offsetX/offsetY already include the camera offset and all ancestor
// positions.
func (b *Backend) drawNode(screen *ebiten.Image, n *node, offsetX, offsetY float64) {
	x := offsetX + n.position.X
	y := offsetY + n.position.Y

	switch n.kind {
	case kindSprite:
		if n.image != nil {
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(n.worldScale(), n.worldScale())
			op.GeoM.Rotate(n.rotation.Z)
			op.GeoM.Translate(x, y)
			op.ColorScale.ScaleAlpha(float32(n.worldOpacity()))
			screen.DrawImage(n.image, op)
		}
	case kindImage:
		if n.image != nil {
			op := &ebiten.DrawImageOptions{}
			bounds := n.image.Bounds()
			if bounds.Dx() > 0 && bounds.Dy() > 0 {
				op.GeoM.Scale(n.width/float64(bounds.Dx()), n.height/float64(bounds.Dy()))
			}
			op.GeoM.Scale(n.worldScale(), n.worldScale())
			op.GeoM.Translate(x, y)
			op.ColorScale.ScaleAlpha(float32(n.worldOpacity()))
			screen.DrawImage(n.image, op)
		}
	case kindText:
		if n.face != nil && n.text != "" {
			op := &text.DrawOptions{}
			op.GeoM.Scale(n.worldScale(), n.worldScale())
			op.GeoM.Translate(x, y)
			op.ColorScale.ScaleAlpha(float32(n.worldOpacity()))
			text.Draw(screen, n.text, n.face, op)
		}
	}

	for _, child := range n.children {
		b.drawNode(screen, child, x, y)
	}
}
