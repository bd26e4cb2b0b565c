package ebitenbackend

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/kinetic"
)

// nodeKind distinguishes drawing behavior. A single flat struct covers all
// node kinds; only the fields of the active kind are used.
type nodeKind uint8

const (
	kindContainer nodeKind = iota // no visual output
	kindSprite                    // draws a model image
	kindText                      // draws text with a font face
	kindImage                     // draws a texture on a fixed-size card
)

// node is the backend's scene node. It implements kinetic.NodeHandle (and
// kinetic.TextNodeHandle for text nodes). Transform fields are local; the
// draw traversal composes them onto the parent's.
//
// This backend projects the engine's 3D transform onto the XY plane: Z is
// carried through the accessors untouched but does not affect drawing, and
// only the Z component of the rotation (roll) rotates the image.
type node struct {
	parent   *node
	children []*node

	position kinetic.Vec3
	rotation kinetic.Vec3
	scale    float64
	opacity  float64

	kind nodeKind

	// kindSprite / kindImage
	image *ebiten.Image

	// kindImage card size in world units
	width, height float64

	// kindText
	text string
	face *text.GoTextFace

	released bool
}

func newNode(kind nodeKind) *node {
	return &node{kind: kind, scale: 1, opacity: 1}
}

// addChild links child under n.
func (n *node) addChild(child *node) {
	child.parent = n
	n.children = append(n.children, child)
}

// SetPosition sets the node's local position.
func (n *node) SetPosition(p kinetic.Vec3) { n.position = p }

// Position returns the node's local position.
func (n *node) Position() kinetic.Vec3 { return n.position }

// Rotation returns the node's local rotation.
func (n *node) Rotation() kinetic.Vec3 { return n.rotation }

// Scale returns the node's local scale.
func (n *node) Scale() float64 { return n.scale }

// Opacity returns the node's local opacity.
func (n *node) Opacity() float64 { return n.opacity }

// SetText replaces the node's text content. Only meaningful for text nodes.
func (n *node) SetText(s string) { n.text = s }

// Release detaches the node (and therefore its subtree) from the scene.
func (n *node) Release() {
	n.released = true
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, sibling := range siblings {
		if sibling == n {
			n.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// worldPosition composes local positions up the parent chain.
func (n *node) worldPosition() kinetic.Vec3 {
	p := n.position
	for cur := n.parent; cur != nil; cur = cur.parent {
		p = p.Add(cur.position)
	}
	return p
}

// worldScale composes local scales up the parent chain.
func (n *node) worldScale() float64 {
	s := n.scale
	for cur := n.parent; cur != nil; cur = cur.parent {
		s *= cur.scale
	}
	return s
}

// worldOpacity composes local opacities up the parent chain.
func (n *node) worldOpacity() float64 {
	o := n.opacity
	for cur := n.parent; cur != nil; cur = cur.parent {
		o *= cur.opacity
	}
	return o
}
