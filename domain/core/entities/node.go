package entities

import (
	"mindboard/domain/config"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

// Node is the only entity on a board.
//
// Node is an immutable value: every mutation returns a modified copy. A slice
// of nodes is therefore a complete, independent snapshot once copied, which is
// what the history log stores.
type Node struct {
	id       valueobjects.NodeID
	body     Body
	label    string
	position valueobjects.Point // top-left corner, document space
	size     valueobjects.Size
	parentID valueobjects.NodeID
	color    string
}

// NewNode creates a node descriptor without an id. Boards assign the id when
// the descriptor is added.
func NewNode(body Body, label string, position valueobjects.Point, size valueobjects.Size, color string) (Node, error) {
	if body == nil {
		return Node{}, pkgerrors.NewValidation("node body cannot be nil")
	}
	if !position.IsFinite() {
		return Node{}, pkgerrors.NewValidation("invalid coordinates: must be finite numbers")
	}
	if _, err := valueobjects.NewSize(size.Width, size.Height); err != nil {
		return Node{}, err
	}

	return Node{
		body:     body,
		label:    label,
		position: position,
		size:     size,
		color:    color,
	}, nil
}

// NewDefaultNode creates a descriptor with the kind's default size, color and
// label, centered on the given document point.
func NewDefaultNode(body Body, center valueobjects.Point, cfg *config.DomainConfig) Node {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	d := cfg.KindDefaults(string(body.Kind()))
	size := valueobjects.Size{Width: d.Width, Height: d.Height}
	half := size.Half()

	return Node{
		body:     body,
		label:    d.Label,
		position: valueobjects.Point{X: center.X - half.X, Y: center.Y - half.Y},
		size:     size,
		color:    d.Color,
	}
}

// ReconstructNode rebuilds a node loaded from storage
func ReconstructNode(
	id valueobjects.NodeID,
	body Body,
	label string,
	position valueobjects.Point,
	size valueobjects.Size,
	parentID valueobjects.NodeID,
	color string,
) (Node, error) {
	if id.IsZero() {
		return Node{}, pkgerrors.NewValidation("node id cannot be empty")
	}

	node, err := NewNode(body, label, position, size, color)
	if err != nil {
		return Node{}, err
	}
	node.id = id
	node.parentID = parentID
	return node, nil
}

// ID returns the node's unique identifier
func (n Node) ID() valueobjects.NodeID {
	return n.id
}

// Kind returns the node's kind tag
func (n Node) Kind() Kind {
	if n.body == nil {
		return ""
	}
	return n.body.Kind()
}

// Body returns the kind-specific variant
func (n Node) Body() Body {
	return n.body
}

// Label returns the text content; for stickers this is the glyph
func (n Node) Label() string {
	return n.label
}

// Position returns the top-left corner in document space
func (n Node) Position() valueobjects.Point {
	return n.position
}

// Size returns the node's extent
func (n Node) Size() valueobjects.Size {
	return n.size
}

// Bounds returns the node's rectangle in document space
func (n Node) Bounds() valueobjects.Rect {
	return valueobjects.RectAt(n.position, n.size)
}

// Center returns the center of the node's bounds
func (n Node) Center() valueobjects.Point {
	return n.Bounds().Center()
}

// ParentID returns the parent id; the zero id means the node has no parent
func (n Node) ParentID() valueobjects.NodeID {
	return n.parentID
}

// HasParent reports whether the node points at a parent
func (n Node) HasParent() bool {
	return !n.parentID.IsZero()
}

// Color returns the semantic color tag
func (n Node) Color() string {
	return n.color
}

// Shape returns the shape kind for shape nodes
func (n Node) Shape() (ShapeKind, bool) {
	if b, ok := n.body.(ShapeBody); ok {
		return b.Shape, true
	}
	return "", false
}

// WithID returns a copy carrying the given id
func (n Node) WithID(id valueobjects.NodeID) Node {
	n.id = id
	return n
}

// WithLabel returns a copy with new text
func (n Node) WithLabel(label string) Node {
	n.label = label
	return n
}

// WithPosition returns a copy moved to a new top-left corner
func (n Node) WithPosition(p valueobjects.Point) (Node, error) {
	if !p.IsFinite() {
		return n, pkgerrors.NewValidation("invalid coordinates: must be finite numbers")
	}
	n.position = p
	return n, nil
}

// Translate returns a copy moved by a document-space delta
func (n Node) Translate(dx, dy float64) (Node, error) {
	return n.WithPosition(n.position.Add(dx, dy))
}

// WithSize returns a resized copy
func (n Node) WithSize(size valueobjects.Size) (Node, error) {
	if _, err := valueobjects.NewSize(size.Width, size.Height); err != nil {
		return n, err
	}
	n.size = size
	return n, nil
}

// WithParent returns a copy pointing at a new parent; the zero id detaches it
func (n Node) WithParent(parentID valueobjects.NodeID) Node {
	n.parentID = parentID
	return n
}

// WithColor returns a recolored copy
func (n Node) WithColor(color string) Node {
	n.color = color
	return n
}

// WithShape returns a copy with a different outline. Only shape nodes have one.
func (n Node) WithShape(shape ShapeKind) (Node, error) {
	if _, ok := n.body.(ShapeBody); !ok {
		return n, pkgerrors.NewInvalidTransition("only shape nodes have a shape kind")
	}
	if _, err := ParseShapeKind(string(shape)); err != nil {
		return n, err
	}
	n.body = ShapeBody{Shape: shape}
	return n, nil
}

// CloneNodes returns an independent copy of a node slice
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}
