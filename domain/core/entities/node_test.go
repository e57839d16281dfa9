package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindboard/domain/config"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

func TestNewDefaultNode_CentersOnPoint(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	tests := []struct {
		name      string
		body      Body
		wantPos   valueobjects.Point
		wantSize  valueobjects.Size
		wantColor string
	}{
		{"note", NoteBody{}, valueobjects.Point{X: 20, Y: 30}, valueobjects.Size{Width: 160, Height: 140}, "yellow"},
		{"text", TextBody{}, valueobjects.Point{X: 25, Y: 80}, valueobjects.Size{Width: 150, Height: 40}, "transparent"},
		{"sticker", StickerBody{}, valueobjects.Point{X: 60, Y: 60}, valueobjects.Size{Width: 80, Height: 80}, "none"},
		{"shape", ShapeBody{Shape: ShapeCircle}, valueobjects.Point{X: 40, Y: 40}, valueobjects.Size{Width: 120, Height: 120}, "blue"},
		{"comment", CommentBody{}, valueobjects.Point{X: 0, Y: 50}, valueobjects.Size{Width: 200, Height: 100}, "orange"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewDefaultNode(tt.body, valueobjects.Point{X: 100, Y: 100}, cfg)

			assert.Equal(t, tt.wantPos, n.Position())
			assert.Equal(t, tt.wantSize, n.Size())
			assert.Equal(t, tt.wantColor, n.Color())
			assert.Equal(t, tt.body.Kind(), n.Kind())
			assert.True(t, n.ID().IsZero(), "descriptors carry no id")
			assert.True(t, n.Center().Equals(valueobjects.Point{X: 100, Y: 100}))
		})
	}
}

func TestNewDefaultNode_ConfiguredDefaults(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.Kinds["note"] = config.KindDefaults{Width: 100, Height: 100, Color: "pink", Label: "Idea"}

	n := NewDefaultNode(NoteBody{}, valueobjects.Point{X: 0, Y: 0}, cfg)

	assert.Equal(t, valueobjects.Point{X: -50, Y: -50}, n.Position())
	assert.Equal(t, "pink", n.Color())
	assert.Equal(t, "Idea", n.Label())
}

func TestNewNode_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    Body
		pos     valueobjects.Point
		size    valueobjects.Size
		wantErr bool
	}{
		{name: "valid", body: NoteBody{}, pos: valueobjects.Point{X: 1, Y: 2}, size: valueobjects.Size{Width: 10, Height: 10}},
		{name: "nil body", body: nil, size: valueobjects.Size{Width: 10, Height: 10}, wantErr: true},
		{name: "NaN position", body: NoteBody{}, pos: valueobjects.Point{X: math.NaN()}, size: valueobjects.Size{Width: 10, Height: 10}, wantErr: true},
		{name: "zero size", body: NoteBody{}, size: valueobjects.Size{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNode(tt.body, "label", tt.pos, tt.size, "yellow")
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReconstructNode(t *testing.T) {
	id := valueobjects.MustNodeID("child")
	parent := valueobjects.MustNodeID("parent")

	n, err := ReconstructNode(id, TopicBody{}, "Topic", valueobjects.Point{X: 5, Y: 6},
		valueobjects.Size{Width: 160, Height: 60}, parent, "default")
	require.NoError(t, err)

	assert.True(t, n.ID().Equals(id))
	assert.True(t, n.HasParent())
	assert.True(t, n.ParentID().Equals(parent))
	assert.Equal(t, KindNode, n.Kind())

	_, err = ReconstructNode(valueobjects.NodeID{}, TopicBody{}, "", valueobjects.Point{},
		valueobjects.Size{Width: 1, Height: 1}, valueobjects.NodeID{}, "")
	assert.Error(t, err)
}

func TestNode_WithMethodsReturnCopies(t *testing.T) {
	original := NewDefaultNode(NoteBody{}, valueobjects.Point{X: 100, Y: 100}, nil).
		WithID(valueobjects.MustNodeID("n1"))

	relabeled := original.WithLabel("changed")
	moved, err := original.Translate(10, -5)
	require.NoError(t, err)
	resized, err := original.WithSize(valueobjects.Size{Width: 50, Height: 50})
	require.NoError(t, err)

	assert.Equal(t, "New note", original.Label())
	assert.Equal(t, valueobjects.Point{X: 20, Y: 30}, original.Position())
	assert.Equal(t, valueobjects.Size{Width: 160, Height: 140}, original.Size())

	assert.Equal(t, "changed", relabeled.Label())
	assert.Equal(t, valueobjects.Point{X: 30, Y: 25}, moved.Position())
	assert.Equal(t, valueobjects.Size{Width: 50, Height: 50}, resized.Size())

	_, err = original.WithSize(valueobjects.Size{Width: -1, Height: 5})
	assert.Error(t, err)
}

func TestNode_WithShape(t *testing.T) {
	shape := NewDefaultNode(ShapeBody{Shape: ShapeRectangle}, valueobjects.Point{}, nil)
	note := NewDefaultNode(NoteBody{}, valueobjects.Point{}, nil)

	diamond, err := shape.WithShape(ShapeDiamond)
	require.NoError(t, err)
	got, ok := diamond.Shape()
	assert.True(t, ok)
	assert.Equal(t, ShapeDiamond, got)

	_, err = shape.WithShape("hexagon")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = note.WithShape(ShapeCircle)
	assert.True(t, pkgerrors.IsInvalidTransition(err))

	_, ok = note.Shape()
	assert.False(t, ok)
}

func TestBodyFor(t *testing.T) {
	for _, kind := range AllKinds() {
		t.Run(string(kind), func(t *testing.T) {
			body, err := BodyFor(kind, "")
			require.NoError(t, err)
			assert.Equal(t, kind, body.Kind())
		})
	}

	body, err := BodyFor(KindShape, ShapeTriangle)
	require.NoError(t, err)
	assert.Equal(t, ShapeBody{Shape: ShapeTriangle}, body)

	empty, err := BodyFor(KindShape, "")
	require.NoError(t, err)
	assert.Equal(t, ShapeBody{Shape: ShapeRectangle}, empty)

	_, err = BodyFor("widget", "")
	assert.Error(t, err)

	_, err = BodyFor(KindShape, "blob")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("sticker")
	require.NoError(t, err)
	assert.Equal(t, KindSticker, k)

	_, err = ParseKind("Sticker")
	assert.Error(t, err)
}

func TestCloneNodes(t *testing.T) {
	assert.NotNil(t, CloneNodes(nil))

	nodes := []Node{NewDefaultNode(NoteBody{}, valueobjects.Point{}, nil)}
	clone := CloneNodes(nodes)
	clone[0] = clone[0].WithLabel("mutated")

	assert.Equal(t, "New note", nodes[0].Label())
}
