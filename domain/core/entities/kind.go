package entities

import (
	"fmt"

	pkgerrors "mindboard/pkg/errors"
)

// Kind is the closed set of node kinds a board can hold
type Kind string

const (
	KindRoot    Kind = "root"
	KindNode    Kind = "node"
	KindNote    Kind = "note"
	KindText    Kind = "text"
	KindShape   Kind = "shape"
	KindSticker Kind = "sticker"
	KindComment Kind = "comment"
)

// AllKinds lists every kind in declaration order
func AllKinds() []Kind {
	return []Kind{KindRoot, KindNode, KindNote, KindText, KindShape, KindSticker, KindComment}
}

// ParseKind converts a wire string into a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", pkgerrors.NewValidation(fmt.Sprintf("unknown node kind %q", s))
}

// ShapeKind is the outline drawn for a shape node
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeDiamond   ShapeKind = "diamond"
	ShapeTriangle  ShapeKind = "triangle"
)

// ParseShapeKind converts a wire string into a ShapeKind
func ParseShapeKind(s string) (ShapeKind, error) {
	switch ShapeKind(s) {
	case ShapeRectangle, ShapeCircle, ShapeDiamond, ShapeTriangle:
		return ShapeKind(s), nil
	}
	return "", pkgerrors.NewValidation(fmt.Sprintf("unknown shape kind %q", s))
}

// Body is the kind-specific part of a node. The set of implementations is
// closed: the unexported marker keeps other packages from adding variants, and
// callers switch on the concrete type.
type Body interface {
	Kind() Kind
	isBody()
}

// RootBody is the central node of a mind map
type RootBody struct{}

// TopicBody is a structural mind-map node (kind "node")
type TopicBody struct{}

// NoteBody is a sticky note
type NoteBody struct{}

// TextBody is free-floating text
type TextBody struct{}

// ShapeBody is an outlined shape
type ShapeBody struct {
	Shape ShapeKind
}

// StickerBody is an emoji sticker; the glyph lives in the node label
type StickerBody struct{}

// CommentBody is a review comment pinned to the canvas
type CommentBody struct{}

func (RootBody) Kind() Kind    { return KindRoot }
func (TopicBody) Kind() Kind   { return KindNode }
func (NoteBody) Kind() Kind    { return KindNote }
func (TextBody) Kind() Kind    { return KindText }
func (ShapeBody) Kind() Kind   { return KindShape }
func (StickerBody) Kind() Kind { return KindSticker }
func (CommentBody) Kind() Kind { return KindComment }

func (RootBody) isBody()    {}
func (TopicBody) isBody()   {}
func (NoteBody) isBody()    {}
func (TextBody) isBody()    {}
func (ShapeBody) isBody()   {}
func (StickerBody) isBody() {}
func (CommentBody) isBody() {}

// BodyFor builds the body for a kind. shape is only read for KindShape, where
// an empty value means rectangle.
func BodyFor(kind Kind, shape ShapeKind) (Body, error) {
	switch kind {
	case KindRoot:
		return RootBody{}, nil
	case KindNode:
		return TopicBody{}, nil
	case KindNote:
		return NoteBody{}, nil
	case KindText:
		return TextBody{}, nil
	case KindShape:
		if shape == "" {
			shape = ShapeRectangle
		}
		parsed, err := ParseShapeKind(string(shape))
		if err != nil {
			return nil, err
		}
		return ShapeBody{Shape: parsed}, nil
	case KindSticker:
		return StickerBody{}, nil
	case KindComment:
		return CommentBody{}, nil
	}
	return nil, pkgerrors.NewValidation(fmt.Sprintf("unknown node kind %q", kind))
}
