// Package storetest holds the behavior every DocumentStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindboard/application/ports"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

// NewDocument builds a seeded document with one extra child, for fixtures
func NewDocument(t *testing.T, title string) *aggregates.Document {
	t.Helper()
	doc, err := aggregates.NewDocument(title, "author-1")
	require.NoError(t, err)
	doc.SeedRoot(nil)

	board := aggregates.NewBoard(doc.ID().String(), doc.Nodes(), nil)
	root := board.Nodes()[0]
	childID, err := board.AddChild(root.ID())
	require.NoError(t, err)

	shapeBody, err := entities.BodyFor(entities.KindShape, entities.ShapeDiamond)
	require.NoError(t, err)
	shape := entities.NewDefaultNode(shapeBody, valueobjects.Point{X: 400, Y: 300}, nil)
	_, err = board.AddNode(shape)
	require.NoError(t, err)

	label := "Child"
	require.NoError(t, board.UpdateNode(childID, aggregates.NodePatch{Label: &label}))

	doc.ReplaceNodes(board.Nodes())
	return doc
}

// Run exercises a fresh store
func Run(t *testing.T, newStore func(t *testing.T) ports.DocumentStore) {
	t.Run("create and load", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		doc := NewDocument(t, "Plans")

		require.NoError(t, store.Create(ctx, doc))

		got, err := store.Load(ctx, doc.ID().String())
		require.NoError(t, err)
		assert.Equal(t, doc.Title(), got.Title())
		assert.Equal(t, doc.AuthorID(), got.AuthorID())
		AssertSameNodes(t, doc.Nodes(), got.Nodes())
	})

	t.Run("create twice fails", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		doc := NewDocument(t, "Once")

		require.NoError(t, store.Create(ctx, doc))
		assert.Error(t, store.Create(ctx, doc))
	})

	t.Run("save replaces nodes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		doc := NewDocument(t, "Edits")
		require.NoError(t, store.Create(ctx, doc))

		nodes := doc.Nodes()[:1]
		require.NoError(t, store.Save(ctx, doc.ID().String(), nodes))

		got, err := store.Load(ctx, doc.ID().String())
		require.NoError(t, err)
		AssertSameNodes(t, nodes, got.Nodes())
		assert.False(t, got.UpdatedAt().Before(doc.UpdatedAt()))
	})

	t.Run("save empty list", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		doc := NewDocument(t, "Cleared")
		require.NoError(t, store.Create(ctx, doc))

		require.NoError(t, store.Save(ctx, doc.ID().String(), nil))

		got, err := store.Load(ctx, doc.ID().String())
		require.NoError(t, err)
		assert.Empty(t, got.Nodes())
	})

	t.Run("missing documents", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Load(ctx, "missing")
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.True(t, pkgerrors.IsNotFound(store.Save(ctx, "missing", nil)))
		assert.True(t, pkgerrors.IsNotFound(store.Delete(ctx, "missing")))
	})

	t.Run("list newest first and delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first := NewDocument(t, "First")
		require.NoError(t, store.Create(ctx, first))
		second := NewDocument(t, "Second")
		require.NoError(t, store.Create(ctx, second))

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, store.Save(ctx, first.ID().String(), first.Nodes()))

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID().String(), list[0].ID)
		assert.Equal(t, "First", list[0].Title)
		assert.Equal(t, 3, list[0].NodeCount)

		require.NoError(t, store.Delete(ctx, first.ID().String()))
		list, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID().String(), list[0].ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.List(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// AssertSameNodes compares node lists field by field, in order
func AssertSameNodes(t *testing.T, want, got []entities.Node) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID(), g.ID(), "node %d id", i)
		assert.Equal(t, w.Kind(), g.Kind(), "node %d kind", i)
		assert.Equal(t, w.Label(), g.Label(), "node %d label", i)
		assert.Equal(t, w.Position(), g.Position(), "node %d position", i)
		assert.Equal(t, w.Size(), g.Size(), "node %d size", i)
		assert.Equal(t, w.ParentID(), g.ParentID(), "node %d parent", i)
		assert.Equal(t, w.Color(), g.Color(), "node %d color", i)
		wShape, _ := w.Shape()
		gShape, _ := g.Shape()
		assert.Equal(t, wShape, gShape, "node %d shape", i)
	}
}
