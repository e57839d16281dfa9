package editor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mindboard/domain/config"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	"mindboard/domain/tools"
	pkgerrors "mindboard/pkg/errors"
	"mindboard/pkg/observability"
)

type saveRecorder struct {
	docIDs    []string
	snapshots [][]entities.Node
}

func (r *saveRecorder) save(documentID string, nodes []entities.Node) {
	r.docIDs = append(r.docIDs, documentID)
	r.snapshots = append(r.snapshots, nodes)
}

func pt(x, y float64) valueobjects.Point {
	return valueobjects.Point{X: x, Y: y}
}

// noteAt is a stored note of the default 160x140 size centered on (cx, cy)
func noteAt(t *testing.T, id string, cx, cy float64) entities.Node {
	t.Helper()
	return entities.NewDefaultNode(entities.NoteBody{}, pt(cx, cy), nil).
		WithID(valueobjects.MustNodeID(id)).
		WithLabel(id)
}

func newEditor(t *testing.T, cfg *config.DomainConfig, nodes ...entities.Node) (*Editor, *saveRecorder) {
	t.Helper()
	doc, err := aggregates.ReconstructDocument("doc-1", "Test", "tester", nodes, time.Now(), time.Now())
	require.NoError(t, err)

	rec := &saveRecorder{}
	return New(doc, rec.save, cfg, zaptest.NewLogger(t)), rec
}

func TestEditor_OpenDoesNotPersist(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	assert.Empty(t, rec.snapshots)
	assert.Equal(t, HistoryState{Len: 1, Cursor: 0}, e.History())
	assert.Len(t, e.Nodes(), 1)
}

func TestEditor_DragCommitsOnce(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	require.True(t, e.Dragging())
	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, "A", sel.ID().String())

	for i := 1; i <= 20; i++ {
		e.PointerMove(pt(100+float64(i), 100))
	}
	assert.Empty(t, rec.snapshots, "drag frames do not persist")
	assert.Equal(t, 1, e.History().Len, "drag frames do not commit")

	e.PointerUp()

	assert.False(t, e.Dragging())
	assert.Equal(t, 2, e.History().Len)
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, "doc-1", rec.docIDs[0])
	assert.Equal(t, pt(40, 30), rec.snapshots[0][0].Position())
}

func TestEditor_DragTerminations(t *testing.T) {
	tests := []struct {
		name string
		end  func(e *Editor)
	}{
		{"up", (*Editor).PointerUp},
		{"leave", (*Editor).PointerLeave},
		{"cancel", (*Editor).PointerCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

			e.PointerDown(pt(100, 100), ButtonPrimary)
			e.PointerMove(pt(150, 120))
			tt.end(e)

			assert.False(t, e.Dragging())
			assert.Len(t, rec.snapshots, 1)

			tt.end(e)
			assert.Len(t, rec.snapshots, 1, "a second termination is a no-op")
		})
	}
}

func TestEditor_DragWithoutMotionCommitsNothing(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	e.PointerMove(pt(100, 100))
	e.PointerUp()

	assert.Empty(t, rec.snapshots)
	assert.Equal(t, 1, e.History().Len)
}

func TestEditor_DragDeltaIsScaled(t *testing.T) {
	e, _ := newEditor(t, nil, noteAt(t, "A", 100, 100))
	e.ZoomBy(1) // scale 2: the note now spans (40,60)-(360,340) on screen

	e.PointerDown(pt(200, 200), ButtonPrimary)
	e.PointerMove(pt(210, 180))
	e.PointerUp()

	n, _ := e.Node(valueobjects.MustNodeID("A"))
	assert.Equal(t, pt(25, 20), n.Position())
}

func TestEditor_PressDuringDragIsIgnored(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))
	e.PointerDown(pt(500, 500), ButtonPrimary)

	assert.Len(t, e.Nodes(), 1, "placement is suppressed while dragging")
	_, err := e.PlaceAt(pt(500, 500))
	assert.True(t, pkgerrors.IsInvalidTransition(err))

	e.PointerUp()
	assert.Empty(t, rec.snapshots)
}

func TestEditor_PlaceNote(t *testing.T) {
	e, rec := newEditor(t, nil)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	e.PointerUp()

	nodes := e.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, entities.KindNote, nodes[0].Kind())
	assert.Equal(t, pt(20, 30), nodes[0].Position())

	sel, ok := e.Selected()
	require.True(t, ok)
	assert.True(t, sel.ID().Equals(nodes[0].ID()))
	assert.Len(t, rec.snapshots, 1)
	assert.Equal(t, tools.ToolStickyNote, e.Tool())
}

func TestEditor_PlacementUsesDocumentSpace(t *testing.T) {
	e, _ := newEditor(t, nil)
	e.PanBy(50, 50)
	e.ZoomBy(1)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))

	e.PointerDown(pt(250, 250), ButtonPrimary)

	nodes := e.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, pt(20, 30), nodes[0].Position(), "screen (250,250) is document (100,100)")
}

func TestEditor_StickerNeedsGlyph(t *testing.T) {
	e, rec := newEditor(t, nil)
	require.NoError(t, e.SelectTool(tools.ToolSticker))
	assert.Equal(t, tools.PanelStickerPicker, e.Panel())

	e.PointerDown(pt(100, 100), ButtonPrimary)
	e.PointerUp()
	assert.Empty(t, e.Nodes())
	assert.Empty(t, rec.snapshots)

	require.NoError(t, e.ChooseOption("👍"))
	e.PointerDown(pt(100, 100), ButtonPrimary)
	e.PointerUp()

	nodes := e.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, "👍", nodes[0].Label())
	assert.Equal(t, tools.ToolSelect, e.Tool())
}

func TestEditor_CanvasPressUnderSelectPans(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))
	require.NoError(t, e.SelectNode(valueobjects.MustNodeID("A")))

	e.PointerDown(pt(600, 600), ButtonPrimary)
	_, ok := e.Selected()
	assert.False(t, ok, "clicking empty canvas clears the selection")

	e.PointerMove(pt(630, 580))
	e.PointerUp()

	assert.Equal(t, pt(30, -20), e.Offset())
	assert.Empty(t, rec.snapshots)
}

func TestEditor_MiddleButtonAlwaysPans(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonMiddle)
	assert.False(t, e.Dragging())
	e.PointerMove(pt(90, 110))
	e.PointerLeave()

	assert.Equal(t, pt(-10, 10), e.Offset())
	n, _ := e.Node(valueobjects.MustNodeID("A"))
	assert.Equal(t, pt(20, 30), n.Position())
	assert.Empty(t, rec.snapshots)

	e.PointerDown(pt(100, 100), ButtonSecondary)
	assert.False(t, e.Dragging())
}

func TestEditor_Wheel(t *testing.T) {
	e, _ := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	e.Wheel(-100, pt(400, 300))
	assert.InDelta(t, 1.1, e.Scale(), 1e-12, "wheel works during a drag")
	assert.Equal(t, valueobjects.Point{}, e.Offset(), "origin anchor keeps the offset")

	e.Wheel(-1e6, pt(0, 0))
	assert.Equal(t, 5.0, e.Scale())
}

func TestEditor_WheelCursorAnchor(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.ZoomAnchor = config.AnchorCursor
	e, _ := newEditor(t, cfg)

	cursor := pt(400, 300)
	before := e.ScreenToDocument(cursor)
	e.Wheel(-500, cursor)
	after := e.ScreenToDocument(cursor)

	assert.InDelta(t, 1.5, e.Scale(), 1e-12)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestEditor_UndoRedoPersist(t *testing.T) {
	e, rec := newEditor(t, nil)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))
	e.PointerDown(pt(0, 0), ButtonPrimary)
	e.PointerDown(pt(300, 0), ButtonPrimary) // note stays active; no gesture began
	require.Len(t, e.Nodes(), 2)

	assert.True(t, e.Undo())
	assert.Len(t, e.Nodes(), 1)
	assert.True(t, e.Undo())
	assert.Empty(t, e.Nodes())
	assert.False(t, e.Undo())

	assert.True(t, e.Redo())
	assert.Len(t, e.Nodes(), 1)

	// two placements, two undos, one redo; the boundary undo saves nothing
	require.Len(t, rec.snapshots, 5)
	assert.Len(t, rec.snapshots[4], 1)
}

func TestEditor_UndoDropsSelectionOfVanishedNode(t *testing.T) {
	e, _ := newEditor(t, nil)
	require.NoError(t, e.SelectTool(tools.ToolComment))
	e.PointerDown(pt(0, 0), ButtonPrimary)
	_, ok := e.Selected()
	require.True(t, ok)

	e.Undo()
	_, ok = e.Selected()
	assert.False(t, ok)
}

func TestEditor_EditsCommitOnce(t *testing.T) {
	root := entities.NewDefaultNode(entities.RootBody{}, pt(0, 0), nil).WithID(valueobjects.MustNodeID("R"))
	e, rec := newEditor(t, nil, root, noteAt(t, "N", 500, 500))
	rootID := valueobjects.MustNodeID("R")
	noteID := valueobjects.MustNodeID("N")

	require.NoError(t, e.EditLabel(rootID, "Plan"))
	require.NoError(t, e.Resize(rootID, 300, 100))
	require.NoError(t, e.Recolor(noteID, "green"))
	child, err := e.AddChild(rootID)
	require.NoError(t, err)
	require.NoError(t, e.Reparent(noteID, child))
	assert.Len(t, rec.snapshots, 5)

	r, _ := e.Node(rootID)
	assert.Equal(t, "Plan", r.Label())
	assert.Equal(t, valueobjects.Size{Width: 300, Height: 100}, r.Size())

	err = e.Reparent(rootID, noteID)
	assert.True(t, pkgerrors.IsInvalidTransition(err), "root would descend from its own grandchild")

	err = e.EditLabel(valueobjects.MustNodeID("gone"), "x")
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Len(t, rec.snapshots, 5, "refused edits do not commit")

	require.NoError(t, e.SelectNode(rootID))
	require.NoError(t, e.DeleteSelected())
	assert.Empty(t, e.Nodes(), "cascade removes root, child and reparented note")
	assert.Len(t, rec.snapshots, 6)

	assert.True(t, pkgerrors.IsInvalidTransition(e.DeleteSelected()))
}

func TestEditor_EditsBlockedDuringDrag(t *testing.T) {
	e, rec := newEditor(t, nil, noteAt(t, "A", 100, 100))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	err := e.EditLabel(valueobjects.MustNodeID("A"), "x")
	assert.True(t, pkgerrors.IsInvalidTransition(err))
	assert.Empty(t, rec.snapshots)
}

func TestEditor_UndoDuringDragDropsDrag(t *testing.T) {
	e, rec := newEditor(t, nil)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))
	e.PointerDown(pt(100, 100), ButtonPrimary)
	require.NoError(t, e.SelectTool(tools.ToolSelect))

	e.PointerDown(pt(100, 100), ButtonPrimary)
	require.True(t, e.Dragging())
	e.PointerMove(pt(120, 100))

	assert.True(t, e.Undo())
	assert.False(t, e.Dragging())
	e.PointerUp()

	assert.Empty(t, e.Nodes())
	assert.Len(t, rec.snapshots, 2, "placement and undo; the dropped drag commits nothing")
}

func TestEditor_SelectToolClearsSelection(t *testing.T) {
	e, _ := newEditor(t, nil, noteAt(t, "A", 100, 100))
	require.NoError(t, e.SelectNode(valueobjects.MustNodeID("A")))

	require.NoError(t, e.SelectTool(tools.ToolShape))
	_, ok := e.Selected()
	assert.False(t, ok)
	assert.Equal(t, tools.PanelShapePicker, e.Panel())

	e.TogglePanel()
	assert.Equal(t, tools.PanelNone, e.Panel())

	assert.Error(t, e.SelectTool("eraser"))
	assert.Error(t, e.SelectNode(valueobjects.MustNodeID("missing")))
}

func TestEditor_Metrics(t *testing.T) {
	doc, err := aggregates.NewDocument("Metrics", "")
	require.NoError(t, err)
	metrics := observability.NewCollector("test")
	e := New(doc, nil, nil, nil, WithMetrics(metrics))

	require.NoError(t, e.SelectTool(tools.ToolStickyNote))
	e.PointerDown(pt(0, 0), ButtonPrimary)
	e.Undo()
	e.Undo()
	e.Redo()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Commits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HistoryMoves.WithLabelValues("undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HistoryMoves.WithLabelValues("redo")))
}

func TestEditor_HistoryLimitFromConfig(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.HistoryLimit = 3
	e, _ := newEditor(t, cfg)
	require.NoError(t, e.SelectTool(tools.ToolStickyNote))

	for i := 0; i < 5; i++ {
		e.PointerDown(pt(float64(i)*200, 0), ButtonPrimary)
	}
	assert.Equal(t, HistoryState{Len: 3, Cursor: 2, CanUndo: true}, e.History())
}
