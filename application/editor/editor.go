package editor

import (
	"go.uber.org/zap"

	"mindboard/application/ports"
	"mindboard/domain/config"
	"mindboard/domain/core/aggregates"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	"mindboard/domain/tools"
	"mindboard/domain/versioning"
	"mindboard/domain/viewport"
	pkgerrors "mindboard/pkg/errors"
	"mindboard/pkg/observability"
)

// Button identifies the pointer button of a press
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

type gesture int

const (
	gestureNone gesture = iota
	gestureDrag
	gesturePan
)

// HistoryState summarizes the undo log
type HistoryState struct {
	Len     int
	Cursor  int
	CanUndo bool
	CanRedo bool
}

// Editor drives one open document: it routes pointer and keyboard input to
// the viewport, the tool machine, the board and the history, in that order
// of precedence.
//
// An Editor is not safe for concurrent use; it runs on the caller's event loop.
type Editor struct {
	documentID string
	config     *config.DomainConfig
	viewport   *viewport.Viewport
	tools      *tools.Machine
	board      *aggregates.Board
	history    *versioning.History
	logger     *zap.Logger
	metrics    *observability.Collector

	gesture gesture
	dragID  valueobjects.NodeID
	last    valueobjects.Point
	moved   bool
}

// Option configures an Editor
type Option func(*Editor)

// WithMetrics records commits and undo/redo on the collector
func WithMetrics(c *observability.Collector) Option {
	return func(e *Editor) {
		e.metrics = c
	}
}

// New opens a document. The loaded nodes seed the history without being
// persisted; every later commit, undo and redo calls save.
func New(doc *aggregates.Document, save ports.SaveFunc, cfg *config.DomainConfig, logger *zap.Logger, opts ...Option) *Editor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	cfg = cfg.Clone().Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	id := doc.ID().String()
	nodes := doc.Nodes()

	e := &Editor{
		documentID: id,
		config:     cfg,
		viewport:   viewport.New(cfg),
		tools:      tools.NewMachine(cfg),
		board:      aggregates.NewBoard(id, nodes, cfg),
		logger:     logger.Named("editor").With(zap.String("document_id", id)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.history = versioning.New(nodes, cfg.HistoryLimit, func(snapshot []entities.Node) {
		if save != nil {
			save(id, snapshot)
		}
	})
	return e
}

// DocumentID returns the id of the open document
func (e *Editor) DocumentID() string {
	return e.documentID
}

// Nodes returns a snapshot of the live node list in z-order
func (e *Editor) Nodes() []entities.Node {
	return e.board.Nodes()
}

// Node looks up a live node
func (e *Editor) Node(id valueobjects.NodeID) (entities.Node, bool) {
	return e.board.Node(id)
}

// Selected returns the selected node, if any
func (e *Editor) Selected() (entities.Node, bool) {
	return e.board.Selected()
}

// Tool returns the active tool
func (e *Editor) Tool() tools.Tool {
	return e.tools.Active()
}

// Panel returns the open auxiliary panel
func (e *Editor) Panel() tools.Panel {
	return e.tools.Panel()
}

// Scale returns the viewport zoom factor
func (e *Editor) Scale() float64 {
	return e.viewport.Scale()
}

// Offset returns the viewport pan offset
func (e *Editor) Offset() valueobjects.Point {
	return e.viewport.Offset()
}

// ScreenToDocument maps a screen point through the current viewport
func (e *Editor) ScreenToDocument(p valueobjects.Point) valueobjects.Point {
	return e.viewport.ScreenToDocument(p)
}

// Dragging reports whether a node drag is in progress
func (e *Editor) Dragging() bool {
	return e.gesture == gestureDrag
}

// History returns the undo log position
func (e *Editor) History() HistoryState {
	return HistoryState{
		Len:     e.history.Len(),
		Cursor:  e.history.Cursor(),
		CanUndo: e.history.CanUndo(),
		CanRedo: e.history.CanRedo(),
	}
}

// Pointer input

// PointerDown handles a press at a screen point.
//
// A primary press on a node under the select tool starts a drag and nothing
// else runs for that event. On empty canvas select clears the selection and
// starts a pan; any other tool places a node. The middle button always pans.
// A press while a gesture is active is ignored.
func (e *Editor) PointerDown(screen valueobjects.Point, button Button) {
	if e.gesture != gestureNone {
		e.logger.Debug("Press ignored during gesture", zap.Int("button", int(button)))
		return
	}
	if !screen.IsFinite() {
		return
	}

	switch button {
	case ButtonMiddle:
		e.begin(gesturePan, screen)
		return
	case ButtonPrimary:
	default:
		return
	}

	doc := e.viewport.ScreenToDocument(screen)

	if e.tools.Active() == tools.ToolSelect {
		if hit, ok := e.board.HitTest(doc); ok {
			_ = e.board.SelectNode(hit.ID())
			e.dragID = hit.ID()
			e.begin(gestureDrag, screen)
			return
		}
		e.board.ClearSelection()
		e.begin(gesturePan, screen)
		return
	}

	e.placeAt(doc)
}

// PointerMove handles pointer motion. During a drag the node follows the
// pointer without committing; during a pan the viewport follows it.
func (e *Editor) PointerMove(screen valueobjects.Point) {
	if e.gesture == gestureNone || !screen.IsFinite() {
		return
	}

	delta := screen.Sub(e.last)
	e.last = screen
	if delta.X == 0 && delta.Y == 0 {
		return
	}

	switch e.gesture {
	case gestureDrag:
		scale := e.viewport.Scale()
		if err := e.board.MoveNode(e.dragID, delta.X/scale, delta.Y/scale); err != nil {
			e.logger.Debug("Drag target vanished", zap.Error(err))
			e.abort()
			return
		}
		e.moved = true
	case gesturePan:
		e.viewport.PanBy(delta.X, delta.Y)
	}
}

// PointerUp ends the active gesture. A drag that moved commits one snapshot.
func (e *Editor) PointerUp() {
	e.end("up")
}

// PointerLeave is treated exactly like PointerUp
func (e *Editor) PointerLeave() {
	e.end("leave")
}

// PointerCancel is treated exactly like PointerUp
func (e *Editor) PointerCancel() {
	e.end("cancel")
}

// Wheel zooms by -deltaY times the configured sensitivity, independent of
// any gesture or tool
func (e *Editor) Wheel(deltaY float64, screen valueobjects.Point) {
	delta := -deltaY
	if e.config.ZoomAnchor == config.AnchorCursor {
		e.viewport.ZoomAt(delta, e.config.WheelSensitivity, screen)
		return
	}
	e.viewport.ZoomBy(delta, e.config.WheelSensitivity)
}

// Tools

// SelectTool activates a tool and clears the selection
func (e *Editor) SelectTool(tool tools.Tool) error {
	if err := e.tools.SelectTool(tool); err != nil {
		return e.refuse("select tool", err)
	}
	e.board.ClearSelection()
	return nil
}

// ChooseOption passes a pending option to the active tool
func (e *Editor) ChooseOption(value string) error {
	if err := e.tools.ChoosePendingOption(value); err != nil {
		return e.refuse("choose option", err)
	}
	return nil
}

// TogglePanel opens or closes the active tool's panel
func (e *Editor) TogglePanel() {
	e.tools.TogglePanel()
}

// PlaceAt places the active tool's node at a document point, as a canvas
// click does
func (e *Editor) PlaceAt(doc valueobjects.Point) (valueobjects.NodeID, error) {
	if e.gesture == gestureDrag {
		return valueobjects.NodeID{}, e.refuse("place", pkgerrors.NewInvalidTransition("placement suppressed during drag"))
	}
	return e.placeAt(doc)
}

// Selection and edits. Each successful edit commits exactly once.

// SelectNode selects a node; the zero id clears the selection
func (e *Editor) SelectNode(id valueobjects.NodeID) error {
	if err := e.board.SelectNode(id); err != nil {
		return e.refuse("select node", err)
	}
	return nil
}

// EditLabel replaces a node's text
func (e *Editor) EditLabel(id valueobjects.NodeID, label string) error {
	return e.edit("edit label", func() error {
		return e.board.UpdateNode(id, aggregates.NodePatch{Label: &label})
	})
}

// Resize replaces a node's size
func (e *Editor) Resize(id valueobjects.NodeID, width, height float64) error {
	return e.edit("resize", func() error {
		return e.board.Resize(id, valueobjects.Size{Width: width, Height: height})
	})
}

// Recolor replaces a node's color tag
func (e *Editor) Recolor(id valueobjects.NodeID, color string) error {
	return e.edit("recolor", func() error {
		return e.board.UpdateNode(id, aggregates.NodePatch{Color: &color})
	})
}

// Reparent points a node at a new parent; the zero id detaches it
func (e *Editor) Reparent(id, parentID valueobjects.NodeID) error {
	return e.edit("reparent", func() error {
		return e.board.Reparent(id, parentID)
	})
}

// AddChild creates a mind-map child of parent and selects it
func (e *Editor) AddChild(parentID valueobjects.NodeID) (valueobjects.NodeID, error) {
	var child valueobjects.NodeID
	err := e.edit("add child", func() error {
		var err error
		child, err = e.board.AddChild(parentID)
		return err
	})
	return child, err
}

// DeleteNode removes a node and all of its descendants
func (e *Editor) DeleteNode(id valueobjects.NodeID) error {
	return e.edit("delete", func() error {
		removed, err := e.board.DeleteNode(id)
		if err == nil {
			e.logger.Debug("Nodes deleted", zap.Int("count", len(removed)))
		}
		return err
	})
}

// DeleteSelected deletes the selected node and its descendants
func (e *Editor) DeleteSelected() error {
	id := e.board.SelectedID()
	if id.IsZero() {
		return e.refuse("delete selected", pkgerrors.NewInvalidTransition("nothing selected"))
	}
	return e.DeleteNode(id)
}

// History

// Undo adopts the previous snapshot. It reports false at the oldest entry.
func (e *Editor) Undo() bool {
	return e.move("undo", e.history.Undo)
}

// Redo adopts the next snapshot. It reports false at the newest entry.
func (e *Editor) Redo() bool {
	return e.move("redo", e.history.Redo)
}

// Viewport

// PanBy pans the viewport by a screen-space delta
func (e *Editor) PanBy(dx, dy float64) {
	e.viewport.PanBy(dx, dy)
}

// ZoomBy changes the scale by delta, anchored at the screen origin
func (e *Editor) ZoomBy(delta float64) {
	e.viewport.ZoomBy(delta, 1)
}

// ResetView restores scale 1 and a zero offset
func (e *Editor) ResetView() {
	e.viewport.Reset()
}

// internals

func (e *Editor) placeAt(doc valueobjects.Point) (valueobjects.NodeID, error) {
	desc, ok, err := e.tools.PlaceAt(doc)
	if err != nil {
		return valueobjects.NodeID{}, e.refuse("place", err)
	}
	if !ok {
		e.board.ClearSelection()
		return valueobjects.NodeID{}, nil
	}

	id, err := e.board.AddNode(desc)
	if err != nil {
		return valueobjects.NodeID{}, e.refuse("place", err)
	}
	e.commit()
	return id, nil
}

func (e *Editor) begin(g gesture, screen valueobjects.Point) {
	e.gesture = g
	e.last = screen
	e.moved = false
}

// end shares one termination path between up, leave and cancel
func (e *Editor) end(reason string) {
	if e.gesture == gestureNone {
		return
	}
	commit := e.gesture == gestureDrag && e.moved
	if commit {
		e.logger.Debug("Drag finished", zap.String("reason", reason), zap.String("node_id", e.dragID.String()))
	}
	e.abort()
	if commit {
		e.commit()
	}
}

func (e *Editor) abort() {
	e.gesture = gestureNone
	e.dragID = valueobjects.NodeID{}
	e.moved = false
}

func (e *Editor) edit(op string, mutate func() error) error {
	if e.gesture == gestureDrag {
		return e.refuse(op, pkgerrors.NewInvalidTransition("edits are blocked during drag"))
	}
	if err := mutate(); err != nil {
		return e.refuse(op, err)
	}
	e.commit()
	return nil
}

func (e *Editor) move(direction string, step func() ([]entities.Node, bool)) bool {
	if e.gesture == gestureDrag {
		// the snapshot's copy of the dragged node wins; drop the drag
		e.abort()
	}
	nodes, ok := step()
	if !ok {
		e.logger.Debug("History boundary", zap.String("direction", direction))
		return false
	}
	e.board.Replace(nodes)
	e.flushEvents()
	if e.metrics != nil {
		e.metrics.RecordHistoryMove(direction)
	}
	return true
}

func (e *Editor) commit() {
	e.history.Commit(e.board.Nodes())
	e.flushEvents()
	if e.metrics != nil {
		e.metrics.RecordCommit()
	}
}

func (e *Editor) flushEvents() {
	for _, evt := range e.board.GetUncommittedEvents() {
		e.logger.Debug("Board event", zap.String("type", evt.GetEventType()))
	}
	e.board.MarkEventsAsCommitted()
}

// refuse logs a recovered failure and hands it back to scripted callers
func (e *Editor) refuse(op string, err error) error {
	e.logger.Debug("Operation refused", zap.String("op", op), zap.Error(err))
	return err
}
