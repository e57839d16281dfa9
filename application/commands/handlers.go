package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mindboard/application/commands/bus"
	"mindboard/application/editor"
	"mindboard/domain/core/valueobjects"
	"mindboard/domain/tools"
	pkgerrors "mindboard/pkg/errors"
)

// Register binds every input command to the editor
func Register(b *bus.CommandBus, ed *editor.Editor) error {
	h := &handlers{editor: ed}

	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{&PointerDown{}, h.pointerDown},
		{&PointerMove{}, h.pointerMove},
		{&PointerUp{}, h.pointerUp},
		{&PointerLeave{}, h.pointerLeave},
		{&PointerCancel{}, h.pointerCancel},
		{&Wheel{}, h.wheel},
		{&SelectTool{}, h.selectTool},
		{&ChooseOption{}, h.chooseOption},
		{&TogglePanel{}, h.togglePanel},
		{&Place{}, h.place},
		{&Undo{}, h.undo},
		{&Redo{}, h.redo},
		{&Delete{}, h.delete},
		{&EditLabel{}, h.editLabel},
		{&Resize{}, h.resize},
		{&Recolor{}, h.recolor},
		{&Reparent{}, h.reparent},
		{&AddChild{}, h.addChild},
		{&Select{}, h.selectNode},
		{&Pan{}, h.pan},
		{&Zoom{}, h.zoom},
		{&ResetView{}, h.resetView},
	}

	for _, r := range routes {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

type handlers struct {
	editor *editor.Editor
}

// ResolveID turns a script reference into a node id. "#n" is the n-th node
// (1-based) in current z-order; anything else is taken literally.
func ResolveID(ed *editor.Editor, ref string) (valueobjects.NodeID, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "#") {
		return valueobjects.NewNodeIDFromString(ref)
	}

	n, err := strconv.Atoi(ref[1:])
	if err != nil {
		return valueobjects.NodeID{}, pkgerrors.NewValidation(fmt.Sprintf("invalid node reference %q", ref))
	}
	nodes := ed.Nodes()
	if n < 1 || n > len(nodes) {
		return valueobjects.NodeID{}, pkgerrors.NewNotFound(fmt.Sprintf("node reference %s out of range (%d nodes)", ref, len(nodes)))
	}
	return nodes[n-1].ID(), nil
}

func (h *handlers) resolve(ref string) (valueobjects.NodeID, error) {
	return ResolveID(h.editor, ref)
}

// resolveOptional maps an empty reference to the zero id
func (h *handlers) resolveOptional(ref string) (valueobjects.NodeID, error) {
	if strings.TrimSpace(ref) == "" {
		return valueobjects.NodeID{}, nil
	}
	return h.resolve(ref)
}

func point(x, y float64) valueobjects.Point {
	return valueobjects.Point{X: x, Y: y}
}

func button(name string) editor.Button {
	switch name {
	case "middle":
		return editor.ButtonMiddle
	case "secondary":
		return editor.ButtonSecondary
	default:
		return editor.ButtonPrimary
	}
}

func (h *handlers) pointerDown(_ context.Context, cmd bus.Command) error {
	c := cmd.(*PointerDown)
	h.editor.PointerDown(point(c.X, c.Y), button(c.Button))
	return nil
}

func (h *handlers) pointerMove(_ context.Context, cmd bus.Command) error {
	c := cmd.(*PointerMove)
	h.editor.PointerMove(point(c.X, c.Y))
	return nil
}

func (h *handlers) pointerUp(context.Context, bus.Command) error {
	h.editor.PointerUp()
	return nil
}

func (h *handlers) pointerLeave(context.Context, bus.Command) error {
	h.editor.PointerLeave()
	return nil
}

func (h *handlers) pointerCancel(context.Context, bus.Command) error {
	h.editor.PointerCancel()
	return nil
}

func (h *handlers) wheel(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Wheel)
	h.editor.Wheel(c.DeltaY, point(c.X, c.Y))
	return nil
}

func (h *handlers) selectTool(_ context.Context, cmd bus.Command) error {
	c := cmd.(*SelectTool)
	tool, err := tools.ParseTool(c.Name)
	if err != nil {
		return err
	}
	return h.editor.SelectTool(tool)
}

func (h *handlers) chooseOption(_ context.Context, cmd bus.Command) error {
	return h.editor.ChooseOption(cmd.(*ChooseOption).Value)
}

func (h *handlers) togglePanel(context.Context, bus.Command) error {
	h.editor.TogglePanel()
	return nil
}

func (h *handlers) place(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Place)
	_, err := h.editor.PlaceAt(point(c.X, c.Y))
	return err
}

func (h *handlers) undo(context.Context, bus.Command) error {
	h.editor.Undo()
	return nil
}

func (h *handlers) redo(context.Context, bus.Command) error {
	h.editor.Redo()
	return nil
}

func (h *handlers) delete(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Delete)
	if strings.TrimSpace(c.ID) == "" {
		return h.editor.DeleteSelected()
	}
	id, err := h.resolve(c.ID)
	if err != nil {
		return err
	}
	return h.editor.DeleteNode(id)
}

func (h *handlers) editLabel(_ context.Context, cmd bus.Command) error {
	c := cmd.(*EditLabel)
	id, err := h.resolve(c.ID)
	if err != nil {
		return err
	}
	return h.editor.EditLabel(id, c.Text)
}

func (h *handlers) resize(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Resize)
	id, err := h.resolve(c.ID)
	if err != nil {
		return err
	}
	return h.editor.Resize(id, c.Width, c.Height)
}

func (h *handlers) recolor(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Recolor)
	id, err := h.resolve(c.ID)
	if err != nil {
		return err
	}
	return h.editor.Recolor(id, c.Color)
}

func (h *handlers) reparent(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Reparent)
	id, err := h.resolve(c.ID)
	if err != nil {
		return err
	}
	parent, err := h.resolveOptional(c.Parent)
	if err != nil {
		return err
	}
	return h.editor.Reparent(id, parent)
}

func (h *handlers) addChild(_ context.Context, cmd bus.Command) error {
	parent, err := h.resolve(cmd.(*AddChild).Parent)
	if err != nil {
		return err
	}
	_, err = h.editor.AddChild(parent)
	return err
}

func (h *handlers) selectNode(_ context.Context, cmd bus.Command) error {
	id, err := h.resolveOptional(cmd.(*Select).ID)
	if err != nil {
		return err
	}
	return h.editor.SelectNode(id)
}

func (h *handlers) pan(_ context.Context, cmd bus.Command) error {
	c := cmd.(*Pan)
	h.editor.PanBy(c.DX, c.DY)
	return nil
}

func (h *handlers) zoom(_ context.Context, cmd bus.Command) error {
	h.editor.ZoomBy(cmd.(*Zoom).Delta)
	return nil
}

func (h *handlers) resetView(context.Context, bus.Command) error {
	h.editor.ResetView()
	return nil
}
