package tools

import (
	"fmt"
	"strings"

	"mindboard/domain/config"
	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

// Tool is the active canvas tool
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolStickyNote Tool = "sticky-note"
	ToolShape      Tool = "shape"
	ToolFreeText   Tool = "free-text"
	ToolSticker    Tool = "sticker"
	ToolComment    Tool = "comment"
)

// AllTools lists every tool in toolbar order
func AllTools() []Tool {
	return []Tool{ToolSelect, ToolStickyNote, ToolShape, ToolFreeText, ToolSticker, ToolComment}
}

// ParseTool converts a tool name into a Tool
func ParseTool(s string) (Tool, error) {
	for _, t := range AllTools() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", pkgerrors.NewValidation(fmt.Sprintf("unknown tool %q", s))
}

// Panel is the auxiliary option picker shown next to the toolbar
type Panel string

const (
	PanelNone          Panel = "none"
	PanelShapePicker   Panel = "shape-picker"
	PanelStickerPicker Panel = "sticker-picker"
)

// toolBehavior describes how a tool places nodes
type toolBehavior struct {
	kind entities.Kind
	// panel is the picker the tool owns, PanelNone if it has no options
	panel Panel
	// revert sends the machine back to select after one placement
	revert bool
}

var behaviors = map[Tool]toolBehavior{
	ToolSelect:     {panel: PanelNone},
	ToolStickyNote: {kind: entities.KindNote, panel: PanelNone},
	ToolShape:      {kind: entities.KindShape, panel: PanelShapePicker},
	ToolFreeText:   {kind: entities.KindText, panel: PanelNone, revert: true},
	ToolSticker:    {kind: entities.KindSticker, panel: PanelStickerPicker, revert: true},
	ToolComment:    {kind: entities.KindComment, panel: PanelNone, revert: true},
}

// Machine is the tool state machine. Exactly one tool is active; the open
// panel and the pending option are fully determined by it.
type Machine struct {
	active  Tool
	panel   Panel
	pending string
	config  *config.DomainConfig
}

// NewMachine creates a machine with the select tool active
func NewMachine(cfg *config.DomainConfig) *Machine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Machine{
		active: ToolSelect,
		panel:  PanelNone,
		config: cfg,
	}
}

// Active returns the active tool
func (m *Machine) Active() Tool {
	return m.active
}

// Panel returns the open auxiliary panel
func (m *Machine) Panel() Panel {
	return m.panel
}

// Pending returns the chosen but not yet placed option
func (m *Machine) Pending() string {
	return m.pending
}

// SelectTool activates a tool, drops any pending option and opens the tool's
// own panel. Clearing the node selection is the caller's job.
func (m *Machine) SelectTool(tool Tool) error {
	b, ok := behaviors[tool]
	if !ok {
		return pkgerrors.NewValidation(fmt.Sprintf("unknown tool %q", tool))
	}

	m.active = tool
	m.panel = b.panel
	m.pending = ""
	if tool == ToolShape {
		m.pending = string(entities.ShapeRectangle)
	}
	return nil
}

// ChoosePendingOption stores the second choice a tool needs before placing:
// a glyph for sticker, a shape kind for shape. It closes the panel and does
// not create a node.
func (m *Machine) ChoosePendingOption(value string) error {
	switch m.active {
	case ToolSticker:
		glyph := strings.TrimSpace(value)
		if glyph == "" {
			return pkgerrors.NewInvalidTransition("sticker glyph cannot be empty")
		}
		m.pending = glyph
	case ToolShape:
		shape, err := entities.ParseShapeKind(value)
		if err != nil {
			return pkgerrors.NewInvalidTransition(fmt.Sprintf("unknown shape kind %q", value))
		}
		m.pending = string(shape)
	default:
		return pkgerrors.NewInvalidTransition(fmt.Sprintf("tool %s has no options", m.active))
	}

	m.panel = PanelNone
	return nil
}

// TogglePanel opens or closes the active tool's panel. Tools without a panel
// are unaffected.
func (m *Machine) TogglePanel() {
	own := behaviors[m.active].panel
	if own == PanelNone {
		return
	}
	if m.panel == own {
		m.panel = PanelNone
		return
	}
	m.panel = own
}

// PlaceAt builds the node descriptor the active tool creates at a document
// point. ok is false for select, which means "clear selection instead".
// Sticker without a chosen glyph is an InvalidTransition and creates nothing.
//
// Sticker, comment and free-text revert to select after a placement; note and
// shape stay active for repeated placement.
func (m *Machine) PlaceAt(p valueobjects.Point) (node entities.Node, ok bool, err error) {
	b := behaviors[m.active]
	if m.active == ToolSelect {
		return entities.Node{}, false, nil
	}
	if !p.IsFinite() {
		return entities.Node{}, false, pkgerrors.NewValidation("invalid coordinates: must be finite numbers")
	}

	var body entities.Body
	switch m.active {
	case ToolSticker:
		if m.pending == "" {
			return entities.Node{}, false, pkgerrors.NewInvalidTransition("choose a sticker before placing it")
		}
		body = entities.StickerBody{}
	case ToolShape:
		body = entities.ShapeBody{Shape: entities.ShapeKind(m.pending)}
	default:
		if body, err = entities.BodyFor(b.kind, ""); err != nil {
			return entities.Node{}, false, err
		}
	}

	node = entities.NewDefaultNode(body, p, m.config)
	if m.active == ToolSticker {
		node = node.WithLabel(m.pending)
	}

	if b.revert {
		m.reset()
	}
	return node, true, nil
}

func (m *Machine) reset() {
	m.active = ToolSelect
	m.panel = PanelNone
	m.pending = ""
}
