// Package commands holds the scripted editor inputs. Each command mirrors one
// user gesture or keyboard action and is decoded from YAML, validated with
// struct tags and dispatched through the command bus.
package commands

import (
	"mindboard/pkg/utils"
)

// PointerDown presses a button at a screen point
type PointerDown struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Button string  `yaml:"button" validate:"omitempty,oneof=primary middle secondary"`
}

// PointerMove moves the pointer to a screen point
type PointerMove struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// PointerUp releases the pointer
type PointerUp struct{}

// PointerLeave reports the pointer leaving the canvas
type PointerLeave struct{}

// PointerCancel reports the platform cancelling the pointer
type PointerCancel struct{}

// Wheel scrolls the mouse wheel at a screen point
type Wheel struct {
	DeltaY float64 `yaml:"delta_y"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

// SelectTool activates a tool by name
type SelectTool struct {
	Name string `yaml:"name" validate:"required,oneof=select sticky-note shape free-text sticker comment"`
}

// ChooseOption supplies the active tool's pending option
type ChooseOption struct {
	Value string `yaml:"value" validate:"required"`
}

// TogglePanel opens or closes the active tool's panel
type TogglePanel struct{}

// Place places the active tool's node at a document point
type Place struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Undo steps back in history
type Undo struct{}

// Redo steps forward in history
type Redo struct{}

// Delete removes a node and its descendants; without an id, the selection
type Delete struct {
	ID string `yaml:"id"`
}

// EditLabel replaces a node's text
type EditLabel struct {
	ID   string `yaml:"id" validate:"required"`
	Text string `yaml:"text"`
}

// Resize replaces a node's size
type Resize struct {
	ID     string  `yaml:"id" validate:"required"`
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
}

// Recolor replaces a node's color tag
type Recolor struct {
	ID    string `yaml:"id" validate:"required"`
	Color string `yaml:"color" validate:"required"`
}

// Reparent points a node at a new parent; an empty parent detaches it
type Reparent struct {
	ID     string `yaml:"id" validate:"required"`
	Parent string `yaml:"parent"`
}

// AddChild creates a mind-map child of a node
type AddChild struct {
	Parent string `yaml:"parent" validate:"required"`
}

// Select selects a node; an empty id clears the selection
type Select struct {
	ID string `yaml:"id"`
}

// Pan pans the viewport by a screen-space delta
type Pan struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// Zoom changes the scale by delta
type Zoom struct {
	Delta float64 `yaml:"delta"`
}

// ResetView restores the default viewport
type ResetView struct{}

// Validate implementations

func (c *PointerDown) Validate() error   { return utils.ValidateStruct(c) }
func (c *PointerMove) Validate() error   { return nil }
func (c *PointerUp) Validate() error     { return nil }
func (c *PointerLeave) Validate() error  { return nil }
func (c *PointerCancel) Validate() error { return nil }
func (c *Wheel) Validate() error         { return nil }
func (c *SelectTool) Validate() error    { return utils.ValidateStruct(c) }
func (c *ChooseOption) Validate() error  { return utils.ValidateStruct(c) }
func (c *TogglePanel) Validate() error   { return nil }
func (c *Place) Validate() error         { return nil }
func (c *Undo) Validate() error          { return nil }
func (c *Redo) Validate() error          { return nil }
func (c *Delete) Validate() error        { return nil }
func (c *EditLabel) Validate() error     { return utils.ValidateStruct(c) }
func (c *Resize) Validate() error        { return utils.ValidateStruct(c) }
func (c *Recolor) Validate() error       { return utils.ValidateStruct(c) }
func (c *Reparent) Validate() error      { return utils.ValidateStruct(c) }
func (c *AddChild) Validate() error      { return utils.ValidateStruct(c) }
func (c *Select) Validate() error        { return nil }
func (c *Pan) Validate() error           { return nil }
func (c *Zoom) Validate() error          { return nil }
func (c *ResetView) Validate() error     { return nil }
