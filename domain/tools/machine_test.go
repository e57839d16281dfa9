package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	pkgerrors "mindboard/pkg/errors"
)

var click = valueobjects.Point{X: 100, Y: 100}

func TestMachine_StartsOnSelect(t *testing.T) {
	m := NewMachine(nil)

	assert.Equal(t, ToolSelect, m.Active())
	assert.Equal(t, PanelNone, m.Panel())

	_, ok, err := m.PlaceAt(click)
	assert.NoError(t, err)
	assert.False(t, ok, "select places nothing")
}

func TestMachine_PlaceNoteCentersOnPoint(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.SelectTool(ToolStickyNote))

	node, ok, err := m.PlaceAt(click)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, entities.KindNote, node.Kind())
	assert.Equal(t, valueobjects.Point{X: 20, Y: 30}, node.Position())
	assert.Equal(t, valueobjects.Size{Width: 160, Height: 140}, node.Size())
	assert.Equal(t, ToolStickyNote, m.Active(), "note stays active")
}

func TestMachine_StickerNeedsGlyph(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.SelectTool(ToolSticker))
	assert.Equal(t, PanelStickerPicker, m.Panel())

	_, ok, err := m.PlaceAt(click)
	assert.False(t, ok)
	assert.True(t, pkgerrors.IsInvalidTransition(err))
	assert.Equal(t, ToolSticker, m.Active(), "a refused placement keeps the tool")

	require.NoError(t, m.ChoosePendingOption("🎉"))
	assert.Equal(t, PanelNone, m.Panel())
	assert.Equal(t, "🎉", m.Pending())

	node, ok, err := m.PlaceAt(click)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entities.KindSticker, node.Kind())
	assert.Equal(t, "🎉", node.Label())
	assert.Equal(t, ToolSelect, m.Active())
	assert.Empty(t, m.Pending())
}

func TestMachine_RevertAfterPlacement(t *testing.T) {
	tests := []struct {
		tool       Tool
		wantRevert bool
	}{
		{ToolStickyNote, false},
		{ToolShape, false},
		{ToolFreeText, true},
		{ToolComment, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			m := NewMachine(nil)
			require.NoError(t, m.SelectTool(tt.tool))

			_, ok, err := m.PlaceAt(click)
			require.NoError(t, err)
			require.True(t, ok)

			if tt.wantRevert {
				assert.Equal(t, ToolSelect, m.Active())
			} else {
				assert.Equal(t, tt.tool, m.Active())
			}
		})
	}
}

func TestMachine_ShapeOptions(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.SelectTool(ToolShape))
	assert.Equal(t, PanelShapePicker, m.Panel())
	assert.Equal(t, "rectangle", m.Pending())

	node, _, err := m.PlaceAt(click)
	require.NoError(t, err)
	shape, _ := node.Shape()
	assert.Equal(t, entities.ShapeRectangle, shape)

	err = m.ChoosePendingOption("hexagon")
	assert.True(t, pkgerrors.IsInvalidTransition(err))

	require.NoError(t, m.ChoosePendingOption("circle"))
	assert.Equal(t, PanelNone, m.Panel())

	node, _, err = m.PlaceAt(click)
	require.NoError(t, err)
	shape, _ = node.Shape()
	assert.Equal(t, entities.ShapeCircle, shape)
	assert.Equal(t, valueobjects.Point{X: 40, Y: 40}, node.Position())
}

func TestMachine_SelectToolClearsPending(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.SelectTool(ToolSticker))
	require.NoError(t, m.ChoosePendingOption("⭐"))

	require.NoError(t, m.SelectTool(ToolComment))
	assert.Empty(t, m.Pending())
	assert.Equal(t, PanelNone, m.Panel())

	require.NoError(t, m.SelectTool(ToolSticker))
	_, ok, err := m.PlaceAt(click)
	assert.False(t, ok)
	assert.Error(t, err, "glyph chosen before switching tools is gone")

	assert.True(t, pkgerrors.IsValidation(m.SelectTool("laser")))
	assert.Equal(t, ToolSticker, m.Active())
}

func TestMachine_OptionsOnToolWithoutPanel(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.SelectTool(ToolFreeText))

	err := m.ChoosePendingOption("anything")
	assert.True(t, pkgerrors.IsInvalidTransition(err))
}

func TestMachine_TogglePanel(t *testing.T) {
	m := NewMachine(nil)
	m.TogglePanel()
	assert.Equal(t, PanelNone, m.Panel(), "select has no panel")

	require.NoError(t, m.SelectTool(ToolShape))
	m.TogglePanel()
	assert.Equal(t, PanelNone, m.Panel())
	m.TogglePanel()
	assert.Equal(t, PanelShapePicker, m.Panel())

	require.NoError(t, m.SelectTool(ToolSticker))
	assert.Equal(t, PanelStickerPicker, m.Panel(), "one panel at a time, owned by the active tool")
}

func TestParseTool(t *testing.T) {
	for _, tool := range AllTools() {
		got, err := ParseTool(string(tool))
		require.NoError(t, err)
		assert.Equal(t, tool, got)
	}
	_, err := ParseTool("pen")
	assert.Error(t, err)
}
