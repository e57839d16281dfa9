package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"mindboard/application/editor"
	"mindboard/domain/core/entities"
)

// connectorSamples is how many points of each curve the grid plots
const connectorSamples = 24

// RenderScene prints the scene header and one row per visible item
func RenderScene(w io.Writer, scene editor.Scene) {
	fmt.Fprintf(w, "  %s %.0fx%.0f  scale %.2f  offset (%.1f, %.1f)  tool %s  panel %s\n",
		Info.Sprint("viewport"),
		scene.Width, scene.Height,
		scene.Scale, scene.Offset.X, scene.Offset.Y,
		scene.Tool, scene.Panel,
	)
	fmt.Fprintf(w, "  %d items, %d connectors\n\n", len(scene.Items), len(scene.Connectors))

	rows := make([][]string, 0, len(scene.Items))
	for i, item := range scene.Items {
		kind := string(item.Kind)
		if item.Kind == entities.KindShape {
			kind += "/" + string(item.Shape)
		}
		mark := ""
		if item.Selected {
			mark = "*"
		}
		rows = append(rows, []string{
			fmt.Sprintf("#%d%s", i+1, mark),
			kind,
			item.Label,
			item.Color,
			fmt.Sprintf("%.0f,%.0f %.0fx%.0f", item.Bounds.Min.X, item.Bounds.Min.Y, item.Bounds.Size.Width, item.Bounds.Size.Height),
		})
	}
	Table(w, []string{"Ref", "Kind", "Label", "Color", "Screen bounds"}, rows)
}

// RenderGrid rasterizes the scene into cols x rows characters. Connectors
// are dotted, item boxes are outlined and carry the start of their label.
// Scene coordinates are screen pixels; each cell covers width/cols by
// height/rows of them.
func RenderGrid(scene editor.Scene, cols, rows int) []string {
	if cols < 1 || rows < 1 || scene.Width <= 0 || scene.Height <= 0 {
		return nil
	}

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}
	cellW, cellH := scene.Width/float64(cols), scene.Height/float64(rows)

	cell := func(x, y float64) (int, int, bool) {
		c, r := int(math.Floor(x/cellW)), int(math.Floor(y/cellH))
		return c, r, c >= 0 && c < cols && r >= 0 && r < rows
	}
	plot := func(c, r int, ch rune) {
		if c >= 0 && c < cols && r >= 0 && r < rows {
			grid[r][c] = ch
		}
	}

	for _, conn := range scene.Connectors {
		for i := 0; i <= connectorSamples; i++ {
			p := conn.PointAt(float64(i) / connectorSamples)
			if c, r, ok := cell(p.X, p.Y); ok {
				plot(c, r, '.')
			}
		}
	}

	for _, item := range scene.Items {
		lo, hi := item.Bounds.Min, item.Bounds.Max()
		c0, r0 := int(math.Floor(lo.X/cellW)), int(math.Floor(lo.Y/cellH))
		c1, r1 := int(math.Ceil(hi.X/cellW))-1, int(math.Ceil(hi.Y/cellH))-1
		if c1 < c0 {
			c1 = c0
		}
		if r1 < r0 {
			r1 = r0
		}

		edge := '-'
		if item.Selected {
			edge = '='
		}
		for c := c0; c <= c1; c++ {
			plot(c, r0, edge)
			plot(c, r1, edge)
		}
		for r := r0; r <= r1; r++ {
			plot(c0, r, '|')
			plot(c1, r, '|')
		}
		plot(c0, r0, '+')
		plot(c1, r0, '+')
		plot(c0, r1, '+')
		plot(c1, r1, '+')

		label := []rune(item.Label)
		if len(label) == 0 {
			label = []rune(string(item.Kind))
		}
		mid := (r0 + r1) / 2
		for i := 0; i < len(label) && c0+1+i < c1; i++ {
			plot(c0+1+i, mid, label[i])
		}
	}

	lines := make([]string, rows)
	for r := range grid {
		lines[r] = strings.TrimRight(string(grid[r]), " ")
	}
	return lines
}
