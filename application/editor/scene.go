package editor

import (
	"math"

	"mindboard/domain/core/entities"
	"mindboard/domain/core/valueobjects"
	"mindboard/domain/tools"
)

// Item is one node as a renderer sees it, in screen space
type Item struct {
	ID       string
	Kind     entities.Kind
	Label    string
	Color    string
	Shape    entities.ShapeKind
	Bounds   valueobjects.Rect
	Selected bool
}

// Connector is the cubic Bézier from a parent's center to a child's center,
// in screen space. Both control points keep the tangents horizontal.
type Connector struct {
	ParentID string
	ChildID  string
	From     valueobjects.Point
	Control1 valueobjects.Point
	Control2 valueobjects.Point
	To       valueobjects.Point
}

// Scene is a pure render of the editor state
type Scene struct {
	Width      float64
	Height     float64
	Scale      float64
	Offset     valueobjects.Point
	Tool       tools.Tool
	Panel      tools.Panel
	Items      []Item
	Connectors []Connector
}

// Scene renders the current state for a viewport of the given pixel size.
// Items and connectors entirely outside it are culled; a non-positive width
// or height disables culling.
func (e *Editor) Scene(width, height float64) Scene {
	nodes := e.board.Nodes()
	selected := e.board.SelectedID()
	cull := width > 0 && height > 0
	screen := valueobjects.RectAt(valueobjects.Point{}, valueobjects.Size{Width: width, Height: height})

	scene := Scene{
		Width:      width,
		Height:     height,
		Scale:      e.viewport.Scale(),
		Offset:     e.viewport.Offset(),
		Tool:       e.tools.Active(),
		Panel:      e.tools.Panel(),
		Items:      []Item{},
		Connectors: []Connector{},
	}

	centers := make(map[valueobjects.NodeID]valueobjects.Point, len(nodes))
	for _, n := range nodes {
		centers[n.ID()] = e.viewport.DocumentToScreen(n.Center())
	}

	// connectors draw beneath the nodes
	for _, n := range nodes {
		if !n.HasParent() {
			continue
		}
		from, ok := centers[n.ParentID()]
		if !ok {
			continue // dangling parent
		}
		c := newConnector(n.ParentID().String(), n.ID().String(), from, centers[n.ID()])
		if cull && !c.bounds().Intersects(screen) {
			continue
		}
		scene.Connectors = append(scene.Connectors, c)
	}

	for _, n := range nodes {
		bounds := e.viewport.DocumentRectToScreen(n.Bounds())
		if cull && !bounds.Intersects(screen) {
			continue
		}
		shape, _ := n.Shape()
		scene.Items = append(scene.Items, Item{
			ID:       n.ID().String(),
			Kind:     n.Kind(),
			Label:    n.Label(),
			Color:    n.Color(),
			Shape:    shape,
			Bounds:   bounds,
			Selected: !selected.IsZero() && n.ID().Equals(selected),
		})
	}

	return scene
}

func newConnector(parentID, childID string, from, to valueobjects.Point) Connector {
	mid := (to.X - from.X) / 2
	return Connector{
		ParentID: parentID,
		ChildID:  childID,
		From:     from,
		Control1: valueobjects.Point{X: from.X + mid, Y: from.Y},
		Control2: valueobjects.Point{X: to.X - mid, Y: to.Y},
		To:       to,
	}
}

// bounds is the control polygon's bounding box, which contains the curve
func (c Connector) bounds() valueobjects.Rect {
	xs := []float64{c.From.X, c.Control1.X, c.Control2.X, c.To.X}
	ys := []float64{c.From.Y, c.Control1.Y, c.Control2.Y, c.To.Y}
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	return valueobjects.Rect{
		Min:  valueobjects.Point{X: minX, Y: minY},
		Size: valueobjects.Size{Width: maxX - minX, Height: maxY - minY},
	}
}

// PointAt evaluates the curve at t in [0, 1]
func (c Connector) PointAt(t float64) valueobjects.Point {
	u := 1 - t
	a, b, cc, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return valueobjects.Point{
		X: a*c.From.X + b*c.Control1.X + cc*c.Control2.X + d*c.To.X,
		Y: a*c.From.Y + b*c.Control1.Y + cc*c.Control2.Y + d*c.To.Y,
	}
}
