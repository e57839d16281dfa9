// Package viewport holds the pan/zoom transform between screen space and
// document space.
//
//	screen = document*scale + offset
//	document = (screen - offset) / scale
package viewport

import (
	"math"

	"mindboard/domain/config"
	"mindboard/domain/core/valueobjects"
)

// Viewport is the canvas camera. Pan is unbounded; scale is clamped to the
// configured range, which keeps it strictly positive.
type Viewport struct {
	offset   valueobjects.Point
	scale    float64
	minScale float64
	maxScale float64
}

// New creates a viewport at scale 1 with no offset
func New(cfg *config.DomainConfig) *Viewport {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	bounds := cfg.Clone().Normalize()
	return &Viewport{
		scale:    1,
		minScale: bounds.MinScale,
		maxScale: bounds.MaxScale,
	}
}

// Scale returns the current zoom factor
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Offset returns the current screen-space pan offset
func (v *Viewport) Offset() valueobjects.Point {
	return v.offset
}

// Bounds returns the scale clamp range
func (v *Viewport) Bounds() (lo, hi float64) {
	return v.minScale, v.maxScale
}

// PanBy adds a screen-space delta to the offset
func (v *Viewport) PanBy(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	v.offset = v.offset.Add(dx, dy)
}

// ZoomBy adds delta*sensitivity to the scale and clamps it. The screen
// origin stays fixed: the offset is not touched. A non-positive
// sensitivity counts as 1.
func (v *Viewport) ZoomBy(delta, sensitivity float64) {
	v.scale = v.nextScale(delta, sensitivity)
}

// ZoomAt zooms like ZoomBy but keeps the document point under the given
// screen point where it is.
func (v *Viewport) ZoomAt(delta, sensitivity float64, screen valueobjects.Point) {
	if !screen.IsFinite() {
		v.ZoomBy(delta, sensitivity)
		return
	}
	anchor := v.ScreenToDocument(screen)
	v.scale = v.nextScale(delta, sensitivity)
	v.offset = screen.Sub(anchor.Scale(v.scale))
}

// ScreenToDocument maps a screen point into document space
func (v *Viewport) ScreenToDocument(p valueobjects.Point) valueobjects.Point {
	return p.Sub(v.offset).Scale(1 / v.scale)
}

// DocumentToScreen maps a document point into screen space
func (v *Viewport) DocumentToScreen(p valueobjects.Point) valueobjects.Point {
	return p.Scale(v.scale).Add(v.offset.X, v.offset.Y)
}

// DocumentRectToScreen maps a document rectangle into screen space
func (v *Viewport) DocumentRectToScreen(r valueobjects.Rect) valueobjects.Rect {
	return valueobjects.RectAt(
		v.DocumentToScreen(r.Min),
		valueobjects.Size{Width: r.Size.Width * v.scale, Height: r.Size.Height * v.scale},
	)
}

// VisibleBounds returns the document-space rectangle shown by a viewport of
// the given pixel size
func (v *Viewport) VisibleBounds(width, height float64) valueobjects.Rect {
	return valueobjects.RectAt(
		v.ScreenToDocument(valueobjects.Point{}),
		valueobjects.Size{Width: width / v.scale, Height: height / v.scale},
	)
}

// Reset restores scale 1 and a zero offset
func (v *Viewport) Reset() {
	v.scale = 1
	v.offset = valueobjects.Point{}
}

func (v *Viewport) nextScale(delta, sensitivity float64) float64 {
	if !finite(delta) {
		return v.scale
	}
	if sensitivity <= 0 || !finite(sensitivity) {
		sensitivity = 1
	}
	return clamp(v.scale+delta*sensitivity, v.minScale, v.maxScale)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
