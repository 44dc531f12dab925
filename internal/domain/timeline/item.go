package timeline

import (
	"github.com/osa030/seekbox/internal/domain/point"
)

// Item geometry and colors (RGBA).
const (
	ItemHeight     = 50.0
	HandleWidth    = 5.0
	NameOffset     = 10.0
	ColorNormal    = 0x709fb899
	ColorSelected  = 0xa6cee3aa
	ColorHandle    = 0x00000022
	ColorNameLabel = 0x000000ff
)

// Draggable is anything that follows the pointer during a canvas drag.
type Draggable interface {
	DragStart()
	SetPos(p point.Point)
	DragEnd()
}

// HandleKind tags the edge a Handle controls.
type HandleKind int

const (
	StartHandle HandleKind = iota // trims the clip start
	EndHandle                     // trims the clip end
)

// String returns the string representation of the handle kind.
func (k HandleKind) String() string {
	switch k {
	case StartHandle:
		return "start"
	case EndHandle:
		return "end"
	default:
		return "unknown"
	}
}

// Handle is a trim handle on one edge of an Item.
type Handle struct {
	Kind    HandleKind
	element *Element
	zoom    *Zoom
}

// DragStart implements Draggable.
func (h *Handle) DragStart() {}

// SetPos trims the element edge to the time under p.
func (h *Handle) SetPos(p point.Point) {
	t := h.zoom.PixelToNs(p.X)
	switch h.Kind {
	case StartHandle:
		h.element.SnapInTime(t)
	case EndHandle:
		h.element.SnapOutTime(t)
	}
}

// DragEnd implements Draggable.
func (h *Handle) DragEnd() {}

// Layout is the canvas geometry of an Item.
type Layout struct {
	X             float64 // item offset on the canvas
	Width         float64 // background width
	Height        float64
	EndHandleX    float64 // end handle offset, relative to X
	NameClipWidth float64 // width available to the name label
	Fill          uint32  // background color
}

// Item is a clip representation on the timeline canvas: a body that can be
// dragged along the timeline plus a trim handle on each side.
type Item struct {
	element  *Element
	zoom     *Zoom
	selected bool

	Start *Handle
	End   *Handle
}

// NewItem creates the canvas item for e.
func NewItem(e *Element, zoom *Zoom) *Item {
	it := &Item{
		element: e,
		zoom:    zoom,
	}
	it.Start = &Handle{Kind: StartHandle, element: e, zoom: zoom}
	it.End = &Handle{Kind: EndHandle, element: e, zoom: zoom}
	return it
}

// Element returns the clip this item represents.
func (it *Item) Element() *Element { return it.element }

// SetZoom switches the item and its handles to another zoom.
func (it *Item) SetZoom(z *Zoom) {
	it.zoom = z
	it.Start.zoom = z
	it.End.zoom = z
}

// Select highlights the item.
func (it *Item) Select() { it.selected = true }

// Normal removes the highlight.
func (it *Item) Normal() { it.selected = false }

// Selected reports whether the item is highlighted.
func (it *Item) Selected() bool { return it.selected }

// DragStart freezes timeline edges while the body moves.
func (it *Item) DragStart() {
	if tl := it.element.timeline; tl != nil {
		tl.DisableEdgeUpdates()
	}
}

// SetPos moves the clip to the time under p, never before zero.
func (it *Item) SetPos(p point.Point) {
	it.element.SnapStartDurationTime(max(it.zoom.PixelToNs(p.X), 0))
}

// DragEnd recomputes timeline edges.
func (it *Item) DragEnd() {
	if tl := it.element.timeline; tl != nil {
		tl.EnableEdgeUpdates()
	}
}

// HitTest returns the draggable under p, relative to the canvas origin,
// or nil if p is outside the item.
func (it *Item) HitTest(p point.Point) Draggable {
	l := it.Layout()
	local := p.Sub(point.New(l.X, 0))
	if local.X < 0 || local.X > l.Width || local.Y < 0 || local.Y > l.Height {
		return nil
	}
	switch {
	case local.X <= HandleWidth:
		return it.Start
	case local.X >= l.EndHandleX:
		return it.End
	default:
		return it
	}
}

// Layout computes the current geometry from the clip and zoom.
func (it *Item) Layout() Layout {
	width := it.zoom.NsToPixel(it.element.Duration())
	w := width - HandleWidth
	fill := uint32(ColorNormal)
	if it.selected {
		fill = ColorSelected
	}
	return Layout{
		X:             it.zoom.NsToPixel(it.element.Start()),
		Width:         width,
		Height:        ItemHeight,
		EndHandleX:    w,
		NameClipWidth: w,
		Fill:          fill,
	}
}

var (
	_ Draggable = (*Item)(nil)
	_ Draggable = (*Handle)(nil)
)
