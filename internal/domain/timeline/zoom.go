// Package timeline models clips on a timeline canvas: their geometry,
// trim handles and edge snapping. It does not draw anything.
package timeline

import (
	"math"
	"time"
)

// DefaultPixelsPerSecond is the zoom ratio used when none is set.
const DefaultPixelsPerSecond = 10.0

// Zoom converts between canvas pixels and timeline time.
// A Zoom is shared by every item of a canvas; changing the ratio moves
// all of them.
type Zoom struct {
	pixelsPerSecond float64
}

// NewZoom creates a zoom with the given pixels-per-second ratio.
// Non-positive ratios fall back to DefaultPixelsPerSecond.
func NewZoom(pixelsPerSecond float64) *Zoom {
	z := &Zoom{}
	z.SetRatio(pixelsPerSecond)
	return z
}

// Ratio returns the pixels-per-second ratio.
func (z *Zoom) Ratio() float64 {
	return z.pixelsPerSecond
}

// SetRatio changes the zoom ratio.
func (z *Zoom) SetRatio(pixelsPerSecond float64) {
	if pixelsPerSecond <= 0 || math.IsNaN(pixelsPerSecond) || math.IsInf(pixelsPerSecond, 0) {
		pixelsPerSecond = DefaultPixelsPerSecond
	}
	z.pixelsPerSecond = pixelsPerSecond
}

// PixelToNs converts a horizontal pixel offset to a time.
func (z *Zoom) PixelToNs(px float64) time.Duration {
	return time.Duration(math.Round(px / z.pixelsPerSecond * float64(time.Second)))
}

// NsToPixel converts a time to a horizontal pixel offset.
func (z *Zoom) NsToPixel(d time.Duration) float64 {
	return d.Seconds() * z.pixelsPerSecond
}
