// Package timeseries maps pixel positions on a plotted series to
// domain-coordinate point and range labels. Rendering of committed labels
// belongs to the hosting chart component; this package only contributes
// the coordinate mapping and drag bookkeeping.
package timeseries

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"image-labeler/internal/annotation"
)

// Scale converts between pixel positions along one chart axis and domain
// values. The hosting chart supplies an implementation backed by its axis.
type Scale interface {
	ValueForPixel(px float64) float64
	PixelForValue(v float64) float64
}

// LinearScale is a straight-line Scale for headless use and tests.
type LinearScale struct {
	PixelMin, PixelMax float64
	ValueMin, ValueMax float64
}

// ValueForPixel implements Scale.
func (s LinearScale) ValueForPixel(px float64) float64 {
	if s.PixelMax == s.PixelMin {
		return s.ValueMin
	}
	t := (px - s.PixelMin) / (s.PixelMax - s.PixelMin)
	return s.ValueMin + t*(s.ValueMax-s.ValueMin)
}

// PixelForValue implements Scale.
func (s LinearScale) PixelForValue(v float64) float64 {
	if s.ValueMax == s.ValueMin {
		return s.PixelMin
	}
	t := (v - s.ValueMin) / (s.ValueMax - s.ValueMin)
	return s.PixelMin + t*(s.PixelMax-s.PixelMin)
}

// Annotator converts clicks and drags on a plotted series into point and
// range annotations in domain coordinates.
type Annotator struct {
	xs     []float64 // sampled x values, ascending
	ys     []float64 // sample values, same length as xs
	xScale Scale
	yScale Scale

	dragging  bool
	dragStart float64 // domain x at drag start
}

// NewAnnotator creates an annotator over the sampled series.
func NewAnnotator(xs, ys []float64, xScale, yScale Scale) (*Annotator, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("empty series")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("series length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	return &Annotator{xs: xs, ys: ys, xScale: xScale, yScale: yScale}, nil
}

// PointAt converts a pixel click into a point annotation snapped to the
// nearest sampled index of the series.
func (a *Annotator) PointAt(px float64) *annotation.Point {
	v := a.xScale.ValueForPixel(px)
	idx := floats.NearestIdx(a.xs, v)
	return &annotation.Point{X: a.xs[idx], Y: a.ys[idx]}
}

// BeginRange starts a range drag at the given pixel position.
func (a *Annotator) BeginRange(px float64) {
	a.dragging = true
	a.dragStart = a.xScale.ValueForPixel(px)
}

// PreviewRange returns the in-progress range for transient overlay drawing,
// or false when no drag is active.
func (a *Annotator) PreviewRange(px float64) (annotation.Range, bool) {
	if !a.dragging {
		return annotation.Range{}, false
	}
	r := annotation.Range{Start: a.dragStart, End: a.xScale.ValueForPixel(px)}
	return r.Normalized(), true
}

// EndRange finishes the drag and returns the committed range, normalized so
// start <= end. Returns nil when no drag was active or the range collapsed
// to a single value.
func (a *Annotator) EndRange(px float64) *annotation.Range {
	if !a.dragging {
		return nil
	}
	a.dragging = false
	r := annotation.Range{Start: a.dragStart, End: a.xScale.ValueForPixel(px)}.Normalized()
	if r.Start == r.End {
		return nil
	}
	return &r
}

// Cancel aborts an in-progress drag.
func (a *Annotator) Cancel() {
	a.dragging = false
}
