// Package view provides the coordinate transform between canvas (device
// pixel) space and image space under zoom, pan, and display rotation.
package view

import (
	"math"

	"image-labeler/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the zoom range.
	MinZoom = 0.1
	MaxZoom = 10.0

	// ZoomStep is the multiplicative step for wheel and keyboard zoom.
	ZoomStep = 1.25
)

// Transform maps between image coordinates (unrotated pixel space of the
// loaded raster) and canvas coordinates (device pixels). The display
// rotation is applied about the image center and is independent of any
// annotation's own orientation.
type Transform struct {
	Zoom     float64
	PanX     float64
	PanY     float64
	Rotation float64 // degrees, clockwise

	ImageWidth  float64
	ImageHeight float64
}

// New returns a transform at identity zoom with no pan or rotation.
func New(imageWidth, imageHeight float64) Transform {
	return Transform{
		Zoom:        1.0,
		ImageWidth:  imageWidth,
		ImageHeight: imageHeight,
	}
}

func (t Transform) center() geometry.Point2D {
	return geometry.Point2D{X: t.ImageWidth / 2, Y: t.ImageHeight / 2}
}

// Matrix returns the image-to-canvas mapping as one affine transform:
// rotate about the image center, scale by zoom, translate by pan.
func (t Transform) Matrix() geometry.AffineTransform {
	m := geometry.Translation(t.PanX, t.PanY).
		Compose(geometry.Scale(t.Zoom, t.Zoom))
	if t.Rotation != 0 {
		c := t.center()
		m = m.Compose(geometry.Translation(c.X, c.Y)).
			Compose(geometry.Rotation(t.Rotation * math.Pi / 180)).
			Compose(geometry.Translation(-c.X, -c.Y))
	}
	return m
}

// InverseMatrix returns the canvas-to-image mapping. The zoom clamp keeps
// the forward matrix invertible.
func (t Transform) InverseMatrix() geometry.AffineTransform {
	inv, ok := t.Matrix().Inverse()
	if !ok {
		return geometry.Identity()
	}
	return inv
}

// CanvasToImage converts a canvas point to image coordinates.
func (t Transform) CanvasToImage(cx, cy float64) (float64, float64) {
	p := t.InverseMatrix().Apply(geometry.Point2D{X: cx, Y: cy})
	return p.X, p.Y
}

// ImageToCanvas is the exact inverse of CanvasToImage.
func (t Transform) ImageToCanvas(ix, iy float64) (float64, float64) {
	p := t.Matrix().Apply(geometry.Point2D{X: ix, Y: iy})
	return p.X, p.Y
}

// ClampZoom bounds a zoom factor to [MinZoom, MaxZoom].
func ClampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// ZoomAt sets the zoom level while keeping the image point under the given
// canvas position fixed on screen.
func (t *Transform) ZoomAt(cx, cy, zoom float64) {
	zoom = ClampZoom(zoom)
	if zoom == t.Zoom {
		return
	}

	ix, iy := t.CanvasToImage(cx, cy)
	t.Zoom = zoom

	// Re-project the anchored image point and correct pan by the drift.
	p := geometry.Point2D{X: ix, Y: iy}
	if t.Rotation != 0 {
		p = p.RotateAround(t.center(), t.Rotation)
	}
	t.PanX = cx - p.X*t.Zoom
	t.PanY = cy - p.Y*t.Zoom
}

// ZoomInAt and ZoomOutAt step the zoom about a canvas anchor point.
func (t *Transform) ZoomInAt(cx, cy float64)  { t.ZoomAt(cx, cy, t.Zoom*ZoomStep) }
func (t *Transform) ZoomOutAt(cx, cy float64) { t.ZoomAt(cx, cy, t.Zoom/ZoomStep) }

// PanBy shifts the view by a canvas-space delta.
func (t *Transform) PanBy(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
}

// RotateBy adds to the display rotation, wrapped to [0, 360).
func (t *Transform) RotateBy(degrees float64) {
	t.Rotation = geometry.WrapDegrees(t.Rotation + degrees)
}

// FitTo chooses zoom and pan so the whole image is visible inside a viewport
// of the given size, with a small margin.
func (t *Transform) FitTo(viewWidth, viewHeight float64) {
	if t.ImageWidth <= 0 || t.ImageHeight <= 0 || viewWidth <= 0 || viewHeight <= 0 {
		return
	}
	zx := viewWidth / t.ImageWidth
	zy := viewHeight / t.ImageHeight
	zoom := zx
	if zy < zx {
		zoom = zy
	}
	t.Zoom = ClampZoom(zoom * 0.95)
	t.PanX = (viewWidth - t.ImageWidth*t.Zoom) / 2
	t.PanY = (viewHeight - t.ImageHeight*t.Zoom) / 2
	t.Rotation = 0
}

// Reset restores identity zoom and clears pan and rotation.
func (t *Transform) Reset() {
	t.Zoom = 1.0
	t.PanX = 0
	t.PanY = 0
	t.Rotation = 0
}
