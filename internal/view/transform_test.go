package view

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"image-labeler/pkg/geometry"
)

const tol = 1e-6

func TestRoundTripAllCombinations(t *testing.T) {
	zooms := []float64{MinZoom, 0.5, 1.0, 2.75, MaxZoom}
	pans := [][2]float64{{0, 0}, {-123.4, 56.7}, {800, -300}}
	rotations := []float64{0, 15, 90, 180, 271.5, 359.9}
	points := [][2]float64{{0, 0}, {640, 480}, {-50, 1000}, {13.37, 42.42}}

	for _, z := range zooms {
		for _, pan := range pans {
			for _, rot := range rotations {
				tf := New(1280, 960)
				tf.Zoom = z
				tf.PanX, tf.PanY = pan[0], pan[1]
				tf.Rotation = rot
				for _, p := range points {
					cx, cy := tf.ImageToCanvas(p[0], p[1])
					ix, iy := tf.CanvasToImage(cx, cy)
					if !scalar.EqualWithinAbs(ix, p[0], tol) || !scalar.EqualWithinAbs(iy, p[1], tol) {
						t.Fatalf("zoom=%v pan=%v rot=%v: (%v,%v) -> (%v,%v)",
							z, pan, rot, p[0], p[1], ix, iy)
					}
				}
			}
		}
	}
}

func TestMatrixAgreesWithMapping(t *testing.T) {
	tf := New(1280, 960)
	tf.Zoom = 2.5
	tf.PanX, tf.PanY = -80, 120
	tf.Rotation = 37

	m := tf.Matrix()
	inv := tf.InverseMatrix()
	for _, p := range [][2]float64{{0, 0}, {640, 480}, {-12.5, 1000}} {
		cx, cy := tf.ImageToCanvas(p[0], p[1])
		mp := m.Apply(geometry.Point2D{X: p[0], Y: p[1]})
		if !scalar.EqualWithinAbs(mp.X, cx, tol) || !scalar.EqualWithinAbs(mp.Y, cy, tol) {
			t.Fatalf("matrix maps (%v,%v) to (%v,%v), mapping says (%v,%v)",
				p[0], p[1], mp.X, mp.Y, cx, cy)
		}
		back := inv.Apply(mp)
		if !scalar.EqualWithinAbs(back.X, p[0], tol) || !scalar.EqualWithinAbs(back.Y, p[1], tol) {
			t.Fatalf("inverse maps (%v,%v) back to (%v,%v)", mp.X, mp.Y, back.X, back.Y)
		}
	}
}

func TestZoomAnchoring(t *testing.T) {
	tf := New(1920, 1080)
	tf.Zoom = 1.5
	tf.PanX, tf.PanY = -200, 75
	tf.Rotation = 30

	cx, cy := 412.0, 233.0
	beforeX, beforeY := tf.CanvasToImage(cx, cy)

	tf.ZoomAt(cx, cy, tf.Zoom*ZoomStep)
	afterX, afterY := tf.CanvasToImage(cx, cy)

	if math.Abs(afterX-beforeX) > tol || math.Abs(afterY-beforeY) > tol {
		t.Fatalf("cursor anchor drifted: before (%v,%v), after (%v,%v)",
			beforeX, beforeY, afterX, afterY)
	}
}

func TestZoomAtClampsToBounds(t *testing.T) {
	tf := New(100, 100)
	tf.ZoomAt(0, 0, 1000)
	if tf.Zoom != MaxZoom {
		t.Fatalf("zoom = %v, want clamp to %v", tf.Zoom, MaxZoom)
	}
	tf.ZoomAt(0, 0, 0.00001)
	if tf.Zoom != MinZoom {
		t.Fatalf("zoom = %v, want clamp to %v", tf.Zoom, MinZoom)
	}
}

func TestFitToCentersImage(t *testing.T) {
	tf := New(200, 100)
	tf.Rotation = 45
	tf.FitTo(400, 400)

	if tf.Rotation != 0 {
		t.Fatal("fit should clear rotation")
	}
	// 400/200=2 horizontally, 400/100=4 vertically; limiting axis * margin.
	want := 2 * 0.95
	if !scalar.EqualWithinAbs(tf.Zoom, want, tol) {
		t.Fatalf("zoom = %v, want %v", tf.Zoom, want)
	}
	cx, cy := tf.ImageToCanvas(100, 50)
	if !scalar.EqualWithinAbs(cx, 200, tol) || !scalar.EqualWithinAbs(cy, 200, tol) {
		t.Fatalf("image center maps to (%v,%v), want viewport center", cx, cy)
	}
}

func TestRotateByWraps(t *testing.T) {
	tf := New(10, 10)
	tf.RotateBy(270)
	tf.RotateBy(180)
	if tf.Rotation != 90 {
		t.Fatalf("rotation = %v, want 90", tf.Rotation)
	}
}
