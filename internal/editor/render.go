package editor

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

var backgroundColor = color.RGBA{R: 32, G: 32, B: 32, A: 255}

// Render composites the full frame: image under the current view
// transform, optional measurement grid, every annotation through its
// kind's editor, then the active editor's overlay (preview shapes, brush
// cursor) on top.
func (s *Surface) Render(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))

	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = backgroundColor.R
		output.Pix[i+1] = backgroundColor.G
		output.Pix[i+2] = backgroundColor.B
		output.Pix[i+3] = 255
	}

	if s.img == nil {
		return output
	}

	s.compositeImage(output, w, h)

	if s.showGrid {
		s.drawGrid(output, w, h)
	}

	selectedID := s.list.SelectedID()
	for _, a := range s.list.Items() {
		if ed, ok := s.editors[a.Data.Kind()]; ok {
			ed.DrawAnnotation(output, a, a.ID == selectedID)
		}
	}

	if ed := s.toolEditor(s.tool); ed != nil {
		ed.DrawOverlay(output)
	}

	return output
}

// compositeImage draws the loaded raster. With no view rotation the image
// maps to an axis-aligned rectangle and a nearest-neighbor scale covers
// it; otherwise each destination pixel is inverse-mapped through the view
// transform and sampled.
func (s *Surface) compositeImage(output *image.RGBA, w, h int) {
	if s.View.Rotation == 0 {
		x0 := int(math.Floor(s.View.PanX))
		y0 := int(math.Floor(s.View.PanY))
		x1 := int(math.Ceil(s.View.PanX + float64(s.imgW)*s.View.Zoom))
		y1 := int(math.Ceil(s.View.PanY + float64(s.imgH)*s.View.Zoom))
		xdraw.NearestNeighbor.Scale(output, image.Rect(x0, y0, x1, y1), s.img, s.img.Bounds(), xdraw.Over, nil)
		return
	}

	// Hoist the inverse mapping out of the per-pixel loop.
	inv := s.View.InverseMatrix()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			sx := int(p.X)
			sy := int(p.Y)
			if sx < 0 || sx >= s.imgW || sy < 0 || sy >= s.imgH {
				continue
			}
			i := s.img.PixOffset(sx, sy)
			o := output.PixOffset(x, y)
			output.Pix[o] = s.img.Pix[i]
			output.Pix[o+1] = s.img.Pix[i+1]
			output.Pix[o+2] = s.img.Pix[i+2]
			output.Pix[o+3] = 255
		}
	}
}

// drawGrid overlays grid lines at fixed image-space intervals, so the
// grid tracks zoom, pan, and rotation with the image.
func (s *Surface) drawGrid(output *image.RGBA, w, h int) {
	col := colorutil.WithAlpha(colorutil.White, 60)

	for gx := 0.0; gx <= float64(s.imgW); gx += gridSpacing {
		x1, y1 := s.View.ImageToCanvas(gx, 0)
		x2, y2 := s.View.ImageToCanvas(gx, float64(s.imgH))
		drawLine(output, int(x1), int(y1), int(x2), int(y2), col, 1)
	}
	for gy := 0.0; gy <= float64(s.imgH); gy += gridSpacing {
		x1, y1 := s.View.ImageToCanvas(0, gy)
		x2, y2 := s.View.ImageToCanvas(float64(s.imgW), gy)
		drawLine(output, int(x1), int(y1), int(x2), int(y2), col, 1)
	}
}
