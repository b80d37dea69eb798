package editor

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

const (
	defaultBrushSize = 20.0
	minBrushSize     = 2.0
	maxBrushSize     = 200.0
	maskOpacity      = 0.45
)

// maskEditor paints raster masks. A paint session accumulates strokes in
// a full-resolution scratch buffer, allocated lazily on the first stroke;
// Commit scans the painted alpha, pads the tight bounds by the brush
// radius, and stores the crop as PNG.
type maskEditor struct {
	s *Surface

	buf      *image.RGBA // scratch buffer, image-sized, nil until first stroke
	painting bool
	dirty    bool
	erase    bool
	brush    float64

	classID int

	lastX float64
	lastY float64

	// decoded caches committed mask rasters for drawing.
	decoded map[int]*image.RGBA

	// moving state for select-mode drags.
	moving   bool
	targetID int
	origX    int
	origY    int
	startX   float64
	startY   float64
}

func newMaskEditor(s *Surface) *maskEditor {
	return &maskEditor{s: s, brush: defaultBrushSize, decoded: make(map[int]*image.RGBA)}
}

func (m *maskEditor) AvailableTools() []Tool {
	return []Tool{ToolMask}
}

func (m *maskEditor) Shortcuts() []Shortcut {
	return []Shortcut{
		{Key: "[", Description: "Shrink brush", Action: func() { m.SetBrushSize(m.brush / 1.25) }},
		{Key: "]", Description: "Grow brush", Action: func() { m.SetBrushSize(m.brush * 1.25) }},
		{Key: "E", Description: "Toggle erase mode", Action: m.ToggleErase},
		{Key: "Return", Description: "Commit mask", Action: func() { m.Commit() }},
		{Key: "Escape", Description: "Discard mask", Action: m.Discard},
	}
}

// BrushSize returns the current brush diameter in image pixels.
func (m *maskEditor) BrushSize() float64 {
	return m.brush
}

// SetBrushSize clamps and applies a new brush diameter.
func (m *maskEditor) SetBrushSize(size float64) {
	if size < minBrushSize {
		size = minBrushSize
	}
	if size > maxBrushSize {
		size = maxBrushSize
	}
	m.brush = size
	m.s.requestRedraw()
}

// Erasing reports whether strokes clear instead of paint.
func (m *maskEditor) Erasing() bool {
	return m.erase
}

func (m *maskEditor) ToggleErase() {
	m.erase = !m.erase
	m.s.requestRedraw()
}

// HasSession reports whether a paint session holds uncommitted strokes.
func (m *maskEditor) HasSession() bool {
	return m.dirty
}

func (m *maskEditor) HandleDrawStart(ix, iy float64) {
	if m.s.tool == ToolMask {
		if !m.s.beginGesture(gesturePaint, m) {
			return
		}
		if m.buf == nil {
			m.buf = image.NewRGBA(image.Rect(0, 0, m.s.imgW, m.s.imgH))
			m.classID = m.s.currentClass
		}
		m.painting = true
		m.lastX, m.lastY = ix, iy
		m.stamp(ix, iy)
		m.s.requestRedraw()
		return
	}

	// Select mode: drag a committed mask to reposition its crop.
	sel := m.s.list.Selected()
	if sel == nil {
		return
	}
	mask, ok := sel.Data.(*annotation.Mask)
	if !ok || !mask.HitTest(ix, iy) {
		return
	}
	if !m.s.beginGesture(gestureMove, m) {
		return
	}
	m.moving = true
	m.targetID = sel.ID
	m.origX, m.origY = mask.X, mask.Y
	m.startX, m.startY = ix, iy
}

func (m *maskEditor) HandleDrawMove(ix, iy float64) {
	if m.moving {
		m.applyMove(ix, iy)
		m.s.requestRedraw()
		return
	}
	if !m.painting {
		return
	}
	m.stroke(m.lastX, m.lastY, ix, iy)
	m.lastX, m.lastY = ix, iy
	m.s.requestRedraw()
}

func (m *maskEditor) HandleDrawEnd(ix, iy float64) {
	if m.moving {
		m.applyMove(ix, iy)
		m.moving = false
		m.targetID = 0
		m.s.markMutated()
		return
	}
	if !m.painting {
		return
	}
	m.stroke(m.lastX, m.lastY, ix, iy)
	m.painting = false
	m.s.requestRedraw()
}

func (m *maskEditor) applyMove(ix, iy float64) {
	a := m.s.list.Get(m.targetID)
	if a == nil {
		return
	}
	mask, ok := a.Data.(*annotation.Mask)
	if !ok {
		return
	}
	mask.X = m.origX + int(math.Round(ix-m.startX))
	mask.Y = m.origY + int(math.Round(iy-m.startY))
}

// stroke stamps the brush along the segment at quarter-brush intervals so
// fast drags leave no gaps.
func (m *maskEditor) stroke(x1, y1, x2, y2 float64) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	step := m.brush / 4
	if step < 1 {
		step = 1
	}
	n := int(dist/step) + 1
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		m.stamp(x1+dx*t, y1+dy*t)
	}
}

// stamp paints or erases one brush circle in the scratch buffer.
func (m *maskEditor) stamp(cx, cy float64) {
	if m.buf == nil {
		return
	}
	m.dirty = true
	r := m.brush / 2
	minX := int(math.Floor(cx - r))
	maxX := int(math.Ceil(cx + r))
	minY := int(math.Floor(cy - r))
	maxY := int(math.Ceil(cy + r))
	r2 := r * r

	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= m.s.imgH {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= m.s.imgW {
				continue
			}
			ddx := float64(x) - cx
			ddy := float64(y) - cy
			if ddx*ddx+ddy*ddy > r2 {
				continue
			}
			i := m.buf.PixOffset(x, y)
			if m.erase {
				m.buf.Pix[i] = 0
				m.buf.Pix[i+1] = 0
				m.buf.Pix[i+2] = 0
				m.buf.Pix[i+3] = 0
			} else {
				m.buf.Pix[i] = 255
				m.buf.Pix[i+1] = 255
				m.buf.Pix[i+2] = 255
				m.buf.Pix[i+3] = 255
			}
		}
	}
}

// paintedBounds scans the scratch alpha for the tight bounding rectangle
// of painted pixels. ok is false when nothing is painted.
func (m *maskEditor) paintedBounds() (minX, minY, maxX, maxY int, ok bool) {
	if m.buf == nil {
		return 0, 0, 0, 0, false
	}
	minX, minY = m.s.imgW, m.s.imgH
	maxX, maxY = -1, -1
	for y := 0; y < m.s.imgH; y++ {
		row := m.buf.Pix[y*m.buf.Stride : y*m.buf.Stride+m.s.imgW*4]
		for x := 0; x < m.s.imgW; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	return minX, minY, maxX, maxY, maxY >= 0
}

// Commit ends the paint session. The tight painted bounds are padded by
// half the brush size, clamped to the image, cropped, and PNG-encoded. An
// all-erased session discards instead of committing an empty mask.
func (m *maskEditor) Commit() bool {
	if !m.dirty {
		m.reset()
		return false
	}

	minX, minY, maxX, maxY, ok := m.paintedBounds()
	if !ok {
		m.s.toast("Empty mask discarded", LevelInfo)
		m.reset()
		m.s.requestRedraw()
		return false
	}

	pad := int(math.Ceil(m.brush / 2))
	minX -= pad
	minY -= pad
	maxX += pad
	maxY += pad
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= m.s.imgW {
		maxX = m.s.imgW - 1
	}
	if maxY >= m.s.imgH {
		maxY = m.s.imgH - 1
	}

	w := maxX - minX + 1
	h := maxY - minY + 1
	crop := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(crop, crop.Bounds(), m.buf, image.Pt(minX, minY), draw.Src)

	var out bytes.Buffer
	if err := png.Encode(&out, crop); err != nil {
		m.s.toast("Mask encode failed: "+err.Error(), LevelError)
		m.reset()
		return false
	}

	data := &annotation.Mask{PNG: out.Bytes(), X: minX, Y: minY, Width: w, Height: h}
	a := m.s.list.Add(&annotation.Annotation{ClassID: m.classID, Data: data})
	m.s.list.Select(a.ID)

	m.reset()
	m.s.markMutated()
	return true
}

// Discard throws the session away with user feedback.
func (m *maskEditor) Discard() {
	if !m.dirty && m.buf == nil {
		return
	}
	m.reset()
	m.s.toast("Mask discarded", LevelInfo)
	m.s.requestRedraw()
}

// discard silently resets the session, for image unload.
func (m *maskEditor) discard() {
	m.reset()
}

func (m *maskEditor) reset() {
	m.buf = nil
	m.painting = false
	m.dirty = false
}

// EditAnnotation checks a committed mask out into a paint session: the
// stored crop is re-hydrated into the scratch buffer at its offset and the
// annotation leaves the committed list. While checked out it is invisible
// to selection and hit testing; Commit stores the result as a new entry.
func (m *maskEditor) EditAnnotation(id int) bool {
	a := m.s.list.Get(id)
	if a == nil {
		return false
	}
	mask, ok := a.Data.(*annotation.Mask)
	if !ok {
		return false
	}
	raster := m.decode(id, mask)
	if raster == nil {
		return false
	}

	m.reset()
	m.buf = image.NewRGBA(image.Rect(0, 0, m.s.imgW, m.s.imgH))
	draw.Draw(m.buf, image.Rect(mask.X, mask.Y, mask.X+mask.Width, mask.Y+mask.Height), raster, image.Point{}, draw.Src)
	m.dirty = true
	m.classID = a.ClassID

	m.s.list.Remove(id)
	delete(m.decoded, id)
	m.s.requestRedraw()
	return true
}

func (m *maskEditor) decode(id int, mask *annotation.Mask) *image.RGBA {
	if cached, ok := m.decoded[id]; ok {
		return cached
	}
	img, err := png.Decode(bytes.NewReader(mask.PNG))
	if err != nil {
		m.s.log.WithError(err).Warn("mask decode failed")
		return nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	m.decoded[id] = rgba
	return rgba
}

func (m *maskEditor) DrawAnnotation(dst *image.RGBA, a *annotation.Annotation, selected bool) {
	mask, ok := a.Data.(*annotation.Mask)
	if !ok {
		return
	}
	raster := m.decode(a.ID, mask)
	if raster == nil {
		return
	}
	r, g, b, _ := m.s.classColor(a.ClassID)
	tint := color.RGBA{R: r, G: g, B: b, A: 255}

	m.blitMask(dst, raster, float64(mask.X), float64(mask.Y), tint)

	if selected {
		x1, y1 := m.s.View.ImageToCanvas(float64(mask.X), float64(mask.Y))
		x2, y2 := m.s.View.ImageToCanvas(float64(mask.X+mask.Width), float64(mask.Y+mask.Height))
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		if y2 < y1 {
			y1, y2 = y2, y1
		}
		drawDashedRect(dst, int(x1), int(y1), int(x2), int(y2), colorutil.Yellow)
	}
}

// blitMask composites a mask raster tinted with the class color. The
// destination region is inverse-mapped per pixel so masks track zoom, pan,
// and rotation exactly like the image.
func (m *maskEditor) blitMask(dst *image.RGBA, raster *image.RGBA, offX, offY float64, tint color.RGBA) {
	rb := raster.Bounds()
	w := float64(rb.Dx())
	h := float64(rb.Dy())

	// Project the mask's corners to find the destination scan region.
	dminX, dminY := math.Inf(1), math.Inf(1)
	dmaxX, dmaxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		x, y := m.s.View.ImageToCanvas(offX+c[0], offY+c[1])
		dminX = math.Min(dminX, x)
		dminY = math.Min(dminY, y)
		dmaxX = math.Max(dmaxX, x)
		dmaxY = math.Max(dmaxY, y)
	}

	db := dst.Bounds()
	x0 := int(math.Max(math.Floor(dminX), float64(db.Min.X)))
	y0 := int(math.Max(math.Floor(dminY), float64(db.Min.Y)))
	x1 := int(math.Min(math.Ceil(dmaxX), float64(db.Max.X-1)))
	y1 := int(math.Min(math.Ceil(dmaxY), float64(db.Max.Y-1)))

	inv := m.s.View.InverseMatrix()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			sx := int(p.X - offX)
			sy := int(p.Y - offY)
			if sx < 0 || sx >= rb.Dx() || sy < 0 || sy >= rb.Dy() {
				continue
			}
			if raster.Pix[raster.PixOffset(sx, sy)+3] == 0 {
				continue
			}
			o := dst.PixOffset(x, y)
			cur := color.RGBA{R: dst.Pix[o], G: dst.Pix[o+1], B: dst.Pix[o+2], A: 255}
			blended := colorutil.Blend(cur, tint, maskOpacity)
			dst.Pix[o] = blended.R
			dst.Pix[o+1] = blended.G
			dst.Pix[o+2] = blended.B
		}
	}
}

func (m *maskEditor) DrawOverlay(dst *image.RGBA) {
	if m.s.tool != ToolMask {
		return
	}
	// Uncommitted strokes, tinted with the session class color.
	if m.buf != nil && m.dirty {
		r, g, b, _ := m.s.classColor(m.classID)
		m.blitMask(dst, m.buf, 0, 0, color.RGBA{R: r, G: g, B: b, A: 255})
	}

	// Brush cursor at the last pointer position.
	cx, cy := m.s.View.ImageToCanvas(m.s.lastImgX, m.s.lastImgY)
	radius := m.brush / 2 * m.s.View.Zoom
	cursor := colorutil.White
	if m.erase {
		cursor = colorutil.Orange
	}
	drawCircle(dst, cx, cy, radius, cursor, false)
}
