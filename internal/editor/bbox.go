package editor

import (
	"image"
	"image/color"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

// Handle indices follow clockwise order from the top-left corner.
const (
	handleNone = -1
	handleTL   = 0
	handleT    = 1
	handleTR   = 2
	handleR    = 3
	handleBR   = 4
	handleB    = 5
	handleBL   = 6
	handleL    = 7
)

// handlePoints returns the eight handle anchor points of a rectangle.
func handlePoints(r geometry.Rect) [8]geometry.Point2D {
	cx := r.X + r.Width/2
	cy := r.Y + r.Height/2
	return [8]geometry.Point2D{
		{X: r.X, Y: r.Y},
		{X: cx, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: cy},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: cx, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
		{X: r.X, Y: cy},
	}
}

// hitHandle returns the index of the handle under the point, or handleNone.
// pickRadius is in image pixels.
func hitHandle(r geometry.Rect, x, y, pickRadius float64) int {
	pts := handlePoints(r)
	for i, p := range pts {
		dx := p.X - x
		dy := p.Y - y
		if dx*dx+dy*dy <= pickRadius*pickRadius {
			return i
		}
	}
	return handleNone
}

// resizeRect applies a handle drag to a snapshot rectangle. The opposite
// edge stays anchored and each dimension is floored at minBoxSize.
func resizeRect(orig geometry.Rect, handle int, dx, dy float64) geometry.Rect {
	r := orig

	switch handle {
	case handleTL, handleL, handleBL:
		nx := orig.X + dx
		if nx > orig.X+orig.Width-minBoxSize {
			nx = orig.X + orig.Width - minBoxSize
		}
		r.Width = orig.X + orig.Width - nx
		r.X = nx
	case handleTR, handleR, handleBR:
		r.Width = orig.Width + dx
		if r.Width < minBoxSize {
			r.Width = minBoxSize
		}
	}

	switch handle {
	case handleTL, handleT, handleTR:
		ny := orig.Y + dy
		if ny > orig.Y+orig.Height-minBoxSize {
			ny = orig.Y + orig.Height - minBoxSize
		}
		r.Height = orig.Y + orig.Height - ny
		r.Y = ny
	case handleBL, handleB, handleBR:
		r.Height = orig.Height + dy
		if r.Height < minBoxSize {
			r.Height = minBoxSize
		}
	}

	return r
}

type boxMode int

const (
	boxIdle boxMode = iota
	boxCreating
	boxResizing
	boxMoving
)

// boxEditor creates and edits axis-aligned bounding boxes.
type boxEditor struct {
	s *Surface

	mode     boxMode
	startX   float64
	startY   float64
	curX     float64
	curY     float64
	handle   int
	targetID int
	orig     annotation.BBox
}

func newBoxEditor(s *Surface) *boxEditor {
	return &boxEditor{s: s, handle: handleNone}
}

func (b *boxEditor) AvailableTools() []Tool {
	return []Tool{ToolBBox}
}

func (b *boxEditor) Shortcuts() []Shortcut {
	return nil
}

func (b *boxEditor) HandleDrawStart(ix, iy float64) {
	if b.s.tool == ToolBBox {
		if !b.s.beginGesture(gestureDraw, b) {
			return
		}
		b.mode = boxCreating
		b.startX, b.startY = ix, iy
		b.curX, b.curY = ix, iy
		b.s.requestRedraw()
		return
	}

	// Selection mode: resize via a handle, or move from inside the box.
	sel := b.s.list.Selected()
	if sel == nil {
		return
	}
	box, ok := sel.Data.(*annotation.BBox)
	if !ok {
		return
	}

	pick := handleScreenRadius / b.s.View.Zoom
	if h := hitHandle(box.Rect(), ix, iy, pick); h != handleNone {
		if !b.s.beginGesture(gestureResize, b) {
			return
		}
		b.mode = boxResizing
		b.handle = h
		b.targetID = sel.ID
		b.orig = *box
		b.startX, b.startY = ix, iy
		return
	}
	if box.HitTest(ix, iy) {
		if !b.s.beginGesture(gestureMove, b) {
			return
		}
		b.mode = boxMoving
		b.targetID = sel.ID
		b.orig = *box
		b.startX, b.startY = ix, iy
	}
}

func (b *boxEditor) HandleDrawMove(ix, iy float64) {
	switch b.mode {
	case boxCreating:
		b.curX, b.curY = ix, iy
		b.s.requestRedraw()
	case boxResizing:
		b.applyResize(ix, iy)
		b.s.requestRedraw()
	case boxMoving:
		b.applyMove(ix, iy)
		b.s.requestRedraw()
	}
}

func (b *boxEditor) HandleDrawEnd(ix, iy float64) {
	switch b.mode {
	case boxCreating:
		b.curX, b.curY = ix, iy
		r := geometry.RectFromCorners(
			geometry.Point2D{X: b.startX, Y: b.startY},
			geometry.Point2D{X: b.curX, Y: b.curY},
		)
		if r.Width >= minBoxSize && r.Height >= minBoxSize {
			a := b.s.list.Add(&annotation.Annotation{
				ClassID: b.s.currentClass,
				Data:    &annotation.BBox{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
			})
			b.s.list.Select(a.ID)
			b.s.markMutated()
		} else {
			b.s.requestRedraw()
		}
	case boxResizing:
		b.applyResize(ix, iy)
		b.s.markMutated()
	case boxMoving:
		b.applyMove(ix, iy)
		b.s.markMutated()
	}
	b.mode = boxIdle
	b.handle = handleNone
	b.targetID = 0
}

func (b *boxEditor) applyResize(ix, iy float64) {
	a := b.s.list.Get(b.targetID)
	if a == nil {
		return
	}
	box, ok := a.Data.(*annotation.BBox)
	if !ok {
		return
	}
	r := resizeRect(b.orig.Rect(), b.handle, ix-b.startX, iy-b.startY)
	box.X, box.Y, box.Width, box.Height = r.X, r.Y, r.Width, r.Height
}

func (b *boxEditor) applyMove(ix, iy float64) {
	a := b.s.list.Get(b.targetID)
	if a == nil {
		return
	}
	box, ok := a.Data.(*annotation.BBox)
	if !ok {
		return
	}
	box.X = b.orig.X + (ix - b.startX)
	box.Y = b.orig.Y + (iy - b.startY)
}

func (b *boxEditor) DrawAnnotation(dst *image.RGBA, a *annotation.Annotation, selected bool) {
	box, ok := a.Data.(*annotation.BBox)
	if !ok {
		return
	}
	r, g, bl, al := b.s.classColor(a.ClassID)
	col := color.RGBA{R: r, G: g, B: bl, A: al}

	b.drawRect(dst, box.Rect(), col, selected)
	if selected {
		b.drawHandles(dst, box.Rect())
	}
}

// drawRect maps the rectangle corners through the view transform and
// connects them, so boxes follow view rotation.
func (b *boxEditor) drawRect(dst *image.RGBA, rect geometry.Rect, col color.RGBA, selected bool) {
	corners := [4][2]float64{
		{rect.X, rect.Y},
		{rect.X + rect.Width, rect.Y},
		{rect.X + rect.Width, rect.Y + rect.Height},
		{rect.X, rect.Y + rect.Height},
	}
	var cx [4]int
	var cy [4]int
	for i, c := range corners {
		x, y := b.s.View.ImageToCanvas(c[0], c[1])
		cx[i], cy[i] = int(x), int(y)
	}
	thickness := 1
	if selected {
		thickness = 2
	}
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		drawLine(dst, cx[i], cy[i], cx[j], cy[j], col, thickness)
	}
}

func (b *boxEditor) drawHandles(dst *image.RGBA, rect geometry.Rect) {
	for _, p := range handlePoints(rect) {
		x, y := b.s.View.ImageToCanvas(p.X, p.Y)
		drawHandle(dst, int(x), int(y), colorutil.White)
	}
}

func (b *boxEditor) DrawOverlay(dst *image.RGBA) {
	if b.mode != boxCreating {
		return
	}
	x1, y1 := b.s.View.ImageToCanvas(b.startX, b.startY)
	x2, y2 := b.s.View.ImageToCanvas(b.curX, b.curY)
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	drawDashedRect(dst, int(x1), int(y1), int(x2), int(y2), colorutil.Yellow)
}
