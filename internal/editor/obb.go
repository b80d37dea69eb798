package editor

import (
	"image"
	"image/color"
	"math"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
	"image-labeler/pkg/geometry"
)

// rotationHandleGap is the screen-pixel distance between the box edge and
// the rotation handle.
const rotationHandleGap = 30.0

type obbMode int

const (
	obbIdle obbMode = iota
	obbCreating
	obbResizing
	obbMoving
	obbRotating
)

// obbEditor creates and edits oriented bounding boxes. All resize and hit
// math runs in the box's local frame; the box geometry itself is never
// rotated during a gesture.
type obbEditor struct {
	s *Surface

	mode     obbMode
	startX   float64
	startY   float64
	curX     float64
	curY     float64
	handle   int
	targetID int
	orig     annotation.OBB

	// Pointer angle about the center at rotation start, degrees.
	startAngle float64
}

func newOBBEditor(s *Surface) *obbEditor {
	return &obbEditor{s: s, handle: handleNone}
}

func (o *obbEditor) AvailableTools() []Tool {
	return []Tool{ToolOBB}
}

func (o *obbEditor) Shortcuts() []Shortcut {
	return nil
}

// rotationHandlePos returns the world position of the rotation handle,
// which sits past the box's top edge along the local up axis.
func (o *obbEditor) rotationHandlePos(box annotation.OBB) (float64, float64) {
	offset := math.Max(box.Width, box.Height)/2 + rotationHandleGap/o.s.View.Zoom
	return box.FromLocal(0, -offset)
}

// pointerAngle is the clockwise angle in degrees of the pointer about a
// center point, matching image coordinates (y grows downward).
func pointerAngle(cx, cy, x, y float64) float64 {
	return math.Atan2(y-cy, x-cx) * 180 / math.Pi
}

func (o *obbEditor) HandleDrawStart(ix, iy float64) {
	if o.s.tool == ToolOBB {
		if !o.s.beginGesture(gestureDraw, o) {
			return
		}
		o.mode = obbCreating
		o.startX, o.startY = ix, iy
		o.curX, o.curY = ix, iy
		o.s.requestRedraw()
		return
	}

	sel := o.s.list.Selected()
	if sel == nil {
		return
	}
	box, ok := sel.Data.(*annotation.OBB)
	if !ok {
		return
	}

	pick := handleScreenRadius / o.s.View.Zoom

	rx, ry := o.rotationHandlePos(*box)
	if dx, dy := rx-ix, ry-iy; dx*dx+dy*dy <= pick*pick {
		if !o.s.beginGesture(gestureRotate, o) {
			return
		}
		o.mode = obbRotating
		o.targetID = sel.ID
		o.orig = *box
		o.startAngle = pointerAngle(box.CX, box.CY, ix, iy)
		return
	}

	lx, ly := box.ToLocal(ix, iy)
	localRect := geometry.Rect{X: -box.Width / 2, Y: -box.Height / 2, Width: box.Width, Height: box.Height}
	if h := hitHandle(localRect, lx, ly, pick); h != handleNone {
		if !o.s.beginGesture(gestureResize, o) {
			return
		}
		o.mode = obbResizing
		o.handle = h
		o.targetID = sel.ID
		o.orig = *box
		o.startX, o.startY = lx, ly
		return
	}
	if box.HitTest(ix, iy) {
		if !o.s.beginGesture(gestureMove, o) {
			return
		}
		o.mode = obbMoving
		o.targetID = sel.ID
		o.orig = *box
		o.startX, o.startY = ix, iy
	}
}

func (o *obbEditor) HandleDrawMove(ix, iy float64) {
	switch o.mode {
	case obbCreating:
		o.curX, o.curY = ix, iy
		o.s.requestRedraw()
	case obbResizing:
		o.applyResize(ix, iy)
		o.s.requestRedraw()
	case obbMoving:
		o.applyMove(ix, iy)
		o.s.requestRedraw()
	case obbRotating:
		o.applyRotate(ix, iy)
		o.s.requestRedraw()
	}
}

func (o *obbEditor) HandleDrawEnd(ix, iy float64) {
	switch o.mode {
	case obbCreating:
		o.curX, o.curY = ix, iy
		if box := o.previewBox(); box != nil {
			a := o.s.list.Add(&annotation.Annotation{ClassID: o.s.currentClass, Data: box})
			o.s.list.Select(a.ID)
			o.s.markMutated()
		} else {
			o.s.requestRedraw()
		}
	case obbResizing:
		o.applyResize(ix, iy)
		o.s.markMutated()
	case obbMoving:
		o.applyMove(ix, iy)
		o.s.markMutated()
	case obbRotating:
		o.applyRotate(ix, iy)
		o.s.markMutated()
	}
	o.mode = obbIdle
	o.handle = handleNone
	o.targetID = 0
}

// previewBox builds the box for the current creation drag, or nil when the
// drag is below the minimum size. The stored angle compensates for any
// view rotation so the new box appears axis-aligned on screen while its
// geometry stays relative to the unrotated image buffer.
func (o *obbEditor) previewBox() *annotation.OBB {
	angle := geometry.WrapDegrees(-o.s.View.Rotation)
	box := annotation.OBB{
		CX:    (o.startX + o.curX) / 2,
		CY:    (o.startY + o.curY) / 2,
		Angle: angle,
	}
	lx, ly := box.ToLocal(o.curX, o.curY)
	box.Width = math.Abs(lx) * 2
	box.Height = math.Abs(ly) * 2
	if box.Width < minBoxSize || box.Height < minBoxSize {
		return nil
	}
	return &box
}

// applyResize moves the grabbed edge(s) in the local frame, keeping the
// opposite edge anchored, then recenters the box in world space.
func (o *obbEditor) applyResize(ix, iy float64) {
	a := o.s.list.Get(o.targetID)
	if a == nil {
		return
	}
	box, ok := a.Data.(*annotation.OBB)
	if !ok {
		return
	}

	lx, ly := o.orig.ToLocal(ix, iy)
	dx := lx - o.startX
	dy := ly - o.startY

	left := -o.orig.Width / 2
	right := o.orig.Width / 2
	top := -o.orig.Height / 2
	bottom := o.orig.Height / 2

	switch o.handle {
	case handleTL, handleL, handleBL:
		left += dx
		if left > right-minBoxSize {
			left = right - minBoxSize
		}
	case handleTR, handleR, handleBR:
		right += dx
		if right < left+minBoxSize {
			right = left + minBoxSize
		}
	}
	switch o.handle {
	case handleTL, handleT, handleTR:
		top += dy
		if top > bottom-minBoxSize {
			top = bottom - minBoxSize
		}
	case handleBL, handleB, handleBR:
		bottom += dy
		if bottom < top+minBoxSize {
			bottom = top + minBoxSize
		}
	}

	cx, cy := o.orig.FromLocal((left+right)/2, (top+bottom)/2)
	box.CX = cx
	box.CY = cy
	box.Width = right - left
	box.Height = bottom - top
	box.Angle = o.orig.Angle
}

func (o *obbEditor) applyMove(ix, iy float64) {
	a := o.s.list.Get(o.targetID)
	if a == nil {
		return
	}
	box, ok := a.Data.(*annotation.OBB)
	if !ok {
		return
	}
	box.CX = o.orig.CX + (ix - o.startX)
	box.CY = o.orig.CY + (iy - o.startY)
}

// applyRotate adds the pointer's polar delta about the center to the
// angle at gesture start.
func (o *obbEditor) applyRotate(ix, iy float64) {
	a := o.s.list.Get(o.targetID)
	if a == nil {
		return
	}
	box, ok := a.Data.(*annotation.OBB)
	if !ok {
		return
	}
	delta := pointerAngle(o.orig.CX, o.orig.CY, ix, iy) - o.startAngle
	box.Angle = geometry.WrapDegrees(o.orig.Angle + delta)
}

func (o *obbEditor) DrawAnnotation(dst *image.RGBA, a *annotation.Annotation, selected bool) {
	box, ok := a.Data.(*annotation.OBB)
	if !ok {
		return
	}
	r, g, b, al := o.s.classColor(a.ClassID)
	col := color.RGBA{R: r, G: g, B: b, A: al}

	o.drawBox(dst, *box, col, selected)

	if selected {
		corners := box.Corners()
		for _, c := range corners {
			x, y := o.s.View.ImageToCanvas(c.X, c.Y)
			drawHandle(dst, int(x), int(y), colorutil.White)
		}
		mids := [4][2]float64{
			{0, -box.Height / 2}, {box.Width / 2, 0}, {0, box.Height / 2}, {-box.Width / 2, 0},
		}
		for _, m := range mids {
			wx, wy := box.FromLocal(m[0], m[1])
			x, y := o.s.View.ImageToCanvas(wx, wy)
			drawHandle(dst, int(x), int(y), colorutil.White)
		}

		// Rotation handle with a stem from the top edge.
		tx, ty := box.FromLocal(0, -box.Height/2)
		rx, ry := o.rotationHandlePos(*box)
		sx1, sy1 := o.s.View.ImageToCanvas(tx, ty)
		sx2, sy2 := o.s.View.ImageToCanvas(rx, ry)
		drawDashedLine(dst, int(sx1), int(sy1), int(sx2), int(sy2), colorutil.White)
		drawCircle(dst, sx2, sy2, 6, colorutil.Yellow, true)
	}
}

func (o *obbEditor) drawBox(dst *image.RGBA, box annotation.OBB, col color.RGBA, selected bool) {
	corners := box.Corners()
	var cx [4]int
	var cy [4]int
	for i, c := range corners {
		x, y := o.s.View.ImageToCanvas(c.X, c.Y)
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

	// Tick from center toward the local top marks the box orientation.
	mx, my := box.FromLocal(0, -box.Height/4)
	x1, y1 := o.s.View.ImageToCanvas(box.CX, box.CY)
	x2, y2 := o.s.View.ImageToCanvas(mx, my)
	drawLine(dst, int(x1), int(y1), int(x2), int(y2), col, 1)
}

func (o *obbEditor) DrawOverlay(dst *image.RGBA) {
	if o.mode != obbCreating {
		return
	}
	box := o.previewBox()
	if box == nil {
		// Too small so far; still show the raw drag extent.
		x1, y1 := o.s.View.ImageToCanvas(o.startX, o.startY)
		x2, y2 := o.s.View.ImageToCanvas(o.curX, o.curY)
		drawDashedLine(dst, int(x1), int(y1), int(x2), int(y2), colorutil.Yellow)
		return
	}
	corners := box.Corners()
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		x1, y1 := o.s.View.ImageToCanvas(corners[i].X, corners[i].Y)
		x2, y2 := o.s.View.ImageToCanvas(corners[j].X, corners[j].Y)
		drawDashedLine(dst, int(x1), int(y1), int(x2), int(y2), colorutil.Yellow)
	}
}
