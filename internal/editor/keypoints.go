package editor

import (
	"image"
	"image/color"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
)

const keypointMarkerRadius = 5.0

type keypointMode int

const (
	kpIdle keypointMode = iota
	kpPlacing
	kpDraggingJoint
	kpMovingAll
)

// keypointEditor places and edits skeleton keypoint sets. Joints are
// placed sequentially in skeleton order; the placement cursor advances
// after every placement and wraps past the last joint, so further clicks
// re-place joint 0 of the same instance.
type keypointEditor struct {
	s *Surface

	mode     keypointMode
	targetID int
	joint    int

	// Placement cursor, valid for the instance identified by cursorID.
	cursorID int
	cursor   int

	// Whole-instance move state.
	startX float64
	startY float64
	orig   []annotation.Keypoint
}

func newKeypointEditor(s *Surface) *keypointEditor {
	return &keypointEditor{s: s}
}

func (k *keypointEditor) AvailableTools() []Tool {
	return []Tool{ToolKeypoint}
}

func (k *keypointEditor) Shortcuts() []Shortcut {
	return []Shortcut{
		{Key: "V", Description: "Cycle visibility of nearest joint", Action: k.CycleVisibility},
		{Key: "N", Description: "Start a new instance", Action: k.NewInstance},
	}
}

// NewInstance clears the selection so the next placement starts a fresh
// instance even when the current one still has unplaced joints.
func (k *keypointEditor) NewInstance() {
	if k.s.list.SelectedID() == 0 {
		return
	}
	k.s.list.Select(0)
	k.cursorID = 0
	k.cursor = 0
	k.s.requestRedraw()
}

// skeletonFor returns the skeleton of an annotation's class, nil when the
// class carries none.
func (k *keypointEditor) skeletonFor(classID int) *annotation.Skeleton {
	c, ok := k.s.classes.ClassByID(classID)
	if !ok {
		return nil
	}
	return c.Skeleton
}

// activeInstance returns the selected keypoint set, if any.
func (k *keypointEditor) activeInstance() (*annotation.Annotation, *annotation.Keypoints) {
	sel := k.s.list.Selected()
	if sel == nil {
		return nil, nil
	}
	kp, ok := sel.Data.(*annotation.Keypoints)
	if !ok {
		return nil, nil
	}
	return sel, kp
}

func nextUnplaced(kp *annotation.Keypoints) int {
	for i, p := range kp.Points {
		if !p.Placed {
			return i
		}
	}
	return -1
}

func (k *keypointEditor) HandleDrawStart(ix, iy float64) {
	pick := handleScreenRadius / k.s.View.Zoom

	if k.s.tool == ToolKeypoint {
		skel := k.skeletonFor(k.s.currentClass)
		if skel == nil {
			k.s.toast("Current class has no skeleton", LevelWarning)
			return
		}

		sel, kp := k.activeInstance()

		// Grabbing an already placed joint adjusts it instead of placing.
		if kp != nil {
			if j := kp.NearestPlaced(ix, iy, pick); j >= 0 {
				if !k.s.beginGesture(gestureMove, k) {
					return
				}
				k.mode = kpDraggingJoint
				k.targetID = sel.ID
				k.joint = j
				k.dragJoint(ix, iy)
				return
			}
		}

		if kp == nil || sel.ClassID != k.s.currentClass {
			a := k.s.list.Add(&annotation.Annotation{
				ClassID: k.s.currentClass,
				Data:    annotation.NewKeypoints(skel.JointCount()),
			})
			k.s.list.Select(a.ID)
			sel, kp = a, a.Data.(*annotation.Keypoints)
			k.cursorID, k.cursor = a.ID, 0
		}

		// A reselected instance resumes at its first gap; a complete one
		// wraps to joint 0.
		if k.cursorID != sel.ID {
			k.cursorID = sel.ID
			if j := nextUnplaced(kp); j >= 0 {
				k.cursor = j
			} else {
				k.cursor = 0
			}
		}

		if !k.s.beginGesture(gestureDraw, k) {
			return
		}
		k.mode = kpPlacing
		k.targetID = sel.ID
		k.joint = k.cursor
		kp.Place(k.cursor, ix, iy)
		k.cursor = (k.cursor + 1) % len(kp.Points)
		k.s.requestRedraw()
		return
	}

	// Select mode: drag a joint, or move the whole instance by its box.
	sel, kp := k.activeInstance()
	if kp == nil {
		return
	}
	if j := kp.NearestPlaced(ix, iy, pick); j >= 0 {
		if !k.s.beginGesture(gestureMove, k) {
			return
		}
		k.mode = kpDraggingJoint
		k.targetID = sel.ID
		k.joint = j
		return
	}
	if kp.HitTest(ix, iy) {
		if !k.s.beginGesture(gestureMove, k) {
			return
		}
		k.mode = kpMovingAll
		k.targetID = sel.ID
		k.startX, k.startY = ix, iy
		k.orig = append([]annotation.Keypoint(nil), kp.Points...)
	}
}

func (k *keypointEditor) HandleDrawMove(ix, iy float64) {
	switch k.mode {
	case kpPlacing, kpDraggingJoint:
		k.dragJoint(ix, iy)
		k.s.requestRedraw()
	case kpMovingAll:
		k.moveAll(ix, iy)
		k.s.requestRedraw()
	}
}

func (k *keypointEditor) HandleDrawEnd(ix, iy float64) {
	switch k.mode {
	case kpPlacing, kpDraggingJoint:
		k.dragJoint(ix, iy)
		k.s.markMutated()
	case kpMovingAll:
		k.moveAll(ix, iy)
		k.s.markMutated()
	}
	k.mode = kpIdle
	k.targetID = 0
	k.orig = nil
}

func (k *keypointEditor) dragJoint(ix, iy float64) {
	a := k.s.list.Get(k.targetID)
	if a == nil {
		return
	}
	kp, ok := a.Data.(*annotation.Keypoints)
	if !ok || k.joint < 0 || k.joint >= len(kp.Points) {
		return
	}
	kp.Points[k.joint].X = ix
	kp.Points[k.joint].Y = iy
	kp.RecomputeBox()
}

func (k *keypointEditor) moveAll(ix, iy float64) {
	a := k.s.list.Get(k.targetID)
	if a == nil {
		return
	}
	kp, ok := a.Data.(*annotation.Keypoints)
	if !ok || len(k.orig) != len(kp.Points) {
		return
	}
	dx := ix - k.startX
	dy := iy - k.startY
	for i := range kp.Points {
		if !k.orig[i].Placed {
			continue
		}
		kp.Points[i].X = k.orig[i].X + dx
		kp.Points[i].Y = k.orig[i].Y + dy
	}
	kp.RecomputeBox()
}

// CycleVisibility advances the visibility state of the placed joint
// nearest the pointer on the selected instance.
func (k *keypointEditor) CycleVisibility() {
	_, kp := k.activeInstance()
	if kp == nil {
		return
	}
	pick := handleScreenRadius / k.s.View.Zoom
	j := kp.NearestPlaced(k.s.lastImgX, k.s.lastImgY, pick)
	if j < 0 {
		return
	}
	kp.Points[j].Visibility = kp.Points[j].Visibility.Next()
	kp.RecomputeBox()
	k.s.markMutated()
}

func (k *keypointEditor) DrawAnnotation(dst *image.RGBA, a *annotation.Annotation, selected bool) {
	kp, ok := a.Data.(*annotation.Keypoints)
	if !ok {
		return
	}
	r, g, b, al := k.s.classColor(a.ClassID)
	col := color.RGBA{R: r, G: g, B: b, A: al}

	// Connections first so markers draw on top.
	if skel := k.skeletonFor(a.ClassID); skel != nil {
		for _, conn := range skel.Connections {
			i, j := conn[0], conn[1]
			if i < 0 || i >= len(kp.Points) || j < 0 || j >= len(kp.Points) {
				continue
			}
			p1, p2 := kp.Points[i], kp.Points[j]
			if !p1.Labeled() || !p2.Labeled() {
				continue
			}
			x1, y1 := k.s.View.ImageToCanvas(p1.X, p1.Y)
			x2, y2 := k.s.View.ImageToCanvas(p2.X, p2.Y)
			drawLine(dst, int(x1), int(y1), int(x2), int(y2), col, 1)
		}
	}

	for _, p := range kp.Points {
		if !p.Placed || p.Visibility == annotation.VisibilityUnlabeled {
			continue
		}
		x, y := k.s.View.ImageToCanvas(p.X, p.Y)
		if p.Visibility == annotation.VisibilityVisible {
			drawCircle(dst, x, y, keypointMarkerRadius, col, true)
		} else {
			drawCircle(dst, x, y, keypointMarkerRadius, col, false)
		}
	}

	if selected && kp.Box != nil {
		x1, y1 := k.s.View.ImageToCanvas(kp.Box.X, kp.Box.Y)
		x2, y2 := k.s.View.ImageToCanvas(kp.Box.X+kp.Box.Width, kp.Box.Y+kp.Box.Height)
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		if y2 < y1 {
			y1, y2 = y2, y1
		}
		drawDashedRect(dst, int(x1), int(y1), int(x2), int(y2), colorutil.Yellow)
	}
}

func (k *keypointEditor) DrawOverlay(dst *image.RGBA) {
	if k.s.tool != ToolKeypoint {
		return
	}
	// The wrapping cursor means a placement is always pending; show the
	// crosshair whenever the class can place at all.
	if k.skeletonFor(k.s.currentClass) == nil {
		return
	}
	x, y := k.s.View.ImageToCanvas(k.s.lastImgX, k.s.lastImgY)
	drawCross(dst, int(x), int(y), 6, colorutil.Cyan)
}
