package editor

import (
	"fmt"
	"image"
	"image/color"

	"image-labeler/internal/annotation"
	"image-labeler/pkg/colorutil"
)

const landmarkMarkerRadius = 4.0

// landmarkEditor places free named points. New landmarks are auto-named
// "Point N" with N counting per class.
type landmarkEditor struct {
	s *Surface

	dragging bool
	targetID int
}

func newLandmarkEditor(s *Surface) *landmarkEditor {
	return &landmarkEditor{s: s}
}

func (l *landmarkEditor) AvailableTools() []Tool {
	return []Tool{ToolLandmark}
}

func (l *landmarkEditor) Shortcuts() []Shortcut {
	return []Shortcut{
		{Key: "R", Description: "Renumber landmarks", Action: l.Renumber},
	}
}

// nextName assigns the default name for a new landmark of a class: the
// smallest "Point N" not already taken, so deletions leave no duplicates.
func (l *landmarkEditor) nextName(classID int) string {
	used := make(map[int]bool)
	for _, a := range l.s.list.Items() {
		lm, ok := a.Data.(*annotation.Landmark)
		if !ok || a.ClassID != classID {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(lm.Name, "Point %d", &n); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("Point %d", n)
}

func (l *landmarkEditor) HandleDrawStart(ix, iy float64) {
	pick := handleScreenRadius / l.s.View.Zoom

	if l.s.tool == ToolLandmark {
		// Grabbing an existing landmark adjusts it instead of stacking a
		// new one on top.
		if hit := l.landmarkAt(ix, iy, pick); hit != nil {
			if !l.s.beginGesture(gestureMove, l) {
				return
			}
			l.dragging = true
			l.targetID = hit.ID
			l.s.list.Select(hit.ID)
			return
		}

		a := l.s.list.Add(&annotation.Annotation{
			ClassID: l.s.currentClass,
			Data:    &annotation.Landmark{X: ix, Y: iy, Name: l.nextName(l.s.currentClass)},
		})
		l.s.list.Select(a.ID)
		if l.s.beginGesture(gestureDraw, l) {
			l.dragging = true
			l.targetID = a.ID
		}
		l.s.requestRedraw()
		return
	}

	// Select mode: drag the selected landmark.
	sel := l.s.list.Selected()
	if sel == nil {
		return
	}
	lm, ok := sel.Data.(*annotation.Landmark)
	if !ok {
		return
	}
	dx, dy := lm.X-ix, lm.Y-iy
	if dx*dx+dy*dy > pick*pick {
		return
	}
	if !l.s.beginGesture(gestureMove, l) {
		return
	}
	l.dragging = true
	l.targetID = sel.ID
}

func (l *landmarkEditor) landmarkAt(ix, iy, pick float64) *annotation.Annotation {
	return l.s.list.TopmostAt(func(a *annotation.Annotation) bool {
		lm, ok := a.Data.(*annotation.Landmark)
		if !ok {
			return false
		}
		dx, dy := lm.X-ix, lm.Y-iy
		return dx*dx+dy*dy <= pick*pick
	})
}

func (l *landmarkEditor) HandleDrawMove(ix, iy float64) {
	if !l.dragging {
		return
	}
	l.applyDrag(ix, iy)
	l.s.requestRedraw()
}

func (l *landmarkEditor) HandleDrawEnd(ix, iy float64) {
	if l.dragging {
		l.applyDrag(ix, iy)
		l.s.markMutated()
	}
	l.dragging = false
	l.targetID = 0
}

func (l *landmarkEditor) applyDrag(ix, iy float64) {
	a := l.s.list.Get(l.targetID)
	if a == nil {
		return
	}
	lm, ok := a.Data.(*annotation.Landmark)
	if !ok {
		return
	}
	lm.X = ix
	lm.Y = iy
}

// Rename sets a landmark's display name.
func (l *landmarkEditor) Rename(id int, name string) bool {
	a := l.s.list.Get(id)
	if a == nil {
		return false
	}
	lm, ok := a.Data.(*annotation.Landmark)
	if !ok {
		return false
	}
	lm.Name = name
	l.s.markMutated()
	return true
}

// Renumber reassigns default "Point N" names in list order, counting per
// class. Custom names are overwritten.
func (l *landmarkEditor) Renumber() {
	counts := make(map[int]int)
	changed := false
	for _, a := range l.s.list.Items() {
		lm, ok := a.Data.(*annotation.Landmark)
		if !ok {
			continue
		}
		counts[a.ClassID]++
		name := fmt.Sprintf("Point %d", counts[a.ClassID])
		if lm.Name != name {
			lm.Name = name
			changed = true
		}
	}
	if changed {
		l.s.markMutated()
	}
}

func (l *landmarkEditor) DrawAnnotation(dst *image.RGBA, a *annotation.Annotation, selected bool) {
	lm, ok := a.Data.(*annotation.Landmark)
	if !ok {
		return
	}
	r, g, b, al := l.s.classColor(a.ClassID)
	col := color.RGBA{R: r, G: g, B: b, A: al}

	x, y := l.s.View.ImageToCanvas(lm.X, lm.Y)
	drawCircle(dst, x, y, landmarkMarkerRadius, col, true)
	drawCross(dst, int(x), int(y), 8, col)
	if selected {
		drawCircle(dst, x, y, landmarkMarkerRadius+4, colorutil.Yellow, false)
	}
	if lm.Name != "" {
		drawLabel(dst, lm.Name, int(x), int(y)-16, colorutil.Contrast(col))
	}
}

func (l *landmarkEditor) DrawOverlay(dst *image.RGBA) {
}
