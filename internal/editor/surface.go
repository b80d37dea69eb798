package editor

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/sirupsen/logrus"

	"image-labeler/internal/annotation"
	"image-labeler/internal/view"
)

const (
	// minBoxSize is the smallest box dimension (image pixels) that commits;
	// anything smaller is discarded as a degenerate gesture.
	minBoxSize = 5.0

	// handleScreenRadius is the grab radius of a resize handle in screen
	// pixels; editors divide by zoom so handles feel constant-sized.
	handleScreenRadius = 8.0

	// gridSpacing is the measurement grid pitch in image pixels.
	gridSpacing = 50.0
)

// Level classifies toast feedback.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Callbacks are injected at construction; the surface never reaches for
// ambient application state. Mutated fires after any committed change (the
// autosave trigger), RedrawRequested asks the host widget to repaint, and
// Toast surfaces user feedback.
type Callbacks struct {
	Mutated         func()
	RedrawRequested func()
	Toast           func(message string, level Level)
}

// Button identifies the pointer button of a gesture.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// gesture is the exclusive interaction state: at most one of draw, resize,
// move, rotate, paint, or pan is active at any moment.
type gesture int

const (
	gestureNone gesture = iota
	gestureDraw
	gestureResize
	gestureMove
	gestureRotate
	gesturePaint
	gesturePan
)

// Surface owns the loaded raster, the annotation list and selection, the
// view transform, and pointer dispatch into the concrete editors.
type Surface struct {
	log *logrus.Entry

	img  *image.RGBA
	imgW int
	imgH int

	View view.Transform

	list         *annotation.List
	classes      annotation.Classes
	currentClass int

	projectType ProjectType
	editors     map[annotation.Kind]Editor
	tool        Tool
	allowed     map[Tool]bool

	showGrid bool

	cb Callbacks

	// Exclusive gesture state.
	active       gesture
	activeEditor Editor
	panLastX     float64
	panLastY     float64
	lastImgX     float64
	lastImgY     float64
}

// NewSurface creates a surface for the given project type. The class
// registry is read-only here; class management is the application's job.
func NewSurface(pt ProjectType, classes annotation.Classes, cb Callbacks, log *logrus.Logger) (*Surface, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Surface{
		log:     log.WithField("component", "surface"),
		list:    annotation.NewList(),
		classes: classes,
		cb:      cb,
		tool:    ToolSelect,
		editors: make(map[annotation.Kind]Editor),
		allowed: map[Tool]bool{ToolSelect: true, ToolPan: true},
	}

	kinds := kindsFor(pt)
	if len(kinds) == 0 {
		return nil, fmt.Errorf("unknown project type %d", int(pt))
	}
	for _, k := range kinds {
		ed, err := NewEditor(k, s)
		if err != nil {
			return nil, err
		}
		s.editors[k] = ed
		for _, t := range ed.AvailableTools() {
			s.allowed[t] = true
		}
	}
	s.projectType = pt
	return s, nil
}

// LoadImage installs a new raster, resetting view, annotations, and
// selection. Annotations never outlive their image.
func (s *Surface) LoadImage(img image.Image) {
	s.resetMaskSession()
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	s.img = rgba
	s.imgW = b.Dx()
	s.imgH = b.Dy()
	s.View = view.New(float64(s.imgW), float64(s.imgH))
	s.list.Clear()
	s.endGesture()

	s.log.WithFields(logrus.Fields{"width": s.imgW, "height": s.imgH}).Info("image loaded")
	s.requestRedraw()
}

// Clear drops the image and all annotations.
func (s *Surface) Clear() {
	s.resetMaskSession()
	s.img = nil
	s.imgW, s.imgH = 0, 0
	s.list.Clear()
	s.endGesture()
	s.View.Reset()
	s.requestRedraw()
}

// HasImage reports whether a raster is loaded.
func (s *Surface) HasImage() bool {
	return s.img != nil
}

// ImageSize returns the loaded raster dimensions.
func (s *Surface) ImageSize() (int, int) {
	return s.imgW, s.imgH
}

// Annotations exposes the owned annotation list.
func (s *Surface) Annotations() *annotation.List {
	return s.list
}

// Tool returns the current interaction tool.
func (s *Surface) Tool() Tool {
	return s.tool
}

// SetTool switches the interaction tool. A tool not legal for the project
// type is rejected with a warning, never silently misapplied.
func (s *Surface) SetTool(t Tool) {
	if !s.allowed[t] {
		s.toast(fmt.Sprintf("Tool %q is not available in this project", t), LevelWarning)
		return
	}
	if s.tool == t {
		return
	}
	// Leaving the mask tool commits any in-progress paint session.
	s.commitMaskSession()
	s.endGesture()
	s.tool = t
	s.log.WithField("tool", t.String()).Debug("tool changed")
	s.requestRedraw()
}

// SetCurrentClass selects the class new annotations are tagged with.
func (s *Surface) SetCurrentClass(classID int) {
	if _, ok := s.classes.ClassByID(classID); !ok {
		s.toast(fmt.Sprintf("No class with id %d", classID), LevelWarning)
		return
	}
	s.currentClass = classID
}

// SetCurrentClassByIndex selects the n-th class (0-based), for the 1-9
// keyboard shortcuts.
func (s *Surface) SetCurrentClassByIndex(idx int) {
	all := s.classes.All()
	if idx < 0 || idx >= len(all) {
		return
	}
	s.currentClass = all[idx].ID
}

// CurrentClass returns the active class ID.
func (s *Surface) CurrentClass() int {
	return s.currentClass
}

// ToggleGrid flips the measurement grid.
func (s *Surface) ToggleGrid() {
	s.showGrid = !s.showGrid
	s.requestRedraw()
}

// ActiveEditorShortcuts returns the shortcuts of every editor on this
// surface, for the merged keyboard map. Editor shortcuts stay live in
// select mode too, so visibility cycling and renumbering work while
// inspecting.
func (s *Surface) ActiveEditorShortcuts() []Shortcut {
	var out []Shortcut
	for _, ed := range s.editors {
		out = append(out, ed.Shortcuts()...)
	}
	return out
}

// DeleteSelected removes the selected annotation.
func (s *Surface) DeleteSelected() {
	id := s.list.SelectedID()
	if id == 0 {
		return
	}
	s.list.Remove(id)
	s.markMutated()
}

// PointerDown enters the dispatch pipeline with canvas (device pixel)
// coordinates. Generic gestures (pan) are resolved before any editor sees
// the event.
func (s *Surface) PointerDown(cx, cy float64, btn Button, ctrl bool) {
	if !s.HasImage() {
		return
	}
	if btn == ButtonMiddle || (btn == ButtonLeft && ctrl) || s.tool == ToolPan {
		if s.beginGesture(gesturePan, nil) {
			s.panLastX, s.panLastY = cx, cy
		}
		return
	}
	if btn != ButtonLeft {
		return
	}

	ix, iy := s.View.CanvasToImage(cx, cy)
	s.lastImgX, s.lastImgY = ix, iy

	if s.tool == ToolSelect {
		s.dispatchSelect(ix, iy)
		return
	}

	ed := s.toolEditor(s.tool)
	if ed == nil {
		s.toast(fmt.Sprintf("Tool %q is not available in this project", s.tool), LevelWarning)
		return
	}
	if s.currentClass == 0 {
		s.toast("Define a class before annotating", LevelWarning)
		return
	}
	ed.HandleDrawStart(ix, iy)
}

// dispatchSelect routes a selection-mode press: the already-selected
// annotation's editor gets first claim (its handles extend outside the
// shape), then the topmost annotation under the cursor is selected and its
// editor may begin a move.
func (s *Surface) dispatchSelect(ix, iy float64) {
	if sel := s.list.Selected(); sel != nil {
		if ed := s.editors[sel.Data.Kind()]; ed != nil {
			ed.HandleDrawStart(ix, iy)
			if s.active != gestureNone {
				return
			}
		}
	}

	hit := s.list.TopmostAt(func(a *annotation.Annotation) bool {
		return s.hitAnnotation(a, ix, iy)
	})
	if hit == nil {
		if s.list.SelectedID() != 0 {
			s.list.Select(0)
			s.requestRedraw()
		}
		return
	}
	s.list.Select(hit.ID)
	s.requestRedraw()
	if ed := s.editors[hit.Data.Kind()]; ed != nil {
		ed.HandleDrawStart(ix, iy)
	}
}

// hitAnnotation delegates hit testing to the payload types.
func (s *Surface) hitAnnotation(a *annotation.Annotation, ix, iy float64) bool {
	switch d := a.Data.(type) {
	case *annotation.BBox:
		return d.HitTest(ix, iy)
	case *annotation.OBB:
		return d.HitTest(ix, iy)
	case *annotation.Mask:
		return d.HitTest(ix, iy)
	case *annotation.Keypoints:
		pick := handleScreenRadius / s.View.Zoom
		return d.HitTest(ix, iy) || d.NearestPlaced(ix, iy, pick) >= 0
	case *annotation.Landmark:
		pick := handleScreenRadius / s.View.Zoom
		dx, dy := d.X-ix, d.Y-iy
		return dx*dx+dy*dy <= pick*pick
	default:
		return false
	}
}

// PointerMove continues an active gesture.
func (s *Surface) PointerMove(cx, cy float64) {
	switch s.active {
	case gesturePan:
		s.View.PanBy(cx-s.panLastX, cy-s.panLastY)
		s.panLastX, s.panLastY = cx, cy
		s.requestRedraw()
	case gestureNone:
		// Hover: track image coordinates for the brush cursor.
		s.lastImgX, s.lastImgY = s.View.CanvasToImage(cx, cy)
		if s.tool == ToolMask {
			s.requestRedraw()
		}
	default:
		ix, iy := s.View.CanvasToImage(cx, cy)
		s.lastImgX, s.lastImgY = ix, iy
		if s.activeEditor != nil {
			s.activeEditor.HandleDrawMove(ix, iy)
		}
	}
}

// PointerUp finishes the active gesture.
func (s *Surface) PointerUp(cx, cy float64) {
	switch s.active {
	case gesturePan, gestureNone:
		s.endGesture()
	default:
		ix, iy := s.View.CanvasToImage(cx, cy)
		ed := s.activeEditor
		s.endGesture()
		if ed != nil {
			ed.HandleDrawEnd(ix, iy)
		}
	}
}

// PointerLeave resolves a drag that exits the canvas: the gesture ends at
// the last coordinates seen, so the outcome is deterministic.
func (s *Surface) PointerLeave() {
	switch s.active {
	case gesturePan, gestureNone:
		s.endGesture()
	default:
		ed := s.activeEditor
		s.endGesture()
		if ed != nil {
			ed.HandleDrawEnd(s.lastImgX, s.lastImgY)
		}
	}
}

// Wheel applies pointer-anchored zoom.
func (s *Surface) Wheel(cx, cy, deltaY float64) {
	if !s.HasImage() {
		return
	}
	if deltaY > 0 {
		s.View.ZoomInAt(cx, cy)
	} else if deltaY < 0 {
		s.View.ZoomOutAt(cx, cy)
	}
	s.requestRedraw()
}

// RotateView rotates the displayed image (independent of any OBB's own
// angle).
func (s *Surface) RotateView(degrees float64) {
	if !s.HasImage() {
		return
	}
	s.View.RotateBy(degrees)
	s.requestRedraw()
}

// beginGesture claims the exclusive gesture slot; it fails while another
// gesture is active.
func (s *Surface) beginGesture(g gesture, ed Editor) bool {
	if s.active != gestureNone {
		return false
	}
	s.active = g
	s.activeEditor = ed
	return true
}

func (s *Surface) endGesture() {
	s.active = gestureNone
	s.activeEditor = nil
}

// commitMaskSession flushes an in-progress mask paint session, if any.
func (s *Surface) commitMaskSession() {
	if me, ok := s.editors[annotation.KindMask].(*maskEditor); ok {
		me.Commit()
	}
}

func (s *Surface) resetMaskSession() {
	if me, ok := s.editors[annotation.KindMask].(*maskEditor); ok {
		me.discard()
	}
}

// MaskEditor returns the mask editor when the project has one, for
// brush-size, erase-mode, and commit control.
func (s *Surface) MaskEditor() *maskEditor {
	me, _ := s.editors[annotation.KindMask].(*maskEditor)
	return me
}

// KeypointEditor returns the keypoint editor when the project has one.
func (s *Surface) KeypointEditor() *keypointEditor {
	ke, _ := s.editors[annotation.KindKeypoints].(*keypointEditor)
	return ke
}

// LandmarkEditor returns the landmark editor when the project has one.
func (s *Surface) LandmarkEditor() *landmarkEditor {
	le, _ := s.editors[annotation.KindLandmark].(*landmarkEditor)
	return le
}

func (s *Surface) toolEditor(t Tool) Editor {
	for _, ed := range s.editors {
		for _, at := range ed.AvailableTools() {
			if at == t {
				return ed
			}
		}
	}
	return nil
}

func (s *Surface) classColor(classID int) (r, g, b, a uint8) {
	if c, ok := s.classes.ClassByID(classID); ok {
		return c.Color.R, c.Color.G, c.Color.B, c.Color.A
	}
	return 255, 255, 255, 255
}

func (s *Surface) markMutated() {
	if s.cb.Mutated != nil {
		s.cb.Mutated()
	}
	s.requestRedraw()
}

func (s *Surface) requestRedraw() {
	if s.cb.RedrawRequested != nil {
		s.cb.RedrawRequested()
	}
}

func (s *Surface) toast(msg string, level Level) {
	if level == LevelWarning || level == LevelError {
		s.log.Warn(msg)
	}
	if s.cb.Toast != nil {
		s.cb.Toast(msg, level)
	}
}
