package editor

import (
	"image"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"image-labeler/internal/annotation"
)

type toastRecorder struct {
	messages []string
	levels   []Level
}

func (tr *toastRecorder) callback() func(string, Level) {
	return func(msg string, level Level) {
		tr.messages = append(tr.messages, msg)
		tr.levels = append(tr.levels, level)
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestSurface builds a surface with a 400x300 image and one class
// already selected.
func newTestSurface(t *testing.T, pt ProjectType) (*Surface, *annotation.ClassList, *toastRecorder) {
	t.Helper()
	cl := annotation.NewClassList()
	c := cl.Add("object")
	tr := &toastRecorder{}
	s, err := NewSurface(pt, cl, Callbacks{Toast: tr.callback()}, quietLogger())
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.LoadImage(image.NewRGBA(image.Rect(0, 0, 400, 300)))
	s.SetCurrentClass(c.ID)
	return s, cl, tr
}

func click(s *Surface, x, y float64) {
	s.PointerDown(x, y, ButtonLeft, false)
	s.PointerUp(x, y)
}

func drag(s *Surface, x1, y1, x2, y2 float64) {
	s.PointerDown(x1, y1, ButtonLeft, false)
	s.PointerMove((x1+x2)/2, (y1+y2)/2)
	s.PointerMove(x2, y2)
	s.PointerUp(x2, y2)
}

func TestDrawIgnoredWithoutImage(t *testing.T) {
	cl := annotation.NewClassList()
	c := cl.Add("object")
	s, err := NewSurface(ProjectDetection, cl, Callbacks{}, quietLogger())
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.SetCurrentClass(c.ID)
	s.SetTool(ToolBBox)

	drag(s, 10, 10, 100, 100)

	if s.Annotations().Len() != 0 {
		t.Fatalf("expected no annotations without an image, got %d", s.Annotations().Len())
	}
}

func TestDrawRequiresClass(t *testing.T) {
	cl := annotation.NewClassList()
	tr := &toastRecorder{}
	s, err := NewSurface(ProjectDetection, cl, Callbacks{Toast: tr.callback()}, quietLogger())
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.LoadImage(image.NewRGBA(image.Rect(0, 0, 400, 300)))
	s.SetTool(ToolBBox)

	drag(s, 10, 10, 100, 100)

	if s.Annotations().Len() != 0 {
		t.Fatalf("expected draw to be blocked without a class")
	}
	if len(tr.messages) == 0 {
		t.Fatal("expected a warning toast")
	}
}

func TestToolRejectedForProjectType(t *testing.T) {
	s, _, tr := newTestSurface(t, ProjectDetection)

	s.SetTool(ToolMask)

	if s.Tool() != ToolSelect {
		t.Fatalf("tool should stay select, got %s", s.Tool())
	}
	if len(tr.messages) != 1 || tr.levels[0] != LevelWarning {
		t.Fatalf("expected one warning toast, got %v", tr.messages)
	}
}

func TestPanWithMiddleButton(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)

	s.PointerDown(100, 100, ButtonMiddle, false)
	s.PointerMove(140, 130)
	s.PointerUp(140, 130)

	if s.View.PanX != 40 || s.View.PanY != 30 {
		t.Fatalf("pan = (%v, %v), want (40, 30)", s.View.PanX, s.View.PanY)
	}
	if s.Annotations().Len() != 0 {
		t.Fatal("pan must not create annotations")
	}
}

func TestWheelZoomKeepsAnchor(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)

	ax, ay := 123.0, 87.0
	beforeX, beforeY := s.View.CanvasToImage(ax, ay)

	s.Wheel(ax, ay, 1)

	afterX, afterY := s.View.CanvasToImage(ax, ay)
	if diff := abs(afterX-beforeX) + abs(afterY-beforeY); diff > 1e-6 {
		t.Fatalf("anchor drifted by %v during zoom", diff)
	}
	if s.View.Zoom <= 1 {
		t.Fatalf("zoom should increase, got %v", s.View.Zoom)
	}
}

func TestDeleteSelected(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 120)

	if s.Annotations().Len() != 1 {
		t.Fatalf("expected 1 annotation, got %d", s.Annotations().Len())
	}
	if s.Annotations().SelectedID() == 0 {
		t.Fatal("new annotation should be selected")
	}

	s.DeleteSelected()

	if s.Annotations().Len() != 0 {
		t.Fatal("annotation should be deleted")
	}
	if s.Annotations().SelectedID() != 0 {
		t.Fatal("selection should be cleared")
	}
}

func TestSelectTopmost(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 150)
	drag(s, 100, 100, 200, 200)

	items := s.Annotations().Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(items))
	}

	s.SetTool(ToolSelect)
	click(s, 120, 120) // overlap region; later annotation wins

	if got := s.Annotations().SelectedID(); got != items[1].ID {
		t.Fatalf("selected %d, want topmost %d", got, items[1].ID)
	}
}

func TestClickEmptySpaceClearsSelection(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 100, 100)

	s.SetTool(ToolSelect)
	click(s, 300, 250)

	if s.Annotations().SelectedID() != 0 {
		t.Fatal("clicking empty space should clear selection")
	}
}

func TestLoadImageResetsAnnotations(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 120)

	s.LoadImage(image.NewRGBA(image.Rect(0, 0, 200, 200)))

	if s.Annotations().Len() != 0 {
		t.Fatal("annotations must not survive an image change")
	}
	w, h := s.ImageSize()
	if w != 200 || h != 200 {
		t.Fatalf("image size = %dx%d, want 200x200", w, h)
	}
}

func TestPointerLeaveEndsDrag(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)

	s.PointerDown(50, 50, ButtonLeft, false)
	s.PointerMove(150, 120)
	s.PointerLeave()

	if s.Annotations().Len() != 1 {
		t.Fatalf("drag exiting the canvas should commit at last position, got %d annotations", s.Annotations().Len())
	}
	box := s.Annotations().Items()[0].Data.(*annotation.BBox)
	if box.Width != 100 || box.Height != 70 {
		t.Fatalf("box = %+v, want 100x70", box)
	}
}

func TestRenderWithoutImage(t *testing.T) {
	cl := annotation.NewClassList()
	s, err := NewSurface(ProjectDetection, cl, Callbacks{}, quietLogger())
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}

	img := s.Render(100, 80)
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Fatalf("render bounds = %v", img.Bounds())
	}
}

func newTestImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
