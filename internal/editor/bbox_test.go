package editor

import (
	"testing"

	"image-labeler/internal/annotation"
)

func selectedBox(t *testing.T, s *Surface) *annotation.BBox {
	t.Helper()
	sel := s.Annotations().Selected()
	if sel == nil {
		t.Fatal("no selected annotation")
	}
	box, ok := sel.Data.(*annotation.BBox)
	if !ok {
		t.Fatalf("selected annotation is %T, want *BBox", sel.Data)
	}
	return box
}

func TestBoxCreationNormalizesCorners(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)

	// Drag from bottom-right to top-left.
	drag(s, 150, 120, 50, 40)

	box := selectedBox(t, s)
	if box.X != 50 || box.Y != 40 {
		t.Fatalf("origin = (%v, %v), want (50, 40)", box.X, box.Y)
	}
	if box.Width != 100 || box.Height != 80 {
		t.Fatalf("size = %vx%v, want 100x80", box.Width, box.Height)
	}
}

func TestBoxBelowMinimumDiscarded(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)

	drag(s, 100, 100, 103, 103)

	if s.Annotations().Len() != 0 {
		t.Fatalf("a %vpx drag must not create a box", 3)
	}
}

func TestBoxResizeKeepsOppositeCornerAnchored(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 150)

	s.SetTool(ToolSelect)
	// Grab the bottom-right handle and pull outward.
	drag(s, 150, 150, 200, 180)

	box := selectedBox(t, s)
	if box.X != 50 || box.Y != 50 {
		t.Fatalf("anchored corner moved to (%v, %v)", box.X, box.Y)
	}
	if box.Width != 150 || box.Height != 130 {
		t.Fatalf("size = %vx%v, want 150x130", box.Width, box.Height)
	}
}

func TestBoxResizeClampsToMinimum(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 150)

	s.SetTool(ToolSelect)
	// Drag the right edge handle far past the left edge.
	drag(s, 150, 100, 10, 100)

	box := selectedBox(t, s)
	if box.Width != minBoxSize {
		t.Fatalf("width = %v, want clamp at %v", box.Width, minBoxSize)
	}
	if box.X != 50 {
		t.Fatalf("left edge moved to %v during right-handle resize", box.X)
	}
}

func TestBoxLeftHandleResize(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 150)

	s.SetTool(ToolSelect)
	// Left edge handle sits at (50, 100).
	drag(s, 50, 100, 30, 100)

	box := selectedBox(t, s)
	if box.X != 30 || box.Width != 120 {
		t.Fatalf("box = %+v, want X=30 Width=120", box)
	}
	if box.Y != 50 || box.Height != 100 {
		t.Fatalf("vertical extent changed: %+v", box)
	}
}

func TestBoxMove(t *testing.T) {
	s, _, _ := newTestSurface(t, ProjectDetection)
	s.SetTool(ToolBBox)
	drag(s, 50, 50, 150, 150)

	s.SetTool(ToolSelect)
	// Start well inside, away from all handles.
	drag(s, 100, 90, 130, 110)

	box := selectedBox(t, s)
	if box.X != 80 || box.Y != 70 {
		t.Fatalf("origin = (%v, %v), want (80, 70)", box.X, box.Y)
	}
	if box.Width != 100 || box.Height != 100 {
		t.Fatalf("move changed size: %+v", box)
	}
}

func TestBoxMutatedCallbackFires(t *testing.T) {
	mutations := 0
	cl := annotation.NewClassList()
	c := cl.Add("object")
	s, err := NewSurface(ProjectDetection, cl, Callbacks{Mutated: func() { mutations++ }}, quietLogger())
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.LoadImage(newTestImage(400, 300))
	s.SetCurrentClass(c.ID)
	s.SetTool(ToolBBox)

	drag(s, 50, 50, 150, 150)
	if mutations != 1 {
		t.Fatalf("mutations after create = %d, want 1", mutations)
	}

	s.SetTool(ToolSelect)
	drag(s, 100, 100, 120, 120)
	if mutations != 2 {
		t.Fatalf("mutations after move = %d, want 2", mutations)
	}
}
