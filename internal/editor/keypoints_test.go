package editor

import (
	"testing"

	"image-labeler/internal/annotation"
)

// newPoseSurface builds a pose surface whose class carries a three-joint
// chain skeleton.
func newPoseSurface(t *testing.T) (*Surface, *toastRecorder) {
	t.Helper()
	s, cl, tr := newTestSurface(t, ProjectPose)
	skel := &annotation.Skeleton{
		Keypoints:   []string{"head", "body", "tail"},
		Connections: [][2]int{{0, 1}, {1, 2}},
	}
	if err := cl.AttachSkeleton(s.CurrentClass(), skel); err != nil {
		t.Fatalf("AttachSkeleton: %v", err)
	}
	s.SetTool(ToolKeypoint)
	return s, tr
}

func selectedKeypoints(t *testing.T, s *Surface) *annotation.Keypoints {
	t.Helper()
	sel := s.Annotations().Selected()
	if sel == nil {
		t.Fatal("no selected annotation")
	}
	kp, ok := sel.Data.(*annotation.Keypoints)
	if !ok {
		t.Fatalf("selected annotation is %T, want *Keypoints", sel.Data)
	}
	return kp
}

func TestKeypointSequentialPlacement(t *testing.T) {
	s, _ := newPoseSurface(t)

	click(s, 50, 50)
	click(s, 100, 60)
	click(s, 150, 70)

	if s.Annotations().Len() != 1 {
		t.Fatalf("expected one instance, got %d", s.Annotations().Len())
	}
	kp := selectedKeypoints(t, s)
	for i, want := range [][2]float64{{50, 50}, {100, 60}, {150, 70}} {
		p := kp.Points[i]
		if !p.Placed || p.X != want[0] || p.Y != want[1] {
			t.Fatalf("joint %d = %+v, want placed at (%v, %v)", i, p, want[0], want[1])
		}
		if p.Visibility != annotation.VisibilityVisible {
			t.Fatalf("joint %d visibility = %d, want visible", i, p.Visibility)
		}
	}
	if kp.Box == nil {
		t.Fatal("derived box should exist once joints are placed")
	}
}

func TestKeypointPlacementWrapsAfterLastJoint(t *testing.T) {
	s, _ := newPoseSurface(t)

	click(s, 50, 50)
	click(s, 100, 60)
	click(s, 150, 70)
	// The cursor wraps: joint 0 of the same instance is re-placed.
	click(s, 250, 200)

	if s.Annotations().Len() != 1 {
		t.Fatalf("wrap must not start a new instance, got %d annotations", s.Annotations().Len())
	}
	kp := selectedKeypoints(t, s)
	if kp.Points[0].X != 250 || kp.Points[0].Y != 200 {
		t.Fatalf("joint 0 = (%v, %v), want re-placed at (250, 200)", kp.Points[0].X, kp.Points[0].Y)
	}
	if kp.Points[1].X != 100 || kp.Points[2].X != 150 {
		t.Fatal("wrap must leave the other joints untouched")
	}

	// And the cursor keeps advancing from there.
	click(s, 260, 210)
	if kp.Points[1].X != 260 || kp.Points[1].Y != 210 {
		t.Fatalf("joint 1 = (%v, %v), want re-placed at (260, 210)", kp.Points[1].X, kp.Points[1].Y)
	}
}

func TestKeypointDragAdjustsInsteadOfPlacing(t *testing.T) {
	s, _ := newPoseSurface(t)

	click(s, 50, 50)
	// Grabbing within the pick radius of joint 0 must move it, not place
	// joint 1.
	drag(s, 52, 51, 90, 95)

	kp := selectedKeypoints(t, s)
	if kp.Points[0].X != 90 || kp.Points[0].Y != 95 {
		t.Fatalf("joint 0 = (%v, %v), want (90, 95)", kp.Points[0].X, kp.Points[0].Y)
	}
	if kp.Points[1].Placed {
		t.Fatal("joint 1 should stay unplaced")
	}
}

func TestKeypointVisibilityCycle(t *testing.T) {
	s, _ := newPoseSurface(t)
	click(s, 50, 50)

	s.PointerMove(51, 50) // hover near the joint
	s.KeypointEditor().CycleVisibility()

	kp := selectedKeypoints(t, s)
	if kp.Points[0].Visibility != annotation.VisibilityOccluded {
		t.Fatalf("visibility = %d, want occluded", kp.Points[0].Visibility)
	}

	s.KeypointEditor().CycleVisibility()
	if kp.Points[0].Visibility != annotation.VisibilityUnlabeled {
		t.Fatalf("visibility = %d, want unlabeled", kp.Points[0].Visibility)
	}
	if kp.Box != nil {
		t.Fatal("box should clear when no joint is labeled")
	}
}

func TestKeypointMoveWholeInstance(t *testing.T) {
	s, _ := newPoseSurface(t)
	click(s, 50, 50)
	click(s, 100, 60)
	click(s, 150, 70)

	s.SetTool(ToolSelect)
	// Inside the derived box, clear of every joint.
	drag(s, 75, 55, 95, 75)

	kp := selectedKeypoints(t, s)
	if kp.Points[0].X != 70 || kp.Points[0].Y != 70 {
		t.Fatalf("joint 0 = (%v, %v), want (70, 70)", kp.Points[0].X, kp.Points[0].Y)
	}
	if kp.Points[2].X != 170 || kp.Points[2].Y != 90 {
		t.Fatalf("joint 2 = (%v, %v), want (170, 90)", kp.Points[2].X, kp.Points[2].Y)
	}
	if kp.Box.X != 70 || kp.Box.Y != 70 {
		t.Fatalf("box origin = (%v, %v), want (70, 70)", kp.Box.X, kp.Box.Y)
	}
}

func TestKeypointNewInstanceShortcut(t *testing.T) {
	s, _ := newPoseSurface(t)
	click(s, 50, 50)

	s.KeypointEditor().NewInstance()
	click(s, 200, 150)

	if s.Annotations().Len() != 2 {
		t.Fatalf("expected a second instance, got %d annotations", s.Annotations().Len())
	}
	kp := selectedKeypoints(t, s)
	if !kp.Points[0].Placed || kp.Points[0].X != 200 {
		t.Fatalf("new instance joint 0 = %+v, want placed at x=200", kp.Points[0])
	}
}

func TestKeypointClassWithoutSkeletonBlocked(t *testing.T) {
	s, cl, tr := newTestSurface(t, ProjectPose)
	bare := cl.Add("no-skeleton")
	s.SetCurrentClass(bare.ID)
	s.SetTool(ToolKeypoint)

	click(s, 50, 50)

	if s.Annotations().Len() != 0 {
		t.Fatal("placement should be blocked without a skeleton")
	}
	if len(tr.messages) == 0 || tr.levels[len(tr.levels)-1] != LevelWarning {
		t.Fatalf("expected a warning toast, got %v", tr.messages)
	}
}
