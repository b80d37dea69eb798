package annotation

import (
	"testing"
)

func TestListSelectionClearedOnRemove(t *testing.T) {
	l := NewList()
	a := l.Add(&Annotation{ClassID: 1, Data: &BBox{X: 0, Y: 0, Width: 10, Height: 10}})
	b := l.Add(&Annotation{ClassID: 1, Data: &BBox{X: 5, Y: 5, Width: 10, Height: 10}})

	l.Select(a.ID)
	if !l.Remove(a.ID) {
		t.Fatal("remove failed")
	}
	if l.SelectedID() != 0 {
		t.Fatalf("selection should clear on remove, got %d", l.SelectedID())
	}
	if l.Get(b.ID) == nil {
		t.Fatal("unrelated annotation lost")
	}
}

func TestSelectUnknownIDIgnored(t *testing.T) {
	l := NewList()
	a := l.Add(&Annotation{ClassID: 1, Data: &Landmark{X: 1, Y: 2, Name: "Point 1"}})
	l.Select(a.ID)
	l.Select(999)
	if l.SelectedID() != a.ID {
		t.Fatalf("selection moved to unknown ID: %d", l.SelectedID())
	}
}

func TestTopmostAtPrefersLastAdded(t *testing.T) {
	l := NewList()
	l.Add(&Annotation{ClassID: 1, Data: &BBox{X: 0, Y: 0, Width: 100, Height: 100}})
	top := l.Add(&Annotation{ClassID: 1, Data: &BBox{X: 0, Y: 0, Width: 100, Height: 100}})

	got := l.TopmostAt(func(a *Annotation) bool {
		box := a.Data.(*BBox)
		return box.HitTest(50, 50)
	})
	if got == nil || got.ID != top.ID {
		t.Fatalf("topmost hit should win, got %+v", got)
	}
}

func TestIDsStableAcrossRemoval(t *testing.T) {
	l := NewList()
	a := l.Add(&Annotation{Data: &Landmark{}})
	l.Remove(a.ID)
	b := l.Add(&Annotation{Data: &Landmark{}})
	if b.ID == a.ID {
		t.Fatal("IDs must not be reused")
	}
}
