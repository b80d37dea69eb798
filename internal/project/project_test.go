package project

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"image-labeler/internal/annotation"
)

func TestNewRejectsUnknownType(t *testing.T) {
	if _, err := New("p", "classification"); err == nil {
		t.Fatal("expected error for unknown project type")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cats.labelproj")

	p, err := New("cats", TypeDetection)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Classes = append(p.Classes, annotation.Class{ID: 1, Name: "cat"})

	entry := p.Entry(path, filepath.Join(dir, "images", "cat1.jpg"))
	entry.Annotations = append(entry.Annotations, &annotation.Annotation{
		ID:      1,
		ClassID: 1,
		Data:    &annotation.BBox{X: 10, Y: 20, Width: 100, Height: 50},
	})

	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "cats" || loaded.Type != TypeDetection {
		t.Fatalf("loaded %q/%q", loaded.Name, loaded.Type)
	}
	if len(loaded.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(loaded.Images))
	}
	if loaded.Images[0].Path != filepath.Join("images", "cat1.jpg") {
		t.Fatalf("stored path = %q, want relative", loaded.Images[0].Path)
	}
	box, ok := loaded.Images[0].Annotations[0].Data.(*annotation.BBox)
	if !ok {
		t.Fatalf("annotation data is %T", loaded.Images[0].Annotations[0].Data)
	}
	if box.Width != 100 || box.Height != 50 {
		t.Fatalf("box = %+v", box)
	}
}

func TestLoadRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.labelproj")

	p, _ := New("p", TypeDetection)
	p.Type = "mystery"
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown type on load")
	}
}

func TestEntryReturnsSameEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.labelproj")
	p, _ := New("p", TypePose)

	img := filepath.Join(dir, "a.png")
	e1 := p.Entry(path, img)
	e1.Annotations = append(e1.Annotations, &annotation.Annotation{ID: 1, ClassID: 1, Data: &annotation.Landmark{X: 1, Y: 2}})

	e2 := p.Entry(path, img)
	if len(e2.Annotations) != 1 {
		t.Fatal("Entry should return the existing entry for the same image")
	}
	if len(p.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(p.Images))
	}
}

func TestImagePathResolvesRelative(t *testing.T) {
	p, _ := New("p", TypeDetection)
	entry := &ImageEntry{Path: filepath.Join("images", "x.png")}

	abs := p.ImagePath(filepath.Join("/data", "proj", "p.labelproj"), entry)
	if abs != filepath.Join("/data", "proj", "images", "x.png") {
		t.Fatalf("resolved %q", abs)
	}
}

func TestAutosaverDebounces(t *testing.T) {
	var saves atomic.Int32
	a := NewAutosaver(30*time.Millisecond, func() error {
		saves.Add(1)
		return nil
	}, nil)

	for i := 0; i < 5; i++ {
		a.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1 after a burst", got)
	}
}

func TestAutosaverFlush(t *testing.T) {
	var saves atomic.Int32
	a := NewAutosaver(time.Hour, func() error {
		saves.Add(1)
		return nil
	}, nil)

	a.Trigger()
	a.Flush()

	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1 after flush", got)
	}

	// Nothing pending now; flush is a no-op.
	a.Flush()
	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want still 1", got)
	}
}

func TestAutosaverStopCancels(t *testing.T) {
	var saves atomic.Int32
	a := NewAutosaver(10*time.Millisecond, func() error {
		saves.Add(1)
		return nil
	}, nil)

	a.Trigger()
	a.Stop()
	time.Sleep(50 * time.Millisecond)

	if got := saves.Load(); got != 0 {
		t.Fatalf("saves = %d, want 0 after stop", got)
	}
}
