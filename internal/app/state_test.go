package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"image-labeler/internal/annotation"
	"image-labeler/internal/editor"
	"image-labeler/internal/project"
)

func newTestState(t *testing.T) (*State, string) {
	t.Helper()
	s := NewState(nil)
	path := filepath.Join(t.TempDir(), "p.labelproj")
	if err := s.NewProject(path, "test", project.TypeDetection); err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	return s, path
}

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 32, 24))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestNewProjectEmitsLoaded(t *testing.T) {
	s := NewState(nil)
	loaded := 0
	s.On(EventProjectLoaded, func(interface{}) { loaded++ })

	path := filepath.Join(t.TempDir(), "p.labelproj")
	if err := s.NewProject(path, "test", project.TypePose); err != nil {
		t.Fatalf("NewProject: %v", err)
	}

	if loaded != 1 {
		t.Fatalf("EventProjectLoaded fired %d times, want 1", loaded)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("project file not written: %v", err)
	}
}

func TestEditorProjectTypeMapping(t *testing.T) {
	cases := map[string]editor.ProjectType{
		project.TypeDetection:         editor.ProjectDetection,
		project.TypeOrientedDetection: editor.ProjectOrientedDetection,
		project.TypeSegmentation:      editor.ProjectSegmentation,
		project.TypePose:              editor.ProjectPose,
		project.TypeLandmarks:         editor.ProjectLandmarks,
	}
	for stored, want := range cases {
		s := NewState(nil)
		path := filepath.Join(t.TempDir(), "p.labelproj")
		if err := s.NewProject(path, "test", stored); err != nil {
			t.Fatalf("NewProject(%s): %v", stored, err)
		}
		got, err := s.EditorProjectType()
		if err != nil {
			t.Fatalf("EditorProjectType(%s): %v", stored, err)
		}
		if got != want {
			t.Fatalf("type %s mapped to %d, want %d", stored, got, want)
		}
	}
}

func TestAnnotationsPersistAcrossReload(t *testing.T) {
	s, path := newTestState(t)
	c := s.AddClass("cat")
	img := writeTestPNG(t, filepath.Dir(path))

	if _, _, err := s.OpenImage(img); err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	s.StoreAnnotations([]*annotation.Annotation{
		{ID: 1, ClassID: c.ID, Data: &annotation.BBox{X: 1, Y: 2, Width: 10, Height: 10}},
	})
	if err := s.SaveProject(); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	s2 := NewState(nil)
	if err := s2.LoadProject(path); err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if s2.Classes.Len() != 1 {
		t.Fatalf("classes = %d, want 1", s2.Classes.Len())
	}
	_, anns, err := s2.OpenImage(img)
	if err != nil {
		t.Fatalf("OpenImage after reload: %v", err)
	}
	if len(anns) != 1 {
		t.Fatalf("annotations = %d, want 1", len(anns))
	}
	if _, ok := anns[0].Data.(*annotation.BBox); !ok {
		t.Fatalf("annotation data is %T", anns[0].Data)
	}
}

func TestStoredAnnotationsAreSnapshots(t *testing.T) {
	s, path := newTestState(t)
	c := s.AddClass("cat")
	img := writeTestPNG(t, filepath.Dir(path))
	if _, _, err := s.OpenImage(img); err != nil {
		t.Fatalf("OpenImage: %v", err)
	}

	box := &annotation.BBox{X: 1, Y: 2, Width: 10, Height: 10}
	live := &annotation.Annotation{ID: 1, ClassID: c.ID, Data: box}
	s.StoreAnnotations([]*annotation.Annotation{live})

	// An ongoing drag keeps mutating the live struct; the stored entry
	// must not follow.
	box.X = 99

	entry := s.Project.Entry(s.ProjectPath, s.CurrentImagePath)
	stored := entry.Annotations[0].Data.(*annotation.BBox)
	if stored.X != 1 {
		t.Fatalf("stored X = %v, want the snapshot value 1", stored.X)
	}

	// Re-opening the image must hand back fresh copies, not the stored
	// structs.
	_, anns, err := s.OpenImage(img)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	anns[0].Data.(*annotation.BBox).Y = 77
	if stored.Y != 2 {
		t.Fatalf("stored Y = %v, want 2", stored.Y)
	}
}

func TestSaveConcurrentWithStore(t *testing.T) {
	s, path := newTestState(t)
	c := s.AddClass("cat")
	img := writeTestPNG(t, filepath.Dir(path))
	if _, _, err := s.OpenImage(img); err != nil {
		t.Fatalf("OpenImage: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := s.SaveProject(); err != nil {
				t.Errorf("SaveProject: %v", err)
				return
			}
		}
	}()

	box := &annotation.BBox{X: 1, Y: 2, Width: 10, Height: 10}
	live := &annotation.Annotation{ID: 1, ClassID: c.ID, Data: box}
	for i := 0; i < 200; i++ {
		box.X = float64(i)
		s.StoreAnnotations([]*annotation.Annotation{live})
	}
	<-done
}

func TestRestoredClassIDsDoNotCollide(t *testing.T) {
	s, path := newTestState(t)
	s.AddClass("a")
	s.AddClass("b")
	if err := s.SaveProject(); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	s2 := NewState(nil)
	if err := s2.LoadProject(path); err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	c := s2.AddClass("c")
	if c.ID != 3 {
		t.Fatalf("new class ID = %d, want 3", c.ID)
	}
}

func TestOpenImageWithoutProjectFails(t *testing.T) {
	s := NewState(nil)
	img := writeTestPNG(t, t.TempDir())
	if _, _, err := s.OpenImage(img); err == nil {
		t.Fatal("expected error with no project open")
	}
}

func TestSetModifiedEmits(t *testing.T) {
	s, _ := newTestState(t)
	var got []bool
	s.On(EventModified, func(data interface{}) { got = append(got, data.(bool)) })

	s.SetModified(true)
	s.SetModified(false)

	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("modified events = %v, want [true false]", got)
	}
}
