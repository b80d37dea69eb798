// Package app provides application lifecycle management and events.
package app

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	// TIFF has no stdlib decoder; register it for imaging.Open.
	_ "golang.org/x/image/tiff"

	"image-labeler/internal/annotation"
	"image-labeler/internal/editor"
	"image-labeler/internal/project"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoaded
	EventClassesChanged
	EventModified
	EventToolChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state: the open project, its classes, and
// the image currently on the annotation surface.
type State struct {
	mu sync.RWMutex

	ProjectPath string
	Project     *project.File
	Classes     *annotation.ClassList

	CurrentImagePath string
	Modified         bool

	log *logrus.Entry

	listeners map[EventType][]EventListener
}

// NewState creates a new application state.
func NewState(log *logrus.Logger) *State {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &State{
		Classes:   annotation.NewClassList(),
		log:       log.WithField("component", "state"),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// NewProject creates and saves an empty project at the given path.
func (s *State) NewProject(path, name, projectType string) error {
	proj, err := project.New(name, projectType)
	if err != nil {
		return err
	}
	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Project = proj
	s.Classes = annotation.NewClassList()
	s.CurrentImagePath = ""
	s.Modified = false
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"path": path, "type": projectType}).Info("project created")
	s.Emit(EventProjectLoaded, proj)
	return nil
}

// LoadProject loads a project from the specified path.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Project = proj
	s.Classes = annotation.NewClassList()
	s.Classes.Restore(proj.Classes)
	s.CurrentImagePath = ""
	s.Modified = false
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"path": path, "type": proj.Type}).Info("project loaded")
	s.Emit(EventProjectLoaded, proj)
	s.Emit(EventClassesChanged, nil)
	return nil
}

// SaveProject writes the project file, folding in the current class list.
// The write happens under the state lock: the autosaver calls this from its
// timer goroutine, and serializing a project the event thread is mutating
// through StoreAnnotations would race.
func (s *State) SaveProject() error {
	s.mu.Lock()
	if s.Project == nil {
		s.mu.Unlock()
		return fmt.Errorf("no project open")
	}
	s.Project.Classes = s.Classes.All()
	path := s.ProjectPath
	err := s.Project.Save(path)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// EditorProjectType maps the open project's stored type to the surface
// project type.
func (s *State) EditorProjectType() (editor.ProjectType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Project == nil {
		return 0, fmt.Errorf("no project open")
	}
	switch s.Project.Type {
	case project.TypeDetection:
		return editor.ProjectDetection, nil
	case project.TypeOrientedDetection:
		return editor.ProjectOrientedDetection, nil
	case project.TypeSegmentation:
		return editor.ProjectSegmentation, nil
	case project.TypePose:
		return editor.ProjectPose, nil
	case project.TypeLandmarks:
		return editor.ProjectLandmarks, nil
	default:
		return 0, fmt.Errorf("unknown project type %q", s.Project.Type)
	}
}

// OpenImage decodes an image file and makes it current. Stored
// annotations for the image are returned alongside.
func (s *State) OpenImage(path string) (image.Image, []*annotation.Annotation, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s.mu.Lock()
	if s.Project == nil {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("no project open")
	}
	s.CurrentImagePath = path
	entry := s.Project.Entry(s.ProjectPath, path)
	anns := make([]*annotation.Annotation, 0, len(entry.Annotations))
	for _, a := range entry.Annotations {
		anns = append(anns, a.Clone())
	}
	s.mu.Unlock()

	s.log.WithField("path", path).Info("image opened")
	s.Emit(EventImageLoaded, path)
	return img, anns, nil
}

// StoreAnnotations writes the surface's annotations back into the project
// entry for the current image. The entry holds deep copies: the surface
// keeps mutating its own structs during a drag, and the autosaver may
// serialize the entry from its timer goroutine at any moment.
func (s *State) StoreAnnotations(items []*annotation.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Project == nil || s.CurrentImagePath == "" {
		return
	}
	entry := s.Project.Entry(s.ProjectPath, s.CurrentImagePath)
	entry.Annotations = entry.Annotations[:0]
	for _, a := range items {
		entry.Annotations = append(entry.Annotations, a.Clone())
	}
}

// AddClass creates a class and marks the project modified.
func (s *State) AddClass(name string) annotation.Class {
	s.mu.Lock()
	c := s.Classes.Add(name)
	s.mu.Unlock()

	s.Emit(EventClassesChanged, c)
	s.SetModified(true)
	return c
}
