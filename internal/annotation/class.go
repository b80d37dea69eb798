package annotation

import (
	"fmt"
	"image/color"
)

// Class describes one label class. The annotation core only reads classes;
// class management belongs to the application layer.
type Class struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Color    color.RGBA `json:"color"`
	Skeleton *Skeleton  `json:"skeleton,omitempty"`
}

// Classes is the read-only lookup the surface and editors depend on.
type Classes interface {
	ClassByID(id int) (Class, bool)
	All() []Class
}

// DefaultColors provides a palette of highly saturated colors for classes.
var DefaultColors = []color.RGBA{
	{255, 0, 0, 255},   // Red
	{0, 255, 0, 255},   // Green
	{0, 0, 255, 255},   // Blue
	{255, 255, 0, 255}, // Yellow
	{255, 0, 255, 255}, // Magenta
	{0, 255, 255, 255}, // Cyan
	{255, 128, 0, 255}, // Orange
	{128, 0, 255, 255}, // Purple
	{0, 255, 128, 255}, // Spring Green
	{255, 0, 128, 255}, // Rose
	{128, 255, 0, 255}, // Lime
	{0, 128, 255, 255}, // Sky Blue
}

// NextColor returns the next palette color based on class count.
func NextColor(classCount int) color.RGBA {
	return DefaultColors[classCount%len(DefaultColors)]
}

// ClassList is a simple Classes implementation backed by a slice.
type ClassList struct {
	classes []Class
	nextID  int
}

// NewClassList creates an empty class list.
func NewClassList() *ClassList {
	return &ClassList{nextID: 1}
}

// Add creates a class with an auto-assigned ID and palette color.
func (cl *ClassList) Add(name string) Class {
	c := Class{
		ID:    cl.nextID,
		Name:  name,
		Color: NextColor(len(cl.classes)),
	}
	cl.nextID++
	cl.classes = append(cl.classes, c)
	return c
}

// Restore replaces the list contents with previously persisted classes.
func (cl *ClassList) Restore(classes []Class) {
	cl.classes = append(cl.classes[:0], classes...)
	cl.nextID = 1
	for _, c := range classes {
		if c.ID >= cl.nextID {
			cl.nextID = c.ID + 1
		}
	}
}

// AttachSkeleton validates and attaches a skeleton to a class.
func (cl *ClassList) AttachSkeleton(classID int, s *Skeleton) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid skeleton: %w", err)
	}
	for i := range cl.classes {
		if cl.classes[i].ID == classID {
			cl.classes[i].Skeleton = s
			return nil
		}
	}
	return fmt.Errorf("class %d not found", classID)
}

// ClassByID implements Classes.
func (cl *ClassList) ClassByID(id int) (Class, bool) {
	for _, c := range cl.classes {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

// All implements Classes.
func (cl *ClassList) All() []Class {
	out := make([]Class, len(cl.classes))
	copy(out, cl.classes)
	return out
}

// Len returns the number of classes.
func (cl *ClassList) Len() int {
	return len(cl.classes)
}
