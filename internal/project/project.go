// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"image-labeler/internal/annotation"
)

// Project types as stored on disk.
const (
	TypeDetection         = "detection"
	TypeOrientedDetection = "oriented-detection"
	TypeSegmentation      = "segmentation"
	TypePose              = "pose"
	TypeLandmarks         = "landmarks"
)

var knownTypes = map[string]bool{
	TypeDetection:         true,
	TypeOrientedDetection: true,
	TypeSegmentation:      true,
	TypePose:              true,
	TypeLandmarks:         true,
}

// ImageEntry holds one image's annotations. The path is stored relative
// to the project file so projects can move between machines.
type ImageEntry struct {
	Path        string                   `json:"path"`
	Annotations []*annotation.Annotation `json:"annotations"`
}

// File represents a labeling project file (.labelproj).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Classes []annotation.Class `json:"classes"`
	Images  []ImageEntry       `json:"images"`
}

// New creates a new project file of the given type.
func New(name, projectType string) (*File, error) {
	if !knownTypes[projectType] {
		return nil, fmt.Errorf("unknown project type %q", projectType)
	}
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Type:     projectType,
		Created:  now,
		Modified: now,
	}, nil
}

// Load loads a project from a .labelproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if !knownTypes[proj.Type] {
		return nil, fmt.Errorf("unknown project type %q in %s", proj.Type, path)
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Entry returns the annotations entry for an image path, creating it on
// first use. The stored path is made relative to the project file.
func (p *File) Entry(projectPath, imagePath string) *ImageEntry {
	key := relPath(projectPath, imagePath)
	for i := range p.Images {
		if p.Images[i].Path == key {
			return &p.Images[i]
		}
	}
	p.Images = append(p.Images, ImageEntry{Path: key})
	return &p.Images[len(p.Images)-1]
}

// ImagePath returns the absolute path for a stored image entry.
func (p *File) ImagePath(projectPath string, entry *ImageEntry) string {
	if filepath.IsAbs(entry.Path) {
		return entry.Path
	}
	return filepath.Join(filepath.Dir(projectPath), entry.Path)
}

func relPath(projectPath, imagePath string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		return imagePath
	}
	return rel
}
