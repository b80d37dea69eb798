// Package editor implements the annotation surface: the pointer-event
// dispatch pipeline shared by all annotation kinds and the concrete
// editors for boxes, oriented boxes, raster masks, skeleton keypoints,
// and landmarks.
package editor

import (
	"fmt"
	"image"

	"image-labeler/internal/annotation"
)

// Tool represents the current interaction tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
	ToolBBox
	ToolOBB
	ToolMask
	ToolKeypoint
	ToolLandmark
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolPan:
		return "pan"
	case ToolBBox:
		return "bbox"
	case ToolOBB:
		return "obb"
	case ToolMask:
		return "mask"
	case ToolKeypoint:
		return "keypoint"
	case ToolLandmark:
		return "landmark"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// Shortcut binds a key to an editor action for the merged keyboard map.
type Shortcut struct {
	Key         string
	Description string
	Action      func()
}

// Editor is the contract every concrete annotation editor fulfills. The
// surface forwards image-space coordinates; editors mutate annotations
// through the surface, never via a parallel copy.
type Editor interface {
	// DrawAnnotation renders one committed annotation of the editor's kind.
	DrawAnnotation(dst *image.RGBA, ann *annotation.Annotation, selected bool)

	// DrawOverlay renders transient gesture state (drag previews, brush
	// cursor) on top of all committed annotations.
	DrawOverlay(dst *image.RGBA)

	// HandleDrawStart/Move/End receive the pointer gesture in image space.
	HandleDrawStart(x, y float64)
	HandleDrawMove(x, y float64)
	HandleDrawEnd(x, y float64)

	// AvailableTools lists the tools this editor services.
	AvailableTools() []Tool

	// Shortcuts lists editor-specific key bindings.
	Shortcuts() []Shortcut
}

// ProjectType selects which annotation kinds a project may contain and
// therefore which editors the surface constructs.
type ProjectType int

const (
	ProjectDetection         ProjectType = iota // axis-aligned boxes
	ProjectOrientedDetection                    // oriented boxes
	ProjectSegmentation                         // raster masks
	ProjectPose                                 // skeleton keypoints
	ProjectLandmarks                            // free points
)

// kindsFor maps a project type to its legal annotation kinds.
func kindsFor(pt ProjectType) []annotation.Kind {
	switch pt {
	case ProjectDetection:
		return []annotation.Kind{annotation.KindBBox}
	case ProjectOrientedDetection:
		return []annotation.Kind{annotation.KindOBB}
	case ProjectSegmentation:
		return []annotation.Kind{annotation.KindMask}
	case ProjectPose:
		return []annotation.Kind{annotation.KindKeypoints}
	case ProjectLandmarks:
		return []annotation.Kind{annotation.KindLandmark}
	default:
		return nil
	}
}

// NewEditor constructs the concrete editor for an annotation kind. Editors
// are keyed by kind tag, never resolved by runtime type inspection.
func NewEditor(kind annotation.Kind, s *Surface) (Editor, error) {
	switch kind {
	case annotation.KindBBox:
		return newBoxEditor(s), nil
	case annotation.KindOBB:
		return newOBBEditor(s), nil
	case annotation.KindMask:
		return newMaskEditor(s), nil
	case annotation.KindKeypoints:
		return newKeypointEditor(s), nil
	case annotation.KindLandmark:
		return newLandmarkEditor(s), nil
	default:
		return nil, fmt.Errorf("no editor for annotation kind %s", kind)
	}
}
