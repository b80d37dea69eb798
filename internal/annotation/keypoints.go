package annotation

import (
	"encoding/json"

	"image-labeler/pkg/geometry"
)

// Visibility is the tri-state label on a keypoint.
type Visibility int

const (
	VisibilityUnlabeled Visibility = 0
	VisibilityOccluded  Visibility = 1
	VisibilityVisible   Visibility = 2
)

// Next cycles visible -> occluded -> unlabeled -> visible.
func (v Visibility) Next() Visibility {
	switch v {
	case VisibilityVisible:
		return VisibilityOccluded
	case VisibilityOccluded:
		return VisibilityUnlabeled
	default:
		return VisibilityVisible
	}
}

// Keypoint is one slot of a keypoint instance, indexed by skeleton joint.
// An unplaced slot serializes with null coordinates.
type Keypoint struct {
	X          float64
	Y          float64
	Visibility Visibility
	Placed     bool
}

// Labeled reports whether the point participates in drawing and in the
// derived bounding box: it must be placed and not unlabeled.
func (k Keypoint) Labeled() bool {
	return k.Placed && k.Visibility > VisibilityUnlabeled
}

type wireKeypoint struct {
	X          *float64   `json:"x"`
	Y          *float64   `json:"y"`
	Visibility Visibility `json:"visibility"`
}

// MarshalJSON writes null coordinates for unplaced slots.
func (k Keypoint) MarshalJSON() ([]byte, error) {
	w := wireKeypoint{Visibility: k.Visibility}
	if k.Placed {
		x, y := k.X, k.Y
		w.X, w.Y = &x, &y
	}
	return json.Marshal(w)
}

// UnmarshalJSON treats null coordinates as an unplaced slot.
func (k *Keypoint) UnmarshalJSON(raw []byte) error {
	var w wireKeypoint
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	*k = Keypoint{Visibility: w.Visibility}
	if w.X != nil && w.Y != nil {
		k.X, k.Y = *w.X, *w.Y
		k.Placed = true
	}
	return nil
}

// Keypoints is one skeleton instance: one slot per skeleton joint plus the
// derived bounding box over labeled points. Box is nil while no point is
// labeled.
type Keypoints struct {
	Points []Keypoint     `json:"points"`
	Box    *geometry.Rect `json:"bbox"`
}

func (Keypoints) Kind() Kind { return KindKeypoints }

// NewKeypoints allocates an instance with one empty slot per joint.
func NewKeypoints(jointCount int) *Keypoints {
	return &Keypoints{Points: make([]Keypoint, jointCount)}
}

// RecomputeBox refreshes the derived bounding box from the labeled points.
func (kp *Keypoints) RecomputeBox() {
	var pts []geometry.Point2D
	for _, p := range kp.Points {
		if p.Labeled() {
			pts = append(pts, geometry.Point2D{X: p.X, Y: p.Y})
		}
	}
	if len(pts) == 0 {
		kp.Box = nil
		return
	}
	box := geometry.BoundingBox(pts)
	kp.Box = &box
}

// Place sets the slot at the given joint index and refreshes the box.
func (kp *Keypoints) Place(joint int, x, y float64) {
	if joint < 0 || joint >= len(kp.Points) {
		return
	}
	kp.Points[joint] = Keypoint{X: x, Y: y, Visibility: VisibilityVisible, Placed: true}
	kp.RecomputeBox()
}

// NearestPlaced returns the index of the placed point closest to (x, y)
// within maxDist, or -1 if none qualifies.
func (kp *Keypoints) NearestPlaced(x, y, maxDist float64) int {
	best := -1
	bestDist := maxDist
	q := geometry.Point2D{X: x, Y: y}
	for i, p := range kp.Points {
		if !p.Placed {
			continue
		}
		d := geometry.Point2D{X: p.X, Y: p.Y}.Distance(q)
		if d <= bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// HitTest reports whether the point lies inside the derived bounding box.
func (kp *Keypoints) HitTest(x, y float64) bool {
	if kp.Box == nil {
		return false
	}
	return kp.Box.Contains(geometry.Point2D{X: x, Y: y})
}
