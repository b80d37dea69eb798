package annotation

import (
	"fmt"
)

// Skeleton names the joints of a keypoint class and the connection graph
// drawn between them. Skeletons attach per class, so two classes in the
// same project may structure their keypoints differently.
type Skeleton struct {
	Keypoints   []string `json:"keypoints"`
	Connections [][2]int `json:"connections"`
}

// Validate rejects malformed skeletons before they can be attached to a
// class: every connection index must address an existing joint, and a
// joint cannot connect to itself.
func (s *Skeleton) Validate() error {
	if len(s.Keypoints) == 0 {
		return fmt.Errorf("skeleton has no keypoints")
	}
	for i, c := range s.Connections {
		for _, idx := range c {
			if idx < 0 || idx >= len(s.Keypoints) {
				return fmt.Errorf("connection %d references joint %d, valid range [0,%d)",
					i, idx, len(s.Keypoints))
			}
		}
		if c[0] == c[1] {
			return fmt.Errorf("connection %d joins joint %d to itself", i, c[0])
		}
	}
	return nil
}

// JointCount returns the number of joints.
func (s *Skeleton) JointCount() int {
	return len(s.Keypoints)
}

// JointName returns the label of a joint, or an empty string when out of
// range.
func (s *Skeleton) JointName(i int) string {
	if i < 0 || i >= len(s.Keypoints) {
		return ""
	}
	return s.Keypoints[i]
}
