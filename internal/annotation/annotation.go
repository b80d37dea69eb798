// Package annotation defines the annotation data model: a closed tagged
// union of geometric label kinds, the skeleton definitions that structure
// keypoint labels, and the collection type that owns annotation identity
// and selection.
package annotation

import (
	"encoding/json"
	"fmt"

	"image-labeler/pkg/geometry"
)

// Kind identifies an annotation variant.
type Kind int

const (
	KindBBox Kind = iota
	KindOBB
	KindMask
	KindKeypoints
	KindLandmark
	KindPoint
	KindRange
)

var kindNames = map[Kind]string{
	KindBBox:      "bbox",
	KindOBB:       "obb",
	KindMask:      "mask",
	KindKeypoints: "keypoints",
	KindLandmark:  "landmark",
	KindPoint:     "point",
	KindRange:     "range",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a wire-format type tag.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation type %q", name)
}

// Data is the closed set of annotation payloads. The shape of the payload
// is fully determined by its kind; editors must never touch another
// variant's fields.
type Data interface {
	Kind() Kind
}

// BBox is an axis-aligned rectangle in image space. Width and height are
// always positive; gestures drawn backwards are normalized before storage.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (BBox) Kind() Kind { return KindBBox }

// Rect returns the box as a geometry rectangle.
func (b BBox) Rect() geometry.Rect {
	return geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

// HitTest reports whether the image-space point lies inside the box.
func (b BBox) HitTest(x, y float64) bool {
	return b.Rect().Contains(geometry.Point2D{X: x, Y: y})
}

// OBB is an oriented box: center and extents in unrotated image space plus
// a clockwise angle in degrees. Width and height are measured along the
// box's own local axes.
type OBB struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

func (OBB) Kind() Kind { return KindOBB }

// Center returns the box center.
func (o OBB) Center() geometry.Point2D {
	return geometry.Point2D{X: o.CX, Y: o.CY}
}

// ToLocal transforms a world-space point into the box's un-rotated local
// frame, origin at the box center. All oriented-box hit testing happens in
// this frame against an axis-aligned rectangle; the box itself is never
// rotated for testing.
func (o OBB) ToLocal(x, y float64) (float64, float64) {
	p := geometry.Point2D{X: x, Y: y}.RotateAround(o.Center(), -o.Angle)
	return p.X - o.CX, p.Y - o.CY
}

// FromLocal transforms a local-frame point back to world space.
func (o OBB) FromLocal(lx, ly float64) (float64, float64) {
	p := geometry.Point2D{X: o.CX + lx, Y: o.CY + ly}.RotateAround(o.Center(), o.Angle)
	return p.X, p.Y
}

// HitTest reports whether the world point is inside the oriented box.
func (o OBB) HitTest(x, y float64) bool {
	lx, ly := o.ToLocal(x, y)
	return lx >= -o.Width/2 && lx <= o.Width/2 && ly >= -o.Height/2 && ly <= o.Height/2
}

// Corners returns the four world-space corners in draw order.
func (o OBB) Corners() [4]geometry.Point2D {
	hw, hh := o.Width/2, o.Height/2
	local := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var out [4]geometry.Point2D
	for i, l := range local {
		x, y := o.FromLocal(l[0], l[1])
		out[i] = geometry.Point2D{X: x, Y: y}
	}
	return out
}

// Mask is a raster label: a PNG-encoded crop of the painted pixels plus the
// crop's placement. X/Y/Width/Height track the tight bounds of the painted
// alpha (padded by the brush radius at commit), never the full canvas.
type Mask struct {
	PNG    []byte `json:"imageData"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (Mask) Kind() Kind { return KindMask }

// Bounds returns the stored placement rectangle.
func (m Mask) Bounds() geometry.RectInt {
	return geometry.RectInt{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// HitTest reports whether the image point falls inside the mask bounds.
func (m Mask) HitTest(x, y float64) bool {
	return m.Bounds().ToFloat().Contains(geometry.Point2D{X: x, Y: y})
}

// Landmark is a free independent point with a user-editable name.
type Landmark struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

func (Landmark) Kind() Kind { return KindLandmark }

// Point is a time-series point label; X is a domain coordinate, not a pixel.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (Point) Kind() Kind { return KindPoint }

// Range is a time-series interval label in domain coordinates, start <= end.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (Range) Kind() Kind { return KindRange }

// Normalized returns the range with start and end swapped if drawn
// right-to-left.
func (r Range) Normalized() Range {
	if r.Start > r.End {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

// Annotation ties a payload to its class. IDs are assigned by the owning
// List and are stable for the lifetime of the annotation.
type Annotation struct {
	ID      int
	ClassID int
	Data    Data
}

// Clone returns a deep copy sharing no mutable state with the receiver, so
// a snapshot can be serialized while the surface keeps editing the original.
func (a *Annotation) Clone() *Annotation {
	c := &Annotation{ID: a.ID, ClassID: a.ClassID}
	switch d := a.Data.(type) {
	case *BBox:
		v := *d
		c.Data = &v
	case *OBB:
		v := *d
		c.Data = &v
	case *Mask:
		v := *d
		v.PNG = append([]byte(nil), d.PNG...)
		c.Data = &v
	case *Keypoints:
		v := &Keypoints{Points: append([]Keypoint(nil), d.Points...)}
		if d.Box != nil {
			b := *d.Box
			v.Box = &b
		}
		c.Data = v
	case *Landmark:
		v := *d
		c.Data = &v
	case *Point:
		v := *d
		c.Data = &v
	case *Range:
		v := *d
		c.Data = &v
	}
	return c
}

// wireAnnotation is the persisted JSON form shared with the export and
// persistence collaborators.
type wireAnnotation struct {
	Type    string          `json:"type"`
	ClassID int             `json:"classId"`
	Data    json.RawMessage `json:"data"`
}

// MarshalJSON encodes the annotation in wire form.
func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.Data == nil {
		return nil, fmt.Errorf("annotation %d has no data", a.ID)
	}
	payload, err := json.Marshal(a.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireAnnotation{
		Type:    a.Data.Kind().String(),
		ClassID: a.ClassID,
		Data:    payload,
	})
}

// UnmarshalJSON decodes the wire form, rejecting unknown type tags.
func (a *Annotation) UnmarshalJSON(raw []byte) error {
	var w wireAnnotation
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Type)
	if err != nil {
		return err
	}

	var data Data
	switch kind {
	case KindBBox:
		data = &BBox{}
	case KindOBB:
		data = &OBB{}
	case KindMask:
		data = &Mask{}
	case KindKeypoints:
		data = &Keypoints{}
	case KindLandmark:
		data = &Landmark{}
	case KindPoint:
		data = &Point{}
	case KindRange:
		data = &Range{}
	}
	if err := json.Unmarshal(w.Data, data); err != nil {
		return fmt.Errorf("decode %s data: %w", w.Type, err)
	}

	a.ClassID = w.ClassID
	a.Data = data
	return nil
}
