package export

import (
	"bytes"
	"testing"

	"image-labeler/internal/annotation"
)

func TestYOLONumericContract(t *testing.T) {
	anns := []*annotation.Annotation{
		{ClassID: 0, Data: &annotation.BBox{X: 0, Y: 0, Width: 100, Height: 50}},
	}
	var buf bytes.Buffer
	if err := WriteYOLO(&buf, anns, 200, 100); err != nil {
		t.Fatal(err)
	}
	want := "0 0.250000 0.250000 0.500000 0.500000\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestYOLOSkipsNonBoxKinds(t *testing.T) {
	anns := []*annotation.Annotation{
		{ClassID: 1, Data: &annotation.Landmark{X: 5, Y: 5, Name: "Point 1"}},
		{ClassID: 2, Data: &annotation.OBB{CX: 50, CY: 50, Width: 10, Height: 10}},
		{ClassID: 3, Data: &annotation.BBox{X: 10, Y: 10, Width: 20, Height: 20}},
	}
	var buf bytes.Buffer
	if err := WriteYOLO(&buf, anns, 100, 100); err != nil {
		t.Fatal(err)
	}
	want := "3 0.200000 0.200000 0.200000 0.200000\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestYOLORejectsBadDimensions(t *testing.T) {
	if err := WriteYOLO(&bytes.Buffer{}, nil, 0, 100); err == nil {
		t.Fatal("expected error for zero width")
	}
}
