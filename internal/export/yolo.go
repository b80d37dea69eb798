// Package export writes annotations in training-consumable formats.
package export

import (
	"fmt"
	"io"
	"os"

	"image-labeler/internal/annotation"
)

// WriteYOLO writes one line per bbox annotation in YOLO text format:
// classId x_center y_center width height, geometry normalized to [0,1] by
// the image dimensions and formatted to 6 decimal places. Non-bbox
// annotations are skipped.
func WriteYOLO(w io.Writer, anns []*annotation.Annotation, imageWidth, imageHeight int) error {
	if imageWidth <= 0 || imageHeight <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", imageWidth, imageHeight)
	}
	fw := float64(imageWidth)
	fh := float64(imageHeight)

	for _, a := range anns {
		box, ok := a.Data.(*annotation.BBox)
		if !ok {
			continue
		}
		_, err := fmt.Fprintf(w, "%d %.6f %.6f %.6f %.6f\n",
			a.ClassID,
			(box.X+box.Width/2)/fw,
			(box.Y+box.Height/2)/fh,
			box.Width/fw,
			box.Height/fh,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveYOLO writes the YOLO export to a file.
func SaveYOLO(path string, anns []*annotation.Annotation, imageWidth, imageHeight int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteYOLO(f, anns, imageWidth, imageHeight)
}
