// Package facedetect rejects report media in which no human face can be
// found. Images get a single detector pass; videos are scanned frame by
// frame until the first hit.
package facedetect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// Detector counts faces in a single decoded frame.
type Detector interface {
	Detect(img image.Image) int
}

// qualityThreshold filters low-confidence cascade hits.
const qualityThreshold = 5.0

// PigoDetector wraps the pigo cascade classifier. Safe for concurrent use;
// RunCascade does not mutate the classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
}

// NewPigoDetector loads the binary cascade file (pigo's facefinder).
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier}, nil
}

func (d *PigoDetector) Detect(img image.Image) int {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows == 0 || cols == 0 {
		return 0
	}

	pixels := pigo.RgbToGrayscale(img)

	maxSize := rows
	if cols < rows {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	faces := 0
	for _, det := range dets {
		if det.Q >= qualityThreshold {
			faces++
		}
	}
	return faces
}
