package facedetect

import (
	"errors"
	"image"
	"io"

	_ "image/jpeg"
	_ "image/png"
)

// Rejection reasons surfaced verbatim as field-keyed validation errors.
var (
	ErrNoFacesImage = errors.New("No faces detected in the uploaded image.")
	ErrNoFacesVideo = errors.New("No faces detected in the uploaded video.")
	ErrImageDecode  = errors.New("Unable to process the uploaded image.")
	ErrVideoOpen    = errors.New("Unable to process the uploaded video.")
)

// Gate validates that submitted media contains at least one detectable face.
type Gate struct {
	Detector Detector
	Opener   FrameOpener
}

func NewGate(det Detector, opener FrameOpener) *Gate {
	return &Gate{Detector: det, Opener: opener}
}

// CheckImage decodes the image and runs one detector pass.
func (g *Gate) CheckImage(r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return ErrImageDecode
	}
	if g.Detector.Detect(img) == 0 {
		return ErrNoFacesImage
	}
	return nil
}

// CheckVideo scans frames in sequence and stops at the first one containing
// a face. A file that cannot be opened for decoding is rejected with a
// distinct error; reaching end-of-stream without a hit rejects too.
func (g *Gate) CheckVideo(path string) error {
	src, err := g.Opener.Open(path)
	if err != nil {
		return ErrVideoOpen
	}
	defer src.Close()

	for {
		frame, err := src.Next()
		if err != nil {
			// end of stream or a mid-stream decode failure: no face found
			return ErrNoFacesVideo
		}
		if g.Detector.Detect(frame) > 0 {
			return nil
		}
	}
}
