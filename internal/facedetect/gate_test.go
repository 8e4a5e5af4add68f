package facedetect

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
)

// fakeDetector reports a face for frames whose index is in hits.
type fakeDetector struct {
	calls int
	hits  map[int]bool
}

func (d *fakeDetector) Detect(img image.Image) int {
	d.calls++
	if d.hits[d.calls] {
		return 1
	}
	return 0
}

// sliceFrames serves a fixed number of blank frames, tracking decode count.
type sliceFrames struct {
	total   int
	decoded int
	closed  bool
}

func (s *sliceFrames) Next() (image.Image, error) {
	if s.decoded >= s.total {
		return nil, io.EOF
	}
	s.decoded++
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (s *sliceFrames) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	src *sliceFrames
	err error
}

func (o *fakeOpener) Open(path string) (FrameSource, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

func encodePNG(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestCheckImageNoFaces(t *testing.T) {
	gate := NewGate(&fakeDetector{}, &fakeOpener{})

	err := gate.CheckImage(encodePNG(t))
	if !errors.Is(err, ErrNoFacesImage) {
		t.Fatalf("err = %v, want ErrNoFacesImage", err)
	}
	if err.Error() != "No faces detected in the uploaded image." {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCheckImageWithFace(t *testing.T) {
	gate := NewGate(&fakeDetector{hits: map[int]bool{1: true}}, &fakeOpener{})
	if err := gate.CheckImage(encodePNG(t)); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestCheckImageUndecodable(t *testing.T) {
	gate := NewGate(&fakeDetector{}, &fakeOpener{})
	err := gate.CheckImage(strings.NewReader("not an image"))
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestCheckVideoEarlyExit(t *testing.T) {
	// frames 1-49 are empty; frame 50 has a face
	det := &fakeDetector{hits: map[int]bool{50: true}}
	src := &sliceFrames{total: 200}
	gate := NewGate(det, &fakeOpener{src: src})

	if err := gate.CheckVideo("clip.avi"); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if src.decoded != 50 {
		t.Errorf("decoded %d frames, want exactly 50", src.decoded)
	}
	if !src.closed {
		t.Error("frame source not closed after early exit")
	}
}

func TestCheckVideoNoFaces(t *testing.T) {
	src := &sliceFrames{total: 10}
	gate := NewGate(&fakeDetector{}, &fakeOpener{src: src})

	err := gate.CheckVideo("clip.mp4")
	if !errors.Is(err, ErrNoFacesVideo) {
		t.Fatalf("err = %v, want ErrNoFacesVideo", err)
	}
	if src.decoded != 10 {
		t.Errorf("decoded %d frames, want all 10", src.decoded)
	}
	if !src.closed {
		t.Error("frame source not closed on rejection")
	}
}

func TestCheckVideoUnopenable(t *testing.T) {
	gate := NewGate(&fakeDetector{}, &fakeOpener{err: errors.New("corrupt container")})

	err := gate.CheckVideo("broken.mkv")
	if !errors.Is(err, ErrVideoOpen) {
		t.Fatalf("err = %v, want ErrVideoOpen", err)
	}
	if err.Error() != "Unable to process the uploaded video." {
		t.Errorf("unexpected message %q", err.Error())
	}
}
