package facedetect

import (
	"encoding/json"
	"fmt"
	"image"
	"io"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FrameSource yields decoded video frames in stream order. Next returns
// io.EOF at end of stream. Close releases the decoder; it must be called on
// every path, including early exit.
type FrameSource interface {
	Next() (image.Image, error)
	Close() error
}

// FrameOpener opens a video file for frame-by-frame decoding.
type FrameOpener interface {
	Open(path string) (FrameSource, error)
}

// FFmpegOpener decodes via an ffmpeg subprocess streaming raw RGB frames
// through a pipe, so only one frame is buffered at a time.
type FFmpegOpener struct{}

type probeFormat struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func probeSize(path string) (width, height int, err error) {
	data, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, 0, fmt.Errorf("probe video: %w", err)
	}

	var pf probeFormat
	if err := json.Unmarshal([]byte(data), &pf); err != nil {
		return 0, 0, fmt.Errorf("parse probe output: %w", err)
	}
	for _, s := range pf.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream in %s", path)
}

func (FFmpegOpener) Open(path string) (FrameSource, error) {
	w, h, err := probeSize(path)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		err := ffmpeg.Input(path).
			Output("pipe:", ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgb24"}).
			WithOutput(pw).
			Silent(true).
			Run()
		// a read-side close aborts ffmpeg with a broken pipe; that error is
		// expected on early exit and already reported through the pipe
		pw.CloseWithError(err)
	}()

	return &ffmpegFrames{r: pr, width: w, height: h}, nil
}

type ffmpegFrames struct {
	r      *io.PipeReader
	width  int
	height int
}

func (f *ffmpegFrames) Next() (image.Image, error) {
	buf := make([]byte, f.width*f.height*3)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for i, j := 0, 0; i < len(buf); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

func (f *ffmpegFrames) Close() error {
	return f.r.Close()
}
