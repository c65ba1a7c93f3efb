package media

import (
	"context"
	"fmt"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// Metadata holds the stream properties extracted from an uploaded video.
type Metadata struct {
	Width    int64
	Height   int64
	Duration float64
}

// MeetsMinimum reports whether the video clears the resolution floor.
// A video is rejected only when both dimensions fall below the minimums,
// so a portrait 720x1280 upload passes a 1280x720 floor.
func (m Metadata) MeetsMinimum(minWidth, minHeight int64) bool {
	return m.Width >= minWidth || m.Height >= minHeight
}

// Prober extracts metadata from a video file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (Metadata, error)
}

// FFProber probes files with ffprobe. It requires the ffprobe binary on PATH.
type FFProber struct{}

func (FFProber) Probe(ctx context.Context, path string) (Metadata, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	stream := data.FirstVideoStream()
	if stream == nil {
		return Metadata{}, fmt.Errorf("probe %s: no video stream", path)
	}
	return Metadata{
		Width:    int64(stream.Width),
		Height:   int64(stream.Height),
		Duration: data.Format.DurationSeconds,
	}, nil
}
