package video

import (
	"errors"
	"fmt"
	"io"
)

// FrameSource yields the frames of a video as packed RGB24 pixel buffers.
// Next returns io.EOF after the last frame. Implementations own any
// underlying process or file handle until Close is called.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

// DiffSink receives frame-difference images when a visual movement artifact
// is requested. The sink sees one frame per source frame: a black frame for
// the first, then the absolute difference of each consecutive pair.
type DiffSink interface {
	WriteFrame(pix []byte) error
	Close() error
}

// Score computes the movement score of a video: the mean absolute per-pixel
// difference of each consecutive frame pair, normalized to [0,1], averaged
// over all pairs. A video with fewer than two frames has no pairs and
// scores 0. A non-nil sink additionally receives the difference frames.
func Score(src FrameSource, sink DiffSink) (float64, error) {
	var prev []byte
	var diff []byte
	var total float64
	pairs := 0

	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading frame: %w", err)
		}

		if prev == nil {
			// First frame: a black frame keeps the artifact's frame count
			// aligned with the source
			if sink != nil {
				if err := sink.WriteFrame(make([]byte, len(frame))); err != nil {
					return 0, fmt.Errorf("writing first diff frame: %w", err)
				}
			}
			prev = append([]byte(nil), frame...)
			continue
		}

		if len(frame) != len(prev) {
			return 0, fmt.Errorf("frame size changed mid-stream: %d != %d", len(frame), len(prev))
		}
		if diff == nil {
			diff = make([]byte, len(frame))
		}

		var sum uint64
		for i := range frame {
			d := int(frame[i]) - int(prev[i])
			if d < 0 {
				d = -d
			}
			diff[i] = byte(d)
			sum += uint64(d)
		}
		total += float64(sum) / float64(len(frame)) / 255.0
		pairs++

		if sink != nil {
			if err := sink.WriteFrame(diff); err != nil {
				return 0, fmt.Errorf("writing diff frame: %w", err)
			}
		}
		copy(prev, frame)
	}

	if pairs == 0 {
		return 0, nil
	}
	return total / float64(pairs), nil
}
