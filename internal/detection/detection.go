// Package detection defines the narrow interface to the external object
// detector and the types it produces. The detector's internals (model,
// runtime, hardware) are opaque to the rest of the system.
package detection

import "context"

// BoundingBox is an axis-aligned box in pixel coordinates.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Normalized returns the box with coordinates swapped where needed so that
// X1 <= X2 and Y1 <= Y2. Upstream detectors do not guarantee the ordering.
func (b BoundingBox) Normalized() BoundingBox {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Detection is one detected object instance in one frame.
type Detection struct {
	ClassID    int         `json:"class_id"`
	Name       string      `json:"name"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// FrameDetections holds the detections for a single frame. Frames without
// detections are present with an empty Detections slice so that callers can
// rely on len(frames) as the total frame count.
type FrameDetections struct {
	FrameIdx   int         `json:"frame_idx"`
	Detections []Detection `json:"detections"`
}

// Detector runs inference over a whole video. Implementations are expected
// to be slow and resource bound; callers control concurrency.
type Detector interface {
	// Infer returns one FrameDetections per frame of the video, in frame
	// order, including frames with no detections.
	Infer(ctx context.Context, videoPath string) ([]FrameDetections, error)
}
