package detection

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/JAEarly/GardenEye/internal/errors"
	"github.com/JAEarly/GardenEye/internal/logging"
)

// maxLineBytes bounds a single detector output line. A frame crowded with
// detections stays well under this.
const maxLineBytes = 4 * 1024 * 1024

// CommandDetector invokes an external detector process for each video. The
// process receives the video path as its last argument and must write one
// JSON object per line to stdout, one line per frame in frame order:
//
//	{"frame_idx": 0, "detections": [{"class_id": 16, "name": "dog", ...}]}
//
// Frames without detections are emitted with an empty detections array.
type CommandDetector struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewCommandDetector creates a detector that shells out to the given command.
func NewCommandDetector(command string, args []string) *CommandDetector {
	return &CommandDetector{
		command: command,
		args:    args,
		logger:  logging.ForService("detector"),
	}
}

// Infer implements Detector.
func (d *CommandDetector) Infer(ctx context.Context, videoPath string) ([]FrameDetections, error) {
	if d.command == "" {
		return nil, errors.Newf("detector command not configured").
			Component("detection").
			Category(errors.CategoryConfiguration).
			Build()
	}

	args := make([]string, 0, len(d.args)+1)
	args = append(args, d.args...)
	args = append(args, videoPath)

	cmd := exec.CommandContext(ctx, d.command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating detector stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryExternalTool).
			Context("command", d.command).
			Build()
	}

	var frames []FrameDetections
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame FrameDetections
		if err := json.Unmarshal(line, &frame); err != nil {
			// Drain the process before reporting the protocol error
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, errors.New(fmt.Errorf("decoding detector output: %w", err)).
				Component("detection").
				Category(errors.CategoryExternalTool).
				Context("video", videoPath).
				Build()
		}
		frames = append(frames, frame)
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		return nil, errors.New(fmt.Errorf("detector exited: %w", err)).
			Component("detection").
			Category(errors.CategoryExternalTool).
			Context("video", videoPath).
			Build()
	}
	if scanErr != nil {
		return nil, fmt.Errorf("reading detector output: %w", scanErr)
	}

	d.logger.Debug("detector finished", "video", videoPath, "frames", len(frames))
	return frames, nil
}
