// Package video wraps the external ffmpeg/ffprobe tooling behind narrow
// interfaces: extract a representative frame, read a video as raw frames,
// encode a frame-difference artifact. It also holds the pure image math
// built on top (night classification, movement scoring).
package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JAEarly/GardenEye/internal/errors"
	"github.com/JAEarly/GardenEye/internal/logging"
)

const tempExt = ".tmp"

// Tools invokes ffmpeg and ffprobe. Both are treated as opaque external
// collaborators; a non-zero exit never corrupts state.
type Tools struct {
	FfmpegPath  string
	FfprobePath string
	logger      *slog.Logger
}

// NewTools resolves the ffmpeg and ffprobe binaries, falling back to PATH
// lookup when the configured paths are empty.
func NewTools(ffmpegPath, ffprobePath string) (*Tools, error) {
	var err error
	if ffmpegPath == "" {
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil {
			return nil, errors.Newf("ffmpeg not found in PATH").
				Component("video").
				Category(errors.CategoryExternalTool).
				Build()
		}
	}
	if ffprobePath == "" {
		ffprobePath, err = exec.LookPath("ffprobe")
		if err != nil {
			return nil, errors.Newf("ffprobe not found in PATH").
				Component("video").
				Category(errors.CategoryExternalTool).
				Build()
		}
	}
	return &Tools{
		FfmpegPath:  ffmpegPath,
		FfprobePath: ffprobePath,
		logger:      logging.ForService("video"),
	}, nil
}

// ExtractFrame extracts a single frame from the video at the given offset
// and writes it as a JPEG at outputPath with the given WxH resolution. The
// write goes through a temporary file and a rename so a crashed extraction
// never leaves a half-written artifact behind.
func (t *Tools) ExtractFrame(ctx context.Context, videoPath, outputPath string, offsetSec int, size string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}

	tempPath := outputPath + tempExt
	args := []string{
		"-y",
		"-ss", strconv.Itoa(offsetSec), // seek to timestamp
		"-i", videoPath,
		"-vframes", "1", // extract 1 frame
		"-q:v", "2", // high quality
		"-s", size,
		"-f", "image2", // temp path has no image extension
		tempPath,
	}

	cmd := exec.CommandContext(ctx, t.FfmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(tempPath)
		return errors.New(fmt.Errorf("ffmpeg frame extraction: %w", err)).
			Component("video").
			Category(errors.CategoryExternalTool).
			Context("video", videoPath).
			Context("stderr", truncate(stderr.String(), 512)).
			Build()
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("finalizing thumbnail: %w", err)
	}
	return nil
}

// Probe returns the pixel dimensions and frame rate of the first video
// stream.
func (t *Tools) Probe(ctx context.Context, videoPath string) (width, height int, frameRate string, err error) {
	cmd := exec.CommandContext(ctx, t.FfprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, "", errors.New(fmt.Errorf("ffprobe: %w", err)).
			Component("video").
			Category(errors.CategoryExternalTool).
			Context("video", videoPath).
			Build()
	}

	fields := strings.Split(strings.TrimSpace(string(out)), ",")
	if len(fields) < 3 {
		return 0, 0, "", fmt.Errorf("unexpected ffprobe output %q", string(out))
	}
	width, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, "", fmt.Errorf("parsing probed width %q: %w", fields[0], err)
	}
	height, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, "", fmt.Errorf("parsing probed height %q: %w", fields[1], err)
	}
	return width, height, fields[2], nil
}

// rawFrameSource reads packed RGB24 frames from a decoding ffmpeg process.
type rawFrameSource struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	frameSize int
	buf       []byte
}

// OpenFrameSource starts an ffmpeg process decoding the video to raw RGB24
// frames and returns a FrameSource over its output.
func (t *Tools) OpenFrameSource(ctx context.Context, videoPath string, width, height int) (FrameSource, error) {
	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-v", "error",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.New(fmt.Errorf("starting ffmpeg decode: %w", err)).
			Component("video").
			Category(errors.CategoryExternalTool).
			Context("video", videoPath).
			Build()
	}

	frameSize := width * height * 3
	return &rawFrameSource{
		cmd:       cmd,
		stdout:    stdout,
		frameSize: frameSize,
		buf:       make([]byte, frameSize),
	}, nil
}

// Next returns the next frame, or io.EOF once the stream ends. The returned
// slice is reused between calls.
func (s *rawFrameSource) Next() ([]byte, error) {
	n, err := io.ReadFull(s.stdout, s.buf)
	switch {
	case err == nil:
		return s.buf, nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Trailing partial frame, treat the stream as finished
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("reading raw frame (%d/%d bytes): %w", n, s.frameSize, err)
	}
}

// Close reaps the ffmpeg process. Safe to call after a partial read.
func (s *rawFrameSource) Close() error {
	_ = s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		// Closing stdout early makes ffmpeg exit non-zero, that is expected
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return err
	}
	return nil
}

// encodeSink pipes raw RGB24 frames into an encoding ffmpeg process to
// produce a browser-playable difference video.
type encodeSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewDiffSink starts an ffmpeg process encoding raw RGB24 frames written to
// it into an H.264 mp4 at outputPath.
func (t *Tools) NewDiffSink(ctx context.Context, outputPath string, width, height int, frameRate string) (DiffSink, error) {
	cmd := exec.CommandContext(ctx, t.FfmpegPath,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", frameRate,
		"-i", "-", // read frames from stdin
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-v", "error",
		outputPath,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating ffmpeg stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.New(fmt.Errorf("starting ffmpeg encode: %w", err)).
			Component("video").
			Category(errors.CategoryExternalTool).
			Context("output", outputPath).
			Build()
	}
	return &encodeSink{cmd: cmd, stdin: stdin}, nil
}

func (e *encodeSink) WriteFrame(pix []byte) error {
	if _, err := e.stdin.Write(pix); err != nil {
		return fmt.Errorf("writing frame to encoder: %w", err)
	}
	return nil
}

// Close signals end of input and waits for the encoder to finish.
func (e *encodeSink) Close() error {
	if err := e.stdin.Close(); err != nil {
		return err
	}
	if err := e.cmd.Wait(); err != nil {
		return errors.New(fmt.Errorf("ffmpeg encode: %w", err)).
			Component("video").
			Category(errors.CategoryExternalTool).
			Build()
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
