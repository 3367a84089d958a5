package mediatools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// thumbWidth is the scaled thumbnail width; height follows the aspect ratio.
const thumbWidth = 320

// FFmpeg runs the ffmpeg binary for single-frame extraction. Invocations
// carry the same hard timeout as probes.
type FFmpeg struct {
	binary  string
	timeout time.Duration
}

func NewFFmpeg(binary string, timeout time.Duration) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, timeout: timeout}
}

// ExtractFrame grabs one frame at the given offset into outputPath. The
// quality value maps to ffmpeg's -q:v scale (lower is better). An invocation
// that exits zero but writes no usable file still counts as a failure so the
// caller can move down its fallback ladder.
func (c *FFmpeg) ExtractFrame(ctx context.Context, inputPath, outputPath string, offset time.Duration, quality int) error {
	inputPath = strings.TrimSpace(inputPath)
	if inputPath == "" {
		return errors.New("ffmpeg extract: empty input path")
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return errors.New("ffmpeg extract: empty output path")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	seek := strconv.FormatFloat(offset.Seconds(), 'f', 2, 64)
	cmd := commandContext(ctx, c.binary,
		"-y", "-v", "error",
		"-ss", seek,
		"-i", inputPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", thumbWidth),
		"-q:v", strconv.Itoa(quality),
		outputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("ffmpeg extract: no frame written: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg extract: empty frame written")
	}
	return nil
}
