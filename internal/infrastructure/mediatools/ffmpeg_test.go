package mediatools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExtractFrameSuccess(t *testing.T) {
	var args []string
	swapCommandContext(t, "frame_success", &args)

	out := filepath.Join(t.TempDir(), "frame.jpg")
	c := NewFFmpeg("ffmpeg", 30*time.Second)
	if err := c.ExtractFrame(context.Background(), "/media/lecture.mp4", out, 3*time.Second, 2); err != nil {
		t.Fatalf("ExtractFrame() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("frame file is empty")
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{"-ss 3.00", "-i /media/lecture.mp4", "-vframes 1", "scale=320:-1", "-q:v 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestExtractFrameRetryquality(t *testing.T) {
	var args []string
	swapCommandContext(t, "frame_success", &args)

	out := filepath.Join(t.TempDir(), "frame.jpg")
	c := NewFFmpeg("ffmpeg", 30*time.Second)
	if err := c.ExtractFrame(context.Background(), "/media/lecture.mp4", out, 5*time.Second, 5); err != nil {
		t.Fatalf("ExtractFrame() error = %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-ss 5.00") || !strings.Contains(joined, "-q:v 5") {
		t.Errorf("args %q missing retry offset or quality", joined)
	}
}

func TestExtractFrameToolFailure(t *testing.T) {
	swapCommandContext(t, "fail", nil)

	out := filepath.Join(t.TempDir(), "frame.jpg")
	c := NewFFmpeg("ffmpeg", 30*time.Second)
	err := c.ExtractFrame(context.Background(), "/media/broken.mp4", out, 3*time.Second, 2)
	if err == nil || !strings.Contains(err.Error(), "ffmpeg extract") {
		t.Fatalf("ExtractFrame() error = %v, want ffmpeg extract failure", err)
	}
}

func TestExtractFrameEmptyOutput(t *testing.T) {
	swapCommandContext(t, "frame_empty", nil)

	out := filepath.Join(t.TempDir(), "frame.jpg")
	c := NewFFmpeg("ffmpeg", 30*time.Second)
	err := c.ExtractFrame(context.Background(), "/media/short.mp4", out, 3*time.Second, 2)
	if err == nil || !strings.Contains(err.Error(), "empty frame") {
		t.Fatalf("ExtractFrame() error = %v, want empty frame failure", err)
	}
}

func TestExtractFrameValidatesPaths(t *testing.T) {
	c := NewFFmpeg("ffmpeg", time.Second)
	if err := c.ExtractFrame(context.Background(), "", "/tmp/out.jpg", 0, 2); err == nil {
		t.Error("expected error for empty input path")
	}
	if err := c.ExtractFrame(context.Background(), "/media/a.mp4", "", 0, 2); err == nil {
		t.Error("expected error for empty output path")
	}
}
