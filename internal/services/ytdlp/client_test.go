package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"clipfeed/internal/services"
)

func TestDownloadCombinedFormat(t *testing.T) {
	dir := t.TempDir()
	client := NewClient("yt-dlp", "ffmpeg")

	var calls [][]string
	client.WithRunner(func(_ context.Context, name string, args ...string) (string, error) {
		calls = append(calls, append([]string{name}, args...))
		return filepath.Join(dir, "abc123.mp4") + "\n", nil
	})

	path, err := client.Download(context.Background(), "https://youtube.com/watch?v=abc123", dir, "abc123")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != filepath.Join(dir, "abc123.mp4") {
		t.Fatalf("unexpected path %q", path)
	}
	if len(calls) != 1 {
		t.Fatalf("expected single yt-dlp invocation, got %d", len(calls))
	}
	joined := strings.Join(calls[0], " ")
	if !strings.Contains(joined, "-f "+combinedFormat) {
		t.Errorf("combined format not requested: %s", joined)
	}
	if !strings.Contains(joined, "--no-playlist") {
		t.Errorf("--no-playlist missing: %s", joined)
	}
}

func TestDownloadFallsBackToSeparateStreams(t *testing.T) {
	dir := t.TempDir()
	client := NewClient("yt-dlp", "ffmpeg")

	videoPath := filepath.Join(dir, "abc123.video.mp4")
	audioPath := filepath.Join(dir, "abc123.audio.m4a")
	var calls [][]string
	client.WithRunner(func(_ context.Context, name string, args ...string) (string, error) {
		calls = append(calls, append([]string{name}, args...))
		joined := strings.Join(args, " ")
		switch {
		case name == "ffmpeg":
			return "", nil
		case strings.Contains(joined, combinedFormat):
			return "", errors.New("requested format is not available")
		case strings.Contains(joined, videoOnlyFormat):
			return videoPath + "\n", nil
		case strings.Contains(joined, audioOnlyFormat):
			return audioPath + "\n", nil
		}
		return "", errors.New("unexpected invocation")
	})

	path, err := client.Download(context.Background(), "https://youtube.com/watch?v=abc123", dir, "abc123")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != filepath.Join(dir, "abc123.mp4") {
		t.Fatalf("unexpected merged path %q", path)
	}
	if len(calls) != 4 {
		t.Fatalf("expected combined+video+audio+mux invocations, got %d", len(calls))
	}
	mux := strings.Join(calls[3], " ")
	if calls[3][0] != "ffmpeg" || !strings.Contains(mux, "-c:v copy") {
		t.Errorf("final invocation should be an ffmpeg mux: %s", mux)
	}
}

func TestDownloadRequiresURL(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Download(context.Background(), "  ", t.TempDir(), "id")
	if err == nil {
		t.Fatal("expected error for empty url")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("empty url should be a validation error, got %v", err)
	}
}
