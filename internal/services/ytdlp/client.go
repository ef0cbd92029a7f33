package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipfeed/internal/services"
)

const (
	// DefaultBinary is the yt-dlp executable name.
	DefaultBinary = "yt-dlp"
	// combinedFormat prefers a single muxed mp4 and refuses stream merging,
	// so a failure here reliably signals "no combined format available".
	combinedFormat = "best[ext=mp4]/best"
	// videoOnlyFormat selects the best video-only stream.
	videoOnlyFormat = "bestvideo[ext=mp4]/bestvideo"
	// audioOnlyFormat selects the best audio-only stream.
	audioOnlyFormat = "bestaudio[ext=m4a]/bestaudio"
)

// Runner executes a command and returns its stdout. Overridable in tests.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

func defaultRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Client downloads videos using yt-dlp.
type Client struct {
	binary       string
	ffmpegBinary string
	run          Runner
}

// NewClient constructs a yt-dlp client. Empty binaries fall back to PATH lookups.
func NewClient(binary, ffmpegBinary string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Client{binary: binary, ffmpegBinary: ffmpegBinary, run: defaultRunner}
}

// WithRunner sets a custom command runner (for testing).
func (c *Client) WithRunner(run Runner) {
	if run != nil {
		c.run = run
	}
}

// Download fetches the video at url into outputDir and returns the local path.
// It first tries the best combined audio+video format; when no combined
// format exists it downloads the best video-only and audio-only streams,
// muxes them into one mp4, and removes the intermediates.
func (c *Client) Download(ctx context.Context, url, outputDir, videoID string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrap(services.ErrValidation, "ytdlp", "download", "url required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "ytdlp", "download", "ensure output dir", err)
	}
	if strings.TrimSpace(videoID) == "" {
		videoID = "video"
	}

	path, combinedErr := c.downloadFormat(ctx, url, combinedFormat, filepath.Join(outputDir, videoID+".%(ext)s"))
	if combinedErr == nil {
		return path, nil
	}

	// No single combined format: fetch the streams separately and mux.
	videoPath, err := c.downloadFormat(ctx, url, videoOnlyFormat, filepath.Join(outputDir, videoID+".video.%(ext)s"))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download",
			fmt.Sprintf("combined failed (%v); video-only", combinedErr), err)
	}
	audioPath, err := c.downloadFormat(ctx, url, audioOnlyFormat, filepath.Join(outputDir, videoID+".audio.%(ext)s"))
	if err != nil {
		_ = os.Remove(videoPath)
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download",
			fmt.Sprintf("combined failed (%v); audio-only", combinedErr), err)
	}

	merged := filepath.Join(outputDir, videoID+".mp4")
	if err := c.mux(ctx, videoPath, audioPath, merged); err != nil {
		_ = os.Remove(videoPath)
		_ = os.Remove(audioPath)
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "mux", "merge streams", err)
	}
	_ = os.Remove(videoPath)
	_ = os.Remove(audioPath)
	return merged, nil
}

func (c *Client) downloadFormat(ctx context.Context, url, format, outputTemplate string) (string, error) {
	args := []string{
		"-f", format,
		"-o", outputTemplate,
		"--no-playlist",
		"--no-warnings",
		"--print", "after_move:filepath",
		"--no-simulate",
		url,
	}
	output, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return "", err
	}
	path := lastNonEmptyLine(output)
	if path == "" {
		return "", services.Wrap(services.ErrExternalTool, "ytdlp", "download", "no output path reported", nil)
	}
	return path, nil
}

func (c *Client) mux(ctx context.Context, videoPath, audioPath, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		dest,
	}
	_, err := c.run(ctx, c.ffmpegBinary, args...)
	return err
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
