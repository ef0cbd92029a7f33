package tiktok

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"clipfeed/internal/logging"
	"clipfeed/internal/services"
)

// Publisher posts rendered clips to TikTok.
type Publisher interface {
	// Publish uploads the clip at videoPath with the given caption.
	// It reports whether the upload completed.
	Publish(ctx context.Context, videoPath, caption string) (bool, error)
}

const defaultTimeout = 5 * time.Minute

// Runner executes a command. Overridable in tests.
type Runner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Uploader publishes clips by invoking an external browser automation
// uploader. The uploader owns credentials and session state under its
// session directory; this process only hands it a file and a caption.
type Uploader struct {
	binary     string
	sessionDir string
	timeout    time.Duration
	logger     *slog.Logger
	run        Runner
}

// NewUploader constructs a publisher around the given uploader binary.
func NewUploader(binary, sessionDir string, timeoutSeconds int, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &Uploader{
		binary:     binary,
		sessionDir: sessionDir,
		timeout:    timeout,
		logger:     logger,
		run:        defaultRunner,
	}
}

// WithRunner sets a custom command runner (for testing).
func (u *Uploader) WithRunner(run Runner) {
	if run != nil {
		u.run = run
	}
}

// Publish invokes the uploader binary synchronously. A zero exit status
// means the clip was posted; any failure means it was not.
func (u *Uploader) Publish(ctx context.Context, videoPath, caption string) (bool, error) {
	if strings.TrimSpace(u.binary) == "" {
		return false, services.Wrap(services.ErrConfiguration, "tiktok", "publish", "uploader binary not configured", nil)
	}
	if strings.TrimSpace(videoPath) == "" {
		return false, services.Wrap(services.ErrValidation, "tiktok", "publish", "video path required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	args := []string{
		"--caption", caption,
	}
	if strings.TrimSpace(u.sessionDir) != "" {
		args = append(args, "--session-dir", u.sessionDir)
	}
	args = append(args, videoPath)

	u.logger.Info("invoking uploader",
		logging.String("binary", u.binary),
		logging.String("video_path", videoPath))

	if err := u.run(ctx, u.binary, args...); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "tiktok", "publish", "uploader failed", err)
	}
	return true, nil
}

// NopPublisher stands in when publishing is disabled. It logs what it
// would have uploaded and reports success so the rest of the pipeline
// can be exercised without a real account.
type NopPublisher struct {
	logger *slog.Logger
}

// NewNopPublisher constructs a dry-run publisher.
func NewNopPublisher(logger *slog.Logger) *NopPublisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NopPublisher{logger: logger}
}

// Publish logs the would-be upload and reports success.
func (n *NopPublisher) Publish(_ context.Context, videoPath, caption string) (bool, error) {
	n.logger.Info("publishing disabled, skipping upload",
		logging.String("video_path", videoPath),
		logging.String("caption", caption))
	return true, nil
}
