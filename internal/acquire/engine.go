package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clipfeed/internal/logging"
	"clipfeed/internal/services"
)

const (
	// DefaultMaxAttempts bounds the full download attempts per video.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the backoff before the second attempt. It
	// doubles after each failed attempt (5s, 10s, 20s, ...).
	DefaultRetryDelay = 5 * time.Second
)

// PrimaryDownloader fetches a video by URL. The yt-dlp client satisfies it.
type PrimaryDownloader interface {
	Download(ctx context.Context, url, outputDir, videoID string) (string, error)
}

// SecondaryDownloader fetches a video by ID. The Innertube client satisfies it.
type SecondaryDownloader interface {
	Download(ctx context.Context, videoID, outputDir string) (string, error)
}

// Sleeper pauses between attempts. Overridable in tests.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Engine downloads videos with a primary and a fallback downloader and
// exponential backoff between full attempts.
type Engine struct {
	primary     PrimaryDownloader
	secondary   SecondaryDownloader
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	sleep       Sleeper
}

// NewEngine builds an acquisition engine. Non-positive maxAttempts or
// retryDelaySeconds fall back to the defaults.
func NewEngine(primary PrimaryDownloader, secondary SecondaryDownloader, maxAttempts, retryDelaySeconds int, logger *slog.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryDelay := DefaultRetryDelay
	if retryDelaySeconds > 0 {
		retryDelay = time.Duration(retryDelaySeconds) * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		primary:     primary,
		secondary:   secondary,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
		sleep:       defaultSleeper,
	}
}

// WithSleeper sets a custom inter-attempt sleeper (for testing).
func (e *Engine) WithSleeper(sleep Sleeper) {
	if sleep != nil {
		e.sleep = sleep
	}
}

// Download fetches the video into outputDir and returns the local path.
// Each attempt tries the primary downloader, then the secondary; the
// attempt succeeds as soon as either produces a file. Failed attempts
// back off with doubling delay, with no delay after the last one.
func (e *Engine) Download(ctx context.Context, url, videoID, outputDir string) (string, error) {
	delay := e.retryDelay
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		path, err := e.attempt(ctx, url, videoID, outputDir, attempt)
		if err == nil {
			return path, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < e.maxAttempts {
			e.logger.Warn("download attempt failed, backing off",
				logging.String(logging.FieldVideoID, videoID),
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.Bool("transient", services.IsTransient(err)),
				logging.Error(err))
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return "", sleepErr
			}
			delay *= 2
		}
	}
	return "", services.Wrap(services.ErrExternalTool, "acquire", "download",
		fmt.Sprintf("all %d download attempts failed for video %s", e.maxAttempts, videoID), lastErr)
}

func (e *Engine) attempt(ctx context.Context, url, videoID, outputDir string, attempt int) (string, error) {
	path, primaryErr := e.primary.Download(ctx, url, outputDir, videoID)
	if primaryErr == nil {
		return path, nil
	}
	if ctx.Err() != nil {
		return "", primaryErr
	}
	e.logger.Warn("primary downloader failed, trying fallback",
		logging.String(logging.FieldVideoID, videoID),
		logging.Int("attempt", attempt),
		logging.Error(primaryErr))

	if e.secondary == nil {
		return "", primaryErr
	}
	path, secondaryErr := e.secondary.Download(ctx, videoID, outputDir)
	if secondaryErr == nil {
		return path, nil
	}
	return "", fmt.Errorf("primary: %v; fallback: %w", primaryErr, secondaryErr)
}
