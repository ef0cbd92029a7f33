package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"clipfeed/internal/feed"
	"clipfeed/internal/logging"
	"clipfeed/internal/media/ffprobe"
	"clipfeed/internal/metadata"
	"clipfeed/internal/processed"
	"clipfeed/internal/segments"
	"clipfeed/internal/services"
	"clipfeed/internal/transcribe"
)

const (
	// DefaultItemPause spaces item processing to respect source rate limits.
	DefaultItemPause = 30 * time.Second
	// DefaultUploadPause spaces uploads within one item.
	DefaultUploadPause = 2 * time.Second
)

// Scanner discovers new videos. The feed scanner satisfies it.
type Scanner interface {
	Scan(ctx context.Context) ([]feed.Item, error)
}

// Downloader fetches a video to local disk. The acquire engine satisfies it.
type Downloader interface {
	Download(ctx context.Context, url, videoID, outputDir string) (string, error)
}

// Selector picks clip segments. The segments selector satisfies it.
type Selector interface {
	Select(ctx context.Context, transcriptText string, duration float64) []segments.Segment
}

// Renderer produces a finished clip file. The render package satisfies it.
type Renderer interface {
	Render(ctx context.Context, sourcePath string, seg segments.Segment, transcript transcribe.Transcript) (string, error)
}

// MetadataGenerator writes publish copy. The metadata package satisfies it.
type MetadataGenerator interface {
	Generate(ctx context.Context, item feed.Item, seg segments.Segment) metadata.Metadata
}

// Publisher posts a clip. The tiktok package satisfies it.
type Publisher interface {
	Publish(ctx context.Context, videoPath, caption string) (bool, error)
}

// Recorder marks videos as handled. The processed store satisfies it.
type Recorder interface {
	Add(ctx context.Context, entry processed.Entry) error
}

// Sleeper pauses between work units. Overridable in tests.
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

// Options carries the orchestrator's collaborators and policy knobs.
type Options struct {
	Scanner     Scanner
	Downloader  Downloader
	Transcriber transcribe.Transcriber
	Selector    Selector
	Renderer    Renderer
	Metadata    MetadataGenerator
	Publisher   Publisher
	Recorder    Recorder

	DownloadDir   string
	FFprobeBinary string

	ItemPause   time.Duration
	UploadPause time.Duration

	Logger *slog.Logger
}

// Pipeline drives one item at a time through download, transcription,
// segment selection, rendering, and publishing. Execution is strictly
// sequential.
type Pipeline struct {
	opts     Options
	sleep    Sleeper
	duration func(ctx context.Context, path string) (float64, error)
}

// New builds a pipeline from options. Zero pauses take the defaults.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.ItemPause <= 0 {
		opts.ItemPause = DefaultItemPause
	}
	if opts.UploadPause <= 0 {
		opts.UploadPause = DefaultUploadPause
	}
	p := &Pipeline{opts: opts, sleep: defaultSleeper}
	p.duration = p.probeDuration
	return p
}

// WithSleeper sets a custom pause function (for testing).
func (p *Pipeline) WithSleeper(sleep Sleeper) {
	if sleep != nil {
		p.sleep = sleep
	}
}

// WithDurationProbe sets a custom video duration lookup (for testing).
func (p *Pipeline) WithDurationProbe(probe func(ctx context.Context, path string) (float64, error)) {
	if probe != nil {
		p.duration = probe
	}
}

func (p *Pipeline) probeDuration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, p.opts.FFprobeBinary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

// RunCycle executes one full scan-and-process cycle. Item failures are
// contained per item; only context cancellation aborts the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	ctx = services.WithCycleID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.opts.Logger)
	items, err := p.opts.Scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: scan channels: %w", err)
	}
	if len(items) == 0 {
		logger.Info("no new videos found")
		return nil
	}
	logger.Info("cycle started", logging.Int("items", len(items)))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		published := p.processItem(ctx, item)
		logger.Info("item finished",
			logging.String(logging.FieldVideoID, item.VideoID),
			logging.Int("published", published))
		if i < len(items)-1 {
			if err := p.sleep(ctx, p.opts.ItemPause); err != nil {
				return err
			}
		}
	}
	return nil
}

// processItem runs one item to its terminal state. Whatever happens,
// the downloaded asset is removed and the video is marked processed
// before returning. Panics from collaborators are contained here.
func (p *Pipeline) processItem(ctx context.Context, item feed.Item) (published int) {
	ctx = withItemContext(ctx, item)
	logger := logging.WithContext(ctx, p.opts.Logger)

	// Only terminal outcomes are recorded. An interrupted item stays
	// unrecorded so the next cycle can pick it up again.
	terminal := true
	defer func() {
		if r := recover(); r != nil {
			logger.Error("item processing panicked", logging.Any("panic", r))
			published = 0
			terminal = true
		}
		if terminal {
			p.record(ctx, item)
		}
	}()

	videoPath, err := p.opts.Downloader.Download(ctx, item.URL, item.VideoID, p.opts.DownloadDir)
	if err != nil {
		if interrupted(ctx, err) {
			logger.Info("download interrupted")
			terminal = false
			return 0
		}
		// Exhausted download attempts are a permanent skip, not a
		// temporary one, so the item is still marked processed.
		logger.Error("download failed", logging.Error(err))
		return 0
	}
	defer p.removeFile(videoPath, "source asset")

	transcript, err := p.opts.Transcriber.Transcribe(ctx, videoPath)
	if err != nil {
		if interrupted(ctx, err) {
			logger.Info("transcription interrupted")
			terminal = false
			return 0
		}
		logger.Error("transcription failed", logging.Error(err))
		return 0
	}

	duration, err := p.duration(ctx, videoPath)
	if err != nil || duration <= 0 {
		// The transcript still bounds the content when probing fails.
		duration = transcript.Duration()
	}

	segs := p.opts.Selector.Select(ctx, transcript.Text, duration)
	if len(segs) == 0 {
		logger.Warn("no usable segments")
		return 0
	}

	for i, seg := range segs {
		if ctx.Err() != nil {
			break
		}
		if p.processSegment(ctx, item, videoPath, seg, transcript, i, len(segs)) {
			published++
		}
		if i < len(segs)-1 {
			if err := p.sleep(ctx, p.opts.UploadPause); err != nil {
				break
			}
		}
	}
	if ctx.Err() != nil && published == 0 {
		logger.Info("item interrupted before any publish")
		terminal = false
		return 0
	}
	logger.Info("item complete",
		logging.Int("segments", len(segs)),
		logging.Int("published", published))
	return published
}

// interrupted reports whether a stage failure was caused by context
// cancellation rather than the stage itself.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// processSegment renders and publishes one segment. The rendered clip
// is removed after the publish attempt regardless of outcome, and any
// failure only skips this segment.
func (p *Pipeline) processSegment(ctx context.Context, item feed.Item, videoPath string, seg segments.Segment, transcript transcribe.Transcript, index, total int) (ok bool) {
	ctx = services.WithStage(ctx, "segment")
	logger := logging.WithContext(ctx, p.opts.Logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("segment processing panicked",
				logging.Int("segment", index+1),
				logging.Any("panic", r))
			ok = false
		}
	}()

	logger.Info("rendering clip",
		logging.Int("segment", index+1),
		logging.Int("total", total))

	clipPath, err := p.opts.Renderer.Render(ctx, videoPath, seg, transcript)
	if err != nil {
		logger.Error("render failed",
			logging.Int("segment", index+1),
			logging.Error(err))
		return false
	}
	defer p.removeFile(clipPath, "rendered clip")

	meta := p.opts.Metadata.Generate(ctx, item, seg)
	posted, err := p.opts.Publisher.Publish(ctx, clipPath, meta.Caption())
	if err != nil {
		logger.Error("publish failed",
			logging.Int("segment", index+1),
			logging.Error(err))
		return false
	}
	return posted
}

func (p *Pipeline) record(ctx context.Context, item feed.Item) {
	// Recording survives cancellation so a processed item is never
	// picked up again after a restart.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	err := p.opts.Recorder.Add(ctx, processed.Entry{
		VideoID: item.VideoID,
		Channel: item.Channel,
		Title:   item.Title,
	})
	if err != nil {
		p.opts.Logger.Error("marking video processed failed",
			logging.String(logging.FieldVideoID, item.VideoID),
			logging.Error(err))
	}
}

func (p *Pipeline) removeFile(path, label string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.opts.Logger.Warn("cleanup failed",
			logging.String("path", path),
			logging.String("label", label),
			logging.Error(err))
	}
}
