package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipfeed/internal/logging"
	"clipfeed/internal/media/ffprobe"
	"clipfeed/internal/segments"
	"clipfeed/internal/transcribe"
)

const (
	// TargetWidth and TargetHeight define the 9:16 output frame.
	TargetWidth  = 1080
	TargetHeight = 1920

	captionFontSize   = 60
	captionBorderW    = 3
	captionBottomPad  = 120
	outputFrameRate   = "30"
	titleFragmentRune = 50
)

// Caption is a transcript span retimed to the clip's own clock.
type Caption struct {
	Text  string
	Start float64
	End   float64
}

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

// Renderer cuts, reframes, and captions clips with ffmpeg.
type Renderer struct {
	ffmpegBinary  string
	ffprobeBinary string
	outputDir     string
	logger        *slog.Logger
	run           Runner
	probe         ffprobe.Runner
	now           func() time.Time
}

// NewRenderer builds a renderer writing finished clips to outputDir.
func NewRenderer(ffmpegBinary, ffprobeBinary, outputDir string, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		outputDir:     outputDir,
		logger:        logger,
		run:           defaultRunner,
		now:           time.Now,
	}
}

// WithRunner sets a custom ffmpeg runner (for testing).
func (r *Renderer) WithRunner(run Runner) {
	if run != nil {
		r.run = run
	}
}

// WithProber sets a custom ffprobe runner (for testing).
func (r *Renderer) WithProber(probe ffprobe.Runner) {
	if probe != nil {
		r.probe = probe
	}
}

// WithClock sets a custom time source (for testing).
func (r *Renderer) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Render extracts the segment from the source video, reframes it to
// 9:16, burns in caption overlays for the overlapping transcript spans,
// and returns the output file path.
func (r *Renderer) Render(ctx context.Context, sourcePath string, seg segments.Segment, transcript transcribe.Transcript) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("render: ensure output dir: %w", err)
	}

	info, err := r.inspect(ctx, sourcePath)
	if err != nil {
		return "", fmt.Errorf("render: probe source: %w", err)
	}
	width, height, ok := info.VideoDimensions()
	if !ok || width <= 0 || height <= 0 {
		return "", fmt.Errorf("render: source %s has no video stream", sourcePath)
	}

	captions := BuildCaptions(transcript.Segments, seg.StartTime, seg.EndTime)
	filter := buildFilter(width, height, captions)
	outputPath := r.outputPath(seg.Title)

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(seg.StartTime),
		"-t", formatSeconds(seg.Duration()),
		"-i", sourcePath,
		"-vf", filter,
		"-r", outputFrameRate,
		"-c:v", "libx264",
	}
	if info.AudioStreamCount() > 0 {
		args = append(args, "-c:a", "aac")
	} else {
		args = append(args, "-an")
	}
	args = append(args, outputPath)
	if err := r.run(ctx, r.ffmpegBinary, args...); err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("render: encode clip: %w", err)
	}
	var sizeBytes int64
	if fi, statErr := os.Stat(outputPath); statErr == nil {
		sizeBytes = fi.Size()
	}
	r.logger.Info("clip rendered",
		logging.String("output_path", outputPath),
		logging.String("source_codec", info.VideoCodec()),
		logging.Int64("size_bytes", sizeBytes),
		logging.Float64("start", seg.StartTime),
		logging.Float64("end", seg.EndTime),
		logging.Int("captions", len(captions)))
	return outputPath, nil
}

func (r *Renderer) inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	if r.probe != nil {
		return ffprobe.InspectWith(ctx, r.probe, r.ffprobeBinary, path)
	}
	return ffprobe.Inspect(ctx, r.ffprobeBinary, path)
}

// BuildCaptions retimes every transcript segment overlapping
// [segStart, segEnd] onto the clip's clock, which starts at zero. Spans
// that collapse to nothing are dropped.
func BuildCaptions(spans []transcribe.Segment, segStart, segEnd float64) []Caption {
	var captions []Caption
	clipLen := segEnd - segStart
	for _, span := range spans {
		if span.Start >= segEnd || span.End <= segStart {
			continue
		}
		start := max(0, span.Start-segStart)
		end := min(clipLen, span.End-segStart)
		if end <= start {
			continue
		}
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		captions = append(captions, Caption{Text: text, Start: start, End: end})
	}
	return captions
}

// buildFilter composes the reframe chain and one drawtext stage per
// caption. Crop to the target aspect happens before scaling so the crop
// math runs against real source pixels.
func buildFilter(srcWidth, srcHeight int, captions []Caption) string {
	stages := []string{cropStage(srcWidth, srcHeight), fmt.Sprintf("scale=%d:%d", TargetWidth, TargetHeight)}
	for _, caption := range captions {
		stages = append(stages, drawtextStage(caption))
	}
	return strings.Join(stages, ",")
}

func cropStage(srcWidth, srcHeight int) string {
	srcAspect := float64(srcWidth) / float64(srcHeight)
	targetAspect := float64(TargetWidth) / float64(TargetHeight)
	if srcAspect > targetAspect {
		cropWidth := evenDown(int(float64(srcHeight) * targetAspect))
		return fmt.Sprintf("crop=%d:%d", cropWidth, srcHeight)
	}
	cropHeight := evenDown(int(float64(srcWidth) / targetAspect))
	return fmt.Sprintf("crop=%d:%d", srcWidth, cropHeight)
}

func drawtextStage(caption Caption) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=%d:fontcolor=white:borderw=%d:bordercolor=black:x=(w-text_w)/2:y=h-text_h-%d:enable='between(t,%s,%s)'",
		escapeDrawtext(caption.Text),
		captionFontSize,
		captionBorderW,
		captionBottomPad,
		formatSeconds(caption.Start),
		formatSeconds(caption.End),
	)
}

// escapeDrawtext neutralizes the characters ffmpeg's filtergraph parser
// and drawtext treat specially. Single quotes are dropped because they
// terminate the quoted text argument.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"'", "",
		":", "\\:",
		"%", "\\%",
		",", "\\,",
		"[", "\\[",
		"]", "\\]",
		";", "\\;",
	)
	return replacer.Replace(text)
}

func (r *Renderer) outputPath(title string) string {
	name := fmt.Sprintf("%s_%d.mp4", SanitizeTitle(title), r.now().Unix())
	path := filepath.Join(r.outputDir, name)
	if _, err := os.Stat(path); err == nil {
		name = fmt.Sprintf("%s_%d_%s.mp4", SanitizeTitle(title), r.now().Unix(), uuid.NewString()[:8])
		path = filepath.Join(r.outputDir, name)
	}
	return path
}

func evenDown(v int) int {
	return v - v%2
}

func formatSeconds(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
