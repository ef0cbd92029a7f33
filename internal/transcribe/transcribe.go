package transcribe

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clipfeed/internal/logging"
	"clipfeed/internal/services"
	"clipfeed/internal/services/whisper"
)

// Segment is one transcript span with absolute source timestamps.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Transcript is the full text of a video plus its timed segments.
type Transcript struct {
	Text     string
	Segments []Segment
}

// Duration returns the end timestamp of the last segment, in seconds.
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// Transcriber runs speech-to-text against a local whisper install.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) (Transcript, error)
}

// Engine extracts audio from a video and transcribes it, cleaning up
// the intermediate audio file on every exit path.
type Engine struct {
	service *whisper.Service
	workDir string
	logger  *slog.Logger
}

// NewEngine builds a transcription engine. Intermediate audio lands in
// workDir and is removed after each transcription.
func NewEngine(service *whisper.Service, workDir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{service: service, workDir: workDir, logger: logger}
}

// Transcribe produces the transcript for the video at videoPath.
func (e *Engine) Transcribe(ctx context.Context, videoPath string) (Transcript, error) {
	if strings.TrimSpace(videoPath) == "" {
		return Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "transcribe", "video path required", nil)
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return Transcript{}, services.Wrap(services.ErrConfiguration, "transcribe", "transcribe", "ensure work dir", err)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(e.workDir, base+".wav")
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("audio cleanup failed",
				logging.String("audio_path", audioPath),
				logging.Error(err))
		}
	}()

	if err := e.service.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "extract-audio", "", err)
	}

	jsonPath, err := e.service.TranscribeFile(ctx, audioPath, e.workDir)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "", err)
	}
	defer func() {
		if err := os.Remove(jsonPath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("transcript cleanup failed",
				logging.String("transcript_path", jsonPath),
				logging.Error(err))
		}
	}()

	text, rawSegments, err := whisper.LoadTranscript(jsonPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "load-transcript", "", err)
	}

	segments := make([]Segment, 0, len(rawSegments))
	for _, seg := range rawSegments {
		segments = append(segments, Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}
	e.logger.Info("transcription complete",
		logging.String("video_path", videoPath),
		logging.Int("segments", len(segments)))
	return Transcript{Text: text, Segments: segments}, nil
}
