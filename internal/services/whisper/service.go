package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Config captures runtime settings for whisper transcription.
type Config struct {
	// Model is the whisper model to use (e.g. "base", "large-v3").
	Model string
	// Binary is the whisper executable; defaults to "whisper".
	Binary string
}

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "base"
	// DefaultBinary is the whisper executable name.
	DefaultBinary = "whisper"
	// FFmpegCommand is the ffmpeg executable name used for audio extraction.
	FFmpegCommand = "ffmpeg"
)

// Service runs whisper transcription through a subprocess.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

func (s *Service) binary() string {
	if s.cfg.Binary != "" {
		return s.cfg.Binary
	}
	return DefaultBinary
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractAudio extracts the audio track from a source file.
// The output is a mono 16kHz WAV file suitable for whisper.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	return s.run(ctx, s.ffmpegBinary, args...)
}

// TranscribeFile transcribes an audio file and returns the path of the JSON
// transcript whisper writes next to it. The source should be a WAV extract.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := []string{
		source,
		"--model", s.Model(),
		"--output_dir", outputDir,
		"--output_format", "json",
		"--word_timestamps", "True",
		"--fp16", "False",
		"--verbose", "False",
	}
	if err := s.run(ctx, s.binary(), args...); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, baseName+".json"), nil
}

// Segment represents a transcribed segment from whisper JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperPayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// LoadTranscript loads the full text and segments from a whisper JSON file.
func LoadTranscript(jsonPath string) (string, []Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", nil, err
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", nil, fmt.Errorf("parse whisper json: %w", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		parts := make([]string, 0, len(payload.Segments))
		for _, seg := range payload.Segments {
			if trimmed := strings.TrimSpace(seg.Text); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		text = strings.Join(parts, " ")
	}
	return text, payload.Segments, nil
}
