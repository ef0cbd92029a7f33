package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipfeed/internal/services"
	"clipfeed/internal/services/whisper"
)

const transcriptJSON = `{
	"text": "hello world this is a test",
	"segments": [
		{"text": " hello world", "start": 0.0, "end": 2.5},
		{"text": " this is a test", "start": 2.5, "end": 5.0}
	]
}`

// fakeWhisperService wires a command runner that writes the transcript
// JSON instead of invoking ffmpeg and whisper.
func fakeWhisperService(t *testing.T, workDir string, transcript string) *whisper.Service {
	t.Helper()
	service := whisper.NewService(whisper.Config{Model: "base", Binary: "whisper"}, "ffmpeg")
	service.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		switch name {
		case "ffmpeg":
			// The audio output path is the final argument.
			return os.WriteFile(args[len(args)-1], []byte("RIFFaudio"), 0o644)
		case "whisper":
			base := filepath.Base(args[0])
			jsonName := base[:len(base)-len(filepath.Ext(base))] + ".json"
			return os.WriteFile(filepath.Join(workDir, jsonName), []byte(transcript), 0o644)
		}
		return errors.New("unexpected command " + name)
	})
	return service
}

func TestTranscribeProducesTimedSegments(t *testing.T) {
	workDir := t.TempDir()
	engine := NewEngine(fakeWhisperService(t, workDir, transcriptJSON), workDir, nil)

	videoPath := filepath.Join(t.TempDir(), "abc123.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	transcript, err := engine.Transcribe(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if transcript.Text != "hello world this is a test" {
		t.Errorf("unexpected text %q", transcript.Text)
	}
	if len(transcript.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(transcript.Segments))
	}
	if transcript.Segments[0].Text != "hello world" {
		t.Errorf("segment text should be trimmed, got %q", transcript.Segments[0].Text)
	}
	if transcript.Duration() != 5.0 {
		t.Errorf("Duration() = %v, want 5.0", transcript.Duration())
	}
}

func TestTranscribeCleansUpIntermediates(t *testing.T) {
	workDir := t.TempDir()
	engine := NewEngine(fakeWhisperService(t, workDir, transcriptJSON), workDir, nil)

	videoPath := filepath.Join(t.TempDir(), "abc123.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Transcribe(context.Background(), videoPath); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	leftovers, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		names := make([]string, 0, len(leftovers))
		for _, entry := range leftovers {
			names = append(names, entry.Name())
		}
		t.Fatalf("work dir should be empty after transcription, found %v", names)
	}
}

func TestTranscribeCleansUpAudioWhenWhisperFails(t *testing.T) {
	workDir := t.TempDir()
	service := whisper.NewService(whisper.Config{}, "ffmpeg")
	service.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name == "ffmpeg" {
			return os.WriteFile(args[len(args)-1], []byte("RIFFaudio"), 0o644)
		}
		return errors.New("model not found")
	})
	engine := NewEngine(service, workDir, nil)

	videoPath := filepath.Join(t.TempDir(), "abc123.mp4")
	if err := os.WriteFile(videoPath, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Transcribe(context.Background(), videoPath); err == nil {
		t.Fatal("expected whisper failure to propagate")
	}

	if _, err := os.Stat(filepath.Join(workDir, "abc123.wav")); !os.IsNotExist(err) {
		t.Error("audio intermediate should be removed on failure")
	}
}

func TestTranscribeRequiresVideoPath(t *testing.T) {
	engine := NewEngine(fakeWhisperService(t, t.TempDir(), transcriptJSON), t.TempDir(), nil)
	_, err := engine.Transcribe(context.Background(), "  ")
	if err == nil {
		t.Fatal("expected error for empty path")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("empty path should be a validation error, got %v", err)
	}
}
