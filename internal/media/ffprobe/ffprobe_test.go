package ffprobe

import (
	"context"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	width, height, ok := result.VideoDimensions()
	if !ok || width != 1920 || height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d ok=%v", width, height, ok)
	}
	if result.VideoCodec() != "h264" {
		t.Fatalf("unexpected codec: %q", result.VideoCodec())
	}
}

func TestInspectWithParsesRunnerOutput(t *testing.T) {
	payload := `{"streams":[{"codec_type":"video","width":1280,"height":720}],"format":{"duration":"600.0"}}`
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("unexpected binary %q", name)
		}
		return []byte(payload), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("InspectWith: %v", err)
	}
	if result.DurationSeconds() != 600 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	width, height, ok := result.VideoDimensions()
	if !ok || width != 1280 || height != 720 {
		t.Fatalf("unexpected dimensions: %dx%d", width, height)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
