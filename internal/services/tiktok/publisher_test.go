package tiktok

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clipfeed/internal/services"
)

func TestUploaderPublishBuildsCommand(t *testing.T) {
	uploader := NewUploader("tiktok-upload", "/var/lib/clipfeed/session", 60, nil)

	var gotName string
	var gotArgs []string
	uploader.WithRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	ok, err := uploader.Publish(context.Background(), "/tmp/clip.mp4", "Great moment #clips")
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected successful publish")
	}
	if gotName != "tiktok-upload" {
		t.Errorf("unexpected binary %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--caption Great moment #clips") {
		t.Errorf("caption not passed: %s", joined)
	}
	if !strings.Contains(joined, "--session-dir /var/lib/clipfeed/session") {
		t.Errorf("session dir not passed: %s", joined)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/clip.mp4" {
		t.Errorf("video path should be the final argument: %v", gotArgs)
	}
}

func TestUploaderPublishReportsFailure(t *testing.T) {
	uploader := NewUploader("tiktok-upload", "", 0, nil)
	uploader.WithRunner(func(_ context.Context, _ string, _ ...string) error {
		return errors.New("browser crashed")
	})

	ok, err := uploader.Publish(context.Background(), "/tmp/clip.mp4", "caption")
	if err == nil {
		t.Fatal("expected error from failed uploader")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("uploader failure should carry the external-tool marker, got %v", err)
	}
	if ok {
		t.Fatal("failed publish must not report success")
	}
}

func TestUploaderRequiresBinary(t *testing.T) {
	uploader := NewUploader("", "", 0, nil)
	_, err := uploader.Publish(context.Background(), "/tmp/clip.mp4", "caption")
	if err == nil {
		t.Fatal("expected error when binary is not configured")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("missing binary should be a configuration error, got %v", err)
	}
}

func TestNopPublisherAlwaysSucceeds(t *testing.T) {
	pub := NewNopPublisher(nil)
	ok, err := pub.Publish(context.Background(), "/tmp/clip.mp4", "caption")
	if err != nil {
		t.Fatalf("NopPublisher returned error: %v", err)
	}
	if !ok {
		t.Fatal("NopPublisher should report success")
	}
}
