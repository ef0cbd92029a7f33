package acquire

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePrimary struct {
	calls int
	fn    func(call int) (string, error)
}

func (f *fakePrimary) Download(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.fn(f.calls)
}

type fakeSecondary struct {
	calls int
	fn    func(call int) (string, error)
}

func (f *fakeSecondary) Download(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.fn(f.calls)
}

func alwaysFail() func(int) (string, error) {
	return func(int) (string, error) { return "", errors.New("boom") }
}

func TestDownloadSucceedsOnFirstPrimaryAttempt(t *testing.T) {
	primary := &fakePrimary{fn: func(int) (string, error) { return "/tmp/vid.mp4", nil }}
	secondary := &fakeSecondary{fn: alwaysFail()}
	engine := NewEngine(primary, secondary, 3, 5, nil)
	engine.WithSleeper(func(context.Context, time.Duration) error {
		t.Error("no backoff expected on immediate success")
		return nil
	})

	path, err := engine.Download(context.Background(), "https://yt/watch?v=a", "a", t.TempDir())
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != "/tmp/vid.mp4" {
		t.Fatalf("unexpected path %q", path)
	}
	if secondary.calls != 0 {
		t.Errorf("fallback should not run when primary succeeds")
	}
}

func TestDownloadFallsBackWithinAttempt(t *testing.T) {
	primary := &fakePrimary{fn: alwaysFail()}
	secondary := &fakeSecondary{fn: func(int) (string, error) { return "/tmp/vid.mp4", nil }}
	engine := NewEngine(primary, secondary, 3, 5, nil)
	engine.WithSleeper(func(context.Context, time.Duration) error {
		t.Error("no backoff expected when fallback succeeds on attempt 1")
		return nil
	})

	path, err := engine.Download(context.Background(), "https://yt/watch?v=a", "a", t.TempDir())
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != "/tmp/vid.mp4" {
		t.Fatalf("unexpected path %q", path)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected one primary and one fallback call, got %d and %d",
			primary.calls, secondary.calls)
	}
}

func TestDownloadExhaustsAttemptsWithDoublingBackoff(t *testing.T) {
	primary := &fakePrimary{fn: alwaysFail()}
	secondary := &fakeSecondary{fn: alwaysFail()}
	engine := NewEngine(primary, secondary, 3, 5, nil)

	var delays []time.Duration
	engine.WithSleeper(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	_, err := engine.Download(context.Background(), "https://yt/watch?v=a", "a", t.TempDir())
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if primary.calls != 3 || secondary.calls != 3 {
		t.Errorf("expected 3 attempts against each downloader, got %d and %d",
			primary.calls, secondary.calls)
	}
	// Backoff runs between attempts only, never after the final one.
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("expected delays %v, got %v", want, delays)
		}
	}
}

func TestDownloadRecoversOnLaterAttempt(t *testing.T) {
	primary := &fakePrimary{fn: func(call int) (string, error) {
		if call < 3 {
			return "", errors.New("network blip")
		}
		return "/tmp/vid.mp4", nil
	}}
	secondary := &fakeSecondary{fn: alwaysFail()}
	engine := NewEngine(primary, secondary, 3, 5, nil)
	engine.WithSleeper(func(context.Context, time.Duration) error { return nil })

	path, err := engine.Download(context.Background(), "https://yt/watch?v=a", "a", t.TempDir())
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != "/tmp/vid.mp4" {
		t.Fatalf("unexpected path %q", path)
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 primary calls, got %d", primary.calls)
	}
}

func TestDownloadStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &fakePrimary{fn: func(int) (string, error) {
		cancel()
		return "", errors.New("interrupted")
	}}
	engine := NewEngine(primary, nil, 3, 5, nil)
	engine.WithSleeper(func(context.Context, time.Duration) error {
		t.Error("no backoff expected after cancellation")
		return nil
	})

	if _, err := engine.Download(ctx, "https://yt/watch?v=a", "a", t.TempDir()); err == nil {
		t.Fatal("expected error after cancellation")
	}
	if primary.calls != 1 {
		t.Errorf("expected a single attempt after cancellation, got %d", primary.calls)
	}
}
