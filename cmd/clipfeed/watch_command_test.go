package main

import (
	"context"
	"testing"
	"time"
)

func TestWatchExitsCleanlyOnInterrupt(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", writeTestConfig(t), "watch"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch should exit cleanly on interrupt, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
