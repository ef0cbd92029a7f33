package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarkerAndChainsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrExternalTool, "render", "encode", "clip output", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Errorf("wrapped error should match its marker: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("wrapped error should chain to its cause: %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(Wrap(ErrExternalTool, "acquire", "download", "exhausted", nil)) {
		t.Error("external-tool failures are not transient")
	}
	if !IsTransient(Wrap(ErrTransient, "innertube", "player", "status 503", nil)) {
		t.Error("transient marker should be detected through Wrap")
	}
	if !IsTransient(Wrap(nil, "stage", "op", "unmarked", nil)) {
		t.Error("a nil marker defaults to transient")
	}
}
