package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipfeed/internal/config"
	"clipfeed/internal/services"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[channels]
"Demo Channel" = "https://example.com/feed.xml"

[openai]
api_key = "sk-test"

[clips]
required_hashtags = ["crypto", "#finance"]
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Clips.ClipDuration != 60 {
		t.Fatalf("clip duration default = %d, want 60", cfg.Clips.ClipDuration)
	}
	if cfg.Clips.MaxClipsPerVideo != 5 {
		t.Fatalf("max clips default = %d, want 5", cfg.Clips.MaxClipsPerVideo)
	}
	if cfg.Downloader.MaxAttempts != 3 || cfg.Downloader.RetryDelaySeconds != 5 {
		t.Fatalf("unexpected downloader defaults: %+v", cfg.Downloader)
	}
	if !filepath.IsAbs(cfg.Paths.DownloadDir) {
		t.Fatalf("download dir not expanded: %q", cfg.Paths.DownloadDir)
	}
	for _, tag := range cfg.Clips.RequiredHashtags {
		if !strings.HasPrefix(tag, "#") {
			t.Fatalf("hashtag %q missing # prefix", tag)
		}
	}
}

func TestLoadRejectsEmptyChannels(t *testing.T) {
	path := writeConfig(t, `
[openai]
api_key = "sk-test"
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing channels")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("validation failure should carry the configuration marker, got %v", err)
	}
}

func TestLoadRejectsShortClipDuration(t *testing.T) {
	path := writeConfig(t, `
[channels]
"Demo" = "https://example.com/feed.xml"

[openai]
api_key = "sk-test"

[clips]
clip_duration = 10
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for clip_duration below 30")
	}
}

func TestLoadRejectsUploaderWithoutBinary(t *testing.T) {
	path := writeConfig(t, `
[channels]
"Demo" = "https://example.com/feed.xml"

[openai]
api_key = "sk-test"

[tiktok]
enabled = true
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for enabled uploader without binary")
	}
}

func TestOpenAIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := writeConfig(t, `
[channels]
"Demo" = "https://example.com/feed.xml"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("api key = %q, want env fallback", cfg.OpenAI.APIKey)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(dir, "downloads")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, path := range []string{cfg.Paths.DownloadDir, cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err=%v", path, err)
		}
	}
}
