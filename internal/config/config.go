package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DownloadDir string `toml:"download_dir"`
	OutputDir   string `toml:"output_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Clips controls segment selection and rendering limits.
type Clips struct {
	// ClipDuration is the maximum clip length in seconds.
	ClipDuration int `toml:"clip_duration"`
	// MaxClipsPerVideo caps how many clips one source video may produce.
	MaxClipsPerVideo int `toml:"max_clips_per_video"`
	// RequiredHashtags are always present on published clips.
	RequiredHashtags []string `toml:"required_hashtags"`
}

// OpenAI contains connection settings for the chat-completion API used by
// segment selection and metadata generation.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Whisper contains speech-to-text settings.
type Whisper struct {
	// Model is the whisper model name (e.g. "base", "large-v3").
	Model string `toml:"model"`
	// Binary is the whisper executable; defaults to "whisper".
	Binary string `toml:"binary"`
}

// Downloader contains video acquisition settings.
type Downloader struct {
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	YtdlpBinary       string `toml:"ytdlp_binary"`
}

// TikTok contains publishing settings. Publishing is driven by an external
// browser-automation helper; the pipeline treats it as a black box.
type TikTok struct {
	Enabled        bool   `toml:"enabled"`
	SessionDir     string `toml:"session_dir"`
	UploaderBinary string `toml:"uploader_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains cycle timing knobs.
type Workflow struct {
	ScanIntervalMinutes int `toml:"scan_interval_minutes"`
	ItemPauseSeconds    int `toml:"item_pause_seconds"`
	UploadPauseSeconds  int `toml:"upload_pause_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipfeed.
//
// Sections by subsystem:
//   - Channels: display name -> feed URL registry, read-only to the pipeline
//   - Paths: download/output/state/log directories
//   - Clips: clip duration, per-video clip cap, required hashtags
//   - OpenAI: chat-completion connection settings
//   - Whisper: speech-to-text model and binary
//   - Downloader: acquisition retry policy and yt-dlp binary
//   - TikTok: external uploader integration
//   - Workflow: scan interval and pacing pauses
//   - Logging: log format and level
type Config struct {
	Channels   map[string]string `toml:"channels"`
	Paths      Paths             `toml:"paths"`
	Clips      Clips             `toml:"clips"`
	OpenAI     OpenAI            `toml:"openai"`
	Whisper    Whisper           `toml:"whisper"`
	Downloader Downloader        `toml:"downloader"`
	TikTok     TikTok            `toml:"tiktok"`
	Workflow   Workflow          `toml:"workflow"`
	Logging    Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipfeed/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipfeed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DownloadDir, c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir}
	if c.TikTok.Enabled && strings.TrimSpace(c.TikTok.SessionDir) != "" {
		dirs = append(dirs, c.TikTok.SessionDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction and rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
