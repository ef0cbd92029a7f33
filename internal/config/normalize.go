package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeChannels()
	c.normalizeClips()
	c.normalizeOpenAI()
	c.normalizeWhisper()
	c.normalizeDownloader()
	if err := c.normalizeTikTok(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeChannels() {
	normalized := make(map[string]string, len(c.Channels))
	for name, url := range c.Channels {
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if name == "" || url == "" {
			continue
		}
		normalized[name] = url
	}
	c.Channels = normalized
}

func (c *Config) normalizeClips() {
	if c.Clips.ClipDuration <= 0 {
		c.Clips.ClipDuration = defaultClipDuration
	}
	if c.Clips.MaxClipsPerVideo <= 0 {
		c.Clips.MaxClipsPerVideo = defaultMaxClipsPerVideo
	}
	tags := make([]string, 0, len(c.Clips.RequiredHashtags))
	for _, tag := range c.Clips.RequiredHashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = defaultRequiredHashtags()
	}
	c.Clips.RequiredHashtags = tags
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
}

func (c *Config) normalizeDownloader() {
	if c.Downloader.MaxAttempts <= 0 {
		c.Downloader.MaxAttempts = defaultMaxAttempts
	}
	if c.Downloader.RetryDelaySeconds <= 0 {
		c.Downloader.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	c.Downloader.YtdlpBinary = strings.TrimSpace(c.Downloader.YtdlpBinary)
	if c.Downloader.YtdlpBinary == "" {
		c.Downloader.YtdlpBinary = defaultYtdlpBinary
	}
}

func (c *Config) normalizeTikTok() error {
	var err error
	if strings.TrimSpace(c.TikTok.SessionDir) == "" {
		c.TikTok.SessionDir = defaultSessionDir
	}
	if c.TikTok.SessionDir, err = expandPath(c.TikTok.SessionDir); err != nil {
		return fmt.Errorf("tiktok.session_dir: %w", err)
	}
	c.TikTok.UploaderBinary = strings.TrimSpace(c.TikTok.UploaderBinary)
	if c.TikTok.TimeoutSeconds <= 0 {
		c.TikTok.TimeoutSeconds = defaultUploaderTimeout
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.ScanIntervalMinutes <= 0 {
		c.Workflow.ScanIntervalMinutes = defaultScanIntervalMinutes
	}
	if c.Workflow.ItemPauseSeconds < 0 {
		c.Workflow.ItemPauseSeconds = defaultItemPauseSeconds
	}
	if c.Workflow.UploadPauseSeconds < 0 {
		c.Workflow.UploadPauseSeconds = defaultUploadPauseSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
