package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"clipfeed/internal/services"
)

// Validate ensures the configuration is usable. Failures carry the
// ErrConfiguration marker.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateChannels,
		c.validateClips,
		c.validateOpenAI,
		c.validateDownloader,
		c.validateTikTok,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validateChannels() error {
	if len(c.Channels) == 0 {
		return errors.New("channels must contain at least one name = feed_url entry")
	}
	for name, feedURL := range c.Channels {
		parsed, err := url.Parse(feedURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("channels.%q: invalid feed url %q", name, feedURL)
		}
	}
	return nil
}

func (c *Config) validateClips() error {
	if c.Clips.ClipDuration < 30 {
		return errors.New("clips.clip_duration must be at least 30 seconds")
	}
	if c.Clips.MaxClipsPerVideo < 1 {
		return errors.New("clips.max_clips_per_video must be at least 1")
	}
	return nil
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/clipfeed/config.toml"
		}
		return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'clipfeed config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateDownloader() error {
	if c.Downloader.MaxAttempts < 1 {
		return errors.New("downloader.max_attempts must be at least 1")
	}
	if c.Downloader.RetryDelaySeconds < 1 {
		return errors.New("downloader.retry_delay_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateTikTok() error {
	if !c.TikTok.Enabled {
		return nil
	}
	if strings.TrimSpace(c.TikTok.UploaderBinary) == "" {
		return errors.New("tiktok.uploader_binary must be set when tiktok.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
