package config

const (
	defaultDownloadDir         = "~/.local/share/clipfeed/downloads"
	defaultOutputDir           = "~/.local/share/clipfeed/output"
	defaultStateDir            = "~/.local/share/clipfeed/state"
	defaultLogDir              = "~/.local/share/clipfeed/logs"
	defaultSessionDir          = "~/.local/share/clipfeed/session"
	defaultClipDuration        = 60
	defaultMaxClipsPerVideo    = 5
	defaultOpenAIBaseURL       = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel         = "gpt-4o-mini"
	defaultOpenAITimeout       = 60
	defaultWhisperModel        = "base"
	defaultWhisperBinary       = "whisper"
	defaultMaxAttempts         = 3
	defaultRetryDelaySeconds   = 5
	defaultYtdlpBinary         = "yt-dlp"
	defaultUploaderTimeout     = 600
	defaultScanIntervalMinutes = 60
	defaultItemPauseSeconds    = 30
	defaultUploadPauseSeconds  = 2
	defaultLogFormat           = ""
	defaultLogLevel            = "info"
)

func defaultRequiredHashtags() []string {
	return []string{"#timothyronald", "#akademicrypto"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Channels: map[string]string{},
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			OutputDir:   defaultOutputDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		Clips: Clips{
			ClipDuration:     defaultClipDuration,
			MaxClipsPerVideo: defaultMaxClipsPerVideo,
			RequiredHashtags: defaultRequiredHashtags(),
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		Whisper: Whisper{
			Model:  defaultWhisperModel,
			Binary: defaultWhisperBinary,
		},
		Downloader: Downloader{
			MaxAttempts:       defaultMaxAttempts,
			RetryDelaySeconds: defaultRetryDelaySeconds,
			YtdlpBinary:       defaultYtdlpBinary,
		},
		TikTok: TikTok{
			SessionDir:     defaultSessionDir,
			TimeoutSeconds: defaultUploaderTimeout,
		},
		Workflow: Workflow{
			ScanIntervalMinutes: defaultScanIntervalMinutes,
			ItemPauseSeconds:    defaultItemPauseSeconds,
			UploadPauseSeconds:  defaultUploadPauseSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
