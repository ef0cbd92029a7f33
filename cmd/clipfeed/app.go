package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"clipfeed/internal/acquire"
	"clipfeed/internal/config"
	"clipfeed/internal/feed"
	"clipfeed/internal/logging"
	"clipfeed/internal/metadata"
	"clipfeed/internal/pipeline"
	"clipfeed/internal/processed"
	"clipfeed/internal/render"
	"clipfeed/internal/segments"
	"clipfeed/internal/services/innertube"
	"clipfeed/internal/services/llm"
	"clipfeed/internal/services/tiktok"
	"clipfeed/internal/services/whisper"
	"clipfeed/internal/services/ytdlp"
	"clipfeed/internal/transcribe"
)

// app wires the configured collaborators into a runnable pipeline.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *processed.Store
	pipeline *pipeline.Pipeline
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger, err := logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		return nil, err
	}

	store, err := processed.Open(ctx, filepath.Join(cfg.Paths.StateDir, "processed.db"))
	if err != nil {
		return nil, err
	}

	component := func(name string) *slog.Logger {
		return logging.NewComponentLogger(logger, name)
	}

	scanner := feed.NewScanner(cfg.Channels, store, component("feed"))

	engine := acquire.NewEngine(
		ytdlp.NewClient(cfg.Downloader.YtdlpBinary, cfg.FFmpegBinary()),
		innertube.NewClient(),
		cfg.Downloader.MaxAttempts,
		cfg.Downloader.RetryDelaySeconds,
		component("acquire"),
	)

	whisperService := whisper.NewService(whisper.Config{
		Model:  cfg.Whisper.Model,
		Binary: cfg.Whisper.Binary,
	}, cfg.FFmpegBinary())
	transcriber := transcribe.NewEngine(whisperService, cfg.Paths.DownloadDir, component("transcribe"))

	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	})
	selector := segments.NewSelector(completer, cfg.Clips.ClipDuration, cfg.Clips.MaxClipsPerVideo, component("segments"))
	generator := metadata.NewGenerator(completer, cfg.Clips.RequiredHashtags, component("metadata"))

	renderer := render.NewRenderer(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.Paths.OutputDir, component("render"))

	var publisher pipeline.Publisher
	if cfg.TikTok.Enabled {
		publisher = tiktok.NewUploader(cfg.TikTok.UploaderBinary, cfg.TikTok.SessionDir, cfg.TikTok.TimeoutSeconds, component("tiktok"))
	} else {
		publisher = tiktok.NewNopPublisher(component("tiktok"))
	}

	pipe := pipeline.New(pipeline.Options{
		Scanner:       scanner,
		Downloader:    engine,
		Transcriber:   transcriber,
		Selector:      selector,
		Renderer:      renderer,
		Metadata:      generator,
		Publisher:     publisher,
		Recorder:      store,
		DownloadDir:   cfg.Paths.DownloadDir,
		FFprobeBinary: cfg.FFprobeBinary(),
		ItemPause:     time.Duration(cfg.Workflow.ItemPauseSeconds) * time.Second,
		UploadPause:   time.Duration(cfg.Workflow.UploadPauseSeconds) * time.Second,
		Logger:        component("pipeline"),
	})

	return &app{cfg: cfg, logger: logger, store: store, pipeline: pipe}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
