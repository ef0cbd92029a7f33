package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipfeed/internal/services"
)

const (
	// playerEndpoint is the Innertube API endpoint that returns stream URLs.
	playerEndpoint = "https://www.youtube.com/youtubei/v1/player"

	// The ANDROID client receives progressive (muxed audio+video) formats
	// with directly fetchable URLs.
	clientName    = "ANDROID"
	clientVersion = "19.09.37"
	userAgent     = "com.google.android.youtube/19.09.37 (Linux; U; Android 14) gzip"

	defaultTimeout = 10 * time.Minute
)

// Client downloads videos via YouTube's internal player API. It only
// considers progressive formats, which carry audio and video in one stream.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoint overrides the player API endpoint (for testing).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// NewClient creates an Innertube downloader client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   playerEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// playerRequest is the body sent to the player endpoint.
type playerRequest struct {
	Context clientContext `json:"context"`
	VideoID string        `json:"videoId"`
}

type clientContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSDKVersion int    `json:"androidSdkVersion"`
	HL                string `json:"hl"`
	GL                string `json:"gl"`
}

// playerResponse holds the fields of the player response we consume.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		Formats []streamFormat `json:"formats"`
	} `json:"streamingData"`
}

type streamFormat struct {
	Itag     int    `json:"itag"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Bitrate  int    `json:"bitrate"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Download resolves the best progressive stream for videoID and saves it
// under outputDir, returning the local file path.
func (c *Client) Download(ctx context.Context, videoID, outputDir string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", services.Wrap(services.ErrValidation, "innertube", "download", "video id required", nil)
	}
	format, err := c.resolveFormat(ctx, videoID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "innertube", "download", "ensure output dir", err)
	}
	dest := filepath.Join(outputDir, videoID+extensionFor(format.MimeType))
	if err := c.fetchStream(ctx, format.URL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *Client) resolveFormat(ctx context.Context, videoID string) (*streamFormat, error) {
	body, err := json.Marshal(playerRequest{
		Context: clientContext{
			Client: innertubeClient{
				ClientName:        clientName,
				ClientVersion:     clientVersion,
				AndroidSDKVersion: 34,
				HL:                "en",
				GL:                "US",
			},
		},
		VideoID: videoID,
	})
	if err != nil {
		return nil, fmt.Errorf("innertube player: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("innertube player: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "innertube", "player", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(statusMarker(resp.StatusCode), "innertube", "player",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "innertube", "player", "decode response", err)
	}
	if status := player.PlayabilityStatus.Status; status != "" && status != "OK" {
		return nil, services.Wrap(services.ErrNotFound, "innertube", "player",
			fmt.Sprintf("video %s not playable: %s (%s)", videoID, status, player.PlayabilityStatus.Reason), nil)
	}

	var best *streamFormat
	for i := range player.StreamingData.Formats {
		f := &player.StreamingData.Formats[i]
		if f.URL == "" {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return nil, services.Wrap(services.ErrNotFound, "innertube", "player",
			fmt.Sprintf("no progressive format for video %s", videoID), nil)
	}
	return best, nil
}

func (c *Client) fetchStream(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("innertube fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "innertube", "fetch", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(statusMarker(resp.StatusCode), "innertube", "fetch",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	tmp := dest + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("innertube fetch: create file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("innertube fetch: write stream: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("innertube fetch: close file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("innertube fetch: finalize file: %w", err)
	}
	return nil
}

// statusMarker classifies an HTTP status as retryable or not.
func statusMarker(status int) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return services.ErrTransient
	}
	return services.ErrExternalTool
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "video/3gpp"):
		return ".3gp"
	default:
		return ".mp4"
	}
}
