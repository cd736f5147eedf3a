package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var manualLangs = []string{"en", "en-US", "en-GB", "en-IN", "en-CA"}
var autoLangs = []string{"en", "en-US", "en-GB"}

// YTDLPCaptions fetches YouTube captions by asking yt-dlp for video
// metadata and downloading the subtitle track itself. Manual captions
// are preferred over auto-generated ones.
type YTDLPCaptions struct {
	binPath    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewYTDLPCaptions creates a captions provider backed by the yt-dlp
// binary at binPath ("yt-dlp" on PATH when empty).
func NewYTDLPCaptions(binPath string, logger *slog.Logger) *YTDLPCaptions {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLPCaptions{
		binPath:    binPath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type subtitleTrack struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

type videoInfo struct {
	Subtitles         map[string][]subtitleTrack `json:"subtitles"`
	AutomaticCaptions map[string][]subtitleTrack `json:"automatic_captions"`
}

// Captions returns the caption text for a video, or "" when the video
// has no usable caption track.
func (c *YTDLPCaptions) Captions(ctx context.Context, videoID string) (string, error) {
	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	cmd := exec.CommandContext(ctx, c.binPath, "-J", "--skip-download", "--no-warnings", url)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp metadata fetch failed: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return "", fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	track, kind := pickTrack(&info)
	if track == nil {
		c.logger.Info("no caption track found", "video_id", videoID)
		return "", nil
	}
	c.logger.Info("caption track found", "video_id", videoID, "kind", kind, "format", track.Ext)

	body, err := c.download(ctx, track.URL)
	if err != nil {
		return "", err
	}

	var text string
	if track.Ext == "json3" || track.Ext == "srv3" || strings.HasPrefix(strings.TrimSpace(body), "{") {
		text = ParseJSON3(body)
	} else {
		text = CleanVTT(body)
	}
	return text, nil
}

func pickTrack(info *videoInfo) (*subtitleTrack, string) {
	for _, lang := range manualLangs {
		if tracks := info.Subtitles[lang]; len(tracks) > 0 {
			return &tracks[0], "manual"
		}
	}
	for _, lang := range autoLangs {
		if tracks := info.AutomaticCaptions[lang]; len(tracks) > 0 {
			return &tracks[0], "auto"
		}
	}
	return nil, ""
}

func (c *YTDLPCaptions) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download subtitles: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subtitle download error: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read subtitles: %w", err)
	}
	return string(body), nil
}

// ParseJSON3 extracts plain text from YouTube's JSON3 subtitle format:
// {"wireMagic":"pb3","events":[{"segs":[{"utf8":"..."}]}]}.
func ParseJSON3(content string) string {
	var data struct {
		Events []struct {
			Segs []struct {
				UTF8 string `json:"utf8"`
			} `json:"segs"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return ""
	}

	var parts []string
	for _, ev := range data.Events {
		for _, seg := range ev.Segs {
			if seg.UTF8 != "" {
				parts = append(parts, seg.UTF8)
			}
		}
	}
	return collapseWhitespace(strings.Join(parts, " "))
}

var (
	vttHeaderRe    = regexp.MustCompile(`(?s)WEBVTT.*?\n\n`)
	vttTimestampRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}.*\n?`)
	vttCueRe       = regexp.MustCompile(`(?m)^\d+\n`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// CleanVTT strips WebVTT headers, timestamps, cue numbers and markup,
// leaving plain caption text.
func CleanVTT(content string) string {
	text := vttHeaderRe.ReplaceAllString(content, "")
	text = vttTimestampRe.ReplaceAllString(text, "")
	text = vttCueRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	return collapseWhitespace(text)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
