package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// YTDLPAudio downloads a video's audio track as mp3 via yt-dlp (which
// drives ffmpeg for the codec conversion).
type YTDLPAudio struct {
	binPath  string
	audioDir string
	logger   *slog.Logger
}

// NewYTDLPAudio creates an audio extractor writing into audioDir.
func NewYTDLPAudio(binPath, audioDir string, logger *slog.Logger) *YTDLPAudio {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if audioDir == "" {
		audioDir = filepath.Join(os.TempDir(), "tubesage-audio")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLPAudio{binPath: binPath, audioDir: audioDir, logger: logger}
}

// ExtractAudio downloads the audio track and returns the local file
// path. An already-downloaded file is reused.
func (x *YTDLPAudio) ExtractAudio(ctx context.Context, videoID string) (string, error) {
	audioPath := filepath.Join(x.audioDir, videoID+".mp3")
	if _, err := os.Stat(audioPath); err == nil {
		x.logger.Info("audio already extracted", "video_id", videoID, "path", audioPath)
		return audioPath, nil
	}

	if err := os.MkdirAll(x.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create audio dir: %v", ErrExtraction, err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	cmd := exec.CommandContext(ctx, x.binPath,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "128K",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(x.audioDir, videoID+".%(ext)s"),
		url,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: yt-dlp: %v: %s", ErrExtraction, err, output)
	}

	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("%w: expected output %s missing", ErrExtraction, audioPath)
	}
	x.logger.Info("audio extracted", "video_id", videoID, "path", audioPath)
	return audioPath, nil
}
