package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Transcript sources, recorded on the ingested video's metadata.
const (
	SourceCaptions      = "captions"
	SourceTranscription = "transcription"
)

// ErrUnavailable means both the captions lookup and the audio
// transcription fallback failed. Permanent for that video.
var ErrUnavailable = errors.New("transcript unavailable")

// ErrExtraction marks audio extraction failures (video removed,
// region-locked, download error).
var ErrExtraction = errors.New("audio extraction failed")

// ErrTranscription marks speech-to-text failures on extracted audio.
var ErrTranscription = errors.New("transcription failed")

// CaptionsProvider fetches published or auto-generated captions for a
// video. Returns an empty string when none exist.
type CaptionsProvider interface {
	Captions(ctx context.Context, videoID string) (string, error)
}

// AudioExtractor downloads a video's audio track to a local file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoID string) (string, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Transcript is the acquired text plus how it was obtained.
type Transcript struct {
	Text   string
	Source string
}

// Acquirer obtains a transcript for a video with a strict two-tier
// fallback: captions first, audio transcription only if captions are
// missing. Captions are near-instant and free; transcription is slow
// and resource-heavy, so it is never attempted speculatively. Each
// external call is attempted once, no retries.
type Acquirer struct {
	captions    CaptionsProvider
	extractor   AudioExtractor
	transcriber Transcriber
	logger      *slog.Logger
}

// NewAcquirer creates a transcript acquirer.
func NewAcquirer(captions CaptionsProvider, extractor AudioExtractor, transcriber Transcriber, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		captions:    captions,
		extractor:   extractor,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Acquire returns a transcript for the video, or ErrUnavailable when
// both tiers fail.
func (a *Acquirer) Acquire(ctx context.Context, videoID string) (*Transcript, error) {
	text, err := a.captions.Captions(ctx, videoID)
	if err != nil {
		a.logger.Info("captions lookup failed, falling back to transcription",
			"video_id", videoID, "error", err)
	} else if strings.TrimSpace(text) != "" {
		a.logger.Info("captions retrieved", "video_id", videoID, "chars", len(text))
		return &Transcript{Text: text, Source: SourceCaptions}, nil
	} else {
		a.logger.Info("no captions available, falling back to transcription", "video_id", videoID)
	}

	audioPath, err := a.extractor.ExtractAudio(ctx, videoID)
	if err != nil {
		a.logger.Error("audio extraction failed", "video_id", videoID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text, err = a.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		a.logger.Error("transcription failed", "video_id", videoID, "audio", audioPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: transcription produced no text", ErrUnavailable)
	}

	a.logger.Info("audio transcribed", "video_id", videoID, "chars", len(text))
	return &Transcript{Text: text, Source: SourceTranscription}, nil
}
