// Package transcription is the client for the Deepgram prerecorded
// speech-to-text API. It uploads a local audio file and returns the
// write-once transcription artifact with word-level timings.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"yt-sections/config"
	apperrors "yt-sections/errors"
	"yt-sections/models"
)

const (
	maxRetries     = 3
	initialBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

type Client struct {
	config  config.DeepgramConfig
	http    *http.Client
	logger  *logrus.Logger
	backoff time.Duration
}

func NewClient(cfg config.DeepgramConfig) *Client {
	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logrus.StandardLogger(),
		backoff: initialBackoff,
	}
}

// deepgramResponse mirrors the provider's prerecorded response shape down
// to the fields this service consumes.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string        `json:"transcript"`
				Words      []models.Word `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeFile sends the audio file to Deepgram and returns the full
// transcript text plus word timings. Transient provider failures are
// retried with doubling backoff before the last error propagates.
func (c *Client) TranscribeFile(ctx context.Context, audioPath string) (*models.Transcription, error) {
	const op = "transcription.Client.TranscribeFile"

	if c.config.APIKey == "" {
		return nil, apperrors.MissingCredential(op, "Deepgram API key is not configured")
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to read audio file")
	}

	logger := c.logger.WithFields(logrus.Fields{
		"audio_path": audioPath,
		"size_bytes": len(audio),
		"model":      c.config.Model,
	})
	logger.Info("Sending transcription request")

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		transcription, err := c.transcribe(ctx, audioPath, audio)
		if err == nil {
			logger.WithField("words", len(transcription.Words)).Info("Transcription completed")
			return transcription, nil
		}
		lastErr = err

		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Error("Transcription attempt failed")

		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(float64(c.backoff) * math.Pow(2, float64(attempt-1)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		select {
		case <-time.After(backoff + time.Duration(rand.Int63n(int64(backoff/2)))):
		case <-ctx.Done():
			return nil, apperrors.Internal(op, ctx.Err(), "Transcription cancelled")
		}
	}

	return nil, apperrors.Internal(op, lastErr,
		fmt.Sprintf("Transcription failed after %d attempts", maxRetries))
}

func (c *Client) transcribe(ctx context.Context, audioPath string, audio []byte) (*models.Transcription, error) {
	query := url.Values{
		"model":        {c.config.Model},
		"language":     {"en"},
		"smart_format": {"true"},
		"punctuate":    {"true"},
	}
	endpoint := fmt.Sprintf("%s/v1/listen?%s", c.config.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Token "+c.config.APIKey)
	req.Header.Set("Content-Type", contentTypeFor(audioPath))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "deepgram request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram http %d: %s", resp.StatusCode, string(b))
	}

	var dr deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	if len(dr.Results.Channels) == 0 || len(dr.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("deepgram returned no transcription results")
	}

	alt := dr.Results.Channels[0].Alternatives[0]
	return &models.Transcription{
		Text:  alt.Transcript,
		Words: alt.Words,
	}, nil
}

func contentTypeFor(audioPath string) string {
	switch filepath.Ext(audioPath) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	default:
		return "audio/mp4"
	}
}
