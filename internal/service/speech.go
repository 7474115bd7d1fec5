package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"whatsapp-catat-hutang/internal/config"
	"whatsapp-catat-hutang/pkg/logger"
)

// SpeechService converts reply text to audio through the external speech
// synthesis endpoint. Only invoked when a reply's delivery mode is VOICE.
type SpeechService struct {
	httpClient *http.Client
	config     *config.SpeechConfig
	logger     *logger.Logger
}

// NewSpeechService creates a new speech synthesis client
func NewSpeechService(cfg *config.SpeechConfig, log *logger.Logger) *SpeechService {
	return &SpeechService{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log,
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Synthesize renders text to audio with retry and exponential backoff
func (s *SpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			s.logger.Warn("Retrying speech synthesis",
				"attempt", attempt+1,
				"backoff_seconds", backoff.Seconds(),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		audio, err := s.synthesize(ctx, text)
		if err == nil {
			return audio, nil
		}

		lastErr = err
		s.logger.Warn("Speech synthesis failed",
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, fmt.Errorf("speech synthesis failed after %d attempts: %w",
		s.config.RetryCount+1, lastErr)
}

// synthesize performs the actual HTTP request to the synthesis endpoint
func (s *SpeechService) synthesize(ctx context.Context, text string) ([]byte, error) {
	jsonData, err := json.Marshal(synthesizeRequest{
		Text:  text,
		Voice: s.config.Voice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/ogg")
	req.Header.Set("User-Agent", "whatsapp-catat-hutang/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis endpoint returned empty audio")
	}

	return audio, nil
}
