package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/pkg/logger"
)

// NLPExtractor delegates extraction to the external natural-language
// transaction parser over HTTP. Calls are bounded by the configured
// timeout; any failure or sub-threshold confidence makes the chain fall
// back to the deterministic rules.
type NLPExtractor struct {
	httpClient *http.Client
	url        string
	threshold  float64
	logger     *logger.Logger
}

// NewNLPExtractor creates the parser-backed strategy.
func NewNLPExtractor(url string, timeout time.Duration, threshold float64, log *logger.Logger) *NLPExtractor {
	return &NLPExtractor{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url:       url,
		threshold: threshold,
		logger:    log,
	}
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Confidence       float64 `json:"confidence"`
	Direction        string  `json:"direction"`
	CounterpartyName string  `json:"counterparty_name"`
	ItemDescription  string  `json:"item_description"`
	Amount           int64   `json:"amount"`
}

// Extract posts the raw text to the parser and maps its response onto the
// shared field shape.
func (e *NLPExtractor) Extract(ctx context.Context, text string) (*Fields, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "whatsapp-catat-hutang/1.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("parser returned status %d", resp.StatusCode)
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode parser response: %w", err)
	}

	if parsed.Confidence < e.threshold {
		return nil, fmt.Errorf("parser confidence %.2f below threshold %.2f", parsed.Confidence, e.threshold)
	}

	direction, err := mapDirection(parsed.Direction)
	if err != nil {
		return nil, err
	}
	if parsed.CounterpartyName == "" {
		return nil, fmt.Errorf("parser omitted counterparty name")
	}
	if parsed.Amount <= 0 {
		return nil, fmt.Errorf("parser returned non-positive amount %d", parsed.Amount)
	}

	return &Fields{
		Direction:        direction,
		CounterpartyName: parsed.CounterpartyName,
		ItemDescription:  parsed.ItemDescription,
		Amount:           parsed.Amount,
	}, nil
}

// mapDirection accepts both the canonical enum values and the raw locale
// keywords some parser deployments return.
func mapDirection(raw string) (model.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "receivable", "piutang":
		return model.DirectionReceivable, nil
	case "debt", "hutang", "utang":
		return model.DirectionDebt, nil
	default:
		return "", fmt.Errorf("parser returned unknown direction %q", raw)
	}
}
