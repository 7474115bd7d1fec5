package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"whatsapp-catat-hutang/internal/config"
	"whatsapp-catat-hutang/internal/voice"
	"whatsapp-catat-hutang/pkg/logger"
)

// Responder generates a conversational reply for messages that carry no
// transaction intent, steered by the composer's directives.
type Responder interface {
	Generate(ctx context.Context, directives voice.PromptDirectives, text string) (string, error)
}

// ResponderService calls the external reply generator over HTTP. The
// composer's directives travel with the request so the generator honors
// the addressing and register contract.
type ResponderService struct {
	httpClient *http.Client
	config     *config.ResponderConfig
	logger     *logger.Logger
}

// NewResponderService creates the HTTP-backed reply generator client
func NewResponderService(cfg *config.ResponderConfig, log *logger.Logger) *ResponderService {
	return &ResponderService{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log,
	}
}

type generateRequest struct {
	Text                  string   `json:"text"`
	AddressingInstruction string   `json:"addressing_instruction"`
	DeliveryRegister      string   `json:"delivery_register"`
	StyleConstraints      []string `json:"style_constraints"`
}

type generateResponse struct {
	Reply string `json:"reply"`
}

// Generate posts the user text plus directives and returns the generated
// reply text
func (s *ResponderService) Generate(ctx context.Context, directives voice.PromptDirectives, text string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Text:                  text,
		AddressingInstruction: directives.AddressingInstruction,
		DeliveryRegister:      string(directives.DeliveryRegister),
		StyleConstraints:      directives.StyleConstraints,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "whatsapp-catat-hutang/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("responder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("responder returned status %d", resp.StatusCode)
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", fmt.Errorf("failed to decode responder response: %w", err)
	}
	if generated.Reply == "" {
		return "", fmt.Errorf("responder returned empty reply")
	}

	return generated.Reply, nil
}
