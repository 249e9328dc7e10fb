// Package openai implements the analysis.Provider interface against the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bomatic/bomatic-server/internal/errors"
)

const (
	// ProviderName is the registered name for the OpenAI provider.
	ProviderName = "openai"

	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.1
	defaultTimeout     = 120 * time.Second
)

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	BaseURL     string        `json:"base_url" mapstructure:"base_url"`
	Model       string        `json:"model" mapstructure:"model"`
	Temperature float64       `json:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements analysis.Provider using OpenAI's HTTP API.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new OpenAI provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks the models endpoint with the configured key.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/models/"+p.cfg.Model, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Complete sends a system instruction plus user content and returns the
// model's text reply.
func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.cfg.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.AnalysisProviderError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.AnalysisProviderError(ProviderName,
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", errors.MalformedProviderReply(ProviderName, "reply is not valid JSON")
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.MalformedProviderReply(ProviderName, "reply has no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// --- wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
