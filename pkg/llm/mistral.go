package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MistralProvider generates replies through the Mistral chat completions API.
type MistralProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMistralProvider builds a provider against the given API base URL.
func NewMistralProvider(baseURL, apiKey string, timeout time.Duration) *MistralProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MistralProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralRequest struct {
	Model    string           `json:"model"`
	Messages []mistralMessage `json:"messages"`
}

type mistralResponse struct {
	Choices []struct {
		Message mistralMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate posts the history plus prompt to /v1/chat/completions.
func (p *MistralProvider) Generate(ctx context.Context, prompt, model string, history []Turn) (*Completion, error) {
	messages := make([]mistralMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, mistralMessage{Role: apiRole(turn.Role), Content: turn.Content})
	}
	messages = append(messages, mistralMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(mistralRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("marshal mistral request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build mistral request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mistral request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("mistral returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed mistralResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode mistral response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("mistral returned no choices")
	}

	return &Completion{
		Content:    parsed.Choices[0].Message.Content,
		TokenCount: parsed.Usage.TotalTokens,
	}, nil
}

func apiRole(role string) string {
	switch role {
	case "assistant":
		return "assistant"
	case "system":
		return "system"
	default:
		return "user"
	}
}
