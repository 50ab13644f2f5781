package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/johnquangdev/sales-mentor/pkg/config"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// ChatClient is a minimal client for OpenAI-compatible chat completion APIs
type ChatClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewChatClient creates a chat client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewChatClient(cfg *config.LLMConfig) *ChatClient {
	var apiKey, base, model string
	timeout := 15 * time.Second
	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
		model = cfg.Model
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if base == "" {
		base = os.Getenv("LLM_BASE_URL")
		if base == "" {
			base = defaultBaseURL
		}
	}
	if model == "" {
		model = defaultModel
	}

	return &ChatClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(base, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is available
func (c *ChatClient) Configured() bool {
	return c.apiKey != ""
}

// Model returns the model name sent with every request
func (c *ChatClient) Model() string {
	return c.model
}

// ChatMessage is one turn of a chat completion prompt
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the server for a JSON object reply
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []ChatMessage   `json:"messages,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completion returned status %d: %s", e.StatusCode, e.Body)
}

// Complete sends messages and returns the assistant content as a JSON object
func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	return c.send(ctx, ChatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
}

// CompleteText is Complete without a response format, for free-form replies
func (c *ChatClient) CompleteText(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	return c.send(ctx, ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
}

func (c *ChatClient) send(ctx context.Context, reqBody ChatRequest) (string, error) {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat completion")
	}
	return cr.Choices[0].Message.Content, nil
}
