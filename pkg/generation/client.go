package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// ChatRequest carries one chat completion invocation.
type ChatRequest struct {
	SystemMessage string
	UserMessage   string
	Temperature   float64
	MaxTokens     int
}

// ChatClient is the remote chat completion contract.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Model() string
}

// OpenAIChatClient calls an OpenAI-compatible chat completions endpoint.
// Calls are wrapped in a circuit breaker but never retried: a failed
// generation call goes straight to the local template fallback, keeping
// cost and latency bounded.
type OpenAIChatClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// OpenAIChatConfig configures the chat client.
type OpenAIChatConfig struct {
	APIKey         string
	Endpoint       string
	Model          string
	RequestTimeout time.Duration
}

// NewOpenAIChatClient creates the chat client. A missing API key is a
// configuration error surfaced once, here.
func NewOpenAIChatClient(cfg OpenAIChatConfig) (*OpenAIChatClient, error) {
	if cfg.APIKey == "" {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "generation.NewOpenAIChatClient",
			fmt.Errorf("OpenAI API key is required"))
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chat-completions",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OpenAIChatClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    100,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		breaker: breaker,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIChatClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return "", types.NewPipelineError(types.ErrKindGeneration, "generation.Complete", err)
	}
	return result.(string), nil
}

func (c *OpenAIChatClient) complete(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemMessage},
			{Role: "user", Content: req.UserMessage},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAIChatClient) Model() string { return c.model }
