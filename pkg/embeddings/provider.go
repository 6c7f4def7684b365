package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Provider generates embeddings for a batch of texts, returning one vector
// per input in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
	Dimensions() int
}

// OpenAIProvider calls an OpenAI-compatible embeddings endpoint.
type OpenAIProvider struct {
	apiKey     string
	endpoint   string
	model      string
	dimensions int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// OpenAIProviderConfig configures the remote embedding provider.
type OpenAIProviderConfig struct {
	APIKey         string
	Endpoint       string
	Model          string
	Dimensions     int
	RequestTimeout time.Duration
	RateLimit      int // requests per minute, 0 disables limiting
}

// NewOpenAIProvider creates the remote embedding provider. A missing API
// key is a configuration error surfaced here, once, rather than per call.
func NewOpenAIProvider(cfg OpenAIProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "embeddings.NewOpenAIProvider",
			fmt.Errorf("OpenAI API key is required"))
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1/embeddings"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), cfg.RateLimit/10+1)
	}

	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    100,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		limiter: limiter,
	}, nil
}

type openAIEmbeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed", err)
		}
	}

	body, err := json.Marshal(openAIEmbeddingRequest{
		Input:      texts,
		Model:      p.model,
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindInternal, "embeddings.Embed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindInternal, "embeddings.Embed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed",
			fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(payload)))
	}

	var parsed openAIEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed",
			fmt.Errorf("decoding embedding response: %w", err))
	}
	if len(parsed.Data) != len(texts) {
		return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed",
			fmt.Errorf("embedding endpoint returned %d vectors for %d inputs", len(parsed.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, types.NewPipelineError(types.ErrKindTransientConnection, "embeddings.Embed",
				fmt.Errorf("embedding endpoint returned out-of-range index %d", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

func (p *OpenAIProvider) Name() string    { return "openai:" + p.model }
func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

// LocalProvider computes embeddings locally with a hashed bag-of-words
// projection. It is deterministic, needs no network, and stands in for
// the remote provider when that is unreachable. The vectors are far
// weaker than model embeddings but keep semantic search functional in
// degraded mode.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider creates the local fallback embedder.
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &LocalProvider{dimensions: dimensions}
}

func (p *LocalProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.encodeOne(text)
	}
	return vectors, nil
}

func (p *LocalProvider) encodeOne(text string) []float32 {
	vec := make([]float32, p.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]\"'")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum % uint32(p.dimensions))
		// Alternate sign by a second hash bit to spread mass.
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func (p *LocalProvider) Name() string    { return "local:hashed-bow" }
func (p *LocalProvider) Dimensions() int { return p.dimensions }
