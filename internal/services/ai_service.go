package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

// ErrGeneration wraps every failure of the text generator.
var ErrGeneration = errors.New("generation failed")

type RequestPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"` // "user" or "system"
	Content string `json:"content"`
}

type ApiResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type AIConfig struct {
	APIKey           string
	Model            string
	BaseURL          string  // e.g. https://openrouter.ai/api/v1
	MaxTokensPerTurn int     // used when a request does not set MaxTokens
	RequestsPerSec   float64 // client side throttle, 0 disables it
	HTTPClient       *http.Client
}

// AIService talks to an OpenAI-compatible chat completions endpoint.
type AIService struct {
	cfg     AIConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewAIService(cfg AIConfig) (*AIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not found in environment")
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-chat-v3.1:free"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	s := &AIService{cfg: cfg, client: client}
	if cfg.RequestsPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	return s, nil
}

// Generate sends one system+user exchange and returns the reply text.
func (s *AIService) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrGeneration, err)
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxTokensPerTurn
	}
	payload := RequestPayload{
		Model: s.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrGeneration, resp.StatusCode, snippet(body))
	}

	var apiResponse ApiResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrGeneration, err)
	}
	if apiResponse.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrGeneration, apiResponse.Error.Message)
	}
	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices received", ErrGeneration)
	}
	return apiResponse.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
