package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
)

var (
	ErrAIUnavailable   = errors.New("no AI provider available")
	ErrEmptyCompletion = errors.New("no response from AI")
)

const (
	interpretSystemPrompt = "You are an expert in dream interpretation. Analyze this dream and give a short symbolic and psychological interpretation (3-4 sentences maximum). Answer in the language the dream is written in."

	recommendSystemPrompt = "You are a life coach specialized in dream interpretation. Based on this dream, give 3-4 practical and positive recommendations for the person's daily life. Each recommendation must be short (one sentence) and start with an action verb. Reply only with the recommendations, one per line, without numbering. Answer in the language the dream is written in."
)

// ChatProvider is an OpenAI-compatible chat-completions endpoint.
type ChatProvider struct {
	Name   string
	URL    string
	APIKey string
	Model  string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AIService interprets dreams through chat providers, trying each in order
// until one answers.
type AIService struct {
	providers []ChatProvider
	client    *http.Client
}

// NewAIService configures GLM as the primary provider and DeepSeek as the
// fallback. Providers without an API key are skipped.
func NewAIService(cfg *config.Config) *AIService {
	var providers []ChatProvider
	if cfg.GLMAPIKey != "" {
		providers = append(providers, ChatProvider{Name: "glm", URL: cfg.GLMAPIURL, APIKey: cfg.GLMAPIKey, Model: cfg.GLMModel})
	}
	if cfg.DeepSeekAPIKey != "" {
		providers = append(providers, ChatProvider{Name: "deepseek", URL: cfg.DeepSeekAPIURL, APIKey: cfg.DeepSeekAPIKey, Model: cfg.DeepSeekModel})
	}
	return NewAIServiceWithProviders(providers, cfg.AITimeout)
}

func NewAIServiceWithProviders(providers []ChatProvider, timeout time.Duration) *AIService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AIService{
		providers: providers,
		client:    &http.Client{Timeout: timeout},
	}
}

// Available reports whether at least one provider is configured.
func (s *AIService) Available() bool {
	return len(s.providers) > 0
}

func (s *AIService) Interpret(ctx context.Context, title, content, mood string) (string, error) {
	return s.complete(ctx, interpretSystemPrompt, dreamPrompt(title, content, mood))
}

func (s *AIService) Recommend(ctx context.Context, title, content, mood string) ([]string, error) {
	text, err := s.complete(ctx, recommendSystemPrompt, dreamPrompt(title, content, mood))
	if err != nil {
		return nil, err
	}
	recs := ParseRecommendations(text)
	if len(recs) == 0 {
		return nil, ErrEmptyCompletion
	}
	return recs, nil
}

func dreamPrompt(title, content, mood string) string {
	return fmt.Sprintf("Title: %s\n\nDescription: %s\n\nMood: %s", title, content, mood)
}

// listMarker matches a leading bullet or "1." / "1)" numbering. A bare
// number is part of the sentence.
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// ParseRecommendations splits a completion into one recommendation per
// line, dropping blank lines and list markers.
func ParseRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs
}

func (s *AIService) complete(ctx context.Context, system, user string) (string, error) {
	if len(s.providers) == 0 {
		return "", ErrAIUnavailable
	}

	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	var errs []error
	for _, p := range s.providers {
		text, err := s.completeWith(ctx, p, messages)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("chat provider failed", "provider", p.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return "", fmt.Errorf("%w: %w", ErrAIUnavailable, errors.Join(errs...))
}

func (s *AIService) completeWith(ctx context.Context, p ChatProvider, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: p.Model, Messages: messages, Temperature: 0.7})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("AI API error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := stripFences(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.ContainsAny(content[:nl], " \t") {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
