// Package gemini implements the ai.Provider boundary on top of the Google
// GenAI API. A hosted model never needs a download, so availability is a
// question of configuration only.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/galiprandi/dimensions/internal/ai"
	"github.com/galiprandi/dimensions/internal/logger"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel = "gemini-2.5-flash"

	defaultMaxLogLength = 500
)

// Provider is an ai.Provider backed by the Gemini API.
type Provider struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger

	// MaxLogLength caps model output in debug logs.
	MaxLogLength int
}

// New creates a Provider configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Provider{
		client:       client,
		modelName:    model,
		logger:       logger,
		MaxLogLength: defaultMaxLogLength,
	}, nil
}

func (p *Provider) maxLogLength() int {
	if p.MaxLogLength > 0 {
		return p.MaxLogLength
	}
	return defaultMaxLogLength
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	if p == nil {
		return ""
	}
	return p.modelName
}

// Availability reports Available when a client is configured. A hosted model
// is never Downloadable.
func (p *Provider) Availability(_ context.Context, _ ai.SessionOptions) (ai.Availability, error) {
	if p == nil || p.client == nil {
		return ai.Unavailable, nil
	}
	return ai.Available, nil
}

// Create opens a session. Prompts sent to the session share conversation
// history, matching the session semantics of the pipeline.
func (p *Provider) Create(ctx context.Context, opts ai.SessionOptions, _ func(float64)) (ai.Session, error) {
	availability, err := p.Availability(ctx, opts)
	if err != nil {
		return nil, err
	}
	if availability == ai.Unavailable {
		return nil, ai.ErrModelUnavailable
	}

	return &session{provider: p}, nil
}

type session struct {
	provider *Provider

	mu        sync.Mutex
	history   []*genai.Content
	destroyed bool
}

func (s *session) Prompt(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("prompt must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return "", errors.New("session is destroyed")
	}

	contents := append(s.history, genai.NewContentFromText(text, genai.RoleUser))

	resp, err := s.provider.client.Models.GenerateContent(ctx, s.provider.modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	s.history = append(contents, genai.NewContentFromText(output, genai.RoleModel))

	s.provider.logger.Debug("model reply",
		zap.String("model", s.provider.modelName),
		zap.String("output", logger.Truncate(output, s.provider.maxLogLength())),
	)

	return output, nil
}

func (s *session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.history = nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
