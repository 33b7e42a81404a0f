package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"growthquest/internal/engine"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("model returned no text")

// Client talks to the Gemini API. It implements engine.Analyzer and
// engine.QuestGenerator.
type Client struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func New(ctx context.Context, apiKey, model string, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "llm").Str("model", model).Logger(),
	}, nil
}

func (c *Client) Name() string {
	return fmt.Sprintf("genai:%s", c.model)
}

func (c *Client) Analyze(ctx context.Context, req engine.AnalysisRequest) (string, error) {
	return c.generate(ctx, "analysis", AnalysisPrompt(req), 0.4)
}

func (c *Client) GenerateQuests(ctx context.Context, req engine.QuestRequest) (string, error) {
	return c.generate(ctx, "quests", QuestPrompt(req), 0.9)
}

func (c *Client) generate(ctx context.Context, purpose, prompt string, temperature float32) (string, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("purpose", purpose).Dur("elapsed", time.Since(start)).Msg("generate failed")
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug().Str("purpose", purpose).Int("chars", len(text)).Dur("elapsed", time.Since(start)).Msg("generate ok")
	return text, nil
}

var (
	_ engine.Analyzer       = (*Client)(nil)
	_ engine.QuestGenerator = (*Client)(nil)
)
