// Package gemini provides a headline sentiment scorer backed by the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
)

const DefaultModel = "gemini-2.0-flash"

// generateFunc produces model text for a prompt
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client implements interfaces.SentimentScorer
type Client struct {
	client   *genai.Client
	model    string
	logger   *common.Logger
	generate generateFunc
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}
	c.generate = c.generateContent

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// generateContent runs a single-turn prompt with deterministic sampling
func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Msg("Generating content")

	temperature := float32(0)
	config := &genai.GenerateContentConfig{Temperature: &temperature}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}

// Score asks the model for the polarity of text and returns it clamped to [-1, 1]
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}

	reply, err := c.generate(ctx, buildSentimentPrompt(text))
	if err != nil {
		return 0, err
	}

	score, err := parseScore(reply)
	if err != nil {
		c.logger.Warn().Str("reply", reply).Err(err).Msg("Unparseable sentiment reply")
		return 0, err
	}
	return score, nil
}

func buildSentimentPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("You are a financial news sentiment classifier.\n")
	sb.WriteString("Rate the sentiment of the following headline for the company's stock price ")
	sb.WriteString("on a scale from -1 (very negative) to 1 (very positive), 0 being neutral.\n")
	sb.WriteString("Reply with the number only.\n\n")
	sb.WriteString("Headline: ")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// parseScore extracts the first number from a model reply
func parseScore(reply string) (float64, error) {
	match := numberPattern.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("no score in reply %q", reply)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid score %q", match)
	}
	return math.Max(-1, math.Min(1, v)), nil
}

// Ensure Client implements SentimentScorer
var _ interfaces.SentimentScorer = (*Client)(nil)
