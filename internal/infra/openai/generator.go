package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"daily-trivia-service/internal/domain"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	DefaultModel       = goopenai.GPT4oMini
	DefaultTemperature = 0.8
	defaultMaxTokens   = 2000
	systemPrompt       = "You are a trivia question generator. Always respond with valid JSON only, no additional text."
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("openai client not configured")

// Config selects the model and endpoint.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
}

// Generator asks a chat completion model for a day's question set. It only
// parses the reply; validation of the set belongs to the caller.
type Generator struct {
	client      *goopenai.Client
	model       string
	temperature float32
	log         logrus.FieldLogger
}

func NewGenerator(cfg Config, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Generator{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.temperature == 0 {
		g.temperature = DefaultTemperature
	}
	if cfg.APIKey != "" {
		clientCfg := goopenai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		g.client = goopenai.NewClientWithConfig(clientCfg)
	}
	return g
}

func (g *Generator) Generate(ctx context.Context, count int) ([]domain.GeneratedQuestion, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}

	g.log.WithFields(logrus.Fields{"model": g.model, "count": count}).Info("requesting trivia questions")
	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: Prompt(count)},
		},
		Temperature: g.temperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.New("no content received from model")
	}

	questions, err := ParseQuestions(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	g.log.WithField("count", len(questions)).Info("received trivia questions")
	return questions, nil
}

// ParseQuestions decodes a JSON array of questions, tolerating a surrounding
// markdown code fence.
func ParseQuestions(content string) ([]domain.GeneratedQuestion, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	var questions []domain.GeneratedQuestion
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return questions, nil
}

// Prompt is the user message sent to the model.
func Prompt(count int) string {
	return fmt.Sprintf(promptTemplate, count)
}

const promptTemplate = `Generate %d challenging yet fair trivia questions for a daily quiz. Create questions that make people think, not just recall basic facts.

REQUIREMENTS:
1. DIFFICULTY: Medium-Hard (6/10 difficulty) - should challenge educated adults
2. CATEGORIES: Choose from these diverse categories:
   - Science & Technology (space, physics, biology, computing, innovations)
   - History & Politics (lesser-known events, historical figures, political systems)
   - Arts & Culture (literature, music, art movements, cultural phenomena)
   - Geography & Nature (unusual places, geological features, ecosystems)
   - Sports & Entertainment (records, behind-the-scenes facts, industry knowledge)
   - Current Events & Society (recent developments, social movements, economics)

3. QUESTION TYPES - Mix these styles:
   - Cause & Effect: "What phenomenon causes..."
   - Lesser-known Facts: "Which country was the first to..."
   - Technical Details: "In computing, what does..."
   - Historical Context: "What event led to..."
   - Scientific Principles: "What happens when..."

4. AVOID these overused topics:
   - Capital cities of major countries
   - Basic historical dates
   - Common scientific facts
   - Basic pop culture

5. ANSWER OPTIONS:
   - Exactly 4 options, all plausible to someone unfamiliar with the topic
   - Avoid obvious wrong answers
   - The correct answer must appear verbatim among the options

Format as valid JSON array:
[
  {
    "question": "Your challenging question here",
    "options": ["Correct answer", "Plausible wrong 1", "Plausible wrong 2", "Plausible wrong 3"],
    "correctAnswer": "Correct answer",
    "category": "Specific category"
  }
]`
