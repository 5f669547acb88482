package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/generation"
)

//go:embed prompt.tmpl
var defaultPrompt string

// modelClient is the part of the genai client the generator uses.
type modelClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate quizzes from a topic.
type GeminiGenerator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         modelClient
	model          string

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by the Gemini API. The prompt
// template is read from config.PromptTemplatePath when set, otherwise the
// built-in template is used.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, client modelClient) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	text := defaultPrompt
	if cfg.PromptTemplatePath != "" {
		content, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("quiz").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger.With("component", "gemini_generator"),
		config:         cfg,
		promptTemplate: tmpl,
		client:         client,
		model:          cfg.ModelName,
		sleep:          sleepContext,
	}, nil
}

// GenerateQuiz implements generation.Generator.
func (g *GeminiGenerator) GenerateQuiz(ctx context.Context, topic string, count int) (*domain.Quiz, error) {
	count = min(max(count, 1), domain.MaxGeneratedQuestions)

	prompt, err := g.createPrompt(ctx, topic, count)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, topic, count)
}

func (g *GeminiGenerator) createPrompt(ctx context.Context, topic string, count int) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}
	count = min(max(count, 1), domain.MaxGeneratedQuestions)

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Topic: topic, Count: count}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	g.logger.DebugContext(ctx, "prompt generated",
		"topic_length", len(topic),
		"prompt_length", buf.Len())
	return buf.String(), nil
}

// callGeminiWithRetry calls the model up to MaxRetries+1 times. Call errors
// are treated as transient and retried with exponential backoff and jitter.
// Blocked content and unparseable responses fail immediately.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelay := g.config.RetryDelaySeconds
	if baseDelay < 1 {
		baseDelay = 2
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		resp, err := g.client.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
		if err == nil {
			response, perr := decodeResponse(resp)
			if perr != nil {
				g.logger.WarnContext(ctx, "permanent error occurred, not retrying", "error", perr)
				return nil, perr
			}
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attempt+1)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed", "attempt", attempt+1, "error", err)

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * [0.5, 1.0)
		backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rand.Float64()*0.5) * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds())

		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

func decodeResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(text.String()), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// parseResponse builds a quiz from the model output. Questions of unknown type
// or failing validation are dropped; at least one must remain.
func (g *GeminiGenerator) parseResponse(ctx context.Context, response *ResponseSchema, topic string, count int) (*domain.Quiz, error) {
	questions := make([]domain.Question, 0, len(response.Questions))
	for i, raw := range response.Questions {
		if len(questions) == count {
			break
		}

		question, err := domain.DecodeQuestion(raw)
		if err == nil {
			if _, unknown := question.(domain.UnknownQuestion); unknown {
				err = domain.ErrUnknownVariant
			} else {
				err = domain.ValidateQuestion(question)
			}
		}
		if err != nil {
			g.logger.WarnContext(ctx, "dropping generated question", "index", i, "error", err)
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions in response", generation.ErrInvalidResponse)
	}

	title := strings.TrimSpace(response.Title)
	if title == "" {
		title = topic
	}

	quiz, err := domain.NewQuiz(title, questions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	quiz.Description = response.Description

	g.logger.InfoContext(ctx, "parsed generated quiz",
		"quiz_id", quiz.ID,
		"questions", len(questions),
		"received", len(response.Questions))
	return quiz, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
