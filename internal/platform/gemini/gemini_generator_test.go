package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/scry-activities/internal/config"
	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/generation"
)

type fakeClient struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	prompts   []string
	configs   []*genai.GenerateContentConfig
}

func (f *fakeClient) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	f.configs = append(f.configs, cfg)

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("unexpected call")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

const quizJSON = `{
	"title": "Photosynthesis",
	"questions": [
		{"type": "single_choice", "question": "Where does it happen?", "options": ["Chloroplast", "Nucleus"], "correct_index": 0},
		{"type": "true_false", "question": "Plants release oxygen.", "correct": true},
		{"type": "essay", "question": "Discuss."},
		{"type": "single_choice", "question": "Broken", "options": ["only one"], "correct_index": 0},
		{"type": "fill_blank", "question": "Light energy becomes ___ energy.", "answer": "chemical"}
	]
}`

func newTestGenerator(t *testing.T, client modelClient, cfg config.LLMConfig) *GeminiGenerator {
	t.Helper()

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-test"
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := newGenerator(logger, cfg, client)
	require.NoError(t, err)
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestGenerateQuiz(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []*genai.GenerateContentResponse{textResponse(quizJSON)}}
	g := newTestGenerator(t, client, config.LLMConfig{MaxRetries: 2, RetryDelaySeconds: 1})

	quiz, err := g.GenerateQuiz(context.Background(), "photosynthesis", 10)
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis", quiz.Title)
	require.Len(t, quiz.Questions, 3)
	assert.IsType(t, domain.SingleChoice{}, quiz.Questions[0])
	assert.IsType(t, domain.TrueFalse{}, quiz.Questions[1])
	assert.IsType(t, domain.FillBlank{}, quiz.Questions[2])
	assert.NoError(t, quiz.Validate())

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Write a quiz about: photosynthesis")
	assert.Contains(t, client.prompts[0], "exactly 10 questions")
	assert.Equal(t, "application/json", client.configs[0].ResponseMIMEType)
}

func TestGenerateQuizCapsQuestionCount(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []*genai.GenerateContentResponse{textResponse(quizJSON)}}
	g := newTestGenerator(t, client, config.LLMConfig{})

	quiz, err := g.GenerateQuiz(context.Background(), "photosynthesis", 1)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 1)
}

func TestGenerateQuizRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		errs:      []error{errors.New("503 unavailable"), errors.New("timeout")},
		responses: []*genai.GenerateContentResponse{nil, nil, textResponse(quizJSON)},
	}
	g := newTestGenerator(t, client, config.LLMConfig{MaxRetries: 2, RetryDelaySeconds: 1})

	var delays []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := g.GenerateQuiz(context.Background(), "tides", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], 500*time.Millisecond)
	assert.Less(t, delays[0], time.Second)
	assert.GreaterOrEqual(t, delays[1], time.Second)
	assert.Less(t, delays[1], 2*time.Second)
}

func TestGenerateQuizGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	fail := errors.New("unavailable")
	client := &fakeClient{errs: []error{fail, fail}}
	g := newTestGenerator(t, client, config.LLMConfig{MaxRetries: 1, RetryDelaySeconds: 1})

	_, err := g.GenerateQuiz(context.Background(), "tides", 3)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 2, client.calls)
}

func TestGenerateQuizPermanentErrors(t *testing.T) {
	t.Parallel()

	blocked := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}

	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		expected error
	}{
		{name: "safety block", resp: blocked, expected: generation.ErrContentBlocked},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, expected: generation.ErrInvalidResponse},
		{name: "not json", resp: textResponse("Sure! Here is a quiz"), expected: generation.ErrInvalidResponse},
		{name: "no usable questions", resp: textResponse(`{"title":"x","questions":[{"type":"essay","question":"?"}]}`), expected: generation.ErrInvalidResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{responses: []*genai.GenerateContentResponse{tc.resp}}
			g := newTestGenerator(t, client, config.LLMConfig{MaxRetries: 3, RetryDelaySeconds: 1})

			_, err := g.GenerateQuiz(context.Background(), "tides", 3)
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, 1, client.calls)
		})
	}
}

func TestGenerateQuizEmptyTopic(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	g := newTestGenerator(t, client, config.LLMConfig{})

	_, err := g.GenerateQuiz(context.Background(), "   ", 3)
	assert.ErrorIs(t, err, ErrEmptyTopic)
	assert.Zero(t, client.calls)
}

func TestNewGeneratorConfig(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := newGenerator(logger, config.LLMConfig{}, &fakeClient{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = newGenerator(logger, config.LLMConfig{ModelName: "m", PromptTemplatePath: "/does/not/exist"}, &fakeClient{})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Quiz on {{.Topic}} ({{.Count}})"), 0o600))
	g, err := newGenerator(logger, config.LLMConfig{ModelName: "m", PromptTemplatePath: path}, &fakeClient{})
	require.NoError(t, err)

	prompt, err := g.createPrompt(context.Background(), "rivers", 500)
	require.NoError(t, err)
	assert.Equal(t, "Quiz on rivers (50)", strings.TrimSpace(prompt))

	_, err = NewGeminiGenerator(context.Background(), logger, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
