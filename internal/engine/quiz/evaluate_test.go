package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-activities/internal/domain"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	single := domain.SingleChoice{QuestionBase: domain.QuestionBase{Text: "2+2?", Explanation: "Basic sums."}, Options: []string{"3", "4"}, CorrectIndex: 1}
	multi := domain.MultipleChoice{QuestionBase: domain.QuestionBase{Text: "Pick"}, Options: []string{"a", "b", "c"}, CorrectIndex: 2}
	tf := domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "Sky is blue"}, Correct: true}
	fill := domain.FillBlank{QuestionBase: domain.QuestionBase{Text: "Coffee in French"}, Answer: "Café", AcceptableAnswers: []string{"un café"}}
	listen := domain.ListeningPrompt{QuestionBase: domain.QuestionBase{Text: "Type it"}, Audio: "¿Qué tal?", Answer: "¿Qué tal?"}
	match := domain.Matching{QuestionBase: domain.QuestionBase{Text: "Match"}, Pairs: []domain.MatchPair{
		{Left: "dog", Right: "perro"},
		{Left: "cat", Right: "gato"},
	}}

	tests := []struct {
		name     string
		question domain.Question
		answer   Answer
		correct  bool
	}{
		{"single correct", single, ChoiceAnswer{Index: 1}, true},
		{"single wrong", single, ChoiceAnswer{Index: 0}, false},
		{"multiple correct", multi, ChoiceAnswer{Index: 2}, true},
		{"true false", tf, BoolAnswer{Value: true}, true},
		{"true false wrong", tf, BoolAnswer{Value: false}, false},
		{"fill accent folded", fill, TextAnswer{Text: "cafe"}, true},
		{"fill wrong word", fill, TextAnswer{Text: "coffee"}, false},
		{"fill acceptable answer", fill, TextAnswer{Text: "Un Cafe!"}, true},
		{"listening punctuation", listen, TextAnswer{Text: "que tal"}, true},
		{"matching all", match, MatchAnswer{Pairs: map[string]string{"dog": "perro", "cat": "gato"}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ev, err := Evaluate(tc.question, tc.answer)
			require.NoError(t, err)
			assert.Equal(t, tc.correct, ev.Correct)
		})
	}

	ev, err := Evaluate(single, ChoiceAnswer{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "4", ev.Expected)
	assert.Equal(t, "Basic sums.", ev.Explanation)
}

func TestEvaluateMatchingPartialCredit(t *testing.T) {
	t.Parallel()

	match := domain.Matching{QuestionBase: domain.QuestionBase{Text: "Match"}, Pairs: []domain.MatchPair{
		{Left: "dog", Right: "perro"},
		{Left: "cat", Right: "gato"},
		{Left: "bird", Right: "pájaro"},
	}}

	ev, err := Evaluate(match, MatchAnswer{Pairs: map[string]string{"dog": "perro", "cat": "pájaro", "bird": "gato"}})
	require.NoError(t, err)
	assert.False(t, ev.Correct)
	assert.Equal(t, 1, ev.Matched)
	assert.Equal(t, 3, ev.Total)
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(domain.UnknownQuestion{Kind: "essay"}, TextAnswer{Text: "x"})
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = Evaluate(domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "q"}}, ChoiceAnswer{Index: 0})
	assert.ErrorIs(t, err, ErrAnswerKind)

	_, err = Evaluate(domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "q"}}, nil)
	assert.ErrorIs(t, err, ErrAnswerKind)
}

func TestMistakeSetDeduplicates(t *testing.T) {
	t.Parallel()

	m := NewMistakeSet()
	assert.True(t, m.Add(domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "Is it Café?"}}))
	assert.False(t, m.Add(domain.FillBlank{QuestionBase: domain.QuestionBase{Text: "is it cafe"}, Answer: "x"}))
	assert.True(t, m.Add(domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "Another"}}))
	assert.Equal(t, 2, m.Len())

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.True(t, m.Add(domain.TrueFalse{QuestionBase: domain.QuestionBase{Text: "Is it Café?"}}))
}
