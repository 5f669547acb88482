package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		SingleChoice{QuestionBase: QuestionBase{Text: "Capital of France?"}, Options: []string{"Paris", "Rome"}, CorrectIndex: 0},
		MultipleChoice{QuestionBase: QuestionBase{Text: "Largest planet?"}, Options: []string{"Mars", "Jupiter", "Venus"}, CorrectIndex: 1},
		TrueFalse{QuestionBase: QuestionBase{Text: "Water boils at 100C", Explanation: "At sea level."}, Correct: true},
		FillBlank{QuestionBase: QuestionBase{Text: "Coffee in French"}, Answer: "Café", AcceptableAnswers: []string{"un café"}},
		Matching{QuestionBase: QuestionBase{Text: "Match"}, Pairs: []MatchPair{{Left: "dog", Right: "perro"}}},
		ListeningPrompt{QuestionBase: QuestionBase{Text: "Type what you hear"}, Audio: "hola", Lang: "es-ES", Answer: "hola"},
	}
}

func TestNewQuiz(t *testing.T) {
	t.Parallel()

	quiz, err := NewQuiz("Basics", sampleQuestions())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, quiz.ID)
	assert.Len(t, quiz.Questions, 6)
	assert.False(t, quiz.CreatedAt.IsZero())

	_, err = NewQuiz("", sampleQuestions())
	assert.ErrorIs(t, err, ErrQuizTitleEmpty)
}

func TestValidateQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		question Question
		want     error
	}{
		{"too few options", SingleChoice{QuestionBase: QuestionBase{Text: "q"}, Options: []string{"a"}}, ErrQuestionOptions},
		{"index out of range", MultipleChoice{QuestionBase: QuestionBase{Text: "q"}, Options: []string{"a", "b"}, CorrectIndex: 2}, ErrQuestionCorrectIndex},
		{"missing text", TrueFalse{}, ErrQuestionTextEmpty},
		{"missing answer", FillBlank{QuestionBase: QuestionBase{Text: "q"}}, ErrQuestionAnswerEmpty},
		{"no pairs", Matching{QuestionBase: QuestionBase{Text: "q"}}, ErrQuestionPairsEmpty},
		{"no audio", ListeningPrompt{Answer: "x"}, ErrQuestionAudioEmpty},
		{"unknown is tolerated", UnknownQuestion{Kind: "essay"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateQuestion(tc.question)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestQuizJSONRoundTrip(t *testing.T) {
	t.Parallel()

	quiz, err := NewQuiz("Basics", sampleQuestions())
	require.NoError(t, err)

	data, err := json.Marshal(quiz)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"fill_blank"`)
	assert.Contains(t, string(data), `"question":"Capital of France?"`)

	var decoded Quiz
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, quiz.Questions, decoded.Questions)
	assert.Equal(t, quiz.ID, decoded.ID)
}

func TestDecodeQuestionUnknownVariant(t *testing.T) {
	t.Parallel()

	doc := `{"id":"` + uuid.NewString() + `","title":"t","questions":[
		{"type":"essay","question":"Describe Go"},
		{"type":"true_false","question":"Go has generics","correct":true}
	]}`

	var quiz Quiz
	require.NoError(t, json.Unmarshal([]byte(doc), &quiz))
	require.Len(t, quiz.Questions, 2)

	unknown, ok := quiz.Questions[0].(UnknownQuestion)
	require.True(t, ok)
	assert.Equal(t, QuestionType("essay"), unknown.Type())
	assert.Equal(t, "Describe Go", unknown.Text)
	assert.Equal(t, []int{0}, quiz.UnknownQuestions())

	tf, ok := quiz.Questions[1].(TrueFalse)
	require.True(t, ok)
	assert.True(t, tf.Correct)

	// Unknown questions are written back unchanged.
	raw, err := EncodeQuestion(unknown)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"essay","question":"Describe Go"}`, string(raw))
}

func TestDecodeQuestionMalformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeQuestion(json.RawMessage(`{"type":"single_choice","options":"nope"}`))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
