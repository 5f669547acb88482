package quiz

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/normalize"
)

// Answer is the closed set of user submissions.
type Answer interface {
	isAnswer()
}

// ChoiceAnswer selects an option by index.
type ChoiceAnswer struct {
	Index int `json:"index"`
}

// BoolAnswer judges a true/false statement.
type BoolAnswer struct {
	Value bool `json:"value"`
}

// TextAnswer is typed free text.
type TextAnswer struct {
	Text string `json:"text"`
}

// MatchAnswer assigns a right item to each left item.
type MatchAnswer struct {
	Pairs map[string]string `json:"pairs"`
}

func (ChoiceAnswer) isAnswer() {}
func (BoolAnswer) isAnswer()   {}
func (TextAnswer) isAnswer()   {}
func (MatchAnswer) isAnswer()  {}

// Evaluation errors
var (
	// ErrUnknownQuestion is returned for questions whose variant is not recognized.
	ErrUnknownQuestion = errors.New("question variant is not supported")

	// ErrAnswerKind is returned when the answer shape does not fit the question.
	ErrAnswerKind = errors.New("answer does not fit question type")
)

// Evaluation is the result of checking one answer.
// For matching questions Matched and Total report partial credit; Correct is
// only set when every pair matches.
type Evaluation struct {
	Correct     bool   `json:"correct"`
	Matched     int    `json:"matched,omitempty"`
	Total       int    `json:"total,omitempty"`
	Expected    string `json:"expected,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Evaluate checks answer against the question's answer key.
func Evaluate(q domain.Question, answer Answer) (Evaluation, error) {
	if answer == nil {
		return Evaluation{}, ErrAnswerKind
	}

	var ev Evaluation
	switch v := q.(type) {
	case domain.SingleChoice:
		a, ok := answer.(ChoiceAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Correct = a.Index == v.CorrectIndex
		ev.Expected = option(v.Options, v.CorrectIndex)
	case domain.MultipleChoice:
		a, ok := answer.(ChoiceAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Correct = a.Index == v.CorrectIndex
		ev.Expected = option(v.Options, v.CorrectIndex)
	case domain.TrueFalse:
		a, ok := answer.(BoolAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Correct = a.Value == v.Correct
		ev.Expected = fmt.Sprintf("%t", v.Correct)
	case domain.FillBlank:
		a, ok := answer.(TextAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Correct = normalize.Matches(a.Text, v.Answer, v.AcceptableAnswers...)
		ev.Expected = v.Answer
	case domain.ListeningPrompt:
		a, ok := answer.(TextAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Correct = normalize.Matches(a.Text, v.Answer, v.AcceptableAnswers...)
		ev.Expected = v.Answer
	case domain.Matching:
		a, ok := answer.(MatchAnswer)
		if !ok {
			return Evaluation{}, answerKindError(q, answer)
		}
		ev.Total = len(v.Pairs)
		for _, pair := range v.Pairs {
			if got, ok := a.Pairs[pair.Left]; ok && got == pair.Right {
				ev.Matched++
			}
		}
		ev.Correct = ev.Total > 0 && ev.Matched == ev.Total
	case domain.UnknownQuestion:
		return Evaluation{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, v.Kind)
	default:
		return Evaluation{}, ErrUnknownQuestion
	}

	ev.Explanation = q.Common().Explanation
	return ev, nil
}

func option(options []string, i int) string {
	if i < 0 || i >= len(options) {
		return ""
	}
	return options[i]
}

func answerKindError(q domain.Question, answer Answer) error {
	return fmt.Errorf("%w: %T for %s", ErrAnswerKind, answer, q.Type())
}
