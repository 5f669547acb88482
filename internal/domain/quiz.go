package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Quiz-specific validation errors
var (
	ErrQuizIDEmpty          = errors.New("quiz ID cannot be empty")
	ErrQuizTitleEmpty       = errors.New("quiz title cannot be empty")
	ErrQuestionTextEmpty    = errors.New("question text cannot be empty")
	ErrQuestionOptions      = errors.New("choice question needs at least two options")
	ErrQuestionCorrectIndex = errors.New("correct index is out of range")
	ErrQuestionAnswerEmpty  = errors.New("question answer cannot be empty")
	ErrQuestionPairsEmpty   = errors.New("matching question needs at least one pair")
	ErrQuestionAudioEmpty   = errors.New("listening question audio text cannot be empty")
)

// QuestionType is the discriminator stored in the "type" field of a question document.
type QuestionType string

// Supported question variants
const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionMatching       QuestionType = "matching"
	QuestionListening      QuestionType = "listening"
)

// Question is the closed set of assessment question variants. Only types in this
// package can satisfy it.
type Question interface {
	Type() QuestionType
	Common() QuestionBase
	isQuestion()
}

// QuestionBase holds the fields every question variant carries.
type QuestionBase struct {
	Text        string `json:"question"`
	Explanation string `json:"explanation,omitempty"`
}

// Common returns the shared question fields.
func (b QuestionBase) Common() QuestionBase { return b }

func (QuestionBase) isQuestion() {}

// SingleChoice is a question with exactly one correct option.
type SingleChoice struct {
	QuestionBase
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Type implements Question.
func (SingleChoice) Type() QuestionType { return QuestionSingleChoice }

// MultipleChoice presents several options; the answer key is a single option index.
type MultipleChoice struct {
	QuestionBase
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Type implements Question.
func (MultipleChoice) Type() QuestionType { return QuestionMultipleChoice }

// TrueFalse is a statement judged true or false.
type TrueFalse struct {
	QuestionBase
	Correct bool `json:"correct"`
}

// Type implements Question.
func (TrueFalse) Type() QuestionType { return QuestionTrueFalse }

// FillBlank expects a free-text answer.
type FillBlank struct {
	QuestionBase
	Answer            string   `json:"answer"`
	AcceptableAnswers []string `json:"acceptable_answers,omitempty"`
}

// Type implements Question.
func (FillBlank) Type() QuestionType { return QuestionFillBlank }

// MatchPair is one left/right association of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Matching asks the user to associate every left item with its right item.
type Matching struct {
	QuestionBase
	Pairs []MatchPair `json:"pairs"`
}

// Type implements Question.
func (Matching) Type() QuestionType { return QuestionMatching }

// ListeningPrompt plays Audio through speech synthesis and expects it typed back.
type ListeningPrompt struct {
	QuestionBase
	Audio             string   `json:"audio"`
	Lang              string   `json:"lang,omitempty"`
	Answer            string   `json:"answer"`
	AcceptableAnswers []string `json:"acceptable_answers,omitempty"`
}

// Type implements Question.
func (ListeningPrompt) Type() QuestionType { return QuestionListening }

// UnknownQuestion keeps a question whose discriminator is not recognized so the
// rest of the document still loads. Engines treat it as an item-scoped failure.
type UnknownQuestion struct {
	QuestionBase
	Kind string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// Type implements Question.
func (q UnknownQuestion) Type() QuestionType { return QuestionType(q.Kind) }

// Quiz is an assessment document: an ordered list of heterogeneous questions.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewQuiz creates a new Quiz with a generated ID and creation timestamps.
// Returns an error if validation fails.
func NewQuiz(title string, questions []Question) (*Quiz, error) {
	now := time.Now().UTC()
	quiz := &Quiz{
		ID:        uuid.New(),
		Title:     title,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	return quiz, nil
}

// Validate checks the quiz and each recognized question.
// Unknown question variants are not validation failures; see UnknownQuestions.
func (q *Quiz) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuizIDEmpty
	}
	if q.Title == "" {
		return ErrQuizTitleEmpty
	}

	for i, question := range q.Questions {
		if err := ValidateQuestion(question); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}

	return nil
}

// UnknownQuestions returns the indexes of questions with an unrecognized variant.
func (q *Quiz) UnknownQuestions() []int {
	var idx []int
	for i, question := range q.Questions {
		if _, ok := question.(UnknownQuestion); ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// ValidateQuestion checks the answer key of a single question.
func ValidateQuestion(question Question) error {
	if question == nil {
		return ErrQuestionTextEmpty
	}

	switch v := question.(type) {
	case SingleChoice:
		return validateChoice(v.Text, v.Options, v.CorrectIndex)
	case MultipleChoice:
		return validateChoice(v.Text, v.Options, v.CorrectIndex)
	case TrueFalse:
		if v.Text == "" {
			return ErrQuestionTextEmpty
		}
	case FillBlank:
		if v.Text == "" {
			return ErrQuestionTextEmpty
		}
		if v.Answer == "" {
			return ErrQuestionAnswerEmpty
		}
	case Matching:
		if v.Text == "" {
			return ErrQuestionTextEmpty
		}
		if len(v.Pairs) == 0 {
			return ErrQuestionPairsEmpty
		}
	case ListeningPrompt:
		if v.Audio == "" {
			return ErrQuestionAudioEmpty
		}
		if v.Answer == "" {
			return ErrQuestionAnswerEmpty
		}
	case UnknownQuestion:
		return nil
	default:
		return ErrUnknownVariant
	}

	return nil
}

func validateChoice(text string, options []string, correct int) error {
	if text == "" {
		return ErrQuestionTextEmpty
	}
	if len(options) < 2 {
		return ErrQuestionOptions
	}
	if correct < 0 || correct >= len(options) {
		return ErrQuestionCorrectIndex
	}
	return nil
}

// quizJSON is the wire shape of a Quiz with undecoded questions.
type quizJSON struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Questions   []json.RawMessage `json:"questions"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MarshalJSON writes each question with its "type" discriminator.
func (q Quiz) MarshalJSON() ([]byte, error) {
	out := quizJSON{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]json.RawMessage, 0, len(q.Questions)),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}

	for i, question := range q.Questions {
		raw, err := EncodeQuestion(question)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out.Questions = append(out.Questions, raw)
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes questions by their "type" discriminator.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	var in quizJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	questions := make([]Question, 0, len(in.Questions))
	for i, raw := range in.Questions {
		question, err := DecodeQuestion(raw)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, question)
	}

	*q = Quiz{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Questions:   questions,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	return nil
}

// EncodeQuestion marshals a question variant with its "type" discriminator.
func EncodeQuestion(question Question) (json.RawMessage, error) {
	switch v := question.(type) {
	case SingleChoice:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			SingleChoice
		}{v.Type(), v})
	case MultipleChoice:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			MultipleChoice
		}{v.Type(), v})
	case TrueFalse:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			TrueFalse
		}{v.Type(), v})
	case FillBlank:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			FillBlank
		}{v.Type(), v})
	case Matching:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			Matching
		}{v.Type(), v})
	case ListeningPrompt:
		return json.Marshal(struct {
			Type QuestionType `json:"type"`
			ListeningPrompt
		}{v.Type(), v})
	case UnknownQuestion:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			QuestionBase
		}{v.Kind, v.QuestionBase})
	default:
		return nil, ErrUnknownVariant
	}
}

// DecodeQuestion unmarshals a question document into its variant.
// Unrecognized discriminators decode to UnknownQuestion rather than failing.
func DecodeQuestion(raw json.RawMessage) (Question, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	switch QuestionType(head.Type) {
	case QuestionSingleChoice:
		var v SingleChoice
		err := decodeInto(raw, &v)
		return v, err
	case QuestionMultipleChoice:
		var v MultipleChoice
		err := decodeInto(raw, &v)
		return v, err
	case QuestionTrueFalse:
		var v TrueFalse
		err := decodeInto(raw, &v)
		return v, err
	case QuestionFillBlank:
		var v FillBlank
		err := decodeInto(raw, &v)
		return v, err
	case QuestionMatching:
		var v Matching
		err := decodeInto(raw, &v)
		return v, err
	case QuestionListening:
		var v ListeningPrompt
		err := decodeInto(raw, &v)
		return v, err
	default:
		var base QuestionBase
		if err := decodeInto(raw, &base); err != nil {
			return nil, err
		}
		return UnknownQuestion{QuestionBase: base, Kind: head.Type, Raw: raw}, nil
	}
}

func decodeInto(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}
