package domain

// ContentType identifies one of the three kinds of guided session content.
type ContentType string

// Supported content types
const (
	ContentTypeQuiz      ContentType = "quiz"
	ContentTypeWorkout   ContentType = "workout"
	ContentTypeListening ContentType = "listening"
)

// Valid reports whether the content type is one of the supported kinds.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeQuiz, ContentTypeWorkout, ContentTypeListening:
		return true
	default:
		return false
	}
}

// ParseContentType converts a string into a ContentType.
// Returns ErrInvalidContentType if the value is not supported.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.Valid() {
		return "", ErrInvalidContentType
	}
	return t, nil
}
