package gemini

import (
	"encoding/json"

	"google.golang.org/genai"
)

// promptData represents the data passed to the prompt template
type promptData struct {
	Topic string
	Count int
}

// ResponseSchema is the JSON document the model is asked to return.
type ResponseSchema struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Questions   []json.RawMessage `json:"questions"`
}

// responseSchema describes ResponseSchema to the model. Question objects carry
// the union of the variant fields; the domain codec picks what each type needs.
func responseSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       str,
			"description": str,
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type": {
							Type: genai.TypeString,
							Enum: []string{"single_choice", "multiple_choice", "true_false", "fill_blank"},
						},
						"question":           str,
						"explanation":        str,
						"options":            {Type: genai.TypeArray, Items: str},
						"correct_index":      {Type: genai.TypeInteger},
						"correct":            {Type: genai.TypeBoolean},
						"answer":             str,
						"acceptable_answers": {Type: genai.TypeArray, Items: str},
					},
					Required: []string{"type", "question"},
				},
			},
		},
		Required: []string{"title", "questions"},
	}
}
