package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Section header markers. A pair whose texts are all wrapped in these markers
// is announced as a section title and never scored.
const (
	SectionOpen  = "[["
	SectionClose = "]]"
)

// Listening-specific validation errors
var (
	ErrListeningIDEmpty    = errors.New("listening set ID cannot be empty")
	ErrListeningTitleEmpty = errors.New("listening set title cannot be empty")
	ErrPairEmpty           = errors.New("pair must have at least one entry")
	ErrPairLangEmpty       = errors.New("pair entry language cannot be empty")
	ErrPairTextEmpty       = errors.New("pair entry text cannot be empty")
)

// PairEntry is one language rendition of a pair.
type PairEntry struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
}

// Pair is an ordered mapping from language to text.
//
// On the wire a pair is either a list of entries or an object keyed by language;
// object keys keep their document order.
type Pair struct {
	Entries []PairEntry
}

// NewPair builds a pair from alternating language/text arguments.
func NewPair(langText ...string) Pair {
	p := Pair{Entries: make([]PairEntry, 0, len(langText)/2)}
	for i := 0; i+1 < len(langText); i += 2 {
		p.Entries = append(p.Entries, PairEntry{Lang: langText[i], Text: langText[i+1]})
	}
	return p
}

// Text returns the rendition for lang and whether it exists.
func (p Pair) Text(lang string) (string, bool) {
	for _, e := range p.Entries {
		if e.Lang == lang {
			return e.Text, true
		}
	}
	return "", false
}

// Langs returns the languages of the pair in document order.
func (p Pair) Langs() []string {
	langs := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		langs = append(langs, e.Lang)
	}
	return langs
}

// IsSectionHeader reports whether every entry is wrapped in the section markers.
func (p Pair) IsSectionHeader() bool {
	if len(p.Entries) == 0 {
		return false
	}
	for _, e := range p.Entries {
		if !isMarked(e.Text) {
			return false
		}
	}
	return true
}

// HeaderText strips the section markers from text. Unmarked text is returned trimmed.
func HeaderText(text string) string {
	t := strings.TrimSpace(text)
	if !isMarked(t) {
		return t
	}
	return strings.TrimSpace(t[len(SectionOpen) : len(t)-len(SectionClose)])
}

func isMarked(text string) bool {
	t := strings.TrimSpace(text)
	return len(t) >= len(SectionOpen)+len(SectionClose) &&
		strings.HasPrefix(t, SectionOpen) &&
		strings.HasSuffix(t, SectionClose)
}

// MarshalJSON writes the pair as a list of entries.
func (p Pair) MarshalJSON() ([]byte, error) {
	entries := p.Entries
	if entries == nil {
		entries = []PairEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON accepts a list of entries or an object keyed by language.
func (p *Pair) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []PairEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		p.Entries = entries
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: pair must be an array or object", ErrInvalidFormat)
	}

	var entries []PairEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		key, _ := keyTok.(string)

		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("%w: pair entry %q: %v", ErrInvalidFormat, key, err)
		}
		entries = append(entries, PairEntry{Lang: key, Text: text})
	}

	p.Entries = entries
	return nil
}

// ListeningSet is a bilingual audio drill: an ordered list of pairs.
// Languages is the default announcement order; when empty the order of each
// pair's entries is used.
type ListeningSet struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Languages   []string  `json:"languages,omitempty"`
	Pairs       []Pair    `json:"pairs"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewListeningSet creates a new ListeningSet with a generated ID and timestamps.
func NewListeningSet(title string, languages []string, pairs []Pair) (*ListeningSet, error) {
	now := time.Now().UTC()
	set := &ListeningSet{
		ID:        uuid.New(),
		Title:     title,
		Languages: languages,
		Pairs:     pairs,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	return set, nil
}

// Validate checks that every pair has non-empty entries.
func (s *ListeningSet) Validate() error {
	if s.ID == uuid.Nil {
		return ErrListeningIDEmpty
	}
	if s.Title == "" {
		return ErrListeningTitleEmpty
	}

	for i, pair := range s.Pairs {
		if len(pair.Entries) == 0 {
			return fmt.Errorf("pair %d: %w", i, ErrPairEmpty)
		}
		for _, e := range pair.Entries {
			if e.Lang == "" {
				return fmt.Errorf("pair %d: %w", i, ErrPairLangEmpty)
			}
			if strings.TrimSpace(e.Text) == "" {
				return fmt.Errorf("pair %d: %w", i, ErrPairTextEmpty)
			}
		}
	}

	return nil
}

// ScoredPairs returns the number of pairs that are not section headers.
func (s *ListeningSet) ScoredPairs() int {
	n := 0
	for _, pair := range s.Pairs {
		if !pair.IsSectionHeader() {
			n++
		}
	}
	return n
}
