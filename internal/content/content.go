package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// Format is the encoding of a content file.
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported content format")

	// ErrInvalidDocument wraps every problem found while validating a bundle.
	ErrInvalidDocument = errors.New("invalid content document")

	// ErrDuplicateID is returned when two documents of a bundle share an ID.
	ErrDuplicateID = errors.New("duplicate content id")
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Bundle is a set of documents read from one or more files.
type Bundle struct {
	Quizzes       []*domain.Quiz         `json:"quizzes,omitempty"`
	Workouts      []*domain.Workout      `json:"workouts,omitempty"`
	ListeningSets []*domain.ListeningSet `json:"listening_sets,omitempty"`
}

// Len returns the number of documents in the bundle.
func (b Bundle) Len() int {
	return len(b.Quizzes) + len(b.Workouts) + len(b.ListeningSets)
}

// Merge appends the documents of other.
func (b *Bundle) Merge(other Bundle) {
	b.Quizzes = append(b.Quizzes, other.Quizzes...)
	b.Workouts = append(b.Workouts, other.Workouts...)
	b.ListeningSets = append(b.ListeningSets, other.ListeningSets...)
}

// Decode reads a bundle. Unknown top-level keys are rejected.
func Decode(r io.Reader, format Format) (Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read content: %w", err)
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		data, err = yamlToJSON(data)
		if err != nil {
			return Bundle{}, fmt.Errorf("%w: yaml: %v", domain.ErrInvalidFormat, err)
		}
	default:
		return Bundle{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var b Bundle
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return b, nil
}

// LoadFile reads one content file.
func LoadFile(path string) (Bundle, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Bundle{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to open content file: %w", err)
	}
	defer func() { _ = f.Close() }()

	b, err := Decode(f, format)
	if err != nil {
		return Bundle{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// LoadDir reads every YAML and JSON file below dir in lexical order.
// Files with other extensions are skipped.
func LoadDir(dir string) (Bundle, error) {
	var all Bundle
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ferr := FormatFromPath(path); ferr != nil {
			return nil
		}

		b, err := LoadFile(path)
		if err != nil {
			return err
		}
		all.Merge(b)
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}
	return all, nil
}

// Load reads path, which may be a file or a directory.
func Load(path string) (Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to stat content path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// Prepare assigns IDs and timestamps to documents that lack them.
func (b *Bundle) Prepare(now time.Time) {
	now = now.UTC()
	stamp := func(id *uuid.UUID, created, updated *time.Time) {
		if *id == uuid.Nil {
			*id = uuid.New()
		}
		if created.IsZero() {
			*created = now
		}
		if updated.IsZero() {
			*updated = now
		}
	}

	for _, q := range b.Quizzes {
		if q != nil {
			stamp(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		}
	}
	for _, w := range b.Workouts {
		if w != nil {
			stamp(&w.ID, &w.CreatedAt, &w.UpdatedAt)
		}
	}
	for _, s := range b.ListeningSets {
		if s != nil {
			stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		}
	}
}

// Problem locates a validation failure inside a bundle.
type Problem struct {
	Type  domain.ContentType
	Index int
	Title string
	Err   error
}

// Error implements the error interface for Problem.
func (p *Problem) Error() string {
	return fmt.Sprintf("%s %d (%q): %v", p.Type, p.Index, p.Title, p.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (p *Problem) Unwrap() []error {
	return []error{ErrInvalidDocument, p.Err}
}

// Validate checks every document and reports all problems at once.
// IDs must be unique across the bundle regardless of type.
func (b Bundle) Validate() error {
	var problems []error
	seen := make(map[uuid.UUID]bool, b.Len())

	check := func(kind domain.ContentType, i int, doc interface {
		Validate() error
		Summary() domain.ContentSummary
	}) {
		sum := doc.Summary()
		if err := doc.Validate(); err != nil {
			problems = append(problems, &Problem{Type: kind, Index: i, Title: sum.Title, Err: err})
			return
		}
		if seen[sum.ID] {
			problems = append(problems, &Problem{Type: kind, Index: i, Title: sum.Title,
				Err: fmt.Errorf("%w: %s", ErrDuplicateID, sum.ID)})
			return
		}
		seen[sum.ID] = true
	}

	empty := func(kind domain.ContentType, i int) {
		problems = append(problems, &Problem{Type: kind, Index: i, Err: domain.ErrEmptyContent})
	}

	for i, q := range b.Quizzes {
		if q == nil {
			empty(domain.ContentTypeQuiz, i)
			continue
		}
		check(domain.ContentTypeQuiz, i, q)
	}
	for i, w := range b.Workouts {
		if w == nil {
			empty(domain.ContentTypeWorkout, i)
			continue
		}
		check(domain.ContentTypeWorkout, i, w)
	}
	for i, s := range b.ListeningSets {
		if s == nil {
			empty(domain.ContentTypeListening, i)
			continue
		}
		check(domain.ContentTypeListening, i, s)
	}

	return errors.Join(problems...)
}

// UnknownVariants counts questions and exercises whose type is not recognized.
// Such items load but are skipped when the session runs.
func (b Bundle) UnknownVariants() int {
	n := 0
	for _, q := range b.Quizzes {
		if q != nil {
			n += len(q.UnknownQuestions())
		}
	}
	for _, w := range b.Workouts {
		if w == nil {
			continue
		}
		for _, phase := range w.Phases {
			for _, e := range phase.Exercises {
				if _, ok := e.(domain.UnknownExercise); ok {
					n++
				}
			}
		}
	}
	return n
}
