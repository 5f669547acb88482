package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Workout-specific validation errors
var (
	ErrWorkoutIDEmpty     = errors.New("workout ID cannot be empty")
	ErrWorkoutTitleEmpty  = errors.New("workout title cannot be empty")
	ErrExerciseNameEmpty  = errors.New("exercise name cannot be empty")
	ErrExerciseSetsNeg    = errors.New("exercise sets cannot be negative")
	ErrExerciseRepsNeg    = errors.New("exercise reps cannot be negative")
	ErrExerciseRestNeg    = errors.New("rest between sets cannot be negative")
	ErrWorkoutPhasesEmpty = errors.New("workout needs at least one phase or exercise")
)

// ExerciseType is the discriminator stored in the "type" field of an exercise document.
type ExerciseType string

// Supported exercise variants
const (
	ExerciseRepetition ExerciseType = "repetition"
	ExerciseDuration   ExerciseType = "duration"
)

// Exercise is the closed set of workout step variants.
type Exercise interface {
	Type() ExerciseType
	Common() ExerciseBase
	isExercise()
}

// ExerciseBase holds the fields every exercise variant carries.
// Sets and RestBetweenSets are optional; zero means unset.
type ExerciseBase struct {
	Name            string `json:"name"`
	Detail          string `json:"detail,omitempty"`
	Sets            int    `json:"sets,omitempty"`
	RestBetweenSets int    `json:"rest_between_sets,omitempty"`
}

// Common returns the shared exercise fields.
func (b ExerciseBase) Common() ExerciseBase { return b }

func (ExerciseBase) isExercise() {}

// RepetitionExercise is completed by performing Reps repetitions.
type RepetitionExercise struct {
	ExerciseBase
	Reps int `json:"reps"`
}

// Type implements Exercise.
func (RepetitionExercise) Type() ExerciseType { return ExerciseRepetition }

// DurationExercise runs a countdown of Duration seconds. Rest marks a recovery step.
type DurationExercise struct {
	ExerciseBase
	Duration int  `json:"duration"`
	Rest     bool `json:"rest,omitempty"`
}

// Type implements Exercise.
func (DurationExercise) Type() ExerciseType { return ExerciseDuration }

// UnknownExercise keeps an exercise whose discriminator is not recognized.
type UnknownExercise struct {
	ExerciseBase
	Kind string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// Type implements Exercise.
func (e UnknownExercise) Type() ExerciseType { return ExerciseType(e.Kind) }

// WorkoutPhase is a named group of exercises, e.g. warm-up or main set.
type WorkoutPhase struct {
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
}

// Workout is an exercise routine made of ordered phases.
type Workout struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Phases      []WorkoutPhase `json:"phases"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewWorkout creates a new Workout with a generated ID and creation timestamps.
func NewWorkout(title string, phases []WorkoutPhase) (*Workout, error) {
	now := time.Now().UTC()
	workout := &Workout{
		ID:        uuid.New(),
		Title:     title,
		Phases:    phases,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := workout.Validate(); err != nil {
		return nil, err
	}

	return workout, nil
}

// Validate checks the workout structure. Durations are not checked here;
// a missing or invalid duration is repaired when the workout runs.
func (w *Workout) Validate() error {
	if w.ID == uuid.Nil {
		return ErrWorkoutIDEmpty
	}
	if w.Title == "" {
		return ErrWorkoutTitleEmpty
	}
	if len(w.Phases) == 0 {
		return ErrWorkoutPhasesEmpty
	}

	for p, phase := range w.Phases {
		for i, exercise := range phase.Exercises {
			if err := ValidateExercise(exercise); err != nil {
				return fmt.Errorf("phase %d exercise %d: %w", p, i, err)
			}
		}
	}

	return nil
}

// ExerciseCount returns the number of exercises across all phases.
func (w *Workout) ExerciseCount() int {
	n := 0
	for _, phase := range w.Phases {
		n += len(phase.Exercises)
	}
	return n
}

// ValidateExercise checks the shared fields of an exercise.
func ValidateExercise(exercise Exercise) error {
	if exercise == nil {
		return ErrExerciseNameEmpty
	}
	if _, ok := exercise.(UnknownExercise); ok {
		return nil
	}

	base := exercise.Common()
	if base.Name == "" {
		return ErrExerciseNameEmpty
	}
	if base.Sets < 0 {
		return ErrExerciseSetsNeg
	}
	if base.RestBetweenSets < 0 {
		return ErrExerciseRestNeg
	}
	if r, ok := exercise.(RepetitionExercise); ok && r.Reps < 0 {
		return ErrExerciseRepsNeg
	}

	return nil
}

type phaseJSON struct {
	Name      string            `json:"name"`
	Exercises []json.RawMessage `json:"exercises"`
}

type workoutJSON struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Phases      []phaseJSON       `json:"phases,omitempty"`
	Exercises   []json.RawMessage `json:"exercises,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MarshalJSON always writes the phase form.
func (w Workout) MarshalJSON() ([]byte, error) {
	out := workoutJSON{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Phases:      make([]phaseJSON, 0, len(w.Phases)),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}

	for p, phase := range w.Phases {
		pj := phaseJSON{Name: phase.Name, Exercises: make([]json.RawMessage, 0, len(phase.Exercises))}
		for i, exercise := range phase.Exercises {
			raw, err := EncodeExercise(exercise)
			if err != nil {
				return nil, fmt.Errorf("phase %d exercise %d: %w", p, i, err)
			}
			pj.Exercises = append(pj.Exercises, raw)
		}
		out.Phases = append(out.Phases, pj)
	}

	return json.Marshal(out)
}

// UnmarshalJSON accepts either "phases" or a flat "exercises" list,
// which becomes a single unnamed phase.
func (w *Workout) UnmarshalJSON(data []byte) error {
	var in workoutJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	raws := in.Phases
	if len(raws) == 0 && len(in.Exercises) > 0 {
		raws = []phaseJSON{{Exercises: in.Exercises}}
	}

	phases := make([]WorkoutPhase, 0, len(raws))
	for p, pj := range raws {
		phase := WorkoutPhase{Name: pj.Name, Exercises: make([]Exercise, 0, len(pj.Exercises))}
		for i, raw := range pj.Exercises {
			exercise, err := DecodeExercise(raw)
			if err != nil {
				return fmt.Errorf("phase %d exercise %d: %w", p, i, err)
			}
			phase.Exercises = append(phase.Exercises, exercise)
		}
		phases = append(phases, phase)
	}

	*w = Workout{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Phases:      phases,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
	return nil
}

// EncodeExercise marshals an exercise variant with its "type" discriminator.
func EncodeExercise(exercise Exercise) (json.RawMessage, error) {
	switch v := exercise.(type) {
	case RepetitionExercise:
		return json.Marshal(struct {
			Type ExerciseType `json:"type"`
			RepetitionExercise
		}{v.Type(), v})
	case DurationExercise:
		return json.Marshal(struct {
			Type ExerciseType `json:"type"`
			DurationExercise
		}{v.Type(), v})
	case UnknownExercise:
		if len(v.Raw) > 0 {
			return v.Raw, nil
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			ExerciseBase
		}{v.Kind, v.ExerciseBase})
	default:
		return nil, ErrUnknownVariant
	}
}

// DecodeExercise unmarshals an exercise document into its variant.
// Unrecognized discriminators decode to UnknownExercise.
func DecodeExercise(raw json.RawMessage) (Exercise, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	switch ExerciseType(head.Type) {
	case ExerciseRepetition:
		var v RepetitionExercise
		err := decodeInto(raw, &v)
		return v, err
	case ExerciseDuration:
		var v DurationExercise
		err := decodeInto(raw, &v)
		return v, err
	default:
		var base ExerciseBase
		if err := decodeInto(raw, &base); err != nil {
			return nil, err
		}
		return UnknownExercise{ExerciseBase: base, Kind: head.Type, Raw: raw}, nil
	}
}
