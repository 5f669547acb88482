package workout

import (
	"fmt"

	"github.com/phrazzld/scry-activities/internal/domain"
)

// DefaultRestSeconds is the rest between sets when an exercise does not set one.
const DefaultRestSeconds = 30

// RestName labels the rest steps inserted between sets.
const RestName = "Rest"

// Expand turns multi-set exercises into a linear list of steps. An exercise
// with n ≥ 2 sets becomes n labeled sets interleaved with n−1 rest steps of
// RestBetweenSets seconds, or defaultRest when unset. Exercises with fewer
// than two sets pass through. Repetition exercises without a detail get one
// from their repetition count.
//
// Expand never modifies its input.
func Expand(exercises []domain.Exercise, defaultRest int) []domain.Exercise {
	if defaultRest <= 0 {
		defaultRest = DefaultRestSeconds
	}

	out := make([]domain.Exercise, 0, len(exercises))
	for _, ex := range exercises {
		base := ex.Common()
		if base.Sets < 2 {
			out = append(out, withDetail(ex))
			continue
		}

		rest := base.RestBetweenSets
		if rest <= 0 {
			rest = defaultRest
		}

		for i := 1; i <= base.Sets; i++ {
			out = append(out, setOf(ex, i, base.Sets))
			if i < base.Sets {
				out = append(out, domain.DurationExercise{
					ExerciseBase: domain.ExerciseBase{Name: RestName},
					Duration:     rest,
					Rest:         true,
				})
			}
		}
	}
	return out
}

func withDetail(ex domain.Exercise) domain.Exercise {
	if r, ok := ex.(domain.RepetitionExercise); ok && r.Detail == "" {
		r.Detail = repsDetail(r.Reps)
		return r
	}
	return ex
}

func setOf(ex domain.Exercise, i, n int) domain.Exercise {
	label := fmt.Sprintf("%s set %d/%d", ex.Common().Name, i, n)

	switch v := ex.(type) {
	case domain.RepetitionExercise:
		v.Name = label
		v.Sets, v.RestBetweenSets = 0, 0
		if v.Detail == "" {
			v.Detail = repsDetail(v.Reps)
		}
		return v
	case domain.DurationExercise:
		v.Name = label
		v.Sets, v.RestBetweenSets = 0, 0
		return v
	case domain.UnknownExercise:
		v.Name = label
		v.Sets, v.RestBetweenSets = 0, 0
		return v
	default:
		return ex
	}
}

func repsDetail(reps int) string {
	return fmt.Sprintf("%d reps", reps)
}
