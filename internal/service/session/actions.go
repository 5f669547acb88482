package session

import (
	"context"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/engine/quiz"
	"github.com/phrazzld/scry-activities/internal/engine/workout"
)

// Answer evaluates an answer to the current question.
func (c *Controller) Answer(a quiz.Answer) (quiz.Evaluation, error) {
	if err := c.require(c.quiz); err != nil {
		return quiz.Evaluation{}, err
	}
	return c.quiz.Answer(a)
}

// NextQuestion moves past an answered question.
func (c *Controller) NextQuestion() error {
	if err := c.require(c.quiz); err != nil {
		return err
	}
	return c.quiz.Next()
}

// RetryQuiz returns to option selection for the whole quiz.
func (c *Controller) RetryQuiz() error {
	if err := c.require(c.quiz); err != nil {
		return err
	}
	return c.quiz.Retry()
}

// RetryMistakes starts a session over the questions missed last time.
func (c *Controller) RetryMistakes(ctx context.Context) error {
	if err := c.require(c.quiz); err != nil {
		return err
	}
	return c.quiz.RetryMistakes(ctx)
}

// PlayPromptAudio replays the audio of the current listening question.
func (c *Controller) PlayPromptAudio() error {
	if err := c.require(c.quiz); err != nil {
		return err
	}
	return c.quiz.PlayAudio()
}

// QuizSummary returns the summary of the last finished quiz session.
func (c *Controller) QuizSummary() (quiz.Summary, error) {
	if err := c.require(c.quiz); err != nil {
		return quiz.Summary{}, err
	}
	return c.quiz.Summary()
}

// StartTimer starts the countdown of the current timed step.
func (c *Controller) StartTimer() error {
	if err := c.require(c.workout); err != nil {
		return err
	}
	return c.workout.StartTimer()
}

// CompleteStep marks the current repetition step as done.
func (c *Controller) CompleteStep() error {
	if err := c.require(c.workout); err != nil {
		return err
	}
	return c.workout.Complete()
}

// SkipStep skips the current workout step.
func (c *Controller) SkipStep() error {
	if err := c.require(c.workout); err != nil {
		return err
	}
	return c.workout.Skip()
}

// Play starts or restarts announcing the current pair.
func (c *Controller) Play() error {
	if err := c.require(c.listening); err != nil {
		return err
	}
	return c.listening.Play()
}

// NextPair moves to the next pair, wrapping at the end.
func (c *Controller) NextPair() error {
	if err := c.require(c.listening); err != nil {
		return err
	}
	return c.listening.Next()
}

// PreviousPair moves to the previous pair, wrapping at the start.
func (c *Controller) PreviousPair() error {
	if err := c.require(c.listening); err != nil {
		return err
	}
	return c.listening.Previous()
}

// Status describes the active session.
type Status struct {
	Current
	Active    bool             `json:"active"`
	Progress  *engine.Progress `json:"progress,omitempty"`
	Quiz      *QuizStatus      `json:"quiz,omitempty"`
	Workout   *WorkoutStatus   `json:"workout,omitempty"`
	Listening *ListeningStatus `json:"listening,omitempty"`
}

// QuizStatus is the assessment part of a Status.
type QuizStatus struct {
	State   quiz.State    `json:"state"`
	Summary *quiz.Summary `json:"summary,omitempty"`
}

// WorkoutStatus is the timed exercise part of a Status.
type WorkoutStatus struct {
	Step     *workout.Step `json:"step,omitempty"`
	TimeLeft int           `json:"time_left"`
	Running  bool          `json:"running"`
}

// ListeningStatus is the audio pair part of a Status.
type ListeningStatus struct {
	Index    int          `json:"index"`
	Playing  bool         `json:"playing"`
	Finished bool         `json:"finished"`
	Pair     *domain.Pair `json:"pair,omitempty"`
}

// Status reports the active session. Without one it returns a zero Status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	active := c.registry.Active()
	if active == nil {
		return Status{}
	}

	st := Status{Current: cur, Active: active.Active()}
	if p, err := active.Progress(); err == nil {
		st.Progress = &p
	}

	switch active {
	case c.quiz:
		qs := &QuizStatus{State: c.quiz.State()}
		if qs.State == quiz.StateSummary {
			if sum, err := c.quiz.Summary(); err == nil {
				qs.Summary = &sum
			}
		}
		st.Quiz = qs
	case c.workout:
		ws := &WorkoutStatus{TimeLeft: c.workout.TimeLeft(), Running: c.workout.Running()}
		if step, err := c.workout.CurrentStep(); err == nil {
			ws.Step = &step
		}
		st.Workout = ws
	case c.listening:
		ls := &ListeningStatus{
			Index:    c.listening.Index(),
			Playing:  c.listening.Playing(),
			Finished: c.listening.Finished(),
		}
		if pair, err := c.listening.CurrentPair(); err == nil {
			ls.Pair = &pair
		}
		st.Listening = ls
	}
	return st
}
