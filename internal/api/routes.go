package api

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers mounted by RegisterRoutes.
type Handlers struct {
	Content    *ContentHandler
	Generation *GenerationHandler
	Session    *SessionHandler
}

// RegisterRoutes mounts the API routes on r. Nil handlers are skipped.
func RegisterRoutes(r chi.Router, h Handlers) {
	if c := h.Content; c != nil {
		r.Post("/content/import", c.Import)
		r.Route("/content/{type}", func(r chi.Router) {
			r.Get("/", c.List)
			r.Post("/", c.Create)
			r.Get("/{id}", c.Get)
			r.Put("/{id}", c.Put)
			r.Delete("/{id}", c.Delete)
			r.Get("/{id}/results", c.Results)
		})
	}

	if g := h.Generation; g != nil {
		r.Post("/generations", g.Request)
		r.Get("/generations/{id}", g.Get)
	}

	if s := h.Session; s != nil {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.Status)
			r.Get("/progress", s.Progress)
			r.Get("/view", s.View)
			r.Get("/resume-state", s.PendingResume)

			r.Post("/start", s.Start)
			r.Post("/pause", s.Pause)
			r.Post("/resume", s.Resume)
			r.Post("/restart", s.Restart)
			r.Post("/stop", s.Stop)
			r.Post("/visibility", s.Visibility)

			r.Post("/quiz/begin", s.BeginQuiz)
			r.Post("/quiz/answer", s.Answer)
			r.Post("/quiz/next", s.NextQuestion)
			r.Post("/quiz/retry", s.RetryQuiz)
			r.Post("/quiz/retry-mistakes", s.RetryMistakes)
			r.Post("/quiz/audio", s.PlayPromptAudio)
			r.Get("/quiz/summary", s.QuizSummary)

			r.Post("/workout/timer", s.StartTimer)
			r.Post("/workout/complete", s.CompleteStep)
			r.Post("/workout/skip", s.SkipStep)

			r.Post("/listening/play", s.Play)
			r.Post("/listening/next", s.NextPair)
			r.Post("/listening/previous", s.PreviousPair)
		})
	}
}
