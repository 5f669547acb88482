package speech

import (
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/scry-activities/internal/platform/clock"
)

// ErrEmptyUtterance is reported for utterances without text.
var ErrEmptyUtterance = errors.New("utterance text cannot be empty")

// Utterance is one piece of text to speak.
type Utterance struct {
	Text   string
	Locale string
	Voice  *Voice
}

// Synthesizer speaks utterances.
//
// Speak starts u and later calls done exactly once with nil on completion or
// the synthesis error, unless the returned cancel function is called first, in
// which case done is never called. done is never called before Speak returns.
// cancel is idempotent.
type Synthesizer interface {
	Voices() []Voice
	Speak(u Utterance, done func(error)) (cancel func())
}

// Spoken is a finished or in-flight utterance recorded by PacedSynthesizer.
type Spoken struct {
	Utterance Utterance
	StartedAt time.Time
	Duration  time.Duration
}

// PacedSynthesizer is a headless Synthesizer that "speaks" by waiting for the
// time a speaker would need at the configured words per minute.
type PacedSynthesizer struct {
	clock  clock.Clock
	wpm    int
	voices []Voice
	logger *slog.Logger

	mu     sync.Mutex
	spoken []Spoken
}

// MinUtteranceDuration is the shortest time any utterance takes.
const MinUtteranceDuration = 300 * time.Millisecond

// NewPacedSynthesizer creates a paced synthesizer.
func NewPacedSynthesizer(c clock.Clock, wordsPerMinute int, voices []Voice, logger *slog.Logger) *PacedSynthesizer {
	if c == nil {
		panic("clock cannot be nil")
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PacedSynthesizer{
		clock:  c,
		wpm:    wordsPerMinute,
		voices: voices,
		logger: logger.With("component", "paced_synthesizer"),
	}
}

// Voices returns the configured platform voices.
func (p *PacedSynthesizer) Voices() []Voice {
	return append([]Voice(nil), p.voices...)
}

// Duration estimates how long text takes to say.
func (p *PacedSynthesizer) Duration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(math.Ceil(float64(words) * float64(time.Minute) / float64(p.wpm)))
	if d < MinUtteranceDuration {
		return MinUtteranceDuration
	}
	return d
}

// Speak implements Synthesizer.
func (p *PacedSynthesizer) Speak(u Utterance, done func(error)) func() {
	var d time.Duration
	var result error
	if strings.TrimSpace(u.Text) == "" {
		result = ErrEmptyUtterance
	} else {
		d = p.Duration(u.Text)
		p.mu.Lock()
		p.spoken = append(p.spoken, Spoken{Utterance: u, StartedAt: p.clock.Now(), Duration: d})
		p.mu.Unlock()
		p.logger.Debug("speaking", "locale", u.Locale, "duration", d)
	}

	timer := p.clock.AfterFunc(d, func() { done(result) })
	return func() { timer.Stop() }
}

// Spoken returns every utterance started so far.
func (p *PacedSynthesizer) Spoken() []Spoken {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Spoken(nil), p.spoken...)
}
