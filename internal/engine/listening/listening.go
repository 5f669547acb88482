// Package listening implements the audio pair engine. It announces each pair
// of a listening set through speech synthesis, one language after another,
// with cancelable pauses, looping and manual navigation.
package listening

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/phrazzld/scry-activities/internal/domain"
	"github.com/phrazzld/scry-activities/internal/engine"
	"github.com/phrazzld/scry-activities/internal/events"
	"github.com/phrazzld/scry-activities/internal/platform/clock"
	"github.com/phrazzld/scry-activities/internal/render"
	"github.com/phrazzld/scry-activities/internal/speech"
)

// ErrNoPairs is returned by playback and navigation on an empty set.
var ErrNoPairs = errors.New("listening set has no pairs")

var errNoSynth = errors.New("speech synthesizer is required")

// Default pauses for Timings fields left at zero
const (
	DefaultShortPause      = time.Second
	DefaultLongPause       = 2 * time.Second
	DefaultPostHeaderPause = 3 * time.Second
)

// Options configure one listening session.
type Options struct {
	// Autoplay starts announcing the first pair as soon as the session starts.
	Autoplay bool `json:"autoplay"`

	// Loop restarts at the first pair after the last one.
	Loop bool `json:"loop"`

	// LanguageOrder overrides the set's announcement order.
	LanguageOrder []string `json:"language_order,omitempty"`

	// Resume continues from the stored resume state if it belongs to this set.
	Resume bool `json:"resume"`
}

// Timings are the pauses between announcements.
type Timings struct {
	// ShortPause separates the renditions of one pair.
	ShortPause time.Duration
	// LongPause follows a pair before the next one starts.
	LongPause time.Duration
	// PostHeaderPause replaces LongPause after a section header.
	PostHeaderPause time.Duration
}

// Config holds the collaborators of an Engine. Synth is required.
type Config struct {
	Synth        speech.Synthesizer
	HostedVoices []speech.Voice
	Clock        clock.Clock
	Target       render.Target
	Events       events.EventEmitter
	Resume       engine.ResumeReader
	Timings      Timings
	Logger       *slog.Logger
}

// Engine is the audio pair engine.
type Engine struct {
	*engine.Base[*domain.ListeningSet, Options]

	synth   speech.Synthesizer
	hosted  []speech.Voice
	clock   clock.Clock
	target  render.Target
	events  events.EventEmitter
	resume  engine.ResumeReader
	timings Timings
	logger  *slog.Logger

	sess     *session
	pairs    []domain.Pair
	index    int
	playing  bool
	paused   bool
	finished bool

	// token is canceled and pending drained before every transition.
	token   context.Context
	cancel  context.CancelFunc
	pending []func()
}

type session = engine.Session[*domain.ListeningSet, Options]

// New creates a listening engine. Init must be called before use.
func New(cfg Config) (*Engine, error) {
	if cfg.Synth == nil {
		return nil, errNoSynth
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Target == nil {
		cfg.Target = render.Discard{}
	}
	if cfg.Events == nil {
		cfg.Events = events.NopEmitter{}
	}
	if cfg.Timings.ShortPause <= 0 {
		cfg.Timings.ShortPause = DefaultShortPause
	}
	if cfg.Timings.LongPause <= 0 {
		cfg.Timings.LongPause = DefaultLongPause
	}
	if cfg.Timings.PostHeaderPause <= 0 {
		cfg.Timings.PostHeaderPause = DefaultPostHeaderPause
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Engine{
		synth:   cfg.Synth,
		hosted:  cfg.HostedVoices,
		clock:   cfg.Clock,
		target:  cfg.Target,
		events:  cfg.Events,
		resume:  cfg.Resume,
		timings: cfg.Timings,
	}

	base, err := engine.NewBase[*domain.ListeningSet, Options](domain.ContentTypeListening, lifecycle{e}, cfg.Logger)
	if err != nil {
		return nil, err
	}
	e.Base = base
	e.logger = base.Logger()
	return e, nil
}

type lifecycle struct{ e *Engine }

func (l lifecycle) Prepare(ctx context.Context, s *session) error { return l.e.prepare(ctx, s) }
func (l lifecycle) Teardown()                                     { l.e.teardown() }
func (l lifecycle) Progress(*session) engine.Progress             { return l.e.progress() }
func (l lifecycle) Pause()                                        { l.e.pause() }
func (l lifecycle) Resume()                                       { l.e.resumePlayback() }

func (e *Engine) prepare(ctx context.Context, s *session) error {
	if s.Payload == nil {
		return engine.ErrNilPayload
	}

	e.sess = s
	e.pairs = s.Payload.Pairs
	e.index = 0
	e.playing, e.paused, e.finished = false, false, false

	if s.Options.Resume && !s.Restart && len(e.pairs) > 0 {
		if state := engine.LoadResume(ctx, e.resume, domain.ContentTypeListening, s.ID); state != nil {
			e.index = min(max(state.Index, 0), len(e.pairs)-1)
			e.logger.InfoContext(ctx, "resuming listening set", "set_id", s.ID, "index", e.index)
		}
	}

	e.logger.InfoContext(ctx, "listening set prepared",
		"set_id", s.ID,
		"pairs", len(e.pairs),
		"autoplay", s.Options.Autoplay,
		"loop", s.Options.Loop)
	engine.Emit(ctx, e.events, e.logger, events.SessionStarted, domain.ContentTypeListening, s.ID, nil)

	if len(e.pairs) == 0 {
		e.finish(s)
		return nil
	}

	e.render(s)
	if s.Options.Autoplay {
		e.play(s)
	}
	return nil
}

func (e *Engine) teardown() {
	e.cancelPending()
	e.sess = nil
	e.pairs = nil
	e.index = 0
	e.playing, e.paused, e.finished = false, false, false
}

func (e *Engine) progress() engine.Progress {
	if len(e.pairs) == 0 {
		return engine.NewProgress(0, 0)
	}
	return engine.NewProgress(e.index+1, len(e.pairs))
}

// cancelPending stops every tracked delay and utterance and invalidates the
// current token, so callbacks that already fired do nothing.
func (e *Engine) cancelPending() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	for _, stop := range e.pending {
		stop()
	}
	e.pending = e.pending[:0]
	e.token = nil
}

// play announces the current pair from its first rendition.
func (e *Engine) play(s *session) {
	e.cancelPending()
	tok, cancel := context.WithCancel(s.Context())
	e.token, e.cancel = tok, cancel
	e.playing = true
	e.paused = false
	e.target.SetText(render.RegionStatus, "playing")
	e.speakStep(s, tok, 0)
}

// resumeWith schedules fn to run under the engine lock if tok is still live.
func (e *Engine) resumeWith(s *session, tok context.Context, op string, fn func()) {
	_ = e.Do(op, func(cur *session) error {
		if tok.Err() != nil || cur != s {
			return nil
		}
		// Only one delay or utterance is outstanding at a time and it just fired.
		e.pending = e.pending[:0]
		fn()
		return nil
	})
}

func (e *Engine) delay(s *session, tok context.Context, d time.Duration, fn func()) {
	t := e.clock.AfterFunc(d, func() {
		e.resumeWith(s, tok, "delay", fn)
	})
	e.pending = append(e.pending, func() { t.Stop() })
}

func (e *Engine) speakStep(s *session, tok context.Context, step int) {
	pair := e.pairs[e.index]
	langs := e.languages(s, pair)

	if step >= len(langs) {
		pause := e.timings.LongPause
		if pair.IsSectionHeader() {
			pause = e.timings.PostHeaderPause
		}
		e.delay(s, tok, pause, func() { e.advance(s, tok) })
		return
	}

	lang := langs[step]
	text, _ := pair.Text(lang)
	if pair.IsSectionHeader() {
		text = domain.HeaderText(text)
	}

	u := speech.Utterance{Text: text, Locale: lang}
	if voice, ok := speech.SelectVoice(e.synth.Voices(), e.hosted, lang); ok {
		u.Voice = &voice
	} else {
		e.logger.Debug("no voice for language", "lang", lang)
	}
	e.target.SetText(render.RegionStatus, "speaking "+lang)

	cancel := e.synth.Speak(u, func(err error) {
		e.resumeWith(s, tok, "speech_done", func() {
			if err != nil {
				e.logger.WarnContext(s.Context(), "speech failed, continuing",
					"error", err,
					"set_id", s.ID,
					"index", e.index,
					"lang", lang)
			}
			if step+1 < len(langs) {
				e.delay(s, tok, e.timings.ShortPause, func() { e.speakStep(s, tok, step+1) })
				return
			}
			e.speakStep(s, tok, step+1)
		})
	})
	e.pending = append(e.pending, cancel)
}

// languages returns the announcement order for pair: the session override,
// then the set's order, then the pair's own entry order. Languages the pair
// lacks are skipped.
func (e *Engine) languages(s *session, pair domain.Pair) []string {
	order := s.Options.LanguageOrder
	if len(order) == 0 {
		order = s.Payload.Languages
	}
	if len(order) == 0 {
		return pair.Langs()
	}

	langs := make([]string, 0, len(order))
	for _, lang := range order {
		if _, ok := pair.Text(lang); ok && !slices.Contains(langs, lang) {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return pair.Langs()
	}
	return langs
}

func (e *Engine) advance(s *session, tok context.Context) {
	if !e.pairs[e.index].IsSectionHeader() {
		engine.Emit(s.Context(), e.events, e.logger, events.StepCompleted, domain.ContentTypeListening, s.ID,
			events.StepPayload{Index: e.index + 1})
	}

	switch {
	case e.index+1 < len(e.pairs):
		e.index++
	case s.Options.Loop:
		e.index = 0
	default:
		e.finish(s)
		return
	}

	e.render(s)
	e.target.SetText(render.RegionStatus, "playing")
	e.speakStep(s, tok, 0)
}

// finish stops playback at the end of the set. The index stays on the last pair.
func (e *Engine) finish(s *session) {
	e.cancelPending()
	e.playing, e.paused = false, false
	e.finished = true
	s.Active = false

	e.target.SetText(render.RegionStatus, "complete")
	e.logger.Info("listening set finished", "set_id", s.ID, "pairs", len(e.pairs))

	if len(e.pairs) == 0 {
		return
	}
	scored := s.Payload.ScoredPairs()
	engine.Emit(s.Context(), e.events, e.logger, events.SessionCompleted, domain.ContentTypeListening, s.ID,
		events.CompletedPayload{Score: scored, Total: scored})
}

func (e *Engine) pause() {
	if !e.playing {
		return
	}
	e.cancelPending()
	e.playing = false
	e.paused = true
	e.target.SetText(render.RegionStatus, "paused")
}

// resumePlayback re-announces the current pair from its first rendition.
func (e *Engine) resumePlayback() {
	if !e.paused || e.sess == nil {
		return
	}
	e.play(e.sess)
}

// stopped leaves the current pair selected without playing it.
func (e *Engine) stopped(s *session) {
	e.cancelPending()
	e.playing, e.paused, e.finished = false, false, false
	s.Active = true
	e.render(s)
	e.target.SetText(render.RegionStatus, "stopped")
}

// Play starts announcing the current pair. It is a no-op while playing.
func (e *Engine) Play() error {
	return e.Do("play", func(s *session) error {
		if len(e.pairs) == 0 {
			return ErrNoPairs
		}
		if e.playing {
			return nil
		}
		e.finished = false
		s.Active = true
		e.play(s)
		return nil
	})
}

// Next selects the following pair, wrapping to the first, and stops playback.
func (e *Engine) Next() error {
	return e.navigate("next", 1)
}

// Previous selects the preceding pair, wrapping to the last, and stops playback.
func (e *Engine) Previous() error {
	return e.navigate("previous", -1)
}

func (e *Engine) navigate(op string, delta int) error {
	return e.Do(op, func(s *session) error {
		n := len(e.pairs)
		if n == 0 {
			return ErrNoPairs
		}
		e.cancelPending()
		e.index = ((e.index+delta)%n + n) % n
		e.stopped(s)
		return nil
	})
}

// Index returns the zero-based index of the current pair.
func (e *Engine) Index() int {
	var i int
	_ = e.With("index", func(*session) error {
		i = e.index
		return nil
	})
	return i
}

// Playing reports whether an announcement chain is running.
func (e *Engine) Playing() bool {
	var playing bool
	_ = e.With("playing", func(*session) error {
		playing = e.playing
		return nil
	})
	return playing
}

// Finished reports whether playback reached the end of a non-looping set.
func (e *Engine) Finished() bool {
	var finished bool
	_ = e.With("finished", func(*session) error {
		finished = e.finished
		return nil
	})
	return finished
}

// CurrentPair returns the pair at the current index.
func (e *Engine) CurrentPair() (domain.Pair, error) {
	var pair domain.Pair
	err := e.Do("current_pair", func(*session) error {
		if len(e.pairs) == 0 {
			return ErrNoPairs
		}
		pair = e.pairs[e.index]
		return nil
	})
	return pair, err
}

func (e *Engine) render(s *session) {
	pair := e.pairs[e.index]
	e.target.SetText(render.RegionTitle, s.Payload.Title)

	langs := e.languages(s, pair)
	items := make([]string, 0, len(langs))
	for _, lang := range langs {
		text, _ := pair.Text(lang)
		if pair.IsSectionHeader() {
			text = domain.HeaderText(text)
		}
		items = append(items, lang+": "+text)
	}
	e.target.SetItems(render.RegionPair, items)
	e.target.SetText(render.RegionProgress, fmt.Sprintf("%d/%d", e.index+1, len(e.pairs)))
}
