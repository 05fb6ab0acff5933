// Package speech reads feedback text aloud through a platform engine.
package speech

import (
	"context"
	"strings"
	"sync"
)

// State is the visual playback state.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

const (
	// IdleLabel is shown on the play button while nothing is speaking.
	IdleLabel = "▶ 播放語音"
	// PlayingLabel is shown while an utterance is in progress.
	PlayingLabel = "🔊 播放中..."

	// DefaultLocale is Mandarin as spoken in Taiwan.
	DefaultLocale = "zh-TW"
)

// Label returns the button text for s.
func (s State) Label() string {
	if s == StatePlaying {
		return PlayingLabel
	}
	return IdleLabel
}

// Utterance is one unit of synthesized speech.
type Utterance struct {
	Text   string
	Locale string
	Rate   float64
	Pitch  float64
}

// Engine speaks an utterance, blocking until it finishes or ctx is cancelled.
type Engine interface {
	Speak(ctx context.Context, u Utterance) error
}

// NopEngine completes every utterance immediately.
type NopEngine struct{}

// Speak returns nil.
func (NopEngine) Speak(context.Context, Utterance) error { return nil }

// Logger records engine failures. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Player keeps at most one utterance active. Play cancels whatever is
// speaking, waits for the engine to let go of it, then starts the new one.
type Player struct {
	engine  Engine
	locale  string
	rate    float64
	pitch   float64
	onState func(State)
	logger  Logger

	// playMu serializes Play and Stop; mu guards the fields below.
	playMu  sync.Mutex
	mu      sync.Mutex
	current *session
	state   State
}

// Option customizes Player construction.
type Option func(*Player)

// WithLocale sets the utterance locale tag.
func WithLocale(locale string) Option {
	return func(p *Player) {
		if l := strings.TrimSpace(locale); l != "" {
			p.locale = l
		}
	}
}

// WithRate sets the speaking rate multiplier.
func WithRate(rate float64) Option {
	return func(p *Player) {
		if rate > 0 {
			p.rate = rate
		}
	}
}

// WithPitch sets the pitch multiplier.
func WithPitch(pitch float64) Option {
	return func(p *Player) {
		if pitch > 0 {
			p.pitch = pitch
		}
	}
}

// WithStateListener registers a callback for idle/playing transitions. It is
// called with the state lock held, so transitions arrive in order; it must
// not call back into the Player.
func WithStateListener(fn func(State)) Option {
	return func(p *Player) {
		p.onState = fn
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPlayer creates an idle player backed by engine.
func NewPlayer(engine Engine, opts ...Option) *Player {
	if engine == nil {
		engine = NopEngine{}
	}
	p := &Player{
		engine: engine,
		locale: DefaultLocale,
		rate:   1,
		pitch:  1,
		logger: nopLogger{},
		state:  StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// State reports whether an utterance is in progress.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Play speaks text, replacing any utterance in progress. Empty text is a
// no-op and returns false.
func (p *Player) Play(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	p.playMu.Lock()
	defer p.playMu.Unlock()

	p.cancelCurrent()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel, done: make(chan struct{})}
	p.mu.Lock()
	p.current = s
	p.state = StatePlaying
	p.notify(StatePlaying)
	p.mu.Unlock()

	u := Utterance{Text: text, Locale: p.locale, Rate: p.rate, Pitch: p.pitch}
	go p.run(ctx, s, u)
	return true
}

// Stop cancels the current utterance, if any, and returns to idle.
func (p *Player) Stop() {
	p.playMu.Lock()
	defer p.playMu.Unlock()
	if !p.cancelCurrent() {
		return
	}
	p.mu.Lock()
	p.state = StateIdle
	p.notify(StateIdle)
	p.mu.Unlock()
}

// cancelCurrent detaches the current session so its completion does not
// flip the state, cancels it, and waits for the engine to return.
func (p *Player) cancelCurrent() bool {
	p.mu.Lock()
	cur := p.current
	p.current = nil
	p.mu.Unlock()
	if cur == nil {
		return false
	}
	cur.cancel()
	<-cur.done
	return true
}

func (p *Player) run(ctx context.Context, s *session, u Utterance) {
	defer close(s.done)
	err := p.engine.Speak(ctx, u)
	if err != nil && ctx.Err() == nil {
		p.logger.Printf("speech: engine failed: %v", err)
	}
	s.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == s {
		p.current = nil
		p.state = StateIdle
		p.notify(StateIdle)
	}
}

func (p *Player) notify(state State) {
	if p.onState != nil {
		p.onState(state)
	}
}
