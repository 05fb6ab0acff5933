package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/max00189xp/homework/internal/config"
	"github.com/max00189xp/homework/internal/feedback"
	"github.com/max00189xp/homework/internal/speech"
)

// DefaultMessageTTL is how long a transient message stays visible.
const DefaultMessageTTL = 5 * time.Second

// User-facing message texts.
const (
	SubmitSucceededText = "作品提交成功！"
	SubmitFailedText    = "提交失敗，請檢查網路或稍後再試。"
	QueryNotFoundText   = "找不到該姓名的評語，請確認姓名是否正確。"
	QueryFailedText     = "查詢失敗，請檢查網路或稍後再試。"
)

var (
	// ErrEmptyField means a required field was blank; nothing is shown.
	ErrEmptyField = errors.New("desk: required field is empty")
	// ErrBusy means the event was dropped because a request is in flight.
	ErrBusy = errors.New("desk: request already in flight")
	// ErrNotFound means the backend has no feedback for the name.
	ErrNotFound = errors.New("desk: no feedback for name")
	// ErrRejected means the backend answered a submit with success=false.
	ErrRejected = errors.New("desk: submission rejected by backend")
	// ErrUnknownTab is returned for tabs outside the fixed set.
	ErrUnknownTab = errors.New("desk: unknown tab")
)

// Message is the text currently shown in a section's message area.
type Message struct {
	Text     string
	Severity Severity
}

// Controller owns all UI state and runs the submit/query operations. Its
// methods are safe to call from multiple goroutines; operations block for
// the duration of the transport call.
type Controller struct {
	transport  feedback.Transport
	presenter  Presenter
	journal    Journal
	scheduler  Scheduler
	clock      func() time.Time
	messageTTL time.Duration
	guardScope string
	engine     speech.Engine
	speechOpts []speech.Option

	guard  *flightGuard
	player *speech.Player

	mu            sync.Mutex
	loading       map[Form]bool
	display       *Result
	resultVisible bool
	tabs          TabSet
	messages      map[Form]Message
	messageGen    map[Form]uint64
	clearTimers   map[Form]Timer
}

// Option customizes Controller construction.
type Option func(*Controller)

// WithJournal records operations to j.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		if j != nil {
			c.journal = j
		}
	}
}

// WithScheduler replaces the wall clock used to clear messages.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithClock controls the date used when a result carries no time.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMessageTTL overrides DefaultMessageTTL.
func WithMessageTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.messageTTL = ttl
		}
	}
}

// WithGuardScope selects config.GuardShared or config.GuardPerForm.
func WithGuardScope(scope string) Option {
	return func(c *Controller) {
		c.guardScope = scope
	}
}

// WithSpeech sets the engine and tuning used by PlayFeedback.
func WithSpeech(engine speech.Engine, opts ...speech.Option) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
		c.speechOpts = append(c.speechOpts, opts...)
	}
}

// FromConfig maps the project config onto controller options.
func FromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithMessageTTL(cfg.Project.Messages.TTL),
		WithGuardScope(cfg.Project.Forms.Guard),
		WithSpeech(nil, speech.PlayerOptions(cfg.Project.Speech)...),
	}
}

// New creates a controller with the submit tab active.
func New(transport feedback.Transport, presenter Presenter, opts ...Option) *Controller {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	c := &Controller{
		transport:   transport,
		presenter:   presenter,
		journal:     nopJournal{},
		scheduler:   WallClock,
		clock:       time.Now,
		messageTTL:  DefaultMessageTTL,
		guardScope:  config.GuardShared,
		engine:      speech.NopEngine{},
		loading:     map[Form]bool{},
		tabs:        NewTabSet(DefaultTabs...),
		messages:    map[Form]Message{},
		messageGen:  map[Form]uint64{},
		clearTimers: map[Form]Timer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.guard = newFlightGuard(c.guardScope)
	playerOpts := append([]speech.Option{speech.WithStateListener(c.presenter.SetSpeechState)}, c.speechOpts...)
	c.player = speech.NewPlayer(c.engine, playerOpts...)
	return c
}

// SubmitWork sends a piece of work for review. Blank fields return
// ErrEmptyField and a busy guard returns ErrBusy, both without any visible
// change.
func (c *Controller) SubmitWork(ctx context.Context, name, content string) error {
	name, content = cleanInput(name), cleanInput(content)
	if name == "" || content == "" {
		return ErrEmptyField
	}
	if !c.begin(FormSubmit) {
		return ErrBusy
	}
	defer c.finish(FormSubmit)

	opID := uuid.NewString()
	c.journal.Info("submit %s started · name=%s · %d chars", opID, name, len([]rune(content)))
	resp, err := c.transport.Call(ctx, feedback.SubmitRequest(name, content))
	if err == nil && !resp.Success {
		err = ErrRejected
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.journal.Error("submit %s failed: %v", opID, err)
		c.showMessageLocked(FormSubmit, SubmitFailedText, SeverityError)
		return fmt.Errorf("desk: submit: %w", err)
	}
	c.journal.Info("submit %s accepted", opID)
	c.showMessageLocked(FormSubmit, SubmitSucceededText, SeveritySuccess)
	c.presenter.ResetForm(FormSubmit)
	return nil
}

// QueryFeedback looks up feedback by name. The previous result is hidden as
// soon as the request starts and only shown again for a found response.
func (c *Controller) QueryFeedback(ctx context.Context, name string) (Result, error) {
	name = cleanInput(name)
	if name == "" {
		return Result{}, ErrEmptyField
	}
	if !c.begin(FormQuery) {
		return Result{}, ErrBusy
	}
	defer c.finish(FormQuery)

	// The guard keeps queries from overlapping, so a response always belongs
	// to the latest query.
	c.mu.Lock()
	c.resultVisible = false
	c.presenter.HideResult()
	c.mu.Unlock()

	opID := uuid.NewString()
	c.journal.Info("query %s started · name=%s", opID, name)
	resp, err := c.transport.Call(ctx, feedback.QueryRequest(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.journal.Error("query %s failed: %v", opID, err)
		c.showMessageLocked(FormQuery, QueryFailedText, SeverityError)
		return Result{}, fmt.Errorf("desk: query: %w", err)
	}
	if !resp.Found {
		c.journal.Warn("query %s: no feedback for %s", opID, name)
		c.showMessageLocked(FormQuery, QueryNotFoundText, SeverityError)
		return Result{}, ErrNotFound
	}
	result := newResult(resp, name, c.clock())
	c.display = &result
	c.resultVisible = true
	c.presenter.RenderResult(result)
	c.journal.Info("query %s found · %s", opID, result.FourChar)
	return result, nil
}

// ActivateTab makes tab the only active tab.
func (c *Controller) ActivateTab(tab Tab) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.tabs.Activate(tab); err != nil {
		return err
	}
	c.presenter.SetActiveTab(tab)
	return nil
}

// PlayFeedback reads the visible result's feedback aloud, replacing any
// utterance in progress. It returns false when there is nothing to read.
func (c *Controller) PlayFeedback() bool {
	c.mu.Lock()
	text := ""
	if c.display != nil && c.resultVisible {
		text = c.display.SpeechText
	}
	c.mu.Unlock()
	if text == "" {
		return false
	}
	return c.player.Play(text)
}

// SpeechState reports the playback state.
func (c *Controller) SpeechState() speech.State {
	return c.player.State()
}

// Loading reports whether form has a request in flight.
func (c *Controller) Loading(form Form) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[form]
}

// Display returns the last found result and whether it is currently shown.
func (c *Controller) Display() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.display == nil {
		return Result{}, false
	}
	return *c.display, c.resultVisible
}

// ActiveTab returns the active tab.
func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Active()
}

// Message returns the message currently shown for section.
func (c *Controller) Message(section Form) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages[section]
}

// Close cancels pending message clears and stops speech.
func (c *Controller) Close() {
	c.mu.Lock()
	for section, t := range c.clearTimers {
		t.Stop()
		delete(c.clearTimers, section)
	}
	c.mu.Unlock()
	c.player.Stop()
}

func (c *Controller) begin(form Form) bool {
	if !c.guard.tryAcquire(form) {
		return false
	}
	c.mu.Lock()
	c.loading[form] = true
	c.presenter.SetLoading(form, true)
	c.mu.Unlock()
	return true
}

func (c *Controller) finish(form Form) {
	c.mu.Lock()
	c.loading[form] = false
	c.presenter.SetLoading(form, false)
	c.mu.Unlock()
	c.guard.release(form)
}

// showMessageLocked shows text and schedules its clear. A newer message on
// the same section cancels the older clear; the generation check covers a
// clear that already fired and is waiting on c.mu.
func (c *Controller) showMessageLocked(section Form, text string, severity Severity) {
	c.messages[section] = Message{Text: text, Severity: severity}
	c.presenter.RenderMessage(section, text, severity)
	if pending := c.clearTimers[section]; pending != nil {
		pending.Stop()
	}
	c.messageGen[section]++
	gen := c.messageGen[section]
	c.clearTimers[section] = c.scheduler.AfterFunc(c.messageTTL, func() {
		c.clearMessage(section, gen)
	})
}

func (c *Controller) clearMessage(section Form, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.messageGen[section] != gen {
		return
	}
	delete(c.clearTimers, section)
	delete(c.messages, section)
	c.presenter.ClearMessage(section)
}

func cleanInput(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}
