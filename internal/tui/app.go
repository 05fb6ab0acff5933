// internal/tui/app.go
//
// This is the terminal front end for the homework client.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The desk controller owns the real state. It runs inside tea.Cmds and
// reports every change through the presenter channel, so Update only mirrors
// what the controller decided.

package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/max00189xp/homework/internal/config"
	"github.com/max00189xp/homework/internal/desk"
	"github.com/max00189xp/homework/internal/feedback"
	"github.com/max00189xp/homework/internal/logbook"
	"github.com/max00189xp/homework/internal/logging"
	"github.com/max00189xp/homework/internal/speech"
)

const logPanelLines = 8

// focusField is the input that receives keystrokes.
type focusField int

const (
	focusNone focusField = iota // keys go to tab shortcuts
	focusSubmitName
	focusSubmitContent
	focusQueryName
)

// focusOrder lists the fields reachable with tab on each page.
var focusOrder = map[desk.Tab][]focusField{
	desk.TabSubmit: {focusSubmitName, focusSubmitContent, focusNone},
	desk.TabQuery:  {focusQueryName, focusNone},
}

// operationDoneMsg is sent when a submit or query command returns.
type operationDoneMsg struct {
	form desk.Form
	err  error
}

// journalUpdatedMsg is sent by commands that may have written to the journal.
type journalUpdatedMsg struct{}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithTransport overrides the transport selected from the config.
func WithTransport(t feedback.Transport) AppOption {
	return func(a *App) {
		if t != nil {
			a.transport = t
		}
	}
}

// WithSpeechEngine overrides the detected TTS engine.
func WithSpeechEngine(e speech.Engine) AppOption {
	return func(a *App) {
		if e != nil {
			a.engine = e
		}
	}
}

// WithLogger sends transport and speech diagnostics to l.
func WithLogger(l *logging.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// WithLogbook replaces the journal opened from the config.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithControllerOptions appends options to the desk controller, after the
// ones derived from the config.
func WithControllerOptions(opts ...desk.Option) AppOption {
	return func(a *App) {
		a.controllerOpts = append(a.controllerOpts, opts...)
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config     *config.Config
	controller *desk.Controller
	events     *presenter
	logbook    *logbook.Logbook
	logger     *logging.Logger
	transport  feedback.Transport
	engine     speech.Engine
	keys       keyMap

	controllerOpts []desk.Option
	backendLabel   string

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown sync.Once

	// Form components
	submitName    textinput.Model
	submitContent textarea.Model
	queryName     textinput.Model
	spinner       spinner.Model
	focus         focusField

	// Mirror of the controller state, updated from presenter events
	tabs          desk.TabSet
	loading       map[desk.Form]bool
	messages      map[desk.Form]desk.Message
	result        desk.Result
	resultVisible bool
	speechState   speech.State

	logEntries []logbook.Entry
	logTotal   int

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp wires the controller, transport, speech engine and journal for cfg.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, errNoConfig
	}
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config:      cfg,
		events:      newPresenter(),
		keys:        newKeyMap(),
		ctx:         ctx,
		cancel:      cancel,
		tabs:        desk.NewTabSet(desk.DefaultTabs...),
		loading:     map[desk.Form]bool{},
		messages:    map[desk.Form]desk.Message{},
		speechState: speech.StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	if app.logbook == nil {
		if lb, err := logbook.New(cfg.JournalPath()); err == nil {
			app.logbook = lb
		}
	}
	if app.transport == nil {
		var httpOpts []feedback.HTTPOption
		if app.logger != nil {
			httpOpts = append(httpOpts, feedback.WithLogger(app.logger.With("transport")))
		}
		transport, err := feedback.NewTransport(cfg, httpOpts...)
		if err != nil {
			cancel()
			return nil, err
		}
		app.transport = transport
	}
	if app.engine == nil {
		engine, err := speech.EngineFromConfig(cfg.Project.Speech)
		if err != nil {
			app.logWarn("Speech unavailable, read-aloud is silent: %v", err)
		}
		app.engine = engine
	}

	var speechOpts []speech.Option
	if app.logger != nil {
		speechOpts = append(speechOpts, speech.WithLogger(app.logger.With("speech")))
	}
	ctrlOpts := desk.FromConfig(cfg)
	ctrlOpts = append(ctrlOpts, desk.WithSpeech(app.engine, speechOpts...))
	if app.logbook != nil {
		ctrlOpts = append(ctrlOpts, desk.WithJournal(app.logbook))
	}
	ctrlOpts = append(ctrlOpts, app.controllerOpts...)
	app.controller = desk.New(app.transport, app.events, ctrlOpts...)
	_ = app.tabs.Activate(app.controller.ActiveTab())
	app.backendLabel = feedback.Describe(app.transport)

	app.submitName = newNameInput()
	app.queryName = newNameInput()
	app.submitContent = newContentArea()
	app.spinner = spinner.New()
	app.spinner.Spinner = spinner.Dot
	app.spinner.Style = lipgloss.NewStyle().Foreground(colorAccent)
	app.setFocus(focusSubmitName)

	app.logInfo("Session opened · backend: %s", app.backendLabel)
	app.refreshLog()
	return app, nil
}

func newNameInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "請輸入姓名"
	ti.CharLimit = 64
	ti.Width = 32
	return ti
}

func newContentArea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "在此貼上作品內容..."
	ta.ShowLineNumbers = false
	ta.SetWidth(48)
	ta.SetHeight(6)
	return ta
}

// Close stops speech and cancels in-flight requests. It is safe to call more
// than once.
func (a *App) Close() {
	a.shutdown.Do(func() {
		a.cancel()
		a.events.close()
		a.controller.Close()
		a.logInfo("Session closed")
	})
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) refreshLog() {
	if a.logbook == nil {
		return
	}
	a.logEntries, a.logTotal = a.logbook.Recent(logPanelLines)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.events.wait(), textinput.Blink)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.anyLoading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case operationDoneMsg, journalUpdatedMsg:
		a.refreshLog()
		return a, nil

	case messageEvent:
		a.messages[msg.section] = msg.message
		return a, a.events.wait()

	case clearMessageEvent:
		delete(a.messages, msg.section)
		return a, a.events.wait()

	case loadingEvent:
		wasLoading := a.anyLoading()
		a.loading[msg.form] = msg.loading
		if msg.loading && !wasLoading {
			return a, tea.Batch(a.events.wait(), a.spinner.Tick)
		}
		return a, a.events.wait()

	case resultEvent:
		a.result = msg.result
		a.resultVisible = true
		return a, a.events.wait()

	case hideResultEvent:
		a.resultVisible = false
		return a, a.events.wait()

	case resetFormEvent:
		a.resetForm(msg.form)
		return a, a.events.wait()

	case tabEvent:
		if err := a.tabs.Activate(msg.tab); err != nil {
			return a, a.events.wait()
		}
		fields := focusOrder[msg.tab]
		return a, tea.Batch(a.events.wait(), a.setFocus(fields[0]))

	case speechEvent:
		a.speechState = msg.state
		return a, a.events.wait()
	}

	return a, a.updateFocused(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.quit):
		a.Close()
		return a, tea.Quit
	case key.Matches(msg, a.keys.nextFocus):
		return a, a.moveFocus(1)
	case key.Matches(msg, a.keys.prevFocus):
		return a, a.moveFocus(-1)
	case key.Matches(msg, a.keys.nextTab):
		return a, a.activateTab(a.tabs.Next(1))
	case key.Matches(msg, a.keys.prevTab):
		return a, a.activateTab(a.tabs.Next(-1))
	case key.Matches(msg, a.keys.blur):
		return a, a.setFocus(focusNone)
	case key.Matches(msg, a.keys.play):
		return a, a.playCmd()
	case key.Matches(msg, a.keys.submitArea) && a.focus == focusSubmitContent:
		return a, a.sendActiveForm()
	case key.Matches(msg, a.keys.submit) && a.focus != focusSubmitContent:
		return a, a.sendActiveForm()
	}

	if a.focus == focusNone {
		switch {
		case key.Matches(msg, a.keys.submitTab):
			return a, a.activateTab(desk.TabSubmit)
		case key.Matches(msg, a.keys.queryTab):
			return a, a.activateTab(desk.TabQuery)
		}
		return a, nil
	}
	return a, a.updateFocused(msg)
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusSubmitName:
		a.submitName, cmd = a.submitName.Update(msg)
	case focusSubmitContent:
		a.submitContent, cmd = a.submitContent.Update(msg)
	case focusQueryName:
		a.queryName, cmd = a.queryName.Update(msg)
	}
	return cmd
}

func (a *App) moveFocus(step int) tea.Cmd {
	fields := focusOrder[a.tabs.Active()]
	idx := 0
	for i, f := range fields {
		if f == a.focus {
			idx = i
			break
		}
	}
	n := len(fields)
	return a.setFocus(fields[((idx+step)%n+n)%n])
}

func (a *App) setFocus(field focusField) tea.Cmd {
	a.focus = field
	a.submitName.Blur()
	a.submitContent.Blur()
	a.queryName.Blur()
	switch field {
	case focusSubmitName:
		return a.submitName.Focus()
	case focusSubmitContent:
		return a.submitContent.Focus()
	case focusQueryName:
		return a.queryName.Focus()
	}
	return nil
}

func (a *App) resetForm(form desk.Form) {
	switch form {
	case desk.FormSubmit:
		a.submitName.Reset()
		a.submitContent.Reset()
		if a.tabs.IsActive(desk.TabSubmit) {
			a.setFocus(focusSubmitName)
		}
	case desk.FormQuery:
		a.queryName.Reset()
	}
}

func (a *App) resize() {
	left, _ := a.columnWidths()
	inner := max(20, left-6)
	a.submitName.Width = min(32, inner)
	a.queryName.Width = min(32, inner)
	a.submitContent.SetWidth(inner)
}

func (a *App) anyLoading() bool {
	for _, v := range a.loading {
		if v {
			return true
		}
	}
	return false
}

// activateTab asks the controller to switch tabs; the tab bar follows once
// the presenter reports the change.
func (a *App) activateTab(tab desk.Tab) tea.Cmd {
	ctrl := a.controller
	return func() tea.Msg {
		if err := ctrl.ActivateTab(tab); err != nil {
			a.logWarn("Tab switch ignored: %v", err)
		}
		return journalUpdatedMsg{}
	}
}

func (a *App) sendActiveForm() tea.Cmd {
	if a.tabs.IsActive(desk.TabQuery) {
		return a.queryCmd(a.queryName.Value())
	}
	return a.submitCmd(a.submitName.Value(), a.submitContent.Value())
}

func (a *App) submitCmd(name, content string) tea.Cmd {
	ctrl, ctx := a.controller, a.ctx
	return func() tea.Msg {
		err := ctrl.SubmitWork(ctx, name, content)
		return operationDoneMsg{form: desk.FormSubmit, err: err}
	}
}

func (a *App) queryCmd(name string) tea.Cmd {
	ctrl, ctx := a.controller, a.ctx
	return func() tea.Msg {
		_, err := ctrl.QueryFeedback(ctx, name)
		return operationDoneMsg{form: desk.FormQuery, err: err}
	}
}

func (a *App) playCmd() tea.Cmd {
	ctrl := a.controller
	return func() tea.Msg {
		ctrl.PlayFeedback()
		return journalUpdatedMsg{}
	}
}

func (a *App) columnWidths() (int, int) {
	if a.width <= 0 {
		return 60, 40
	}
	right := a.width / 3
	if right < 30 {
		return a.width, 0
	}
	return a.width - right, right
}
