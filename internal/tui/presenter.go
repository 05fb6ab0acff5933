package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/max00189xp/homework/internal/desk"
	"github.com/max00189xp/homework/internal/speech"
)

const presenterBuffer = 64

type messageEvent struct {
	section desk.Form
	message desk.Message
}

type clearMessageEvent struct {
	section desk.Form
}

type loadingEvent struct {
	form    desk.Form
	loading bool
}

type resultEvent struct {
	result desk.Result
}

type hideResultEvent struct{}

type resetFormEvent struct {
	form desk.Form
}

type tabEvent struct {
	tab desk.Tab
}

type speechEvent struct {
	state speech.State
}

// presenter turns controller callbacks into bubbletea messages. Events are
// queued on a buffered channel and drained one at a time by wait.
type presenter struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

func newPresenter() *presenter {
	return &presenter{
		events: make(chan tea.Msg, presenterBuffer),
		done:   make(chan struct{}),
	}
}

func (p *presenter) RenderMessage(section desk.Form, text string, severity desk.Severity) {
	p.send(messageEvent{section: section, message: desk.Message{Text: text, Severity: severity}})
}

func (p *presenter) ClearMessage(section desk.Form) {
	p.send(clearMessageEvent{section: section})
}

func (p *presenter) SetLoading(form desk.Form, loading bool) {
	p.send(loadingEvent{form: form, loading: loading})
}

func (p *presenter) RenderResult(result desk.Result) {
	p.send(resultEvent{result: result})
}

func (p *presenter) HideResult() {
	p.send(hideResultEvent{})
}

func (p *presenter) ResetForm(form desk.Form) {
	p.send(resetFormEvent{form: form})
}

func (p *presenter) SetActiveTab(tab desk.Tab) {
	p.send(tabEvent{tab: tab})
}

func (p *presenter) SetSpeechState(state speech.State) {
	p.send(speechEvent{state: state})
}

// send blocks while the buffer is full so no event is lost, unless the UI
// has shut down.
func (p *presenter) send(msg tea.Msg) {
	select {
	case p.events <- msg:
	case <-p.done:
	}
}

// wait returns a command that delivers the next event.
func (p *presenter) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.events:
			return msg
		case <-p.done:
			return nil
		}
	}
}

func (p *presenter) close() {
	p.once.Do(func() { close(p.done) })
}
