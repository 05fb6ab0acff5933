package desk

import "github.com/max00189xp/homework/internal/speech"

// Form identifies one of the two forms. Message areas are keyed by the same
// names.
type Form string

const (
	FormSubmit Form = "submit"
	FormQuery  Form = "query"
)

// Severity styles a transient message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Presenter is the rendering capability the controller drives.
type Presenter interface {
	RenderMessage(section Form, text string, severity Severity)
	ClearMessage(section Form)
	SetLoading(form Form, loading bool)
	RenderResult(result Result)
	HideResult()
	ResetForm(form Form)
	SetActiveTab(tab Tab)
	SetSpeechState(state speech.State)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) RenderMessage(Form, string, Severity) {}
func (NopPresenter) ClearMessage(Form)                    {}
func (NopPresenter) SetLoading(Form, bool)                {}
func (NopPresenter) RenderResult(Result)                  {}
func (NopPresenter) HideResult()                          {}
func (NopPresenter) ResetForm(Form)                       {}
func (NopPresenter) SetActiveTab(Tab)                     {}
func (NopPresenter) SetSpeechState(speech.State)          {}

// Journal records operation history. *logbook.Logbook satisfies it.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any)  {}
func (nopJournal) Warn(string, ...any)  {}
func (nopJournal) Error(string, ...any) {}
