package feedback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Action names one backend operation.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionQuery  Action = "query"
)

// Payload field names.
const (
	FieldName    = "name"
	FieldContent = "content"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionSubmit || a == ActionQuery
}

// Payload maps field name to value.
type Payload map[string]string

// Request is one logical call against the backend.
type Request struct {
	Action  Action
	Payload Payload
}

// SubmitRequest builds a submit request.
func SubmitRequest(name, content string) Request {
	return Request{Action: ActionSubmit, Payload: Payload{FieldName: name, FieldContent: content}}
}

// QueryRequest builds a query request.
func QueryRequest(name string) Request {
	return Request{Action: ActionQuery, Payload: Payload{FieldName: name}}
}

// RequiredFields lists the payload fields that must be non-empty.
func (r Request) RequiredFields() []string {
	switch r.Action {
	case ActionSubmit:
		return []string{FieldName, FieldContent}
	case ActionQuery:
		return []string{FieldName}
	default:
		return nil
	}
}

// Validate checks the action and the presence of required fields.
func (r Request) Validate() error {
	if !r.Action.Valid() {
		return &ValidationError{Action: r.Action, Reason: "unknown action"}
	}
	var missing []string
	for _, field := range r.RequiredFields() {
		if strings.TrimSpace(r.Payload[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{Action: r.Action, Missing: missing}
	}
	return nil
}

// Response is the decoded JSON body. Submit responses only carry Success;
// query responses carry Found and, when found, the review fields.
type Response struct {
	Success  bool   `json:"success"`
	Found    bool   `json:"found"`
	Name     string `json:"name,omitempty"`
	Time     string `json:"time,omitempty"`
	FourChar string `json:"four_char,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

// Transport performs one request. Implementations make a single attempt.
type Transport interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function into a Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Call executes f(ctx, req).
func (f TransportFunc) Call(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Logger records transport diagnostics. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

var (
	// ErrValidation marks requests rejected before any I/O.
	ErrValidation = errors.New("feedback: invalid request")
	// ErrNetwork marks transport failures and non-success statuses.
	ErrNetwork = errors.New("feedback: network error")
	// ErrParse marks response bodies that are not the expected JSON.
	ErrParse = errors.New("feedback: malformed response")
)

// ValidationError reports an unknown action or missing required fields.
type ValidationError struct {
	Action  Action
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("feedback: %s: missing %s", e.Action, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("feedback: %s: %s", e.Action, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Action     Action
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feedback: %s: unexpected status %d", e.Action, e.StatusCode)
}

// Is makes errors.Is(err, ErrNetwork) hold.
func (e *StatusError) Is(target error) bool { return target == ErrNetwork }
