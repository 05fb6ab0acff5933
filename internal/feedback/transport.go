package feedback

import (
	"fmt"

	"github.com/max00189xp/homework/internal/config"
)

// NewTransport selects the transport for cfg once: the mock when no real
// endpoint is configured, otherwise HTTP. Options apply to the HTTP transport.
func NewTransport(cfg *config.Config, opts ...HTTPOption) (Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("feedback: config is required")
	}
	if cfg.UsesMock() {
		return NewMockTransport(WithDelay(cfg.Project.Backend.MockDelay)), nil
	}
	return NewHTTPTransport(cfg.Project.Backend.URL, opts...)
}

// Describe returns a short label for status bars and logs.
func Describe(t Transport) string {
	switch v := t.(type) {
	case *MockTransport:
		return fmt.Sprintf("mock (%s delay)", v.Delay())
	case *HTTPTransport:
		return v.BaseURL()
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", t)
	}
}
