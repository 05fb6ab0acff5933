package feedback

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// SentinelName is the only name the mock reports feedback for.
	SentinelName = "測試"
	// DefaultMockDelay emulates network latency.
	DefaultMockDelay = 1500 * time.Millisecond

	// TimeLayout formats review timestamps, e.g. 2024/9/1 08:05:09.
	TimeLayout = "2006/1/2 15:04:05"

	sampleFourChar = "別出心裁"
	sampleFeedback = "這是一段測試用的文字回饋。你的作品結構完整，創意十足，特別是在色彩運用上非常大膽。建議可以再加強細節的描寫。"
)

// MockTransport answers locally when no endpoint is configured. It never
// fails: submit always succeeds and query finds only SentinelName. The only
// early return is the caller cancelling ctx.
type MockTransport struct {
	delay time.Duration
	clock func() time.Time
}

// MockOption customizes MockTransport construction.
type MockOption func(*MockTransport)

// WithDelay overrides DefaultMockDelay. Zero resolves immediately.
func WithDelay(d time.Duration) MockOption {
	return func(m *MockTransport) {
		if d >= 0 {
			m.delay = d
		}
	}
}

// WithMockClock controls the time stamped on sample feedback.
func WithMockClock(clock func() time.Time) MockOption {
	return func(m *MockTransport) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMockTransport returns a mock with the default delay.
func NewMockTransport(opts ...MockOption) *MockTransport {
	m := &MockTransport{delay: DefaultMockDelay, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Delay reports the simulated latency.
func (m *MockTransport) Delay() time.Duration {
	return m.delay
}

// Call waits for the simulated latency and returns a canned response.
func (m *MockTransport) Call(ctx context.Context, req Request) (Response, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return Response{}, ctx.Err()
		}
	}
	if req.Action == ActionSubmit {
		return Response{Success: true}, nil
	}
	name := norm.NFC.String(strings.TrimSpace(req.Payload[FieldName]))
	if name != SentinelName {
		return Response{Found: false}, nil
	}
	return Response{
		Found:    true,
		Name:     name,
		Time:     m.clock().Format(TimeLayout),
		FourChar: sampleFourChar,
		Feedback: sampleFeedback,
	}, nil
}
