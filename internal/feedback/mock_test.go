package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/max00189xp/homework/internal/config"
)

func TestMockQuerySentinelFound(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	m := NewMockTransport(WithDelay(0), WithMockClock(func() time.Time { return fixed }))
	resp, err := m.Call(context.Background(), QueryRequest(SentinelName))
	require.NoError(t, err)
	require.True(t, resp.Found)
	require.Equal(t, SentinelName, resp.Name)
	require.NotEmpty(t, resp.FourChar)
	require.NotEmpty(t, resp.Feedback)
	require.Equal(t, "2024/3/5 14:07:09", resp.Time)
}

func TestMockQuerySentinelDecomposedInput(t *testing.T) {
	m := NewMockTransport(WithDelay(0))
	resp, err := m.Call(context.Background(), QueryRequest(norm.NFD.String(SentinelName)+" "))
	require.NoError(t, err)
	require.True(t, resp.Found)
}

func TestMockQueryOtherNamesNotFound(t *testing.T) {
	m := NewMockTransport(WithDelay(0))
	for _, name := range []string{"小明", "測", "測試2", "test"} {
		resp, err := m.Call(context.Background(), QueryRequest(name))
		require.NoError(t, err)
		require.False(t, resp.Found, name)
		require.Empty(t, resp.Feedback)
	}
}

func TestMockSubmitAlwaysSucceedsAfterDelay(t *testing.T) {
	m := NewMockTransport(WithDelay(30 * time.Millisecond))
	start := time.Now()
	resp, err := m.Call(context.Background(), SubmitRequest("a", "b"))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestMockDefaultDelay(t *testing.T) {
	require.Equal(t, 1500*time.Millisecond, NewMockTransport().Delay())
}

func TestMockHonorsCancellation(t *testing.T) {
	m := NewMockTransport(WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Call(ctx, QueryRequest(SentinelName))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewTransportSelectsByConfig(t *testing.T) {
	cfg := &config.Config{Project: config.ProjectConfig{Backend: config.BackendConfig{URL: config.PlaceholderURL, MockDelay: time.Second}}}
	tr, err := NewTransport(cfg)
	require.NoError(t, err)
	mock, ok := tr.(*MockTransport)
	require.True(t, ok, "expected mock, got %T", tr)
	require.Equal(t, time.Second, mock.Delay())

	cfg.Project.Backend.URL = "https://script.google.com/macros/s/x/exec"
	tr, err = NewTransport(cfg)
	require.NoError(t, err)
	_, ok = tr.(*HTTPTransport)
	require.True(t, ok, "expected http, got %T", tr)
	require.Equal(t, "https://script.google.com/macros/s/x/exec", Describe(tr))
}

func TestRequestValidate(t *testing.T) {
	require.NoError(t, SubmitRequest("a", "b").Validate())
	require.NoError(t, QueryRequest("a").Validate())

	err := SubmitRequest(" ", "").Validate()
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"content", "name"}, verr.Missing)

	require.ErrorIs(t, Request{Action: "delete"}.Validate(), ErrValidation)
}
