package stubserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/max00189xp/homework/internal/config"
	"github.com/max00189xp/homework/internal/feedback"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{Project: config.ProjectConfig{Stub: config.StubConfig{Host: " 0.0.0.0 ", Port: 9001}}}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if settings.URL() != "http://0.0.0.0:9001/exec" {
		t.Fatalf("unexpected url %s", settings.URL())
	}

	defaults := SettingsFromConfig(nil)
	if defaults.Address() != "127.0.0.1:8787" || defaults.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}
}

func TestServerRoundTripThroughHTTPTransport(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(Review{Name: "小明", Time: "2024/9/1 08:00:00", FourChar: "別出心裁", Feedback: "很好"})
	srv := startServer(t, Settings{Host: "127.0.0.1", Port: 0}, WithStore(store), WithClock(func() time.Time { return fixed }))

	transport, err := feedback.NewHTTPTransport(srv.ExecURL())
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	ctx := context.Background()

	resp, err := transport.Call(ctx, feedback.SubmitRequest("小明", "作品內容"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	subs := store.Submissions()
	if len(subs) != 1 || subs[0].Content != "作品內容" || !subs[0].ReceivedAt.Equal(fixed) {
		t.Fatalf("submission not recorded: %+v", subs)
	}
	if subs[0].ID == "" {
		t.Fatalf("submission id missing")
	}

	resp, err = transport.Call(ctx, feedback.QueryRequest("小明"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !resp.Found || resp.FourChar != "別出心裁" || resp.Feedback != "很好" || resp.Time != "2024/9/1 08:00:00" {
		t.Fatalf("unexpected query response: %+v", resp)
	}

	resp, err = transport.Call(ctx, feedback.QueryRequest("小華"))
	if err != nil {
		t.Fatalf("query unknown: %v", err)
	}
	if resp.Found {
		t.Fatalf("expected not found, got %+v", resp)
	}
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	srv := startServer(t, Settings{Host: "127.0.0.1", Port: 0})
	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}
	if srv.Status() != StatusReady {
		t.Fatalf("expected ready status, got %s", srv.Status())
	}
}

func TestServerEnforcesPayloadLimit(t *testing.T) {
	t.Parallel()
	srv := startServer(t, Settings{Host: "127.0.0.1", Port: 0, MaxBodyBytes: 64})
	body := `{"name":"a","content":"` + strings.Repeat("a", 512) + `"}`
	resp, err := http.Post(srv.ExecURL()+"?action=submit", "text/plain", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestExecRejectsBadRequests(t *testing.T) {
	store := NewStore()
	handler := NewServer(Settings{}, WithStore(store)).Handler()
	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown action", http.MethodGet, "/exec?action=delete", "", http.StatusBadRequest},
		{"missing action", http.MethodGet, "/exec", "", http.StatusBadRequest},
		{"submit via get", http.MethodGet, "/exec?action=submit", "", http.StatusMethodNotAllowed},
		{"query via post", http.MethodPost, "/exec?action=query&name=a", "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "/exec?action=submit", "{", http.StatusBadRequest},
		{"blank content", http.MethodPost, "/exec?action=submit", `{"name":"a","content":"  "}`, http.StatusBadRequest},
		{"blank name", http.MethodGet, "/exec?action=query&name=%20", "", http.StatusBadRequest},
		{"health via post", http.MethodPost, "/health", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
	if n := len(store.Submissions()); n != 0 {
		t.Fatalf("rejected requests must not be stored, got %d", n)
	}
}

func TestServerLatencyDelaysResponses(t *testing.T) {
	t.Parallel()
	srv := startServer(t, Settings{Host: "127.0.0.1", Port: 0, Latency: 50 * time.Millisecond})
	transport, err := feedback.NewHTTPTransport(srv.ExecURL())
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = transport.Call(ctx, feedback.QueryRequest("a"))
	if !errors.Is(err, feedback.ErrNetwork) {
		t.Fatalf("expected network error from timeout, got %v", err)
	}
}

func startServer(t *testing.T, settings Settings, opts ...Option) *Server {
	t.Helper()
	srv := NewServer(settings, opts...)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return srv
}
