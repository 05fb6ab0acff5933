package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPSubmitPostsPlainTextJSON(t *testing.T) {
	var (
		gotMethod, gotAction, gotType string
		gotBody                       map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAction = r.URL.Query().Get("action")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL + "/exec")
	require.NoError(t, err)
	resp, err := tr.Call(context.Background(), SubmitRequest("小明", "我的作品"))
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "submit", gotAction)
	require.Equal(t, "text/plain", gotType)
	require.Equal(t, map[string]string{"name": "小明", "content": "我的作品"}, gotBody)
}

func TestHTTPQueryUsesGetWithEncodedName(t *testing.T) {
	var gotMethod, gotRawQuery string
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotRawQuery = r.URL.RawQuery
		gotLength = r.ContentLength
		_, _ = io.WriteString(w, `{"found":true,"name":"王 小明","time":"2024/1/2","four_char":"別出心裁","feedback":"很好"}`)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL + "/exec?deployment=a")
	require.NoError(t, err)
	resp, err := tr.Call(context.Background(), QueryRequest("王 小明"))
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, gotMethod)
	require.Zero(t, gotLength)
	require.Contains(t, gotRawQuery, "action=query")
	require.Contains(t, gotRawQuery, "deployment=a")
	require.Contains(t, gotRawQuery, "name=%E7%8E%8B+%E5%B0%8F%E6%98%8E")
	require.True(t, resp.Found)
	require.Equal(t, "別出心裁", resp.FourChar)
	require.Equal(t, "很好", resp.Feedback)
}

func TestHTTPPayloadCannotOverrideAction(t *testing.T) {
	var gotActions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActions = r.URL.Query()["action"]
		_, _ = io.WriteString(w, `{"found":false}`)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL + "/exec?action=submit")
	require.NoError(t, err)
	req := Request{Action: ActionQuery, Payload: Payload{FieldName: "a", "action": "submit"}}
	_, err = tr.Call(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"query"}, gotActions)
}

func TestHTTPNonSuccessStatusIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), QueryRequest("a"))
	require.ErrorIs(t, err, ErrNetwork)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestHTTPMalformedBodyIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), QueryRequest("a"))
	require.ErrorIs(t, err, ErrParse)
	require.NotErrorIs(t, err, ErrNetwork)
}

func TestHTTPUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, err := NewHTTPTransport(url)
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), SubmitRequest("a", "b"))
	require.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPSingleAttemptAndValidation(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), SubmitRequest("a", "b"))
	require.Error(t, err)
	require.Equal(t, int32(1), hits.Load())

	_, err = tr.Call(context.Background(), SubmitRequest("a", "  "))
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, int32(1), hits.Load())
}

func TestNewHTTPTransportRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"ftp://x", "not a url", "https://"} {
		_, err := NewHTTPTransport(raw)
		require.Error(t, err, raw)
	}
}

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, strings.TrimSpace(format))
}

func TestHTTPLogsEachCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"found":false}`)
	}))
	t.Cleanup(srv.Close)
	logger := &recordingLogger{}
	tr, err := NewHTTPTransport(srv.URL, WithLogger(logger))
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), QueryRequest("a"))
	require.NoError(t, err)
	require.Len(t, logger.lines, 1)
}
