package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/galiprandi/dimensions/internal/ai"

	"go.uber.org/zap"
)

type stubSession struct {
	response string
	err      error
	prompts  []string
}

func (s *stubSession) Prompt(_ context.Context, text string) (string, error) {
	s.prompts = append(s.prompts, text)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubSession) Destroy() {}

type stubSessions struct {
	session  *stubSession
	err      error
	acquires int
}

func (s *stubSessions) Acquire(_ context.Context, _ string) (ai.Session, error) {
	s.acquires++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func newProxy(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestSourceFetchesThroughProxyAndCaches(t *testing.T) {
	calls := 0
	proxy := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("url"); got != "https://www.linkedin.com/in/ada" {
			t.Fatalf("unexpected target url: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "perfil de ada"})
	})

	insight := New(proxy.URL, &stubSessions{}, zap.NewNop())

	for range 2 {
		text, err := insight.Source(context.Background(), "INT-1", "https://www.linkedin.com/in/ada")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "perfil de ada" {
			t.Fatalf("unexpected text: %q", text)
		}
	}

	if calls != 1 {
		t.Fatalf("expected a single proxy call, got %d", calls)
	}
}

func TestSourceFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "proxy error field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"error": "blocked"})
			},
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"text": "   "})
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proxy := newProxy(t, tc.handler)
			insight := New(proxy.URL, &stubSessions{}, zap.NewNop())

			_, err := insight.Source(context.Background(), "INT-1", "https://www.linkedin.com/in/ada")

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %v", err)
			}
		})
	}
}

func TestSummarizeTruncatesSourceAndCaches(t *testing.T) {
	longProfile := strings.Repeat("x", maxSourceRunes+500)
	proxy := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": longProfile})
	})

	session := &stubSession{response: " resumen del perfil "}
	sessions := &stubSessions{session: session}
	insight := New(proxy.URL, sessions, zap.NewNop())

	summary, err := insight.Summarize(context.Background(), "INT-1", "https://www.linkedin.com/in/ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "resumen del perfil" {
		t.Fatalf("unexpected summary: %q", summary)
	}

	if len(session.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(session.prompts))
	}
	prompt := session.prompts[0]
	if strings.Count(prompt, "x") != maxSourceRunes {
		t.Fatalf("expected profile text truncated to %d runes, got %d", maxSourceRunes, strings.Count(prompt, "x"))
	}
	if !strings.Contains(prompt, "https://www.linkedin.com/in/ada") {
		t.Fatalf("expected source url in prompt")
	}

	// Second call is served from cache, no new model round-trip.
	if _, err := insight.Summarize(context.Background(), "INT-1", "https://www.linkedin.com/in/ada"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sessions.acquires != 1 {
		t.Fatalf("expected one session acquire, got %d", sessions.acquires)
	}
}

func TestInvalidateDropsBothSteps(t *testing.T) {
	calls := 0
	proxy := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"text": "perfil"})
	})

	insight := New(proxy.URL, &stubSessions{session: &stubSession{response: "resumen"}}, zap.NewNop())

	if _, err := insight.Summarize(context.Background(), "INT-1", "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	insight.Invalidate("INT-1", "u")

	if _, err := insight.Summarize(context.Background(), "INT-1", "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected re-fetch after invalidation, got %d calls", calls)
	}
}

func TestSummarizePropagatesSessionErrors(t *testing.T) {
	proxy := newProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "perfil"})
	})

	insight := New(proxy.URL, &stubSessions{err: ai.ErrModelUnavailable}, zap.NewNop())

	if _, err := insight.Summarize(context.Background(), "INT-1", "u"); !errors.Is(err, ai.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable error, got %v", err)
	}
}
