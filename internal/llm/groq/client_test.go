package groq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"academic-backend/internal/llm"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "llama-3.3-70b-versatile", 0.1, 2000, 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.baseURL = srv.URL
	return c, srv
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Summary text. "}}]}`))
	})

	got, err := c.Complete(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "Summary text." {
		t.Fatalf("content = %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
}

func TestCompleteMapsStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   llm.Kind
	}{
		{"too many requests", http.StatusTooManyRequests, llm.KindRateLimited},
		{"unauthorized", http.StatusUnauthorized, llm.KindConfiguration},
		{"server error", http.StatusInternalServerError, llm.KindProvider},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			_, err := c.Complete(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected error")
			}
			if llm.KindOf(err) != tc.want {
				t.Fatalf("kind = %s, want %s", llm.KindOf(err), tc.want)
			}
		})
	}
}

func TestCompleteEmptyContentIsInvalidResponse(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	})
	_, err := c.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if llm.KindOf(err) != llm.KindInvalidResponse {
		t.Fatalf("kind = %s, want %s", llm.KindOf(err), llm.KindInvalidResponse)
	}
}

func TestCompleteMalformedBodyIsInvalidResponse(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	_, err := c.Complete(context.Background(), "prompt")
	if llm.KindOf(err) != llm.KindInvalidResponse {
		t.Fatalf("kind = %s, want %s", llm.KindOf(err), llm.KindInvalidResponse)
	}
}

func TestCompleteTimeoutIsTimeoutKind(t *testing.T) {
	c, _ := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"choices":[]}`))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if llm.KindOf(err) != llm.KindTimeout {
		t.Fatalf("kind = %s, want %s", llm.KindOf(err), llm.KindTimeout)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "model", 0, 0, time.Second); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient("key", " ", 0, 0, time.Second); err == nil {
		t.Fatal("expected error for missing model")
	}
}
