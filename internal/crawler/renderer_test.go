package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestRenderFetcher builds a RenderFetcher with an injected render
// func, so tests run without a browser binary.
func newTestRenderFetcher(render func(ctx context.Context, pageURL string) (string, error), fallback *HTTPFetcher) *RenderFetcher {
	if fallback == nil {
		fallback = NewHTTPFetcher()
	}
	return &RenderFetcher{
		fallback: fallback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		render:   render,
	}
}

func TestRenderFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("successful render returns snapshot as status 200", func(t *testing.T) {
		t.Parallel()

		r := newTestRenderFetcher(func(ctx context.Context, pageURL string) (string, error) {
			return "<html><body>rendered</body></html>", nil
		}, nil)
		defer r.Close()

		outcome := r.Fetch(context.Background(), "https://example.com/")
		if !outcome.OK {
			t.Fatal("expected OK fetch")
		}
		if outcome.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", outcome.StatusCode, http.StatusOK)
		}
		if string(outcome.Content) != "<html><body>rendered</body></html>" {
			t.Errorf("unexpected content: %q", outcome.Content)
		}
	})

	t.Run("render failure falls back to plain fetch", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body>plain</body></html>"))
		}))
		defer srv.Close()

		r := newTestRenderFetcher(func(ctx context.Context, pageURL string) (string, error) {
			return "", errors.New("navigation timed out")
		}, nil)
		defer r.Close()

		outcome := r.Fetch(context.Background(), srv.URL)
		if !outcome.OK {
			t.Fatalf("expected fallback fetch to succeed, got status %d", outcome.StatusCode)
		}
		if string(outcome.Content) != "<html><body>plain</body></html>" {
			t.Errorf("expected plain fetch content, got %q", outcome.Content)
		}
	})

	t.Run("render failure with unreachable fallback fails the fetch", func(t *testing.T) {
		t.Parallel()

		r := newTestRenderFetcher(func(ctx context.Context, pageURL string) (string, error) {
			return "", errors.New("browser crashed")
		}, nil)
		defer r.Close()

		if outcome := r.Fetch(context.Background(), "http://127.0.0.1:1/unreachable"); outcome.OK {
			t.Error("expected failed fetch when render and fallback both fail")
		}
	})
}

func TestLinkCancellation(t *testing.T) {
	t.Parallel()

	t.Run("caller cancellation fires the linked cancel", func(t *testing.T) {
		t.Parallel()

		renderCtx, renderCancel := context.WithCancel(context.Background())
		defer renderCancel()

		callerCtx, callerCancel := context.WithCancel(context.Background())
		unlink := linkCancellation(callerCtx, renderCancel)
		defer unlink()

		callerCancel()

		select {
		case <-renderCtx.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("render context not cancelled after caller cancellation")
		}
	})

	t.Run("unlink detaches the caller", func(t *testing.T) {
		t.Parallel()

		renderCtx, renderCancel := context.WithCancel(context.Background())
		defer renderCancel()

		callerCtx, callerCancel := context.WithCancel(context.Background())
		unlink := linkCancellation(callerCtx, renderCancel)
		unlink()

		callerCancel()

		select {
		case <-renderCtx.Done():
			t.Fatal("render context cancelled through a detached link")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestRenderFetcherCloseIsRepeatable(t *testing.T) {
	t.Parallel()

	r := newTestRenderFetcher(func(ctx context.Context, pageURL string) (string, error) {
		return "", nil
	}, nil)

	if err := r.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
