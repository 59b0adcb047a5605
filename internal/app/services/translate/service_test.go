package translate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jarvisfi/jarvisfi/internal/cache"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("translate-test")
	log.SetOutput(io.Discard)
	return log
}

func TestLookup(t *testing.T) {
	svc := New(nil, nil, quietLogger())

	ta, err := svc.Lookup("budget", "ta")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ta == "Budget" {
		t.Fatalf("expected Tamil translation, got English")
	}

	// Unknown language falls back to English.
	fallback, err := svc.Lookup("budget", "fr")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if fallback != "Budget" {
		t.Fatalf("expected English fallback, got %q", fallback)
	}

	if _, err := svc.Lookup("no-such-key", "en"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCatalogFillsGapsWithEnglish(t *testing.T) {
	svc := New(nil, nil, quietLogger())

	hi := svc.Catalog("hi")
	if len(hi) != len(catalog) {
		t.Fatalf("expected %d entries, got %d", len(catalog), len(hi))
	}
	for key, text := range hi {
		if text == "" {
			t.Fatalf("empty catalog entry for %q", key)
		}
	}
}

type countingProvider struct {
	calls int64
}

func (p *countingProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	atomic.AddInt64(&p.calls, 1)
	return "translated:" + text, nil
}

func TestTranslateCachesProviderResults(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{}
	svc := New(provider, cache.NewMemory(), quietLogger())

	first, err := svc.Translate(ctx, "hello", "en", "ta")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	second, err := svc.Translate(ctx, "hello", "en", "ta")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if first != second || first != "translated:hello" {
		t.Fatalf("unexpected results %q / %q", first, second)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestTranslateSameLanguageShortCircuits(t *testing.T) {
	provider := &countingProvider{}
	svc := New(provider, nil, quietLogger())

	out, err := svc.Translate(context.Background(), "hello", "en", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hello" || provider.calls != 0 {
		t.Fatalf("expected passthrough without provider call")
	}
}

func TestTranslateWithoutProviderReturnsInput(t *testing.T) {
	svc := New(nil, nil, quietLogger())

	out, err := svc.Translate(context.Background(), "hello", "en", "ta")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

type failingProvider struct{}

func (failingProvider) Translate(context.Context, string, string, string) (string, error) {
	return "", fmt.Errorf("provider down")
}

func TestTranslateProviderFailureReturnsOriginal(t *testing.T) {
	svc := New(failingProvider{}, nil, quietLogger())

	out, err := svc.Translate(context.Background(), "hello", "en", "ta")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected original text on provider failure, got %q", out)
	}
}

func TestHTTPProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"translated": "வணக்கம்"}`)
	}))
	defer server.Close()

	provider := NewHTTPProvider(server.URL, "")
	out, err := provider.Translate(context.Background(), "hello", "en", "ta")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "வணக்கம்" {
		t.Fatalf("unexpected translation %q", out)
	}
}
