package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

func quietLogger() *logger.Logger {
	log := logger.NewDefault("voice-test")
	log.SetOutput(io.Discard)
	return log
}

func TestServiceDisabledWithoutProcessor(t *testing.T) {
	svc := New(nil, quietLogger())

	if svc.Enabled() {
		t.Fatalf("expected disabled service")
	}
	if _, err := svc.Transcribe(context.Background(), []byte("audio"), "en"); err == nil {
		t.Fatalf("expected transcribe error when disabled")
	}
	if _, err := svc.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Fatalf("expected synthesize error when disabled")
	}
}

type echoProcessor struct{}

func (echoProcessor) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	return string(audio), nil
}

func (echoProcessor) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	return []byte(text), nil
}

func TestServiceValidation(t *testing.T) {
	svc := New(echoProcessor{}, quietLogger())

	if !svc.Enabled() {
		t.Fatalf("expected enabled service")
	}
	if _, err := svc.Transcribe(context.Background(), nil, "en"); err == nil {
		t.Fatalf("expected empty audio rejection")
	}
	if _, err := svc.Synthesize(context.Background(), "", "en"); err == nil {
		t.Fatalf("expected empty text rejection")
	}

	text, err := svc.Transcribe(context.Background(), []byte("spoken words"), "en")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "spoken words" {
		t.Fatalf("unexpected transcription %q", text)
	}
}

func TestHTTPProcessorRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transcribe":
			fmt.Fprint(w, `{"text": "check my balance"}`)
		case "/synthesize":
			encoded := base64.StdEncoding.EncodeToString([]byte("pcm-audio"))
			fmt.Fprintf(w, `{"audio": %q}`, encoded)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	proc := NewHTTPProcessor(server.URL, "")

	text, err := proc.Transcribe(context.Background(), []byte("audio-bytes"), "en")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "check my balance" {
		t.Fatalf("unexpected text %q", text)
	}

	audio, err := proc.Synthesize(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.Equal(audio, []byte("pcm-audio")) {
		t.Fatalf("unexpected audio %q", audio)
	}
}
