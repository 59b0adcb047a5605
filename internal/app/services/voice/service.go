package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

const maxAudioBytes = 10 << 20

// Processor converts between speech audio and text. The implementation is an
// external service; nothing in this package inspects audio content.
type Processor interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Service validates requests and delegates to the configured processor.
type Service struct {
	processor Processor
	log       *logger.Logger
}

// New constructs a voice service. processor may be nil, which makes Enabled
// report false and all operations fail.
func New(processor Processor, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("voice")
	}
	return &Service{processor: processor, log: log}
}

// Enabled reports whether a processor is configured.
func (s *Service) Enabled() bool {
	return s.processor != nil
}

// Transcribe converts spoken audio to text.
func (s *Service) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if s.processor == nil {
		return "", fmt.Errorf("voice processing is not configured")
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is required")
	}
	if len(audio) > maxAudioBytes {
		return "", fmt.Errorf("audio payload exceeds %d bytes", maxAudioBytes)
	}
	return s.processor.Transcribe(ctx, audio, language)
}

// Synthesize converts text to spoken audio.
func (s *Service) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if s.processor == nil {
		return nil, fmt.Errorf("voice processing is not configured")
	}
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}
	return s.processor.Synthesize(ctx, text, language)
}

// HTTPProcessor calls an external speech service. Audio travels base64
// encoded inside JSON.
type HTTPProcessor struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPProcessor builds a processor for the given endpoint.
func NewHTTPProcessor(url, apiKey string) *HTTPProcessor {
	return &HTTPProcessor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *HTTPProcessor) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	payload, err := p.post(ctx, "/transcribe", map[string]string{
		"audio":    base64.StdEncoding.EncodeToString(audio),
		"language": language,
	})
	if err != nil {
		return "", err
	}
	text := gjson.GetBytes(payload, "text").String()
	if text == "" {
		return "", fmt.Errorf("transcription response missing text")
	}
	return text, nil
}

func (p *HTTPProcessor) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	payload, err := p.post(ctx, "/synthesize", map[string]string{
		"text":     text,
		"language": language,
	})
	if err != nil {
		return nil, err
	}
	encoded := gjson.GetBytes(payload, "audio").String()
	if encoded == "" {
		return nil, fmt.Errorf("synthesis response missing audio")
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode synthesis audio: %w", err)
	}
	return audio, nil
}

func (p *HTTPProcessor) post(ctx context.Context, path string, fields map[string]string) ([]byte, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes*2))
	if err != nil {
		return nil, fmt.Errorf("voice response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice service returned status %d", resp.StatusCode)
	}
	return payload, nil
}
