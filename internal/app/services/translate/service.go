package translate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jarvisfi/jarvisfi/internal/cache"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

const cacheTTL = 24 * time.Hour

// Provider translates free text between languages. The catalog handles known
// UI strings; the provider covers everything else.
type Provider interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Service resolves localized strings from the built-in catalog and falls
// back to the configured provider for free text, caching provider results.
type Service struct {
	provider Provider
	cache    cache.Cache
	log      *logger.Logger
}

// New constructs a translation service. provider may be nil; free-text
// translation then returns the input unchanged.
func New(provider Provider, c cache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("translate")
	}
	if c == nil {
		c = cache.NewMemory()
	}
	return &Service{provider: provider, cache: c, log: log}
}

// Lookup returns the catalog string for a key in the requested language,
// falling back to English when the language is missing.
func (s *Service) Lookup(key, language string) (string, error) {
	entry, ok := catalog[key]
	if !ok {
		return "", fmt.Errorf("unknown string key %q", key)
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if text, ok := entry[language]; ok {
		return text, nil
	}
	return entry["en"], nil
}

// Catalog returns every catalog string for a language, with English filling
// the gaps.
func (s *Service) Catalog(language string) map[string]string {
	language = strings.ToLower(strings.TrimSpace(language))
	out := make(map[string]string, len(catalog))
	for key, entry := range catalog {
		if text, ok := entry[language]; ok {
			out[key] = text
		} else {
			out[key] = entry["en"]
		}
	}
	return out
}

// Translate translates free text via the provider, consulting the cache
// first. Without a provider the input is returned unchanged.
func (s *Service) Translate(ctx context.Context, text, from, to string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text is required")
	}
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == to || to == "" {
		return text, nil
	}

	if s.provider == nil {
		return text, nil
	}

	key := cacheKey(text, from, to)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	translated, err := s.provider.Translate(ctx, text, from, to)
	if err != nil {
		s.log.WithError(err).Warn("translation provider failed; returning original text")
		return text, nil
	}

	if err := s.cache.Set(ctx, key, translated, cacheTTL); err != nil {
		s.log.WithError(err).Debug("translation cache write failed")
	}
	return translated, nil
}

func cacheKey(text, from, to string) string {
	sum := sha256.Sum256([]byte(from + "|" + to + "|" + text))
	return "translate:" + hex.EncodeToString(sum[:])
}

// HTTPProvider calls a JSON endpoint of the shape
// POST {url} {"text", "from", "to"} -> {"translated": ...}.
type HTTPProvider struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPProvider builds a provider for the given endpoint.
func NewHTTPProvider(url, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPProvider) Translate(ctx context.Context, text, from, to string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text, "from": from, "to": to})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("translation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation provider returned status %d", resp.StatusCode)
	}

	translated := gjson.GetBytes(payload, "translated").String()
	if translated == "" {
		return "", fmt.Errorf("translation response missing translated text")
	}
	return translated, nil
}
