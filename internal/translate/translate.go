// Package translate expands search terms with an English rendition so
// keyword matching works across languages. Translation failures always
// degrade to the original text, never to an error.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"collecte/internal/config"
	"collecte/internal/logger"
)

const defaultCacheSize = 512

// ErrMissingGeminiKey is returned when the gemini provider is selected
// without an API key.
var ErrMissingGeminiKey = errors.New("translation provider gemini requires an API key")

// Backend turns a text into its English rendition.
type Backend interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Service caches backend translations and exposes them as query
// variants. A nil backend means translation is disabled.
type Service struct {
	backend Backend
	cache   *lru.Cache[string, string]
}

// New builds a Service for the configured provider. The httpClient is
// used by the google backend and may be nil for a default client.
func New(cfg config.Translation, httpClient *http.Client) (*Service, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "google"
	}

	var backend Backend
	switch provider {
	case "off":
		return &Service{}, nil
	case "google":
		backend = newGoogleWeb(httpClient)
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, ErrMissingGeminiKey
		}
		backend = newGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating translation cache: %w", err)
	}

	return &Service{backend: backend, cache: cache}, nil
}

// Variants returns the trimmed text followed by its English
// translation when the two differ. Empty input yields nil.
func (s *Service) Variants(ctx context.Context, text string) []string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}

	variants := []string{cleaned}
	if s.backend == nil {
		return variants
	}

	translated := s.translate(ctx, cleaned)
	if translated != "" && !strings.EqualFold(translated, cleaned) {
		variants = append(variants, translated)
	}
	return variants
}

// translate resolves the English rendition through the cache. Backend
// failures fall back to the original text and are not cached, so a
// transient outage does not pin the fallback for the whole run.
func (s *Service) translate(ctx context.Context, text string) string {
	if cached, ok := s.cache.Get(text); ok {
		return cached
	}

	translated, err := s.backend.Translate(ctx, text)
	if err != nil {
		logger.Event("TRANSLATE_FALLBACK", "translation unavailable, keeping original text", map[string]interface{}{
			"text":  text,
			"error": err.Error(),
		})
		return text
	}

	translated = strings.TrimSpace(translated)
	s.cache.Add(text, translated)
	return translated
}
