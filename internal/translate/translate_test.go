package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"

	"collecte/internal/config"
)

type stubBackend struct {
	result string
	err    error
	calls  int
}

func (s *stubBackend) Translate(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func newTestService(t *testing.T, backend Backend) *Service {
	t.Helper()
	cache, err := lru.New[string, string](16)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	return &Service{backend: backend, cache: cache}
}

func TestVariantsReturnsOriginalAndTranslation(t *testing.T) {
	backend := &stubBackend{result: "mine detection dog"}
	service := newTestService(t, backend)

	got := service.Variants(context.Background(), "  chien détecteur de mines ")
	want := []string{"chien détecteur de mines", "mine detection dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected variants %v, got %v", want, got)
	}
}

func TestVariantsSkipsIdenticalTranslation(t *testing.T) {
	backend := &stubBackend{result: "Mine Detection"}
	service := newTestService(t, backend)

	got := service.Variants(context.Background(), "mine detection")
	want := []string{"mine detection"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected variants %v, got %v", want, got)
	}
}

func TestVariantsEmptyInput(t *testing.T) {
	service := newTestService(t, &stubBackend{result: "anything"})
	if got := service.Variants(context.Background(), "   "); got != nil {
		t.Errorf("Expected nil variants for blank input, got %v", got)
	}
}

func TestVariantsCachesTranslations(t *testing.T) {
	backend := &stubBackend{result: "landmine"}
	service := newTestService(t, backend)

	service.Variants(context.Background(), "mine terrestre")
	service.Variants(context.Background(), "mine terrestre")

	if backend.calls != 1 {
		t.Errorf("Expected 1 backend call, got %d", backend.calls)
	}
}

func TestVariantsFallsBackOnErrorWithoutCaching(t *testing.T) {
	backend := &stubBackend{err: errors.New("boom")}
	service := newTestService(t, backend)

	got := service.Variants(context.Background(), "démineur")
	want := []string{"démineur"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected variants %v, got %v", want, got)
	}

	service.Variants(context.Background(), "démineur")
	if backend.calls != 2 {
		t.Errorf("Expected failed translations to be retried, got %d calls", backend.calls)
	}
}

func TestNewDisabledProvider(t *testing.T) {
	service, err := New(config.Translation{Provider: "off"}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	got := service.Variants(context.Background(), "bonjour")
	want := []string{"bonjour"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected variants %v, got %v", want, got)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := New(config.Translation{Provider: "gemini"}, nil); !errors.Is(err, ErrMissingGeminiKey) {
		t.Errorf("Expected ErrMissingGeminiKey, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(config.Translation{Provider: "deepl"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestGoogleWebParsesResultContainer(t *testing.T) {
	var gotQuery url.Values
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `<html><body><div class="result-container">mine clearance</div></body></html>`)
	}))
	defer server.Close()

	backend := newGoogleWeb(server.Client())
	backend.endpoint = server.URL

	got, err := backend.Translate(context.Background(), "déminage")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if got != "mine clearance" {
		t.Errorf("Expected %q, got %q", "mine clearance", got)
	}
	if gotQuery.Get("sl") != "auto" || gotQuery.Get("tl") != "en" {
		t.Errorf("Expected sl=auto and tl=en, got sl=%q tl=%q", gotQuery.Get("sl"), gotQuery.Get("tl"))
	}
	if gotQuery.Get("q") != "déminage" {
		t.Errorf("Expected q=%q, got %q", "déminage", gotQuery.Get("q"))
	}
	if !strings.Contains(gotUserAgent, "Mozilla") {
		t.Errorf("Expected a browser User-Agent, got %q", gotUserAgent)
	}
}

func TestGoogleWebRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	backend := newGoogleWeb(server.Client())
	backend.endpoint = server.URL

	if _, err := backend.Translate(context.Background(), "déminage"); err == nil {
		t.Error("Expected error for 503 response")
	}
}

func TestGoogleWebRejectsMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	}))
	defer server.Close()

	backend := newGoogleWeb(server.Client())
	backend.endpoint = server.URL

	if _, err := backend.Translate(context.Background(), "déminage"); err == nil {
		t.Error("Expected error when result container is absent")
	}
}
