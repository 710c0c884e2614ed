package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const translationUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// googleWeb scrapes the lightweight mobile page of Google Translate.
// It needs no API key but only returns the first result block.
type googleWeb struct {
	httpClient *http.Client
	endpoint   string
}

func newGoogleWeb(httpClient *http.Client) *googleWeb {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &googleWeb{
		httpClient: httpClient,
		endpoint:   "https://translate.google.com/m",
	}
}

func (g *googleWeb) Translate(ctx context.Context, text string) (string, error) {
	query := url.Values{}
	query.Set("sl", "auto")
	query.Set("tl", "en")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building translation request: %w", err)
	}
	req.Header.Set("User-Agent", translationUserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting translation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation service returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing translation response: %w", err)
	}

	result := strings.TrimSpace(doc.Find("div.result-container").First().Text())
	if result == "" {
		return "", errors.New("translation result not found in response")
	}
	return result, nil
}
