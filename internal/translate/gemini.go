package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = "Translate the following text to English. Reply with only the translation, nothing else.\n\n"

// geminiBackend translates through the Gemini API. The client is built
// per call; translation volume is a handful of short terms per run.
type geminiBackend struct {
	apiKey string
	model  string
}

func newGemini(apiKey, model string) *geminiBackend {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &geminiBackend{apiKey: apiKey, model: model}
}

func (g *geminiBackend) Translate(ctx context.Context, text string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("creating Gemini client: %w", err)
	}
	defer client.Close()

	resp, err := client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(geminiPrompt+text))
	if err != nil {
		return "", fmt.Errorf("generating translation: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("Gemini returned no candidates")
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if chunk, ok := part.(genai.Text); ok {
			builder.WriteString(string(chunk))
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", errors.New("Gemini returned an empty translation")
	}
	return result, nil
}
