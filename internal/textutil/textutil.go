// Package textutil holds the text transforms shared by the relevance
// engine, the planner and the store: matching normalization, surface-form
// generation, token dedup and filesystem-safe labels.
package textutil

import (
	"math"
	"strings"
	"unicode"
)

// Normalize lowers the text and keeps only letters and digits;
// underscores, hyphens and every other character become spaces, and
// whitespace runs collapse to single spaces. All substring matching in
// the engine happens on normalized text, so "mine-detection" and
// "Mine Detection" land on the same form.
func Normalize(s string) string {
	lowered := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Pluralize returns the word together with heuristic plural, past and
// gerund forms. Words shorter than four runes are returned as-is; the
// heuristics are far too noisy at that length.
func Pluralize(word string) []string {
	forms := []string{word}
	runes := []rune(word)
	if len(runes) < 4 {
		return forms
	}

	switch {
	case strings.HasSuffix(word, "y") && !isVowel(runes[len(runes)-2]):
		forms = append(forms, word[:len(word)-1]+"ies")
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "z"):
		forms = append(forms, word+"es")
	default:
		forms = append(forms, word+"s")
	}

	if strings.HasSuffix(word, "e") {
		forms = append(forms, word+"d")
	} else {
		forms = append(forms, word+"ed")
	}
	forms = append(forms, word+"ing")

	return dedupe(forms)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// DedupeTokens collapses adjacent duplicate tokens, comparing
// case-insensitively, and rejoins with single spaces. Only consecutive
// repeats collapse; a token may legitimately reappear later in a query
// ("detection dog mine detection").
func DedupeTokens(s string) string {
	var kept []string
	for _, tok := range strings.Fields(s) {
		if len(kept) > 0 && strings.EqualFold(tok, kept[len(kept)-1]) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// SanitizeLabel turns a search label into a filesystem-safe directory
// name: whitespace runs collapse to single spaces, reserved characters
// become underscores, trailing spaces and dots are dropped. An empty
// result falls back to "Recherche".
func SanitizeLabel(s string) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, cleaned)
	cleaned = strings.TrimRight(cleaned, " .")
	if cleaned == "" {
		return "Recherche"
	}
	return cleaned
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
