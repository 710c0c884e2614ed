package relevance

import (
	"unicode/utf8"

	"collecte/internal/textutil"
)

// tokenSynonyms widens single query tokens with the domain vocabulary,
// French forms included, so an English query still matches francophone
// abstracts and vice versa.
var tokenSynonyms = map[string][]string{
	"dog":    {"dog", "dogs", "canine", "canines", "chien", "chiens", "k9", "k-9", "working dog"},
	"canine": {"canine", "canines", "chien", "chiens", "k9", "dog", "dogs"},
	"mine": {
		"mine", "mines", "landmine", "landmines", "land mine", "land mines",
		"uxo", "ordnance", "explosive", "explosives", "ied", "ieds",
		"munition", "munitions",
	},
	"detection": {
		"detection", "detect", "detects", "detecting", "detected",
		"detector", "detectors", "repérage", "détection", "détecteur",
		"détecteurs", "identification",
	},
	"explosive": {
		"explosive", "explosives", "explosif", "explosifs", "bomb", "bombs",
		"bomblet", "mine", "ordnance", "ied", "ieds", "uxo",
	},
	"odor": {
		"odor", "odors", "odour", "odours", "scent", "scents", "olfaction",
		"olfactory", "olfactif", "odorant", "odorants", "smell", "smells",
		"sniff", "sniffing",
	},
	"dog-handler": {"handler", "guide", "team", "binôme"},
	"robot":       {"robot", "robotics", "robotique", "autonomous", "autonome"},
	"review":      {"review", "survey", "overview", "state of the art", "revue"},
}

// phraseSynonyms maps multi-token concepts onto their surface variants.
// Phrase windows in the query are matched against the keys before any
// single-token expansion happens.
var phraseSynonyms = map[string][]string{
	"mine detection": {
		"mine detection", "landmine detection", "explosive detection",
		"explosives detection", "bomb detection", "detection de mine",
		"détection de mines", "détection des mines",
	},
	"explosive detection": {
		"explosive detection", "explosives detection", "explosive sniffing",
		"explosive sensing", "explosive trace detection", "détection d'explosifs",
	},
	"detection dog": {
		"detection dog", "detection dogs", "explosive detection dog",
		"sniffer dog", "chien détecteur", "chien de détection", "chien démineur",
	},
	"search dog": {
		"search dog", "search dogs", "working dog", "chien de recherche",
		"chien pisteur",
	},
}

// mergeSynonyms expands a token through the bank plus surface forms,
// dropping anything of two runes or fewer.
func mergeSynonyms(base string) []string {
	words := append([]string{base}, tokenSynonyms[base]...)
	var expanded []string
	for _, w := range words {
		expanded = append(expanded, textutil.Pluralize(w)...)
	}
	var kept []string
	for _, w := range dedupeStrings(expanded) {
		if utf8.RuneCountInString(w) > 2 {
			kept = append(kept, w)
		}
	}
	return kept
}

// expandPhrase expands a phrase key through its variants plus their
// surface forms. No length filter here: every variant is multi-word.
func expandPhrase(phrase string) []string {
	var expanded []string
	for _, syn := range phraseSynonyms[phrase] {
		expanded = append(expanded, textutil.Pluralize(syn)...)
	}
	return dedupeStrings(expanded)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
