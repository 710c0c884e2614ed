package relevance

import (
	"sort"
	"strings"
	"unicode/utf8"

	"collecte/internal/textutil"
)

// Targeted-query construction limits.
const (
	maxTargetGroups   = 3
	maxTermsPerGroup  = 4
	maxTargetCombined = 6
)

// TargetedQueries derives refinement queries by combining representative
// terms from the strongest concept groups. Queries are deterministic for
// a given engine: group order follows construction order and term order
// uses word count, length, then lexicographic rank.
func (e *Engine) TargetedQueries() []string {
	if len(e.conceptGroups) < 2 {
		return nil
	}

	var core []ConceptGroup
	for _, g := range e.conceptGroups {
		if g.Weight >= 1.0 {
			core = append(core, g)
		}
	}
	if len(core) < 2 {
		core = e.conceptGroups[:2]
	}

	selected := core
	if len(selected) > maxTargetGroups {
		selected = selected[:maxTargetGroups]
	}
	if len(selected) < 2 {
		return nil
	}

	var optionLists [][]string
	for _, g := range selected {
		candidates := append([]string{}, g.Display...)
		candidates = append(candidates, g.Name)
		terms := preferTerms(g.Name, candidates)
		if len(terms) == 0 {
			return nil
		}
		optionLists = append(optionLists, terms)
	}

	var combos []string
	seen := make(map[string]struct{})

	var build func(index int, current []string)
	build = func(index int, current []string) {
		if len(combos) >= maxTargetCombined {
			return
		}
		if index == len(optionLists) {
			query := textutil.DedupeTokens(strings.Join(current, " "))
			normalized := textutil.Normalize(query)
			if normalized == "" {
				return
			}
			if _, ok := seen[normalized]; ok {
				return
			}
			seen[normalized] = struct{}{}
			combos = append(combos, query)
			return
		}
		for _, option := range optionLists[index] {
			build(index+1, append(current, option))
		}
	}
	build(0, nil)

	return combos
}

// preferTerms orders a group's candidate terms for query building: the
// group name first, then the remaining options by descending word count,
// ascending length and finally lexicographic rank, capped at
// maxTermsPerGroup.
func preferTerms(base string, options []string) []string {
	seen := make(map[string]struct{}, len(options))
	var cleaned []string
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if _, ok := seen[opt]; ok {
			continue
		}
		seen[opt] = struct{}{}
		cleaned = append(cleaned, opt)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		si, sj := strings.Count(cleaned[i], " "), strings.Count(cleaned[j], " ")
		if si != sj {
			return si > sj
		}
		li, lj := utf8.RuneCountInString(cleaned[i]), utf8.RuneCountInString(cleaned[j])
		if li != lj {
			return li < lj
		}
		return cleaned[i] < cleaned[j]
	})

	baseClean := strings.TrimSpace(base)
	var preferred []string
	if baseClean != "" {
		preferred = append(preferred, baseClean)
	}
	for _, candidate := range cleaned {
		if len(preferred) >= maxTermsPerGroup {
			break
		}
		if baseClean != "" && strings.EqualFold(candidate, baseClean) {
			continue
		}
		preferred = append(preferred, candidate)
	}
	if len(preferred) > maxTermsPerGroup {
		preferred = preferred[:maxTermsPerGroup]
	}
	return preferred
}
