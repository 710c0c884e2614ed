// Package relevance scores candidate articles against the crawl query.
// The query is decomposed into weighted concept groups (known phrases,
// single tokens, user keyword rules), each widened through a synonym
// bank; articles are scored on fuzzy similarity plus concept and term
// coverage, and kept or discarded against thresholds derived from the
// group structure.
package relevance

import (
	"math"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"collecte/internal/textutil"
)

// Group weights. Mandatory rules dominate, optional rules contribute
// without ever gating acceptance.
const (
	phraseWeight    = 1.5
	tokenWeight     = 1.0
	mandatoryWeight = 2.0
	optionalWeight  = 0.8
)

// Acceptance thresholds. The higher threshold applies once the query
// yields three or more keyword groups.
const (
	thresholdRich   = 42.0
	thresholdSparse = 35.0
)

// ConceptGroup is one matchable unit of the query: a name for display,
// the normalized forms that count as a hit, and its weight in coverage.
type ConceptGroup struct {
	Name    string
	Terms   []string
	Display []string
	Weight  float64
}

// KeywordRule is a user-supplied constraint. Forms carries the raw
// variants (typically the term plus its translation); Display overrides
// what is shown for the rule, defaulting to Forms.
type KeywordRule struct {
	Label   string
	Forms   []string
	Display []string
}

// Result is the outcome of evaluating one article. Slices are sorted so
// identical inputs produce identical results.
type Result struct {
	Score            float64
	MatchedGroups    int
	TitleOnlyGroups  int
	MatchedTerms     []string
	MatchedConcepts  []string
	CoreMatches      int
	MandatoryHits    []string
	MandatoryMissing []string
	OptionalHits     []string
}

type rule struct {
	label string
	terms []string
}

// Engine holds the decomposed query and its derived thresholds. Build
// one per crawl run with NewEngine; it is read-only afterwards and safe
// for concurrent use.
type Engine struct {
	rawQuery        string
	normalizedQuery string

	conceptGroups []ConceptGroup
	keywordGroups [][]string // groups that count toward the threshold choice
	keywordTerms  []string   // union of all group terms
	mandatory     []rule
	optional      []rule

	totalWeight  float64
	requiredCore int
	minGroups    int
	threshold    float64
}

// NewEngine decomposes the query into concept groups and integrates the
// user keyword rules. Tokens of two runes or fewer are ignored; known
// phrases are matched first (windows of three then two tokens) and
// consume their token positions.
func NewEngine(rawQuery string, mandatory, optional []KeywordRule) *Engine {
	e := &Engine{
		rawQuery:        rawQuery,
		normalizedQuery: textutil.Normalize(rawQuery),
	}

	var tokens []string
	for _, tok := range strings.Fields(e.normalizedQuery) {
		if len([]rune(tok)) > 2 {
			tokens = append(tokens, tok)
		}
	}

	consumed := make([]bool, len(tokens))
	for _, size := range []int{3, 2} {
		for i := 0; i+size <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+size], " ")
			if _, ok := phraseSynonyms[phrase]; !ok {
				continue
			}
			for j := i; j < i+size; j++ {
				consumed[j] = true
			}
			e.addGroup(ConceptGroup{
				Name:    phrase,
				Terms:   normalizeTerms(expandPhrase(phrase)),
				Display: dedupeStrings(phraseSynonyms[phrase]),
				Weight:  phraseWeight,
			}, true)
		}
	}

	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		expanded := append(mergeSynonyms(tok), tok)
		e.addGroup(ConceptGroup{
			Name:    tok,
			Terms:   normalizeTerms(expanded),
			Display: dedupeStrings(append([]string{tok}, tokenSynonyms[tok]...)),
			Weight:  tokenWeight,
		}, true)
	}

	e.integrateRules(mandatory, mandatoryWeight, true)
	e.integrateRules(optional, optionalWeight, false)

	for _, g := range e.conceptGroups {
		e.totalWeight += g.Weight
	}

	core := 0
	for _, g := range e.conceptGroups {
		if g.Weight >= 1.0 {
			core++
		}
	}
	if core >= 2 {
		e.requiredCore = maxInt(2, int(math.Ceil(float64(core)*0.75)))
	} else {
		e.requiredCore = maxInt(1, core)
	}
	if core > 0 {
		e.minGroups = maxInt(1, int(math.Ceil(float64(core)*0.5)))
	}

	if len(e.keywordGroups) >= 3 {
		e.threshold = thresholdRich
	} else {
		e.threshold = thresholdSparse
	}

	return e
}

// addGroup appends a concept group. Groups added with toKeywordGroups
// count toward the threshold selection and contribute their terms to
// keyword coverage; optional rules stay out of both.
func (e *Engine) addGroup(g ConceptGroup, toKeywordGroups bool) {
	if len(g.Terms) == 0 {
		return
	}
	e.conceptGroups = append(e.conceptGroups, g)
	if toKeywordGroups {
		e.keywordGroups = append(e.keywordGroups, g.Terms)
		e.keywordTerms = dedupeStrings(append(e.keywordTerms, g.Terms...))
	}
}

func (e *Engine) integrateRules(rules []KeywordRule, weight float64, toKeywordGroups bool) {
	for _, r := range rules {
		forms := normalizeTerms(r.Forms)
		if len(forms) == 0 {
			continue
		}

		label := strings.TrimSpace(r.Label)
		if label == "" {
			label = strings.TrimSpace(r.Forms[0])
		}

		display := dedupeStrings(nonEmpty(r.Display))
		if len(display) == 0 {
			display = dedupeStrings(nonEmpty(r.Forms))
		}
		if len(display) == 0 {
			display = []string{label}
		}

		tracked := rule{label: label, terms: forms}
		if weight == mandatoryWeight {
			e.mandatory = append(e.mandatory, tracked)
		} else {
			e.optional = append(e.optional, tracked)
		}

		e.addGroup(ConceptGroup{
			Name:    label,
			Terms:   forms,
			Display: display,
			Weight:  weight,
		}, toKeywordGroups)
	}
}

// Evaluate scores a title/abstract pair. Group hits against the abstract
// count fully; hits confined to the title count at 0.4 weight. Keyword
// rules are checked against the abstract, falling back to title+abstract
// when the abstract is empty.
func (e *Engine) Evaluate(title, abstract string) Result {
	nTitle := textutil.Normalize(title)
	nAbstract := textutil.Normalize(abstract)
	combined := strings.TrimSpace(nTitle + " " + nAbstract)
	keywordBasis := nAbstract
	if keywordBasis == "" {
		keywordBasis = combined
	}

	var (
		matchedGroups int
		titleOnly     int
		coreMatches   int
		matchedWeight float64
	)
	concepts := make(map[string]struct{})
	mandatoryHits := make(map[string]struct{})
	mandatoryMissing := make(map[string]struct{})
	optionalHits := make(map[string]struct{})

	for _, r := range e.mandatory {
		if keywordBasis != "" && anyContained(keywordBasis, r.terms) {
			mandatoryHits[r.label] = struct{}{}
		} else {
			mandatoryMissing[r.label] = struct{}{}
		}
	}
	for _, r := range e.optional {
		if keywordBasis != "" && anyContained(keywordBasis, r.terms) {
			optionalHits[r.label] = struct{}{}
		}
	}

	for _, g := range e.conceptGroups {
		abstractHit := nAbstract != "" && anyContained(nAbstract, g.Terms)
		titleHit := nTitle != "" && anyContained(nTitle, g.Terms)

		switch {
		case abstractHit:
			matchedGroups++
			concepts[g.Name] = struct{}{}
			matchedWeight += g.Weight
			if g.Weight >= 1.0 {
				coreMatches++
			}
		case titleHit:
			titleOnly++
			concepts[g.Name] = struct{}{}
			matchedWeight += g.Weight * 0.4
		}
	}

	var matchedTerms []string
	keywordCoverage := 0.0
	if keywordBasis != "" {
		for _, term := range e.keywordTerms {
			if strings.Contains(keywordBasis, term) {
				matchedTerms = append(matchedTerms, term)
			}
		}
		if len(e.keywordTerms) > 0 {
			keywordCoverage = float64(len(matchedTerms)) / float64(len(e.keywordTerms)) * 100
		}
	}

	ratioTitle := 0
	if e.normalizedQuery != "" && nTitle != "" {
		ratioTitle = fuzzy.PartialRatio(e.normalizedQuery, nTitle)
	}
	ratioAbstract := 0
	if e.normalizedQuery != "" && nAbstract != "" {
		ratioAbstract = fuzzy.PartialRatio(e.normalizedQuery, nAbstract)
	}

	coverageRatio := 0.0
	if e.totalWeight > 0 {
		coverageRatio = matchedWeight / e.totalWeight * 100
	} else if len(e.keywordGroups) > 0 {
		coverageRatio = float64(matchedGroups) / float64(len(e.keywordGroups)) * 100
	}

	score := 0.20*float64(ratioTitle) +
		0.40*float64(ratioAbstract) +
		0.25*coverageRatio +
		0.15*keywordCoverage
	score += 10 * float64(len(mandatoryHits))
	score += 6 * float64(len(optionalHits))
	score += 2 * float64(titleOnly)

	return Result{
		Score:            textutil.Round2(score),
		MatchedGroups:    matchedGroups,
		TitleOnlyGroups:  titleOnly,
		MatchedTerms:     sortedKeysOf(matchedTerms),
		MatchedConcepts:  sortedSet(concepts),
		CoreMatches:      coreMatches,
		MandatoryHits:    sortedSet(mandatoryHits),
		MandatoryMissing: sortedSet(mandatoryMissing),
		OptionalHits:     sortedSet(optionalHits),
	}
}

// ShouldKeep decides whether an evaluated article enters the accepted
// pool. A false return with MandatoryMissing empty means the article is
// still a fallback candidate; with MandatoryMissing set it is rejected
// outright.
func (e *Engine) ShouldKeep(r Result, current, desired int) bool {
	if len(r.MandatoryMissing) > 0 {
		return false
	}

	if len(e.keywordGroups) == 0 && len(e.mandatory) == 0 {
		return r.Score >= 30 || current < desired
	}

	if r.CoreMatches >= e.requiredCore {
		return true
	}
	if r.MatchedGroups >= e.minGroups && r.Score >= e.threshold {
		return true
	}
	if r.CoreMatches+1 >= e.requiredCore && r.Score >= e.threshold+5 {
		return true
	}
	if current < desired && r.CoreMatches >= 1 && r.Score >= math.Max(25, e.threshold-5) {
		return true
	}
	return false
}

// NormalizedQuery reports the matching form of the crawl query.
func (e *Engine) NormalizedQuery() string { return e.normalizedQuery }

// Groups reports the concept groups, mainly for logging.
func (e *Engine) Groups() []ConceptGroup { return e.conceptGroups }

func anyContained(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func normalizeTerms(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, r := range raw {
		n := textutil.Normalize(r)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysOf(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
