// Package qualis grades publication venues on the CAPES Qualis scale.
// The table is static; venues ship in many spellings, so lookups fall
// through exact, containment and fuzzy matching before giving up.
package qualis

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"collecte/internal/textutil"
)

const defaultThreshold = 90

type venueEntry struct {
	name  string // normalized form, see textutil.Normalize
	grade string
}

var venueTable = []venueEntry{
	{"ieee transactions on geoscience and remote sensing", "A1"},
	{"isprs journal of photogrammetry and remote sensing", "A1"},
	{"remote sensing of environment", "A1"},
	{"pattern recognition", "A1"},
	{"ieee transactions on pattern analysis and machine intelligence", "A1"},
	{"expert systems with applications", "A1"},
	{"journal of field robotics", "A1"},
	{"ieee geoscience and remote sensing letters", "A2"},
	{"international journal of remote sensing", "A2"},
	{"international journal of applied earth observation and geoinformation", "A2"},
	{"ieee access", "A2"},
	{"engineering applications of artificial intelligence", "A2"},
	{"autonomous robots", "A2"},
	{"robotics and autonomous systems", "A2"},
	{"animal cognition", "A2"},
	{"geophysics", "A2"},
	{"remote sensing", "A3"},
	{"scientific reports", "A3"},
	{"plos one", "A3"},
	{"applied animal behaviour science", "A4"},
	{"frontiers in veterinary science", "A4"},
	{"sensors", "B1"},
	{"journal of applied geophysics", "B1"},
	{"near surface geophysics", "B1"},
	{"journal of mine action", "B1"},
	{"journal of conventional weapons destruction", "B2"},
	{"applied sciences", "B2"},
	{"journal of physics conference series", "B3"},
	{"detection and sensing of mines explosive objects and obscured targets", "B4"},
	{"international symposium mine action", "B5"},
	{"arxiv", "C"},
}

var gradeScores = map[string]int{
	"A1": 1, "A2": 2, "A3": 3, "A4": 4,
	"B1": 5, "B2": 6, "B3": 7, "B4": 8, "B5": 9,
	"C": 10, "NF": 10, "NP": 10,
}

// Rater grades venue names. The zero threshold means fuzzy matching is
// effectively disabled; use New for the standard cutoff.
type Rater struct {
	threshold int
}

// New returns a Rater with the default fuzzy cutoff of 90.
func New() *Rater {
	return &Rater{threshold: defaultThreshold}
}

// Grade returns the Qualis grade for a venue. Unpublished entries
// (empty or "-") grade as "NP", venues absent from the table as "NF".
func (r *Rater) Grade(venue string) string {
	trimmed := strings.TrimSpace(venue)
	if trimmed == "" || trimmed == "-" {
		return "NP"
	}
	normalized := textutil.Normalize(trimmed)
	if normalized == "" {
		return "NP"
	}

	for _, entry := range venueTable {
		if entry.name == normalized {
			return entry.grade
		}
	}

	// Containment catches venue strings wrapped in years, volume info
	// or proceedings prefixes. The longest table name wins so specific
	// entries beat generic ones like "remote sensing".
	best := -1
	bestLen := 0
	for i, entry := range venueTable {
		if strings.Contains(normalized, entry.name) || strings.Contains(entry.name, normalized) {
			if len(entry.name) > bestLen {
				best, bestLen = i, len(entry.name)
			}
		}
	}
	if best >= 0 {
		return venueTable[best].grade
	}

	bestScore := 0
	best = -1
	for i, entry := range venueTable {
		score := fuzzy.PartialRatio(normalized, entry.name)
		if score > bestScore {
			bestScore, best = score, i
		}
	}
	if best >= 0 && bestScore >= r.threshold && r.threshold > 0 {
		return venueTable[best].grade
	}

	return "NF"
}

// ScoreOf returns the numeric rank of a grade, 1 for A1 through 10 for
// C. Unknown grades rank last.
func ScoreOf(grade string) int {
	if score, ok := gradeScores[grade]; ok {
		return score
	}
	return 10
}
