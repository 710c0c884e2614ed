package crawler

import (
	"sort"

	"collecte/internal/core"
	"collecte/internal/relevance"
)

// candidate pairs an article with its relevance evaluation while the
// run decides what to keep.
type candidate struct {
	article *core.Article
	result  relevance.Result
}

// pool holds at most one candidate per article key.
type pool struct {
	entries map[core.Key]candidate
}

func newPool() *pool {
	return &pool{entries: make(map[core.Key]candidate)}
}

// better reports whether a candidate with the given score would win the
// key: the slot is free or the stored entry scores strictly lower.
func (p *pool) better(key core.Key, score float64) bool {
	entry, ok := p.entries[key]
	if !ok {
		return true
	}
	return entry.article.Score < score
}

func (p *pool) put(key core.Key, c candidate) {
	p.entries[key] = c
}

func (p *pool) has(key core.Key) bool {
	_, ok := p.entries[key]
	return ok
}

func (p *pool) size() int {
	return len(p.entries)
}

// ranked returns the candidates best first. Ties fall back to title
// then link so identical runs select identically.
func (p *pool) ranked() []candidate {
	out := make([]candidate, 0, len(p.entries))
	for _, c := range p.entries {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return core.LessByScore(out[i].article, out[j].article)
	})
	return out
}
