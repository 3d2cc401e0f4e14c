// Package search provides a small, deterministic, concurrency-safe in-memory
// index over knowledge passages (brand story paragraphs, mapping values and
// facts flattened from Markdown). It backs the knowledge-enrichment tier of
// the sommelier engine.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Pluggable token folding so queries and passages share one normalizer
//   - Immutable after construction, safe for concurrent use
//   - Deterministic scoring and ordering (stable on ties)
//
// Scoring is the Jaccard similarity between the query token set and each
// passage token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Hit is a ranked passage with its similarity score.
type Hit struct {
	Text  string
	Score float64
}

// Index is implemented by every passage index.
type Index interface {
	TopK(query string, k int) []Hit
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minRunes    int
	stopwords   map[string]struct{}
	maxPassages int
	fold        func(string) string
}

func defaultConfig() config {
	return config{
		minRunes: 12,
		fold:     strings.ToLower,
	}
}

// WithMinRunes drops passages shorter than n runes. n < 0 is ignored.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords excludes words from both query and passage tokens. Words are
// folded with the fold function in effect when the index is built.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.TrimSpace(w); w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxPassages caps the number of indexed passages.
func WithMaxPassages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPassages = n
		}
	}
}

// WithFold replaces the token folding function (default strings.ToLower).
func WithFold(f func(string) string) Option {
	return func(c *config) {
		if f != nil {
			c.fold = f
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type passage struct {
	text   string
	tokens map[string]struct{}
}

type index struct {
	cfg      config
	passages []passage
}

// New indexes the given passages.
func New(passages []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.stopwords != nil {
		folded := make(map[string]struct{}, len(cfg.stopwords))
		for w := range cfg.stopwords {
			folded[cfg.fold(w)] = struct{}{}
		}
		cfg.stopwords = folded
	}

	idx := &index{cfg: cfg, passages: make([]passage, 0, len(passages))}
	for _, raw := range passages {
		t := strings.TrimSpace(collapseSpaces(raw))
		if t == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(t) < cfg.minRunes {
			continue
		}
		toks := idx.tokenize(t)
		if len(toks) == 0 {
			continue
		}
		idx.passages = append(idx.passages, passage{text: t, tokens: toks})
		if cfg.maxPassages > 0 && len(idx.passages) >= cfg.maxPassages {
			break
		}
	}
	return idx
}

// FromReader indexes the blank-line separated paragraphs of r.
func FromReader(r io.Reader, opts ...Option) (Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return New(nil, opts...), err
	}
	return New(splitParagraphs(string(all)), opts...), nil
}

func (i *index) Len() int { return len(i.passages) }

// TopK returns up to k passages by descending Jaccard score. k <= 0 means 3.
func (i *index) TopK(q string, k int) []Hit {
	if len(i.passages) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qt := i.tokenize(q)
	if len(qt) == 0 {
		return nil
	}

	type scored struct {
		Hit
		runes int
	}
	buf := make([]scored, 0, len(i.passages))
	for _, p := range i.passages {
		over := overlap(qt, p.tokens)
		if over == 0 {
			continue
		}
		union := len(qt) + len(p.tokens) - over
		buf = append(buf, scored{
			Hit:   Hit{Text: p.text, Score: float64(over) / float64(union)},
			runes: utf8.RuneCountInString(p.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	// Shorter passages win ties: they are more likely to be on point.
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].Text < buf[b].Text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Hit, k)
	for j := 0; j < k; j++ {
		out[j] = buf[j].Hit
	}
	return out
}

// Retriever exposes the single best passage of an Index.
type Retriever struct {
	Index Index
}

// Best returns the top passage for query.
func (r Retriever) Best(query string) (string, float64, bool) {
	if r.Index == nil {
		return "", 0, false
	}
	hits := r.Index.TopK(query, 1)
	if len(hits) == 0 {
		return "", 0, false
	}
	return hits[0].Text, hits[0].Score, true
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func (i *index) tokenize(s string) map[string]struct{} {
	words := wordRE.FindAllString(i.cfg.fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := i.cfg.stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prev {
				b.WriteByte(' ')
				prev = true
			}
			continue
		}
		prev = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(raw string) []string {
	chunks := paraSplitRE.Split(raw, -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}
