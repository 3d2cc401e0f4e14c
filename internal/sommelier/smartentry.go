package sommelier

import (
	"sort"
	"strings"
)

// entryStopwords are generic adjectives that say nothing about which option
// the user means.
var entryStopwords = map[string]struct{}{
	"guzel": {}, "iyi": {}, "ozel": {}, "harika": {}, "lezzetli": {}, "sik": {}, "bir": {}, "icin": {},
	"good": {}, "nice": {}, "great": {}, "special": {}, "lovely": {}, "tasty": {}, "for": {}, "the": {},
}

type entryCandidate struct {
	opt     *Option
	matched int
	longest int
}

// findEntryOption matches msg against the options of the flow's start step.
func findEntryOption(f *Flow, msg string, lang Lang) (*QuestionStep, *Option, bool) {
	s, ok := f.Step(f.StartStepID)
	if !ok {
		return nil, nil, false
	}
	q, ok := s.(*QuestionStep)
	if !ok || len(q.Options) == 0 {
		return nil, nil, false
	}
	m := Normalize(msg)
	if strings.TrimSpace(m) == "" {
		return nil, nil, false
	}

	cands := make([]entryCandidate, 0, len(q.Options))
	for i := range q.Options {
		opt := &q.Options[i]
		c := entryCandidate{opt: opt}
		for _, w := range words(Normalize(opt.Label.Resolve(lang))) {
			if runeLen(w) < minWordRunes {
				continue
			}
			if _, stop := entryStopwords[w]; stop {
				continue
			}
			if strings.Contains(m, w) {
				c.matched++
				if n := runeLen(w); n > c.longest {
					c.longest = n
				}
			}
		}
		if c.matched > 0 {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return nil, nil, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].matched != cands[j].matched {
			return cands[i].matched > cands[j].matched
		}
		return cands[i].longest > cands[j].longest
	})
	return q, cands[0].opt, true
}

// FindEntry lets the message that triggered flow f answer its opening
// question. It returns the chosen option's next step id, or false when no
// option label matches or the best option ends the flow.
func FindEntry(f *Flow, msg string, lang Lang) (string, bool) {
	_, opt, ok := findEntryOption(f, msg, lang)
	if !ok || opt.NextStepID == "" {
		return "", false
	}
	return opt.NextStepID, true
}

var (
	labelSuffixes = []string{" için", " icin", " for"}
	labelPrefixes = []string{"bir ", "biraz ", "sadece ", "benim ", "a ", "an ", "some ", "just "}
)

// CleanLabel trims filler words from an option label before it is echoed back
// in a confirmation sentence. Matching never uses the cleaned form.
func CleanLabel(label string) string {
	s := strings.TrimSpace(label)
	for _, suf := range labelSuffixes {
		if len(s) > len(suf) && strings.HasSuffix(strings.ToLower(s), suf) {
			s = strings.TrimSpace(s[:len(s)-len(suf)])
			break
		}
	}
	for changed := true; changed; {
		changed = false
		for _, pre := range labelPrefixes {
			if len(s) > len(pre) && strings.HasPrefix(strings.ToLower(s), pre) {
				s = strings.TrimSpace(s[len(pre):])
				changed = true
			}
		}
	}
	return s
}
