package sommelier

import "strings"

// minWordRunes is the shortest word that takes part in phrase and label matching.
const minWordRunes = 3

// TriggerPhrases splits a flow's comma-separated trigger field.
func TriggerPhrases(trigger string) []string {
	parts := strings.Split(trigger, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// phraseMatches tests one trigger phrase against normalized text. A single word
// matches by containment; a multi-word phrase needs every significant word.
func phraseMatches(normText, phrase string) bool {
	p := Normalize(phrase)
	fields := strings.Fields(p)
	switch len(fields) {
	case 0:
		return false
	case 1:
		return strings.Contains(normText, fields[0])
	}
	significant := 0
	for _, w := range fields {
		if runeLen(w) < minWordRunes {
			continue
		}
		significant++
		if !strings.Contains(normText, w) {
			return false
		}
	}
	// A phrase made only of short words would otherwise match everything.
	return significant > 0
}

// MatchFlow returns the first active flow, in input order, whose trigger
// matches text, or nil.
func MatchFlow(text string, flows []Flow) *Flow {
	t := Normalize(text)
	if strings.TrimSpace(t) == "" {
		return nil
	}
	for i := range flows {
		f := &flows[i]
		if !f.Active {
			continue
		}
		for _, phrase := range TriggerPhrases(f.Trigger) {
			if phraseMatches(t, phrase) {
				return f
			}
		}
	}
	return nil
}

// matchFlowExcept is MatchFlow ignoring the flow with id skip.
func matchFlowExcept(text string, flows []Flow, skip string) *Flow {
	others := make([]Flow, 0, len(flows))
	idx := make([]int, 0, len(flows))
	for i := range flows {
		if flows[i].ID != skip {
			others = append(others, flows[i])
			idx = append(idx, i)
		}
	}
	m := MatchFlow(text, others)
	if m == nil {
		return nil
	}
	for j := range others {
		if &others[j] == m {
			return &flows[idx[j]]
		}
	}
	return nil
}

// findFlow looks a flow up by id regardless of its active flag, so a session
// can finish a flow that was deactivated mid-conversation.
func findFlow(flows []Flow, id string) *Flow {
	for i := range flows {
		if flows[i].ID == id {
			return &flows[i]
		}
	}
	return nil
}
