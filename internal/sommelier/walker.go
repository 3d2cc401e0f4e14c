package sommelier

import (
	"strconv"
	"strings"
	"unicode"
)

// MaxRecommendations caps every product list the engine returns.
const MaxRecommendations = 3

// Rendered is what a step produces when it is shown to the user.
type Rendered struct {
	Message string
	// NextStepID is the step now awaiting an answer; "" once the flow is over.
	NextStepID      string
	Complete        bool
	Recommendations []string
	GiftMode        bool
	Reranked        bool
	Persona         string
	// Failed marks an authoring error rendered as the generic apology.
	Failed bool
}

func renderError(lang Lang) Rendered {
	return Rendered{Message: msg(msgGenericError, lang), Complete: true, Failed: true}
}

// optionList renders the question text followed by numbered option labels.
func optionList(q *QuestionStep, lang Lang) string {
	var b strings.Builder
	b.WriteString(q.Question.Resolve(lang))
	for i, o := range q.Options {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(o.Label.Resolve(lang))
	}
	return b.String()
}

// Render shows step stepID of flow. acc and products may be nil; re-ranking of
// result recommendations only happens when both are present.
func Render(f *Flow, stepID string, lang Lang, acc *Sensory, products []Product) Rendered {
	s, ok := f.Step(stepID)
	if !ok {
		return renderError(lang)
	}
	switch st := s.(type) {
	case *QuestionStep:
		if strings.TrimSpace(st.Question.Resolve(lang)) == "" || len(st.Options) == 0 {
			return renderError(lang)
		}
		return Rendered{
			Message:    joinParagraphs(optionList(st, lang), msg(msgResetHint, lang)),
			NextStepID: st.ID,
		}
	case *ResultStep:
		return renderResult(st, lang, acc, products)
	}
	return renderError(lang)
}

func renderResult(st *ResultStep, lang Lang, acc *Sensory, products []Product) Rendered {
	text := st.Message.Resolve(lang)
	if strings.TrimSpace(text) == "" {
		return renderError(lang)
	}
	out := Rendered{Complete: true}
	parts := []string{text}

	recs := append([]string(nil), st.ProductRecommendations...)
	if acc != nil && !acc.IsZero() && len(products) > 0 && len(recs) > 0 {
		out.Recommendations = rerank(recs, products, *acc)
		out.Reranked = true
		parts = append(parts, sensoryReason(*acc, lang))
	} else {
		out.Recommendations = capIDs(stockFirst(recs, products))
	}

	if m := st.Metadata; m != nil {
		if m.TriggerGiftMode {
			out.GiftMode = true
			parts = append(parts, msg(msgGiftNotice, lang))
		}
		if m.IsWeatherSensitive {
			parts = append(parts, msg(msgWeatherNotice, lang))
		}
		out.Persona = m.PersonaHint
	}
	parts = append(parts, msg(msgAnotherHint, lang))
	out.Message = joinParagraphs(parts...)
	return out
}

// rerank orders the authored ids by sensory score and keeps the best three.
// Ids missing from the catalog snapshot score zero and keep authored order;
// out-of-stock products only fill places left over after everything else.
func rerank(ids []string, products []Product, acc Sensory) []string {
	byID := catalogIndex(products)
	var avail, sold []Product
	for _, id := range ids {
		p, ok := byID[id]
		switch {
		case !ok:
			avail = append(avail, Product{ID: id})
		case p.InStock:
			avail = append(avail, p)
		default:
			sold = append(sold, p)
		}
	}
	ranked := append(Rank(avail, acc, 0), Rank(sold, acc, 0)...)
	out := make([]string, len(ranked))
	for i, p := range ranked {
		out[i] = p.ID
	}
	return capIDs(out)
}

// stockFirst moves ids of known out-of-stock products behind the rest,
// preserving authored order within each group.
func stockFirst(ids []string, products []Product) []string {
	if len(products) == 0 || len(ids) == 0 {
		return ids
	}
	byID := catalogIndex(products)
	out := make([]string, 0, len(ids))
	var sold []string
	for _, id := range ids {
		if p, ok := byID[id]; ok && !p.InStock {
			sold = append(sold, id)
			continue
		}
		out = append(out, id)
	}
	return append(out, sold...)
}

func catalogIndex(products []Product) map[string]Product {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

func capIDs(ids []string) []string {
	if len(ids) > MaxRecommendations {
		return ids[:MaxRecommendations]
	}
	return ids
}

// leadingIndex parses an integer at the start of answer ("2", "2. ürün").
func leadingIndex(answer string) (int, bool) {
	s := strings.TrimSpace(answer)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == 0 {
		return 0, false
	}
	if end < 0 {
		end = len(s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// resolveOption finds the option of question q selected by answer.
func resolveOption(q *QuestionStep, answer string, lang Lang) (*Option, bool) {
	if n, ok := leadingIndex(answer); ok && n >= 1 && n <= len(q.Options) {
		return &q.Options[n-1], true
	}
	a := strings.TrimSpace(Normalize(answer))
	if a == "" {
		return nil, false
	}
	for i := range q.Options {
		label := strings.TrimSpace(Normalize(q.Options[i].Label.Resolve(lang)))
		if label == "" {
			continue
		}
		if strings.Contains(label, a) || strings.Contains(a, label) {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// ResolveNext maps an answer at question stepID to the next step id. ok is
// false when no option matched; an empty next with ok true ends the flow.
func ResolveNext(f *Flow, stepID, answer string, lang Lang) (next string, ok bool) {
	s, found := f.Step(stepID)
	if !found {
		return "", false
	}
	q, isQ := s.(*QuestionStep)
	if !isQ {
		return "", false
	}
	opt, ok := resolveOption(q, answer, lang)
	if !ok {
		return "", false
	}
	return opt.NextStepID, true
}
