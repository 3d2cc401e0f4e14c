package sommelier

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	amountRe    = regexp.MustCompile(`%?\d+(?:[.,]\d+)*%?`)
	thousandsRe = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
)

// parseBudget returns the largest amount mentioned in text. Percentages
// ("%70", "70%") are cocoa ratios, not prices, and are skipped.
func parseBudget(text string) (float64, bool) {
	best, found := 0.0, false
	for _, m := range amountRe.FindAllString(text, -1) {
		if strings.Contains(m, "%") {
			continue
		}
		v, ok := parseAmount(m)
		if !ok || v <= 0 {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// parseAmount reads "1500", "250,5", "1.500", "1,500", "1.500,50" and
// "1,500.50". Groups of exactly three digits behind one kind of separator
// are thousands; otherwise the last separator is the decimal point.
func parseAmount(m string) (float64, bool) {
	last := strings.LastIndexAny(m, ".,")
	if last < 0 {
		v, err := strconv.ParseFloat(m, 64)
		return v, err == nil
	}
	if thousandsRe.MatchString(m) && sameSeparator(m) {
		v, err := strconv.ParseFloat(strings.NewReplacer(".", "", ",", "").Replace(m), 64)
		return v, err == nil
	}
	intPart, frac := m[:last], m[last+1:]
	sep := m[last]
	if strings.IndexByte(intPart, sep) >= 0 {
		// "1.500.5": a repeated separator cannot also be the decimal point.
		return 0, false
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	v, err := strconv.ParseFloat(intPart+"."+frac, 64)
	return v, err == nil
}

func sameSeparator(m string) bool {
	return !(strings.Contains(m, ".") && strings.Contains(m, ","))
}

func inStock(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.InStock {
			out = append(out, p)
		}
	}
	return out
}

func capPrice(products []Product, max float64) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Price <= max {
			out = append(out, p)
		}
	}
	return out
}

func langTag(lang Lang) language.Tag {
	if lang == LangEN {
		return language.English
	}
	return language.Turkish
}

func formatPrice(lang Lang, v float64) string {
	return message.NewPrinter(langTag(lang)).Sprintf("%.2f ₺", v)
}

// productLines renders at most MaxRecommendations products under a heading.
func productLines(heading string, ps []Product, lang Lang) (string, []string) {
	if len(ps) > MaxRecommendations {
		ps = ps[:MaxRecommendations]
	}
	var b strings.Builder
	b.WriteString(heading)
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
		b.WriteString("\n• ")
		b.WriteString(p.Title)
		b.WriteString(" (")
		b.WriteString(formatPrice(lang, p.Price))
		b.WriteString(")")
	}
	return b.String(), ids
}

// suggestGift lists gift-looking products first, within budget when one is named.
func (e *Engine) suggestGift(text string, products []Product, lang Lang) (string, []string) {
	ps := inStock(products)
	if max, ok := parseBudget(text); ok {
		ps = capPrice(ps, max)
	}
	if len(ps) == 0 {
		return msg(msgNoProducts, lang), nil
	}
	giftKeys := e.cls.Keywords(TopicGift)
	sort.SliceStable(ps, func(i, j int) bool {
		return isGiftish(ps[i], giftKeys) && !isGiftish(ps[j], giftKeys)
	})
	return productLines(msg(msgGiftSuggest, lang), ps, lang)
}

func isGiftish(p Product, keys []string) bool {
	return MatchesAny(p.Title+" "+p.Category+" "+p.Description, keys)
}

// suggestTaste ranks products by the message's taste words plus the stored profile.
func (e *Engine) suggestTaste(text string, products []Product, profile *Sensory, lang Lang) (string, []string) {
	ps := inStock(products)
	if len(ps) == 0 {
		return msg(msgNoProducts, lang), nil
	}
	q := sensoryFromText(text)
	if profile != nil {
		q = q.Add(*profile)
	}
	return productLines(msg(msgRecommendSuggest, lang), Rank(ps, q, MaxRecommendations), lang)
}

// suggestBudget lists the priciest products within the named budget, or the
// cheapest ones together with a request for a budget.
func (e *Engine) suggestBudget(text string, products []Product, lang Lang) (string, []string) {
	ps := inStock(products)
	max, ok := parseBudget(text)
	if ok {
		ps = capPrice(ps, max)
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	} else {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	}
	if len(ps) == 0 {
		return msg(msgNoProducts, lang), nil
	}
	if ok {
		return productLines(msg(msgBudgetSuggest, lang, formatPrice(lang, max)), ps, lang)
	}
	return productLines(msg(msgBudgetAsk, lang), ps, lang)
}
