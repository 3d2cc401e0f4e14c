package sommelier

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topic names one built-in keyword predicate.
type Topic string

const (
	TopicReset      Topic = "reset"
	TopicGreeting   Topic = "greeting"
	TopicGift       Topic = "gift"
	TopicRecommend  Topic = "recommend"
	TopicBudget     Topic = "budget"
	TopicTaste      Topic = "taste"
	TopicIngredient Topic = "ingredient"
	TopicRelevant   Topic = "relevant"
)

// Keywords maps each topic to the phrases that trigger it.
type Keywords map[Topic][]string

// DefaultKeywords returns a fresh copy of the built-in Turkish/English lists.
func DefaultKeywords() Keywords {
	kw := Keywords{
		TopicReset: {
			"başa dön", "baştan başla", "yeniden başla", "sıfırla", "iptal",
			"start over", "reset", "cancel", "restart",
		},
		TopicGreeting: {
			"merhaba", "selam", "günaydın", "iyi akşamlar", "hello", "good morning",
		},
		TopicGift: {
			"hediye", "doğum günü", "yıldönümü", "sevgilim", "annem", "babam", "anneme", "babama",
			"gift", "present", "birthday", "anniversary",
		},
		TopicRecommend: {
			"öner", "tavsiye", "ne alayım", "hangisi", "recommend", "suggest", "what should i",
		},
		TopicBudget: {
			"bütçe", "fiyat", "kaç para", "ne kadar", "ucuz", "pahalı", " tl", "₺",
			"budget", "price", "cheap", "expensive", "how much", "cost",
		},
		TopicTaste: {
			"bitter", "sütlü", "beyaz", "tatlı", "acı", "yoğun", "meyveli", "fındık", "kremalı",
			"dark", "milk", "white", "sweet", "fruity", "nutty", "creamy", "crunchy",
		},
		TopicIngredient: {
			"içindekiler", "içerik", "alerji", "alerjen", "gluten", "laktoz", "vegan", "helal", "şeker oranı",
			"ingredient", "allergen", "allergy", "lactose", "sugar free", "halal",
		},
		TopicRelevant: {
			"çikolata", "kakao", "bitter", "sütlü", "pralin", "trüf", "hediye", "kutu", "sipariş", "kargo",
			"teslimat", "ürün", "fiyat", "tat", "tadım", "öner",
			"chocolate", "cocoa", "praline", "truffle", "gift", "box", "order", "shipping", "delivery",
			"product", "price", "taste", "recommend",
		},
	}
	return kw
}

// Merge returns a copy of k where every topic present in override replaces
// the corresponding list.
func (k Keywords) Merge(override Keywords) Keywords {
	out := make(Keywords, len(k))
	for t, l := range k {
		out[t] = append([]string(nil), l...)
	}
	for t, l := range override {
		out[t] = append([]string(nil), l...)
	}
	return out
}

// LoadKeywords decodes a YAML document of the form
//
//	gift: [hediye, gift]
//	budget: [bütçe, price]
//
// Unknown topics are rejected so typos do not silently disable a predicate.
func LoadKeywords(r io.Reader) (Keywords, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Keywords{}, nil
		}
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	known := DefaultKeywords()
	out := make(Keywords, len(raw))
	for name, list := range raw {
		t := Topic(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("decode keywords: unknown topic %q", name)
		}
		out[t] = list
	}
	return out, nil
}

// Classifier answers the boolean keyword predicates. Lists are normalized once
// at construction; the matching logic never changes with the lists.
type Classifier struct {
	lists map[Topic][]string
}

// NewClassifier builds a classifier over kw. A nil map yields the defaults.
func NewClassifier(kw Keywords) *Classifier {
	if kw == nil {
		kw = DefaultKeywords()
	}
	c := &Classifier{lists: make(map[Topic][]string, len(kw))}
	for t, list := range kw {
		norm := make([]string, 0, len(list))
		for _, k := range list {
			// Keep leading/trailing spaces: " tl" must not match inside "altlik".
			if n := Normalize(k); strings.TrimSpace(n) != "" {
				norm = append(norm, n)
			}
		}
		c.lists[t] = norm
	}
	return c
}

// Is reports whether text belongs to topic.
func (c *Classifier) Is(topic Topic, text string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	// Pad so word-boundary keywords like " tl" match at either end.
	t = " " + t + " "
	for _, k := range c.lists[topic] {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized list for topic.
func (c *Classifier) Keywords(topic Topic) []string {
	return append([]string(nil), c.lists[topic]...)
}
