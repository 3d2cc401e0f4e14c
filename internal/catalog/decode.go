package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// decodeProduct reads a storefront product document. Prices may be numbers or
// numeric strings; stock is either an inStock flag or a stock count, and
// defaults to available when neither is present.
func decodeProduct(id string, raw []byte) sommelier.Product {
	r := gjson.ParseBytes(raw)
	p := sommelier.Product{
		ID:          firstNonEmpty(r.Get("id").String(), id),
		Title:       firstNonEmpty(r.Get("title").String(), r.Get("name").String()),
		Description: r.Get("description").String(),
		Price:       r.Get("price").Float(),
		Category:    r.Get("category").String(),
		InStock:     true,
	}
	if v := r.Get("inStock"); v.Exists() {
		p.InStock = v.Bool()
	} else if v := r.Get("stock"); v.Exists() {
		p.InStock = v.Float() > 0
	}
	return p
}

// decodeFlow parses a flow document. A document without an "active" field is
// treated as active.
func decodeFlow(id string, raw []byte) (sommelier.Flow, error) {
	f, err := sommelier.DecodeFlow(raw)
	if err != nil {
		return sommelier.Flow{}, err
	}
	if f.ID == "" {
		f.ID = id
	}
	if f.ID == "" {
		return sommelier.Flow{}, fmt.Errorf("flow without id")
	}
	if !gjson.GetBytes(raw, "active").Exists() {
		f.Active = true
	}
	return f, nil
}

// decodeKnowledge reads one knowledge document; the type defaults to Q&A.
func decodeKnowledge(id string, raw []byte) sommelier.KnowledgeEntry {
	r := gjson.ParseBytes(raw)
	k := sommelier.KnowledgeEntry{
		Key:   firstNonEmpty(r.Get("key").String(), id),
		Value: r.Get("value").String(),
		Type:  normalizeKnowledgeType(r.Get("type").String()),
	}
	return k
}

func normalizeKnowledgeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "mapping":
		return sommelier.KnowledgeMapping
	case "brandstory", "brand_story", "story":
		return sommelier.KnowledgeBrandStory
	default:
		return sommelier.KnowledgeQA
	}
}

// documentJSON converts a decoded document (Firestore or YAML) to JSON.
func documentJSON(data map[string]any) ([]byte, error) {
	return json.Marshal(data)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
