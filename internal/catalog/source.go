// Package catalog loads the collaborator snapshots the sommelier engine reads
// on every turn: products, conversation flows and the knowledge base.
//
// A Source produces a complete Snapshot. SQLSource reads the local catalog
// tables, FirestoreSource reads the storefront's Firestore collections, and
// Cached wraps either with a TTL. Import seeds the SQLite tables from YAML
// and Markdown files.
package catalog

import (
	"context"
	"time"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// Snapshot is an immutable view of the catalog at LoadedAt.
type Snapshot struct {
	Products  []sommelier.Product
	Flows     []sommelier.Flow
	Knowledge []sommelier.KnowledgeEntry
	LoadedAt  time.Time
}

// Source produces catalog snapshots.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// InStock returns the products that can currently be sold.
func (s Snapshot) InStock() []sommelier.Product {
	out := make([]sommelier.Product, 0, len(s.Products))
	for _, p := range s.Products {
		if p.InStock {
			out = append(out, p)
		}
	}
	return out
}

// ActiveFlows returns the flows eligible for matching.
func (s Snapshot) ActiveFlows() []sommelier.Flow {
	out := make([]sommelier.Flow, 0, len(s.Flows))
	for _, f := range s.Flows {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

// Passages returns the values of every non-Q&A knowledge entry, the corpus
// for free-text knowledge retrieval.
func (s Snapshot) Passages() []string {
	var out []string
	for _, k := range s.Knowledge {
		if k.Type != sommelier.KnowledgeQA && k.Value != "" {
			out = append(out, k.Value)
		}
	}
	return out
}
