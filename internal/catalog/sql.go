package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// SQLSource reads the catalog tables written by Import.
type SQLSource struct {
	DB *gorm.DB
}

// Snapshot loads products, flows and knowledge in position order. A flow whose
// stored document no longer parses is skipped and logged.
func (s *SQLSource) Snapshot(ctx context.Context) (Snapshot, error) {
	prows, err := repo.ListProducts(ctx, s.DB)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: products: %w", err)
	}
	frows, err := repo.ListFlowDefinitions(ctx, s.DB)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: flows: %w", err)
	}
	krows, err := repo.ListKnowledge(ctx, s.DB)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: knowledge: %w", err)
	}

	snap := Snapshot{
		Products:  make([]sommelier.Product, 0, len(prows)),
		Flows:     make([]sommelier.Flow, 0, len(frows)),
		Knowledge: make([]sommelier.KnowledgeEntry, 0, len(krows)),
		LoadedAt:  time.Now().UTC(),
	}
	for _, p := range prows {
		snap.Products = append(snap.Products, productFromRow(p))
	}
	for _, row := range frows {
		f, err := flowFromRow(row)
		if err != nil {
			log.Warn().Err(err).Str("flow_id", row.ID).Msg("skipping unreadable flow definition")
			continue
		}
		snap.Flows = append(snap.Flows, f)
	}
	for _, k := range krows {
		snap.Knowledge = append(snap.Knowledge, sommelier.KnowledgeEntry{Key: k.Key, Value: k.Value, Type: k.Type})
	}
	return snap, nil
}

func productFromRow(p domain.Product) sommelier.Product {
	return sommelier.Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		InStock:     p.InStock,
	}
}

// flowFromRow decodes the stored document; the row's id and active columns win
// over the document so admins can toggle a flow without rewriting it.
func flowFromRow(row domain.FlowDefinition) (sommelier.Flow, error) {
	f, err := sommelier.DecodeFlow([]byte(row.Document))
	if err != nil {
		return sommelier.Flow{}, err
	}
	f.ID = row.ID
	f.Active = row.Active
	if row.Trigger != "" {
		f.Trigger = row.Trigger
	}
	if row.Name != "" {
		f.Name = row.Name
	}
	return f, nil
}
