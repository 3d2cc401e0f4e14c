package repo

import (
	"context"
	"testing"

	"github.com/tbourn/choco-sommelier/internal/domain"
)

func TestCatalog_UpsertAndListInPositionOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Product{}, &domain.FlowDefinition{}, &domain.KnowledgeEntry{})
	ctx := context.Background()

	err := UpsertProducts(ctx, db, []domain.Product{
		{ID: "p2", Title: "Sütlü", Price: 90, InStock: true, Position: 2},
		{ID: "p1", Title: "Bitter", Price: 120, InStock: false, Position: 1},
	})
	if err != nil {
		t.Fatalf("UpsertProducts: %v", err)
	}
	// Overwrite by id.
	if err := UpsertProducts(ctx, db, []domain.Product{{ID: "p1", Title: "Bitter %85", Price: 130, InStock: true, Position: 1}}); err != nil {
		t.Fatalf("UpsertProducts(update): %v", err)
	}
	ps, err := ListProducts(ctx, db)
	if err != nil || len(ps) != 2 {
		t.Fatalf("ListProducts = %+v err=%v", ps, err)
	}
	if ps[0].ID != "p1" || ps[0].Title != "Bitter %85" || !ps[0].InStock || ps[0].Price != 130 {
		t.Fatalf("upsert not applied or wrong order: %+v", ps)
	}

	if err := UpsertFlowDefinitions(ctx, db, []domain.FlowDefinition{
		{ID: "b", Trigger: "kargo", Active: false, Position: 1, Document: `{"id":"b"}`},
		{ID: "a", Trigger: "hediye", Active: true, Position: 0, Document: `{"id":"a"}`},
	}); err != nil {
		t.Fatalf("UpsertFlowDefinitions: %v", err)
	}
	fs, err := ListFlowDefinitions(ctx, db)
	if err != nil || len(fs) != 2 || fs[0].ID != "a" || fs[1].Active {
		t.Fatalf("ListFlowDefinitions = %+v err=%v", fs, err)
	}

	if err := UpsertKnowledge(ctx, db, []domain.KnowledgeEntry{
		{Key: "kargo", Value: "1-3 gün", Type: "Q&A", Position: 1},
		{Key: "hikaye", Value: "1923", Type: "BrandStory", Position: 0},
	}); err != nil {
		t.Fatalf("UpsertKnowledge: %v", err)
	}
	ks, err := ListKnowledge(ctx, db)
	if err != nil || len(ks) != 2 || ks[0].Key != "hikaye" {
		t.Fatalf("ListKnowledge = %+v err=%v", ks, err)
	}

	if err := UpsertProducts(ctx, db, nil); err != nil {
		t.Fatalf("empty upsert must be a no-op: %v", err)
	}
}
