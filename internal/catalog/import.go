package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/search"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// seedFile is the YAML layout accepted by Import. Flows are kept as generic
// maps and re-encoded to JSON so they go through the same decoder as
// Firestore documents.
type seedFile struct {
	Products  []map[string]any `yaml:"products"`
	Flows     []map[string]any `yaml:"flows"`
	Knowledge []map[string]any `yaml:"knowledge"`
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Products  int
	Flows     int
	Knowledge int
}

// Import upserts the YAML seed and, when story is non-nil, one BrandStory
// entry per Markdown fact. Everything is written in one transaction; running
// it twice leaves the same rows.
func Import(ctx context.Context, db *gorm.DB, seed, story io.Reader) (ImportResult, error) {
	var res ImportResult
	var sf seedFile
	if seed != nil {
		if err := yaml.NewDecoder(seed).Decode(&sf); err != nil && err != io.EOF {
			return res, fmt.Errorf("catalog: seed yaml: %w", err)
		}
	}

	products := make([]domain.Product, 0, len(sf.Products))
	for i, m := range sf.Products {
		raw, err := documentJSON(m)
		if err != nil {
			return res, fmt.Errorf("catalog: product %d: %w", i, err)
		}
		p := decodeProduct("", raw)
		if p.ID == "" || p.Title == "" {
			return res, fmt.Errorf("catalog: product %d: id and title are required", i)
		}
		products = append(products, domain.Product{
			ID: p.ID, Title: p.Title, Description: p.Description,
			Price: p.Price, Category: p.Category, InStock: p.InStock, Position: i,
		})
	}

	flows := make([]domain.FlowDefinition, 0, len(sf.Flows))
	for i, m := range sf.Flows {
		raw, err := documentJSON(m)
		if err != nil {
			return res, fmt.Errorf("catalog: flow %d: %w", i, err)
		}
		f, err := decodeFlow("", raw)
		if err != nil {
			return res, fmt.Errorf("catalog: flow %d: %w", i, err)
		}
		flows = append(flows, domain.FlowDefinition{
			ID: f.ID, Name: f.Name, Trigger: f.Trigger, Active: f.Active,
			Position: i, Document: string(raw),
		})
	}

	knowledge := make([]domain.KnowledgeEntry, 0, len(sf.Knowledge))
	for i, m := range sf.Knowledge {
		raw, err := documentJSON(m)
		if err != nil {
			return res, fmt.Errorf("catalog: knowledge %d: %w", i, err)
		}
		k := decodeKnowledge("", raw)
		if k.Key == "" || k.Value == "" {
			return res, fmt.Errorf("catalog: knowledge %d: key and value are required", i)
		}
		knowledge = append(knowledge, domain.KnowledgeEntry{Key: k.Key, Value: k.Value, Type: k.Type, Position: i})
	}
	if story != nil {
		facts, err := search.MarkdownFacts(story)
		if err != nil {
			return res, fmt.Errorf("catalog: brand story: %w", err)
		}
		base := len(knowledge)
		for i, fact := range facts {
			knowledge = append(knowledge, domain.KnowledgeEntry{
				Key:      fmt.Sprintf("story-%03d", i+1),
				Value:    fact,
				Type:     sommelier.KnowledgeBrandStory,
				Position: base + i,
			})
		}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpsertProducts(ctx, tx, products); err != nil {
			return err
		}
		if err := repo.UpsertFlowDefinitions(ctx, tx, flows); err != nil {
			return err
		}
		return repo.UpsertKnowledge(ctx, tx, knowledge)
	})
	if err != nil {
		return res, fmt.Errorf("catalog: import: %w", err)
	}
	return ImportResult{Products: len(products), Flows: len(flows), Knowledge: len(knowledge)}, nil
}

// ImportFiles opens seedPath and storyPath (either may be empty) and calls Import.
func ImportFiles(ctx context.Context, db *gorm.DB, seedPath, storyPath string) (ImportResult, error) {
	var seed, story io.Reader
	if seedPath != "" {
		f, err := os.Open(seedPath)
		if err != nil {
			return ImportResult{}, err
		}
		defer f.Close()
		seed = f
	}
	if storyPath != "" {
		f, err := os.Open(storyPath)
		if err != nil {
			return ImportResult{}, err
		}
		defer f.Close()
		story = f
	}
	return Import(ctx, db, seed, story)
}
