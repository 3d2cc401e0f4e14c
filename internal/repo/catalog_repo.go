// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the catalog tables (products, flow
// definitions, knowledge entries) read by catalog.SQLSource and written by
// the seed importer.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/choco-sommelier/internal/domain"
)

// ListProducts returns every product in storefront order.
func ListProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).Order("position ASC, id ASC").Find(&out).Error
	return out, err
}

// ListFlowDefinitions returns every stored flow, active or not, in position order.
func ListFlowDefinitions(ctx context.Context, db *gorm.DB) ([]domain.FlowDefinition, error) {
	var out []domain.FlowDefinition
	err := db.WithContext(ctx).Order("position ASC, id ASC").Find(&out).Error
	return out, err
}

// ListKnowledge returns every knowledge entry in position order.
func ListKnowledge(ctx context.Context, db *gorm.DB) ([]domain.KnowledgeEntry, error) {
	var out []domain.KnowledgeEntry
	err := db.WithContext(ctx).Order("position ASC, key ASC").Find(&out).Error
	return out, err
}

// UpsertProducts inserts products or overwrites rows with the same id.
func UpsertProducts(ctx context.Context, db *gorm.DB, ps []domain.Product) error {
	if len(ps) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&ps).Error
}

// UpsertFlowDefinitions inserts flows or overwrites rows with the same id.
func UpsertFlowDefinitions(ctx context.Context, db *gorm.DB, fs []domain.FlowDefinition) error {
	if len(fs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&fs).Error
}

// UpsertKnowledge inserts entries or overwrites rows with the same key.
func UpsertKnowledge(ctx context.Context, db *gorm.DB, ks []domain.KnowledgeEntry) error {
	if len(ks) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&ks).Error
}
