package domain

import "time"

// Product is a catalog row. Position keeps the storefront order.
type Product struct {
	ID          string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price"       gorm:"not null;default:0;check:price >= 0"`
	Category    string    `json:"category"    gorm:"type:varchar(64);index"`
	InStock     bool      `json:"in_stock"    gorm:"not null"`
	Position    int       `json:"position"    gorm:"not null;default:0;index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// FlowDefinition stores one conversation flow. Document holds the full flow
// JSON (steps included); the other columns mirror it for listing.
type FlowDefinition struct {
	ID        string    `json:"id"        gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255)"`
	Trigger   string    `json:"trigger"   gorm:"type:text"`
	Active    bool      `json:"active"    gorm:"not null;index"`
	Position  int       `json:"position"  gorm:"not null;default:0;index"`
	Document  string    `json:"-"         gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for FlowDefinition.
func (FlowDefinition) TableName() string { return "flow_definitions" }

// KnowledgeEntry is one admin-authored key/value rule.
type KnowledgeEntry struct {
	Key       string    `json:"key"      gorm:"type:varchar(255);primaryKey"`
	Value     string    `json:"value"    gorm:"type:text;not null"`
	Type      string    `json:"type"     gorm:"type:varchar(32);not null;index"`
	Position  int       `json:"position" gorm:"not null;default:0;index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for KnowledgeEntry.
func (KnowledgeEntry) TableName() string { return "knowledge_entries" }
