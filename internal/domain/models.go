// Package domain defines the persistence models for sommelier sessions,
// transcripts, feedback and the catalog snapshot tables. These types are
// mapped with GORM and form the data layer of the service.
package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// Session is one chat with the sommelier, owned by a user. It carries the
// conversation-flow state between turns.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for listing.
//   - Title: human-readable title (auto-generated from the first message).
//   - Lang: display language used when a message does not specify one.
//   - State: flow position, nil when no flow is active.
//   - GiftMode / Persona: last flags reported by the engine.
//   - Turns: number of user messages so far.
type Session struct {
	ID        string           `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string           `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_sessions"`
	Title     string           `json:"title"      gorm:"type:varchar(255);not null;default:'New chat'"`
	Lang      string           `json:"lang"       gorm:"type:varchar(8);not null;default:'tr'"`
	State     *sommelier.State `json:"state"      gorm:"type:text;serializer:json"`
	GiftMode  bool             `json:"gift_mode"  gorm:"not null;default:false"`
	Persona   string           `json:"persona,omitempty" gorm:"type:varchar(64)"`
	Turns     int              `json:"turns"      gorm:"not null;default:0"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is one utterance in a session transcript. Assistant messages record
// the dispatch route and the recommended product ids.
type Message struct {
	ID              string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID       string         `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role            string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content         string         `json:"content"    gorm:"type:text;not null"`
	Route           string         `json:"route,omitempty" gorm:"type:varchar(32)"`
	Recommendations []string       `json:"recommendations,omitempty" gorm:"type:text;serializer:json"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"          gorm:"index"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Feedback is a +1/-1 rating on an assistant message, at most one per user.
type Feedback struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string         `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_message_user"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_feedback_message_user"`
	Value     int            `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// TasteProfile accumulates the sensory vectors of every flow a user completed.
type TasteProfile struct {
	UserID    string            `json:"user_id" gorm:"type:varchar(64);primaryKey"`
	Sensory   sommelier.Sensory `json:"sensory" gorm:"embedded;embeddedPrefix:taste_"`
	Flows     int               `json:"flows"   gorm:"not null;default:0"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TableName returns the database table name for TasteProfile.
func (TasteProfile) TableName() string { return "taste_profiles" }
