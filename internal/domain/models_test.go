package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	names := map[string]string{
		(Session{}).TableName():        "sessions",
		(Message{}).TableName():        "messages",
		(Feedback{}).TableName():       "feedback",
		(TasteProfile{}).TableName():   "taste_profiles",
		(Product{}).TableName():        "products",
		(FlowDefinition{}).TableName(): "flow_definitions",
		(KnowledgeEntry{}).TableName(): "knowledge_entries",
		(Idempotency{}).TableName():    "idempotency",
	}
	for got, want := range names {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Session{}, &Message{}, &Feedback{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Session{}, "idx_user_sessions") {
		t.Fatal("expected index idx_user_sessions")
	}
	if !m.HasIndex(&Message{}, "idx_session_msgs") {
		t.Fatal("expected index idx_session_msgs")
	}
	if !m.HasIndex(&Feedback{}, "ux_feedback_message_user") {
		t.Fatal("expected unique index ux_feedback_message_user")
	}

	now := time.Now().UTC()
	if err := db.Create(&Session{ID: "s1", UserID: "u1", Title: "T", Lang: "tr", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert session: %v", err)
	}
	m2 := &Message{ID: "m2", SessionID: "s1", Role: "assistant", Content: "x", Route: "gift", Recommendations: []string{"p1", "p2"}, CreatedAt: now}
	if err := db.Create(m2).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if err := db.Create(&Message{ID: "bad", SessionID: "s1", Role: "system", Content: "x"}).Error; err == nil {
		t.Fatal("role check constraint must reject 'system'")
	}
	if err := db.Create(&Feedback{ID: "f1", MessageID: "m2", UserID: "u1", Value: 1}).Error; err != nil {
		t.Fatalf("insert feedback: %v", err)
	}

	var got Message
	if err := db.First(&got, "id = ?", "m2").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if len(got.Recommendations) != 2 || got.Recommendations[1] != "p2" {
		t.Fatalf("recommendations not serialized: %#v", got.Recommendations)
	}

	if err := db.Unscoped().Delete(&Session{}, "id = ?", "s1").Error; err != nil {
		t.Fatalf("delete session: %v", err)
	}
	var cnt int64
	db.Model(&Feedback{}).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected feedback to cascade through messages, got %d", cnt)
	}
}

func TestSession_StateSerializer(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Session{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	st := &sommelier.State{FlowID: "gift", StepID: "who", Sensory: sommelier.Sensory{Intensity: 3}, History: []sommelier.Turn{{StepID: "a", Answer: "1"}}}
	if err := db.Create(&Session{ID: "s1", UserID: "u", State: st}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Create(&Session{ID: "s2", UserID: "u"}).Error; err != nil {
		t.Fatalf("create idle: %v", err)
	}

	var got Session
	if err := db.First(&got, "id = ?", "s1").Error; err != nil {
		t.Fatal(err)
	}
	if got.State == nil || got.State.StepID != "who" || got.State.Sensory.Intensity != 3 || len(got.State.History) != 1 {
		t.Fatalf("state round trip: %+v", got.State)
	}
	var idle Session
	if err := db.First(&idle, "id = ?", "s2").Error; err != nil {
		t.Fatal(err)
	}
	if idle.State != nil {
		t.Fatalf("idle session must load a nil state, got %+v", idle.State)
	}
	if idle.Title != "New chat" || idle.Lang != "tr" {
		t.Fatalf("defaults: %+v", idle)
	}
}

func TestTasteProfile_EmbeddedColumns(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&TasteProfile{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasColumn(&TasteProfile{}, "taste_crunch") {
		t.Fatal("expected prefixed sensory columns")
	}
	p := TasteProfile{UserID: "u", Sensory: sommelier.Sensory{Crunch: 2, Acidity: 1}, Flows: 1}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	var got TasteProfile
	db.First(&got, "user_id = ?", "u")
	if got.Sensory != p.Sensory {
		t.Fatalf("sensory = %+v", got.Sensory)
	}
}

func TestCatalogTables(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Product{}, &FlowDefinition{}, &KnowledgeEntry{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Create(&Product{ID: "p", Title: "x", Price: -1}).Error; err == nil {
		t.Fatal("negative price must be rejected")
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_session_key") {
		t.Fatal("expected idempotency unique index")
	}
	now := time.Now().UTC()
	rec := Idempotency{ID: "1", UserID: "u", SessionID: "s", Key: "k", MessageID: "m", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	dup := rec
	dup.ID = "2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatal("expected unique violation on (user_id, session_id, key)")
	}
}
