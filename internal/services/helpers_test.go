package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// repoShim adapts the repo free functions to SessionRepo.
type repoShim struct{}

func (repoShim) CreateSession(ctx context.Context, db *gorm.DB, userID, title, lang string) (*domain.Session, error) {
	return repo.CreateSession(ctx, db, userID, title, lang)
}
func (repoShim) ListSessions(ctx context.Context, db *gorm.DB, userID string) ([]domain.Session, error) {
	return repo.ListSessions(ctx, db, userID)
}
func (repoShim) GetSession(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Session, error) {
	return repo.GetSession(ctx, db, id, userID)
}
func (repoShim) UpdateSessionTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateSessionTitle(ctx, db, id, userID, title)
}
func (repoShim) CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountSessions(ctx, db, userID)
}
func (repoShim) ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, userID, offset, limit)
}
func (repoShim) SaveSessionTurn(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	return repo.SaveSessionTurn(ctx, db, s)
}

// staticSource serves a fixed snapshot or error.
type staticSource struct {
	snap catalog.Snapshot
	err  error
}

func (s staticSource) Snapshot(context.Context) (catalog.Snapshot, error) { return s.snap, s.err }

const giftFlowJSON = `{
  "id": "gift", "name": "Hediye", "trigger": "hediye, gift", "startStepId": "who",
  "active": true, "personaType": "gifter",
  "steps": [
    {"id": "who", "type": "question", "question": {"tr": "Kimin için?", "en": "Who is it for?"},
     "options": [
       {"label": {"tr": "Annem", "en": "My mother"}, "nextStepId": "mom", "sensoryScore": {"sweetness": 2}},
       {"label": "Vazgeç"}
     ]},
    {"id": "mom", "type": "result", "resultMessage": "Annen için sütlü pralin kutusu.",
     "productRecommendations": ["p1", "p2"],
     "metadata": {"triggerGiftMode": true, "personaHint": "family"}}
  ]
}`

func testSnapshot(t *testing.T) catalog.Snapshot {
	t.Helper()
	f, err := sommelier.DecodeFlow([]byte(giftFlowJSON))
	if err != nil {
		t.Fatalf("decode flow: %v", err)
	}
	return catalog.Snapshot{
		Products: []sommelier.Product{
			{ID: "p1", Title: "Sütlü Pralin", Description: "Kremalı sütlü", Price: 120, Category: "Pralin", InStock: true},
			{ID: "p2", Title: "Bitter %85", Description: "Yoğun kakao", Price: 150, Category: "Tablet", InStock: true},
		},
		Flows: []sommelier.Flow{f},
		Knowledge: []sommelier.KnowledgeEntry{
			{Key: "kargo ücreti", Value: "500 TL üzeri kargo ücretsiz.", Type: sommelier.KnowledgeQA},
			{Key: "hikaye", Value: "Atölyemiz 1923 yılında İzmir Alsancak semtinde kuruldu.", Type: sommelier.KnowledgeBrandStory},
		},
		LoadedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func seedSession(t *testing.T, db *gorm.DB, userID string) *domain.Session {
	t.Helper()
	s, err := repo.CreateSession(context.Background(), db, userID, defaultTitleNew, "tr")
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}
