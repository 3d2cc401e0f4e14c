package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/choco-sommelier/internal/catalog"
	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/repo"
	"github.com/tbourn/choco-sommelier/internal/services"
)

// ---------- test plumbing ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

// ---------- service stubs ----------

type stubSessSvc struct {
	create      func(ctx context.Context, userID, title, lang string) (*domain.Session, error)
	listPage    func(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error)
	get         func(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	updateTitle func(ctx context.Context, userID, sessionID, title string) error
	reset       func(ctx context.Context, userID, sessionID string) (*domain.Session, error)
}

func (s stubSessSvc) Create(ctx context.Context, userID, title, lang string) (*domain.Session, error) {
	return s.create(ctx, userID, title, lang)
}
func (s stubSessSvc) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error) {
	return s.listPage(ctx, userID, page, pageSize)
}
func (s stubSessSvc) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	if s.get == nil {
		return nil, services.ErrSessionNotFound
	}
	return s.get(ctx, userID, sessionID)
}
func (s stubSessSvc) UpdateTitle(ctx context.Context, userID, sessionID, title string) error {
	return s.updateTitle(ctx, userID, sessionID, title)
}
func (s stubSessSvc) Reset(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	return s.reset(ctx, userID, sessionID)
}

type stubSommSvc struct {
	answer   func(ctx context.Context, userID, sessionID, prompt, lang string) (*services.TurnResult, error)
	listPage func(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
	snap     catalog.Snapshot
}

func (s stubSommSvc) Answer(ctx context.Context, userID, sessionID, prompt, lang string) (*services.TurnResult, error) {
	return s.answer(ctx, userID, sessionID, prompt, lang)
}
func (s stubSommSvc) ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error) {
	return s.listPage(ctx, userID, sessionID, page, pageSize)
}
func (s stubSommSvc) Snapshot(context.Context) catalog.Snapshot { return s.snap }

type stubFbSvc struct {
	leave func(ctx context.Context, userID, messageID string, value int) error
}

func (s stubFbSvc) Leave(ctx context.Context, userID, messageID string, value int) error {
	return s.leave(ctx, userID, messageID, value)
}
