package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

func TestCreateSession_Error_NoTable(t *testing.T) {
	db := newRepoDB(t)
	s, err := CreateSession(context.Background(), db, "u1", "t", "tr")
	if err == nil || s != nil {
		t.Fatalf("expected error creating without table, got s=%v err=%v", s, err)
	}
}

func TestCreateSession_PersistsIdle(t *testing.T) {
	db := newRepoDB(t, &domain.Session{})
	s, err := CreateSession(context.Background(), db, "u1", "Hediye", "en")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	got, err := GetSession(context.Background(), db, s.ID, "u1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "Hediye" || got.Lang != "en" || got.State != nil || got.Turns != 0 {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestGetSession_ScopedToOwner(t *testing.T) {
	db := newRepoDB(t, &domain.Session{})
	s, _ := CreateSession(context.Background(), db, "u1", "t", "tr")
	if _, err := GetSession(context.Background(), db, s.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestListSessions_OrderAndPaging(t *testing.T) {
	db := newRepoDB(t, &domain.Session{})
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		ts := t0.Add(time.Duration(i) * time.Hour)
		if err := db.Create(&domain.Session{ID: id, UserID: "u1", CreatedAt: ts, UpdatedAt: ts}).Error; err != nil {
			t.Fatal(err)
		}
	}
	db.Create(&domain.Session{ID: "x", UserID: "u2"})

	all, err := ListSessions(context.Background(), db, "u1")
	if err != nil || len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("ListSessions = %+v err=%v", all, err)
	}
	n, err := CountSessions(context.Background(), db, "u1")
	if err != nil || n != 3 {
		t.Fatalf("CountSessions = %d err=%v", n, err)
	}
	page, err := ListSessionsPage(context.Background(), db, "u1", 1, 1)
	if err != nil || len(page) != 1 || page[0].ID != "b" {
		t.Fatalf("ListSessionsPage = %+v err=%v", page, err)
	}
}

func TestUpdateSessionTitle(t *testing.T) {
	db := newRepoDB(t, &domain.Session{})
	s, _ := CreateSession(context.Background(), db, "u1", "old", "tr")
	if err := UpdateSessionTitle(context.Background(), db, s.ID, "u1", "new"); err != nil {
		t.Fatalf("UpdateSessionTitle: %v", err)
	}
	if err := UpdateSessionTitle(context.Background(), db, s.ID, "u2", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := GetSession(context.Background(), db, s.ID, "u1")
	if got.Title != "new" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestSaveSessionTurn_WritesAndClearsState(t *testing.T) {
	db := newRepoDB(t, &domain.Session{})
	ctx := context.Background()
	s, _ := CreateSession(ctx, db, "u1", "t", "tr")

	s.State = &sommelier.State{FlowID: "gift", StepID: "who", Steps: 1}
	s.GiftMode = true
	s.Turns = 1
	if err := SaveSessionTurn(ctx, db, s); err != nil {
		t.Fatalf("SaveSessionTurn: %v", err)
	}
	got, _ := GetSession(ctx, db, s.ID, "u1")
	if got.State == nil || got.State.StepID != "who" || !got.GiftMode || got.Turns != 1 {
		t.Fatalf("after save: %+v", got)
	}

	got.State = nil
	got.GiftMode = false
	if err := SaveSessionTurn(ctx, db, got); err != nil {
		t.Fatalf("SaveSessionTurn(clear): %v", err)
	}
	again, _ := GetSession(ctx, db, s.ID, "u1")
	if again.State != nil || again.GiftMode {
		t.Fatalf("state must be cleared: %+v", again)
	}

	foreign := *again
	foreign.UserID = "u2"
	if err := SaveSessionTurn(ctx, db, &foreign); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}
