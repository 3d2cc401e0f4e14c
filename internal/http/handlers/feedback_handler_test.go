package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/choco-sommelier/internal/services"
)

func TestLeaveFeedback(t *testing.T) {
	captureLogs(t)
	var gotUser string
	var gotValue int
	errFor := map[string]error{}
	fb := stubFbSvc{leave: func(_ context.Context, userID, messageID string, value int) error {
		gotUser, gotValue = userID, value
		return errFor[messageID]
	}}
	r := newRouter()
	r.POST("/messages/:id/feedback", New(stubSessSvc{}, stubSommSvc{}, fb).LeaveFeedback)

	okID := uuid.NewString()
	missing, foreign, dup, invalid, broken := uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()
	errFor[missing] = services.ErrMessageNotFound
	errFor[foreign] = services.ErrForbiddenFeedback
	errFor[dup] = services.ErrDuplicateFeedback
	errFor[invalid] = services.ErrInvalidFeedback
	errFor[broken] = errors.New("db down")

	cases := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"ok", okID, `{"value":-1}`, http.StatusNoContent},
		{"bad id", "nope", `{"value":1}`, http.StatusBadRequest},
		{"zero", okID, `{"value":0}`, http.StatusBadRequest},
		{"out of range", okID, `{"value":5}`, http.StatusBadRequest},
		{"bad json", okID, `{"value":`, http.StatusBadRequest},
		{"not found", missing, `{"value":1}`, http.StatusNotFound},
		{"forbidden", foreign, `{"value":1}`, http.StatusForbidden},
		{"duplicate", dup, `{"value":1}`, http.StatusConflict},
		{"invalid", invalid, `{"value":1}`, http.StatusBadRequest},
		{"internal", broken, `{"value":1}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/messages/"+tc.id+"/feedback", tc.body, map[string]string{"X-User-ID": "u1"})
			if w.Code != tc.status {
				t.Fatalf("status = %d want %d (%s)", w.Code, tc.status, w.Body.String())
			}
		})
	}

	doJSON(r, http.MethodPost, "/messages/"+okID+"/feedback", `{"value":-1}`, map[string]string{"X-User-ID": "u9"})
	if gotUser != "u9" || gotValue != -1 {
		t.Fatalf("service got %q %d", gotUser, gotValue)
	}
}
