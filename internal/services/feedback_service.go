// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how users rate
// (-1 or +1) sommelier replies. It enforces business rules (message existence,
// session ownership, assistant-only restriction, uniqueness) and persists
// feedback atomically.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/repo"
)

// FeedbackService implements the use-cases around message feedback.
type FeedbackService struct {
	DB *gorm.DB
}

// Leave records a feedback value for messageID on behalf of userID.
//
// Semantics and validation:
//   - value must be exactly -1 or 1; otherwise ErrInvalidFeedback.
//   - messageID must exist; otherwise ErrMessageNotFound.
//   - The message must belong to a session owned by userID and be an
//     assistant message; otherwise ErrForbiddenFeedback.
//   - A user may rate a message once; a second attempt yields ErrDuplicateFeedback.
//
// The checks and the insert run in one transaction.
func (s *FeedbackService) Leave(ctx context.Context, userID, messageID string, value int) error {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "Leave",
		trace.WithAttributes(
			attribute.String("message.id", messageID),
			attribute.Int("feedback.value", value),
		),
	)
	defer span.End()

	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := repo.GetMessage(ctx, tx, messageID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrMessageNotFound
			}
			return err
		}

		// Either the session is gone or it belongs to someone else.
		if _, err := repo.GetSession(ctx, tx, msg.SessionID, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrForbiddenFeedback
			}
			return err
		}

		if msg.Role != roleAssistant {
			return ErrForbiddenFeedback
		}

		if err := repo.CreateFeedback(ctx, tx, messageID, userID, value); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
}
