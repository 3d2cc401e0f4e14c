// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback model.
//
// Error semantics:
//   - Duplicate feedback (same message_id,user_id) is reported as ErrDuplicate.
//     The service layer translates that into ErrDuplicateFeedback.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/domain"
)

// CreateFeedback inserts a +1/-1 rating for the given message and user.
// The (message_id, user_id) pair is unique; a second rating returns ErrDuplicate.
func CreateFeedback(ctx context.Context, db *gorm.DB, messageID, userID string, value int) error {
	now := time.Now().UTC()
	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FeedbackScore returns the sum of ratings left on an assistant message.
func FeedbackScore(ctx context.Context, db *gorm.DB, messageID string) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("message_id = ?", messageID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	return sum, err
}
