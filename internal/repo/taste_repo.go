package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/choco-sommelier/internal/domain"
	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// GetTasteProfile returns the user's accumulated profile or ErrNotFound.
func GetTasteProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.TasteProfile, error) {
	var p domain.TasteProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// AddTasteProfile adds delta to the user's profile, creating it on first use,
// and counts one completed flow. Run it inside the turn's transaction.
func AddTasteProfile(ctx context.Context, db *gorm.DB, userID string, delta sommelier.Sensory) (*domain.TasteProfile, error) {
	p, err := GetTasteProfile(ctx, db, userID)
	now := time.Now().UTC()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = &domain.TasteProfile{UserID: userID, Sensory: delta, Flows: 1, CreatedAt: now, UpdatedAt: now}
		return p, db.WithContext(ctx).Create(p).Error
	case err != nil:
		return nil, err
	}
	p.Sensory = p.Sensory.Add(delta)
	p.Flows++
	p.UpdatedAt = now
	return p, db.WithContext(ctx).Save(p).Error
}
