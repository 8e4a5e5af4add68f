// Package sweeper deletes guest records past their expiry. The sweep is
// idempotent, so overlapping or repeated runs are harmless.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/MuthonduG/reports-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweep deletes all guests whose expiry is strictly before now and returns
// the number of rows removed.
func Sweep(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expiry_at < ?", now).Delete(&models.Guest{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep guests: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func Run(ctx context.Context, db *gorm.DB, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := Sweep(db, time.Now())
			if err != nil {
				logger.Error("guest sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("expired guests removed", zap.Int64("count", deleted))
			}
		}
	}
}
