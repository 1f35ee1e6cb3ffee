package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/models"
	"gorm.io/gorm"
)

// Sweep is extra housekeeping run on the cleanup ticker.
type Sweep func(now time.Time)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays and then runs each sweep, until done is closed.
func StartCleanup(db *gorm.DB, retentionDays int, done chan struct{}, sweeps ...Sweep) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				PurgeOlderThan(db, now.AddDate(0, 0, -retentionDays))
				for _, sweep := range sweeps {
					sweep(now)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeOlderThan deletes system logs recorded before cutoff.
func PurgeOlderThan(db *gorm.DB, cutoff time.Time) int64 {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Warn("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
