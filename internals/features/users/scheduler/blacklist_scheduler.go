// file: internals/features/users/scheduler/blacklist_scheduler.go
package scheduler

import (
	"log"
	"time"

	"gorm.io/gorm"

	"miclinica_backend/internals/features/users/model"
)

// StartBlacklistCleanupScheduler prunes logout tokens that have passed their
// natural expiry. Runs daily.
func StartBlacklistCleanupScheduler(db *gorm.DB) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		log.Println("[SCHEDULER] token blacklist cleanup every 24h")
		for range ticker.C {
			res := db.Unscoped().
				Where("expired_at < ?", time.Now()).
				Delete(&model.TokenBlacklist{})
			if res.Error != nil {
				log.Printf("[SCHEDULER] blacklist cleanup failed: %v", res.Error)
				continue
			}
			if res.RowsAffected > 0 {
				log.Printf("[SCHEDULER] removed %d expired blacklist token(s)", res.RowsAffected)
			}
		}
	}()
}
