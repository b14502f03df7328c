package services

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/secvote/secvote/pkg/internal/database"
	"github.com/secvote/secvote/pkg/internal/models"
)

// DoAutoDatabaseCleanup permanently removes polls that have sat in the
// soft-deleted state for over a month, together with their ledger rows.
// Live votes are never touched; the ledger is append-only for open polls.
func DoAutoDatabaseCleanup() {
	deadline := time.Now().Add(-30 * 24 * time.Hour)

	var polls []models.Poll
	if err := database.C.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", deadline).
		Find(&polls).Error; err != nil {
		log.Error().Err(err).Msg("An error occurred when looking up removable polls...")
		return
	}
	if len(polls) == 0 {
		return
	}

	tx := database.C.Begin()
	for _, poll := range polls {
		tx.Unscoped().Where("poll_id = ?", poll.ID).Delete(&models.Vote{})
		tx.Unscoped().Delete(&poll)
	}
	if err := tx.Commit().Error; err != nil {
		log.Error().Err(err).Msg("An error occurred when cleaning up database...")
		return
	}

	log.Info().Int("count", len(polls)).Msg("Cleaned up soft-deleted polls.")
}
