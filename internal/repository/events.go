package repository

import (
	"botgate/internal/database"
	"botgate/internal/models"

	"github.com/lib/pq"
)

// RecordEvent appends one audit row. Persistence is best-effort: with the
// database disabled this is a no-op, and callers log rather than fail the
// verification flow on error.
func RecordEvent(sessionID, stage, outcome string, attemptsLeft int, selected []int, botRatio float64) error {
	if database.DB == nil {
		return nil
	}

	sel := make(pq.Int64Array, len(selected))
	for i, v := range selected {
		sel[i] = int64(v)
	}

	event := models.VerificationEvent{
		SessionID:    sessionID,
		Stage:        stage,
		Outcome:      outcome,
		AttemptsLeft: attemptsLeft,
		Selected:     sel,
		BotRatio:     botRatio,
	}
	return database.DB.Create(&event).Error
}

// StageOutcomeCount is one aggregation bucket for the stats chart.
type StageOutcomeCount struct {
	Stage   string
	Outcome string
	Count   int64
}

// CountByStageOutcome aggregates audit events per stage and outcome.
func CountByStageOutcome() ([]StageOutcomeCount, error) {
	var rows []StageOutcomeCount
	err := database.DB.
		Model(&models.VerificationEvent{}).
		Select("stage, outcome, count(*) as count").
		Group("stage").
		Group("outcome").
		Order("stage").
		Scan(&rows).Error
	return rows, err
}
