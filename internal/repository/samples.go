package repository

import (
	"botgate/internal/database"
	"botgate/internal/models"
)

// SaveMovementSamples persists one labeled batch of raw pointer samples for
// later training-data export. No-op when the database is disabled.
func SaveMovementSamples(sessionID, label string, coords []models.Sample) error {
	if database.DB == nil || len(coords) == 0 {
		return nil
	}

	rows := make([]models.MovementSampleRow, len(coords))
	for i, sample := range coords {
		rows[i] = models.MovementSampleRow{
			SessionID: sessionID,
			Label:     label,
			X:         sample.X,
			Y:         sample.Y,
			T:         sample.T,
		}
	}
	return database.DB.CreateInBatches(rows, 200).Error
}
