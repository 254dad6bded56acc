package db

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Stage{},
		&models.ApprovalTask{},
		&models.TaskAssignee{},
		&models.CheckItem{},
		&models.HistoryEntry{},
		&models.Record{},
		&models.User{},
		&models.Notification{},
		&models.ReminderLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedStages inserts every stage whose key is not yet present and leaves
// existing rows untouched, so administrative edits survive restarts. It
// returns the number of stages inserted.
func SeedStages(db *gorm.DB, stages []models.Stage) (int, error) {
	inserted := 0
	for i := range stages {
		st := stages[i]
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stage_key"}},
			DoNothing: true,
		}).Create(&st)
		if result.Error != nil {
			return inserted, fmt.Errorf("db: seed stage %q: %w", st.Key, result.Error)
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}
