package approval

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
)

// DeleteTask removes one task with its checklist, assignees and history.
// The owner, an assignee, or an elevated actor may delete it.
func DeleteTask(db *gorm.DB, cat *stage.Catalog, taskID string, actor Actor) error {
	return db.Transaction(func(tx *gorm.DB) error {
		task, err := Get(tx, taskID)
		if err != nil {
			return err
		}
		if !CanOperate(task, actor) {
			return errs.Forbidden("%q may not delete task %s", actor.Name, taskID)
		}
		if err := deleteTasks(tx, []string{taskID}); err != nil {
			return err
		}
		if task.RecordID != nil {
			if _, err := Recompute(tx, cat, *task.RecordID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteByRecord removes a record's whole flow. It requires an elevated
// actor and returns the number of tasks deleted.
func DeleteByRecord(db *gorm.DB, cat *stage.Catalog, recordID string, actor Actor) (int, error) {
	if !actor.Elevated {
		return 0, errs.Forbidden("deleting a whole approval flow requires elevated privileges")
	}
	return deleteWhere(db, cat, func(q *gorm.DB) *gorm.DB {
		return q.Where("record_id = ?", recordID)
	}, fmt.Sprintf("record %s", recordID))
}

// DeleteBySubject removes every task for a subject name and group. It
// requires an elevated actor and returns the number of tasks deleted.
func DeleteBySubject(db *gorm.DB, cat *stage.Catalog, subjectName, subjectGroup string, actor Actor) (int, error) {
	if !actor.Elevated {
		return 0, errs.Forbidden("deleting a whole approval flow requires elevated privileges")
	}
	if subjectName == "" {
		return 0, errs.Validation("subject name is required")
	}
	return deleteWhere(db, cat, func(q *gorm.DB) *gorm.DB {
		return q.Where("subject_name = ? AND subject_group = ?", subjectName, subjectGroup)
	}, fmt.Sprintf("subject %s (%s)", subjectName, subjectGroup))
}

func deleteWhere(db *gorm.DB, cat *stage.Catalog, where func(*gorm.DB) *gorm.DB, target string) (int, error) {
	var count int
	err := db.Transaction(func(tx *gorm.DB) error {
		var tasks []models.ApprovalTask
		if err := where(tx.Select("id", "record_id")).Find(&tasks).Error; err != nil {
			return fmt.Errorf("approval: delete tasks of %s: %w", target, err)
		}
		if len(tasks) == 0 {
			return errs.NotFound("no approval tasks for %s", target)
		}

		ids := make([]string, len(tasks))
		seen := make(map[string]bool)
		var recordIDs []string
		for i, t := range tasks {
			ids[i] = t.ID
			if t.RecordID != nil && !seen[*t.RecordID] {
				seen[*t.RecordID] = true
				recordIDs = append(recordIDs, *t.RecordID)
			}
		}
		if err := deleteTasks(tx, ids); err != nil {
			return err
		}
		for _, id := range recordIDs {
			if _, err := Recompute(tx, cat, id); err != nil {
				return err
			}
		}
		count = len(tasks)
		return nil
	})
	return count, err
}

// deleteTasks removes tasks and everything hanging off them.
func deleteTasks(tx *gorm.DB, ids []string) error {
	children := []interface{}{
		&models.CheckItem{},
		&models.HistoryEntry{},
		&models.TaskAssignee{},
		&models.ReminderLog{},
	}
	for _, m := range children {
		if err := tx.Where("task_id IN ?", ids).Delete(m).Error; err != nil {
			return fmt.Errorf("approval: delete %T: %w", m, err)
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.ApprovalTask{}).Error; err != nil {
		return fmt.Errorf("approval: delete tasks: %w", err)
	}
	return nil
}
