package approval

import (
	"errors"
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
)

// Approve completes a task: its checklist is flipped to completed, a history
// entry is appended and the record's overall state is recomputed, all in one
// transaction.
func Approve(db *gorm.DB, cat *stage.Catalog, taskID string, actor Actor, comment string) (*models.ApprovalTask, error) {
	return transition(db, cat, taskID, actor, comment, StatusCompleted, ActionApproved)
}

// Return sends a task back. Its checklist is left untouched. Returned is
// terminal; the flow has to be regenerated to continue.
func Return(db *gorm.DB, cat *stage.Catalog, taskID string, actor Actor, comment string) (*models.ApprovalTask, error) {
	return transition(db, cat, taskID, actor, comment, StatusReturned, ActionReturned)
}

func transition(db *gorm.DB, cat *stage.Catalog, taskID string, actor Actor, comment, status, action string) (*models.ApprovalTask, error) {
	var out *models.ApprovalTask
	err := db.Transaction(func(tx *gorm.DB) error {
		task, err := Get(tx, taskID)
		if err != nil {
			return err
		}
		if isTerminal(task.Status) {
			return errs.Conflict("task %s is already %s", taskID, task.Status)
		}
		if !CanOperate(task, actor) {
			return errs.Forbidden("%q is not the owner or an assignee of task %s", actor.Name, taskID)
		}
		if task.RecordID != nil {
			siblings, err := loadSiblings(tx, []string{*task.RecordID})
			if err != nil {
				return err
			}
			if !ActiveSet(siblings, cat.OrderMap())[task.ID] {
				return errs.Conflict("task %s is waiting on earlier stages", taskID)
			}
		}

		// Conditional write: a concurrent action that already moved the task
		// out of an open status leaves zero rows affected.
		result := tx.Model(&models.ApprovalTask{}).
			Where("id = ? AND status IN ?", taskID, openStatuses).
			Updates(map[string]interface{}{
				"status":        status,
				"latest_action": action,
				"updated_at":    now(),
			})
		if result.Error != nil {
			return fmt.Errorf("approval: %s task %s: %w", action, taskID, result.Error)
		}
		if result.RowsAffected == 0 {
			var current models.ApprovalTask
			if err := tx.Select("status").First(&current, "id = ?", taskID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errs.NotFound("task %s not found", taskID)
				}
				return fmt.Errorf("approval: %s task %s: reload: %w", action, taskID, err)
			}
			return errs.Conflict("task %s is already %s", taskID, current.Status)
		}

		if status == StatusCompleted {
			if err := tx.Model(&models.CheckItem{}).Where("task_id = ?", taskID).
				Update("completed", true).Error; err != nil {
				return fmt.Errorf("approval: complete checklist of %s: %w", taskID, err)
			}
		}

		entry := models.HistoryEntry{
			TaskID:    taskID,
			Action:    action,
			Operator:  actor.Name,
			Comment:   comment,
			CreatedAt: now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("approval: append history to %s: %w", taskID, err)
		}

		if task.RecordID != nil {
			if _, err := Recompute(tx, cat, *task.RecordID); err != nil {
				return err
			}
		}

		out, err = Get(tx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
