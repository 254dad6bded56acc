package reminder

import (
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/notify"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sweep fires the stage reminder templates due on day. For every open,
// active task, a template fires when the task's due date plus the template's
// offset falls on day; each responsible user gets one notification. A
// ReminderLog row keeps a template from firing twice for a task on the
// same day. It returns the number of notifications created.
func Sweep(db *gorm.DB, cat *stage.Catalog, day time.Time, opts Options) (int, error) {
	fireDate := dateOnly(day)
	count := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var open []models.ApprovalTask
		if err := tx.Where("status IN ?", []string{approval.StatusPending, approval.StatusInProgress}).
			Preload("Assignees", func(p *gorm.DB) *gorm.DB { return p.Order("position ASC") }).
			Order("due_date ASC").Find(&open).Error; err != nil {
			return fmt.Errorf("reminder: sweep: load tasks: %w", err)
		}
		active, err := approval.FilterActive(tx, cat, open)
		if err != nil {
			return fmt.Errorf("reminder: sweep: %w", err)
		}

		for i := range active {
			task := &active[i]
			st, ok := cat.Get(task.StageKey)
			if !ok {
				continue
			}
			for _, tmpl := range st.Reminders {
				if !dateOnly(task.DueDate).AddDate(0, 0, tmpl.OffsetDays).Equal(fireDate) {
					continue
				}
				n, err := fire(tx, task, st, tmpl, fireDate, opts)
				if err != nil {
					return err
				}
				count += n
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.NotificationsCreated.WithLabelValues("scheduled").Add(float64(count))
	return count, nil
}

func fire(tx *gorm.DB, task *models.ApprovalTask, st models.Stage, tmpl models.ReminderTemplate, fireDate time.Time, opts Options) (int, error) {
	mark := models.ReminderLog{TaskID: task.ID, Label: tmpl.Label, FireDate: fireDate, CreatedAt: time.Now()}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mark)
	if result.Error != nil {
		return 0, fmt.Errorf("reminder: sweep: mark %s/%s: %w", task.ID, tmpl.Label, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}

	users, err := resolveAll(tx, identities([]models.ApprovalTask{*task}))
	if err != nil {
		return 0, err
	}

	title := fmt.Sprintf("%s: %s - %s", tmpl.Label, task.SubjectName, st.Name)
	content := fmt.Sprintf("The %q stage for %s (%s) is due %s.",
		st.Name, task.SubjectName, task.SubjectGroup, task.DueDate.Format("2006-01-02"))
	if tmpl.Notes != "" {
		content += " " + tmpl.Notes
	}
	taskID := task.ID
	opt := notify.SendOpts{
		Type:     notify.TypeApprovalReminder,
		LinkURL:  opts.reviewPath() + "?taskId=" + task.ID,
		RecordID: task.RecordID,
		TaskID:   &taskID,
	}
	for _, u := range users {
		if _, err := notify.Send(tx, u.ID, title, content, opt); err != nil {
			return 0, fmt.Errorf("reminder: sweep: %w", err)
		}
	}
	return len(users), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
