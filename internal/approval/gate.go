package approval

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
)

// IsActive reports whether task passes predecessor gating: every sibling of
// the same record whose stage has a strictly lower order is completed.
// Tasks without a record, and tasks whose stage is not in order, are always
// active. Siblings whose stage is not in order never gate.
func IsActive(task models.ApprovalTask, siblings []models.ApprovalTask, order map[string]int) bool {
	if task.RecordID == nil {
		return true
	}
	cur, ok := order[task.StageKey]
	if !ok {
		return true
	}
	for _, s := range siblings {
		if s.ID == task.ID || s.RecordID == nil || *s.RecordID != *task.RecordID {
			continue
		}
		if o, known := order[s.StageKey]; known && o < cur && s.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// ActiveSet evaluates gating for every task in tasks, which must contain the
// full sibling set of each record involved. It returns the IDs of the active
// tasks. Evaluation is linear: per record, a task is active iff no
// incomplete sibling has a lower order.
func ActiveSet(tasks []models.ApprovalTask, order map[string]int) map[string]bool {
	// Lowest order among incomplete tasks, per record.
	blocking := make(map[string]int)
	for _, t := range tasks {
		if t.RecordID == nil || t.Status == StatusCompleted {
			continue
		}
		o, ok := order[t.StageKey]
		if !ok {
			continue
		}
		if cur, seen := blocking[*t.RecordID]; !seen || o < cur {
			blocking[*t.RecordID] = o
		}
	}

	active := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.RecordID == nil {
			active[t.ID] = true
			continue
		}
		o, ok := order[t.StageKey]
		if !ok {
			active[t.ID] = true
			continue
		}
		if b, seen := blocking[*t.RecordID]; !seen || o <= b {
			active[t.ID] = true
		}
	}
	return active
}

// Aggregate derives a record's overall state from its full task set.
func Aggregate(tasks []models.ApprovalTask, order map[string]int) OverallState {
	active := ActiveSet(tasks, order)
	var n, completed, progressed int
	for _, t := range tasks {
		if !active[t.ID] {
			continue
		}
		n++
		switch t.Status {
		case StatusReturned:
			return OverallReturned
		case StatusCompleted:
			completed++
			progressed++
		case StatusInProgress:
			progressed++
		}
	}
	switch {
	case n == 0:
		return OverallPending
	case completed == n && n < len(tasks):
		return OverallInProgress
	case completed == n:
		return OverallApproved
	case progressed > 0:
		return OverallInProgress
	default:
		return OverallPending
	}
}

// Recompute re-derives the overall state of recordID from its tasks and
// writes it, with the completion timestamp, to the record. Run it inside
// the transaction of the triggering mutation.
func Recompute(tx *gorm.DB, cat *stage.Catalog, recordID string) (OverallState, error) {
	var tasks []models.ApprovalTask
	if err := tx.Select("id", "record_id", "stage_key", "status").
		Where("record_id = ?", recordID).Find(&tasks).Error; err != nil {
		return "", fmt.Errorf("approval: recompute %s: load tasks: %w", recordID, err)
	}
	state := Aggregate(tasks, cat.OrderMap())

	var completedAt interface{}
	if state == OverallApproved {
		completedAt = now()
	}
	if err := tx.Model(&models.Record{}).Where("id = ?", recordID).Updates(map[string]interface{}{
		"approval_status":       string(state),
		"approval_completed_at": completedAt,
	}).Error; err != nil {
		return "", fmt.Errorf("approval: recompute %s: update record: %w", recordID, err)
	}
	return state, nil
}

// loadSiblings returns every task of the given records, grouped into one
// slice, with only the columns gating needs.
func loadSiblings(db *gorm.DB, recordIDs []string) ([]models.ApprovalTask, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	var tasks []models.ApprovalTask
	if err := db.Select("id", "record_id", "stage_key", "status").
		Where("record_id IN ?", recordIDs).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("approval: load siblings: %w", err)
	}
	return tasks, nil
}

// FilterActive drops dormant tasks from candidates. Gating looks at the
// whole sibling set of each record, not only the candidates.
func FilterActive(db *gorm.DB, cat *stage.Catalog, candidates []models.ApprovalTask) ([]models.ApprovalTask, error) {
	seen := make(map[string]bool)
	var recordIDs []string
	for _, t := range candidates {
		if t.RecordID != nil && !seen[*t.RecordID] {
			seen[*t.RecordID] = true
			recordIDs = append(recordIDs, *t.RecordID)
		}
	}
	siblings, err := loadSiblings(db, recordIDs)
	if err != nil {
		return nil, err
	}
	active := ActiveSet(siblings, cat.OrderMap())

	out := candidates[:0]
	for _, t := range candidates {
		if t.RecordID == nil || active[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}
