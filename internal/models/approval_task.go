package models

import "time"

// ApprovalTask is the per-record, per-stage unit of review work.
type ApprovalTask struct {
	ID           string    `gorm:"primaryKey;size:36"`
	RecordID     *string   `gorm:"size:36;uniqueIndex:idx_record_stage"`
	SubjectName  string    `gorm:"size:100;not null;index:idx_subject"`
	SubjectGroup string    `gorm:"size:100;not null;index:idx_subject"`
	StageKey     string    `gorm:"size:50;not null;index;uniqueIndex:idx_record_stage"`
	Status       string    `gorm:"size:30;not null;default:pending;index"`
	Priority     string    `gorm:"size:20;not null;default:medium"`
	Owner        string    `gorm:"size:100;not null;index"`
	DueDate      time.Time `gorm:"type:date;not null"`
	Remarks      string    `gorm:"type:text"`
	LatestAction string    `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Assignees  []TaskAssignee `gorm:"foreignKey:TaskID"`
	CheckItems []CheckItem    `gorm:"foreignKey:TaskID"`
	History    []HistoryEntry `gorm:"foreignKey:TaskID"`
}

// AssigneeNames returns the assignee identities in their stored order.
func (t *ApprovalTask) AssigneeNames() []string {
	names := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		names = append(names, a.Identity)
	}
	return names
}

// TaskAssignee links a task to one display identity allowed to act on it.
// Membership is an exact match on Identity, never a substring test.
type TaskAssignee struct {
	TaskID   string `gorm:"primaryKey;size:36"`
	Identity string `gorm:"primaryKey;size:100;index"`
	Position int
}

// CheckItem is a sub-requirement of a task, bulk-completed on approval.
type CheckItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    string `gorm:"size:36;not null;index"`
	Label     string `gorm:"size:150;not null"`
	Completed bool   `gorm:"not null"`
	SortOrder int    `gorm:"not null"`
}

// HistoryEntry is an append-only record of an action taken on a task.
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TaskID    string    `gorm:"size:36;not null;index"`
	Action    string    `gorm:"size:80;not null"`
	Operator  string    `gorm:"size:100;not null"`
	Comment   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}
