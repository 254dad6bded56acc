// Package approval is the workflow core: it generates per-stage tasks for a
// record, evaluates predecessor gating, aggregates task states into the
// record's approval state, and applies approve/return transitions.
package approval

import (
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusReturned   = "returned"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// History actions and operators.
const (
	ActionCreated  = "created"
	ActionApproved = "approved"
	ActionReturned = "returned"

	SystemOperator = "system"
)

// UnassignedOwner is the owner of tasks generated from a stage with no owner.
const UnassignedOwner = "unassigned"

// DefaultSLADays is the due-date offset for stages without a positive SLA.
const DefaultSLADays = 5

// OverallState is the record-level approval state derived from its tasks.
type OverallState string

const (
	OverallPending    OverallState = "pending"
	OverallInProgress OverallState = "in_progress"
	OverallReturned   OverallState = "returned"
	OverallApproved   OverallState = "approved"
)

// Actor is the identity performing an action: its display name and whether
// it holds the elevated override privilege.
type Actor struct {
	Name     string
	Elevated bool
}

// RecordInfo carries the record attributes task generation needs.
type RecordInfo struct {
	ID            string
	SubjectName   string
	SubjectGroup  string
	EntryDate     *time.Time
	ContractStart *time.Time
}

var openStatuses = []string{StatusPending, StatusInProgress}

// now is replaced in tests.
var now = time.Now

// dateOnly truncates t to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CanOperate reports whether actor may act on task: the owner, any
// assignee, or an elevated actor. Assignee membership is an exact match.
func CanOperate(task *models.ApprovalTask, actor Actor) bool {
	if actor.Elevated {
		return true
	}
	if actor.Name == "" {
		return false
	}
	if task.Owner == actor.Name {
		return true
	}
	for _, a := range task.Assignees {
		if a.Identity == actor.Name {
			return true
		}
	}
	return false
}

func isTerminal(status string) bool {
	return status == StatusCompleted || status == StatusReturned
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}
