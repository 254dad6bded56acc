package server

import (
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
)

const dateLayout = "2006-01-02"

// TaskView is the JSON shape of an approval task.
type TaskView struct {
	ID           string          `json:"id"`
	RecordID     *string         `json:"record_id"`
	SubjectName  string          `json:"subject_name"`
	SubjectGroup string          `json:"subject_group"`
	Stage        string          `json:"stage"`
	StageName    string          `json:"stage_name"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	Owner        string          `json:"owner"`
	Assignees    []string        `json:"assignees"`
	DueDate      string          `json:"due_date"`
	Remarks      string          `json:"remarks,omitempty"`
	LatestAction string          `json:"latest_action,omitempty"`
	CanOperate   bool            `json:"can_operate"`
	Checklist    []CheckItemView `json:"checklist"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CheckItemView is one checklist entry of a task.
type CheckItemView struct {
	ID        uint   `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// HistoryView is one history entry of a task.
type HistoryView struct {
	Action    string    `json:"action"`
	Operator  string    `json:"operator"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StageView is the JSON shape of a stage definition.
type StageView struct {
	Key          string                    `json:"key"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description,omitempty"`
	OrderIndex   int                       `json:"order_index"`
	OwnerID      *string                   `json:"owner_id"`
	AssistantIDs []string                  `json:"assistants"`
	SLADays      int                       `json:"sla_days"`
	SLAText      string                    `json:"sla_text,omitempty"`
	Checklist    []string                  `json:"checklist"`
	Reminders    []models.ReminderTemplate `json:"reminders"`
	IsActive     bool                      `json:"is_active"`
}

// UserView is a directory user eligible for stage assignment.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Display  string `json:"display_name"`
}

// RecordView is the JSON shape of a record.
type RecordView struct {
	ID                  string     `json:"id"`
	SubjectName         string     `json:"subject_name"`
	SubjectGroup        string     `json:"subject_group"`
	EntryDate           *string    `json:"entry_date"`
	ContractStart       *string    `json:"contract_start"`
	ApprovalStatus      string     `json:"approval_status"`
	ApprovalCompletedAt *time.Time `json:"approval_completed_at"`
}

// NotificationView is the JSON shape of a notification.
type NotificationView struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	LinkURL   string    `json:"link_url,omitempty"`
	IsRead    bool      `json:"is_read"`
	RecordID  *string   `json:"record_id,omitempty"`
	TaskID    *string   `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func taskView(t *models.ApprovalTask, cat *stage.Catalog, actor approval.Actor) TaskView {
	v := TaskView{
		ID:           t.ID,
		RecordID:     t.RecordID,
		SubjectName:  t.SubjectName,
		SubjectGroup: t.SubjectGroup,
		Stage:        t.StageKey,
		StageName:    t.StageKey,
		Status:       t.Status,
		Priority:     t.Priority,
		Owner:        t.Owner,
		Assignees:    t.AssigneeNames(),
		DueDate:      t.DueDate.Format(dateLayout),
		Remarks:      t.Remarks,
		LatestAction: t.LatestAction,
		CanOperate:   approval.CanOperate(t, actor),
		Checklist:    make([]CheckItemView, 0, len(t.CheckItems)),
		UpdatedAt:    t.UpdatedAt,
	}
	if st, ok := cat.Get(t.StageKey); ok {
		v.StageName = st.Name
	}
	for _, ci := range t.CheckItems {
		v.Checklist = append(v.Checklist, CheckItemView{ID: ci.ID, Label: ci.Label, Completed: ci.Completed})
	}
	return v
}

func taskViews(tasks []models.ApprovalTask, cat *stage.Catalog, actor approval.Actor) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskView(&tasks[i], cat, actor))
	}
	return out
}

func historyViews(entries []models.HistoryEntry) []HistoryView {
	out := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryView{Action: e.Action, Operator: e.Operator, Comment: e.Comment, CreatedAt: e.CreatedAt})
	}
	return out
}

func stageViews(stages []models.Stage) []StageView {
	out := make([]StageView, 0, len(stages))
	for _, s := range stages {
		out = append(out, StageView{
			Key:          s.Key,
			Name:         s.Name,
			Description:  s.Description,
			OrderIndex:   s.OrderIndex,
			OwnerID:      s.OwnerID,
			AssistantIDs: nonNil(s.AssistantIDs),
			SLADays:      s.SLADays,
			SLAText:      s.SLAText,
			Checklist:    nonNil(s.Checklist),
			Reminders:    s.Reminders,
			IsActive:     s.IsActive,
		})
	}
	return out
}

func userViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, UserView{ID: u.ID, Username: u.Username, FullName: u.FullName, Display: u.DisplayName()})
	}
	return out
}

func recordView(r *models.Record) RecordView {
	return RecordView{
		ID:                  r.ID,
		SubjectName:         r.SubjectName,
		SubjectGroup:        r.SubjectGroup,
		EntryDate:           formatDate(r.EntryDate),
		ContractStart:       formatDate(r.ContractStart),
		ApprovalStatus:      r.ApprovalStatus,
		ApprovalCompletedAt: r.ApprovalCompletedAt,
	}
}

func notificationViews(ns []models.Notification) []NotificationView {
	out := make([]NotificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			LinkURL:   n.LinkURL,
			IsRead:    n.IsRead,
			RecordID:  n.RelatedRecordID,
			TaskID:    n.RelatedTaskID,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
