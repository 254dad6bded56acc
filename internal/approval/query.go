package approval

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/gorm"
)

// Paging defaults for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// ListFilters narrows task listing. Status and Stage match exactly, with ""
// or "all" meaning no filter. Keyword is a case-insensitive substring of
// subject name, subject group or owner. Identity, when set, limits results
// to tasks it owns or is assigned to. IncludeDormant skips gating, for the
// all-stages management view.
type ListFilters struct {
	Status         string
	Stage          string
	Keyword        string
	Identity       string
	IncludeDormant bool
}

// scope applies the store-level filters.
func scope(db *gorm.DB, f ListFilters) *gorm.DB {
	q := db.Model(&models.ApprovalTask{})
	if f.Status != "" && f.Status != "all" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Stage != "" && f.Stage != "all" {
		q = q.Where("stage_key = ?", f.Stage)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		q = q.Where("(LOWER(subject_name) LIKE ? OR LOWER(subject_group) LIKE ? OR LOWER(owner) LIKE ?)", like, like, like)
	}
	if f.Identity != "" {
		q = q.Where("(owner = ? OR id IN (?))", f.Identity,
			db.Model(&models.TaskAssignee{}).Select("task_id").Where("identity = ?", f.Identity))
	}
	return q
}

// candidates returns the filtered tasks, with dormant ones dropped unless
// f.IncludeDormant is set.
func candidates(db *gorm.DB, cat *stage.Catalog, f ListFilters) ([]models.ApprovalTask, error) {
	var tasks []models.ApprovalTask
	if err := scope(db, f).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("approval: query tasks: %w", err)
	}
	if f.IncludeDormant {
		return tasks, nil
	}
	return FilterActive(db, cat, tasks)
}

// List returns one page of filtered, active tasks sorted by due date then
// priority (high first), and the total number of such tasks. Pages start
// at 1.
func List(db *gorm.DB, cat *stage.Catalog, f ListFilters, page, pageSize int) ([]models.ApprovalTask, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	tasks, err := candidates(db, cat, f)
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return priorityRank(a.Priority) > priorityRank(b.Priority)
	})

	total := int64(len(tasks))
	start := (page - 1) * pageSize
	if start >= len(tasks) {
		return []models.ApprovalTask{}, total, nil
	}
	end := start + pageSize
	if end > len(tasks) {
		end = len(tasks)
	}
	pageTasks := tasks[start:end]
	if err := attachDetails(db, pageTasks); err != nil {
		return nil, 0, err
	}
	return pageTasks, total, nil
}

// attachDetails loads assignees and checklist items for tasks in two queries.
func attachDetails(db *gorm.DB, tasks []models.ApprovalTask) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	pos := make(map[string]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		pos[tasks[i].ID] = i
	}

	var assignees []models.TaskAssignee
	if err := db.Where("task_id IN ?", ids).Order("position ASC").Find(&assignees).Error; err != nil {
		return fmt.Errorf("approval: load assignees: %w", err)
	}
	for _, a := range assignees {
		t := &tasks[pos[a.TaskID]]
		t.Assignees = append(t.Assignees, a)
	}

	var items []models.CheckItem
	if err := db.Where("task_id IN ?", ids).Order("sort_order ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("approval: load check items: %w", err)
	}
	for _, it := range items {
		t := &tasks[pos[it.TaskID]]
		t.CheckItems = append(t.CheckItems, it)
	}
	return nil
}

// ForRecord returns every task of a record in stage order, with details.
// Tasks whose stage is not in the catalog sort last.
func ForRecord(db *gorm.DB, cat *stage.Catalog, recordID string) ([]models.ApprovalTask, error) {
	var tasks []models.ApprovalTask
	if err := db.Where("record_id = ?", recordID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("approval: tasks of record %s: %w", recordID, err)
	}
	rank := func(key string) int {
		if st, ok := cat.Get(key); ok {
			return st.OrderIndex
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := rank(tasks[i].StageKey), rank(tasks[j].StageKey)
		if ri != rj {
			return ri < rj
		}
		return tasks[i].StageKey < tasks[j].StageKey
	})
	if err := attachDetails(db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns a task with its assignees and checklist.
func Get(db *gorm.DB, taskID string) (*models.ApprovalTask, error) {
	var task models.ApprovalTask
	err := db.Preload("Assignees", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Preload("CheckItems", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order ASC") }).
		First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("task %s not found", taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("approval: get task %s: %w", taskID, err)
	}
	return &task, nil
}

// Counts is the number of active tasks per status.
type Counts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Returned   int `json:"returned"`
}

// Overview counts active tasks by status, scoped to identity when set.
func Overview(db *gorm.DB, cat *stage.Catalog, identity string) (Counts, error) {
	tasks, err := candidates(db, cat, ListFilters{Identity: identity})
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			c.Pending++
		case StatusInProgress:
			c.InProgress++
		case StatusCompleted:
			c.Completed++
		case StatusReturned:
			c.Returned++
		}
	}
	return c, nil
}

// StageCount summarises the active tasks of one stage.
type StageCount struct {
	Stage     string `json:"stage"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

// StageSummary counts active tasks per stage, scoped to identity when set.
// A task is overdue when its due date is before today's date. Stages are
// returned in catalog order; stages missing from the catalog sort last.
func StageSummary(db *gorm.DB, cat *stage.Catalog, identity string, today time.Time) ([]StageCount, error) {
	tasks, err := candidates(db, cat, ListFilters{Identity: identity})
	if err != nil {
		return nil, err
	}
	day := dateOnly(today)

	byStage := make(map[string]*StageCount)
	var keys []string
	for _, t := range tasks {
		sc, ok := byStage[t.StageKey]
		if !ok {
			sc = &StageCount{Stage: t.StageKey}
			byStage[t.StageKey] = sc
			keys = append(keys, t.StageKey)
		}
		sc.Total++
		switch t.Status {
		case StatusPending:
			sc.Pending++
		case StatusCompleted:
			sc.Completed++
		}
		if dateOnly(t.DueDate).Before(day) {
			sc.Overdue++
		}
	}

	rank := func(key string) int {
		if st, ok := cat.Get(key); ok {
			return st.OrderIndex
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	out := make([]StageCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byStage[k])
	}
	return out, nil
}

// History returns a task's history, newest first.
func History(db *gorm.DB, taskID string) ([]models.HistoryEntry, error) {
	var n int64
	if err := db.Model(&models.ApprovalTask{}).Where("id = ?", taskID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("approval: history %s: %w", taskID, err)
	}
	if n == 0 {
		return nil, errs.NotFound("task %s not found", taskID)
	}
	var entries []models.HistoryEntry
	if err := db.Where("task_id = ?", taskID).Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("approval: history %s: %w", taskID, err)
	}
	return entries, nil
}
