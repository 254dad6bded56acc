package approval

import (
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerateOpts tunes task generation.
type GenerateOpts struct {
	// DefaultSLADays replaces a stage SLA that is zero or negative.
	// Zero means DefaultSLADays.
	DefaultSLADays int
}

// Generate creates one task per active stage for rec, with checklist items
// and a "created" history entry, in a single transaction. It is a no-op
// returning nil when any task already references rec.ID.
func Generate(db *gorm.DB, cat *stage.Catalog, rec RecordInfo, opts GenerateOpts) ([]models.ApprovalTask, error) {
	if rec.ID == "" {
		return nil, errs.Validation("record id is required")
	}
	var tasks []models.ApprovalTask
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		tasks, err = generate(tx, cat, rec, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GenerateTx is Generate inside a caller-owned transaction.
func GenerateTx(tx *gorm.DB, cat *stage.Catalog, rec RecordInfo, opts GenerateOpts) ([]models.ApprovalTask, error) {
	if rec.ID == "" {
		return nil, errs.Validation("record id is required")
	}
	return generate(tx, cat, rec, opts)
}

func generate(tx *gorm.DB, cat *stage.Catalog, rec RecordInfo, opts GenerateOpts) ([]models.ApprovalTask, error) {
	var existing int64
	if err := tx.Model(&models.ApprovalTask{}).Where("record_id = ?", rec.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("approval: generate: check existing: %w", err)
	}
	if existing > 0 {
		return nil, nil
	}

	stages := cat.Active()
	if len(stages) == 0 {
		return nil, nil
	}

	names, err := directory.Names(tx, stageUserIDs(stages))
	if err != nil {
		return nil, fmt.Errorf("approval: generate: %w", err)
	}

	floor := opts.DefaultSLADays
	if floor <= 0 {
		floor = DefaultSLADays
	}
	base := baseDate(rec)
	created := now()
	recordID := rec.ID

	tasks := make([]models.ApprovalTask, 0, len(stages))
	for _, st := range stages {
		sla := st.SLADays
		if sla <= 0 {
			sla = floor
		}

		owner := ""
		if st.OwnerID != nil {
			owner = names[*st.OwnerID]
		}
		assignees := assigneeList(owner, st.AssistantIDs, names)
		if owner == "" {
			owner = UnassignedOwner
		}

		task := models.ApprovalTask{
			ID:           uuid.NewString(),
			RecordID:     &recordID,
			SubjectName:  rec.SubjectName,
			SubjectGroup: rec.SubjectGroup,
			StageKey:     st.Key,
			Status:       StatusPending,
			Priority:     PriorityMedium,
			Owner:        owner,
			DueDate:      base.AddDate(0, 0, sla),
			Remarks:      st.Description,
			Assignees:    assignees,
			History: []models.HistoryEntry{{
				Action:    ActionCreated,
				Operator:  SystemOperator,
				Comment:   "Task generated from the workflow configuration",
				CreatedAt: created,
			}},
		}
		for i, label := range st.Checklist {
			task.CheckItems = append(task.CheckItems, models.CheckItem{Label: label, SortOrder: i})
		}
		if err := tx.Create(&task).Error; err != nil {
			return nil, fmt.Errorf("approval: generate: create %s task: %w", st.Key, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// baseDate prefers the entry date, then the contract start, then today.
func baseDate(rec RecordInfo) time.Time {
	switch {
	case rec.EntryDate != nil:
		return dateOnly(*rec.EntryDate)
	case rec.ContractStart != nil:
		return dateOnly(*rec.ContractStart)
	default:
		return dateOnly(now())
	}
}

func stageUserIDs(stages []models.Stage) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, st := range stages {
		if st.OwnerID != nil {
			add(*st.OwnerID)
		}
		for _, id := range st.AssistantIDs {
			add(id)
		}
	}
	return ids
}

// assigneeList is the owner followed by resolved assistants, without
// duplicates. Assistants missing from the directory are dropped.
func assigneeList(owner string, assistantIDs []string, names map[string]string) []models.TaskAssignee {
	var out []models.TaskAssignee
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, models.TaskAssignee{Identity: name, Position: len(out)})
	}
	add(owner)
	for _, id := range assistantIDs {
		add(names[id])
	}
	return out
}
