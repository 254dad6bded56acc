// Package record is the minimal record lifecycle around the approval
// workflow: creating a record that enters review generates its tasks.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOpts holds the fields of a new record. ApprovalStatus defaults to
// pending.
type CreateOpts struct {
	ID             string     `json:"id"`
	SubjectName    string     `json:"subject_name"`
	SubjectGroup   string     `json:"subject_group"`
	EntryDate      *time.Time `json:"entry_date"`
	ContractStart  *time.Time `json:"contract_start"`
	ApprovalStatus string     `json:"approval_status"`
}

// Create stores a record. A record entering review (pending or
// in_progress) gets its approval tasks generated and its state recomputed
// in the same transaction; an approved record is stamped complete.
func Create(db *gorm.DB, cat *stage.Catalog, opts CreateOpts, gen approval.GenerateOpts) (*models.Record, []models.ApprovalTask, error) {
	opts.SubjectName = strings.TrimSpace(opts.SubjectName)
	if opts.SubjectName == "" {
		return nil, nil, errs.Validation("subject_name is required")
	}
	status := opts.ApprovalStatus
	if status == "" {
		status = string(approval.OverallPending)
	}
	switch approval.OverallState(status) {
	case approval.OverallPending, approval.OverallInProgress, approval.OverallApproved, approval.OverallReturned:
	default:
		return nil, nil, errs.Validation("approval_status %q is not one of pending, in_progress, approved, returned", status)
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	rec := models.Record{
		ID:             id,
		SubjectName:    opts.SubjectName,
		SubjectGroup:   strings.TrimSpace(opts.SubjectGroup),
		EntryDate:      opts.EntryDate,
		ContractStart:  opts.ContractStart,
		ApprovalStatus: status,
	}
	if status == string(approval.OverallApproved) {
		at := time.Now()
		rec.ApprovalCompletedAt = &at
	}

	var tasks []models.ApprovalTask
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("record: create: %w", err)
		}
		if status != string(approval.OverallPending) && status != string(approval.OverallInProgress) {
			return nil
		}
		var err error
		tasks, err = approval.GenerateTx(tx, cat, approval.RecordInfo{
			ID:            rec.ID,
			SubjectName:   rec.SubjectName,
			SubjectGroup:  rec.SubjectGroup,
			EntryDate:     rec.EntryDate,
			ContractStart: rec.ContractStart,
		}, gen)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		state, err := approval.Recompute(tx, cat, rec.ID)
		if err != nil {
			return err
		}
		rec.ApprovalStatus = string(state)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &rec, tasks, nil
}

// Get returns a record by ID.
func Get(db *gorm.DB, id string) (*models.Record, error) {
	var rec models.Record
	err := db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("record %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("record: get %s: %w", id, err)
	}
	return &rec, nil
}

// Delete removes a record. Its approval tasks are kept for audit, detached
// from the record.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Record{})
		if result.Error != nil {
			return fmt.Errorf("record: delete %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return errs.NotFound("record %s not found", id)
		}
		if err := tx.Model(&models.ApprovalTask{}).Where("record_id = ?", id).
			Update("record_id", nil).Error; err != nil {
			return fmt.Errorf("record: detach tasks of %s: %w", id, err)
		}
		return nil
	})
}
