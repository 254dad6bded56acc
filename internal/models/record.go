package models

import "time"

// Record is the employment record whose approval state the workflow drives.
// Only the fields the workflow reads or writes are modelled here.
type Record struct {
	ID                  string     `gorm:"primaryKey;size:36"`
	SubjectName         string     `gorm:"size:100;not null;index"`
	SubjectGroup        string     `gorm:"size:100"`
	EntryDate           *time.Time `gorm:"type:date"`
	ContractStart       *time.Time `gorm:"type:date"`
	ApprovalStatus      string     `gorm:"size:20;not null;default:pending;index"`
	ApprovalCompletedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
