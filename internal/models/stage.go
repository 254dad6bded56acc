package models

import "time"

// Stage is one ordered step of the approval pipeline.
type Stage struct {
	Key          string             `gorm:"primaryKey;size:50;column:stage_key"`
	Name         string             `gorm:"size:100;not null"`
	Description  string             `gorm:"size:255"`
	OrderIndex   int                `gorm:"not null;index"`
	OwnerID      *string            `gorm:"size:36"`
	AssistantIDs []string           `gorm:"type:text;serializer:json"`
	SLADays      int                `gorm:"default:0"`
	SLAText      string             `gorm:"size:100"`
	Checklist    []string           `gorm:"type:text;serializer:json"`
	Reminders    []ReminderTemplate `gorm:"type:text;serializer:json"`
	IsActive     bool               `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReminderTemplate describes a reminder fired relative to a task's due date.
type ReminderTemplate struct {
	Label      string   `json:"label" yaml:"label"`
	OffsetDays int      `json:"offset_days" yaml:"offset_days"`
	Channels   []string `json:"channels" yaml:"channels"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}
