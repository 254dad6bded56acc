package models

import "time"

// Notification is a message addressed to one directory user. Delivery is
// left to whatever consumes undelivered rows.
type Notification struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	UserID          string `gorm:"size:36;not null;index"`
	Type            string `gorm:"size:50;not null"`
	Title           string `gorm:"size:200;not null"`
	Content         string `gorm:"type:text"`
	LinkURL         string `gorm:"size:255"`
	IsRead          bool   `gorm:"not null;index"`
	ReadAt          *time.Time
	RelatedRecordID *string    `gorm:"size:36"`
	RelatedTaskID   *string    `gorm:"size:36"`
	DeliveredAt     *time.Time `gorm:"index"`
	CreatedAt       time.Time  `gorm:"index"`
}

// ReminderLog marks a stage reminder template as fired for a task on a day.
type ReminderLog struct {
	TaskID    string    `gorm:"primaryKey;size:36"`
	Label     string    `gorm:"primaryKey;size:150"`
	FireDate  time.Time `gorm:"primaryKey;type:date"`
	CreatedAt time.Time
}
