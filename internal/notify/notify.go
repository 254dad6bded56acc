// Package notify stores notification records addressed to directory users.
// Delivery is out of scope: the relay or any other consumer reads
// undelivered rows and marks them delivered.
package notify

import (
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/gorm"
)

// Notification types.
const (
	TypeApprovalPending  = "approval_pending"
	TypeApprovalReminder = "approval_reminder"
)

// SendOpts holds optional parameters for a notification.
type SendOpts struct {
	Type     string // TypeApprovalPending (default)
	LinkURL  string
	RecordID *string
	TaskID   *string
}

// Send creates a notification for userID.
func Send(db *gorm.DB, userID, title, content string, opts SendOpts) (*models.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("notify: userID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("notify: title is required")
	}

	typ := opts.Type
	if typ == "" {
		typ = TypeApprovalPending
	}

	n := models.Notification{
		UserID:          userID,
		Type:            typ,
		Title:           title,
		Content:         content,
		LinkURL:         opts.LinkURL,
		RelatedRecordID: opts.RecordID,
		RelatedTaskID:   opts.TaskID,
		CreatedAt:       time.Now(),
	}
	if err := db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("notify: send: %w", err)
	}
	return &n, nil
}

// Inbox returns a user's notifications, newest first.
func Inbox(db *gorm.DB, userID string, unreadOnly bool) ([]models.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("notify: userID is required")
	}
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("notify: inbox %s: %w", userID, err)
	}
	return out, nil
}

// MarkRead marks one of userID's notifications as read.
func MarkRead(db *gorm.DB, userID string, id uint) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("notify: mark read %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("notification %d not found", id)
	}
	return nil
}

// Undelivered returns up to limit notifications no consumer has delivered
// yet, oldest first.
func Undelivered(db *gorm.DB, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := db.Where("delivered_at IS NULL").Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("notify: undelivered: %w", err)
	}
	return out, nil
}

// MarkDelivered stamps the given notifications as delivered at at.
func MarkDelivered(db *gorm.DB, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.Model(&models.Notification{}).Where("id IN ?", ids).
		Update("delivered_at", at).Error; err != nil {
		return fmt.Errorf("notify: mark delivered: %w", err)
	}
	return nil
}
