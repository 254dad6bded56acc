package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/auth"
	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stream polling intervals; tests shorten them.
var (
	streamPoll      = 3 * time.Second
	streamHeartbeat = 15 * time.Second
)

// userID returns the directory user behind the request: the token subject,
// or the user whose name matches the acting identity.
func (a *api) userID(c *gin.Context) (string, error) {
	claims := auth.FromContext(c)
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	u, err := directory.Resolve(a.db.WithContext(c.Request.Context()), claims.Identity())
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", errs.NotFound("no directory user for %q", claims.Identity())
	}
	return u.ID, nil
}

func (a *api) handleInbox(c *gin.Context) {
	unread, err := queryBool(c, "unread", false)
	if err != nil {
		a.fail(c, err)
		return
	}
	uid, err := a.userID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	ns, err := notify.Inbox(a.db.WithContext(c.Request.Context()), uid, unread)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notificationViews(ns))
}

func (a *api) handleMarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		a.fail(c, errs.Validation("notification id must be numeric"))
		return
	}
	uid, err := a.userID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := notify.MarkRead(a.db.WithContext(c.Request.Context()), uid, uint(id)); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

// unreadEvent announces the newest unread notification and the unread total.
type unreadEvent struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Link   string `json:"link_url,omitempty"`
	Unread int64  `json:"unread"`
}

// handleNotificationStream pushes an event whenever the caller receives a
// new notification, with periodic heartbeats.
func (a *api) handleNotificationStream(c *gin.Context) {
	uid, err := a.userID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	db := a.db.WithContext(ctx)

	// Only notifications after this one are announced.
	lastSeen, err := latestNotificationID(db, uid)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"user_id": uid})
	c.Writer.Flush()

	ticker := time.NewTicker(streamPoll)
	heartbeat := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			ev, err := pollNotifications(db, uid, lastSeen)
			if err != nil {
				a.log.Warn("notification stream poll failed", zap.String("user_id", uid), zap.Error(err))
				continue
			}
			if ev == nil {
				continue
			}
			lastSeen = ev.ID
			writeSSE(c.Writer, "notification", ev)
			c.Writer.Flush()
		}
	}
}

// latestNotificationID is the newest notification ID of uid, or 0.
func latestNotificationID(db *gorm.DB, uid string) (uint, error) {
	var latest models.Notification
	if err := db.Where("user_id = ?", uid).Order("id DESC").Limit(1).Find(&latest).Error; err != nil {
		return 0, fmt.Errorf("server: latest notification of %s: %w", uid, err)
	}
	return latest.ID, nil
}

// pollNotifications returns an event for the newest notification of uid
// after lastSeen, with the unread total, or nil when there is none.
func pollNotifications(db *gorm.DB, uid string, lastSeen uint) (*unreadEvent, error) {
	var fresh []models.Notification
	if err := db.Where("user_id = ? AND id > ?", uid, lastSeen).Order("id ASC").Find(&fresh).Error; err != nil {
		return nil, fmt.Errorf("server: poll notifications of %s: %w", uid, err)
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	newest := fresh[len(fresh)-1]

	var unread int64
	if err := db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", uid, false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("server: count unread of %s: %w", uid, err)
	}
	return &unreadEvent{
		ID:     newest.ID,
		Title:  newest.Title,
		Link:   newest.LinkURL,
		Unread: unread,
	}, nil
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
