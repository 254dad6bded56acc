package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/auth"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/reminder"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskPage is one page of the task listing.
type TaskPage struct {
	Data       []TaskView `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int64      `json:"total_pages"`
}

type actionRequest struct {
	Comment string `json:"comment"`
}

func (a *api) catalog(c *gin.Context) (*stage.Catalog, bool) {
	cat, err := stage.Load(a.db.WithContext(c.Request.Context()))
	if err != nil {
		a.fail(c, err)
		return nil, false
	}
	return cat, true
}

func (a *api) handleListTasks(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		a.fail(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", approval.DefaultPageSize)
	if err != nil {
		a.fail(c, err)
		return
	}
	byUser, err := queryBool(c, "filter_by_user", true)
	if err != nil {
		a.fail(c, err)
		return
	}
	dormant, err := queryBool(c, "include_dormant", false)
	if err != nil {
		a.fail(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = approval.DefaultPageSize
	}
	if pageSize > approval.MaxPageSize {
		pageSize = approval.MaxPageSize
	}
	cat, ok := a.catalog(c)
	if !ok {
		return
	}

	claims := auth.FromContext(c)
	f := approval.ListFilters{
		Status:         c.Query("status"),
		Stage:          c.Query("stage"),
		Keyword:        c.Query("keyword"),
		IncludeDormant: dormant,
	}
	if byUser {
		f.Identity = claims.Identity()
	}
	tasks, total, err := approval.List(a.db.WithContext(c.Request.Context()), cat, f, page, pageSize)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, TaskPage{
		Data:       taskViews(tasks, cat, claims.Actor()),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

func (a *api) handleApprove(c *gin.Context) {
	a.transition(c, approval.ActionApproved, approval.Approve)
}

func (a *api) handleReturn(c *gin.Context) {
	a.transition(c, approval.ActionReturned, approval.Return)
}

type transitionFunc func(db *gorm.DB, cat *stage.Catalog, taskID string, actor approval.Actor, comment string) (*models.ApprovalTask, error)

func (a *api) transition(c *gin.Context, action string, fn transitionFunc) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		a.fail(c, errs.Validation("invalid request body: %v", err))
		return
	}
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	actor := auth.FromContext(c).Actor()
	task, err := fn(a.db.WithContext(c.Request.Context()), cat, c.Param("id"), actor, req.Comment)
	metrics.TaskTransitions.WithLabelValues(action, metrics.Result(err)).Inc()
	if err != nil {
		a.fail(c, err)
		return
	}
	a.log.Info("task transition",
		zap.String("task", task.ID), zap.String("action", action), zap.String("operator", actor.Name))
	c.JSON(http.StatusOK, gin.H{"task": taskView(task, cat, actor)})
}

func (a *api) handleHistory(c *gin.Context) {
	entries, err := approval.History(a.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, historyViews(entries))
}

func (a *api) handleOverview(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	counts, err := approval.Overview(a.db.WithContext(c.Request.Context()), cat, auth.FromContext(c).Identity())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (a *api) handleStageStats(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	summary, err := approval.StageSummary(a.db.WithContext(c.Request.Context()), cat, auth.FromContext(c).Identity(), a.now())
	if err != nil {
		a.fail(c, err)
		return
	}
	if summary == nil {
		summary = []approval.StageCount{}
	}
	c.JSON(http.StatusOK, summary)
}

func (a *api) handleSendReminder(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	target := reminder.Target{
		RecordID:     c.Query("record_id"),
		SubjectName:  c.Query("subject_name"),
		SubjectGroup: c.Query("group"),
	}
	count, err := reminder.Send(a.db.WithContext(c.Request.Context()), cat, target, auth.FromContext(c).Identity(), a.remind)
	if err != nil {
		a.fail(c, err)
		return
	}
	if count == 0 {
		a.fail(c, errs.NotFound("no pending approval tasks or notifiable users for %s", target))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            fmt.Sprintf("sent %d reminder notifications", count),
		"notification_count": count,
	})
}

func (a *api) handleDeleteTask(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := approval.DeleteTask(a.db.WithContext(c.Request.Context()), cat, id, auth.FromContext(c).Actor()); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "approval task deleted", "task_id": id})
}

func (a *api) handleDeleteByRecord(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	recordID := c.Param("record_id")
	n, err := approval.DeleteByRecord(a.db.WithContext(c.Request.Context()), cat, recordID, auth.FromContext(c).Actor())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("deleted %d approval tasks", n),
		"deleted_count": n,
		"record_id":     recordID,
	})
}

func (a *api) handleDeleteBySubject(c *gin.Context) {
	cat, ok := a.catalog(c)
	if !ok {
		return
	}
	name, group := c.Query("subject_name"), c.Query("group")
	n, err := approval.DeleteBySubject(a.db.WithContext(c.Request.Context()), cat, name, group, auth.FromContext(c).Actor())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("deleted %d approval tasks", n),
		"deleted_count": n,
		"subject_name":  name,
		"group":         group,
	})
}
