package server

import (
	"net/http"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/auth"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/record"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createRecordRequest struct {
	ID             string `json:"id"`
	SubjectName    string `json:"subject_name"`
	SubjectGroup   string `json:"subject_group"`
	EntryDate      string `json:"entry_date"`
	ContractStart  string `json:"contract_start"`
	ApprovalStatus string `json:"approval_status"`
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errs.Validation("%s must be a YYYY-MM-DD date", field)
	}
	return &t, nil
}

func (a *api) handleCreateRecord(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, errs.Validation("invalid request body: %v", err))
		return
	}
	entry, err := parseDate("entry_date", req.EntryDate)
	if err != nil {
		a.fail(c, err)
		return
	}
	start, err := parseDate("contract_start", req.ContractStart)
	if err != nil {
		a.fail(c, err)
		return
	}
	cat, ok := a.catalog(c)
	if !ok {
		return
	}

	rec, tasks, err := record.Create(a.db.WithContext(c.Request.Context()), cat, record.CreateOpts{
		ID:             req.ID,
		SubjectName:    req.SubjectName,
		SubjectGroup:   req.SubjectGroup,
		EntryDate:      entry,
		ContractStart:  start,
		ApprovalStatus: req.ApprovalStatus,
	}, a.gen)
	if err != nil {
		a.fail(c, err)
		return
	}
	metrics.TasksGenerated.Add(float64(len(tasks)))
	a.log.Info("record created", zap.String("record", rec.ID), zap.Int("tasks", len(tasks)))

	c.JSON(http.StatusCreated, gin.H{
		"record": recordView(rec),
		"tasks":  taskViews(tasks, cat, auth.FromContext(c).Actor()),
	})
}

func (a *api) handleGetRecord(c *gin.Context) {
	rec, err := record.Get(a.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recordView(rec))
}

// handleDeleteRecord removes a record and detaches its tasks. Only elevated
// actors may delete records.
func (a *api) handleDeleteRecord(c *gin.Context) {
	if !auth.FromContext(c).Actor().Elevated {
		a.fail(c, errs.Forbidden("deleting a record requires elevated privileges"))
		return
	}
	id := c.Param("id")
	if err := record.Delete(a.db.WithContext(c.Request.Context()), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "record deleted", "record_id": id})
}
