package server

import (
	"net/http"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/gin-gonic/gin"
)

// WorkflowConfigView is the administrative view of the stage pipeline.
type WorkflowConfigView struct {
	Stages         []StageView `json:"stages"`
	AvailableUsers []UserView  `json:"available_users"`
}

type workflowUpdateRequest struct {
	Stages []stage.UpdateOpts `json:"stages"`
}

func (a *api) handleGetWorkflow(c *gin.Context) {
	a.writeWorkflow(c)
}

func (a *api) handleUpdateWorkflow(c *gin.Context) {
	var req workflowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, errs.Validation("invalid request body: %v", err))
		return
	}
	if err := stage.Update(a.db.WithContext(c.Request.Context()), req.Stages); err != nil {
		a.fail(c, err)
		return
	}
	a.writeWorkflow(c)
}

func (a *api) writeWorkflow(c *gin.Context) {
	view, err := stage.Config(a.db.WithContext(c.Request.Context()))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, WorkflowConfigView{
		Stages:         stageViews(view.Stages),
		AvailableUsers: userViews(view.AvailableUsers),
	})
}
