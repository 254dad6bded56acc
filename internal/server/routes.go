package server

import (
	"net/http"

	"github.com/Chatblanccc/PersonnelManagement/internal/auth"
	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, a *api, secret []byte) {
	router.GET("/healthz", a.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api", auth.Middleware(secret))

	audit := apiGroup.Group("", auth.RequirePermission(directory.PermAudit))
	audit.GET("/approvals/tasks", a.handleListTasks)
	audit.POST("/approvals/tasks/send-reminder", a.handleSendReminder)
	audit.POST("/approvals/tasks/:id/approve", a.handleApprove)
	audit.POST("/approvals/tasks/:id/return", a.handleReturn)
	audit.GET("/approvals/tasks/:id/history", a.handleHistory)
	audit.DELETE("/approvals/tasks/:id", a.handleDeleteTask)
	audit.DELETE("/approvals/tasks/batch/by-record/:record_id", a.handleDeleteByRecord)
	audit.DELETE("/approvals/tasks/batch/by-subject", a.handleDeleteBySubject)
	audit.GET("/approvals/stats/overview", a.handleOverview)
	audit.GET("/approvals/stats/stages", a.handleStageStats)
	audit.POST("/records", a.handleCreateRecord)
	audit.GET("/records/:id", a.handleGetRecord)
	audit.DELETE("/records/:id", a.handleDeleteRecord)

	settings := apiGroup.Group("/settings", auth.RequirePermission(directory.PermSettings))
	settings.GET("/workflow", a.handleGetWorkflow)
	settings.PUT("/workflow", a.handleUpdateWorkflow)

	apiGroup.GET("/notifications", a.handleInbox)
	apiGroup.POST("/notifications/:id/read", a.handleMarkRead)
	apiGroup.GET("/notifications/stream", a.handleNotificationStream)
}

func (a *api) handleHealth(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
