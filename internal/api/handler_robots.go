package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// ListRobots handles GET /api/robots.
func (h *Handler) ListRobots(c *gin.Context) {
	q := newQuery(c)
	f := store.RobotFilter{
		Model:    q.str("model"),
		Status:   enum[model.RobotStatus](q.str("status")),
		Location: q.str("location"),
		Serial:   q.str("serial"),
	}

	robots, err := h.svc.ListRobots(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// SearchRobots handles GET /api/robots/search?q=.
func (h *Handler) SearchRobots(c *gin.Context) {
	robots, err := h.svc.SearchRobots(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// RobotsByCapability handles GET /api/robots/by-capability/:capability.
func (h *Handler) RobotsByCapability(c *gin.Context) {
	robots, err := h.svc.RobotsByCapability(c.Request.Context(), c.Param("capability"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// GetRobotBySerial handles GET /api/robots/by-serial/:serial.
func (h *Handler) GetRobotBySerial(c *gin.Context) {
	robot, err := h.svc.GetRobotBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robot)
}

// RobotsWithHighTelemetryCount handles GET /api/robots/high-telemetry?min=.
func (h *Handler) RobotsWithHighTelemetryCount(c *gin.Context) {
	q := newQuery(c)
	min := q.int("min")
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	robots, err := h.svc.RobotsWithHighTelemetryCount(c.Request.Context(), min)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// RobotsSortedByCapabilityCount handles GET /api/robots/sorted-by-capabilities.
func (h *Handler) RobotsSortedByCapabilityCount(c *gin.Context) {
	q := newQuery(c)
	reverse := q.bool("reverse")
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	robots, err := h.svc.RobotsSortedByCapabilityCount(c.Request.Context(), reverse != nil && *reverse)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// RobotsWithRecentActivity handles GET /api/robots/recent-activity?hours=.
func (h *Handler) RobotsWithRecentActivity(c *gin.Context) {
	q := newQuery(c)
	hours := q.int("hours")
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	robots, err := h.svc.RobotsWithRecentActivity(c.Request.Context(), hours)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robots)
}

// RobotStatistics handles GET /api/robots/statistics.
func (h *Handler) RobotStatistics(c *gin.Context) {
	stats, err := h.svc.RobotStatistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetRobot handles GET /api/robots/:id.
func (h *Handler) GetRobot(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	robot, err := h.svc.GetRobot(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robot)
}

// GetRobotDetails handles GET /api/robots/:id/details.
func (h *Handler) GetRobotDetails(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	details, err := h.svc.RobotWithDetails(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// CreateRobot handles POST /api/robots.
func (h *Handler) CreateRobot(c *gin.Context) {
	var in fleet.CreateRobotInput
	if !h.bindJSON(c, &in) {
		return
	}

	robot, err := h.svc.CreateRobot(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, robot)
}

// UpdateRobot handles PATCH /api/robots/:id.
func (h *Handler) UpdateRobot(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in fleet.UpdateRobotInput
	if !h.bindJSON(c, &in) {
		return
	}

	robot, err := h.svc.UpdateRobot(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, robot)
}

// DeleteRobot handles DELETE /api/robots/:id.
func (h *Handler) DeleteRobot(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.svc.DeleteRobot(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	deleted(c)
}

type bulkStatusRequest struct {
	IDs    []string          `json:"ids" binding:"required"`
	Status model.RobotStatus `json:"status" binding:"required"`
}

// BulkUpdateRobotStatuses handles POST /api/robots/bulk-status.
func (h *Handler) BulkUpdateRobotStatuses(c *gin.Context) {
	var req bulkStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.svc.BulkUpdateRobotStatuses(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type fromTemplatesRequest struct {
	Templates      []fleet.RobotTemplate `json:"templates" binding:"required"`
	LocationPrefix string                `json:"locationPrefix"`
}

// CreateRobotsFromTemplates handles POST /api/robots/from-templates.
func (h *Handler) CreateRobotsFromTemplates(c *gin.Context) {
	var req fromTemplatesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	robots, err := h.svc.CreateRobotsFromTemplates(c.Request.Context(), req.Templates, req.LocationPrefix)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, robots)
}
