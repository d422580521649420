package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// ListMaintenanceEvents handles GET /api/maintenance-events.
func (h *Handler) ListMaintenanceEvents(c *gin.Context) {
	q := newQuery(c)
	f := store.MaintenanceFilter{
		RobotID:   q.id("robot_id"),
		Type:      enum[model.MaintenanceType](q.str("type")),
		StartDate: q.time("start_date"),
		EndDate:   q.time("end_date"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	events, err := h.svc.ListMaintenanceEvents(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetMaintenanceEvent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	event, err := h.svc.GetMaintenanceEvent(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) CreateMaintenanceEvent(c *gin.Context) {
	var in fleet.CreateMaintenanceInput
	if !h.bindJSON(c, &in) {
		return
	}

	event, err := h.svc.CreateMaintenanceEvent(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handler) UpdateMaintenanceEvent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in fleet.UpdateMaintenanceInput
	if !h.bindJSON(c, &in) {
		return
	}

	event, err := h.svc.UpdateMaintenanceEvent(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) DeleteMaintenanceEvent(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.svc.DeleteMaintenanceEvent(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	deleted(c)
}
