package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/store"
)

// ListTelemetry handles GET /api/telemetry. metric_names takes a comma
// separated list. Without a limit the configured default applies; limit=0
// returns every matching point.
func (h *Handler) ListTelemetry(c *gin.Context) {
	q := newQuery(c)
	f := store.TelemetryFilter{
		RobotID:     q.id("robot_id"),
		MetricName:  q.str("metric_name"),
		MetricNames: q.list("metric_names"),
		StartDate:   q.time("start_date"),
		EndDate:     q.time("end_date"),
		Limit:       q.int("limit"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	points, err := h.svc.ListTelemetry(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// TelemetryStatistics handles GET /api/telemetry/statistics.
func (h *Handler) TelemetryStatistics(c *gin.Context) {
	q := newQuery(c)
	query := fleet.TelemetryStatsQuery{
		RobotID:    q.id("robot_id"),
		MetricName: q.str("metric_name"),
		StartDate:  q.time("start_date"),
		EndDate:    q.time("end_date"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	stats, err := h.svc.TelemetryStatistics(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TelemetryAnomalies handles GET /api/telemetry/anomalies.
func (h *Handler) TelemetryAnomalies(c *gin.Context) {
	q := newQuery(c)
	query := fleet.AnomalyQuery{
		RobotID:             q.id("robot_id"),
		MetricName:          q.str("metric_name"),
		ThresholdMultiplier: q.float("threshold_multiplier"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	points, err := h.svc.TelemetryAnomalies(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

type cleanupRequest struct {
	DaysToKeep  *int     `json:"daysToKeep"`
	MetricNames []string `json:"metricNames"`
}

// CleanupOldTelemetry handles POST /api/telemetry/cleanup.
func (h *Handler) CleanupOldTelemetry(c *gin.Context) {
	var req cleanupRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	n, err := h.svc.CleanupOldTelemetry(c.Request.Context(), req.DaysToKeep, req.MetricNames)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GetTelemetryPoint handles GET /api/telemetry/:id.
func (h *Handler) GetTelemetryPoint(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	point, err := h.svc.GetTelemetryPoint(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// CreateTelemetryPoint handles POST /api/telemetry.
func (h *Handler) CreateTelemetryPoint(c *gin.Context) {
	var in fleet.CreateTelemetryInput
	if !h.bindJSON(c, &in) {
		return
	}

	point, err := h.svc.CreateTelemetryPoint(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, point)
}

// UpdateTelemetryPoint handles PATCH /api/telemetry/:id.
func (h *Handler) UpdateTelemetryPoint(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in fleet.UpdateTelemetryInput
	if !h.bindJSON(c, &in) {
		return
	}

	point, err := h.svc.UpdateTelemetryPoint(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, point)
}

// DeleteTelemetryPoint handles DELETE /api/telemetry/:id.
func (h *Handler) DeleteTelemetryPoint(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.svc.DeleteTelemetryPoint(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	deleted(c)
}
