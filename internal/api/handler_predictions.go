package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// ListPredictions handles GET /api/predictions.
func (h *Handler) ListPredictions(c *gin.Context) {
	q := newQuery(c)
	f := store.PredictionFilter{
		RobotID:        q.id("robot_id"),
		PredictionType: enum[model.PredictionType](q.str("prediction_type")),
		StartDate:      q.time("start_date"),
		EndDate:        q.time("end_date"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	predictions, err := h.svc.ListPredictions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, predictions)
}

func (h *Handler) GetPrediction(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	prediction, err := h.svc.GetPrediction(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (h *Handler) CreatePrediction(c *gin.Context) {
	var in fleet.CreatePredictionInput
	if !h.bindJSON(c, &in) {
		return
	}

	prediction, err := h.svc.CreatePrediction(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prediction)
}

func (h *Handler) UpdatePrediction(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in fleet.UpdatePredictionInput
	if !h.bindJSON(c, &in) {
		return
	}

	prediction, err := h.svc.UpdatePrediction(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (h *Handler) DeletePrediction(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.svc.DeletePrediction(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	deleted(c)
}
