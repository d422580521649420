package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/model"
	"robot-fleet-backend/internal/store"
)

// ListTasks handles GET /api/tasks.
func (h *Handler) ListTasks(c *gin.Context) {
	q := newQuery(c)
	f := store.TaskFilter{
		Status:      enum[model.TaskStatus](q.str("status")),
		PriorityMin: q.int("priority_min"),
		PriorityMax: q.int("priority_max"),
		RobotID:     q.id("robot_id"),
		HasDeadline: q.bool("has_deadline"),
	}
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// HighPriorityTasks handles GET /api/tasks/high-priority?min=.
func (h *Handler) HighPriorityTasks(c *gin.Context) {
	q := newQuery(c)
	min := q.int("min")
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	tasks, err := h.svc.HighPriorityTasks(c.Request.Context(), min)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// OverdueTasks handles GET /api/tasks/overdue.
func (h *Handler) OverdueTasks(c *gin.Context) {
	tasks, err := h.svc.OverdueTasks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// TasksByUrgency handles GET /api/tasks/by-urgency?min_score=.
func (h *Handler) TasksByUrgency(c *gin.Context) {
	q := newQuery(c)
	minScore := q.float("min_score")
	if q.err != nil {
		h.badRequest(c, q.err)
		return
	}

	tasks, err := h.svc.TasksByUrgencyScore(c.Request.Context(), minScore)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	task, err := h.svc.GetTask(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(c *gin.Context) {
	var in fleet.CreateTaskInput
	if !h.bindJSON(c, &in) {
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/tasks/:id.
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in fleet.UpdateTaskInput
	if !h.bindJSON(c, &in) {
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if _, err := h.svc.DeleteTask(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	deleted(c)
}

type assignRequest struct {
	TaskIDs []string `json:"taskIds" binding:"required"`
}

// AssignTasksByCapability handles POST /api/tasks/assign-by-capability.
func (h *Handler) AssignTasksByCapability(c *gin.Context) {
	var req assignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	results, err := h.svc.AssignTasksToRobotsByCapability(c.Request.Context(), req.TaskIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
