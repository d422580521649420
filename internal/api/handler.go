package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/mw"
	"robot-fleet-backend/internal/parse"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *fleet.Service
	log     logrus.FieldLogger
	metrics *mw.Metrics
}

// NewHandler creates a new API handler.
func NewHandler(svc *fleet.Service, log logrus.FieldLogger, metrics *mw.Metrics) *Handler {
	return &Handler{
		svc:     svc,
		log:     log,
		metrics: metrics,
	}
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validationErr *fleet.ValidationError
		notFoundErr   *fleet.NotFoundError
		uniqueErr     *fleet.UniquenessError
		refErr        *fleet.ReferentialIntegrityError
	)

	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordError("validation")
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		h.metrics.RecordError("not_found")
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &uniqueErr):
		h.metrics.RecordError("uniqueness")
		c.JSON(http.StatusConflict, gin.H{"error": uniqueErr.Error()})
	case errors.As(err, &refErr):
		h.metrics.RecordError("referential_integrity")
		c.JSON(http.StatusConflict, gin.H{"error": refErr.Error()})
	default:
		h.metrics.RecordError("internal")
		_ = c.Error(err)
		h.log.WithField("request_id", mw.GetRequestID(c)).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// badRequest reports a malformed path, query or body value.
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.metrics.RecordError("validation")
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathID reads the :id parameter. It writes the 400 response itself and
// returns false when the value is malformed.
func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		h.badRequest(c, err)
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst, writing a 400 on failure.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, errors.New("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// deleted is the response of every delete endpoint.
func deleted(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
