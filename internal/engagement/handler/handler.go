// Package handler exposes the operator-facing engagement API.
package handler

import (
	"net/http"
	"strconv"

	"leadrouter_backend/internal/engagement/domain"
	"leadrouter_backend/internal/engagement/service"
	"leadrouter_backend/internal/engagement/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterLeadRoutes mounts the per-lead read and override routes.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetSignal)
	rg.GET("/:id/events", h.ListEvents)
	rg.GET("/:id/transitions", h.ListTransitions)
	rg.POST("/:id/override", h.Override)
}

// RegisterReportingRoutes mounts the aggregate reporting routes.
func (h *Handler) RegisterReportingRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Summary)
	rg.GET("/eligible", h.Eligible)
}

func (h *Handler) GetSignal(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	signal, err := h.svc.GetSignal(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromSignal(signal))
}

func (h *Handler) ListEvents(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.svc.ListEvents(c.Request.Context(), leadID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.EventResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, transport.FromEventRecord(rec))
	}
	httpkit.OK(c, gin.H{"events": out, "count": len(out)})
}

func (h *Handler) ListTransitions(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	transitions, err := h.svc.ListTransitions(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, transport.FromTransition(t))
	}
	httpkit.OK(c, gin.H{"transitions": out, "count": len(out)})
}

func (h *Handler) Override(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	requestedBy, _ := c.Get(httpkit.ContextUserIDKey)
	operatorID, _ := requestedBy.(uuid.UUID)

	transition, err := h.svc.Override(c.Request.Context(), leadID, domain.Platform(req.Target), operatorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromTransition(transition))
}

func (h *Handler) Summary(c *gin.Context) {
	rows, err := h.svc.Summary(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	cells := make([]transport.SummaryCell, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, transport.SummaryCell{
			Platform: string(row.Platform),
			Level:    string(row.Level),
			Count:    row.Count,
		})
	}
	httpkit.OK(c, gin.H{"summary": cells})
}

func (h *Handler) Eligible(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	leads, err := h.svc.EligibleLeads(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"eligible": leads, "count": len(leads)})
}
