package workflows

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/shared/server/middleware"
	"loanflow-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the workflow service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches workflow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/workflows", h.create)
	rg.GET("/workflows/pending", h.pending)
	rg.GET("/workflows/:id", h.get)
	rg.GET("/workflows/:id/history", h.history)
	rg.PATCH("/workflows/:id/status", h.updateStatus)
	rg.POST("/workflows/:id/assign", h.assign)
}

type createRequest struct {
	ApplicationID string `json:"applicationId"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.ApplicationID = strings.TrimSpace(req.ApplicationID)
	if req.ApplicationID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "applicationId is required", nil)
		return
	}

	w, err := h.Svc.Create(c.Request.Context(), req.ApplicationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			respond.Error(c, http.StatusConflict, "conflict", "workflow already exists for application", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create workflow", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, w)
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	c.Set("workflowId", c.Param("id"))
	actor := middleware.UserIDFromContext(c)
	w, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), Status(req.Status), actor, req.Comment)
	if err == nil {
		from := StatusSubmitted
		if n := len(w.History); n >= 2 {
			from = w.History[n-2].Status
		}
		c.Set("statusTransition", string(from)+"->"+string(w.CurrentStatus))
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			respond.Error(c, http.StatusUnprocessableEntity, "invalid_status_transition", err.Error(), nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update workflow", nil)
		}
		return
	}
	respond.OK(c, w)
}

type assignRequest struct {
	Assignee string `json:"assignee"`
}

func (h *Handler) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	assigner := middleware.UserIDFromContext(c)
	w, err := h.Svc.Assign(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Assignee), assigner)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to assign workflow", nil)
		}
		return
	}
	respond.OK(c, w)
}

func (h *Handler) get(c *gin.Context) {
	w, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow", nil)
		}
		return
	}
	respond.OK(c, w)
}

func (h *Handler) pending(c *gin.Context) {
	items, err := h.Svc.Pending(c.Request.Context(), strings.TrimSpace(c.Query("assignee")))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list pending workflows", nil)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) history(c *gin.Context) {
	entries, err := h.Svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workflow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch workflow history", nil)
		}
		return
	}
	respond.OK(c, entries)
}
