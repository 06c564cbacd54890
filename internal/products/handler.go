package products

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the catalog service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches product routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.list)
	rg.GET("/products/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list products", nil)
		return
	}
	respond.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "product not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch product", nil)
		}
		return
	}
	respond.OK(c, p)
}
