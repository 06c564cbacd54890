package applications

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/products"
	"loanflow-backend/internal/risk"
	"loanflow-backend/internal/shared/server/middleware"
	"loanflow-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the orchestrator service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.list)
	rg.GET("/applications/:id", h.get)
	rg.POST("/applications/:id/submit", h.submit)
	rg.POST("/applications/:id/documents", h.attachDocument)
	rg.POST("/applications/:id/documents/:docId/verify", h.verifyDocument)
	rg.POST("/applications/:id/risk-assessment", h.riskAssessment)
	rg.POST("/applications/:id/decision", h.decision)
}

type createRequest struct {
	ProductID  string  `json:"productId"`
	Amount     float64 `json:"amount"`
	TermMonths int     `json:"termMonths"`
	Purpose    string  `json:"purpose"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	app, err := h.Svc.Create(c.Request.Context(), userID, strings.TrimSpace(req.ProductID), req.Amount, req.TermMonths, req.Purpose)
	if err != nil {
		h.respondError(c, err, "failed to create application")
		return
	}
	respond.JSON(c, http.StatusCreated, app)
}

func (h *Handler) submit(c *gin.Context) {
	c.Set("applicationId", c.Param("id"))
	app, err := h.Svc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to submit application")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) attachDocument(c *gin.Context) {
	c.Set("applicationId", c.Param("id"))
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	docType := documents.Type(strings.TrimSpace(c.PostForm("type")))
	if docType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document type is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	app, err := h.Svc.AttachDocument(c.Request.Context(), c.Param("id"), docType, fileHeader.Filename, file)
	if err != nil {
		h.respondError(c, err, "failed to attach document")
		return
	}
	respond.JSON(c, http.StatusCreated, app)
}

type verifyRequest struct {
	IsVerified      bool   `json:"isVerified"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *Handler) verifyDocument(c *gin.Context) {
	c.Set("applicationId", c.Param("id"))
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	verifiedBy := middleware.UserIDFromContext(c)
	app, err := h.Svc.ProcessDocumentVerification(c.Request.Context(), c.Param("id"), c.Param("docId"), req.IsVerified, verifiedBy, req.RejectionReason)
	if err != nil {
		h.respondError(c, err, "failed to verify document")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) riskAssessment(c *gin.Context) {
	c.Set("applicationId", c.Param("id"))
	var assessment risk.Assessment
	if err := c.ShouldBindJSON(&assessment); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if assessment.AssessedBy == "" {
		assessment.AssessedBy = middleware.UserIDFromContext(c)
	}

	app, err := h.Svc.ProcessRiskAssessment(c.Request.Context(), c.Param("id"), assessment)
	if err != nil {
		h.respondError(c, err, "failed to process risk assessment")
		return
	}
	respond.OK(c, app)
}

type decisionRequest struct {
	IsApproved      bool    `json:"isApproved"`
	Amount          float64 `json:"amount"`
	Rate            float64 `json:"rate"`
	RejectionReason string  `json:"rejectionReason"`
}

func (h *Handler) decision(c *gin.Context) {
	c.Set("applicationId", c.Param("id"))
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	decidedBy := middleware.UserIDFromContext(c)
	app, err := h.Svc.MakeDecision(c.Request.Context(), c.Param("id"), req.IsApproved, Decision{
		Amount:          req.Amount,
		Rate:            req.Rate,
		RejectionReason: req.RejectionReason,
	}, decidedBy)
	if err != nil {
		h.respondError(c, err, "failed to record decision")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) get(c *gin.Context) {
	app, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch application")
		return
	}
	respond.OK(c, app)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	apps, err := h.Svc.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, err, "failed to list applications")
		return
	}
	respond.OK(c, apps)
}

// respondError maps service error kinds to stable HTTP codes.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "application_not_found", "application not found", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "document_not_found", "document not found", nil)
	case errors.Is(err, products.ErrNotFound):
		respond.Error(c, http.StatusBadRequest, "unknown_product", "product not found", nil)
	case errors.Is(err, ErrInvalidAmount):
		respond.Error(c, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, ErrInvalidTerm):
		respond.Error(c, http.StatusBadRequest, "invalid_term", err.Error(), nil)
	case errors.Is(err, ErrRequiredDocumentsMissing):
		respond.Error(c, http.StatusUnprocessableEntity, "required_documents_missing", err.Error(), nil)
	case errors.Is(err, ErrNotSubmittable):
		respond.Error(c, http.StatusConflict, "not_submittable", err.Error(), nil)
	case errors.Is(err, ErrApplicationTerminal):
		respond.Error(c, http.StatusConflict, "application_terminal", err.Error(), nil)
	case errors.Is(err, ErrRiskAlreadyAssessed):
		respond.Error(c, http.StatusConflict, "risk_already_assessed", err.Error(), nil)
	case errors.Is(err, documents.ErrAlreadyFinalized):
		respond.Error(c, http.StatusConflict, "document_already_finalized", err.Error(), nil)
	case errors.Is(err, documents.ErrUnsupportedType):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", err.Error(), nil)
	case errors.Is(err, ErrInvalidAssessment), errors.Is(err, ErrInvalidInput), errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
