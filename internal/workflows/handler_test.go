package workflows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/notifications"
)

func newHandlerRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryRepo(), notifications.NewMemoryNotifier())
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "officer-1")
		c.Next()
	})
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, svc
}

func TestCreateWorkflowEndpoint(t *testing.T) {
	router, _ := newHandlerRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", strings.NewReader(`{"applicationId":"APP-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	// One workflow per application.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/workflows", strings.NewReader(`{"applicationId":"APP-1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.Code)
	}
}

func TestUpdateStatusEndpointMapsTransitionErrors(t *testing.T) {
	router, svc := newHandlerRouter(t)

	w, err := svc.Create(context.Background(), "APP-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/workflows/"+w.ID+"/status", strings.NewReader(`{"status":"UNDERWRITING"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("illegal transition status = %d, want 422", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid_status_transition") {
		t.Errorf("unexpected body: %s", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/workflows/"+w.ID+"/status", strings.NewReader(`{"status":"DOCUMENT_VERIFICATION","comment":"checks started"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("legal transition status = %d, body %s", resp.Code, resp.Body.String())
	}

	var updated Workflow
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.CurrentStatus != StatusDocumentVerification || len(updated.History) != 1 {
		t.Errorf("unexpected workflow: %+v", updated)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/workflows/WF-missing/status", strings.NewReader(`{"status":"DOCUMENT_VERIFICATION"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing workflow status = %d, want 404", resp.Code)
	}
}

func TestAssignAndPendingEndpoints(t *testing.T) {
	router, svc := newHandlerRouter(t)

	w, err := svc.Create(context.Background(), "APP-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+w.ID+"/assign", strings.NewReader(`{"assignee":"officer-2"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("assign status = %d, body %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workflows/pending?assignee=officer-2", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("pending status = %d", resp.Code)
	}
	var pending []Workflow
	if err := json.Unmarshal(resp.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != w.ID {
		t.Errorf("unexpected pending list: %+v", pending)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workflows/"+w.ID+"/history", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("history status = %d", resp.Code)
	}
	var history []HistoryEntry
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || !strings.Contains(history[0].Comment, "officer-2") {
		t.Errorf("unexpected history: %+v", history)
	}
}
