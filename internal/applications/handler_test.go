package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/notifications"
	"loanflow-backend/internal/products"
	"loanflow-backend/internal/workflows"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := products.NewService(products.NewMemoryRepo())
	if err := catalog.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	sink := notifications.NewMemoryNotifier()
	wf := workflows.NewService(workflows.NewMemoryRepo(), sink)
	gate := &documents.Gate{Store: &stubStore{mimeType: "application/pdf"}}
	svc := NewService(NewMemoryRepo(), catalog, gate, wf, sink)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user123")
		c.Next()
	})
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, svc
}

func createDraft(t *testing.T, router *gin.Engine) Application {
	t.Helper()
	body := `{"productId":"personal-loan","amount":10000,"termMonths":12,"purpose":"Home renovation"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", resp.Code, resp.Body.String())
	}
	var app Application
	if err := json.Unmarshal(resp.Body.Bytes(), &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	return app
}

func uploadDocument(t *testing.T, router *gin.Engine, appID string, docType documents.Type, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", string(docType)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 test")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+appID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUploadDocumentTooLarge(t *testing.T) {
	router, _ := newTestRouter(t)
	app := createDraft(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", string(documents.TypeIDProof)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "huge.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte("a"), maxUploadSize+1)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413, body %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "file_too_large") {
		t.Fatalf("expected file_too_large code, got %s", resp.Body.String())
	}

	got, err := fetchApplication(router, app.ID)
	if err != nil {
		t.Fatalf("fetch application: %v", err)
	}
	if len(got.Documents) != 0 {
		t.Fatalf("expected no document after oversized upload, got %d", len(got.Documents))
	}
}

func fetchApplication(router *gin.Engine, id string) (Application, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+id, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	var app Application
	if err := json.Unmarshal(resp.Body.Bytes(), &app); err != nil {
		return Application{}, err
	}
	return app, nil
}

func TestCreateApplicationEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	app := createDraft(t, router)
	if app.Status != StatusDraft {
		t.Errorf("status = %s, want %s", app.Status, StatusDraft)
	}
	if app.UserID != "user123" {
		t.Errorf("userId = %s, want user123", app.UserID)
	}
}

func TestCreateApplicationValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"negative amount", `{"productId":"personal-loan","amount":-1000,"termMonths":12}`, "invalid_amount"},
		{"zero term", `{"productId":"personal-loan","amount":10000,"termMonths":0}`, "invalid_term"},
		{"unknown product", `{"productId":"nope","amount":10000,"termMonths":12}`, "unknown_product"},
		{"malformed json", `{`, "validation_error"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, resp.Code)
			continue
		}
		if !strings.Contains(resp.Body.String(), tc.want) {
			t.Errorf("%s: body %s missing code %s", tc.name, resp.Body.String(), tc.want)
		}
	}
}

func TestUploadAndSubmitFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	app := createDraft(t, router)

	// Submitting before documents are attached is refused.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/submit", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("premature submit status = %d, want 422", resp.Code)
	}

	if resp := uploadDocument(t, router, app.ID, documents.TypeIDProof, "passport.pdf"); resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", resp.Code, resp.Body.String())
	}
	if resp := uploadDocument(t, router, app.ID, documents.TypeIncomeProof, "payslip.pdf"); resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/submit", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", resp.Code, resp.Body.String())
	}
	var submitted Application
	if err := json.Unmarshal(resp.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if submitted.Status != StatusSubmitted {
		t.Errorf("status = %s, want %s", submitted.Status, StatusSubmitted)
	}

	// Second submit conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/submit", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("double submit status = %d, want 409", resp.Code)
	}
}

func TestUploadRequiresTypeAndFile(t *testing.T) {
	router, _ := newTestRouter(t)
	app := createDraft(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", string(documents.TypeIDProof)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d, want 400", resp.Code)
	}
}

func TestVerifyDecisionEndpoints(t *testing.T) {
	router, svc := newTestRouter(t)
	app := createDraft(t, router)
	uploadDocument(t, router, app.ID, documents.TypeIDProof, "passport.pdf")
	uploadDocument(t, router, app.ID, documents.TypeIncomeProof, "payslip.pdf")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/submit", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit status = %d", resp.Code)
	}

	current, err := svc.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, doc := range current.Documents {
		body := `{"isVerified":true}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/documents/"+doc.ID+"/verify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("verify status = %d, body %s", resp.Code, resp.Body.String())
		}
	}

	// Unknown document 404s.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/documents/DOC-404/verify", strings.NewReader(`{"isVerified":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("verify unknown doc status = %d, want 404", resp.Code)
	}

	riskBody := `{"creditScore":750,"riskLevel":"low","recommendedAmount":10000,"recommendedRate":0.05,"assessedBy":"scorer"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/risk-assessment", strings.NewReader(riskBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("risk status = %d, body %s", resp.Code, resp.Body.String())
	}

	// A second assessment conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/risk-assessment", strings.NewReader(riskBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("second risk status = %d, want 409", resp.Code)
	}

	decisionBody := `{"isApproved":true,"amount":10000,"rate":0.05}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/decision", strings.NewReader(decisionBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("decision status = %d, body %s", resp.Code, resp.Body.String())
	}
	var decided Application
	if err := json.Unmarshal(resp.Body.Bytes(), &decided); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Errorf("status = %s, want %s", decided.Status, StatusApproved)
	}

	// Decisions on a terminal application conflict.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/applications/"+app.ID+"/decision", strings.NewReader(decisionBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("terminal decision status = %d, want 409", resp.Code)
	}
}

func TestGetAndListEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	app := createDraft(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+app.ID, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/applications/APP-missing", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get missing status = %d, want 404", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var list []Application
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != app.ID {
		t.Errorf("unexpected list: %+v", list)
	}
}
