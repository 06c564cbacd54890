package applications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"loanflow-backend/internal/documents"
	"loanflow-backend/internal/notifications"
	"loanflow-backend/internal/products"
	"loanflow-backend/internal/risk"
	"loanflow-backend/internal/shared/locks"
	"loanflow-backend/internal/shared/metrics"
	"loanflow-backend/internal/shared/telemetry"
	"loanflow-backend/internal/shared/util"
	"loanflow-backend/internal/workflows"
)

// Service orchestrates the loan application lifecycle. Every mutating
// operation on one application runs inside that application's critical
// section, persists before notifying, and fails fast without partial writes.
//
// The workflow shadow is advanced alongside each stage change. It is an audit
// record, not a gate: if the shadow advance fails the already persisted
// application change stands and the failure is logged.
type Service struct {
	repo      Repo
	products  *products.Service
	gate      *documents.Gate
	workflows *workflows.Service
	notifier  notifications.Notifier
	locks     *locks.KeyedMutex
}

// NewService constructs a Service with its collaborators.
func NewService(repo Repo, catalog *products.Service, gate *documents.Gate, wf *workflows.Service, notifier notifications.Notifier) *Service {
	return &Service{
		repo:      repo,
		products:  catalog,
		gate:      gate,
		workflows: wf,
		notifier:  notifier,
		locks:     locks.NewKeyedMutex(),
	}
}

// Create validates the request against the product catalog and persists a new
// DRAFT application with no documents.
func (s *Service) Create(ctx context.Context, userID, productID string, amount float64, termMonths int, purpose string) (Application, error) {
	if userID == "" || productID == "" {
		return Application{}, ErrInvalidInput
	}
	if amount <= 0 {
		return Application{}, ErrInvalidAmount
	}
	if termMonths <= 0 {
		return Application{}, ErrInvalidTerm
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return Application{}, fmt.Errorf("create application: %w", err)
	}
	if !product.AllowsAmount(amount) {
		return Application{}, ErrInvalidAmount
	}
	if !product.AllowsTerm(termMonths) {
		return Application{}, ErrInvalidTerm
	}

	now := time.Now().UTC()
	app := Application{
		ID:         util.NewID("APP"),
		UserID:     userID,
		ProductID:  productID,
		Amount:     amount,
		TermMonths: termMonths,
		Purpose:    purpose,
		Status:     StatusDraft,
		Documents:  []documents.Document{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return Application{}, fmt.Errorf("create application: %w", err)
	}

	metrics.IncApplicationCreated()
	s.notify(ctx, notifications.Notification{
		RecipientID:   userID,
		Event:         notifications.EventLoanApplicationCreated,
		ApplicationID: app.ID,
		Status:        string(app.Status),
	})
	return app, nil
}

// AttachDocument uploads the file through the document gate and appends the
// resulting pending document to the application. Documents can be attached
// while the application is in DRAFT and, for replacements of rejected
// documents, while it is SUBMITTED.
func (s *Service) AttachDocument(ctx context.Context, applicationID string, docType documents.Type, fileName string, r io.Reader) (Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return Application{}, fmt.Errorf("attach document: %w", err)
	}
	if app.Terminal() {
		return Application{}, ErrApplicationTerminal
	}
	if app.Status != StatusDraft && app.Status != StatusSubmitted {
		return Application{}, ErrApplicationTerminal
	}

	doc, err := s.gate.Upload(ctx, applicationID, docType, fileName, r)
	if err != nil {
		return Application{}, fmt.Errorf("attach document: %w", err)
	}

	app.Documents = append(app.Documents, doc)
	app.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, fmt.Errorf("attach document: %w", err)
	}

	s.notify(ctx, notifications.Notification{
		RecipientID:   app.UserID,
		Event:         notifications.EventDocumentUploaded,
		ApplicationID: app.ID,
		DocumentID:    doc.ID,
		Status:        string(doc.Status),
	})
	return app, nil
}

// Submit moves a DRAFT application to SUBMITTED after the required-documents
// gate passes, creates the workflow shadow and starts its document
// verification sub-phase.
func (s *Service) Submit(ctx context.Context, applicationID string) (Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return Application{}, fmt.Errorf("submit application: %w", err)
	}
	if app.Terminal() {
		return Application{}, ErrApplicationTerminal
	}
	if app.Status != StatusDraft {
		return Application{}, ErrNotSubmittable
	}

	product, err := s.products.Get(ctx, app.ProductID)
	if err != nil {
		return Application{}, fmt.Errorf("submit application: %w", err)
	}
	if !s.gate.IsComplete(app.Documents, product.RequiredDocumentTypes) {
		return Application{}, ErrRequiredDocumentsMissing
	}

	now := time.Now().UTC()
	app.Status = StatusSubmitted
	app.SubmittedAt = &now
	app.UpdatedAt = now
	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, fmt.Errorf("submit application: %w", err)
	}

	s.startWorkflow(ctx, app)

	metrics.IncApplicationSubmitted()
	s.notify(ctx, notifications.Notification{
		RecipientID:   app.UserID,
		Event:         notifications.EventLoanApplicationSubmitted,
		ApplicationID: app.ID,
		Status:        string(app.Status),
	})
	return app, nil
}

// ProcessDocumentVerification finalizes one document and, once every attached
// document is verified, advances the application to CREDIT_CHECK. Stage
// changes notify through the workflow shadow; no per-document notification is
// sent.
func (s *Service) ProcessDocumentVerification(ctx context.Context, applicationID, documentID string, isVerified bool, verifiedBy, rejectionReason string) (Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return Application{}, fmt.Errorf("process document verification: %w", err)
	}
	if app.Terminal() {
		return Application{}, ErrApplicationTerminal
	}

	if err := s.gate.Verify(app.Documents, documentID, isVerified, verifiedBy, rejectionReason); err != nil {
		return Application{}, fmt.Errorf("process document verification: %w", err)
	}

	app.UpdatedAt = time.Now().UTC()
	advanced := false
	if app.Status == StatusSubmitted && s.gate.AllVerified(app.Documents) {
		app.Status = StatusCreditCheck
		advanced = true
	}

	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, fmt.Errorf("process document verification: %w", err)
	}

	if advanced {
		s.advanceWorkflow(ctx, app.ID, workflows.StatusCreditCheck, verifiedBy, "All documents verified")
	}
	return app, nil
}

// ProcessRiskAssessment attaches the scorer's assessment exactly once and
// moves the application to UNDERWRITING. It is accepted from any non-terminal
// status; a second assessment is refused.
func (s *Service) ProcessRiskAssessment(ctx context.Context, applicationID string, assessment risk.Assessment) (Application, error) {
	if !assessment.Valid() {
		return Application{}, ErrInvalidAssessment
	}

	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return Application{}, fmt.Errorf("process risk assessment: %w", err)
	}
	if app.Terminal() {
		return Application{}, ErrApplicationTerminal
	}
	if app.RiskAssessment != nil {
		return Application{}, ErrRiskAlreadyAssessed
	}

	if assessment.AssessedAt.IsZero() {
		assessment.AssessedAt = time.Now().UTC()
	}
	app.RiskAssessment = &assessment
	app.Status = StatusUnderwriting
	app.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, fmt.Errorf("process risk assessment: %w", err)
	}

	s.advanceWorkflow(ctx, app.ID, workflows.StatusUnderwriting, assessment.AssessedBy, "Risk assessment completed")
	s.notify(ctx, notifications.Notification{
		RecipientID:   app.UserID,
		Event:         notifications.EventRiskAssessmentCompleted,
		ApplicationID: app.ID,
		Status:        string(app.Status),
	})
	return app, nil
}

// MakeDecision records the final decision. Approval sets the approved amount
// and rate; rejection sets the reason. Either way the application becomes
// terminal and refuses all further lifecycle mutations.
func (s *Service) MakeDecision(ctx context.Context, applicationID string, isApproved bool, decision Decision, decidedBy string) (Application, error) {
	unlock := s.locks.Lock(applicationID)
	defer unlock()

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return Application{}, fmt.Errorf("make decision: %w", err)
	}
	if app.Terminal() {
		return Application{}, ErrApplicationTerminal
	}

	now := time.Now().UTC()
	var event notifications.EventType
	var target workflows.Status
	if isApproved {
		if decision.Amount <= 0 || decision.Rate <= 0 {
			return Application{}, ErrInvalidInput
		}
		app.Status = StatusApproved
		app.ApprovedAmount = &decision.Amount
		app.ApprovedRate = &decision.Rate
		app.ApprovedAt = &now
		event = notifications.EventLoanApproved
		target = workflows.StatusApproved
	} else {
		app.Status = StatusRejected
		app.RejectionReason = decision.RejectionReason
		app.RejectedAt = &now
		event = notifications.EventLoanRejected
		target = workflows.StatusRejected
	}
	app.UpdatedAt = now

	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, fmt.Errorf("make decision: %w", err)
	}

	s.advanceWorkflow(ctx, app.ID, target, decidedBy, decision.RejectionReason)

	metrics.IncApplicationDecided(isApproved)
	if app.SubmittedAt != nil {
		metrics.ObserveDecisionLatencyMs(float64(now.Sub(*app.SubmittedAt).Milliseconds()))
	}
	s.notify(ctx, notifications.Notification{
		RecipientID:   app.UserID,
		Event:         event,
		ApplicationID: app.ID,
		Status:        string(app.Status),
		Comment:       decision.RejectionReason,
	})
	return app, nil
}

// Get returns an application by ID.
func (s *Service) Get(ctx context.Context, applicationID string) (Application, error) {
	if applicationID == "" {
		return Application{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, applicationID)
}

// ListByUser returns a user's applications, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Application, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// startWorkflow creates the shadow workflow at submission and moves it into
// the document verification sub-phase.
func (s *Service) startWorkflow(ctx context.Context, app Application) {
	if s.workflows == nil {
		return
	}
	w, err := s.workflows.Create(ctx, app.ID)
	if err != nil {
		if errors.Is(err, workflows.ErrAlreadyExists) {
			return
		}
		telemetry.Error("application.workflow_create_failed", map[string]any{
			"application_id": app.ID,
			"error":          err.Error(),
		})
		return
	}
	if _, err := s.workflows.UpdateStatus(ctx, w.ID, workflows.StatusDocumentVerification, app.UserID, "Application submitted"); err != nil {
		telemetry.Error("application.workflow_advance_failed", map[string]any{
			"application_id": app.ID,
			"workflow_id":    w.ID,
			"target":         string(workflows.StatusDocumentVerification),
			"error":          err.Error(),
		})
	}
}

// advanceWorkflow moves the shadow workflow to target. Failures are logged and
// never abort the already persisted application change.
func (s *Service) advanceWorkflow(ctx context.Context, applicationID string, target workflows.Status, actor, comment string) {
	if s.workflows == nil {
		return
	}
	if actor == "" {
		actor = notifications.SystemRecipient
	}
	w, err := s.workflows.GetByApplication(ctx, applicationID)
	if err != nil {
		if !errors.Is(err, workflows.ErrNotFound) {
			telemetry.Error("application.workflow_lookup_failed", map[string]any{
				"application_id": applicationID,
				"error":          err.Error(),
			})
		}
		return
	}
	if _, err := s.workflows.UpdateStatus(ctx, w.ID, target, actor, comment); err != nil {
		telemetry.Error("application.workflow_advance_failed", map[string]any{
			"application_id": applicationID,
			"workflow_id":    w.ID,
			"target":         string(target),
			"error":          err.Error(),
		})
	}
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil {
		return
	}
	// Best-effort: the state change is already persisted.
	if err := s.notifier.Send(ctx, n); err != nil {
		telemetry.Error("application.notification_failed", map[string]any{
			"application_id": n.ApplicationID,
			"event":          string(n.Event),
			"error":          err.Error(),
		})
	}
}
