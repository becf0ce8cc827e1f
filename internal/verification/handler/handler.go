package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	orgmodels "campusgate/internal/organization/models"
	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/httputil"
	"campusgate/pkg/requestcontext"
)

// Service is the verification engine as seen by HTTP.
type Service interface {
	EnsureAccount(ctx context.Context, caller id.AccountID, email, displayName string) (*models.Account, error)
	GetStatus(ctx context.Context, caller id.AccountID) (*models.VerificationStatus, error)
	Submit(ctx context.Context, caller id.AccountID, req *models.SubmitRequest) (*models.SubmitResult, error)
	ListSubmissions(ctx context.Context, caller id.AccountID, role models.Role, status models.Status) ([]*models.SubmissionView, error)
	Review(ctx context.Context, caller, target id.AccountID, decision models.Decision, feedback *string) (*models.Account, error)
}

// OrganizationRegistrar finds or creates the organization a submission names
// by its fields instead of by id.
type OrganizationRegistrar interface {
	Register(ctx context.Context, caller id.AccountID, f orgmodels.Fields) (*orgmodels.Organization, bool, error)
}

type Handler struct {
	service Service
	orgs    OrganizationRegistrar
	logger  *slog.Logger
}

func New(service Service, orgs OrganizationRegistrar, logger *slog.Logger) *Handler {
	return &Handler{service: service, orgs: orgs, logger: logger}
}

// Register mounts the identity callback and verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/callback", h.HandleIdentityCallback)
	r.Get("/me/verification", h.HandleGetStatus)
	r.Route("/verification", func(r chi.Router) {
		r.Post("/submissions", h.HandleSubmit)
		r.Get("/submissions", h.HandleListSubmissions)
		r.Post("/accounts/{accountID}/review", h.HandleReview)
	})
}

type callbackRequest struct {
	DisplayName string `json:"display_name"`
}

func (r *callbackRequest) Normalize() { r.DisplayName = strings.TrimSpace(r.DisplayName) }

func (r *callbackRequest) Validate() error { return nil }

type documentPayload struct {
	Kind        string `json:"kind"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	// Content is base64 in JSON.
	Content []byte `json:"content"`
}

type submitRequest struct {
	Role           string                    `json:"role"`
	OrganizationID *id.OrganizationID        `json:"organization_id,omitempty"`
	Organization   *orgmodels.Fields         `json:"organization,omitempty"`
	Documents      []documentPayload         `json:"documents"`
	Student        *models.StudentDetails    `json:"student,omitempty"`
	Government     *models.GovernmentDetails `json:"government,omitempty"`
}

func (r *submitRequest) Normalize() {
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
	if r.Organization != nil {
		r.Organization.Normalize()
	}
}

func (r *submitRequest) Validate() error {
	if r.OrganizationID != nil && r.Organization != nil {
		return dErrors.New(dErrors.CodeBadRequest, "send either organization_id or organization, not both")
	}
	return nil
}

func (r *submitRequest) toModel(orgID id.OrganizationID) *models.SubmitRequest {
	docs := make([]models.Document, 0, len(r.Documents))
	for _, d := range r.Documents {
		docs = append(docs, models.Document{
			Kind:        models.ParseDocumentKind(d.Kind),
			FileName:    d.FileName,
			ContentType: d.ContentType,
			Content:     d.Content,
		})
	}
	return &models.SubmitRequest{
		Role:           models.ParseRole(r.Role),
		OrganizationID: orgID,
		Documents:      docs,
		Student:        r.Student,
		Government:     r.Government,
	}
}

type submitResponse struct {
	*models.SubmitResult
	OrganizationCreated bool `json:"organization_created"`
}

type reviewRequest struct {
	Decision models.Decision `json:"decision"`
	Feedback *string         `json:"feedback,omitempty"`
}

func (r *reviewRequest) Normalize() {
	r.Decision = models.Decision(strings.ToUpper(strings.TrimSpace(string(r.Decision))))
}

func (r *reviewRequest) Validate() error {
	if !r.Decision.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "decision must be APPROVED or REJECTED")
	}
	return nil
}

// HandleIdentityCallback registers the authenticated caller on first sign-in.
func (h *Handler) HandleIdentityCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req := &callbackRequest{}
	if r.ContentLength != 0 {
		decoded, ok := httputil.DecodeAndPrepare[callbackRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = decoded
	}
	name := req.DisplayName
	if name == "" {
		name = requestcontext.DisplayName(ctx)
	}
	account, err := h.service.EnsureAccount(ctx, requestcontext.AccountID(ctx), requestcontext.Email(ctx), name)
	if err != nil {
		h.fail(ctx, w, "failed to ensure account", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.service.GetStatus(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to get verification status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleSubmit accepts a submission. When the body carries organization
// fields instead of an id, the organization is registered first.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.AccountID(ctx)
	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	var orgID id.OrganizationID
	created := false
	switch {
	case req.OrganizationID != nil:
		orgID = *req.OrganizationID
	case req.Organization != nil:
		if err := h.checkBeforeRegistering(ctx, caller, req); err != nil {
			h.fail(ctx, w, "submission rejected before organization registration", err)
			return
		}
		org, isNew, err := h.orgs.Register(ctx, caller, *req.Organization)
		if err != nil {
			h.fail(ctx, w, "failed to register organization for submission", err)
			return
		}
		orgID, created = org.ID, isNew
	}

	result, err := h.service.Submit(ctx, caller, req.toModel(orgID))
	if err != nil {
		h.fail(ctx, w, "failed to submit verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{SubmitResult: result, OrganizationCreated: created})
}

// checkBeforeRegistering runs the submission checks that do not need the
// organization id so a doomed submission never creates an organization.
func (h *Handler) checkBeforeRegistering(ctx context.Context, caller id.AccountID, req *submitRequest) error {
	model := req.toModel(id.OrganizationID{})
	model.Normalize()
	if err := model.ValidateContent(); err != nil {
		return err
	}
	if want, ok := models.OrganizationKindFor(model.Role); ok && req.Organization.Kind != want {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("role %s must reference a %s organization, not a %s", model.Role, want, req.Organization.Kind))
	}
	status, err := h.service.GetStatus(ctx, caller)
	if err != nil {
		return err
	}
	return status.CanSubmit()
}

func (h *Handler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	role := models.ParseRole(q.Get("role"))
	status := models.ParseStatus(q.Get("status"))
	views, err := h.service.ListSubmissions(ctx, requestcontext.AccountID(ctx), role, status)
	if err != nil {
		h.fail(ctx, w, "failed to list submissions", err)
		return
	}
	if views == nil {
		views = []*models.SubmissionView{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"submissions": views})
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	target, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := h.service.Review(ctx, requestcontext.AccountID(ctx), target, req.Decision, req.Feedback)
	if err != nil {
		h.fail(ctx, w, "failed to review submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
