package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"campusgate/internal/organization/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/httputil"
	"campusgate/pkg/requestcontext"
)

// Service is the organization registry as seen by HTTP.
type Service interface {
	Create(ctx context.Context, caller id.AccountID, f models.Fields) (*models.Organization, error)
	Register(ctx context.Context, caller id.AccountID, f models.Fields) (*models.Organization, bool, error)
	Get(ctx context.Context, caller id.AccountID, orgID id.OrganizationID) (*models.Organization, error)
	List(ctx context.Context, caller id.AccountID, kind models.Kind, status models.Status) ([]*models.Organization, error)
	Review(ctx context.Context, caller id.AccountID, orgID id.OrganizationID, decision models.Status) (*models.Organization, error)
	Delete(ctx context.Context, caller id.AccountID, orgID id.OrganizationID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the organization routes. Authentication is applied by the caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Post("/register", h.HandleRegister)
		r.Get("/", h.HandleList)
		r.Get("/{organizationID}", h.HandleGet)
		r.Post("/{organizationID}/review", h.HandleReview)
		r.Delete("/{organizationID}", h.HandleDelete)
	})
}

type reviewRequest struct {
	Decision models.Status `json:"decision"`
}

func (r *reviewRequest) Normalize() {
	r.Decision = models.Status(strings.ToUpper(strings.TrimSpace(string(r.Decision))))
}

func (r *reviewRequest) Validate() error {
	if r.Decision != models.StatusVerified && r.Decision != models.StatusRejected {
		return dErrors.New(dErrors.CodeBadRequest, "decision must be VERIFIED or REJECTED")
	}
	return nil
}

type registerResponse struct {
	Organization *models.Organization `json:"organization"`
	Created      bool                 `json:"organization_created"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[models.Fields](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, err := h.service.Create(ctx, requestcontext.AccountID(ctx), *req)
	if err != nil {
		h.fail(ctx, w, "failed to create organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[models.Fields](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, created, err := h.service.Register(ctx, requestcontext.AccountID(ctx), *req)
	if err != nil {
		h.fail(ctx, w, "failed to register organization", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, registerResponse{Organization: org, Created: created})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	kind := models.Kind(strings.ToUpper(strings.TrimSpace(q.Get("kind"))))
	status := models.Status(strings.ToUpper(strings.TrimSpace(q.Get("status"))))
	orgs, err := h.service.List(ctx, requestcontext.AccountID(ctx), kind, status)
	if err != nil {
		h.fail(ctx, w, "failed to list organizations", err)
		return
	}
	if orgs == nil {
		orgs = []*models.Organization{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	org, err := h.service.Get(ctx, requestcontext.AccountID(ctx), orgID)
	if err != nil {
		h.fail(ctx, w, "failed to get organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[reviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	org, err := h.service.Review(ctx, requestcontext.AccountID(ctx), orgID, req.Decision)
	if err != nil {
		h.fail(ctx, w, "failed to review organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, requestcontext.AccountID(ctx), orgID); err != nil {
		h.fail(ctx, w, "failed to delete organization", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
