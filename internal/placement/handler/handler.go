package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"campusgate/internal/placement/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/httputil"
	"campusgate/pkg/requestcontext"
)

// Service is the placement sub-workflow as seen by HTTP.
type Service interface {
	Create(ctx context.Context, caller id.AccountID, req *models.CreateRequest) (*models.Placement, error)
	Verify(ctx context.Context, caller id.AccountID, placementID id.PlacementID, decision models.Status) (*models.Placement, error)
	ListVerified(ctx context.Context, caller id.AccountID, filter models.VerifiedFilter) ([]*models.VerifiedRecord, error)
	Report(ctx context.Context, caller id.AccountID) (*models.Report, error)
	ListForInstitution(ctx context.Context, caller id.AccountID, status models.Status) ([]*models.Placement, error)
	ListForCompany(ctx context.Context, caller id.AccountID, status models.Status) ([]*models.Placement, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/placements", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Post("/{placementID}/verify", h.HandleVerify)
		r.Get("/verified", h.HandleListVerified)
		r.Get("/report", h.HandleReport)
		r.Get("/institution", h.HandleListForInstitution)
		r.Get("/company", h.HandleListForCompany)
	})
}

type verifyRequest struct {
	Decision models.Status `json:"decision"`
}

func (r *verifyRequest) Normalize() {
	r.Decision = models.ParseStatus(string(r.Decision))
}

func (r *verifyRequest) Validate() error {
	if r.Decision != models.StatusVerified && r.Decision != models.StatusRejected {
		return dErrors.New(dErrors.CodeBadRequest, "decision must be VERIFIED or REJECTED")
	}
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	placement, err := h.service.Create(ctx, requestcontext.AccountID(ctx), req)
	if err != nil {
		h.fail(ctx, w, "failed to create placement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, placement)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	placementID, err := id.ParsePlacementID(chi.URLParam(r, "placementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	placement, err := h.service.Verify(ctx, requestcontext.AccountID(ctx), placementID, req.Decision)
	if err != nil {
		h.fail(ctx, w, "failed to verify placement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, placement)
}

// HandleListVerified serves the government read path. Filters:
// institution_id, company_id, graduation_year.
func (h *Handler) HandleListVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseVerifiedFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.service.ListVerified(ctx, requestcontext.AccountID(ctx), filter)
	if err != nil {
		h.fail(ctx, w, "failed to list verified placements", err)
		return
	}
	if records == nil {
		records = []*models.VerifiedRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"placements": records})
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Report(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to build placement report", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleListForInstitution(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListForInstitution)
}

func (h *Handler) HandleListForCompany(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListForCompany)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, id.AccountID, models.Status) ([]*models.Placement, error)) {
	ctx := r.Context()
	status := models.ParseStatus(r.URL.Query().Get("status"))
	placements, err := fn(ctx, requestcontext.AccountID(ctx), status)
	if err != nil {
		h.fail(ctx, w, "failed to list placements", err)
		return
	}
	if placements == nil {
		placements = []*models.Placement{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"placements": placements})
}

func parseVerifiedFilter(r *http.Request) (models.VerifiedFilter, error) {
	var f models.VerifiedFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("institution_id")); raw != "" {
		orgID, err := id.ParseOrganizationID(raw)
		if err != nil {
			return f, err
		}
		f.InstitutionID = orgID
	}
	if raw := strings.TrimSpace(q.Get("company_id")); raw != "" {
		orgID, err := id.ParseOrganizationID(raw)
		if err != nil {
			return f, err
		}
		f.CompanyID = orgID
	}
	if raw := strings.TrimSpace(q.Get("graduation_year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "graduation_year must be a number")
		}
		f.GraduationYear = year
	}
	return f, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
