// Package app assembles stores, services and HTTP routes into one handler.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	orghandler "campusgate/internal/organization/handler"
	orgmetrics "campusgate/internal/organization/metrics"
	orgservice "campusgate/internal/organization/service"
	orgstore "campusgate/internal/organization/store"
	"campusgate/internal/placement/cache"
	placementhandler "campusgate/internal/placement/handler"
	placementmetrics "campusgate/internal/placement/metrics"
	placementservice "campusgate/internal/placement/service"
	placementstore "campusgate/internal/placement/store"
	"campusgate/internal/platform/blobstore"
	"campusgate/internal/platform/config"
	httpmetrics "campusgate/internal/platform/metrics"
	platformredis "campusgate/internal/platform/redis"
	vhandler "campusgate/internal/verification/handler"
	vmetrics "campusgate/internal/verification/metrics"
	vservice "campusgate/internal/verification/service"
	accountstore "campusgate/internal/verification/store/account"
	evidencestore "campusgate/internal/verification/store/evidence"
	profilestore "campusgate/internal/verification/store/profile"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/audit/publishers/compliance"
	auditmemory "campusgate/pkg/platform/audit/store/memory"
	auditpostgres "campusgate/pkg/platform/audit/store/postgres"
	"campusgate/pkg/platform/httputil"
	authmw "campusgate/pkg/platform/middleware/auth"
	"campusgate/pkg/platform/middleware/metadata"
	"campusgate/pkg/platform/middleware/request"
	"campusgate/pkg/platform/middleware/requesttime"
	"campusgate/pkg/platform/middleware/scrape"
	txcontext "campusgate/pkg/platform/tx"
)

// Backends are the external resources chosen by configuration. A nil DB
// selects in-memory stores and a nil Redis selects an in-process report cache.
type Backends struct {
	DB    *sql.DB
	Redis *platformredis.Client
	Blobs blobstore.Store
}

type auditStore interface {
	audit.Store
	audit.Outbox
}

// App is the assembled service.
type App struct {
	Router http.Handler
	// Outbox feeds the broker relay.
	Outbox audit.Outbox

	Verification *vservice.Service
	Organization *orgservice.Service
	Placement    *placementservice.Service
}

type profileStore interface {
	vservice.ProfileStore
	placementservice.ProfileReader
	orgservice.DependentCounter
}

type placementStore interface {
	placementservice.Store
	orgservice.DependentCounter
}

type stores struct {
	accounts   vservice.AccountStore
	profiles   profileStore
	evidence   vservice.EvidenceStore
	orgs       orgservice.Store
	placements placementStore
	audit      auditStore
	tx         vservice.StoreTx
}

func newStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			accounts:   accountstore.NewInMemory(),
			profiles:   profilestore.NewInMemory(),
			evidence:   evidencestore.NewInMemory(),
			orgs:       orgstore.NewInMemory(),
			placements: placementstore.NewInMemory(),
			audit:      auditmemory.NewInMemoryStore(),
			tx:         txcontext.NewMemoryTx(),
		}
	}
	return stores{
		accounts:   accountstore.NewPostgres(db),
		profiles:   profilestore.NewPostgres(db),
		evidence:   evidencestore.NewPostgres(db),
		orgs:       orgstore.NewPostgres(db),
		placements: placementstore.NewPostgres(db),
		audit:      auditpostgres.New(db),
		tx:         txcontext.NewPostgresTx(db),
	}
}

// New wires every module against b and registers metrics on reg.
func New(cfg config.Config, logger *slog.Logger, reg *prometheus.Registry, b Backends, verifier authmw.TokenVerifier) (*App, error) {
	if b.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	st := newStores(b.DB)
	publisher := compliance.New(st.audit,
		compliance.WithLogger(logger),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)

	verification, err := vservice.New(st.accounts, st.profiles, st.evidence, st.orgs, b.Blobs, st.tx,
		vservice.WithLogger(logger),
		vservice.WithAuditPublisher(publisher),
		vservice.WithMetrics(vmetrics.New(reg)),
		vservice.WithPlatformAdmins(cfg.Verification.PlatformAdminEmails...),
		vservice.WithRejectPolicy(cfg.Verification.RejectProfilePolicy),
		vservice.WithUploadTimeout(cfg.Verification.UploadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("verification service: %w", err)
	}

	organization := orgservice.New(st.orgs, verification, st.tx,
		orgservice.WithLogger(logger),
		orgservice.WithAuditPublisher(publisher),
		orgservice.WithMetrics(orgmetrics.New(reg)),
		orgservice.WithDependents(st.profiles, st.placements),
	)

	var reportCache placementservice.ReportCache = cache.NewMemory()
	if b.Redis != nil {
		reportCache = cache.NewRedis(b.Redis.Client)
	}
	placement := placementservice.New(st.placements, st.profiles, st.accounts, st.orgs, verification, st.tx,
		placementservice.WithLogger(logger),
		placementservice.WithAuditPublisher(publisher),
		placementservice.WithMetrics(placementmetrics.New(reg)),
		placementservice.WithReportCache(reportCache, cfg.Placement.ReportCacheTTL),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpmetrics.New(reg).Instrument)

	r.Get("/healthz", healthz(b))
	r.With(scrape.RequireToken(cfg.Server.MetricsToken, logger)).
		Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(verifier, logger))
		vhandler.New(verification, organization, logger).Register(r)
		orghandler.New(organization, logger).Register(r)
		placementhandler.New(placement, logger).Register(r)
	})

	return &App{
		Router:       withCORS(cfg.Server.CORSAllowedOrigins, r),
		Outbox:       st.audit,
		Verification: verification,
		Organization: organization,
		Placement:    placement,
	}, nil
}

func withCORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
		MaxAge:         300,
	}).Handler(next)
}

func healthz(b Backends) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := map[string]string{}
		status := http.StatusOK
		if b.DB != nil {
			checks["postgres"] = probe(ctx, b.DB.PingContext, &status)
		}
		if b.Redis != nil {
			checks["redis"] = probe(ctx, b.Redis.Health, &status)
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}

func probe(ctx context.Context, check func(context.Context) error, status *int) string {
	if err := check(ctx); err != nil {
		*status = http.StatusServiceUnavailable
		return "down"
	}
	return "up"
}
