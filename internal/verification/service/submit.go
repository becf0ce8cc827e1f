package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"campusgate/internal/verification/models"
	id "campusgate/pkg/domain"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/audit"
	"campusgate/pkg/platform/device"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// Submit moves the caller to PENDING with a role claim, a role profile and a
// fresh evidence batch. Documents are uploaded before the transaction; if the
// transaction does not commit the uploaded blobs are deleted again.
func (s *Service) Submit(ctx context.Context, caller id.AccountID, req *models.SubmitRequest) (result *models.SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "verification.Submit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	account, err := s.loadCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := account.CanSubmit(); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("role", string(req.Role)), attribute.Int("documents", len(req.Documents)))

	if err := s.checkOrganization(ctx, req.Role, req.OrganizationID); err != nil {
		return nil, err
	}

	submissionID := id.NewSubmissionID()
	batch, err := s.upload(ctx, caller, submissionID, req.Documents)
	if err != nil {
		s.uploadFailed(ctx, caller, req.Role, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUploadFailed, "document upload failed; nothing was recorded")
	}
	span.AddEvent("evidence uploaded", trace.WithAttributes(attribute.String("submission_id", submissionID.String())))

	now := requestcontext.Now(ctx)
	result = &models.SubmitResult{Evidence: batch}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.accounts.Execute(ctx, caller,
			func(a *models.Account) error {
				return a.CanSubmit()
			},
			func(a *models.Account) {
				a.ApplySubmission(req.Role, req.OrganizationID, submissionID, now)
			},
		)
		if err != nil {
			return wrapAccountErr(err)
		}
		result.Account = updated

		profile, err := models.NewProfile(id.NewProfileID(), caller, req.Role, req.OrganizationID, req.Student, req.Government, now)
		if err != nil {
			return err
		}
		stored, err := s.profiles.Upsert(ctx, profile)
		if err != nil {
			return wrapProfileErr(err)
		}
		result.Profile = stored

		if err := s.evidence.AppendBatch(ctx, batch); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record evidence")
		}
		return s.record(ctx, audit.EventVerificationSubmitted, caller, caller,
			"role", string(req.Role),
			"submission_id", submissionID,
			"organization_id", req.OrganizationID,
			"documents", len(batch),
		)
	})
	if err != nil {
		s.discard(ctx, batch)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Submissions.WithLabelValues(string(req.Role)).Inc()
	}
	return result, nil
}

// checkOrganization requires orgID to name an existing organization of the
// kind role acts for.
func (s *Service) checkOrganization(ctx context.Context, role models.Role, orgID id.OrganizationID) error {
	want, ok := models.OrganizationKindFor(role)
	if !ok {
		return dErrors.New(dErrors.CodeInvalidRole, "role cannot be requested")
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	if err != nil {
		return err
	}
	if org.Kind != want {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("role %s must reference a %s organization, not a %s", role, want, org.Kind))
	}
	return nil
}

// upload stores every document concurrently. The first failure cancels the
// rest and every blob already stored is deleted.
func (s *Service) upload(ctx context.Context, caller id.AccountID, submissionID id.SubmissionID, docs []models.Document) ([]*models.Evidence, error) {
	now := requestcontext.Now(ctx)
	batch := make([]*models.Evidence, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			uctx, cancel := context.WithTimeout(gctx, s.uploadTimeout)
			defer cancel()

			start := time.Now()
			obj, err := s.blobs.Put(uctx, doc.FileName, doc.ContentType, doc.Content)
			if s.metrics != nil {
				s.metrics.ObserveUpload(time.Since(start))
			}
			if err != nil {
				return fmt.Errorf("upload %s %q: %w", doc.Kind, doc.FileName, err)
			}
			sum := blake2b.Sum256(doc.Content)
			batch[i] = &models.Evidence{
				ID:           id.NewEvidenceID(),
				AccountID:    caller,
				SubmissionID: submissionID,
				Kind:         doc.Kind,
				URL:          obj.URL,
				BlobKey:      obj.Key,
				Digest:       hex.EncodeToString(sum[:]),
				SizeBytes:    int64(len(doc.Content)),
				ContentType:  doc.ContentType,
				CreatedAt:    now,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(ctx, batch)
		return nil, err
	}
	return batch, nil
}

// discard deletes the blobs of a batch that will never be referenced. Failures
// are logged; the caller's error is what matters.
func (s *Service) discard(ctx context.Context, batch []*models.Evidence) {
	ctx = context.WithoutCancel(ctx)
	for _, e := range batch {
		if e == nil {
			continue
		}
		if err := s.blobs.Delete(ctx, e.BlobKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned evidence blob",
				"blob_key", e.BlobKey,
				"account_id", e.AccountID,
				"error", err,
			)
		}
	}
}

func (s *Service) uploadFailed(ctx context.Context, caller id.AccountID, role models.Role, cause error) {
	if s.metrics != nil {
		s.metrics.UploadFailures.Inc()
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.record(ctx, audit.EventUploadFailed, caller, caller,
			"role", string(role),
			"reason", cause.Error(),
		)
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to record upload failure", "account_id", caller, "error", err)
	}
}

func wrapProfileErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	if errors.Is(err, sentinel.ErrHasDependents) {
		return dErrors.New(dErrors.CodeConflict, "role profile is referenced by placements")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "role profile store error")
}

func deviceLabel(ctx context.Context) string {
	return device.ParseUserAgent(requestcontext.UserAgent(ctx))
}
