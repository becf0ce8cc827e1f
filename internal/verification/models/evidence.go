package models

import (
	"strings"
	"time"

	id "campusgate/pkg/domain"
)

// DocumentKind is the closed set of evidence types.
type DocumentKind string

const (
	KindInstitutionID       DocumentKind = "INSTITUTION_ID"
	KindAuthorizationLetter DocumentKind = "AUTHORIZATION_LETTER"
	KindCompanyID           DocumentKind = "COMPANY_ID"
	KindBusinessCard        DocumentKind = "BUSINESS_CARD"
	KindGovernmentID        DocumentKind = "GOVERNMENT_ID"
	KindDepartmentLetter    DocumentKind = "DEPARTMENT_LETTER"
	KindStudentID           DocumentKind = "STUDENT_ID"
)

func ParseDocumentKind(raw string) DocumentKind {
	return DocumentKind(strings.ToUpper(strings.TrimSpace(raw)))
}

// Evidence is one uploaded document. Rows are append-only.
type Evidence struct {
	ID           id.EvidenceID   `json:"id"`
	AccountID    id.AccountID    `json:"account_id"`
	SubmissionID id.SubmissionID `json:"submission_id"`
	Kind         DocumentKind    `json:"kind"`
	URL          string          `json:"url"`
	BlobKey      string          `json:"-"`
	Digest       string          `json:"digest"`
	SizeBytes    int64           `json:"size_bytes"`
	ContentType  string          `json:"content_type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Kinds returns the distinct kinds present in batch.
func Kinds(batch []*Evidence) []DocumentKind {
	seen := make(map[DocumentKind]struct{}, len(batch))
	out := make([]DocumentKind, 0, len(batch))
	for _, e := range batch {
		if _, ok := seen[e.Kind]; ok {
			continue
		}
		seen[e.Kind] = struct{}{}
		out = append(out, e.Kind)
	}
	return out
}
