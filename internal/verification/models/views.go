package models

import (
	orgmodels "campusgate/internal/organization/models"
)

// VerificationStatus is the caller-facing status read.
type VerificationStatus struct {
	Role     Role    `json:"role"`
	Status   Status  `json:"status"`
	Feedback *string `json:"feedback,omitempty"`
}

// CanSubmit applies the account's submission gate to a status read.
func (v *VerificationStatus) CanSubmit() error {
	return v.Status.acceptsSubmission()
}

// SubmissionView is one entry of a reviewer's queue.
type SubmissionView struct {
	Account      *Account           `json:"account"`
	Profile      *Profile           `json:"profile,omitempty"`
	Evidence     []*Evidence        `json:"evidence"`
	Organization *orgmodels.Summary `json:"organization,omitempty"`
}

// SubmitResult is returned after a successful submission.
type SubmitResult struct {
	Account  *Account    `json:"account"`
	Profile  *Profile    `json:"profile"`
	Evidence []*Evidence `json:"evidence"`
}
