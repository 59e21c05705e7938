// Package verification holds the face-match and document checks behind a
// single Provider interface, and the rule that turns their output into a
// submission status.
package verification

import (
	"context"

	"github.com/example/saloneverid/internal/imagedecoder"
)

// Status is the outcome recorded for a submission.
type Status string

const (
	StatusVerified     Status = "verified"
	StatusManualReview Status = "manual_review"
	StatusNotFound     Status = "not_found"
)

// Result is what a provider reports for one selfie/document pair.
type Result struct {
	MatchScore    float64
	DocumentValid bool
}

// Provider runs the checks for a submission. Either image may be nil when the
// upload could not be decoded.
type Provider interface {
	Name() string
	Policy() Policy
	Verify(ctx context.Context, selfie, document *imagedecoder.Image) (Result, error)
}

// Policy is the acceptance rule paired with a provider's score scale.
type Policy struct {
	MinScore        float64
	Inclusive       bool
	RequireDocument bool
}

// Classify maps a provider result to verified or manual_review.
func Classify(policy Policy, result Result) Status {
	passed := result.MatchScore > policy.MinScore
	if policy.Inclusive {
		passed = result.MatchScore >= policy.MinScore
	}
	if policy.RequireDocument && !result.DocumentValid {
		passed = false
	}
	if passed {
		return StatusVerified
	}
	return StatusManualReview
}
