package repository

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/example/saloneverid/internal/verification"
)

var (
	// ErrNotFound is returned for reference ids that were never stored.
	ErrNotFound = errors.New("verdict not found")
	// ErrDuplicate is returned when a reference id already has a verdict.
	ErrDuplicate = errors.New("verdict already recorded")
)

// Verdict is the stored outcome of one submission.
type Verdict struct {
	ReferenceID   string
	Status        verification.Status
	MatchScore    float64
	DocumentValid bool
	Provider      string
	CreatedAt     time.Time
}

// Summary aggregates every stored verdict.
type Summary struct {
	TotalCount        int64
	VerifiedCount     int64
	AverageMatchScore float64
}

// VerificationRepository keeps verdicts in process memory for the lifetime of
// the server. Entries never expire and are never replaced.
type VerificationRepository struct {
	items *cache.Cache
}

// NewVerificationRepository creates an empty repository.
func NewVerificationRepository() *VerificationRepository {
	// A non-positive cleanup interval keeps go-cache from starting its janitor.
	return &VerificationRepository{items: cache.New(cache.NoExpiration, 0)}
}

// Save records a verdict under its reference id.
func (r *VerificationRepository) Save(_ context.Context, verdict *Verdict) error {
	if verdict == nil || verdict.ReferenceID == "" {
		return errors.New("verdict requires a reference id")
	}
	stored := *verdict
	if err := r.items.Add(verdict.ReferenceID, stored, cache.NoExpiration); err != nil {
		return ErrDuplicate
	}
	return nil
}

// FindByReferenceID returns a copy of the stored verdict.
func (r *VerificationRepository) FindByReferenceID(_ context.Context, referenceID string) (*Verdict, error) {
	value, ok := r.items.Get(referenceID)
	if !ok {
		return nil, ErrNotFound
	}
	verdict := value.(Verdict)
	return &verdict, nil
}

// AggregateSummary walks the stored verdicts.
func (r *VerificationRepository) AggregateSummary(_ context.Context) (*Summary, error) {
	summary := &Summary{}
	var scoreTotal float64
	for _, item := range r.items.Items() {
		verdict, ok := item.Object.(Verdict)
		if !ok {
			continue
		}
		summary.TotalCount++
		scoreTotal += verdict.MatchScore
		if verdict.Status == verification.StatusVerified {
			summary.VerifiedCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.AverageMatchScore = scoreTotal / float64(summary.TotalCount)
	}
	return summary, nil
}
