package usecase

import "context"

// SummaryReport represents aggregated verification insights.
type SummaryReport struct {
	TotalSubmissions    int64   `json:"total_submissions"`
	VerifiedSubmissions int64   `json:"verified_submissions"`
	VerifiedRate        float64 `json:"verified_rate"`
	AverageMatchScore   float64 `json:"average_match_score"`
}

// GetSummary aggregates the verdicts recorded so far.
func (uc *VerificationUseCase) GetSummary(ctx context.Context) (*SummaryReport, error) {
	aggregation, err := uc.repo.AggregateSummary(ctx)
	if err != nil {
		return nil, err
	}

	report := &SummaryReport{
		TotalSubmissions:    aggregation.TotalCount,
		VerifiedSubmissions: aggregation.VerifiedCount,
		AverageMatchScore:   aggregation.AverageMatchScore,
	}
	if aggregation.TotalCount > 0 {
		report.VerifiedRate = float64(aggregation.VerifiedCount) / float64(aggregation.TotalCount)
	}
	return report, nil
}
