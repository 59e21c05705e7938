package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/saloneverid/internal/imagedecoder"
	"github.com/example/saloneverid/internal/logging"
	"github.com/example/saloneverid/internal/metrics"
	"github.com/example/saloneverid/internal/repository"
	"github.com/example/saloneverid/internal/verification"
)

// VerificationRepository defines the storage operations needed by the use case.
type VerificationRepository interface {
	Save(ctx context.Context, verdict *repository.Verdict) error
	FindByReferenceID(ctx context.Context, referenceID string) (*repository.Verdict, error)
	AggregateSummary(ctx context.Context) (*repository.Summary, error)
}

// Submission is one KYC request. Only the two images feed the checks; the
// personal fields are accepted and not retained.
type Submission struct {
	FullName       string
	DateOfBirth    string
	DocumentType   string
	DocumentNumber string
	SelfieImage    string
	IDImage        string
}

// SubmitResult is returned to the caller after a submission.
type SubmitResult struct {
	ReferenceID string
	Status      verification.Status
}

// VerificationUseCase encapsulates the submit and status flows.
type VerificationUseCase struct {
	repo     VerificationRepository
	provider verification.Provider
	decoder  *imagedecoder.Decoder
	metrics  *metrics.Metrics
	logger   *zap.Logger
	newID    func() string
	now      func() time.Time
}

// NewVerificationUseCase constructs a new use case instance.
func NewVerificationUseCase(repo VerificationRepository, provider verification.Provider, decoder *imagedecoder.Decoder, m *metrics.Metrics, logger *zap.Logger) *VerificationUseCase {
	if decoder == nil {
		decoder = imagedecoder.NewDecoder(imagedecoder.DefaultMaxPixels)
	}
	return &VerificationUseCase{
		repo:     repo,
		provider: provider,
		decoder:  decoder,
		metrics:  m,
		logger:   logger.Named("verification_usecase"),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProviderName reports which verification provider is wired in.
func (uc *VerificationUseCase) ProviderName() string {
	return uc.provider.Name()
}

// Submit decodes both images, runs the provider, classifies and stores the
// verdict. Undecodable images are passed on as nil; only provider and storage
// failures return an error, in which case nothing is stored.
func (uc *VerificationUseCase) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	referenceID := uc.newID()
	opLogger := logging.WithOperation(uc.logger, "usecase.submit", referenceID)

	selfie := uc.decode(opLogger, "selfie_image", sub.SelfieImage)
	document := uc.decode(opLogger, "id_image", sub.IDImage)

	started := time.Now()
	result, err := uc.provider.Verify(ctx, selfie, document)
	uc.metrics.ObserveProvider(uc.provider.Name(), started, err)
	if err != nil {
		wrapped := logging.NewProviderError("usecase.verify", referenceID, uc.provider.Name(), err)
		opLogger.Error("verification provider failed", zap.Error(wrapped))
		return nil, wrapped
	}

	status := verification.Classify(uc.provider.Policy(), result)
	verdict := &repository.Verdict{
		ReferenceID:   referenceID,
		Status:        status,
		MatchScore:    result.MatchScore,
		DocumentValid: result.DocumentValid,
		Provider:      uc.provider.Name(),
		CreatedAt:     uc.now(),
	}
	if err := uc.repo.Save(ctx, verdict); err != nil {
		wrapped := logging.NewStorageError("usecase.save_verdict", referenceID, err)
		opLogger.Error("failed to store verdict", zap.Error(wrapped))
		return nil, wrapped
	}

	uc.metrics.ObserveSubmission(verdict.Provider, string(status))
	opLogger.Info("submission classified",
		zap.String("status", string(status)),
		zap.Float64("match_score", result.MatchScore),
		zap.Bool("document_valid", result.DocumentValid),
		zap.String("document_type", sub.DocumentType),
	)

	return &SubmitResult{ReferenceID: referenceID, Status: status}, nil
}

// GetStatus returns the stored verdict, or a not_found verdict with a zero
// score for ids that were never issued.
func (uc *VerificationUseCase) GetStatus(ctx context.Context, referenceID string) (*repository.Verdict, error) {
	verdict, err := uc.repo.FindByReferenceID(ctx, referenceID)
	if errors.Is(err, repository.ErrNotFound) {
		uc.metrics.ObserveLookup(false)
		return &repository.Verdict{ReferenceID: referenceID, Status: verification.StatusNotFound}, nil
	}
	if err != nil {
		return nil, logging.NewStorageError("usecase.get_status", referenceID, err)
	}
	uc.metrics.ObserveLookup(true)
	return verdict, nil
}

func (uc *VerificationUseCase) decode(logger *zap.Logger, field, payload string) *imagedecoder.Image {
	img, err := uc.decoder.Decode(payload)
	if err != nil {
		uc.metrics.ObserveUndecodable(field)
		logger.Warn("image could not be decoded", zap.String("field", field), zap.Error(err))
		return nil
	}
	return img
}
