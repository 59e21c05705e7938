package verification

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/saloneverid/internal/imagedecoder"
	"github.com/example/saloneverid/internal/logging"
	"github.com/example/saloneverid/internal/vision"
)

const (
	verifiedMatchScore   = 100.0
	unverifiedMatchScore = 40.0
	minDocumentTextRunes = 4
)

// RealPolicy accepts any score above 70. Document validity is recorded but
// does not affect the status.
var RealPolicy = Policy{MinScore: 70, Inclusive: false, RequireDocument: false}

// RealProvider delegates to the vision service.
type RealProvider struct {
	client vision.Client
	logger *zap.Logger
}

func NewRealProvider(client vision.Client, logger *zap.Logger) *RealProvider {
	return &RealProvider{client: client, logger: logger.Named("real_provider")}
}

func (p *RealProvider) Name() string { return "real" }

func (p *RealProvider) Policy() Policy { return RealPolicy }

// Verify compares faces and reads the document. A missing image short-circuits
// the corresponding check to its failing value without calling the service.
func (p *RealProvider) Verify(ctx context.Context, selfie, document *imagedecoder.Image) (Result, error) {
	result := Result{MatchScore: unverifiedMatchScore}

	if selfie != nil && document != nil {
		match, err := p.client.CompareFaces(ctx, selfie.Data, document.Data)
		if err != nil {
			return Result{}, logging.NewOperationError("verification.compare_faces", "", err)
		}
		if match.Verified {
			result.MatchScore = verifiedMatchScore
		}
	} else {
		p.logger.Debug("skipping face comparison", zap.Bool("selfie", selfie != nil), zap.Bool("document", document != nil))
	}

	if document != nil {
		text, err := p.client.ExtractText(ctx, document.Data)
		if err != nil {
			return Result{}, logging.NewOperationError("verification.extract_text", "", err)
		}
		result.DocumentValid = utf8.RuneCountInString(text) >= minDocumentTextRunes
	}

	return result, nil
}
