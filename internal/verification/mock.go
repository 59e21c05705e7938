package verification

import (
	"context"
	"strings"

	"github.com/example/saloneverid/internal/imagedecoder"
)

const (
	mockMatchScore  = 95.0
	mockExtractedID = "EXTRACTED123456"
	mockIDPrefix    = "EXTRACTED"
)

// MockPolicy accepts scores of at least 90 with a valid document.
var MockPolicy = Policy{MinScore: 90, Inclusive: true, RequireDocument: true}

// MockProvider ignores image content and always reports a strong match with a
// readable document. Used for demos and deployments without the vision service.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Policy() Policy { return MockPolicy }

func (p *MockProvider) Verify(_ context.Context, _, _ *imagedecoder.Image) (Result, error) {
	extracted := mockExtractedID
	return Result{
		MatchScore:    mockMatchScore,
		DocumentValid: strings.HasPrefix(extracted, mockIDPrefix),
	}, nil
}
