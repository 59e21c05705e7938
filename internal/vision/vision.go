package vision

import "context"

// FaceMatch is the outcome of comparing a selfie with the portrait on a document.
type FaceMatch struct {
	Verified bool
	Distance float64
}

// Client exposes the face comparison and text extraction capabilities used by
// the real verification provider.
type Client interface {
	CompareFaces(ctx context.Context, selfie, document []byte) (*FaceMatch, error)
	ExtractText(ctx context.Context, image []byte) (string, error)
}
