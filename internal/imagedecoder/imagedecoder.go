// Package imagedecoder turns base64 image payloads into decoded images.
// Anything that cannot be decoded yields a nil *Image, the "no image" value
// the verification flow accepts as input.
package imagedecoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable marks payloads that are not base64 encoded images.
var ErrUndecodable = errors.New("undecodable image")

// Image is a decoded upload. The raw bytes are kept so they can be forwarded
// to external services unchanged.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DefaultMaxPixels matches the decompression-bomb ceiling common image
// libraries use (about 89.5 megapixels).
const DefaultMaxPixels int64 = 1024 * 1024 * 1024 / 4 / 3

// Decoder decodes uploads, refusing images whose header declares more than
// MaxPixels pixels before any pixel data is allocated.
type Decoder struct {
	MaxPixels int64
}

// NewDecoder returns a Decoder; a non-positive maxPixels selects DefaultMaxPixels.
func NewDecoder(maxPixels int64) *Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Decoder{MaxPixels: maxPixels}
}

// Decode parses payload with DefaultMaxPixels.
func Decode(payload string) (*Image, error) {
	return NewDecoder(DefaultMaxPixels).Decode(payload)
}

// Decode parses payload. On failure it returns a nil image and an error
// wrapping ErrUndecodable.
func (d *Decoder) Decode(payload string) (*Image, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > d.MaxPixels {
		return nil, fmt.Errorf("%w: %s of %dx%d exceeds %d pixels", ErrUndecodable, format, cfg.Width, cfg.Height, d.MaxPixels)
	}
	// DecodeConfig only reads the header; a full decode catches truncated bodies.
	if _, _, err := image.Decode(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUndecodable, format, err)
	}

	return &Image{
		Data:   raw,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(stripDataURI(payload))
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrUndecodable)
	}

	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUndecodable, lastErr)
}

// stripDataURI drops a "data:image/png;base64," style prefix.
func stripDataURI(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if idx := strings.Index(payload, ","); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}
