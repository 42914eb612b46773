package ai

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// MaxImageBytes caps accepted solver image uploads.
const MaxImageBytes = 8 << 20

// maxImageEdge is the longest edge kept after downscaling. Larger uploads
// are resized before being sent to a backend.
const maxImageEdge = 1600

// PrepareImage validates and normalizes an uploaded solver image. It
// decodes the payload, downscales anything wider or taller than
// maxImageEdge, and re-encodes. Undecodable payloads are a caller
// mistake, not a backend failure.
func PrepareImage(data []byte, mimeType string) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", NewClientInputError("image payload is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, "", NewClientInputError("image exceeds the %d MB limit", MaxImageBytes>>20)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", NewClientInputError("invalid image: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() <= maxImageEdge && bounds.Dy() <= maxImageEdge {
		if mimeType == "" {
			mimeType = "image/" + format
		}
		return data, mimeType, nil
	}

	if bounds.Dx() >= bounds.Dy() {
		decoded = imaging.Resize(decoded, maxImageEdge, 0, imaging.Lanczos)
	} else {
		decoded = imaging.Resize(decoded, 0, maxImageEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, decoded); err != nil {
			return nil, "", errors.Wrap(err, "failed to re-encode image")
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", errors.Wrap(err, "failed to re-encode image")
	}
	return buf.Bytes(), "image/jpeg", nil
}
