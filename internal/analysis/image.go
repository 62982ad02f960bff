package analysis

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/kalambet/lenslog/internal/vision"
)

// MaxImageBytes caps the decoded size of one image.
const MaxImageBytes = 8 << 20

const defaultMediaType = "image/jpeg"

// supportedMediaTypes are the image formats every vision provider accepts.
var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DecodeImage validates a base64 image as sent by a client. A leading data URI
// prefix is dropped. The media type is sniffed from the decoded bytes.
func DecodeImage(encoded string) (vision.Image, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return vision.Image{}, newError(KindInvalidInput, nil, "No image provided")
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return vision.Image{}, newError(KindInvalidInput, err, "Invalid image encoding: expected base64")
	}
	if len(raw) == 0 {
		return vision.Image{}, newError(KindInvalidInput, nil, "No image provided")
	}
	if len(raw) > MaxImageBytes {
		return vision.Image{}, newError(KindInvalidInput, nil, "Image too large: %d bytes (max %d)", len(raw), MaxImageBytes)
	}

	mediaType := sniffMediaType(raw)
	if !supportedMediaTypes[mediaType] {
		return vision.Image{}, newError(KindInvalidInput, nil, "Unsupported image type %s: use JPEG, PNG, GIF or WebP", mediaType)
	}

	return vision.Image{
		Data:      base64.StdEncoding.EncodeToString(raw),
		MediaType: mediaType,
	}, nil
}

// EncodeImage base64-encodes raw image bytes for transport.
func EncodeImage(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// sniffMediaType reports the detected image type, or image/jpeg when the bytes
// are not recognised as an image at all.
func sniffMediaType(raw []byte) string {
	ct := http.DetectContentType(raw)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return defaultMediaType
}
