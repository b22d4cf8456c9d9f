package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes caps avatar and food photo uploads.
const MaxImageBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

// ObjectStorage stores a public object and returns its URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// SniffImage checks size and detects the content type from the bytes themselves.
// It returns the content type and file extension.
func SniffImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", errors.New("empty image")
	}
	if len(data) > MaxImageBytes {
		return "", "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExt[ct]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	return ct, ext, nil
}

// DecodeDataURL accepts "data:<mime>;base64,<payload>" or a bare base64 payload.
func DecodeDataURL(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return data, nil
}
