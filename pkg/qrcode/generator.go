package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrFailedToGenerate = errors.New("failed to generate QR code")
	ErrInvalidImageSize = errors.New("image size must be between 64 and 1024 pixels")
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 1024
)

// Generate renders content as a PNG QR code of size×size pixels. A
// non-positive size selects DefaultSize.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, ErrInvalidImageSize
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// DataURI renders content and returns it as a data:image/png;base64 URI
// that can be placed straight into an <img src>.
func DataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
