// Package imaging normalizes captured frames and uploaded scans into the
// encodings the recognition backends accept.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// JPEGQuality is used for every JPEG this package encodes
const JPEGQuality = 90

// ErrEmpty is returned when there is no image data to convert
var ErrEmpty = errors.New("empty image data")

// NormalizeType lowercases a MIME type and strips parameters, defaulting to image/jpeg
func NormalizeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// Decode turns JPEG, PNG, GIF, HEIC/HEIF or the first page of a PDF into an image
func Decode(data []byte, contentType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	mimeType := NormalizeType(contentType)

	if mimeType == "application/pdf" || IsPDF(data) {
		img, err := pdfFirstPage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return img, nil
	}

	// Go's standard image package doesn't support HEIC
	if IsHEIC(data) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// ToJPEG re-encodes data as JPEG; JPEG input is returned untouched
func ToJPEG(data []byte, contentType string) ([]byte, error) {
	if IsJPEG(data) {
		return data, nil
	}
	img, err := Decode(data, contentType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// ToPNG re-encodes data as PNG; PNG input is returned untouched
func ToPNG(data []byte, contentType string) ([]byte, error) {
	if IsPNG(data) {
		return data, nil
	}
	img, err := Decode(data, contentType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfFirstPage renders the first page only
func pdfFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// IsJPEG checks for the SOI marker
func IsJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}

// IsPNG checks for the PNG signature
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}

// IsPDF checks for the %PDF- header
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// IsHEIC checks for an ftyp box with a HEIC-related brand at offset 4
func IsHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
