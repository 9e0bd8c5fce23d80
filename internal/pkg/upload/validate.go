package upload

import (
	"bytes"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// MaxEbookSize is the largest accepted ebook file (50 MiB)
	MaxEbookSize = 50 * 1024 * 1024
	// MaxCoverSize is the largest accepted cover image (5 MiB)
	MaxCoverSize = 5 * 1024 * 1024
)

var ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

var allowedEbookExt = map[string]string{
	".epub": "application/epub+zip",
	".mobi": "application/x-mobipocket-ebook",
	".pdf":  "application/pdf",
}

var allowedCoverExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedCoverMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateEbookBySniff checks the filename extension and the first bytes of
// an ebook upload against the supported formats. Returns the mime type and
// normalized format name, or an error.
func ValidateEbookBySniff(filename string, head []byte) (mime, format string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	expectedMime, ok := allowedEbookExt[ext]
	if !ok {
		return "", "", errors.New("only EPUB, MOBI and PDF files are supported")
	}

	switch ext {
	case ".pdf":
		if !bytes.HasPrefix(head, []byte("%PDF-")) {
			return "", "", errors.New("file content does not match a PDF document")
		}
	case ".epub":
		// EPUB is a ZIP container
		if !bytes.HasPrefix(head, []byte("PK\x03\x04")) {
			return "", "", errors.New("file content does not match an EPUB container")
		}
	case ".mobi":
		// PalmDOC header carries BOOKMOBI at offset 60
		if len(head) < 68 || !bytes.Equal(head[60:68], []byte("BOOKMOBI")) {
			return "", "", errors.New("file content does not match a MOBI document")
		}
	}

	return expectedMime, strings.TrimPrefix(ext, "."), nil
}

// ValidateCoverBySniff checks the filename extension and the first bytes of
// a cover image upload against a whitelist of image types. Returns the
// detected mime type or an error.
func ValidateCoverBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedCoverExt[ext] {
		return "", errors.New("only JPG, JPEG, PNG and WEBP cover images are supported")
	}

	detected := http.DetectContentType(head)

	// Block scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", errors.New("invalid file type: HTML content is not allowed")
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", errors.New("SVG/XML images are not supported")
	}

	if allowedCoverMime[detected] {
		return detected, nil
	}

	return "", errors.New("the file type is not supported")
}
