package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pdfHead() []byte {
	return []byte("%PDF-1.7\n%some pdf body")
}

func epubHead() []byte {
	return []byte("PK\x03\x04mimetypeapplication/epub+zip")
}

func mobiHead() []byte {
	head := make([]byte, 128)
	copy(head, "My Book Title")
	copy(head[60:], "BOOKMOBI")
	return head
}

func TestValidateEbookBySniff(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		head       []byte
		wantMime   string
		wantFormat string
		wantErr    bool
	}{
		{"valid pdf", "book.pdf", pdfHead(), "application/pdf", "pdf", false},
		{"valid epub", "book.epub", epubHead(), "application/epub+zip", "epub", false},
		{"valid mobi", "book.mobi", mobiHead(), "application/x-mobipocket-ebook", "mobi", false},
		{"uppercase extension", "BOOK.PDF", pdfHead(), "application/pdf", "pdf", false},
		{"unsupported extension", "book.txt", []byte("hello"), "", "", true},
		{"pdf extension with zip content", "book.pdf", epubHead(), "", "", true},
		{"epub extension with pdf content", "book.epub", pdfHead(), "", "", true},
		{"mobi with short head", "book.mobi", []byte("short"), "", "", true},
		{"html masquerading as pdf", "book.pdf", []byte("<html><body>"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, format, err := ValidateEbookBySniff(tt.filename, tt.head)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMime, mime)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestValidateCoverBySniff(t *testing.T) {
	jpegHead := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngHead := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

	t.Run("valid jpeg", func(t *testing.T) {
		mime, err := ValidateCoverBySniff("cover.jpg", jpegHead)
		assert.NoError(t, err)
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("valid png", func(t *testing.T) {
		mime, err := ValidateCoverBySniff("cover.png", pngHead)
		assert.NoError(t, err)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ValidateCoverBySniff("cover.gif", jpegHead)
		assert.Error(t, err)
	})

	t.Run("html content blocked", func(t *testing.T) {
		_, err := ValidateCoverBySniff("cover.jpg", []byte("<html><script>"))
		assert.Error(t, err)
	})

	t.Run("svg content blocked", func(t *testing.T) {
		_, err := ValidateCoverBySniff("cover.png", []byte(`<?xml version="1.0"?><svg>`))
		assert.Error(t, err)
	})

	t.Run("mismatched content", func(t *testing.T) {
		_, err := ValidateCoverBySniff("cover.jpg", []byte("just some plain text here"))
		assert.Error(t, err)
	})
}
