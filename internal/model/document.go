package model

import (
	"mime"
	"strings"

	"github.com/rotisserie/eris"
)

// MimeKind is the coarse document type used to decide which tiers apply.
type MimeKind string

const (
	MimePDF   MimeKind = "pdf"
	MimePNG   MimeKind = "png"
	MimeJPEG  MimeKind = "jpeg"
	MimeOther MimeKind = "other"
)

// IsImage reports whether the kind is a raster image.
func (k MimeKind) IsImage() bool {
	return k == MimePNG || k == MimeJPEG
}

// ContentType returns the canonical MIME type for the kind.
func (k MimeKind) ContentType() string {
	switch k {
	case MimePDF:
		return "application/pdf"
	case MimePNG:
		return "image/png"
	case MimeJPEG:
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// ParseMimeKind maps a declared content type to a MimeKind. Parameters such
// as "; charset=binary" are ignored. Unknown types map to MimeOther.
func ParseMimeKind(contentType string) MimeKind {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch mt {
	case "application/pdf", "application/x-pdf":
		return MimePDF
	case "image/png":
		return MimePNG
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return MimeJPEG
	default:
		return MimeOther
	}
}

// ErrEmptyDocument is returned by Validate for a zero-byte payload.
var ErrEmptyDocument = eris.New("model: document is empty")

// DocumentInput is an immutable uploaded document. The zero value is an
// empty document.
type DocumentInput struct {
	data     []byte
	mimeType string
	kind     MimeKind
	filename string
}

// NewDocumentInput copies data so later mutation by the caller cannot leak
// into a running extraction.
func NewDocumentInput(data []byte, mimeType, filename string) DocumentInput {
	buf := make([]byte, len(data))
	copy(buf, data)
	return DocumentInput{
		data:     buf,
		mimeType: mimeType,
		kind:     ParseMimeKind(mimeType),
		filename: filename,
	}
}

// Bytes returns a copy of the payload.
func (d DocumentInput) Bytes() []byte {
	buf := make([]byte, len(d.data))
	copy(buf, d.data)
	return buf
}

// Size returns the payload length in bytes.
func (d DocumentInput) Size() int { return len(d.data) }

// Kind returns the classified mime kind.
func (d DocumentInput) Kind() MimeKind {
	if d.kind == "" {
		return MimeOther
	}
	return d.kind
}

// MimeType returns the declared content type as supplied by the caller.
func (d DocumentInput) MimeType() string { return d.mimeType }

// Filename returns the original filename.
func (d DocumentInput) Filename() string { return d.filename }

// Validate checks the construction invariants.
func (d DocumentInput) Validate() error {
	if len(d.data) == 0 {
		return ErrEmptyDocument
	}
	return nil
}
