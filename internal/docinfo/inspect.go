// Package docinfo inspects raw document payloads before any extraction tier
// spends a call on them.
package docinfo

import (
	"bytes"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/http"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	cmodel "github.com/sells-group/credit-extract/internal/model"
)

func init() {
	api.DisableConfigDir()
}

var (
	pdfMagic  = []byte("%PDF-")
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// Info describes a payload.
type Info struct {
	// Kind is the kind detected from content, which may differ from the
	// declared kind.
	Kind cmodel.MimeKind
	// Pages is the page count, 0 when unknown. Raster images count as 1.
	Pages int
	// Corrupt is set when the payload cannot be what it claims to be.
	Corrupt bool
	Reason  string
	Width   int
	Height  int
}

// Sniff detects the kind from magic bytes, falling back to
// http.DetectContentType.
func Sniff(data []byte) cmodel.MimeKind {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return cmodel.MimePDF
	case bytes.HasPrefix(data, pngMagic):
		return cmodel.MimePNG
	case bytes.HasPrefix(data, jpegMagic):
		return cmodel.MimeJPEG
	}
	return cmodel.ParseMimeKind(http.DetectContentType(data))
}

// Inspect checks that data is plausibly a document of the declared kind and
// counts its pages. It never returns an error: unreadable input is reported
// through Corrupt.
func Inspect(data []byte, declared cmodel.MimeKind) Info {
	if len(bytes.TrimSpace(data)) == 0 {
		return Info{Kind: declared, Corrupt: true, Reason: "empty payload"}
	}

	detected := Sniff(data)
	info := Info{Kind: detected}

	switch declared {
	case cmodel.MimePDF:
		// PDFs may carry leading junk before the header; search the first KB.
		head := data
		if len(head) > 1024 {
			head = head[:1024]
		}
		if !bytes.Contains(head, pdfMagic) {
			info.Corrupt = true
			info.Reason = "missing PDF header"
			return info
		}
		info.Kind = cmodel.MimePDF
		info.Pages = PDFPages(data)
	case cmodel.MimePNG, cmodel.MimeJPEG:
		if !detected.IsImage() {
			info.Corrupt = true
			info.Reason = "payload is not a raster image"
			return info
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil || cfg.Width == 0 || cfg.Height == 0 {
			info.Corrupt = true
			info.Reason = "unreadable image header"
			return info
		}
		info.Pages = 1
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	return info
}

// PDFPages returns the page count, or 0 when pdfcpu cannot read the file.
// Upstream services are more forgiving than pdfcpu, so a failure here is not
// treated as corruption.
func PDFPages(data []byte) int {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0
	}
	return n
}
