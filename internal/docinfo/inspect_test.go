package docinfo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodel "github.com/sells-group/credit-extract/internal/model"
)

// buildPDF writes a minimal well-formed PDF with n blank pages and a correct
// cross-reference table.
func buildPDF(n int) []byte {
	var objs []string
	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
	)
	for i := 0; i < n; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for x := 0; x < 12; x++ {
		img.Set(x, 4, color.Black)
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func TestInspect_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("  \n\t ")} {
		info := Inspect(data, cmodel.MimePDF)
		assert.True(t, info.Corrupt)
		assert.Equal(t, "empty payload", info.Reason)
		assert.Zero(t, info.Pages)
	}
}

func TestInspect_PDF(t *testing.T) {
	info := Inspect(buildPDF(3), cmodel.MimePDF)
	assert.False(t, info.Corrupt)
	assert.Equal(t, cmodel.MimePDF, info.Kind)
	assert.Equal(t, 3, info.Pages)
}

func TestInspect_PDFMissingHeader(t *testing.T) {
	info := Inspect([]byte("this is not a pdf at all"), cmodel.MimePDF)
	assert.True(t, info.Corrupt)
	assert.Equal(t, "missing PDF header", info.Reason)
}

func TestInspect_PDFUnreadableBodyIsNotCorrupt(t *testing.T) {
	info := Inspect([]byte("%PDF-1.7\ngarbage that pdfcpu cannot parse"), cmodel.MimePDF)
	assert.False(t, info.Corrupt)
	assert.Zero(t, info.Pages)
}

func TestInspect_PNG(t *testing.T) {
	info := Inspect(pngBytes(t), cmodel.MimePNG)
	assert.False(t, info.Corrupt)
	assert.Equal(t, cmodel.MimePNG, info.Kind)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, 12, info.Width)
	assert.Equal(t, 8, info.Height)
}

func TestInspect_JPEG(t *testing.T) {
	info := Inspect(jpegBytes(t), cmodel.MimeJPEG)
	assert.False(t, info.Corrupt)
	assert.Equal(t, cmodel.MimeJPEG, info.Kind)
	assert.Equal(t, 1, info.Pages)
}

func TestInspect_MislabeledImage(t *testing.T) {
	// A JPEG declared as PNG is still a readable raster image.
	info := Inspect(jpegBytes(t), cmodel.MimePNG)
	assert.False(t, info.Corrupt)
	assert.Equal(t, cmodel.MimeJPEG, info.Kind)
}

func TestInspect_CorruptImage(t *testing.T) {
	info := Inspect([]byte("definitely not an image"), cmodel.MimePNG)
	assert.True(t, info.Corrupt)

	truncated := pngBytes(t)[:12]
	info = Inspect(truncated, cmodel.MimePNG)
	assert.True(t, info.Corrupt)
	assert.Equal(t, "unreadable image header", info.Reason)
}

func TestInspect_OtherKindPassesThrough(t *testing.T) {
	info := Inspect([]byte("plain text"), cmodel.MimeOther)
	assert.False(t, info.Corrupt)
	assert.Zero(t, info.Pages)
}

func TestSniff(t *testing.T) {
	assert.Equal(t, cmodel.MimePDF, Sniff([]byte("%PDF-1.4")))
	assert.Equal(t, cmodel.MimePNG, Sniff(pngBytes(t)))
	assert.Equal(t, cmodel.MimeJPEG, Sniff(jpegBytes(t)))
	assert.Equal(t, cmodel.MimeOther, Sniff([]byte("hello")))
}
