package google

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/rotisserie/eris"
	vision "google.golang.org/api/vision/v1"

	"github.com/sells-group/credit-extract/internal/docinfo"
)

const (
	serviceVision = "vision"

	featureDocumentText = "DOCUMENT_TEXT_DETECTION"

	// defaultMaxPages is the synchronous files:annotate page limit.
	defaultMaxPages = 5
)

// Vision runs Cloud Vision dense text detection.
type Vision interface {
	DetectText(ctx context.Context, content []byte, mimeType string) (*Document, error)
}

type visionClient struct {
	svc *vision.Service
	set *settings
}

// NewVision creates a Cloud Vision client.
func NewVision(ctx context.Context, opts ...Option) (Vision, error) {
	s := newSettings(opts)
	if s.maxPages <= 0 || s.maxPages > defaultMaxPages {
		s.maxPages = defaultMaxPages
	}
	svc, err := vision.NewService(ctx, s.clientOptions()...)
	if err != nil {
		return nil, eris.Wrap(err, "google: create vision service")
	}
	return &visionClient{svc: svc, set: s}, nil
}

// DetectText annotates a raster image, or the first pages of a PDF.
func (c *visionClient) DetectText(ctx context.Context, content []byte, mimeType string) (*Document, error) {
	return guarded(ctx, c.set, serviceVision, "annotate", func(ctx context.Context) (*Document, error) {
		if mimeType == "application/pdf" || mimeType == "image/tiff" {
			return c.annotateFile(ctx, content, mimeType)
		}
		return c.annotateImage(ctx, content)
	})
}

func (c *visionClient) annotateImage(ctx context.Context, content []byte) (*Document, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(content)},
			Features: []*vision.Feature{{Type: featureDocumentText}},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrap(wrapAPIError(serviceVision, err), "google: vision images annotate")
	}
	if len(resp.Responses) == 0 {
		return nil, ErrNoText
	}
	return collect(resp.Responses)
}

func (c *visionClient) annotateFile(ctx context.Context, content []byte, mimeType string) (*Document, error) {
	n := c.set.maxPages
	if total := docinfo.PDFPages(content); total > 0 && total < n {
		n = total
	}
	pages := make([]int64, n)
	for i := range pages {
		pages[i] = int64(i + 1)
	}
	req := &vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{{
			InputConfig: &vision.InputConfig{
				Content:  base64.StdEncoding.EncodeToString(content),
				MimeType: mimeType,
			},
			Features: []*vision.Feature{{Type: featureDocumentText}},
			Pages:    pages,
		}},
	}
	resp, err := c.svc.Files.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrap(wrapAPIError(serviceVision, err), "google: vision files annotate")
	}
	if len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, ErrNoText
	}
	file := resp.Responses[0]
	if file.Error != nil && file.Error.Code != 0 {
		return nil, statusError(serviceVision, file.Error.Code, file.Error.Message)
	}
	doc, err := collect(file.Responses)
	if err != nil {
		return nil, err
	}
	if file.TotalPages > int64(doc.Pages) {
		doc.Pages = int(file.TotalPages)
	}
	return doc, nil
}

// collect joins per-image responses into one document. A single errored
// response fails the whole call.
func collect(responses []*vision.AnnotateImageResponse) (*Document, error) {
	var parts []string
	doc := &Document{}
	var sum float64
	var n int
	for _, r := range responses {
		if r == nil {
			continue
		}
		if r.Error != nil && r.Error.Code != 0 {
			return nil, statusError(serviceVision, r.Error.Code, r.Error.Message)
		}
		if r.FullTextAnnotation == nil {
			continue
		}
		if t := strings.TrimSpace(r.FullTextAnnotation.Text); t != "" {
			parts = append(parts, t)
		}
		for _, p := range r.FullTextAnnotation.Pages {
			doc.Pages++
			if p != nil && p.Confidence > 0 {
				sum += p.Confidence
				n++
			}
		}
	}
	if len(parts) == 0 {
		return nil, ErrNoText
	}
	doc.Text = strings.Join(parts, "\n")
	if n > 0 {
		doc.Confidence = sum / float64(n)
		doc.Scored = true
	}
	return doc, nil
}
