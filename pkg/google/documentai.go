package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	documentai "google.golang.org/api/documentai/v1"
)

const serviceDocumentAI = "documentai"

// DocumentAI runs a layout-aware Document AI processor.
type DocumentAI interface {
	Process(ctx context.Context, content []byte, mimeType string) (*Document, error)
}

// ProcessorConfig identifies a Document AI processor.
type ProcessorConfig struct {
	Project     string
	Location    string
	ProcessorID string
}

// Name returns the processor resource name.
func (p ProcessorConfig) Name() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", p.Project, p.Location, p.ProcessorID)
}

// Endpoint returns the regional service root for the processor location.
func (p ProcessorConfig) Endpoint() string {
	loc := p.Location
	if loc == "" {
		loc = "us"
	}
	return fmt.Sprintf("https://%s-documentai.googleapis.com/", loc)
}

type documentAIClient struct {
	svc  *documentai.Service
	name string
	set  *settings
}

// NewDocumentAI creates a Document AI client for the given processor.
func NewDocumentAI(ctx context.Context, proc ProcessorConfig, opts ...Option) (DocumentAI, error) {
	if proc.Project == "" || proc.ProcessorID == "" {
		return nil, eris.New("google: documentai project and processor id are required")
	}
	if proc.Location == "" {
		proc.Location = "us"
	}
	s := newSettings(opts)
	if s.endpoint == "" {
		s.endpoint = proc.Endpoint()
	}
	svc, err := documentai.NewService(ctx, s.clientOptions()...)
	if err != nil {
		return nil, eris.Wrap(err, "google: create documentai service")
	}
	return &documentAIClient{svc: svc, name: proc.Name(), set: s}, nil
}

func (c *documentAIClient) Process(ctx context.Context, content []byte, mimeType string) (*Document, error) {
	return guarded(ctx, c.set, serviceDocumentAI, "process", func(ctx context.Context) (*Document, error) {
		req := &documentai.GoogleCloudDocumentaiV1ProcessRequest{
			RawDocument: &documentai.GoogleCloudDocumentaiV1RawDocument{
				Content:  base64.StdEncoding.EncodeToString(content),
				MimeType: mimeType,
			},
			SkipHumanReview: true,
		}
		resp, err := c.svc.Projects.Locations.Processors.Process(c.name, req).Context(ctx).Do()
		if err != nil {
			return nil, eris.Wrap(wrapAPIError(serviceDocumentAI, err), "google: documentai process")
		}
		if resp.Document == nil || strings.TrimSpace(resp.Document.Text) == "" {
			return nil, ErrNoText
		}

		doc := &Document{Text: resp.Document.Text, Pages: len(resp.Document.Pages)}
		var sum float64
		var n int
		for _, p := range resp.Document.Pages {
			if p == nil || p.Layout == nil || p.Layout.Confidence <= 0 {
				continue
			}
			sum += p.Layout.Confidence
			n++
		}
		if n > 0 {
			doc.Confidence = sum / float64(n)
			doc.Scored = true
		}
		return doc, nil
	})
}
