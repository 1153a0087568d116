package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/store"
)

// fakeProcessor records documents and returns a fixed outcome.
type fakeProcessor struct {
	mu     sync.Mutex
	docs   []model.DocumentInput
	method model.Method
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, doc model.DocumentInput) *model.ExtractionOutcome {
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()

	m := f.method
	if m == 0 {
		m = model.MethodStructuredDocument
	}
	d := model.NewStructuredCreditData()
	d.ExtractionMetadata.ProcessingMethod = m
	return &model.ExtractionOutcome{
		Text:             "text of " + doc.Filename(),
		Pages:            1,
		Confidence:       88,
		ProcessingMethod: m,
		ExtractedData:    d,
	}
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func multipartBody(t *testing.T, field, filename, ctype string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if ctype != "" {
		h.Set("Content-Type", ctype)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequestIDEchoed(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestExtract_StoresAndReturnsOutcome(t *testing.T) {
	proc := &fakeProcessor{}
	st := newTestStore(t)
	h := newServer(proc, st, 1).routes([]string{"*"})

	body, ctype := multipartBody(t, "file", "report.pdf", "", []byte("%PDF-1.4\n"))
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out model.ExtractionOutcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "text of report.pdf", out.Text)
	assert.Equal(t, model.MethodStructuredDocument, out.ProcessingMethod)

	require.Len(t, proc.docs, 1)
	assert.Equal(t, model.MimePDF, proc.docs[0].Kind(), "kind resolved from extension")

	id := rr.Header().Get("X-Outcome-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, "/v1/outcomes/"+id, rr.Header().Get("Location"))

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/v1/outcomes/"+id, nil))
	require.Equal(t, http.StatusOK, get.Code)

	var rec store.Record
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &rec))
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "report.pdf", rec.Filename)
	assert.InDelta(t, 88, rec.Confidence, 0.001)
}

func TestExtract_SniffsUndeclaredType(t *testing.T) {
	proc := &fakeProcessor{}
	h := newServer(proc, nil, 1).routes([]string{"*"})

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	body, ctype := multipartBody(t, "file", "upload", "application/octet-stream", png)
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, proc.docs, 1)
	assert.Equal(t, model.MimePNG, proc.docs[0].Kind())
	assert.Empty(t, rr.Header().Get("X-Outcome-ID"))
}

func TestExtract_BadRequests(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"*"})

	// Not multipart.
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewBufferString(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Wrong field name.
	body, ctype := multipartBody(t, "document", "a.pdf", "application/pdf", []byte("%PDF-1.4"))
	req = httptest.NewRequest(http.MethodPost, "/v1/extract", body)
	req.Header.Set("Content-Type", ctype)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "file is required")
}

func TestExtract_TooLarge(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"*"})

	body, ctype := multipartBody(t, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
	req.Header.Set("Content-Type", ctype)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestGetOutcome_NotFound(t *testing.T) {
	h := newServer(&fakeProcessor{}, newTestStore(t), 1).routes([]string{"*"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/outcomes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOutcomes_NoStore(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"*"})

	for _, path := range []string{"/v1/outcomes/abc", "/v1/outcomes"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotImplemented, rr.Code, path)
	}
}

func TestListOutcomes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	proc := &fakeProcessor{}
	for _, m := range []model.Method{model.MethodFallback, model.MethodGeneralOCR, model.MethodFallback} {
		proc.method = m
		_, err := st.SaveOutcome(ctx, "x.pdf", proc.ProcessDocument(ctx, model.DocumentInput{}))
		require.NoError(t, err)
	}
	h := newServer(proc, st, 1).routes([]string{"*"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/outcomes?method=fallback&limit=10", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []store.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	assert.Len(t, recs, 2)

	for _, q := range []string{"method=bogus", "since=yesterday", "limit=-1", "offset=x"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/outcomes?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newServer(&fakeProcessor{}, nil, 1).routes([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/v1/extract", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
