package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/credit-extract/internal/model"
	"github.com/sells-group/credit-extract/internal/store"
)

// uploadField is the multipart field carrying the document.
const uploadField = "file"

// server holds the HTTP handlers. st may be nil, in which case outcomes are
// returned but not persisted.
type server struct {
	pipeline  documentProcessor
	st        store.OutcomeStore
	maxUpload int64
}

func newServer(p documentProcessor, st store.OutcomeStore, maxUploadMB int) *server {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &server{pipeline: p, st: st, maxUpload: int64(maxUploadMB) << 20}
}

// routes builds the router with CORS for origins.
func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Outcome-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Get("/outcomes", s.handleListOutcomes)
		r.Get("/outcomes/{id}", s.handleGetOutcome)
	})
	return r
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	f, hdr, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	ct := contentType(hdr.Header.Get("Content-Type"), hdr.Filename, data)
	doc := model.NewDocumentInput(data, ct, hdr.Filename)
	outcome := s.pipeline.ProcessDocument(r.Context(), doc)

	if s.st != nil {
		id, err := s.st.SaveOutcome(r.Context(), doc.Filename(), outcome)
		if err != nil {
			zap.L().Error("serve: save outcome failed", zap.String("filename", doc.Filename()), zap.Error(err))
		} else {
			w.Header().Set("X-Outcome-ID", id)
			w.Header().Set("Location", "/v1/outcomes/"+id)
		}
	}
	writeJSONResponse(w, http.StatusOK, outcome)
}

func (s *server) handleGetOutcome(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, http.StatusNotImplemented, "no store configured")
		return
	}
	rec, err := s.st.GetOutcome(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "outcome not found")
		return
	}
	if err != nil {
		zap.L().Error("serve: get outcome failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load outcome")
		return
	}
	writeJSONResponse(w, http.StatusOK, rec)
}

func (s *server) handleListOutcomes(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, http.StatusNotImplemented, "no store configured")
		return
	}

	q := r.URL.Query()
	var filter store.OutcomeFilter
	if v := q.Get("method"); v != "" {
		m, err := model.ParseMethod(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown method")
			return
		}
		filter.Method = m
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		filter.Since = t
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
				return
			}
			*dst = n
		}
	}

	recs, err := s.st.ListOutcomes(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list outcomes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list outcomes")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSONResponse(w, http.StatusOK, recs)
}

// requestID tags each request with an id, echoing a caller-supplied one, and
// logs it once the handler returns.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("serve: request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, map[string]string{"error": msg})
}
