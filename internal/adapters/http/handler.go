package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/prima-scholar/internal/app/documents"
	"github.com/PabloGalante/prima-scholar/internal/app/excellence"
	"github.com/PabloGalante/prima-scholar/internal/app/mentorship"
	"github.com/PabloGalante/prima-scholar/internal/app/prediction"
	"github.com/PabloGalante/prima-scholar/internal/app/profiles"
	"github.com/PabloGalante/prima-scholar/internal/app/resources"
	"github.com/PabloGalante/prima-scholar/internal/config"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const (
	ServiceName    = "prima-scholar-api"
	ServiceVersion = "1.0.0"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services exposed over HTTP.
type Services struct {
	Database    Pinger
	Engine      *excellence.Engine
	Profiles    *profiles.Service
	Predictions *prediction.Service
	Mentorship  *mentorship.Service
	Documents   *documents.Service
	Resources   *resources.Curator
}

type Server struct {
	svc    Services
	cfg    *config.Config
	limits *rateLimits
}

func NewServer(svc Services, cfg *config.Config) http.Handler {
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		limits: newRateLimits(cfg.RateLimits),
	}

	general := s.limits.general.middleware
	mux := http.NewServeMux()

	// service
	mux.HandleFunc("/health", only(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/api/health", only(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/docs", only(http.MethodGet, s.handleDocs))
	mux.HandleFunc("/", s.handleIndex)

	// profiles and excellence
	mux.Handle("/api/profiles/{student_id}", general(only(http.MethodPut, s.handlePutProfile)))
	mux.Handle("/api/achievements", general(only(http.MethodPost, s.handleAddAchievement)))
	mux.Handle("/api/excellence-profile/{student_id}", general(only(http.MethodGet, s.handleExcellenceProfile)))
	mux.Handle("/api/update-excellence-profile", general(only(http.MethodPost, s.handleUpdateExcellence)))
	mux.Handle("/api/excellence-roadmap/{student_id}", general(only(http.MethodGet, s.handleRoadmap)))
	mux.Handle("/api/elite-resources/{student_id}", general(only(http.MethodGet, s.handleResources)))

	// predictions
	predictions := s.limits.predictions.middleware
	mux.Handle("/api/distinction-predictions/{student_id}", predictions(only(http.MethodGet, s.handlePredictions)))
	mux.Handle("/api/distinction-predictions/{student_id}/{distinction}", predictions(only(http.MethodGet, s.handlePrediction)))

	// mentorship
	mux.Handle("/api/scholar-mentorship", s.limits.mentorship.middleware(only(http.MethodPost, s.handleMentorship)))
	mux.Handle("/api/mentorship-history/{student_id}", general(only(http.MethodGet, s.handleMentorshipHistory)))
	mux.Handle("/api/mentorship-analytics/{student_id}", general(only(http.MethodGet, s.handleMentorshipAnalytics)))

	// documents
	mux.Handle("/api/documents/upload", s.limits.uploads.middleware(only(http.MethodPost, s.handleUpload)))
	mux.Handle("/api/documents", general(only(http.MethodGet, s.handleListDocuments)))
	mux.Handle("/api/documents/search", general(only(http.MethodGet, s.handleSearchDocuments)))
	mux.Handle("/api/documents/analytics/{student_id}", general(only(http.MethodGet, s.handleDocumentAnalytics)))
	mux.Handle("/api/summarize", general(only(http.MethodPost, s.handleSummarize)))

	return chainMiddlewares(mux,
		withCORS(cfg.CORSOrigins),
		withLogging,
		withRequestID,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

type studentRequest struct {
	StudentID domain.StudentID `json:"student_id"`
}

type updateExcellenceResponse struct {
	Success        bool              `json:"success"`
	UpdatedProfile *excellence.Score `json:"updated_profile"`
}

type predictionsResponse struct {
	StudentID   domain.StudentID     `json:"student_id"`
	Predictions []*domain.Prediction `json:"predictions"`
	GeneratedAt time.Time            `json:"generated_at"`
}

type mentorshipRequest struct {
	StudentID domain.StudentID `json:"student_id"`
	Query     string           `json:"query"`
	Context   []string         `json:"context,omitempty"`
}

type historyResponse struct {
	StudentID domain.StudentID         `json:"student_id"`
	Sessions  []mentorship.HistoryItem `json:"sessions"`
}

type resourcesResponse struct {
	StudentID domain.StudentID  `json:"student_id"`
	Resources []domain.Resource `json:"resources"`
	Total     int               `json:"total"`
}

type documentsResponse struct {
	StudentID domain.StudentID         `json:"student_id,omitempty"`
	Documents []domain.DocumentSummary `json:"documents"`
	Total     int                      `json:"total"`
}

type searchResponse struct {
	Query   string                   `json:"query"`
	Results []documents.SearchResult `json:"results"`
	Total   int                      `json:"total"`
}

type summarizeRequest struct {
	Text         string `json:"text"`
	MaxSentences int    `json:"max_sentences"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ─────────────────────────────────────────────
// Service endpoints
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "healthy",
		Service:  ServiceName,
		Version:  ServiceVersion,
		Database: "disconnected",
		Cache:    "disconnected",
	}
	if s.svc.Database != nil && s.svc.Database.Ping(r.Context()) == nil {
		resp.Database = "connected"
	}
	if s.svc.Predictions != nil && s.svc.Predictions.TestCache(r.Context()) {
		resp.Cache = "connected"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		notFound(w, "Resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":       "Prima Scholar API",
		"version":       ServiceVersion,
		"description":   "AI-powered Academic Excellence Engine",
		"endpoints":     indexEndpoints,
		"documentation": "/docs",
	})
}

var indexEndpoints = map[string]string{
	"health":      "/health",
	"excellence":  "/api/excellence-profile/{student_id}",
	"predictions": "/api/distinction-predictions/{student_id}",
	"mentorship":  "/api/scholar-mentorship",
	"resources":   "/api/elite-resources/{student_id}",
	"roadmap":     "/api/excellence-roadmap/{student_id}",
	"documents":   "/api/documents",
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	rl := s.cfg.RateLimits
	limits := map[string]string{
		"predictions": fmt.Sprintf("%d requests per minute", rl.Predictions),
		"mentorship":  fmt.Sprintf("%d requests per minute", rl.Mentorship),
		"uploads":     fmt.Sprintf("%d requests per minute", rl.Uploads),
		"general":     fmt.Sprintf("%d requests per minute", rl.General),
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":          "Prima Scholar API Documentation",
		"version":        ServiceVersion,
		"description":    "Complete API reference for Prima Scholar Academic Excellence Engine",
		"base_url":       fmt.Sprintf("%s://%s/api", scheme, r.Host),
		"authentication": "none",
		"rate_limits":    limits,
		"endpoints":      endpointDocs,
	})
}

var endpointDocs = map[string]string{
	"PUT /api/profiles/{student_id}":                              "Create or replace a scholar profile",
	"POST /api/achievements":                                      "Record an achievement",
	"GET /api/excellence-profile/{student_id}":                    "Excellence score, factors and trajectory",
	"POST /api/update-excellence-profile":                         "Recalculate the excellence score",
	"GET /api/distinction-predictions/{student_id}":               "Predictions for every distinction",
	"GET /api/distinction-predictions/{student_id}/{distinction}": "Prediction for one distinction",
	"POST /api/scholar-mentorship":                                "Ask the scholar mentor",
	"GET /api/mentorship-history/{student_id}":                    "Recent mentorship sessions",
	"GET /api/mentorship-analytics/{student_id}":                  "Mentorship session analytics",
	"GET /api/elite-resources/{student_id}":                       "Curated elite resources",
	"GET /api/excellence-roadmap/{student_id}":                    "Roadmap toward a distinction",
	"POST /api/documents/upload":                                  "Upload and process a document",
	"GET /api/documents":                                          "List processed documents",
	"GET /api/documents/search":                                   "Semantic search over documents",
	"GET /api/documents/analytics/{student_id}":                   "Document analytics",
	"POST /api/summarize":                                         "Summarize text",
}

// ─────────────────────────────────────────────
// Profiles and excellence
// ─────────────────────────────────────────────

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.ScholarProfile
	if !decodeJSON(w, r, &p) {
		return
	}
	p.StudentID = domain.StudentID(r.PathValue("student_id"))

	out, err := s.svc.Profiles.Upsert(r.Context(), &p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddAchievement(w http.ResponseWriter, r *http.Request) {
	var a domain.Achievement
	if !decodeJSON(w, r, &a) {
		return
	}

	out, err := s.svc.Profiles.AddAchievement(r.Context(), &a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleExcellenceProfile(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Profiles.ExcellenceProfile(r.Context(), studentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExcellence(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StudentID == "" {
		badRequest(w, "student_id is required")
		return
	}

	score, err := s.svc.Profiles.Recalculate(r.Context(), req.StudentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateExcellenceResponse{Success: true, UpdatedProfile: score})
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := studentID(r)

	snap, err := s.svc.Engine.Snapshot(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.svc.Resources.ForStudent(ctx, id, 3)
	if err != nil {
		writeError(w, r, err)
		return
	}

	target := domain.Distinction(r.URL.Query().Get("target"))
	roadmap, err := excellence.BuildRoadmap(snap, target, recs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 5)
	if !ok {
		return
	}
	id := studentID(r)

	recs, err := s.svc.Resources.ForStudent(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resourcesResponse{StudentID: id, Resources: recs, Total: len(recs)})
}

// ─────────────────────────────────────────────
// Predictions
// ─────────────────────────────────────────────

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	id := studentID(r)

	preds, err := s.svc.Predictions.PredictAll(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionsResponse{
		StudentID:   id,
		Predictions: preds,
		GeneratedAt: time.Now().UTC(),
	})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	d := domain.Distinction(r.PathValue("distinction"))

	p, err := s.svc.Predictions.Predict(r.Context(), studentID(r), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─────────────────────────────────────────────
// Mentorship
// ─────────────────────────────────────────────

func (s *Server) handleMentorship(w http.ResponseWriter, r *http.Request) {
	var req mentorshipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StudentID == "" || strings.TrimSpace(req.Query) == "" {
		badRequest(w, "query and student_id are required")
		return
	}

	out, err := s.svc.Mentorship.Ask(r.Context(), mentorship.Request{
		StudentID:        req.StudentID,
		Query:            req.Query,
		ContextDocuments: req.Context,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMentorshipHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	id := studentID(r)

	items, err := s.svc.Mentorship.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{StudentID: id, Sessions: items})
}

func (s *Server) handleMentorshipAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Mentorship.Analytics(r.Context(), studentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ─────────────────────────────────────────────
// Documents
// ─────────────────────────────────────────────

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:   "Payload Too Large",
				Message: fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes),
			})
			return
		}
		badRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		badRequest(w, "No file selected")
		return
	}
	studentID := domain.StudentID(strings.TrimSpace(r.FormValue("student_id")))
	if studentID == "" {
		badRequest(w, "student_id is required")
		return
	}
	if !safeDirName(string(studentID)) {
		badRequest(w, "invalid student_id")
		return
	}
	if !s.cfg.ExtensionAllowed(filepath.Ext(header.Filename)) {
		badRequest(w, "File type not allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		internalError(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}
	if err := s.saveUpload(studentID, header.Filename, data); err != nil {
		observability.LoggerFromContext(r.Context()).Warn("keeping upload copy failed", "error", err)
	}

	res, err := s.svc.Documents.Upload(r.Context(), documents.UploadInput{
		StudentID: studentID,
		Title:     r.FormValue("title"),
		Filename:  header.Filename,
		Content:   bytes.NewReader(data),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// saveUpload keeps the raw upload under the upload dir, one folder per student.
func (s *Server) saveUpload(id domain.StudentID, filename string, data []byte) error {
	if s.cfg.UploadDir == "" {
		return nil
	}
	if !safeDirName(string(id)) {
		return fmt.Errorf("student id %q is not a valid directory name", id)
	}
	dir := filepath.Join(s.cfg.UploadDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := uuid.NewString() + "_" + filepath.Base(filename)
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// safeDirName reports whether name is a single path element that stays inside
// its parent.
func safeDirName(name string) bool {
	return name != "." && filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id := domain.StudentID(r.URL.Query().Get("student_id"))

	docs, err := s.svc.Documents.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, documentsResponse{StudentID: id, Documents: docs, Total: len(docs)})
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		badRequest(w, "q is required")
		return
	}
	limit, ok := queryInt(w, r, "limit", 5)
	if !ok {
		return
	}

	results, err := s.svc.Documents.Search(r.Context(), query, domain.StudentID(q.Get("student_id")), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []documents.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results, Total: len(results)})
}

func (s *Server) handleDocumentAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Documents.Analytics(r.Context(), studentID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.svc.Documents.Summarize(r.Context(), req.Text, req.MaxSentences)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// only rejects every method but method with a JSON 405.
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func studentID(r *http.Request) domain.StudentID {
	return domain.StudentID(r.PathValue("student_id"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(w, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownDistinction):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Conflict", Message: err.Error()})
	default:
		internalError(w, r, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Bad Request", Message: msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not Found", Message: msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("internal server error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "Internal Server Error",
		Message: "An unexpected error occurred",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:   "Method Not Allowed",
		Message: "The method is not allowed for the requested URL",
	})
}
