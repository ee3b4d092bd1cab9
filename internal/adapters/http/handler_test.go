package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/adapters/cache"
	httpadapter "github.com/PabloGalante/prima-scholar/internal/adapters/http"
	"github.com/PabloGalante/prima-scholar/internal/adapters/llm"
	"github.com/PabloGalante/prima-scholar/internal/adapters/storage/memory"
	"github.com/PabloGalante/prima-scholar/internal/app/agentflow"
	"github.com/PabloGalante/prima-scholar/internal/app/documents"
	"github.com/PabloGalante/prima-scholar/internal/app/excellence"
	"github.com/PabloGalante/prima-scholar/internal/app/mentorship"
	"github.com/PabloGalante/prima-scholar/internal/app/prediction"
	"github.com/PabloGalante/prima-scholar/internal/app/profiles"
	"github.com/PabloGalante/prima-scholar/internal/app/resources"
	"github.com/PabloGalante/prima-scholar/internal/app/tools"
	"github.com/PabloGalante/prima-scholar/internal/config"
)

const neuralText = "Neural networks learn layered representations. Each neural layer transforms its inputs and the neural network adapts its weights during training."

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		UploadDir:         t.TempDir(),
		MaxUploadBytes:    1 << 20,
		AllowedExtensions: []string{"txt", "md"},
		CORSOrigins:       []string{"http://localhost:3000"},
		RateLimits:        config.RateLimits{Predictions: 60, Mentorship: 30, Uploads: 10, General: 100},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	store := memory.NewStore()
	llmClient := llm.NewMockLLM()

	engine := excellence.NewEngine(store, store, store)
	predictions := prediction.NewService(engine, store, cache.NewMemoryCache(), 0)
	docs := documents.NewService(store, llm.NewHashEmbedder(64), llmClient)
	curator, err := resources.NewCurator(store)
	require.NoError(t, err)

	return httpadapter.NewServer(httpadapter.Services{
		Database:    store,
		Engine:      engine,
		Profiles:    profiles.NewService(store, engine),
		Predictions: predictions,
		Documents:   docs,
		Resources:   curator,
		Mentorship: mentorship.NewService(mentorship.Deps{
			Profiles:  store,
			Sessions:  store,
			Documents: store,
			Search:    docs,
			Predictor: predictions,
			Flow:      agentflow.NewDefaultOrchestrator(llmClient),
			Milestone: tools.NewMilestoneTool(store),
		}),
	}, cfg)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func putProfile(t *testing.T, srv http.Handler, id string) {
	t.Helper()
	body := `{"current_gpa": 3.8, "target_distinction": "Magna_Cum_Laude", "academic_level": "graduate",
		"honors_courses": 3, "gpa_trend": "improving", "research_projects": 1, "publications": 1}`
	w := do(t, srv, http.MethodPut, "/api/profiles/"+id, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	for _, path := range []string{"/health", "/api/health"} {
		w := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		body := decode(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "prima-scholar-api", body["service"])
		assert.Equal(t, "1.0.0", body["version"])
		assert.Equal(t, "connected", body["database"])
		assert.Equal(t, "connected", body["cache"])
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestIndexDocsAndErrors(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Prima Scholar API", decode(t, w)["service"])

	w = do(t, srv, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["endpoints"], "POST /api/scholar-mentorship")

	w = do(t, srv, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", decode(t, w)["error"])

	w = do(t, srv, http.MethodPost, "/health", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method Not Allowed", decode(t, w)["error"])
	assert.Equal(t, http.MethodGet, w.Header().Get("Allow"))

	w = do(t, srv, http.MethodPut, "/api/profiles/stu-1", "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Bad Request", decode(t, w)["error"])
}

func TestProfileAndExcellence(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := do(t, srv, http.MethodGet, "/api/excellence-profile/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPut, "/api/profiles/stu-1", `{"current_gpa": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	putProfile(t, srv, "stu-1")

	w = do(t, srv, http.MethodGet, "/api/excellence-profile/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode(t, w)
	assert.Equal(t, "stu-1", profile["student_id"])
	assert.Greater(t, profile["excellence_score"], 0.0)
	assert.Len(t, profile["trajectory"], 1)

	w = do(t, srv, http.MethodPost, "/api/update-excellence-profile", `{"student_id": "stu-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = do(t, srv, http.MethodPost, "/api/update-excellence-profile", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/achievements",
		`{"student_id": "stu-1", "achievement_type": "award", "achievement_name": "Best Thesis", "impact_score": 8}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Best Thesis", decode(t, w)["achievement_name"])

	w = do(t, srv, http.MethodPost, "/api/achievements", `{"student_id": "ghost", "achievement_name": "x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredictions(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	putProfile(t, srv, "stu-1")

	w := do(t, srv, http.MethodGet, "/api/distinction-predictions/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preds := decode(t, w)["predictions"].([]any)
	require.Len(t, preds, 6)
	assert.Equal(t, "Dean_List", preds[0].(map[string]any)["distinction"])

	w = do(t, srv, http.MethodGet, "/api/distinction-predictions/stu-1/Rhodes_Scholar", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode(t, w)
	assert.Equal(t, "Rhodes_Scholar", p["distinction"])
	assert.LessOrEqual(t, p["probability"], 95.0)

	w = do(t, srv, http.MethodGet, "/api/distinction-predictions/stu-1/Nobel_Prize", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/distinction-predictions/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoadmapAndResources(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	putProfile(t, srv, "stu-1")

	w := do(t, srv, http.MethodGet, "/api/excellence-roadmap/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	roadmap := decode(t, w)
	assert.Equal(t, "Magna_Cum_Laude", roadmap["target_distinction"])
	assert.NotEmpty(t, roadmap["milestone_targets"])

	w = do(t, srv, http.MethodGet, "/api/excellence-roadmap/stu-1?target=Fulbright_Scholar", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fulbright_Scholar", decode(t, w)["target_distinction"])

	w = do(t, srv, http.MethodGet, "/api/elite-resources/stu-1?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.LessOrEqual(t, len(res["resources"].([]any)), 2)

	w = do(t, srv, http.MethodGet, "/api/elite-resources/stu-1?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMentorship(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	putProfile(t, srv, "stu-1")

	w := do(t, srv, http.MethodPost, "/api/scholar-mentorship", `{"student_id": "stu-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/scholar-mentorship", `{"student_id": "ghost", "query": "What is entropy?"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/api/scholar-mentorship",
		`{"student_id": "stu-1", "query": "How should I evaluate the empirical evidence for this theoretical framework?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.NotEmpty(t, res["session_id"])
	assert.NotEmpty(t, res["scholar_response"])
	assert.GreaterOrEqual(t, res["session_quality_score"], 1.0)

	w = do(t, srv, http.MethodGet, "/api/mentorship-history/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["sessions"], 1)

	w = do(t, srv, http.MethodGet, "/api/mentorship-analytics/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total_sessions"])
}

func multipartUpload(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, srv http.Handler, fields map[string]string, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, fields, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestDocuments(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := upload(t, srv, map[string]string{"student_id": "stu-1"}, "paper.pdf", "%PDF")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, srv, map[string]string{"student_id": "stu-1"}, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, srv, map[string]string{}, "neural.md", neuralText)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, srv, map[string]string{"student_id": "stu-1", "title": "Neural Notes"}, "neural.md", neuralText)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "Neural Notes", res["document_title"])
	assert.Equal(t, 1.0, res["chunks_processed"])

	w = do(t, srv, http.MethodGet, "/api/documents?student_id=stu-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, 1.0, list["total"])

	w = do(t, srv, http.MethodGet, "/api/documents?student_id=nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["documents"])

	w = do(t, srv, http.MethodGet, "/api/documents/search?q=neural+networks&student_id=stu-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	search := decode(t, w)
	assert.Equal(t, 1.0, search["total"])

	w = do(t, srv, http.MethodGet, "/api/documents/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/documents/analytics/stu-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total_documents"])
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxUploadBytes = 64
	srv := newTestServer(t, cfg)

	w := upload(t, srv, map[string]string{"student_id": "stu-1"}, "big.txt", strings.Repeat(neuralText, 10))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
}

func TestUploadKeepsFilesInsideUploadDir(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t)
	cfg.UploadDir = filepath.Join(root, "uploads")
	srv := newTestServer(t, cfg)

	for _, id := range []string{"..", ".", "../escape", "a/b", `a\b`} {
		w := upload(t, srv, map[string]string{"student_id": id}, "neural.md", neuralText)
		assert.Equal(t, http.StatusBadRequest, w.Code, "student_id %q", id)
	}
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)

	w := upload(t, srv, map[string]string{"student_id": "stu-1"}, "neural.md", neuralText)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err := os.ReadDir(filepath.Join(cfg.UploadDir, "stu-1"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, strings.HasSuffix(saved[0].Name(), "_neural.md"))
}

func TestSummarize(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := do(t, srv, http.MethodPost, "/api/summarize", `{"text": "One. Two. Three. Four.", "max_sentences": 2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["summary"])

	w = do(t, srv, http.MethodPost, "/api/summarize", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimits.General = 2
	srv := newTestServer(t, cfg)

	for i := range 2 {
		w := do(t, srv, http.MethodGet, "/api/documents", "")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(t, srv, http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Rate Limit Exceeded", decode(t, w)["error"])
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other clients and other groups keep their own budget
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	other := httptest.NewRecorder()
	srv.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/scholar-mentorship", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
