package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/adapters/apiclient"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"defaults", nil, "http://localhost:8080/api"},
		{"custom host", map[string]string{"PRIMA_API_HOST": "https://prima.example.edu"}, "https://prima.example.edu/api"},
		{"relative base", map[string]string{"PRIMA_API_BASE": "/v2/api/"}, "http://localhost:8080/v2/api"},
		{"absolute base wins", map[string]string{
			"PRIMA_API_BASE": "http://10.0.0.5:9000/api",
			"PRIMA_API_HOST": "https://ignored.example",
		}, "http://10.0.0.5:9000/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apiclient.BaseURL(env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := apiclient.BaseURL(env(map[string]string{"PRIMA_API_HOST": "localhost"}))
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"healthy","service":"prima-scholar-api","version":"1.0.0","database":"connected","cache":"disconnected"}`)
	}))
	defer srv.Close()

	h, err := apiclient.New(srv.URL + "/api/").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "disconnected", h.Cache)
}

func TestUploadDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/documents/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "stu-1", r.FormValue("student_id"))
		assert.Equal(t, "Notes", r.FormValue("title"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "notes.md", hdr.Filename)
		assert.Equal(t, "# Notes", string(body))

		_, _ = io.WriteString(w, `{"success":true,"document_title":"Notes","chunks_processed":2}`)
	}))
	defer srv.Close()

	res, err := apiclient.New(srv.URL+"/api").UploadDocument(context.Background(), apiclient.Upload{
		StudentID: "stu-1",
		Title:     "Notes",
		Filename:  "notes.md",
		Content:   strings.NewReader("# Notes"),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.ChunksProcessed)
}

func TestListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents", r.URL.Path)
		assert.Equal(t, "stu 1", r.URL.Query().Get("student_id"))
		_, _ = io.WriteString(w, `{"documents":[{"title":"Neural","chunks":3}],"total":1}`)
	}))
	defer srv.Close()

	docs, err := apiclient.New(srv.URL+"/api").ListDocuments(context.Background(), "stu 1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Neural", docs[0].Title)
	assert.Equal(t, 3, docs[0].Chunks)
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/summarize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Long text.", req["text"])
		assert.Equal(t, 2.0, req["max_sentences"])

		_, _ = io.WriteString(w, `{"summary":"Short.","method":"extractive","sentences":1}`)
	}))
	defer srv.Close()

	s, err := apiclient.New(srv.URL+"/api").Summarize(context.Background(), "Long text.", 2)
	require.NoError(t, err)
	assert.Equal(t, "Short.", s.Summary)
	assert.Equal(t, "extractive", s.Method)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/documents" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down")
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Bad Request","message":"text is required"}`)
	}))
	defer srv.Close()

	c := apiclient.New(srv.URL + "/api")

	_, err := c.Summarize(context.Background(), "", 3)
	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Bad Request", apiErr.Message)
	assert.Equal(t, "text is required", apiErr.Detail)
	assert.Equal(t, "api error 400: Bad Request: text is required", apiErr.Error())

	_, err = c.ListDocuments(context.Background(), "")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.Equal(t, "upstream down", apiErr.Detail)
}
