package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestWhoamiIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")

	first, err := execute(t, "whoami", "--identity", path)
	require.NoError(t, err)
	second, err := execute(t, "whoami", "--identity", path)
	require.NoError(t, err)

	assert.NotEmpty(t, strings.TrimSpace(first))
	assert.Equal(t, first, second)
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"healthy","service":"prima-scholar-api","version":"1.0.0","database":"connected","cache":"connected"}`)
	}))
	defer srv.Close()

	out, err := execute(t, "health", "--api", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, "prima-scholar-api 1.0.0: healthy")
	assert.Contains(t, out, "database: connected")
}

func TestDocumentsListDefaultsToSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	session, err := execute(t, "whoami", "--identity", path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, strings.TrimSpace(session), r.URL.Query().Get("student_id"))
		_, _ = io.WriteString(w, `{"documents":[{"title":"Thesis draft","chunks":4}],"total":1}`)
	}))
	defer srv.Close()

	out, err := execute(t, "documents", "list", "--api", srv.URL+"/api", "--identity", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Thesis draft")
	assert.Contains(t, out, "4 chunks")
}

func TestDocumentsUpload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(file, []byte("# Notes"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/upload", r.URL.Path)
		assert.Equal(t, "stu-9", r.FormValue("student_id"))
		assert.Equal(t, "notes", r.FormValue("title"))
		_, _ = io.WriteString(w, `{"success":true,"document_title":"notes","chunks_processed":1}`)
	}))
	defer srv.Close()

	out, err := execute(t, "documents", "upload", file, "--student", "stu-9", "--api", srv.URL+"/api")
	require.NoError(t, err)
	assert.Equal(t, "uploaded \"notes\": 1 chunks\n", out)
}

func TestSummarizeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"summary":"Short.","method":"extractive","sentences":1}`)
	}))
	defer srv.Close()

	out, err := execute(t, "summarize", "A long text.", "--api", srv.URL+"/api")
	require.NoError(t, err)
	assert.Equal(t, "Short.\n", out)

	_, err = execute(t, "summarize", "--api", srv.URL+"/api")
	assert.ErrorContains(t, err, "--file")
}

func TestAPIErrorsFailTheCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":"Rate Limit Exceeded","message":"Too many requests. Please try again later."}`)
	}))
	defer srv.Close()

	_, err := execute(t, "health", "--api", srv.URL+"/api")
	assert.ErrorContains(t, err, "api error 429")
}

func TestSummarizeInput(t *testing.T) {
	text, err := summarizeInput(strings.NewReader("from stdin"), "-", nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	text, err = summarizeInput(nil, "", []string{"inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", text)
}

func TestStudentOrSession(t *testing.T) {
	ctx := context.Background()
	opts := &rootOptions{identityPath: filepath.Join(t.TempDir(), "identity.yaml")}

	id, err := opts.studentOrSession(ctx, "stu-3")
	require.NoError(t, err)
	assert.Equal(t, domain.StudentID("stu-3"), id)

	session, err := opts.sessionID(ctx)
	require.NoError(t, err)
	id, err = opts.studentOrSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StudentID(session), id)
}
