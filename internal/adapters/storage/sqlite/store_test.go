package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "prima.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProfileAndTrajectory(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.UpsertProfile(ctx, &domain.ScholarProfile{
		StudentID:       "stu-1",
		CurrentGPA:      3.6,
		AcademicLevel:   domain.LevelGraduate,
		LeadershipRoles: []string{"president"},
	}))

	d1 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	factors := domain.ExcellenceFactors{AcademicPerformance: 80}
	require.NoError(t, s.UpdateExcellenceScore(ctx, "stu-1", 61.5, factors, d1))
	require.NoError(t, s.UpdateExcellenceScore(ctx, "stu-1", 62.5, factors, d1.Add(2*time.Hour)))
	require.NoError(t, s.UpdateExcellenceScore(ctx, "stu-1", 70, factors, d1.Add(48*time.Hour)))

	p, err := s.GetProfile(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, p.ExcellenceScore)
	assert.Equal(t, []string{"president"}, p.LeadershipRoles)

	points, err := s.ListTrajectory(ctx, "stu-1", 10)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 62.5, points[0].Score)
	assert.Equal(t, 70.0, points[1].Score)
	assert.Equal(t, 80.0, points[1].Factors.AcademicPerformance)

	_, err = s.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunksKeepEmbeddings(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	now := time.Now().UTC()
	require.NoError(t, s.AppendChunks(ctx, []*domain.DocumentChunk{
		{StudentID: "stu-1", Title: "Paper", ChunkIndex: 0, DocumentType: domain.DocResearchPaper, Embedding: []float32{0.5, 0.25}, CreatedAt: now},
		{StudentID: "stu-1", Title: "Paper", ChunkIndex: 1, DocumentType: domain.DocResearchPaper, Embedding: []float32{1, 0}, CreatedAt: now},
		{StudentID: "stu-2", Title: "Notes", ChunkIndex: 0, DocumentType: domain.DocCourseMaterial, CreatedAt: now},
	}))

	chunks, err := s.ListChunks(ctx, "stu-1", 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []float32{0.5, 0.25}, chunks[0].Embedding)
	assert.NotEmpty(t, chunks[0].ID)

	docs, err := s.ListDocuments(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Paper", docs[0].Title)
	assert.Equal(t, 2, docs[0].Chunks)
	assert.Equal(t, domain.DocResearchPaper, docs[0].DocumentType)

	all, err := s.ListChunks(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSessionsPredictionsAndToolLogs(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendSession(ctx, &domain.MentorshipSession{
			StudentID: "stu-1",
			Query:     q,
			CreatedAt: time.Now().UTC(),
		}))
	}
	sessions, err := s.ListSessions(ctx, "stu-1", 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "three", sessions[0].Query)

	require.NoError(t, s.SavePrediction(ctx, &domain.Prediction{StudentID: "stu-1", Distinction: domain.SummaCumLaude, Probability: 20}))
	require.NoError(t, s.SavePrediction(ctx, &domain.Prediction{StudentID: "stu-1", Distinction: domain.DeanList, Probability: 50}))
	require.NoError(t, s.SavePrediction(ctx, &domain.Prediction{StudentID: "stu-1", Distinction: domain.DeanList, Probability: 55}))
	preds, err := s.ListPredictions(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, domain.DeanList, preds[0].Distinction)
	assert.Equal(t, 55.0, preds[0].Probability)

	require.NoError(t, s.AppendToolLog(ctx, &domain.ToolLog{
		StudentID: "stu-1",
		ToolName:  "milestone_notification",
		Success:   true,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}))
	logs, err := s.ListToolLogs(ctx, "stu-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	n, err := s.Cleanup(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	logs, err = s.ListToolLogs(ctx, "stu-1", 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
