package domain

import (
	"context"
	"time"
)

// Prompt is what the core sends to a language model.
type Prompt struct {
	System      string
	User        string
	JSON        bool // ask the model for a JSON object
	Temperature float32
	MaxTokens   int32
}

// LLMClient defines how the core application interacts with an LLM service.
type LLMClient interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ProfileStore persists scholar profiles, trajectory and achievements.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p *ScholarProfile) error
	GetProfile(ctx context.Context, id StudentID) (*ScholarProfile, error)
	// UpdateExcellenceScore sets the profile score and writes the trajectory
	// point for the day of at, replacing an earlier point of the same day.
	UpdateExcellenceScore(ctx context.Context, id StudentID, score float64, factors ExcellenceFactors, at time.Time) error
	// ListTrajectory returns the most recent limit points in chronological order.
	ListTrajectory(ctx context.Context, id StudentID, limit int) ([]TrajectoryPoint, error)
	AddAchievement(ctx context.Context, a *Achievement) error
	ListAchievements(ctx context.Context, id StudentID) ([]*Achievement, error)
}

// DocumentStore persists processed document chunks.
type DocumentStore interface {
	AppendChunks(ctx context.Context, chunks []*DocumentChunk) error
	// ListChunks returns chunks of a student, or of everyone when id is empty.
	ListChunks(ctx context.Context, id StudentID, limit int) ([]*DocumentChunk, error)
	ListDocuments(ctx context.Context, id StudentID) ([]DocumentSummary, error)
}

// MentorshipStore persists mentorship sessions.
type MentorshipStore interface {
	AppendSession(ctx context.Context, s *MentorshipSession) error
	// ListSessions returns the newest limit sessions, newest first.
	ListSessions(ctx context.Context, id StudentID, limit int) ([]*MentorshipSession, error)
}

// PredictionStore keeps the latest prediction per student and distinction.
type PredictionStore interface {
	SavePrediction(ctx context.Context, p *Prediction) error
	ListPredictions(ctx context.Context, id StudentID) ([]*Prediction, error)
}

// ToolLogStore records external tool invocations.
type ToolLogStore interface {
	AppendToolLog(ctx context.Context, l *ToolLog) error
	ListToolLogs(ctx context.Context, id StudentID, limit int) ([]*ToolLog, error)
}

// Store bundles every persistence port of one backend.
type Store interface {
	ProfileStore
	DocumentStore
	MentorshipStore
	PredictionStore
	ToolLogStore
	Ping(ctx context.Context) error
	Close() error
}

// Cache is a byte cache with expiry, used for prediction results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}
