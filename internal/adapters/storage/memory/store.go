package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// Store is an in-memory implementation of every domain store port.
// It is NOT persistent and is only suitable for development / local mode.
type Store struct {
	mu sync.RWMutex

	profiles     map[domain.StudentID]*domain.ScholarProfile
	trajectory   map[domain.StudentID][]domain.TrajectoryPoint
	achievements map[domain.StudentID][]*domain.Achievement
	chunks       []*domain.DocumentChunk
	sessions     map[domain.StudentID][]*domain.MentorshipSession
	predictions  map[domain.StudentID]map[domain.Distinction]*domain.Prediction
	toolLogs     map[domain.StudentID][]*domain.ToolLog
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		profiles:     make(map[domain.StudentID]*domain.ScholarProfile),
		trajectory:   make(map[domain.StudentID][]domain.TrajectoryPoint),
		achievements: make(map[domain.StudentID][]*domain.Achievement),
		sessions:     make(map[domain.StudentID][]*domain.MentorshipSession),
		predictions:  make(map[domain.StudentID]map[domain.Distinction]*domain.Prediction),
		toolLogs:     make(map[domain.StudentID][]*domain.ToolLog),
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// tail returns the last limit elements, or all when limit <= 0.
func tail[T any](items []T, limit int) []T {
	if limit <= 0 || limit >= len(items) {
		return items
	}
	return items[len(items)-limit:]
}

// newestFirst returns the last limit elements in reverse order.
func newestFirst[T any](items []T, limit int) []T {
	sel := tail(items, limit)
	out := make([]T, 0, len(sel))
	for i := len(sel) - 1; i >= 0; i-- {
		out = append(out, sel[i])
	}
	return out
}
