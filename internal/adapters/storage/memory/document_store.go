package memory

import (
	"context"
	"sort"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func (s *Store) AppendChunks(_ context.Context, chunks []*domain.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = append(s.chunks, chunks...)
	return nil
}

// ListChunks returns the latest limit chunks of a student in upload order.
func (s *Store) ListChunks(_ context.Context, id domain.StudentID, limit int) ([]*domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DocumentChunk
	for _, c := range s.chunks {
		if id == "" || c.StudentID == id {
			out = append(out, c)
		}
	}
	return tail(out, limit), nil
}

func (s *Store) ListDocuments(_ context.Context, id domain.StudentID) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return summarize(s.chunks, id), nil
}

// summarize groups chunks by title, newest document first.
func summarize(chunks []*domain.DocumentChunk, id domain.StudentID) []domain.DocumentSummary {
	byTitle := make(map[string]*domain.DocumentSummary)
	var order []string

	for _, c := range chunks {
		if id != "" && c.StudentID != id {
			continue
		}
		sum, ok := byTitle[c.Title]
		if !ok {
			sum = &domain.DocumentSummary{
				Title:          c.Title,
				DocumentType:   c.DocumentType,
				AcademicLevel:  c.AcademicLevel,
				ExcellenceTier: c.ExcellenceTier,
				UploadedAt:     c.CreatedAt,
			}
			byTitle[c.Title] = sum
			order = append(order, c.Title)
		}
		sum.Chunks++
		if c.CreatedAt.Before(sum.UploadedAt) {
			sum.UploadedAt = c.CreatedAt
		}
	}

	out := make([]domain.DocumentSummary, 0, len(order))
	for _, title := range order {
		out = append(out, *byTitle[title])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}
