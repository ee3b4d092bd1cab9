package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func (s *Store) AppendSession(_ context.Context, sess *domain.MentorshipSession) error {
	if sess == nil || sess.StudentID == "" {
		return fmt.Errorf("%w: session without student id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = domain.SessionID(uuid.NewString())
	}
	s.sessions[sess.StudentID] = append(s.sessions[sess.StudentID], sess)
	return nil
}

func (s *Store) ListSessions(_ context.Context, id domain.StudentID, limit int) ([]*domain.MentorshipSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.sessions[id], limit), nil
}

func (s *Store) SavePrediction(_ context.Context, p *domain.Prediction) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: prediction without student id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDistinction, ok := s.predictions[p.StudentID]
	if !ok {
		byDistinction = make(map[domain.Distinction]*domain.Prediction)
		s.predictions[p.StudentID] = byDistinction
	}
	cp := *p
	byDistinction[p.Distinction] = &cp
	return nil
}

// ListPredictions returns the latest prediction per distinction in
// declaration order.
func (s *Store) ListPredictions(_ context.Context, id domain.StudentID) ([]*domain.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Prediction{}
	for _, req := range domain.Requirements {
		if p, ok := s.predictions[id][req.Distinction]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) AppendToolLog(_ context.Context, l *domain.ToolLog) error {
	if l == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.toolLogs[l.StudentID] = append(s.toolLogs[l.StudentID], l)
	return nil
}

func (s *Store) ListToolLogs(_ context.Context, id domain.StudentID, limit int) ([]*domain.ToolLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.toolLogs[id], limit), nil
}
