package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// UpsertProfile creates or replaces a profile, keeping the original CreatedAt.
func (s *Store) UpsertProfile(_ context.Context, p *domain.ScholarProfile) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: profile without student id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.LeadershipRoles = append([]string(nil), p.LeadershipRoles...)
	if old, ok := s.profiles[p.StudentID]; ok && !old.CreatedAt.IsZero() {
		cp.CreatedAt = old.CreatedAt
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	s.profiles[p.StudentID] = &cp
	return nil
}

func (s *Store) GetProfile(_ context.Context, id domain.StudentID) (*domain.ScholarProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	cp.LeadershipRoles = append([]string(nil), p.LeadershipRoles...)
	return &cp, nil
}

func (s *Store) UpdateExcellenceScore(
	_ context.Context,
	id domain.StudentID,
	score float64,
	factors domain.ExcellenceFactors,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	p.ExcellenceScore = score
	p.UpdatedAt = at

	point := domain.TrajectoryPoint{
		StudentID: id,
		Score:     score,
		Date:      day(at),
		Factors:   factors,
	}

	points := s.trajectory[id]
	for i := range points {
		if points[i].Date.Equal(point.Date) {
			points[i] = point
			return nil
		}
	}
	points = append(points, point)
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	s.trajectory[id] = points
	return nil
}

func (s *Store) ListTrajectory(_ context.Context, id domain.StudentID, limit int) ([]domain.TrajectoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := tail(s.trajectory[id], limit)
	return append([]domain.TrajectoryPoint(nil), sel...), nil
}

func (s *Store) AddAchievement(_ context.Context, a *domain.Achievement) error {
	if a == nil || a.StudentID == "" {
		return fmt.Errorf("%w: achievement without student id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.VerificationPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	s.achievements[a.StudentID] = append(s.achievements[a.StudentID], &cp)
	return nil
}

func (s *Store) ListAchievements(_ context.Context, id domain.StudentID) ([]*domain.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Achievement{}, s.achievements[id]...), nil
}

// day truncates t to midnight UTC; trajectory keeps one point per day.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
