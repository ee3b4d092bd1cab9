package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/prima-scholar/internal/app/excellence"
	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const maxGPA = 4.0

// Service holds the logic of writing profiles and achievements and of
// reading the scored excellence profile.
type Service struct {
	store  domain.ProfileStore
	engine *excellence.Engine
	now    func() time.Time
}

func NewService(store domain.ProfileStore, engine *excellence.Engine) *Service {
	return &Service{
		store:  store,
		engine: engine,
		now:    time.Now,
	}
}

// Upsert validates and stores a profile. Missing level defaults to
// undergraduate.
func (s *Service) Upsert(ctx context.Context, p *domain.ScholarProfile) (*domain.ScholarProfile, error) {
	if p == nil || strings.TrimSpace(string(p.StudentID)) == "" {
		return nil, fmt.Errorf("%w: student_id is required", domain.ErrInvalidInput)
	}
	if p.CurrentGPA < 0 || p.CurrentGPA > maxGPA {
		return nil, fmt.Errorf("%w: current_gpa must be between 0 and 4", domain.ErrInvalidInput)
	}

	level, err := domain.ParseAcademicLevel(string(p.AcademicLevel))
	if err != nil {
		return nil, err
	}
	p.AcademicLevel = level

	if p.TargetDistinction != "" {
		if _, err := domain.RequirementFor(p.TargetDistinction); err != nil {
			return nil, err
		}
	}
	switch p.GPATrend {
	case "", domain.TrendImproving, domain.TrendDeclining, domain.TrendStable:
	default:
		return nil, fmt.Errorf("%w: unknown gpa_trend %q", domain.ErrInvalidInput, p.GPATrend)
	}

	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("profile stored", "student_id", p.StudentID)
	return s.store.GetProfile(ctx, p.StudentID)
}

// AddAchievement records an achievement of an existing student.
func (s *Service) AddAchievement(ctx context.Context, a *domain.Achievement) (*domain.Achievement, error) {
	if a == nil || a.StudentID == "" || strings.TrimSpace(a.Name) == "" {
		return nil, fmt.Errorf("%w: student_id and achievement_name are required", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetProfile(ctx, a.StudentID); err != nil {
		return nil, err
	}
	if a.Date.IsZero() {
		a.Date = s.now().UTC()
	}

	if err := s.store.AddAchievement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

type TrajectoryEntry struct {
	Date            string  `json:"date"`
	ExcellenceScore float64 `json:"excellence_score"`
}

type ExcellenceProfile struct {
	excellence.Score
	TargetDistinction domain.Distinction   `json:"target_distinction"`
	AcademicLevel     domain.AcademicLevel `json:"academic_level"`
	CurrentGPA        float64              `json:"current_gpa"`
	Trajectory        []TrajectoryEntry    `json:"trajectory"`
}

// ExcellenceProfile recalculates the score and returns it with the full
// trajectory in chronological order.
func (s *Service) ExcellenceProfile(ctx context.Context, id domain.StudentID) (*ExcellenceProfile, error) {
	score, data, err := s.engine.CalculateScore(ctx, id)
	if err != nil {
		return nil, err
	}

	points, err := s.store.ListTrajectory(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	out := &ExcellenceProfile{
		Score:             *score,
		TargetDistinction: data.Profile.TargetDistinction,
		AcademicLevel:     data.Profile.AcademicLevel,
		CurrentGPA:        data.Profile.CurrentGPA,
		Trajectory:        make([]TrajectoryEntry, 0, len(points)),
	}
	for _, p := range points {
		out.Trajectory = append(out.Trajectory, TrajectoryEntry{
			Date:            p.Date.Format(time.DateOnly),
			ExcellenceScore: p.Score,
		})
	}
	return out, nil
}

// Recalculate recomputes and persists the excellence score.
func (s *Service) Recalculate(ctx context.Context, id domain.StudentID) (*excellence.Score, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: student_id is required", domain.ErrInvalidInput)
	}
	score, _, err := s.engine.CalculateScore(ctx, id)
	return score, err
}
