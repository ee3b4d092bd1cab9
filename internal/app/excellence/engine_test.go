package excellence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/adapters/storage/memory"
	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func fixtureData(level domain.AcademicLevel) *domain.StudentData {
	return &domain.StudentData{
		Profile: &domain.ScholarProfile{
			StudentID:            "stu-1",
			CurrentGPA:           3.6,
			AcademicLevel:        level,
			HonorsCourses:        3,
			GPATrend:             domain.TrendImproving,
			ResearchProjects:     2,
			Publications:         1,
			Presentations:        1,
			FrameworksEngaged:    4,
			LeadershipRoles:      []string{"captain", "tutor"},
			ServiceHours:         120,
			LeadershipImpact:     8,
			OriginalProjects:     1,
			CreativeWorks:        1,
			InnovativeApproaches: 5,
		},
		Achievements: []*domain.Achievement{{Name: "a"}, {Name: "b"}},
		Sessions: []*domain.MentorshipSession{
			{QualityScore: 4, Sophistication: domain.SophisticationAdvanced},
			{QualityScore: 3, Sophistication: domain.SophisticationScholar},
		},
		EliteDocs: 1,
	}
}

func TestComputeFactors(t *testing.T) {
	f := ComputeFactors(fixtureData(domain.LevelUndergraduate))

	assert.InDelta(t, 100, f.AcademicPerformance, 1e-9)
	assert.InDelta(t, 90, f.ResearchEngagement, 1e-9)
	assert.InDelta(t, 67, f.CriticalThinking, 1e-9)
	assert.InDelta(t, 60, f.LeadershipService, 1e-9)
	assert.InDelta(t, 65, f.InnovationCreativity, 1e-9)

	assert.InDelta(t, 85.15, WeightedScore(f, domain.LevelUndergraduate.Weight()), 1e-9)
	assert.Equal(t, 100.0, WeightedScore(f, domain.LevelGraduate.Weight()))
}

func TestComputeFactorsEmptyProfile(t *testing.T) {
	f := ComputeFactors(&domain.StudentData{Profile: &domain.ScholarProfile{}})

	assert.Equal(t, 0.0, f.AcademicPerformance)
	assert.Equal(t, 20.0, f.ResearchEngagement)
	assert.Equal(t, 40.0, f.CriticalThinking)
	assert.Equal(t, 10.0, f.LeadershipService)
	assert.Equal(t, 30.0, f.InnovationCreativity)
}

func points(scores ...float64) []domain.TrajectoryPoint {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.TrajectoryPoint, len(scores))
	for i, s := range scores {
		out[i] = domain.TrajectoryPoint{Score: s, Date: start.AddDate(0, 0, i)}
	}
	return out
}

func TestTrajectoryFactor(t *testing.T) {
	tests := []struct {
		name   string
		points []domain.TrajectoryPoint
		want   float64
	}{
		{"no data", nil, 0.5},
		{"single point", points(70), 0.5},
		{"flat", points(60, 60, 60), 0.5},
		{"improving", points(50, 52, 54, 56), 0.6},
		{"collapsing", points(90, 60, 30), 0},
		{"soaring", points(10, 40, 70), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TrajectoryFactor(tt.points), 1e-9)
		})
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 70.0, Confidence(&domain.StudentData{Profile: &domain.ScholarProfile{}}))

	d := fixtureData(domain.LevelUndergraduate)
	// all five inputs present, two sessions
	assert.InDelta(t, 90, Confidence(d), 1e-9)

	d.ProfileAgeDays = 120
	assert.InDelta(t, 95, Confidence(d), 1e-9)

	for i := 0; i < 8; i++ {
		d.Sessions = append(d.Sessions, &domain.MentorshipSession{})
	}
	assert.Equal(t, 95.0, Confidence(d))
}

func snapshot(gpa, score float64, traj []domain.TrajectoryPoint) *Snapshot {
	return &Snapshot{
		Data: &domain.StudentData{
			Profile: &domain.ScholarProfile{StudentID: "stu-1", CurrentGPA: gpa},
		},
		Score:      &Score{StudentID: "stu-1", ExcellenceScore: score},
		Trajectory: traj,
		At:         time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSnapshotPredict(t *testing.T) {
	s := snapshot(3.5, 75, nil)

	dean, err := s.Predict(domain.DeanList)
	require.NoError(t, err)
	assert.Equal(t, 85.0, dean.Probability)
	assert.Equal(t, 0.0, dean.Gap)
	assert.Equal(t, 0.5, dean.TrajectoryFactor)
	assert.NotNil(t, dean.EstimatedAchievement)

	summa, err := s.Predict(domain.SummaCumLaude)
	require.NoError(t, err)
	assert.Equal(t, 70.8, summa.Probability)
	assert.Equal(t, 20.0, summa.Gap)
	assert.Equal(t, 3.9, summa.RequiredGPA)
	assert.NotEmpty(t, summa.KeyFactors)
	require.NotEmpty(t, summa.ImprovementFactors)
	assert.Equal(t, "gpa", summa.ImprovementFactors[0].Factor)
	assert.Nil(t, summa.EstimatedAchievement)

	_, err = s.Predict("Nobel_Prize")
	assert.ErrorIs(t, err, domain.ErrUnknownDistinction)
}

func TestProbabilityIsCapped(t *testing.T) {
	s := snapshot(4.0, 100, points(60, 80, 100))
	p, err := s.Predict(domain.DeanList)
	require.NoError(t, err)
	assert.Equal(t, 95.0, p.Probability)
}

func TestEstimateAchievement(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rising := []domain.TrajectoryPoint{
		{Score: 60, Date: now.AddDate(0, 0, -10)},
		{Score: 70, Date: now},
	}

	got := EstimateAchievement(rising, 70, 75, now)
	require.NotNil(t, got)
	assert.Equal(t, now.AddDate(0, 0, 5), *got)

	falling := []domain.TrajectoryPoint{
		{Score: 70, Date: now.AddDate(0, 0, -10)},
		{Score: 60, Date: now},
	}
	assert.Nil(t, EstimateAchievement(falling, 60, 75, now))

	reached := EstimateAchievement(nil, 80, 75, now)
	require.NotNil(t, reached)
	assert.Equal(t, now, *reached)
}

func TestEngineCalculateScorePersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.UpsertProfile(ctx, fixtureData(domain.LevelUndergraduate).Profile))

	e := NewEngine(store, store, store)
	score, data, err := e.CalculateScore(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, data.Profile.ExcellenceScore, score.ExcellenceScore)
	assert.Equal(t, 1.0, score.LevelMultiplier)

	p, err := store.GetProfile(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, score.ExcellenceScore, p.ExcellenceScore)

	traj, err := store.ListTrajectory(ctx, "stu-1", 0)
	require.NoError(t, err)
	assert.Len(t, traj, 1)

	_, err = e.Predict(ctx, "ghost", domain.DeanList)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.Predict(ctx, "stu-1", "Nobel_Prize")
	assert.ErrorIs(t, err, domain.ErrUnknownDistinction)
}

func TestBuildRoadmap(t *testing.T) {
	s := snapshot(3.5, 75, nil)
	s.Data.Profile.TargetDistinction = domain.SummaCumLaude

	r, err := BuildRoadmap(s, "", []domain.Resource{{Title: "Guide"}})
	require.NoError(t, err)
	assert.Equal(t, domain.SummaCumLaude, r.TargetDistinction)
	require.Len(t, r.Milestones, 3)
	assert.Equal(t, 95.0, r.Milestones[2].TargetScore)
	assert.True(t, r.Milestones[0].TargetDate.Before(r.Milestones[1].TargetDate))
	assert.NotEmpty(t, r.ImmediateActions)
	assert.NotEmpty(t, r.Networking)
	assert.Len(t, r.Resources, 1)

	met, err := BuildRoadmap(snapshot(3.9, 99, nil), domain.DeanList, nil)
	require.NoError(t, err)
	require.Len(t, met.Milestones, 1)
}
