package excellence

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

// Factor weights of the excellence score.
const (
	WeightAcademic   = 0.40
	WeightResearch   = 0.25
	WeightThinking   = 0.20
	WeightLeadership = 0.10
	WeightInnovation = 0.05
)

// trajectoryWindow is how many daily points the trajectory analysis reads.
const trajectoryWindow = 10

const (
	probabilityCap = 95.0
	confidenceCap  = 95.0
)

var sophisticationScores = map[domain.Sophistication]float64{
	domain.SophisticationBasic:        10,
	domain.SophisticationIntermediate: 25,
	domain.SophisticationAdvanced:     40,
	domain.SophisticationScholar:      60,
}

// Score is the result of one excellence calculation.
type Score struct {
	StudentID       domain.StudentID         `json:"student_id"`
	ExcellenceScore float64                  `json:"excellence_score"`
	Factors         domain.ExcellenceFactors `json:"factors"`
	LevelMultiplier float64                  `json:"level_multiplier"`
	CalculatedAt    time.Time                `json:"calculated_at"`
}

type Engine struct {
	profiles domain.ProfileStore
	sessions domain.MentorshipStore
	docs     domain.DocumentStore
	now      func() time.Time
}

func NewEngine(
	profiles domain.ProfileStore,
	sessions domain.MentorshipStore,
	docs domain.DocumentStore,
) *Engine {
	return &Engine{
		profiles: profiles,
		sessions: sessions,
		docs:     docs,
		now:      time.Now,
	}
}

// StudentData gathers the profile and every derived input of the score.
func (e *Engine) StudentData(ctx context.Context, id domain.StudentID) (*domain.StudentData, error) {
	profile, err := e.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	achievements, err := e.profiles.ListAchievements(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	var accepted []*domain.Achievement
	for _, a := range achievements {
		if a.Status != domain.VerificationRejected {
			accepted = append(accepted, a)
		}
	}

	sessions, err := e.sessions.ListSessions(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	chunks, err := e.docs.ListChunks(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	elite := 0
	for _, c := range chunks {
		if c.ExcellenceTier == domain.TierElite {
			elite++
		}
	}

	age := 0
	if !profile.CreatedAt.IsZero() {
		age = int(e.now().Sub(profile.CreatedAt).Hours() / 24)
	}

	return &domain.StudentData{
		Profile:        profile,
		Achievements:   accepted,
		Sessions:       sessions,
		EliteDocs:      elite,
		ProfileAgeDays: age,
	}, nil
}

// CalculateScore recomputes the score of a student and persists it to the
// profile and the daily trajectory.
func (e *Engine) CalculateScore(ctx context.Context, id domain.StudentID) (*Score, *domain.StudentData, error) {
	log := observability.LoggerFromContext(ctx).With("student_id", id)

	data, err := e.StudentData(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	factors := ComputeFactors(data)
	level := data.Profile.AcademicLevel.Weight()
	now := e.now()

	score := &Score{
		StudentID:       id,
		ExcellenceScore: round(WeightedScore(factors, level), 2),
		Factors:         roundFactors(factors),
		LevelMultiplier: level,
		CalculatedAt:    now,
	}

	if err := e.profiles.UpdateExcellenceScore(ctx, id, score.ExcellenceScore, score.Factors, now); err != nil {
		log.Error("failed to persist excellence score", "error", err)
		return nil, nil, err
	}
	data.Profile.ExcellenceScore = score.ExcellenceScore

	log.Debug("excellence score calculated", "score", score.ExcellenceScore)
	return score, data, nil
}

// ComputeFactors scores the five excellence factors, each in [0,100].
func ComputeFactors(d *domain.StudentData) domain.ExcellenceFactors {
	return domain.ExcellenceFactors{
		AcademicPerformance:  academicPerformance(d),
		ResearchEngagement:   researchEngagement(d),
		CriticalThinking:     criticalThinking(d),
		LeadershipService:    leadershipService(d),
		InnovationCreativity: innovationCreativity(d),
	}
}

// WeightedScore combines factors and applies the academic level multiplier.
func WeightedScore(f domain.ExcellenceFactors, levelMultiplier float64) float64 {
	total := f.AcademicPerformance*WeightAcademic +
		f.ResearchEngagement*WeightResearch +
		f.CriticalThinking*WeightThinking +
		f.LeadershipService*WeightLeadership +
		f.InnovationCreativity*WeightInnovation
	return math.Min(total*levelMultiplier, 100)
}

func academicPerformance(d *domain.StudentData) float64 {
	p := d.Profile
	base := math.Min(p.CurrentGPA/4.0*100, 100)

	bonus := 0.0
	if p.HonorsCourses > 0 {
		bonus += math.Min(float64(p.HonorsCourses)*2, 10)
	}
	switch p.GPATrend {
	case domain.TrendImproving:
		bonus += 5
	case domain.TrendDeclining:
		bonus -= 5
	}
	bonus += math.Min(float64(len(d.Achievements))*3, 15)

	return clamp(base+bonus, 0, 100)
}

func researchEngagement(d *domain.StudentData) float64 {
	p := d.Profile
	score := 20.0
	score += math.Min(float64(p.ResearchProjects)*15, 40)
	score += math.Min(float64(p.Publications)*20+float64(p.Presentations)*10, 30)

	if len(d.Sessions) > 0 {
		total := 0.0
		for _, s := range d.Sessions {
			total += s.QualityScore
		}
		score += math.Min(total/float64(len(d.Sessions))*10, 10)
	}
	return math.Min(score, 100)
}

func criticalThinking(d *domain.StudentData) float64 {
	score := 40.0
	if len(d.Sessions) > 0 {
		total := 0.0
		for _, s := range d.Sessions {
			v, ok := sophisticationScores[s.Sophistication]
			if !ok {
				v = sophisticationScores[domain.SophisticationBasic]
			}
			total += v
		}
		score = math.Max(score, total/float64(len(d.Sessions)))
	}
	score += math.Min(float64(d.Profile.FrameworksEngaged)*3, 20)
	score += math.Min(float64(d.EliteDocs)*5, 15)
	return math.Min(score, 100)
}

func leadershipService(d *domain.StudentData) float64 {
	p := d.Profile
	score := 10.0
	score += math.Min(float64(len(p.LeadershipRoles))*15, 45)
	score += math.Min(p.ServiceHours/10, 25)
	score += math.Min(p.LeadershipImpact, 20)
	return math.Min(score, 100)
}

func innovationCreativity(d *domain.StudentData) float64 {
	p := d.Profile
	score := 30.0
	score += math.Min(float64(p.OriginalProjects)*10, 30)
	score += math.Min(float64(p.CreativeWorks)*15, 25)
	score += math.Min(float64(p.InnovativeApproaches)*2, 15)
	return math.Min(score, 100)
}

// TrajectoryFactor maps the least-squares slope of the chronological scores
// to [0,1]; 0.5 is neutral and is returned when fewer than two points exist.
func TrajectoryFactor(points []domain.TrajectoryPoint) float64 {
	if len(points) < 2 {
		return 0.5
	}
	return clamp(0.5+slope(points)/20, 0, 1)
}

// slope fits score = a + b*i over point indices and returns b.
func slope(points []domain.TrajectoryPoint) float64 {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Score
		sumXY += x * p.Score
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// Confidence grows with data completeness, session history and profile age.
func Confidence(d *domain.StudentData) float64 {
	present := 0
	if d.Profile.CurrentGPA > 0 {
		present++
	}
	if len(d.Sessions) > 0 {
		present++
	}
	if len(d.Achievements) > 0 {
		present++
	}
	if d.Profile.ResearchProjects > 0 {
		present++
	}
	if len(d.Profile.LeadershipRoles) > 0 {
		present++
	}

	c := 70 + float64(present)/5*20
	switch n := len(d.Sessions); {
	case n >= 10:
		c += 10
	case n >= 5:
		c += 5
	}
	if d.ProfileAgeDays >= 90 {
		c += 5
	}
	return math.Min(c, confidenceCap)
}

// Snapshot is everything needed to predict any distinction for one student
// at one moment.
type Snapshot struct {
	Data       *domain.StudentData
	Score      *Score
	Trajectory []domain.TrajectoryPoint
	At         time.Time
}

// Snapshot recalculates the score and loads the recent trajectory.
func (e *Engine) Snapshot(ctx context.Context, id domain.StudentID) (*Snapshot, error) {
	score, data, err := e.CalculateScore(ctx, id)
	if err != nil {
		return nil, err
	}
	points, err := e.profiles.ListTrajectory(ctx, id, trajectoryWindow)
	if err != nil {
		return nil, fmt.Errorf("listing trajectory: %w", err)
	}
	return &Snapshot{Data: data, Score: score, Trajectory: points, At: score.CalculatedAt}, nil
}

// Predict computes a fresh prediction for one distinction.
func (e *Engine) Predict(ctx context.Context, id domain.StudentID, d domain.Distinction) (*domain.Prediction, error) {
	if _, err := domain.RequirementFor(d); err != nil {
		return nil, err
	}
	snap, err := e.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return snap.Predict(d)
}

// Predict derives the prediction of d from the snapshot without I/O.
func (s *Snapshot) Predict(d domain.Distinction) (*domain.Prediction, error) {
	req, err := domain.RequirementFor(d)
	if err != nil {
		return nil, err
	}

	gpa := s.Data.Profile.CurrentGPA
	exc := s.Score.ExcellenceScore

	gpaFactor := 1.0
	if req.GPAMin > 0 {
		gpaFactor = math.Min(gpa/req.GPAMin, 1)
	}
	excFactor := math.Min(exc/req.ExcellenceScoreMin, 1)

	base := (gpaFactor*req.GPAWeight + excFactor*req.ExcellenceWeight) * 100
	traj := TrajectoryFactor(s.Trajectory)
	probability := math.Min(base*(0.7+traj*0.3), probabilityCap)

	return &domain.Prediction{
		StudentID:              s.Data.Profile.StudentID,
		Distinction:            d,
		Probability:            round(probability, 1),
		Confidence:             round(Confidence(s.Data), 1),
		CurrentExcellenceScore: exc,
		RequiredExcellence:     req.ExcellenceScoreMin,
		CurrentGPA:             gpa,
		RequiredGPA:            req.GPAMin,
		Gap:                    round(math.Max(0, req.ExcellenceScoreMin-exc), 2),
		ImprovementFactors:     ImprovementFactors(s.Data.Profile, s.Score, req),
		EstimatedAchievement:   EstimateAchievement(s.Trajectory, exc, req.ExcellenceScoreMin, s.At),
		TrajectoryFactor:       round(traj, 2),
		KeyFactors:             KeySuccessFactors(d),
		CalculatedAt:           s.At,
	}, nil
}

var factorSuggestions = map[string]string{
	"academic_performance":  "Take honors or graduate-level courses and keep the GPA trend improving.",
	"research_engagement":   "Join a faculty research project and aim for a presentation or publication.",
	"critical_thinking":     "Engage primary theoretical frameworks and bring advanced questions to mentorship.",
	"leadership_service":    "Take on a leadership role with measurable impact and log service hours.",
	"innovation_creativity": "Start an original project or creative work outside the curriculum.",
}

// ImprovementFactors lists the GPA and score gaps, then the weakest factors.
func ImprovementFactors(p *domain.ScholarProfile, s *Score, req domain.DistinctionRequirement) []domain.ImprovementFactor {
	out := []domain.ImprovementFactor{}

	if gap := req.GPAMin - p.CurrentGPA; gap > 0 {
		out = append(out, domain.ImprovementFactor{
			Factor:     "gpa",
			Current:    p.CurrentGPA,
			Target:     req.GPAMin,
			Priority:   priority(gap > 0.2),
			Suggestion: fmt.Sprintf("Raise GPA by %.2f points to reach the %s minimum.", gap, req.Distinction),
		})
	}
	if gap := req.ExcellenceScoreMin - s.ExcellenceScore; gap > 0 {
		out = append(out, domain.ImprovementFactor{
			Factor:     "excellence_score",
			Current:    s.ExcellenceScore,
			Target:     req.ExcellenceScoreMin,
			Priority:   priority(gap > 15),
			Suggestion: fmt.Sprintf("Close a %.1f point excellence gap through the factors below.", gap),
		})
	}

	type named struct {
		name  string
		value float64
	}
	factors := []named{
		{"academic_performance", s.Factors.AcademicPerformance},
		{"research_engagement", s.Factors.ResearchEngagement},
		{"critical_thinking", s.Factors.CriticalThinking},
		{"leadership_service", s.Factors.LeadershipService},
		{"innovation_creativity", s.Factors.InnovationCreativity},
	}
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].value < factors[j].value })

	added := 0
	for _, f := range factors {
		if added == 2 || f.value >= 80 {
			break
		}
		out = append(out, domain.ImprovementFactor{
			Factor:     f.name,
			Current:    f.value,
			Target:     80,
			Priority:   priority(f.value < 50),
			Suggestion: factorSuggestions[f.name],
		})
		added++
	}
	return out
}

func priority(high bool) string {
	if high {
		return "high"
	}
	return "medium"
}

// EstimateAchievement projects when current reaches target from the score
// change per day across the trajectory. It is nil when not improving.
func EstimateAchievement(points []domain.TrajectoryPoint, current, target float64, now time.Time) *time.Time {
	if current >= target {
		t := now
		return &t
	}
	if len(points) < 2 {
		return nil
	}

	first, last := points[0], points[len(points)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return nil
	}
	perDay := (last.Score - first.Score) / days
	if perDay <= 0 {
		return nil
	}

	need := math.Ceil((target - current) / perDay)
	t := now.AddDate(0, 0, int(need))
	return &t
}

var keyFactors = map[domain.Distinction][]string{
	domain.DeanList:         {"Consistent semester GPA", "Full-time course load", "Top 15% standing"},
	domain.MagnaCumLaude:    {"Sustained cumulative GPA", "Credit hours minimum", "Rigorous course selection"},
	domain.SummaCumLaude:    {"Honors thesis defense", "Faculty recommendation", "Near-perfect GPA"},
	domain.PhiBetaKappa:     {"Breadth in liberal arts", "Character assessment", "Language and mathematics coursework"},
	domain.RhodesScholar:    {"Evidence of leadership", "Athletic or physical vigor", "Commitment to service", "Intellectual distinction"},
	domain.FulbrightScholar: {"Feasible research proposal", "Host-language proficiency", "Cultural engagement"},
}

// KeySuccessFactors returns the defining criteria of a distinction.
func KeySuccessFactors(d domain.Distinction) []string {
	return append([]string(nil), keyFactors[d]...)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundFactors(f domain.ExcellenceFactors) domain.ExcellenceFactors {
	return domain.ExcellenceFactors{
		AcademicPerformance:  round(f.AcademicPerformance, 2),
		ResearchEngagement:   round(f.ResearchEngagement, 2),
		CriticalThinking:     round(f.CriticalThinking, 2),
		LeadershipService:    round(f.LeadershipService, 2),
		InnovationCreativity: round(f.InnovationCreativity, 2),
	}
}
