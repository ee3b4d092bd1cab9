package excellence

import (
	"time"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

type Milestone struct {
	Title       string    `json:"title"`
	TargetScore float64   `json:"target_score"`
	TargetDate  time.Time `json:"target_date"`
	Description string    `json:"description"`
}

// Roadmap is a personalized plan toward the student's target distinction.
type Roadmap struct {
	StudentID         domain.StudentID   `json:"student_id"`
	TargetDistinction domain.Distinction `json:"target_distinction"`
	CurrentScore      float64            `json:"current_excellence_score"`
	Probability       float64            `json:"probability"`
	ImmediateActions  []string           `json:"immediate_actions"`
	Milestones        []Milestone        `json:"milestone_targets"`
	Resources         []domain.Resource  `json:"resource_recommendations"`
	Networking        []string           `json:"networking_opportunities"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// milestone horizons in days
var milestoneDays = []int{30, 90, 180}

var networking = map[domain.Distinction][]string{
	domain.DeanList:         {"Departmental honors society", "Peer tutoring network"},
	domain.MagnaCumLaude:    {"Faculty office hours in the major", "Honors college cohort"},
	domain.SummaCumLaude:    {"Thesis committee members", "Graduate student reading groups"},
	domain.PhiBetaKappa:     {"Campus Phi Beta Kappa chapter events", "Interdisciplinary seminars"},
	domain.RhodesScholar:    {"Campus fellowships office", "Past Rhodes scholars and endorsers", "Community service leadership networks"},
	domain.FulbrightScholar: {"Fulbright program advisor", "Host-country research contacts", "Language exchange partners"},
}

// BuildRoadmap turns a snapshot into a plan toward target. An empty target
// falls back to the profile's target distinction, then Dean's List.
func BuildRoadmap(s *Snapshot, target domain.Distinction, resources []domain.Resource) (*Roadmap, error) {
	if target == "" {
		target = s.Data.Profile.TargetDistinction
	}
	if target == "" {
		target = domain.DeanList
	}

	pred, err := s.Predict(target)
	if err != nil {
		return nil, err
	}

	actions := []string{}
	for _, f := range pred.ImprovementFactors {
		if len(actions) == 3 {
			break
		}
		actions = append(actions, f.Suggestion)
	}
	if len(s.Data.Sessions) < 5 {
		actions = append(actions, "Bring one advanced research question to a scholar mentorship session this week.")
	}
	if len(actions) == 0 {
		actions = append(actions, "Maintain current performance and document new achievements as they happen.")
	}

	current := s.Score.ExcellenceScore
	gap := pred.Gap
	var milestones []Milestone
	if gap <= 0 {
		milestones = append(milestones, Milestone{
			Title:       "Sustain excellence",
			TargetScore: current,
			TargetDate:  s.At.AddDate(0, 0, milestoneDays[0]),
			Description: "Score already meets the requirement; keep it there.",
		})
	} else {
		for i, days := range milestoneDays {
			step := float64(i+1) / float64(len(milestoneDays))
			milestones = append(milestones, Milestone{
				Title:       milestoneTitle(i),
				TargetScore: round(current+gap*step, 1),
				TargetDate:  s.At.AddDate(0, 0, days),
				Description: milestoneDescription(i, target),
			})
		}
	}

	return &Roadmap{
		StudentID:         s.Data.Profile.StudentID,
		TargetDistinction: target,
		CurrentScore:      current,
		Probability:       pred.Probability,
		ImmediateActions:  actions,
		Milestones:        milestones,
		Resources:         resources,
		Networking:        append([]string(nil), networking[target]...),
		GeneratedAt:       s.At,
	}, nil
}

func milestoneTitle(i int) string {
	switch i {
	case 0:
		return "Foundation"
	case 1:
		return "Momentum"
	default:
		return "Distinction ready"
	}
}

func milestoneDescription(i int, d domain.Distinction) string {
	switch i {
	case 0:
		return "Address the highest priority improvement factors."
	case 1:
		return "Show a sustained upward trajectory across factors."
	default:
		return "Meet the excellence requirement for " + string(d) + "."
	}
}
