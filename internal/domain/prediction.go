package domain

import "fmt"

// Distinction is an academic honor a student can be predicted to reach.
type Distinction string

const (
	DeanList         Distinction = "Dean_List"
	MagnaCumLaude    Distinction = "Magna_Cum_Laude"
	SummaCumLaude    Distinction = "Summa_Cum_Laude"
	PhiBetaKappa     Distinction = "Phi_Beta_Kappa"
	RhodesScholar    Distinction = "Rhodes_Scholar"
	FulbrightScholar Distinction = "Fulbright_Scholar"
)

// DistinctionRequirement holds the thresholds and weights of one distinction.
type DistinctionRequirement struct {
	Distinction            Distinction `json:"distinction"`
	GPAMin                 float64     `json:"gpa_min"`
	ExcellenceScoreMin     float64     `json:"excellence_score_min"`
	AdditionalRequirements []string    `json:"additional_requirements"`
	GPAWeight              float64     `json:"gpa_weight"`
	ExcellenceWeight       float64     `json:"excellence_weight"`
}

// Requirements lists every known distinction in display order.
var Requirements = []DistinctionRequirement{
	{DeanList, 3.5, 75, []string{"top_15_percent", "full_time_enrollment"}, 0.6, 0.4},
	{MagnaCumLaude, 3.7, 85, []string{"cumulative_gpa", "credit_hours_minimum"}, 0.5, 0.5},
	{SummaCumLaude, 3.9, 95, []string{"thesis_defense", "faculty_recommendation"}, 0.4, 0.6},
	{PhiBetaKappa, 3.8, 90, []string{"liberal_arts_focus", "character_assessment"}, 0.45, 0.55},
	{RhodesScholar, 3.9, 98, []string{"leadership_evidence", "athletic_achievement", "service_commitment"}, 0.3, 0.7},
	{FulbrightScholar, 3.8, 92, []string{"research_proposal", "language_proficiency", "cultural_sensitivity"}, 0.35, 0.65},
}

// RequirementFor looks up the requirement of a distinction.
func RequirementFor(d Distinction) (DistinctionRequirement, error) {
	for _, r := range Requirements {
		if r.Distinction == d {
			return r, nil
		}
	}
	return DistinctionRequirement{}, fmt.Errorf("%w: %s", ErrUnknownDistinction, d)
}

// ImprovementFactor is one concrete area a student should work on.
type ImprovementFactor struct {
	Factor     string  `json:"factor"`
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Priority   string  `json:"priority"`
	Suggestion string  `json:"suggestion"`
}

// Prediction is the probability of a student reaching a distinction.
type Prediction struct {
	StudentID              StudentID           `json:"student_id"`
	Distinction            Distinction         `json:"distinction"`
	Probability            float64             `json:"probability"`
	Confidence             float64             `json:"confidence"`
	CurrentExcellenceScore float64             `json:"current_excellence_score"`
	RequiredExcellence     float64             `json:"required_excellence_score"`
	CurrentGPA             float64             `json:"current_gpa"`
	RequiredGPA            float64             `json:"required_gpa"`
	Gap                    float64             `json:"gap"`
	ImprovementFactors     []ImprovementFactor `json:"improvement_factors"`
	EstimatedAchievement   *Timestamp          `json:"estimated_achievement_date"`
	TrajectoryFactor       float64             `json:"trajectory_factor"`
	KeyFactors             []string            `json:"key_factors"`
	CalculatedAt           Timestamp           `json:"calculated_at"`
}

// ProbabilityUpdate records how a mentorship session moved one prediction.
type ProbabilityUpdate struct {
	Previous float64 `json:"previous"`
	Updated  float64 `json:"updated"`
	Increase float64 `json:"increase"`
}
