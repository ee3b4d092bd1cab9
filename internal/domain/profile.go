package domain

// ScholarProfile is the long-lived record of a student and the activity
// counters the excellence engine scores.
type ScholarProfile struct {
	StudentID         StudentID     `json:"student_id"`
	CurrentGPA        float64       `json:"current_gpa"`
	TargetDistinction Distinction   `json:"target_distinction"`
	AcademicLevel     AcademicLevel `json:"academic_level"`
	ExcellenceScore   float64       `json:"excellence_score"`

	HonorsCourses        int      `json:"honors_courses"`
	GPATrend             GPATrend `json:"gpa_trend"`
	ResearchProjects     int      `json:"research_projects"`
	Publications         int      `json:"publications"`
	Presentations        int      `json:"presentations"`
	FrameworksEngaged    int      `json:"theoretical_frameworks_engaged"`
	LeadershipRoles      []string `json:"leadership_roles"`
	ServiceHours         float64  `json:"service_hours"`
	LeadershipImpact     float64  `json:"leadership_impact_score"`
	OriginalProjects     int      `json:"original_projects"`
	CreativeWorks        int      `json:"creative_works"`
	InnovativeApproaches int      `json:"innovative_approaches_suggested"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// ExcellenceFactors are the five weighted components of the excellence score.
type ExcellenceFactors struct {
	AcademicPerformance  float64 `json:"academic_performance"`
	ResearchEngagement   float64 `json:"research_engagement"`
	CriticalThinking     float64 `json:"critical_thinking"`
	LeadershipService    float64 `json:"leadership_service"`
	InnovationCreativity float64 `json:"innovation_creativity"`
}

// TrajectoryPoint is one day's excellence score for a student.
type TrajectoryPoint struct {
	StudentID StudentID         `json:"student_id"`
	Score     float64           `json:"excellence_score"`
	Date      Timestamp         `json:"date"`
	Factors   ExcellenceFactors `json:"factors"`
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

type Achievement struct {
	ID          string             `json:"id"`
	StudentID   StudentID          `json:"student_id"`
	Type        string             `json:"achievement_type"`
	Name        string             `json:"achievement_name"`
	ImpactScore float64            `json:"impact_score"`
	Status      VerificationStatus `json:"verification_status"`
	Date        Timestamp          `json:"achievement_date"`
	Description string             `json:"description"`
	CreatedAt   Timestamp          `json:"created_at"`
}

// StudentData is the aggregate the excellence engine scores: the profile
// plus everything derived from the other stores.
type StudentData struct {
	Profile        *ScholarProfile
	Achievements   []*Achievement
	Sessions       []*MentorshipSession
	EliteDocs      int
	ProfileAgeDays int
}
