package mentorship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func TestAssessSophistication(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.Sophistication
	}{
		{"no signal", "Hello there", domain.SophisticationBasic},
		{"definition", "What is photosynthesis?", domain.SophisticationBasic},
		{"relation", "How does inflation relate to unemployment", domain.SophisticationIntermediate},
		{"evaluation", "Can you critique and evaluate this argument", domain.SophisticationAdvanced},
		{"tie goes up", "Explain and analyze", domain.SophisticationAdvanced},
		{"several questions", "Why? How? When?", domain.SophisticationAdvanced},
		{
			"scholar vocabulary",
			"What are the epistemological and ontological assumptions of this paradigm and its methodology",
			domain.SophisticationScholar,
		},
		{
			"technical terms",
			"Is the empirical methodology of this theoretical framework sound",
			domain.SophisticationScholar,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessSophistication(tt.query))
		})
	}
}

func TestGapAnalysis(t *testing.T) {
	far := GapAnalysis(&domain.ScholarProfile{ExcellenceScore: 60, TargetDistinction: domain.SummaCumLaude}, domain.SophisticationBasic)
	assert.Contains(t, far, "- Target Score for Summa_Cum_Laude: 95.0/100")
	assert.Contains(t, far, "- Score Gap: 35.0 points")
	assert.Contains(t, far, "- Target Sophistication: scholar")
	assert.Contains(t, far, "- Sophistication Gap: 3 levels")
	assert.Contains(t, far, "Significant research engagement required")

	mid := GapAnalysis(&domain.ScholarProfile{ExcellenceScore: 60}, domain.SophisticationScholar)
	assert.Contains(t, mid, "Target Score for Dean_List: 75.0/100")
	assert.Contains(t, mid, "- Sophistication Gap: 0 levels")
	assert.Contains(t, mid, "Enhanced critical thinking development")

	near := GapAnalysis(&domain.ScholarProfile{ExcellenceScore: 90}, domain.SophisticationAdvanced)
	assert.Contains(t, near, "- Score Gap: 0.0 points")
	assert.Contains(t, near, "Fine-tuning of academic excellence factors")
}

func TestInferField(t *testing.T) {
	chunk := func(title, content string) *domain.DocumentChunk {
		return &domain.DocumentChunk{Title: title, Content: content}
	}

	assert.Equal(t, DefaultField, InferField(nil))
	assert.Equal(t, "Law", InferField([]*domain.DocumentChunk{chunk("Torts", "The court applied the law with justice")}))
	assert.Equal(t, "Medicine", InferField([]*domain.DocumentChunk{
		chunk("Notes", "clinical trial"),
		chunk("Ward", "patient health outcomes"),
	}))
	// culture counts for two fields; the earlier one wins
	assert.Equal(t, "Social Sciences", InferField([]*domain.DocumentChunk{chunk("", "culture")}))
}

func TestEngagementPattern(t *testing.T) {
	sess := func(q float64, s domain.Sophistication) *domain.MentorshipSession {
		return &domain.MentorshipSession{QualityScore: q, Sophistication: s}
	}

	assert.Equal(t, PatternNewStudent, EngagementPattern(nil))
	assert.Equal(t, PatternHighAchiever, EngagementPattern([]*domain.MentorshipSession{
		sess(4.5, domain.SophisticationScholar),
		sess(4.5, domain.SophisticationAdvanced),
	}))
	assert.Equal(t, PatternConsistentLearner, EngagementPattern([]*domain.MentorshipSession{
		sess(3.8, domain.SophisticationBasic),
	}))
	assert.Equal(t, PatternDevelopingScholar, EngagementPattern([]*domain.MentorshipSession{
		sess(3.0, domain.SophisticationAdvanced),
	}))
	assert.Equal(t, PatternEmergingStudent, EngagementPattern([]*domain.MentorshipSession{
		sess(2.0, domain.SophisticationBasic),
	}))
}
