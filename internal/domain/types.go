package domain

import (
	"fmt"
	"strings"
	"time"
)

type StudentID string
type SessionID string
type ChunkID string

type Timestamp = time.Time

// AcademicLevel is the academic stage of a student or a document.
type AcademicLevel string

const (
	LevelUndergraduate AcademicLevel = "undergraduate"
	LevelGraduate      AcademicLevel = "graduate"
	LevelDoctoral      AcademicLevel = "doctoral"
	LevelPostdoc       AcademicLevel = "postdoc"
)

// Weight is the multiplier applied to the excellence score for the level.
func (l AcademicLevel) Weight() float64 {
	switch l {
	case LevelGraduate:
		return 1.2
	case LevelDoctoral:
		return 1.5
	case LevelPostdoc:
		return 1.8
	default:
		return 1.0
	}
}

func ParseAcademicLevel(s string) (AcademicLevel, error) {
	switch AcademicLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelUndergraduate:
		return LevelUndergraduate, nil
	case LevelGraduate:
		return LevelGraduate, nil
	case LevelDoctoral:
		return LevelDoctoral, nil
	case LevelPostdoc:
		return LevelPostdoc, nil
	}
	return "", fmt.Errorf("%w: unknown academic level %q", ErrInvalidInput, s)
}

// ExcellenceTier classifies content by academic sophistication.
type ExcellenceTier string

const (
	TierBasic    ExcellenceTier = "basic"
	TierAdvanced ExcellenceTier = "advanced"
	TierScholar  ExcellenceTier = "scholar"
	TierElite    ExcellenceTier = "elite"
)

// Rank orders tiers from basic (0) to elite (3).
func (t ExcellenceTier) Rank() int {
	switch t {
	case TierAdvanced:
		return 1
	case TierScholar:
		return 2
	case TierElite:
		return 3
	default:
		return 0
	}
}

// Sophistication is the assessed level of a mentorship query.
type Sophistication string

const (
	SophisticationBasic        Sophistication = "basic"
	SophisticationIntermediate Sophistication = "intermediate"
	SophisticationAdvanced     Sophistication = "advanced"
	SophisticationScholar      Sophistication = "scholar"
)

// SophisticationLevels lists levels from lowest to highest.
var SophisticationLevels = []Sophistication{
	SophisticationBasic,
	SophisticationIntermediate,
	SophisticationAdvanced,
	SophisticationScholar,
}

func (s Sophistication) Index() int {
	for i, l := range SophisticationLevels {
		if l == s {
			return i
		}
	}
	return 0
}

type DocumentType string

const (
	DocResearchPaper  DocumentType = "research_paper"
	DocCourseMaterial DocumentType = "course_material"
	DocThesis         DocumentType = "thesis"
	DocJournalArticle DocumentType = "journal_article"
	DocBook           DocumentType = "book"
	DocPresentation   DocumentType = "presentation"
)

type GPATrend string

const (
	TrendStable    GPATrend = "stable"
	TrendImproving GPATrend = "improving"
	TrendDeclining GPATrend = "declining"
)
