package mentorship

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// sophisticationPatterns are checked from the highest level down, which is
// also the tie-break order.
var sophisticationPatterns = []struct {
	level    domain.Sophistication
	patterns []*regexp.Regexp
}{
	{domain.SophisticationScholar, compile(
		`epistemological`, `ontological`, `paradigmatic`,
		`theoretical implications`, `methodological framework`,
		`meta-analysis`, `systematic review`, `conceptual model`,
	)},
	{domain.SophisticationAdvanced, compile(
		`analyze`, `evaluate`, `critique`, `synthesize`,
		`compare and contrast`, `theoretical perspective`,
		`research methodology`, `empirical evidence`,
	)},
	{domain.SophisticationIntermediate, compile(
		`how does.*relate`, `what is the relationship`,
		`explain the connection`, `compare.*with`,
		`analyze the impact`, `discuss the implications`,
	)},
	{domain.SophisticationBasic, compile(
		`what is`, `explain`, `define`, `describe`,
		`list`, `summarize`, `overview`, `introduction`,
	)},
}

var technicalTerms = []string{
	"methodology", "epistemology", "paradigm", "framework",
	"empirical", "theoretical", "analysis", "synthesis",
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// AssessSophistication rates a query by pattern hits, question count, length
// and technical vocabulary. Ties go to the higher level; a query without any
// signal is basic.
func AssessSophistication(query string) domain.Sophistication {
	q := strings.ToLower(query)

	scores := make(map[domain.Sophistication]int, len(sophisticationPatterns))
	for _, sp := range sophisticationPatterns {
		for _, p := range sp.patterns {
			if p.MatchString(q) {
				scores[sp.level]++
			}
		}
	}

	if strings.Count(query, "?") > 1 {
		scores[domain.SophisticationAdvanced]++
	}
	if len(strings.Fields(query)) > 30 {
		scores[domain.SophisticationAdvanced]++
	}

	switch technical := countContains(q, technicalTerms...); {
	case technical >= 3:
		scores[domain.SophisticationScholar] += 2
	case technical >= 2:
		scores[domain.SophisticationAdvanced]++
	}

	best, bestScore := domain.SophisticationBasic, 0
	for _, sp := range sophisticationPatterns {
		if s := scores[sp.level]; s > bestScore {
			best, bestScore = sp.level, s
		}
	}
	return best
}

// GapAnalysis describes the distance between the student's score and the
// target distinction, and between the query level and the level the target
// calls for.
func GapAnalysis(p *domain.ScholarProfile, s domain.Sophistication) string {
	target := p.TargetDistinction
	if target == "" {
		target = domain.DeanList
	}
	targetScore := 80.0
	if req, err := domain.RequirementFor(target); err == nil {
		targetScore = req.ExcellenceScoreMin
	}

	gap := max(0, targetScore-p.ExcellenceScore)
	levels := domain.SophisticationLevels
	targetIdx := min(len(levels)-1, int(targetScore/25))
	sophGap := max(0, targetIdx-s.Index())

	var sb strings.Builder
	sb.WriteString("Excellence Gap Analysis:\n")
	fmt.Fprintf(&sb, "- Current Excellence Score: %.1f/100\n", p.ExcellenceScore)
	fmt.Fprintf(&sb, "- Target Score for %s: %.1f/100\n", target, targetScore)
	fmt.Fprintf(&sb, "- Score Gap: %.1f points\n", gap)
	fmt.Fprintf(&sb, "- Query Sophistication Level: %s\n", s)
	fmt.Fprintf(&sb, "- Target Sophistication: %s\n", levels[targetIdx])
	fmt.Fprintf(&sb, "- Sophistication Gap: %d levels\n", sophGap)
	sb.WriteString("\nKey Areas for Elevation:\n")

	switch {
	case gap > 20:
		sb.WriteString("- Significant research engagement required\n")
		sb.WriteString("- Advanced theoretical framework mastery needed\n")
	case gap > 10:
		sb.WriteString("- Enhanced critical thinking development\n")
		sb.WriteString("- Deeper scholarly connections required\n")
	default:
		sb.WriteString("- Fine-tuning of academic excellence factors\n")
		sb.WriteString("- Consistency in high-level engagement\n")
	}
	return sb.String()
}

// fieldKeywords is ordered; the first field wins a tie.
var fieldKeywords = []struct {
	field    string
	keywords []string
}{
	{"STEM", []string{"algorithm", "equation", "analysis", "data", "research", "method", "theory"}},
	{"Social Sciences", []string{"society", "behavior", "culture", "psychology", "social"}},
	{"Humanities", []string{"literature", "history", "philosophy", "art", "culture"}},
	{"Business", []string{"business", "management", "strategy", "market", "economics"}},
	{"Medicine", []string{"medical", "clinical", "patient", "health", "disease"}},
	{"Law", []string{"legal", "court", "law", "regulation", "justice"}},
}

// DefaultField is assumed when the documents give no signal.
const DefaultField = "STEM"

// InferField guesses the academic field from document titles and content.
func InferField(chunks []*domain.DocumentChunk) string {
	scores := make([]int, len(fieldKeywords))
	for _, c := range chunks {
		text := strings.ToLower(c.Content + " " + c.Title)
		for i, fk := range fieldKeywords {
			scores[i] += countContains(text, fk.keywords...)
		}
	}

	best, bestScore := DefaultField, 0
	for i, fk := range fieldKeywords {
		if scores[i] > bestScore {
			best, bestScore = fk.field, scores[i]
		}
	}
	return best
}

const (
	PatternNewStudent        = "new_student"
	PatternHighAchiever      = "high_achiever"
	PatternConsistentLearner = "consistent_learner"
	PatternDevelopingScholar = "developing_scholar"
	PatternEmergingStudent   = "emerging_student"
)

// EngagementPattern classifies a student by their recent sessions.
func EngagementPattern(recent []*domain.MentorshipSession) string {
	if len(recent) == 0 {
		return PatternNewStudent
	}

	var total float64
	advanced := 0
	for _, s := range recent {
		total += s.QualityScore
		if s.Sophistication == domain.SophisticationAdvanced || s.Sophistication == domain.SophisticationScholar {
			advanced++
		}
	}
	avg := total / float64(len(recent))

	switch {
	case avg > 4.0 && float64(advanced) >= float64(len(recent))*0.6:
		return PatternHighAchiever
	case avg > 3.5:
		return PatternConsistentLearner
	case advanced > 0:
		return PatternDevelopingScholar
	default:
		return PatternEmergingStudent
	}
}

func countContains(s string, subs ...string) int {
	n := 0
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}
