package documents

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// MaxChunkSize is the largest chunk, in characters, the chunker emits.
const MaxChunkSize = 2000

// minChunkWords drops fragments such as headings and captions.
const minChunkWords = 10

var excellenceKeywords = map[domain.ExcellenceTier][]string{
	domain.TierElite: {
		"seminal", "groundbreaking", "paradigm", "revolutionary",
		"fundamental theorem", "novel framework", "breakthrough",
		"theoretical foundation", "empirical validation", "meta-analysis",
	},
	domain.TierScholar: {
		"theoretical framework", "methodology", "empirical analysis",
		"systematic approach", "comprehensive review", "analytical framework",
		"research methodology", "statistical analysis", "hypothesis testing",
	},
	domain.TierAdvanced: {
		"complex analysis", "sophisticated approach", "comprehensive study",
		"in-depth analysis", "advanced concepts", "detailed examination",
		"rigorous analysis", "systematic investigation",
	},
}

var sophisticationIndicators = []string{
	"theoretical framework", "empirical validation", "meta-analysis",
	"statistical significance", "peer review", "systematic review",
}

// levelIndicators is checked in order; the first level with a hit wins.
var levelIndicators = []struct {
	level      domain.AcademicLevel
	indicators []string
}{
	{domain.LevelDoctoral, []string{"dissertation", "thesis defense", "original research", "comprehensive examination", "doctoral candidate"}},
	{domain.LevelGraduate, []string{"master thesis", "graduate seminar", "advanced coursework", "research methods", "graduate studies"}},
	{domain.LevelUndergraduate, []string{"undergraduate research", "senior project", "capstone", "course project", "term paper"}},
}

var tierContext = map[domain.ExcellenceTier]string{
	domain.TierElite:    "This content represents groundbreaking research and seminal work. ",
	domain.TierScholar:  "This content demonstrates advanced scholarly analysis. ",
	domain.TierAdvanced: "This content shows sophisticated academic understanding. ",
	domain.TierBasic:    "This content covers fundamental academic concepts. ",
}

var tierImpact = map[domain.ExcellenceTier]float64{
	domain.TierElite:    4.5,
	domain.TierScholar:  3.2,
	domain.TierAdvanced: 2.1,
	domain.TierBasic:    0.8,
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	sectionSplit  = regexp.MustCompile(`(?i)\n\s*(?:abstract|introduction|methodology|results|discussion|conclusion|references)\s*\n`)

	citationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\([A-Z][a-zA-Z\s]+,\s+\d{4}\)`),
		regexp.MustCompile(`\[[0-9,\s-]+\]`),
		regexp.MustCompile(`[A-Z][a-zA-Z\s]+\s+et\s+al\.`),
	}
	conceptPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*\b`)

	theoryPatterns = keywordPatterns("theory", "framework", "model", "paradigm", "approach")
	methodPatterns = keywordPatterns("analysis", "method", "technique", "approach", "procedure")
)

var (
	academicTerms = wordSet("analysis", "methodology", "framework", "hypothesis", "empirical",
		"theoretical", "systematic", "comprehensive", "significant", "correlation")
	qualityWords = wordSet("novel", "significant", "important", "crucial", "essential",
		"groundbreaking", "innovative", "comprehensive", "systematic")
	researchWords = wordSet("study", "research", "investigation", "experiment", "analysis")

	citationIndicators = []string{"et al", "ibid", "op cit", "cf.", "viz."}
	innovationKeywords = []string{"novel", "new", "innovative", "groundbreaking", "first", "unique", "original", "unprecedented"}
)

func keywordPatterns(keywords ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(keywords))
	for i, k := range keywords {
		out[i] = regexp.MustCompile(`(?i)\b\w+\s+` + k + `\b`)
	}
	return out
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// SupportedExtension reports whether text can be extracted from files with ext.
func SupportedExtension(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt", "md", "markdown":
		return true
	}
	return false
}

// ExtractText reads the text of an uploaded file. Only UTF-8 text formats
// are supported.
func ExtractText(filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if !SupportedExtension(ext) {
		return "", fmt.Errorf("%w: unsupported document format %q", domain.ErrInvalidInput, ext)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, filename)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: could not extract text from document", domain.ErrInvalidInput)
	}
	return text, nil
}

func ClassifyDocumentType(content, title string) domain.DocumentType {
	c := strings.ToLower(content)
	t := strings.ToLower(title)

	if countContains(c, "abstract", "methodology", "results", "conclusion", "references") >= 3 {
		return domain.DocResearchPaper
	}
	if containsAny(t, "thesis", "dissertation") {
		return domain.DocThesis
	}
	if strings.Contains(t, "journal") || strings.Contains(c, "volume") {
		return domain.DocJournalArticle
	}
	if containsAny(c, "syllabus", "lecture", "homework", "assignment") {
		return domain.DocCourseMaterial
	}
	if containsAny(c, "chapter", "isbn", "publisher") {
		return domain.DocBook
	}
	if containsAny(t, "presentation", "slides", "ppt") {
		return domain.DocPresentation
	}
	return domain.DocCourseMaterial
}

func ClassifyAcademicLevel(content, title string) domain.AcademicLevel {
	c := strings.ToLower(content)
	t := strings.ToLower(title)

	for _, li := range levelIndicators {
		if containsAny(c, li.indicators...) || containsAny(t, li.indicators...) {
			return li.level
		}
	}

	switch score := ComplexityScore(content); {
	case score >= 80:
		return domain.LevelDoctoral
	case score >= 65:
		return domain.LevelGraduate
	default:
		return domain.LevelUndergraduate
	}
}

// ExcellenceTierOf classifies content by keyword hits, sophistication
// indicators and sentence length.
func ExcellenceTierOf(content string) domain.ExcellenceTier {
	c := strings.ToLower(content)

	sophistication := countContains(c, sophisticationIndicators...)
	sentences := len(sentenceSplit.Split(content, -1))
	avgSentence := float64(len(strings.Fields(content))) / float64(max(sentences, 1))

	switch {
	case countContains(c, excellenceKeywords[domain.TierElite]...) >= 3 || sophistication >= 4:
		return domain.TierElite
	case countContains(c, excellenceKeywords[domain.TierScholar]...) >= 2 || sophistication >= 2:
		return domain.TierScholar
	case countContains(c, excellenceKeywords[domain.TierAdvanced]...) >= 2 || avgSentence > 25:
		return domain.TierAdvanced
	default:
		return domain.TierBasic
	}
}

// ScholarlyChunks splits on section headings, packs oversize sections by
// paragraph up to maxSize characters and drops chunks of minChunkWords words
// or fewer.
func ScholarlyChunks(content string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = MaxChunkSize
	}

	var chunks []string
	for _, section := range sectionSplit.Split(content, -1) {
		if utf8.RuneCountInString(section) <= maxSize {
			chunks = append(chunks, strings.TrimSpace(section))
			continue
		}

		var cur strings.Builder
		for _, para := range strings.Split(section, "\n\n") {
			if utf8.RuneCountInString(cur.String())+utf8.RuneCountInString(para) <= maxSize {
				cur.WriteString(para)
				cur.WriteString("\n\n")
				continue
			}
			if cur.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(cur.String()))
			}
			cur.Reset()
			cur.WriteString(para)
			cur.WriteString("\n\n")
		}
		if cur.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
		}
	}

	out := chunks[:0]
	for _, c := range chunks {
		if len(strings.Fields(c)) > minChunkWords {
			out = append(out, c)
		}
	}
	return out
}

// Connections extracts citations, theories, methodologies and key concepts.
func Connections(text string) domain.ScholarlyConnections {
	conn := domain.ScholarlyConnections{
		Citations:     []string{},
		Theories:      []string{},
		Methodologies: []string{},
		KeyConcepts:   []string{},
	}

	for _, p := range citationPatterns {
		conn.Citations = append(conn.Citations, p.FindAllString(text, 5)...)
	}
	for _, p := range theoryPatterns {
		conn.Theories = append(conn.Theories, p.FindAllString(text, 3)...)
	}
	for _, p := range methodPatterns {
		conn.Methodologies = append(conn.Methodologies, p.FindAllString(text, 3)...)
	}

	for _, c := range conceptPattern.FindAllString(text, -1) {
		if len(conn.KeyConcepts) == 10 {
			break
		}
		if len(strings.Fields(c)) > 3 || c == "The" || c == "This" || c == "That" {
			continue
		}
		conn.KeyConcepts = append(conn.KeyConcepts, c)
	}
	return conn
}

// ComplexityScore rates academic complexity in [0,100].
func ComplexityScore(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	sentences := len(sentenceSplit.Split(text, -1))

	letters, long, academic := 0, 0, 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		letters += n
		if n > 8 {
			long++
		}
		if _, ok := academicTerms[strings.ToLower(w)]; ok {
			academic++
		}
	}

	nw := float64(len(words))
	avgWord := float64(letters) / nw
	avgSentence := nw / float64(sentences)
	citations := countContains(strings.ToLower(text), citationIndicators...)

	score := avgWord*8 +
		math.Min(avgSentence/2, 20) +
		float64(long)/nw*30 +
		float64(academic)/nw*25 +
		math.Min(float64(citations)*5, 15)
	return math.Min(score, 100)
}

// CitationPotential estimates how often a chunk could be cited.
func CitationPotential(text string) int {
	quality, research := 0, 0
	for _, w := range strings.Fields(text) {
		w = strings.ToLower(w)
		if _, ok := qualityWords[w]; ok {
			quality++
		}
		if _, ok := researchWords[w]; ok {
			research++
		}
	}
	return min(quality*2+research, 50)
}

// ImpactFactor combines the tier baseline with complexity and novelty.
func ImpactFactor(text string, tier domain.ExcellenceTier) float64 {
	base, ok := tierImpact[tier]
	if !ok {
		base = 1.0
	}
	complexity := ComplexityScore(text) / 100 * 2
	innovation := math.Min(float64(countContains(strings.ToLower(text), innovationKeywords...))*0.3, 1.5)
	return math.Min(base+complexity+innovation, 10)
}

// ExcellenceContext prefixes text with its tier so the excellence embedding
// places it among peers of the same sophistication.
func ExcellenceContext(text string, tier domain.ExcellenceTier) string {
	return "Academic excellence level: " + string(tier) + ". " + tierContext[tier] + text
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
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
