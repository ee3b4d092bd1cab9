package documents

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/prima-scholar/internal/domain"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const (
	previewLength       = 500
	defaultSearchLimit  = 10
	embedConcurrency    = 4
	defaultMaxSentences = 3
	maxSummarySentences = 10
)

// textBoostWeight is added to the cosine similarity per fully matched query.
const textBoostWeight = 0.1

type Service struct {
	store    domain.DocumentStore
	embedder domain.Embedder
	llm      domain.LLMClient
	now      func() time.Time
}

func NewService(store domain.DocumentStore, embedder domain.Embedder, llm domain.LLMClient) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		llm:      llm,
		now:      time.Now,
	}
}

type UploadInput struct {
	StudentID domain.StudentID
	Title     string
	Filename  string
	Content   io.Reader
}

type UploadResult struct {
	Success           bool                  `json:"success"`
	DocumentTitle     string                `json:"document_title"`
	ChunksProcessed   int                   `json:"chunks_processed"`
	DocumentType      domain.DocumentType   `json:"document_type"`
	AcademicLevel     domain.AcademicLevel  `json:"academic_level"`
	ExcellenceTier    domain.ExcellenceTier `json:"excellence_tier"`
	AverageComplexity float64               `json:"average_complexity"`
	StoredIDs         []domain.ChunkID      `json:"stored_ids"`
	ProcessedAt       time.Time             `json:"processed_at"`
}

// Upload extracts, classifies, chunks and embeds a document and stores its
// chunks.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	log := observability.LoggerFromContext(ctx).With("student_id", in.StudentID, "filename", in.Filename)

	if in.StudentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", domain.ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename))
	}

	text, err := ExtractText(in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	docType := ClassifyDocumentType(text, title)
	level := ClassifyAcademicLevel(text, title)
	tier := ExcellenceTierOf(text)

	pieces := ScholarlyChunks(text, MaxChunkSize)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no chunks could be processed", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	chunks := make([]*domain.DocumentChunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = &domain.DocumentChunk{
			ID:              domain.ChunkID(uuid.NewString()),
			StudentID:       in.StudentID,
			Title:           title,
			Content:         p,
			ChunkIndex:      i,
			DocumentType:    docType,
			AcademicLevel:   level,
			ExcellenceTier:  tier,
			Connections:     Connections(p),
			ComplexityScore: round2(ComplexityScore(p)),
			CitationCount:   CitationPotential(p),
			ImpactFactor:    round2(ImpactFactor(p, tier)),
			CreatedAt:       now,
		}
	}

	s.embedChunks(ctx, chunks)

	if err := s.store.AppendChunks(ctx, chunks); err != nil {
		log.Error("failed to store chunks", "error", err)
		return nil, err
	}

	res := &UploadResult{
		Success:         true,
		DocumentTitle:   title,
		ChunksProcessed: len(chunks),
		DocumentType:    docType,
		AcademicLevel:   level,
		ExcellenceTier:  tier,
		ProcessedAt:     now,
	}
	total := 0.0
	for _, c := range chunks {
		total += c.ComplexityScore
		res.StoredIDs = append(res.StoredIDs, c.ID)
	}
	res.AverageComplexity = round2(total / float64(len(chunks)))

	log.Info("document processed", "chunks", len(chunks), "tier", tier)
	return res, nil
}

// embedChunks fills both embeddings of every chunk. Failures leave a zero
// vector so the chunk is still stored and listed.
func (s *Service) embedChunks(ctx context.Context, chunks []*domain.DocumentChunk) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for _, c := range chunks {
		g.Go(func() error {
			c.Embedding = s.embed(gctx, c.Content)
			c.ExcellenceEmbedding = s.embed(gctx, ExcellenceContext(c.Content, c.ExcellenceTier))
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("embedding failed, using zero vector", "error", err)
		return make([]float32, s.embedder.Dimensions())
	}
	return v
}

func (s *Service) List(ctx context.Context, id domain.StudentID) ([]domain.DocumentSummary, error) {
	return s.store.ListDocuments(ctx, id)
}

type SearchResult struct {
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	DocumentType    domain.DocumentType   `json:"document_type"`
	AcademicLevel   domain.AcademicLevel  `json:"academic_level"`
	ExcellenceTier  domain.ExcellenceTier `json:"excellence_tier"`
	ComplexityScore float64               `json:"complexity_score"`
	CitationCount   int                   `json:"citation_count"`
	ImpactFactor    float64               `json:"impact_factor"`
	SimilarityScore float64               `json:"similarity_score"`
}

// Search ranks stored chunks by cosine similarity to the query, boosted by
// the share of query terms found in the chunk text. An empty id searches
// every student's documents.
func (s *Service) Search(ctx context.Context, query string, id domain.StudentID, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	chunks, err := s.store.ListChunks(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []SearchResult{}, nil
	}

	var qvec []float32
	if s.embedder != nil {
		if v, err := s.embedder.Embed(ctx, query); err == nil {
			qvec = v
		} else {
			observability.LoggerFromContext(ctx).Warn("query embedding failed, text match only", "error", err)
		}
	}
	terms := queryTerms(query)

	type scored struct {
		chunk *domain.DocumentChunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		score := Cosine(qvec, c.Embedding) + textBoostWeight*termCoverage(terms, c.Content)
		ranked = append(ranked, scored{chunk: c, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		c := r.chunk
		out = append(out, SearchResult{
			Title:           c.Title,
			Content:         Preview(c.Content, previewLength),
			DocumentType:    c.DocumentType,
			AcademicLevel:   c.AcademicLevel,
			ExcellenceTier:  c.ExcellenceTier,
			ComplexityScore: c.ComplexityScore,
			CitationCount:   c.CitationCount,
			ImpactFactor:    c.ImpactFactor,
			SimilarityScore: round4(r.score),
		})
	}
	return out, nil
}

// RelevantContext returns the content of the best matching chunks of a
// student; errors yield no context.
func (s *Service) RelevantContext(ctx context.Context, id domain.StudentID, query string, limit int) []string {
	results, err := s.Search(ctx, query, id, limit)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.SimilarityScore > 0 {
			out = append(out, r.Content)
		}
	}
	return out
}

type Analytics struct {
	TotalDocuments   int                           `json:"total_documents"`
	AvgComplexity    float64                       `json:"avg_complexity"`
	AvgCitations     float64                       `json:"avg_citations"`
	AvgImpact        float64                       `json:"avg_impact"`
	TierDistribution map[domain.ExcellenceTier]int `json:"tier_distribution"`
}

// Analytics aggregates a student's chunks.
func (s *Service) Analytics(ctx context.Context, id domain.StudentID) (*Analytics, error) {
	chunks, err := s.store.ListChunks(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	a := &Analytics{TierDistribution: map[domain.ExcellenceTier]int{}}
	if len(chunks) == 0 {
		return a, nil
	}

	var complexity, citations, impact float64
	for _, c := range chunks {
		a.TierDistribution[c.ExcellenceTier]++
		complexity += c.ComplexityScore
		citations += float64(c.CitationCount)
		impact += c.ImpactFactor
	}
	n := float64(len(chunks))
	a.TotalDocuments = len(chunks)
	a.AvgComplexity = round2(complexity / n)
	a.AvgCitations = round2(citations / n)
	a.AvgImpact = round2(impact / n)
	return a, nil
}

type Summary struct {
	Summary   string `json:"summary"`
	Method    string `json:"method"`
	Sentences int    `json:"sentences"`
}

const (
	MethodLLM        = "llm"
	MethodExtractive = "extractive"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// Summarize asks the LLM for a summary of at most maxSentences sentences and
// falls back to the leading sentences of the text.
func (s *Service) Summarize(ctx context.Context, text string, maxSentences int) (*Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	maxSentences = min(maxSentences, maxSummarySentences)

	if s.llm != nil {
		out, err := s.llm.Generate(ctx, domain.Prompt{
			System: fmt.Sprintf("You summarize academic text for a student. Answer with at most %d sentences of plain prose.", maxSentences),
			User:   text,
		})
		out = strings.TrimSpace(out)
		if err == nil && out != "" {
			return &Summary{Summary: out, Method: MethodLLM, Sentences: len(Sentences(out))}, nil
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("llm summary failed, using extractive summary", "error", err)
		}
	}

	lead := Sentences(text)
	if len(lead) > maxSentences {
		lead = lead[:maxSentences]
	}
	return &Summary{Summary: strings.Join(lead, " "), Method: MethodExtractive, Sentences: len(lead)}, nil
}

// Sentences splits text on terminal punctuation, keeping it.
func Sentences(text string) []string {
	var out []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Cosine returns the cosine similarity of a and b, 0 when either is empty,
// zero or of a different length.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Preview truncates content to n characters with an ellipsis.
func Preview(content string, n int) string {
	r := []rune(content)
	if len(r) <= n {
		return content
	}
	return string(r[:n]) + "..."
}

func queryTerms(q string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(q)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func termCoverage(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	c := strings.ToLower(content)
	hits := 0
	for _, t := range terms {
		if strings.Contains(c, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
