package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

type Store struct {
	client *firestore.Client
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Firestore store.
// Uses the project passed (PRIMA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

// Ping reads a sentinel document; NotFound still proves connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore Ping: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) profilesCol() *firestore.CollectionRef {
	return s.client.Collection("scholar_profiles")
}

func (s *Store) profileDoc(id domain.StudentID) *firestore.DocumentRef {
	return s.profilesCol().Doc(string(id))
}

func (s *Store) sub(id domain.StudentID, name string) *firestore.CollectionRef {
	return s.profileDoc(id).Collection(name)
}

func (s *Store) documentsCol() *firestore.CollectionRef {
	return s.client.Collection("academic_documents")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type profileDoc struct {
	CurrentGPA           float64   `firestore:"current_gpa"`
	TargetDistinction    string    `firestore:"target_distinction"`
	AcademicLevel        string    `firestore:"academic_level"`
	ExcellenceScore      float64   `firestore:"excellence_score"`
	HonorsCourses        int       `firestore:"honors_courses"`
	GPATrend             string    `firestore:"gpa_trend"`
	ResearchProjects     int       `firestore:"research_projects"`
	Publications         int       `firestore:"publications"`
	Presentations        int       `firestore:"presentations"`
	FrameworksEngaged    int       `firestore:"frameworks_engaged"`
	LeadershipRoles      []string  `firestore:"leadership_roles"`
	ServiceHours         float64   `firestore:"service_hours"`
	LeadershipImpact     float64   `firestore:"leadership_impact"`
	OriginalProjects     int       `firestore:"original_projects"`
	CreativeWorks        int       `firestore:"creative_works"`
	InnovativeApproaches int       `firestore:"innovative_approaches"`
	CreatedAt            time.Time `firestore:"created_at"`
	UpdatedAt            time.Time `firestore:"updated_at"`
}

type trajectoryDoc struct {
	Score   float64            `firestore:"excellence_score"`
	Date    time.Time          `firestore:"date"`
	Factors map[string]float64 `firestore:"factors"`
}

type chunkDoc struct {
	StudentID           string    `firestore:"student_id"`
	Title               string    `firestore:"title"`
	ChunkIndex          int       `firestore:"chunk_index"`
	Data                string    `firestore:"data"`
	Embedding           []float64 `firestore:"embedding"`
	ExcellenceEmbedding []float64 `firestore:"excellence_embedding"`
	CreatedAt           time.Time `firestore:"created_at"`
}

// jsonDoc holds records whose nested shape Firestore does not need to index.
type jsonDoc struct {
	StudentID string    `firestore:"student_id"`
	Data      string    `firestore:"data"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toProfileDoc(p *domain.ScholarProfile) profileDoc {
	return profileDoc{
		CurrentGPA:           p.CurrentGPA,
		TargetDistinction:    string(p.TargetDistinction),
		AcademicLevel:        string(p.AcademicLevel),
		ExcellenceScore:      p.ExcellenceScore,
		HonorsCourses:        p.HonorsCourses,
		GPATrend:             string(p.GPATrend),
		ResearchProjects:     p.ResearchProjects,
		Publications:         p.Publications,
		Presentations:        p.Presentations,
		FrameworksEngaged:    p.FrameworksEngaged,
		LeadershipRoles:      p.LeadershipRoles,
		ServiceHours:         p.ServiceHours,
		LeadershipImpact:     p.LeadershipImpact,
		OriginalProjects:     p.OriginalProjects,
		CreativeWorks:        p.CreativeWorks,
		InnovativeApproaches: p.InnovativeApproaches,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func fromProfileDoc(id domain.StudentID, d profileDoc) *domain.ScholarProfile {
	return &domain.ScholarProfile{
		StudentID:            id,
		CurrentGPA:           d.CurrentGPA,
		TargetDistinction:    domain.Distinction(d.TargetDistinction),
		AcademicLevel:        domain.AcademicLevel(d.AcademicLevel),
		ExcellenceScore:      d.ExcellenceScore,
		HonorsCourses:        d.HonorsCourses,
		GPATrend:             domain.GPATrend(d.GPATrend),
		ResearchProjects:     d.ResearchProjects,
		Publications:         d.Publications,
		Presentations:        d.Presentations,
		FrameworksEngaged:    d.FrameworksEngaged,
		LeadershipRoles:      d.LeadershipRoles,
		ServiceHours:         d.ServiceHours,
		LeadershipImpact:     d.LeadershipImpact,
		OriginalProjects:     d.OriginalProjects,
		CreativeWorks:        d.CreativeWorks,
		InnovativeApproaches: d.InnovativeApproaches,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func factorsMap(f domain.ExcellenceFactors) map[string]float64 {
	return map[string]float64{
		"academic_performance":  f.AcademicPerformance,
		"research_engagement":   f.ResearchEngagement,
		"critical_thinking":     f.CriticalThinking,
		"leadership_service":    f.LeadershipService,
		"innovation_creativity": f.InnovationCreativity,
	}
}

func factorsFromMap(m map[string]float64) domain.ExcellenceFactors {
	return domain.ExcellenceFactors{
		AcademicPerformance:  m["academic_performance"],
		ResearchEngagement:   m["research_engagement"],
		CriticalThinking:     m["critical_thinking"],
		LeadershipService:    m["leadership_service"],
		InnovationCreativity: m["innovation_creativity"],
	}
}

func to64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func to32(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func putJSON(ctx context.Context, ref *firestore.DocumentRef, id domain.StudentID, v any, at time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, jsonDoc{StudentID: string(id), Data: string(data), CreatedAt: at})
	return err
}

// collectJSON drains q and decodes each jsonDoc into a T.
func collectJSON[T any](ctx context.Context, q firestore.Query) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*T{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, err
		}

		var doc jsonDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode jsonDoc: %w", err)
		}
		v := new(T)
		if err := json.Unmarshal([]byte(doc.Data), v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) UpsertProfile(ctx context.Context, p *domain.ScholarProfile) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: profile without student id", domain.ErrInvalidInput)
	}

	doc := toProfileDoc(p)
	if existing, err := s.GetProfile(ctx, p.StudentID); err == nil {
		doc.CreatedAt = existing.CreatedAt
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	if _, err := s.profileDoc(p.StudentID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore UpsertProfile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id domain.StudentID) (*domain.ScholarProfile, error) {
	snap, err := s.profileDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}
	return fromProfileDoc(id, doc), nil
}

func (s *Store) UpdateExcellenceScore(
	ctx context.Context,
	id domain.StudentID,
	score float64,
	factors domain.ExcellenceFactors,
	at time.Time,
) error {
	d := day(at)

	_, err := s.profileDoc(id).Update(ctx, []firestore.Update{
		{Path: "excellence_score", Value: score},
		{Path: "updated_at", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore UpdateExcellenceScore: %w", err)
	}

	_, err = s.sub(id, "trajectory").Doc(d.Format("2006-01-02")).Set(ctx, trajectoryDoc{
		Score:   score,
		Date:    d,
		Factors: factorsMap(factors),
	})
	if err != nil {
		return fmt.Errorf("firestore trajectory: %w", err)
	}
	return nil
}

func (s *Store) ListTrajectory(ctx context.Context, id domain.StudentID, limit int) ([]domain.TrajectoryPoint, error) {
	q := s.sub(id, "trajectory").OrderBy("date", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.TrajectoryPoint
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListTrajectory: %w", err)
		}

		var doc trajectoryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode trajectoryDoc: %w", err)
		}
		out = append(out, domain.TrajectoryPoint{
			StudentID: id,
			Score:     doc.Score,
			Date:      doc.Date,
			Factors:   factorsFromMap(doc.Factors),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) AddAchievement(ctx context.Context, a *domain.Achievement) error {
	if a == nil || a.StudentID == "" {
		return fmt.Errorf("%w: achievement without student id", domain.ErrInvalidInput)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = domain.VerificationPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	if err := putJSON(ctx, s.sub(a.StudentID, "achievements").Doc(a.ID), a.StudentID, a, a.CreatedAt); err != nil {
		return fmt.Errorf("firestore AddAchievement: %w", err)
	}
	return nil
}

func (s *Store) ListAchievements(ctx context.Context, id domain.StudentID) ([]*domain.Achievement, error) {
	out, err := collectJSON[domain.Achievement](ctx, s.sub(id, "achievements").OrderBy("created_at", firestore.Asc))
	if err != nil {
		return nil, fmt.Errorf("firestore ListAchievements: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendChunks(ctx context.Context, chunks []*domain.DocumentChunk) error {
	bw := s.client.BulkWriter(ctx)
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = domain.ChunkID(uuid.NewString())
		}
		data, err := json.Marshal(c)
		if err != nil {
			bw.End()
			return fmt.Errorf("encode chunk: %w", err)
		}
		doc := chunkDoc{
			StudentID:           string(c.StudentID),
			Title:               c.Title,
			ChunkIndex:          c.ChunkIndex,
			Data:                string(data),
			Embedding:           to64(c.Embedding),
			ExcellenceEmbedding: to64(c.ExcellenceEmbedding),
			CreatedAt:           c.CreatedAt,
		}
		if _, err := bw.Set(s.documentsCol().Doc(string(c.ID)), doc); err != nil {
			bw.End()
			return fmt.Errorf("firestore AppendChunks: %w", err)
		}
	}
	bw.End()
	return nil
}

func (s *Store) ListChunks(ctx context.Context, id domain.StudentID, limit int) ([]*domain.DocumentChunk, error) {
	q := s.documentsCol().OrderBy("created_at", firestore.Desc)
	if id != "" {
		q = s.documentsCol().Where("student_id", "==", string(id)).OrderBy("created_at", firestore.Desc)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.DocumentChunk
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListChunks: %w", err)
		}

		var doc chunkDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode chunkDoc: %w", err)
		}
		var c domain.DocumentChunk
		if err := json.Unmarshal([]byte(doc.Data), &c); err != nil {
			return nil, fmt.Errorf("decode chunk %s: %w", snap.Ref.ID, err)
		}
		c.Embedding = to32(doc.Embedding)
		c.ExcellenceEmbedding = to32(doc.ExcellenceEmbedding)
		out = append(out, &c)
	}

	// upload order
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListDocuments(ctx context.Context, id domain.StudentID) ([]domain.DocumentSummary, error) {
	chunks, err := s.ListChunks(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	byTitle := make(map[string]*domain.DocumentSummary)
	var order []string
	for _, c := range chunks {
		sum, ok := byTitle[c.Title]
		if !ok {
			sum = &domain.DocumentSummary{
				Title:          c.Title,
				DocumentType:   c.DocumentType,
				AcademicLevel:  c.AcademicLevel,
				ExcellenceTier: c.ExcellenceTier,
				UploadedAt:     c.CreatedAt,
			}
			byTitle[c.Title] = sum
			order = append(order, c.Title)
		}
		sum.Chunks++
	}

	out := make([]domain.DocumentSummary, 0, len(order))
	for _, t := range order {
		out = append(out, *byTitle[t])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// ─────────────────────────────────────────
// MentorshipStore / PredictionStore / ToolLogStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendSession(ctx context.Context, sess *domain.MentorshipSession) error {
	if sess == nil || sess.StudentID == "" {
		return fmt.Errorf("%w: session without student id", domain.ErrInvalidInput)
	}
	if sess.ID == "" {
		sess.ID = domain.SessionID(uuid.NewString())
	}
	ref := s.sub(sess.StudentID, "mentorship_sessions").Doc(string(sess.ID))
	if err := putJSON(ctx, ref, sess.StudentID, sess, sess.CreatedAt); err != nil {
		return fmt.Errorf("firestore AppendSession: %w", err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, id domain.StudentID, limit int) ([]*domain.MentorshipSession, error) {
	q := s.sub(id, "mentorship_sessions").OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := collectJSON[domain.MentorshipSession](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("firestore ListSessions: %w", err)
	}
	return out, nil
}

func (s *Store) SavePrediction(ctx context.Context, p *domain.Prediction) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: prediction without student id", domain.ErrInvalidInput)
	}
	ref := s.sub(p.StudentID, "distinction_predictions").Doc(string(p.Distinction))
	if err := putJSON(ctx, ref, p.StudentID, p, p.CalculatedAt); err != nil {
		return fmt.Errorf("firestore SavePrediction: %w", err)
	}
	return nil
}

func (s *Store) ListPredictions(ctx context.Context, id domain.StudentID) ([]*domain.Prediction, error) {
	found, err := collectJSON[domain.Prediction](ctx, s.sub(id, "distinction_predictions").Query)
	if err != nil {
		return nil, fmt.Errorf("firestore ListPredictions: %w", err)
	}

	byDistinction := make(map[domain.Distinction]*domain.Prediction, len(found))
	for _, p := range found {
		byDistinction[p.Distinction] = p
	}
	out := []*domain.Prediction{}
	for _, req := range domain.Requirements {
		if p, ok := byDistinction[req.Distinction]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) AppendToolLog(ctx context.Context, l *domain.ToolLog) error {
	if l == nil {
		return nil
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	ref := s.sub(l.StudentID, "external_tool_logs").Doc(l.ID)
	if err := putJSON(ctx, ref, l.StudentID, l, l.CreatedAt); err != nil {
		return fmt.Errorf("firestore AppendToolLog: %w", err)
	}
	return nil
}

func (s *Store) ListToolLogs(ctx context.Context, id domain.StudentID, limit int) ([]*domain.ToolLog, error) {
	q := s.sub(id, "external_tool_logs").OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := collectJSON[domain.ToolLog](ctx, q)
	if err != nil {
		return nil, fmt.Errorf("firestore ListToolLogs: %w", err)
	}
	return out, nil
}
