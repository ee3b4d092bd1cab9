package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// timestamps are stored as fixed-width UTC text so they sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS scholar_profiles (
	student_id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	excellence_score REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS excellence_trajectory (
	student_id TEXT NOT NULL,
	day TEXT NOT NULL,
	excellence_score REAL NOT NULL,
	factors TEXT NOT NULL,
	PRIMARY KEY (student_id, day)
);

CREATE TABLE IF NOT EXISTS achievement_records (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_achievements_student ON achievement_records(student_id);

CREATE TABLE IF NOT EXISTS academic_documents (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	title TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	data TEXT NOT NULL,
	embedding TEXT,
	excellence_embedding TEXT,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_student ON academic_documents(student_id);

CREATE TABLE IF NOT EXISTS mentorship_sessions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	student_id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_student ON mentorship_sessions(student_id);

CREATE TABLE IF NOT EXISTS distinction_predictions (
	student_id TEXT NOT NULL,
	distinction TEXT NOT NULL,
	data TEXT NOT NULL,
	calculated_at TEXT NOT NULL,
	PRIMARY KEY (student_id, distinction)
);

CREATE TABLE IF NOT EXISTS external_tool_logs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	student_id TEXT NOT NULL,
	tool_name TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_logs_student ON external_tool_logs(student_id);
`

// Store implements every domain store port on an embedded SQLite file.
type Store struct {
	db *sql.DB
}

var _ domain.Store = (*Store)(nil)

// Open creates the database file (and its directory) and the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Cleanup removes tool logs and trajectory points older than maxAge and
// returns the number of deleted rows.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := ts(time.Now().Add(-maxAge))

	var total int64
	for _, q := range []string{
		`DELETE FROM external_tool_logs WHERE created_at < ?`,
		`DELETE FROM excellence_trajectory WHERE day < ?`,
	} {
		res, err := s.db.ExecContext(ctx, q, cutoff)
		if err != nil {
			return total, fmt.Errorf("sqlite Cleanup: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) UpsertProfile(ctx context.Context, p *domain.ScholarProfile) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: profile without student id", domain.ErrInvalidInput)
	}

	cp := *p
	existing, err := s.GetProfile(ctx, p.StudentID)
	switch {
	case err == nil:
		cp.CreatedAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scholar_profiles (student_id, data, excellence_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			data = excluded.data,
			excellence_score = excluded.excellence_score,
			updated_at = excluded.updated_at`,
		string(cp.StudentID), string(data), cp.ExcellenceScore, ts(cp.CreatedAt), ts(cp.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite UpsertProfile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id domain.StudentID) (*domain.ScholarProfile, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scholar_profiles WHERE student_id = ?`, string(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite GetProfile: %w", err)
	}

	var p domain.ScholarProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateExcellenceScore(
	ctx context.Context,
	id domain.StudentID,
	score float64,
	factors domain.ExcellenceFactors,
	at time.Time,
) error {
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	p.ExcellenceScore = score
	p.UpdatedAt = at

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite UpdateExcellenceScore: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE scholar_profiles SET data = ?, excellence_score = ?, updated_at = ? WHERE student_id = ?`,
		string(data), score, ts(at), string(id)); err != nil {
		return fmt.Errorf("sqlite UpdateExcellenceScore: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO excellence_trajectory (student_id, day, excellence_score, factors)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(student_id, day) DO UPDATE SET
			excellence_score = excluded.excellence_score,
			factors = excluded.factors`,
		string(id), ts(day(at)), score, string(factorsJSON)); err != nil {
		return fmt.Errorf("sqlite trajectory: %w", err)
	}
	return tx.Commit()
}

func (s *Store) ListTrajectory(ctx context.Context, id domain.StudentID, limit int) ([]domain.TrajectoryPoint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, excellence_score, factors FROM excellence_trajectory
		WHERE student_id = ? ORDER BY day DESC LIMIT ?`, string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListTrajectory: %w", err)
	}
	defer rows.Close()

	var out []domain.TrajectoryPoint
	for rows.Next() {
		var (
			dayStr, factors string
			score           float64
		)
		if err := rows.Scan(&dayStr, &score, &factors); err != nil {
			return nil, fmt.Errorf("sqlite ListTrajectory scan: %w", err)
		}
		pt := domain.TrajectoryPoint{StudentID: id, Score: score, Date: parseTS(dayStr)}
		if err := json.Unmarshal([]byte(factors), &pt.Factors); err != nil {
			return nil, fmt.Errorf("decode factors: %w", err)
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// chronological
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
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

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode achievement: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO achievement_records (id, student_id, data, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, string(a.StudentID), string(data), ts(a.CreatedAt)); err != nil {
		return fmt.Errorf("sqlite AddAchievement: %w", err)
	}
	return nil
}

func (s *Store) ListAchievements(ctx context.Context, id domain.StudentID) ([]*domain.Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM achievement_records WHERE student_id = ? ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListAchievements: %w", err)
	}
	return scanJSON[domain.Achievement](rows)
}

// ─────────────────────────────────────────
// DocumentStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendChunks(ctx context.Context, chunks []*domain.DocumentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite AppendChunks: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO academic_documents
			(id, student_id, title, chunk_index, data, embedding, excellence_embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite AppendChunks prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.ID == "" {
			c.ID = domain.ChunkID(uuid.NewString())
		}
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode chunk: %w", err)
		}
		emb, _ := json.Marshal(c.Embedding)
		excEmb, _ := json.Marshal(c.ExcellenceEmbedding)
		if _, err := stmt.ExecContext(ctx,
			string(c.ID), string(c.StudentID), c.Title, c.ChunkIndex,
			string(data), string(emb), string(excEmb), ts(c.CreatedAt)); err != nil {
			return fmt.Errorf("sqlite AppendChunks: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListChunks(ctx context.Context, id domain.StudentID, limit int) ([]*domain.DocumentChunk, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT data, embedding, excellence_embedding FROM (
			SELECT rowid AS r, data, embedding, excellence_embedding FROM academic_documents
			WHERE ? = '' OR student_id = ?
			ORDER BY rowid DESC LIMIT ?
		) ORDER BY r`, string(id), string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListChunks: %w", err)
	}
	defer rows.Close()

	var out []*domain.DocumentChunk
	for rows.Next() {
		var data string
		var emb, excEmb sql.NullString
		if err := rows.Scan(&data, &emb, &excEmb); err != nil {
			return nil, fmt.Errorf("sqlite ListChunks scan: %w", err)
		}
		var c domain.DocumentChunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		if emb.Valid {
			_ = json.Unmarshal([]byte(emb.String), &c.Embedding)
		}
		if excEmb.Valid {
			_ = json.Unmarshal([]byte(excEmb.String), &c.ExcellenceEmbedding)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) ListDocuments(ctx context.Context, id domain.StudentID) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title,
			json_extract(MIN(CASE WHEN chunk_index = 0 THEN data END), '$.document_type'),
			json_extract(MIN(CASE WHEN chunk_index = 0 THEN data END), '$.academic_level'),
			json_extract(MIN(CASE WHEN chunk_index = 0 THEN data END), '$.excellence_tier'),
			COUNT(*), MIN(created_at)
		FROM academic_documents
		WHERE ? = '' OR student_id = ?
		GROUP BY title
		ORDER BY MIN(created_at) DESC`, string(id), string(id))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListDocuments: %w", err)
	}
	defer rows.Close()

	out := []domain.DocumentSummary{}
	for rows.Next() {
		var (
			sum                  domain.DocumentSummary
			docType, level, tier sql.NullString
			uploaded             string
		)
		if err := rows.Scan(&sum.Title, &docType, &level, &tier, &sum.Chunks, &uploaded); err != nil {
			return nil, fmt.Errorf("sqlite ListDocuments scan: %w", err)
		}
		sum.DocumentType = domain.DocumentType(docType.String)
		sum.AcademicLevel = domain.AcademicLevel(level.String)
		sum.ExcellenceTier = domain.ExcellenceTier(tier.String)
		sum.UploadedAt = parseTS(uploaded)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────
// MentorshipStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendSession(ctx context.Context, sess *domain.MentorshipSession) error {
	if sess == nil || sess.StudentID == "" {
		return fmt.Errorf("%w: session without student id", domain.ErrInvalidInput)
	}
	if sess.ID == "" {
		sess.ID = domain.SessionID(uuid.NewString())
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO mentorship_sessions (id, student_id, data, created_at) VALUES (?, ?, ?, ?)`,
		string(sess.ID), string(sess.StudentID), string(data), ts(sess.CreatedAt)); err != nil {
		return fmt.Errorf("sqlite AppendSession: %w", err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, id domain.StudentID, limit int) ([]*domain.MentorshipSession, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM mentorship_sessions WHERE student_id = ? ORDER BY seq DESC LIMIT ?`,
		string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListSessions: %w", err)
	}
	return scanJSON[domain.MentorshipSession](rows)
}

// ─────────────────────────────────────────
// PredictionStore implementation
// ─────────────────────────────────────────

func (s *Store) SavePrediction(ctx context.Context, p *domain.Prediction) error {
	if p == nil || p.StudentID == "" {
		return fmt.Errorf("%w: prediction without student id", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO distinction_predictions (student_id, distinction, data, calculated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(student_id, distinction) DO UPDATE SET
			data = excluded.data,
			calculated_at = excluded.calculated_at`,
		string(p.StudentID), string(p.Distinction), string(data), ts(p.CalculatedAt)); err != nil {
		return fmt.Errorf("sqlite SavePrediction: %w", err)
	}
	return nil
}

func (s *Store) ListPredictions(ctx context.Context, id domain.StudentID) ([]*domain.Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM distinction_predictions WHERE student_id = ?`, string(id))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListPredictions: %w", err)
	}
	found, err := scanJSON[domain.Prediction](rows)
	if err != nil {
		return nil, err
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

// ─────────────────────────────────────────
// ToolLogStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendToolLog(ctx context.Context, l *domain.ToolLog) error {
	if l == nil {
		return nil
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode tool log: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO external_tool_logs (id, student_id, tool_name, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, string(l.StudentID), l.ToolName, string(data), ts(l.CreatedAt)); err != nil {
		return fmt.Errorf("sqlite AppendToolLog: %w", err)
	}
	return nil
}

func (s *Store) ListToolLogs(ctx context.Context, id domain.StudentID, limit int) ([]*domain.ToolLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM external_tool_logs WHERE student_id = ? ORDER BY seq DESC LIMIT ?`,
		string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListToolLogs: %w", err)
	}
	return scanJSON[domain.ToolLog](rows)
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

// scanJSON decodes a single-column result of JSON documents and closes rows.
func scanJSON[T any](rows *sql.Rows) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		v := new(T)
		if err := json.Unmarshal([]byte(data), v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
