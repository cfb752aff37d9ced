package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/textstats"
)

// ProfileDim is the length of a score profile: content, skills, education
// and experience.
const ProfileDim = 4

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type StoreConfig struct {
	ConnString string
	TableName  string
	Logger     *zerolog.Logger
}

// StoredResult is a screening result read back from the database.
type StoredResult struct {
	RunID     uuid.UUID               `json:"run_id"`
	Filename  string                  `json:"filename"`
	Source    string                  `json:"source,omitempty"`
	Scores    scorer.ScoreRecord      `json:"scores"`
	Stats     textstats.DocumentStats `json:"stats"`
	Entities  entities.EntityMap      `json:"entities"`
	CreatedAt time.Time               `json:"created_at"`
	// Distance to the query profile.
	Distance float64 `json:"distance"`
}

// Store persists screening runs in Postgres, indexing each result by its
// score profile with pgvector.
type Store struct {
	config StoreConfig
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewWithConfig(ctx context.Context, config StoreConfig) (*Store, error) {
	if config.ConnString == "" {
		return nil, errors.New("database connection string is required")
	}
	if config.TableName == "" {
		config.TableName = "screening_results"
	}
	if !tableNameRe.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid table name %q", config.TableName)
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "store").Logger()
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		config: config,
		pool:   pool,
		logger: l,
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	l.Debug().Str("host", poolConfig.ConnConfig.Host).Str("table", config.TableName).Msg("store ready")
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			job_description TEXT NOT NULL,
			filename TEXT NOT NULL,
			source TEXT,
			overall_score DOUBLE PRECISION NOT NULL,
			scores JSONB NOT NULL,
			stats JSONB NOT NULL,
			entities JSONB NOT NULL,
			profile vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, position)
		)`, s.config.TableName, ProfileDim)

	_, err = s.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_profile_idx
		ON %s
		USING hnsw (profile vector_l2_ops)`,
		s.config.TableName, s.config.TableName)

	_, err = s.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// SaveRun writes every ranked result of a run in one transaction.
func (s *Store) SaveRun(ctx context.Context, runID uuid.UUID, jobDescription string, results []models.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (run_id, position, job_description, filename, source,
			overall_score, scores, stats, entities, profile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, position) DO UPDATE SET
			filename = EXCLUDED.filename,
			scores = EXCLUDED.scores,
			stats = EXCLUDED.stats,
			entities = EXCLUDED.entities,
			profile = EXCLUDED.profile`,
		s.config.TableName)

	jd := sanitizeUTF8(jobDescription)
	for i, r := range results {
		_, err = tx.Exec(ctx, stmt,
			runID.String(),
			i,
			jd,
			sanitizeUTF8(r.Filename),
			sanitizeUTF8(r.Source),
			r.Scores.OverallScore,
			r.Scores,
			r.Stats,
			r.Entities,
			pgvector.NewVector(ProfileOf(r.Scores)),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result %s: %w", r.Filename, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Str("run_id", runID.String()).Int("results", len(results)).Msg("run saved")
	return nil
}

// SimilarProfiles returns the stored results whose score profile is closest
// to profile in euclidean distance. Results of excludeRun are skipped; pass
// uuid.Nil to search every run.
func (s *Store) SimilarProfiles(ctx context.Context, profile []float32, limit int, excludeRun uuid.UUID) ([]StoredResult, error) {
	if len(profile) != ProfileDim {
		return nil, fmt.Errorf("profile has %d dimensions, want %d", len(profile), ProfileDim)
	}
	if limit <= 0 {
		limit = 5
	}

	query := fmt.Sprintf(`
		SELECT run_id, filename, COALESCE(source, ''), scores, stats, entities,
			created_at, profile <-> $1 AS distance
		FROM %s
		WHERE run_id <> $3
		ORDER BY profile <-> $1
		LIMIT $2`,
		s.config.TableName)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(profile), limit, excludeRun.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var (
			r     StoredResult
			runID string
		)
		err := rows.Scan(
			&runID,
			&r.Filename,
			&r.Source,
			&r.Scores,
			&r.Stats,
			&r.Entities,
			&r.CreatedAt,
			&r.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ProfileOf maps a score record onto the unit hypercube used for similarity
// search.
func ProfileOf(scores scorer.ScoreRecord) []float32 {
	return []float32{
		float32(scores.ContentSimilarity / 100),
		float32(scores.SkillsMatch / 100),
		float32(scores.EducationLevel / 100),
		float32(scores.ExperienceLevel / 100),
	}
}

// Postgres rejects invalid UTF-8 in text columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
