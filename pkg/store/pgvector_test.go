package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/textstats"
)

func TestProfileOf(t *testing.T) {
	got := ProfileOf(scorer.ScoreRecord{
		ContentSimilarity: 50,
		SkillsMatch:       100,
		EducationLevel:    30,
		ExperienceLevel:   0,
		OverallScore:      51,
	})

	require.Len(t, got, ProfileDim)
	assert.InDeltaSlice(t, []float32{0.5, 1, 0.3, 0}, got, 1e-6)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "résumé", sanitizeUTF8("résumé"))
	assert.Equal(t, "cv.pdf", sanitizeUTF8("cv\xff.pdf"))
}

func TestNewWithConfigRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := NewWithConfig(ctx, StoreConfig{})
	assert.Error(t, err)

	_, err = NewWithConfig(ctx, StoreConfig{
		ConnString: "postgres://localhost/screener",
		TableName:  "results; DROP TABLE users",
	})
	assert.ErrorContains(t, err, "invalid table name")
}

func TestSimilarProfilesRejectsBadProfile(t *testing.T) {
	s := &Store{}
	_, err := s.SimilarProfiles(context.Background(), []float32{0.5, 1}, 3, uuid.Nil)
	assert.EqualError(t, err, "profile has 2 dimensions, want 4")
}

func TestStoreRoundTrip(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := fmt.Sprintf("test_results_%d", time.Now().UnixNano())
	s, err := NewWithConfig(ctx, StoreConfig{ConnString: dbURL, TableName: table})
	require.NoError(t, err)
	defer func() {
		s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		s.Close()
	}()

	strong := scorer.ScoreRecord{ContentSimilarity: 60, SkillsMatch: 100, EducationLevel: 100, ExperienceLevel: 66.67, OverallScore: 79.33}
	weak := scorer.ScoreRecord{ContentSimilarity: 0, SkillsMatch: 0, EducationLevel: 30, ExperienceLevel: 0, OverallScore: 6}

	runID := uuid.New()
	err = s.SaveRun(ctx, runID, "Python developer", []models.Result{
		{Filename: "jane.docx", Scores: strong, Stats: textstats.DocumentStats{WordCount: 12}, Entities: entities.Empty()},
		{Filename: "chef.pdf", Scores: weak, Entities: entities.Empty()},
	})
	require.NoError(t, err)

	got, err := s.SimilarProfiles(ctx, ProfileOf(strong), 1, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, runID, got[0].RunID)
	assert.Equal(t, "jane.docx", got[0].Filename)
	assert.Equal(t, 12, got[0].Stats.WordCount)
	assert.InDelta(t, 0, got[0].Distance, 1e-3)

	later := uuid.New()
	require.NoError(t, s.SaveRun(ctx, later, "Python developer", []models.Result{
		{Filename: "sam.docx", Scores: strong, Entities: entities.Empty()},
	}))
	got, err = s.SimilarProfiles(ctx, ProfileOf(strong), 5, later)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "jane.docx", got[0].Filename)
	assert.Equal(t, "chef.pdf", got[1].Filename)

	_, err = s.SimilarProfiles(ctx, []float32{1, 2}, 1, uuid.Nil)
	assert.Error(t, err)
}
