package screener_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/internal/testdocs"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/extractor"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/screener"
)

// stubEntities avoids loading the NER model in orchestration tests.
func stubEntities() *entities.Extractor {
	return entities.NewWithConfig(entities.ExtractorConfig{
		Recognizer: func(string) ([]entities.Entity, error) {
			return []entities.Entity{{Text: "Jane Doe", Label: "PERSON"}}, nil
		},
	})
}

type failingSimilarity struct{}

func (failingSimilarity) Similarity(context.Context, string, string) (float64, error) {
	return 0, errors.New("backend down")
}

func result(name string, overall float64) models.Result {
	return models.Result{Filename: name, Scores: scorer.ScoreRecord{OverallScore: overall}}
}

func TestRankIsStableDescending(t *testing.T) {
	in := []models.Result{result("R1", 80), result("R2", 95), result("R3", 80)}

	ranked := screener.Rank(in)

	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Filename
	}
	assert.Equal(t, []string{"R2", "R1", "R3"}, names)
	assert.Equal(t, "R1", in[0].Filename, "input must not be reordered")
}

func TestScreenEndToEnd(t *testing.T) {
	var progress []int
	s := screener.NewWithConfig(screener.ScreenerConfig{
		Entities: stubEntities(),
		OnProgress: func(done, total int, filename string) {
			assert.Equal(t, 2, total)
			progress = append(progress, done)
		},
	})

	resumes := []models.Resume{
		{Filename: "chef.docx", Data: testdocs.DOCX("Pastry chef with a passion for croissants.")},
		{Filename: "jane.docx", Data: testdocs.DOCX(
			"Jane Doe",
			"PhD in computer science.",
			"10 years of experience with Python, AWS and Docker.",
		)},
	}

	report, err := s.Screen(context.Background(), screener.SampleJobDescription, resumes)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID.String())
	assert.Equal(t, []int{1, 2}, progress)
	assert.Empty(t, report.Failures)
	require.Len(t, report.Results, 2)

	top := report.Results[0]
	assert.Equal(t, "jane.docx", top.Filename)
	assert.Equal(t, []string{"aws", "python"}, top.Scores.MatchedSkills)
	assert.Equal(t, []string{"machine learning"}, top.Scores.MissingSkills)
	assert.Equal(t, 66.67, top.Scores.SkillsMatch)
	assert.Equal(t, 100.0, top.Scores.EducationLevel)
	assert.Equal(t, 66.67, top.Scores.ExperienceLevel)
	assert.Greater(t, top.Scores.ContentSimilarity, 0.0)
	assert.Equal(t, []string{"Jane Doe"}, top.Entities[entities.Person])
	assert.Contains(t, top.Keywords, "python")
	assert.Greater(t, top.Stats.WordCount, 0)

	chef := report.Results[1]
	assert.Equal(t, "chef.docx", chef.Filename)
	assert.Equal(t, 0.0, chef.Scores.SkillsMatch)
	assert.Equal(t, 30.0, chef.Scores.EducationLevel)
	assert.Less(t, chef.Scores.OverallScore, top.Scores.OverallScore)
}

func TestScreenPDF(t *testing.T) {
	s := screener.NewWithConfig(screener.ScreenerConfig{Entities: stubEntities()})
	resumes := []models.Resume{{Filename: "cv.pdf", Data: testdocs.PDF("Master of Science", "Python and AWS")}}

	report, err := s.Screen(context.Background(), screener.SampleJobDescription, resumes)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 80.0, report.Results[0].Scores.EducationLevel)
}

func TestScreenContinuesAfterFailures(t *testing.T) {
	var failed []string
	s := screener.NewWithConfig(screener.ScreenerConfig{
		Entities: stubEntities(),
		OnFailure: func(f models.Failure) {
			failed = append(failed, f.Filename)
		},
	})

	resumes := []models.Resume{
		{Filename: "notes.txt", Data: []byte("python")},
		{Filename: "broken.pdf", Data: []byte("not a pdf")},
		{Filename: "ok.docx", Data: testdocs.DOCX("Python developer")},
	}

	report, err := s.Screen(context.Background(), "Python developer", resumes)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, "ok.docx", report.Results[0].Filename)
	assert.Equal(t, []string{"notes.txt", "broken.pdf"}, failed)

	require.Len(t, report.Failures, 2)
	assert.ErrorIs(t, report.Failures[0], extractor.ErrUnsupportedFormat)
	var extractionErr *extractor.ExtractionError
	assert.True(t, errors.As(report.Failures[1], &extractionErr))
	assert.Equal(t, extractor.FormatPDF, extractionErr.Format)
}

func TestScreenSimilarityFailureIsPerDocument(t *testing.T) {
	s := screener.NewWithConfig(screener.ScreenerConfig{
		Entities: stubEntities(),
		Scorer:   scorer.NewWithConfig(scorer.ScorerConfig{Similarity: failingSimilarity{}}),
	})

	report, err := s.Screen(context.Background(), "Python", []models.Resume{
		{Filename: "a.docx", Data: testdocs.DOCX("Python")},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Error(), "backend down")
}

func TestScreenStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := screener.NewWithConfig(screener.ScreenerConfig{
		Entities: stubEntities(),
		OnProgress: func(int, int, string) {
			calls++
			cancel()
		},
	})

	report, err := s.Screen(ctx, "Python", []models.Resume{
		{Filename: "a.docx", Data: testdocs.DOCX("Python")},
		{Filename: "b.docx", Data: testdocs.DOCX("Python")},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, report.Results, 1)
}

func TestLoadResumes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.docx"), []byte("docx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("txt"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	explicit := filepath.Join(dir, "notes.txt")
	missing := filepath.Join(dir, "missing.pdf")
	resumes, failures, err := screener.LoadResumes(context.Background(), []string{dir, missing, explicit}, nil)
	require.NoError(t, err)

	names := make([]string, len(resumes))
	for i, r := range resumes {
		names[i] = r.Filename
	}
	assert.Equal(t, []string{"a.docx", "b.pdf", "notes.txt"}, names)
	assert.Equal(t, []byte("docx"), resumes[0].Data)
	assert.Equal(t, explicit, resumes[2].Source)

	require.Len(t, failures, 1)
	assert.Equal(t, "missing.pdf", failures[0].Filename)
	assert.Equal(t, missing, failures[0].Source)
	assert.ErrorIs(t, failures[0], os.ErrNotExist)
}

func TestLoadResumesContinuesAfterFailedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	good := filepath.Join(t.TempDir(), "jane.docx")
	require.NoError(t, os.WriteFile(good, testdocs.DOCX("Python and AWS, 6 years of experience"), 0o644))

	resumes, failures, err := screener.LoadResumes(context.Background(), []string{good, srv.URL + "/gone.pdf"}, nil)
	require.NoError(t, err)

	require.Len(t, resumes, 1)
	assert.Equal(t, "jane.docx", resumes[0].Filename)
	require.Len(t, failures, 1)
	assert.Equal(t, "gone.pdf", failures[0].Filename)
	assert.Equal(t, srv.URL+"/gone.pdf", failures[0].Source)
	assert.Contains(t, failures[0].Error(), "404")

	// the good resume still screens
	report, err := screener.NewWithConfig(screener.ScreenerConfig{Entities: stubEntities()}).
		Screen(context.Background(), screener.SampleJobDescription, resumes)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, []string{"aws", "python"}, report.Results[0].Scores.MatchedSkills)
}

func TestLoadResumesStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resumes, failures, err := screener.LoadResumes(ctx, []string{t.TempDir()}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, resumes)
	assert.Empty(t, failures)
}
