package scorer

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/xhad/screener/internal/types"
	"github.com/xhad/screener/pkg/tfidf"
)

// Weights of the sub-scores in the overall score. They sum to 1.
const (
	WeightContent    = 0.3
	WeightSkills     = 0.3
	WeightEducation  = 0.2
	WeightExperience = 0.2
)

// ScoreRecord is the match of one resume against a job description. All
// scores are percentages in [0,100] rounded to two decimals.
type ScoreRecord struct {
	ContentSimilarity float64  `json:"content_similarity"`
	SkillsMatch       float64  `json:"skills_match"`
	EducationLevel    float64  `json:"education_level"`
	ExperienceLevel   float64  `json:"experience_level"`
	OverallScore      float64  `json:"overall_score"`
	MatchedSkills     []string `json:"matched_skills"`
	MissingSkills     []string `json:"missing_skills"`
}

type ScorerConfig struct {
	// Similarity scores content overlap; defaults to TF-IDF cosine.
	Similarity types.TextSimilarity
	Logger     *zerolog.Logger
}

type Scorer struct {
	similarity types.TextSimilarity
	logger     zerolog.Logger
}

func NewWithConfig(config ScorerConfig) *Scorer {
	if config.Similarity == nil {
		config.Similarity = tfidf.NewSimilarity()
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "scorer").Logger()
	}
	return &Scorer{
		similarity: config.Similarity,
		logger:     l,
	}
}

func New() *Scorer {
	return NewWithConfig(ScorerConfig{})
}

// CalculateScores scores resume against jobDescription with the TF-IDF
// similarity backend.
func CalculateScores(jobDescription, resume string) ScoreRecord {
	// tf-idf never returns an error
	record, _ := New().CalculateScores(context.Background(), jobDescription, resume)
	return record
}

// CalculateScores blends content similarity, skill overlap, education and
// experience into a ScoreRecord. It only fails when the similarity backend
// does.
func (s *Scorer) CalculateScores(ctx context.Context, jobDescription, resume string) (ScoreRecord, error) {
	content, err := s.similarity.Similarity(ctx, jobDescription, resume)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("failed to compute content similarity: %w", err)
	}
	content = clampUnit(content)

	jobSkills := ExtractSkills(jobDescription)
	resumeSkills := ExtractSkills(resume)
	matched := intersect(jobSkills, resumeSkills)
	missing := difference(jobSkills, resumeSkills)

	skills := 0.0
	if len(jobSkills) > 0 {
		skills = float64(len(matched)) / float64(len(jobSkills))
	}

	education := ExtractEducation(resume)
	experience := ExtractExperience(resume)

	overall := content*WeightContent +
		skills*WeightSkills +
		education*WeightEducation +
		experience*WeightExperience

	record := ScoreRecord{
		ContentSimilarity: percent(content),
		SkillsMatch:       percent(skills),
		EducationLevel:    percent(education),
		ExperienceLevel:   percent(experience),
		OverallScore:      percent(overall),
		MatchedSkills:     matched,
		MissingSkills:     missing,
	}

	s.logger.Debug().
		Float64("overall", record.OverallScore).
		Int("job_skills", len(jobSkills)).
		Int("matched", len(matched)).
		Msg("scored resume")

	return record, nil
}

// percent scales a unit score to [0,100] rounded to two decimals.
func percent(x float64) float64 {
	return math.Round(clampUnit(x)*100*100) / 100
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
