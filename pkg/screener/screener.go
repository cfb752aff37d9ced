package screener

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/internal/types"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/extractor"
	"github.com/xhad/screener/pkg/processor"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/textstats"
)

// SampleJobDescription is a ready made posting for trying the screener out.
const SampleJobDescription = `
Senior Software Engineer
Requirements:
- 5+ years of experience in Python development
- Strong knowledge of web frameworks (Django, Flask)
- Experience with cloud platforms (AWS, GCP)
- Background in machine learning and data analysis
- Excellent communication and team collaboration skills
Bachelor's degree in Computer Science or related field required
`

type ScreenerConfig struct {
	Extractor types.TextExtractor
	Scorer    *scorer.Scorer
	Entities  *entities.Extractor
	Processor *processor.Processor
	Logger    *zerolog.Logger

	// OnProgress is called after each resume, whether it succeeded or not.
	OnProgress func(done, total int, filename string)
	// OnResult and OnFailure are called as soon as a resume has been handled,
	// before the batch is ranked.
	OnResult  func(models.Result)
	OnFailure func(models.Failure)
}

// Report is the outcome of one screening run.
type Report struct {
	RunID          uuid.UUID        `json:"run_id"`
	JobDescription string           `json:"job_description"`
	Results        []models.Result  `json:"results"`
	Failures       []models.Failure `json:"failures"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration"`
}

// Screener extracts, analyses and scores batches of resumes.
type Screener struct {
	config ScreenerConfig
	logger zerolog.Logger
}

func NewWithConfig(config ScreenerConfig) *Screener {
	if config.Extractor == nil {
		config.Extractor = extractor.New()
	}
	if config.Scorer == nil {
		config.Scorer = scorer.New()
	}
	if config.Entities == nil {
		config.Entities = entities.New()
	}
	if config.Processor == nil {
		p := processor.New()
		config.Processor = &p
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "screener").Logger()
	}
	return &Screener{config: config, logger: l}
}

func New() *Screener {
	return NewWithConfig(ScreenerConfig{})
}

// Screen processes resumes one at a time. A resume that cannot be read or
// scored is reported as a Failure and the batch carries on. Results are
// ranked by overall score. A cancelled context stops the run between
// resumes and returns the partial report together with the context error.
func (s *Screener) Screen(ctx context.Context, jobDescription string, resumes []models.Resume) (Report, error) {
	report := Report{
		RunID:          uuid.New(),
		JobDescription: jobDescription,
		Results:        make([]models.Result, 0, len(resumes)),
		Failures:       []models.Failure{},
		StartedAt:      time.Now(),
	}
	log := s.logger.With().Str("run_id", report.RunID.String()).Logger()
	log.Info().Int("resumes", len(resumes)).Msg("screening started")

	for i, resume := range resumes {
		if err := ctx.Err(); err != nil {
			report.Results = Rank(report.Results)
			report.Duration = time.Since(report.StartedAt)
			return report, err
		}

		result, err := s.screenOne(ctx, jobDescription, resume)
		if err != nil {
			failure := models.Failure{Filename: resume.Filename, Source: resume.Source, Err: err}
			log.Warn().Err(err).Str("filename", resume.Filename).Msg("resume skipped")
			report.Failures = append(report.Failures, failure)
			if s.config.OnFailure != nil {
				s.config.OnFailure(failure)
			}
		} else {
			log.Debug().
				Str("filename", resume.Filename).
				Float64("overall", result.Scores.OverallScore).
				Msg("resume scored")
			report.Results = append(report.Results, result)
			if s.config.OnResult != nil {
				s.config.OnResult(result)
			}
		}

		if s.config.OnProgress != nil {
			s.config.OnProgress(i+1, len(resumes), resume.Filename)
		}
	}

	report.Results = Rank(report.Results)
	report.Duration = time.Since(report.StartedAt)
	log.Info().
		Int("scored", len(report.Results)).
		Int("failed", len(report.Failures)).
		Dur("took", report.Duration).
		Msg("screening finished")
	return report, nil
}

func (s *Screener) screenOne(ctx context.Context, jobDescription string, resume models.Resume) (models.Result, error) {
	text, err := s.config.Extractor.Extract(resume.Filename, resume.Data)
	if err != nil {
		return models.Result{}, err
	}

	scores, err := s.config.Scorer.CalculateScores(ctx, jobDescription, text)
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to score %s: %w", resume.Filename, err)
	}

	return models.Result{
		Filename: resume.Filename,
		Source:   resume.Source,
		Text:     text,
		Stats:    textstats.Compute(text),
		Entities: s.config.Entities.Extract(text),
		Keywords: s.config.Processor.Keywords(text),
		Scores:   scores,
	}, nil
}

// Rank orders results by overall score, highest first. Equal scores keep
// their input order.
func Rank(results []models.Result) []models.Result {
	ranked := make([]models.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.OverallScore > ranked[j].Scores.OverallScore
	})
	return ranked
}
