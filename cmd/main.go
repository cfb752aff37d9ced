package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"github.com/xhad/screener/internal/types"
	cfgPkg "github.com/xhad/screener/pkg/config"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/fetcher"
	"github.com/xhad/screener/pkg/llm"
	"github.com/xhad/screener/pkg/logger"
	"github.com/xhad/screener/pkg/processor"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/screener"
	"github.com/xhad/screener/pkg/store"
	"github.com/xhad/screener/server"
)

type options struct {
	configPath string
	sampleJob  bool
	serve      bool
	noColor    bool
	noEntities bool
	refs       []string
}

func main() {
	cfg, opts, err := parseFlags(os.Args[1:])
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*cfgPkg.Config, options, error) {
	var (
		opts       options
		job        string
		jobFile    string
		jobURL     string
		similarity string
		output     string
		top        int
		dbURL      string
		similar    int
		addr       string
		logLevel   string
	)

	flags := pflag.NewFlagSet("screener", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: screener [flags] <resume files, directories or URLs>...\n\n")
		flags.PrintDefaults()
	}
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	flags.StringVarP(&job, "job", "j", "", "Job description text")
	flags.StringVar(&jobFile, "job-file", "", "Read the job description from a file")
	flags.StringVar(&jobURL, "job-url", "", "Fetch the job description from a web page")
	flags.BoolVar(&opts.sampleJob, "sample-job", false, "Use the built-in sample job description")
	flags.StringVar(&similarity, "similarity", "", "Content similarity backend: tfidf or embedding")
	flags.StringVarP(&output, "output", "o", "", "Output format: text or json")
	flags.IntVarP(&top, "top", "n", 0, "Show only the best n resumes (0 shows all)")
	flags.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string for saving runs")
	flags.IntVar(&similar, "similar", 0, "After saving, list the n stored resumes closest to the top result")
	flags.BoolVar(&opts.serve, "serve", false, "Run the websocket server instead of screening files")
	flags.StringVar(&addr, "addr", "", "Listen address for --serve")
	flags.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	flags.BoolVar(&opts.noEntities, "no-entities", false, "Hide named entities in text output")

	if err := flags.Parse(args); err != nil {
		return nil, opts, err
	}
	opts.refs = flags.Args()

	cfg, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return nil, opts, err
	}

	// Command line flags win over the config file
	if flags.Changed("job") {
		cfg.Job.Description = job
	}
	if flags.Changed("job-file") {
		cfg.Job.File = jobFile
	}
	if flags.Changed("job-url") {
		cfg.Job.URL = jobURL
	}
	if flags.Changed("similarity") {
		cfg.Similarity.Backend = similarity
	}
	if flags.Changed("output") {
		cfg.UI.Output = output
	}
	if flags.Changed("top") {
		cfg.UI.Top = top
	}
	if flags.Changed("db-url") {
		cfg.Database.URL = dbURL
	}
	if flags.Changed("similar") {
		cfg.Database.Similar = similar
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if opts.noColor {
		cfg.UI.Color = false
	}
	if opts.noEntities {
		cfg.UI.ShowEntities = false
	}

	return cfg, opts, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("resumes"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func newSimilarity(cfg *cfgPkg.Config, log *zerolog.Logger) (types.TextSimilarity, error) {
	if cfg.Similarity.Backend != cfgPkg.BackendEmbedding {
		return nil, nil // scorer falls back to tf-idf
	}
	return llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:        cfg.LLM.Model,
		BaseURL:      cfg.LLM.BaseURL,
		ChunkSize:    cfg.LLM.ChunkSize,
		ChunkOverlap: cfg.LLM.ChunkOverlap,
		Logger:       log,
	})
}

func run(ctx context.Context, cfg *cfgPkg.Config, opts options) error {
	log := logger.Init(cfg.Log)
	color.NoColor = color.NoColor || !cfg.UI.Color

	similarity, err := newSimilarity(cfg, &log)
	if err != nil {
		return err
	}

	fetch := fetcher.NewWithConfig(fetcher.FetcherConfig{
		RateLimit: cfg.Fetcher.RateLimit,
		Timeout:   time.Duration(cfg.Fetcher.Timeout) * time.Second,
		MaxBytes:  cfg.Fetcher.MaxBytes,
		UserAgent: cfg.Fetcher.UserAgent,
		Logger:    &log,
	})

	var resultStore *store.Store
	if cfg.Database.URL != "" {
		resultStore, err = store.NewWithConfig(ctx, store.StoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			Logger:     &log,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer resultStore.Close()
	}

	keywords := processor.NewWithConfig(processor.ProcessorConfig{Stopwords: cfg.Keywords.Stopwords})
	screenerConfig := screener.ScreenerConfig{
		Scorer:    scorer.NewWithConfig(scorer.ScorerConfig{Similarity: similarity, Logger: &log}),
		Entities:  entities.NewWithConfig(entities.ExtractorConfig{Logger: &log}),
		Processor: &keywords,
		Logger:    &log,
	}

	if opts.serve {
		return server.NewWSServer(server.Config{
			Screener: screenerConfig,
			Store:    resultStore,
			Logger:   &log,
		}).ListenAndServe(ctx, cfg.Server.Addr)
	}

	if len(opts.refs) == 0 {
		return errors.New("no resumes given; pass files, directories or URLs (see --help)")
	}

	jobDescription, err := loadJobDescription(ctx, cfg, opts.sampleJob, fetch)
	if err != nil {
		return err
	}

	resumes, loadFailures, err := screener.LoadResumes(ctx, opts.refs, fetch)
	if err != nil {
		return err
	}
	for _, f := range loadFailures {
		log.Warn().Err(f.Err).Str("source", f.Source).Msg("resume not loaded")
	}
	if len(resumes) == 0 && len(loadFailures) == 0 {
		return errors.New("no PDF or DOCX resumes found")
	}

	var bar *progressbar.ProgressBar
	if len(resumes) > 0 {
		bar = getProgressBar(len(resumes), "Screening resumes...")
		screenerConfig.OnProgress = func(done, total int, filename string) {
			bar.Describe(color.BlueString("Screening %s", filename))
			bar.Add(1)
		}
	}

	report, err := screener.NewWithConfig(screenerConfig).Screen(ctx, jobDescription, resumes)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	report.Failures = append(loadFailures, report.Failures...)

	var similar []store.StoredResult
	if resultStore != nil {
		if err := resultStore.SaveRun(ctx, report.RunID, jobDescription, report.Results); err != nil {
			return err
		}
		if cfg.Database.Similar > 0 && len(report.Results) > 0 {
			profile := store.ProfileOf(report.Results[0].Scores)
			similar, err = resultStore.SimilarProfiles(ctx, profile, cfg.Database.Similar, report.RunID)
			if err != nil {
				return err
			}
		}
	}

	r := renderer{
		out:          os.Stdout,
		top:          cfg.UI.Top,
		showEntities: cfg.UI.ShowEntities,
	}
	if cfg.UI.Output == "json" {
		return r.JSON(report, similar)
	}
	if err := r.Text(report); err != nil {
		return err
	}
	if resultStore != nil {
		if cfg.Database.Similar > 0 && len(report.Results) > 0 {
			r.Similar(report.Results[0].Filename, similar)
		}
		color.Green("\n✓ Saved run %s", report.RunID)
	}

	return nil
}

// loadJobDescription picks the first configured source: inline text, a file,
// a URL, then the sample.
func loadJobDescription(ctx context.Context, cfg *cfgPkg.Config, sample bool, fetch *fetcher.Fetcher) (string, error) {
	switch {
	case strings.TrimSpace(cfg.Job.Description) != "":
		return cfg.Job.Description, nil
	case cfg.Job.File != "":
		data, err := os.ReadFile(cfg.Job.File)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return string(data), nil
	case cfg.Job.URL != "":
		return fetch.JobPosting(ctx, cfg.Job.URL)
	case sample:
		return screener.SampleJobDescription, nil
	}
	return "", errors.New("a job description is required: use --job, --job-file, --job-url or --sample-job")
}
