package config

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	if c.Log.Format != "json" && c.Log.Format != "pretty" {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be json or pretty",
		})
	}

	// Only one job description source may be set
	sources := 0
	for _, s := range []string{c.Job.Description, c.Job.File, c.Job.URL} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		errors = append(errors, ValidationError{
			Field:   "job",
			Message: "only one of description, file and url may be set",
		})
	}

	if c.Job.URL != "" {
		if u, err := url.Parse(c.Job.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, ValidationError{
				Field:   "job.url",
				Message: "job url must be an http(s) URL",
			})
		}
	}

	switch c.Similarity.Backend {
	case BackendTFIDF:
	case BackendEmbedding:
		if c.LLM.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "Ollama base URL is required for the embedding backend",
			})
		} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "similarity.backend",
			Message: fmt.Sprintf("unknown similarity backend: %s", c.Similarity.Backend),
		})
	}

	if c.LLM.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.LLM.ChunkOverlap < 0 || c.LLM.ChunkOverlap >= c.LLM.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "llm.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Fetcher.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Fetcher.Timeout < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	if c.Fetcher.MaxBytes < 1 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.max_bytes",
			Message: "max_bytes must be positive",
		})
	}

	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.Similar < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.similar",
			Message: "similar must not be negative",
		})
	} else if c.Database.Similar > 0 && c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.similar",
			Message: "similar requires database.url",
		})
	}

	if c.UI.Output != "text" && c.UI.Output != "json" {
		errors = append(errors, ValidationError{
			Field:   "ui.output",
			Message: "output must be text or json",
		})
	}

	if c.UI.Top < 0 {
		errors = append(errors, ValidationError{
			Field:   "ui.top",
			Message: "top must not be negative",
		})
	}

	return errors
}
