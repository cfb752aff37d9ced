package screener

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/pkg/extractor"
	"github.com/xhad/screener/pkg/fetcher"
)

// LoadResumes turns file paths, directories and http(s) URLs into resumes.
// Directories contribute their supported documents in name order; explicit
// files are loaded whatever their extension so that unsupported ones are
// reported by Screen rather than vanishing. A reference that cannot be read
// or fetched becomes a Failure and loading carries on with the rest. The
// error is only set when ctx is done.
func LoadResumes(ctx context.Context, refs []string, f *fetcher.Fetcher) ([]models.Resume, []models.Failure, error) {
	var (
		resumes  []models.Resume
		failures []models.Failure
	)
	fail := func(ref string, err error) {
		failures = append(failures, models.Failure{Filename: filepath.Base(ref), Source: ref, Err: err})
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return resumes, failures, err
		}

		if fetcher.IsURL(ref) {
			if f == nil {
				f = fetcher.New()
			}
			r, err := f.Resume(ctx, ref)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return resumes, failures, ctxErr
				}
				failures = append(failures, models.Failure{
					Filename: r.Filename,
					Source:   ref,
					Err:      fmt.Errorf("failed to fetch resume: %w", err),
				})
				continue
			}
			resumes = append(resumes, r)
			continue
		}

		info, err := os.Stat(ref)
		if err != nil {
			fail(ref, err)
			continue
		}
		if !info.IsDir() {
			r, err := readResume(ref)
			if err != nil {
				fail(ref, err)
				continue
			}
			resumes = append(resumes, r)
			continue
		}

		entries, err := os.ReadDir(ref)
		if err != nil {
			fail(ref, err)
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && extractor.Supported(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(ref, name)
			r, err := readResume(path)
			if err != nil {
				fail(path, err)
				continue
			}
			resumes = append(resumes, r)
		}
	}
	return resumes, failures, nil
}

func readResume(path string) (models.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Resume{}, err
	}
	return models.Resume{
		Filename: filepath.Base(path),
		Source:   path,
		Data:     data,
	}, nil
}
