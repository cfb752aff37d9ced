package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/xhad/screener/internal/models"
	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/screener"
	"github.com/xhad/screener/pkg/store"
)

const maxKeywords = 15

type renderer struct {
	out          io.Writer
	top          int
	showEntities bool
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgBlue)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	muted   = color.New(color.Faint)
)

func (r renderer) shown(results []models.Result) []models.Result {
	if r.top > 0 && r.top < len(results) {
		return results[:r.top]
	}
	return results
}

// Text prints the ranked results followed by any resumes that failed.
func (r renderer) Text(report screener.Report) error {
	results := r.shown(report.Results)

	heading.Fprintf(r.out, "Screened %d resumes (%d failed) in %s\n",
		len(report.Results)+len(report.Failures), len(report.Failures), report.Duration.Round(time.Millisecond))

	for i, res := range results {
		s := res.Scores
		fmt.Fprintln(r.out)
		heading.Fprintf(r.out, "#%d - %s (Score: %.2f%%)\n", i+1, res.Filename, s.OverallScore)

		label.Fprint(r.out, "  Score Breakdown: ")
		fmt.Fprintf(r.out, "Content Match %.2f%% | Skills Match %.2f%% | Education %.2f%% | Experience %.2f%%\n",
			s.ContentSimilarity, s.SkillsMatch, s.EducationLevel, s.ExperienceLevel)

		label.Fprint(r.out, "  Matched Skills:  ")
		good.Fprintln(r.out, listOrNone(s.MatchedSkills))
		label.Fprint(r.out, "  Missing Skills:  ")
		bad.Fprintln(r.out, listOrNone(s.MissingSkills))

		label.Fprint(r.out, "  Document Stats:  ")
		fmt.Fprintf(r.out, "%d words, %d sentences, %.2f avg word length, %d characters\n",
			res.Stats.WordCount, res.Stats.SentenceCount, res.Stats.AvgWordLength, res.Stats.CharCount)

		if len(res.Keywords) > 0 {
			kw := res.Keywords
			if len(kw) > maxKeywords {
				kw = kw[:maxKeywords]
			}
			label.Fprint(r.out, "  Keywords:        ")
			muted.Fprintln(r.out, strings.Join(kw, ", "))
		}

		if r.showEntities {
			for _, c := range entities.Categories {
				label.Fprintf(r.out, "  %-16s ", categoryTitle(c)+":")
				fmt.Fprintln(r.out, listOrNone(res.Entities[c]))
			}
		}
	}

	if hidden := len(report.Results) - len(results); hidden > 0 {
		fmt.Fprintln(r.out)
		muted.Fprintf(r.out, "%d more resumes not shown\n", hidden)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(r.out)
		bad.Fprintln(r.out, "Failed resumes:")
		for _, f := range report.Failures {
			bad.Fprintf(r.out, "  ✗ %s: %v\n", f.Filename, f.Err)
		}
	}
	return nil
}

// Similar lists stored results whose scores resemble those of the named
// resume.
func (r renderer) Similar(filename string, stored []store.StoredResult) {
	fmt.Fprintln(r.out)
	heading.Fprintf(r.out, "Stored resumes closest to %s:\n", filename)
	if len(stored) == 0 {
		muted.Fprintln(r.out, "  none yet")
		return
	}
	for i, s := range stored {
		fmt.Fprintf(r.out, "  %d. %s (Score: %.2f%%, distance %.3f) ", i+1, s.Filename, s.Scores.OverallScore, s.Distance)
		muted.Fprintf(r.out, "run %s, %s\n", s.RunID, s.CreatedAt.Format("2006-01-02"))
	}
}

type jsonOutput struct {
	screener.Report
	Similar []store.StoredResult `json:"similar,omitempty"`
}

// JSON prints the report, and any similar stored results, as one indented
// document.
func (r renderer) JSON(report screener.Report, similar []store.StoredResult) error {
	report.Results = r.shown(report.Results)

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{Report: report, Similar: similar})
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func categoryTitle(c entities.Category) string {
	switch c {
	case entities.Organization:
		return "Organizations"
	case entities.Person:
		return "People"
	case entities.GPE:
		return "Locations"
	}
	return string(c)
}
