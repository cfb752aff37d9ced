package models

import (
	"encoding/json"

	"github.com/xhad/screener/pkg/entities"
	"github.com/xhad/screener/pkg/scorer"
	"github.com/xhad/screener/pkg/textstats"
)

// Resume is an uploaded resume document awaiting screening.
type Resume struct {
	Filename string
	Source   string // local path or URL it was loaded from
	Data     []byte
}

// Result is everything the screener learned about one resume.
type Result struct {
	Filename string                  `json:"filename"`
	Source   string                  `json:"source,omitempty"`
	Text     string                  `json:"text"`
	Stats    textstats.DocumentStats `json:"stats"`
	Entities entities.EntityMap      `json:"entities"`
	Keywords []string                `json:"keywords"`
	Scores   scorer.ScoreRecord      `json:"scores"`
}

// Failure records a resume that could not be loaded or screened.
type Failure struct {
	Filename string
	Source   string
	Err      error
}

func (f Failure) Error() string {
	return f.Filename + ": " + f.message()
}

func (f Failure) message() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

// MarshalJSON encodes the failure with its error as a string.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Filename string `json:"filename"`
		Source   string `json:"source,omitempty"`
		Error    string `json:"error"`
	}{f.Filename, f.Source, f.message()})
}

func (f Failure) Unwrap() error {
	return f.Err
}
