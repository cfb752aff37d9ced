package textstats

import (
	"strings"
	"unicode/utf8"

	"github.com/xhad/screener/pkg/logger"
)

type DocumentStats struct {
	WordCount     int     `json:"word_count"`
	SentenceCount int     `json:"sentence_count"`
	AvgWordLength float64 `json:"avg_word_length"`
	CharCount     int     `json:"char_count"`
}

// Compute returns word, sentence and character statistics for text.
//
// SentenceCount is the number of segments produced by splitting on '.', so a
// trailing period adds an empty segment and abbreviations or decimals count
// as boundaries. Empty text yields all zeros.
func Compute(text string) DocumentStats {
	if text == "" {
		logger.Logger.Debug().Str("component", "textstats").Msg("empty text, returning zero stats")
		return DocumentStats{}
	}

	words := strings.Fields(text)

	var totalLen int
	for _, w := range words {
		totalLen += utf8.RuneCountInString(w)
	}

	var avg float64
	if len(words) > 0 {
		avg = float64(totalLen) / float64(len(words))
	}

	return DocumentStats{
		WordCount:     len(words),
		SentenceCount: strings.Count(text, ".") + 1,
		AvgWordLength: avg,
		CharCount:     utf8.RuneCountInString(text),
	}
}
