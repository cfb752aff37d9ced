package processor

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xhad/screener/pkg/tfidf"
)

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// Stopwords are excluded from keywords on top of the English list.
	Stopwords []string
}

type Processor struct {
	config    ProcessorConfig
	stopwords map[string]struct{}
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 5
	}

	stopwords := make(map[string]struct{})
	for _, w := range tfidf.StopWords() {
		stopwords[w] = struct{}{}
	}
	for _, w := range config.Stopwords {
		stopwords[strings.ToLower(w)] = struct{}{}
	}

	return Processor{
		config:    config,
		stopwords: stopwords,
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{})
}

// Preprocess lowercases text, drops punctuation and collapses whitespace.
func (p *Processor) Preprocess(text string) string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// Keywords returns the distinct lowercase words of text that are longer than
// two characters and not stop words, sorted.
func (p *Processor) Keywords(text string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	for _, word := range strings.Fields(p.Preprocess(text)) {
		if len([]rune(word)) <= 2 {
			continue
		}
		if _, stop := p.stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	sort.Strings(keywords)
	return keywords
}

// Chunks splits text into sentence-aligned pieces of at most ChunkSize runes,
// each starting with the last ChunkOverlap runes of the previous one.
func (p *Processor) Chunks(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var chunks []string
	var current []rune

	for _, sentence := range p.splitIntoSentences(text) {
		for _, piece := range splitLong(sentence, p.config.ChunkSize) {
			runes := []rune(piece)
			// If adding this sentence would exceed chunk size
			if len(current) > 0 && len(current)+1+len(runes) > p.config.ChunkSize {
				chunks = append(chunks, strings.TrimSpace(string(current)))
				// Start new chunk with overlap
				if p.config.ChunkOverlap > 0 && len(current) > p.config.ChunkOverlap &&
					p.config.ChunkOverlap+1+len(runes) <= p.config.ChunkSize {
					current = append([]rune{}, current[len(current)-p.config.ChunkOverlap:]...)
				} else {
					current = current[:0]
				}
			}
			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, runes...)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(string(current)))
	}

	return chunks
}

func (p *Processor) splitIntoSentences(text string) []string {
	sentenceEnders := []string{". ", "! ", "? "}
	var sentences []string

	current := strings.Builder{}

	for _, r := range text {
		current.WriteRune(r)

		// Check for sentence endings
		for _, ender := range sentenceEnders {
			if strings.HasSuffix(current.String(), ender) {
				sentences = append(sentences, strings.TrimSpace(current.String()))
				current.Reset()
				break
			}
		}
	}

	// Add any remaining text
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// splitLong cuts a sentence longer than size runes into size-rune pieces.
func splitLong(sentence string, size int) []string {
	runes := []rune(sentence)
	if len(runes) <= size {
		return []string{sentence}
	}
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
