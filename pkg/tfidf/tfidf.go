package tfidf

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// VectorizerConfig mirrors the knobs of a scikit-learn TfidfVectorizer that
// matter for resume screening.
type VectorizerConfig struct {
	NGramMin    int
	NGramMax    int
	MaxFeatures int
}

// Vector is a sparse document vector keyed by feature index.
type Vector map[int]float64

// Model is the result of fitting a vocabulary over a corpus.
type Model struct {
	Vocabulary map[string]int
	IDF        []float64
	Vectors    []Vector
}

type Vectorizer struct {
	config VectorizerConfig
}

func NewWithConfig(config VectorizerConfig) Vectorizer {
	if config.NGramMin == 0 {
		config.NGramMin = 1
	}
	if config.NGramMax == 0 {
		config.NGramMax = 2
	}
	if config.NGramMax < config.NGramMin {
		config.NGramMax = config.NGramMin
	}
	if config.MaxFeatures == 0 {
		config.MaxFeatures = 5000
	}
	return Vectorizer{config: config}
}

// New returns the unigram+bigram, 5000 feature vectorizer used for scoring.
func New() Vectorizer {
	return NewWithConfig(VectorizerConfig{})
}

// Tokenize lowercases text and returns runs of two or more word characters.
func Tokenize(text string) []string {
	var tokens []string
	lower := strings.ToLower(text)

	start := -1
	runes := 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, lower[start:end])
		}
		start, runes = -1, 0
	}

	for i, r := range lower {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(lower))

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// Analyze turns a document into its n-gram terms, stop words removed before
// the n-grams are built.
func (v Vectorizer) Analyze(text string) []string {
	tokens := Tokenize(text)
	filtered := tokens[:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			filtered = append(filtered, t)
		}
	}
	tokens = filtered

	var terms []string
	for n := v.config.NGramMin; n <= v.config.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// FitTransform learns a vocabulary and idf weights from docs and returns the
// l2-normalised tf-idf vector of every document. Each call starts from an
// empty vocabulary.
func (v Vectorizer) FitTransform(docs []string) Model {
	counts := make([]map[string]int, len(docs))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, term := range v.Analyze(doc) {
			counts[i][term]++
			corpusFreq[term]++
		}
		for term := range counts[i] {
			docFreq[term]++
		}
	}

	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}
	// Most frequent first; ties resolved alphabetically to stay deterministic.
	sort.Slice(terms, func(a, b int) bool {
		if corpusFreq[terms[a]] != corpusFreq[terms[b]] {
			return corpusFreq[terms[a]] > corpusFreq[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > v.config.MaxFeatures {
		terms = terms[:v.config.MaxFeatures]
	}
	sort.Strings(terms)

	model := Model{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		Vectors:    make([]Vector, len(docs)),
	}

	n := float64(len(docs))
	for idx, term := range terms {
		model.Vocabulary[term] = idx
		model.IDF[idx] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	for i := range docs {
		vec := make(Vector)
		for term, c := range counts[i] {
			idx, ok := model.Vocabulary[term]
			if !ok {
				continue
			}
			vec[idx] = float64(c) * model.IDF[idx]
		}
		normalize(vec)
		model.Vectors[i] = vec
	}

	return model
}

func normalize(vec Vector) {
	norm := Norm(vec)
	if norm == 0 {
		return
	}
	for k, w := range vec {
		vec[k] = w / norm
	}
}

func Norm(vec Vector) float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty.
func Cosine(a, b Vector) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, w := range a {
		dot += w * b[k]
	}
	return clamp(dot / (na * nb))
}

func clamp(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Similarity scores two texts by fitting a fresh vector space over the pair.
type Similarity struct {
	Vectorizer Vectorizer
}

func NewSimilarity() Similarity {
	return Similarity{Vectorizer: New()}
}

func (s Similarity) Similarity(_ context.Context, a, b string) (float64, error) {
	v := s.Vectorizer
	if v.config.MaxFeatures == 0 {
		v = New()
	}
	model := v.FitTransform([]string{a, b})
	return Cosine(model.Vectors[0], model.Vectors[1]), nil
}
