package entities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/rs/zerolog"
)

type Category string

const (
	Person       Category = "PERSON"
	Organization Category = "ORGANIZATION"
	GPE          Category = "GPE" // geo-political entity
)

// Categories lists the entity categories in display order.
var Categories = []Category{Organization, Person, GPE}

// EntityMap holds the distinct entities found per category. Every category
// is present; an empty slice means none were found.
type EntityMap map[Category][]string

func Empty() EntityMap {
	m := make(EntityMap, len(Categories))
	for _, c := range Categories {
		m[c] = []string{}
	}
	return m
}

// Entity is a labelled span reported by a Recognizer.
type Entity struct {
	Text  string
	Label string
}

// Recognizer finds named entities in text.
type Recognizer func(text string) ([]Entity, error)

type ExtractorConfig struct {
	Recognizer Recognizer
	Logger     *zerolog.Logger
}

type Extractor struct {
	recognize Recognizer
	logger    zerolog.Logger
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	if config.Recognizer == nil {
		config.Recognizer = ProseRecognizer
	}
	l := zerolog.Nop()
	if config.Logger != nil {
		l = config.Logger.With().Str("component", "entities").Logger()
	}
	return &Extractor{recognize: config.Recognizer, logger: l}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// Extract returns the people, organizations and places mentioned in text.
// It never fails: recognizer errors and panics are logged and yield an
// empty map.
func (e *Extractor) Extract(text string) (result EntityMap) {
	result = Empty()
	if strings.TrimSpace(text) == "" {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().Interface("panic", r).Msg("entity extraction failed")
			result = Empty()
		}
	}()

	found, err := e.recognize(text)
	if err != nil {
		e.logger.Warn().Err(err).Msg("entity extraction failed")
		return Empty()
	}

	seen := make(map[Category]map[string]struct{}, len(Categories))
	for _, ent := range found {
		cat, ok := categoryOf(ent.Label)
		name := strings.Join(strings.Fields(ent.Text), " ")
		if !ok || name == "" {
			continue
		}
		if seen[cat] == nil {
			seen[cat] = make(map[string]struct{})
		}
		if _, dup := seen[cat][name]; dup {
			continue
		}
		seen[cat][name] = struct{}{}
		result[cat] = append(result[cat], name)
	}

	for _, c := range Categories {
		sort.Strings(result[c])
	}
	return result
}

func categoryOf(label string) (Category, bool) {
	switch strings.ToUpper(label) {
	case "PERSON":
		return Person, true
	case "ORG", "ORGANIZATION":
		return Organization, true
	case "GPE":
		return GPE, true
	default:
		return "", false
	}
}

// ProseRecognizer tags text with prose's averaged-perceptron NER model.
func ProseRecognizer(text string) ([]Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to tag document: %w", err)
	}

	var out []Entity
	for _, ent := range doc.Entities() {
		out = append(out, Entity{Text: ent.Text, Label: ent.Label})
	}
	return out, nil
}
