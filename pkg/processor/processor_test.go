package processor_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/screener/pkg/processor"
)

func TestProcessor_Preprocess(t *testing.T) {
	p := processor.New()

	tests := []struct {
		text string
		want string
	}{
		{"Senior Software Engineer, 5+ years!", "senior software engineer 5 years"},
		{"  Python\n\tAWS  ", "python aws"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Preprocess(tt.text))
		})
	}
}

func TestProcessor_Keywords(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		Stopwords: []string{"Senior"},
	})

	got := p.Keywords("Senior engineer with Python, python and AWS. I am an ML dev.")

	assert.Equal(t, []string{"aws", "dev", "engineer", "python"}, got)
}

func TestProcessor_Chunks(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    40,
		ChunkOverlap: 10,
	})

	text := "This is a test resume. It lists several sentences. Each one talks about Python and AWS work."
	chunks := p.Chunks(text)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40)
		assert.NotEmpty(t, c)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "This is a test resume."))
	assert.Contains(t, strings.Join(chunks, " "), "It lists several sentences.")
}

func TestProcessor_ChunksLongSentenceAndEmpty(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 10, ChunkOverlap: 2})

	chunks := p.Chunks(strings.Repeat("ü", 25))
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}

	assert.Nil(t, p.Chunks("   "))
}
