package scorer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SkillVocabulary is the closed list of skills recognised in job descriptions
// and resumes. Entries are lowercase canonical forms.
var SkillVocabulary = []string{
	"python", "java", "javascript", "c++", "ruby", "php", "sql", "html", "css",
	"react", "angular", "vue", "node.js", "docker", "kubernetes", "aws",
	"azure", "git", "machine learning", "deep learning", "ai", "nlp",
}

// ExtractSkills returns the distinct vocabulary skills that occur in text as
// whole words, case-insensitively, sorted.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, skill := range SkillVocabulary {
		if containsWord(lower, skill) {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// containsWord reports whether needle occurs in haystack with no word
// character immediately before or after it.
func containsWord(haystack, needle string) bool {
	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)

		before, _ := utf8.DecodeLastRuneInString(haystack[:start])
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(haystack) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func intersect(a, b []string) []string {
	set := toSet(b)
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func difference(a, b []string) []string {
	set := toSet(b)
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
