package scorer

import (
	"regexp"
	"strconv"
	"strings"
)

// EducationLevels maps degree keywords to their score. Possessive forms
// ("master's") are covered by substring matching.
var EducationLevels = []struct {
	Keyword string
	Score   float64
}{
	{"phd", 1.0},
	{"master", 0.8},
	{"bachelor", 0.6},
	{"associate", 0.4},
}

const (
	EducationBaseline  = 0.3
	ExperienceCapYears = 15.0
)

var experiencePattern = regexp.MustCompile(`(?i)(\d+)\+?\s*(?:years?|yrs?)(?:\s+of)?\s+(?:experience|exp)`)

// ExtractEducation returns the highest education score found in text, or
// EducationBaseline when no degree keyword is present.
func ExtractEducation(text string) float64 {
	lower := strings.ToLower(text)

	best := 0.0
	for _, level := range EducationLevels {
		if strings.Contains(lower, level.Keyword) && level.Score > best {
			best = level.Score
		}
	}
	if best == 0 {
		return EducationBaseline
	}
	return best
}

// ExtractExperience scales the largest "<N> years of experience" mention
// linearly to [0,1], capped at ExperienceCapYears.
func ExtractExperience(text string) float64 {
	matches := experiencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}

	years := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// only overflow gets here; anything that long is past the cap
			return 1
		}
		if n > years {
			years = n
		}
	}

	return min(float64(years)/ExperienceCapYears, 1.0)
}
