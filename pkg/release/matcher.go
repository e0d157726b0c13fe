package release

import (
	"regexp"
	"slices"

	"github.com/hbollon/go-edlib"
)

var digitsPattern = regexp.MustCompile(`\d+`)

// MatchConfidence is how sure a fuzzy subject match is.
type MatchConfidence int

const (
	ConfidenceNone  MatchConfidence = iota // Below FuzzyThreshold
	ConfidenceFuzzy                        // Similar enough to be the same subject
	ConfidenceExact                        // Equal after CleanTitle
)

// FuzzyThreshold is the Jaro-Winkler similarity a name needs to count as a match.
const FuzzyThreshold = 0.88

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// SubjectMatch is the result of matching one name against a subject's names.
type SubjectMatch struct {
	Name       string  // Best matching subject name
	Score      float64 // Jaro-Winkler similarity, 1.0 for exact
	Confidence MatchConfidence
}

// MatchSubject compares a provider's subject name against every known name of
// the requested subject. Names carrying a sequel number only match names with
// the same number ("Yuru Camp 2" is not "Yuru Camp 3").
func MatchSubject(name string, subjectNames []string) SubjectMatch {
	cleaned := CleanTitle(name)
	if cleaned == "" || len(subjectNames) == 0 {
		return SubjectMatch{}
	}
	nums := digitsPattern.FindAllString(cleaned, -1)

	var best SubjectMatch
	for _, candidate := range subjectNames {
		c := CleanTitle(candidate)
		if c == "" {
			continue
		}
		if c == cleaned {
			return SubjectMatch{Name: candidate, Score: 1, Confidence: ConfidenceExact}
		}
		if !sameNumbers(nums, digitsPattern.FindAllString(c, -1)) {
			continue
		}
		score := float64(edlib.JaroWinklerSimilarity(cleaned, c))
		if score > best.Score {
			best = SubjectMatch{Name: candidate, Score: score}
		}
	}

	if best.Score >= FuzzyThreshold {
		best.Confidence = ConfidenceFuzzy
		return best
	}
	return SubjectMatch{Score: best.Score}
}

func sameNumbers(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == len(b)
	}
	for _, n := range a {
		if slices.Contains(b, n) {
			return true
		}
	}
	return false
}
