// internal/textmatch/metrics.go
package textmatch

import "math"

// Weighting between how early an entity appears (prominence) and how often
// it appears (density). Fixed constants; changing them would break parity
// with historical scores.
const (
	prominenceWeight = 0.6
	densityWeight    = 0.4
	logOffset        = 9
)

// VisibilityIndex combines prominence and density into a 0-1 score for one
// entity in one answer. mentions is the full name+product mention count,
// firstPosition the 1-indexed earliest match and wordCount the total token
// count of the answer. Zero mentions always scores 0.
func VisibilityIndex(mentions, firstPosition, wordCount int) float64 {
	if mentions == 0 {
		return 0
	}

	density := 0.0
	if wordCount > 0 {
		density = float64(mentions) / float64(wordCount)
	}
	prominence := 1 / math.Log10(float64(firstPosition+logOffset))

	return round2(prominence*prominenceWeight + density*densityWeight)
}

// ShareOfAnswer returns the percentage of total tracked mentions in one
// answer attributable to the primary entity, or nil when neither side is
// mentioned at all (there is nothing to share).
func ShareOfAnswer(primaryMentions, secondaryMentions int) *float64 {
	total := primaryMentions + secondaryMentions
	if total == 0 {
		return nil
	}
	share := round2(float64(primaryMentions) / float64(total) * 100)
	return &share
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
