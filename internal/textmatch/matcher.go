// internal/textmatch/matcher.go
package textmatch

import "sort"

// EntityMatches aggregates every match for one entity (brand or competitor)
// against a single answer.
type EntityMatches struct {
	// Positions is the sorted, deduplicated union of matches for the entity
	// name and all of its product names.
	Positions []int
	// ProductPositions is the sorted, deduplicated union of matches for the
	// product names alone.
	ProductPositions []int
	// FirstPosition is the earliest entry of Positions, or 0 when the entity
	// is absent from the answer.
	FirstPosition int
}

// Mentions returns the total mention count for the entity.
func (m EntityMatches) Mentions() int { return len(m.Positions) }

// ProductMentions returns the product-only mention count.
func (m EntityMatches) ProductMentions() int { return len(m.ProductPositions) }

// FindTermPositions runs an exact sliding-window comparison of a normalized
// term against the normalized token stream and returns every 1-indexed start
// position, ascending. Both sides must come from the normalizer; no fuzzy
// matching happens here. An empty term is a logic defect upstream, not a
// data condition.
func FindTermPositions(tokens []string, term []string) []int {
	if len(term) == 0 {
		panic("textmatch: empty term passed to FindTermPositions")
	}

	positions := []int{}
	if len(tokens) < len(term) {
		return positions
	}

	for i := 0; i <= len(tokens)-len(term); i++ {
		matched := true
		for j := range term {
			if tokens[i+j] != term[j] {
				matched = false
				break
			}
		}
		if matched {
			positions = append(positions, i+1)
		}
	}
	return positions
}

// MatchEntity matches an entity name and its product names independently
// against the full token stream and merges the results. Names that normalize
// to nothing are skipped. Overlapping matches from different terms at the
// same position collapse to one entry in the union.
func MatchEntity(tokens []string, name string, products []string) EntityMatches {
	seen := map[int]struct{}{}
	productSeen := map[int]struct{}{}

	if term := NormalizeTerm(name); len(term) > 0 {
		for _, pos := range FindTermPositions(tokens, term) {
			seen[pos] = struct{}{}
		}
	}

	for _, product := range products {
		term := NormalizeTerm(product)
		if len(term) == 0 {
			continue
		}
		for _, pos := range FindTermPositions(tokens, term) {
			seen[pos] = struct{}{}
			productSeen[pos] = struct{}{}
		}
	}

	matches := EntityMatches{
		Positions:        sortedKeys(seen),
		ProductPositions: sortedKeys(productSeen),
	}
	if len(matches.Positions) > 0 {
		matches.FirstPosition = matches.Positions[0]
	}
	return matches
}

func sortedKeys(set map[int]struct{}) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
