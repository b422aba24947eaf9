package match

import (
	"sort"
	"strings"
)

// ratio returns a similarity score in [0, 100] for two strings, based on an
// edit distance where a substitution costs 2 (one delete plus one insert).
// Two empty strings are identical by definition.
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 100 * float64(total-indelDistance(a, b)) / float64(total)
}

// indelDistance is the minimum number of single-byte insertions and
// deletions turning a into b. Canonical inputs are ASCII, so byte indexing
// is safe here.
func indelDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			if del < ins {
				curr[j] = del
			} else {
				curr[j] = ins
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// TokenSortRatio compares the two inputs after sorting their tokens, so
// word order does not matter but duplicates still do.
func TokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the token sets of the two inputs. Shared tokens
// anchor the comparison, so one side carrying extra tokens (a release year,
// an edition tag) costs less than under TokenSortRatio.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	// With one side empty every comparison below degenerates to two empty
	// strings and would report identity instead of total mismatch.
	if len(setA) == 0 || len(setB) == 0 {
		if len(setA) == len(setB) {
			return 100
		}
		return 0
	}

	var shared, onlyA, onlyB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	combinedA := joinNonEmpty(base, strings.Join(onlyA, " "))
	combinedB := joinNonEmpty(base, strings.Join(onlyB, " "))

	best := ratio(base, combinedA)
	if r := ratio(base, combinedB); r > best {
		best = r
	}
	if r := ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

// PartialRatio slides the shorter input across the longer one and returns
// the best window score, so a title embedded in a longer filename still
// scores high.
func PartialRatio(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}

	var best float64
	for i := 0; i+len(shorter) <= len(longer); i++ {
		if r := ratio(shorter, longer[i:i+len(shorter)]); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// CombinedRatio is the weighted blend used for availability decisions:
// the set ratio dominates, the sort ratio rewards matching order, and the
// partial ratio rescues titles buried in longer filenames.
func CombinedRatio(a, b string) float64 {
	return 0.5*TokenSetRatio(a, b) + 0.3*TokenSortRatio(a, b) + 0.2*PartialRatio(a, b)
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(s) {
		set[field] = struct{}{}
	}
	return set
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
