package layout

import "strings"

// softHyphen is U+00AD, an invisible hint marking where a word may be
// split with a visible hyphen.
const softHyphen = "­"

// splitSoftHyphen binary-partitions word at its soft-hyphen boundaries,
// returning the largest prefix (plus a trailing literal '-') that
// measures within available, and the remaining suffix. ok is false if
// even the first segment doesn't fit.
func splitSoftHyphen(word string, available int, measure func(string) int) (prefix, suffix string, ok bool) {
	parts := strings.Split(word, softHyphen)
	if len(parts) < 2 {
		return "", "", false
	}

	lo, hi := 1, len(parts)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		candidate := strings.Join(parts[:mid], "") + "-"
		if measure(candidate) <= available {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best == 0 {
		return "", "", false
	}

	return strings.Join(parts[:best], "") + "-", strings.Join(parts[best:], ""), true
}
