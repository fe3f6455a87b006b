package chains

// DefaultMaxLength bounds candidate chains unless configured otherwise.
const DefaultMaxLength = 3

// Enumerate produces every order-preserving subsequence of signalTypes with
// length 1..maxLen, skipping subsequences that would repeat a signal type.
// Subsequences need not be contiguous.
//
// Output order is deterministic: depth-first by position, so chains sort by
// the temporal position of their first signal, then by each extension in turn
// order. Duplicate chains (possible when the input repeats a type) keep their
// first emission position.
func Enumerate(signalTypes []string, maxLen int) []Chain {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if len(signalTypes) == 0 {
		return nil
	}

	var (
		out     []Chain
		emitted = make(map[string]bool)
		current = make([]string, 0, maxLen)
	)

	var extend func(start int)
	extend = func(start int) {
		for i := start; i < len(signalTypes); i++ {
			st := signalTypes[i]
			if inPrefix(current, st) {
				continue
			}
			current = append(current, st)
			chain, err := New(current, maxLen)
			if err == nil && !emitted[chain.Key()] {
				emitted[chain.Key()] = true
				out = append(out, chain)
			}
			if len(current) < maxLen {
				extend(i + 1)
			}
			current = current[:len(current)-1]
		}
	}
	extend(0)
	return out
}

func inPrefix(prefix []string, st string) bool {
	for _, p := range prefix {
		if p == st {
			return true
		}
	}
	return false
}
