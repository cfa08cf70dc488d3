package naming

import "strings"

// Index maps a lower-cased filename to the filename as it exists on disk.
// It is built once per directory snapshot and only read afterwards.
type Index map[string]string

// BuildIndex indexes names in the order given. When two names lower-case
// to the same key the later one wins, so pass a deterministic order.
func BuildIndex(names []string) Index {
	idx := make(Index, len(names))
	for _, n := range names {
		idx[strings.ToLower(n)] = n
	}
	return idx
}

// Len returns the number of distinct keys.
func (idx Index) Len() int { return len(idx) }
