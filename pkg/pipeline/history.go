package pipeline

import (
	"sync"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// QueryHistory is a bounded, concurrency-safe audit log of pipeline
// invocation attempts. When full, the oldest entries are dropped.
type QueryHistory struct {
	entries []types.QueryHistoryEntry
	max     int
	mutex   sync.Mutex
}

// NewQueryHistory creates a history keeping at most max entries.
// A non-positive max defaults to 1024.
func NewQueryHistory(max int) *QueryHistory {
	if max <= 0 {
		max = 1024
	}
	return &QueryHistory{max: max}
}

// Append records an invocation attempt.
func (h *QueryHistory) Append(entry types.QueryHistoryEntry) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Entries returns a copy of the recorded attempts, oldest first.
func (h *QueryHistory) Entries() []types.QueryHistoryEntry {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	out := make([]types.QueryHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the number of retained entries.
func (h *QueryHistory) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.entries)
}
