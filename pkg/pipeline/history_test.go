package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

func TestQueryHistoryBounded(t *testing.T) {
	h := NewQueryHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(types.QueryHistoryEntry{Query: fmt.Sprintf("q%d", i), Timestamp: time.Now()})
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "q2", entries[0].Query)
	assert.Equal(t, "q4", entries[2].Query)
	assert.Equal(t, 3, h.Len())
}

func TestQueryHistoryEntriesIsACopy(t *testing.T) {
	h := NewQueryHistory(8)
	h.Append(types.QueryHistoryEntry{Query: "original"})

	entries := h.Entries()
	entries[0].Query = "mutated"

	assert.Equal(t, "original", h.Entries()[0].Query)
}

func TestQueryHistoryConcurrentAppend(t *testing.T) {
	h := NewQueryHistory(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Append(types.QueryHistoryEntry{Query: fmt.Sprintf("worker-%d-%d", n, j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 500, h.Len())
}
