package sessions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

type fakeResponder struct {
	degraded bool
	calls    int
}

func (r *fakeResponder) GenerateResponse(_ context.Context, query string, filters types.SearchFilters, _ bool) *types.RAGResponse {
	r.calls++
	resp := &types.RAGResponse{
		ResponseText:   "Answer for: " + query,
		Query:          query,
		Timestamp:      time.Now(),
		FiltersApplied: filters,
		ModelUsed:      "gpt-4",
		Citations: []types.Citation{
			{Title: "Labor Law Guide", SourceFile: "labor_law_guide.pdf"},
		},
	}
	if r.degraded {
		resp.ModelUsed = "fallback"
	}
	return resp
}

func newTestManager(t *testing.T, responder Responder) *Manager {
	t.Helper()
	m, err := NewManager(responder, t.TempDir())
	require.NoError(t, err)
	return m
}

func TestSessionLifecycle(t *testing.T) {
	responder := &fakeResponder{}
	m := newTestManager(t, responder)

	id := m.StartSession("user-1")
	require.NotEmpty(t, id)

	resp, err := m.Ask(context.Background(), id, "Can an employer terminate without notice?", types.SearchFilters{})
	require.NoError(t, err)
	assert.Contains(t, resp.ResponseText, "terminate without notice")
	assert.Equal(t, 1, responder.calls)

	_, err = m.Ask(context.Background(), id, "What severance is owed?", types.SearchFilters{PracticeArea: "Employment Law"})
	require.NoError(t, err)

	summary, err := m.EndSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, summary.ID)
	assert.Equal(t, "user-1", summary.UserID)
	assert.Equal(t, 2, summary.QuestionCount)
	assert.Zero(t, summary.DegradedCount)
	assert.Len(t, summary.Topics, 2)

	t.Run("ended sessions reject further questions", func(t *testing.T) {
		_, err := m.Ask(context.Background(), id, "another question", types.SearchFilters{})
		assert.Error(t, err)
	})
}

func TestAskUnknownSession(t *testing.T) {
	m := newTestManager(t, &fakeResponder{})
	_, err := m.Ask(context.Background(), "no-such-session", "question", types.SearchFilters{})
	assert.Error(t, err)
}

func TestSessionPersistenceRoundTrip(t *testing.T) {
	m := newTestManager(t, &fakeResponder{})

	id := m.StartSession("user-1")
	_, err := m.Ask(context.Background(), id, "question one", types.SearchFilters{})
	require.NoError(t, err)
	_, err = m.EndSession(id)
	require.NoError(t, err)

	loaded, err := m.LoadSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "question one", loaded.Entries[0].Question)
	assert.Equal(t, "Answer for: question one", loaded.Entries[0].Response)
	require.Len(t, loaded.Entries[0].Citations, 1)
	assert.Equal(t, "Labor Law Guide", loaded.Entries[0].Citations[0].Title)

	t.Run("reloaded session accepts new questions", func(t *testing.T) {
		_, err := m.Ask(context.Background(), id, "follow-up", types.SearchFilters{})
		assert.NoError(t, err)
	})
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(&fakeResponder{}, dir)
	require.NoError(t, err)

	id := m.StartSession("user-1")
	_, err = m.Ask(context.Background(), id, "question one", types.SearchFilters{})
	require.NoError(t, err)
	_, err = m.EndSession(id)
	require.NoError(t, err)

	strays, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, strays)

	data, err := os.ReadFile(filepath.Join(dir, "session_"+id+".json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestDegradedCounting(t *testing.T) {
	m := newTestManager(t, &fakeResponder{degraded: true})

	id := m.StartSession("")
	_, err := m.Ask(context.Background(), id, "question", types.SearchFilters{})
	require.NoError(t, err)

	summary, err := m.EndSession(id)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DegradedCount)
}

func TestListSessions(t *testing.T) {
	m := newTestManager(t, &fakeResponder{})

	first := m.StartSession("alice")
	_, err := m.Ask(context.Background(), first, "question", types.SearchFilters{})
	require.NoError(t, err)
	_, err = m.EndSession(first)
	require.NoError(t, err)

	second := m.StartSession("bob")
	_, err = m.Ask(context.Background(), second, "question", types.SearchFilters{})
	require.NoError(t, err)
	_, err = m.EndSession(second)
	require.NoError(t, err)

	all, err := m.ListSessions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	t.Run("filter by user", func(t *testing.T) {
		mine, err := m.ListSessions("alice")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, first, mine[0].ID)
	})
}
