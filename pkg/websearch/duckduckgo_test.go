package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instantAnswerPayload = `{
	"Heading": "Saudi Labor Law",
	"AbstractText": "The Labor Law governs employment in Saudi Arabia.",
	"AbstractURL": "https://example.org/labor-law",
	"RelatedTopics": [
		{"Text": "Employment visas", "FirstURL": "https://example.org/visas"},
		{"Topics": [
			{"Text": "Nested topic", "FirstURL": "https://example.org/nested"}
		]},
		{"Text": "No URL topic"}
	]
}`

func TestSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("no_html"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(instantAnswerPayload))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, MaxResults: 10})
	results, err := client.Search(context.Background(), "labor law")
	require.NoError(t, err)
	assert.Equal(t, "labor law", gotQuery)

	require.Len(t, results, 3)
	assert.Equal(t, "Saudi Labor Law", results[0].Title)
	assert.Equal(t, "https://example.org/labor-law", results[0].URL)
	assert.Equal(t, "Employment visas", results[1].Title)
	assert.Equal(t, "Nested topic", results[2].Title)
}

func TestSearchMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(instantAnswerPayload))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, MaxResults: 2})
	results, err := client.Search(context.Background(), "labor law")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})
	results, err := client.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})
	_, err := client.Search(context.Background(), "labor law")
	assert.Error(t, err)
}

func TestSearchLegal(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})

	_, err := client.SearchLegal(context.Background(), "employment visas", "")
	require.NoError(t, err)
	assert.Equal(t, "employment visas Saudi Arabia law regulations", gotQuery)

	_, err = client.SearchLegal(context.Background(), "data residency", "UAE")
	require.NoError(t, err)
	assert.Equal(t, "data residency UAE law regulations", gotQuery)
}

func TestFlattenTopics(t *testing.T) {
	topics := []ddgTopic{
		{Text: "A", FirstURL: "https://a"},
		{Topics: []ddgTopic{
			{Text: "B", FirstURL: "https://b"},
			{Topics: []ddgTopic{{Text: "C", FirstURL: "https://c"}}},
		}},
		{Text: "no url"},
	}

	results := flattenTopics(topics)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{results[0].Title, results[1].Title, results[2].Title})
}
