package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", "test-cx", 8, 6, server.Client())
	client.baseURL = server.URL
	return client
}

func searchResponse(items ...map[string]string) []byte {
	payload := map[string]interface{}{"items": items}
	data, _ := json.Marshal(payload)
	return data
}

func TestSearch_SendsExpectedParams(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write(searchResponse(map[string]string{
			"title": "Hiring guide", "link": "https://example.com", "snippet": "useful",
		}))
	})

	results, err := client.Search(context.Background(), "backend interviews")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "backend interviews", query["q"][0])
	assert.Equal(t, "test-key", query["key"][0])
	assert.Equal(t, "test-cx", query["cx"][0])
	assert.Equal(t, "8", query["num"][0])
	assert.Equal(t, "m6", query["dateRestrict"][0])
}

func TestSearch_InlineTokensAreParsedAndStripped(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write(searchResponse())
	})

	_, err := client.Search(context.Background(), "backend interviews months:3 num:5")
	require.NoError(t, err)

	assert.Equal(t, "backend interviews", query["q"][0])
	assert.Equal(t, "5", query["num"][0])
	assert.Equal(t, "m3", query["dateRestrict"][0])
}

func TestSearch_TokenValuesAreClamped(t *testing.T) {
	var query map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write(searchResponse())
	})

	_, err := client.Search(context.Background(), "q months:99 num:50")
	require.NoError(t, err)

	assert.Equal(t, "10", query["num"][0])
	assert.Equal(t, "m12", query["dateRestrict"][0])
}

func TestSearch_SkipsMalformedRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchResponse(
			map[string]string{"title": "Good", "link": "https://a", "snippet": "ok"},
			map[string]string{"title": "", "link": "https://b", "snippet": "no title"},
			map[string]string{"title": `{"raw": "json"}`, "link": "https://c", "snippet": "dump"},
			map[string]string{"title": "No link", "link": "", "snippet": "x"},
		))
	})

	results, err := client.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Good", results[0].Title)
}

func TestSearch_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearch_NotConfigured(t *testing.T) {
	client := NewClient("", "", 8, 6, http.DefaultClient)

	assert.False(t, client.Enabled())

	_, err := client.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFormatResults(t *testing.T) {
	formatted := FormatResults([]Result{
		{Title: "A", Link: "https://a", Snippet: "sa"},
		{Title: "B", Link: "https://b", Snippet: "sb"},
	})

	assert.Contains(t, formatted, "- A\n  https://a\n  sa")
	assert.Contains(t, formatted, "- B\n  https://b\n  sb")

	empty := FormatResults(nil)
	assert.Contains(t, empty, "No well-formed search results")
}
