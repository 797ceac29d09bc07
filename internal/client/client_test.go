package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// recordedRequest 服务端收到的请求
type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// newSearchServer 返回固定响应体的搜索服务，并记录收到的请求
func newSearchServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestClientSearchSendsRequestVerbatim(t *testing.T) {
	srv, requests := newSearchServer(t, http.StatusOK,
		`[{"title":"Two Sum","link":"https://x/1","difficulty":"easy","score":0.9}]`)

	c := New(srv.URL+"/search", 5*time.Second)
	results, err := c.Search(context.Background(), engine.SearchRequest{
		Query:      "  Two SUM ",
		Difficulty: "",
		Language:   "python",
	})
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/search", got.path)
	assert.Equal(t, "application/json", got.contentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, map[string]any{
		"query":      "  Two SUM ",
		"difficulty": "",
		"language":   "python",
	}, body)

	require.Len(t, results, 1)
	assert.Equal(t, "Two Sum", results[0].Title)
	assert.Equal(t, "https://x/1", results[0].Link)
	assert.Equal(t, "easy", results[0].Difficulty)
	assert.Equal(t, srv.URL+"/search", c.Endpoint())
}

func TestClientSearchEmptyArray(t *testing.T) {
	srv, _ := newSearchServer(t, http.StatusOK, "[]\n")

	results, err := New(srv.URL, time.Second).Search(context.Background(), engine.SearchRequest{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestClientSearchErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		expected error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrUnexpectedStatus},
		{"not json", http.StatusOK, `<html>oops</html>`, ErrMalformedResponse},
		{"object instead of array", http.StatusOK, `{"title":"Two Sum"}`, ErrMalformedResponse},
		{"null", http.StatusOK, `null`, ErrMalformedResponse},
		{"truncated", http.StatusOK, `[{"title":`, ErrMalformedResponse},
		{"trailing data", http.StatusOK, `[{"title":"A"}] trailing-garbage`, ErrMalformedResponse},
		{"second value", http.StatusOK, `[] []`, ErrMalformedResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newSearchServer(t, tc.status, tc.response)
			_, err := New(srv.URL, time.Second).Search(context.Background(), engine.SearchRequest{Query: "x"})
			require.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestClientSearchTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := New(endpoint, time.Second).Search(context.Background(), engine.SearchRequest{Query: "x"})
	require.ErrorIs(t, err, ErrTransport)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	_, err = New(slow.URL, 50*time.Millisecond).Search(context.Background(), engine.SearchRequest{Query: "x"})
	require.ErrorIs(t, err, ErrTransport)
}
