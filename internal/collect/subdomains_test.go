package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctServer(t *testing.T, entries []map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "%.example.com", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("output"))
		require.NoError(t, json.NewEncoder(w).Encode(entries))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubdomains(t *testing.T) {
	srv := ctServer(t, []map[string]string{
		{"name_value": "www.example.com\nMAIL.example.com"},
		{"name_value": "www.example.com"},           // duplicate
		{"name_value": "example.com"},               // apex is kept
		{"name_value": "evil-example.com"},          // different registrable domain
		{"name_value": "sub.other.org"},             // out of scope entirely
		{"name_value": "  api.example.com  \n\n\n"}, // whitespace noise
	})

	subs, err := Subdomains(context.Background(), "example.com", srv.URL, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"api.example.com",
		"example.com",
		"mail.example.com",
		"www.example.com",
	}, subs)
}

func TestSubdomainsCapped(t *testing.T) {
	entries := make([]map[string]string, 0, 80)
	for i := 0; i < 80; i++ {
		entries = append(entries, map[string]string{
			"name_value": fmt.Sprintf("host%03d.example.com", i),
		})
	}
	srv := ctServer(t, entries)

	subs, err := Subdomains(context.Background(), "example.com", srv.URL, 2*time.Second)
	require.NoError(t, err)
	assert.Len(t, subs, SubdomainCap)
}

func TestSubdomainsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := Subdomains(context.Background(), "example.com", srv.URL, 2*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSubdomainsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := Subdomains(context.Background(), "example.com", srv.URL, 2*time.Second)
	require.Error(t, err)
}
