package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-relay/internal/domain"
)

func newFeedServer(t *testing.T, tokenCalls *int, purchases []domain.Purchase) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		*tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, assertionGrant, r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "assertion-1", r.PostForm.Get("assertion"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "bearer-1",
			"expires_in":   7200,
		})
	})

	mux.HandleFunc("/purchases/v2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("descending"))
		_ = json.NewEncoder(w).Encode(map[string]any{"purchases": purchases})
	})

	return httptest.NewServer(mux)
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:        srv.URL,
		TokenURL:       srv.URL + "/token",
		ClientID:       "client-1",
		AssertionToken: "assertion-1",
	})
}

func TestLatestPurchases(t *testing.T) {
	comment := "no onion"
	want := []domain.Purchase{
		{
			UUID:            "p-1",
			UserDisplayName: "Kassa Uppe 1",
			Products: []domain.Product{
				{Name: "Mat - Köket", Quantity: 2, VariantName: "Burger", Comment: &comment},
				{Name: "Mat - Baren", Quantity: 1, VariantName: "Toast"},
			},
		},
	}
	var tokenCalls int
	srv := newFeedServer(t, &tokenCalls, want)
	defer srv.Close()

	got, err := testClient(srv).LatestPurchases(context.Background(), 5, true)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLatestPurchases_TokenCached(t *testing.T) {
	var tokenCalls int
	srv := newFeedServer(t, &tokenCalls, nil)
	defer srv.Close()

	c := testClient(srv)
	_, err := c.LatestPurchases(context.Background(), 5, true)
	require.NoError(t, err)
	_, err = c.LatestPurchases(context.Background(), 5, true)
	require.NoError(t, err)

	assert.Equal(t, 1, tokenCalls, "second fetch must reuse the cached bearer token")
}

func TestLatestPurchases_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, TokenURL: srv.URL + "/token"})
	_, err := c.LatestPurchases(context.Background(), 5, true)
	assert.Error(t, err)
}

func TestLatestPurchases_FeedError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "bearer-1", "expires_in": 7200})
	})
	mux.HandleFunc("/purchases/v2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, TokenURL: srv.URL + "/token"})
	_, err := c.LatestPurchases(context.Background(), 5, true)
	assert.ErrorContains(t, err, "unexpected status 502")
}
