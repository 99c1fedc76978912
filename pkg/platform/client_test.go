package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// newTestServer serves the token endpoint plus a caller-provided GraphQL
// handler.
func newTestServer(t *testing.T, graphql http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/client_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse token form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") != "id-1" || r.PostForm.Get("client_secret") != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-abc"})
	})
	if graphql != nil {
		mux.HandleFunc("/api/graphql", graphql)
	}
	return httptest.NewServer(mux)
}

func connectTest(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := Connect(context.Background(), Settings{
		BaseURL:      srv.URL,
		ClientID:     "id-1",
		ClientSecret: "secret-1",
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return client
}

// TestConnectTokenExchange tests the credential exchange
func TestConnectTokenExchange(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	client := connectTest(t, srv)
	if client.BaseURL() != srv.URL {
		t.Errorf("BaseURL = %s, want %s", client.BaseURL(), srv.URL)
	}
}

// TestConnectRejectedCredentials tests that a rejected exchange surfaces as
// an AuthError
func TestConnectRejectedCredentials(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	_, err := Connect(context.Background(), Settings{
		BaseURL:      srv.URL,
		ClientID:     "id-1",
		ClientSecret: "wrong",
		Logger:       zerolog.Nop(),
	})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

// TestConnectInvalidBaseURL tests URL validation before any request
func TestConnectInvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "relative/path"} {
		_, err := Connect(context.Background(), Settings{BaseURL: u, Logger: zerolog.Nop()})
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Errorf("Connect(%q) err = %v, want *AuthError", u, err)
		}
	}
}

// TestQueryDecodesData tests a successful GraphQL round trip with the
// bearer token attached
func TestQueryDecodesData(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Variables == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"thing": {"id": "t-1", "name": "alpha"}}}`))
	})
	defer srv.Close()

	client := connectTest(t, srv)

	var payload struct {
		Thing struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"thing"`
	}
	if err := client.Query(context.Background(), "query { thing { id name } }", nil, &payload); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if payload.Thing.ID != "t-1" || payload.Thing.Name != "alpha" {
		t.Errorf("payload = %+v", payload)
	}
}

// TestQueryGraphQLErrors tests that an errors array surfaces as
// *GraphQLError even on a 200 response
func TestQueryGraphQLErrors(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors": [{"message": "object not found"}]}`))
	})
	defer srv.Close()

	client := connectTest(t, srv)
	err := client.Query(context.Background(), "query {}", nil, nil)
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("err = %v, want *GraphQLError", err)
	}
	if len(gqlErr.Entries) != 1 || gqlErr.Entries[0].Message != "object not found" {
		t.Errorf("entries = %+v", gqlErr.Entries)
	}
}

// TestQueryHTTPError tests that non-2xx responses surface as *APIError with
// the retriability signal
func TestQueryHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		})
		client := connectTest(t, srv)

		err := client.Query(context.Background(), "query {}", nil, nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: err = %v, want *APIError", tt.status, err)
		}
		if apiErr.StatusCode != tt.status {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
		}
		if apiErr.Temporary() != tt.temporary {
			t.Errorf("status %d: Temporary() = %v, want %v", tt.status, apiErr.Temporary(), tt.temporary)
		}
		srv.Close()
	}
}
