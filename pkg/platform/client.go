// Package platform provides the authenticated GraphQL client for the
// backup platform's API.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Settings configures the connection to the backup platform.
type Settings struct {
	// BaseURL is the platform root, e.g. "https://acme.my.rubrik.example".
	BaseURL string

	// ClientID and ClientSecret are the service-account credentials
	// exchanged for a short-lived access token.
	ClientID     string
	ClientSecret string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Debug enables request/response logging on the HTTP client.
	Debug bool

	// Logger receives client-level log output.
	Logger zerolog.Logger
}

// Client is an authenticated GraphQL client for the backup platform. The
// access token obtained at connect time authorizes every subsequent call.
type Client struct {
	http    *resty.Client
	baseURL string
	log     zerolog.Logger
}

// tokenResponse is the credential-exchange response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// envelope is the GraphQL response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorEntry    `json:"errors"`
}

// Connect exchanges the client credentials for an access token and returns
// a client authorized with it. Authentication failure is fatal to the
// caller: no orchestration begins without a token.
func Connect(ctx context.Context, s Settings) (*Client, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, &AuthError{Message: fmt.Sprintf("invalid base URL %q", s.BaseURL), Err: err}
	}

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	http := resty.New().
		SetBaseURL(s.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetDebug(s.Debug)

	var token tokenResponse
	resp, err := http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     s.ClientID,
			"client_secret": s.ClientSecret,
			"grant_type":    "client_credentials",
		}).
		SetResult(&token).
		Post("/api/client_token")
	if err != nil {
		return nil, &AuthError{Message: "token exchange request failed", Err: err}
	}
	if resp.IsError() {
		return nil, &AuthError{
			Message: fmt.Sprintf("token exchange rejected: %s: %s", resp.Status(), resp.String()),
		}
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Message: "token exchange response carried no access token"}
	}

	http.SetHeader("Authorization", "Bearer "+token.AccessToken)
	http.SetHeader("Content-Type", "application/json")

	s.Logger.Debug().Str("base_url", s.BaseURL).Msg("authenticated to backup platform")

	return &Client{
		http:    http,
		baseURL: s.BaseURL,
		log:     s.Logger,
	}, nil
}

// Query executes one GraphQL request and decodes the data payload into out.
// Application-level errors in the response body surface as *GraphQLError;
// non-2xx responses surface as *APIError. Callers running bounded retry
// loops treat either as a transient event; one-shot callers treat them as
// fatal.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query":     query,
			"variables": variables,
		}).
		SetResult(&env).
		Post("/api/graphql")
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if len(env.Errors) > 0 {
		return &GraphQLError{Entries: env.Errors}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("graphql response carried no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// BaseURL returns the platform root this client is connected to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
