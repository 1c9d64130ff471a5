// Package randomuser is a client for the public random-user API used as the
// identity source of a login.
package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/phonegate/portal/internal/model"
)

// DefaultBaseURL is the public random-user API.
const DefaultBaseURL = "https://randomuser.me"

// ErrUnavailable wraps every failure that is not an HTTP status error.
var ErrUnavailable = errors.New("randomuser: unavailable")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("randomuser: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("randomuser: request failed (%d): %s", e.Status, e.Message)
}

// Record is the subset of a random-user result the application reads.
type Record struct {
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

// ToUser maps the record onto a User.
func (r Record) ToUser() model.User {
	return model.User{
		ID:     r.Login.UUID,
		Name:   strings.TrimSpace(r.Name.First + " " + r.Name.Last),
		Email:  r.Email,
		Avatar: r.Picture.Thumbnail,
	}
}

type response struct {
	Results []Record `json:"results"`
}

// Client fetches random users.
type Client struct {
	baseURL     string
	nationality string
	httpClient  *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithNationality overrides the requested nationality (default "us").
func WithNationality(nat string) Option {
	return func(c *Client) {
		if nat = strings.TrimSpace(nat); nat != "" {
			c.nationality = nat
		}
	}
}

// New constructs a Client for base. An empty base means DefaultBaseURL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid random user base url: %w", err)
	}
	// No Timeout: the caller's context bounds the request.
	cli := &Client{
		baseURL:     strings.TrimRight(trimmed, "/"),
		nationality: "us",
		httpClient:  &http.Client{},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// FetchOne requests a single uncached random user.
func (c *Client) FetchOne(ctx context.Context) (Record, error) {
	q := url.Values{}
	q.Set("results", "1")
	q.Set("nat", c.nationality)
	endpoint := c.baseURL + "/api/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Record{}, fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("%w: perform request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, &StatusError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Record{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(payload.Results) == 0 {
		return Record{}, fmt.Errorf("%w: empty results", ErrUnavailable)
	}
	return payload.Results[0], nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}
