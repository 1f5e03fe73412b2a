package wbapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client talks to the WbAccessControl API. It holds the bearer token from
// the last successful login and re-authenticates once when a request comes
// back 401. Safe for concurrent use.
type Client struct {
	log      *zap.SugaredLogger
	baseURL  string
	username string
	password string
	http     *http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a client for the API at baseURL.
func NewClient(log *zap.SugaredLogger, baseURL, username, password string, timeout time.Duration) *Client {
	return &Client{
		log:      log,
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

// Authenticate logs in and stores the access token for later requests.
// It reports false on any failure; the station keeps running without a
// token and retries lazily.
func (c *Client) Authenticate(ctx context.Context) bool {
	body, err := json.Marshal(authRequest{Username: c.username, Password: c.password})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/Auth/Login", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnw("api login failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warnw("api login rejected", "status", resp.Status)
		return false
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil || auth.AccessToken == "" {
		c.log.Warnw("api login returned no token", "error", err)
		return false
	}

	c.mu.Lock()
	c.token = auth.AccessToken
	c.mu.Unlock()
	return true
}

// GetPersonByID fetches a person record. A missing person is (nil, nil);
// transport and server failures are errors the caller treats as no data.
func (c *Client) GetPersonByID(ctx context.Context, id string) (*Person, error) {
	var p Person
	found, err := c.getJSON(ctx, "/api/TurnstilePerson/Get/"+url.PathEscape(id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// GetLatestMeasurement fetches the most recent stored measurement for a
// person, or (nil, nil) when there is none.
func (c *Client) GetLatestMeasurement(ctx context.Context, personID string) (*Measurement, error) {
	var m Measurement
	found, err := c.getJSON(ctx, "/api/BmiMeasurement/GetLatestByPersonId/"+url.PathEscape(personID), &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// GetHistory fetches up to limit stored measurements for a person, newest
// first. limit <= 0 means the server default.
func (c *Client) GetHistory(ctx context.Context, personID string, limit int) ([]Measurement, error) {
	path := "/api/BmiMeasurement/GetHistoryByPersonId/" + url.PathEscape(personID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var history []Measurement
	if _, err := c.getJSON(ctx, path, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Create stores a new measurement and returns its server-assigned id.
func (c *Client) Create(ctx context.Context, m CreateMeasurement) (int64, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("marshal measurement: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/BmiMeasurement/Create", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("create measurement: %s", responseError(resp))
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("decode create response: %w", err)
	}
	return created.ID, nil
}

// getJSON performs an authenticated GET and decodes the body into dst.
// found is false for 404 and for empty bodies.
func (c *Client) getJSON(ctx context.Context, path string, dst any) (found bool, err error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("GET %s: %s", path, responseError(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// do sends one request with the current bearer token. On 401 it
// re-authenticates once and retries the request.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if !c.Authenticate(ctx) {
		return nil, fmt.Errorf("%s %s: unauthorized and re-login failed", method, path)
	}
	return c.send(ctx, method, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

func responseError(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(b))
	if msg != "" {
		return resp.Status + ": " + msg
	}
	return resp.Status
}
