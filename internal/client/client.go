// Package client is a small HTTP client for the Thingful API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/thingful/thingful/internal/models"
)

const (
	apiUsers   = "/api/users"
	apiThings  = "/api/things"
	apiReviews = "/api/reviews"

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

// BearerToken builds the Authorization header value for a credential pair.
func BearerToken(userName, password string) string {
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(userName+":"+password))
}

// Client talks to a Thingful server. Protected calls send the configured
// credentials as a bearer token.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	UserName string
	Password string
}

// New returns a Client for baseURL using a default http.Client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewHTTPClient returns an http.Client that trusts only the PEM CA bundle
// at caPath. An empty caPath uses the system roots.
func NewHTTPClient(caPath string) (*http.Client, error) {
	if caPath == "" {
		return &http.Client{Timeout: defaultTimeout}, nil
	}
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	return &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
		},
	}, nil
}

// RegisterRequest is the payload of POST /api/users.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.UserView, error) {
	var user models.UserView
	if err := c.do(ctx, http.MethodPost, apiUsers, false, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListThings returns every thing. No credentials are required.
func (c *Client) ListThings(ctx context.Context) ([]models.ThingView, error) {
	var things []models.ThingView
	if err := c.do(ctx, http.MethodGet, apiThings, false, nil, &things); err != nil {
		return nil, err
	}
	return things, nil
}

// GetThing returns a single thing.
func (c *Client) GetThing(ctx context.Context, id int64) (*models.ThingView, error) {
	var thing models.ThingView
	if err := c.do(ctx, http.MethodGet, apiThings+"/"+strconv.FormatInt(id, 10), true, nil, &thing); err != nil {
		return nil, err
	}
	return &thing, nil
}

// ListReviews returns the reviews of a thing.
func (c *Client) ListReviews(ctx context.Context, thingID int64) ([]models.ReviewView, error) {
	var reviews []models.ReviewView
	path := apiThings + "/" + strconv.FormatInt(thingID, 10) + "/reviews"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview posts a review as the configured user.
func (c *Client) CreateReview(ctx context.Context, thingID int64, rating int, text string) (*models.ReviewView, error) {
	payload := map[string]any{"thing_id": thingID, "rating": rating, "text": text}
	var review models.ReviewView
	if err := c.do(ctx, http.MethodPost, apiReviews, true, payload, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", BearerToken(c.UserName, c.Password))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
