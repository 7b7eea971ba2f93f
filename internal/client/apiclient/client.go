// Package apiclient wraps the shopping-list HTTP API for the terminal
// client: one method per endpoint, session cookie handling, offline
// fail-fast, and translation of error responses into the categories
// the UI shows.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"github.com/mzurek/zakupy/internal/models"
)

// Client talks to the backend. The cookie jar carries the session
// cookie between calls; the online flag gates every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	online     atomic.Bool
}

// New creates a Client for the given base URL (scheme + host, no
// trailing slash). The client starts out assuming the network is up.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}
	c.online.Store(true)
	return c, nil
}

// Online reports the last known network state.
func (c *Client) Online() bool {
	return c.online.Load()
}

// Ping probes /health and updates the online flag. It ignores the
// offline gate so the client can detect recovery.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.online.Store(false)
		return ErrOffline
	}
	defer resp.Body.Close()
	c.online.Store(true)
	return nil
}

// do issues one request and decodes a successful response into out
// (when out is non-nil). Transport failures flip the online flag and
// come back as ErrOffline; non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if !c.online.Load() {
		return ErrOffline
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.online.Store(false)
		return ErrOffline
	}
	defer resp.Body.Close()
	c.online.Store(true)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Register creates an account; on success the server auto-starts a
// session and the cookie lands in the jar.
func (c *Client) Register(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/api/register",
		models.RegisterRequest{Username: username, Password: password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/login",
		models.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Me revalidates the session; the startup path uses it to decide
// whether the cached identity is still good.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddItem(ctx context.Context, req models.AddItemRequest) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) error {
	return c.do(ctx, http.MethodPut, "/api/items?id="+id, patch, nil)
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/items?id="+id, nil, nil)
}

func (c *Client) RemoveChecked(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/items?action=remove_checked", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) ClearList(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/items?action=clear", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) ReplaceList(ctx context.Context, items []models.AddItemRequest) error {
	return c.do(ctx, http.MethodPut, "/api/items?action=replace",
		models.ReplaceRequest{Items: items}, nil)
}
