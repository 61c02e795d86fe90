package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"api_pos/internal/sales"

	"resty.dev/v3"
)

// ErrUnauthorized is returned when the server rejects the credentials or
// the session token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries a non-2xx response from the terminal server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Views     []string  `json:"views"`
}

// SalesPage is the body of GET /sales.
type SalesPage struct {
	Results  []sales.SaleView    `json:"results"`
	Metadata sales.SalesMetadata `json:"metadata"`
}

// Client talks to a terminal server over HTTP.
type Client struct {
	http *resty.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// SetToken authenticates later requests with a session token.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Login opens a session and keeps its token for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) Products(ctx context.Context) ([]sales.Product, error) {
	var page struct {
		Results []sales.Product `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// UpsertProduct creates or overwrites the product named name. price and
// quantity are sent as typed so the server does the validation.
func (c *Client) UpsertProduct(ctx context.Context, name, price, quantity string) (*sales.Product, error) {
	var p sales.Product
	err := c.do(ctx, http.MethodPost, "/products", map[string]string{
		"name":     name,
		"price":    price,
		"quantity": quantity,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Restock(ctx context.Context, productID int64, delta string) (*sales.Product, error) {
	var p sales.Product
	path := "/products/" + strconv.FormatInt(productID, 10) + "/stock"
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"delta": delta}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(productID, 10), nil, nil)
}

// Sell records a sale of quantity units of productID.
func (c *Client) Sell(ctx context.Context, productID int64, quantity string) (*sales.Sale, error) {
	var sale sales.Sale
	err := c.do(ctx, http.MethodPost, "/sales", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}, &sale)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Sales lists the history, optionally filtered by product. A zero
// productID lists everything.
func (c *Client) Sales(ctx context.Context, productID int64) (*SalesPage, error) {
	var page SalesPage
	path := "/sales"
	if productID != 0 {
		path += "?product_id=" + strconv.FormatInt(productID, 10)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := resp.String()
	if e, ok := resp.Error().(*errorBody); ok && e.Error != "" {
		msg = e.Error
	}
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: msg}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	}
	return apiErr
}
