// Package backend is the REST client for the order and auth API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client talks to the REST API under baseURL (for example
// http://localhost:8080/api). Every non-2xx answer is a *domain.TransportError.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a client. A nil httpClient gets a default with a 10s timeout.
func NewClient(baseURL, token string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string { return c.token }

type authRequest struct {
	Name     string      `json:"name,omitempty"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
	Phone    string      `json:"phone,omitempty"`
	Address  string      `json:"address,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	var out authResponse
	body := authRequest{Email: email, Password: password, Role: role}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return out.User, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) VendorOrders(ctx context.Context, vendorID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/vendor/"+url.PathEscape(vendorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PartnerOrders(ctx context.Context, partnerID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/delivery/"+url.PathEscape(partnerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type assignRequest struct {
	DeliveryPartnerID string `json:"delivery_partner_id"`
}

func (c *Client) AssignPartner(ctx context.Context, orderID, partnerID string) (*domain.Order, error) {
	var o domain.Order
	path := "/orders/" + url.PathEscape(orderID) + "/assign"
	if err := c.do(ctx, http.MethodPost, path, assignRequest{DeliveryPartnerID: partnerID}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (c *Client) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var o domain.Order
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.do(ctx, http.MethodPut, path, statusRequest{Status: status}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) AvailablePartners(ctx context.Context) ([]domain.DeliveryPartner, error) {
	var out []domain.DeliveryPartner
	if err := c.do(ctx, http.MethodGet, "/delivery-partners/available", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LastLocation returns the last recorded location of a delivery.
func (c *Client) LastLocation(ctx context.Context, deliveryID string) (*domain.LastLocation, error) {
	var l domain.LastLocation
	path := "/deliveries/" + url.PathEscape(deliveryID) + "/location"
	if err := c.do(ctx, http.MethodGet, path, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		c.log.Debug().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("error", e.Error).
			Msg("backend request failed")

		terr := &domain.TransportError{Op: op, Status: resp.StatusCode}
		if e.Error != "" {
			terr.Err = errors.New(e.Error)
		}
		return terr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
