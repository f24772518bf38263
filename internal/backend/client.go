package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/internal/pos"
)

// APIError is a structured backend rejection. Message carries the
// backend's human-readable reason and is surfaced to the operator
// verbatim when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
}

// IsConflict reports whether err is a backend conflict rejection, e.g. a
// register opened concurrently from another terminal.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// Message extracts the backend's reason from err, or "" when the failure
// carried none.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client talks to the backing sales API over HTTP JSON. All persistence
// of record (sales, held tickets, register sessions, pending work,
// receipt config) lives behind it.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decoding response: %w", decodeErr)
	}

	if resp.StatusCode >= 400 || !env.Success {
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadRequest
		}
		return &APIError{StatusCode: status, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}

// --- Sales ---

type submitSaleRequest struct {
	Lines       []pos.SaleLine  `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	PaymentType string          `json:"payment_type"`
	OrderType   string          `json:"order_type"`
}

type submitSaleResponse struct {
	OrderNumber string `json:"order_number"`
}

func (c *Client) SubmitSale(ctx context.Context, locationID string, lines []pos.SaleLine, total decimal.Decimal, paymentType, orderType string) (string, error) {
	var out submitSaleResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/locations/"+url.PathEscape(locationID)+"/sales", submitSaleRequest{
		Lines:       lines,
		Total:       total,
		PaymentType: paymentType,
		OrderType:   orderType,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.OrderNumber, nil
}

func (c *Client) GetSale(ctx context.Context, locationID, orderNumber string) (pos.Sale, error) {
	var out pos.Sale
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/sales/"+url.PathEscape(orderNumber), nil, &out)
	return out, err
}

// --- Held tickets ---

type saveHeldTicketRequest struct {
	Name  string          `json:"name"`
	Lines []pos.SaleLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (c *Client) SaveHeldTicket(ctx context.Context, locationID, name string, lines []pos.SaleLine, total decimal.Decimal) error {
	return c.do(ctx, http.MethodPost, "/api/v1/locations/"+url.PathEscape(locationID)+"/held-tickets", saveHeldTicketRequest{
		Name:  name,
		Lines: lines,
		Total: total,
	}, nil)
}

func (c *Client) ListHeldTickets(ctx context.Context, locationID string) ([]pos.HeldTicket, error) {
	var out []pos.HeldTicket
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/held-tickets", nil, &out)
	return out, err
}

func (c *Client) DiscardHeldTicket(ctx context.Context, locationID, ticketID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/locations/"+url.PathEscape(locationID)+"/held-tickets/"+url.PathEscape(ticketID), nil, nil)
}

// --- Register sessions ---

type openRegisterRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type closeRegisterRequest struct {
	OperatorName string `json:"operator_name"`
}

type closeRegisterResponse struct {
	Summary pos.RegisterSession `json:"summary"`
}

func (c *Client) OpenRegister(ctx context.Context, locationID string, openingFloat decimal.Decimal) error {
	return c.do(ctx, http.MethodPost, "/api/v1/locations/"+url.PathEscape(locationID)+"/register/open", openRegisterRequest{OpeningFloat: openingFloat}, nil)
}

func (c *Client) CloseRegister(ctx context.Context, locationID, operatorName string) (pos.RegisterSession, error) {
	var out closeRegisterResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/locations/"+url.PathEscape(locationID)+"/register/close", closeRegisterRequest{OperatorName: operatorName}, &out)
	return out.Summary, err
}

func (c *Client) ListRegisterHistory(ctx context.Context, locationID string) ([]pos.RegisterSession, error) {
	var out []pos.RegisterSession
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/register/history", nil, &out)
	return out, err
}

// --- Pending work (polled) ---

func (c *Client) ListPendingWebOrders(ctx context.Context, locationID string) ([]pos.WebOrder, error) {
	var out []pos.WebOrder
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/web-orders/pending", nil, &out)
	return out, err
}

func (c *Client) ListPendingTableCharges(ctx context.Context, locationID string) ([]pos.TableCharge, error) {
	var out []pos.TableCharge
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/table-charges/pending", nil, &out)
	return out, err
}

// --- Receipt config ---

func (c *Client) GetReceiptConfig(ctx context.Context, locationID string) (pos.ReceiptConfig, error) {
	var out pos.ReceiptConfig
	err := c.do(ctx, http.MethodGet, "/api/v1/locations/"+url.PathEscape(locationID)+"/receipt-config", nil, &out)
	if err != nil {
		return pos.ReceiptConfig{}, err
	}
	return out.WithDefaults(), nil
}
