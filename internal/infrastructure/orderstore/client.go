package orderstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"payment-links.backend/internal/domain/entities"
	domainerrors "payment-links.backend/internal/domain/errors"
	"payment-links.backend/pkg/httpclient"
)

// PaidStatus is the shop status an order moves to once fully paid.
const PaidStatus = "processing"

// Client is a WooCommerce REST (wc/v3) order store.
type Client struct {
	http    httpclient.Client
	baseURL string
	auth    string
}

// NewClient authenticates with consumer key and secret over basic auth.
func NewClient(hc httpclient.Client, baseURL, key, secret string) *Client {
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/") + "/wp-json/wc/v3",
		auth:    "Basic " + base64.StdEncoding.EncodeToString([]byte(key+":"+secret)),
	}
}

type wcOrder struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	Status   string `json:"status"`
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Billing  struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"billing"`
}

// GetOrder implements repositories.OrderRepository.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*entities.Order, error) {
	resp, err := c.do(ctx, http.MethodGet, c.orderURL(orderID), nil)
	if err != nil {
		return nil, err
	}

	var o wcOrder
	if err := json.Unmarshal(resp.Body, &o); err != nil {
		return nil, fmt.Errorf("failed to decode order %d: %w", orderID, err)
	}
	total, err := decimal.NewFromString(strings.TrimSpace(o.Total))
	if err != nil {
		return nil, fmt.Errorf("order %d has invalid total %q: %w", orderID, o.Total, err)
	}
	number := o.Number
	if number == "" {
		number = strconv.FormatInt(o.ID, 10)
	}
	return &entities.Order{
		ID:       o.ID,
		Number:   number,
		Status:   o.Status,
		Currency: strings.ToUpper(o.Currency),
		Total:    total,
		Billing: entities.OrderBilling{
			FirstName: o.Billing.FirstName,
			LastName:  o.Billing.LastName,
			Email:     o.Billing.Email,
			Phone:     o.Billing.Phone,
		},
	}, nil
}

// AddNote records a private order note.
func (c *Client) AddNote(ctx context.Context, orderID int64, note string) error {
	body, err := json.Marshal(map[string]any{"note": note, "customer_note": false})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.orderURL(orderID)+"/notes", body)
	return err
}

// MarkPaid flags the order paid with the provider payment id.
func (c *Client) MarkPaid(ctx context.Context, orderID int64, transactionID string) error {
	body, err := json.Marshal(map[string]any{
		"status":         PaidStatus,
		"set_paid":       true,
		"transaction_id": transactionID,
	})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, c.orderURL(orderID), body)
	return err
}

func (c *Client) orderURL(orderID int64) string {
	return c.baseURL + "/orders/" + strconv.FormatInt(orderID, 10)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*httpclient.Response, error) {
	resp, err := c.http.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     url,
		Headers: map[string]string{"Authorization": c.auth},
		Body:    body,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			return nil, domainerrors.ErrNotFound
		}
		return nil, fmt.Errorf("order store %s %s: %w", method, url, err)
	}
	return resp, nil
}
