package payu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"payment-links.backend/internal/domain/entities"
	"payment-links.backend/pkg/httpclient"
	"payment-links.backend/pkg/metrics"
)

// Endpoint labels used for metrics.
const (
	EndpointToken        = "token"
	EndpointCreateLink   = "create_link"
	EndpointGetLink      = "get_link"
	EndpointTransactions = "transactions"
)

const dateLayout = "2006-01-02"

// Endpoints are the base URLs of both PayU host families.
type Endpoints struct {
	UATAccountsURL  string
	ProdAccountsURL string
	UATAPIURL       string
	ProdAPIURL      string
}

func (e Endpoints) accounts(env entities.Environment) string {
	if env == entities.EnvironmentProd {
		return strings.TrimRight(e.ProdAccountsURL, "/")
	}
	return strings.TrimRight(e.UATAccountsURL, "/")
}

func (e Endpoints) api(env entities.Environment) string {
	if env == entities.EnvironmentProd {
		return strings.TrimRight(e.ProdAPIURL, "/")
	}
	return strings.TrimRight(e.UATAPIURL, "/")
}

// Auth identifies the caller on OneAPI requests.
type Auth struct {
	AccessToken string
	MerchantID  string
	Environment entities.Environment
}

// Client talks to the PayU accounts and OneAPI hosts.
type Client struct {
	http      httpclient.Client
	endpoints Endpoints
}

// NewClient creates a PayU client on top of an HTTP client.
func NewClient(hc httpclient.Client, endpoints Endpoints) *Client {
	return &Client{http: hc, endpoints: endpoints}
}

type envelope struct {
	Status  json.Number     `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// FetchToken runs the client-credentials grant for scope.
func (c *Client) FetchToken(ctx context.Context, creds entities.Credentials, scope entities.Scope) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("scope", scope.String())

	resp, err := c.send(ctx, EndpointToken, httpclient.NewFormRequest(c.endpoints.accounts(creds.Environment)+"/oauth/token", form))
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return nil, &APIError{
				Kind:       KindToken,
				StatusCode: httpErr.StatusCode,
				Message:    tokenErrorMessage(httpErr.Response),
			}
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Kind: KindToken, StatusCode: resp.StatusCode, Message: tokenErrorMessage(resp.Body)}
	}

	var body tokenResponse
	if err := decodeJSON(resp.Body, &body); err != nil {
		return nil, &APIError{Kind: KindToken, StatusCode: resp.StatusCode, Message: "Token request failed."}
	}
	if body.AccessToken == "" {
		return nil, &APIError{Kind: KindToken, StatusCode: resp.StatusCode, Message: "Access token not received."}
	}

	ttl := DefaultTokenTTL
	if secs, err := strconv.ParseInt(body.ExpiresIn.String(), 10, 64); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	return &Token{AccessToken: body.AccessToken, Scope: body.Scope, ExpiresIn: ttl}, nil
}

// CreatePaymentLink posts a new link.
func (c *Client) CreatePaymentLink(ctx context.Context, auth Auth, req *CreateLinkRequest) (*CreatedLink, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment link request: %w", err)
	}
	env, raw, err := c.callAPI(ctx, EndpointCreateLink, auth, http.MethodPost, c.endpoints.api(auth.Environment)+"/payment-links", payload)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if len(env.Result) > 0 {
		if err := decodeJSON(env.Result, &result); err != nil {
			return nil, &APIError{Kind: KindResult, Message: "Unexpected payment link response."}
		}
	}
	link := &CreatedLink{
		InvoiceNumber: pickString(result, invoiceKeys...),
		URL:           pickString(result, linkURLKeys...),
		Raw:           raw,
	}
	if link.URL == "" {
		return nil, &APIError{Kind: KindResult, Message: firstNonEmpty(env.Message, "Payment link URL not received.")}
	}
	if link.InvoiceNumber == "" {
		link.InvoiceNumber = req.InvoiceNumber
	}
	return link, nil
}

// GetPaymentLink reads one link by invoice number.
func (c *Client) GetPaymentLink(ctx context.Context, auth Auth, invoice string) (*LinkDetails, error) {
	endpoint := c.endpoints.api(auth.Environment) + "/payment-links/" + url.PathEscape(invoice)
	env, raw, err := c.callAPI(ctx, EndpointGetLink, auth, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	details := &LinkDetails{Result: map[string]any{}, Raw: raw}
	if len(env.Result) > 0 {
		if err := decodeJSON(env.Result, &details.Result); err != nil || details.Result == nil {
			details.Result = map[string]any{}
		}
	}
	return details, nil
}

// GetTransactions lists payment attempts on a link between two dates, inclusive.
func (c *Client) GetTransactions(ctx context.Context, auth Auth, invoice string, from, to time.Time) ([]TransactionRecord, error) {
	q := url.Values{}
	q.Set("dateFrom", from.Format(dateLayout))
	q.Set("dateTo", to.Format(dateLayout))
	endpoint := c.endpoints.api(auth.Environment) + "/payment-links/" + url.PathEscape(invoice) + "/txns?" + q.Encode()

	env, _, err := c.callAPI(ctx, EndpointTransactions, auth, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	items, err := transactionItems(env.Result)
	if err != nil {
		return nil, &APIError{Kind: KindResult, Message: "Unexpected transaction details response."}
	}
	records := make([]TransactionRecord, 0, len(items))
	for _, item := range items {
		if m, ok := asObject(item); ok {
			records = append(records, newTransactionRecord(m))
		}
	}
	return records, nil
}

// transactionItems accepts a bare array, or an object holding data or transactions.
func transactionItems(result json.RawMessage) ([]any, error) {
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}
	var decoded any
	if err := decodeJSON(result, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"data", "transactions", "txns"} {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected result type %T", decoded)
}

func (c *Client) callAPI(ctx context.Context, endpoint string, auth Auth, method, rawURL string, body []byte) (*envelope, []byte, error) {
	resp, err := c.send(ctx, endpoint, &httpclient.Request{
		Method: method,
		URL:    rawURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + auth.AccessToken,
			"merchantId":    auth.MerchantID,
		},
		Body: body,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			if httpErr.StatusCode == http.StatusUnauthorized {
				return nil, nil, fmt.Errorf("%w: %s", ErrUnauthorized, endpoint)
			}
			return nil, nil, &APIError{
				Kind:       KindHTTP,
				StatusCode: httpErr.StatusCode,
				Message:    apiErrorMessage(httpErr.Response),
			}
		}
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, nil, &APIError{Kind: KindHTTP, StatusCode: resp.StatusCode, Message: apiErrorMessage(resp.Body)}
	}

	var env envelope
	if err := decodeJSON(resp.Body, &env); err != nil {
		return nil, nil, &APIError{Kind: KindResult, StatusCode: resp.StatusCode, Message: "Unexpected PayU response."}
	}
	if env.Status.String() != "0" {
		return nil, nil, &APIError{Kind: KindResult, StatusCode: resp.StatusCode, Message: firstNonEmpty(env.Message, "Payment link not found or error.")}
	}
	return &env, resp.Body, nil
}

func (c *Client) send(ctx context.Context, endpoint string, req *httpclient.Request) (*httpclient.Response, error) {
	start := time.Now()
	resp, err := c.http.Send(ctx, req)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusUnauthorized {
			outcome = metrics.OutcomeUnauthorized
		}
	}
	metrics.ObserveProviderCall(endpoint, outcome, time.Since(start).Seconds())
	return resp, err
}

func errorFields(body []byte) map[string]any {
	var m map[string]any
	if err := decodeJSON(body, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func tokenErrorMessage(body []byte) string {
	return firstNonEmpty(pickString(errorFields(body), "error_description", "message"), "Token request failed.")
}

func apiErrorMessage(body []byte) string {
	return firstNonEmpty(pickString(errorFields(body), "message", "error_description"), "PayU API error.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
