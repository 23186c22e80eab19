package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	PurchasePath = "/purchase/api/v1/tickets"
	QueryPath    = "/query/api/v1/tickets/"
)

// TicketClient handles HTTP requests to the purchase and query services
type TicketClient struct {
	purchaseHost string
	queryHost    string
	httpClient   *http.Client
}

// Options configures a TicketClient
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	// MaxConnsPerHost bounds connections per service; 0 means unlimited
	MaxConnsPerHost int
}

// NewTicketClient creates a client for the given service base URLs
func NewTicketClient(purchaseHost, queryHost string, opts Options) *TicketClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 256
	transport.MaxConnsPerHost = opts.MaxConnsPerHost
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TicketClient{
		purchaseHost: purchaseHost,
		queryHost:    queryHost,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// NewTicketClientWithHTTPClient creates a client around an existing http.Client
func NewTicketClientWithHTTPClient(purchaseHost, queryHost string, httpClient *http.Client) *TicketClient {
	return &TicketClient{
		purchaseHost: purchaseHost,
		queryHost:    queryHost,
		httpClient:   httpClient,
	}
}

// Purchase posts a purchase request. A non-nil error means no response was
// received; the returned result still carries the latency.
func (c *TicketClient) Purchase(ctx context.Context, purchase PurchaseRequest) (*PurchaseResult, error) {
	body, err := json.Marshal(purchase)
	if err != nil {
		return nil, fmt.Errorf("error encoding purchase request: %w", err)
	}

	res, err := c.do(ctx, http.MethodPost, c.purchaseHost+PurchasePath, body)
	out := &PurchaseResult{Result: *res}
	if err != nil {
		return out, err
	}

	// An unparseable 201 body leaves Ticket nil; the purchase itself succeeded
	if res.StatusCode == http.StatusCreated {
		var ticket TicketResponse
		if err := json.Unmarshal(res.Body, &ticket); err == nil {
			out.Ticket = &ticket
		}
	}
	return out, nil
}

// GetTicket reads a ticket back from the query service
func (c *TicketClient) GetTicket(ctx context.Context, ticketID string) (*Result, error) {
	return c.do(ctx, http.MethodGet, c.queryHost+QueryPath+url.PathEscape(ticketID), nil)
}

func (c *TicketClient) do(ctx context.Context, method, target string, body []byte) (*Result, error) {
	requestID := uuid.NewString()
	res := &Result{
		Method:    method,
		URL:       target,
		BytesOut:  len(body),
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return res, fmt.Errorf("error creating http request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Latency = time.Since(res.Timestamp)
		return res, fmt.Errorf("error making http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	res.Latency = time.Since(res.Timestamp)
	res.StatusCode = resp.StatusCode
	res.Body = respBody
	res.BytesIn = len(respBody)
	if err != nil {
		return res, fmt.Errorf("error reading response body: %w", err)
	}

	return res, nil
}
