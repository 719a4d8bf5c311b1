// Package solscan is a client for the Solscan public explorer API.
// All calls require a credential passed in the "token" header and are
// expected to be paced by the caller through a ratelimit.Governor.
package solscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solscan-harvester/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://public-api.solscan.io"
	DefaultTimeout = 30 * time.Second

	// DefaultActivityLimit bounds the recent-transaction lookup per account.
	DefaultActivityLimit = 10
)

// HTTPClient calls the Solscan structured API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a Solscan API client. apiKey must be non-empty.
func NewHTTPClient(apiKey string, opts ...ClientOption) (*HTTPClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &HTTPClient{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get performs one GET against path with query params and decodes the JSON
// body into result. Network errors, 429 and 5xx come back as *TransientError.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &TransientError{Err: &statusError{code: resp.StatusCode, body: "rate limited"}}
	case resp.StatusCode >= 500:
		return &TransientError{Err: &statusError{code: resp.StatusCode, body: string(body)}}
	case resp.StatusCode != http.StatusOK:
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	// Some endpoints report errors with status 200.
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return fmt.Errorf("api error: %s", envelope.Error.Message)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// ValidateKey probes a set of endpoints until one accepts the credential.
// Returns ErrInvalidAPIKey when every probe is denied.
func (c *HTTPClient) ValidateKey(ctx context.Context) error {
	probes := []string{"/transaction/last", "/token/list", "/account/tokens"}

	var lastErr error
	for _, p := range probes {
		err := c.get(ctx, p, nil, nil)
		if err == nil {
			return nil
		}
		// 403 means the endpoint is out of the key's plan scope, which
		// says nothing about the key itself; keep probing.
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrInvalidAPIKey, lastErr)
}

// GetAccount retrieves the profile for one address.
func (c *HTTPClient) GetAccount(ctx context.Context, addr domain.Address) (*domain.AccountProfile, error) {
	var raw accountResponse
	if err := c.get(ctx, "/account/"+addr.String(), nil, &raw); err != nil {
		return nil, err
	}

	return &domain.AccountProfile{
		Lamports:   raw.Lamports,
		OwnerProg:  raw.OwnerProg,
		AccountTyp: raw.Type,
		Executable: raw.Executable,
	}, nil
}

// GetTokenHoldings retrieves the token balances for one address.
// An account holding no tokens yields an empty, non-nil slice.
func (c *HTTPClient) GetTokenHoldings(ctx context.Context, addr domain.Address) ([]domain.TokenHolding, error) {
	params := url.Values{}
	params.Set("account", addr.String())

	var raw []tokenHoldingResponse
	if err := c.get(ctx, "/account/tokens", params, &raw); err != nil {
		return nil, err
	}

	holdings := make([]domain.TokenHolding, 0, len(raw))
	for _, h := range raw {
		holdings = append(holdings, domain.TokenHolding{
			TokenAddress: h.TokenAddress,
			TokenSymbol:  h.TokenSymbol,
			Amount:       h.TokenAmount.UIAmount,
			Decimals:     h.TokenAmount.Decimals,
		})
	}
	return holdings, nil
}

// GetAccountTransactions retrieves up to limit recent transactions for one
// address, most recent first. Zero activity yields an empty, non-nil slice.
func (c *HTTPClient) GetAccountTransactions(ctx context.Context, addr domain.Address, limit int) ([]domain.TransactionSummary, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	params := url.Values{}
	params.Set("account", addr.String())
	params.Set("limit", strconv.Itoa(limit))

	var raw []transactionResponse
	if err := c.get(ctx, "/account/transactions", params, &raw); err != nil {
		return nil, err
	}

	txs := make([]domain.TransactionSummary, 0, len(raw))
	for _, tx := range raw {
		txs = append(txs, domain.TransactionSummary{
			Signature: tx.TxHash,
			Slot:      tx.Slot,
			BlockTime: tx.BlockTime,
			Status:    tx.Status,
			Fee:       tx.Fee,
		})
	}
	return txs, nil
}
