package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"onusone/config"
	"onusone/models"
)

// ErrLedgerNotConfigured is returned when a burn is requested without a
// ledger endpoint and treasury reference in the config.
var ErrLedgerNotConfigured = errors.New("ledger endpoint or treasury not configured")

// LedgerExecutor abstracts the external ledger the engine delegates burn
// execution to. The engine never moves tokens itself.
type LedgerExecutor interface {
	BurnTokens(ctx context.Context, amount int64) (*models.BurnResult, error)
	Version(ctx context.Context) (string, error)
}

// LedgerClient talks JSON-RPC 2.0 to a ledger execution node.
type LedgerClient struct {
	endpoint   string
	treasury   string
	maxRetries int
	httpClient *http.Client
	requestID  int64
}

func NewLedgerClient(cfg *config.Config) *LedgerClient {
	return &LedgerClient{
		endpoint:   cfg.Ledger.Endpoint,
		treasury:   cfg.Ledger.Treasury,
		maxRetries: cfg.Ledger.MaxRetries,
		httpClient: &http.Client{
			Timeout: cfg.LedgerTimeoutDuration(),
		},
	}
}

// Configured reports whether the client can execute burns.
func (lc *LedgerClient) Configured() bool {
	return lc.endpoint != "" && lc.treasury != ""
}

// BurnTokens asks the ledger node to burn amount base units from the
// treasury-held stake pool. A nil error with Success=false means the ledger
// answered but refused the burn.
func (lc *LedgerClient) BurnTokens(ctx context.Context, amount int64) (*models.BurnResult, error) {
	if !lc.Configured() {
		return nil, ErrLedgerNotConfigured
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid burn amount: %d", amount)
	}

	params := map[string]interface{}{
		"amount":   amount,
		"treasury": lc.treasury,
	}

	resp, err := lc.call(ctx, "burn-tokens", params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return &models.BurnResult{
			Success: false,
			Error:   fmt.Sprintf("ledger error %d: %s", resp.Error.Code, resp.Error.Message),
		}, nil
	}

	var result models.BurnResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode burn result: %w", err)
	}
	return &result, nil
}

// Version returns the ledger node's API version string.
func (lc *LedgerClient) Version(ctx context.Context) (string, error) {
	if lc.endpoint == "" {
		return "", ErrLedgerNotConfigured
	}

	resp, err := lc.call(ctx, "get-version", nil)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("ledger error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var version models.LedgerVersionResponse
	if err := json.Unmarshal(resp.Result, &version); err != nil {
		return "", fmt.Errorf("failed to decode version response: %w", err)
	}
	return version.Version, nil
}

// call performs a JSON-RPC request with retries on transport errors.
func (lc *LedgerClient) call(ctx context.Context, method string, params interface{}) (*models.RPCResponse, error) {
	request := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      int(atomic.AddInt64(&lc.requestID, 1)),
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	attempts := lc.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			log.Printf("Ledger %s retry %d/%d after error: %v", method, attempt, attempts, lastErr)
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, lc.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := lc.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if httpResp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ledger returned status %d", httpResp.StatusCode)
			continue
		}

		var rpcResp models.RPCResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("failed to decode response: %w", err)
			continue
		}
		return &rpcResp, nil
	}

	return nil, fmt.Errorf("ledger %s failed after %d attempts: %w", method, attempts, lastErr)
}
