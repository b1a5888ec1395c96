package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

var (
	// ErrAccountNotFound means the queried account does not exist on the
	// ledger (distinct from the ledger being unreachable).
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrUnavailable wraps transport-level failures after retries are
	// exhausted.
	ErrUnavailable = errors.New("ledger: rpc unavailable")
)

// KeyedAccount pairs an account address with its raw data.
type KeyedAccount struct {
	Pubkey Address
	Data   []byte
}

// Client is a JSON-RPC client for the external ledger node. Reads are
// retried with exponential backoff up to maxTries; every call is bounded
// by the per-attempt timeout of the underlying HTTP client plus the
// caller's context.
type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
	maxTries uint
}

// NewClient builds a client for the given RPC endpoint.
func NewClient(endpoint string, timeout time.Duration, maxTries uint, log *zap.Logger) *Client {
	if maxTries == 0 {
		maxTries = 1
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
		maxTries: maxTries,
	}
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("ledger: rpc error %d: %s", e.Code, e.Message)
}

// call runs one JSON-RPC method, retrying transport failures. An error
// object returned by the node is not retried: the node answered, the
// request itself is bad.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	attempt := func() (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		var rr rpcResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			return nil, err
		}
		if rr.Error != nil {
			return nil, backoff.Permanent(rr.Error)
		}
		return rr.Result, nil
	}

	result, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		var perm *rpcError
		if errors.As(err, &perm) {
			return perm
		}
		c.log.Warn("rpc_call_failed", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, method, err)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(result, out)
}

type accountInfoValue struct {
	Data []string `json:"data"`
}

// GetAccountInfo fetches the raw data of one account. Returns
// ErrAccountNotFound when the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, addr Address) ([]byte, error) {
	var result struct {
		Value *accountInfoValue `json:"value"`
	}
	params := []any{addr.String(), map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return decodeAccountData(result.Value.Data)
}

// GetLatestBlockhash fetches a fresh anchor reference for transaction
// composition.
func (c *Client) GetLatestBlockhash(ctx context.Context) (Hash, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return Hash{}, err
	}
	return ParseHash(result.Value.Blockhash)
}

// GetMinimumBalanceForRentExemption returns the lamport floor an account
// with dataLen bytes must hold to be rent exempt.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	var result uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []any{dataLen}, &result); err != nil {
		return 0, err
	}
	return result, nil
}

// GetProgramAccounts lists every account owned by program.
func (c *Client) GetProgramAccounts(ctx context.Context, program Address) ([]KeyedAccount, error) {
	var result []struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data []string `json:"data"`
		} `json:"account"`
	}
	params := []any{program.String(), map[string]string{"encoding": "base64"}}
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}
	accounts := make([]KeyedAccount, 0, len(result))
	for _, entry := range result {
		addr, err := ParseAddress(entry.Pubkey)
		if err != nil {
			return nil, err
		}
		data, err := decodeAccountData(entry.Account.Data)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, KeyedAccount{Pubkey: addr, Data: data})
	}
	return accounts, nil
}

func decodeAccountData(field []string) ([]byte, error) {
	if len(field) == 0 {
		return nil, errors.New("ledger: account data missing from rpc response")
	}
	return base64.StdEncoding.DecodeString(field[0])
}
