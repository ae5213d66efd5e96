// internal/adapters/sui/client.go
package sui

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
)

// Client talks JSON-RPC to a fullnode. Read-only: the only methods used
// are coin queries.
type Client struct {
	endpoint string
	hc       *http.Client
	rl       *rate.Limiter
	pollEach time.Duration
}

func New(endpoint string, rps int, pollEach time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("RPC endpoint is required")
	}
	if rps <= 0 {
		rps = 10
	}
	if pollEach <= 0 {
		pollEach = 2 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		pollEach: pollEach,
	}, nil
}

// ---- Public API ----

// GetCoins returns the owner's full coin set for coinType, following
// cursor pages until exhausted. Idempotent and side-effect-free.
func (c *Client) GetCoins(ctx context.Context, owner, coinType string) (domain.Inventory, error) {
	var (
		inv    domain.Inventory
		cursor *string
	)
	for {
		var page coinPage
		if err := c.call(ctx, "suix_getCoins", []any{owner, coinType, cursor, nil}, &page); err != nil {
			return nil, domain.Failure(domain.InventoryUnavailable, err)
		}
		for _, cd := range page.Data {
			bal, err := strconv.ParseInt(cd.Balance, 10, 64)
			if err != nil {
				return nil, domain.Failure(domain.InventoryUnavailable,
					fmt.Errorf("bad balance %q for coin %s: %w", cd.Balance, cd.CoinObjectID, err))
			}
			inv = append(inv, domain.Coin{ID: cd.CoinObjectID, Balance: bal})
		}
		if !page.HasNextPage || page.NextCursor == nil {
			return inv, nil
		}
		cursor = page.NextCursor
	}
}

// WaitForSufficientCoin re-queries the inventory until a coin covers
// `required`, or ctx expires. Replaces the flat post-merge sleep with a
// bounded confirmation poll.
func (c *Client) WaitForSufficientCoin(ctx context.Context, owner, coinType string, required int64) (domain.Coin, error) {
	for {
		inv, err := c.GetCoins(ctx, owner, coinType)
		if err == nil {
			if coin, ok := domain.SmallestSufficient(inv, required); ok {
				return coin, nil
			}
		}
		if !sleepCtx(ctx, c.pollEach) {
			return domain.Coin{}, domain.Failure(domain.Timeout, ctx.Err())
		}
	}
}

// ---- Internals ----

type coinPage struct {
	Data []struct {
		CoinObjectID string `json:"coinObjectId"`
		Balance      string `json:"balance"`
	} `json:"data"`
	HasNextPage bool    `json:"hasNextPage"`
	NextCursor  *string `json:"nextCursor"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc %d: %s", e.Code, e.Message) }

// call performs one JSON-RPC request with client-side rate limiting and
// retries on transient transport failures.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			observability.ObserveExternal("rpc", method, 0, time.Since(start))
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("rpc", method, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			var rr rpcResponse
			err := json.NewDecoder(resp.Body).Decode(&rr)
			resp.Body.Close()
			if err != nil {
				return err
			}
			if rr.Error != nil {
				return rr.Error
			}
			return json.Unmarshal(rr.Result, out)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			// transient: honor Retry-After when provided
			wait := retryAfter(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After in its seconds form. Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% crypto/rand jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
