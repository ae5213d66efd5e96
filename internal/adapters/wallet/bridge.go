// internal/adapters/wallet/bridge.go
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"staychain/internal/adapters/observability"
	"staychain/internal/domain"
	"staychain/internal/txn"
)

// Bridge submits transaction descriptions to the wallet service that holds
// the guest's session and keys. One POST per transaction; the call
// suspends until the wallet reports signed-and-executed or an error. The
// wallet side is atomic: a non-2xx answer means nothing landed on chain.
type Bridge struct {
	base string
	hc   *http.Client
	key  string
}

func NewBridge(base, key string, timeout time.Duration) (*Bridge, error) {
	if base == "" {
		return nil, fmt.Errorf("wallet bridge URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Bridge{
		base: base,
		hc:   &http.Client{Timeout: timeout},
		key:  key,
	}, nil
}

type executeResponse struct {
	Digest      string `json:"digest"`
	Status      string `json:"status"` // success|failure|rejected
	TimestampMs int64  `json:"timestampMs"`
	Error       string `json:"error,omitempty"`
}

// SignAndExecute implements txn.Submitter. User rejection, execution
// revert, and transport failure all come back as errors; the caller maps
// them to the settlement taxonomy.
func (b *Bridge) SignAndExecute(ctx context.Context, tx *txn.Transaction) (domain.Receipt, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return domain.Receipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+"/v1/transactions/execute", bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.key != "" {
		req.Header.Set("X-API-Key", b.key)
	}

	start := time.Now()
	resp, err := b.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("wallet", "execute", 0, time.Since(start))
		if ctx.Err() != nil {
			return domain.Receipt{}, ctx.Err()
		}
		return domain.Receipt{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("wallet", "execute", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Receipt{}, fmt.Errorf("wallet refused transaction (%d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Receipt{}, err
	}
	if out.Status != "success" {
		if out.Error != "" {
			return domain.Receipt{}, fmt.Errorf("execution %s: %s", out.Status, out.Error)
		}
		return domain.Receipt{}, fmt.Errorf("execution %s", out.Status)
	}
	return domain.Receipt{
		Digest:    out.Digest,
		Status:    out.Status,
		Timestamp: time.UnixMilli(out.TimestampMs).UTC(),
	}, nil
}
