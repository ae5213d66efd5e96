package sui_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"staychain/internal/adapters/sui"
	"staychain/internal/domain"
)

func rpcResult(v any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": 1, "result": v}
}

func coin(id, balance string) map[string]any {
	return map[string]any{"coinObjectId": id, "balance": balance}
}

func TestGetCoins_FollowsPages(t *testing.T) {
	var pages int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Method != "suix_getCoins" {
			t.Errorf("unexpected method %s", body.Method)
		}
		switch atomic.AddInt32(&pages, 1) {
		case 1:
			_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
				"data":        []any{coin("0xc1", "500"), coin("0xc2", "1500")},
				"hasNextPage": true,
				"nextCursor":  "cursor-1",
			}))
		default:
			_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
				"data":        []any{coin("0xc3", "2500")},
				"hasNextPage": false,
			}))
		}
	}))
	defer ts.Close()

	cl, err := sui.New(ts.URL, 100, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	inv, err := cl.GetCoins(ctx, "0xowner", "0x2::sui::SUI")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inv) != 3 {
		t.Fatalf("expected 3 coins across pages, got %d", len(inv))
	}
	if inv.Total() != 4500 {
		t.Fatalf("total: %d", inv.Total())
	}
	if inv[2].ID != "0xc3" || inv[2].Balance != 2500 {
		t.Fatalf("page 2 coin wrong: %+v", inv[2])
	}
}

func TestGetCoins_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
				"data":        []any{coin("0xc1", "42")},
				"hasNextPage": false,
			}))
		}
	}))
	defer ts.Close()

	cl, _ := sui.New(ts.URL, 100, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inv, err := cl.GetCoins(ctx, "0xowner", "0x2::sui::SUI")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inv) != 1 || inv[0].Balance != 42 {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestGetCoins_RPCError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": -32602, "message": "invalid owner"},
		})
	}))
	defer ts.Close()

	cl, _ := sui.New(ts.URL, 100, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetCoins(ctx, "not-an-address", "0x2::sui::SUI")
	if domain.KindOf(err) != domain.InventoryUnavailable {
		t.Fatalf("expected InventoryUnavailable, got %v", err)
	}
}

func TestWaitForSufficientCoin_PollsUntilVisible(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// fragmented until the third poll
		if atomic.AddInt32(&hits, 1) < 3 {
			_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
				"data":        []any{coin("0xc1", "100"), coin("0xc2", "150")},
				"hasNextPage": false,
			}))
			return
		}
		_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
			"data":        []any{coin("0xc2", "250")},
			"hasNextPage": false,
		}))
	}))
	defer ts.Close()

	cl, _ := sui.New(ts.URL, 100, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := cl.WaitForSufficientCoin(ctx, "0xowner", "0x2::sui::SUI", 200)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID != "0xc2" || c.Balance != 250 {
		t.Fatalf("unexpected coin: %+v", c)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 polls, got %d", hits)
	}
}

func TestWaitForSufficientCoin_TimesOut(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rpcResult(map[string]any{
			"data":        []any{coin("0xc1", "100")},
			"hasNextPage": false,
		}))
	}))
	defer ts.Close()

	cl, _ := sui.New(ts.URL, 100, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cl.WaitForSufficientCoin(ctx, "0xowner", "0x2::sui::SUI", 200)
	if domain.KindOf(err) != domain.Timeout {
		t.Fatalf("expected Timeout, got %v", err)
	}
}
