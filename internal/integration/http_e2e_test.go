//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "staychain/internal/adapters/http_server"
	"staychain/internal/adapters/wallet"
	"staychain/internal/app"
	"staychain/internal/domain"
	mysqlrepo "staychain/internal/storage/mysql"
)

const attemptsSchema = `
CREATE TABLE IF NOT EXISTS settlement_attempts (
  id            CHAR(36)     NOT NULL PRIMARY KEY,
  guest_address VARCHAR(66)  NOT NULL,
  hotel_id      VARCHAR(66)  NOT NULL,
  room_id       VARCHAR(66)  NOT NULL,
  amount_base   BIGINT       NOT NULL,
  plan_kind     VARCHAR(16)  NOT NULL,
  outcome       VARCHAR(16)  NOT NULL,
  failure_kind  VARCHAR(32)  NOT NULL DEFAULT '',
  tx_digest     VARCHAR(64)  NOT NULL DEFAULT '',
  created_at    TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  KEY idx_guest_created (guest_address, created_at)
)`

// ---- in-process ledger stub ----

type stubLedger struct{ inv domain.Inventory }

func (s *stubLedger) GetCoins(ctx context.Context, owner, coinType string) (domain.Inventory, error) {
	return s.inv, nil
}

func (s *stubLedger) WaitForSufficientCoin(ctx context.Context, owner, coinType string, required int64) (domain.Coin, error) {
	if c, ok := domain.SmallestSufficient(s.inv, required); ok {
		return c, nil
	}
	return domain.Coin{}, domain.Failure(domain.Timeout, ctx.Err())
}

// ---- the test ----

func TestHTTP_EndToEnd_Booking(t *testing.T) {
	// Isolated MySQL for the journal
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=staychain",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/staychain?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(attemptsSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	// Wallet bridge stub: signs everything successfully.
	walletSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"digest":      "0xe2edigest",
			"status":      "success",
			"timestampMs": time.Now().UnixMilli(),
		})
	}))
	defer walletSrv.Close()

	bridge, err := wallet.NewBridge(walletSrv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}

	ledger := &stubLedger{inv: domain.Inventory{{ID: "0xc1", Balance: 5_000_000_000}}}
	journal := mysqlrepo.New(db)

	svc, err := app.NewSettlementService(ledger, bridge, nil, journal, app.SettlementConfig{
		PackageID: "0xabc123",
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	srv := server.New()
	srv.MountHandlers(&server.Handlers{S: svc})
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	// Book
	body, _ := json.Marshal(map[string]any{
		"hotelId":       "0xhotel",
		"roomId":        "0xroom",
		"guestAddress":  "0xguest",
		"arrivalDate":   "2026-09-01",
		"departureDate": "2026-09-03",
		"totalCost":     2.0,
	})
	resp, err := http.Post(api.URL+"/v1/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post booking: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("booking status: %d", resp.StatusCode)
	}
	var booked struct {
		Digest string `json:"digest"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&booked); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	if booked.Digest != "0xe2edigest" || booked.Status != "success" {
		t.Fatalf("unexpected booking response: %+v", booked)
	}

	// Journal row persisted
	resp2, err := http.Get(api.URL + "/v1/addresses/0xguest/attempts")
	if err != nil {
		t.Fatalf("get attempts: %v", err)
	}
	defer resp2.Body.Close()
	var attempts struct {
		Items []domain.Attempt `json:"items"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&attempts); err != nil {
		t.Fatalf("decode attempts: %v", err)
	}
	if len(attempts.Items) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts.Items))
	}
	a := attempts.Items[0]
	if a.Outcome != "success" || a.TxDigest != "0xe2edigest" || a.PlanKind != "direct" {
		t.Fatalf("unexpected attempt: %+v", a)
	}

	// Balance query reads the ledger directly
	resp3, err := http.Get(api.URL + "/v1/addresses/0xguest/balance")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	defer resp3.Body.Close()
	var bal struct {
		BaseUnits int64   `json:"baseUnits"`
		Balance   float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp3.Body).Decode(&bal); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if bal.BaseUnits != 5_000_000_000 || bal.Balance != 5.0 {
		t.Fatalf("unexpected balance: %+v", bal)
	}
}

func TestHTTP_EndToEnd_InsufficientBalance(t *testing.T) {
	walletSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("wallet must not be reached when funds are short")
	}))
	defer walletSrv.Close()

	bridge, err := wallet.NewBridge(walletSrv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}

	ledger := &stubLedger{inv: domain.Inventory{{ID: "0xc1", Balance: 1_000}}}
	svc, err := app.NewSettlementService(ledger, bridge, nil, nil, app.SettlementConfig{
		PackageID: "0xabc123",
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	srv := server.New()
	srv.MountHandlers(&server.Handlers{S: svc})
	api := httptest.NewServer(srv.Mux())
	defer api.Close()

	body, _ := json.Marshal(map[string]any{
		"hotelId":       "0xhotel",
		"roomId":        "0xroom",
		"guestAddress":  "0xguest",
		"arrivalDate":   "2026-09-01",
		"departureDate": "2026-09-03",
		"totalCost":     2.0,
	})
	resp, err := http.Post(api.URL+"/v1/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post booking: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", resp.StatusCode)
	}
	var prob struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&prob); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if prob.Kind != string(domain.InsufficientBalance) {
		t.Fatalf("expected insufficient_balance kind, got %q", prob.Kind)
	}
}
