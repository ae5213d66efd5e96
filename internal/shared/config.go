package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// Ledger
	RPCURL    string
	PackageID string
	CoinType  string
	GasBuffer int64 // base units reserved for fees; negative disables the reserve
	RPCRate   int   // client-side requests per second

	// Wallet bridge
	WalletURL string
	WalletKey string

	// Booking backend
	BackendURL string

	// Storage
	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	// Suspension-point bounds
	QueryTimeout  time.Duration
	MergeWait     time.Duration
	SubmitTimeout time.Duration

	// Sweeper
	SweepWorkers   int
	SweepDustBelow int64
	SweepAddresses []string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atoi64 := func(k string, def int64) int64 {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		RPCURL:    env("RPC_URL", "https://fullnode.testnet.sui.io:443"),
		PackageID: env("PACKAGE_ID", ""),
		CoinType:  env("COIN_TYPE", "0x2::sui::SUI"),
		GasBuffer: atoi64("GAS_BUFFER_BASE_UNITS", 100_000_000),
		RPCRate:   atoi("RPC_RATE_LIMIT", 10),

		WalletURL: env("WALLET_BRIDGE_URL", "http://localhost:7070"),
		WalletKey: env("WALLET_BRIDGE_KEY", ""),

		BackendURL: env("BACKEND_BASE_URL", "http://localhost:4000/api"),

		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/staychain?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		QueryTimeout:  time.Duration(atoi("QUERY_TIMEOUT_SECONDS", 15)) * time.Second,
		MergeWait:     time.Duration(atoi("MERGE_WAIT_SECONDS", 30)) * time.Second,
		SubmitTimeout: time.Duration(atoi("SUBMIT_TIMEOUT_SECONDS", 60)) * time.Second,

		SweepWorkers:   atoi("SWEEP_WORKERS", 4),
		SweepDustBelow: atoi64("SWEEP_DUST_BELOW", 100_000_000),
		SweepAddresses: split(env("SWEEP_ADDRESSES", "")),
	}
	// A deployed package is an environment prerequisite, not a per-call
	// concern: callers fail fast at startup.
	if c.PackageID == "" {
		log.Warn().Msg("PACKAGE_ID is empty; settlement service will refuse to start")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
