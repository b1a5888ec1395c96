package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
)

// Ledger configures the external ledger collaborator: the RPC endpoint
// and the fixed on-chain addresses. The addresses are deployment
// constants, immutable once loaded.
type Ledger struct {
	RPCEndpoint string
	ProgramID   ledger.Address
	Authority   ledger.Address
	// ExToken is the default counter-asset mint; the wrapped native mint
	// unless overridden.
	ExToken ledger.Address
	// TokenDecimals converts between display units and base units.
	TokenDecimals int32
	// RPCTimeout bounds each outbound read attempt.
	RPCTimeout time.Duration
	// RPCMaxTries bounds the retry loop around transient read failures.
	RPCMaxTries uint
}

// Server configures the HTTP surface.
type Server struct {
	ListenAddr string
	// IconURL is the image shown by action discovery clients.
	IconURL string
	// AuditLogPath enables the pebble audit trail when non-empty.
	AuditLogPath string
	// RequestTimeout bounds one whole request, external reads included.
	RequestTimeout time.Duration
}

type Config struct {
	Ledger Ledger
	Server Server
}

// Default returns the devnet configuration.
func Default() Config {
	return Config{
		Ledger: Ledger{
			RPCEndpoint:   "https://api.devnet.solana.com",
			ProgramID:     ledger.MustAddress("8EMNysnqHuY88H291esnAcEvwjdNXV5N9XZ3FoD7ffFe"),
			Authority:     ledger.MustAddress("EGN5Sfq1CGsysUY4qhSDyQvgPCBRepqXi8AvChiyeNir"),
			ExToken:       ledger.NativeMint,
			TokenDecimals: 9,
			RPCTimeout:    5 * time.Second,
			RPCMaxTries:   3,
		},
		Server: Server{
			ListenAddr:     ":8080",
			IconURL:        "https://otc.example.org/otc.jpg",
			AuditLogPath:   "data/audit",
			RequestTimeout: 15 * time.Second,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and the
// environment. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if rpc := os.Getenv("SOLANA_RPC"); rpc != "" {
		cfg.Ledger.RPCEndpoint = rpc
	}
	var err error
	if cfg.Ledger.ProgramID, err = envAddress("OTC_PROGRAM_ID", cfg.Ledger.ProgramID); err != nil {
		return cfg, err
	}
	if cfg.Ledger.Authority, err = envAddress("OTC_AUTHORITY", cfg.Ledger.Authority); err != nil {
		return cfg, err
	}
	if cfg.Ledger.ExToken, err = envAddress("OTC_EX_TOKEN", cfg.Ledger.ExToken); err != nil {
		return cfg, err
	}
	if dec := os.Getenv("OTC_TOKEN_DECIMALS"); dec != "" {
		n, err := strconv.ParseInt(dec, 10, 32)
		if err != nil || n < 0 || n > 38 {
			return cfg, fmt.Errorf("params: invalid OTC_TOKEN_DECIMALS %q", dec)
		}
		cfg.Ledger.TokenDecimals = int32(n)
	}
	if ms := os.Getenv("RPC_TIMEOUT_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil {
			cfg.Ledger.RPCTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if tries := os.Getenv("RPC_MAX_TRIES"); tries != "" {
		if n, err := strconv.Atoi(tries); err == nil && n > 0 {
			cfg.Ledger.RPCMaxTries = uint(n)
		}
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if icon := os.Getenv("ICON_URL"); icon != "" {
		cfg.Server.IconURL = icon
	}
	if path, ok := os.LookupEnv("AUDIT_LOG_PATH"); ok {
		cfg.Server.AuditLogPath = path // empty disables the audit trail
	}
	if ms := os.Getenv("REQUEST_TIMEOUT_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil {
			cfg.Server.RequestTimeout = time.Duration(n) * time.Millisecond
		}
	}

	return cfg, nil
}

func envAddress(key string, fallback ledger.Address) (ledger.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	addr, err := ledger.ParseAddress(v)
	if err != nil {
		return fallback, fmt.Errorf("params: invalid %s: %w", key, err)
	}
	return addr, nil
}
