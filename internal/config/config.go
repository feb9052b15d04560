package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/ligun0805/crowdsale-console/internal/crowdsale"
)

// Settings keeps all configuration options.
type Settings struct {
	RPCURL          string
	ChainID         string // empty asks the node
	WalletMode      string // injected|legacy|key|none, empty detects
	PrivateKeyHex   string
	RegistryStorage string
	ExecID          string
	Strategy        string
	InitCrowdsale   string
	ScriptExecutor  string
	ConsoleMinted   string // crowdsaleConsoleMintedCapped
	ConsoleDutch    string // crowdsaleConsoleDutchAuction
	GasPriceGwei    string
	PollIntervalMs  int
	RenderDelayMs   int
	DisplayTZ       string
	SessionFile     string
	TokenCacheTTL   int // seconds
	TelemetryDir    string
	LogLevel        string
}

// LoadEnvFiles reads .env, then lets .env.local override it.
func LoadEnvFiles() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" { return v }
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" { return def }
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil { return n }
		return def
	}

	st := Settings{}
	st.RPCURL          = get([]string{"rpc_url", "RPC_URL"}, "http://127.0.0.1:8545")
	st.ChainID         = get([]string{"chain_id", "CHAIN_ID"}, "")
	st.WalletMode      = get([]string{"wallet_mode", "WALLET_MODE"}, "")
	st.PrivateKeyHex   = get([]string{"private_key", "PRIVATE_KEY"}, "")
	st.RegistryStorage = get([]string{"registry_storage", "REGISTRY_STORAGE"}, "")
	st.ExecID          = get([]string{"exec_id", "EXEC_ID"}, "")
	st.Strategy        = get([]string{"strategy", "STRATEGY"}, string(crowdsale.MintedCapped))
	st.InitCrowdsale   = get([]string{"init_crowdsale", "INIT_CROWDSALE"}, "")
	st.ScriptExecutor  = get([]string{"script_executor", "SCRIPT_EXECUTOR"}, "")
	st.ConsoleMinted   = get([]string{"console_minted_capped", "CONSOLE_MINTED_CAPPED"}, "")
	st.ConsoleDutch    = get([]string{"console_dutch_auction", "CONSOLE_DUTCH_AUCTION"}, "")
	st.GasPriceGwei    = get([]string{"gas_price_gwei", "GAS_PRICE_GWEI"}, "")
	st.PollIntervalMs  = getInt([]string{"poll_interval_ms", "POLL_INTERVAL_MS"}, 1000)
	st.RenderDelayMs   = getInt([]string{"render_delay_ms", "RENDER_DELAY_MS"}, 1500)
	st.DisplayTZ       = get([]string{"display_tz", "DISPLAY_TZ"}, "Local")
	st.SessionFile     = get([]string{"session_file", "SESSION_FILE"}, "console_session.json")
	st.TokenCacheTTL   = getInt([]string{"token_cache_ttl_sec", "TOKEN_CACHE_TTL_SEC"}, 60)
	st.TelemetryDir    = get([]string{"telemetry_dir", "TELEMETRY_DIR"}, "log_data")
	st.LogLevel        = get([]string{"log_level", "LOG_LEVEL"}, "info")

	return st
}

// Crowdsale holds the parsed on-chain locations.
type Crowdsale struct {
	Strategy        crowdsale.Strategy
	RegistryStorage common.Address
	ExecID          common.Hash
	InitCrowdsale   common.Address
	ScriptExecutor  common.Address
	Targets         map[crowdsale.Strategy]common.Address
}

func parseAddr(key, v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: bad address %q", key, v)
	}
	return common.HexToAddress(v), nil
}

// Crowdsale validates and parses the crowdsale settings.
func (s Settings) Crowdsale() (Crowdsale, error) {
	var (
		out Crowdsale
		err error
	)
	if out.Strategy, err = crowdsale.ParseStrategy(s.Strategy); err != nil {
		return out, err
	}
	if out.RegistryStorage, err = parseAddr("REGISTRY_STORAGE", s.RegistryStorage); err != nil {
		return out, err
	}
	if out.InitCrowdsale, err = parseAddr("INIT_CROWDSALE", s.InitCrowdsale); err != nil {
		return out, err
	}
	if out.ScriptExecutor, err = parseAddr("SCRIPT_EXECUTOR", s.ScriptExecutor); err != nil {
		return out, err
	}
	id := strings.TrimPrefix(strings.TrimSpace(s.ExecID), "0x")
	if len(id)%2 == 1 {
		id = "0" + id
	}
	b, err := hex.DecodeString(id)
	if err != nil || len(b) == 0 || len(b) > 32 {
		return out, fmt.Errorf("EXEC_ID: bad exec id %q", s.ExecID)
	}
	out.ExecID = common.BytesToHash(b)

	out.Targets = map[crowdsale.Strategy]common.Address{}
	if s.ConsoleMinted != "" {
		a, err := parseAddr("CONSOLE_MINTED_CAPPED", s.ConsoleMinted)
		if err != nil {
			return out, err
		}
		out.Targets[crowdsale.MintedCapped] = a
	}
	if s.ConsoleDutch != "" {
		a, err := parseAddr("CONSOLE_DUTCH_AUCTION", s.ConsoleDutch)
		if err != nil {
			return out, err
		}
		out.Targets[crowdsale.DutchAuction] = a
	}
	return out, nil
}

// ChainIDBig parses CHAIN_ID; nil when unset.
func (s Settings) ChainIDBig() (*big.Int, error) {
	v := strings.TrimSpace(s.ChainID)
	if v == "" {
		return nil, nil
	}
	z, ok := new(big.Int).SetString(v, 0)
	if !ok || z.Sign() <= 0 {
		return nil, fmt.Errorf("CHAIN_ID: bad chain id %q", s.ChainID)
	}
	return z, nil
}

// Location resolves DISPLAY_TZ.
func (s Settings) Location() (*time.Location, error) {
	if s.DisplayTZ == "" || strings.EqualFold(s.DisplayTZ, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.DisplayTZ)
	if err != nil {
		return nil, fmt.Errorf("DISPLAY_TZ: %w", err)
	}
	return loc, nil
}

func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

func (s Settings) RenderDelay() time.Duration {
	return time.Duration(s.RenderDelayMs) * time.Millisecond
}

func (s Settings) TokenTTL() time.Duration {
	return time.Duration(s.TokenCacheTTL) * time.Second
}

// MaskHex hides the middle of a secret for printing.
func MaskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 { return "***" }
	return h[:6] + "…" + h[len(h)-4:]
}
