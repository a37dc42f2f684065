// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/viper"
	"google.golang.org/protobuf/types/known/durationpb"

	"LedgerLane/pkg/ledger"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with LEDGERLANE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Required environment variables:
//   - LEDGER_PRIMARY_ENDPOINT or LEDGERLANE_LEDGER_PRIMARY_ENDPOINT: primary node URL
//
// Parameters:
//   - configPath: Path to the configuration file or directory
//
// Returns:
//   - *Bootstrap: Loaded configuration
//   - error: Configuration loading or validation error
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Enable environment variable support with LEDGERLANE_ prefix
	v.SetEnvPrefix("LEDGERLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without LEDGERLANE_ prefix) for compatibility
	// Bind specific environment variables for required fields
	_ = v.BindEnv("ledger.primary_endpoint", "LEDGER_PRIMARY_ENDPOINT", "LEDGERLANE_LEDGER_PRIMARY_ENDPOINT")
	_ = v.BindEnv("ledger.rpc.proxy_url", "LEDGER_PROXY_URL", "LEDGERLANE_LEDGER_RPC_PROXY_URL")
	_ = v.BindEnv("server.ops.admin_token", "OPS_ADMIN_TOKEN", "LEDGERLANE_SERVER_OPS_ADMIN_TOKEN")

	// Load configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// If config file is specified but not found, return error
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}

		// Endpoint topology and budget ceilings are captured once at startup;
		// a file edit cannot reach the running client, so only announce it.
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Infof("config file changed: %s, restart required for changes to take effect", e.Name)
		})
		v.WatchConfig()
	}

	// Parse configuration into Bootstrap structure
	bc := &Bootstrap{
		Server: &Server{
			Http: &Server_HTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: durationpb.New(v.GetDuration("server.http.timeout")),
			},
			Ops: &Server_Ops{
				AdminToken: v.GetString("server.ops.admin_token"),
			},
		},
		Ledger: &Ledger{
			PrimaryEndpoint:   v.GetString("ledger.primary_endpoint"),
			FallbackEndpoints: v.GetStringSlice("ledger.fallback_endpoints"),
			MaxRetries:        v.GetInt32("ledger.max_retries"),
			PerAttemptTimeout: durationpb.New(v.GetDuration("ledger.per_attempt_timeout")),
			RequestsPerSecond: v.GetFloat64("ledger.requests_per_second"),
			Cache: &Ledger_Cache{
				Enabled:    v.GetBool("ledger.cache.enabled"),
				Ttl:        durationpb.New(v.GetDuration("ledger.cache.ttl")),
				MaxEntries: v.GetInt32("ledger.cache.max_entries"),
			},
			Sponsor: &Ledger_Sponsor{
				Enabled:      v.GetBool("ledger.sponsor.enabled"),
				PerTxCeiling: v.GetUint64("ledger.sponsor.per_tx_ceiling"),
				DailyCeiling: v.GetUint64("ledger.sponsor.daily_ceiling"),
			},
			Rpc: &Ledger_RPC{
				ProxyUrl:        v.GetString("ledger.rpc.proxy_url"),
				MaxIdleConns:    v.GetInt32("ledger.rpc.max_idle_conns"),
				IdleConnTimeout: durationpb.New(v.GetDuration("ledger.rpc.idle_conn_timeout")),
			},
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	// Validate required fields
	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 60*time.Second)

	// Note: server.ops.admin_token defaults to empty, which leaves the
	// mutating ops routes unguarded (development mode)

	// Ledger defaults
	// Note: ledger.primary_endpoint (LEDGER_PRIMARY_ENDPOINT) is required from environment
	v.SetDefault("ledger.max_retries", ledger.DefaultMaxRetries)
	v.SetDefault("ledger.per_attempt_timeout", ledger.DefaultPerAttemptTimeout)
	v.SetDefault("ledger.requests_per_second", 0.0)

	v.SetDefault("ledger.cache.enabled", true)
	v.SetDefault("ledger.cache.ttl", ledger.DefaultCacheTTL)
	v.SetDefault("ledger.cache.max_entries", ledger.DefaultCacheMaxEntries)

	v.SetDefault("ledger.sponsor.enabled", false)

	v.SetDefault("ledger.rpc.max_idle_conns", 100)
	v.SetDefault("ledger.rpc.idle_conn_timeout", 90*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.env", "production")
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all missing required fields.
func Validate(bc *Bootstrap) error {
	var missingFields []string

	// Check required ledger configuration
	if bc.Ledger == nil || bc.Ledger.PrimaryEndpoint == "" {
		missingFields = append(missingFields, "ledger.primary_endpoint (LEDGER_PRIMARY_ENDPOINT)")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missingFields, ", "))
	}

	// Ceilings must be coherent when sponsorship is enabled
	if bc.Ledger.Sponsor != nil && bc.Ledger.Sponsor.Enabled {
		if bc.Ledger.Sponsor.PerTxCeiling == 0 || bc.Ledger.Sponsor.DailyCeiling == 0 {
			return fmt.Errorf("ledger.sponsor.per_tx_ceiling and ledger.sponsor.daily_ceiling must be positive when sponsorship is enabled")
		}
		if bc.Ledger.Sponsor.PerTxCeiling > bc.Ledger.Sponsor.DailyCeiling {
			return fmt.Errorf("ledger.sponsor.per_tx_ceiling (%d) cannot exceed ledger.sponsor.daily_ceiling (%d)",
				bc.Ledger.Sponsor.PerTxCeiling, bc.Ledger.Sponsor.DailyCeiling)
		}
	}

	return nil
}
