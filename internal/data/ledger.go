package data

import (
	"fmt"

	"LedgerLane/internal/conf"
	"LedgerLane/pkg/ledger"

	"github.com/go-kratos/kratos/v2/log"
)

// NewLedgerClient builds the resilient ledger client from bootstrap
// configuration.
func NewLedgerClient(c *conf.Ledger, logger log.Logger) (*ledger.Client, error) {
	if c == nil {
		return nil, fmt.Errorf("ledger config is nil")
	}

	cfg := ledger.Config{
		PrimaryEndpoint:   c.PrimaryEndpoint,
		FallbackEndpoints: c.FallbackEndpoints,
		MaxRetries:        int(c.MaxRetries),
		RequestsPerSecond: c.RequestsPerSecond,
	}
	if c.PerAttemptTimeout != nil {
		cfg.PerAttemptTimeout = c.PerAttemptTimeout.AsDuration()
	}
	if c.Cache != nil {
		cfg.CacheEnabled = c.Cache.Enabled
		cfg.CacheMaxEntries = int(c.Cache.MaxEntries)
		if c.Cache.Ttl != nil {
			cfg.CacheTTL = c.Cache.Ttl.AsDuration()
		}
	}
	if c.Sponsor != nil {
		cfg.SponsorEnabled = c.Sponsor.Enabled
		cfg.SponsorPerTxCeiling = c.Sponsor.PerTxCeiling
		cfg.SponsorDailyCeiling = c.Sponsor.DailyCeiling
	}

	return ledger.NewClient(cfg, logger)
}
