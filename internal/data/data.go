// Package data provides the outbound access layer: the JSON-RPC node
// transport and the resilient ledger client assembled from configuration.
package data

import (
	"github.com/google/wire"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewRPCClient,
	NewLedgerClient,
)
