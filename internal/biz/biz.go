// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"LedgerLane/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewLedgerUseCase,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(RPCInvoker), new(*data.RPCClient)),
)
