// Package service implements the HTTP API surface. Handlers stay thin:
// they bind transport DTOs, delegate to the biz layer and encode results.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewLedgerService)
