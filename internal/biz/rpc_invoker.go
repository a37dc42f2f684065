package biz

import (
	"context"

	"LedgerLane/pkg/ledger"
)

// RPCInvoker defines the single-endpoint node transport.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.RPCClient).
type RPCInvoker interface {
	// SubmitTransaction submits a signed transaction to one endpoint. A
	// non-empty feePayer names the explicit fee-payer address; when empty the
	// submission relies on the sponsor covering the fee.
	SubmitTransaction(ctx context.Context, endpoint, signedTx, feePayer string) (*ledger.TransactionResult, error)

	// Query performs an idempotent read against one endpoint. Method and
	// params pass through verbatim.
	Query(ctx context.Context, endpoint, method string, params []any) (*ledger.QueryResult, error)
}
