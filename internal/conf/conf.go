package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration assembled by NewBootstrap.
type Bootstrap struct {
	Server *Server
	Ledger *Ledger
	Log    *Log
}

// Server holds the operational HTTP surface configuration.
type Server struct {
	Http *Server_HTTP
	Ops  *Server_Ops
}

// Server_HTTP configures the Kratos HTTP server.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Server_Ops configures the operator surface. An empty AdminToken disables
// the guard on the mutating ops routes (development mode).
type Server_Ops struct {
	AdminToken string
}

// Ledger mirrors the client configuration surface: endpoints, retry policy,
// response cache, sponsor budget, outbound throttle and transport tuning.
type Ledger struct {
	PrimaryEndpoint   string
	FallbackEndpoints []string
	// MaxRetries 初次尝试之后的重试次数
	MaxRetries        int32
	PerAttemptTimeout *durationpb.Duration
	// RequestsPerSecond throttles outbound attempts; 0 disables the throttle.
	RequestsPerSecond float64
	Cache             *Ledger_Cache
	Sponsor           *Ledger_Sponsor
	Rpc               *Ledger_RPC
}

// Ledger_Cache configures the response cache for idempotent reads.
type Ledger_Cache struct {
	Enabled    bool
	Ttl        *durationpb.Duration
	MaxEntries int32
}

// Ledger_Sponsor configures the shared fee-sponsorship budget.
type Ledger_Sponsor struct {
	Enabled      bool
	PerTxCeiling uint64
	DailyCeiling uint64
}

// Ledger_RPC tunes the JSON-RPC HTTP transport.
type Ledger_RPC struct {
	// ProxyUrl 可选代理，支持 socks5:// 与 http(s):// 两种形式
	ProxyUrl        string
	MaxIdleConns    int32
	IdleConnTimeout *durationpb.Duration
}

// Log configures the Zap logging stack.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
