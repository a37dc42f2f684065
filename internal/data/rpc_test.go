package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"LedgerLane/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func newTestRPCClient(t *testing.T) *RPCClient {
	t.Helper()

	rc, cleanup, err := NewRPCClient(&conf.Ledger{
		Rpc: &conf.Ledger_RPC{
			MaxIdleConns:    10,
			IdleConnTimeout: durationpb.New(30 * time.Second),
		},
	}, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return rc
}

// newRPCServer runs an httptest server that decodes the JSON-RPC envelope
// and delegates to handle for the reply.
func newRPCServer(t *testing.T, handle func(req rpcRequest) (any, *rpcError)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.Jsonrpc)
		assert.NotEmpty(t, req.ID)

		result, rpcErr := handle(req)
		resp := rpcResponse{Jsonrpc: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			raw, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = raw
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRPCClient_SubmitTransaction(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := newRPCServer(t, func(req rpcRequest) (any, *rpcError) {
		assert.Equal(t, methodSubmitTransaction, req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0xsigned", req.Params[0])
		return submitResult{TxHash: "0xabc123", GasUsed: 21000}, nil
	})

	result, err := rc.SubmitTransaction(context.Background(), srv.URL, "0xsigned", "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "0xabc123", result.TxHash)
	assert.Equal(t, uint64(21000), result.GasUsed)
}

func TestRPCClient_SubmitTransaction_FeePayer(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := newRPCServer(t, func(req rpcRequest) (any, *rpcError) {
		require.Len(t, req.Params, 2)
		opts, ok := req.Params[1].(map[string]any)
		require.True(t, ok, "second param should be an options object")
		assert.Equal(t, "0xpayer", opts["feePayer"])
		return submitResult{TxHash: "0xdef456", GasUsed: 30000}, nil
	})

	result, err := rc.SubmitTransaction(context.Background(), srv.URL, "0xsigned", "0xpayer")
	require.NoError(t, err)
	assert.Equal(t, "0xdef456", result.TxHash)
}

func TestRPCClient_Query(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := newRPCServer(t, func(req rpcRequest) (any, *rpcError) {
		assert.Equal(t, "ledger_getBalance", req.Method)
		require.Len(t, req.Params, 1)
		assert.Equal(t, "0xaddr", req.Params[0])
		return map[string]any{"balance": "1000000"}, nil
	})

	result, err := rc.Query(context.Background(), srv.URL, "ledger_getBalance", []any{"0xaddr"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.JSONEq(t, `{"balance":"1000000"}`, string(result.Data))
}

func TestRPCClient_RPCError(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := newRPCServer(t, func(req rpcRequest) (any, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "nonce too low"}
	})

	_, err := rc.SubmitTransaction(context.Background(), srv.URL, "0xsigned", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
	assert.Contains(t, err.Error(), "-32000")
}

func TestRPCClient_HTTPStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantInText string
	}{
		{"rate limited", http.StatusTooManyRequests, "rate limited"},
		{"unauthorized", http.StatusUnauthorized, "rejected"},
		{"server error", http.StatusBadGateway, "server error"},
		{"teapot", http.StatusTeapot, "unexpected status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := newTestRPCClient(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("node says no"))
			}))
			defer srv.Close()

			_, err := rc.Query(context.Background(), srv.URL, "ledger_getBalance", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantInText)
			assert.Contains(t, err.Error(), "node says no")
		})
	}
}

func TestRPCClient_ContextDeadline(t *testing.T) {
	rc := newTestRPCClient(t)

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := rc.Query(ctx, srv.URL, "ledger_getBalance", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "deadline should cut the call short")
}

func TestRPCClient_MalformedResponse(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	_, err := rc.Query(context.Background(), srv.URL, "ledger_getBalance", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestRPCClient_EmptyResult(t *testing.T) {
	rc := newTestRPCClient(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"1"}`))
	}))
	defer srv.Close()

	_, err := rc.Query(context.Background(), srv.URL, "ledger_getBalance", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result")
}

func TestNewRPCClient_InvalidProxy(t *testing.T) {
	_, _, err := NewRPCClient(&conf.Ledger{
		Rpc: &conf.Ledger_RPC{ProxyUrl: "ftp://proxy.example.com"},
	}, log.NewStdLogger(os.Stdout))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported proxy scheme")
}

func TestNewRPCClient_NilConfig(t *testing.T) {
	rc, cleanup, err := NewRPCClient(nil, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, rc)
}

func TestNewLedgerClient(t *testing.T) {
	c := &conf.Ledger{
		PrimaryEndpoint:   "https://rpc-0.example.com",
		FallbackEndpoints: []string{"https://rpc-1.example.com"},
		MaxRetries:        2,
		PerAttemptTimeout: durationpb.New(5 * time.Second),
		Cache: &conf.Ledger_Cache{
			Enabled:    true,
			Ttl:        durationpb.New(30 * time.Second),
			MaxEntries: 100,
		},
		Sponsor: &conf.Ledger_Sponsor{
			Enabled:      true,
			PerTxCeiling: 1000,
			DailyCeiling: 10000,
		},
	}

	client, err := NewLedgerClient(c, log.NewStdLogger(os.Stdout))
	require.NoError(t, err)
	assert.NotNil(t, client)

	budget := client.GetBudgetSnapshot()
	assert.True(t, budget.Enabled)
	assert.Equal(t, uint64(1000), budget.PerTxCeiling)
	assert.Equal(t, uint64(10000), budget.DailyCeiling)
}

func TestNewLedgerClient_NilConfig(t *testing.T) {
	_, err := NewLedgerClient(nil, log.NewStdLogger(os.Stdout))
	require.Error(t, err)
}

func TestNewLedgerClient_MissingEndpoint(t *testing.T) {
	_, err := NewLedgerClient(&conf.Ledger{}, log.NewStdLogger(os.Stdout))
	require.Error(t, err)
}
