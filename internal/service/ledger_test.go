package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"LedgerLane/internal/biz"
	"LedgerLane/internal/model"
	"LedgerLane/pkg/ledger"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRPCInvoker is a mock implementation of biz.RPCInvoker for testing.
type MockRPCInvoker struct {
	mock.Mock
}

func (m *MockRPCInvoker) SubmitTransaction(ctx context.Context, endpoint, signedTx, feePayer string) (*ledger.TransactionResult, error) {
	args := m.Called(ctx, endpoint, signedTx, feePayer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionResult), args.Error(1)
}

func (m *MockRPCInvoker) Query(ctx context.Context, endpoint, method string, params []any) (*ledger.QueryResult, error) {
	args := m.Called(ctx, endpoint, method, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.QueryResult), args.Error(1)
}

const testEndpoint = "https://rpc-primary.example"

// setupTestService creates a LedgerService wired to a real use case and a
// mock node transport.
func setupTestService(t *testing.T, cfg ledger.Config) (*LedgerService, *MockRPCInvoker) {
	t.Helper()
	if cfg.PrimaryEndpoint == "" {
		cfg.PrimaryEndpoint = testEndpoint
	}
	mockInvoker := new(MockRPCInvoker)
	logger := log.DefaultLogger

	client, err := ledger.NewClient(cfg, logger)
	require.NoError(t, err)

	uc := biz.NewLedgerUseCase(client, mockInvoker, logger)
	return NewLedgerService(uc, logger), mockInvoker
}

// newTestServer mounts the API routes on a bare HTTP server that tests can
// drive through ServeHTTP without opening a listener.
func newTestServer(svc *LedgerService) *khttp.Server {
	srv := khttp.NewServer()
	RegisterLedgerServiceHTTPRoutes(srv, svc)
	return srv
}

// TestSubmitTransaction tests the service method directly.
func TestSubmitTransaction(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0})

	mockInvoker.On("SubmitTransaction", mock.Anything, testEndpoint, "0xsigned", "").
		Return(&ledger.TransactionResult{Success: true, TxHash: "0xhash", GasUsed: 21000}, nil)

	resp, err := svc.SubmitTransaction(context.Background(), &model.SubmitTransactionRequest{
		SignedTx: "0xsigned",
		Kind:     "follow",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "0xhash", resp.TxHash)
	mockInvoker.AssertExpectations(t)
}

// TestSubmitTransaction_Error verifies the error passes through untouched.
func TestSubmitTransaction_Error(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0})

	mockInvoker.On("SubmitTransaction", mock.Anything, testEndpoint, "0xsigned", "").
		Return(nil, errors.New("connection refused"))

	_, err := svc.SubmitTransaction(context.Background(), &model.SubmitTransactionRequest{
		SignedTx: "0xsigned",
	})
	require.Error(t, err)
	assert.Equal(t, int32(502), kerrors.FromError(err).Code)
}

// TestQueryState tests the service method directly.
func TestQueryState(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0})

	mockInvoker.On("Query", mock.Anything, testEndpoint, "ledger_getBalance", mock.Anything).
		Return(&ledger.QueryResult{Success: true, Data: []byte(`{"balance":42}`)}, nil)

	resp, err := svc.QueryState(context.Background(), &model.QueryStateRequest{Method: "ledger_getBalance"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"balance":42}`, string(resp.Data))
}

// TestGetHealth reports healthy for an idle service.
func TestGetHealth(t *testing.T) {
	svc, _ := setupTestService(t, ledger.Config{MaxRetries: 0})

	resp, err := svc.GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}

// TestHTTPSubmitTransaction drives the whole route: bind, middleware chain,
// service, use case and mock transport.
func TestHTTPSubmitTransaction(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0})
	srv := newTestServer(svc)

	mockInvoker.On("SubmitTransaction", mock.Anything, testEndpoint, "0xsigned", "").
		Return(&ledger.TransactionResult{Success: true, TxHash: "0xhash", GasUsed: 21000}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions",
		strings.NewReader(`{"signed_tx":"0xsigned","kind":"follow"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tx_hash":"0xhash"`)
}

// TestHTTPSubmitTransaction_QuotaDenied surfaces the denial as HTTP 402.
func TestHTTPSubmitTransaction_QuotaDenied(t *testing.T) {
	svc, _ := setupTestService(t, ledger.Config{
		MaxRetries:          0,
		SponsorEnabled:      true,
		SponsorPerTxCeiling: 100,
		SponsorDailyCeiling: 1000,
	})
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions",
		strings.NewReader(`{"signed_tx":"0xsigned","sponsored":true,"estimated_fee":500}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "SPONSOR_QUOTA_EXCEEDED")
}

// TestHTTPQueryState drives the query route end to end.
func TestHTTPQueryState(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0, CacheEnabled: true, CacheTTL: time.Minute})
	srv := newTestServer(svc)

	mockInvoker.On("Query", mock.Anything, testEndpoint, "ledger_getBalance", mock.Anything).
		Return(&ledger.QueryResult{Success: true, Data: []byte(`{"balance":42}`)}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/query",
		strings.NewReader(`{"method":"ledger_getBalance","params":["0xaccount"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":42`)
}

// TestHTTPMetrics returns the counters with a closed breaker.
func TestHTTPMetrics(t *testing.T) {
	svc, _ := setupTestService(t, ledger.Config{MaxRetries: 0})
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"circuit_state":"closed"`)
	assert.Contains(t, w.Body.String(), `"sponsor_budget"`)
}

// TestHTTPHealth_Unhealthy maps an unhealthy verdict to HTTP 503.
func TestHTTPHealth_Unhealthy(t *testing.T) {
	svc, mockInvoker := setupTestService(t, ledger.Config{MaxRetries: 0})
	srv := newTestServer(svc)

	mockInvoker.On("SubmitTransaction", mock.Anything, testEndpoint, "0xsigned", "").
		Return(nil, errors.New("connection refused"))

	// Five exhausted sequences open the breaker and sink the success rate.
	for i := 0; i < 5; i++ {
		_, err := svc.SubmitTransaction(context.Background(), &model.SubmitTransactionRequest{SignedTx: "0xsigned"})
		require.Error(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}

// TestHTTPHealth_Healthy maps a healthy verdict to HTTP 200.
func TestHTTPHealth_Healthy(t *testing.T) {
	svc, _ := setupTestService(t, ledger.Config{MaxRetries: 0})
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

// TestHTTPOpsRoutes covers the operator actions without auth middleware;
// the admin guard is wired in the server package.
func TestHTTPOpsRoutes(t *testing.T) {
	svc, _ := setupTestService(t, ledger.Config{MaxRetries: 0, CacheEnabled: true})
	srv := newTestServer(svc)

	for _, path := range []string{"/v1/ops/breaker/reset", "/v1/ops/cache/clear"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"success":true`, path)
	}
}
