package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"LedgerLane/internal/conf"
	"LedgerLane/pkg/ledger"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/net/proxy"
)

const (
	// UserAgent LedgerLane 的 User-Agent
	UserAgent = "LedgerLane/1.0"

	// methodSubmitTransaction 节点提交交易的 JSON-RPC 方法名
	methodSubmitTransaction = "ledger_submitTransaction"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// submitResult is the node's result payload for a submitted transaction.
type submitResult struct {
	TxHash  string `json:"txHash"`
	GasUsed uint64 `json:"gasUsed"`
}

// RPCClient speaks JSON-RPC 2.0 over HTTP against ledger node endpoints.
// The endpoint is a per-call argument so one client serves the whole pool.
// It is safe for concurrent use.
type RPCClient struct {
	http      *http.Client
	logger    *log.Helper
	userAgent string
}

// NewRPCClient creates the shared node transport. The returned cleanup
// closes idle connections on shutdown.
func NewRPCClient(c *conf.Ledger, logger log.Logger) (*RPCClient, func(), error) {
	helper := log.NewHelper(logger)

	var (
		proxyURL        string
		maxIdleConns    = 100
		idleConnTimeout = 90 * time.Second
	)
	if c != nil && c.Rpc != nil {
		proxyURL = c.Rpc.ProxyUrl
		if c.Rpc.MaxIdleConns > 0 {
			maxIdleConns = int(c.Rpc.MaxIdleConns)
		}
		if c.Rpc.IdleConnTimeout != nil && c.Rpc.IdleConnTimeout.AsDuration() > 0 {
			idleConnTimeout = c.Rpc.IdleConnTimeout.AsDuration()
		}
	}

	httpClient, err := createHTTPClient(proxyURL, maxIdleConns, idleConnTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	rc := &RPCClient{
		http:      httpClient,
		logger:    helper,
		userAgent: UserAgent,
	}

	cleanup := func() {
		helper.Info("closing idle node connections")
		httpClient.CloseIdleConnections()
	}

	if proxyURL != "" {
		helper.Infow("msg", "node transport configured with proxy", "proxy_url", proxyURL)
	}

	return rc, cleanup, nil
}

// SubmitTransaction submits a signed transaction to one endpoint. A non-empty
// feePayer rides along as the explicit fee-payer address.
func (rc *RPCClient) SubmitTransaction(ctx context.Context, endpoint, signedTx, feePayer string) (*ledger.TransactionResult, error) {
	params := []any{signedTx}
	if feePayer != "" {
		params = append(params, map[string]string{"feePayer": feePayer})
	}

	raw, err := rc.call(ctx, endpoint, methodSubmitTransaction, params)
	if err != nil {
		return nil, err
	}

	var res submitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("malformed submit result: %w", err)
	}

	return &ledger.TransactionResult{
		Success: true,
		TxHash:  res.TxHash,
		GasUsed: res.GasUsed,
	}, nil
}

// Query performs an idempotent read. The method name and params pass through
// verbatim and the raw result comes back undecoded.
func (rc *RPCClient) Query(ctx context.Context, endpoint, method string, params []any) (*ledger.QueryResult, error) {
	raw, err := rc.call(ctx, endpoint, method, params)
	if err != nil {
		return nil, err
	}

	return &ledger.QueryResult{
		Success: true,
		Data:    raw,
	}, nil
}

// call sends one JSON-RPC request. The ctx deadline is the only timeout; the
// underlying http.Client carries none so the caller stays in charge.
func (rc *RPCClient) call(ctx context.Context, endpoint, method string, params []any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", rc.userAgent)

	start := time.Now()
	resp, err := rc.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rc.logger.Debugw("msg", "node call completed",
		"endpoint", endpoint,
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	if len(envelope.Result) == 0 {
		return nil, fmt.Errorf("empty result for method %s", method)
	}

	return envelope.Result, nil
}

// statusError maps a non-200 HTTP status to an error with a trimmed body
// excerpt for diagnosis.
func statusError(status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > 256 {
		excerpt = excerpt[:256] + "..."
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("rate limited (HTTP 429): %s", excerpt)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("endpoint rejected request (HTTP %d): %s", status, excerpt)
	case status >= 500:
		return fmt.Errorf("server error (HTTP %d): %s", status, excerpt)
	default:
		return fmt.Errorf("unexpected status code %d: %s", status, excerpt)
	}
}

// createHTTPClient 创建 HTTP 客户端（支持代理和连接池调优）
// 不设置 Client.Timeout：单次尝试的截止时间由调用方通过 ctx 控制
func createHTTPClient(proxyURL string, maxIdleConns int, idleConnTimeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// 配置代理
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch parsed.Scheme {
		case "socks5", "socks5h":
			// SOCKS5 代理
			dialer, err := createSOCKS5Dialer(proxyURL)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}

		case "http", "https":
			// HTTP/HTTPS 代理
			transport.Proxy = func(req *http.Request) (*url.URL, error) {
				return parsed, nil
			}

		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s (supported: socks5, http, https)", parsed.Scheme)
		}
	}

	return &http.Client{
		Transport: transport,
	}, nil
}

// createSOCKS5Dialer 创建 SOCKS5 代理 dialer
func createSOCKS5Dialer(proxyURL string) (proxy.Dialer, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	// 去掉 scheme 前缀
	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":1080" // SOCKS5 默认端口
	}

	return proxy.SOCKS5("tcp", host, auth, proxy.Direct)
}
