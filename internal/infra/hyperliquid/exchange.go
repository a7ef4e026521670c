package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"perp_go/internal/domain"
	"perp_go/internal/infra"
)

// ExchangeClient submits signed actions to the venue's /exchange endpoint.
// Writes go through a token-bucket limiter and a circuit breaker; only
// transport failures trip the breaker, order rejections do not.
type ExchangeClient struct {
	baseURL    string
	httpClient *http.Client
	wallet     Wallet
	isMainnet  bool
	limiter    *infra.RateLimiter
	breaker    *infra.CircuitBreaker
	logger     *slog.Logger

	// nowMillis is swapped in tests to pin nonces.
	nowMillis func() uint64
}

// NewExchangeClient builds a write client for the given REST base URL.
func NewExchangeClient(baseURL string, wallet Wallet, network domain.Network, logger *slog.Logger) *ExchangeClient {
	return &ExchangeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		wallet:    wallet,
		isMainnet: !network.IsTestnet(),
		limiter:   infra.NewOrderLimiter(),
		breaker:   infra.NewSubmitBreaker(),
		logger:    logger,
		nowMillis: func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
}

// NewCloid returns a fresh client order id: "0x" followed by 32 hex chars.
func NewCloid() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PlaceOrder signs and submits a single IOC limit order. The returned
// error is an *domain.AccountNotActivatedError when the venue has never
// seen the wallet, or an *domain.OrderError for other rejections.
func (c *ExchangeClient) PlaceOrder(ctx context.Context, params domain.OrderParams) (OrderResult, error) {
	if !c.breaker.Allow() {
		return OrderResult{}, fmt.Errorf("order submission suspended: circuit breaker open")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return OrderResult{}, err
	}

	cloid := NewCloid()
	action := OrderAction{
		Type: "order",
		Orders: []OrderWire{{
			Asset:      params.AssetID,
			IsBuy:      params.Side.IsBuy(),
			LimitPx:    params.LimitPx,
			Sz:         params.Size,
			ReduceOnly: params.ReduceOnly,
			OrderType:  OrderTypeWire{Limit: &LimitTif{Tif: "Ioc"}},
			Cloid:      &cloid,
		}},
		Grouping: "na",
	}

	nonce := c.nowMillis()
	sig, err := SignOrderAction(c.wallet, action, nonce, c.isMainnet)
	if err != nil {
		return OrderResult{}, err
	}

	resp, err := c.postExchange(ctx, ExchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	})
	if err != nil {
		c.breaker.RecordFailure()
		return OrderResult{}, err
	}
	c.breaker.RecordSuccess()

	return classifyResponse(resp, c.wallet.Address().Hex())
}

func (c *ExchangeClient) postExchange(ctx context.Context, reqBody ExchangeRequest) (ExchangeResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exchange", bytes.NewReader(payload))
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("exchange request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ExchangeResponse{}, fmt.Errorf("read exchange response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ExchangeResponse{}, fmt.Errorf("exchange request failed: %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), truncateBody(data))
	}

	var decoded ExchangeResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ExchangeResponse{}, fmt.Errorf("decode exchange response: %w", err)
	}
	return decoded, nil
}

// classifyResponse turns the venue's response envelope into a result or a
// typed rejection error.
func classifyResponse(resp ExchangeResponse, address string) (OrderResult, error) {
	if resp.Status != "ok" {
		// On "err" the response field is a bare string message.
		var msg string
		if err := json.Unmarshal(resp.Response, &msg); err != nil {
			msg = string(resp.Response)
		}
		if msg == "" {
			msg = fmt.Sprintf("exchange status %q", resp.Status)
		}
		if domain.IsNotActivated(msg) {
			return OrderResult{}, &domain.AccountNotActivatedError{Address: address}
		}
		return OrderResult{}, &domain.OrderError{Message: msg}
	}

	var body orderResponseBody
	if err := json.Unmarshal(resp.Response, &body); err != nil {
		return OrderResult{}, &domain.OrderError{Message: "malformed exchange response: " + err.Error()}
	}
	statuses := body.Data.Statuses
	if len(statuses) == 0 {
		return OrderResult{}, &domain.OrderError{Message: "exchange returned no order status"}
	}

	st := statuses[0]
	switch {
	case st.Error != "":
		if domain.IsNotActivated(st.Error) {
			return OrderResult{}, &domain.AccountNotActivatedError{Address: address}
		}
		return OrderResult{}, &domain.OrderError{Message: st.Error}
	case st.Filled != nil:
		return OrderResult{
			Oid:      st.Filled.Oid,
			FilledSz: st.Filled.TotalSz,
			AvgPx:    st.Filled.AvgPx,
		}, nil
	case st.Resting != nil:
		return OrderResult{Oid: st.Resting.Oid, Resting: true}, nil
	default:
		return OrderResult{}, &domain.OrderError{Message: "exchange returned empty order status"}
	}
}
