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
)

// ErrFaucetAlreadyClaimed signals that the testnet faucet has already been
// used by this address recently.
var ErrFaucetAlreadyClaimed = fmt.Errorf("faucet already claimed")

// InfoClient talks to the venue's read-only /info endpoint.
type InfoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewInfoClient builds a client for the given REST base URL.
func NewInfoClient(baseURL string, logger *slog.Logger) *InfoClient {
	return &InfoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// postInfo posts a typed info request body and decodes the reply into out.
func (c *InfoClient) postInfo(ctx context.Context, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode info request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("info request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read info response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The status code stays in the error text so upstream rate-limit
		// classification can spot a 429.
		return fmt.Errorf("info request failed: %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), truncateBody(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode info response: %w", err)
	}
	return nil
}

// MetaAndAssetCtxs fetches the perp universe together with per-asset market
// contexts. The venue returns a two-element array: [meta, contexts].
func (c *InfoClient) MetaAndAssetCtxs(ctx context.Context) (Meta, []AssetCtx, error) {
	var raw []json.RawMessage
	if err := c.postInfo(ctx, map[string]string{"type": "metaAndAssetCtxs"}, &raw); err != nil {
		return Meta{}, nil, err
	}
	if len(raw) < 2 {
		return Meta{}, nil, fmt.Errorf("metaAndAssetCtxs: got %d elements, want 2", len(raw))
	}

	var meta Meta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("decode meta: %w", err)
	}
	var ctxs []AssetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return Meta{}, nil, fmt.Errorf("decode asset contexts: %w", err)
	}
	return meta, ctxs, nil
}

// ClearinghouseState fetches the account state for one address.
func (c *InfoClient) ClearinghouseState(ctx context.Context, address string) (ClearinghouseState, error) {
	var state ClearinghouseState
	body := map[string]string{"type": "clearinghouseState", "user": address}
	if err := c.postInfo(ctx, body, &state); err != nil {
		return ClearinghouseState{}, err
	}
	return state, nil
}

// UserFills fetches the recent trade history for one address.
func (c *InfoClient) UserFills(ctx context.Context, address string) ([]UserFill, error) {
	var fills []UserFill
	body := map[string]string{"type": "userFills", "user": address}
	if err := c.postInfo(ctx, body, &fills); err != nil {
		return nil, err
	}
	return fills, nil
}

// ClaimFaucet requests testnet USDC for the given address. Returns
// ErrFaucetAlreadyClaimed when the venue reports a recent claim.
func (c *InfoClient) ClaimFaucet(ctx context.Context, address string) error {
	body := map[string]string{"type": "claimDrip", "user": address}
	err := c.postInfo(ctx, body, nil)
	if err == nil {
		c.logger.Info("faucet claim accepted", "address", address)
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "already claimed") || strings.Contains(msg, "already used") {
		return ErrFaucetAlreadyClaimed
	}
	return err
}

func truncateBody(data []byte) string {
	const max = 512
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
