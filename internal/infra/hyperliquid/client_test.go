package hyperliquid

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"perp_go/internal/domain"
)

// MockRoundTripper allows us to mock HTTP responses
type MockRoundTripper struct {
	Func func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Func(req)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestInfoClient_MetaAndAssetCtxs(t *testing.T) {
	client := NewInfoClient("https://api.example.test", testLogger())

	client.httpClient.Transport = &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/info" {
				t.Errorf("Unexpected path: %s", req.URL.Path)
			}
			if req.Method != "POST" {
				t.Errorf("Unexpected method: %s", req.Method)
			}

			var body map[string]string
			data, _ := io.ReadAll(req.Body)
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			if body["type"] != "metaAndAssetCtxs" {
				t.Errorf("Unexpected request type: %s", body["type"])
			}

			return jsonResponse(200, `[
				{"universe":[
					{"name":"BTC","szDecimals":5},
					{"name":"ETH","szDecimals":4}
				]},
				[
					{"markPx":"97123.5","funding":"0.0000125"},
					{"markPx":"3456.7","fundingRate":"-0.0000031"}
				]
			]`), nil
		},
	}

	meta, ctxs, err := client.MetaAndAssetCtxs(context.Background())
	if err != nil {
		t.Fatalf("MetaAndAssetCtxs failed: %v", err)
	}

	if len(meta.Universe) != 2 {
		t.Fatalf("Universe size mismatch. Got %d, Want 2", len(meta.Universe))
	}
	if meta.Universe[0].Name != "BTC" || meta.Universe[0].SzDecimals != 5 {
		t.Errorf("Unexpected first asset: %+v", meta.Universe[0])
	}
	if len(ctxs) != 2 {
		t.Fatalf("Context size mismatch. Got %d, Want 2", len(ctxs))
	}
	if ctxs[0].MarkPx != "97123.5" {
		t.Errorf("MarkPx mismatch: %s", ctxs[0].MarkPx)
	}
	if ctxs[0].FundingValue() != "0.0000125" {
		t.Errorf("Funding mismatch: %s", ctxs[0].FundingValue())
	}
	if ctxs[1].FundingValue() != "-0.0000031" {
		t.Errorf("FundingRate fallback mismatch: %s", ctxs[1].FundingValue())
	}
}

func TestInfoClient_ClearinghouseState(t *testing.T) {
	client := NewInfoClient("https://api.example.test", testLogger())

	client.httpClient.Transport = &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			data, _ := io.ReadAll(req.Body)
			json.Unmarshal(data, &body)
			if body["type"] != "clearinghouseState" {
				t.Errorf("Unexpected request type: %s", body["type"])
			}
			if body["user"] != "0xabc" {
				t.Errorf("Unexpected user: %s", body["user"])
			}

			return jsonResponse(200, `{
				"assetPositions":[
					{"type":"oneWay","position":{
						"coin":"BTC","szi":"0.5","entryPx":"95000",
						"unrealizedPnl":"1061.75",
						"leverage":{"type":"cross","value":20},
						"liquidationPx":"81234.5"
					}}
				],
				"marginSummary":{"accountValue":"12000.5","totalNtlPos":"48561.75","totalMarginUsed":"2428.1"},
				"crossMarginSummary":{"accountValue":"12000.5","totalNtlPos":"48561.75","totalMarginUsed":"2428.1"},
				"crossMaintenanceMarginUsed":"971.2",
				"withdrawable":"9572.4"
			}`), nil
		},
	}

	state, err := client.ClearinghouseState(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("ClearinghouseState failed: %v", err)
	}

	if len(state.AssetPositions) != 1 {
		t.Fatalf("Position count mismatch. Got %d, Want 1", len(state.AssetPositions))
	}
	pos := state.AssetPositions[0].Position
	if pos.Coin != "BTC" || pos.Szi != "0.5" {
		t.Errorf("Unexpected position: %+v", pos)
	}
	if got := pos.LeverageValue(); got != "20" {
		t.Errorf("LeverageValue mismatch. Got %s, Want 20", got)
	}
	if got := pos.LiquidationPxValue(); got != "81234.5" {
		t.Errorf("LiquidationPxValue mismatch. Got %s, Want 81234.5", got)
	}
	if state.Withdrawable != "9572.4" {
		t.Errorf("Withdrawable mismatch: %s", state.Withdrawable)
	}
}

func TestInfoClient_ErrorIncludesStatusCode(t *testing.T) {
	client := NewInfoClient("https://api.example.test", testLogger())

	client.httpClient.Transport = &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(429, `rate limited`), nil
		},
	}

	_, _, err := client.MetaAndAssetCtxs(context.Background())
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}
	if !domain.IsRateLimit(err) {
		t.Errorf("429 error not classified as rate limit: %v", err)
	}
}

func TestInfoClient_UserFills(t *testing.T) {
	client := NewInfoClient("https://api.example.test", testLogger())

	client.httpClient.Transport = &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, `[
				{"coin":"ETH","px":"3456.7","sz":"1.5","side":"B","time":1735000000000,
				 "dir":"Open Long","closedPnl":"0.0","hash":"0xdead","oid":77,"fee":"1.2"}
			]`), nil
		},
	}

	fills, err := client.UserFills(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("UserFills failed: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("Fill count mismatch. Got %d, Want 1", len(fills))
	}
	if fills[0].Coin != "ETH" || fills[0].Side != "B" || fills[0].Oid != 77 {
		t.Errorf("Unexpected fill: %+v", fills[0])
	}
}

func TestInfoClient_ClaimFaucet(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantNilErr bool
	}{
		{"accepted", 200, `{"status":"ok"}`, nil, true},
		{"already claimed", 400, `{"error":"drip already claimed for this address"}`, ErrFaucetAlreadyClaimed, false},
		{"already used", 400, `faucet already used today`, ErrFaucetAlreadyClaimed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewInfoClient("https://api.example.test", testLogger())
			client.httpClient.Transport = &MockRoundTripper{
				Func: func(req *http.Request) (*http.Response, error) {
					return jsonResponse(tt.status, tt.body), nil
				},
			}

			err := client.ClaimFaucet(context.Background(), "0xabc")
			if tt.wantNilErr {
				if err != nil {
					t.Fatalf("ClaimFaucet failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Error mismatch. Got %v, Want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScalarOrField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{"string scalar", `"81234.5"`, "px", "81234.5"},
		{"number scalar", `20`, "value", "20"},
		{"object", `{"type":"cross","value":20}`, "value", "20"},
		{"nested null", `{"px":null}`, "px", ""},
		{"null", `null`, "px", ""},
		{"missing key", `{"other":1}`, "px", ""},
		{"empty", ``, "px", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scalarOrField(json.RawMessage(tt.raw), tt.key)
			if got != tt.want {
				t.Errorf("scalarOrField(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
