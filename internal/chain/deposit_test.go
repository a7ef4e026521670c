package chain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
)

func TestBuildDepositCall(t *testing.T) {
	call, err := BuildDepositCall(domain.Testnet, decimal.RequireFromString("25.5"))
	if err != nil {
		t.Fatalf("BuildDepositCall failed: %v", err)
	}

	b, _ := Bridge(domain.Testnet)
	if call.To != b.USDCToken {
		t.Errorf("Target mismatch. Got %s, Want %s", call.To.Hex(), b.USDCToken.Hex())
	}

	if len(call.Data) != 68 {
		t.Fatalf("Calldata length mismatch. Got %d, Want 68", len(call.Data))
	}
	if !bytes.Equal(call.Data[:4], transferSelector) {
		t.Errorf("Selector mismatch: %x", call.Data[:4])
	}

	// Recipient is the bridge, left-padded to 32 bytes.
	if !bytes.Equal(call.Data[16:36], b.Bridge.Bytes()) {
		t.Errorf("Recipient mismatch: %x", call.Data[4:36])
	}

	// 25.5 USDC = 25500000 units = 0x1851960.
	encoded := call.EncodeCalldata()
	if !strings.HasSuffix(encoded, "1851960") {
		t.Errorf("Amount encoding mismatch: %s", encoded)
	}
	if !strings.HasPrefix(encoded, "0xa9059cbb") {
		t.Errorf("Calldata prefix mismatch: %s", encoded)
	}
}

func TestBuildDepositCall_Validation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"sub-unit precision", "1.0000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildDepositCall(domain.Mainnet, decimal.RequireFromString(tt.amount))
			if err == nil {
				t.Fatal("Expected error")
			}
		})
	}
}

func TestBridge_NetworksDiffer(t *testing.T) {
	mainnet, err := Bridge(domain.Mainnet)
	if err != nil {
		t.Fatal(err)
	}
	testnet, err := Bridge(domain.Testnet)
	if err != nil {
		t.Fatal(err)
	}
	if mainnet.Bridge == testnet.Bridge || mainnet.USDCToken == testnet.USDCToken {
		t.Error("Mainnet and testnet must use distinct contracts")
	}
}

func TestMinDepositUnits(t *testing.T) {
	units := MinDepositUnits(decimal.RequireFromString("5"))
	if units.Int64() != 5000000 {
		t.Errorf("Unit conversion mismatch: %s", units)
	}
}
