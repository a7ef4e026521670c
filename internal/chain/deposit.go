package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
)

// USDCDecimals is the ERC-20 decimal count of the bridged collateral.
const USDCDecimals = 6

// transferSelector is the 4-byte selector of ERC-20 transfer(address,uint256).
var transferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// BridgeAddresses describes where deposits go for one network: the USDC
// token contract on Arbitrum and the venue's bridge that credits the
// trading account.
type BridgeAddresses struct {
	USDCToken common.Address
	Bridge    common.Address
}

var bridgeByNetwork = map[domain.Network]BridgeAddresses{
	domain.Mainnet: {
		USDCToken: common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		Bridge:    common.HexToAddress("0x2Df1c51E09aECF9cacB7bc98cB1742757f163dF7"),
	},
	domain.Testnet: {
		USDCToken: common.HexToAddress("0x1baAbB04529D43a73232B713C0FE471f7c7334d5"),
		Bridge:    common.HexToAddress("0x08cfc1B6b2dCF36A1480b99353A354AA8AC56f89"),
	},
}

// Bridge returns the deposit addresses for a network.
func Bridge(network domain.Network) (BridgeAddresses, error) {
	b, ok := bridgeByNetwork[network]
	if !ok {
		return BridgeAddresses{}, fmt.Errorf("no bridge configured for network %q", network)
	}
	return b, nil
}

// DepositCall is a ready-to-sign ERC-20 transfer moving USDC to the
// venue's bridge. To is the token contract; Data is the ABI-encoded call.
type DepositCall struct {
	To   common.Address
	Data []byte
}

// BuildDepositCall encodes transfer(bridge, amount) against the network's
// USDC contract. The amount is a USD value and must round exactly to the
// token's 6 decimals.
func BuildDepositCall(network domain.Network, amount decimal.Decimal) (DepositCall, error) {
	if amount.Sign() <= 0 {
		return DepositCall{}, fmt.Errorf("deposit amount must be positive, got %s", amount)
	}

	b, err := Bridge(network)
	if err != nil {
		return DepositCall{}, err
	}

	units := amount.Shift(USDCDecimals)
	if !units.Equal(units.Truncate(0)) {
		return DepositCall{}, fmt.Errorf("deposit amount %s exceeds %d decimal places", amount, USDCDecimals)
	}

	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(b.Bridge.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(units.BigInt().Bytes(), 32)...)

	return DepositCall{To: b.USDCToken, Data: data}, nil
}

// MinDepositUnits converts a USD amount into raw token units.
func MinDepositUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(USDCDecimals).Truncate(0).BigInt()
}

// EncodeCalldata renders the call data as a 0x-prefixed hex string for
// wallets that take raw transaction fields.
func (c DepositCall) EncodeCalldata() string {
	return hexutil.Encode(c.Data)
}
