package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/vmihailenco/msgpack/v5"
)

// Wallet signs venue actions. Implementations hold the key material; the
// exchange client only sees typed-data signing.
type Wallet interface {
	Address() common.Address
	SignTypedData(data apitypes.TypedData) (Signature, error)
}

// LocalWallet is a Wallet backed by an in-process secp256k1 key.
type LocalWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalWallet parses a hex private key (with or without 0x prefix).
func NewLocalWallet(privateKeyHex string) (*LocalWallet, error) {
	trimmed := privateKeyHex
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &LocalWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (w *LocalWallet) Address() common.Address {
	return w.address
}

// SignTypedData hashes and signs EIP-712 typed data, returning the venue's
// {r, s, v} encoding with v in {27, 28}.
func (w *LocalWallet) SignTypedData(data apitypes.TypedData) (Signature, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return Signature{}, fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return Signature{}, fmt.Errorf("sign typed data: %w", err)
	}
	return Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: int(sig[64]) + 27,
	}, nil
}

// ActionHash computes the venue's action connection id: keccak256 over the
// msgpack-encoded action, the nonce as 8 big-endian bytes, and a vault
// marker byte (0x00 without vault, 0x01 followed by the vault address).
func ActionHash(action any, vaultAddress *common.Address, nonce uint64) (common.Hash, error) {
	packed, err := msgpack.Marshal(action)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode action: %w", err)
	}

	data := make([]byte, 0, len(packed)+9+common.AddressLength)
	data = append(data, packed...)

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	data = append(data, nonceBytes[:]...)

	if vaultAddress == nil {
		data = append(data, 0x00)
	} else {
		data = append(data, 0x01)
		data = append(data, vaultAddress.Bytes()...)
	}

	return crypto.Keccak256Hash(data), nil
}

// BuildAgentTypedData wraps an action hash in the venue's phantom-agent
// EIP-712 envelope. The agent source is "a" on mainnet and "b" on testnet.
func BuildAgentTypedData(connectionID common.Hash, isMainnet bool) apitypes.TypedData {
	source := "b"
	if isMainnet {
		source = "a"
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(1337)),
			VerifyingContract: common.Address{}.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": connectionID.Hex(),
		},
	}
}

// SignOrderAction produces the signature for an order action at the given
// nonce on behalf of the wallet.
func SignOrderAction(w Wallet, action OrderAction, nonce uint64, isMainnet bool) (Signature, error) {
	hash, err := ActionHash(action, nil, nonce)
	if err != nil {
		return Signature{}, err
	}
	return w.SignTypedData(BuildAgentTypedData(hash, isMainnet))
}
