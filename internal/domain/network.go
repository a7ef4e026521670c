package domain

import "fmt"

// Network identifies a venue environment. Mainnet and testnet are disjoint
// universes: asset ids, account state, and caches never cross between them.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ParseNetwork validates a network string from config or flags.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case Mainnet, Testnet:
		return Network(s), nil
	default:
		return "", fmt.Errorf("unknown network: %q (want mainnet or testnet)", s)
	}
}

// IsTestnet reports whether this is the testnet environment.
func (n Network) IsTestnet() bool {
	return n == Testnet
}
