package infra

import (
	"fmt"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with network-specific warnings
func PrintBanner(cfg *Config) {
	network := strings.ToUpper(cfg.Network)
	version := cfg.App.Version

	color := ColorYellow
	netDesc := "TESTNET (PLAY MONEY)"
	if !cfg.SelectedNetwork().IsTestnet() {
		color = ColorRed
		netDesc = "MAINNET (REAL MONEY)"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#               🚀 PerpGo Trading Console                 #%s\n", color, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)
	fmt.Printf("%s#   NETWORK: %-36s #%s\n", color, network, ColorReset)
	fmt.Printf("%s#   TYPE:    %-36s #%s\n", color, netDesc, ColorReset)
	fmt.Printf("%s#   VERSION: %-36s #%s\n", color, version, ColorReset)
	fmt.Printf("%s#                                                         #%s\n", color, ColorReset)

	if !cfg.SelectedNetwork().IsTestnet() {
		fmt.Printf("%s#   ⚠️  WARNING: ORDERS ON MAINNET USE REAL FUNDS  ⚠️     #%s\n", ColorRed, ColorReset)
		fmt.Printf("%s#   VERIFY YOUR FLOW ON TESTNET FIRST                     #%s\n", ColorRed, ColorReset)
	}

	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
