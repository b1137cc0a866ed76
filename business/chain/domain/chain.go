// Package domain holds the closed set of supported networks.
package domain

import (
	"fmt"
	"strings"

	"github.com/fd1az/wallet-dashboard/internal/apperror"
)

// Chain identifies a supported network.
type Chain string

const (
	EthMainnet   Chain = "ETH_MAINNET"
	EthSepolia   Chain = "ETH_SEPOLIA"
	MaticMainnet Chain = "MATIC_MAINNET"
	ArbMainnet   Chain = "ARB_MAINNET"
)

// Info is the static configuration and display metadata of a chain.
type Info struct {
	Chain          Chain
	Name           string
	NativeCurrency string
	Network        string // indexing API network selector
	ChainID        uint64
	ExplorerURL    string
}

// TxURL links to a transaction on the chain's block explorer.
func (i Info) TxURL(hash string) string {
	return i.ExplorerURL + "/tx/" + hash
}

// AddressURL links to an address on the chain's block explorer.
func (i Info) AddressURL(address string) string {
	return i.ExplorerURL + "/address/" + address
}

var order = []Chain{EthMainnet, EthSepolia, MaticMainnet, ArbMainnet}

var registry = map[Chain]Info{
	EthMainnet: {
		Chain:          EthMainnet,
		Name:           "Ethereum",
		NativeCurrency: "ETH",
		Network:        "eth-mainnet",
		ChainID:        1,
		ExplorerURL:    "https://etherscan.io",
	},
	EthSepolia: {
		Chain:          EthSepolia,
		Name:           "Sepolia",
		NativeCurrency: "ETH",
		Network:        "eth-sepolia",
		ChainID:        11155111,
		ExplorerURL:    "https://sepolia.etherscan.io",
	},
	MaticMainnet: {
		Chain:          MaticMainnet,
		Name:           "Polygon",
		NativeCurrency: "MATIC",
		Network:        "polygon-mainnet",
		ChainID:        137,
		ExplorerURL:    "https://polygonscan.com",
	},
	ArbMainnet: {
		Chain:          ArbMainnet,
		Name:           "Arbitrum",
		NativeCurrency: "ETH",
		Network:        "arb-mainnet",
		ChainID:        42161,
		ExplorerURL:    "https://arbiscan.io",
	},
}

// Default is the chain selected when nothing is persisted.
func Default() Chain {
	return EthMainnet
}

// All returns every supported chain in display order.
func All() []Chain {
	out := make([]Chain, len(order))
	copy(out, order)
	return out
}

// Lookup returns the chain's info. An unknown chain is a programming error.
func Lookup(c Chain) Info {
	info, ok := registry[c]
	if !ok {
		panic(fmt.Sprintf("chain: unknown chain %q", string(c)))
	}
	return info
}

// Valid reports whether c is a supported chain.
func (c Chain) Valid() bool {
	_, ok := registry[c]
	return ok
}

// Info is shorthand for Lookup(c).
func (c Chain) Info() Info {
	return Lookup(c)
}

func (c Chain) String() string {
	return string(c)
}

// Parse reads a chain identifier from user or persisted input. It accepts
// the canonical identifier (any case) or the display name.
func Parse(s string) (Chain, error) {
	s = strings.TrimSpace(s)
	if c := Chain(strings.ToUpper(s)); c.Valid() {
		return c, nil
	}
	for _, c := range order {
		if strings.EqualFold(registry[c].Name, s) {
			return c, nil
		}
	}
	return "", apperror.Validation(apperror.CodeUnknownChain, fmt.Sprintf("unknown chain %q", s))
}

// Index returns c's position in All(), or -1.
func Index(c Chain) int {
	for i, o := range order {
		if o == c {
			return i
		}
	}
	return -1
}
