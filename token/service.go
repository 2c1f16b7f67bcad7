// Package token talks to the external fungible-token service that holds
// airdropped balances and performs transfers.
package token

import (
	"context"

	"github.com/holiman/uint256"
)

// Metadata describes a fungible token.
type Metadata struct {
	Spec     string `json:"spec"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Service is the token operations the claim contract depends on.
type Service interface {
	// Metadata returns the token's metadata.
	Metadata(ctx context.Context, tokenID string) (*Metadata, error)

	// BalanceOf returns the token balance held by account, in base units.
	BalanceOf(ctx context.Context, tokenID, account string) (*uint256.Int, error)

	// Transfer moves amount base units to receiver. ErrTransferRejected means
	// nothing moved; any other error leaves the outcome unknown.
	Transfer(ctx context.Context, tokenID, receiver string, amount *uint256.Int, memo string) error
}
