package token

import (
	"context"

	"github.com/holiman/uint256"
)

// MockService is a test double for Service.
// All function fields must be set before the corresponding method is called.
type MockService struct {
	MetadataFn  func(ctx context.Context, tokenID string) (*Metadata, error)
	BalanceOfFn func(ctx context.Context, tokenID, account string) (*uint256.Int, error)
	TransferFn  func(ctx context.Context, tokenID, receiver string, amount *uint256.Int, memo string) error
}

var _ Service = (*MockService)(nil)

func (m *MockService) Metadata(ctx context.Context, tokenID string) (*Metadata, error) {
	return m.MetadataFn(ctx, tokenID)
}
func (m *MockService) BalanceOf(ctx context.Context, tokenID, account string) (*uint256.Int, error) {
	return m.BalanceOfFn(ctx, tokenID, account)
}
func (m *MockService) Transfer(ctx context.Context, tokenID, receiver string, amount *uint256.Int, memo string) error {
	return m.TransferFn(ctx, tokenID, receiver, amount, memo)
}
