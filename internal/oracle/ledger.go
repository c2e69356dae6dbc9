package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LedgerClient is the escrow contract surface the pipeline depends on.
type LedgerClient interface {
	// Call invokes a view method and returns its decoded outputs.
	Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
	// Submit sends a state-changing call from the given account.
	Submit(ctx context.Context, from common.Address, method string, args ...interface{}) (common.Hash, error)
	// Receipt returns nil without error while the transaction is pending.
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
