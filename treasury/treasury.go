// Package treasury abstracts the value-transfer primitive the ledger uses to
// move funds between addresses.
//
// The ledger treats a transfer as an external call that either fully
// succeeds or fails with an error; on failure the engine rolls back the
// whole state transition the transfer belonged to. Implementations must not
// call back into the ledger.
package treasury

import (
	"context"
	"errors"

	"github.com/xraph/factoring/types"
)

// ErrInsufficientFunds is returned when the paying address cannot cover the
// transfer amount.
var ErrInsufficientFunds = errors.New("treasury: insufficient funds")

// Transferer moves funds between addresses.
type Transferer interface {
	// Transfer moves amount from one address to the other. It must be
	// atomic: on error, no funds have moved.
	Transfer(ctx context.Context, from, to types.Address, amount types.Money) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx context.Context, from, to types.Address, amount types.Money) error

// Transfer implements Transferer.
func (f TransferFunc) Transfer(ctx context.Context, from, to types.Address, amount types.Money) error {
	return f(ctx, from, to, amount)
}
