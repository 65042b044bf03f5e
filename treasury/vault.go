package treasury

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/factoring/types"
)

// compile-time interface check
var _ Transferer = (*Vault)(nil)

// Vault is an in-memory balance book implementing Transferer. It exists for
// tests and demos: deposit opening balances, run ledger operations, then
// assert the resulting balance deltas.
type Vault struct {
	mu       sync.Mutex
	balances map[types.Address]types.Money
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{balances: make(map[types.Address]types.Money)}
}

// Deposit credits an address. Used to seed opening balances.
func (v *Vault) Deposit(addr types.Address, amount types.Money) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credit(addr, amount)
}

// Balance returns the current balance of an address; zero in the given
// currency if the address has never been seen.
func (v *Vault) Balance(addr types.Address, currency string) types.Money {
	v.mu.Lock()
	defer v.mu.Unlock()

	if bal, ok := v.balances[addr]; ok {
		return bal
	}
	return types.Zero(currency)
}

// Transfer implements Transferer. Fails with ErrInsufficientFunds if the
// paying address cannot cover the amount; no funds move on failure.
func (v *Vault) Transfer(_ context.Context, from, to types.Address, amount types.Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("treasury: transfer amount must be positive, got %v", amount)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bal, ok := v.balances[from]
	if !ok || bal.LessThan(amount) {
		return fmt.Errorf("%w: %s has %v, needs %v", ErrInsufficientFunds, from, bal, amount)
	}

	v.balances[from] = bal.Subtract(amount)
	v.credit(to, amount)
	return nil
}

// credit adds to an address's balance. Caller holds the lock.
func (v *Vault) credit(addr types.Address, amount types.Money) {
	if bal, ok := v.balances[addr]; ok {
		v.balances[addr] = bal.Add(amount)
		return
	}
	v.balances[addr] = amount
}
