package treasury

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/factoring/types"
)

func TestVaultTransfer(t *testing.T) {
	v := NewVault()
	v.Deposit("alice", types.USD(1000))

	if err := v.Transfer(context.Background(), "alice", "bob", types.USD(400)); err != nil {
		t.Fatal(err)
	}

	if got := v.Balance("alice", "usd"); !got.Equal(types.USD(600)) {
		t.Errorf("alice: got %v, want %v", got, types.USD(600))
	}
	if got := v.Balance("bob", "usd"); !got.Equal(types.USD(400)) {
		t.Errorf("bob: got %v, want %v", got, types.USD(400))
	}
}

func TestVaultInsufficientFunds(t *testing.T) {
	v := NewVault()
	v.Deposit("alice", types.USD(100))

	err := v.Transfer(context.Background(), "alice", "bob", types.USD(101))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	// No funds moved.
	if got := v.Balance("alice", "usd"); !got.Equal(types.USD(100)) {
		t.Errorf("alice: got %v, want %v", got, types.USD(100))
	}
	if got := v.Balance("bob", "usd"); !got.IsZero() {
		t.Errorf("bob: got %v, want zero", got)
	}
}

func TestVaultUnknownPayer(t *testing.T) {
	v := NewVault()
	err := v.Transfer(context.Background(), "ghost", "bob", types.USD(1))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
}

func TestVaultRejectsNonPositiveAmounts(t *testing.T) {
	v := NewVault()
	v.Deposit("alice", types.USD(100))

	for _, amount := range []types.Money{types.USD(0), types.USD(-5)} {
		if err := v.Transfer(context.Background(), "alice", "bob", amount); err == nil {
			t.Errorf("transfer of %v: expected error", amount)
		}
	}
}

func TestTransferFunc(t *testing.T) {
	var called bool
	f := TransferFunc(func(ctx context.Context, from, to types.Address, amount types.Money) error {
		called = true
		return nil
	})
	if err := f.Transfer(context.Background(), "a", "b", types.USD(1)); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("adapter did not invoke the wrapped function")
	}
}
