package sqlite

import (
	"context"
	"errors"
	"testing"

	factoring "github.com/xraph/factoring"
	"github.com/xraph/factoring/id"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/store"
	"github.com/xraph/factoring/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func testInvoice(beneficiary types.Address) *invoice.Invoice {
	return &invoice.Invoice{
		Entity:      types.NewEntity(),
		Payee:       beneficiary,
		Beneficiary: beneficiary,
		Payer:       "0xpayer",
		Total:       types.USD(1000),
		DueDate:     1633845600,
		Status:      invoice.StatusOpen,
	}
}

func TestInvoiceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv := testInvoice("0xholder")
	err := s.Update(ctx, func(tx store.Tx) error {
		idx, err := tx.CreateInvoice(inv)
		if err != nil {
			return err
		}
		if idx != 1 {
			t.Errorf("first index: got %d, want 1", idx)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(tx store.Tx) error {
		got, err := tx.GetInvoice(1)
		if err != nil {
			return err
		}
		if got.Beneficiary != inv.Beneficiary || !got.Total.Equal(inv.Total) ||
			got.DueDate != inv.DueDate || got.Status != invoice.StatusOpen {
			t.Errorf("round trip mismatch: %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.View(context.Background(), func(tx store.Tx) error {
		_, err := tx.GetInvoice(42)
		return err
	})
	if !errors.Is(err, factoring.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRollbackDiscardsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateInvoice(testInvoice("0xholder")); err != nil {
			return err
		}
		if err := tx.SetCommission(50); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update: got %v, want the callback error unchanged", err)
	}

	err = s.View(ctx, func(tx store.Tx) error {
		if _, err := tx.GetInvoice(1); !errors.Is(err, factoring.ErrNotFound) {
			t.Errorf("invoice survived rollback: %v", err)
		}
		pct, err := tx.Commission()
		if err != nil {
			return err
		}
		if pct != DefaultCommission {
			t.Errorf("commission after rollback: got %d, want %d", pct, DefaultCommission)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// The rolled-back creation did not burn the index.
	err = s.Update(ctx, func(tx store.Tx) error {
		idx, err := tx.CreateInvoice(testInvoice("0xholder"))
		if err != nil {
			return err
		}
		if idx != 1 {
			t.Errorf("index after rollback: got %d, want 1", idx)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestListInvoicesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx store.Tx) error {
		a := testInvoice("0xalice")
		if _, err := tx.CreateInvoice(a); err != nil {
			return err
		}
		b := testInvoice("0xbob")
		if _, err := tx.CreateInvoice(b); err != nil {
			return err
		}
		c := testInvoice("0xalice")
		c.Status = invoice.StatusDeleted
		_, err := tx.CreateInvoice(c)
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(tx store.Tx) error {
		alice, err := tx.ListInvoices(invoice.ListOpts{Beneficiary: "0xalice"})
		if err != nil {
			return err
		}
		if len(alice) != 1 || alice[0].Index != 1 {
			t.Errorf("beneficiary filter: got %d records", len(alice))
		}

		all, err := tx.ListInvoices(invoice.ListOpts{IncludeDeleted: true})
		if err != nil {
			return err
		}
		if len(all) != 3 {
			t.Errorf("IncludeDeleted: got %d records, want 3", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestOffersExcludeClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.CreateInvoice(testInvoice("0xseller")); err != nil {
			return err
		}
		open := &market.Offer{
			Entity: types.NewEntity(), InvoiceIndex: 1,
			Seller: "0xseller", Price: types.USD(900), Status: market.StatusOpen,
		}
		if _, err := tx.CreateOffer(open); err != nil {
			return err
		}
		filled := &market.Offer{
			Entity: types.NewEntity(), InvoiceIndex: 1,
			Seller: "0xseller", Price: types.USD(800), Status: market.StatusFilled,
		}
		_, err := tx.CreateOffer(filled)
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(tx store.Tx) error {
		offers, err := tx.ListOffers(market.ListOpts{})
		if err != nil {
			return err
		}
		if len(offers) != 1 || offers[0].Status != market.StatusOpen {
			t.Errorf("default listing: got %d offers", len(offers))
		}

		all, err := tx.ListOffers(market.ListOpts{IncludeClosed: true})
		if err != nil {
			return err
		}
		if len(all) != 2 {
			t.Errorf("IncludeClosed: got %d offers, want 2", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestReceiptsAppendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := id.NewReceiptID()
	second := id.NewReceiptID()
	err := s.Update(ctx, func(tx store.Tx) error {
		for i, rid := range []id.ReceiptID{first, second} {
			rcpt := &payment.Receipt{
				Entity:       types.NewEntity(),
				ID:           rid,
				Kind:         payment.KindSettlement,
				From:         "0xpayer",
				To:           "0xholder",
				Amount:       types.USD(int64(100 * (i + 1))),
				InvoiceIndex: 1,
			}
			if err := tx.AppendReceipt(rcpt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(tx store.Tx) error {
		rcpts, err := tx.ListReceipts(payment.ListOpts{Party: "0xholder"})
		if err != nil {
			return err
		}
		if len(rcpts) != 2 {
			t.Fatalf("got %d receipts, want 2", len(rcpts))
		}
		if rcpts[0].ID.String() != first.String() || rcpts[1].ID.String() != second.String() {
			t.Errorf("receipts out of append order")
		}
		if rcpts[0].Amount.Amount != 100 || rcpts[1].Amount.Amount != 200 {
			t.Errorf("receipt amounts mismatched")
		}

		none, err := tx.ListReceipts(payment.ListOpts{Party: "0xstranger"})
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Errorf("stranger sees %d receipts", len(none))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestMigrateStampsSchemaVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var version int
	if err := s.DB().QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version after migrate: got %d, want %d", version, currentSchemaVersion)
	}

	// A database stamped by a newer schema is refused.
	if _, err := s.DB().ExecContext(ctx, "PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump user_version: %v", err)
	}
	if err := s.Migrate(ctx); !errors.Is(err, factoring.ErrMigrationFailed) {
		t.Errorf("migrate against newer schema: got %v, want ErrMigrationFailed", err)
	}
}

func TestCommissionPersistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.View(ctx, func(tx store.Tx) error {
		pct, err := tx.Commission()
		if err != nil {
			return err
		}
		if pct != DefaultCommission {
			t.Errorf("seeded commission: got %d, want %d", pct, DefaultCommission)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	err = s.Update(ctx, func(tx store.Tx) error {
		return tx.SetCommission(7)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Migrate again must not clobber the stored rate.
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	err = s.View(ctx, func(tx store.Tx) error {
		pct, err := tx.Commission()
		if err != nil {
			return err
		}
		if pct != 7 {
			t.Errorf("commission after re-migrate: got %d, want 7", pct)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
