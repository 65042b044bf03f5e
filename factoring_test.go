package factoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	factoring "github.com/xraph/factoring"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/store/memory"
	"github.com/xraph/factoring/treasury"
	"github.com/xraph/factoring/types"
)

var (
	platform = types.Address("0xplatform")
	supplier = types.Address("0xsupplier")
	customer = types.Address("0xcustomer")
	investor = types.Address("0xinvestor")
)

const dueDate = int64(1633845600)

func newTestLedger(t *testing.T, opts ...factoring.Option) (*factoring.Ledger, *treasury.Vault) {
	t.Helper()

	vault := treasury.NewVault()
	l := factoring.New(memory.New(), vault, platform, opts...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := l.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return l, vault
}

func as(addr types.Address) context.Context {
	return factoring.WithCaller(context.Background(), addr)
}

func TestCreateInvoice(t *testing.T) {
	l, _ := newTestLedger(t)

	inv, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(100))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.Index != 1 {
		t.Errorf("Index: got %d, want 1", inv.Index)
	}
	if inv.Payee != supplier || inv.Beneficiary != supplier {
		t.Errorf("payee/beneficiary: got %s/%s, want caller for both", inv.Payee, inv.Beneficiary)
	}
	if inv.Payer != customer {
		t.Errorf("Payer: got %s, want %s", inv.Payer, customer)
	}
	if inv.Status != invoice.StatusOpen {
		t.Errorf("Status: got %s, want open", inv.Status)
	}

	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 1 || held[0].Index != 1 {
		t.Fatalf("Invoices: got %d records, want the created one", len(held))
	}

	// Second creation advances the index.
	inv2, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(200))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv2.Index != 2 {
		t.Errorf("second Index: got %d, want 2", inv2.Index)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	l, _ := newTestLedger(t)

	tests := []struct {
		name    string
		ctx     context.Context
		dueDate int64
		payer   types.Address
		total   types.Money
		wantErr error
	}{
		{"zero due date", as(supplier), 0, customer, factoring.USD(100), factoring.ErrInvalidInput},
		{"zero payer", as(supplier), dueDate, types.Nobody, factoring.USD(100), factoring.ErrInvalidInput},
		{"zero total", as(supplier), dueDate, customer, factoring.USD(0), factoring.ErrInvalidInput},
		{"negative total", as(supplier), dueDate, customer, factoring.USD(-100), factoring.ErrInvalidInput},
		{"wrong currency", as(supplier), dueDate, customer, factoring.EUR(100), factoring.ErrInvalidInput},
		{"no caller", context.Background(), dueDate, customer, factoring.USD(100), factoring.ErrNotAuthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateInvoice(tt.ctx, tt.dueDate, tt.payer, tt.total)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Nothing was created.
	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 0 {
		t.Errorf("Invoices after rejected creations: got %d, want 0", len(held))
	}
}

func TestSplitInvoice(t *testing.T) {
	l, _ := newTestLedger(t)

	orig, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	shares, err := l.SplitInvoice(as(supplier), orig.Index, 3)
	if err != nil {
		t.Fatalf("SplitInvoice: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("shares: got %d, want 3", len(shares))
	}

	// First share absorbs the remainder; totals sum exactly.
	wantAmounts := []int64{334, 333, 333}
	var sum int64
	for i, s := range shares {
		if s.Total.Amount != wantAmounts[i] {
			t.Errorf("share %d: got %d, want %d", i, s.Total.Amount, wantAmounts[i])
		}
		if s.Payee != orig.Payee || s.Payer != orig.Payer || s.DueDate != orig.DueDate {
			t.Errorf("share %d does not carry the original terms", i)
		}
		sum += s.Total.Amount
	}
	if sum != 1000 {
		t.Errorf("share sum: got %d, want 1000", sum)
	}

	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 3 {
		t.Fatalf("Invoices after split: got %d, want 3 (original gone)", len(held))
	}
	for _, inv := range held {
		if inv.Index == orig.Index {
			t.Errorf("original invoice %d still listed after split", orig.Index)
		}
	}
}

func TestSplitInvoiceErrors(t *testing.T) {
	l, _ := newTestLedger(t)

	orig, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if _, err := l.SplitInvoice(as(supplier), orig.Index, 1); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("split into 1: got %v, want ErrInvalidInput", err)
	}
	if _, err := l.SplitInvoice(as(investor), orig.Index, 2); !errors.Is(err, factoring.ErrNotAuthorized) {
		t.Errorf("split by non-holder: got %v, want ErrNotAuthorized", err)
	}
	if _, err := l.SplitInvoice(as(supplier), 99, 2); !errors.Is(err, factoring.ErrNotFound) {
		t.Errorf("split unknown index: got %v, want ErrNotFound", err)
	}

	// A failed split leaves the original untouched and burns no index.
	tiny, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if _, err := l.SplitInvoice(as(supplier), tiny.Index, 2); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("split 1 cent in 2: got %v, want ErrInvalidInput", err)
	}
	next, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(50))
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if next.Index != tiny.Index+1 {
		t.Errorf("index after failed split: got %d, want %d", next.Index, tiny.Index+1)
	}
}

func TestMergeInvoices(t *testing.T) {
	l, _ := newTestLedger(t)

	a, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(300))
	b, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(700))

	merged, err := l.MergeInvoices(as(supplier), []uint64{a.Index, b.Index})
	if err != nil {
		t.Fatalf("MergeInvoices: %v", err)
	}
	if merged.Total.Amount != 1000 {
		t.Errorf("merged total: got %d, want 1000", merged.Total.Amount)
	}
	if merged.Payer != customer || merged.DueDate != dueDate {
		t.Errorf("merged invoice does not carry the shared terms")
	}

	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 1 || held[0].Index != merged.Index {
		t.Fatalf("Invoices after merge: got %d records, want only the merged one", len(held))
	}
}

func TestMergeInvoicesErrors(t *testing.T) {
	l, _ := newTestLedger(t)

	a, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(300))
	b, _ := l.CreateInvoice(as(supplier), dueDate+86400, customer, factoring.USD(700))
	c, _ := l.CreateInvoice(as(supplier), dueDate, investor, factoring.USD(500))

	if _, err := l.MergeInvoices(as(supplier), []uint64{a.Index}); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("merge one: got %v, want ErrInvalidInput", err)
	}
	if _, err := l.MergeInvoices(as(supplier), []uint64{a.Index, a.Index}); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("merge duplicate: got %v, want ErrInvalidInput", err)
	}
	if _, err := l.MergeInvoices(as(supplier), []uint64{a.Index, b.Index}); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("merge different due dates: got %v, want ErrInvalidState", err)
	}
	if _, err := l.MergeInvoices(as(supplier), []uint64{a.Index, c.Index}); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("merge different payers: got %v, want ErrInvalidState", err)
	}
	if _, err := l.MergeInvoices(as(investor), []uint64{a.Index, c.Index}); !errors.Is(err, factoring.ErrNotAuthorized) {
		t.Errorf("merge by non-holder: got %v, want ErrNotAuthorized", err)
	}

	// All originals intact after the failures.
	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 3 {
		t.Errorf("Invoices after failed merges: got %d, want 3", len(held))
	}
}

func TestDeleteInvoice(t *testing.T) {
	l, _ := newTestLedger(t)

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(100))

	if err := l.DeleteInvoice(as(investor), inv.Index); !errors.Is(err, factoring.ErrNotAuthorized) {
		t.Errorf("delete by non-holder: got %v, want ErrNotAuthorized", err)
	}
	if err := l.DeleteInvoice(as(supplier), inv.Index); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if err := l.DeleteInvoice(as(supplier), inv.Index); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("double delete: got %v, want ErrInvalidState", err)
	}

	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 0 {
		t.Errorf("Invoices after delete: got %d, want 0", len(held))
	}

	owed, err := l.UnsettledInvoices(as(customer))
	if err != nil {
		t.Fatalf("UnsettledInvoices: %v", err)
	}
	if len(owed) != 0 {
		t.Errorf("payer still owes a deleted invoice")
	}
}

func TestDeleteListedInvoiceVoidsOffer(t *testing.T) {
	l, _ := newTestLedger(t)

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	if _, err := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900)); err != nil {
		t.Fatalf("SellInvoice: %v", err)
	}

	if err := l.DeleteInvoice(as(supplier), inv.Index); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	offers, err := l.Offers(context.Background())
	if err != nil {
		t.Fatalf("Offers: %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("Offers after deleting the listed invoice: got %d, want 0", len(offers))
	}
}

func TestPayInvoice(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(customer, factoring.USD(5000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))

	owed, err := l.UnsettledInvoices(as(customer))
	if err != nil {
		t.Fatalf("UnsettledInvoices: %v", err)
	}
	if len(owed) != 1 || owed[0].Beneficiary != supplier {
		t.Fatalf("UnsettledInvoices: got %d records, want the open claim routed to supplier", len(owed))
	}

	if err := l.PayInvoice(as(customer), inv.Index, owed[0].Beneficiary, inv.Total); err != nil {
		t.Fatalf("PayInvoice: %v", err)
	}

	if got := vault.Balance(customer, "usd").Amount; got != 4000 {
		t.Errorf("payer balance: got %d, want 4000", got)
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 1000 {
		t.Errorf("beneficiary balance: got %d, want 1000", got)
	}

	held, err := l.Invoices(as(supplier))
	if err != nil {
		t.Fatalf("Invoices: %v", err)
	}
	if len(held) != 1 || held[0].Status != invoice.StatusSettled {
		t.Fatalf("invoice not settled in the holder's view")
	}

	// Settled claims drop out of the payer's unsettled view.
	owed, err = l.UnsettledInvoices(as(customer))
	if err != nil {
		t.Fatalf("UnsettledInvoices: %v", err)
	}
	if len(owed) != 0 {
		t.Errorf("UnsettledInvoices after payment: got %d, want 0", len(owed))
	}

	// Both parties see a settlement receipt.
	for _, party := range []types.Address{customer, supplier} {
		rcpts, err := l.Receipts(as(party))
		if err != nil {
			t.Fatalf("Receipts(%s): %v", party, err)
		}
		if len(rcpts) != 1 || rcpts[0].Kind != payment.KindSettlement {
			t.Errorf("Receipts(%s): got %d records, want one settlement", party, len(rcpts))
			continue
		}
		if !rcpts[0].Amount.Equal(factoring.USD(1000)) {
			t.Errorf("receipt amount: got %v, want $10.00", rcpts[0].Amount)
		}
	}
}

func TestPayInvoiceErrors(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(customer, factoring.USD(5000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))

	if err := l.PayInvoice(as(customer), inv.Index, supplier, factoring.USD(999)); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("partial payment: got %v, want ErrInvalidInput", err)
	}
	if err := l.PayInvoice(as(customer), inv.Index, investor, inv.Total); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("stale beneficiary: got %v, want ErrInvalidInput", err)
	}
	if err := l.PayInvoice(as(customer), 99, supplier, inv.Total); !errors.Is(err, factoring.ErrNotFound) {
		t.Errorf("unknown index: got %v, want ErrNotFound", err)
	}

	if err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total); err != nil {
		t.Fatalf("PayInvoice: %v", err)
	}
	if err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("double pay: got %v, want ErrInvalidState", err)
	}
	if got := vault.Balance(customer, "usd").Amount; got != 4000 {
		t.Errorf("payer balance after exactly one settlement: got %d, want 4000", got)
	}
}

func TestPayInvoiceRollsBackOnTransferFailure(t *testing.T) {
	l, vault := newTestLedger(t)
	// No deposit for the payer: the transfer must fail.

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))

	err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total)
	if !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Fatalf("PayInvoice without funds: got %v, want ErrInsufficientFunds", err)
	}

	// The settlement was rolled back: still payable, no receipt, no funds moved.
	owed, err := l.UnsettledInvoices(as(customer))
	if err != nil {
		t.Fatalf("UnsettledInvoices: %v", err)
	}
	if len(owed) != 1 {
		t.Fatalf("invoice no longer payable after rolled-back settlement")
	}
	rcpts, err := l.Receipts(as(supplier))
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(rcpts) != 0 {
		t.Errorf("receipt journaled for a rolled-back settlement")
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 0 {
		t.Errorf("beneficiary balance: got %d, want 0", got)
	}

	vault.Deposit(customer, factoring.USD(1000))
	if err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total); err != nil {
		t.Fatalf("PayInvoice after funding: %v", err)
	}
}

func TestSellAndBuyInvoice(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(investor, factoring.USD(10000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))

	off, err := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))
	if err != nil {
		t.Fatalf("SellInvoice: %v", err)
	}
	if off.Index != 1 || off.InvoiceIndex != inv.Index || off.Seller != supplier {
		t.Fatalf("offer fields wrong: %+v", off)
	}

	// Listed claims leave the holder's invoice view and show up as offers.
	held, _ := l.Invoices(as(supplier))
	if len(held) != 0 {
		t.Errorf("Invoices while listed: got %d, want 0", len(held))
	}
	offers, _ := l.Offers(context.Background())
	if len(offers) != 1 {
		t.Fatalf("Offers: got %d, want 1", len(offers))
	}

	// A listed claim is not payable and not re-listable.
	if err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("pay listed invoice: got %v, want ErrInvalidState", err)
	}
	if _, err := l.SellInvoice(as(supplier), inv.Index, factoring.USD(800)); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("re-list listed invoice: got %v, want ErrInvalidState", err)
	}

	bought, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900))
	if err != nil {
		t.Fatalf("BuyInvoice: %v", err)
	}

	// 2% commission on $9.00 is $0.18; seller nets $8.82.
	if got := vault.Balance(investor, "usd").Amount; got != 9100 {
		t.Errorf("buyer balance: got %d, want 9100", got)
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 882 {
		t.Errorf("seller balance: got %d, want 882", got)
	}
	if got := vault.Balance(platform, "usd").Amount; got != 18 {
		t.Errorf("platform balance: got %d, want 18", got)
	}

	// The claim carried forward under the buyer at full face value.
	if bought.Index == inv.Index {
		t.Errorf("bought invoice reuses the old index %d", inv.Index)
	}
	if bought.Beneficiary != investor || bought.Payee != supplier {
		t.Errorf("bought invoice ownership: beneficiary %s, payee %s", bought.Beneficiary, bought.Payee)
	}
	if !bought.Total.Equal(inv.Total) || bought.DueDate != inv.DueDate {
		t.Errorf("bought invoice does not carry the original terms")
	}

	offers, _ = l.Offers(context.Background())
	if len(offers) != 0 {
		t.Errorf("Offers after purchase: got %d, want 0", len(offers))
	}
	held, _ = l.Invoices(as(supplier))
	if len(held) != 0 {
		t.Errorf("seller still holds the sold claim")
	}
	held, _ = l.Invoices(as(investor))
	if len(held) != 1 || held[0].Index != bought.Index {
		t.Fatalf("buyer's view does not show the bought claim")
	}

	// The payer now owes the investor.
	owed, _ := l.UnsettledInvoices(as(customer))
	if len(owed) != 1 || owed[0].Beneficiary != investor {
		t.Fatalf("payer's view not redirected to the new beneficiary")
	}

	// Proceeds and commission both journaled.
	rcpts, _ := l.Receipts(as(investor))
	if len(rcpts) != 2 {
		t.Fatalf("buyer receipts: got %d, want proceeds and commission", len(rcpts))
	}
	if rcpts[0].Kind != payment.KindProceeds || rcpts[0].Amount.Amount != 882 {
		t.Errorf("proceeds receipt: got %s %d", rcpts[0].Kind, rcpts[0].Amount.Amount)
	}
	if rcpts[1].Kind != payment.KindCommission || rcpts[1].Amount.Amount != 18 {
		t.Errorf("commission receipt: got %s %d", rcpts[1].Kind, rcpts[1].Amount.Amount)
	}
}

func TestBuyInvoiceErrors(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(investor, factoring.USD(10000))
	vault.Deposit(customer, factoring.USD(10000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))

	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(800)); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("underpay: got %v, want ErrInvalidInput", err)
	}
	if _, err := l.BuyInvoice(as(investor), 99, factoring.USD(900)); !errors.Is(err, factoring.ErrNotFound) {
		t.Errorf("unknown offer: got %v, want ErrNotFound", err)
	}

	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); err != nil {
		t.Fatalf("BuyInvoice: %v", err)
	}
	// The offer is gone; a second purchase fails and moves no funds.
	if _, err := l.BuyInvoice(as(customer), off.Index, factoring.USD(900)); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("double buy: got %v, want ErrInvalidState", err)
	}
	if got := vault.Balance(customer, "usd").Amount; got != 10000 {
		t.Errorf("second buyer charged for a dead offer: balance %d", got)
	}
}

func TestBuyInvoiceRollsBackOnTransferFailure(t *testing.T) {
	l, vault := newTestLedger(t)
	// Investor has no funds.

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))

	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Fatalf("buy without funds: got %v, want ErrInsufficientFunds", err)
	}

	// Everything rolled back: offer still open, no new invoice, no receipts.
	offers, _ := l.Offers(context.Background())
	if len(offers) != 1 {
		t.Fatalf("offer gone after rolled-back purchase")
	}
	held, _ := l.Invoices(as(investor))
	if len(held) != 0 {
		t.Errorf("buyer holds a claim from a rolled-back purchase")
	}
	rcpts, _ := l.Receipts(as(supplier))
	if len(rcpts) != 0 {
		t.Errorf("receipts journaled for a rolled-back purchase")
	}

	vault.Deposit(investor, factoring.USD(900))
	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); err != nil {
		t.Fatalf("BuyInvoice after funding: %v", err)
	}
}

func TestBuyInvoiceRefundsProceedsWhenCommissionTransferFails(t *testing.T) {
	l, vault := newTestLedger(t)
	// Exactly the seller's net at 2% of $9.00: the proceeds leg clears but
	// the $0.18 commission leg cannot.
	vault.Deposit(investor, factoring.USD(882))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))

	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); !errors.Is(err, treasury.ErrInsufficientFunds) {
		t.Fatalf("buy without commission funds: got %v, want ErrInsufficientFunds", err)
	}

	// The proceeds came back: neither party's balance moved.
	if got := vault.Balance(investor, "usd").Amount; got != 882 {
		t.Errorf("buyer balance: got %d, want 882", got)
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 0 {
		t.Errorf("seller balance: got %d, want 0", got)
	}
	if got := vault.Balance(platform, "usd").Amount; got != 0 {
		t.Errorf("platform balance: got %d, want 0", got)
	}

	// And the store rolled back with the funds: offer open, no claim, no
	// receipts.
	offers, _ := l.Offers(context.Background())
	if len(offers) != 1 {
		t.Fatalf("offer gone after rolled-back purchase")
	}
	held, _ := l.Invoices(as(investor))
	if len(held) != 0 {
		t.Errorf("buyer holds a claim from a rolled-back purchase")
	}
	rcpts, _ := l.Receipts(as(supplier))
	if len(rcpts) != 0 {
		t.Errorf("receipts journaled for a rolled-back purchase")
	}

	vault.Deposit(investor, factoring.USD(18))
	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); err != nil {
		t.Fatalf("BuyInvoice after funding the fee: %v", err)
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 882 {
		t.Errorf("seller net after funded purchase: got %d, want 882", got)
	}
	if got := vault.Balance(platform, "usd").Amount; got != 18 {
		t.Errorf("platform cut after funded purchase: got %d, want 18", got)
	}
}

func TestWithdrawOffer(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(customer, factoring.USD(1000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))

	if err := l.WithdrawOffer(as(investor), off.Index); !errors.Is(err, factoring.ErrNotAuthorized) {
		t.Errorf("withdraw by non-seller: got %v, want ErrNotAuthorized", err)
	}
	if err := l.WithdrawOffer(as(supplier), off.Index); err != nil {
		t.Fatalf("WithdrawOffer: %v", err)
	}
	if err := l.WithdrawOffer(as(supplier), off.Index); !errors.Is(err, factoring.ErrInvalidState) {
		t.Errorf("double withdraw: got %v, want ErrInvalidState", err)
	}

	offers, _ := l.Offers(context.Background())
	if len(offers) != 0 {
		t.Errorf("Offers after withdraw: got %d, want 0", len(offers))
	}

	// The claim is payable again.
	if err := l.PayInvoice(as(customer), inv.Index, supplier, inv.Total); err != nil {
		t.Fatalf("PayInvoice after withdraw: %v", err)
	}
}

func TestCommission(t *testing.T) {
	l, vault := newTestLedger(t)
	vault.Deposit(investor, factoring.USD(10000))

	pct, err := l.Commission(context.Background())
	if err != nil {
		t.Fatalf("Commission: %v", err)
	}
	if pct != 2 {
		t.Errorf("default commission: got %d, want 2", pct)
	}

	if err := l.SetCommission(as(supplier), 10); !errors.Is(err, factoring.ErrNotAuthorized) {
		t.Errorf("SetCommission by non-owner: got %v, want ErrNotAuthorized", err)
	}
	if err := l.SetCommission(as(platform), 101); !errors.Is(err, factoring.ErrInvalidInput) {
		t.Errorf("SetCommission out of range: got %v, want ErrInvalidInput", err)
	}
	if err := l.SetCommission(as(platform), 10); err != nil {
		t.Fatalf("SetCommission: %v", err)
	}

	// The new rate applies to the next sale.
	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))
	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); err != nil {
		t.Fatalf("BuyInvoice: %v", err)
	}
	if got := vault.Balance(platform, "usd").Amount; got != 90 {
		t.Errorf("platform cut at 10%%: got %d, want 90", got)
	}
	if got := vault.Balance(supplier, "usd").Amount; got != 810 {
		t.Errorf("seller net at 10%%: got %d, want 810", got)
	}
}

func TestCommissionOption(t *testing.T) {
	l, _ := newTestLedger(t, factoring.WithCommission(5))

	pct, err := l.Commission(context.Background())
	if err != nil {
		t.Fatalf("Commission: %v", err)
	}
	if pct != 5 {
		t.Errorf("commission: got %d, want 5", pct)
	}
}

func TestOverdueCount(t *testing.T) {
	now := time.Unix(dueDate+3600, 0)
	l, _ := newTestLedger(t, factoring.WithClock(func() time.Time { return now }))

	if _, err := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(100)); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if _, err := l.CreateInvoice(as(supplier), dueDate+7200, customer, factoring.USD(100)); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	listed, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(100))
	if _, err := l.SellInvoice(as(supplier), listed.Index, factoring.USD(90)); err != nil {
		t.Fatalf("SellInvoice: %v", err)
	}

	// Past-due open and past-due listed both count; the future one does not.
	count, err := l.OverdueCount(as(supplier))
	if err != nil {
		t.Fatalf("OverdueCount: %v", err)
	}
	if count != 2 {
		t.Errorf("OverdueCount: got %d, want 2", count)
	}
}

// capturePlugin records which events fired.
type capturePlugin struct {
	created int
	sold    int
}

func (p *capturePlugin) Name() string { return "capture" }

func (p *capturePlugin) OnInvoiceCreated(_ context.Context, _ *invoice.Invoice) error {
	p.created++
	return nil
}

func (p *capturePlugin) OnInvoiceSold(_ context.Context, _ *market.Offer, _ *invoice.Invoice) error {
	p.sold++
	return nil
}

func TestPluginEvents(t *testing.T) {
	capture := &capturePlugin{}
	l, vault := newTestLedger(t, factoring.WithPlugin(capture))
	vault.Deposit(investor, factoring.USD(10000))

	inv, _ := l.CreateInvoice(as(supplier), dueDate, customer, factoring.USD(1000))
	off, _ := l.SellInvoice(as(supplier), inv.Index, factoring.USD(900))
	if _, err := l.BuyInvoice(as(investor), off.Index, factoring.USD(900)); err != nil {
		t.Fatalf("BuyInvoice: %v", err)
	}

	// Buying creates the carried-forward invoice but only emits a sold event.
	if capture.created != 1 {
		t.Errorf("created events: got %d, want 1", capture.created)
	}
	if capture.sold != 1 {
		t.Errorf("sold events: got %d, want 1", capture.sold)
	}
}
