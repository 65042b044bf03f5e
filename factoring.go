package factoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/factoring/id"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/plugin"
	"github.com/xraph/factoring/store"
	"github.com/xraph/factoring/treasury"
	"github.com/xraph/factoring/types"
)

// Ledger is the invoice-factoring engine: a single shared state machine that
// records invoices owed by a payer to a payee, lets beneficiaries subdivide
// or consolidate claims, lets payers discharge them by payment, and lets
// beneficiaries resell unpaid claims at a discount with a platform
// commission.
//
// Every exported method is one atomic state transition. The execution
// substrate serializes calls and supplies the verified caller address on the
// context (see WithCaller); the treasury moves funds and either fully
// succeeds or fails, in which case the whole transition is rolled back.
type Ledger struct {
	store   store.Store
	bank    treasury.Transferer
	owner   types.Address
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	currency   string
	commission *int // initial rate override, applied at Start
	now        func() time.Time
}

// New creates a new Ledger over the given store. The bank is the external
// value-transfer primitive; owner is the platform address commission is paid
// to, and the only address allowed to change the commission rate.
func New(s store.Store, bank treasury.Transferer, owner types.Address, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		bank:     bank,
		owner:    owner,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		currency: "usd",
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCurrency sets the single currency the ledger denominates claims in.
func WithCurrency(currency string) Option {
	return func(l *Ledger) {
		l.currency = currency
	}
}

// WithCommission overrides the commission percentage the store is seeded
// with. Applied once at Start; later changes go through SetCommission.
func WithCommission(percent int) Option {
	return func(l *Ledger) {
		l.commission = &percent
	}
}

// WithClock sets the time source used for overdue counting. Tests inject a
// fixed clock here.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// ──────────────────────────────────────────────────
// Caller identity
// ──────────────────────────────────────────────────

type ctxKey int

const callerKey ctxKey = iota

// WithCaller returns a context carrying the verified caller address. The
// execution substrate attaches it before dispatching a call; tests do the
// same directly.
func WithCaller(ctx context.Context, addr types.Address) context.Context {
	return context.WithValue(ctx, callerKey, addr)
}

// CallerFromContext extracts the caller address, if any.
func CallerFromContext(ctx context.Context) (types.Address, bool) {
	addr, ok := ctx.Value(callerKey).(types.Address)
	return addr, ok && !addr.IsZero()
}

// caller extracts the caller or fails the operation.
func (l *Ledger) caller(ctx context.Context) (types.Address, error) {
	addr, ok := CallerFromContext(ctx)
	if !ok {
		return types.Nobody, notAuthorized("no caller on context")
	}
	return addr, nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start prepares the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	if l.commission != nil {
		pct := *l.commission
		if pct < 0 || pct > 100 {
			return invalidInput("commission %d%% out of range", pct)
		}
		err := l.store.Update(ctx, func(tx store.Tx) error {
			return tx.SetCommission(pct)
		})
		if err != nil {
			return err
		}
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("factoring ledger started",
		"owner", l.owner,
		"currency", l.currency,
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Owner returns the platform owner address.
func (l *Ledger) Owner() types.Address { return l.owner }

// ──────────────────────────────────────────────────
// Invoice lifecycle
// ──────────────────────────────────────────────────

// CreateInvoice records a new claim: the caller becomes payee and
// beneficiary, payer owes total by dueDate (unix seconds). No funds move.
func (l *Ledger) CreateInvoice(ctx context.Context, dueDate int64, payer types.Address, total types.Money) (*invoice.Invoice, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	if dueDate == 0 {
		return nil, invalidInput("due date 0 is reserved")
	}
	if payer.IsZero() {
		return nil, invalidInput("payer address required")
	}
	if !total.IsPositive() {
		return nil, invalidInput("total must be positive, got %v", total)
	}
	if total.Currency != l.currency {
		return nil, invalidInput("total in %q, ledger denominates in %q", total.Currency, l.currency)
	}

	inv := &invoice.Invoice{
		Entity:      types.NewEntity(),
		Payee:       caller,
		Beneficiary: caller,
		Payer:       payer,
		Total:       total,
		DueDate:     dueDate,
		Status:      invoice.StatusOpen,
	}

	err = l.store.Update(ctx, func(tx store.Tx) error {
		_, err := tx.CreateInvoice(inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitInvoiceCreated(ctx, inv)
	return inv, nil
}

// SplitInvoice divides an open claim into n new claims whose totals sum
// exactly to the original's; the first share absorbs the integer-division
// remainder. The original is soft-deleted in the same transition.
func (l *Ledger) SplitInvoice(ctx context.Context, index uint64, n int) ([]*invoice.Invoice, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	if n < 2 {
		return nil, invalidInput("split count %d, need at least 2", n)
	}

	var (
		original *invoice.Invoice
		shares   []*invoice.Invoice
	)
	err = l.store.Update(ctx, func(tx store.Tx) error {
		original, err = tx.GetInvoice(index)
		if err != nil {
			return err
		}
		if original.Beneficiary != caller {
			return notAuthorized("invoice %d is not held by caller", index)
		}
		if original.Status != invoice.StatusOpen {
			return invalidState("invoice %d is %s", index, original.Status)
		}

		share := original.Total.Share(n)
		if !share.IsPositive() {
			return invalidInput("total %v cannot be split %d ways", original.Total, n)
		}

		shares = make([]*invoice.Invoice, 0, n)
		for i := 0; i < n; i++ {
			part := share
			if i == 0 {
				part = share.Add(original.Total.Remainder(n))
			}
			child := &invoice.Invoice{
				Entity:      types.NewEntity(),
				Payee:       original.Payee,
				Beneficiary: caller,
				Payer:       original.Payer,
				Total:       part,
				DueDate:     original.DueDate,
				Status:      invoice.StatusOpen,
			}
			if _, err := tx.CreateInvoice(child); err != nil {
				return err
			}
			shares = append(shares, child)
		}

		original.Status = invoice.StatusDeleted
		original.Touch()
		return tx.PutInvoice(original)
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitInvoiceSplit(ctx, original, shares)
	return shares, nil
}

// MergeInvoices consolidates two or more open claims held by the caller into
// one claim whose total is their sum. All inputs must share payer and due
// date; they are soft-deleted in the same transition.
func (l *Ledger) MergeInvoices(ctx context.Context, indices []uint64) (*invoice.Invoice, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	if len(indices) < 2 {
		return nil, invalidInput("merge needs at least 2 invoices, got %d", len(indices))
	}
	seen := make(map[uint64]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			return nil, invalidInput("invoice %d listed twice", idx)
		}
		seen[idx] = true
	}

	var (
		originals []*invoice.Invoice
		merged    *invoice.Invoice
	)
	err = l.store.Update(ctx, func(tx store.Tx) error {
		originals = make([]*invoice.Invoice, 0, len(indices))
		for _, idx := range indices {
			inv, err := tx.GetInvoice(idx)
			if err != nil {
				return err
			}
			if inv.Beneficiary != caller {
				return notAuthorized("invoice %d is not held by caller", idx)
			}
			if inv.Status != invoice.StatusOpen {
				return invalidState("invoice %d is %s", idx, inv.Status)
			}
			originals = append(originals, inv)
		}

		// Claims against different obligors or due dates describe
		// different obligations; consolidating them would corrupt the
		// model.
		first := originals[0]
		total := first.Total
		for _, inv := range originals[1:] {
			if inv.Payer != first.Payer {
				return invalidState("invoice %d owed by %s, invoice %d owed by %s",
					first.Index, first.Payer, inv.Index, inv.Payer)
			}
			if inv.DueDate != first.DueDate {
				return invalidState("invoice %d due %d, invoice %d due %d",
					first.Index, first.DueDate, inv.Index, inv.DueDate)
			}
			total = total.Add(inv.Total)
		}

		merged = &invoice.Invoice{
			Entity:      types.NewEntity(),
			Payee:       caller,
			Beneficiary: caller,
			Payer:       first.Payer,
			Total:       total,
			DueDate:     first.DueDate,
			Status:      invoice.StatusOpen,
		}
		if _, err := tx.CreateInvoice(merged); err != nil {
			return err
		}

		for _, inv := range originals {
			inv.Status = invoice.StatusDeleted
			inv.Touch()
			if err := tx.PutInvoice(inv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitInvoicesMerged(ctx, originals, merged)
	return merged, nil
}

// DeleteInvoice soft-deletes a claim held by the caller. A settled invoice
// is history and cannot be deleted. An outstanding listing on the invoice is
// voided in the same transition so no offer dangles.
func (l *Ledger) DeleteInvoice(ctx context.Context, index uint64) error {
	caller, err := l.caller(ctx)
	if err != nil {
		return err
	}

	var deleted *invoice.Invoice
	err = l.store.Update(ctx, func(tx store.Tx) error {
		inv, err := tx.GetInvoice(index)
		if err != nil {
			return err
		}
		if inv.Beneficiary != caller {
			return notAuthorized("invoice %d is not held by caller", index)
		}
		if !inv.Collectible() {
			return invalidState("invoice %d is %s", index, inv.Status)
		}

		offers, err := tx.ListOffers(market.ListOpts{InvoiceIndex: index})
		if err != nil {
			return err
		}
		for _, off := range offers {
			off.Status = market.StatusVoided
			off.Touch()
			if err := tx.PutOffer(off); err != nil {
				return err
			}
		}

		inv.Status = invoice.StatusDeleted
		inv.Touch()
		deleted = inv
		return tx.PutInvoice(inv)
	})
	if err != nil {
		return err
	}

	l.plugins.EmitInvoiceDeleted(ctx, deleted)
	return nil
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// PayInvoice discharges an open claim. Callable by anyone but economically
// meaningful only for the payer. The amount must equal the invoice total
// exactly, and beneficiary must match the stored beneficiary — callers
// obtain it from UnsettledInvoices, and the re-validation rejects stale or
// forged views that would misdirect payment.
//
// The record is marked settled before funds move; if the transfer fails the
// whole transition, settled flag included, is rolled back.
func (l *Ledger) PayInvoice(ctx context.Context, index uint64, beneficiary types.Address, amount types.Money) error {
	caller, err := l.caller(ctx)
	if err != nil {
		return err
	}

	var (
		settled *invoice.Invoice
		rcpt    *payment.Receipt
	)
	err = l.store.Update(ctx, func(tx store.Tx) error {
		inv, err := tx.GetInvoice(index)
		if err != nil {
			return err
		}
		if inv.Status != invoice.StatusOpen {
			return invalidState("invoice %d is %s", index, inv.Status)
		}
		if !amount.Equal(inv.Total) {
			return invalidInput("payment %v does not match total %v", amount, inv.Total)
		}
		if beneficiary != inv.Beneficiary {
			return invalidInput("beneficiary %s does not match invoice %d", beneficiary, index)
		}

		inv.Status = invoice.StatusSettled
		inv.Touch()
		if err := tx.PutInvoice(inv); err != nil {
			return err
		}

		rcpt = &payment.Receipt{
			Entity:       types.NewEntity(),
			ID:           id.NewReceiptID(),
			Kind:         payment.KindSettlement,
			From:         caller,
			To:           inv.Beneficiary,
			Amount:       amount,
			InvoiceIndex: inv.Index,
		}
		if err := tx.AppendReceipt(rcpt); err != nil {
			return err
		}
		settled = inv

		// State is updated; the external transfer comes last. Its
		// failure rolls back everything above.
		return l.bank.Transfer(ctx, caller, inv.Beneficiary, amount)
	})
	if err != nil {
		return err
	}

	l.logger.Debug("invoice settled",
		"invoice", settled.Index,
		"amount", amount,
		"beneficiary", settled.Beneficiary,
	)
	l.plugins.EmitInvoiceSettled(ctx, settled, rcpt)
	return nil
}

// ──────────────────────────────────────────────────
// Marketplace
// ──────────────────────────────────────────────────

// SellInvoice lists an open claim held by the caller for resale. While
// listed the invoice stays owned but is not payable or re-listable; it
// surfaces through Offers instead of Invoices until bought or withdrawn.
func (l *Ledger) SellInvoice(ctx context.Context, index uint64, price types.Money) (*market.Offer, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	if !price.IsPositive() {
		return nil, invalidInput("resell price must be positive, got %v", price)
	}
	if price.Currency != l.currency {
		return nil, invalidInput("price in %q, ledger denominates in %q", price.Currency, l.currency)
	}

	var off *market.Offer
	err = l.store.Update(ctx, func(tx store.Tx) error {
		inv, err := tx.GetInvoice(index)
		if err != nil {
			return err
		}
		if inv.Beneficiary != caller {
			return notAuthorized("invoice %d is not held by caller", index)
		}
		if inv.Status != invoice.StatusOpen {
			return invalidState("invoice %d is %s", index, inv.Status)
		}

		inv.Status = invoice.StatusListed
		inv.ResellPrice = price
		inv.Touch()
		if err := tx.PutInvoice(inv); err != nil {
			return err
		}

		off = &market.Offer{
			Entity:       types.NewEntity(),
			InvoiceIndex: inv.Index,
			Seller:       caller,
			Price:        price,
			Status:       market.StatusOpen,
		}
		_, err = tx.CreateOffer(off)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.plugins.EmitOfferListed(ctx, off)
	return off, nil
}

// WithdrawOffer takes an open listing back. The underlying invoice becomes
// payable again.
func (l *Ledger) WithdrawOffer(ctx context.Context, offerIndex uint64) error {
	caller, err := l.caller(ctx)
	if err != nil {
		return err
	}

	var withdrawn *market.Offer
	err = l.store.Update(ctx, func(tx store.Tx) error {
		off, err := tx.GetOffer(offerIndex)
		if err != nil {
			return err
		}
		if off.Seller != caller {
			return notAuthorized("offer %d was not listed by caller", offerIndex)
		}
		if !off.Open() {
			return invalidState("offer %d is %s", offerIndex, off.Status)
		}

		inv, err := tx.GetInvoice(off.InvoiceIndex)
		if err != nil {
			return err
		}
		inv.Status = invoice.StatusOpen
		inv.ResellPrice = types.Money{}
		inv.Touch()
		if err := tx.PutInvoice(inv); err != nil {
			return err
		}

		off.Status = market.StatusWithdrawn
		off.Touch()
		withdrawn = off
		return tx.PutOffer(off)
	})
	if err != nil {
		return err
	}

	l.plugins.EmitOfferWithdrawn(ctx, withdrawn)
	return nil
}

// BuyInvoice purchases an open offer. The caller pays exactly the asking
// price; the platform commission is deducted from the seller's proceeds.
// The claim carries forward under the buyer as a fresh invoice record (new
// index, same payee, payer, total and due date), so it disappears from the
// seller's listings and appears in the buyer's.
//
// Both transfers (proceeds to the seller, commission to the owner) follow
// the same state-before-transfer, all-or-nothing discipline as settlement.
func (l *Ledger) BuyInvoice(ctx context.Context, offerIndex uint64, amount types.Money) (*invoice.Invoice, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	var (
		filled *market.Offer
		bought *invoice.Invoice
	)
	err = l.store.Update(ctx, func(tx store.Tx) error {
		off, err := tx.GetOffer(offerIndex)
		if err != nil {
			return err
		}
		if !off.Open() {
			return invalidState("offer %d is %s", offerIndex, off.Status)
		}
		if !amount.Equal(off.Price) {
			return invalidInput("payment %v does not match price %v", amount, off.Price)
		}

		listed, err := tx.GetInvoice(off.InvoiceIndex)
		if err != nil {
			return err
		}
		if listed.Status != invoice.StatusListed {
			return invalidState("invoice %d is %s", listed.Index, listed.Status)
		}

		pct, err := tx.Commission()
		if err != nil {
			return err
		}
		fee := off.Price.Percent(pct)
		proceeds := off.Price.Subtract(fee)

		off.Status = market.StatusFilled
		off.Touch()
		if err := tx.PutOffer(off); err != nil {
			return err
		}

		listed.Status = invoice.StatusDeleted
		listed.Touch()
		if err := tx.PutInvoice(listed); err != nil {
			return err
		}

		bought = &invoice.Invoice{
			Entity:      types.NewEntity(),
			Payee:       listed.Payee,
			Beneficiary: caller,
			Payer:       listed.Payer,
			Total:       listed.Total,
			DueDate:     listed.DueDate,
			Status:      invoice.StatusOpen,
		}
		if _, err := tx.CreateInvoice(bought); err != nil {
			return err
		}

		if proceeds.IsPositive() {
			if err := tx.AppendReceipt(&payment.Receipt{
				Entity:       types.NewEntity(),
				ID:           id.NewReceiptID(),
				Kind:         payment.KindProceeds,
				From:         caller,
				To:           off.Seller,
				Amount:       proceeds,
				InvoiceIndex: bought.Index,
				OfferIndex:   off.Index,
			}); err != nil {
				return err
			}
		}
		if fee.IsPositive() {
			if err := tx.AppendReceipt(&payment.Receipt{
				Entity:       types.NewEntity(),
				ID:           id.NewReceiptID(),
				Kind:         payment.KindCommission,
				From:         caller,
				To:           l.owner,
				Amount:       fee,
				InvoiceIndex: bought.Index,
				OfferIndex:   off.Index,
			}); err != nil {
				return err
			}
		}
		filled = off

		// State is updated; the external transfers come last. Either
		// failure rolls back everything above — and the transfers must
		// land as a unit, so if the commission leg fails after the
		// proceeds moved, the proceeds are sent back before returning.
		if proceeds.IsPositive() {
			if err := l.bank.Transfer(ctx, caller, off.Seller, proceeds); err != nil {
				return err
			}
		}
		if fee.IsPositive() {
			if err := l.bank.Transfer(ctx, caller, l.owner, fee); err != nil {
				if proceeds.IsPositive() {
					if refundErr := l.bank.Transfer(ctx, off.Seller, caller, proceeds); refundErr != nil {
						l.logger.Error("refund of sale proceeds failed, funds stranded",
							"offer", off.Index,
							"seller", off.Seller,
							"buyer", caller,
							"proceeds", proceeds,
							"error", refundErr,
						)
						return fmt.Errorf("%w (refund of %v to buyer also failed: %v)", err, proceeds, refundErr)
					}
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("invoice sold",
		"offer", filled.Index,
		"invoice", bought.Index,
		"price", amount,
		"buyer", caller,
		"seller", filled.Seller,
	)
	l.plugins.EmitInvoiceSold(ctx, filled, bought)
	return bought, nil
}

// ──────────────────────────────────────────────────
// Commission
// ──────────────────────────────────────────────────

// Commission returns the current platform commission percentage.
func (l *Ledger) Commission(ctx context.Context) (int, error) {
	var pct int
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		pct, err = tx.Commission()
		return err
	})
	return pct, err
}

// SetCommission changes the commission percentage for future sales; filled
// offers are never recomputed. Owner only.
func (l *Ledger) SetCommission(ctx context.Context, percent int) error {
	caller, err := l.caller(ctx)
	if err != nil {
		return err
	}
	if caller != l.owner {
		return notAuthorized("commission is owner-settable only")
	}
	if percent < 0 || percent > 100 {
		return invalidInput("commission %d%% out of range", percent)
	}

	var old int
	err = l.store.Update(ctx, func(tx store.Tx) error {
		old, err = tx.Commission()
		if err != nil {
			return err
		}
		return tx.SetCommission(percent)
	})
	if err != nil {
		return err
	}

	l.plugins.EmitCommissionChanged(ctx, old, percent)
	return nil
}

// ──────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────

// Invoices returns every claim currently held by the caller, settled ones
// included, in creation order. Listed claims are excluded — they surface
// through Offers until bought or withdrawn.
func (l *Ledger) Invoices(ctx context.Context) ([]*invoice.Invoice, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	var result []*invoice.Invoice
	err = l.store.View(ctx, func(tx store.Tx) error {
		held, err := tx.ListInvoices(invoice.ListOpts{Beneficiary: caller})
		if err != nil {
			return err
		}
		result = make([]*invoice.Invoice, 0, len(held))
		for _, inv := range held {
			if inv.Status == invoice.StatusListed {
				continue
			}
			result = append(result, inv)
		}
		return nil
	})
	return result, err
}

// UnsettledInvoices returns every open claim the caller owes, each paired
// with the beneficiary payment must be routed to — which is not the payee
// once the claim has been resold.
func (l *Ledger) UnsettledInvoices(ctx context.Context) ([]*invoice.Payable, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	var result []*invoice.Payable
	err = l.store.View(ctx, func(tx store.Tx) error {
		owed, err := tx.ListInvoices(invoice.ListOpts{Payer: caller, Status: invoice.StatusOpen})
		if err != nil {
			return err
		}
		result = make([]*invoice.Payable, 0, len(owed))
		for _, inv := range owed {
			result = append(result, &invoice.Payable{Invoice: inv, Beneficiary: inv.Beneficiary})
		}
		return nil
	})
	return result, err
}

// OverdueCount returns how many of the caller's collectible claims are past
// due at the ledger's clock.
func (l *Ledger) OverdueCount(ctx context.Context) (int, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return 0, err
	}

	now := l.now().Unix()
	var count int
	err = l.store.View(ctx, func(tx store.Tx) error {
		held, err := tx.ListInvoices(invoice.ListOpts{Beneficiary: caller})
		if err != nil {
			return err
		}
		for _, inv := range held {
			if inv.Overdue(now) {
				count++
			}
		}
		return nil
	})
	return count, err
}

// Offers returns every open marketplace listing.
func (l *Ledger) Offers(ctx context.Context) ([]*market.Offer, error) {
	var result []*market.Offer
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		result, err = tx.ListOffers(market.ListOpts{})
		return err
	})
	return result, err
}

// Receipts returns every journaled fund movement the caller was a party to,
// in append order.
func (l *Ledger) Receipts(ctx context.Context) ([]*payment.Receipt, error) {
	caller, err := l.caller(ctx)
	if err != nil {
		return nil, err
	}

	var result []*payment.Receipt
	err = l.store.View(ctx, func(tx store.Tx) error {
		result, err = tx.ListReceipts(payment.ListOpts{Party: caller})
		return err
	})
	return result, err
}
