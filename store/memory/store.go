// Package memory provides an in-memory ledger store. It is the reference
// backend: authoritative for semantics and the default in tests.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/factoring"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// DefaultCommission is the commission percentage a fresh store starts with.
const DefaultCommission = 2

// state is the full ledger content. Records live in slices indexed by
// (record index - 1), so indices are permanent and never reused: deletion
// flips the record's status, it never compacts the slice.
type state struct {
	invoices   []invoice.Invoice
	offers     []market.Offer
	receipts   []payment.Receipt
	commission int
}

// clone deep-copies the state. Update transactions mutate a clone and swap
// it in on commit, which is what makes a failed transition leave no trace.
func (s *state) clone() *state {
	c := &state{
		invoices:   make([]invoice.Invoice, len(s.invoices)),
		offers:     make([]market.Offer, len(s.offers)),
		receipts:   make([]payment.Receipt, len(s.receipts)),
		commission: s.commission,
	}
	copy(c.invoices, s.invoices)
	copy(c.offers, s.offers)
	copy(c.receipts, s.receipts)
	return c
}

// Store implements store.Store in process memory.
type Store struct {
	mu     sync.RWMutex
	state  *state
	closed bool
}

// New creates an empty in-memory store seeded with the default commission.
func New() *Store {
	return &Store{state: &state{commission: DefaultCommission}}
}

// Update runs fn against a clone of the state and commits the clone only if
// fn returns nil.
func (s *Store) Update(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return factoring.ErrStoreClosed
	}

	next := s.state.clone()
	if err := fn(&tx{state: next}); err != nil {
		return err
	}

	s.state = next
	return nil
}

// View runs fn against the current state. The tx hands out copies, so fn
// cannot mutate live records; writes through the Tx are discarded.
func (s *Store) View(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return factoring.ErrStoreClosed
	}
	// Snapshot under the read lock; fn runs on the clone so a slow reader
	// never blocks writers.
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(&tx{state: snapshot})
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return factoring.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Further calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// tx implements store.Tx over a private state clone.
type tx struct {
	state *state
}

func (t *tx) CreateInvoice(inv *invoice.Invoice) (uint64, error) {
	inv.Index = uint64(len(t.state.invoices)) + 1
	t.state.invoices = append(t.state.invoices, *inv)
	return inv.Index, nil
}

func (t *tx) GetInvoice(index uint64) (*invoice.Invoice, error) {
	if index == 0 || index > uint64(len(t.state.invoices)) {
		return nil, factoring.ErrNotFound
	}
	rec := t.state.invoices[index-1]
	return &rec, nil
}

func (t *tx) PutInvoice(inv *invoice.Invoice) error {
	if inv.Index == 0 || inv.Index > uint64(len(t.state.invoices)) {
		return factoring.ErrNotFound
	}
	t.state.invoices[inv.Index-1] = *inv
	return nil
}

func (t *tx) ListInvoices(opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	result := make([]*invoice.Invoice, 0)
	for i := range t.state.invoices {
		rec := t.state.invoices[i]
		if rec.Status == invoice.StatusDeleted && !opts.IncludeDeleted {
			continue
		}
		if !opts.Beneficiary.IsZero() && rec.Beneficiary != opts.Beneficiary {
			continue
		}
		if !opts.Payer.IsZero() && rec.Payer != opts.Payer {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		result = append(result, &rec)
	}
	return result, nil
}

func (t *tx) CreateOffer(off *market.Offer) (uint64, error) {
	off.Index = uint64(len(t.state.offers)) + 1
	t.state.offers = append(t.state.offers, *off)
	return off.Index, nil
}

func (t *tx) GetOffer(index uint64) (*market.Offer, error) {
	if index == 0 || index > uint64(len(t.state.offers)) {
		return nil, factoring.ErrNotFound
	}
	rec := t.state.offers[index-1]
	return &rec, nil
}

func (t *tx) PutOffer(off *market.Offer) error {
	if off.Index == 0 || off.Index > uint64(len(t.state.offers)) {
		return factoring.ErrNotFound
	}
	t.state.offers[off.Index-1] = *off
	return nil
}

func (t *tx) ListOffers(opts market.ListOpts) ([]*market.Offer, error) {
	result := make([]*market.Offer, 0)
	for i := range t.state.offers {
		rec := t.state.offers[i]
		if !rec.Open() && !opts.IncludeClosed {
			continue
		}
		if !opts.Seller.IsZero() && rec.Seller != opts.Seller {
			continue
		}
		if opts.InvoiceIndex != 0 && rec.InvoiceIndex != opts.InvoiceIndex {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		result = append(result, &rec)
	}
	return result, nil
}

func (t *tx) Commission() (int, error) {
	return t.state.commission, nil
}

func (t *tx) SetCommission(percent int) error {
	t.state.commission = percent
	return nil
}

func (t *tx) AppendReceipt(rcpt *payment.Receipt) error {
	t.state.receipts = append(t.state.receipts, *rcpt)
	return nil
}

func (t *tx) ListReceipts(opts payment.ListOpts) ([]*payment.Receipt, error) {
	result := make([]*payment.Receipt, 0)
	for i := range t.state.receipts {
		rec := t.state.receipts[i]
		if !opts.Party.IsZero() && rec.From != opts.Party && rec.To != opts.Party {
			continue
		}
		if opts.Kind != "" && rec.Kind != opts.Kind {
			continue
		}
		result = append(result, &rec)
	}
	return result, nil
}
