// Package store defines the storage contract for the factoring ledger.
//
// The ledger is a single shared state machine: two append-only-indexed
// tables (invoices, offers), two monotonic counters, one commission scalar,
// and the receipt journal. Backends must give every Update call
// all-or-nothing semantics — a failed transition leaves no partial write.
package store

import (
	"context"

	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
)

// Store is the durable home of all ledger state.
//
// The execution substrate serializes external calls, so backends never see
// two concurrent Updates for the same logical transition; they must still be
// safe for concurrent use because reads may overlap.
type Store interface {
	// Update runs fn inside a read-write transaction. If fn returns an
	// error, every write made through the Tx is discarded and the error is
	// returned unchanged. Counters advance only on commit: a rolled-back
	// creation does not burn an index.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn inside a read-only transaction. Writes through the Tx
	// are a programming error; backends may reject or discard them.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Migrate prepares the backend: creates tables and seeds the
	// commission rate if the store is empty.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Tx is one atomic view of the ledger. All methods operate on the
// transaction's snapshot; the context is the one passed to Update/View.
type Tx interface {
	// CreateInvoice assigns the next invoice index, stamps it on the
	// record, and stores it. Indices start at 1 and advance by exactly one
	// per committed creation; they are never reused.
	CreateInvoice(inv *invoice.Invoice) (uint64, error)

	// GetInvoice returns the record at index. Fails with ErrNotFound if
	// the index was never allocated; a soft-deleted record is returned
	// normally with StatusDeleted.
	GetInvoice(index uint64) (*invoice.Invoice, error)

	// PutInvoice overwrites the record at inv.Index. Fails with
	// ErrNotFound for an unallocated index.
	PutInvoice(inv *invoice.Invoice) error

	// ListInvoices returns records matching opts in creation order.
	// Deleted slots are excluded unless opts.IncludeDeleted.
	ListInvoices(opts invoice.ListOpts) ([]*invoice.Invoice, error)

	// CreateOffer assigns the next offer index, stamps it, and stores the
	// offer. Same counter contract as invoices.
	CreateOffer(off *market.Offer) (uint64, error)

	// GetOffer returns the offer at index, ErrNotFound if unallocated.
	GetOffer(index uint64) (*market.Offer, error)

	// PutOffer overwrites the offer at off.Index.
	PutOffer(off *market.Offer) error

	// ListOffers returns offers matching opts in creation order. Closed
	// offers (filled, withdrawn, voided) are excluded unless
	// opts.IncludeClosed.
	ListOffers(opts market.ListOpts) ([]*market.Offer, error)

	// Commission returns the current platform commission percentage.
	Commission() (int, error)

	// SetCommission replaces the commission percentage for future sales.
	SetCommission(percent int) error

	// AppendReceipt appends one entry to the payment journal.
	AppendReceipt(rcpt *payment.Receipt) error

	// ListReceipts returns journal entries matching opts in append order.
	ListReceipts(opts payment.ListOpts) ([]*payment.Receipt, error)
}
