// Package invoice defines the invoice record of the factoring ledger.
//
// An invoice is an obligation of a payer to pay a fixed total to the
// invoice's current beneficiary by a due date. Invoices are addressed by a
// permanent numeric index assigned by the ledger store; indices are never
// reused, so a record is soft-deleted by moving it to StatusDeleted rather
// than removed.
package invoice

import (
	"github.com/xraph/factoring/types"
)

// Status is the lifecycle state of an invoice record.
type Status string

const (
	// StatusOpen is a live, payable claim.
	StatusOpen Status = "open"
	// StatusListed is a claim put up for sale on the marketplace. It stays
	// owned by its beneficiary but is not payable or re-listable until the
	// offer is filled or withdrawn.
	StatusListed Status = "listed"
	// StatusSettled is a discharged claim. Settlement is one-way.
	StatusSettled Status = "settled"
	// StatusDeleted marks the slot as logically absent: replaced by a
	// split/merge, removed by its beneficiary, or superseded after a sale.
	// Deleted records are excluded from every listing and their remaining
	// fields must not be interpreted.
	StatusDeleted Status = "deleted"
)

// Invoice is one claim on the ledger.
type Invoice struct {
	types.Entity
	Index       uint64        `json:"index"`
	Payee       types.Address `json:"payee"`       // original issuer, preserved across resale
	Beneficiary types.Address `json:"beneficiary"` // current holder, entitled to payment
	Payer       types.Address `json:"payer"`       // obligor
	Total       types.Money   `json:"total"`
	DueDate     int64         `json:"due_date"` // unix seconds; 0 is reserved
	Status      Status        `json:"status"`
	ResellPrice types.Money   `json:"resell_price,omitempty"` // zero unless listed
}

// Payable pairs an unsettled invoice with the address payment must be routed
// to. The beneficiary is part of the stored record, but payers obtain it
// through this view and present it back on payment so the ledger can detect
// stale or forged views.
type Payable struct {
	Invoice     *Invoice      `json:"invoice"`
	Beneficiary types.Address `json:"beneficiary"`
}

// Collectible reports whether the record represents a live claim held by its
// beneficiary (open or listed, not yet settled).
func (inv *Invoice) Collectible() bool {
	return inv.Status == StatusOpen || inv.Status == StatusListed
}

// Overdue reports whether the claim is collectible and past due at the given
// instant (unix seconds, strict comparison).
func (inv *Invoice) Overdue(now int64) bool {
	return inv.Collectible() && inv.DueDate < now
}

// ListOpts filters store listings.
type ListOpts struct {
	Beneficiary types.Address // only invoices held by this address
	Payer       types.Address // only invoices owed by this address
	Status      Status        // only invoices in this state
	// IncludeDeleted also returns StatusDeleted slots. Off for every
	// caller-facing view; used by store tests and migrations.
	IncludeDeleted bool
}
