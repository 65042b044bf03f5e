// Package market defines marketplace offers: listings of unsettled invoices
// for resale at a discount.
package market

import (
	"github.com/xraph/factoring/types"
)

// Status is the lifecycle state of an offer record.
type Status string

const (
	// StatusOpen is a live listing, visible to buyers.
	StatusOpen Status = "open"
	// StatusFilled marks a purchased offer. One-way.
	StatusFilled Status = "filled"
	// StatusWithdrawn marks a listing the seller took back before purchase.
	StatusWithdrawn Status = "withdrawn"
	// StatusVoided marks a listing cancelled because the underlying invoice
	// was deleted by its beneficiary.
	StatusVoided Status = "voided"
)

// Offer is one marketplace listing. Offers are addressed by their own
// permanent numeric index, separate from the invoice index space.
type Offer struct {
	types.Entity
	Index        uint64        `json:"index"`
	InvoiceIndex uint64        `json:"invoice_index"`
	Seller       types.Address `json:"seller"` // beneficiary of the invoice at listing time
	Price        types.Money   `json:"price"`
	Status       Status        `json:"status"`
}

// Open reports whether the offer can still be bought or withdrawn.
func (o *Offer) Open() bool { return o.Status == StatusOpen }

// ListOpts filters store listings.
type ListOpts struct {
	Seller       types.Address // only offers listed by this address
	InvoiceIndex uint64        // only offers on this invoice (0 = any)
	Status       Status        // only offers in this state
	// IncludeClosed also returns filled/withdrawn/voided offers.
	IncludeClosed bool
}
