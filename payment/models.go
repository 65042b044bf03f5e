// Package payment defines the receipt journal: one entry per fund movement
// the ledger instructed the treasury to perform.
package payment

import (
	"github.com/xraph/factoring/id"
	"github.com/xraph/factoring/types"
)

// Kind classifies what a fund movement paid for.
type Kind string

const (
	// KindSettlement is a payer discharging an invoice to its beneficiary.
	KindSettlement Kind = "settlement"
	// KindProceeds is a buyer paying a seller for a marketplace offer,
	// net of commission.
	KindProceeds Kind = "proceeds"
	// KindCommission is the platform's cut of a marketplace sale.
	KindCommission Kind = "commission"
)

// Receipt records one fund movement. Receipts are append-only: they are
// journaled in the same atomic transition as the state change they belong
// to, so a rolled-back operation leaves no receipt behind.
type Receipt struct {
	types.Entity
	ID           id.ReceiptID  `json:"id"`
	Kind         Kind          `json:"kind"`
	From         types.Address `json:"from"`
	To           types.Address `json:"to"`
	Amount       types.Money   `json:"amount"`
	InvoiceIndex uint64        `json:"invoice_index"`
	OfferIndex   uint64        `json:"offer_index,omitempty"` // 0 unless a marketplace sale
}

// ListOpts filters store listings.
type ListOpts struct {
	Party types.Address // receipts where this address is From or To
	Kind  Kind          // only receipts of this kind
}
