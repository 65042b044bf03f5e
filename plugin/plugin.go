// Package plugin provides an extensible hook system for the factoring ledger.
// Plugins can observe lifecycle events to extend functionality: audit trails,
// metrics, notifications.
//
// Hooks fire after the state transition they describe has committed; a hook
// failure is logged and never unwinds the transition.
package plugin

import (
	"context"

	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. The ledger is passed as
// interface{} to avoid an import cycle with the root package.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger interface{}) error
}

// OnShutdown is called when the ledger is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called when a new invoice is created.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceSplit is called when an invoice is split into shares.
type OnInvoiceSplit interface {
	Plugin
	OnInvoiceSplit(ctx context.Context, original *invoice.Invoice, shares []*invoice.Invoice) error
}

// OnInvoicesMerged is called when invoices are consolidated into one.
type OnInvoicesMerged interface {
	Plugin
	OnInvoicesMerged(ctx context.Context, originals []*invoice.Invoice, merged *invoice.Invoice) error
}

// OnInvoiceDeleted is called when an invoice is soft-deleted by its
// beneficiary.
type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceSettled is called when an invoice is paid in full.
type OnInvoiceSettled interface {
	Plugin
	OnInvoiceSettled(ctx context.Context, inv *invoice.Invoice, rcpt *payment.Receipt) error
}

// ──────────────────────────────────────────────────
// Marketplace hooks
// ──────────────────────────────────────────────────

// OnOfferListed is called when an invoice is put up for sale.
type OnOfferListed interface {
	Plugin
	OnOfferListed(ctx context.Context, off *market.Offer) error
}

// OnOfferWithdrawn is called when a seller takes a listing back.
type OnOfferWithdrawn interface {
	Plugin
	OnOfferWithdrawn(ctx context.Context, off *market.Offer) error
}

// OnInvoiceSold is called when an offer is bought. bought is the fresh
// invoice record carrying the obligation forward under the buyer.
type OnInvoiceSold interface {
	Plugin
	OnInvoiceSold(ctx context.Context, off *market.Offer, bought *invoice.Invoice) error
}

// ──────────────────────────────────────────────────
// Platform hooks
// ──────────────────────────────────────────────────

// OnCommissionChanged is called when the owner changes the commission rate.
type OnCommissionChanged interface {
	Plugin
	OnCommissionChanged(ctx context.Context, oldPercent, newPercent int) error
}
