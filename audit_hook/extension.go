// Package audithook bridges factoring ledger events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import the
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnInvoiceCreated    = (*Extension)(nil)
	_ plugin.OnInvoiceSplit      = (*Extension)(nil)
	_ plugin.OnInvoicesMerged    = (*Extension)(nil)
	_ plugin.OnInvoiceDeleted    = (*Extension)(nil)
	_ plugin.OnInvoiceSettled    = (*Extension)(nil)
	_ plugin.OnOfferListed       = (*Extension)(nil)
	_ plugin.OnOfferWithdrawn    = (*Extension)(nil)
	_ plugin.OnInvoiceSold       = (*Extension)(nil)
	_ plugin.OnCommissionChanged = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so that this package does not depend on a concrete audit
// trail; callers inject an adapter at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, invoiceID(inv.Index), CategoryLedger,
		"payee", string(inv.Payee),
		"payer", string(inv.Payer),
		"total", inv.Total.String(),
		"due_date", inv.DueDate,
	)
}

// OnInvoiceSplit implements plugin.OnInvoiceSplit.
func (e *Extension) OnInvoiceSplit(ctx context.Context, original *invoice.Invoice, shares []*invoice.Invoice) error {
	indices := make([]uint64, len(shares))
	for i, s := range shares {
		indices[i] = s.Index
	}
	return e.record(ctx, ActionInvoiceSplit, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, invoiceID(original.Index), CategoryLedger,
		"shares", indices,
		"total", original.Total.String(),
	)
}

// OnInvoicesMerged implements plugin.OnInvoicesMerged.
func (e *Extension) OnInvoicesMerged(ctx context.Context, originals []*invoice.Invoice, merged *invoice.Invoice) error {
	indices := make([]uint64, len(originals))
	for i, o := range originals {
		indices[i] = o.Index
	}
	return e.record(ctx, ActionInvoicesMerged, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, invoiceID(merged.Index), CategoryLedger,
		"merged_from", indices,
		"total", merged.Total.String(),
	)
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (e *Extension) OnInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceDeleted, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, invoiceID(inv.Index), CategoryLedger,
		"beneficiary", string(inv.Beneficiary),
	)
}

// OnInvoiceSettled implements plugin.OnInvoiceSettled.
func (e *Extension) OnInvoiceSettled(ctx context.Context, inv *invoice.Invoice, rcpt *payment.Receipt) error {
	return e.record(ctx, ActionInvoiceSettled, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, invoiceID(inv.Index), CategoryPayment,
		"amount", rcpt.Amount.String(),
		"from", string(rcpt.From),
		"to", string(rcpt.To),
		"receipt", rcpt.ID.String(),
	)
}

// ──────────────────────────────────────────────────
// Marketplace hooks
// ──────────────────────────────────────────────────

// OnOfferListed implements plugin.OnOfferListed.
func (e *Extension) OnOfferListed(ctx context.Context, off *market.Offer) error {
	return e.record(ctx, ActionOfferListed, SeverityInfo, OutcomeSuccess,
		ResourceOffer, offerID(off.Index), CategoryMarketplace,
		"invoice", off.InvoiceIndex,
		"seller", string(off.Seller),
		"price", off.Price.String(),
	)
}

// OnOfferWithdrawn implements plugin.OnOfferWithdrawn.
func (e *Extension) OnOfferWithdrawn(ctx context.Context, off *market.Offer) error {
	return e.record(ctx, ActionOfferWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceOffer, offerID(off.Index), CategoryMarketplace,
		"invoice", off.InvoiceIndex,
		"seller", string(off.Seller),
	)
}

// OnInvoiceSold implements plugin.OnInvoiceSold.
func (e *Extension) OnInvoiceSold(ctx context.Context, off *market.Offer, bought *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceSold, SeverityInfo, OutcomeSuccess,
		ResourceOffer, offerID(off.Index), CategoryMarketplace,
		"invoice", bought.Index,
		"seller", string(off.Seller),
		"buyer", string(bought.Beneficiary),
		"price", off.Price.String(),
	)
}

// ──────────────────────────────────────────────────
// Platform hooks
// ──────────────────────────────────────────────────

// OnCommissionChanged implements plugin.OnCommissionChanged.
func (e *Extension) OnCommissionChanged(ctx context.Context, oldPercent, newPercent int) error {
	return e.record(ctx, ActionCommissionChanged, SeverityWarning, OutcomeSuccess,
		ResourceCommission, "", CategoryPlatform,
		"old_percent", oldPercent,
		"new_percent", newPercent,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func invoiceID(index uint64) string { return "invoice/" + strconv.FormatUint(index, 10) }
func offerID(index uint64) string   { return "offer/" + strconv.FormatUint(index, 10) }

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
