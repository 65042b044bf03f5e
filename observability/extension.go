// Package observability provides a metrics extension for the factoring
// ledger that records lifecycle event counts via an injected MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSplit      = (*MetricsExtension)(nil)
	_ plugin.OnInvoicesMerged    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSettled    = (*MetricsExtension)(nil)
	_ plugin.OnOfferListed       = (*MetricsExtension)(nil)
	_ plugin.OnOfferWithdrawn    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSold       = (*MetricsExtension)(nil)
	_ plugin.OnCommissionChanged = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a ledger plugin to automatically track factoring metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoiceCreated Counter
	InvoiceSplit   Counter
	InvoicesMerged Counter
	InvoiceDeleted Counter
	InvoiceSettled Counter
	InvoiceTotal   Histogram
	SplitFanout    Histogram

	// Marketplace metrics
	OfferListed    Counter
	OfferWithdrawn Counter
	OfferFilled    Counter
	SalePrice      Histogram
	SaleDiscount   Histogram

	// Payment metrics
	SettlementAmount Histogram

	// Platform metrics
	CommissionChanged Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Invoice metrics
		InvoiceCreated: factory.Counter("factoring.invoice.created"),
		InvoiceSplit:   factory.Counter("factoring.invoice.split"),
		InvoicesMerged: factory.Counter("factoring.invoice.merged"),
		InvoiceDeleted: factory.Counter("factoring.invoice.deleted"),
		InvoiceSettled: factory.Counter("factoring.invoice.settled"),
		InvoiceTotal:   factory.Histogram("factoring.invoice.total_amount"),
		SplitFanout:    factory.Histogram("factoring.invoice.split.fanout"),

		// Marketplace metrics
		OfferListed:    factory.Counter("factoring.offer.listed"),
		OfferWithdrawn: factory.Counter("factoring.offer.withdrawn"),
		OfferFilled:    factory.Counter("factoring.offer.filled"),
		SalePrice:      factory.Histogram("factoring.sale.price"),
		SaleDiscount:   factory.Histogram("factoring.sale.discount"),

		// Payment metrics
		SettlementAmount: factory.Histogram("factoring.settlement.amount"),

		// Platform metrics
		CommissionChanged: factory.Counter("factoring.commission.changed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	m.InvoiceTotal.Observe(float64(inv.Total.Amount))
	return nil
}

// OnInvoiceSplit implements plugin.OnInvoiceSplit.
func (m *MetricsExtension) OnInvoiceSplit(_ context.Context, _ *invoice.Invoice, shares []*invoice.Invoice) error {
	m.InvoiceSplit.Inc()
	m.SplitFanout.Observe(float64(len(shares)))
	return nil
}

// OnInvoicesMerged implements plugin.OnInvoicesMerged.
func (m *MetricsExtension) OnInvoicesMerged(_ context.Context, _ []*invoice.Invoice, _ *invoice.Invoice) error {
	m.InvoicesMerged.Inc()
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ *invoice.Invoice) error {
	m.InvoiceDeleted.Inc()
	return nil
}

// OnInvoiceSettled implements plugin.OnInvoiceSettled.
func (m *MetricsExtension) OnInvoiceSettled(_ context.Context, _ *invoice.Invoice, rcpt *payment.Receipt) error {
	m.InvoiceSettled.Inc()
	m.SettlementAmount.Observe(float64(rcpt.Amount.Amount))
	return nil
}

// ──────────────────────────────────────────────────
// Marketplace hooks
// ──────────────────────────────────────────────────

// OnOfferListed implements plugin.OnOfferListed.
func (m *MetricsExtension) OnOfferListed(_ context.Context, _ *market.Offer) error {
	m.OfferListed.Inc()
	return nil
}

// OnOfferWithdrawn implements plugin.OnOfferWithdrawn.
func (m *MetricsExtension) OnOfferWithdrawn(_ context.Context, _ *market.Offer) error {
	m.OfferWithdrawn.Inc()
	return nil
}

// OnInvoiceSold implements plugin.OnInvoiceSold.
func (m *MetricsExtension) OnInvoiceSold(_ context.Context, off *market.Offer, bought *invoice.Invoice) error {
	m.OfferFilled.Inc()
	m.SalePrice.Observe(float64(off.Price.Amount))
	if discount := bought.Total.Amount - off.Price.Amount; discount > 0 {
		m.SaleDiscount.Observe(float64(discount))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Platform hooks
// ──────────────────────────────────────────────────

// OnCommissionChanged implements plugin.OnCommissionChanged.
func (m *MetricsExtension) OnCommissionChanged(_ context.Context, _, _ int) error {
	m.CommissionChanged.Inc()
	return nil
}
