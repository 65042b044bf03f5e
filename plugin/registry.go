package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onInvoiceCreated    []OnInvoiceCreated
	onInvoiceSplit      []OnInvoiceSplit
	onInvoicesMerged    []OnInvoicesMerged
	onInvoiceDeleted    []OnInvoiceDeleted
	onInvoiceSettled    []OnInvoiceSettled
	onOfferListed       []OnOfferListed
	onOfferWithdrawn    []OnOfferWithdrawn
	onInvoiceSold       []OnInvoiceSold
	onCommissionChanged []OnCommissionChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	var interfaces []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		interfaces = append(interfaces, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		interfaces = append(interfaces, "OnShutdown")
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
		interfaces = append(interfaces, "OnInvoiceCreated")
	}
	if v, ok := p.(OnInvoiceSplit); ok {
		r.onInvoiceSplit = append(r.onInvoiceSplit, v)
		interfaces = append(interfaces, "OnInvoiceSplit")
	}
	if v, ok := p.(OnInvoicesMerged); ok {
		r.onInvoicesMerged = append(r.onInvoicesMerged, v)
		interfaces = append(interfaces, "OnInvoicesMerged")
	}
	if v, ok := p.(OnInvoiceDeleted); ok {
		r.onInvoiceDeleted = append(r.onInvoiceDeleted, v)
		interfaces = append(interfaces, "OnInvoiceDeleted")
	}
	if v, ok := p.(OnInvoiceSettled); ok {
		r.onInvoiceSettled = append(r.onInvoiceSettled, v)
		interfaces = append(interfaces, "OnInvoiceSettled")
	}
	if v, ok := p.(OnOfferListed); ok {
		r.onOfferListed = append(r.onOfferListed, v)
		interfaces = append(interfaces, "OnOfferListed")
	}
	if v, ok := p.(OnOfferWithdrawn); ok {
		r.onOfferWithdrawn = append(r.onOfferWithdrawn, v)
		interfaces = append(interfaces, "OnOfferWithdrawn")
	}
	if v, ok := p.(OnInvoiceSold); ok {
		r.onInvoiceSold = append(r.onInvoiceSold, v)
		interfaces = append(interfaces, "OnInvoiceSold")
	}
	if v, ok := p.(OnCommissionChanged); ok {
		r.onCommissionChanged = append(r.onCommissionChanged, v)
		interfaces = append(interfaces, "OnCommissionChanged")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", interfaces,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceCreated emits an invoice created event.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceCreated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceSplit emits an invoice split event.
func (r *Registry) EmitInvoiceSplit(ctx context.Context, original *invoice.Invoice, shares []*invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceSplit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceSplit(ctx, original, shares)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceSplit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoicesMerged emits an invoices merged event.
func (r *Registry) EmitInvoicesMerged(ctx context.Context, originals []*invoice.Invoice, merged *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoicesMerged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoicesMerged(ctx, originals, merged)
		}); err != nil {
			r.logger.Warn("plugin OnInvoicesMerged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceDeleted emits an invoice deleted event.
func (r *Registry) EmitInvoiceDeleted(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceDeleted(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceSettled emits an invoice settled event.
func (r *Registry) EmitInvoiceSettled(ctx context.Context, inv *invoice.Invoice, rcpt *payment.Receipt) {
	r.mu.RLock()
	plugins := r.onInvoiceSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceSettled(ctx, inv, rcpt)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceSettled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOfferListed emits an offer listed event.
func (r *Registry) EmitOfferListed(ctx context.Context, off *market.Offer) {
	r.mu.RLock()
	plugins := r.onOfferListed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOfferListed(ctx, off)
		}); err != nil {
			r.logger.Warn("plugin OnOfferListed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOfferWithdrawn emits an offer withdrawn event.
func (r *Registry) EmitOfferWithdrawn(ctx context.Context, off *market.Offer) {
	r.mu.RLock()
	plugins := r.onOfferWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOfferWithdrawn(ctx, off)
		}); err != nil {
			r.logger.Warn("plugin OnOfferWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceSold emits an invoice sold event.
func (r *Registry) EmitInvoiceSold(ctx context.Context, off *market.Offer, bought *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceSold
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceSold(ctx, off, bought)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceSold failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCommissionChanged emits a commission changed event.
func (r *Registry) EmitCommissionChanged(ctx context.Context, oldPercent, newPercent int) {
	r.mu.RLock()
	plugins := r.onCommissionChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCommissionChanged(ctx, oldPercent, newPercent)
		}); err != nil {
			r.logger.Warn("plugin OnCommissionChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
