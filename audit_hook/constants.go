package audithook

// Action constants for audit events.
const (
	// Invoice actions
	ActionInvoiceCreated = "invoice.created"
	ActionInvoiceSplit   = "invoice.split"
	ActionInvoicesMerged = "invoice.merged"
	ActionInvoiceDeleted = "invoice.deleted"
	ActionInvoiceSettled = "invoice.settled"

	// Marketplace actions
	ActionOfferListed    = "offer.listed"
	ActionOfferWithdrawn = "offer.withdrawn"
	ActionInvoiceSold    = "offer.filled"

	// Platform actions
	ActionCommissionChanged = "commission.changed"
)

// Resource constants for audit events.
const (
	ResourceInvoice    = "invoice"
	ResourceOffer      = "offer"
	ResourceCommission = "commission"
)

// Category constants for audit events.
const (
	CategoryLedger      = "ledger"
	CategoryMarketplace = "marketplace"
	CategoryPayment     = "payment"
	CategoryPlatform    = "platform"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
