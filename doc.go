// Package factoring provides an embeddable invoice-factoring ledger for Go
// applications.
//
// Factoring is designed as a library, not a service. Import it directly into
// the application that hosts the marketplace. It provides:
//
//   - An append-only invoice ledger with split, merge and soft delete
//   - Exact-amount settlement routed to the current beneficiary
//   - A resale marketplace with a platform commission on every sale
//   - All-or-nothing transitions: a failed fund transfer rolls back the
//     state change that preceded it
//   - A receipt journal of every fund movement
//   - Pluggable hooks for audit trails and metrics
//
// # Quick Start
//
// Create a ledger over your preferred store and a fund-transfer backend:
//
//	import (
//	    "github.com/xraph/factoring"
//	    "github.com/xraph/factoring/store/memory"
//	    "github.com/xraph/factoring/treasury"
//	)
//
//	bank := treasury.NewVault()
//	l := factoring.New(memory.New(), bank, platformAddr)
//
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// Every call carries the verified caller address on the context:
//
//	ctx = factoring.WithCaller(ctx, supplierAddr)
//	inv, err := l.CreateInvoice(ctx, dueDate, customerAddr, factoring.USD(150000))
//
// # Core Concepts
//
// An invoice is a claim: payer owes total to whoever currently holds the
// claim (the beneficiary) by the due date. The payee who originally issued
// it never changes; the beneficiary changes when the claim is resold.
//
// Holders may split a claim into smaller ones, merge claims against the same
// payer, or delete them. Payers discharge claims with PayInvoice, paying the
// exact total to the current beneficiary.
//
// The marketplace lets a holder list a claim below face value for immediate
// liquidity. Buying transfers the asking price to the seller minus the
// platform commission, and the claim carries forward under the buyer as a
// fresh invoice record.
//
// # Stores
//
// Three store backends ship with the library: memory (tests and
// single-process use), sqlite (embedded durability) and mongo (replicated
// deployments). All implement transactional updates, so a failed transfer
// inside a transition leaves no partial state behind.
package factoring
