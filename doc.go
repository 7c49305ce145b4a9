// Package nftledger provides an embeddable non-fungible token registry for
// Go applications.
//
// The registry is designed as a library, not a service. Import it directly
// into your Go application and wire it to the store backend of your choice.
// It provides:
//
//   - Authoritative token ownership with per-token delegate approvals
//   - Operator approvals: standing authority over every token an owner holds
//   - Admin-gated minting with a hard supply ceiling and a pause switch
//   - Base and per-token metadata URI resolution with pluggable strategies
//   - Synchronous plugin notifications in strict application order
//   - A durable, batched event journal for indexers and audit
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/xraph/nftledger"
//	    "github.com/xraph/nftledger/store/memory"
//	)
//
//	l := nftledger.New(memory.New())
//
//	// Start the ledger (migrates storage, begins background workers)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// The collection is a singleton record holding display metadata, the supply
// counters, the admin principal, the pause flag, and the base URI:
//
//	admin := id.NewPrincipal()
//	err := l.Initialize(ctx, &token.Collection{
//	    Name:      "Kasplex Punks",
//	    Symbol:    "KPNK",
//	    MaxSupply: 10000,
//	    Admin:     admin,
//	})
//
// Tokens are minted by the admin to any principal, then move by owner,
// delegate, or operator authority:
//
//	err = l.Mint(ctx, admin, alice, 1)
//	err = l.Approve(ctx, alice, bob, 1)        // bob may move token 1
//	err = l.Transfer(ctx, bob, alice, carol, 1) // delegate-driven transfer
//
// Every state change is validated in full before anything is written, so a
// failed operation never leaves partial state behind, and plugins observe
// changes in exactly the order they were applied.
//
// # Stores
//
// Four store drivers ship with the module: memory (default, for tests and
// embedded use), sqlite, postgres, and mongo, all built on Grove. The engine
// serializes mutations, so drivers only need per-call atomicity.
//
// # Integration
//
// The registry integrates with the Forgery ecosystem:
//
//   - Forge: application lifecycle and DI via the extension package
//   - Chronicle: audit trail through the audit_hook bridge
//   - Grove: storage drivers and schema migration
//
// # TypeID
//
// Principals and journal events use TypeID for globally unique, type-safe
// identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Principal
//	tevt_01h455vb4pex5vsknk084sn02q  // Journal event
//
// Token IDs themselves are plain uint64 values chosen by the caller at mint
// time, matching common NFT conventions.
package nftledger
