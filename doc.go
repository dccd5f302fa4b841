// Package arena provides a credit-gated live broadcasting engine for tournament
// platforms.
//
// Arena is designed as a library, not a service. Import it directly into your Go
// application and wire it to the store backend of your choice. It provides:
//
//   - A prepaid credit ledger with an append-only transaction log
//   - Atomic broadcast admission: going live debits credits and opens a
//     playback session in a single store transaction
//   - Idempotent reconciliation of confirmed payment events
//   - Tournament lifecycle management (idle, live, ended)
//   - Collaborator invitations with capability resolution
//   - A background sweeper that reaps sessions with stale heartbeats
//   - Pluggable hooks for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/arena"
//	    "github.com/xraph/arena/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	a := arena.New(store)
//
//	// Start the engine (runs migrations and the session sweeper)
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Stop()
//
// # Core Concepts
//
// Accounts hold a prepaid credit balance. Credits arrive through confirmed
// purchases and leave when a tournament goes live:
//
//	balance, err := a.Balance(ctx, accountID)
//
// Tournaments are the broadcastable unit. Starting a broadcast checks the
// caller's capabilities, debits the flat admission cost, and flips the
// tournament live, all atomically:
//
//	res, err := a.StartBroadcast(ctx, ownerID, tournamentID)
//	if errors.Is(err, arena.ErrInsufficientCredits) {
//	    // Surface a top-up prompt
//	}
//
// Confirmed purchases credit accounts exactly once no matter how many times
// the provider redelivers the event:
//
//	err := a.HandleConfirmedPurchase(ctx, evt)
//
// # Integer Credits
//
// Credit balances and transaction deltas are plain int64 counts. Pack prices
// use the Money type, which represents amounts in the smallest currency unit
// (cents for USD, pence for GBP) and never touches floating point.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	trn_01h2xcejqtf2nbrexx3vqjhp41  // Tournament ID
//	ses_01h2xcejqtf2nbrexx3vqjhp41  // Session ID
//	txn_01h455vb4pex5vsknk084sn02q  // Transaction ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package arena
