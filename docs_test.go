package arena_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/arena"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/payment"
	"github.com/xraph/arena/store/memory"
	"github.com/xraph/arena/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize Arena
		a := arena.New(store,
			arena.WithLogger(slog.Default()),
			arena.WithBroadcastCost(1),
			arena.WithSessionTTL(90*time.Second),
		)

		// Start the engine
		ctx := context.Background()
		if err := a.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer a.Stop()

		// Register a credit pack
		starter := &pack.Pack{
			Slug:            "starter",
			Name:            "Starter Pack",
			Credits:         10,
			Price:           types.USD(499), // $4.99
			ProviderPriceID: "price_starter_usd",
			Status:          pack.StatusActive,
		}
		if err := a.CreatePack(ctx, starter); err != nil {
			t.Fatal(err)
		}

		// A confirmed purchase from the payment provider credits the account
		organizer := id.NewAccountID()
		err := a.HandleConfirmedPurchase(ctx, &payment.ConfirmedPurchase{
			Provider:  "stripe",
			EventID:   "evt_quickstart_1",
			AccountID: organizer,
			PriceID:   "price_starter_usd",
		})
		if err != nil {
			t.Fatal(err)
		}

		// Create a tournament and take it live
		tour, err := a.CreateTournament(ctx, organizer, "Friday Finals", "weekly bracket")
		if err != nil {
			t.Fatal(err)
		}

		result, err := a.StartBroadcast(ctx, organizer, tour.ID)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("live: session=%s credits_remaining=%d\n", result.Session.ID, result.CreditsRemaining)

		// Heartbeat while streaming, then end the broadcast
		if err := a.Heartbeat(ctx, result.Session.ID, 42); err != nil {
			t.Fatal(err)
		}
		if _, err := a.EndBroadcast(ctx, organizer, tour.ID); err != nil {
			t.Fatal(err)
		}

		balance, err := a.Balance(ctx, organizer)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("balance after broadcast: %d\n", balance)
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(499)    // $4.99
		_ = types.EUR(1999)   // €19.99
		_ = types.Zero("usd") // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)     // $3.00
		_ = m1.Multiply(3) // $3.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
