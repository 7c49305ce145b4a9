package nftledger_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/store/memory"
	"github.com/xraph/nftledger/token"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the registry
		l := nftledger.New(store,
			nftledger.WithLogger(slog.Default()),
			nftledger.WithEventLogConfig(100, 5*time.Second),
		)

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop() //nolint:errcheck

		// Create the collection
		admin := id.NewPrincipal()
		err := l.Initialize(ctx, &token.Collection{
			Name:      "Kasplex Punks",
			Symbol:    "KPNK",
			MaxSupply: 10000,
			Admin:     admin,
		})
		if err != nil {
			t.Fatal(err)
		}

		// Mint, approve, transfer
		alice := id.NewPrincipal()
		bob := id.NewPrincipal()
		carol := id.NewPrincipal()

		if err := l.Mint(ctx, admin, alice, 1); err != nil {
			t.Fatal(err)
		}
		if err := l.Approve(ctx, alice, bob, 1); err != nil {
			t.Fatal(err)
		}
		if err := l.Transfer(ctx, bob, alice, carol, 1); err != nil {
			t.Fatal(err)
		}

		owner, err := l.OwnerOf(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if !owner.Equal(carol) {
			t.Fatalf("expected carol to own token 1, got %s", owner)
		}
	})
}
