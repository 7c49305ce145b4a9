package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
	"github.com/xraph/nftledger/types"
)

func newCollection(admin id.Principal) *token.Collection {
	return &token.Collection{
		Name:      "Test Collection",
		Symbol:    "TST",
		MaxSupply: 100,
		Admin:     admin,
		Entity:    types.NewEntity(),
	}
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := id.NewPrincipal()

	if _, err := s.GetCollection(ctx); !errors.Is(err, nftledger.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}

	if err := s.InitCollection(ctx, newCollection(admin)); err != nil {
		t.Fatalf("InitCollection failed: %v", err)
	}
	if err := s.InitCollection(ctx, newCollection(admin)); !errors.Is(err, nftledger.ErrCollectionExists) {
		t.Fatalf("expected ErrCollectionExists, got %v", err)
	}

	c, err := s.GetCollection(ctx)
	if err != nil {
		t.Fatalf("GetCollection failed: %v", err)
	}
	if c.Name != "Test Collection" || c.TotalSupply != 0 {
		t.Fatalf("unexpected collection: %+v", c)
	}

	c.MintPaused = true
	if err := s.UpdateCollection(ctx, c); err != nil {
		t.Fatalf("UpdateCollection failed: %v", err)
	}
	c2, _ := s.GetCollection(ctx)
	if !c2.MintPaused {
		t.Fatal("expected MintPaused after update")
	}
}

func TestTokenInsertAndSupply(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := id.NewPrincipal()
	alice := id.NewPrincipal()

	if err := s.InitCollection(ctx, newCollection(admin)); err != nil {
		t.Fatalf("InitCollection failed: %v", err)
	}

	tok := &token.Token{ID: 1, Owner: alice, Entity: types.NewEntity()}
	if err := s.InsertToken(ctx, tok); err != nil {
		t.Fatalf("InsertToken failed: %v", err)
	}
	if err := s.InsertToken(ctx, tok); !errors.Is(err, nftledger.ErrTokenExists) {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}

	c, _ := s.GetCollection(ctx)
	if c.TotalSupply != 1 {
		t.Fatalf("expected TotalSupply 1, got %d", c.TotalSupply)
	}

	bal, err := s.BalanceOf(ctx, alice)
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	if bal != 1 {
		t.Fatalf("expected balance 1, got %d", bal)
	}
}

func TestTransferTokenClearsApproval(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := id.NewPrincipal()
	alice := id.NewPrincipal()
	bob := id.NewPrincipal()
	carol := id.NewPrincipal()

	if err := s.InitCollection(ctx, newCollection(admin)); err != nil {
		t.Fatalf("InitCollection failed: %v", err)
	}
	if err := s.InsertToken(ctx, &token.Token{ID: 7, Owner: alice, Entity: types.NewEntity()}); err != nil {
		t.Fatalf("InsertToken failed: %v", err)
	}
	if err := s.SetTokenApproval(ctx, 7, bob); err != nil {
		t.Fatalf("SetTokenApproval failed: %v", err)
	}

	if err := s.TransferToken(ctx, 7, carol); err != nil {
		t.Fatalf("TransferToken failed: %v", err)
	}

	tok, err := s.GetToken(ctx, 7)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if !tok.Owner.Equal(carol) {
		t.Fatalf("expected owner %s, got %s", carol, tok.Owner)
	}
	if tok.HasDelegate() {
		t.Fatal("expected delegate cleared after transfer")
	}

	aliceBal, _ := s.BalanceOf(ctx, alice)
	carolBal, _ := s.BalanceOf(ctx, carol)
	if aliceBal != 0 || carolBal != 1 {
		t.Fatalf("unexpected balances: alice=%d carol=%d", aliceBal, carolBal)
	}
}

func TestDeleteToken(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := id.NewPrincipal()
	alice := id.NewPrincipal()

	if err := s.InitCollection(ctx, newCollection(admin)); err != nil {
		t.Fatalf("InitCollection failed: %v", err)
	}
	if err := s.InsertToken(ctx, &token.Token{ID: 3, Owner: alice, Entity: types.NewEntity()}); err != nil {
		t.Fatalf("InsertToken failed: %v", err)
	}

	if err := s.DeleteToken(ctx, 3); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if _, err := s.GetToken(ctx, 3); !errors.Is(err, nftledger.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if err := s.DeleteToken(ctx, 3); !errors.Is(err, nftledger.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound on double delete, got %v", err)
	}

	c, _ := s.GetCollection(ctx)
	if c.TotalSupply != 0 {
		t.Fatalf("expected TotalSupply 0 after burn, got %d", c.TotalSupply)
	}
	bal, _ := s.BalanceOf(ctx, alice)
	if bal != 0 {
		t.Fatalf("expected balance 0, got %d", bal)
	}
}

func TestListTokensFiltering(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := id.NewPrincipal()
	alice := id.NewPrincipal()
	bob := id.NewPrincipal()

	if err := s.InitCollection(ctx, newCollection(admin)); err != nil {
		t.Fatalf("InitCollection failed: %v", err)
	}
	for _, tc := range []struct {
		tokenID uint64
		owner   id.Principal
	}{
		{1, alice},
		{2, bob},
		{3, alice},
	} {
		if err := s.InsertToken(ctx, &token.Token{ID: tc.tokenID, Owner: tc.owner, Entity: types.NewEntity()}); err != nil {
			t.Fatalf("InsertToken(%d) failed: %v", tc.tokenID, err)
		}
	}

	all, err := s.ListTokens(ctx, token.ListOpts{})
	if err != nil {
		t.Fatalf("ListTokens failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(all))
	}
	if all[0].ID != 1 || all[1].ID != 2 || all[2].ID != 3 {
		t.Fatalf("expected tokens ordered by id, got %v, %v, %v", all[0].ID, all[1].ID, all[2].ID)
	}

	mine, err := s.ListTokens(ctx, token.ListOpts{Owner: alice})
	if err != nil {
		t.Fatalf("ListTokens(owner) failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 tokens for alice, got %d", len(mine))
	}

	page, err := s.ListTokens(ctx, token.ListOpts{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListTokens(page) failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// Out-of-range paging clamps instead of panicking.
	for _, opts := range []token.ListOpts{
		{Offset: -1},
		{Limit: -1},
		{Limit: 2, Offset: 10},
	} {
		if _, err := s.ListTokens(ctx, opts); err != nil {
			t.Fatalf("ListTokens(%+v) failed: %v", opts, err)
		}
	}
	clamped, err := s.ListTokens(ctx, token.ListOpts{Offset: -5, Limit: 2})
	if err != nil {
		t.Fatalf("ListTokens(negative offset) failed: %v", err)
	}
	if len(clamped) != 2 || clamped[0].ID != 1 {
		t.Fatalf("expected first page for negative offset, got %+v", clamped)
	}
}

func TestOperatorApprovals(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := id.NewPrincipal()
	bob := id.NewPrincipal()

	ok, err := s.IsOperator(ctx, alice, bob)
	if err != nil {
		t.Fatalf("IsOperator failed: %v", err)
	}
	if ok {
		t.Fatal("expected no grant for unknown pair")
	}

	if err := s.SetOperatorApproval(ctx, alice, bob, true); err != nil {
		t.Fatalf("SetOperatorApproval failed: %v", err)
	}
	ok, _ = s.IsOperator(ctx, alice, bob)
	if !ok {
		t.Fatal("expected grant after approval")
	}

	// Directional: bob never approved alice.
	ok, _ = s.IsOperator(ctx, bob, alice)
	if ok {
		t.Fatal("grant must not apply in reverse")
	}

	grants, err := s.ListOperators(ctx, alice)
	if err != nil {
		t.Fatalf("ListOperators failed: %v", err)
	}
	if len(grants) != 1 || !grants[0].Operator.Equal(bob) {
		t.Fatalf("unexpected grants: %+v", grants)
	}

	if err := s.SetOperatorApproval(ctx, alice, bob, false); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	ok, _ = s.IsOperator(ctx, alice, bob)
	if ok {
		t.Fatal("expected grant revoked")
	}

	// Revoking a grant that never existed is a no-op.
	if err := s.SetOperatorApproval(ctx, alice, id.NewPrincipal(), false); err != nil {
		t.Fatalf("revoking unknown grant failed: %v", err)
	}
}

func TestEventJournal(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := id.NewPrincipal()
	bob := id.NewPrincipal()

	base := time.Now().UTC().Add(-time.Hour)
	tokenID := uint64(42)
	events := []*event.Event{
		{ID: id.NewEventID(), Type: event.TypeMinted, Sequence: 1, TokenID: tokenID, To: alice, Timestamp: base},
		{ID: id.NewEventID(), Type: event.TypeTransferred, Sequence: 2, TokenID: tokenID, From: alice, To: bob, Timestamp: base.Add(time.Minute)},
		{ID: id.NewEventID(), Type: event.TypeBurned, Sequence: 3, TokenID: tokenID, From: bob, Timestamp: base.Add(2 * time.Minute)},
	}
	if err := s.AppendEvents(ctx, events); err != nil {
		t.Fatalf("AppendEvents failed: %v", err)
	}

	all, err := s.QueryEvents(ctx, event.QueryOpts{})
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	for i, e := range all {
		if e.Sequence != uint64(i+1) {
			t.Fatalf("events out of order: got sequence %d at index %d", e.Sequence, i)
		}
	}

	transfers, err := s.QueryEvents(ctx, event.QueryOpts{Type: event.TypeTransferred})
	if err != nil {
		t.Fatalf("QueryEvents(type) failed: %v", err)
	}
	if len(transfers) != 1 || !transfers[0].To.Equal(bob) {
		t.Fatalf("unexpected transfer events: %+v", transfers)
	}

	byToken, err := s.QueryEvents(ctx, event.QueryOpts{TokenID: &tokenID})
	if err != nil {
		t.Fatalf("QueryEvents(token) failed: %v", err)
	}
	if len(byToken) != 3 {
		t.Fatalf("expected 3 events for token, got %d", len(byToken))
	}

	recent, err := s.QueryEvents(ctx, event.QueryOpts{Since: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("QueryEvents(since) failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Type != event.TypeBurned {
		t.Fatalf("unexpected recent events: %+v", recent)
	}

	clamped, err := s.QueryEvents(ctx, event.QueryOpts{Offset: -3, Limit: 1})
	if err != nil {
		t.Fatalf("QueryEvents(negative offset) failed: %v", err)
	}
	if len(clamped) != 1 || clamped[0].Sequence != 1 {
		t.Fatalf("expected first event for negative offset, got %+v", clamped)
	}

	purged, err := s.PurgeEvents(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("PurgeEvents failed: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged, got %d", purged)
	}
	remaining, _ := s.QueryEvents(ctx, event.QueryOpts{})
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining event, got %d", len(remaining))
	}
}

func TestPingAfterClose(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, nftledger.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}
