// Package plugin provides an extensible plugin system for the NFT registry.
// Plugins hook into ledger lifecycle events: every state change the ledger
// applies is dispatched, in order, to the plugins that subscribe to it.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenMinted is called when a token is created.
type OnTokenMinted interface {
	Plugin
	OnTokenMinted(ctx context.Context, t *token.Token) error
}

// OnTokenTransferred is called when a token changes owner.
// data is the opaque payload of the payload-bearing transfer variant,
// nil otherwise.
type OnTokenTransferred interface {
	Plugin
	OnTokenTransferred(ctx context.Context, from, to id.Principal, tokenID uint64, data []byte) error
}

// OnTokenBurned is called when a token is destroyed.
type OnTokenBurned interface {
	Plugin
	OnTokenBurned(ctx context.Context, owner id.Principal, tokenID uint64) error
}

// ──────────────────────────────────────────────────
// Approval hooks
// ──────────────────────────────────────────────────

// OnTokenApproved is called when a single-token delegate is set.
type OnTokenApproved interface {
	Plugin
	OnTokenApproved(ctx context.Context, owner, delegate id.Principal, tokenID uint64) error
}

// OnOperatorApproval is called when an operator grant is set or cleared.
type OnOperatorApproval interface {
	Plugin
	OnOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) error
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnMintPaused is called when minting is paused.
type OnMintPaused interface {
	Plugin
	OnMintPaused(ctx context.Context) error
}

// OnMintUnpaused is called when minting is resumed.
type OnMintUnpaused interface {
	Plugin
	OnMintUnpaused(ctx context.Context) error
}

// OnAdminTransferred is called when registry administration changes hands.
type OnAdminTransferred interface {
	Plugin
	OnAdminTransferred(ctx context.Context, previous, next id.Principal) error
}

// OnBaseURIUpdated is called when the collection base URI changes.
type OnBaseURIUpdated interface {
	Plugin
	OnBaseURIUpdated(ctx context.Context, uri string) error
}

// OnTokenURIUpdated is called when a per-token URI override is set.
type OnTokenURIUpdated interface {
	Plugin
	OnTokenURIUpdated(ctx context.Context, tokenID uint64, uri string) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when journal events are flushed to the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// URI resolvers
// ──────────────────────────────────────────────────

// URIResolver provides a custom tokenURI strategy. A registered resolver
// is consulted before the default override/base-URI resolution; returning
// false falls through to the default.
type URIResolver interface {
	Plugin
	ResolverName() string
	ResolveURI(ctx context.Context, t *token.Token, baseURI string) (string, bool)
}
