package token

import (
	"context"

	"github.com/xraph/nftledger/id"
)

// Store is the token-domain persistence interface. Each write method is
// applied atomically by the driver: supply and balance bookkeeping move
// together with the ownership row they describe.
type Store interface {
	// InitCollection creates the singleton collection record.
	// Fails if the collection already exists.
	InitCollection(ctx context.Context, c *Collection) error

	// GetCollection returns the collection record.
	GetCollection(ctx context.Context) (*Collection, error)

	// UpdateCollection persists admin-gated field changes
	// (admin, pause flag, base URI).
	UpdateCollection(ctx context.Context, c *Collection) error

	// GetToken returns the ownership row for tokenID.
	GetToken(ctx context.Context, tokenID uint64) (*Token, error)

	// InsertToken creates a new ownership row and increments total supply.
	InsertToken(ctx context.Context, t *Token) error

	// TransferToken moves tokenID to a new owner and clears any
	// single-token delegate.
	TransferToken(ctx context.Context, tokenID uint64, to id.Principal) error

	// DeleteToken removes the ownership row and decrements total supply.
	DeleteToken(ctx context.Context, tokenID uint64) error

	// SetTokenApproval sets the single-token delegate for tokenID.
	SetTokenApproval(ctx context.Context, tokenID uint64, delegate id.Principal) error

	// SetTokenURI sets the per-token metadata override.
	SetTokenURI(ctx context.Context, tokenID uint64, uri string) error

	// BalanceOf counts the tokens currently owned by the principal.
	BalanceOf(ctx context.Context, owner id.Principal) (uint64, error)

	// ListTokens returns ownership rows matching opts, ordered by token ID.
	ListTokens(ctx context.Context, opts ListOpts) ([]*Token, error)
}
