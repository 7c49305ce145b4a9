package store

import (
	"context"
	"time"

	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
)

// Store is the unified storage interface for all registry entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Every write method is a whole-effect operation: drivers apply it
// atomically, including the supply and balance bookkeeping that moves with
// it. The ledger engine serializes mutations, so drivers never see two
// concurrent writes.
type Store interface {
	// Collection methods
	InitCollection(ctx context.Context, c *token.Collection) error
	GetCollection(ctx context.Context) (*token.Collection, error)
	UpdateCollection(ctx context.Context, c *token.Collection) error

	// Token methods
	GetToken(ctx context.Context, tokenID uint64) (*token.Token, error)
	InsertToken(ctx context.Context, t *token.Token) error
	TransferToken(ctx context.Context, tokenID uint64, to id.Principal) error
	DeleteToken(ctx context.Context, tokenID uint64) error
	SetTokenApproval(ctx context.Context, tokenID uint64, delegate id.Principal) error
	SetTokenURI(ctx context.Context, tokenID uint64, uri string) error
	BalanceOf(ctx context.Context, owner id.Principal) (uint64, error)
	ListTokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error)

	// Operator approval methods
	SetOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) error
	IsOperator(ctx context.Context, owner, operator id.Principal) (bool, error)
	ListOperators(ctx context.Context, owner id.Principal) ([]*approval.OperatorApproval, error)

	// Journal methods
	AppendEvents(ctx context.Context, events []*event.Event) error
	QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
