package approval

import (
	"context"

	"github.com/xraph/nftledger/id"
)

// Store is the operator-approval persistence interface.
type Store interface {
	// SetOperatorApproval sets or clears the grant for (owner, operator).
	SetOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) error

	// IsOperator reports whether operator currently holds a grant from owner.
	IsOperator(ctx context.Context, owner, operator id.Principal) (bool, error)

	// ListOperators returns the active grants issued by owner.
	ListOperators(ctx context.Context, owner id.Principal) ([]*OperatorApproval, error)
}
