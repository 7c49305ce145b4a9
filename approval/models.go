// Package approval defines operator approvals: standing authority for
// one principal to act on every token owned by another. Operator grants
// persist across transfers and are independent of token existence.
package approval

import (
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/types"
)

// OperatorApproval records that Operator may transfer or burn any token
// currently owned by Owner.
type OperatorApproval struct {
	Owner    id.Principal `json:"owner"`
	Operator id.Principal `json:"operator"`
	Approved bool         `json:"approved"`

	types.Entity
}

// NewOperatorApproval returns an active grant from owner to operator.
func NewOperatorApproval(owner, operator id.Principal) *OperatorApproval {
	return &OperatorApproval{
		Owner:    owner,
		Operator: operator,
		Approved: true,
		Entity:   types.NewEntity(),
	}
}
