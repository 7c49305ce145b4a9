// Package token defines the core registry entities: the singleton
// collection record and the per-token ownership rows.
package token

import (
	"strconv"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/types"
)

// Collection is the singleton record describing the registry itself:
// immutable display metadata and issuance ceiling, plus the mutable
// admin-controlled state (admin, pause flag, base URI) and the running
// total supply.
type Collection struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	MaxSupply   uint64       `json:"max_supply"`
	TotalSupply uint64       `json:"total_supply"`
	Admin       id.Principal `json:"admin"`
	MintPaused  bool         `json:"mint_paused"`
	BaseURI     string       `json:"base_uri,omitempty"`

	types.Entity
}

// Token is one ownership row. A token exists exactly while a row for its
// ID exists; there is no tombstone state. Approved is the single-token
// delegate and is the null principal when no delegate is set.
type Token struct {
	ID          uint64       `json:"id"`
	Owner       id.Principal `json:"owner"`
	Approved    id.Principal `json:"approved,omitempty"`
	URIOverride string       `json:"uri_override,omitempty"`

	types.Entity
}

// HasDelegate reports whether a single-token delegate is currently set.
func (t *Token) HasDelegate() bool {
	return !t.Approved.IsNil()
}

// URI resolves the metadata location for the token: the per-token
// override when set, otherwise baseURI concatenated with the decimal
// form of the token ID. The second return is false when neither is
// configured.
func (t *Token) URI(baseURI string) (string, bool) {
	if t.URIOverride != "" {
		return t.URIOverride, true
	}
	if baseURI != "" {
		return baseURI + strconv.FormatUint(t.ID, 10), true
	}

	return "", false
}

// ListOpts filters token listings.
type ListOpts struct {
	// Owner restricts results to tokens held by this principal when non-nil.
	Owner id.Principal

	Limit  int
	Offset int
}
