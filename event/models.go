// Package event defines the registry's outbound facts: one immutable,
// ordered record per state change, journaled for external observers and
// indexers.
package event

import (
	"time"

	"github.com/xraph/nftledger/id"
)

// Type names the state change an event records.
type Type string

// Event types emitted by the ledger.
const (
	TypeMinted           Type = "minted"
	TypeTransferred      Type = "transferred"
	TypeBurned           Type = "burned"
	TypeApproved         Type = "approved"
	TypeOperatorSet      Type = "operator_set"
	TypeMintPaused       Type = "mint_paused"
	TypeMintUnpaused     Type = "mint_unpaused"
	TypeAdminTransferred Type = "admin_transferred"
	TypeBaseURIUpdated   Type = "base_uri_updated"
	TypeTokenURIUpdated  Type = "token_uri_updated"
)

// Event is one ledger fact. Sequence is assigned by the engine under its
// mutation lock, so ordering by Sequence reproduces the order in which
// state changes were applied.
//
// TokenID is meaningful only for token-scoped types (minted, transferred,
// burned, approved, token_uri_updated); From is the null principal on
// mint, To is the null principal on burn.
type Event struct {
	ID       id.EventID   `json:"id"`
	Type     Type         `json:"type"`
	Sequence uint64       `json:"sequence"`
	TokenID  uint64       `json:"token_id,omitempty"`
	From     id.Principal `json:"from,omitempty"`
	To       id.Principal `json:"to,omitempty"`
	Operator id.Principal `json:"operator,omitempty"`
	Approved bool         `json:"approved,omitempty"`
	URI      string       `json:"uri,omitempty"`

	// Data is the opaque side-channel payload carried by the
	// payload-bearing transfer variant. The ledger never interprets it.
	Data []byte `json:"data,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// QueryOpts filters journal queries.
type QueryOpts struct {
	Type    Type
	TokenID *uint64
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}
