package nftledger

import "github.com/xraph/nftledger/id"

// ID is the primary identifier type for registry entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// Principal identifies an account that can own tokens and issue approvals.
type Principal = id.Principal

// EventID identifies a journal event.
type EventID = id.EventID
