package nftledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("nftledger: not found")
	ErrAlreadyExists = errors.New("nftledger: already exists")
	ErrInvalidInput  = errors.New("nftledger: invalid input")
	ErrUnauthorized  = errors.New("nftledger: unauthorized")

	// Collection errors
	ErrCollectionNotFound = errors.New("nftledger: collection not initialized")
	ErrCollectionExists   = errors.New("nftledger: collection already initialized")
	ErrNilAdmin           = errors.New("nftledger: admin cannot be the null principal")
	ErrNotAdmin           = errors.New("nftledger: caller is not the admin")

	// Token errors
	ErrTokenNotFound    = errors.New("nftledger: token does not exist")
	ErrTokenExists      = errors.New("nftledger: token already exists")
	ErrMaxSupplyReached = errors.New("nftledger: max supply reached")
	ErrMintingPaused    = errors.New("nftledger: minting is paused")
	ErrMintingNotPaused = errors.New("nftledger: minting is not paused")
	ErrNoTokenURI       = errors.New("nftledger: no token URI configured")

	// Argument errors
	ErrNilPrincipal    = errors.New("nftledger: principal cannot be the null principal")
	ErrNilRecipient    = errors.New("nftledger: recipient cannot be the null principal")
	ErrSelfApproval    = errors.New("nftledger: cannot approve self as operator")
	ErrApprovalToOwner = errors.New("nftledger: cannot approve token to its owner")
	ErrOwnerMismatch   = errors.New("nftledger: from does not match recorded owner")

	// Journal errors
	ErrEventBufferFull = errors.New("nftledger: event journal buffer full")

	// Store errors
	ErrStoreNotReady     = errors.New("nftledger: store not ready")
	ErrStoreClosed       = errors.New("nftledger: store is closed")
	ErrTransactionFailed = errors.New("nftledger: transaction failed")
	ErrMigrationFailed   = errors.New("nftledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("nftledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error reports a missing resource:
// a token that does not currently exist or an uninitialized collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrCollectionNotFound)
}

// IsUnauthorized returns true if the error reports a caller lacking the
// required relationship to the resource.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotAdmin)
}

// IsInvalidArgument returns true if the error reports malformed input:
// a null principal where forbidden, a self-referential approval, an
// owner mismatch, or a field validation failure.
func IsInvalidArgument(err error) bool {
	var ve ValidationError
	if errors.As(err, &ve) {
		return true
	}

	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNilPrincipal) ||
		errors.Is(err, ErrNilRecipient) ||
		errors.Is(err, ErrNilAdmin) ||
		errors.Is(err, ErrSelfApproval) ||
		errors.Is(err, ErrApprovalToOwner) ||
		errors.Is(err, ErrOwnerMismatch)
}

// IsAlreadyExists returns true if the error reports a creation collision.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrTokenExists) ||
		errors.Is(err, ErrCollectionExists)
}

// IsPreconditionFailed returns true if the error reports a state-dependent
// guard: pause flag already in the requested state, or no URI configured.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrMintingPaused) ||
		errors.Is(err, ErrMintingNotPaused) ||
		errors.Is(err, ErrNoTokenURI)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried. Ledger operations themselves never produce these; they come
// from the journal buffer and the store drivers.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEventBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
