package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionTokenMinted      = "token.minted"
	ActionTokenTransferred = "token.transferred"
	ActionTokenBurned      = "token.burned"

	// Approval actions
	ActionTokenApproved   = "token.approved"
	ActionOperatorGranted = "operator.granted"
	ActionOperatorRevoked = "operator.revoked"

	// Admin actions
	ActionMintPaused       = "mint.paused"
	ActionMintUnpaused     = "mint.unpaused"
	ActionAdminTransferred = "admin.transferred"
	ActionBaseURIUpdated   = "base_uri.updated"
	ActionTokenURIUpdated  = "token_uri.updated"
)

// Resource constants for audit events.
const (
	ResourceToken      = "token"
	ResourceOperator   = "operator"
	ResourceCollection = "collection"
)

// Category constants for audit events.
const (
	CategoryOwnership = "ownership"
	CategoryApproval  = "approval"
	CategoryAdmin     = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
