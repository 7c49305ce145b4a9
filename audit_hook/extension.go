// Package audithook bridges registry lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/plugin"
	"github.com/xraph/nftledger/token"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTokenMinted      = (*Extension)(nil)
	_ plugin.OnTokenTransferred = (*Extension)(nil)
	_ plugin.OnTokenBurned      = (*Extension)(nil)
	_ plugin.OnTokenApproved    = (*Extension)(nil)
	_ plugin.OnOperatorApproval = (*Extension)(nil)
	_ plugin.OnMintPaused       = (*Extension)(nil)
	_ plugin.OnMintUnpaused     = (*Extension)(nil)
	_ plugin.OnAdminTransferred = (*Extension)(nil)
	_ plugin.OnBaseURIUpdated   = (*Extension)(nil)
	_ plugin.OnTokenURIUpdated  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges registry lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenMinted implements plugin.OnTokenMinted.
func (e *Extension) OnTokenMinted(ctx context.Context, t *token.Token) error {
	return e.record(ctx, ActionTokenMinted, SeverityInfo, OutcomeSuccess,
		ResourceToken, tokenIDString(t.ID), CategoryOwnership, nil,
		"token_id", t.ID,
		"owner", t.Owner.String(),
	)
}

// OnTokenTransferred implements plugin.OnTokenTransferred.
func (e *Extension) OnTokenTransferred(ctx context.Context, from, to id.Principal, tokenID uint64, data []byte) error {
	return e.record(ctx, ActionTokenTransferred, SeverityInfo, OutcomeSuccess,
		ResourceToken, tokenIDString(tokenID), CategoryOwnership, nil,
		"token_id", tokenID,
		"from", from.String(),
		"to", to.String(),
		"data_len", len(data),
	)
}

// OnTokenBurned implements plugin.OnTokenBurned.
func (e *Extension) OnTokenBurned(ctx context.Context, owner id.Principal, tokenID uint64) error {
	return e.record(ctx, ActionTokenBurned, SeverityWarning, OutcomeSuccess,
		ResourceToken, tokenIDString(tokenID), CategoryOwnership, nil,
		"token_id", tokenID,
		"owner", owner.String(),
	)
}

// ──────────────────────────────────────────────────
// Approval hooks
// ──────────────────────────────────────────────────

// OnTokenApproved implements plugin.OnTokenApproved.
func (e *Extension) OnTokenApproved(ctx context.Context, owner, delegate id.Principal, tokenID uint64) error {
	return e.record(ctx, ActionTokenApproved, SeverityInfo, OutcomeSuccess,
		ResourceToken, tokenIDString(tokenID), CategoryApproval, nil,
		"token_id", tokenID,
		"owner", owner.String(),
		"delegate", delegate.String(),
		"cleared", delegate.IsNil(),
	)
}

// OnOperatorApproval implements plugin.OnOperatorApproval.
func (e *Extension) OnOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) error {
	action := ActionOperatorGranted
	if !approved {
		action = ActionOperatorRevoked
	}

	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceOperator, operator.String(), CategoryApproval, nil,
		"owner", owner.String(),
		"operator", operator.String(),
		"approved", approved,
	)
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnMintPaused implements plugin.OnMintPaused.
func (e *Extension) OnMintPaused(ctx context.Context) error {
	return e.record(ctx, ActionMintPaused, SeverityWarning, OutcomeSuccess,
		ResourceCollection, "", CategoryAdmin, nil,
		"event", "mint_paused",
	)
}

// OnMintUnpaused implements plugin.OnMintUnpaused.
func (e *Extension) OnMintUnpaused(ctx context.Context) error {
	return e.record(ctx, ActionMintUnpaused, SeverityInfo, OutcomeSuccess,
		ResourceCollection, "", CategoryAdmin, nil,
		"event", "mint_unpaused",
	)
}

// OnAdminTransferred implements plugin.OnAdminTransferred.
func (e *Extension) OnAdminTransferred(ctx context.Context, previous, next id.Principal) error {
	return e.record(ctx, ActionAdminTransferred, SeverityCritical, OutcomeSuccess,
		ResourceCollection, "", CategoryAdmin, nil,
		"previous_admin", previous.String(),
		"new_admin", next.String(),
	)
}

// OnBaseURIUpdated implements plugin.OnBaseURIUpdated.
func (e *Extension) OnBaseURIUpdated(ctx context.Context, uri string) error {
	return e.record(ctx, ActionBaseURIUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCollection, "", CategoryAdmin, nil,
		"base_uri", uri,
	)
}

// OnTokenURIUpdated implements plugin.OnTokenURIUpdated.
func (e *Extension) OnTokenURIUpdated(ctx context.Context, tokenID uint64, uri string) error {
	return e.record(ctx, ActionTokenURIUpdated, SeverityInfo, OutcomeSuccess,
		ResourceToken, tokenIDString(tokenID), CategoryAdmin, nil,
		"token_id", tokenID,
		"uri", uri,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func tokenIDString(tokenID uint64) string {
	return strconv.FormatUint(tokenID, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
