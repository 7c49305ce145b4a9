package audithook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
)

// captureRecorder collects emitted audit events.
type captureRecorder struct {
	events []*AuditEvent
	err    error
}

func (r *captureRecorder) Record(_ context.Context, evt *AuditEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

func (r *captureRecorder) last(t *testing.T) *AuditEvent {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("expected a recorded audit event")
	}
	return r.events[len(r.events)-1]
}

func TestHookEventMapping(t *testing.T) {
	ctx := context.Background()
	alice := id.NewPrincipal()
	bob := id.NewPrincipal()

	tests := []struct {
		name         string
		emit         func(e *Extension) error
		wantAction   string
		wantResource string
		wantSeverity string
		wantID       string
		checkMeta    func(t *testing.T, meta map[string]any)
	}{
		{
			name: "minted",
			emit: func(e *Extension) error {
				return e.OnTokenMinted(ctx, &token.Token{ID: 7, Owner: alice})
			},
			wantAction:   ActionTokenMinted,
			wantResource: ResourceToken,
			wantSeverity: SeverityInfo,
			wantID:       "7",
			checkMeta: func(t *testing.T, meta map[string]any) {
				if meta["owner"] != alice.String() {
					t.Fatalf("expected owner %s, got %v", alice, meta["owner"])
				}
			},
		},
		{
			name: "transferred",
			emit: func(e *Extension) error {
				return e.OnTokenTransferred(ctx, alice, bob, 7, []byte("xy"))
			},
			wantAction:   ActionTokenTransferred,
			wantResource: ResourceToken,
			wantSeverity: SeverityInfo,
			wantID:       "7",
			checkMeta: func(t *testing.T, meta map[string]any) {
				if meta["from"] != alice.String() || meta["to"] != bob.String() {
					t.Fatalf("unexpected principals in metadata: %v", meta)
				}
				if meta["data_len"] != 2 {
					t.Fatalf("expected data_len 2, got %v", meta["data_len"])
				}
			},
		},
		{
			name: "burned",
			emit: func(e *Extension) error {
				return e.OnTokenBurned(ctx, alice, 7)
			},
			wantAction:   ActionTokenBurned,
			wantResource: ResourceToken,
			wantSeverity: SeverityWarning,
			wantID:       "7",
		},
		{
			name: "approval cleared",
			emit: func(e *Extension) error {
				return e.OnTokenApproved(ctx, alice, id.Nil, 7)
			},
			wantAction:   ActionTokenApproved,
			wantResource: ResourceToken,
			wantSeverity: SeverityInfo,
			wantID:       "7",
			checkMeta: func(t *testing.T, meta map[string]any) {
				if meta["cleared"] != true {
					t.Fatalf("expected cleared=true for nil delegate, got %v", meta["cleared"])
				}
			},
		},
		{
			name: "operator granted",
			emit: func(e *Extension) error {
				return e.OnOperatorApproval(ctx, alice, bob, true)
			},
			wantAction:   ActionOperatorGranted,
			wantResource: ResourceOperator,
			wantSeverity: SeverityInfo,
			wantID:       bob.String(),
		},
		{
			name: "operator revoked",
			emit: func(e *Extension) error {
				return e.OnOperatorApproval(ctx, alice, bob, false)
			},
			wantAction:   ActionOperatorRevoked,
			wantResource: ResourceOperator,
			wantSeverity: SeverityInfo,
			wantID:       bob.String(),
		},
		{
			name: "admin transferred",
			emit: func(e *Extension) error {
				return e.OnAdminTransferred(ctx, alice, bob)
			},
			wantAction:   ActionAdminTransferred,
			wantResource: ResourceCollection,
			wantSeverity: SeverityCritical,
		},
		{
			name: "mint paused",
			emit: func(e *Extension) error {
				return e.OnMintPaused(ctx)
			},
			wantAction:   ActionMintPaused,
			wantResource: ResourceCollection,
			wantSeverity: SeverityWarning,
		},
		{
			name: "base uri updated",
			emit: func(e *Extension) error {
				return e.OnBaseURIUpdated(ctx, "ipfs://meta/")
			},
			wantAction:   ActionBaseURIUpdated,
			wantResource: ResourceCollection,
			wantSeverity: SeverityInfo,
			checkMeta: func(t *testing.T, meta map[string]any) {
				if meta["base_uri"] != "ipfs://meta/" {
					t.Fatalf("expected base_uri in metadata, got %v", meta)
				}
			},
		},
		{
			name: "token uri updated",
			emit: func(e *Extension) error {
				return e.OnTokenURIUpdated(ctx, 7, "ar://x")
			},
			wantAction:   ActionTokenURIUpdated,
			wantResource: ResourceToken,
			wantSeverity: SeverityInfo,
			wantID:       "7",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &captureRecorder{}
			ext := New(rec)

			if err := tc.emit(ext); err != nil {
				t.Fatalf("hook returned error: %v", err)
			}

			evt := rec.last(t)
			if evt.Action != tc.wantAction {
				t.Fatalf("expected action %s, got %s", tc.wantAction, evt.Action)
			}
			if evt.Resource != tc.wantResource {
				t.Fatalf("expected resource %s, got %s", tc.wantResource, evt.Resource)
			}
			if evt.Severity != tc.wantSeverity {
				t.Fatalf("expected severity %s, got %s", tc.wantSeverity, evt.Severity)
			}
			if evt.Outcome != OutcomeSuccess {
				t.Fatalf("expected outcome %s, got %s", OutcomeSuccess, evt.Outcome)
			}
			if evt.ResourceID != tc.wantID {
				t.Fatalf("expected resource id %q, got %q", tc.wantID, evt.ResourceID)
			}
			if tc.checkMeta != nil {
				tc.checkMeta(t, evt.Metadata)
			}
		})
	}
}

func TestEnabledActionsFilter(t *testing.T) {
	ctx := context.Background()
	alice := id.NewPrincipal()

	rec := &captureRecorder{}
	ext := New(rec, WithEnabledActions(ActionTokenBurned))

	if err := ext.OnTokenMinted(ctx, &token.Token{ID: 1, Owner: alice}); err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	if len(rec.events) != 0 {
		t.Fatal("disabled action must not be recorded")
	}

	if err := ext.OnTokenBurned(ctx, alice, 1); err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != ActionTokenBurned {
		t.Fatalf("expected only the burn recorded, got %+v", rec.events)
	}
}

func TestDisabledActionsFilter(t *testing.T) {
	ctx := context.Background()
	alice := id.NewPrincipal()

	rec := &captureRecorder{}
	ext := New(rec, WithDisabledActions(ActionTokenMinted))

	if err := ext.OnTokenMinted(ctx, &token.Token{ID: 1, Owner: alice}); err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	if err := ext.OnTokenBurned(ctx, alice, 1); err != nil {
		t.Fatalf("hook returned error: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Action != ActionTokenBurned {
		t.Fatalf("expected mint filtered out, got %+v", rec.events)
	}
}

func TestRecordMetadataFolding(t *testing.T) {
	ctx := context.Background()

	rec := &captureRecorder{}
	ext := New(rec)

	// Non-string keys fall back to their string form; an error both sets
	// the reason and lands in metadata.
	err := ext.record(ctx, ActionTokenMinted, SeverityInfo, OutcomeFailure,
		ResourceToken, "1", CategoryOwnership, errors.New("boom"),
		42, "answer",
		"dangling")
	if err != nil {
		t.Fatalf("record returned error: %v", err)
	}

	evt := rec.last(t)
	if evt.Metadata["42"] != "answer" {
		t.Fatalf("expected non-string key folded to \"42\", got %v", evt.Metadata)
	}
	if _, ok := evt.Metadata["dangling"]; ok {
		t.Fatal("unpaired trailing key must be dropped")
	}
	if evt.Reason != "boom" || evt.Metadata["error"] != "boom" {
		t.Fatalf("expected error captured in reason and metadata, got %+v", evt)
	}
}

func TestRecorderErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()

	rec := &captureRecorder{err: errors.New("backend down")}
	ext := New(rec, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	// A failing recorder must never propagate into the ledger pipeline.
	if err := ext.OnMintPaused(ctx); err != nil {
		t.Fatalf("expected recorder error swallowed, got %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected the event to still reach the recorder, got %d", len(rec.events))
	}
}
