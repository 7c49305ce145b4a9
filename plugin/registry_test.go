package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
)

// mintHook implements OnTokenMinted and records calls.
type mintHook struct {
	name  string
	calls int
	err   error
}

func (h *mintHook) Name() string { return h.name }

func (h *mintHook) OnTokenMinted(_ context.Context, _ *token.Token) error {
	h.calls++
	return h.err
}

// bareHook implements only the base Plugin interface.
type bareHook struct {
	name string
}

func (h *bareHook) Name() string { return h.name }

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := r.Register(&mintHook{name: "indexer"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mintHook{name: "indexer"}); err == nil {
		t.Fatal("expected duplicate registration rejected")
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 registered plugin, got %d", r.Count())
	}
}

func TestGetAndList(t *testing.T) {
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	a := &mintHook{name: "a"}
	b := &bareHook{name: "b"}
	if err := r.Register(a); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(b); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got := r.Get("a"); got == nil || got.Name() != "a" {
		t.Fatalf("expected plugin a, got %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Fatalf("expected nil for unknown plugin, got %v", got)
	}
	if len(r.List()) != 2 {
		t.Fatalf("expected 2 plugins listed, got %d", len(r.List()))
	}
}

func TestEmitDispatchesOnlySubscribers(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	subscriber := &mintHook{name: "subscriber"}
	if err := r.Register(subscriber); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&bareHook{name: "bystander"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	owner := id.NewPrincipal()
	r.EmitTokenMinted(ctx, &token.Token{ID: 1, Owner: owner})
	r.EmitTokenMinted(ctx, &token.Token{ID: 2, Owner: owner})

	if subscriber.calls != 2 {
		t.Fatalf("expected 2 dispatches, got %d", subscriber.calls)
	}
}

func TestEmitSurvivesHookError(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	failing := &mintHook{name: "failing", err: errors.New("hook broke")}
	healthy := &mintHook{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// A failing hook is logged and skipped; later hooks still run.
	r.EmitTokenMinted(ctx, &token.Token{ID: 1, Owner: id.NewPrincipal()})

	if failing.calls != 1 || healthy.calls != 1 {
		t.Fatalf("expected both hooks called once, got %d and %d", failing.calls, healthy.calls)
	}
}

func TestCallWithTimeoutCancelledContext(t *testing.T) {
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	err := r.callWithTimeout(ctx, "blocker", func() error {
		<-block
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type resolver struct {
	name string
}

func (p *resolver) Name() string         { return p.name }
func (p *resolver) ResolverName() string { return p.name }
func (p *resolver) ResolveURI(_ context.Context, _ *token.Token, _ string) (string, bool) {
	return "custom://" + p.name, true
}

func TestGetURIResolver(t *testing.T) {
	r := NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := r.Register(&resolver{name: "fixed"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if got := r.GetURIResolver("fixed"); got == nil {
		t.Fatal("expected resolver registered under its strategy name")
	}
	if got := r.GetURIResolver("other"); got != nil {
		t.Fatalf("expected nil for unknown strategy, got %v", got)
	}
}
