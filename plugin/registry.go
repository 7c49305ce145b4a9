package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onTokenMinted      []OnTokenMinted
	onTokenTransferred []OnTokenTransferred
	onTokenBurned      []OnTokenBurned
	onTokenApproved    []OnTokenApproved
	onOperatorApproval []OnOperatorApproval
	onMintPaused       []OnMintPaused
	onMintUnpaused     []OnMintUnpaused
	onAdminTransferred []OnAdminTransferred
	onBaseURIUpdated   []OnBaseURIUpdated
	onTokenURIUpdated  []OnTokenURIUpdated
	onJournalFlushed   []OnJournalFlushed
	uriResolvers       map[string]URIResolver
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:       slog.Default(),
		uriResolvers: make(map[string]URIResolver),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTokenMinted); ok {
		r.onTokenMinted = append(r.onTokenMinted, v)
	}
	if v, ok := p.(OnTokenTransferred); ok {
		r.onTokenTransferred = append(r.onTokenTransferred, v)
	}
	if v, ok := p.(OnTokenBurned); ok {
		r.onTokenBurned = append(r.onTokenBurned, v)
	}
	if v, ok := p.(OnTokenApproved); ok {
		r.onTokenApproved = append(r.onTokenApproved, v)
	}
	if v, ok := p.(OnOperatorApproval); ok {
		r.onOperatorApproval = append(r.onOperatorApproval, v)
	}
	if v, ok := p.(OnMintPaused); ok {
		r.onMintPaused = append(r.onMintPaused, v)
	}
	if v, ok := p.(OnMintUnpaused); ok {
		r.onMintUnpaused = append(r.onMintUnpaused, v)
	}
	if v, ok := p.(OnAdminTransferred); ok {
		r.onAdminTransferred = append(r.onAdminTransferred, v)
	}
	if v, ok := p.(OnBaseURIUpdated); ok {
		r.onBaseURIUpdated = append(r.onBaseURIUpdated, v)
	}
	if v, ok := p.(OnTokenURIUpdated); ok {
		r.onTokenURIUpdated = append(r.onTokenURIUpdated, v)
	}
	if v, ok := p.(OnJournalFlushed); ok {
		r.onJournalFlushed = append(r.onJournalFlushed, v)
	}
	if v, ok := p.(URIResolver); ok {
		r.uriResolvers[v.ResolverName()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTokenMinted)(nil)).Elem(), "OnTokenMinted")
	checkInterface(reflect.TypeOf((*OnTokenTransferred)(nil)).Elem(), "OnTokenTransferred")
	checkInterface(reflect.TypeOf((*OnTokenBurned)(nil)).Elem(), "OnTokenBurned")
	checkInterface(reflect.TypeOf((*OnTokenApproved)(nil)).Elem(), "OnTokenApproved")
	checkInterface(reflect.TypeOf((*OnOperatorApproval)(nil)).Elem(), "OnOperatorApproval")
	checkInterface(reflect.TypeOf((*URIResolver)(nil)).Elem(), "URIResolver")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenMinted calls OnTokenMinted for all plugins that implement it.
func (r *Registry) EmitTokenMinted(ctx context.Context, t *token.Token) {
	r.mu.RLock()
	plugins := r.onTokenMinted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenMinted(ctx, t)
		}); err != nil {
			r.logger.Warn("plugin OnTokenMinted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenTransferred calls OnTokenTransferred for all plugins that implement it.
func (r *Registry) EmitTokenTransferred(ctx context.Context, from, to id.Principal, tokenID uint64, data []byte) {
	r.mu.RLock()
	plugins := r.onTokenTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenTransferred(ctx, from, to, tokenID, data)
		}); err != nil {
			r.logger.Warn("plugin OnTokenTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenBurned calls OnTokenBurned for all plugins that implement it.
func (r *Registry) EmitTokenBurned(ctx context.Context, owner id.Principal, tokenID uint64) {
	r.mu.RLock()
	plugins := r.onTokenBurned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenBurned(ctx, owner, tokenID)
		}); err != nil {
			r.logger.Warn("plugin OnTokenBurned failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenApproved calls OnTokenApproved for all plugins that implement it.
func (r *Registry) EmitTokenApproved(ctx context.Context, owner, delegate id.Principal, tokenID uint64) {
	r.mu.RLock()
	plugins := r.onTokenApproved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenApproved(ctx, owner, delegate, tokenID)
		}); err != nil {
			r.logger.Warn("plugin OnTokenApproved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOperatorApproval calls OnOperatorApproval for all plugins that implement it.
func (r *Registry) EmitOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) {
	r.mu.RLock()
	plugins := r.onOperatorApproval
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOperatorApproval(ctx, owner, operator, approved)
		}); err != nil {
			r.logger.Warn("plugin OnOperatorApproval failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMintPaused calls OnMintPaused for all plugins that implement it.
func (r *Registry) EmitMintPaused(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onMintPaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMintPaused(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnMintPaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMintUnpaused calls OnMintUnpaused for all plugins that implement it.
func (r *Registry) EmitMintUnpaused(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onMintUnpaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMintUnpaused(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnMintUnpaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAdminTransferred calls OnAdminTransferred for all plugins that implement it.
func (r *Registry) EmitAdminTransferred(ctx context.Context, previous, next id.Principal) {
	r.mu.RLock()
	plugins := r.onAdminTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAdminTransferred(ctx, previous, next)
		}); err != nil {
			r.logger.Warn("plugin OnAdminTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBaseURIUpdated calls OnBaseURIUpdated for all plugins that implement it.
func (r *Registry) EmitBaseURIUpdated(ctx context.Context, uri string) {
	r.mu.RLock()
	plugins := r.onBaseURIUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBaseURIUpdated(ctx, uri)
		}); err != nil {
			r.logger.Warn("plugin OnBaseURIUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokenURIUpdated calls OnTokenURIUpdated for all plugins that implement it.
func (r *Registry) EmitTokenURIUpdated(ctx context.Context, tokenID uint64, uri string) {
	r.mu.RLock()
	plugins := r.onTokenURIUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokenURIUpdated(ctx, tokenID, uri)
		}); err != nil {
			r.logger.Warn("plugin OnTokenURIUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalFlushed calls OnJournalFlushed for all plugins that implement it.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onJournalFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnJournalFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnJournalFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetURIResolver returns a URI resolver by strategy name.
func (r *Registry) GetURIResolver(name string) URIResolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.uriResolvers[name]
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
