package nftledger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/plugin"
	"github.com/xraph/nftledger/store"
	"github.com/xraph/nftledger/token"
	"github.com/xraph/nftledger/types"
)

// Ledger is the authoritative NFT registry engine. It owns every
// invariant: who owns which token, who may act on whose behalf, and how
// those rights and the token supply evolve under mint, transfer, approve,
// and burn.
//
// Callers are pre-authenticated: every operation takes the caller's
// principal as an argument and the engine never verifies identity itself.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// mu serializes every mutating operation. Validation, the store
	// write, and notification emission happen under one critical
	// section, so no operation ever observes a half-applied mutation
	// and notifications leave in application order.
	mu       sync.Mutex
	sequence uint64

	// Journal worker
	eventBuffer chan *event.Event
	stopChan    chan struct{}
	wg          sync.WaitGroup
	dropped     atomic.Uint64

	stopOnce sync.Once
	stopErr  error

	// Configuration
	eventBatchSize     int
	eventFlushInterval time.Duration
	uriStrategy        string
	disableMigrate     bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		eventBuffer:        make(chan *event.Event, 10000),
		stopChan:           make(chan struct{}),
		eventBatchSize:     100,
		eventFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithEventLogConfig configures journal batching parameters.
func WithEventLogConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		l.eventBatchSize = batchSize
		l.eventFlushInterval = flushInterval
	}
}

// WithURIStrategy selects a registered URIResolver plugin by name.
// When set, tokenURI resolution consults the resolver before the
// default override/base-URI rule.
func WithURIStrategy(name string) Option {
	return func(l *Ledger) {
		l.uriStrategy = name
	}
}

// WithDisableMigrate skips store migration on Start. Use when the host
// application manages schema migrations itself. Plugin initialization
// and the journal worker still run.
func WithDisableMigrate() Option {
	return func(l *Ledger) {
		l.disableMigrate = true
	}
}

// Start begins background workers.
func (l *Ledger) Start(ctx context.Context) error {
	// Migrate storage
	if !l.disableMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	// Initialize plugins
	l.plugins.EmitInit(ctx, l)

	// Start journal flush worker
	l.wg.Add(1)
	go l.journalFlushWorker(ctx)

	l.logger.Info("nft ledger started",
		"batch_size", l.eventBatchSize,
		"flush_interval", l.eventFlushInterval,
	)

	return nil
}

// Stop shuts down the Ledger. It is safe to call more than once; later
// calls return the first call's result.
func (l *Ledger) Stop() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()

		ctx := context.Background()
		l.plugins.EmitShutdown(ctx)

		l.stopErr = l.store.Close()
	})
	return l.stopErr
}

// ──────────────────────────────────────────────────
// Collection lifecycle
// ──────────────────────────────────────────────────

// Initialize creates the singleton collection record. It is called once
// at deployment; every later call fails with ErrCollectionExists.
func (l *Ledger) Initialize(ctx context.Context, c *token.Collection) error {
	if c.Name == "" {
		return ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if c.Symbol == "" {
		return ValidationError{Field: "symbol", Message: "cannot be empty"}
	}
	if c.Admin.IsNil() {
		return ErrNilAdmin
	}

	c.TotalSupply = 0
	c.Entity = types.NewEntity()

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.InitCollection(ctx, c)
}

// Collection returns the collection record: display metadata, supply
// counters, admin, pause flag, and base URI.
func (l *Ledger) Collection(ctx context.Context) (*token.Collection, error) {
	return l.store.GetCollection(ctx)
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// BalanceOf returns the number of tokens currently held by owner.
func (l *Ledger) BalanceOf(ctx context.Context, owner id.Principal) (uint64, error) {
	if owner.IsNil() {
		return 0, ErrNilPrincipal
	}
	return l.store.BalanceOf(ctx, owner)
}

// OwnerOf returns the current holder of tokenID.
func (l *Ledger) OwnerOf(ctx context.Context, tokenID uint64) (id.Principal, error) {
	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return id.Nil, err
	}
	return t.Owner, nil
}

// GetApproved returns the single-token delegate for tokenID, or the null
// principal when no delegate is set.
func (l *Ledger) GetApproved(ctx context.Context, tokenID uint64) (id.Principal, error) {
	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return id.Nil, err
	}
	return t.Approved, nil
}

// IsApprovedForAll reports whether operator holds a standing grant from
// owner. It never fails on valid input; unknown pairs are simply false.
func (l *Ledger) IsApprovedForAll(ctx context.Context, owner, operator id.Principal) (bool, error) {
	return l.store.IsOperator(ctx, owner, operator)
}

// TokenURI resolves the metadata location for tokenID: a registered URI
// strategy first, then the per-token override, then the base URI with
// the decimal token ID appended.
func (l *Ledger) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return "", err
	}

	c, err := l.store.GetCollection(ctx)
	if err != nil {
		return "", err
	}

	if l.uriStrategy != "" {
		if resolver := l.plugins.GetURIResolver(l.uriStrategy); resolver != nil {
			if uri, ok := resolver.ResolveURI(ctx, t, c.BaseURI); ok {
				return uri, nil
			}
		}
	}

	uri, ok := t.URI(c.BaseURI)
	if !ok {
		return "", ErrNoTokenURI
	}
	return uri, nil
}

// Tokens returns ownership rows matching opts, for indexers and admin UIs.
func (l *Ledger) Tokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error) {
	return l.store.ListTokens(ctx, opts)
}

// Operators returns the active operator grants issued by owner.
func (l *Ledger) Operators(ctx context.Context, owner id.Principal) ([]*approval.OperatorApproval, error) {
	if owner.IsNil() {
		return nil, ErrNilPrincipal
	}
	return l.store.ListOperators(ctx, owner)
}

// Events returns journal events matching opts, ordered by sequence.
func (l *Ledger) Events(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	return l.store.QueryEvents(ctx, opts)
}

// PurgeEvents deletes journal events recorded before the cutoff.
func (l *Ledger) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	return l.store.PurgeEvents(ctx, before)
}

// ──────────────────────────────────────────────────
// Approvals
// ──────────────────────────────────────────────────

// Approve sets delegate as the single-token delegate for tokenID,
// replacing any prior delegate. The null delegate clears the approval.
// The caller must be the token's owner or one of the owner's operators.
func (l *Ledger) Approve(ctx context.Context, caller, delegate id.Principal, tokenID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}

	ok, err := l.canAdminister(ctx, caller, t.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if delegate.Equal(t.Owner) {
		return ErrApprovalToOwner
	}

	if err := l.store.SetTokenApproval(ctx, tokenID, delegate); err != nil {
		return err
	}

	l.plugins.EmitTokenApproved(ctx, t.Owner, delegate, tokenID)
	l.journal(&event.Event{
		Type:    event.TypeApproved,
		TokenID: tokenID,
		From:    t.Owner,
		To:      delegate,
	})
	return nil
}

// SetApprovalForAll sets or clears operator as a standing delegate for
// every token the caller owns, now or later.
func (l *Ledger) SetApprovalForAll(ctx context.Context, caller, operator id.Principal, approved bool) error {
	if caller.IsNil() || operator.IsNil() {
		return ErrNilPrincipal
	}
	if operator.Equal(caller) {
		return ErrSelfApproval
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SetOperatorApproval(ctx, caller, operator, approved); err != nil {
		return err
	}

	l.plugins.EmitOperatorApproval(ctx, caller, operator, approved)
	l.journal(&event.Event{
		Type:     event.TypeOperatorSet,
		From:     caller,
		Operator: operator,
		Approved: approved,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer moves tokenID from its current owner to a new one. The caller
// must be the owner, the token's delegate, or an operator for the owner.
// Any single-token delegate is cleared by the move.
func (l *Ledger) Transfer(ctx context.Context, caller, from, to id.Principal, tokenID uint64) error {
	return l.transfer(ctx, caller, from, to, tokenID, nil)
}

// TransferWithData is Transfer with an opaque side-channel payload. The
// ledger effect is identical; the payload rides on the emitted
// notification only and is never interpreted.
func (l *Ledger) TransferWithData(ctx context.Context, caller, from, to id.Principal, tokenID uint64, data []byte) error {
	return l.transfer(ctx, caller, from, to, tokenID, data)
}

func (l *Ledger) transfer(ctx context.Context, caller, from, to id.Principal, tokenID uint64, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Existence, then authorization, then argument consistency.
	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}

	ok, err := l.isApprovedOrOwner(ctx, caller, t)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if !from.Equal(t.Owner) {
		return ErrOwnerMismatch
	}
	if to.IsNil() {
		return ErrNilRecipient
	}

	if err := l.store.TransferToken(ctx, tokenID, to); err != nil {
		return err
	}

	l.plugins.EmitTokenTransferred(ctx, from, to, tokenID, data)
	l.journal(&event.Event{
		Type:    event.TypeTransferred,
		TokenID: tokenID,
		From:    from,
		To:      to,
		Data:    data,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Mint / Burn
// ──────────────────────────────────────────────────

// Mint creates tokenID and assigns it to the recipient. Admin only. The
// token ID is caller-chosen and must not collide with an existing token;
// an ID freed by a burn may be reused.
func (l *Ledger) Mint(ctx context.Context, caller, to id.Principal, tokenID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetCollection(ctx)
	if err != nil {
		return err
	}

	if !caller.Equal(c.Admin) {
		return ErrNotAdmin
	}
	if c.MintPaused {
		return ErrMintingPaused
	}
	if to.IsNil() {
		return ErrNilRecipient
	}

	if _, err := l.store.GetToken(ctx, tokenID); err == nil {
		return ErrTokenExists
	} else if !IsNotFound(err) {
		return err
	}

	if c.TotalSupply >= c.MaxSupply {
		return ErrMaxSupplyReached
	}

	t := &token.Token{
		ID:     tokenID,
		Owner:  to,
		Entity: types.NewEntity(),
	}
	if err := l.store.InsertToken(ctx, t); err != nil {
		return err
	}

	l.plugins.EmitTokenMinted(ctx, t)
	l.journal(&event.Event{
		Type:    event.TypeMinted,
		TokenID: tokenID,
		To:      to,
	})
	return nil
}

// Burn destroys tokenID. The caller must be the owner, the token's
// delegate, or an operator for the owner. The token and its delegate
// approval cease to exist; operator grants are untouched.
func (l *Ledger) Burn(ctx context.Context, caller id.Principal, tokenID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}

	ok, err := l.isApprovedOrOwner(ctx, caller, t)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if err := l.store.DeleteToken(ctx, tokenID); err != nil {
		return err
	}

	l.plugins.EmitTokenBurned(ctx, t.Owner, tokenID)
	l.journal(&event.Event{
		Type:    event.TypeBurned,
		TokenID: tokenID,
		From:    t.Owner,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Admin operations
// ──────────────────────────────────────────────────

// PauseMinting stops issuance. Admin only; fails if already paused.
func (l *Ledger) PauseMinting(ctx context.Context, caller id.Principal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.requireAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if c.MintPaused {
		return ErrMintingPaused
	}

	c.MintPaused = true
	c.Touch()
	if err := l.store.UpdateCollection(ctx, c); err != nil {
		return err
	}

	l.plugins.EmitMintPaused(ctx)
	l.journal(&event.Event{Type: event.TypeMintPaused, From: caller})
	return nil
}

// UnpauseMinting resumes issuance. Admin only; fails if not paused.
func (l *Ledger) UnpauseMinting(ctx context.Context, caller id.Principal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.requireAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !c.MintPaused {
		return ErrMintingNotPaused
	}

	c.MintPaused = false
	c.Touch()
	if err := l.store.UpdateCollection(ctx, c); err != nil {
		return err
	}

	l.plugins.EmitMintUnpaused(ctx)
	l.journal(&event.Event{Type: event.TypeMintUnpaused, From: caller})
	return nil
}

// SetBaseTokenURI updates the default metadata location prefix.
func (l *Ledger) SetBaseTokenURI(ctx context.Context, caller id.Principal, uri string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.requireAdmin(ctx, caller)
	if err != nil {
		return err
	}

	c.BaseURI = uri
	c.Touch()
	if err := l.store.UpdateCollection(ctx, c); err != nil {
		return err
	}

	l.plugins.EmitBaseURIUpdated(ctx, uri)
	l.journal(&event.Event{Type: event.TypeBaseURIUpdated, From: caller, URI: uri})
	return nil
}

// SetTokenURI sets a per-token metadata override. Admin only; the token
// must exist.
func (l *Ledger) SetTokenURI(ctx context.Context, caller id.Principal, tokenID uint64, uri string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if _, err := l.store.GetToken(ctx, tokenID); err != nil {
		return err
	}

	if err := l.store.SetTokenURI(ctx, tokenID, uri); err != nil {
		return err
	}

	l.plugins.EmitTokenURIUpdated(ctx, tokenID, uri)
	l.journal(&event.Event{Type: event.TypeTokenURIUpdated, TokenID: tokenID, From: caller, URI: uri})
	return nil
}

// TransferAdmin hands registry administration to a new principal.
func (l *Ledger) TransferAdmin(ctx context.Context, caller, newAdmin id.Principal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.requireAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if newAdmin.IsNil() {
		return ErrNilAdmin
	}

	previous := c.Admin
	c.Admin = newAdmin
	c.Touch()
	if err := l.store.UpdateCollection(ctx, c); err != nil {
		return err
	}

	l.plugins.EmitAdminTransferred(ctx, previous, newAdmin)
	l.journal(&event.Event{Type: event.TypeAdminTransferred, From: previous, To: newAdmin})
	return nil
}

// ──────────────────────────────────────────────────
// Authorization predicates
// ──────────────────────────────────────────────────

// isApprovedOrOwner is the shared authorization predicate for transfer
// and burn: the caller is the token's owner, its single delegate, or an
// operator for the owner. The token has already been loaded, so
// non-existence surfaced before this check.
func (l *Ledger) isApprovedOrOwner(ctx context.Context, caller id.Principal, t *token.Token) (bool, error) {
	if caller.IsNil() {
		return false, nil
	}
	if caller.Equal(t.Owner) {
		return true, nil
	}
	if t.HasDelegate() && caller.Equal(t.Approved) {
		return true, nil
	}
	return l.store.IsOperator(ctx, t.Owner, caller)
}

// canAdminister reports whether caller may manage approvals for tokens
// held by owner: the owner itself or one of its operators. The single
// delegate deliberately does not qualify.
func (l *Ledger) canAdminister(ctx context.Context, caller, owner id.Principal) (bool, error) {
	if caller.IsNil() {
		return false, nil
	}
	if caller.Equal(owner) {
		return true, nil
	}
	return l.store.IsOperator(ctx, owner, caller)
}

// requireAdmin loads the collection and checks the caller against the
// stored admin principal.
func (l *Ledger) requireAdmin(ctx context.Context, caller id.Principal) (*token.Collection, error) {
	c, err := l.store.GetCollection(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.Equal(c.Admin) {
		return nil, ErrNotAdmin
	}
	return c, nil
}

// ──────────────────────────────────────────────────
// Journal
// ──────────────────────────────────────────────────

// journal stamps and enqueues an event for the flush worker. Called with
// l.mu held, so sequences follow application order exactly. Plugin
// dispatch already happened synchronously; a full buffer only costs the
// durable journal copy, never the operation.
func (l *Ledger) journal(e *event.Event) {
	l.sequence++
	e.ID = id.NewEventID()
	e.Sequence = l.sequence
	e.Timestamp = time.Now().UTC()

	select {
	case l.eventBuffer <- e:
	default:
		l.dropped.Add(1)
		l.logger.Warn("event journal buffer full, dropping event",
			"type", string(e.Type),
			"sequence", e.Sequence,
			"dropped_total", l.dropped.Load(),
		)
	}
}

// DroppedEvents reports how many journal events were dropped due to
// buffer overflow since the ledger was created.
func (l *Ledger) DroppedEvents() uint64 {
	return l.dropped.Load()
}

// journalFlushWorker flushes journal events to the store.
func (l *Ledger) journalFlushWorker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*event.Event, 0, l.eventBatchSize)
	ticker := time.NewTicker(l.eventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Drain anything still queued, then final flush.
			for {
				select {
				case e := <-l.eventBuffer:
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
			}
			return

		case e := <-l.eventBuffer:
			batch = append(batch, e)
			if len(batch) >= l.eventBatchSize {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*event.Event, 0, l.eventBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*event.Event, 0, l.eventBatchSize)
			}
		}
	}
}

func (l *Ledger) flushJournalBatch(ctx context.Context, batch []*event.Event) {
	start := time.Now()

	if err := l.store.AppendEvents(ctx, batch); err != nil {
		l.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	l.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
