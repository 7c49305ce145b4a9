package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	nftstore "github.com/xraph/nftledger/store"
	"github.com/xraph/nftledger/token"
)

// Store is the in-memory registry store. It is the default driver for
// tests and embedded deployments; all state lives in process memory and
// is lost on shutdown.
type Store struct {
	mu sync.RWMutex

	// Collection singleton
	collection *token.Collection

	// Token storage
	tokens   map[uint64]*token.Token
	balances map[string]uint64

	// Operator approvals, keyed owner -> operator
	operators map[string]map[string]*approval.OperatorApproval

	// Event journal
	events []*event.Event

	closed bool
}

var _ nftstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		tokens:    make(map[uint64]*token.Token),
		balances:  make(map[string]uint64),
		operators: make(map[string]map[string]*approval.OperatorApproval),
		events:    make([]*event.Event, 0),
	}
}

// Collection Store implementation

func (s *Store) InitCollection(_ context.Context, c *token.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection != nil {
		return nftledger.ErrCollectionExists
	}
	cp := *c
	s.collection = &cp
	return nil
}

func (s *Store) GetCollection(_ context.Context) (*token.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.collection == nil {
		return nil, nftledger.ErrCollectionNotFound
	}
	cp := *s.collection
	return &cp, nil
}

func (s *Store) UpdateCollection(_ context.Context, c *token.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection == nil {
		return nftledger.ErrCollectionNotFound
	}
	cp := *c
	s.collection = &cp
	return nil
}

// Token Store implementation

func (s *Store) GetToken(_ context.Context, tokenID uint64) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tokens[tokenID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nftledger.ErrTokenNotFound
}

func (s *Store) InsertToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection == nil {
		return nftledger.ErrCollectionNotFound
	}
	if _, exists := s.tokens[t.ID]; exists {
		return nftledger.ErrTokenExists
	}

	cp := *t
	s.tokens[t.ID] = &cp
	s.balances[t.Owner.String()]++
	s.collection.TotalSupply++
	return nil
}

func (s *Store) TransferToken(_ context.Context, tokenID uint64, to id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nftledger.ErrTokenNotFound
	}

	s.balances[t.Owner.String()]--
	if s.balances[t.Owner.String()] == 0 {
		delete(s.balances, t.Owner.String())
	}
	s.balances[to.String()]++

	t.Owner = to
	t.Approved = id.Nil
	t.Touch()
	return nil
}

func (s *Store) DeleteToken(_ context.Context, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nftledger.ErrTokenNotFound
	}

	s.balances[t.Owner.String()]--
	if s.balances[t.Owner.String()] == 0 {
		delete(s.balances, t.Owner.String())
	}
	delete(s.tokens, tokenID)
	if s.collection != nil {
		s.collection.TotalSupply--
	}
	return nil
}

func (s *Store) SetTokenApproval(_ context.Context, tokenID uint64, delegate id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nftledger.ErrTokenNotFound
	}
	t.Approved = delegate
	t.Touch()
	return nil
}

func (s *Store) SetTokenURI(_ context.Context, tokenID uint64, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nftledger.ErrTokenNotFound
	}
	t.URIOverride = uri
	t.Touch()
	return nil
}

func (s *Store) BalanceOf(_ context.Context, owner id.Principal) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances[owner.String()], nil
}

func (s *Store) ListTokens(_ context.Context, opts token.ListOpts) ([]*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*token.Token, 0)
	for _, t := range s.tokens {
		if !opts.Owner.IsNil() && !t.Owner.Equal(opts.Owner) {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	// Apply limit/offset
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Operator Store implementation

func (s *Store) SetOperatorApproval(_ context.Context, owner, operator id.Principal, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grants, ok := s.operators[owner.String()]
	if !ok {
		if !approved {
			return nil
		}
		grants = make(map[string]*approval.OperatorApproval)
		s.operators[owner.String()] = grants
	}

	if !approved {
		delete(grants, operator.String())
		if len(grants) == 0 {
			delete(s.operators, owner.String())
		}
		return nil
	}

	if g, exists := grants[operator.String()]; exists {
		g.Approved = true
		g.Touch()
		return nil
	}
	grants[operator.String()] = approval.NewOperatorApproval(owner, operator)
	return nil
}

func (s *Store) IsOperator(_ context.Context, owner, operator id.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if grants, ok := s.operators[owner.String()]; ok {
		if g, exists := grants[operator.String()]; exists {
			return g.Approved, nil
		}
	}
	return false, nil
}

func (s *Store) ListOperators(_ context.Context, owner id.Principal) ([]*approval.OperatorApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*approval.OperatorApproval, 0)
	for _, g := range s.operators[owner.String()] {
		cp := *g
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Operator.String() < result[j].Operator.String()
	})
	return result, nil
}

// Event Store implementation

func (s *Store) AppendEvents(_ context.Context, events []*event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		cp := *e
		s.events = append(s.events, &cp)
	}
	return nil
}

func (s *Store) QueryEvents(_ context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Event, 0)
	for _, e := range s.events {
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		if opts.TokenID != nil && e.TokenID != *opts.TokenID {
			continue
		}
		if !opts.Since.IsZero() && e.Timestamp.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && e.Timestamp.After(opts.Until) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })

	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*event.Event, 0, len(s.events))
	var purged int64
	for _, e := range s.events {
		if e.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return purged, nil
}

// Core Store implementation

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nftledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
