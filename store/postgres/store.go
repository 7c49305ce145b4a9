package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	nftstore "github.com/xraph/nftledger/store"
	"github.com/xraph/nftledger/token"
)

// compile-time interface check
var _ nftstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("nftledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("nftledger/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Collection Store ====================

func (s *Store) InitCollection(ctx context.Context, c *token.Collection) error {
	existing := new(collectionModel)
	err := s.pg.NewSelect(existing).
		Where("id = $1", collectionRowID).
		Scan(ctx)
	if err == nil {
		return nftledger.ErrCollectionExists
	}
	if !isNoRows(err) {
		return err
	}

	m := toCollectionModel(c)
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCollection(ctx context.Context) (*token.Collection, error) {
	m := new(collectionModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", collectionRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nftledger.ErrCollectionNotFound
		}
		return nil, err
	}
	return fromCollectionModel(m)
}

func (s *Store) UpdateCollection(ctx context.Context, c *token.Collection) error {
	m := toCollectionModel(c)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return nftledger.ErrCollectionNotFound
	}
	return nil
}

// ==================== Token Store ====================

func (s *Store) GetToken(ctx context.Context, tokenID uint64) (*token.Token, error) {
	m := new(tokenModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", tokenID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nftledger.ErrTokenNotFound
		}
		return nil, err
	}
	return fromTokenModel(m)
}

func (s *Store) InsertToken(ctx context.Context, t *token.Token) error {
	m := toTokenModel(t)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}

	// Supply bump rides with the insert; the engine serializes writes so
	// the pair is never interleaved with another mutation.
	_, err := s.pg.NewUpdate((*collectionModel)(nil)).
		Set("total_supply = total_supply + 1").
		Set("updated_at = $1", now()).
		Where("id = $2", collectionRowID).
		Exec(ctx)
	return err
}

func (s *Store) TransferToken(ctx context.Context, tokenID uint64, to id.Principal) error {
	res, err := s.pg.NewUpdate((*tokenModel)(nil)).
		Set("owner = $1", to.String()).
		Set("approved = $2", "").
		Set("updated_at = $3", now()).
		Where("id = $4", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID uint64) error {
	res, err := s.pg.NewDelete((*tokenModel)(nil)).
		Where("id = $1", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return nftledger.ErrTokenNotFound
	}

	_, err = s.pg.NewUpdate((*collectionModel)(nil)).
		Set("total_supply = total_supply - 1").
		Set("updated_at = $1", now()).
		Where("id = $2", collectionRowID).
		Exec(ctx)
	return err
}

func (s *Store) SetTokenApproval(ctx context.Context, tokenID uint64, delegate id.Principal) error {
	res, err := s.pg.NewUpdate((*tokenModel)(nil)).
		Set("approved = $1", principalString(delegate)).
		Set("updated_at = $2", now()).
		Where("id = $3", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) SetTokenURI(ctx context.Context, tokenID uint64, uri string) error {
	res, err := s.pg.NewUpdate((*tokenModel)(nil)).
		Set("uri_override = $1", uri).
		Set("updated_at = $2", now()).
		Where("id = $3", tokenID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) BalanceOf(ctx context.Context, owner id.Principal) (uint64, error) {
	var count int64
	err := s.pg.NewRaw(`
		SELECT COUNT(*) FROM nft_tokens WHERE owner = $1
	`, owner.String()).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return uint64(count), nil
}

func (s *Store) ListTokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error) {
	var models []tokenModel
	q := s.pg.NewSelect(&models)

	if !opts.Owner.IsNil() {
		q = q.Where("owner = $1", opts.Owner.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*token.Token, len(models))
	for i := range models {
		t, err := fromTokenModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Operator Store ====================

func (s *Store) SetOperatorApproval(ctx context.Context, owner, operator id.Principal, approved bool) error {
	if !approved {
		_, err := s.pg.NewDelete((*operatorApprovalModel)(nil)).
			Where("owner = $1", owner.String()).
			Where("operator = $2", operator.String()).
			Exec(ctx)
		return err
	}

	t := now()
	m := &operatorApprovalModel{
		Owner:     owner.String(),
		Operator:  operator.String(),
		Approved:  true,
		CreatedAt: t,
		UpdatedAt: t,
	}
	_, err := s.pg.NewInsert(m).
		OnConflict("(owner, operator) DO UPDATE").
		Set("approved = EXCLUDED.approved").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) IsOperator(ctx context.Context, owner, operator id.Principal) (bool, error) {
	m := new(operatorApprovalModel)
	err := s.pg.NewSelect(m).
		Where("owner = $1", owner.String()).
		Where("operator = $2", operator.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return m.Approved, nil
}

func (s *Store) ListOperators(ctx context.Context, owner id.Principal) ([]*approval.OperatorApproval, error) {
	var models []operatorApprovalModel
	err := s.pg.NewSelect(&models).
		Where("owner = $1", owner.String()).
		OrderExpr("operator ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*approval.OperatorApproval, len(models))
	for i := range models {
		g, err := fromOperatorApprovalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = g
	}
	return result, nil
}

// ==================== Event Store ====================

func (s *Store) AppendEvents(ctx context.Context, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]eventModel, len(events))
	for i, e := range events {
		models[i] = *toEventModel(e)
	}
	_, err := s.pg.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	arg := 0
	next := func() string {
		arg++
		return fmt.Sprintf("$%d", arg)
	}

	if opts.Type != "" {
		q = q.Where("type = "+next(), string(opts.Type))
	}
	if opts.TokenID != nil {
		q = q.Where("token_id = "+next(), *opts.TokenID)
	}
	if !opts.Since.IsZero() {
		q = q.Where("timestamp >= "+next(), opts.Since)
	}
	if !opts.Until.IsZero() {
		q = q.Where("timestamp <= "+next(), opts.Until)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("sequence ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pg.NewDelete((*eventModel)(nil)).
		Where("timestamp < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
