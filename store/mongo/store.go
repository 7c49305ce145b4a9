package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/nftledger"
	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	nftstore "github.com/xraph/nftledger/store"
	"github.com/xraph/nftledger/token"
)

// Collection name constants.
const (
	colCollection = "nft_collection"
	colTokens     = "nft_tokens"
	colOperators  = "nft_operator_approvals"
	colEvents     = "nft_events"
)

// compile-time interface check
var _ nftstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all registry collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("nftledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	var existing collectionModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"_id": collectionDocID}).
		Scan(ctx)
	if err == nil {
		return nftledger.ErrCollectionExists
	}
	if !isNoDocuments(err) {
		return fmt.Errorf("nftledger/mongo: init collection: %w", err)
	}

	m := toCollectionModel(c)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nftledger.ErrCollectionExists
		}
		return fmt.Errorf("nftledger/mongo: init collection: %w", err)
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context) (*token.Collection, error) {
	var m collectionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": collectionDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nftledger.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("nftledger/mongo: get collection: %w", err)
	}
	return fromCollectionModel(&m)
}

func (s *Store) UpdateCollection(ctx context.Context, c *token.Collection) error {
	m := toCollectionModel(c)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": collectionDocID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: update collection: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nftledger.ErrCollectionNotFound
	}
	return nil
}

// ==================== Token Store ====================

func (s *Store) GetToken(ctx context.Context, tokenID uint64) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nftledger.ErrTokenNotFound
		}
		return nil, fmt.Errorf("nftledger/mongo: get token: %w", err)
	}
	return fromTokenModel(&m)
}

func (s *Store) InsertToken(ctx context.Context, t *token.Token) error {
	m := toTokenModel(t)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nftledger.ErrTokenExists
		}
		return fmt.Errorf("nftledger/mongo: insert token: %w", err)
	}

	// Supply bump rides with the insert; the engine serializes writes so
	// the pair is never interleaved with another mutation.
	_, err := s.mdb.NewUpdate((*collectionModel)(nil)).
		Filter(bson.M{"_id": collectionDocID}).
		SetUpdate(bson.M{
			"$inc": bson.M{"total_supply": 1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: bump supply: %w", err)
	}
	return nil
}

func (s *Store) TransferToken(ctx context.Context, tokenID uint64, to id.Principal) error {
	res, err := s.mdb.NewUpdate((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Set("owner", to.String()).
		Set("approved", "").
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: transfer token: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID uint64) error {
	res, err := s.mdb.NewDelete((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: delete token: %w", err)
	}
	if res.DeletedCount() == 0 {
		return nftledger.ErrTokenNotFound
	}

	_, err = s.mdb.NewUpdate((*collectionModel)(nil)).
		Filter(bson.M{"_id": collectionDocID}).
		SetUpdate(bson.M{
			"$inc": bson.M{"total_supply": -1},
			"$set": bson.M{"updated_at": now()},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: drop supply: %w", err)
	}
	return nil
}

func (s *Store) SetTokenApproval(ctx context.Context, tokenID uint64, delegate id.Principal) error {
	res, err := s.mdb.NewUpdate((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Set("approved", principalString(delegate)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: set token approval: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) SetTokenURI(ctx context.Context, tokenID uint64, uri string) error {
	res, err := s.mdb.NewUpdate((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID}).
		Set("uri_override", uri).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: set token uri: %w", err)
	}
	if res.MatchedCount() == 0 {
		return nftledger.ErrTokenNotFound
	}
	return nil
}

func (s *Store) BalanceOf(ctx context.Context, owner id.Principal) (uint64, error) {
	count, err := s.mdb.Collection(colTokens).CountDocuments(ctx, bson.M{"owner": owner.String()})
	if err != nil {
		return 0, fmt.Errorf("nftledger/mongo: balance of: %w", err)
	}
	return uint64(count), nil
}

func (s *Store) ListTokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error) {
	var models []tokenModel
	filter := bson.M{}
	if !opts.Owner.IsNil() {
		filter["owner"] = opts.Owner.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("nftledger/mongo: list tokens: %w", err)
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
	key := grantKey(owner, operator)

	if !approved {
		_, err := s.mdb.NewDelete((*operatorApprovalModel)(nil)).
			Filter(bson.M{"_id": key}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("nftledger/mongo: revoke operator: %w", err)
		}
		return nil
	}

	t := now()
	_, err := s.mdb.NewUpdate((*operatorApprovalModel)(nil)).
		Filter(bson.M{"_id": key}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"owner":      owner.String(),
				"operator":   operator.String(),
				"approved":   true,
				"updated_at": t,
			},
			"$setOnInsert": bson.M{
				"created_at": t,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("nftledger/mongo: set operator: %w", err)
	}
	return nil
}

func (s *Store) IsOperator(ctx context.Context, owner, operator id.Principal) (bool, error) {
	var m operatorApprovalModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantKey(owner, operator)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return false, nil
		}
		return false, fmt.Errorf("nftledger/mongo: is operator: %w", err)
	}
	return m.Approved, nil
}

func (s *Store) ListOperators(ctx context.Context, owner id.Principal) ([]*approval.OperatorApproval, error) {
	var models []operatorApprovalModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner": owner.String()}).
		Sort(bson.D{{Key: "operator", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("nftledger/mongo: list operators: %w", err)
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
	for _, e := range events {
		m := toEventModel(e)
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			// Re-flushed batches may overlap an earlier write.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("nftledger/mongo: append event: %w", err)
		}
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Event, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}
	if opts.TokenID != nil {
		filter["token_id"] = *opts.TokenID
	}
	ts := bson.M{}
	if !opts.Since.IsZero() {
		ts["$gte"] = opts.Since
	}
	if !opts.Until.IsZero() {
		ts["$lte"] = opts.Until
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	var models []eventModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "sequence", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("nftledger/mongo: query events: %w", err)
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
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"timestamp": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("nftledger/mongo: purge events: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all registry collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCollection: {},
		colTokens: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colOperators: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "operator", Value: 1}}},
		},
		colEvents: {
			{
				Keys:    bson.D{{Key: "sequence", Value: 1}},
				Options: options.Index().SetUnique(false),
			},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "token_id", Value: 1}, {Key: "sequence", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}
}
