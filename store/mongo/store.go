// Package mongo provides a MongoDB-backed store. Paired operations run in
// multi-document transactions, which requires a replica set deployment.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/arena"
	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	ledgerstore "github.com/xraph/arena/store"
	"github.com/xraph/arena/tournament"
)

// Collection name constants.
const (
	colAccounts       = "arena_accounts"
	colTransactions   = "arena_transactions"
	colTournaments    = "arena_tournaments"
	colSessions       = "arena_sessions"
	colCollaborations = "arena_collaborations"
	colPacks          = "arena_packs"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using the official MongoDB driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New wraps an existing client. The paired ledger operations use
// multi-document transactions, so the deployment must be a replica set.
func New(client *mongo.Client, dbName string) *Store {
	return &Store{
		client: client,
		db:     client.Database(dbName),
	}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all arena collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%w: %s indexes: %v", arena.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// withTransaction runs fn inside a mongo multi-document transaction.
func (s *Store) withTransaction(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

// ==================== Credit Store ====================

// applyTxn runs the ledger write inside the caller's transaction context:
// duplicate-reference check via the unique index, implicit account creation,
// balance precondition, and the balance update itself.
func (s *Store) applyTxn(ctx context.Context, txn *credit.Transaction) (int64, error) {
	_, err := s.db.Collection(colTransactions).InsertOne(ctx, toTransactionModel(txn))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, arena.ErrDuplicateReference
		}
		return 0, err
	}

	accounts := s.db.Collection(colAccounts)
	now := time.Now().UTC()

	var acct accountModel
	err = accounts.FindOne(ctx, bson.M{"_id": txn.AccountID.String()}).Decode(&acct)
	switch {
	case isNoDocuments(err):
		acct = accountModel{ID: txn.AccountID.String(), CreatedAt: now, UpdatedAt: now}
		if _, err := accounts.InsertOne(ctx, acct); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	}

	newBalance := acct.Balance + txn.Delta
	if txn.Delta < 0 && newBalance < 0 {
		return 0, arena.ErrInsufficientCredits
	}

	if _, err := accounts.UpdateOne(ctx,
		bson.M{"_id": txn.AccountID.String()},
		bson.M{"$set": bson.M{"balance": newBalance, "updated_at": now}}); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (s *Store) ApplyTransaction(ctx context.Context, txn *credit.Transaction) (int64, error) {
	result, err := s.withTransaction(ctx, func(ctx context.Context) (any, error) {
		return s.applyTxn(ctx, txn)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*credit.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).FindOne(ctx, bson.M{"_id": accountID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrAccountNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) GetBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	acct, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID id.AccountID, opts credit.ListOpts) ([]*credit.Transaction, error) {
	filter := bson.M{"account_id": accountID.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colTransactions).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("arena/mongo: list transactions: %w", err)
	}
	var models []transactionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	result := make([]*credit.Transaction, len(models))
	for i := range models {
		txn, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = txn
	}
	return result, nil
}

// ==================== Tournament Store ====================

func (s *Store) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	if _, err := s.db.Collection(colTournaments).InsertOne(ctx, toTournamentModel(t)); err != nil {
		return fmt.Errorf("arena/mongo: create tournament: %w", err)
	}
	return nil
}

func (s *Store) GetTournament(ctx context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error) {
	var m tournamentModel
	err := s.db.Collection(colTournaments).FindOne(ctx, bson.M{"_id": tournamentID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrTournamentNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get tournament: %w", err)
	}
	return fromTournamentModel(&m)
}

func (s *Store) ListTournaments(ctx context.Context, ownerID id.AccountID, opts tournament.ListOpts) ([]*tournament.Tournament, error) {
	filter := bson.M{"owner_id": ownerID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colTournaments).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("arena/mongo: list tournaments: %w", err)
	}
	var models []tournamentModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	result := make([]*tournament.Tournament, len(models))
	for i := range models {
		t, err := fromTournamentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) DeleteTournament(ctx context.Context, tournamentID id.TournamentID) error {
	_, err := s.withTransaction(ctx, func(ctx context.Context) (any, error) {
		if _, err := s.db.Collection(colCollaborations).DeleteMany(ctx,
			bson.M{"tournament_id": tournamentID.String()}); err != nil {
			return nil, err
		}
		res, err := s.db.Collection(colTournaments).DeleteOne(ctx, bson.M{"_id": tournamentID.String()})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, arena.ErrTournamentNotFound
		}
		return nil, nil
	})
	return err
}

// ==================== Broadcast Store ====================

func (s *Store) StartBroadcast(ctx context.Context, sess *tournament.Session, debit *credit.Transaction) (int64, error) {
	result, err := s.withTransaction(ctx, func(ctx context.Context) (any, error) {
		var t tournamentModel
		err := s.db.Collection(colTournaments).FindOne(ctx,
			bson.M{"_id": sess.TournamentID.String()}).Decode(&t)
		if err != nil {
			if isNoDocuments(err) {
				return nil, arena.ErrTournamentNotFound
			}
			return nil, err
		}
		switch tournament.Status(t.Status) {
		case tournament.StatusLive:
			return nil, arena.ErrTournamentLive
		case tournament.StatusEnded:
			return nil, arena.ErrTournamentEnded
		}

		newBalance, err := s.applyTxn(ctx, debit)
		if err != nil {
			return nil, err
		}

		if _, err := s.db.Collection(colTournaments).UpdateOne(ctx,
			bson.M{"_id": sess.TournamentID.String()},
			bson.M{"$set": bson.M{
				"status":     string(tournament.StatusLive),
				"started_at": sess.StartedAt,
				"updated_at": time.Now().UTC(),
			}}); err != nil {
			return nil, err
		}

		if _, err := s.db.Collection(colSessions).InsertOne(ctx, toSessionModel(sess)); err != nil {
			return nil, err
		}

		return newBalance, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (s *Store) EndBroadcast(ctx context.Context, sessionID id.SessionID, tournamentID id.TournamentID, endedAt time.Time) error {
	_, err := s.withTransaction(ctx, func(ctx context.Context) (any, error) {
		res, err := s.db.Collection(colSessions).UpdateOne(ctx,
			bson.M{"_id": sessionID.String(), "status": string(tournament.SessionLive)},
			bson.M{"$set": bson.M{
				"status":     string(tournament.SessionEnded),
				"ended_at":   endedAt,
				"updated_at": time.Now().UTC(),
			}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			count, err := s.db.Collection(colSessions).CountDocuments(ctx, bson.M{"_id": sessionID.String()})
			if err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, arena.ErrSessionNotFound
			}
			return nil, arena.ErrSessionEnded
		}

		if _, err := s.db.Collection(colTournaments).UpdateOne(ctx,
			bson.M{"_id": tournamentID.String()},
			bson.M{"$set": bson.M{
				"status":     string(tournament.StatusEnded),
				"ended_at":   endedAt,
				"updated_at": time.Now().UTC(),
			}}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (s *Store) GetSession(ctx context.Context, sessionID id.SessionID) (*tournament.Session, error) {
	var m sessionModel
	err := s.db.Collection(colSessions).FindOne(ctx, bson.M{"_id": sessionID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrSessionNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get session: %w", err)
	}
	return fromSessionModel(&m)
}

func (s *Store) GetActiveSession(ctx context.Context, tournamentID id.TournamentID) (*tournament.Session, error) {
	var m sessionModel
	err := s.db.Collection(colSessions).FindOne(ctx, bson.M{
		"tournament_id": tournamentID.String(),
		"status":        string(tournament.SessionLive),
	}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrSessionNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get active session: %w", err)
	}
	return fromSessionModel(&m)
}

func (s *Store) TouchSession(ctx context.Context, sessionID id.SessionID, viewerCount int, seenAt time.Time) error {
	res, err := s.db.Collection(colSessions).UpdateOne(ctx,
		bson.M{"_id": sessionID.String(), "status": string(tournament.SessionLive)},
		bson.M{"$set": bson.M{
			"viewer_count": viewerCount,
			"last_seen_at": seenAt,
			"updated_at":   time.Now().UTC(),
		}})
	if err != nil {
		return fmt.Errorf("arena/mongo: touch session: %w", err)
	}
	if res.MatchedCount == 0 {
		count, err := s.db.Collection(colSessions).CountDocuments(ctx, bson.M{"_id": sessionID.String()})
		if err != nil {
			return err
		}
		if count == 0 {
			return arena.ErrSessionNotFound
		}
		return arena.ErrSessionEnded
	}
	return nil
}

func (s *Store) ListStaleSessions(ctx context.Context, cutoff time.Time) ([]*tournament.Session, error) {
	cursor, err := s.db.Collection(colSessions).Find(ctx, bson.M{
		"status":       string(tournament.SessionLive),
		"last_seen_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("arena/mongo: list stale sessions: %w", err)
	}
	var models []sessionModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	result := make([]*tournament.Session, len(models))
	for i := range models {
		sess, err := fromSessionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sess
	}
	return result, nil
}

// ==================== Collaboration Store ====================

func (s *Store) CreateCollaboration(ctx context.Context, c *collab.Collaboration) error {
	_, err := s.db.Collection(colCollaborations).InsertOne(ctx, toCollaborationModel(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return arena.ErrCollaborationExists
		}
		return fmt.Errorf("arena/mongo: create collaboration: %w", err)
	}
	return nil
}

func (s *Store) GetCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) (*collab.Collaboration, error) {
	var m collaborationModel
	err := s.db.Collection(colCollaborations).FindOne(ctx, bson.M{
		"tournament_id": tournamentID.String(),
		"account_id":    accountID.String(),
	}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrCollaborationNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get collaboration: %w", err)
	}
	return fromCollaborationModel(&m)
}

func (s *Store) UpdateCollaboration(ctx context.Context, c *collab.Collaboration) error {
	res, err := s.db.Collection(colCollaborations).UpdateOne(ctx,
		bson.M{"_id": c.ID.String()},
		bson.M{"$set": bson.M{"status": string(c.Status), "updated_at": c.UpdatedAt}})
	if err != nil {
		return fmt.Errorf("arena/mongo: update collaboration: %w", err)
	}
	if res.MatchedCount == 0 {
		return arena.ErrCollaborationNotFound
	}
	return nil
}

func (s *Store) DeleteCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error {
	res, err := s.db.Collection(colCollaborations).DeleteOne(ctx, bson.M{
		"tournament_id": tournamentID.String(),
		"account_id":    accountID.String(),
	})
	if err != nil {
		return fmt.Errorf("arena/mongo: delete collaboration: %w", err)
	}
	if res.DeletedCount == 0 {
		return arena.ErrCollaborationNotFound
	}
	return nil
}

func (s *Store) ListCollaborations(ctx context.Context, tournamentID id.TournamentID) ([]*collab.Collaboration, error) {
	cursor, err := s.db.Collection(colCollaborations).Find(ctx,
		bson.M{"tournament_id": tournamentID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("arena/mongo: list collaborations: %w", err)
	}
	var models []collaborationModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	result := make([]*collab.Collaboration, len(models))
	for i := range models {
		c, err := fromCollaborationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Pack Store ====================

func (s *Store) CreatePack(ctx context.Context, p *pack.Pack) error {
	_, err := s.db.Collection(colPacks).InsertOne(ctx, toPackModel(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return arena.ErrInvalidInput
		}
		return fmt.Errorf("arena/mongo: create pack: %w", err)
	}
	return nil
}

func (s *Store) GetPack(ctx context.Context, packID id.PackID) (*pack.Pack, error) {
	return s.getPack(ctx, bson.M{"_id": packID.String()})
}

func (s *Store) GetPackBySlug(ctx context.Context, slug string) (*pack.Pack, error) {
	return s.getPack(ctx, bson.M{"slug": slug})
}

func (s *Store) GetPackByPriceID(ctx context.Context, priceID string) (*pack.Pack, error) {
	if priceID == "" {
		return nil, arena.ErrPackNotFound
	}
	return s.getPack(ctx, bson.M{"provider_price_id": priceID})
}

func (s *Store) getPack(ctx context.Context, filter bson.M) (*pack.Pack, error) {
	var m packModel
	err := s.db.Collection(colPacks).FindOne(ctx, filter).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, arena.ErrPackNotFound
		}
		return nil, fmt.Errorf("arena/mongo: get pack: %w", err)
	}
	return fromPackModel(&m)
}

func (s *Store) ListPacks(ctx context.Context, opts pack.ListOpts) ([]*pack.Pack, error) {
	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "credits", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colPacks).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("arena/mongo: list packs: %w", err)
	}
	var models []packModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	result := make([]*pack.Pack, len(models))
	for i := range models {
		p, err := fromPackModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePack(ctx context.Context, p *pack.Pack) error {
	m := toPackModel(p)
	res, err := s.db.Collection(colPacks).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("arena/mongo: update pack: %w", err)
	}
	if res.MatchedCount == 0 {
		return arena.ErrPackNotFound
	}
	return nil
}

func (s *Store) ArchivePack(ctx context.Context, packID id.PackID) error {
	res, err := s.db.Collection(colPacks).UpdateOne(ctx,
		bson.M{"_id": packID.String()},
		bson.M{"$set": bson.M{"status": string(pack.StatusArchived), "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("arena/mongo: archive pack: %w", err)
	}
	if res.MatchedCount == 0 {
		return arena.ErrPackNotFound
	}
	return nil
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all arena collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTransactions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys: bson.D{{Key: "kind", Value: 1}, {Key: "reference", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"reference": bson.M{"$gt": ""}}),
			},
		},
		colTournaments: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colSessions: {
			{Keys: bson.D{{Key: "tournament_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_seen_at", Value: 1}}},
		},
		colCollaborations: {
			{
				Keys:    bson.D{{Key: "tournament_id", Value: 1}, {Key: "account_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colPacks: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "provider_price_id", Value: 1}}},
		},
	}
}
