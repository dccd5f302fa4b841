// Package postgres provides a PostgreSQL-backed store via the pgx stdlib
// driver. Paired operations run inside explicit transactions with the
// account row locked FOR UPDATE, so concurrent debits serialize on the row.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/xraph/arena"
	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	ledgerstore "github.com/xraph/arena/store"
	"github.com/xraph/arena/tournament"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL via database/sql.
type Store struct {
	db *sql.DB
}

// New opens a PostgreSQL connection pool for the given URL.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("arena/postgres: open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", arena.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Credit Store ====================

// applyTxn runs the ledger write inside the caller's transaction. The
// account row is created if missing and locked FOR UPDATE, so the balance
// precondition holds against concurrent writers. The transaction insert
// precedes the precondition check so a redelivered debit reports
// ErrDuplicateReference, not ErrInsufficientCredits.
func (s *Store) applyTxn(ctx context.Context, tx *sql.Tx, txn *credit.Transaction) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO arena_accounts (id, balance) VALUES ($1, 0)
ON CONFLICT (id) DO NOTHING`, txn.AccountID.String()); err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, `
SELECT balance FROM arena_accounts WHERE id = $1 FOR UPDATE`,
		txn.AccountID.String()).Scan(&balance); err != nil {
		return 0, err
	}

	_, err := tx.ExecContext(ctx, `
INSERT INTO arena_transactions (id, account_id, delta, kind, reference, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txn.ID.String(), txn.AccountID.String(), txn.Delta, string(txn.Kind),
		txn.Reference, txn.Description, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, arena.ErrDuplicateReference
		}
		return 0, err
	}

	newBalance := balance + txn.Delta
	if txn.Delta < 0 && newBalance < 0 {
		return 0, arena.ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE arena_accounts SET balance = $1, updated_at = now() WHERE id = $2`,
		newBalance, txn.AccountID.String()); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (s *Store) ApplyTransaction(ctx context.Context, txn *credit.Transaction) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	newBalance, err := s.applyTxn(ctx, tx, txn)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	return newBalance, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID id.AccountID) (*credit.Account, error) {
	var (
		acct  credit.Account
		rawID string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, balance, created_at, updated_at FROM arena_accounts WHERE id = $1`,
		accountID.String()).Scan(&rawID, &acct.Balance, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrAccountNotFound
		}
		return nil, err
	}
	acct.ID = accountID
	return &acct, nil
}

func (s *Store) GetBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM arena_accounts WHERE id = $1`, accountID.String()).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, arena.ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID id.AccountID, opts credit.ListOpts) ([]*credit.Transaction, error) {
	query := `
SELECT id, account_id, delta, kind, reference, description, created_at, updated_at
FROM arena_transactions WHERE account_id = $1`
	args := []any{accountID.String()}

	if opts.Kind != "" {
		args = append(args, string(opts.Kind))
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*credit.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}

// ==================== Tournament Store ====================

func (s *Store) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO arena_tournaments (id, owner_id, title, description, status, started_at, ended_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID.String(), t.OwnerID.String(), t.Title, t.Description, string(t.Status),
		t.StartedAt, t.EndedAt, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *Store) GetTournament(ctx context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, description, status, started_at, ended_at, created_at, updated_at
FROM arena_tournaments WHERE id = $1`, tournamentID.String())

	t, err := scanTournament(row)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Store) ListTournaments(ctx context.Context, ownerID id.AccountID, opts tournament.ListOpts) ([]*tournament.Tournament, error) {
	query := `
SELECT id, owner_id, title, description, status, started_at, ended_at, created_at, updated_at
FROM arena_tournaments WHERE owner_id = $1`
	args := []any{ownerID.String()}

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*tournament.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) DeleteTournament(ctx context.Context, tournamentID id.TournamentID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM arena_collaborations WHERE tournament_id = $1`, tournamentID.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM arena_tournaments WHERE id = $1`, tournamentID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return arena.ErrTournamentNotFound
	}
	return tx.Commit()
}

// ==================== Broadcast Store ====================

func (s *Store) StartBroadcast(ctx context.Context, sess *tournament.Session, debit *credit.Transaction) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var rawStatus string
	err = tx.QueryRowContext(ctx, `
SELECT status FROM arena_tournaments WHERE id = $1 FOR UPDATE`,
		sess.TournamentID.String()).Scan(&rawStatus)
	if err != nil {
		if isNoRows(err) {
			return 0, arena.ErrTournamentNotFound
		}
		return 0, err
	}
	switch tournament.Status(rawStatus) {
	case tournament.StatusLive:
		return 0, arena.ErrTournamentLive
	case tournament.StatusEnded:
		return 0, arena.ErrTournamentEnded
	}

	newBalance, err := s.applyTxn(ctx, tx, debit)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE arena_tournaments SET status = $1, started_at = $2, updated_at = now() WHERE id = $3`,
		string(tournament.StatusLive), sess.StartedAt, sess.TournamentID.String()); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO arena_sessions (id, tournament_id, stream_key, status, viewer_count, last_seen_at, started_at, ended_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sess.ID.String(), sess.TournamentID.String(), sess.StreamKey, string(sess.Status),
		sess.ViewerCount, sess.LastSeenAt, sess.StartedAt, sess.EndedAt,
		sess.CreatedAt, sess.UpdatedAt); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	return newBalance, nil
}

func (s *Store) EndBroadcast(ctx context.Context, sessionID id.SessionID, tournamentID id.TournamentID, endedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
UPDATE arena_sessions SET status = $1, ended_at = $2, updated_at = now()
WHERE id = $3 AND status = $4`,
		string(tournament.SessionEnded), endedAt, sessionID.String(), string(tournament.SessionLive))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM arena_sessions WHERE id = $1`, sessionID.String()).Scan(&exists)
		if isNoRows(err) {
			return arena.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return arena.ErrSessionEnded
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE arena_tournaments SET status = $1, ended_at = $2, updated_at = now() WHERE id = $3`,
		string(tournament.StatusEnded), endedAt, tournamentID.String()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID id.SessionID) (*tournament.Session, error) {
	row := s.db.QueryRowContext(ctx, sessionSelect+` WHERE id = $1`, sessionID.String())
	sess, err := scanSession(row)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *Store) GetActiveSession(ctx context.Context, tournamentID id.TournamentID) (*tournament.Session, error) {
	row := s.db.QueryRowContext(ctx,
		sessionSelect+` WHERE tournament_id = $1 AND status = $2`,
		tournamentID.String(), string(tournament.SessionLive))
	sess, err := scanSession(row)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *Store) TouchSession(ctx context.Context, sessionID id.SessionID, viewerCount int, seenAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE arena_sessions SET viewer_count = $1, last_seen_at = $2, updated_at = now()
WHERE id = $3 AND status = $4`,
		viewerCount, seenAt, sessionID.String(), string(tournament.SessionLive))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM arena_sessions WHERE id = $1`, sessionID.String()).Scan(&exists)
		if isNoRows(err) {
			return arena.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return arena.ErrSessionEnded
	}
	return nil
}

func (s *Store) ListStaleSessions(ctx context.Context, cutoff time.Time) ([]*tournament.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		sessionSelect+` WHERE status = $1 AND last_seen_at < $2`,
		string(tournament.SessionLive), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*tournament.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

const sessionSelect = `
SELECT id, tournament_id, stream_key, status, viewer_count, last_seen_at, started_at, ended_at, created_at, updated_at
FROM arena_sessions`

// ==================== Collaboration Store ====================

func (s *Store) CreateCollaboration(ctx context.Context, c *collab.Collaboration) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO arena_collaborations (id, tournament_id, account_id, granted_by, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID.String(), c.TournamentID.String(), c.AccountID.String(), c.GrantedBy.String(),
		string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return arena.ErrCollaborationExists
		}
		return err
	}
	return nil
}

func (s *Store) GetCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) (*collab.Collaboration, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, tournament_id, account_id, granted_by, status, created_at, updated_at
FROM arena_collaborations WHERE tournament_id = $1 AND account_id = $2`,
		tournamentID.String(), accountID.String())

	c, err := scanCollaboration(row)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrCollaborationNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCollaboration(ctx context.Context, c *collab.Collaboration) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE arena_collaborations SET status = $1, updated_at = $2 WHERE id = $3`,
		string(c.Status), c.UpdatedAt, c.ID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return arena.ErrCollaborationNotFound
	}
	return nil
}

func (s *Store) DeleteCollaboration(ctx context.Context, tournamentID id.TournamentID, accountID id.AccountID) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM arena_collaborations WHERE tournament_id = $1 AND account_id = $2`,
		tournamentID.String(), accountID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return arena.ErrCollaborationNotFound
	}
	return nil
}

func (s *Store) ListCollaborations(ctx context.Context, tournamentID id.TournamentID) ([]*collab.Collaboration, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, tournament_id, account_id, granted_by, status, created_at, updated_at
FROM arena_collaborations WHERE tournament_id = $1 ORDER BY created_at ASC`,
		tournamentID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*collab.Collaboration, 0)
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// ==================== Pack Store ====================

func (s *Store) CreatePack(ctx context.Context, p *pack.Pack) error {
	meta, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO arena_packs (id, slug, name, description, credits, price_amount, price_currency, provider_price_id, status, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID.String(), p.Slug, p.Name, p.Description, p.Credits,
		p.Price.Amount, p.Price.Currency, p.ProviderPriceID, string(p.Status),
		meta, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return arena.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetPack(ctx context.Context, packID id.PackID) (*pack.Pack, error) {
	return s.getPackWhere(ctx, `id = $1`, packID.String())
}

func (s *Store) GetPackBySlug(ctx context.Context, slug string) (*pack.Pack, error) {
	return s.getPackWhere(ctx, `slug = $1`, slug)
}

func (s *Store) GetPackByPriceID(ctx context.Context, priceID string) (*pack.Pack, error) {
	if priceID == "" {
		return nil, arena.ErrPackNotFound
	}
	return s.getPackWhere(ctx, `provider_price_id = $1`, priceID)
}

func (s *Store) getPackWhere(ctx context.Context, where string, arg any) (*pack.Pack, error) {
	row := s.db.QueryRowContext(ctx, packSelect+` WHERE `+where, arg)
	p, err := scanPack(row)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrPackNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPacks(ctx context.Context, opts pack.ListOpts) ([]*pack.Pack, error) {
	query := packSelect
	args := []any{}
	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	query += ` ORDER BY credits ASC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*pack.Pack, 0)
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) UpdatePack(ctx context.Context, p *pack.Pack) error {
	meta, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE arena_packs SET slug = $1, name = $2, description = $3, credits = $4, price_amount = $5, price_currency = $6, provider_price_id = $7, status = $8, metadata = $9, updated_at = $10
WHERE id = $11`,
		p.Slug, p.Name, p.Description, p.Credits, p.Price.Amount, p.Price.Currency,
		p.ProviderPriceID, string(p.Status), meta, p.UpdatedAt, p.ID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return arena.ErrPackNotFound
	}
	return nil
}

func (s *Store) ArchivePack(ctx context.Context, packID id.PackID) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE arena_packs SET status = $1, updated_at = now() WHERE id = $2`,
		string(pack.StatusArchived), packID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return arena.ErrPackNotFound
	}
	return nil
}

const packSelect = `
SELECT id, slug, name, description, credits, price_amount, price_currency, provider_price_id, status, metadata, created_at, updated_at
FROM arena_packs`
