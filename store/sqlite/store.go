// Package sqlite provides a SQLite-backed store using the pure-Go driver.
// Paired operations run inside explicit transactions; the single-writer
// nature of SQLite gives the serialization the ledger needs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

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

// Store implements store.Store on SQLite via database/sql.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database at the given DSN. Use ":memory:" for an
// ephemeral database.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("arena/sqlite: open database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("arena/sqlite: enable foreign keys: %w", err)
	}

	return &Store{db: db}, nil
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

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Credit Store ====================

// applyTxn runs the full ledger write inside the caller's transaction:
// implicit account creation, duplicate-reference check via the unique index,
// balance precondition, and the balance update itself. The account row must
// exist before the transaction insert satisfies its foreign key, and the
// transaction insert must precede the precondition so a redelivered debit
// reports ErrDuplicateReference, not ErrInsufficientCredits.
func (s *Store) applyTxn(ctx context.Context, tx *sql.Tx, txn *credit.Transaction) (int64, error) {
	now := fmtTime(time.Now().UTC())
	if _, err := tx.ExecContext(ctx, `
INSERT INTO arena_accounts (id, balance, created_at, updated_at)
VALUES (?, 0, ?, ?)
ON CONFLICT (id) DO NOTHING`, txn.AccountID.String(), now, now); err != nil {
		return 0, err
	}

	_, err := tx.ExecContext(ctx, `
INSERT INTO arena_transactions (id, account_id, delta, kind, reference, description, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID.String(), txn.AccountID.String(), txn.Delta, string(txn.Kind),
		txn.Reference, txn.Description, fmtTime(txn.CreatedAt), fmtTime(txn.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, arena.ErrDuplicateReference
		}
		return 0, err
	}

	var balance int64
	if err := tx.QueryRowContext(ctx,
		`SELECT balance FROM arena_accounts WHERE id = ?`, txn.AccountID.String()).Scan(&balance); err != nil {
		return 0, err
	}

	newBalance := balance + txn.Delta
	if txn.Delta < 0 && newBalance < 0 {
		return 0, arena.ErrInsufficientCredits
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE arena_accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		newBalance, fmtTime(time.Now().UTC()), txn.AccountID.String()); err != nil {
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
		acct                    credit.Account
		rawID, created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, balance, created_at, updated_at FROM arena_accounts WHERE id = ?`,
		accountID.String()).Scan(&rawID, &acct.Balance, &created, &updated)
	if err != nil {
		if isNoRows(err) {
			return nil, arena.ErrAccountNotFound
		}
		return nil, err
	}
	acct.ID = accountID
	acct.CreatedAt = parseTime(created)
	acct.UpdatedAt = parseTime(updated)
	return &acct, nil
}

func (s *Store) GetBalance(ctx context.Context, accountID id.AccountID) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM arena_accounts WHERE id = ?`, accountID.String()).Scan(&balance)
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
FROM arena_transactions WHERE account_id = ?`
	args := []any{accountID.String()}

	if opts.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(opts.Kind))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
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

func scanTransaction(rows *sql.Rows) (*credit.Transaction, error) {
	var (
		txn                        credit.Transaction
		rawID, rawAccount, rawKind string
		created, updated           string
	)
	if err := rows.Scan(&rawID, &rawAccount, &txn.Delta, &rawKind,
		&txn.Reference, &txn.Description, &created, &updated); err != nil {
		return nil, err
	}

	txnID, err := id.ParseTransactionID(rawID)
	if err != nil {
		return nil, err
	}
	acctID, err := id.ParseAccountID(rawAccount)
	if err != nil {
		return nil, err
	}

	txn.ID = txnID
	txn.AccountID = acctID
	txn.Kind = credit.Kind(rawKind)
	txn.CreatedAt = parseTime(created)
	txn.UpdatedAt = parseTime(updated)
	return &txn, nil
}

// ==================== Tournament Store ====================

func (s *Store) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO arena_tournaments (id, owner_id, title, description, status, started_at, ended_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.OwnerID.String(), t.Title, t.Description, string(t.Status),
		nullTime(t.StartedAt), nullTime(t.EndedAt), fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt))
	return err
}

func (s *Store) GetTournament(ctx context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, description, status, started_at, ended_at, created_at, updated_at
FROM arena_tournaments WHERE id = ?`, tournamentID.String())

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
FROM arena_tournaments WHERE owner_id = ?`
	args := []any{ownerID.String()}

	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
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
		`DELETE FROM arena_collaborations WHERE tournament_id = ?`, tournamentID.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM arena_tournaments WHERE id = ?`, tournamentID.String())
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTournament(row rowScanner) (*tournament.Tournament, error) {
	var (
		t                tournament.Tournament
		rawID, rawOwner  string
		rawStatus        string
		started, ended   sql.NullString
		created, updated string
	)
	if err := row.Scan(&rawID, &rawOwner, &t.Title, &t.Description, &rawStatus,
		&started, &ended, &created, &updated); err != nil {
		return nil, err
	}

	tid, err := id.ParseTournamentID(rawID)
	if err != nil {
		return nil, err
	}
	oid, err := id.ParseAccountID(rawOwner)
	if err != nil {
		return nil, err
	}

	t.ID = tid
	t.OwnerID = oid
	t.Status = tournament.Status(rawStatus)
	t.StartedAt = parseNullTime(started)
	t.EndedAt = parseNullTime(ended)
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return &t, nil
}

// ==================== Broadcast Store ====================

func (s *Store) StartBroadcast(ctx context.Context, sess *tournament.Session, debit *credit.Transaction) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var rawStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM arena_tournaments WHERE id = ?`, sess.TournamentID.String()).Scan(&rawStatus)
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
UPDATE arena_tournaments SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		string(tournament.StatusLive), fmtTime(sess.StartedAt), fmtTime(time.Now().UTC()),
		sess.TournamentID.String()); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO arena_sessions (id, tournament_id, stream_key, status, viewer_count, last_seen_at, started_at, ended_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID.String(), sess.TournamentID.String(), sess.StreamKey, string(sess.Status),
		sess.ViewerCount, fmtTime(sess.LastSeenAt), fmtTime(sess.StartedAt),
		nullTime(sess.EndedAt), fmtTime(sess.CreatedAt), fmtTime(sess.UpdatedAt)); err != nil {
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
UPDATE arena_sessions SET status = ?, ended_at = ?, updated_at = ?
WHERE id = ? AND status = ?`,
		string(tournament.SessionEnded), fmtTime(endedAt), fmtTime(time.Now().UTC()),
		sessionID.String(), string(tournament.SessionLive))
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish a missing session from one already ended.
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM arena_sessions WHERE id = ?`, sessionID.String()).Scan(&exists)
		if isNoRows(err) {
			return arena.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		return arena.ErrSessionEnded
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE arena_tournaments SET status = ?, ended_at = ?, updated_at = ? WHERE id = ?`,
		string(tournament.StatusEnded), fmtTime(endedAt), fmtTime(time.Now().UTC()),
		tournamentID.String()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", arena.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, sessionID id.SessionID) (*tournament.Session, error) {
	row := s.db.QueryRowContext(ctx, sessionSelect+` WHERE id = ?`, sessionID.String())
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
		sessionSelect+` WHERE tournament_id = ? AND status = ?`,
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
UPDATE arena_sessions SET viewer_count = ?, last_seen_at = ?, updated_at = ?
WHERE id = ? AND status = ?`,
		viewerCount, fmtTime(seenAt), fmtTime(time.Now().UTC()),
		sessionID.String(), string(tournament.SessionLive))
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
			`SELECT 1 FROM arena_sessions WHERE id = ?`, sessionID.String()).Scan(&exists)
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
		sessionSelect+` WHERE status = ? AND last_seen_at < ?`,
		string(tournament.SessionLive), fmtTime(cutoff))
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

func scanSession(row rowScanner) (*tournament.Session, error) {
	var (
		sess                 tournament.Session
		rawID, rawTournament string
		rawStatus            string
		lastSeen, started    string
		ended                sql.NullString
		created, updated     string
	)
	if err := row.Scan(&rawID, &rawTournament, &sess.StreamKey, &rawStatus,
		&sess.ViewerCount, &lastSeen, &started, &ended, &created, &updated); err != nil {
		return nil, err
	}

	sid, err := id.ParseSessionID(rawID)
	if err != nil {
		return nil, err
	}
	tid, err := id.ParseTournamentID(rawTournament)
	if err != nil {
		return nil, err
	}

	sess.ID = sid
	sess.TournamentID = tid
	sess.Status = tournament.SessionStatus(rawStatus)
	sess.LastSeenAt = parseTime(lastSeen)
	sess.StartedAt = parseTime(started)
	sess.EndedAt = parseNullTime(ended)
	sess.CreatedAt = parseTime(created)
	sess.UpdatedAt = parseTime(updated)
	return &sess, nil
}

// ==================== Collaboration Store ====================

func (s *Store) CreateCollaboration(ctx context.Context, c *collab.Collaboration) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO arena_collaborations (id, tournament_id, account_id, granted_by, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.TournamentID.String(), c.AccountID.String(), c.GrantedBy.String(),
		string(c.Status), fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
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
FROM arena_collaborations WHERE tournament_id = ? AND account_id = ?`,
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
UPDATE arena_collaborations SET status = ?, updated_at = ? WHERE id = ?`,
		string(c.Status), fmtTime(c.UpdatedAt), c.ID.String())
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
DELETE FROM arena_collaborations WHERE tournament_id = ? AND account_id = ?`,
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
FROM arena_collaborations WHERE tournament_id = ? ORDER BY created_at ASC`,
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

func scanCollaboration(row rowScanner) (*collab.Collaboration, error) {
	var (
		c                                collab.Collaboration
		rawID, rawTournament, rawAccount string
		rawGrantedBy, rawStatus          string
		created, updated                 string
	)
	if err := row.Scan(&rawID, &rawTournament, &rawAccount, &rawGrantedBy,
		&rawStatus, &created, &updated); err != nil {
		return nil, err
	}

	cid, err := id.ParseCollaborationID(rawID)
	if err != nil {
		return nil, err
	}
	tid, err := id.ParseTournamentID(rawTournament)
	if err != nil {
		return nil, err
	}
	aid, err := id.ParseAccountID(rawAccount)
	if err != nil {
		return nil, err
	}
	gid, err := id.ParseAccountID(rawGrantedBy)
	if err != nil {
		return nil, err
	}

	c.ID = cid
	c.TournamentID = tid
	c.AccountID = aid
	c.GrantedBy = gid
	c.Status = collab.Status(rawStatus)
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

// ==================== Pack Store ====================

func (s *Store) CreatePack(ctx context.Context, p *pack.Pack) error {
	meta, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO arena_packs (id, slug, name, description, credits, price_amount, price_currency, provider_price_id, status, metadata, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Slug, p.Name, p.Description, p.Credits,
		p.Price.Amount, p.Price.Currency, p.ProviderPriceID, string(p.Status),
		meta, fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return arena.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) GetPack(ctx context.Context, packID id.PackID) (*pack.Pack, error) {
	return s.getPackWhere(ctx, `id = ?`, packID.String())
}

func (s *Store) GetPackBySlug(ctx context.Context, slug string) (*pack.Pack, error) {
	return s.getPackWhere(ctx, `slug = ?`, slug)
}

func (s *Store) GetPackByPriceID(ctx context.Context, priceID string) (*pack.Pack, error) {
	if priceID == "" {
		return nil, arena.ErrPackNotFound
	}
	return s.getPackWhere(ctx, `provider_price_id = ?`, priceID)
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
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY credits ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
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
UPDATE arena_packs SET slug = ?, name = ?, description = ?, credits = ?, price_amount = ?, price_currency = ?, provider_price_id = ?, status = ?, metadata = ?, updated_at = ?
WHERE id = ?`,
		p.Slug, p.Name, p.Description, p.Credits, p.Price.Amount, p.Price.Currency,
		p.ProviderPriceID, string(p.Status), meta, fmtTime(p.UpdatedAt), p.ID.String())
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
UPDATE arena_packs SET status = ?, updated_at = ? WHERE id = ?`,
		string(pack.StatusArchived), fmtTime(time.Now().UTC()), packID.String())
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

func scanPack(row rowScanner) (*pack.Pack, error) {
	var (
		p                      pack.Pack
		rawID, rawStatus, meta string
		created, updated       string
	)
	if err := row.Scan(&rawID, &p.Slug, &p.Name, &p.Description, &p.Credits,
		&p.Price.Amount, &p.Price.Currency, &p.ProviderPriceID, &rawStatus,
		&meta, &created, &updated); err != nil {
		return nil, err
	}

	pid, err := id.ParsePackID(rawID)
	if err != nil {
		return nil, err
	}

	p.ID = pid
	p.Status = pack.Status(rawStatus)
	p.Metadata, err = unmarshalMetadata(meta)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}
