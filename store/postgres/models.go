package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/tournament"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*credit.Transaction, error) {
	var (
		txn                        credit.Transaction
		rawID, rawAccount, rawKind string
	)
	if err := row.Scan(&rawID, &rawAccount, &txn.Delta, &rawKind,
		&txn.Reference, &txn.Description, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
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
	return &txn, nil
}

func scanTournament(row rowScanner) (*tournament.Tournament, error) {
	var (
		t               tournament.Tournament
		rawID, rawOwner string
		rawStatus       string
		started, ended  sql.NullTime
	)
	if err := row.Scan(&rawID, &rawOwner, &t.Title, &t.Description, &rawStatus,
		&started, &ended, &t.CreatedAt, &t.UpdatedAt); err != nil {
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
	t.StartedAt = nullTimePtr(started)
	t.EndedAt = nullTimePtr(ended)
	return &t, nil
}

func scanSession(row rowScanner) (*tournament.Session, error) {
	var (
		sess                 tournament.Session
		rawID, rawTournament string
		rawStatus            string
		ended                sql.NullTime
	)
	if err := row.Scan(&rawID, &rawTournament, &sess.StreamKey, &rawStatus,
		&sess.ViewerCount, &sess.LastSeenAt, &sess.StartedAt, &ended,
		&sess.CreatedAt, &sess.UpdatedAt); err != nil {
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
	sess.EndedAt = nullTimePtr(ended)
	return &sess, nil
}

func scanCollaboration(row rowScanner) (*collab.Collaboration, error) {
	var (
		c                                collab.Collaboration
		rawID, rawTournament, rawAccount string
		rawGrantedBy, rawStatus          string
	)
	if err := row.Scan(&rawID, &rawTournament, &rawAccount, &rawGrantedBy,
		&rawStatus, &c.CreatedAt, &c.UpdatedAt); err != nil {
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
	return &c, nil
}

func scanPack(row rowScanner) (*pack.Pack, error) {
	var (
		p                      pack.Pack
		rawID, rawStatus, meta string
	)
	if err := row.Scan(&rawID, &p.Slug, &p.Name, &p.Description, &p.Credits,
		&p.Price.Amount, &p.Price.Currency, &p.ProviderPriceID, &rawStatus,
		&meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
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
	return &p, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func marshalMetadata(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
