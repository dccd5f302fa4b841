// Package memory provides an in-memory store for testing and development.
// A single mutex stands in for the transactionality real backends get from
// their databases: every paired operation runs under one critical section.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/arena"
	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/store"
	"github.com/xraph/arena/tournament"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Ledger storage
	accounts     map[string]*credit.Account
	transactions []*credit.Transaction
	references   map[string]struct{} // kind|reference

	// Tournament storage
	tournaments map[string]*tournament.Tournament
	sessions    map[string]*tournament.Session

	// Collaboration storage, keyed by tournamentID|accountID
	collaborations map[string]*collab.Collaboration

	// Pack storage
	packs map[string]*pack.Pack
}

func New() *Store {
	return &Store{
		accounts:       make(map[string]*credit.Account),
		transactions:   make([]*credit.Transaction, 0),
		references:     make(map[string]struct{}),
		tournaments:    make(map[string]*tournament.Tournament),
		sessions:       make(map[string]*tournament.Session),
		collaborations: make(map[string]*collab.Collaboration),
		packs:          make(map[string]*pack.Pack),
	}
}

func refKey(kind credit.Kind, reference string) string {
	return string(kind) + "|" + reference
}

func collabKey(tournamentID id.TournamentID, accountID id.AccountID) string {
	return tournamentID.String() + "|" + accountID.String()
}

// Credit Store implementation

// applyLocked is the shared write path. Callers hold s.mu.
func (s *Store) applyLocked(txn *credit.Transaction) (int64, error) {
	if txn.Reference != "" {
		if _, dup := s.references[refKey(txn.Kind, txn.Reference)]; dup {
			return 0, arena.ErrDuplicateReference
		}
	}

	acct, ok := s.accounts[txn.AccountID.String()]
	if !ok {
		acct = &credit.Account{ID: txn.AccountID}
		acct.Entity = txn.Entity
	}

	if txn.Delta < 0 && acct.Balance+txn.Delta < 0 {
		return 0, arena.ErrInsufficientCredits
	}

	acct.Balance += txn.Delta
	acct.Touch()
	s.accounts[txn.AccountID.String()] = acct
	s.transactions = append(s.transactions, txn)
	if txn.Reference != "" {
		s.references[refKey(txn.Kind, txn.Reference)] = struct{}{}
	}
	return acct.Balance, nil
}

func (s *Store) ApplyTransaction(_ context.Context, txn *credit.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(txn)
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*credit.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.accounts[accountID.String()]; ok {
		return acct, nil
	}
	return nil, arena.ErrAccountNotFound
}

func (s *Store) GetBalance(_ context.Context, accountID id.AccountID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.accounts[accountID.String()]; ok {
		return acct.Balance, nil
	}
	return 0, arena.ErrAccountNotFound
}

func (s *Store) ListTransactions(_ context.Context, accountID id.AccountID, opts credit.ListOpts) ([]*credit.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*credit.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.AccountID != accountID {
			continue
		}
		if opts.Kind != "" && txn.Kind != opts.Kind {
			continue
		}
		result = append(result, txn)
	}

	// Newest first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, opts.Limit, opts.Offset), nil
}

// Tournament Store implementation

func (s *Store) CreateTournament(_ context.Context, t *tournament.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tournaments[t.ID.String()] = t
	return nil
}

func (s *Store) GetTournament(_ context.Context, tournamentID id.TournamentID) (*tournament.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tournaments[tournamentID.String()]; ok {
		return t, nil
	}
	return nil, arena.ErrTournamentNotFound
}

func (s *Store) ListTournaments(_ context.Context, ownerID id.AccountID, opts tournament.ListOpts) ([]*tournament.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tournament.Tournament, 0)
	for _, t := range s.tournaments {
		if t.OwnerID != ownerID {
			continue
		}
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		result = append(result, t)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) DeleteTournament(_ context.Context, tournamentID id.TournamentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[tournamentID.String()]; !ok {
		return arena.ErrTournamentNotFound
	}
	delete(s.tournaments, tournamentID.String())
	for key, c := range s.collaborations {
		if c.TournamentID == tournamentID {
			delete(s.collaborations, key)
		}
	}
	return nil
}

// Broadcast Store implementation

func (s *Store) StartBroadcast(_ context.Context, sess *tournament.Session, debit *credit.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[sess.TournamentID.String()]
	if !ok {
		return 0, arena.ErrTournamentNotFound
	}
	switch t.Status {
	case tournament.StatusLive:
		return 0, arena.ErrTournamentLive
	case tournament.StatusEnded:
		return 0, arena.ErrTournamentEnded
	}

	newBalance, err := s.applyLocked(debit)
	if err != nil {
		return 0, err
	}

	t.Status = tournament.StatusLive
	startedAt := sess.StartedAt
	t.StartedAt = &startedAt
	t.Touch()
	s.sessions[sess.ID.String()] = sess

	return newBalance, nil
}

func (s *Store) EndBroadcast(_ context.Context, sessionID id.SessionID, tournamentID id.TournamentID, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID.String()]
	if !ok {
		return arena.ErrSessionNotFound
	}
	if sess.Status != tournament.SessionLive {
		return arena.ErrSessionEnded
	}
	t, ok := s.tournaments[tournamentID.String()]
	if !ok {
		return arena.ErrTournamentNotFound
	}

	sess.Status = tournament.SessionEnded
	ended := endedAt
	sess.EndedAt = &ended
	sess.Touch()

	t.Status = tournament.StatusEnded
	t.EndedAt = &ended
	t.Touch()

	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID id.SessionID) (*tournament.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[sessionID.String()]; ok {
		return sess, nil
	}
	return nil, arena.ErrSessionNotFound
}

func (s *Store) GetActiveSession(_ context.Context, tournamentID id.TournamentID) (*tournament.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.TournamentID == tournamentID && sess.Status == tournament.SessionLive {
			return sess, nil
		}
	}
	return nil, arena.ErrSessionNotFound
}

func (s *Store) TouchSession(_ context.Context, sessionID id.SessionID, viewerCount int, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID.String()]
	if !ok {
		return arena.ErrSessionNotFound
	}
	if sess.Status != tournament.SessionLive {
		return arena.ErrSessionEnded
	}

	sess.ViewerCount = viewerCount
	sess.LastSeenAt = seenAt
	sess.Touch()
	return nil
}

func (s *Store) ListStaleSessions(_ context.Context, cutoff time.Time) ([]*tournament.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tournament.Session, 0)
	for _, sess := range s.sessions {
		if sess.Status == tournament.SessionLive && sess.LastSeenAt.Before(cutoff) {
			result = append(result, sess)
		}
	}
	return result, nil
}

// Collaboration Store implementation

func (s *Store) CreateCollaboration(_ context.Context, c *collab.Collaboration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collabKey(c.TournamentID, c.AccountID)
	if _, exists := s.collaborations[key]; exists {
		return arena.ErrCollaborationExists
	}
	s.collaborations[key] = c
	return nil
}

func (s *Store) GetCollaboration(_ context.Context, tournamentID id.TournamentID, accountID id.AccountID) (*collab.Collaboration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.collaborations[collabKey(tournamentID, accountID)]; ok {
		return c, nil
	}
	return nil, arena.ErrCollaborationNotFound
}

func (s *Store) UpdateCollaboration(_ context.Context, c *collab.Collaboration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collabKey(c.TournamentID, c.AccountID)
	if _, ok := s.collaborations[key]; !ok {
		return arena.ErrCollaborationNotFound
	}
	s.collaborations[key] = c
	return nil
}

func (s *Store) DeleteCollaboration(_ context.Context, tournamentID id.TournamentID, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := collabKey(tournamentID, accountID)
	if _, ok := s.collaborations[key]; !ok {
		return arena.ErrCollaborationNotFound
	}
	delete(s.collaborations, key)
	return nil
}

func (s *Store) ListCollaborations(_ context.Context, tournamentID id.TournamentID) ([]*collab.Collaboration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*collab.Collaboration, 0)
	for _, c := range s.collaborations {
		if c.TournamentID == tournamentID {
			result = append(result, c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Pack Store implementation

func (s *Store) CreatePack(_ context.Context, p *pack.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.packs {
		if existing.Slug == p.Slug {
			return arena.ErrInvalidInput
		}
	}
	s.packs[p.ID.String()] = p
	return nil
}

func (s *Store) GetPack(_ context.Context, packID id.PackID) (*pack.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.packs[packID.String()]; ok {
		return p, nil
	}
	return nil, arena.ErrPackNotFound
}

func (s *Store) GetPackBySlug(_ context.Context, slug string) (*pack.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.packs {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, arena.ErrPackNotFound
}

func (s *Store) GetPackByPriceID(_ context.Context, priceID string) (*pack.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.packs {
		if p.ProviderPriceID != "" && p.ProviderPriceID == priceID {
			return p, nil
		}
	}
	return nil, arena.ErrPackNotFound
}

func (s *Store) ListPacks(_ context.Context, opts pack.ListOpts) ([]*pack.Pack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pack.Pack, 0)
	for _, p := range s.packs {
		if opts.Status == "" || p.Status == opts.Status {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Credits < result[j].Credits
	})
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdatePack(_ context.Context, p *pack.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packs[p.ID.String()]; !ok {
		return arena.ErrPackNotFound
	}
	s.packs[p.ID.String()] = p
	return nil
}

func (s *Store) ArchivePack(_ context.Context, packID id.PackID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packs[packID.String()]
	if !ok {
		return arena.ErrPackNotFound
	}
	p.Status = pack.StatusArchived
	p.Touch()
	return nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// paginate applies limit/offset to a result slice.
func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
