package mongo

import (
	"time"

	"github.com/xraph/arena/collab"
	"github.com/xraph/arena/credit"
	"github.com/xraph/arena/id"
	"github.com/xraph/arena/pack"
	"github.com/xraph/arena/tournament"
	"github.com/xraph/arena/types"
)

// ==================== Account models ====================

type accountModel struct {
	ID        string    `bson:"_id"`
	Balance   int64     `bson:"balance"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func fromAccountModel(m *accountModel) (*credit.Account, error) {
	accountID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}
	return &credit.Account{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:      accountID,
		Balance: m.Balance,
	}, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	ID          string    `bson:"_id"`
	AccountID   string    `bson:"account_id"`
	Delta       int64     `bson:"delta"`
	Kind        string    `bson:"kind"`
	Reference   string    `bson:"reference"`
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toTransactionModel(txn *credit.Transaction) *transactionModel {
	return &transactionModel{
		ID:          txn.ID.String(),
		AccountID:   txn.AccountID.String(),
		Delta:       txn.Delta,
		Kind:        string(txn.Kind),
		Reference:   txn.Reference,
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
		UpdatedAt:   txn.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*credit.Transaction, error) {
	txnID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	return &credit.Transaction{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          txnID,
		AccountID:   accountID,
		Delta:       m.Delta,
		Kind:        credit.Kind(m.Kind),
		Reference:   m.Reference,
		Description: m.Description,
	}, nil
}

// ==================== Tournament models ====================

type tournamentModel struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"owner_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description,omitempty"`
	Status      string     `bson:"status"`
	StartedAt   *time.Time `bson:"started_at,omitempty"`
	EndedAt     *time.Time `bson:"ended_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toTournamentModel(t *tournament.Tournament) *tournamentModel {
	return &tournamentModel{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		StartedAt:   t.StartedAt,
		EndedAt:     t.EndedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromTournamentModel(m *tournamentModel) (*tournament.Tournament, error) {
	tournamentID, err := id.ParseTournamentID(m.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := id.ParseAccountID(m.OwnerID)
	if err != nil {
		return nil, err
	}
	return &tournament.Tournament{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          tournamentID,
		OwnerID:     ownerID,
		Title:       m.Title,
		Description: m.Description,
		Status:      tournament.Status(m.Status),
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
	}, nil
}

// ==================== Session models ====================

type sessionModel struct {
	ID           string     `bson:"_id"`
	TournamentID string     `bson:"tournament_id"`
	StreamKey    string     `bson:"stream_key"`
	Status       string     `bson:"status"`
	ViewerCount  int        `bson:"viewer_count"`
	LastSeenAt   time.Time  `bson:"last_seen_at"`
	StartedAt    time.Time  `bson:"started_at"`
	EndedAt      *time.Time `bson:"ended_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func toSessionModel(sess *tournament.Session) *sessionModel {
	return &sessionModel{
		ID:           sess.ID.String(),
		TournamentID: sess.TournamentID.String(),
		StreamKey:    sess.StreamKey,
		Status:       string(sess.Status),
		ViewerCount:  sess.ViewerCount,
		LastSeenAt:   sess.LastSeenAt,
		StartedAt:    sess.StartedAt,
		EndedAt:      sess.EndedAt,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}
}

func fromSessionModel(m *sessionModel) (*tournament.Session, error) {
	sessionID, err := id.ParseSessionID(m.ID)
	if err != nil {
		return nil, err
	}
	tournamentID, err := id.ParseTournamentID(m.TournamentID)
	if err != nil {
		return nil, err
	}
	return &tournament.Session{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           sessionID,
		TournamentID: tournamentID,
		StreamKey:    m.StreamKey,
		Status:       tournament.SessionStatus(m.Status),
		ViewerCount:  m.ViewerCount,
		LastSeenAt:   m.LastSeenAt,
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
	}, nil
}

// ==================== Collaboration models ====================

type collaborationModel struct {
	ID           string    `bson:"_id"`
	TournamentID string    `bson:"tournament_id"`
	AccountID    string    `bson:"account_id"`
	GrantedBy    string    `bson:"granted_by"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toCollaborationModel(c *collab.Collaboration) *collaborationModel {
	return &collaborationModel{
		ID:           c.ID.String(),
		TournamentID: c.TournamentID.String(),
		AccountID:    c.AccountID.String(),
		GrantedBy:    c.GrantedBy.String(),
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromCollaborationModel(m *collaborationModel) (*collab.Collaboration, error) {
	collabID, err := id.ParseCollaborationID(m.ID)
	if err != nil {
		return nil, err
	}
	tournamentID, err := id.ParseTournamentID(m.TournamentID)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(m.AccountID)
	if err != nil {
		return nil, err
	}
	grantedBy, err := id.ParseAccountID(m.GrantedBy)
	if err != nil {
		return nil, err
	}
	return &collab.Collaboration{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           collabID,
		TournamentID: tournamentID,
		AccountID:    accountID,
		GrantedBy:    grantedBy,
		Status:       collab.Status(m.Status),
	}, nil
}

// ==================== Pack models ====================

type packModel struct {
	ID              string            `bson:"_id"`
	Slug            string            `bson:"slug"`
	Name            string            `bson:"name"`
	Description     string            `bson:"description,omitempty"`
	Credits         int64             `bson:"credits"`
	PriceAmount     int64             `bson:"price_amount"`
	PriceCurrency   string            `bson:"price_currency"`
	ProviderPriceID string            `bson:"provider_price_id,omitempty"`
	Status          string            `bson:"status"`
	Metadata        map[string]string `bson:"metadata,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

func toPackModel(p *pack.Pack) *packModel {
	return &packModel{
		ID:              p.ID.String(),
		Slug:            p.Slug,
		Name:            p.Name,
		Description:     p.Description,
		Credits:         p.Credits,
		PriceAmount:     p.Price.Amount,
		PriceCurrency:   p.Price.Currency,
		ProviderPriceID: p.ProviderPriceID,
		Status:          string(p.Status),
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromPackModel(m *packModel) (*pack.Pack, error) {
	packID, err := id.ParsePackID(m.ID)
	if err != nil {
		return nil, err
	}
	return &pack.Pack{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              packID,
		Slug:            m.Slug,
		Name:            m.Name,
		Description:     m.Description,
		Credits:         m.Credits,
		Price:           types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		ProviderPriceID: m.ProviderPriceID,
		Status:          pack.Status(m.Status),
		Metadata:        m.Metadata,
	}, nil
}
