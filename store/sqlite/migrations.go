package sqlite

// schema is applied in full on Migrate. Every statement is idempotent so
// repeated starts are safe.
const schema = `
CREATE TABLE IF NOT EXISTS arena_accounts (
    id         TEXT PRIMARY KEY,
    balance    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS arena_transactions (
    id          TEXT PRIMARY KEY,
    account_id  TEXT NOT NULL,
    delta       INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    reference   TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES arena_accounts(id)
);
CREATE INDEX IF NOT EXISTS idx_arena_txns_account ON arena_transactions (account_id, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_arena_txns_ref ON arena_transactions (kind, reference) WHERE reference <> '';

CREATE TABLE IF NOT EXISTS arena_tournaments (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'idle',
    started_at  TEXT,
    ended_at    TEXT,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_arena_tournaments_owner ON arena_tournaments (owner_id, status);

CREATE TABLE IF NOT EXISTS arena_sessions (
    id            TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    stream_key    TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'live',
    viewer_count  INTEGER NOT NULL DEFAULT 0,
    last_seen_at  TEXT NOT NULL,
    started_at    TEXT NOT NULL,
    ended_at      TEXT,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    FOREIGN KEY (tournament_id) REFERENCES arena_tournaments(id)
);
CREATE INDEX IF NOT EXISTS idx_arena_sessions_tournament ON arena_sessions (tournament_id, status);
CREATE INDEX IF NOT EXISTS idx_arena_sessions_liveness ON arena_sessions (status, last_seen_at);

CREATE TABLE IF NOT EXISTS arena_collaborations (
    id            TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    account_id    TEXT NOT NULL,
    granted_by    TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL,
    UNIQUE (tournament_id, account_id)
);

CREATE TABLE IF NOT EXISTS arena_packs (
    id                TEXT PRIMARY KEY,
    slug              TEXT NOT NULL UNIQUE,
    name              TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    credits           INTEGER NOT NULL,
    price_amount      INTEGER NOT NULL DEFAULT 0,
    price_currency    TEXT NOT NULL DEFAULT 'usd',
    provider_price_id TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'active',
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_arena_packs_price ON arena_packs (provider_price_id);
`
