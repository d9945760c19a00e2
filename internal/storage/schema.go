package storage

// Schema is the SQL schema for the knowledge store database.
const Schema = `
CREATE TABLE IF NOT EXISTS entries (
    id                  TEXT PRIMARY KEY,
    topic               TEXT NOT NULL,
    content             TEXT NOT NULL,
    tags                TEXT NOT NULL DEFAULT '[]',
    source              TEXT NULL,
    actor               TEXT NULL,
    confidence          REAL NULL,
    valid_from          TEXT NULL,
    valid_to            TEXT NULL,
    status              TEXT NOT NULL DEFAULT 'active',
    canonical_entity_id TEXT NULL,
    created_at          TEXT NOT NULL,
    updated_at          TEXT NOT NULL,
    deleted_at          TEXT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_active ON entries(created_at) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_entries_entity ON entries(canonical_entity_id) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS triples (
    id          TEXT PRIMARY KEY,
    subject     TEXT NOT NULL,
    predicate   TEXT NOT NULL,
    object      TEXT NOT NULL,
    source      TEXT NULL,
    actor       TEXT NULL,
    confidence  REAL NULL,
    valid_from  TEXT NULL,
    valid_to    TEXT NULL,
    status      TEXT NOT NULL DEFAULT 'active',
    created_at  TEXT NOT NULL,
    deleted_at  TEXT NULL
);

CREATE INDEX IF NOT EXISTS idx_triples_sp ON triples(subject, predicate) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_triples_object ON triples(object) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS canonical_entities (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entity_aliases (
    id                  TEXT PRIMARY KEY,
    alias               TEXT NOT NULL,
    canonical_entity_id TEXT NOT NULL REFERENCES canonical_entities(id),
    created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_aliases_alias ON entity_aliases(alias);
CREATE INDEX IF NOT EXISTS idx_aliases_entity ON entity_aliases(canonical_entity_id);

CREATE TABLE IF NOT EXISTS transactions (
    id              TEXT PRIMARY KEY,
    op              TEXT NOT NULL,
    entity_type     TEXT NOT NULL,
    entity_id       TEXT NOT NULL,
    before_snapshot TEXT NULL,
    after_snapshot  TEXT NULL,
    reverted_by     TEXT NULL,
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tx_created ON transactions(created_at, id);
CREATE INDEX IF NOT EXISTS idx_tx_entity_type ON transactions(entity_type);
CREATE INDEX IF NOT EXISTS idx_tx_reverted ON transactions(reverted_by);

CREATE TABLE IF NOT EXISTS ingestion_tasks (
    id              TEXT PRIMARY KEY,
    status          TEXT NOT NULL DEFAULT 'pending',
    input_uri       TEXT NULL,
    content         TEXT NULL,
    source          TEXT NULL,
    total_items     INTEGER NOT NULL DEFAULT 0,
    processed_items INTEGER NOT NULL DEFAULT 0,
    error           TEXT NULL,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);
`

// FTSSchema creates the lexical full-text index over entries, kept in sync
// via triggers. Some embedded engine builds omit FTS5 support; callers
// probe for it with probeFTS before running this.
const FTSSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    topic, content, tags,
    content='entries',
    content_rowid='rowid'
);
`

const FTSTriggers = `
CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, topic, content, tags) VALUES (new.rowid, new.topic, new.content, new.tags);
END;
CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, topic, content, tags) VALUES('delete', old.rowid, old.topic, old.content, old.tags);
END;
CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, topic, content, tags) VALUES('delete', old.rowid, old.topic, old.content, old.tags);
    INSERT INTO entries_fts(rowid, topic, content, tags) VALUES (new.rowid, new.topic, new.content, new.tags);
END;
`

// Pragmas configures SQLite for a single-writer, durable workload.
const Pragmas = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA cache_size = -64000;
`
