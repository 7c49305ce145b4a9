package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the registry store (SQLite).
var Migrations = migrate.NewGroup("nftledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_nft_collection",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS nft_collection (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    name         TEXT NOT NULL DEFAULT '',
    symbol       TEXT NOT NULL DEFAULT '',
    max_supply   INTEGER NOT NULL DEFAULT 0,
    total_supply INTEGER NOT NULL DEFAULT 0,
    admin        TEXT NOT NULL DEFAULT '',
    mint_paused  INTEGER NOT NULL DEFAULT 0,
    base_uri     TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS nft_collection`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_nft_tokens",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS nft_tokens (
    id           INTEGER PRIMARY KEY,
    owner        TEXT NOT NULL DEFAULT '',
    approved     TEXT NOT NULL DEFAULT '',
    uri_override TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_nft_tokens_owner ON nft_tokens (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS nft_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_nft_operator_approvals",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS nft_operator_approvals (
    owner      TEXT NOT NULL,
    operator   TEXT NOT NULL,
    approved   INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (owner, operator)
);

CREATE INDEX IF NOT EXISTS idx_nft_operators_owner ON nft_operator_approvals (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS nft_operator_approvals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_nft_events",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS nft_events (
    id             TEXT PRIMARY KEY,
    type           TEXT NOT NULL DEFAULT '',
    sequence       INTEGER NOT NULL DEFAULT 0,
    token_id       INTEGER NOT NULL DEFAULT 0,
    from_principal TEXT NOT NULL DEFAULT '',
    to_principal   TEXT NOT NULL DEFAULT '',
    operator       TEXT NOT NULL DEFAULT '',
    approved       INTEGER NOT NULL DEFAULT 0,
    uri            TEXT NOT NULL DEFAULT '',
    data           BLOB,
    timestamp      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_nft_events_sequence ON nft_events (sequence);
CREATE INDEX IF NOT EXISTS idx_nft_events_type ON nft_events (type, timestamp);
CREATE INDEX IF NOT EXISTS idx_nft_events_token ON nft_events (token_id, sequence);
CREATE INDEX IF NOT EXISTS idx_nft_events_timestamp ON nft_events (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS nft_events`)
				return err
			},
		},
	)
}
