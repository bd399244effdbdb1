package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id        integer PRIMARY KEY,
		name           text NOT NULL,
		avatar_s3      text NOT NULL,
		avatar_anilist text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS anime (
		anime_id      integer PRIMARY KEY,
		description   text NOT NULL,
		cover_s3      text NOT NULL,
		cover_anilist text NOT NULL,
		average       smallint,
		native        text,
		romaji        text,
		english       text
	)`,
	`CREATE TABLE IF NOT EXISTS lists (
		user_id    integer NOT NULL REFERENCES users (user_id),
		anime_id   integer NOT NULL REFERENCES anime (anime_id),
		user_title text,
		start_day  date,
		end_day    date,
		score      smallint,
		PRIMARY KEY (user_id, anime_id)
	)`,
	`CREATE INDEX IF NOT EXISTS users_name_idx ON users (name)`,
}

// Migrate applies the schema at startup. Statements are idempotent so a
// restart against an existing database is a no-op.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
