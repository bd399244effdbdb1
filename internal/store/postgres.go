package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the production Postgres-backed implementation.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) UpsertUser(ctx context.Context, u User) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO users (user_id, name, avatar_s3, avatar_anilist)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
  name = excluded.name,
  avatar_s3 = excluded.avatar_s3,
  avatar_anilist = excluded.avatar_anilist`,
		u.UserID, u.Name, u.AvatarStorage, u.AvatarRemote)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.UserID, err)
	}
	return nil
}

func (s *Postgres) UpsertAnime(ctx context.Context, a Anime) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO anime (anime_id, description, cover_s3, cover_anilist, average, native, romaji, english)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (anime_id) DO UPDATE SET
  description = excluded.description,
  cover_s3 = excluded.cover_s3,
  cover_anilist = excluded.cover_anilist,
  average = excluded.average,
  native = excluded.native,
  romaji = excluded.romaji,
  english = excluded.english`,
		a.AnimeID, a.Description, a.CoverStorage, a.CoverRemote, a.Average, a.Native, a.Romaji, a.English)
	if err != nil {
		return fmt.Errorf("upsert anime %d: %w", a.AnimeID, err)
	}
	return nil
}

func (s *Postgres) UpsertListEntry(ctx context.Context, e ListEntry) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO lists (user_id, anime_id, user_title, start_day, end_day, score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, anime_id) DO UPDATE SET
  user_title = excluded.user_title,
  start_day = excluded.start_day,
  end_day = excluded.end_day,
  score = excluded.score`,
		e.UserID, e.AnimeID, e.UserTitle, e.StartDay, e.EndDay, e.Score)
	if err != nil {
		return fmt.Errorf("upsert list entry (%d,%d): %w", e.UserID, e.AnimeID, err)
	}
	return nil
}

func (s *Postgres) ScanListEntries(ctx context.Context, userID int, fn func(ListEntry) error) error {
	rows, err := s.db.Query(ctx, `
SELECT user_id, anime_id, user_title, start_day, end_day, score
FROM lists WHERE user_id = $1 ORDER BY anime_id`, userID)
	if err != nil {
		return fmt.Errorf("scan list entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e ListEntry
		if err := rows.Scan(&e.UserID, &e.AnimeID, &e.UserTitle, &e.StartDay, &e.EndDay, &e.Score); err != nil {
			return fmt.Errorf("scan list row for user %d: %w", userID, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Postgres) DeleteListEntry(ctx context.Context, userID, animeID int) error {
	_, err := s.db.Exec(ctx, `DELETE FROM lists WHERE user_id = $1 AND anime_id = $2`, userID, animeID)
	if err != nil {
		return fmt.Errorf("delete list entry (%d,%d): %w", userID, animeID, err)
	}
	return nil
}

func (s *Postgres) UserList(ctx context.Context, name string) ([]UserListRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT u.user_id, u.name, u.avatar_s3, u.avatar_anilist,
       a.anime_id, a.description, a.cover_s3, a.cover_anilist, a.average, a.native, a.romaji, a.english,
       l.user_title, l.start_day, l.end_day, l.score
FROM lists AS l
INNER JOIN users AS u ON l.user_id = u.user_id
INNER JOIN anime AS a ON l.anime_id = a.anime_id
WHERE u.name = $1
ORDER BY a.anime_id`, name)
	if err != nil {
		return nil, fmt.Errorf("user list for %q: %w", name, err)
	}
	defer rows.Close()

	var out []UserListRow
	for rows.Next() {
		var r UserListRow
		if err := rows.Scan(
			&r.User.UserID, &r.User.Name, &r.User.AvatarStorage, &r.User.AvatarRemote,
			&r.Anime.AnimeID, &r.Anime.Description, &r.Anime.CoverStorage, &r.Anime.CoverRemote,
			&r.Anime.Average, &r.Anime.Native, &r.Anime.Romaji, &r.Anime.English,
			&r.Entry.UserTitle, &r.Entry.StartDay, &r.Entry.EndDay, &r.Entry.Score,
		); err != nil {
			return nil, fmt.Errorf("scan user list row for %q: %w", name, err)
		}
		r.Entry.UserID = r.User.UserID
		r.Entry.AnimeID = r.Anime.AnimeID
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}
