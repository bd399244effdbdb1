package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by reads when no rows exist for the key.
var ErrNotFound = errors.New("store: not found")

// User is the persisted profile row. Storage/remote URL pairs keep both
// the re-hosted asset and its upstream origin.
type User struct {
	UserID        int
	Name          string
	AvatarStorage string
	AvatarRemote  string
}

// Anime is the persisted media row shared across all users' lists.
type Anime struct {
	AnimeID      int
	Description  string
	CoverStorage string
	CoverRemote  string
	Average      *int16
	Native       *string
	Romaji       *string
	English      *string
}

// ListEntry is one (user, anime) row. It exists iff the media currently
// appears on one of the user's completed/watching sub-lists as of the
// last successful reconciliation.
type ListEntry struct {
	UserID    int
	AnimeID   int
	UserTitle *string
	StartDay  *time.Time
	EndDay    *time.Time
	Score     *int16
}

// UserListRow is the read model for the list endpoint: one entry joined
// with its anime and the owning profile.
type UserListRow struct {
	User  User
	Anime Anime
	Entry ListEntry
}

// Gateway is the persistence boundary. Upserts are keyed on (user_id),
// (anime_id) and (user_id, anime_id) with on-conflict-update semantics;
// each call commits independently.
type Gateway interface {
	UpsertUser(ctx context.Context, u User) error
	UpsertAnime(ctx context.Context, a Anime) error
	UpsertListEntry(ctx context.Context, e ListEntry) error
	// ScanListEntries streams every list row for the user through fn in
	// anime_id order. A non-nil error from fn stops the scan.
	ScanListEntries(ctx context.Context, userID int, fn func(ListEntry) error) error
	DeleteListEntry(ctx context.Context, userID, animeID int) error
	// UserList returns the joined rows for a display name, ErrNotFound
	// when the user has no persisted entries.
	UserList(ctx context.Context, name string) ([]UserListRow, error)
}
