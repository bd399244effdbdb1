package store

import (
	"context"
	"sort"
	"sync"
)

type entryKey struct {
	userID  int
	animeID int
}

// Memory is a development and test implementation of Gateway.
type Memory struct {
	mu      sync.RWMutex
	users   map[int]User
	anime   map[int]Anime
	entries map[entryKey]ListEntry
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[int]User),
		anime:   make(map[int]Anime),
		entries: make(map[entryKey]ListEntry),
	}
}

func (s *Memory) UpsertUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
	return nil
}

func (s *Memory) UpsertAnime(_ context.Context, a Anime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anime[a.AnimeID] = a
	return nil
}

func (s *Memory) UpsertListEntry(_ context.Context, e ListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entryKey{e.UserID, e.AnimeID}] = e
	return nil
}

func (s *Memory) ScanListEntries(_ context.Context, userID int, fn func(ListEntry) error) error {
	s.mu.RLock()
	var rows []ListEntry
	for k, e := range s.entries {
		if k.userID == userID {
			rows = append(rows, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].AnimeID < rows[j].AnimeID })
	for _, e := range rows {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Memory) DeleteListEntry(_ context.Context, userID, animeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entryKey{userID, animeID})
	return nil
}

func (s *Memory) UserList(_ context.Context, name string) ([]UserListRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owner *User
	for _, u := range s.users {
		if u.Name == name {
			u := u
			owner = &u
			break
		}
	}
	if owner == nil {
		return nil, ErrNotFound
	}

	var out []UserListRow
	for k, e := range s.entries {
		if k.userID != owner.UserID {
			continue
		}
		a, ok := s.anime[k.animeID]
		if !ok {
			continue
		}
		out = append(out, UserListRow{User: *owner, Anime: a, Entry: e})
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Anime.AnimeID < out[j].Anime.AnimeID })
	return out, nil
}
