// Package reconcile converges locally persisted list rows with a user's
// current remote catalog state.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/anihistory/internal/anilist"
	"github.com/example/anihistory/internal/images"
	"github.com/example/anihistory/internal/store"
)

// Catalog is the remote list source.
type Catalog interface {
	Lists(ctx context.Context, userID int) ([]anilist.List, error)
}

// ImageQueue dispatches cover materialization. Submission must not block;
// completion is unordered relative to row persistence.
type ImageQueue interface {
	Enqueue(subject images.Subject, id int, srcURL string) bool
}

// Failure records one row-level operation that did not stick.
type Failure struct {
	UserID  int
	AnimeID int
	Op      string // "delete", "anime" or "entry"
	Err     error
}

// Report summarizes one reconciliation pass. Row failures are collected
// here as well as logged so convergence stays observable to callers.
type Report struct {
	Upserted int
	Deleted  int
	Failures []Failure
}

type Reconciler struct {
	catalog Catalog
	store   store.Gateway
	imgs    ImageQueue
	assets  images.URLBuilder
	log     *zap.Logger
}

func New(catalog Catalog, gw store.Gateway, imgs ImageQueue, assets images.URLBuilder, log *zap.Logger) *Reconciler {
	return &Reconciler{catalog: catalog, store: gw, imgs: imgs, assets: assets, log: log}
}

// Reconcile pulls the user's remote lists and converges local rows: stale
// rows are deleted first, then every retained entry is upserted. Row-level
// failures are collected, not fatal; only a remote fetch or scan failure
// aborts the pass.
func (r *Reconciler) Reconcile(ctx context.Context, userID int) (Report, error) {
	lists, err := r.catalog.Lists(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("fetch lists for user %d: %w", userID, err)
	}
	kept := retained(lists)

	var rep Report

	// Phase 1: delete rows whose media no longer appears on any retained
	// sub-list. Doing deletions before upserts guarantees a remotely
	// removed row never survives the pass next to refreshed neighbors.
	err = r.store.ScanListEntries(ctx, userID, func(e store.ListEntry) error {
		if containsMedia(kept, e.AnimeID) {
			return nil
		}
		if derr := r.store.DeleteListEntry(ctx, e.UserID, e.AnimeID); derr != nil {
			rep.Failures = append(rep.Failures, Failure{UserID: e.UserID, AnimeID: e.AnimeID, Op: "delete", Err: derr})
			r.log.Error("stale row delete failed",
				zap.Int("user_id", e.UserID),
				zap.Int("anime_id", e.AnimeID),
				zap.Error(derr),
			)
			return nil
		}
		rep.Deleted++
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("scan rows for user %d: %w", userID, err)
	}

	// Phase 2: upsert every retained entry, anime record first so the
	// list row always references existing media.
	for _, list := range kept {
		for _, entry := range list.Entries {
			r.applyEntry(ctx, userID, entry, &rep)
		}
	}

	r.log.Info("reconciliation converged",
		zap.Int("user_id", userID),
		zap.Int("upserted", rep.Upserted),
		zap.Int("deleted", rep.Deleted),
		zap.Int("failed", len(rep.Failures)),
	)
	return rep, nil
}

func (r *Reconciler) applyEntry(ctx context.Context, userID int, entry anilist.Entry, rep *Report) {
	media := entry.Media
	ext := images.FileExt(media.CoverImage.Large)

	anime := store.Anime{
		AnimeID:      media.ID,
		Description:  media.Description,
		CoverStorage: r.assets.Public(images.SubjectAnime, media.ID, ext),
		CoverRemote:  media.CoverImage.Large,
		Average:      media.AverageScore,
		Native:       media.Title.Native,
		Romaji:       media.Title.Romaji,
		English:      media.Title.English,
	}
	if err := r.store.UpsertAnime(ctx, anime); err != nil {
		rep.Failures = append(rep.Failures, Failure{UserID: userID, AnimeID: media.ID, Op: "anime", Err: err})
		r.log.Error("anime upsert failed",
			zap.Int("user_id", userID),
			zap.Int("anime_id", media.ID),
			zap.Error(err),
		)
	} else {
		// Cover work is fire-and-forget; its failure never reaches the
		// entry's persistence outcome.
		r.imgs.Enqueue(images.SubjectAnime, media.ID, media.CoverImage.Large)
	}

	row := store.ListEntry{
		UserID:    userID,
		AnimeID:   media.ID,
		UserTitle: media.Title.UserPreferred,
		StartDay:  wholeDate(entry.StartedAt),
		EndDay:    wholeDate(entry.CompletedAt),
		Score:     entry.ScoreRaw,
	}
	if err := r.store.UpsertListEntry(ctx, row); err != nil {
		rep.Failures = append(rep.Failures, Failure{UserID: userID, AnimeID: media.ID, Op: "entry", Err: err})
		r.log.Error("list entry upsert failed",
			zap.Int("user_id", userID),
			zap.Int("anime_id", media.ID),
			zap.Error(err),
		)
		return
	}
	rep.Upserted++
}

// retained keeps sub-lists whose name contains "completed" or "watching"
// (case-insensitive) and sorts their entries by media id so stale-row
// detection can binary search them.
func retained(lists []anilist.List) []anilist.List {
	var kept []anilist.List
	for _, list := range lists {
		name := strings.ToLower(list.Name)
		if !strings.Contains(name, "completed") && !strings.Contains(name, "watching") {
			continue
		}
		entries := make([]anilist.Entry, len(list.Entries))
		copy(entries, list.Entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Media.ID < entries[j].Media.ID })
		kept = append(kept, anilist.List{Name: list.Name, Entries: entries})
	}
	return kept
}

func containsMedia(lists []anilist.List, animeID int) bool {
	for _, list := range lists {
		entries := list.Entries
		i := sort.Search(len(entries), func(i int) bool { return entries[i].Media.ID >= animeID })
		if i < len(entries) && entries[i].Media.ID == animeID {
			return true
		}
	}
	return false
}
