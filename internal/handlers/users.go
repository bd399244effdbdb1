// Package handlers wires the public user endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anihistory/internal/anilist"
	"github.com/example/anihistory/internal/cache"
	"github.com/example/anihistory/internal/images"
	"github.com/example/anihistory/internal/platform/api"
	"github.com/example/anihistory/internal/platform/httpserver"
	"github.com/example/anihistory/internal/store"
)

// Resolver maps a display name to a catalog identity.
type Resolver interface {
	ResolveUser(ctx context.Context, username string) (anilist.User, error)
}

// Syncer starts a detached list reconciliation.
type Syncer interface {
	Trigger(userID int, username string) bool
}

// ImageQueue dispatches avatar materialization.
type ImageQueue interface {
	Enqueue(subject images.Subject, id int, srcURL string) bool
}

type Users struct {
	Store    store.Gateway
	Resolver Resolver
	Sync     Syncer
	Images   ImageQueue
	Assets   images.URLBuilder
	Cache    *cache.ListCache
	Log      *zap.Logger
}

func (h Users) Register(r chi.Router) {
	r.Get("/users/{username}", h.getUser)
	r.Post("/users/{username}", h.updateUser)
}

type listItem struct {
	ID          int     `json:"id"`
	UserTitle   *string `json:"user_title"`
	StartDay    *string `json:"start_day"`
	EndDay      *string `json:"end_day"`
	Score       *int16  `json:"score"`
	Average     *int16  `json:"average"`
	Native      *string `json:"native"`
	Romaji      *string `json:"romaji"`
	English     *string `json:"english"`
	Description string  `json:"description"`
	Cover       string  `json:"cover"`
}

type userList struct {
	ID     string     `json:"id"`
	Avatar string     `json:"avatar"`
	List   []listItem `json:"list"`
}

type userResponse struct {
	Users userList `json:"users"`
}

func (h Users) getUser(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		api.BadRequest(w, "MISSING_USERNAME", "username is required", rid, nil)
		return
	}

	var cached userResponse
	if h.Cache.Get(r.Context(), username, &cached) {
		api.WriteJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := h.Store.UserList(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.NotFound(w, "USER_NOT_FOUND", "User or list not found", rid)
			return
		}
		h.Log.Error("user list read failed", zap.String("username", username), zap.Error(err))
		api.Internal(w, rid)
		return
	}

	resp := buildUserResponse(rows)
	h.Cache.Set(r.Context(), username, resp)
	api.WriteJSON(w, http.StatusOK, resp)
}

// updateUser resolves the identity, upserts the profile synchronously and
// acknowledges before list convergence: the reconciliation itself runs
// detached.
func (h Users) updateUser(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		api.BadRequest(w, "MISSING_USERNAME", "username is required", rid, nil)
		return
	}

	identity, err := h.Resolver.ResolveUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, anilist.ErrUserNotFound) {
			api.NotFound(w, "USER_NOT_FOUND", "User not found", rid)
			return
		}
		h.Log.Error("identity resolution failed", zap.String("username", username), zap.Error(err))
		api.BadGateway(w, "CATALOG_UNAVAILABLE", "catalog unavailable", rid)
		return
	}

	ext := images.FileExt(identity.Avatar.Large)
	profile := store.User{
		UserID:        identity.ID,
		Name:          identity.Name,
		AvatarStorage: h.Assets.Public(images.SubjectUser, identity.ID, ext),
		AvatarRemote:  identity.Avatar.Large,
	}
	if err := h.Store.UpsertUser(r.Context(), profile); err != nil {
		h.Log.Error("profile upsert failed",
			zap.Int("user_id", identity.ID),
			zap.String("username", username),
			zap.Error(err),
		)
		api.Internal(w, rid)
		return
	}

	h.Images.Enqueue(images.SubjectUser, identity.ID, identity.Avatar.Large)
	h.Sync.Trigger(identity.ID, identity.Name)

	api.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func buildUserResponse(rows []store.UserListRow) userResponse {
	out := userResponse{
		Users: userList{
			ID:     rows[0].User.Name,
			Avatar: rows[0].User.AvatarStorage,
			List:   make([]listItem, 0, len(rows)),
		},
	}
	for _, row := range rows {
		out.Users.List = append(out.Users.List, listItem{
			ID:          row.Anime.AnimeID,
			UserTitle:   row.Entry.UserTitle,
			StartDay:    formatDay(row.Entry.StartDay),
			EndDay:      formatDay(row.Entry.EndDay),
			Score:       row.Entry.Score,
			Average:     row.Anime.Average,
			Native:      row.Anime.Native,
			Romaji:      row.Anime.Romaji,
			English:     row.Anime.English,
			Description: row.Anime.Description,
			Cover:       row.Anime.CoverStorage,
		})
	}
	return out
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
