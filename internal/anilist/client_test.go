package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newGraphQLStub(t *testing.T, handler func(query string, variables map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request: %v", err)
		}
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		status, resp := handler(req.Query, req.Variables)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
}

func testClient(baseURL string) *Client {
	return New(baseURL, WithRateInterval(time.Millisecond))
}

func TestResolveUser_Found(t *testing.T) {
	srv := newGraphQLStub(t, func(query string, variables map[string]any) (int, string) {
		if !strings.Contains(query, "User(name: $name)") {
			t.Fatalf("unexpected query: %s", query)
		}
		if variables["name"] != "tester" {
			t.Fatalf("unexpected variables: %v", variables)
		}
		return http.StatusOK, `{"data":{"User":{"id":42,"name":"tester","avatar":{"large":"https://img.example.com/u/42.png"}}}}`
	})
	defer srv.Close()

	u, err := testClient(srv.URL).ResolveUser(context.Background(), "tester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID != 42 || u.Name != "tester" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Avatar.Large != "https://img.example.com/u/42.png" {
		t.Fatalf("unexpected avatar: %q", u.Avatar.Large)
	}
}

func TestResolveUser_NotFound(t *testing.T) {
	// AniList answers 404 with a null User for unknown names.
	srv := newGraphQLStub(t, func(string, map[string]any) (int, string) {
		return http.StatusNotFound, `{"data":{"User":null},"errors":[{"message":"Not Found."}]}`
	})
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveUser(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveUser_ServerError(t *testing.T) {
	srv := newGraphQLStub(t, func(string, map[string]any) (int, string) {
		return http.StatusInternalServerError, `{}`
	})
	defer srv.Close()

	_, err := testClient(srv.URL).ResolveUser(context.Background(), "tester")
	if err == nil || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestLists_DecodesCollection(t *testing.T) {
	srv := newGraphQLStub(t, func(query string, variables map[string]any) (int, string) {
		if !strings.Contains(query, "MediaListCollection(userId: $userId, type: ANIME)") {
			t.Fatalf("unexpected query: %s", query)
		}
		if v, ok := variables["userId"].(float64); !ok || int(v) != 42 {
			t.Fatalf("unexpected variables: %v", variables)
		}
		return http.StatusOK, `{"data":{"MediaListCollection":{"lists":[
			{"name":"Watching","entries":[{"scoreRaw":80,
				"startedAt":{"year":2020,"month":1,"day":1},
				"completedAt":{"year":null,"month":null,"day":null},
				"media":{"id":5,"title":{"userPreferred":"Show","english":null,"romaji":"Show","native":null},
					"description":"d","coverImage":{"large":"https://img.example.com/5.jpg"},"averageScore":75}}]},
			{"name":"Planning","entries":[]}
		]}}}`
	})
	defer srv.Close()

	lists, err := testClient(srv.URL).Lists(context.Background(), 42)
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	w := lists[0]
	if w.Name != "Watching" || len(w.Entries) != 1 {
		t.Fatalf("unexpected list: %+v", w)
	}
	e := w.Entries[0]
	if e.Media.ID != 5 {
		t.Fatalf("expected media 5, got %d", e.Media.ID)
	}
	if e.ScoreRaw == nil || *e.ScoreRaw != 80 {
		t.Fatalf("expected scoreRaw 80, got %v", e.ScoreRaw)
	}
	if e.StartedAt.Year == nil || *e.StartedAt.Year != 2020 {
		t.Fatalf("expected started year 2020, got %v", e.StartedAt.Year)
	}
	if e.CompletedAt.Year != nil {
		t.Fatalf("expected null completed year, got %v", e.CompletedAt.Year)
	}
	if e.Media.Title.English != nil {
		t.Fatalf("expected null english title, got %v", e.Media.Title.English)
	}
	if e.Media.AverageScore == nil || *e.Media.AverageScore != 75 {
		t.Fatalf("expected average 75, got %v", e.Media.AverageScore)
	}
}

func TestLists_NotFoundIsError(t *testing.T) {
	// A 404 on the list query decodes to an empty collection, which a
	// caller would mistake for an emptied-out list and delete every stored
	// row. Only the user query may treat 404 as a valid answer.
	srv := newGraphQLStub(t, func(string, map[string]any) (int, string) {
		return http.StatusNotFound, `{"data":{"MediaListCollection":null},"errors":[{"message":"Not Found."}]}`
	})
	defer srv.Close()

	lists, err := testClient(srv.URL).Lists(context.Background(), 42)
	if err == nil {
		t.Fatalf("expected error on 404, got lists %+v", lists)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatalf("404 on list query must not map to ErrUserNotFound: %v", err)
	}
}

func TestLists_DecodeFailure(t *testing.T) {
	srv := newGraphQLStub(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"data":`
	})
	defer srv.Close()

	if _, err := testClient(srv.URL).Lists(context.Background(), 42); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLists_TransportFailure(t *testing.T) {
	srv := newGraphQLStub(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"data":{}}`
	})
	srv.Close() // connection refused

	if _, err := testClient(srv.URL).Lists(context.Background(), 42); err == nil {
		t.Fatal("expected transport error")
	}
}
