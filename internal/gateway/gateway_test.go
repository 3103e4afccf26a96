package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"multitool/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.Endpoints{
		TranslationsAPI: srv.URL + "/api",
		NewsFeed:        srv.URL + "/feed.json",
		CharactersAPI:   srv.URL + "/chars/api",
		GitHubAPI:       srv.URL,
		UserAgent:       "MultitoolV2",
	}, srv.Client())
}

func TestLatestCommits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/Onivoid/MultitoolV2/commits" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != "MultitoolV2" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`[
			{"sha":"abc","html_url":"https://github.com/x/commit/abc","author":{"login":"onivoid"},
			 "commit":{"message":"Fix cache size\n\n- rounds to Mo","author":{"name":"Oni","date":"2025-01-02T03:04:05Z"}}},
			{"sha":"def","author":null,"commit":{"message":"Initial","author":{"name":"Oni","date":"2024-12-01T00:00:00Z"}}}
		]`))
	})

	commits, err := c.LatestCommits(context.Background(), "Onivoid", "MultitoolV2")
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Fatalf("commits = %d", len(commits))
	}
	if commits[0].Message != "Fix cache size" || commits[0].Description != "- rounds to Mo" || commits[0].Author != "onivoid" {
		t.Errorf("first commit = %+v", commits[0])
	}
	if commits[1].Author != "Oni" {
		t.Errorf("author fallback = %q", commits[1].Author)
	}
}

func TestNews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"https://jsonfeed.org/version/1","title":"RSI","items":[
			{"id":"1","url":"https://rsi/1-alpha","title":"Alpha 4.0","tags":["patch","ptu"],"date_published":"2025-01-01"}]}`))
	})
	feed, err := c.News(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if feed.Title != "RSI" || len(feed.Items) != 1 || feed.Items[0].Title != "Alpha 4.0" || len(feed.Items[0].Tags) != 2 {
		t.Errorf("feed = %+v", feed)
	}
}

func TestCharacters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/chars/api/heads" || q.Get("page") != "2" || q.Get("orderBy") != "latest" || q.Get("search") != "blue eyes" {
			t.Errorf("request = %s", r.URL)
		}
		w.Write([]byte(`{"body":{"hasPrevPage":true,"hasNextPage":false,"rows":[
			{"id":"x1","title":"Captain","user":{"name":"pilot"},"previewUrl":"https://img","dnaUrl":"https://dna",
			 "_count":{"characterDownloads":12,"characterLikes":3}}]}}`))
	})
	page, err := c.Characters(context.Background(), 2, "", "blue eyes")
	if err != nil {
		t.Fatal(err)
	}
	if !page.HasPrevPage || page.HasNextPage || len(page.Rows) != 1 {
		t.Fatalf("page = %+v", page)
	}
	row := page.Rows[0]
	if row.Owner != "pilot" || row.Downloads != 12 || row.Likes != 3 || row.DNAURL != "https://dna" {
		t.Errorf("row = %+v", row)
	}
}

func TestTranslations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Traduction FR (SCEFRA)","description":"complète","link":"https://a/global.ini"},
			{"id":2,"name":"Circuspes","description":"","link":"https://b/global.ini"}]`))
	})
	opts, err := c.Translations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 || opts[0].ID != 1 || opts[1].Link != "https://b/global.ini" {
		t.Errorf("options = %+v", opts)
	}

	found := FindTranslation(opts, "circus")
	if len(found) != 1 || found[0].ID != 2 {
		t.Errorf("FindTranslation = %+v", found)
	}
	if got := FindTranslation(opts, " "); len(got) != 2 {
		t.Errorf("empty query returned %d options", len(got))
	}
}

func TestTranslationBySetting(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"quoted string", `"https://x/global.ini"`, "https://x/global.ini"},
		{"object", `{"link":"https://y/global.ini"}`, "https://y/global.ini"},
		{"raw text", "https://z/global.ini\n", "https://z/global.ini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/translations/settings-fr" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			})
			got, err := c.TranslationBySetting(context.Background(), "settings-fr")
			if err != nil {
				t.Fatal(err)
			}
			if got.Link != tt.want {
				t.Errorf("link = %q, want %q", got.Link, tt.want)
			}
		})
	}
}

func TestNetworkErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	if _, err := c.News(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Errorf("News error = %v, want ErrNetwork", err)
	}
	if _, err := c.TranslationBySetting(context.Background(), "x"); !errors.Is(err, ErrNetwork) {
		t.Errorf("TranslationBySetting error = %v, want ErrNetwork", err)
	}

	bad := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	})
	if _, err := bad.Translations(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Errorf("invalid JSON error = %v, want ErrNetwork", err)
	}
}
