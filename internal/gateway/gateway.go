// Package gateway fetches third-party data the UI displays: repository
// commits, RSI news, the community character catalog and the list of
// available translations. Responses are loosely shaped, so fields are picked
// with gjson instead of mirrored in structs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"multitool/internal/config"
)

// ErrNetwork wraps every transport failure or unexpected status.
var ErrNetwork = errors.New("remote service unavailable")

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 16 << 20
)

// Client talks to the configured endpoints.
type Client struct {
	endpoints config.Endpoints
	http      *http.Client
}

// New creates a Client for endpoints. A nil hc gets a default timeout.
func New(endpoints config.Endpoints, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{endpoints: endpoints, http: hc}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.endpoints.UserAgent != "" {
		req.Header.Set("User-Agent", c.endpoints.UserAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrNetwork, req.URL.Host, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string) (gjson.Result, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON from %s", ErrNetwork, rawURL)
	}
	return gjson.ParseBytes(body), nil
}

func join(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + url.PathEscape(p)
	}
	return out
}

// Commit is one entry of the patch-notes list. Message is the subject line,
// Description the rest of the commit message.
type Commit struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Author      string `json:"author"`
	URL         string `json:"url"`
}

// LatestCommits lists the most recent commits of owner/repo.
func (c *Client) LatestCommits(ctx context.Context, owner, repo string) ([]Commit, error) {
	doc, err := c.getJSON(ctx, join(c.endpoints.GitHubAPI, "repos", owner, repo, "commits"))
	if err != nil {
		return nil, err
	}
	var out []Commit
	doc.ForEach(func(_, v gjson.Result) bool {
		subject, body, _ := strings.Cut(v.Get("commit.message").String(), "\n")
		author := v.Get("author.login").String()
		if author == "" {
			author = v.Get("commit.author.name").String()
		}
		out = append(out, Commit{
			SHA:         v.Get("sha").String(),
			Message:     strings.TrimSpace(subject),
			Description: strings.TrimSpace(body),
			Date:        v.Get("commit.author.date").String(),
			Author:      author,
			URL:         v.Get("html_url").String(),
		})
		return true
	})
	return out, nil
}

// NewsItem is one article of the RSI JSON feed.
type NewsItem struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary,omitempty"`
	ContentHTML   string   `json:"content_html,omitempty"`
	Image         string   `json:"image,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	DatePublished string   `json:"date_published,omitempty"`
}

// NewsFeed keeps the JSON Feed top-level shape so the UI can read .items.
type NewsFeed struct {
	Title string     `json:"title"`
	Items []NewsItem `json:"items"`
}

// News fetches the RSI news feed.
func (c *Client) News(ctx context.Context) (NewsFeed, error) {
	doc, err := c.getJSON(ctx, c.endpoints.NewsFeed)
	if err != nil {
		return NewsFeed{}, err
	}
	feed := NewsFeed{Title: doc.Get("title").String(), Items: []NewsItem{}}
	for _, v := range doc.Get("items").Array() {
		item := NewsItem{
			ID:            v.Get("id").String(),
			URL:           v.Get("url").String(),
			Title:         v.Get("title").String(),
			Summary:       v.Get("summary").String(),
			ContentHTML:   v.Get("content_html").String(),
			Image:         v.Get("image").String(),
			DatePublished: v.Get("date_published").String(),
		}
		for _, t := range v.Get("tags").Array() {
			item.Tags = append(item.Tags, t.String())
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

// Character is one preset of the community catalog.
type Character struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Owner      string `json:"owner"`
	PreviewURL string `json:"previewUrl"`
	DNAURL     string `json:"dnaUrl"`
	Downloads  int64  `json:"downloads"`
	Likes      int64  `json:"likes"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// CharacterPage is one page of catalog results.
type CharacterPage struct {
	Page        int         `json:"page"`
	HasPrevPage bool        `json:"hasPrevPage"`
	HasNextPage bool        `json:"hasNextPage"`
	Rows        []Character `json:"rows"`
}

// Characters lists catalog presets. page < 1 means 1, an empty orderBy
// means "latest".
func (c *Client) Characters(ctx context.Context, page int, orderBy, search string) (CharacterPage, error) {
	if page < 1 {
		page = 1
	}
	if orderBy == "" {
		orderBy = "latest"
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("orderBy", orderBy)
	if search != "" {
		q.Set("search", search)
	}
	doc, err := c.getJSON(ctx, join(c.endpoints.CharactersAPI, "heads")+"?"+q.Encode())
	if err != nil {
		return CharacterPage{}, err
	}

	body := doc.Get("body")
	if !body.Exists() {
		body = doc
	}
	out := CharacterPage{
		Page:        page,
		HasPrevPage: body.Get("hasPrevPage").Bool(),
		HasNextPage: body.Get("hasNextPage").Bool(),
		Rows:        []Character{},
	}
	for _, v := range body.Get("rows").Array() {
		out.Rows = append(out.Rows, Character{
			ID:         v.Get("id").String(),
			Title:      v.Get("title").String(),
			Owner:      v.Get("user.name").String(),
			PreviewURL: v.Get("previewUrl").String(),
			DNAURL:     v.Get("dnaUrl").String(),
			Downloads:  v.Get("_count.characterDownloads").Int(),
			Likes:      v.Get("_count.characterLikes").Int(),
			CreatedAt:  v.Get("createdAt").String(),
		})
	}
	return out, nil
}
