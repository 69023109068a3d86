package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/feeds"

	"github.com/hitoshi/blogapi/internal/middleware"
	"github.com/hitoshi/blogapi/internal/model"
)

// FeedConfig はRSSフィードのチャンネル情報。
type FeedConfig struct {
	Title       string
	Description string
	BaseURL     string
}

// buildFeed は投稿一覧からフィードを組み立てる。
// postsは新しい順に並んでいる前提で、先頭の作成日時をlastBuildDateとする。
func buildFeed(cfg FeedConfig, posts []model.PostWithAuthor) *feeds.Feed {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	feed := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: baseURL},
		Description: cfg.Description,
		Items:       make([]*feeds.Item, 0, len(posts)),
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].CreatedAt.UTC()
	}

	for _, p := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.ID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: baseURL + "/api/posts#" + p.ID},
			Description: p.Content,
			Author:      &feeds.Author{Name: p.AuthorName},
			Created:     p.CreatedAt.UTC(),
		})
	}
	return feed
}

// writeRSS はフィードをRSS 2.0として書き込む。
func writeRSS(w http.ResponseWriter, r *http.Request, cfg FeedConfig, posts []model.PostWithAuthor) {
	body, err := buildFeed(cfg, posts).ToRss()
	if err != nil {
		slog.Error("failed to encode rss feed",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
