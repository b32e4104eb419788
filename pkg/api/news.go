package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewsCategories are the categories the backend keeps warm in its cache
var NewsCategories = []string{"general", "sports", "technology", "business", "entertainment", "politics"}

// Article is one news item
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Thumbnail   string `json:"thumbnail"`
	Source      string `json:"source"`
	Author      string `json:"author"`
}

// NewsQuery selects a news feed. Empty Country lets the backend detect it.
type NewsQuery struct {
	Category string
	Country  string
	Query    string
}

// NewsFeed is a cached news page
type NewsFeed struct {
	Status       string    `json:"status"`
	Category     string    `json:"category"`
	Country      string    `json:"country"`
	Articles     []Article `json:"articles"`
	CachedAt     Timestamp `json:"cached_at"`
	NextUpdate   Timestamp `json:"next_update"`
	TotalResults int       `json:"total_results"`
}

// CountryInfo is the backend's guess of the caller's country
type CountryInfo struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Language    string `json:"language"`
	Status      string `json:"status"`
}

// News fetches a news feed
func (c *Client) News(ctx context.Context, q NewsQuery) (*NewsFeed, error) {
	query := url.Values{}
	category := q.Category
	if category == "" {
		category = "general"
	}
	query.Set("category", category)
	if q.Country != "" {
		query.Set("country", strings.ToUpper(q.Country))
	}
	if q.Query != "" {
		query.Set("q", q.Query)
	}

	var out NewsFeed
	if err := c.call(ctx, http.MethodGet, "/news", query, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}
	return &out, nil
}

// DetectCountry asks the backend which country the caller is in
func (c *Client) DetectCountry(ctx context.Context) (*CountryInfo, error) {
	var out CountryInfo
	if err := c.call(ctx, http.MethodGet, "/detect-country", nil, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to detect country: %w", err)
	}
	return &out, nil
}
