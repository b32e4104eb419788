package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// UseCase is a curated public example conversation
type UseCase struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Tags            []string  `json:"tags"`
	DifficultyLevel string    `json:"difficulty_level"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	Featured        bool      `json:"featured"`
	ViewCount       int       `json:"view_count"`
	MessageCount    int       `json:"message_count"`
	CreatedAt       Timestamp `json:"created_at"`
	UpdatedAt       Timestamp `json:"updated_at"`
}

// UseCaseCategory is a category with its use-case count
type UseCaseCategory struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// UseCaseMessage is one message of a use case thread
type UseCaseMessage struct {
	StoredMessage
	UseCaseID       string `json:"use_case_id"`
	Order           int    `json:"order"`
	FileType        string `json:"file_type"`
	FileDescription string `json:"file_description"`
}

// UseCaseThread is a use case with its messages in order
type UseCaseThread struct {
	UseCase  UseCase          `json:"use_case"`
	Messages []UseCaseMessage `json:"messages"`
}

// UseCaseFilter narrows ListUseCases. Empty Category or nil Featured means
// no filter.
type UseCaseFilter struct {
	Category string
	Featured *bool
}

// ListUseCases returns public use cases, featured and most viewed first
func (c *Client) ListUseCases(ctx context.Context, filter UseCaseFilter) ([]UseCase, error) {
	query := url.Values{}
	if filter.Category != "" && filter.Category != "all" {
		query.Set("category", filter.Category)
	}
	if filter.Featured != nil {
		query.Set("featured", strconv.FormatBool(*filter.Featured))
	}

	var out struct {
		Status   string    `json:"status"`
		Count    int       `json:"count"`
		UseCases []UseCase `json:"use_cases"`
	}
	if err := c.call(ctx, http.MethodGet, "/use_cases", query, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to list use cases: %w", err)
	}
	return out.UseCases, nil
}

// UseCaseCategories returns categories with counts, "all" first
func (c *Client) UseCaseCategories(ctx context.Context) ([]UseCaseCategory, error) {
	var out struct {
		Status     string            `json:"status"`
		Categories []UseCaseCategory `json:"categories"`
	}
	if err := c.call(ctx, http.MethodGet, "/use_cases/categories/list", nil, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out.Categories, nil
}

// UseCaseMessages returns a use case and its conversation
func (c *Client) UseCaseMessages(ctx context.Context, useCaseID string) (*UseCaseThread, error) {
	var out UseCaseThread
	path := "/use_cases/" + url.PathEscape(useCaseID) + "/messages"
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out, authNone); err != nil {
		return nil, fmt.Errorf("failed to load use case: %w", err)
	}
	return &out, nil
}

// IncrementUseCaseViews records a view and returns the new count
func (c *Client) IncrementUseCaseViews(ctx context.Context, useCaseID string) (int, error) {
	var out struct {
		NewViewCount int `json:"new_view_count"`
	}
	path := "/use_cases/" + url.PathEscape(useCaseID) + "/increment-views"
	if err := c.call(ctx, http.MethodPost, path, nil, nil, &out, authNone); err != nil {
		return 0, fmt.Errorf("failed to record view: %w", err)
	}
	return out.NewViewCount, nil
}
