package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/rainwise/internal/models"
)

// ListParams are the query parameters shared by collection endpoints.
// Zero values are omitted.
type ListParams struct {
	Page          int
	Limit         int
	SortBy        string
	SortDirection string
	Search        string
	Filters       map[string]string
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortDirection != "" {
		v.Set("sortDirection", p.SortDirection)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// ItemPath joins a collection path and an id.
func ItemPath(collection string, id int64) string {
	return fmt.Sprintf("%s/%d", collection, id)
}

// List fetches one page of a collection.
func List[T any](ctx context.Context, c *HTTPClient, path string, query url.Values) (*models.ListResponse[T], error) {
	var resp models.ListResponse[T]
	if err := c.Do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get fetches one item.
func Get[T any](ctx context.Context, c *HTTPClient, path string) (*T, error) {
	var resp models.DataResponse[T]
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Create posts in to a collection and returns the stored item.
func Create[T any](ctx context.Context, c *HTTPClient, path string, in any) (*T, error) {
	var resp models.DataResponse[T]
	if err := c.Do(ctx, http.MethodPost, path, nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Update replaces an item.
func Update[T any](ctx context.Context, c *HTTPClient, path string, in any) (*T, error) {
	var resp models.DataResponse[T]
	if err := c.Do(ctx, http.MethodPut, path, nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Delete removes an item and returns the server's message.
func Delete(ctx context.Context, c *HTTPClient, path string) (string, error) {
	var resp models.MessageResponse
	if err := c.Do(ctx, http.MethodDelete, path, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
