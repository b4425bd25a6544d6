package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps the requested page size.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// Cursor points at the last row of the previous page; rows are ordered by id.
type Cursor struct {
	ID int64 `json:"id,string"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.ID <= 0 {
		return nil, ErrInvalidPageToken
	}
	return &c, nil
}

// Trim cuts a result fetched with limit+1 rows down to limit and builds the page info.
func Trim[T any](items []T, limit int, cursorOf func(T) Cursor) ([]T, PageInfo, error) {
	if len(items) <= limit {
		return items, PageInfo{}, nil
	}
	items = items[:limit]
	token, err := EncodeCursor(cursorOf(items[len(items)-1]))
	if err != nil {
		return nil, PageInfo{}, err
	}
	return items, PageInfo{NextPageToken: token, HasMore: true}, nil
}
