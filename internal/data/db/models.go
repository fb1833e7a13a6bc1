package db

import "database/sql"

type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

type Note struct {
	ID               string
	BookID           string
	Content          string
	SourceText       string
	ScrollPercentage sql.NullFloat64
	GlobalOffset     sql.NullInt64
	ContentHash      string
	CreatedAt        int64
}

type Bookmark struct {
	ID               string
	BookID           string
	Name             string
	PageNumber       int64
	ScrollPercentage float64
	GlobalOffset     sql.NullInt64
	ContentHash      string
	CreatedAt        int64
}
