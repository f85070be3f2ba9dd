package repository

import (
	"context"
	"net/url"
)

// backendClient is the JSON transport the REST-backed repositories share.
type backendClient interface {
	GetJSON(ctx context.Context, path string, dest interface{}) error
	Lookup(ctx context.Context, path string, body, dest interface{}) error
	PostJSON(ctx context.Context, path string, body, dest interface{}) error
}

func pathID(id string) string {
	return url.PathEscape(id)
}
