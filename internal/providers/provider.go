package providers

import (
	"context"
	"errors"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// Provider is an offer source: one call per query tuple, returning the raw
// offers untouched.
type Provider interface {
	Name() string
	Search(ctx context.Context, query models.SearchQuery) ([]models.RawOffer, error)
}

// ErrSourceQuery is matched by every *SourceError.
var ErrSourceQuery = errors.New("source query failed")

type SourceError struct {
	Provider string
	Query    string
	Err      error
}

func (e *SourceError) Error() string {
	return e.Provider + " " + e.Query + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceQuery
}

func NewSourceError(provider string, query models.QueryTuple, err error) *SourceError {
	return &SourceError{
		Provider: provider,
		Query:    query.Key(),
		Err:      err,
	}
}
