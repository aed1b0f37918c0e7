package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// FixtureProvider serves canned Amadeus-shaped offers keyed by query tuple.
// Tuples absent from the file return no offers.
type FixtureProvider struct {
	searches map[string]fixtureSearch
}

type fixtureFile struct {
	Searches []fixtureSearch `json:"searches"`
}

type fixtureSearch struct {
	Origin   string            `json:"origin"`
	Outbound string            `json:"outbound"`
	Return   string            `json:"return"`
	Offers   []json.RawMessage `json:"offers"`
	Error    string            `json:"error,omitempty"`
}

func NewFixtureProvider(data []byte) (*FixtureProvider, error) {
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	searches := make(map[string]fixtureSearch, len(file.Searches))
	for i, s := range file.Searches {
		out, err := models.ParseDate(s.Outbound)
		if err != nil {
			return nil, fmt.Errorf("fixture search %d: outbound: %w", i, err)
		}
		ret, err := models.ParseDate(s.Return)
		if err != nil {
			return nil, fmt.Errorf("fixture search %d: return: %w", i, err)
		}

		key := models.QueryTuple{
			Origin:   strings.ToUpper(strings.TrimSpace(s.Origin)),
			Outbound: out,
			Return:   ret,
		}.Key()
		searches[key] = s
	}

	return &FixtureProvider{searches: searches}, nil
}

func NewFixtureProviderFromFile(path string) (*FixtureProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return NewFixtureProvider(data)
}

func (p *FixtureProvider) Name() string {
	return "fixture"
}

func (p *FixtureProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.RawOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewSourceError(p.Name(), query.QueryTuple, err)
	}

	s, ok := p.searches[query.Key()]
	if !ok {
		return nil, nil
	}
	if s.Error != "" {
		return nil, NewSourceError(p.Name(), query.QueryTuple, errors.New(s.Error))
	}

	offers := make([]models.RawOffer, 0, len(s.Offers))
	for _, raw := range s.Offers {
		offers = append(offers, models.RawOffer(raw))
	}
	return offers, nil
}
