package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureJSON = `{
  "searches": [
    {"origin": "ams", "outbound": "2025-07-01", "return": "2025-07-15", "offers": [{"id": "1"}, {"id": "2"}]},
    {"origin": "EIN", "outbound": "2025-07-01", "return": "2025-07-15", "error": "upstream timeout"}
  ]
}`

func TestFixtureProvider_ServesOffersByTuple(t *testing.T) {
	p, err := NewFixtureProvider([]byte(fixtureJSON))
	require.NoError(t, err)

	offers, err := p.Search(context.Background(), amsQuery(t))
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.JSONEq(t, `{"id":"2"}`, string(offers[1]))
}

func TestFixtureProvider_UnknownTupleIsEmpty(t *testing.T) {
	p, err := NewFixtureProvider([]byte(fixtureJSON))
	require.NoError(t, err)

	query := amsQuery(t)
	query.Origin = "BRU"
	offers, err := p.Search(context.Background(), query)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestFixtureProvider_ConfiguredFailure(t *testing.T) {
	p, err := NewFixtureProvider([]byte(fixtureJSON))
	require.NoError(t, err)

	query := amsQuery(t)
	query.Origin = "EIN"
	_, err = p.Search(context.Background(), query)
	assert.ErrorIs(t, err, ErrSourceQuery)
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestFixtureProvider_CancelledContext(t *testing.T) {
	p, err := NewFixtureProvider([]byte(fixtureJSON))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Search(ctx, amsQuery(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFixtureProvider_RejectsBadDates(t *testing.T) {
	_, err := NewFixtureProvider([]byte(`{"searches":[{"origin":"AMS","outbound":"01-07-2025","return":"2025-07-15"}]}`))
	assert.Error(t, err)
}

func TestNewFixtureProviderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0o600))

	p, err := NewFixtureProviderFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fixture", p.Name())

	_, err = NewFixtureProviderFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
