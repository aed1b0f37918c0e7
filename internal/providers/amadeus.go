package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/cache"
	"github.com/dharmasatrya/flightwatch/internal/models"
)

const (
	DefaultAmadeusHost = "https://test.api.amadeus.com"

	amadeusTokenPath  = "/v1/security/oauth2/token"
	amadeusOffersPath = "/v2/shopping/flight-offers"

	// Tokens are dropped from the cache this long before Amadeus expires them.
	tokenExpiryMargin = 60 * time.Second
)

var (
	ErrMissingCredentials = errors.New("amadeus api key and secret are required")
	errUnauthorized       = errors.New("amadeus rejected the access token")
)

type AmadeusConfig struct {
	Host      string
	APIKey    string
	APISecret string

	// MaxTokenTTL caps how long a token stays cached. Zero means up to
	// the expiry Amadeus reports.
	MaxTokenTTL time.Duration
}

type AmadeusProvider struct {
	config   AmadeusConfig
	client   *HTTPClient
	tokens   cache.TokenCache
	cacheKey string
	logger   *slog.Logger

	// refresh serializes token fetches so concurrent tuples share one.
	refresh sync.Mutex
}

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type amadeusOffersResponse struct {
	Data   []json.RawMessage `json:"data"`
	Errors []amadeusAPIError `json:"errors"`
}

type amadeusAPIError struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func NewAmadeusProvider(cfg AmadeusConfig, client *HTTPClient, tokens cache.TokenCache, logger *slog.Logger) (*AmadeusProvider, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.Host == "" {
		cfg.Host = DefaultAmadeusHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")

	if client == nil {
		client = NewHTTPClient("amadeus", DefaultRetryPolicy())
	}
	if tokens == nil {
		tokens = cache.NewMemoryTokenCache()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AmadeusProvider{
		config:   cfg,
		client:   client,
		tokens:   tokens,
		cacheKey: cache.Key("amadeus", cfg.Host, cfg.APIKey),
		logger:   logger.With("provider", "amadeus"),
	}, nil
}

func (p *AmadeusProvider) Name() string {
	return "amadeus"
}

func (p *AmadeusProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.RawOffer, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, NewSourceError(p.Name(), query.QueryTuple, err)
	}

	offers, err := p.searchOnce(ctx, token, query)
	if errors.Is(err, errUnauthorized) {
		p.logger.Info("access token rejected, refreshing", "query", query.Key())
		if delErr := p.tokens.Delete(ctx, p.cacheKey); delErr != nil {
			p.logger.Warn("failed to drop cached token", "error", delErr)
		}

		token, err = p.fetchAndStoreToken(ctx)
		if err != nil {
			return nil, NewSourceError(p.Name(), query.QueryTuple, err)
		}
		offers, err = p.searchOnce(ctx, token, query)
	}
	if err != nil {
		return nil, NewSourceError(p.Name(), query.QueryTuple, err)
	}

	return offers, nil
}

func (p *AmadeusProvider) token(ctx context.Context) (string, error) {
	if token, ok := p.tokens.Get(ctx, p.cacheKey); ok {
		return token, nil
	}

	p.refresh.Lock()
	defer p.refresh.Unlock()

	if token, ok := p.tokens.Get(ctx, p.cacheKey); ok {
		return token, nil
	}

	return p.fetchTokenLocked(ctx)
}

func (p *AmadeusProvider) fetchAndStoreToken(ctx context.Context) (string, error) {
	p.refresh.Lock()
	defer p.refresh.Unlock()

	return p.fetchTokenLocked(ctx)
}

func (p *AmadeusProvider) fetchTokenLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.config.APIKey)
	form.Set("client_secret", p.config.APISecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Host+amadeusTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var body amadeusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}

	ttl := time.Duration(body.ExpiresIn)*time.Second - tokenExpiryMargin
	if p.config.MaxTokenTTL > 0 && ttl > p.config.MaxTokenTTL {
		ttl = p.config.MaxTokenTTL
	}
	if err := p.tokens.Set(ctx, p.cacheKey, body.AccessToken, ttl); err != nil {
		p.logger.Warn("failed to cache access token", "error", err)
	}

	return body.AccessToken, nil
}

func (p *AmadeusProvider) searchOnce(ctx context.Context, token string, query models.SearchQuery) ([]models.RawOffer, error) {
	endpoint := p.config.Host + amadeusOffersPath + "?" + searchParams(query).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var body amadeusOffersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(body.Errors) > 0 && len(body.Data) == 0 {
		e := body.Errors[0]
		return nil, fmt.Errorf("search: %s: %s", e.Title, e.Detail)
	}

	offers := make([]models.RawOffer, 0, len(body.Data))
	for _, raw := range body.Data {
		offers = append(offers, models.RawOffer(raw))
	}

	return offers, nil
}

func searchParams(query models.SearchQuery) url.Values {
	adults, children, infants := travellerCounts(query.Passengers)

	params := url.Values{}
	params.Set("originLocationCode", query.Origin)
	params.Set("destinationLocationCode", query.Destination)
	params.Set("departureDate", query.Outbound.Format(models.DateLayout))
	params.Set("returnDate", query.Return.Format(models.DateLayout))
	params.Set("adults", strconv.Itoa(adults))
	if children > 0 {
		params.Set("children", strconv.Itoa(children))
	}
	if infants > 0 {
		params.Set("infants", strconv.Itoa(infants))
	}
	if query.Currency != "" {
		params.Set("currencyCode", query.Currency)
	}
	if query.MaxResults > 0 {
		params.Set("max", strconv.Itoa(query.MaxResults))
	}
	if query.MaxStops == 0 {
		params.Set("nonStop", "true")
	}

	return params
}

// travellerCounts maps child ages to Amadeus traveller types: under 2 is an
// infant, 2-11 a child, 12 and over an adult.
func travellerCounts(p models.Passengers) (adults, children, infants int) {
	adults = p.Adults
	for _, age := range p.ChildAges {
		switch {
		case age < 2:
			infants++
		case age < 12:
			children++
		default:
			adults++
		}
	}
	return adults, children, infants
}

func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(data))
}
