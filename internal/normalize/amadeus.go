// Package normalize maps raw offer payloads into models.FlightOffer.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/timezone"
)

// Normalizer converts one source payload for query into a FlightOffer, or
// returns a *Failure.
type Normalizer interface {
	Normalize(raw models.RawOffer, query models.SearchQuery) (models.FlightOffer, error)
}

type amadeusOffer struct {
	ID          string             `json:"id"`
	Itineraries []amadeusItinerary `json:"itineraries"`
	Price       *amadeusPrice      `json:"price"`
}

type amadeusItinerary struct {
	Duration *string          `json:"duration"`
	Segments []amadeusSegment `json:"segments"`
}

type amadeusSegment struct {
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
}

type amadeusEndpoint struct {
	IATACode string  `json:"iataCode"`
	At       *string `json:"at"`
}

type amadeusPrice struct {
	Currency   *string         `json:"currency"`
	GrandTotal json.RawMessage `json:"grandTotal"`
}

// Amadeus normalizes offers in the Amadeus Self-Service flight-offers shape.
type Amadeus struct{}

var _ Normalizer = Amadeus{}

func (Amadeus) Normalize(raw models.RawOffer, query models.SearchQuery) (models.FlightOffer, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.FlightOffer{}, fail(ReasonMalformedPayload, "empty payload")
	}

	var o amadeusOffer
	if err := json.Unmarshal(raw, &o); err != nil {
		return models.FlightOffer{}, fail(ReasonMalformedPayload, describeDecodeError(err))
	}

	price, err := parsePrice(o.Price)
	if err != nil {
		return models.FlightOffer{}, err
	}

	if len(o.Itineraries) != 2 {
		return models.FlightOffer{}, fail(ReasonMissingItinerary,
			fmt.Sprintf("want outbound and return itineraries, got %d", len(o.Itineraries)))
	}
	out, ret := o.Itineraries[0], o.Itineraries[1]

	if len(out.Segments) == 0 {
		return models.FlightOffer{}, fail(ReasonMissingSegments, "outbound")
	}
	if len(ret.Segments) == 0 {
		return models.FlightOffer{}, fail(ReasonMissingSegments, "return")
	}

	outDuration, err := legDuration(out, "outbound")
	if err != nil {
		return models.FlightOffer{}, err
	}
	retDuration, err := legDuration(ret, "return")
	if err != nil {
		return models.FlightOffer{}, err
	}

	dep := out.Segments[0].Departure.At
	if dep == nil || strings.TrimSpace(*dep) == "" {
		return models.FlightOffer{}, fail(ReasonMissingDepartureTime, "outbound first segment")
	}
	depTime, err := timezone.ParseTimeWithOffset(*dep, "")
	if err != nil {
		return models.FlightOffer{}, fail(ReasonInvalidDepartureTime, *dep)
	}

	return models.FlightOffer{
		ID:          o.ID,
		Origin:      query.Origin,
		Destination: query.Destination,
		Outbound:    query.Outbound,
		Return:      query.Return,
		Price:       price,
		Stops: models.Stops{
			Outbound: len(out.Segments) - 1,
			Return:   len(ret.Segments) - 1,
		},
		OutboundDuration:  outDuration,
		ReturnDuration:    retDuration,
		DepartureOutbound: models.TimeOfDayOf(depTime),
		Carriers:          carriers(out.Segments, ret.Segments),
		OutboundSegments:  segments(out.Segments),
		ReturnSegments:    segments(ret.Segments),
		Raw:               raw,
	}, nil
}

func parsePrice(p *amadeusPrice) (models.Money, error) {
	if p == nil {
		return models.Money{}, fail(ReasonMissingPrice, "price object absent")
	}

	total := bytes.TrimSpace(p.GrandTotal)
	if len(total) == 0 || bytes.Equal(total, []byte("null")) {
		return models.Money{}, fail(ReasonMissingPrice, "grandTotal absent")
	}

	// grandTotal is a decimal string; a bare JSON number is tolerated.
	text := string(total)
	if total[0] == '"' {
		if err := json.Unmarshal(total, &text); err != nil {
			return models.Money{}, fail(ReasonInvalidPrice, string(total))
		}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return models.Money{}, fail(ReasonInvalidPrice, text)
	}
	if amount.IsNegative() {
		return models.Money{}, fail(ReasonNegativePrice, text)
	}

	if p.Currency == nil || strings.TrimSpace(*p.Currency) == "" {
		return models.Money{}, fail(ReasonMissingCurrency, "")
	}

	return models.Money{
		Amount:   amount,
		Currency: strings.ToUpper(strings.TrimSpace(*p.Currency)),
	}, nil
}

func legDuration(it amadeusItinerary, leg string) (time.Duration, error) {
	if it.Duration == nil || strings.TrimSpace(*it.Duration) == "" {
		return 0, fail(ReasonMissingDuration, leg)
	}
	d, err := parseISODuration(*it.Duration)
	if err != nil {
		return 0, fail(ReasonInvalidDuration, leg+" "+*it.Duration)
	}
	return d, nil
}

func carriers(legs ...[]amadeusSegment) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, segments := range legs {
		for _, s := range segments {
			code := strings.ToUpper(strings.TrimSpace(s.CarrierCode))
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// segments keeps the per-flight detail for alerts. Times that are missing or
// unparseable are left zero; only the first departure is required.
func segments(raw []amadeusSegment) []models.Segment {
	out := make([]models.Segment, len(raw))
	for i, s := range raw {
		carrier := strings.ToUpper(strings.TrimSpace(s.CarrierCode))
		out[i] = models.Segment{
			From:    strings.ToUpper(strings.TrimSpace(s.Departure.IATACode)),
			To:      strings.ToUpper(strings.TrimSpace(s.Arrival.IATACode)),
			Departs: segmentTime(s.Departure.At),
			Arrives: segmentTime(s.Arrival.At),
			Flight:  carrier + strings.TrimSpace(s.Number),
		}
	}
	return out
}

func segmentTime(at *string) time.Time {
	if at == nil {
		return time.Time{}
	}
	t, err := timezone.ParseTimeWithOffset(*at, "")
	if err != nil {
		return time.Time{}
	}
	return t
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}
