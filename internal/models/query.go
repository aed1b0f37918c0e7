package models

import "time"

// QueryTuple is one concrete (origin, outbound date, return date) search.
type QueryTuple struct {
	Origin   string    `json:"origin"`
	Outbound time.Time `json:"outbound_date"`
	Return   time.Time `json:"return_date"`
}

func (q QueryTuple) Key() string {
	return q.Origin + " " + q.Outbound.Format(DateLayout) + "/" + q.Return.Format(DateLayout)
}

// SearchQuery is everything a source needs to run one tuple.
type SearchQuery struct {
	QueryTuple
	Destination string
	Passengers  Passengers
	Currency    string
	MaxStops    int
	MaxResults  int
}

func NewSearchQuery(spec *TripSpecification, q QueryTuple, maxResults int) SearchQuery {
	return SearchQuery{
		QueryTuple:  q,
		Destination: spec.Destination,
		Passengers:  spec.Passengers,
		Currency:    spec.Currency,
		MaxStops:    spec.MaxStops,
		MaxResults:  maxResults,
	}
}
