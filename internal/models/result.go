package models

// MatchResult is the outcome of one tuple: either no match or a winner.
type MatchResult struct {
	Query  QueryTuple   `json:"query"`
	Winner *FlightOffer `json:"winner,omitempty"`
}

func NoMatch(q QueryTuple) MatchResult {
	return MatchResult{Query: q}
}

func Won(q QueryTuple, offer FlightOffer) MatchResult {
	return MatchResult{Query: q, Winner: &offer}
}

func (r MatchResult) Matched() bool {
	return r.Winner != nil
}
