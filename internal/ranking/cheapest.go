package ranking

import (
	"github.com/dharmasatrya/flightwatch/internal/models"
)

// SelectCheapest picks the winner among offers that passed filtering for
// query. Ties on price go to fewer total stops, then shorter combined
// duration, then the earlier offer in input order.
func SelectCheapest(query models.QueryTuple, offers []models.FlightOffer) models.MatchResult {
	if len(offers) == 0 {
		return models.NoMatch(query)
	}

	best := 0
	for i := 1; i < len(offers); i++ {
		if Less(offers[i], offers[best]) {
			best = i
		}
	}

	return models.Won(query, offers[best])
}

// Less reports whether a strictly beats b.
func Less(a, b models.FlightOffer) bool {
	if c := a.Price.Amount.Cmp(b.Price.Amount); c != 0 {
		return c < 0
	}
	if sa, sb := a.Stops.Total(), b.Stops.Total(); sa != sb {
		return sa < sb
	}
	return a.TotalDuration() < b.TotalDuration()
}
