// Package alert decides which winners are worth a notification and renders
// them into a message.
package alert

import (
	"github.com/dharmasatrya/flightwatch/internal/models"
)

// Alert is one alert-worthy winner together with the search it won.
type Alert struct {
	Query models.QueryTuple  `json:"query"`
	Offer models.FlightOffer `json:"offer"`
}

// ShouldAlert never fires for NoMatch. Without a threshold every winner
// fires; with one, winners at or below it do.
func ShouldAlert(result models.MatchResult, spec *models.TripSpecification) bool {
	if !result.Matched() {
		return false
	}
	if spec.PriceThreshold == nil {
		return true
	}
	return result.Winner.Price.Amount.LessThanOrEqual(*spec.PriceThreshold)
}

// Collect gates results in order and returns the alert-worthy ones.
func Collect(results []models.MatchResult, spec *models.TripSpecification) []Alert {
	var alerts []Alert
	for _, r := range results {
		if ShouldAlert(r, spec) {
			alerts = append(alerts, Alert{Query: r.Query, Offer: *r.Winner})
		}
	}
	return alerts
}
