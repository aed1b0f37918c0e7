package filter

import (
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type Reason string

const (
	ReasonCurrencyMismatch Reason = "currency_mismatch"
	ReasonTooManyStops     Reason = "too_many_stops"
	ReasonTooLong          Reason = "too_long"
	ReasonDepartsTooEarly  Reason = "departs_too_early"
)

// Verdict is the outcome of checking one offer. Reason is empty on Pass.
type Verdict struct {
	Pass   bool
	Reason Reason
}

func pass() Verdict                { return Verdict{Pass: true} }
func reject(reason Reason) Verdict { return Verdict{Reason: reason} }

// Passes checks offer against the trip constraints. Checks run in a fixed
// order, so the departure check only fails offers that met everything else.
func Passes(offer models.FlightOffer, spec *models.TripSpecification) Verdict {
	if !strings.EqualFold(offer.Price.Currency, spec.Currency) {
		return reject(ReasonCurrencyMismatch)
	}

	if offer.Stops.Outbound > spec.MaxStops || offer.Stops.Return > spec.MaxStops {
		return reject(ReasonTooManyStops)
	}

	// per leg, not combined
	if offer.OutboundDuration > spec.MaxDuration || offer.ReturnDuration > spec.MaxDuration {
		return reject(ReasonTooLong)
	}

	if spec.DepartureAfter.EnabledFor(offer.Origin) && offer.DepartureOutbound < spec.DepartureAfter.After {
		return reject(ReasonDepartsTooEarly)
	}

	return pass()
}

// Result partitions one tuple's offers.
type Result struct {
	Passed []models.FlightOffer

	// DepartsEarly holds offers rejected only for their departure time.
	DepartsEarly []models.FlightOffer
	Rejected     map[Reason]int
}

// Apply runs Passes over offers, preserving input order in both slices.
func Apply(offers []models.FlightOffer, spec *models.TripSpecification) Result {
	result := Result{
		Passed:   make([]models.FlightOffer, 0, len(offers)),
		Rejected: make(map[Reason]int),
	}

	for _, o := range offers {
		v := Passes(o, spec)
		if v.Pass {
			result.Passed = append(result.Passed, o)
			continue
		}
		result.Rejected[v.Reason]++
		if v.Reason == ReasonDepartsTooEarly {
			result.DepartsEarly = append(result.DepartsEarly, o)
		}
	}

	return result
}

// Candidates returns the offers eligible for selection: the passing ones,
// or under a soft departure preference the early departures when nothing
// passed. The bool reports whether the fallback was taken.
func (r Result) Candidates(spec *models.TripSpecification) ([]models.FlightOffer, bool) {
	if len(r.Passed) > 0 {
		return r.Passed, false
	}
	if spec.DepartureAfter != nil && spec.DepartureAfter.Soft && len(r.DepartsEarly) > 0 {
		return r.DepartsEarly, true
	}
	return r.Passed, false
}
