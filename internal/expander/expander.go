// Package expander turns a trip specification into the ordered list of
// searches to run.
package expander

import (
	"fmt"
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// DefaultMaxQueries bounds a single run's fan-out.
const DefaultMaxQueries = 500

// Expand validates spec and returns origins x outbound dates x return dates,
// origins in input order and dates ascending. Pairs returning before they
// depart are skipped.
func Expand(spec *models.TripSpecification) ([]models.QueryTuple, error) {
	return ExpandWithLimit(spec, 0)
}

// ExpandWithLimit is Expand with an upper bound on the number of tuples.
// A limit of zero or less means unbounded.
func ExpandWithLimit(spec *models.TripSpecification, limit int) ([]models.QueryTuple, error) {
	if spec == nil {
		return nil, models.ErrInvalidSpecification
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	outbound := spec.Outbound.Dates()
	returns := spec.Return.Dates()

	if limit > 0 {
		if upper := len(spec.Origins) * len(outbound) * len(returns); upper > limit {
			return nil, fmt.Errorf("%w: %d tuples, limit %d", models.ErrTooManyQueries, upper, limit)
		}
	}

	tuples := make([]models.QueryTuple, 0, len(spec.Origins)*len(outbound)*len(returns))
	for _, origin := range spec.Origins {
		code := strings.ToUpper(strings.TrimSpace(origin))
		for _, out := range outbound {
			for _, ret := range returns {
				if ret.Before(out) {
					continue
				}
				tuples = append(tuples, models.QueryTuple{
					Origin:   code,
					Outbound: out,
					Return:   ret,
				})
			}
		}
	}

	return tuples, nil
}
