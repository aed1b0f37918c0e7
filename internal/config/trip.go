package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// TripSpecification converts the trip section into the core's
// specification. Codes are uppercased; viper lowercases map keys, so the
// per-origin departure switches are uppercased too. Semantic checks stay
// with models.TripSpecification.Validate.
func (c *Config) TripSpecification() (*models.TripSpecification, error) {
	t := c.Trip

	outbound, err := models.NewDateWindow(t.Outbound.Start, t.Outbound.End)
	if err != nil {
		return nil, parseError("trip.outbound", err)
	}
	ret, err := models.NewDateWindow(t.Return.Start, t.Return.End)
	if err != nil {
		return nil, parseError("trip.return", err)
	}

	origins := make([]string, len(t.Origins))
	for i, o := range t.Origins {
		origins[i] = strings.ToUpper(strings.TrimSpace(o))
	}

	spec := &models.TripSpecification{
		Origins:     origins,
		Destination: strings.ToUpper(strings.TrimSpace(t.Destination)),
		Outbound:    outbound,
		Return:      ret,
		Passengers: models.Passengers{
			Adults:    t.Passengers.Adults,
			ChildAges: append([]int(nil), t.Passengers.ChildAges...),
		},
		MaxStops:    t.MaxStops,
		MaxDuration: time.Duration(t.MaxDurationHours * float64(time.Hour)),
		Currency:    strings.ToUpper(strings.TrimSpace(t.Currency)),
	}

	if pd := t.PreferredDeparture; pd != nil {
		after, err := models.ParseTimeOfDay(pd.After)
		if err != nil {
			return nil, parseError("trip.preferred_departure.after", err)
		}
		enabled := make(map[string]bool, len(pd.Origins))
		for origin, on := range pd.Origins {
			enabled[strings.ToUpper(strings.TrimSpace(origin))] = on
		}
		spec.DepartureAfter = &models.DeparturePreference{
			After:   after,
			Origins: enabled,
			Soft:    pd.Soft,
		}
	}

	if raw := strings.TrimSpace(t.PriceThreshold); raw != "" {
		threshold, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, parseError("trip.price_threshold", err)
		}
		spec.PriceThreshold = &threshold
	}

	return spec, nil
}

func parseError(field string, err error) *ConfigError {
	return &ConfigError{
		Type:    ErrParsing,
		Message: fmt.Sprintf("invalid %s", field),
		Err:     err,
	}
}
