package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/pkg/currency"
)

type Formatter struct {
	destination string
	passengers  models.Passengers
	origins     []string
	threshold   *decimal.Decimal
	currency    string
}

func NewFormatter(spec *models.TripSpecification) *Formatter {
	origins := make([]string, len(spec.Origins))
	for i, o := range spec.Origins {
		origins[i] = strings.ToUpper(strings.TrimSpace(o))
	}
	return &Formatter{
		destination: strings.ToUpper(spec.Destination),
		passengers:  spec.Passengers,
		origins:     origins,
		threshold:   spec.PriceThreshold,
		currency:    spec.Currency,
	}
}

// Format renders alerts grouped per origin, each group ordered by outbound
// then return date. It returns false when there is nothing to send.
func (f *Formatter) Format(alerts []Alert) (string, bool) {
	if len(alerts) == 0 {
		return "", false
	}

	groups := make(map[string][]Alert)
	for _, a := range alerts {
		groups[a.Query.Origin] = append(groups[a.Query.Origin], a)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✈️ Flights to %s for %s\n", f.destination, f.passengers)

	for _, origin := range f.originOrder(alerts) {
		group := groups[origin]
		sort.SliceStable(group, func(i, j int) bool {
			qi, qj := group[i].Query, group[j].Query
			if !qi.Outbound.Equal(qj.Outbound) {
				return qi.Outbound.Before(qj.Outbound)
			}
			return qi.Return.Before(qj.Return)
		})

		fmt.Fprintf(&b, "\n%s → %s\n", origin, f.destination)
		for _, a := range group {
			b.WriteString(formatLine(a))
			b.WriteByte('\n')
			for _, segs := range [][]models.Segment{a.Offer.OutboundSegments, a.Offer.ReturnSegments} {
				if line := formatSegments(segs); line != "" {
					b.WriteString(line)
					b.WriteByte('\n')
				}
			}
		}
	}

	if f.threshold != nil {
		fmt.Fprintf(&b, "\nThreshold: %s\n", currency.Format(*f.threshold, f.currency))
	}

	return strings.TrimRight(b.String(), "\n"), true
}

// originOrder lists origins as configured, then any others in first-seen order.
func (f *Formatter) originOrder(alerts []Alert) []string {
	present := make(map[string]bool)
	for _, a := range alerts {
		present[a.Query.Origin] = true
	}

	order := make([]string, 0, len(present))
	for _, o := range f.origins {
		if present[o] {
			order = append(order, o)
			delete(present, o)
		}
	}
	for _, a := range alerts {
		if present[a.Query.Origin] {
			order = append(order, a.Query.Origin)
			delete(present, a.Query.Origin)
		}
	}
	return order
}

func formatLine(a Alert) string {
	o := a.Offer
	line := fmt.Sprintf("• %s ⇄ %s  %s  stops %d/%d  %s / %s  dep %s",
		a.Query.Outbound.Format(models.DateLayout),
		a.Query.Return.Format(models.DateLayout),
		currency.Format(o.Price.Amount, o.Price.Currency),
		o.Stops.Outbound, o.Stops.Return,
		formatDuration(o.OutboundDuration),
		formatDuration(o.ReturnDuration),
		o.DepartureOutbound,
	)
	if len(o.Carriers) > 0 {
		line += "  " + strings.Join(o.Carriers, ", ")
	}
	return line
}

// formatSegments renders one leg as "  AMS 18:35 → MAD 21:05 (IB3251) | ...".
func formatSegments(segs []models.Segment) string {
	if len(segs) == 0 {
		return ""
	}
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return "  " + strings.Join(parts, " | ")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
