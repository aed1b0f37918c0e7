package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"

	MaxChildAge = 17
)

// TripSpecification is the read-only description of one watch: where from,
// where to, when, who travels and which offers are acceptable.
type TripSpecification struct {
	Origins        []string
	Destination    string
	Outbound       DateWindow
	Return         DateWindow
	Passengers     Passengers
	MaxStops       int
	MaxDuration    time.Duration
	DepartureAfter *DeparturePreference
	PriceThreshold *decimal.Decimal
	Currency       string
}

// DateWindow is an inclusive range of calendar dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

func NewDateWindow(start, end string) (DateWindow, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateWindow{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateWindow{}, err
	}
	return DateWindow{Start: s, End: e}, nil
}

// Dates returns every date of the window in chronological order.
// An inverted window yields nil.
func (w DateWindow) Dates() []time.Time {
	if w.End.Before(w.Start) {
		return nil
	}
	var dates []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (w DateWindow) Inverted() bool {
	return w.Start.After(w.End)
}

func (w DateWindow) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

// ParseDate parses an ISO calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

type Passengers struct {
	Adults    int
	ChildAges []int
}

func (p Passengers) Total() int {
	return p.Adults + len(p.ChildAges)
}

func (p Passengers) String() string {
	parts := []string{plural(p.Adults, "adult")}
	if n := len(p.ChildAges); n > 0 {
		parts = append(parts, plural(n, "child"))
	}
	return strings.Join(parts, " + ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	if noun == "child" {
		return fmt.Sprintf("%d children", n)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// DeparturePreference requires the outbound departure to be at or after
// After, only for origins flagged in Origins. Soft lets a tuple fall back to
// early departures when nothing else qualifies.
type DeparturePreference struct {
	After   TimeOfDay
	Origins map[string]bool
	Soft    bool
}

// EnabledFor reports whether the preference applies to origin.
func (p *DeparturePreference) EnabledFor(origin string) bool {
	if p == nil {
		return false
	}
	return p.Origins[strings.ToUpper(origin)]
}

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDayOf(t), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Validate checks every invariant the expander relies on. All violations
// are ValidationErrors and therefore match ErrInvalidSpecification.
func (s *TripSpecification) Validate() error {
	if len(s.Origins) == 0 {
		return ErrNoOrigins
	}
	if strings.TrimSpace(s.Destination) == "" {
		return ErrMissingDestination
	}

	seen := make(map[string]bool, len(s.Origins))
	for _, o := range s.Origins {
		code := strings.ToUpper(strings.TrimSpace(o))
		if code == "" {
			return ErrEmptyOrigin
		}
		if seen[code] {
			return fmt.Errorf("%w: %s", ErrDuplicateOrigin, code)
		}
		if strings.EqualFold(code, s.Destination) {
			return fmt.Errorf("%w: %s", ErrOriginIsDestination, code)
		}
		seen[code] = true
	}

	if s.Outbound.Start.IsZero() || s.Outbound.End.IsZero() {
		return ErrMissingOutboundWindow
	}
	if s.Return.Start.IsZero() || s.Return.End.IsZero() {
		return ErrMissingReturnWindow
	}
	if s.Outbound.Inverted() {
		return fmt.Errorf("%w: outbound %s", ErrInvertedWindow, s.Outbound)
	}
	if s.Return.Inverted() {
		return fmt.Errorf("%w: return %s", ErrInvertedWindow, s.Return)
	}
	if s.Return.Start.Before(s.Outbound.Start) {
		return ErrReturnBeforeOutbound
	}

	if s.Passengers.Adults < 0 {
		return ErrNegativeAdults
	}
	if s.Passengers.Total() == 0 {
		return ErrNoTravellers
	}
	for _, age := range s.Passengers.ChildAges {
		if age < 0 || age > MaxChildAge {
			return fmt.Errorf("%w: %d", ErrChildAge, age)
		}
	}

	if s.MaxStops < 0 {
		return ErrNegativeStops
	}
	if s.MaxDuration <= 0 {
		return ErrNonPositiveDuration
	}
	if s.PriceThreshold != nil && s.PriceThreshold.IsNegative() {
		return ErrNegativeThreshold
	}
	if strings.TrimSpace(s.Currency) == "" {
		return ErrMissingCurrency
	}
	return nil
}
