package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RawOffer is one source payload, kept opaque once normalized.
type RawOffer = json.RawMessage

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type Stops struct {
	Outbound int `json:"outbound"`
	Return   int `json:"return"`
}

func (s Stops) Total() int {
	return s.Outbound + s.Return
}

// FlightOffer is a round-trip offer in canonical form.
type FlightOffer struct {
	ID                string        `json:"id"`
	Origin            string        `json:"origin"`
	Destination       string        `json:"destination"`
	Outbound          time.Time     `json:"outbound_date"`
	Return            time.Time     `json:"return_date"`
	Price             Money         `json:"price"`
	Stops             Stops         `json:"stops"`
	OutboundDuration  time.Duration `json:"outbound_duration"`
	ReturnDuration    time.Duration `json:"return_duration"`
	DepartureOutbound TimeOfDay     `json:"departure_outbound"`
	Carriers          []string      `json:"carriers,omitempty"`
	OutboundSegments  []Segment     `json:"outbound_segments,omitempty"`
	ReturnSegments    []Segment     `json:"return_segments,omitempty"`
	Raw               RawOffer      `json:"-"`
}

func (o FlightOffer) TotalDuration() time.Duration {
	return o.OutboundDuration + o.ReturnDuration
}

// Segment is one flight of a leg. Departs and Arrives are local wall-clock
// times and are zero when the source did not report them.
type Segment struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Departs time.Time `json:"departs"`
	Arrives time.Time `json:"arrives"`
	Flight  string    `json:"flight"`
}

// String renders the segment as "AMS 18:35 → MAD 21:05 (IB3251)".
func (s Segment) String() string {
	line := s.From + clock(s.Departs) + " → " + s.To + clock(s.Arrives)
	if s.Flight != "" {
		line += " (" + s.Flight + ")"
	}
	return line
}

func clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return " " + t.Format(TimeOfDayLayout)
}
