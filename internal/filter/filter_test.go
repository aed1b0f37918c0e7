package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

func spec() *models.TripSpecification {
	return &models.TripSpecification{
		Origins:     []string{"AMS", "EIN"},
		Destination: "LIS",
		MaxStops:    1,
		MaxDuration: 20 * time.Hour,
		Currency:    "EUR",
		DepartureAfter: &models.DeparturePreference{
			After:   18 * 60,
			Origins: map[string]bool{"AMS": true, "EIN": false},
		},
	}
}

func offer(origin string) models.FlightOffer {
	return models.FlightOffer{
		Origin:            origin,
		Destination:       "LIS",
		Price:             models.Money{Amount: decimal.NewFromInt(420), Currency: "EUR"},
		Stops:             models.Stops{Outbound: 1, Return: 1},
		OutboundDuration:  20 * time.Hour,
		ReturnDuration:    6 * time.Hour,
		DepartureOutbound: 18 * 60,
	}
}

func TestPasses(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.FlightOffer)
		want   Verdict
	}{
		{"at every limit", func(o *models.FlightOffer) {}, Verdict{Pass: true}},
		{"currency case-insensitive", func(o *models.FlightOffer) { o.Price.Currency = "eur" }, Verdict{Pass: true}},
		{"other currency", func(o *models.FlightOffer) { o.Price.Currency = "USD" }, Verdict{Reason: ReasonCurrencyMismatch}},
		{"outbound stops", func(o *models.FlightOffer) { o.Stops.Outbound = 2 }, Verdict{Reason: ReasonTooManyStops}},
		{"return stops", func(o *models.FlightOffer) { o.Stops.Return = 2 }, Verdict{Reason: ReasonTooManyStops}},
		{"outbound too long", func(o *models.FlightOffer) { o.OutboundDuration = 20*time.Hour + time.Minute }, Verdict{Reason: ReasonTooLong}},
		{"return too long", func(o *models.FlightOffer) { o.ReturnDuration = 21 * time.Hour }, Verdict{Reason: ReasonTooLong}},
		{"departs too early", func(o *models.FlightOffer) { o.DepartureOutbound = 17*60 + 59 }, Verdict{Reason: ReasonDepartsTooEarly}},
		{"stops checked before departure", func(o *models.FlightOffer) {
			o.Stops.Outbound = 3
			o.DepartureOutbound = 5 * 60
		}, Verdict{Reason: ReasonTooManyStops}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := offer("AMS")
			tt.mutate(&o)
			assert.Equal(t, tt.want, Passes(o, spec()))
		})
	}
}

func TestPasses_DepartureDisabledForOrigin(t *testing.T) {
	o := offer("EIN")
	o.DepartureOutbound = 5 * 60

	assert.True(t, Passes(o, spec()).Pass)
}

func TestPasses_DepartureUnlistedOrigin(t *testing.T) {
	o := offer("BRU")
	o.DepartureOutbound = 5 * 60

	assert.True(t, Passes(o, spec()).Pass)
}

func TestPasses_NoDeparturePreference(t *testing.T) {
	s := spec()
	s.DepartureAfter = nil
	o := offer("AMS")
	o.DepartureOutbound = 5 * 60

	assert.True(t, Passes(o, s).Pass)
}

func TestPasses_Pure(t *testing.T) {
	o := offer("AMS")
	o.DepartureOutbound = 6 * 60
	s := spec()

	first := Passes(o, s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Passes(o, s))
	}
}

func TestApply(t *testing.T) {
	early := offer("AMS")
	early.DepartureOutbound = 7 * 60
	long := offer("AMS")
	long.ReturnDuration = 30 * time.Hour
	ok1 := offer("AMS")
	ok1.ID = "ok1"
	ok2 := offer("AMS")
	ok2.ID = "ok2"

	r := Apply([]models.FlightOffer{early, ok1, long, ok2}, spec())

	assert.Equal(t, []string{"ok1", "ok2"}, []string{r.Passed[0].ID, r.Passed[1].ID})
	assert.Len(t, r.DepartsEarly, 1)
	assert.Equal(t, map[Reason]int{ReasonDepartsTooEarly: 1, ReasonTooLong: 1}, r.Rejected)
}

func TestResult_Candidates(t *testing.T) {
	early := offer("AMS")
	early.DepartureOutbound = 7 * 60
	r := Apply([]models.FlightOffer{early}, spec())

	strict := spec()
	got, fellBack := r.Candidates(strict)
	assert.Empty(t, got)
	assert.False(t, fellBack)

	soft := spec()
	soft.DepartureAfter.Soft = true
	got, fellBack = r.Candidates(soft)
	assert.Len(t, got, 1)
	assert.True(t, fellBack)

	passing := Apply([]models.FlightOffer{offer("AMS"), early}, soft)
	got, fellBack = passing.Candidates(soft)
	assert.Len(t, got, 1)
	assert.False(t, fellBack)
}
