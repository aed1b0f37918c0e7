package normalize

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

var errBadDuration = errors.New("not an ISO-8601 duration")

// itineraryDuration is the designator order Amadeus emits: days, then a
// time part with hours, minutes and seconds, each at most once.
var itineraryDuration = regexp.MustCompile(`^P(\d+D)?(T(\d+H)?(\d+M)?(\d+S)?)?$`)

// parseISODuration parses itinerary durations such as "PT14H35M" or
// "P1DT2H".
func parseISODuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "P" || strings.HasSuffix(s, "T") || !itineraryDuration.MatchString(s) {
		return 0, errBadDuration
	}

	d, err := duration.Parse(s)
	if err != nil {
		return 0, errors.Join(errBadDuration, err)
	}
	return d.ToTimeDuration(), nil
}
