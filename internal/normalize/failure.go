package normalize

import "errors"

// ErrNormalization is matched by every *Failure.
var ErrNormalization = errors.New("offer normalization failed")

type Reason string

const (
	ReasonMalformedPayload     Reason = "malformed_payload"
	ReasonMissingPrice         Reason = "missing_price"
	ReasonInvalidPrice         Reason = "invalid_price"
	ReasonNegativePrice        Reason = "negative_price"
	ReasonMissingCurrency      Reason = "missing_currency"
	ReasonMissingItinerary     Reason = "missing_itinerary"
	ReasonMissingSegments      Reason = "missing_segments"
	ReasonMissingDuration      Reason = "missing_duration"
	ReasonInvalidDuration      Reason = "invalid_duration"
	ReasonMissingDepartureTime Reason = "missing_departure_time"
	ReasonInvalidDepartureTime Reason = "invalid_departure_time"
)

// Failure explains why one raw offer was dropped.
type Failure struct {
	Reason Reason
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return "normalize: " + string(f.Reason)
	}
	return "normalize: " + string(f.Reason) + ": " + f.Detail
}

func (f *Failure) Is(target error) bool {
	return target == ErrNormalization
}

func fail(reason Reason, detail string) *Failure {
	return &Failure{Reason: reason, Detail: detail}
}

// ReasonOf extracts the failure reason from err, or "" if err is not a Failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
