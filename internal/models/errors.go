package models

import "errors"

// ErrInvalidSpecification is matched by every trip validation failure.
var ErrInvalidSpecification = errors.New("invalid trip specification")

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidSpecification
}

const (
	ErrNoOrigins             ValidationError = "at least one origin is required"
	ErrEmptyOrigin           ValidationError = "origin code must not be empty"
	ErrDuplicateOrigin       ValidationError = "duplicate origin"
	ErrOriginIsDestination   ValidationError = "origin equals destination"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrMissingOutboundWindow ValidationError = "outbound window is required"
	ErrMissingReturnWindow   ValidationError = "return window is required"
	ErrInvertedWindow        ValidationError = "window start is after its end"
	ErrReturnBeforeOutbound  ValidationError = "return window starts before outbound window"
	ErrNegativeAdults        ValidationError = "adults must not be negative"
	ErrNoTravellers          ValidationError = "at least one traveller is required"
	ErrChildAge              ValidationError = "child age must be between 0 and 17"
	ErrNegativeStops         ValidationError = "max_stops must not be negative"
	ErrNonPositiveDuration   ValidationError = "max_duration_hours must be positive"
	ErrNegativeThreshold     ValidationError = "price_threshold must not be negative"
	ErrMissingCurrency       ValidationError = "currency is required"
	ErrTooManyQueries        ValidationError = "expansion exceeds the query limit"
)
