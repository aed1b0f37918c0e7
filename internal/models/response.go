package models

import "time"

type RunMetadata struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	DurationMs     int64     `json:"duration_ms"`
	QueriesTotal   int       `json:"queries_total"`
	QueriesMatched int       `json:"queries_matched"`
	QueriesFailed  int       `json:"queries_failed"`
	Alerts         int       `json:"alerts"`
	Delivered      bool      `json:"delivered"`
	DeliveryError  string    `json:"delivery_error,omitempty"`
}

type QueryOutcome struct {
	Query                 QueryTuple     `json:"query"`
	Winner                *FlightOffer   `json:"winner,omitempty"`
	RawOffers             int            `json:"raw_offers"`
	NormalizationFailures map[string]int `json:"normalization_failures,omitempty"`
	Rejections            map[string]int `json:"rejections,omitempty"`
	FellBack              bool           `json:"fell_back,omitempty"`
	Error                 string         `json:"error,omitempty"`
}

type RunResponse struct {
	Metadata RunMetadata    `json:"metadata"`
	Outcomes []QueryOutcome `json:"outcomes"`
}

type QueriesResponse struct {
	Total   int          `json:"total"`
	Queries []QueryTuple `json:"queries"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
