package notify

import (
	"context"
	"errors"
	"strings"
)

// Sink delivers a formatted alert message. Implementations must be safe for
// concurrent use.
type Sink interface {
	Name() string
	Send(ctx context.Context, message string) error
}

// ErrDelivery is matched by every *DeliveryError.
var ErrDelivery = errors.New("alert delivery failed")

type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return "deliver via " + e.Sink + ": " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// Multi sends to every sink in order. One failing sink does not stop the
// others.
type Multi []Sink

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, s := range m {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

func (m Multi) Send(ctx context.Context, message string) error {
	var failed []string
	var errs []error

	for _, s := range m {
		if err := s.Send(ctx, message); err != nil {
			failed = append(failed, s.Name())
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &DeliveryError{
		Sink: strings.Join(failed, ","),
		Err:  errors.Join(errs...),
	}
}
