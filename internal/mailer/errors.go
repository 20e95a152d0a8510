package mailer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is returned before any work begins when the mailer
// settings are missing or invalid.
var ErrConfiguration = errors.New("mailer settings need to be configured")

// TransportError is a failed provider call for one recipient.
type TransportError struct {
	Recipient string
	Provider  string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s via %s: %v", e.Recipient, e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FanoutError reports the recipients of the primary message whose provider
// call failed. Copies delivered to the other recipients are not retracted.
type FanoutError struct {
	Attempted int
	Errors    []*TransportError
}

func (e *FanoutError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d of %d recipients failed: %s", len(e.Errors), e.Attempted, strings.Join(msgs, "; "))
}

// Unwrap exposes every TransportError to errors.Is and errors.As.
func (e *FanoutError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Total reports whether every attempted recipient failed.
func (e *FanoutError) Total() bool {
	return e.Attempted > 0 && len(e.Errors) == e.Attempted
}

// Recipients returns the failed addresses in send order.
func (e *FanoutError) Recipients() []string {
	out := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err.Recipient)
	}
	return out
}
