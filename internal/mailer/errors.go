package mailer

import (
	"errors"
	"fmt"
)

// Sentinel failure kinds for delivery attempts. Callers distinguish them
// with errors.Is: a not-configured provider is an operator problem, a
// rejected or unreachable provider is a remote-dependency problem, and a
// validation failure never reached the network at all.
var (
	ErrNotConfigured    = errors.New("provider not configured")
	ErrRejected         = errors.New("provider rejected message")
	ErrUnreachable      = errors.New("provider unreachable")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrMissingSubject   = errors.New("missing subject")
)

// DeliveryError is a provider-qualified delivery failure.
type DeliveryError struct {
	Provider string
	Kind     error // one of the sentinel errors above
	Detail   string
}

func (e *DeliveryError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Detail)
}

func (e *DeliveryError) Unwrap() error {
	return e.Kind
}

func newDeliveryError(provider string, kind error, detail string) *DeliveryError {
	return &DeliveryError{Provider: provider, Kind: kind, Detail: detail}
}
