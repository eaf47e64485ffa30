package errors

import (
	"errors"
	"fmt"
)

// ErrGateway matches every *GatewayError via errors.Is.
var ErrGateway = errors.New("payment gateway error")

type GatewayErrorKind string

const (
	// GatewayStatus: the gateway answered with a non-200 status.
	GatewayStatus GatewayErrorKind = "status"
	// GatewayMalformed: 200 response whose body lacks expected fields.
	GatewayMalformed GatewayErrorKind = "malformed"
	// GatewayTransport: network failure or timeout, no usable response.
	GatewayTransport GatewayErrorKind = "transport"
)

// GatewayError carries enough of the upstream response to be
// propagated verbatim to the caller.
type GatewayError struct {
	Kind       GatewayErrorKind
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayStatus:
		return fmt.Sprintf("gateway %s: unexpected status %d", e.Op, e.StatusCode)
	case GatewayMalformed:
		return fmt.Sprintf("gateway %s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gateway %s: transport failure: %v", e.Op, e.Err)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// AsGatewayError unwraps err into a *GatewayError if it carries one.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
