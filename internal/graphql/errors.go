package graphql

import (
	"fmt"
	"strings"
)

// AuthenticationError reports a failed login exchange: the credential
// endpoint rejected the credentials or did not issue a session cookie.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("graphql: authentication failed: %s", e.Detail)
}

// ConnectivityError wraps a network or transport failure, including a
// per-request timeout.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("graphql: %s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// OperationError reports a query or mutation the remote API rejected, either
// as a non-2xx HTTP status or as entries in the GraphQL errors array.
type OperationError struct {
	// Status is the HTTP status code, or zero when the request succeeded
	// at the HTTP level but returned GraphQL errors.
	Status   int
	Messages []string
}

func (e *OperationError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("graphql: %s", strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("graphql: unexpected HTTP status %d", e.Status)
}

// authShaped reports whether the operation failure looks like a rejected or
// stale session. The server does not report session validity, so an HTTP
// 401/403 on an otherwise locally-valid session is the only expiry signal.
func (e *OperationError) authShaped() bool {
	return e.Status == 401 || e.Status == 403
}
