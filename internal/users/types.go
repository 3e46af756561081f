// Package users provides user administration for the EXAScaler appliance via
// the management GraphQL API.
package users

import "context"

// User is a single appliance user account.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UserManager defines the interface for user operations.
type UserManager interface {
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, name string) (bool, error)
}
