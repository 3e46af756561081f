// Package alerts surfaces appliance alert history via the management
// GraphQL API.
package alerts

import "context"

// Alert is a single appliance alert record.
type Alert struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

// AlertManager defines the interface for alert queries.
type AlertManager interface {
	RecentErrors(ctx context.Context, number int) ([]Alert, error)
}
