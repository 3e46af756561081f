package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zilgopy/exa-mcp/internal/graphql"
)

// Compile-time interface check.
var _ AlertManager = (*GraphQLAlertManager)(nil)

// GraphQLAlertManager implements AlertManager using a GraphQL client.
type GraphQLAlertManager struct {
	client graphql.Client
}

// NewGraphQLAlertManager returns a new GraphQLAlertManager backed by the
// provided GraphQL client.
func NewGraphQLAlertManager(client graphql.Client) *GraphQLAlertManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLAlertManager{client: client}
}

const recentErrorsQuery = `query($number: Int!) {
  alert {
    list(limit: $number, dir: DESC, severity: Error) {
      data {
        id
        message
      }
    }
  }
}`

// listResponse is the JSON wrapper for an alert list query response.
type listResponse struct {
	Alert struct {
		List struct {
			Data []Alert `json:"data"`
		} `json:"list"`
	} `json:"alert"`
}

// RecentErrors fetches the most recent error-severity alerts, newest first.
func (m *GraphQLAlertManager) RecentErrors(ctx context.Context, number int) ([]Alert, error) {
	if number <= 0 {
		return nil, fmt.Errorf("alerts: number must be positive, got %d", number)
	}

	data, err := m.client.Execute(ctx, recentErrorsQuery, map[string]any{"number": number})
	if err != nil {
		return nil, fmt.Errorf("alerts list: %w", err)
	}

	var resp listResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("alerts list: parse response: %w", err)
	}

	return resp.Alert.List.Data, nil
}
