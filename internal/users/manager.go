package users

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zilgopy/exa-mcp/internal/graphql"
)

// Compile-time interface check.
var _ UserManager = (*GraphQLUserManager)(nil)

// GraphQLUserManager implements UserManager using a GraphQL client.
type GraphQLUserManager struct {
	client graphql.Client
}

// NewGraphQLUserManager returns a new GraphQLUserManager backed by the
// provided GraphQL client.
func NewGraphQLUserManager(client graphql.Client) *GraphQLUserManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLUserManager{client: client}
}

const listUsersQuery = `query {
  user {
    list {
      id
      name
    }
  }
}`

const deleteUserMutation = `mutation DeleteUser($name: String!) {
  user {
    destroy(name: $name)
  }
}`

// listResponse is the JSON wrapper for a user list query response.
type listResponse struct {
	User struct {
		List []User `json:"list"`
	} `json:"user"`
}

// List fetches all appliance users.
func (m *GraphQLUserManager) List(ctx context.Context) ([]User, error) {
	data, err := m.client.Execute(ctx, listUsersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("users list: %w", err)
	}

	var resp listResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("users list: parse response: %w", err)
	}

	return resp.User.List, nil
}

// destroyResponse is the JSON wrapper for a user destroy mutation response.
type destroyResponse struct {
	User struct {
		Destroy bool `json:"destroy"`
	} `json:"user"`
}

// Delete removes the named user. Unlike tenant mutations, user destruction
// is synchronous on the appliance and reports success as a plain boolean.
func (m *GraphQLUserManager) Delete(ctx context.Context, name string) (bool, error) {
	data, err := m.client.Execute(ctx, deleteUserMutation, map[string]any{"name": name})
	if err != nil {
		return false, fmt.Errorf("users delete: %w", err)
	}

	var resp destroyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, fmt.Errorf("users delete: parse response: %w", err)
	}

	return resp.User.Destroy, nil
}
