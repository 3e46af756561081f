package tenants

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zilgopy/exa-mcp/internal/graphql"
)

// Compile-time interface check.
var _ TenantManager = (*GraphQLTenantManager)(nil)

// GraphQLTenantManager implements TenantManager using a GraphQL client.
type GraphQLTenantManager struct {
	client graphql.Client
}

// NewGraphQLTenantManager returns a new GraphQLTenantManager backed by the
// provided GraphQL client.
func NewGraphQLTenantManager(client graphql.Client) *GraphQLTenantManager {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &GraphQLTenantManager{client: client}
}

const listTenantsQuery = `query {
  tenant {
    list(refresh: true) {
      name
      fileset {
        path
        readonly
      }
      idOffset
      nids {
        startNid
        endNid
      }
    }
  }
}`

const listQuotaQuery = `query {
  quota {
    list {
      id
      quotas {
        projids {
          kbytes {
            id
            quota {
              hard
              soft
              granted
            }
          }
          inodes {
            id
            quota {
              hard
              soft
              granted
            }
          }
        }
      }
    }
  }
}`

const createTenantMutation = `mutation CreateTenant($name: String!, $nids: [String!], $quota: SetQuotaLimit) {
  tenant {
    create(action: execute, name: $name, nids: $nids, quota: $quota) {
      ... on Command { id }
    }
  }
}`

const destroyTenantMutation = `mutation DestroyTenant($name: String!) {
  tenant {
    destroy(action: execute, name: $name, destroyData: false) {
      ... on Command { id }
    }
  }
}`

const setQuotaMutation = `mutation ChangeQuota($name: String!, $quota: SetQuotaLimit!) {
  tenant {
    setQuota(action: execute, name: $name, quota: $quota) {
      ... on Command { id }
    }
  }
}`

const addNidsMutation = `mutation AddNids($name: String!, $nids: [String!]!) {
  tenant {
    addNids(action: execute, name: $name, nids: $nids) {
      ... on Command { id }
    }
  }
}`

const removeNidsMutation = `mutation RemoveNids($name: String!, $nids: [String!]!) {
  tenant {
    removeNids(action: execute, name: $name, nids: $nids) {
      ... on Command { id }
    }
  }
}`

// tenantListResponse is the JSON wrapper for a tenant list query response.
type tenantListResponse struct {
	Tenant struct {
		List []Tenant `json:"list"`
	} `json:"tenant"`
}

// quotaListResponse is the JSON wrapper for a quota list query response. The
// per-project sub-records are keyed by the tenant's idOffset.
type quotaListResponse struct {
	Quota struct {
		List []struct {
			ID     int `json:"id"`
			Quotas struct {
				Projids struct {
					Kbytes []projectQuota `json:"kbytes"`
					Inodes []projectQuota `json:"inodes"`
				} `json:"projids"`
			} `json:"quotas"`
		} `json:"list"`
	} `json:"quota"`
}

// projectQuota is one per-project quota sub-record.
type projectQuota struct {
	ID    int `json:"id"`
	Quota struct {
		Hard    int64 `json:"hard"`
		Soft    int64 `json:"soft"`
		Granted int64 `json:"granted"`
	} `json:"quota"`
}

// List fetches all tenants and joins each with its quota. Every tenant from
// the tenant listing appears exactly once in the result; quota fields are
// populated only when a quota-list sub-record matches the tenant's idOffset,
// and the kbyte and inode sides are applied independently. Tenants with no
// matching entry keep the all-zero Quota default.
func (m *GraphQLTenantManager) List(ctx context.Context) ([]Tenant, error) {
	data, err := m.client.Execute(ctx, listTenantsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("tenants list: %w", err)
	}

	var tenantResp tenantListResponse
	if err := json.Unmarshal(data, &tenantResp); err != nil {
		return nil, fmt.Errorf("tenants list: parse response: %w", err)
	}
	list := tenantResp.Tenant.List

	quotas := make(map[int]*Quota, len(list))
	for _, t := range list {
		quotas[t.IDOffset] = &Quota{}
	}

	data, err = m.client.Execute(ctx, listQuotaQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("tenants list: fetch quota: %w", err)
	}

	var quotaResp quotaListResponse
	if err := json.Unmarshal(data, &quotaResp); err != nil {
		return nil, fmt.Errorf("tenants list: parse quota response: %w", err)
	}

	for _, entry := range quotaResp.Quota.List {
		for _, p := range entry.Quotas.Projids.Kbytes {
			if q, ok := quotas[p.ID]; ok {
				q.KbyteHard = p.Quota.Hard
				q.KbyteSoft = p.Quota.Soft
				q.KbyteUsed = p.Quota.Granted
			}
		}
		for _, p := range entry.Quotas.Projids.Inodes {
			if q, ok := quotas[p.ID]; ok {
				q.InodeHard = p.Quota.Hard
				q.InodeSoft = p.Quota.Soft
				q.InodeUsed = p.Quota.Granted
			}
		}
	}

	for i := range list {
		list[i].Quota = *quotas[list[i].IDOffset]
	}

	return list, nil
}

// commandResponse extracts the command id from a tenant mutation response,
// whatever the mutation field is named.
type commandResponse struct {
	Tenant map[string]struct {
		ID int `json:"id"`
	} `json:"tenant"`
}

// runCommand executes a tenant mutation and returns the id of the
// server-side command it created.
func (m *GraphQLTenantManager) runCommand(ctx context.Context, op, mutation string, vars map[string]any) (int, error) {
	data, err := m.client.Execute(ctx, mutation, vars)
	if err != nil {
		return 0, fmt.Errorf("tenants %s: %w", op, err)
	}

	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("tenants %s: parse response: %w", op, err)
	}

	cmd, ok := resp.Tenant[op]
	if !ok {
		return 0, fmt.Errorf("tenants %s: no command id in response", op)
	}
	return cmd.ID, nil
}

// Create starts creation of a new tenant with optional NIDs and quota limits.
func (m *GraphQLTenantManager) Create(ctx context.Context, name string, nids []string, quota QuotaLimits) (int, error) {
	if nids == nil {
		nids = []string{}
	}
	return m.runCommand(ctx, "create", createTenantMutation, map[string]any{
		"name":  name,
		"nids":  nids,
		"quota": quota.vars(),
	})
}

// Destroy starts destruction of the named tenant. The tenant's data is
// retained (destroyData is always false).
func (m *GraphQLTenantManager) Destroy(ctx context.Context, name string) (int, error) {
	return m.runCommand(ctx, "destroy", destroyTenantMutation, map[string]any{
		"name": name,
	})
}

// SetQuota starts a quota change for the named tenant.
func (m *GraphQLTenantManager) SetQuota(ctx context.Context, name string, quota QuotaLimits) (int, error) {
	return m.runCommand(ctx, "setQuota", setQuotaMutation, map[string]any{
		"name":  name,
		"quota": quota.vars(),
	})
}

// AddNids starts adding the given NIDs or NID ranges to the named tenant.
func (m *GraphQLTenantManager) AddNids(ctx context.Context, name string, nids []string) (int, error) {
	return m.runCommand(ctx, "addNids", addNidsMutation, map[string]any{
		"name": name,
		"nids": nids,
	})
}

// RemoveNids starts removing the given NIDs or NID ranges from the named tenant.
func (m *GraphQLTenantManager) RemoveNids(ctx context.Context, name string, nids []string) (int, error) {
	return m.runCommand(ctx, "removeNids", removeNidsMutation, map[string]any{
		"name": name,
		"nids": nids,
	})
}
