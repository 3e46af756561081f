// Package tenants provides tenant, quota, and NID management for EXAScaler
// filesystems via the management GraphQL API.
package tenants

import "context"

// NidRange is a contiguous range of network identifiers authorised for a
// tenant. A single NID is represented with StartNid == EndNid.
type NidRange struct {
	StartNid string `json:"startNid"`
	EndNid   string `json:"endNid"`
}

// Fileset describes the filesystem subtree a tenant is confined to.
type Fileset struct {
	Path     string `json:"path"`
	Readonly bool   `json:"readonly"`
}

// Quota holds a tenant's resource ceilings and current usage. All counters
// default to zero; a tenant with no matching quota-list entry keeps the
// zero-valued default.
type Quota struct {
	InodeHard int64 `json:"inodeHard"`
	InodeSoft int64 `json:"inodeSoft"`
	InodeUsed int64 `json:"inodeUsed"`
	KbyteHard int64 `json:"kbyteHard"`
	KbyteSoft int64 `json:"kbyteSoft"`
	KbyteUsed int64 `json:"kbyteUsed"`
}

// Tenant is a logical partition of the storage system with its own fileset,
// quota, and NID access list. IDOffset is the tenant's unique numeric id,
// which also keys its entries in the quota listing.
type Tenant struct {
	Name     string     `json:"name"`
	Fileset  Fileset    `json:"fileset"`
	IDOffset int        `json:"idOffset"`
	Nids     []NidRange `json:"nids"`
	Quota    Quota      `json:"quota"`
}

// QuotaLimits carries the optional limit values for a quota-changing
// mutation. The appliance's SetQuotaLimit input accepts string scalars;
// empty fields are omitted from the mutation variables entirely.
type QuotaLimits struct {
	InodeHard string
	InodeSoft string
	KbyteHard string
	KbyteSoft string
}

// vars returns the mutation variable value for the quota input, containing
// only the fields that were set.
func (q QuotaLimits) vars() map[string]any {
	out := map[string]any{}
	if q.InodeHard != "" {
		out["inodeHard"] = q.InodeHard
	}
	if q.InodeSoft != "" {
		out["inodeSoft"] = q.InodeSoft
	}
	if q.KbyteHard != "" {
		out["kbyteHard"] = q.KbyteHard
	}
	if q.KbyteSoft != "" {
		out["kbyteSoft"] = q.KbyteSoft
	}
	return out
}

// TenantManager defines the interface for tenant operations. Mutations are
// asynchronous on the appliance side: they return the numeric id of the
// server-side command, which callers track to completion through the
// commands package.
type TenantManager interface {
	List(ctx context.Context) ([]Tenant, error)
	Create(ctx context.Context, name string, nids []string, quota QuotaLimits) (int, error)
	Destroy(ctx context.Context, name string) (int, error)
	SetQuota(ctx context.Context, name string, quota QuotaLimits) (int, error)
	AddNids(ctx context.Context, name string, nids []string) (int, error)
	RemoveNids(ctx context.Context, name string, nids []string) (int, error)
}
