// Package tenant maps tenant identifiers to vector index collections.
package tenant

// Resolver derives the per-tenant collection name.
//
// The mapping is pure and total: any non-empty tenant ID maps to exactly one
// collection name, and a tenant that has never been provisioned simply maps
// to a collection that does not exist yet. Tenant isolation in this service
// is collection naming and nothing more.
type Resolver struct {
	prefix string
}

// NewResolver creates a resolver with the configured collection prefix.
func NewResolver(prefix string) *Resolver {
	return &Resolver{prefix: prefix}
}

// Collection returns the collection name for the given tenant.
func (r *Resolver) Collection(tenantID string) string {
	return r.prefix + tenantID
}
