package schema

// Role identifies the semantic meaning a raw column can be mapped to.
type Role string

const (
	RoleDate     Role = "date"
	RoleProduct  Role = "product"
	RoleCategory Role = "category"
	RoleRegion   Role = "region"
	RoleQuantity Role = "quantity"
	RolePrice    Role = "price"
	RoleRevenue  Role = "revenue"
	RoleRep      Role = "rep"

	// RoleUnitCost is detected during inference but is not part of the
	// session mapping; it only shows up in the detection payload.
	RoleUnitCost Role = "unit_cost"
)

// MappedRoles is the closed set of roles a user can assign, in display order.
var MappedRoles = []Role{
	RoleDate, RoleProduct, RoleCategory, RoleRegion,
	RoleQuantity, RolePrice, RoleRevenue, RoleRep,
}

// FilterRoles are the roles whose distinct values drive membership filters.
var FilterRoles = []Role{RoleCategory, RoleRegion, RoleRep}

// Valid reports whether r is one of the mapped roles.
func (r Role) Valid() bool {
	for _, m := range MappedRoles {
		if r == m {
			return true
		}
	}
	return false
}

// Mapping assigns an original column name to each role. An empty string
// means the role is unset.
type Mapping map[Role]string

// Column returns the column mapped to r, if any.
func (m Mapping) Column(r Role) (string, bool) {
	c, ok := m[r]
	if !ok || c == "" {
		return "", false
	}
	return c, true
}

// Set assigns col to r. An empty col unsets the role.
func (m Mapping) Set(r Role, col string) {
	if col == "" {
		delete(m, r)
		return
	}
	m[r] = col
}

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
