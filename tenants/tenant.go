package tenants

// Tenant is one organisation the signed-in user has connected. The list is
// issued by the identity platform on each authentication and is not edited
// locally.
type Tenant struct {
	ID           string `json:"tenantId"`   // Opaque tenant identifier sent with every API call
	Name         string `json:"tenantName"` // Display name
	Type         string `json:"tenantType"` // e.g. ORGANISATION
	ConnectionID string `json:"id"`         // Connection record that authorised the tenant
}

// Find returns the tenant with the given id.
func Find(list []Tenant, id string) (Tenant, bool) {
	for _, t := range list {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}

// Resolve maps tenant ids to descriptors, keeping order and duplicates. Ids the
// session does not know keep an empty name.
func Resolve(known []Tenant, ids []string) []Tenant {
	resolved := make([]Tenant, 0, len(ids))
	for _, id := range ids {
		t, ok := Find(known, id)
		if !ok {
			t = Tenant{ID: id}
		}
		resolved = append(resolved, t)
	}
	return resolved
}

// DisplayName falls back to the id when the platform gave no name.
func (t Tenant) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
