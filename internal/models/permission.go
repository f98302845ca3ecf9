package models

// Capability is one of the two flags carried by a grant.
type Capability string

const (
	CapabilityRead  Capability = "read"
	CapabilityWrite Capability = "write"
)

func (c Capability) Valid() bool {
	return c == CapabilityRead || c == CapabilityWrite
}

type PermissionGrant struct {
	Username  string `json:"username"`
	TableName string `json:"table_name"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
}

func (g PermissionGrant) Allows(c Capability) bool {
	switch c {
	case CapabilityRead:
		return g.CanRead
	case CapabilityWrite:
		return g.CanWrite
	}
	return false
}
