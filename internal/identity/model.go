package identity

import "time"

// Role classifies what a user may do: shops issue bills, customers pay them.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleShopOwner Role = "SHOP_OWNER"
	RoleCustomer  Role = "CUSTOMER"
)

// Valid reports whether the role is one of the declared values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleShopOwner, RoleCustomer:
		return true
	default:
		return false
	}
}

// User represents a registered identity.
type User struct {
	ID           string
	Username     string
	Role         Role
	PasswordHash []byte
	CreatedAt    time.Time
}
