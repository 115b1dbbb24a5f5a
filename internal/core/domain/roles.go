package domain

// Actor roles carried in bearer-token claims. Token issuing lives in the
// external auth service; this core only reads the claims.
const (
	RoleAdmin    = "admin"
	RoleAgent    = "agent"
	RoleCustomer = "customer"
)
