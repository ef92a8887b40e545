package domain

// Role is the closed set of staff roles supplied by the authentication
// layer. The ledger core trusts the principal it is handed and applies only
// the authorization predicates below.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agent"
	RoleAccountant Role = "accountant"
	RoleDataEntry  Role = "data_entry"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent, RoleAccountant, RoleDataEntry:
		return true
	}
	return false
}

// Principal is the authenticated caller of a ledger operation.
type Principal struct {
	ID   int64
	Role Role
}

// CanRecordPayment reports whether the role may record payments at all.
// Data-entry staff may manage candidate files but never touch the ledger.
func (r Role) CanRecordPayment() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAccountant, RoleAgent:
		return true
	}
	return false
}

// CanInitiateSession reports whether the role may open a gateway payment
// session. Same set as CanRecordPayment: a session ends in a recorded payment.
func (r Role) CanInitiateSession() bool {
	return r.CanRecordPayment()
}

// CanAccessCandidate reports whether the principal may read or write ledger
// state for the given candidate. Agents are restricted to their own
// candidates; every other valid role has full visibility.
func (p Principal) CanAccessCandidate(c *Candidate) bool {
	if p.Role == RoleAgent {
		return c.AgentID == p.ID
	}
	return ValidRole(p.Role)
}
