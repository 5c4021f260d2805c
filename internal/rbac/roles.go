package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin     = "admin"
	RoleScheduler = "scheduler" // may place booking calls
	RoleAnalyst   = "analyst"   // read-only records and reports
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role is one this service knows.
func Valid(role string) bool {
	switch role {
	case RoleAdmin, RoleScheduler, RoleAnalyst:
		return true
	default:
		return false
	}
}
