package access

import "therapy-support-go/internal/domain/user"

// Permission names a role-gated capability. Handlers consult Allowed instead
// of scattering role conditionals; the client never decides what it may do.
type Permission string

const (
	PermListAssignedPatients Permission = "patients:list"
	PermListAllPatients      Permission = "patients:list-all"
	PermListTherapists       Permission = "therapists:list"
	PermManageRelationships  Permission = "relationships:manage"
	PermViewPatientRecords   Permission = "patients:records"
)

var rolePermissions = map[string]map[Permission]bool{
	user.RoleTherapist: {
		PermListAssignedPatients: true,
		PermListAllPatients:      true,
		PermManageRelationships:  true,
		PermViewPatientRecords:   true,
	},
	user.RolePatient: {
		PermListTherapists: true,
	},
}

func Allowed(role string, permission Permission) bool {
	return rolePermissions[role][permission]
}
