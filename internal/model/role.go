package model

const (
	// RoleMember is a job-card holder looking for work
	RoleMember = "member"
	// RoleBusiness is an employer
	RoleBusiness = "business"
	// RoleInstitute is an educational institute referring students
	RoleInstitute = "institute"
	// RoleStaff is platform staff verifying documents
	RoleStaff = "staff"
	// RoleJobMitra is a field agent applying on behalf of members
	RoleJobMitra = "jobmitra"
	// RoleGovernment is read-only oversight
	RoleGovernment = "government"
)

// Roles lists every role an SSO token may carry.
var Roles = []string{RoleMember, RoleBusiness, RoleInstitute, RoleStaff, RoleJobMitra, RoleGovernment}
