package auth

import (
	"fmt"

	"github.com/kivu-bank/kivu_kyc/internal/apperror"
)

// Role is a coarse access level carried as a token authority.
type Role int

const (
	RoleApplicant Role = iota
	RoleReviewer
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleApplicant: "ROLE_APPLICANT",
	RoleReviewer:  "ROLE_REVIEWER",
	RoleAdmin:     "ROLE_ADMIN",
}

var rolesByName map[string]Role

func init() {
	rolesByName = make(map[string]Role, len(roleNames))
	for role, name := range roleNames {
		if _, dup := rolesByName[name]; dup {
			panic(fmt.Sprintf("auth: duplicate role name %q", name))
		}
		rolesByName[name] = role
	}
}

// String returns the wire name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ROLE_UNKNOWN(%d)", int(r))
}

// RoleFromName resolves a wire name back to a role.
func RoleFromName(name string) (Role, error) {
	role, ok := rolesByName[name]
	if !ok {
		return 0, apperror.Newf(apperror.KindValidation, "unknown role %q", name)
	}
	return role, nil
}
