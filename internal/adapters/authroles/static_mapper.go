package authroles

import (
	"strings"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/ports"
)

// EmailRoleMapper assigns the initial role of a new account from configured email lists.
// Admin membership wins over editor membership; everyone else starts as user.
type EmailRoleMapper struct {
	admins  map[string]struct{}
	editors map[string]struct{}
}

var _ ports.RoleMapper = EmailRoleMapper{}

// NewEmailRoleMapper builds a mapper. Emails are matched case-insensitively.
func NewEmailRoleMapper(admins, editors []string) EmailRoleMapper {
	return EmailRoleMapper{admins: toSet(admins), editors: toSet(editors)}
}

func (m EmailRoleMapper) Map(email string) domainauth.Role {
	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := m.admins[key]; ok {
		return domainauth.RoleAdmin
	}
	if _, ok := m.editors[key]; ok {
		return domainauth.RoleEditor
	}
	return domainauth.RoleUser
}

func toSet(emails []string) map[string]struct{} {
	out := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}
