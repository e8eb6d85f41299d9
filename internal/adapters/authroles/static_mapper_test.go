package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
)

func TestEmailRoleMapper(t *testing.T) {
	m := NewEmailRoleMapper(
		[]string{"Root@Example.com", " "},
		[]string{"editor@example.com", "root@example.com"},
	)

	assert.Equal(t, domainauth.RoleAdmin, m.Map("root@example.com"))
	assert.Equal(t, domainauth.RoleEditor, m.Map(" EDITOR@example.com"))
	assert.Equal(t, domainauth.RoleUser, m.Map("reader@example.com"))
	assert.Equal(t, domainauth.RoleUser, EmailRoleMapper{}.Map("anyone@example.com"))
}
