package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/admin-console/internal/domain/auth"
)

func TestDemoUsers_Login(t *testing.T) {
	d := NewDemoUsers()

	res, err := d.Login("intern@spaceborn.io", "intern123")
	require.NoError(t, err)
	assert.Equal(t, 3, res.User.ID)
	assert.Equal(t, domainauth.RoleIntern, res.User.Role)

	id, email, role, err := DecodeDemoToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, "intern@spaceborn.io", email)
	assert.Equal(t, domainauth.RoleIntern, role)

	_, err = d.Login("intern@spaceborn.io", "wrong")
	assert.ErrorIs(t, err, ErrDemoInvalidCredentials)
}

func TestDemoUsers_Register(t *testing.T) {
	d := NewDemoUsers()

	u, err := d.Register(DemoRegisterRequest{Username: "lyra", Email: "lyra@spaceborn.io", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 4, u.ID)
	assert.Equal(t, domainauth.RoleEmployee, u.Role)

	_, err = d.Register(DemoRegisterRequest{Email: "admin@spaceborn.io"})
	assert.ErrorIs(t, err, ErrDemoUserExists)

	next, err := d.Register(DemoRegisterRequest{Username: "vega", Email: "vega@spaceborn.io", Role: domainauth.RoleCore})
	require.NoError(t, err)
	assert.Equal(t, 5, next.ID)
	assert.Equal(t, domainauth.RoleCore, next.Role)
}
