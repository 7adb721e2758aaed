package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Rank(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleCore))
	assert.True(t, RoleCore.AtLeast(RoleCore))
	assert.False(t, RoleEmployee.AtLeast(RoleCore))
	assert.False(t, RoleIntern.AtLeast(RoleEmployee))
	assert.False(t, Role("guest").AtLeast(RoleIntern))
	assert.False(t, Role("").Valid())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestSession_Credential(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	s := Session{ID: "s1", Token: "tok", RefreshToken: "ref", UserID: "u1", Email: "a@b.c", ExpiresAt: exp}

	cred := s.Credential()
	assert.Equal(t, "u1", cred.Identity.ID)
	assert.Equal(t, "a@b.c", cred.Identity.Email)
	assert.Equal(t, "tok", cred.Token)
	assert.Equal(t, "ref", cred.RefreshToken)
	assert.False(t, s.HasProfile())

	s.Role = RoleIntern
	assert.True(t, s.HasProfile())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to LoginState
		ok       bool
	}{
		{StateAnonymous, StateAuthenticating, true},
		{StateAuthenticating, StateAuthenticated, true},
		{StateAuthenticating, StateRepairing, true},
		{StateAuthenticating, StateFailed, true},
		{StateRepairing, StateAuthenticated, true},
		{StateRepairing, StateFailed, true},
		{StateAuthenticated, StateAnonymous, true},
		{StateAnonymous, StateAuthenticated, false},
		{StateAnonymous, StateRepairing, false},
		{StateRepairing, StateRepairing, false},
		{StateAuthenticated, StateRepairing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
			err := Transition{From: tt.from, To: tt.to}.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
