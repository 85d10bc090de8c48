package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix_ParsesKnownNames(t *testing.T) {
	m, err := NewMatrix(map[string][]string{
		"users":   {"read", "update"},
		"tickets": {"view"},
		"logs":    {},
	})
	require.NoError(t, err)

	assert.True(t, m.Allows(ResourceUsers, ActionRead))
	assert.True(t, m.Allows(ResourceUsers, ActionUpdate))
	assert.False(t, m.Allows(ResourceUsers, ActionDelete))
	assert.True(t, m.Allows(ResourceTickets, ActionRead))
	_, hasLogs := m[ResourceLogs]
	assert.False(t, hasLogs)
}

func TestNewMatrix_RejectsUnknownKeys(t *testing.T) {
	_, err := NewMatrix(map[string][]string{"reports": {"read"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewMatrix(map[string][]string{"users": {"impersonate"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSalvageMatrix_KeepsKnownEntries(t *testing.T) {
	m, dropped := SalvageMatrix(map[string][]string{
		"knowledge_base": {"view"},
		"users":          {"read", "impersonate"},
		"tickets":        {"create"},
	})
	assert.True(t, dropped)
	assert.True(t, m.Equal(Matrix{
		ResourceUsers:   Grant(ActionRead),
		ResourceTickets: Grant(ActionCreate),
	}))

	m, dropped = SalvageMatrix(map[string][]string{"users": {"read"}})
	assert.False(t, dropped)
	assert.True(t, m.Allows(ResourceUsers, ActionRead))
}

func TestMatrix_EqualIgnoresEmptyEntries(t *testing.T) {
	a := Matrix{ResourceUsers: Grant(ActionRead)}
	b := Matrix{ResourceUsers: Grant(ActionRead), ResourceLogs: 0}
	assert.True(t, a.Equal(b))
	assert.True(t, Matrix(nil).Equal(Matrix{}))
	assert.False(t, a.Equal(Matrix{ResourceUsers: Grant(ActionRead, ActionUpdate)}))
}

func TestMatrix_CloneIsIndependent(t *testing.T) {
	a := Matrix{ResourceUsers: Grant(ActionRead)}
	b := a.Clone()
	b[ResourceUsers] = Grant(ActionDelete)
	assert.True(t, a.Allows(ResourceUsers, ActionRead))
	assert.False(t, a.Allows(ResourceUsers, ActionDelete))
}

func TestMatrix_JSONUsesActionNames(t *testing.T) {
	m := Matrix{ResourceChats: Grant(ActionAssign, ActionRead)}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chats":["read","assign"]}`, string(data))

	var bad Matrix
	err = json.Unmarshal([]byte(`{"chats":["fly"]}`), &bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestActions_HasZeroIsFalse(t *testing.T) {
	assert.False(t, AllActions.Has(0))
	assert.True(t, AllActions.Has(ActionSystem))
	assert.Len(t, AllActions.Names(), 9)
}

func TestUser_Live(t *testing.T) {
	assert.True(t, User{Status: UserStatusInactive}.Live())
	assert.False(t, User{Status: UserStatusDeleted}.Live())
	assert.False(t, User{Status: UserStatusActive, IsDeleted: true}.Live())
}
