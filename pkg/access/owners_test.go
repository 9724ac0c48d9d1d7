package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubestudio/dataset-admin/pkg/access"
)

type record struct {
	owner     string
	createdBy string
}

func (r record) GetOwner() string     { return r.owner }
func (r record) GetCreatedBy() string { return r.createdBy }

func TestParseOwners(t *testing.T) {
	assert.Equal(t, access.Owners{"alice", "*"}, access.ParseOwners("alice, *,alice,"))
	assert.Equal(t, "alice,*", access.ParseOwners(" alice ,*").String())
	assert.Empty(t, access.ParseOwners(""))
}

func TestOwnersContainsIsExactMatch(t *testing.T) {
	owners := access.ParseOwners("alice,bob")

	assert.True(t, owners.Contains("alice"))
	assert.False(t, owners.Contains("al"))
	assert.False(t, owners.Contains(""))
	assert.False(t, owners.IsPublic())
}

func TestCanView(t *testing.T) {
	alice := access.Caller{Username: "alice"}

	scenarios := []struct {
		name     string
		owner    string
		expected bool
	}{
		{name: "owner and public", owner: "alice,*", expected: true},
		{name: "co-owner", owner: "bob,alice", expected: true},
		{name: "public", owner: "*", expected: true},
		{name: "someone else", owner: "bob", expected: false},
		{name: "prefix of another user", owner: "alicea", expected: false},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			assert.Equal(t, scenario.expected, access.CanView(alice, record{owner: scenario.owner}))
		})
	}
}

func TestCanModify(t *testing.T) {
	admin := access.Caller{Username: "root", Roles: []string{"Gamma", "Admin"}}
	alice := access.Caller{Username: "alice", Roles: []string{"gamma"}}
	al := access.Caller{Username: "al"}

	assert.True(t, access.CanModify(admin, record{owner: "bob"}))
	assert.True(t, access.CanModify(alice, record{owner: "bob,alice"}))
	assert.True(t, access.CanModify(alice, record{owner: "bob", createdBy: "alice"}))
	assert.False(t, access.CanModify(alice, record{owner: "*", createdBy: "bob"}))
	assert.False(t, access.CanModify(al, record{owner: "alice"}))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, access.Caller{Roles: []string{" ADMIN "}}.IsAdmin())
	assert.False(t, access.Caller{Roles: []string{"administrator"}}.IsAdmin())
	assert.False(t, access.Caller{}.IsAdmin())
}
